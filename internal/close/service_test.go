package close

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/odyssey-erp/closeboard/internal/competency"
	"github.com/odyssey-erp/closeboard/internal/domain"
	"github.com/odyssey-erp/closeboard/internal/platform/kv"
	"github.com/odyssey-erp/closeboard/internal/shared"
	"github.com/odyssey-erp/closeboard/internal/store"
)

type fakeClock struct{ t time.Time }

func (c *fakeClock) Now() time.Time          { return c.t }
func (c *fakeClock) Advance(d time.Duration) { c.t = c.t.Add(d) }

// countingBackend only offers Load and Save, so the store takes the
// sequential write path.
type countingBackend struct {
	mem   *kv.Memory
	saves int
	fail  bool
}

func (b *countingBackend) Load(ctx context.Context, key string) ([]byte, error) {
	return b.mem.Load(ctx, key)
}

func (b *countingBackend) Save(ctx context.Context, key string, value []byte) error {
	if b.fail {
		return errors.New("disk full")
	}
	b.saves++
	return b.mem.Save(ctx, key, value)
}

type fixture struct {
	svc     *Service
	store   *store.Store
	clock   *fakeClock
	backend *countingBackend
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	backend := &countingBackend{mem: kv.NewMemory()}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	st, err := store.Open(context.Background(), backend, logger)
	require.NoError(t, err)
	clock := &fakeClock{t: time.Date(2024, time.March, 15, 10, 0, 0, 0, time.UTC)}
	svc := NewService(st, logger)
	svc.WithNow(clock.Now)
	seq := 0
	svc.WithIDs(func() string {
		seq++
		return fmt.Sprintf("rec-%d", seq)
	})
	return &fixture{svc: svc, store: st, clock: clock, backend: backend}
}

func (f *fixture) addCompany(t *testing.T, id, code string, start competency.YearMonth, active bool) domain.Company {
	t.Helper()
	company := domain.Company{ID: id, Code: code, Active: active, StartCompetency: start, CreatedAt: f.clock.Now(), UpdatedAt: f.clock.Now()}
	require.NoError(t, f.store.Update(context.Background(), func(ds *store.Dataset) (bool, error) {
		ds.Companies = append(ds.Companies, company)
		return true, nil
	}))
	return company
}

var (
	jan24 = competency.MustNew(2024, time.January)
	feb24 = competency.MustNew(2024, time.February)
	mar24 = competency.MustNew(2024, time.March)
)

func TestGetOrCreateIsIdempotent(t *testing.T) {
	f := newFixture(t)
	f.addCompany(t, "c1", "ACME", jan24, true)
	ctx := context.Background()

	first, created, err := f.svc.GetOrCreate(ctx, "c1", feb24)
	require.NoError(t, err)
	require.True(t, created)
	require.Equal(t, domain.StatusPending, first.Status)
	require.Nil(t, first.StartedAt)
	require.Nil(t, first.CompletedAt)

	saves := f.backend.saves
	second, created, err := f.svc.GetOrCreate(ctx, "c1", feb24)
	require.NoError(t, err)
	require.False(t, created)
	require.Equal(t, first.ID, second.ID)
	require.Equal(t, first.Status, second.Status)
	require.Equal(t, saves, f.backend.saves, "lookup of an existing record must not persist")
}

func TestGetOrCreateUnknownCompany(t *testing.T) {
	f := newFixture(t)
	_, _, err := f.svc.GetOrCreate(context.Background(), "ghost", feb24)
	require.ErrorIs(t, err, shared.ErrNotFound)
}

func TestTransitionUnknownCompany(t *testing.T) {
	f := newFixture(t)
	_, err := f.svc.Transition(context.Background(), "ghost", feb24, domain.StatusCompleted)
	require.ErrorIs(t, err, shared.ErrNotFound)
}

func TestSelfTransitionChangesNothing(t *testing.T) {
	f := newFixture(t)
	f.addCompany(t, "c1", "ACME", jan24, true)
	ctx := context.Background()

	rec, err := f.svc.Transition(ctx, "c1", feb24, domain.StatusInProgress)
	require.NoError(t, err)
	saves := f.backend.saves

	f.clock.Advance(2 * time.Hour)
	again, err := f.svc.Transition(ctx, "c1", feb24, domain.StatusInProgress)
	require.NoError(t, err)
	require.Equal(t, rec.UpdatedAt, again.UpdatedAt)
	require.Equal(t, rec.StartedAt, again.StartedAt)
	require.Nil(t, again.CompletedAt)
	require.Equal(t, saves, f.backend.saves)
}

func TestPendingInProgressCompletedSetsBothTimestamps(t *testing.T) {
	f := newFixture(t)
	f.addCompany(t, "c1", "ACME", jan24, true)
	ctx := context.Background()

	started, err := f.svc.Transition(ctx, "c1", feb24, domain.StatusInProgress)
	require.NoError(t, err)
	require.NotNil(t, started.StartedAt)
	require.Nil(t, started.CompletedAt)

	f.clock.Advance(36 * time.Hour)
	done, err := f.svc.Transition(ctx, "c1", feb24, domain.StatusCompleted)
	require.NoError(t, err)
	require.Equal(t, domain.StatusCompleted, done.Status)
	require.NotNil(t, done.StartedAt)
	require.NotNil(t, done.CompletedAt)
	require.False(t, done.CompletedAt.Before(*done.StartedAt))
	require.Equal(t, *started.StartedAt, *done.StartedAt)
	require.Equal(t, f.clock.Now(), done.UpdatedAt)
}

func TestPendingToCompletedSkipsStart(t *testing.T) {
	f := newFixture(t)
	f.addCompany(t, "c1", "ACME", jan24, true)

	rec, err := f.svc.Transition(context.Background(), "c1", feb24, domain.StatusCompleted)
	require.NoError(t, err)
	require.Nil(t, rec.StartedAt)
	require.NotNil(t, rec.CompletedAt)
}

func TestTransitionToPendingClearsTimestamps(t *testing.T) {
	for _, via := range [][]domain.Status{
		{domain.StatusInProgress},
		{domain.StatusCompleted},
		{domain.StatusInProgress, domain.StatusCompleted},
	} {
		f := newFixture(t)
		f.addCompany(t, "c1", "ACME", jan24, true)
		ctx := context.Background()
		for _, status := range via {
			_, err := f.svc.Transition(ctx, "c1", feb24, status)
			require.NoError(t, err)
			f.clock.Advance(time.Hour)
		}
		rec, err := f.svc.Transition(ctx, "c1", feb24, domain.StatusPending)
		require.NoError(t, err)
		require.Equal(t, domain.StatusPending, rec.Status)
		require.Nil(t, rec.StartedAt)
		require.Nil(t, rec.CompletedAt)
	}
}

func TestScenarioStartThenRegress(t *testing.T) {
	f := newFixture(t)
	f.addCompany(t, "c1", "ACME", jan24, true)
	ctx := context.Background()

	_, err := f.svc.Transition(ctx, "c1", feb24, domain.StatusInProgress)
	require.NoError(t, err)
	rec, err := f.svc.Transition(ctx, "c1", feb24, domain.StatusPending)
	require.NoError(t, err)
	require.Equal(t, domain.StatusPending, rec.Status)
	require.Nil(t, rec.StartedAt)
	require.Nil(t, rec.CompletedAt)
}

func TestCompletedBackToInProgressKeepsCompletion(t *testing.T) {
	f := newFixture(t)
	f.addCompany(t, "c1", "ACME", jan24, true)
	ctx := context.Background()

	done, err := f.svc.Transition(ctx, "c1", feb24, domain.StatusCompleted)
	require.NoError(t, err)
	f.clock.Advance(time.Hour)
	reopened, err := f.svc.Transition(ctx, "c1", feb24, domain.StatusInProgress)
	require.NoError(t, err)
	require.Equal(t, done.CompletedAt, reopened.CompletedAt)
	require.NotNil(t, reopened.StartedAt)
	require.Equal(t, f.clock.Now(), *reopened.StartedAt)
}

func TestTransitionRejectsUnknownStatus(t *testing.T) {
	f := newFixture(t)
	f.addCompany(t, "c1", "ACME", jan24, true)
	_, err := f.svc.Transition(context.Background(), "c1", feb24, domain.Status(9))
	require.ErrorIs(t, err, shared.ErrValidation)
}

func TestTransitionRollsBackOnPersistenceFailure(t *testing.T) {
	f := newFixture(t)
	f.addCompany(t, "c1", "ACME", jan24, true)
	ctx := context.Background()
	_, _, err := f.svc.GetOrCreate(ctx, "c1", feb24)
	require.NoError(t, err)

	f.backend.fail = true
	_, err = f.svc.Transition(ctx, "c1", feb24, domain.StatusCompleted)
	require.ErrorIs(t, err, shared.ErrPersistence)

	f.backend.fail = false
	rec, created, err := f.svc.GetOrCreate(ctx, "c1", feb24)
	require.NoError(t, err)
	require.False(t, created)
	require.Equal(t, domain.StatusPending, rec.Status)
	require.Nil(t, rec.CompletedAt)
}

func TestElapsedDays(t *testing.T) {
	base := time.Date(2024, time.February, 1, 8, 0, 0, 0, time.UTC)

	days, err := ElapsedDays(base, base)
	require.NoError(t, err)
	require.Equal(t, 0, days)

	days, err = ElapsedDays(base, base.Add(36*time.Hour))
	require.NoError(t, err)
	require.Equal(t, 1, days)

	days, err = ElapsedDays(base, base.Add(23*time.Hour+59*time.Minute))
	require.NoError(t, err)
	require.Equal(t, 0, days)

	_, err = ElapsedDays(base, base.Add(-time.Minute))
	require.ErrorIs(t, err, shared.ErrDataConsistency)
}

func TestMaterializeRangeScenario(t *testing.T) {
	f := newFixture(t)
	f.addCompany(t, "c1", "ACME", jan24, true)

	records, err := f.svc.MaterializeRange(context.Background(), "c1")
	require.NoError(t, err)
	require.Len(t, records, 3)
	for i, want := range []competency.YearMonth{jan24, feb24, mar24} {
		require.Equal(t, want, records[i].Competency)
		require.Equal(t, domain.StatusPending, records[i].Status)
	}
}

func TestMaterializeRangeKeepsExistingRecords(t *testing.T) {
	f := newFixture(t)
	f.addCompany(t, "c1", "ACME", jan24, true)
	ctx := context.Background()

	done, err := f.svc.Transition(ctx, "c1", feb24, domain.StatusCompleted)
	require.NoError(t, err)

	records, err := f.svc.MaterializeRange(ctx, "c1")
	require.NoError(t, err)
	require.Len(t, records, 3)
	require.Equal(t, done.ID, records[1].ID)
	require.Equal(t, domain.StatusCompleted, records[1].Status)

	history, err := f.svc.History("c1")
	require.NoError(t, err)
	require.Len(t, history, 3)
}

func TestMaterializeRangeUnknownCompany(t *testing.T) {
	f := newFixture(t)
	_, err := f.svc.MaterializeRange(context.Background(), "ghost")
	require.ErrorIs(t, err, shared.ErrNotFound)
}

func TestMaterializeAllSkipsInactive(t *testing.T) {
	f := newFixture(t)
	f.addCompany(t, "c1", "ACME", feb24, true)
	f.addCompany(t, "c2", "BETA", jan24, false)

	created, err := f.svc.MaterializeAll(context.Background())
	require.NoError(t, err)
	require.Equal(t, 2, created)

	f.clock.Advance(31 * 24 * time.Hour)
	created, err = f.svc.MaterializeAll(context.Background())
	require.NoError(t, err)
	require.Equal(t, 1, created, "only the new month is added")
}

func TestSetNotes(t *testing.T) {
	f := newFixture(t)
	f.addCompany(t, "c1", "ACME", jan24, true)
	ctx := context.Background()

	rec, err := f.svc.SetNotes(ctx, "c1", feb24, "  aguardando extrato  ")
	require.NoError(t, err)
	require.Equal(t, "aguardando extrato", rec.NotesText())

	saves := f.backend.saves
	f.clock.Advance(time.Minute)
	same, err := f.svc.SetNotes(ctx, "c1", feb24, "aguardando extrato")
	require.NoError(t, err)
	require.Equal(t, rec.UpdatedAt, same.UpdatedAt)
	require.Equal(t, saves, f.backend.saves)

	cleared, err := f.svc.SetNotes(ctx, "c1", feb24, "")
	require.NoError(t, err)
	require.Nil(t, cleared.Notes)
}

func TestMaterializeAllDoesNotOverwriteNewerWrites(t *testing.T) {
	ctx := context.Background()
	server := newFixture(t)
	server.addCompany(t, "c1", "ACME", jan24, true)
	_, err := server.svc.MaterializeRange(ctx, "c1")
	require.NoError(t, err)

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	workerStore, err := store.Open(ctx, server.backend, logger)
	require.NoError(t, err)
	workerClock := &fakeClock{t: server.clock.Now()}
	worker := NewService(workerStore, logger)
	worker.WithNow(workerClock.Now)

	_, err = server.svc.Transition(ctx, "c1", mar24, domain.StatusCompleted)
	require.NoError(t, err)
	server.addCompany(t, "c2", "BETA", mar24, true)

	workerClock.t = time.Date(2024, time.April, 1, 0, 5, 0, 0, time.UTC)
	created, err := worker.MaterializeAll(ctx)
	require.NoError(t, err)
	require.Equal(t, 3, created, "April for ACME; March and April for BETA")

	reopened, err := store.Open(ctx, server.backend, logger)
	require.NoError(t, err)
	snap := reopened.Snapshot()
	_, ok := snap.Company("c2")
	require.True(t, ok)
	idx := snap.RecordIndex("c1", mar24)
	require.GreaterOrEqual(t, idx, 0)
	require.Equal(t, domain.StatusCompleted, snap.Records[idx].Status)
	require.GreaterOrEqual(t, snap.RecordIndex("c1", competency.MustNew(2024, time.April)), 0)
}
