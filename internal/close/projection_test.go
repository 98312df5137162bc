package close

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/odyssey-erp/closeboard/internal/competency"
	"github.com/odyssey-erp/closeboard/internal/domain"
	"github.com/odyssey-erp/closeboard/internal/store"
)

func TestReportEmptyWhenNothingMatchesFilter(t *testing.T) {
	f := newFixture(t)
	f.addCompany(t, "c1", "ACME", jan24, true)

	completed := domain.StatusCompleted
	rows, err := f.svc.ReportRows(context.Background(), feb24, &completed)
	require.NoError(t, err)
	require.NotNil(t, rows)
	require.Empty(t, rows)
}

func TestReportRowsLabels(t *testing.T) {
	f := newFixture(t)
	f.addCompany(t, "c1", "ACME", jan24, true)
	f.addCompany(t, "c2", "BETA", jan24, true)
	f.addCompany(t, "c3", "GAMA", jan24, false)
	ctx := context.Background()

	f.clock.t = time.Date(2024, time.February, 5, 9, 0, 0, 0, time.UTC)
	_, err := f.svc.Transition(ctx, "c1", feb24, domain.StatusInProgress)
	require.NoError(t, err)
	f.clock.Advance(3*24*time.Hour + 2*time.Hour)
	_, err = f.svc.Transition(ctx, "c1", feb24, domain.StatusCompleted)
	require.NoError(t, err)
	_, err = f.svc.SetNotes(ctx, "c1", feb24, "ok")
	require.NoError(t, err)

	rows, err := f.svc.ReportRows(ctx, feb24, nil)
	require.NoError(t, err)
	require.Len(t, rows, 2, "inactive companies are not reported")

	acme := rows[0]
	require.Equal(t, "ACME", acme.CompanyCode)
	require.Equal(t, "Fev/2024", acme.CompetencyLabel)
	require.Equal(t, "Concluído", acme.StatusLabel)
	require.Equal(t, "05/02/2024", acme.StartedLabel)
	require.Equal(t, "08/02/2024", acme.CompletedLabel)
	require.Equal(t, 3, acme.ElapsedDays)
	require.Equal(t, "3", acme.ElapsedLabel)
	require.Equal(t, "ok", acme.Notes)

	beta := rows[1]
	require.Equal(t, "Pendente", beta.StatusLabel)
	require.Equal(t, Placeholder, beta.StartedLabel)
	require.Equal(t, Placeholder, beta.CompletedLabel)
	require.Equal(t, 0, beta.ElapsedDays)
	require.Equal(t, Placeholder, beta.ElapsedLabel)
	require.Equal(t, Placeholder, beta.Notes)

	completed := domain.StatusCompleted
	rows, err = f.svc.ReportRows(ctx, feb24, &completed)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	require.Equal(t, "ACME", rows[0].CompanyCode)
}

func TestBoardPartitionsStartedActiveCompanies(t *testing.T) {
	f := newFixture(t)
	f.addCompany(t, "c1", "ACME", jan24, true)
	f.addCompany(t, "c2", "BETA", jan24, true)
	f.addCompany(t, "c3", "LATE", mar24, true)
	f.addCompany(t, "c4", "OFF", jan24, false)
	ctx := context.Background()

	_, err := f.svc.Transition(ctx, "c2", feb24, domain.StatusInProgress)
	require.NoError(t, err)
	f.clock.Advance(48 * time.Hour)

	board, err := f.svc.Board(ctx, feb24)
	require.NoError(t, err)
	require.Equal(t, feb24, board.Competency)
	require.Len(t, board.Pending, 1)
	require.Equal(t, "ACME", board.Pending[0].Company.Code)
	require.Equal(t, "Aguardando", board.Pending[0].Info)
	require.Len(t, board.InProgress, 1)
	require.Equal(t, "BETA", board.InProgress[0].Company.Code)
	require.Equal(t, 2, board.InProgress[0].ElapsedDays)
	require.Equal(t, "Há 2 dias", board.InProgress[0].Info)
	require.Empty(t, board.Completed)

	var lateRecords []domain.ClosingRecord
	f.store.View(func(ds *store.Dataset) { lateRecords = ds.RecordsFor("c3") })
	require.Empty(t, lateRecords, "board must not create records before a company's start")
}

func TestBoardCompletedCardInfo(t *testing.T) {
	f := newFixture(t)
	f.addCompany(t, "c1", "ACME", jan24, true)
	f.addCompany(t, "c2", "BETA", jan24, true)
	ctx := context.Background()

	f.clock.t = time.Date(2024, time.March, 1, 9, 0, 0, 0, time.UTC)
	_, err := f.svc.Transition(ctx, "c1", feb24, domain.StatusInProgress)
	require.NoError(t, err)
	_, err = f.svc.Transition(ctx, "c2", feb24, domain.StatusCompleted)
	require.NoError(t, err)
	f.clock.Advance(5 * 24 * time.Hour)
	_, err = f.svc.Transition(ctx, "c1", feb24, domain.StatusCompleted)
	require.NoError(t, err)
	f.clock.Advance(10 * 24 * time.Hour)

	board, err := f.svc.Board(ctx, feb24)
	require.NoError(t, err)
	require.Len(t, board.Completed, 2)
	require.Equal(t, "✓ 06/03/2024 (5 dias)", board.Completed[0].Info)
	require.Equal(t, 5, board.Completed[0].ElapsedDays)
	require.Equal(t, "✓ 01/03/2024", board.Completed[1].Info)
	require.Len(t, board.Column(domain.StatusCompleted), 2)
}

func TestBoardSkipsInconsistentRecords(t *testing.T) {
	f := newFixture(t)
	f.addCompany(t, "c1", "ACME", jan24, true)
	f.addCompany(t, "c2", "BETA", jan24, true)
	ctx := context.Background()

	future := f.clock.Now().Add(72 * time.Hour)
	require.NoError(t, f.store.Update(ctx, func(ds *store.Dataset) (bool, error) {
		ds.Records = append(ds.Records, domain.ClosingRecord{
			ID: "broken", CompanyID: "c1", Competency: feb24,
			Status: domain.StatusInProgress, StartedAt: &future,
		})
		return true, nil
	}))

	board, err := f.svc.Board(ctx, feb24)
	require.NoError(t, err)
	require.Empty(t, board.InProgress)
	require.Len(t, board.Pending, 1)
	require.Equal(t, "BETA", board.Pending[0].Company.Code)

	rows, err := f.svc.ReportRows(ctx, feb24, nil)
	require.NoError(t, err)
	require.Len(t, rows, 1)
}

func TestBoardRejectsInvalidCompetency(t *testing.T) {
	f := newFixture(t)
	_, err := f.svc.Board(context.Background(), competency.YearMonth{Year: 2024, Month: 13})
	require.Error(t, err)
}

func TestReopenedCardMeasuresToCompletion(t *testing.T) {
	f := newFixture(t)
	f.addCompany(t, "c1", "ACME", jan24, true)
	ctx := context.Background()

	f.clock.t = time.Date(2024, time.March, 1, 9, 0, 0, 0, time.UTC)
	_, err := f.svc.Transition(ctx, "c1", feb24, domain.StatusInProgress)
	require.NoError(t, err)
	f.clock.Advance(2 * 24 * time.Hour)
	_, err = f.svc.Transition(ctx, "c1", feb24, domain.StatusCompleted)
	require.NoError(t, err)
	f.clock.Advance(24 * time.Hour)
	_, err = f.svc.Transition(ctx, "c1", feb24, domain.StatusInProgress)
	require.NoError(t, err)
	f.clock.Advance(7 * 24 * time.Hour)

	board, err := f.svc.Board(ctx, feb24)
	require.NoError(t, err)
	require.Len(t, board.InProgress, 1)
	card := board.InProgress[0]
	require.Equal(t, "✓ 03/03/2024 (2 dias)", card.Info)
	require.Equal(t, 2, card.ElapsedDays)

	rows, err := f.svc.ReportRows(ctx, feb24, nil)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	require.Equal(t, 2, rows[0].ElapsedDays)
	require.Equal(t, "03/03/2024", rows[0].CompletedLabel)
}
