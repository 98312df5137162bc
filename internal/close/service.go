package close

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/odyssey-erp/closeboard/internal/competency"
	"github.com/odyssey-erp/closeboard/internal/domain"
	"github.com/odyssey-erp/closeboard/internal/shared"
	"github.com/odyssey-erp/closeboard/internal/store"
)

// TransitionObserver is told about every status change that was persisted.
type TransitionObserver interface {
	ObserveTransition(from, to domain.Status)
}

// Service is the closing engine: it materializes closing records, applies
// status transitions and derives board and report projections.
type Service struct {
	store    *store.Store
	logger   *slog.Logger
	now      func() time.Time
	newID    func() string
	observer TransitionObserver
}

// NewService constructs a Service over the shared dataset.
func NewService(st *store.Store, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		store:  st,
		logger: logger,
		now:    time.Now,
		newID:  uuid.NewString,
	}
}

// WithNow overrides the clock for deterministic tests.
func (s *Service) WithNow(now func() time.Time) {
	if now != nil {
		s.now = now
	}
}

// WithIDs overrides identifier generation.
func (s *Service) WithIDs(newID func() string) {
	if newID != nil {
		s.newID = newID
	}
}

// SetObserver installs a transition observer (metrics).
func (s *Service) SetObserver(o TransitionObserver) {
	s.observer = o
}

// Now returns the engine clock reading.
func (s *Service) Now() time.Time { return s.now() }

// CurrentCompetency is the competency containing the engine clock reading.
func (s *Service) CurrentCompetency() competency.YearMonth {
	return competency.Of(s.now())
}

// NewID issues an identifier from the engine's generator.
func (s *Service) NewID() string { return s.newID() }

// GetOrCreate returns the record for (company, competency), creating a Pending
// one when absent. created reports whether it was just created.
func (s *Service) GetOrCreate(ctx context.Context, companyID string, comp competency.YearMonth) (rec domain.ClosingRecord, created bool, err error) {
	if !comp.Valid() {
		return domain.ClosingRecord{}, false, fmt.Errorf("close: %w: competency %s", shared.ErrValidation, comp)
	}
	err = s.store.Update(ctx, func(ds *store.Dataset) (bool, error) {
		if _, ok := ds.Company(companyID); !ok {
			return false, fmt.Errorf("close: company %s: %w", companyID, shared.ErrNotFound)
		}
		var idx int
		idx, created = s.ensure(ds, companyID, comp)
		rec = ds.Records[idx]
		return created, nil
	})
	if err != nil {
		return domain.ClosingRecord{}, false, err
	}
	return rec, created, nil
}

// Transition moves the (company, competency) record to status `to`, creating
// the record first when needed. Self-transitions change nothing.
func (s *Service) Transition(ctx context.Context, companyID string, comp competency.YearMonth, to domain.Status) (domain.ClosingRecord, error) {
	if !to.Valid() {
		return domain.ClosingRecord{}, fmt.Errorf("close: %w: status %s", shared.ErrValidation, to)
	}
	if !comp.Valid() {
		return domain.ClosingRecord{}, fmt.Errorf("close: %w: competency %s", shared.ErrValidation, comp)
	}
	var (
		rec     domain.ClosingRecord
		from    domain.Status
		changed bool
	)
	err := s.store.Update(ctx, func(ds *store.Dataset) (bool, error) {
		if _, ok := ds.Company(companyID); !ok {
			return false, fmt.Errorf("close: company %s: %w", companyID, shared.ErrNotFound)
		}
		idx, created := s.ensure(ds, companyID, comp)
		from = ds.Records[idx].Status
		ds.Records[idx], changed = applyTransition(ds.Records[idx], to, s.now())
		rec = ds.Records[idx]
		return created || changed, nil
	})
	if err != nil {
		return domain.ClosingRecord{}, err
	}
	if changed {
		s.logger.Info("closing status changed",
			slog.String("company_id", companyID),
			slog.String("competency", comp.String()),
			slog.String("from", from.String()),
			slog.String("to", to.String()))
		if s.observer != nil {
			s.observer.ObserveTransition(from, to)
		}
	}
	return rec, nil
}

// SetNotes replaces the free-text notes of a record. Blank notes clear them.
func (s *Service) SetNotes(ctx context.Context, companyID string, comp competency.YearMonth, notes string) (domain.ClosingRecord, error) {
	if !comp.Valid() {
		return domain.ClosingRecord{}, fmt.Errorf("close: %w: competency %s", shared.ErrValidation, comp)
	}
	notes = strings.TrimSpace(notes)
	var rec domain.ClosingRecord
	err := s.store.Update(ctx, func(ds *store.Dataset) (bool, error) {
		if _, ok := ds.Company(companyID); !ok {
			return false, fmt.Errorf("close: company %s: %w", companyID, shared.ErrNotFound)
		}
		idx, created := s.ensure(ds, companyID, comp)
		r := ds.Records[idx]
		if r.NotesText() == notes {
			rec = r
			return created, nil
		}
		if notes == "" {
			r.Notes = nil
		} else {
			r.Notes = &notes
		}
		r.UpdatedAt = s.now()
		ds.Records[idx] = r
		rec = r
		return true, nil
	})
	if err != nil {
		return domain.ClosingRecord{}, err
	}
	return rec, nil
}

// MaterializeRange ensures a record exists for every competency from the
// company's start through the current one and returns them chronologically.
func (s *Service) MaterializeRange(ctx context.Context, companyID string) ([]domain.ClosingRecord, error) {
	var out []domain.ClosingRecord
	err := s.store.Update(ctx, func(ds *store.Dataset) (bool, error) {
		company, ok := ds.Company(companyID)
		if !ok {
			return false, fmt.Errorf("close: company %s: %w", companyID, shared.ErrNotFound)
		}
		var created int
		out, created = s.Materialize(ds, company)
		return created > 0, nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// MaterializeAll runs MaterializeRange for every active company and returns
// how many records were created. It starts from the dataset currently saved in
// the backend, so a long-lived worker never writes back a stale copy.
func (s *Service) MaterializeAll(ctx context.Context) (int, error) {
	total := 0
	err := s.store.UpdateLatest(ctx, func(ds *store.Dataset) (bool, error) {
		total = 0
		for _, company := range ds.Companies {
			if !company.Active {
				continue
			}
			_, created := s.Materialize(ds, company)
			total += created
		}
		return total > 0, nil
	})
	if err != nil {
		return 0, err
	}
	return total, nil
}

// Materialize works directly on ds and is meant to run inside a store.Update
// owned by the caller. Existing records are never overwritten.
func (s *Service) Materialize(ds *store.Dataset, company domain.Company) ([]domain.ClosingRecord, int) {
	span := competency.Range(company.StartCompetency, s.CurrentCompetency())
	out := make([]domain.ClosingRecord, 0, len(span))
	created := 0
	for _, comp := range span {
		idx, isNew := s.ensure(ds, company.ID, comp)
		if isNew {
			created++
		}
		out = append(out, ds.Records[idx])
	}
	return out, created
}

// History lists a company's records in chronological order.
func (s *Service) History(companyID string) ([]domain.ClosingRecord, error) {
	var (
		out   []domain.ClosingRecord
		found bool
	)
	s.store.View(func(ds *store.Dataset) {
		_, found = ds.Company(companyID)
		out = ds.RecordsFor(companyID)
	})
	if !found {
		return nil, fmt.Errorf("close: company %s: %w", companyID, shared.ErrNotFound)
	}
	slices.SortFunc(out, func(a, b domain.ClosingRecord) int { return a.Competency.Compare(b.Competency) })
	return out, nil
}

func (s *Service) ensure(ds *store.Dataset, companyID string, comp competency.YearMonth) (int, bool) {
	if idx := ds.RecordIndex(companyID, comp); idx >= 0 {
		return idx, false
	}
	now := s.now()
	ds.Records = append(ds.Records, domain.ClosingRecord{
		ID:         s.newID(),
		CompanyID:  companyID,
		Competency: comp,
		Status:     domain.StatusPending,
		CreatedAt:  now,
		UpdatedAt:  now,
	})
	return len(ds.Records) - 1, true
}
