package companies

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"strings"

	"github.com/odyssey-erp/closeboard/internal/close"
	"github.com/odyssey-erp/closeboard/internal/competency"
	"github.com/odyssey-erp/closeboard/internal/masterdata/shared"
	errs "github.com/odyssey-erp/closeboard/internal/shared"
	"github.com/odyssey-erp/closeboard/internal/store"
)

// Service is the company registry. Each operation is one persisted mutation of
// the shared dataset; the closing engine materializes records inside it.
type Service struct {
	store   *store.Store
	closing *close.Service
	logger  *slog.Logger
}

func NewService(st *store.Store, closing *close.Service, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{store: st, closing: closing, logger: logger}
}

// AddCompany registers an active company and creates its closing records from
// start through the current competency.
func (s *Service) AddCompany(ctx context.Context, code string, start competency.YearMonth) (Company, error) {
	code = NormalizeCode(code)
	if err := validateCode(code); err != nil {
		return Company{}, err
	}
	if err := validateStart(start); err != nil {
		return Company{}, err
	}
	var (
		company Company
		created int
	)
	err := s.store.Update(ctx, func(ds *store.Dataset) (bool, error) {
		if ds.CodeTaken(code) {
			return false, fmt.Errorf("companies: %s: %w", code, errs.ErrDuplicateCode)
		}
		now := s.closing.Now()
		company = Company{
			ID:              s.closing.NewID(),
			Code:            code,
			Active:          true,
			StartCompetency: start,
			CreatedAt:       now,
			UpdatedAt:       now,
		}
		ds.Companies = append(ds.Companies, company)
		_, created = s.closing.Materialize(ds, company)
		return true, nil
	})
	if err != nil {
		return Company{}, err
	}
	s.logger.Info("company added",
		slog.String("company_id", company.ID),
		slog.String("code", company.Code),
		slog.String("start", start.String()),
		slog.Int("records", created))
	return company, nil
}

// UpdateStartCompetency moves the company start and rebuilds its history:
// every existing record is discarded, completed ones included.
func (s *Service) UpdateStartCompetency(ctx context.Context, id string, start competency.YearMonth) (Company, error) {
	if err := validateStart(start); err != nil {
		return Company{}, err
	}
	var (
		company          Company
		removed, created int
	)
	err := s.store.Update(ctx, func(ds *store.Dataset) (bool, error) {
		idx := ds.CompanyIndex(id)
		if idx < 0 {
			return false, fmt.Errorf("companies: company %s: %w", id, errs.ErrNotFound)
		}
		ds.Companies[idx].StartCompetency = start
		ds.Companies[idx].UpdatedAt = s.closing.Now()
		company = ds.Companies[idx]
		removed = ds.RemoveRecordsFor(id)
		_, created = s.closing.Materialize(ds, company)
		return true, nil
	})
	if err != nil {
		return Company{}, err
	}
	s.logger.Warn("company history reset",
		slog.String("company_id", id),
		slog.String("start", start.String()),
		slog.Int("discarded", removed),
		slog.Int("records", created))
	return company, nil
}

// ToggleActive flips the active flag.
func (s *Service) ToggleActive(ctx context.Context, id string) (Company, error) {
	var company Company
	err := s.store.Update(ctx, func(ds *store.Dataset) (bool, error) {
		idx := ds.CompanyIndex(id)
		if idx < 0 {
			return false, fmt.Errorf("companies: company %s: %w", id, errs.ErrNotFound)
		}
		ds.Companies[idx].Active = !ds.Companies[idx].Active
		ds.Companies[idx].UpdatedAt = s.closing.Now()
		company = ds.Companies[idx]
		return true, nil
	})
	if err != nil {
		return Company{}, err
	}
	s.logger.Info("company active flag changed", slog.String("company_id", id), slog.Bool("active", company.Active))
	return company, nil
}

// RemoveCompany deletes the company together with all its closing records.
func (s *Service) RemoveCompany(ctx context.Context, id string) error {
	var (
		code    string
		removed int
	)
	err := s.store.Update(ctx, func(ds *store.Dataset) (bool, error) {
		idx := ds.CompanyIndex(id)
		if idx < 0 {
			return false, fmt.Errorf("companies: company %s: %w", id, errs.ErrNotFound)
		}
		code = ds.Companies[idx].Code
		ds.Companies = slices.Delete(ds.Companies, idx, idx+1)
		removed = ds.RemoveRecordsFor(id)
		return true, nil
	})
	if err != nil {
		return err
	}
	s.logger.Info("company removed", slog.String("company_id", id), slog.String("code", code), slog.Int("records", removed))
	return nil
}

// List returns every company in registry order, or by code when sortByCode.
func (s *Service) List(sortByCode bool) []Company {
	if !sortByCode {
		return s.Filter(shared.ListFilters{})
	}
	return s.Filter(shared.ListFilters{SortBy: shared.SortByCode})
}

// Filter lists companies matching a code search and active flag.
func (s *Service) Filter(filters shared.ListFilters) []Company {
	var out []Company
	s.store.View(func(ds *store.Dataset) {
		out = make([]Company, 0, len(ds.Companies))
		search := NormalizeCode(filters.Search)
		for _, c := range ds.Companies {
			if search != "" && !strings.Contains(c.Code, search) {
				continue
			}
			if filters.IsActive != nil && c.Active != *filters.IsActive {
				continue
			}
			out = append(out, c)
		}
	})
	if cmp := sortOrder(filters.SortBy); cmp != nil {
		slices.SortStableFunc(out, cmp)
		if filters.Descending() {
			slices.Reverse(out)
		}
	}
	return out
}

// Get returns a single company.
func (s *Service) Get(id string) (Company, error) {
	var (
		company Company
		ok      bool
	)
	s.store.View(func(ds *store.Dataset) { company, ok = ds.Company(id) })
	if !ok {
		return Company{}, fmt.Errorf("companies: company %s: %w", id, errs.ErrNotFound)
	}
	return company, nil
}

func sortOrder(sortBy string) func(a, b Company) int {
	switch sortBy {
	case shared.SortByCode:
		return func(a, b Company) int { return strings.Compare(a.Code, b.Code) }
	case shared.SortByStart:
		return func(a, b Company) int { return a.StartCompetency.Compare(b.StartCompetency) }
	default:
		return nil
	}
}
