package close

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/odyssey-erp/closeboard/internal/competency"
	"github.com/odyssey-erp/closeboard/internal/domain"
	"github.com/odyssey-erp/closeboard/internal/shared"
	"github.com/odyssey-erp/closeboard/internal/store"
)

// Board partitions the active companies started by comp into status columns.
// Missing records are created on the way; companies starting after comp are omitted.
func (s *Service) Board(ctx context.Context, comp competency.YearMonth) (Board, error) {
	if !comp.Valid() {
		return Board{}, fmt.Errorf("close: %w: competency %s", shared.ErrValidation, comp)
	}
	board := Board{Competency: comp, Pending: []Card{}, InProgress: []Card{}, Completed: []Card{}}
	err := s.store.Update(ctx, func(ds *store.Dataset) (bool, error) {
		now := s.now()
		changed := false
		for _, company := range ds.Companies {
			if !company.Active || !company.StartedBy(comp) {
				continue
			}
			idx, created := s.ensure(ds, company.ID, comp)
			changed = changed || created
			rec := ds.Records[idx]
			days, started, err := recordElapsed(rec, now)
			if err != nil {
				s.skip(company, rec, err)
				continue
			}
			board.add(Card{
				Company:     company,
				Record:      rec,
				ElapsedDays: days,
				Info:        cardInfo(rec, days, started),
			})
		}
		return changed, nil
	})
	if err != nil {
		return Board{}, err
	}
	return board, nil
}

// ReportRows builds the report for comp, optionally limited to one status.
// An empty result is not an error.
func (s *Service) ReportRows(ctx context.Context, comp competency.YearMonth, onlyStatus *domain.Status) ([]ReportRow, error) {
	if !comp.Valid() {
		return nil, fmt.Errorf("close: %w: competency %s", shared.ErrValidation, comp)
	}
	if onlyStatus != nil && !onlyStatus.Valid() {
		return nil, fmt.Errorf("close: %w: status %s", shared.ErrValidation, *onlyStatus)
	}
	rows := []ReportRow{}
	err := s.store.Update(ctx, func(ds *store.Dataset) (bool, error) {
		now := s.now()
		changed := false
		for _, company := range ds.Companies {
			if !company.Active || !company.StartedBy(comp) {
				continue
			}
			idx, created := s.ensure(ds, company.ID, comp)
			changed = changed || created
			rec := ds.Records[idx]
			if onlyStatus != nil && rec.Status != *onlyStatus {
				continue
			}
			days, _, err := recordElapsed(rec, now)
			if err != nil {
				s.skip(company, rec, err)
				continue
			}
			rows = append(rows, newReportRow(company, rec, days))
		}
		return changed, nil
	})
	if err != nil {
		return nil, err
	}
	return rows, nil
}

func newReportRow(company domain.Company, rec domain.ClosingRecord, days int) ReportRow {
	elapsed := Placeholder
	if days > 0 {
		elapsed = fmt.Sprintf("%d", days)
	}
	notes := rec.NotesText()
	if notes == "" {
		notes = Placeholder
	}
	return ReportRow{
		CompanyID:       company.ID,
		CompanyCode:     company.Code,
		Competency:      rec.Competency,
		CompetencyLabel: rec.Competency.Label(),
		Status:          rec.Status,
		StatusLabel:     rec.Status.Label(),
		StartedAt:       rec.StartedAt,
		CompletedAt:     rec.CompletedAt,
		StartedLabel:    dateLabel(rec.StartedAt),
		CompletedLabel:  dateLabel(rec.CompletedAt),
		ElapsedDays:     days,
		ElapsedLabel:    elapsed,
		Notes:           notes,
	}
}

func (s *Service) skip(company domain.Company, rec domain.ClosingRecord, err error) {
	s.logger.Warn("skipping inconsistent closing record",
		slog.String("company", company.Code),
		slog.String("record_id", rec.ID),
		slog.String("competency", rec.Competency.String()),
		slog.Any("error", err))
}
