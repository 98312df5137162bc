package close

import (
	"fmt"
	"time"

	"github.com/odyssey-erp/closeboard/internal/competency"
	"github.com/odyssey-erp/closeboard/internal/domain"
	"github.com/odyssey-erp/closeboard/internal/shared"
)

// Placeholder is shown for absent dates, zero elapsed days and empty notes.
const Placeholder = "-"

// DateLayout renders dates the way Brazilian users read them.
const DateLayout = "02/01/2006"

// Card pairs a company with its closing record for one board column.
type Card struct {
	Company     domain.Company       `json:"company"`
	Record      domain.ClosingRecord `json:"record"`
	ElapsedDays int                  `json:"elapsedDays"`
	Info        string               `json:"info"`
}

// Board is the three-column projection of one competency.
type Board struct {
	Competency competency.YearMonth `json:"competency"`
	Pending    []Card               `json:"pendente"`
	InProgress []Card               `json:"emAndamento"`
	Completed  []Card               `json:"concluido"`
}

// Column returns the cards of a status column.
func (b Board) Column(status domain.Status) []Card {
	switch status {
	case domain.StatusPending:
		return b.Pending
	case domain.StatusInProgress:
		return b.InProgress
	case domain.StatusCompleted:
		return b.Completed
	default:
		return nil
	}
}

func (b *Board) add(card Card) {
	switch card.Record.Status {
	case domain.StatusPending:
		b.Pending = append(b.Pending, card)
	case domain.StatusInProgress:
		b.InProgress = append(b.InProgress, card)
	case domain.StatusCompleted:
		b.Completed = append(b.Completed, card)
	}
}

// ReportRow is one line of the closing report for a competency.
type ReportRow struct {
	CompanyID       string               `json:"companyId"`
	CompanyCode     string               `json:"codigo"`
	Competency      competency.YearMonth `json:"competencia"`
	CompetencyLabel string               `json:"competenciaLabel"`
	Status          domain.Status        `json:"status"`
	StatusLabel     string               `json:"statusLabel"`
	StartedAt       *time.Time           `json:"dataInicio"`
	CompletedAt     *time.Time           `json:"dataConclusao"`
	StartedLabel    string               `json:"dataInicioLabel"`
	CompletedLabel  string               `json:"dataConclusaoLabel"`
	ElapsedDays     int                  `json:"dias"`
	ElapsedLabel    string               `json:"diasLabel"`
	Notes           string               `json:"observacoes"`
}

// ElapsedDays counts whole days between two instants, floored.
// A span ending before it starts is a data consistency error.
func ElapsedDays(start, end time.Time) (int, error) {
	if end.Before(start) {
		return 0, fmt.Errorf("%w: span ends %s before it starts %s", shared.ErrDataConsistency,
			end.Format(time.RFC3339), start.Format(time.RFC3339))
	}
	return int(end.Sub(start) / (24 * time.Hour)), nil
}

// recordElapsed measures a record up to its completion time when it has one,
// up to now otherwise. A record reopened from Completed keeps its completion
// time and is still measured to it. started is false when the record never
// entered InProgress.
func recordElapsed(r domain.ClosingRecord, now time.Time) (days int, started bool, err error) {
	if r.StartedAt == nil {
		return 0, false, nil
	}
	end := now
	if r.CompletedAt != nil {
		end = *r.CompletedAt
	}
	days, err = ElapsedDays(*r.StartedAt, end)
	return days, true, err
}

func dateLabel(t *time.Time) string {
	if t == nil {
		return Placeholder
	}
	return t.Format(DateLayout)
}

func cardInfo(r domain.ClosingRecord, days int, started bool) string {
	switch {
	case r.CompletedAt != nil:
		if !started {
			return "✓ " + dateLabel(r.CompletedAt)
		}
		return fmt.Sprintf("✓ %s (%d dias)", dateLabel(r.CompletedAt), days)
	case started:
		return fmt.Sprintf("Há %d dias", days)
	default:
		return "Aguardando"
	}
}
