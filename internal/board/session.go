// Package board keeps the kanban selection state: which competency is on
// screen and how a dropped card maps to a status transition.
package board

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/odyssey-erp/closeboard/internal/close"
	"github.com/odyssey-erp/closeboard/internal/competency"
	"github.com/odyssey-erp/closeboard/internal/domain"
	"github.com/odyssey-erp/closeboard/internal/shared"
)

type engine interface {
	Board(ctx context.Context, comp competency.YearMonth) (close.Board, error)
	Transition(ctx context.Context, companyID string, comp competency.YearMonth, to domain.Status) (domain.ClosingRecord, error)
	Now() time.Time
}

// Session tracks the competency selected on the board.
type Session struct {
	mu     sync.RWMutex
	engine engine
	active competency.YearMonth
}

// NewSession starts on the competency containing the engine clock reading.
func NewSession(e engine) *Session {
	return &Session{engine: e, active: competency.Of(e.Now())}
}

// Active returns the selected competency.
func (s *Session) Active() competency.YearMonth {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.active
}

// SelectCompetency switches the board to a "YYYY-MM" competency.
func (s *Session) SelectCompetency(value string) error {
	comp, err := competency.Parse(value)
	if err != nil {
		return fmt.Errorf("board: %w: %w", shared.ErrValidation, err)
	}
	s.mu.Lock()
	s.active = comp
	s.mu.Unlock()
	return nil
}

// DropCard moves a company's card to column (a status identifier) on the
// selected competency.
func (s *Session) DropCard(ctx context.Context, companyID, column string) (domain.ClosingRecord, error) {
	status, err := domain.ParseStatus(column)
	if err != nil {
		return domain.ClosingRecord{}, fmt.Errorf("board: %w: %w", shared.ErrValidation, err)
	}
	return s.engine.Transition(ctx, companyID, s.Active(), status)
}

// Columns projects the selected competency.
func (s *Session) Columns(ctx context.Context) (close.Board, error) {
	return s.engine.Board(ctx, s.Active())
}

// ColumnsFor projects comp without changing the selection.
func (s *Session) ColumnsFor(ctx context.Context, comp competency.YearMonth) (close.Board, error) {
	return s.engine.Board(ctx, comp)
}

// Picker lists the last n competencies with the selected one flagged.
func (s *Session) Picker(n int) []competency.Option {
	return competency.Recent(s.engine.Now(), n, s.Active())
}
