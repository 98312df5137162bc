package domain

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/odyssey-erp/closeboard/internal/competency"
)

// Status enumerates the closing record lifecycle stages.
type Status int

const (
	StatusPending Status = iota
	StatusInProgress
	StatusCompleted
)

// Statuses lists every status in board column order.
var Statuses = []Status{StatusPending, StatusInProgress, StatusCompleted}

// ParseStatus reads the wire identifier used for storage and board columns.
func ParseStatus(value string) (Status, error) {
	switch value {
	case "pendente":
		return StatusPending, nil
	case "em-andamento":
		return StatusInProgress, nil
	case "concluido":
		return StatusCompleted, nil
	default:
		return 0, fmt.Errorf("domain: unknown status %q", value)
	}
}

// String returns the wire identifier.
func (s Status) String() string {
	switch s {
	case StatusPending:
		return "pendente"
	case StatusInProgress:
		return "em-andamento"
	case StatusCompleted:
		return "concluido"
	default:
		return fmt.Sprintf("status(%d)", int(s))
	}
}

// Label returns the human readable name.
func (s Status) Label() string {
	switch s {
	case StatusPending:
		return "Pendente"
	case StatusInProgress:
		return "Em Andamento"
	case StatusCompleted:
		return "Concluído"
	default:
		return s.String()
	}
}

// Valid reports whether s is one of the declared statuses.
func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusInProgress, StatusCompleted:
		return true
	default:
		return false
	}
}

func (s Status) MarshalJSON() ([]byte, error) {
	if !s.Valid() {
		return nil, fmt.Errorf("domain: cannot encode %s", s)
	}
	return json.Marshal(s.String())
}

func (s *Status) UnmarshalJSON(data []byte) error {
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	parsed, err := ParseStatus(raw)
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}

// ClosingRecord tracks one company's closing for one competency.
type ClosingRecord struct {
	ID          string               `json:"id"`
	CompanyID   string               `json:"empresaId"`
	Competency  competency.YearMonth `json:"competencia"`
	Status      Status               `json:"status"`
	StartedAt   *time.Time           `json:"dataInicio"`
	CompletedAt *time.Time           `json:"dataConclusao"`
	Notes       *string              `json:"observacoes"`
	CreatedAt   time.Time            `json:"createdAt"`
	UpdatedAt   time.Time            `json:"updatedAt"`
}

// NotesText returns the notes or an empty string.
func (r ClosingRecord) NotesText() string {
	if r.Notes == nil {
		return ""
	}
	return *r.Notes
}
