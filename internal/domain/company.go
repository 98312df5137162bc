// Package domain holds the entities shared by the registry and the closing engine.
package domain

import (
	"fmt"
	"strings"
	"time"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/odyssey-erp/closeboard/internal/competency"
	"github.com/odyssey-erp/closeboard/internal/shared"
)

// MaxCodeLength bounds company codes.
const MaxCodeLength = 32

// Company is a registered company whose monthly closing is tracked.
type Company struct {
	ID              string               `json:"id"`
	Code            string               `json:"codigo"`
	Active          bool                 `json:"ativo"`
	StartCompetency competency.YearMonth `json:"competenciaInicial"`
	CreatedAt       time.Time            `json:"createdAt"`
	UpdatedAt       time.Time            `json:"updatedAt"`
}

// StartedBy reports whether the company had begun tracking as of comp.
func (c Company) StartedBy(comp competency.YearMonth) bool {
	return !c.StartCompetency.After(comp)
}

// Validate checks a company as it would be stored: id present, code
// normalized and within MaxCodeLength, start competency valid.
func (c Company) Validate() error {
	switch {
	case c.ID == "":
		return fmt.Errorf("%w: company %q has no id", shared.ErrValidation, c.Code)
	case c.Code == "":
		return fmt.Errorf("%w: company %s has no code", shared.ErrValidation, c.ID)
	case c.Code != NormalizeCode(c.Code):
		return fmt.Errorf("%w: company code %q is not normalized", shared.ErrValidation, c.Code)
	case len([]rune(c.Code)) > MaxCodeLength:
		return fmt.Errorf("%w: company code longer than %d characters", shared.ErrValidation, MaxCodeLength)
	case !c.StartCompetency.Valid():
		return fmt.Errorf("%w: company %s start competency %s", shared.ErrValidation, c.Code, c.StartCompetency)
	}
	return nil
}

// NormalizeCode trims and upper-cases a company code the way it is stored.
// A Caser is stateful, so each call builds its own.
func NormalizeCode(code string) string {
	return cases.Upper(language.Und).String(strings.TrimSpace(code))
}
