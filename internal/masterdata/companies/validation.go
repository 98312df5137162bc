package companies

import (
	"fmt"

	"github.com/odyssey-erp/closeboard/internal/competency"
	"github.com/odyssey-erp/closeboard/internal/domain"
	"github.com/odyssey-erp/closeboard/internal/shared"
)

// MaxCodeLength bounds company codes.
const MaxCodeLength = domain.MaxCodeLength

func validateCode(code string) error {
	if code == "" {
		return fmt.Errorf("companies: %w: company code is required", shared.ErrValidation)
	}
	if len([]rune(code)) > MaxCodeLength {
		return fmt.Errorf("companies: %w: company code longer than %d characters", shared.ErrValidation, MaxCodeLength)
	}
	return nil
}

func validateStart(start competency.YearMonth) error {
	if !start.Valid() {
		return fmt.Errorf("companies: %w: start competency %s", shared.ErrValidation, start)
	}
	return nil
}
