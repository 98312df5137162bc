package companies

import "github.com/odyssey-erp/closeboard/internal/domain"

// Company is the registry entity.
type Company = domain.Company

// NormalizeCode trims and upper-cases a company code the way it is stored.
func NormalizeCode(code string) string {
	return domain.NormalizeCode(code)
}
