package companies

import "github.com/odyssey-erp/closeboard/internal/masterdata/shared"

// CompanyForm is the JSON body for registering a company.
// Field names follow the stored company format.
type CompanyForm struct {
	Code  string `json:"codigo" validate:"required,max=32"`
	Start string `json:"competenciaInicial" validate:"required,datetime=2006-01"`
}

// StartForm changes the start competency of a company.
type StartForm struct {
	Start string `json:"competenciaInicial" validate:"required,datetime=2006-01"`
}

type listResponse struct {
	Companies  []Company         `json:"companies"`
	Total      int               `json:"total"`
	Pagination shared.Pagination `json:"pagination"`
}
