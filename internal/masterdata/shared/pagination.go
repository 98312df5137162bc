package shared

import "math"

// DefaultPerPage applies when a listing does not ask for a page size.
const DefaultPerPage = 50

// ListFilters represents standard list page filters
type ListFilters struct {
	Search   string
	SortBy   string
	SortDir  string
	IsActive *bool
	Page     int
	PerPage  int
}

// Descending reports whether results go in reverse order.
func (f ListFilters) Descending() bool {
	return f.SortDir == SortDesc
}

// Pagination contains metadata for paginated listings.
type Pagination struct {
	Page       int `json:"page"`
	PerPage    int `json:"perPage"`
	Total      int `json:"total"`
	TotalPages int `json:"totalPages"`
}

// NewPagination computes pagination metadata.
func NewPagination(page, perPage, total int) Pagination {
	if perPage <= 0 {
		perPage = DefaultPerPage
	}
	if page <= 0 {
		page = 1
	}
	totalPages := int(math.Ceil(float64(total) / float64(perPage)))
	return Pagination{Page: page, PerPage: perPage, Total: total, TotalPages: totalPages}
}

// Bounds returns the slice window [start, end) of the current page.
func (p Pagination) Bounds() (start, end int) {
	start = min((p.Page-1)*p.PerPage, p.Total)
	end = min(start+p.PerPage, p.Total)
	return start, end
}
