package shared

const (
	// Sort keys
	SortByCode  = "code"
	SortByStart = "start"

	// Sort directions
	SortAsc  = "asc"
	SortDesc = "desc"
)
