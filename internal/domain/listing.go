// Package domain holds types shared by all domain services.
package domain

// ListFilter describes pagination, ordering and field filters for list
// operations. Filters map column names to exact-match values; repositories
// whitelist the columns they accept.
type ListFilter struct {
	Limit   int
	Offset  int
	OrderBy string
	Desc    bool
	Filters map[string]any

	// Search is a free-text term matched against entity-specific columns.
	Search string
}

// Normalize clamps pagination to safe bounds.
func (f *ListFilter) Normalize() {
	if f.Limit <= 0 || f.Limit > 500 {
		f.Limit = 50
	}
	if f.Offset < 0 {
		f.Offset = 0
	}
}

// ListResult is a page of entities with the total row count.
type ListResult[T any] struct {
	Items []T `json:"items"`
	Total int `json:"total"`
}
