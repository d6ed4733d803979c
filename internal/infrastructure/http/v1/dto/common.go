// Package dto holds transport-level helpers shared by the v1 handlers.
package dto

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"kvtrade/internal/domain"
)

// ParseListFilter reads pagination and search query parameters.
// limit/offset fall back to safe defaults; filters named in keys are
// copied from same-named query parameters.
func ParseListFilter(c *gin.Context, filterKeys ...string) domain.ListFilter {
	filter := domain.ListFilter{
		Search: c.Query("search"),
	}
	if v, err := strconv.Atoi(c.Query("limit")); err == nil {
		filter.Limit = v
	}
	if v, err := strconv.Atoi(c.Query("offset")); err == nil {
		filter.Offset = v
	}
	for _, key := range filterKeys {
		if v := c.Query(key); v != "" {
			if filter.Filters == nil {
				filter.Filters = make(map[string]any)
			}
			filter.Filters[key] = v
		}
	}
	filter.Normalize()
	return filter
}

// Page is the common list response envelope.
type Page[T any] struct {
	Items  []T `json:"items"`
	Total  int `json:"total"`
	Limit  int `json:"limit"`
	Offset int `json:"offset"`
}

// NewPage wraps a ListResult with its pagination inputs.
func NewPage[T any](result *domain.ListResult[T], filter domain.ListFilter) Page[T] {
	items := result.Items
	if items == nil {
		items = []T{}
	}
	return Page[T]{
		Items:  items,
		Total:  result.Total,
		Limit:  filter.Limit,
		Offset: filter.Offset,
	}
}
