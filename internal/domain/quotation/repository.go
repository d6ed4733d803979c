package quotation

import (
	"context"
	"time"

	"kvtrade/internal/core/id"
	"kvtrade/internal/domain"
)

// SearchFilter narrows quotation searches. Zero values mean "any".
type SearchFilter struct {
	CustomerID      string
	NumberContains  string
	ProjectContains string
	Status          string
	DateFrom        *time.Time
	DateTo          *time.Time

	domain.ListFilter
}

// Repository persists quotation headers and lines.
type Repository interface {
	Insert(ctx context.Context, q *Quotation) error
	UpdateHeader(ctx context.Context, q *Quotation) error

	// GetByID returns the header without lines.
	GetByID(ctx context.Context, quotationID id.ID) (*Quotation, error)

	GetLines(ctx context.Context, quotationID id.ID) ([]Item, error)

	// SaveLines replaces all lines atomically.
	SaveLines(ctx context.Context, quotationID id.ID, items []Item) error

	// Delete removes the header; lines cascade.
	Delete(ctx context.Context, quotationID id.ID) error

	// ChainMembers returns the root and every revision pointing at it,
	// ordered by revision number.
	ChainMembers(ctx context.Context, rootID id.ID) ([]Quotation, error)

	Search(ctx context.Context, filter SearchFilter) (*domain.ListResult[Quotation], error)
}
