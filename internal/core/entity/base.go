package entity

import (
	"context"
	"time"

	"kvtrade/internal/core/id"
)

// Validatable is implemented by entities that support self-validation.
// Validation checks internal invariants (without database access).
type Validatable interface {
	// Validate checks entity invariants.
	// Returns nil if valid, AppError with details otherwise.
	Validate(ctx context.Context) error
}

// Base contains common fields for all persisted entities.
type Base struct {
	// ID is the primary key (UUIDv7)
	ID id.ID `db:"id" json:"id"`

	// Version for optimistic locking (incremented on each update)
	Version int `db:"version" json:"version"`
}

// NewBase creates a new Base with generated ID.
func NewBase() Base {
	return Base{
		ID:      id.New(),
		Version: 1,
	}
}

// Touch increments version (for optimistic locking).
func (b *Base) Touch() {
	b.Version++
}

// SetVersion updates the version number (used by repository after sync).
func (b *Base) SetVersion(v int) {
	b.Version = v
}

// Audit carries who/when fields shared by catalog and document entities.
type Audit struct {
	CreatedAt time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt time.Time `db:"updated_at" json:"updatedAt"`
	CreatedBy string    `db:"created_by" json:"createdBy,omitempty"`
	UpdatedBy string    `db:"updated_by" json:"updatedBy,omitempty"`
}

// NewAudit creates Audit fields stamped with the current time.
func NewAudit(actor string) Audit {
	now := time.Now().UTC()
	return Audit{
		CreatedAt: now,
		UpdatedAt: now,
		CreatedBy: actor,
		UpdatedBy: actor,
	}
}

// StampUpdate bumps UpdatedAt and records the updating actor.
func (a *Audit) StampUpdate(actor string) {
	a.UpdatedAt = time.Now().UTC()
	if actor != "" {
		a.UpdatedBy = actor
	}
}
