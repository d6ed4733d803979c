package rates

import (
	"context"
)

// Repository persists managed rates.
type Repository interface {
	// GetActive returns the active rate for (year, base, target).
	// When duplicates exist the newest created_at wins.
	GetActive(ctx context.Context, year int, base, target string) (*ManagedRate, error)

	// ListActive returns active rates, newest year first. year=0 lists all.
	ListActive(ctx context.Context, year int) ([]ManagedRate, error)

	Insert(ctx context.Context, rate *ManagedRate) error

	// InactivateActive soft-deletes all active rows for the tuple and
	// returns how many were affected.
	InactivateActive(ctx context.Context, year int, base, target, actor string) (int64, error)

	// LockTuple takes a transaction-scoped lock on (year, base, target)
	// so concurrent upserts serialise.
	LockTuple(ctx context.Context, year int, base, target string) error
}
