// Package numerator issues gap-free document numbers backed by sys_sequences.
// Each (prefix, period) pair owns an independent counter, so quotation
// numbers restart at 0001 every month.
package numerator

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"kvtrade/internal/core/apperror"
)

// Querier is the minimal query interface (satisfied by pgx pool, conn, tx).
type Querier interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Service allocates sequential numbers.
type Service struct {
	db Querier
}

// New creates a numerator service.
func New(db Querier) *Service {
	return &Service{db: db}
}

const upsertSQL = `
INSERT INTO sys_sequences (key, value)
VALUES ($1, 1)
ON CONFLICT (key) DO UPDATE SET value = sys_sequences.value + 1
RETURNING value`

// Next increments and returns the counter for key.
// The row lock taken by the UPSERT serialises concurrent callers, so the
// counter is gap-free within the surrounding transaction's lifetime.
func (s *Service) Next(ctx context.Context, key string) (int64, error) {
	var value int64
	if err := s.db.QueryRow(ctx, upsertSQL, key).Scan(&value); err != nil {
		return 0, apperror.NewInternal(fmt.Errorf("numerator next for %q: %w", key, err))
	}
	return value, nil
}

// NextMonthly returns a formatted period-scoped number, e.g. "2025-08-0001"
// for prefix "QT" in August 2025. Counters reset per calendar month because
// each month owns a distinct sequence key. Numbers above 9999 widen naturally
// instead of wrapping.
func (s *Service) NextMonthly(ctx context.Context, prefix string, period time.Time) (string, error) {
	month := period.Format("2006-01")
	value, err := s.Next(ctx, fmt.Sprintf("%s_%s", prefix, month))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%s-%04d", month, value), nil
}
