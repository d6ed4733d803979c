package catalog_repo

import (
	"context"
	"strconv"
	"time"

	sq "github.com/Masterminds/squirrel"

	"kvtrade/internal/core/apperror"
	"kvtrade/internal/domain/rates"
	"kvtrade/internal/infrastructure/storage/postgres"
)

// RateRepo implements rates.Repository.
type RateRepo struct {
	*BaseRepo[rates.ManagedRate]
}

// NewRateRepo creates the managed-rate repository.
func NewRateRepo(tm *postgres.TxManager) *RateRepo {
	return &RateRepo{BaseRepo: NewBaseRepo[rates.ManagedRate](tm)}
}

// GetActive returns the active rate for a tuple. If duplicates exist from
// historical bugs, the newest created_at wins.
func (r *RateRepo) GetActive(ctx context.Context, year int, base, target string) (*rates.ManagedRate, error) {
	rows, err := r.Select(ctx, r.SelectBase().
		Where(sq.Eq{
			"year":            year,
			"base_currency":   base,
			"target_currency": target,
			"is_active":       true,
		}).
		OrderBy("created_at DESC").
		Limit(1))
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, apperror.NewNotFound("managed_rate", map[string]any{
			"year": year, "base": base, "target": target,
		})
	}
	return &rows[0], nil
}

// ListActive returns active rates, newest year first. year=0 lists all.
func (r *RateRepo) ListActive(ctx context.Context, year int) ([]rates.ManagedRate, error) {
	query := r.SelectBase().Where(sq.Eq{"is_active": true})
	if year != 0 {
		query = query.Where(sq.Eq{"year": year})
	}
	return r.Select(ctx, query.OrderBy("year DESC", "base_currency", "target_currency"))
}

// Insert stores a new rate row.
func (r *RateRepo) Insert(ctx context.Context, rate *rates.ManagedRate) error {
	return r.Create(ctx, rate)
}

// InactivateActive soft-deletes every active row of a tuple.
func (r *RateRepo) InactivateActive(ctx context.Context, year int, base, target, actor string) (int64, error) {
	sqlStr, args, err := psql.Update(r.table).
		Set("is_active", false).
		Set("updated_at", time.Now().UTC()).
		Set("updated_by", actor).
		Where(sq.Eq{
			"year":            year,
			"base_currency":   base,
			"target_currency": target,
			"is_active":       true,
		}).ToSql()
	if err != nil {
		return 0, apperror.NewInternal(err)
	}
	q := r.tm.GetQuerier(ctx)
	tag, err := q.Exec(ctx, sqlStr, args...)
	if err != nil {
		return 0, postgres.MapError(err, r.table)
	}
	return tag.RowsAffected(), nil
}

// LockTuple serialises concurrent upserts of one (year, base, target).
func (r *RateRepo) LockTuple(ctx context.Context, year int, base, target string) error {
	q := r.tm.GetQuerier(ctx)
	_, err := q.Exec(ctx, "SELECT pg_advisory_xact_lock(hashtext($1))",
		"managed_rate:"+strconv.Itoa(year)+":"+base+":"+target)
	if err != nil {
		return postgres.MapError(err, r.table)
	}
	return nil
}
