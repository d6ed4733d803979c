// Package catalog_repo implements catalog-style repositories (flat entities
// with optimistic locking) on PostgreSQL.
package catalog_repo

import (
	"context"
	"errors"

	sq "github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/jackc/pgx/v5"

	"kvtrade/internal/core/apperror"
	"kvtrade/internal/core/id"
	"kvtrade/internal/domain"
	"kvtrade/internal/infrastructure/storage/postgres"
)

// psql builds queries with $N placeholders.
var psql = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

// Entity is the contract catalog entities satisfy.
type Entity interface {
	TableName() string
}

// BaseRepo provides generic CRUD over one table. Entities carry db tags;
// INSERT and UPDATE column sets derive from them. Updates use optimistic
// locking on the version column.
type BaseRepo[T Entity] struct {
	tm      *postgres.TxManager
	table   string
	columns []string
}

// NewBaseRepo creates a repo for T.
func NewBaseRepo[T Entity](tm *postgres.TxManager) *BaseRepo[T] {
	var zero T
	return &BaseRepo[T]{
		tm:      tm,
		table:   zero.TableName(),
		columns: postgres.ExtractDBColumns(zero),
	}
}

// Create inserts the entity.
func (r *BaseRepo[T]) Create(ctx context.Context, e *T) error {
	values := postgres.StructToMap(*e)
	query := psql.Insert(r.table).SetMap(values)
	sqlStr, args, err := query.ToSql()
	if err != nil {
		return apperror.NewInternal(err)
	}
	q := r.tm.GetQuerier(ctx)
	if _, err := q.Exec(ctx, sqlStr, args...); err != nil {
		return postgres.MapError(err, r.table)
	}
	return nil
}

// Update writes all columns guarded by the stored version; zero affected
// rows means a concurrent writer won. The entity's version is bumped on
// success.
func (r *BaseRepo[T]) Update(ctx context.Context, e *T) error {
	values := postgres.StructToMap(*e)
	entityID, ok := values["id"].(id.ID)
	if !ok {
		return apperror.NewInternal(nil).WithDetail("reason", "entity has no id column")
	}
	version, _ := values["version"].(int)
	delete(values, "id")
	values["version"] = version + 1

	query := psql.Update(r.table).
		SetMap(values).
		Where(sq.Eq{"id": entityID, "version": version})
	sqlStr, args, err := query.ToSql()
	if err != nil {
		return apperror.NewInternal(err)
	}

	q := r.tm.GetQuerier(ctx)
	tag, err := q.Exec(ctx, sqlStr, args...)
	if err != nil {
		return postgres.MapError(err, r.table)
	}
	if tag.RowsAffected() == 0 {
		// Either the row vanished or the version moved.
		exists, err := r.exists(ctx, entityID)
		if err != nil {
			return err
		}
		if !exists {
			return apperror.NewNotFound(r.table, entityID)
		}
		return apperror.NewConcurrentModification(r.table, entityID)
	}

	if v, ok := any(e).(interface{ SetVersion(int) }); ok {
		v.SetVersion(version + 1)
	}
	return nil
}

func (r *BaseRepo[T]) exists(ctx context.Context, entityID id.ID) (bool, error) {
	sqlStr, args, err := psql.Select("1").From(r.table).Where(sq.Eq{"id": entityID}).ToSql()
	if err != nil {
		return false, apperror.NewInternal(err)
	}
	var one int
	q := r.tm.GetQuerier(ctx)
	if err := q.QueryRow(ctx, sqlStr, args...).Scan(&one); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return false, nil
		}
		return false, postgres.MapError(err, r.table)
	}
	return true, nil
}

// GetByID loads one entity.
func (r *BaseRepo[T]) GetByID(ctx context.Context, entityID id.ID) (*T, error) {
	return r.GetOne(ctx, sq.Eq{"id": entityID})
}

// GetOne loads the entity matching the condition.
func (r *BaseRepo[T]) GetOne(ctx context.Context, pred any, args ...any) (*T, error) {
	sqlStr, sqlArgs, err := psql.Select(r.columns...).From(r.table).Where(pred, args...).ToSql()
	if err != nil {
		return nil, apperror.NewInternal(err)
	}
	var e T
	q := r.tm.GetQuerier(ctx)
	if err := pgxscan.Get(ctx, q, &e, sqlStr, sqlArgs...); err != nil {
		return nil, postgres.MapError(err, r.table)
	}
	return &e, nil
}

// Select loads all entities matching the builder.
func (r *BaseRepo[T]) Select(ctx context.Context, query sq.SelectBuilder) ([]T, error) {
	sqlStr, args, err := query.ToSql()
	if err != nil {
		return nil, apperror.NewInternal(err)
	}
	var out []T
	q := r.tm.GetQuerier(ctx)
	if err := pgxscan.Select(ctx, q, &out, sqlStr, args...); err != nil {
		return nil, postgres.MapError(err, r.table)
	}
	return out, nil
}

// SelectBase returns a builder preloaded with the entity columns.
func (r *BaseRepo[T]) SelectBase() sq.SelectBuilder {
	return psql.Select(r.columns...).From(r.table)
}

// Delete removes one row. Foreign key violations surface as DEPENDENCY.
func (r *BaseRepo[T]) Delete(ctx context.Context, entityID id.ID) error {
	sqlStr, args, err := psql.Delete(r.table).Where(sq.Eq{"id": entityID}).ToSql()
	if err != nil {
		return apperror.NewInternal(err)
	}
	q := r.tm.GetQuerier(ctx)
	tag, err := q.Exec(ctx, sqlStr, args...)
	if err != nil {
		return postgres.MapError(err, r.table)
	}
	if tag.RowsAffected() == 0 {
		return apperror.NewNotFound(r.table, entityID)
	}
	return nil
}

// ListPage executes a filtered, counted page query. where may be nil.
func (r *BaseRepo[T]) ListPage(ctx context.Context, where []sq.Sqlizer, orderBy string, filter domain.ListFilter) (*domain.ListResult[T], error) {
	count := psql.Select("COUNT(*)").From(r.table)
	query := r.SelectBase()
	for _, w := range where {
		count = count.Where(w)
		query = query.Where(w)
	}

	sqlStr, args, err := count.ToSql()
	if err != nil {
		return nil, apperror.NewInternal(err)
	}
	var total int
	q := r.tm.GetQuerier(ctx)
	if err := q.QueryRow(ctx, sqlStr, args...).Scan(&total); err != nil {
		return nil, postgres.MapError(err, r.table)
	}

	if orderBy != "" {
		query = query.OrderBy(orderBy)
	}
	items, err := r.Select(ctx, query.
		Limit(uint64(filter.Limit)).
		Offset(uint64(filter.Offset)))
	if err != nil {
		return nil, err
	}
	return &domain.ListResult[T]{Items: items, Total: total}, nil
}
