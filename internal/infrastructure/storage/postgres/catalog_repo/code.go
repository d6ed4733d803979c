package catalog_repo

import (
	"context"
	"time"

	sq "github.com/Masterminds/squirrel"

	"kvtrade/internal/core/apperror"
	"kvtrade/internal/domain"
	"kvtrade/internal/domain/catalogue"
	"kvtrade/internal/infrastructure/storage/postgres"
)

// CodeRepo implements catalogue.CodeRepository.
type CodeRepo struct {
	*BaseRepo[catalogue.GeneratedCode]
}

// NewCodeRepo creates the generated-code repository.
func NewCodeRepo(tm *postgres.TxManager) *CodeRepo {
	return &CodeRepo{BaseRepo: NewBaseRepo[catalogue.GeneratedCode](tm)}
}

// GetByProductCode loads a code by its unique product code.
func (r *CodeRepo) GetByProductCode(ctx context.Context, productCode string) (*catalogue.GeneratedCode, error) {
	return r.GetOne(ctx, sq.Eq{"product_code": productCode})
}

// ListByCategory returns every code of a category, any status.
func (r *CodeRepo) ListByCategory(ctx context.Context, category catalogue.Category) ([]catalogue.GeneratedCode, error) {
	return r.Select(ctx, r.SelectBase().
		Where(sq.Eq{"category_type": category}).
		OrderBy("product_code"))
}

// List returns codes filtered by category and status, lexicographic by
// product code.
func (r *CodeRepo) List(ctx context.Context, category catalogue.Category, status string, filter domain.ListFilter) (*domain.ListResult[catalogue.GeneratedCode], error) {
	var where []sq.Sqlizer
	if category != "" {
		where = append(where, sq.Eq{"category_type": category})
	}
	if status != "" {
		where = append(where, sq.Eq{"status": status})
	}
	if filter.Search != "" {
		like := "%" + filter.Search + "%"
		where = append(where, sq.Or{
			sq.ILike{"product_code": like},
			sq.ILike{"description": like},
		})
	}
	return r.ListPage(ctx, where, "product_code", filter)
}

// InsertBatch inserts freshly generated codes in one statement.
func (r *CodeRepo) InsertBatch(ctx context.Context, codes []catalogue.GeneratedCode) error {
	if len(codes) == 0 {
		return nil
	}
	query := psql.Insert(r.table).Columns(
		"id", "version", "code_id", "product_code", "category_type",
		"description", "status", "product_name_en", "orphaned",
		"created_at", "updated_at", "created_by", "updated_by",
	)
	for _, c := range codes {
		query = query.Values(
			c.ID, c.Version, c.CodeID, c.ProductCode, c.Category,
			c.Description, c.Status, c.ProductNameEN, c.Orphaned,
			c.CreatedAt, c.UpdatedAt, c.CreatedBy, c.UpdatedBy,
		)
	}
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

// DeleteAvailable removes codes that are still available; used codes are
// never deleted here.
func (r *CodeRepo) DeleteAvailable(ctx context.Context, category catalogue.Category, productCodes []string) (int64, error) {
	if len(productCodes) == 0 {
		return 0, nil
	}
	sqlStr, args, err := psql.Delete(r.table).
		Where(sq.Eq{
			"category_type": category,
			"status":        catalogue.CodeAvailable,
			"product_code":  productCodes,
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

// SetOrphaned flags or unflags used codes whose chain broke.
func (r *CodeRepo) SetOrphaned(ctx context.Context, productCodes []string, orphaned bool) error {
	if len(productCodes) == 0 {
		return nil
	}
	sqlStr, args, err := psql.Update(r.table).
		Set("orphaned", orphaned).
		Set("updated_at", time.Now().UTC()).
		Where(sq.Eq{"product_code": productCodes}).ToSql()
	if err != nil {
		return apperror.NewInternal(err)
	}
	q := r.tm.GetQuerier(ctx)
	if _, err := q.Exec(ctx, sqlStr, args...); err != nil {
		return postgres.MapError(err, r.table)
	}
	return nil
}

// MarkUsed is the conditional available -> used transition. The status
// predicate makes it atomic under concurrency.
func (r *CodeRepo) MarkUsed(ctx context.Context, productCode, productNameEN, actor string) (int64, error) {
	sqlStr, args, err := psql.Update(r.table).
		Set("status", catalogue.CodeUsed).
		Set("product_name_en", productNameEN).
		Set("updated_at", time.Now().UTC()).
		Set("updated_by", actor).
		Where(sq.Eq{"product_code": productCode, "status": catalogue.CodeAvailable}).
		ToSql()
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

// Release is the used -> available transition, clearing the product name.
func (r *CodeRepo) Release(ctx context.Context, productCode string) (int64, error) {
	sqlStr, args, err := psql.Update(r.table).
		Set("status", catalogue.CodeAvailable).
		Set("product_name_en", nil).
		Set("updated_at", time.Now().UTC()).
		Where(sq.Eq{"product_code": productCode, "status": catalogue.CodeUsed}).
		ToSql()
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

// LockCategory takes a transaction-scoped advisory lock on the category.
// Regeneration and mark-used serialise behind it.
func (r *CodeRepo) LockCategory(ctx context.Context, category catalogue.Category) error {
	q := r.tm.GetQuerier(ctx)
	_, err := q.Exec(ctx, "SELECT pg_advisory_xact_lock(hashtext($1))",
		"generated_code:"+string(category))
	if err != nil {
		return postgres.MapError(err, r.table)
	}
	return nil
}
