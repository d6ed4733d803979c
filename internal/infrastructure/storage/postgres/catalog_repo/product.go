package catalog_repo

import (
	"context"

	sq "github.com/Masterminds/squirrel"

	"kvtrade/internal/core/apperror"
	"kvtrade/internal/core/id"
	"kvtrade/internal/domain"
	"kvtrade/internal/domain/product"
	"kvtrade/internal/infrastructure/storage/postgres"
)

// ProductRepo implements product.Repository.
type ProductRepo struct {
	*BaseRepo[product.MasterProduct]
}

// NewProductRepo creates the master product repository.
func NewProductRepo(tm *postgres.TxManager) *ProductRepo {
	return &ProductRepo{BaseRepo: NewBaseRepo[product.MasterProduct](tm)}
}

// Insert stores a new master row.
func (r *ProductRepo) Insert(ctx context.Context, m *product.MasterProduct) error {
	return r.Create(ctx, m)
}

// GetByCode loads the row for a product code regardless of status.
func (r *ProductRepo) GetByCode(ctx context.Context, productCode string) (*product.MasterProduct, error) {
	return r.GetOne(ctx, sq.Eq{"product_code": productCode})
}

// DeleteChildren removes price and inventory child rows ahead of a hard
// delete.
func (r *ProductRepo) DeleteChildren(ctx context.Context, productID id.ID) error {
	q := r.tm.GetQuerier(ctx)
	for _, table := range []string{"master_product_price", "master_product_inventory"} {
		sqlStr, args, err := psql.Delete(table).
			Where(sq.Eq{"master_product_id": productID}).ToSql()
		if err != nil {
			return apperror.NewInternal(err)
		}
		if _, err := q.Exec(ctx, sqlStr, args...); err != nil {
			return postgres.MapError(err, table)
		}
	}
	return nil
}

// ListActive filters active products by category, supplier and free text.
func (r *ProductRepo) ListActive(ctx context.Context, filter domain.ListFilter) (*domain.ListResult[product.MasterProduct], error) {
	where := []sq.Sqlizer{sq.Eq{"status": product.StatusActive}}
	if category, ok := filter.Filters["category"]; ok {
		where = append(where, sq.Eq{"category_name": category})
	}
	if sup, ok := filter.Filters["supplier"]; ok {
		where = append(where, sq.Eq{"supplier_name": sup})
	}
	if filter.Search != "" {
		like := "%" + filter.Search + "%"
		where = append(where, sq.Or{
			sq.ILike{"product_code": like},
			sq.ILike{"product_name_en": like},
			sq.ILike{"product_name_vi": like},
		})
	}
	return r.ListPage(ctx, where, "product_code", filter)
}
