package catalog_repo

import (
	"context"

	sq "github.com/Masterminds/squirrel"

	"kvtrade/internal/domain"
	"kvtrade/internal/domain/supplier"
	"kvtrade/internal/infrastructure/storage/postgres"
)

// SupplierRepo implements supplier.Repository.
type SupplierRepo struct {
	*BaseRepo[supplier.Supplier]
}

// NewSupplierRepo creates the supplier repository.
func NewSupplierRepo(tm *postgres.TxManager) *SupplierRepo {
	return &SupplierRepo{BaseRepo: NewBaseRepo[supplier.Supplier](tm)}
}

// GetActiveByName returns the active supplier with this company name.
func (r *SupplierRepo) GetActiveByName(ctx context.Context, companyName string) (*supplier.Supplier, error) {
	return r.GetOne(ctx, sq.Eq{
		"company_name": companyName,
		"status":       supplier.StatusActive,
	})
}

// List returns suppliers with status and search filters.
func (r *SupplierRepo) List(ctx context.Context, filter domain.ListFilter) (*domain.ListResult[supplier.Supplier], error) {
	var where []sq.Sqlizer
	if status, ok := filter.Filters["status"]; ok {
		where = append(where, sq.Eq{"status": status})
	}
	if country, ok := filter.Filters["country"]; ok {
		where = append(where, sq.Eq{"country": country})
	}
	if filter.Search != "" {
		like := "%" + filter.Search + "%"
		where = append(where, sq.Or{
			sq.ILike{"company_name": like},
			sq.ILike{"contact_name": like},
		})
	}
	return r.ListPage(ctx, where, "company_name", filter)
}
