package catalog_repo

import (
	"testing"

	sq "github.com/Masterminds/squirrel"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"kvtrade/internal/domain/catalogue"
	"kvtrade/internal/domain/product"
	"kvtrade/internal/domain/rates"
)

// These tests pin the SQL shapes the builders produce. Repos are created
// without a pool; only query construction is exercised.

func TestCodeRepoColumnsDeriveFromTags(t *testing.T) {
	r := NewCodeRepo(nil)
	assert.Equal(t, "generated_code", r.table)
	assert.Contains(t, r.columns, "id")
	assert.Contains(t, r.columns, "version")
	assert.Contains(t, r.columns, "product_code")
	assert.Contains(t, r.columns, "category_type")
	assert.Contains(t, r.columns, "status")
	assert.Contains(t, r.columns, "orphaned")
	assert.NotContains(t, r.columns, "-")
}

func TestCodeSelectShape(t *testing.T) {
	r := NewCodeRepo(nil)
	sqlStr, args, err := r.SelectBase().
		Where(sq.Eq{"category_type": catalogue.Category("A"), "status": catalogue.CodeAvailable}).
		OrderBy("product_code").
		ToSql()
	require.NoError(t, err)
	assert.Contains(t, sqlStr, "FROM generated_code")
	assert.Contains(t, sqlStr, "ORDER BY product_code")
	assert.Contains(t, sqlStr, "category_type = $")
	assert.Contains(t, sqlStr, "status = $")
	assert.Len(t, args, 2)
}

func TestMarkUsedStatementIsConditional(t *testing.T) {
	sqlStr, args, err := psql.Update("generated_code").
		Set("status", catalogue.CodeUsed).
		Set("product_name_en", "Valve").
		Where(sq.Eq{"product_code": "HR-STD-OPEN-20-R1-V1", "status": catalogue.CodeAvailable}).
		ToSql()
	require.NoError(t, err)
	// The status predicate makes the transition atomic.
	assert.Contains(t, sqlStr, "UPDATE generated_code SET")
	assert.Contains(t, sqlStr, "WHERE product_code = $")
	assert.Contains(t, sqlStr, "AND status = $")
	assert.Contains(t, args, "available")
	assert.Contains(t, args, "used")
}

func TestOptimisticLockUpdateShape(t *testing.T) {
	sqlStr, args, err := psql.Update("supplier").
		SetMap(map[string]any{"company_name": "YMK", "version": 3}).
		Where(sq.Eq{"id": "x", "version": 2}).
		ToSql()
	require.NoError(t, err)
	assert.Contains(t, sqlStr, "WHERE id = $")
	assert.Contains(t, sqlStr, "AND version = $")
	assert.Contains(t, args, 2)
	assert.Contains(t, args, 3)
}

func TestRateActiveLookupShape(t *testing.T) {
	r := NewRateRepo(nil)
	assert.Equal(t, rates.ManagedRate{}.TableName(), r.table)

	sqlStr, _, err := r.SelectBase().
		Where(sq.Eq{"year": 2025, "base_currency": "USD", "target_currency": "VND", "is_active": true}).
		OrderBy("created_at DESC").
		Limit(1).
		ToSql()
	require.NoError(t, err)
	assert.Contains(t, sqlStr, "FROM managed_rate")
	assert.Contains(t, sqlStr, "ORDER BY created_at DESC")
	assert.Contains(t, sqlStr, "LIMIT 1")
}

func TestProductActiveFilterShape(t *testing.T) {
	r := NewProductRepo(nil)
	assert.Equal(t, product.MasterProduct{}.TableName(), r.table)

	like := "%valve%"
	sqlStr, args, err := r.SelectBase().
		Where(sq.Eq{"status": product.StatusActive}).
		Where(sq.Or{
			sq.ILike{"product_code": like},
			sq.ILike{"product_name_en": like},
		}).
		ToSql()
	require.NoError(t, err)
	assert.Contains(t, sqlStr, "status = $")
	assert.Contains(t, sqlStr, "product_code ILIKE $")
	assert.Contains(t, sqlStr, "OR product_name_en ILIKE $")
	assert.Len(t, args, 3)
}
