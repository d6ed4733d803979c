// Package report_repo implements reporting repositories: monthly targets
// and the realised-sales rollup.
package report_repo

import (
	"context"

	sq "github.com/Masterminds/squirrel"
	"github.com/shopspring/decimal"

	"kvtrade/internal/core/apperror"
	"kvtrade/internal/domain/sales"
	"kvtrade/internal/infrastructure/storage/postgres"
	"kvtrade/internal/infrastructure/storage/postgres/catalog_repo"
)

// TargetRepo implements sales.TargetRepository.
type TargetRepo struct {
	*catalog_repo.BaseRepo[sales.MonthlyTarget]
}

// NewTargetRepo creates the monthly target repository.
func NewTargetRepo(tm *postgres.TxManager) *TargetRepo {
	return &TargetRepo{BaseRepo: catalog_repo.NewBaseRepo[sales.MonthlyTarget](tm)}
}

// Insert stores a new target.
func (r *TargetRepo) Insert(ctx context.Context, t *sales.MonthlyTarget) error {
	return r.Create(ctx, t)
}

// GetByKey loads the target for its unique triple.
func (r *TargetRepo) GetByKey(ctx context.Context, yearMonth, targetType, targetCategory string) (*sales.MonthlyTarget, error) {
	return r.GetOne(ctx, sq.Eq{
		"year_month":      yearMonth,
		"target_type":     targetType,
		"target_category": targetCategory,
	})
}

// List returns targets of one period, or all when yearMonth is empty.
func (r *TargetRepo) List(ctx context.Context, yearMonth string) ([]sales.MonthlyTarget, error) {
	query := r.SelectBase()
	if yearMonth != "" {
		query = query.Where(sq.Eq{"year_month": yearMonth})
	}
	return r.Select(ctx, query.OrderBy("year_month DESC", "target_type", "target_category"))
}

// RecordRepo implements sales.RecordRepository.
type RecordRepo struct {
	*catalog_repo.BaseRepo[sales.SalesRecord]
	tm *postgres.TxManager
}

// NewRecordRepo creates the sales record repository.
func NewRecordRepo(tm *postgres.TxManager) *RecordRepo {
	return &RecordRepo{
		BaseRepo: catalog_repo.NewBaseRepo[sales.SalesRecord](tm),
		tm:       tm,
	}
}

// Insert stores one realised sale line.
func (r *RecordRepo) Insert(ctx context.Context, record *sales.SalesRecord) error {
	return r.Create(ctx, record)
}

const summarizeSQL = `
SELECT
	COALESCE(SUM(amount_vnd), 0),
	COALESCE(SUM(amount_usd), 0),
	COUNT(*),
	COALESCE(SUM(quantity), 0),
	COALESCE(AVG(profit_margin), 0)
FROM sales_record
WHERE year_month = $1`

// Summarize aggregates one period in the database.
func (r *RecordRepo) Summarize(ctx context.Context, yearMonth string) (*sales.MonthlySummary, error) {
	summary := &sales.MonthlySummary{YearMonth: yearMonth}
	var (
		totalVND, totalUSD, avgMargin decimal.Decimal
	)
	q := r.tm.GetQuerier(ctx)
	err := q.QueryRow(ctx, summarizeSQL, yearMonth).Scan(
		&totalVND, &totalUSD, &summary.TransactionCount, &summary.Quantity, &avgMargin)
	if err != nil {
		return nil, postgres.MapError(err, "sales_record")
	}
	summary.TotalSalesVND = totalVND
	summary.TotalSalesUSD = totalUSD
	summary.AvgProfitMargin = avgMargin
	return summary, nil
}

// ListMonth returns the raw records of one period.
func (r *RecordRepo) ListMonth(ctx context.Context, yearMonth string) ([]sales.SalesRecord, error) {
	if yearMonth == "" {
		return nil, apperror.NewValidation("year month is required")
	}
	return r.Select(ctx, r.SelectBase().
		Where(sq.Eq{"year_month": yearMonth}).
		OrderBy("sale_date", "created_at"))
}
