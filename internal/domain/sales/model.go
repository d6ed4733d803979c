// Package sales rolls realised sales up into monthly summaries and compares
// them against stored targets.
package sales

import (
	"context"
	"regexp"
	"time"

	"github.com/shopspring/decimal"

	"kvtrade/internal/core/apperror"
	"kvtrade/internal/core/entity"
)

var yearMonthRe = regexp.MustCompile(`^\d{4}-\d{2}$`)

// ValidYearMonth reports whether s is a YYYY-MM period.
func ValidYearMonth(s string) bool {
	if !yearMonthRe.MatchString(s) {
		return false
	}
	_, err := time.Parse("2006-01", s)
	return err == nil
}

// YearOf returns the year component of a valid YYYY-MM period.
func YearOf(yearMonth string) int {
	t, _ := time.Parse("2006-01", yearMonth)
	return t.Year()
}

// MonthlyTarget is an operator-set goal, unique on
// (year_month, target_type, target_category).
type MonthlyTarget struct {
	entity.Base
	YearMonth         string          `db:"year_month" json:"yearMonth"`
	TargetType        string          `db:"target_type" json:"targetType"`
	TargetCategory    string          `db:"target_category" json:"targetCategory"`
	TargetAmountVND   decimal.Decimal `db:"target_amount_vnd" json:"targetAmountVnd"`
	ResponsiblePerson string          `db:"responsible_person" json:"responsiblePerson"`
	entity.Audit
}

// TableName returns the storage table.
func (MonthlyTarget) TableName() string { return "monthly_target" }

// Validate checks target invariants.
func (t *MonthlyTarget) Validate(_ context.Context) error {
	if !ValidYearMonth(t.YearMonth) {
		return apperror.NewValidation("year month must be YYYY-MM").
			WithDetail("yearMonth", t.YearMonth)
	}
	if t.TargetType == "" {
		return apperror.NewValidation("target type is required")
	}
	if t.TargetAmountVND.IsNegative() {
		return apperror.NewValidation("target amount cannot be negative")
	}
	return nil
}

// SalesRecord is one realised, denormalised sale line. A sale counts toward
// the month of its sale date, not of the quotation that produced it.
type SalesRecord struct {
	entity.Base
	YearMonth    string          `db:"year_month" json:"yearMonth"`
	SaleDate     time.Time       `db:"sale_date" json:"saleDate"`
	Category     string          `db:"category" json:"category"`
	CustomerName string          `db:"customer_name" json:"customerName"`
	ProductCode  string          `db:"product_code" json:"productCode"`
	ProductName  string          `db:"product_name" json:"productName"`
	Quantity     int             `db:"quantity" json:"quantity"`
	AmountVND    decimal.Decimal `db:"amount_vnd" json:"amountVnd"`
	AmountUSD    decimal.Decimal `db:"amount_usd" json:"amountUsd"`
	ProfitMargin decimal.Decimal `db:"profit_margin" json:"profitMargin"`
	entity.Audit
}

// TableName returns the storage table.
func (SalesRecord) TableName() string { return "sales_record" }

// Validate checks record invariants.
func (r *SalesRecord) Validate(_ context.Context) error {
	if !ValidYearMonth(r.YearMonth) {
		return apperror.NewValidation("year month must be YYYY-MM").
			WithDetail("yearMonth", r.YearMonth)
	}
	if r.SaleDate.IsZero() {
		return apperror.NewValidation("sale date is required")
	}
	if r.Quantity < 0 {
		return apperror.NewValidation("quantity cannot be negative")
	}
	if r.AmountVND.IsNegative() || r.AmountUSD.IsNegative() {
		return apperror.NewValidation("amounts cannot be negative")
	}
	return nil
}

// MonthlySummary is the rollup for one period.
type MonthlySummary struct {
	YearMonth        string          `json:"yearMonth"`
	TotalSalesVND    decimal.Decimal `json:"totalSalesVnd"`
	TotalSalesUSD    decimal.Decimal `json:"totalSalesUsd"`
	TransactionCount int             `json:"transactionCount"`
	Quantity         int             `json:"quantity"`
	AvgProfitMargin  decimal.Decimal `json:"avgProfitMargin"`
}

// TargetComparison reports actual against target for one period.
// AchievementRate is nil when no target exists for the period; a missing
// target is undefined, not zero.
type TargetComparison struct {
	YearMonth       string           `json:"yearMonth"`
	ActualVND       decimal.Decimal  `json:"actualVnd"`
	TargetVND       decimal.Decimal  `json:"targetVnd"`
	VarianceVND     decimal.Decimal  `json:"varianceVnd"`
	AchievementRate *decimal.Decimal `json:"achievementRate,omitempty"`
}
