// Package rates owns managed yearly exchange rates and their lookup with
// year fallback. Rates are operator-set, not market quotes.
package rates

import (
	"context"

	"github.com/shopspring/decimal"

	"kvtrade/internal/core/apperror"
	"kvtrade/internal/core/entity"
)

// BaseCurrency is the canonical base for registration and pricing lookups.
const BaseCurrency = "USD"

// Provenance labels how a resolved rate was obtained.
type Provenance string

const (
	ProvenanceExact        Provenance = "exact"
	ProvenancePreviousYear Provenance = "previous_year"
	ProvenanceDefault      Provenance = "default"
)

// ManagedRate is one operator-set yearly rate. At most one active record
// exists per (year, base, target); inactivated records stay for audit.
type ManagedRate struct {
	entity.Base
	Year        int             `db:"year" json:"year"`
	Base_       string          `db:"base_currency" json:"baseCurrency"`
	Target      string          `db:"target_currency" json:"targetCurrency"`
	Rate        decimal.Decimal `db:"rate" json:"rate"`
	Description string          `db:"description" json:"description"`
	IsActive    bool            `db:"is_active" json:"isActive"`
	entity.Audit
}

// TableName returns the storage table.
func (ManagedRate) TableName() string { return "managed_rate" }

// Validate checks rate invariants.
func (r *ManagedRate) Validate(_ context.Context) error {
	if r.Year < 2000 || r.Year > 2100 {
		return apperror.NewValidation("year is out of range").WithDetail("year", r.Year)
	}
	if r.Base_ == "" || r.Target == "" {
		return apperror.NewValidation("base and target currencies are required")
	}
	if !r.Rate.IsPositive() {
		return apperror.NewValidation("rate must be positive").
			WithDetail("rate", r.Rate.String())
	}
	return nil
}

// defaultRates is the built-in USD fallback table used when neither the
// requested year nor the previous year has a managed rate.
var defaultRates = map[string]decimal.Decimal{
	"VND": decimal.NewFromInt(24000),
	"CNY": decimal.NewFromInt(3400),
	"KRW": decimal.NewFromInt(18),
	"THB": decimal.RequireFromString("35.3"),
	"IDR": decimal.NewFromInt(15855),
	"USD": decimal.NewFromInt(1),
}

// DefaultRate returns the built-in USD->target rate, if one exists.
func DefaultRate(target string) (decimal.Decimal, bool) {
	r, ok := defaultRates[target]
	return r, ok
}

// Resolved is the result of a rate lookup.
type Resolved struct {
	Rate       decimal.Decimal `json:"rate"`
	Provenance Provenance      `json:"provenance"`
	Year       int             `json:"year"`
	Base       string          `json:"baseCurrency"`
	Target     string          `json:"targetCurrency"`
}
