// Package pricing is the stateless price resolution layer. It owns no
// storage; the one blocking call it makes is the rate lookup it delegates.
package pricing

import (
	"context"

	"github.com/shopspring/decimal"

	"kvtrade/internal/core/apperror"
	"kvtrade/internal/domain/rates"
)

// RateSource answers yearly rate lookups. Satisfied by rates.Service.
type RateSource interface {
	GetRate(ctx context.Context, year int, target string) (*rates.Resolved, error)
}

// Resolver converts supply prices between currencies using managed rates.
type Resolver struct {
	source RateSource
}

// NewResolver creates a pricing resolver.
func NewResolver(source RateSource) *Resolver {
	return &Resolver{source: source}
}

// ResolveRate returns the effective supply->target rate for a year.
// Same-currency conversions are identity and never touch the store.
//
// Cross rates go through USD: supply->USD->target. A USD supply or target
// collapses to a single lookup.
func (r *Resolver) ResolveRate(ctx context.Context, supplyCurrency, targetCurrency string, year int) (*rates.Resolved, error) {
	if supplyCurrency == "" || targetCurrency == "" {
		return nil, apperror.NewValidation("supply and target currencies are required")
	}
	if supplyCurrency == targetCurrency {
		return &rates.Resolved{
			Rate:       decimal.NewFromInt(1),
			Provenance: rates.ProvenanceExact,
			Year:       year,
			Base:       supplyCurrency,
			Target:     targetCurrency,
		}, nil
	}

	if supplyCurrency == rates.BaseCurrency {
		return r.source.GetRate(ctx, year, targetCurrency)
	}

	// supply -> USD is the inverse of USD -> supply.
	toUSD, err := r.source.GetRate(ctx, year, supplyCurrency)
	if err != nil {
		return nil, err
	}
	if targetCurrency == rates.BaseCurrency {
		return &rates.Resolved{
			Rate:       decimal.NewFromInt(1).DivRound(toUSD.Rate, 10),
			Provenance: toUSD.Provenance,
			Year:       toUSD.Year,
			Base:       supplyCurrency,
			Target:     targetCurrency,
		}, nil
	}

	toTarget, err := r.source.GetRate(ctx, year, targetCurrency)
	if err != nil {
		return nil, err
	}
	return &rates.Resolved{
		Rate:       toTarget.Rate.DivRound(toUSD.Rate, 10),
		Provenance: weaker(toUSD.Provenance, toTarget.Provenance),
		Year:       year,
		Base:       supplyCurrency,
		Target:     targetCurrency,
	}, nil
}

// weaker returns the less trustworthy of two provenance tags.
func weaker(a, b rates.Provenance) rates.Provenance {
	rank := map[rates.Provenance]int{
		rates.ProvenanceExact:        0,
		rates.ProvenancePreviousYear: 1,
		rates.ProvenanceDefault:      2,
	}
	if rank[b] > rank[a] {
		return b
	}
	return a
}

// Quote is the result of price application.
type Quote struct {
	// ComputedPrice is supply_price converted at the resolved rate.
	ComputedPrice decimal.Decimal `json:"computedPrice"`

	// EffectivePrice is the manual override when one was given, otherwise
	// the computed price. Operators can always see both.
	EffectivePrice decimal.Decimal `json:"effectivePrice"`

	Overridden bool             `json:"overridden"`
	Rate       decimal.Decimal  `json:"rate"`
	Provenance rates.Provenance `json:"provenance"`
}

// ApplyPricing converts a supply price into the target currency.
// A non-negative manual override wins over the computed value; the
// computed value is still returned for comparison.
func (r *Resolver) ApplyPricing(ctx context.Context, supplyCurrency string, supplyPrice decimal.Decimal, targetCurrency string, year int, manualOverride *decimal.Decimal) (*Quote, error) {
	if supplyPrice.IsNegative() {
		return nil, apperror.NewValidation("supply price cannot be negative").
			WithDetail("supplyPrice", supplyPrice.String())
	}

	resolved, err := r.ResolveRate(ctx, supplyCurrency, targetCurrency, year)
	if err != nil {
		return nil, err
	}

	computed := supplyPrice.Mul(resolved.Rate)
	quote := &Quote{
		ComputedPrice:  computed,
		EffectivePrice: computed,
		Rate:           resolved.Rate,
		Provenance:     resolved.Provenance,
	}
	if manualOverride != nil && !manualOverride.IsNegative() {
		quote.EffectivePrice = *manualOverride
		quote.Overridden = true
	}
	return quote, nil
}
