package pricing

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"kvtrade/internal/core/apperror"
	"kvtrade/internal/domain/rates"
)

// stubSource serves rates from a fixed table keyed by target currency.
type stubSource struct {
	table map[string]rates.Resolved
}

func (s stubSource) GetRate(_ context.Context, year int, target string) (*rates.Resolved, error) {
	if r, ok := s.table[target]; ok {
		r.Year = year
		return &r, nil
	}
	return nil, apperror.NewRateUnavailable(rates.BaseCurrency, target, year)
}

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func newResolver() *Resolver {
	return NewResolver(stubSource{table: map[string]rates.Resolved{
		"VND": {Rate: dec("25000"), Provenance: rates.ProvenanceExact, Base: "USD", Target: "VND"},
		"CNY": {Rate: dec("3400"), Provenance: rates.ProvenanceDefault, Base: "USD", Target: "CNY"},
	}})
}

func TestResolveRateSameCurrency(t *testing.T) {
	r := newResolver()
	resolved, err := r.ResolveRate(context.Background(), "VND", "VND", 2025)
	require.NoError(t, err)
	assert.True(t, resolved.Rate.Equal(dec("1")))
	assert.Equal(t, rates.ProvenanceExact, resolved.Provenance)
}

func TestResolveRateFromUSD(t *testing.T) {
	r := newResolver()
	resolved, err := r.ResolveRate(context.Background(), "USD", "VND", 2025)
	require.NoError(t, err)
	assert.True(t, resolved.Rate.Equal(dec("25000")))
}

func TestResolveRateCross(t *testing.T) {
	r := newResolver()

	// CNY -> VND = (USD->VND) / (USD->CNY).
	resolved, err := r.ResolveRate(context.Background(), "CNY", "VND", 2025)
	require.NoError(t, err)
	want := dec("25000").DivRound(dec("3400"), 10)
	assert.True(t, resolved.Rate.Equal(want))
	// Weaker provenance of the two legs.
	assert.Equal(t, rates.ProvenanceDefault, resolved.Provenance)

	// CNY -> USD is the inverse of USD -> CNY.
	resolved, err = r.ResolveRate(context.Background(), "CNY", "USD", 2025)
	require.NoError(t, err)
	assert.True(t, resolved.Rate.Equal(dec("1").DivRound(dec("3400"), 10)))
}

func TestResolveRateUnavailable(t *testing.T) {
	r := newResolver()
	_, err := r.ResolveRate(context.Background(), "USD", "EUR", 2025)
	require.Error(t, err)
	appErr, _ := apperror.AsAppError(err)
	assert.Equal(t, apperror.CodeRateUnavailable, appErr.Code)
}

func TestApplyPricingComputed(t *testing.T) {
	r := newResolver()
	q, err := r.ApplyPricing(context.Background(), "USD", dec("100"), "VND", 2025, nil)
	require.NoError(t, err)
	assert.True(t, q.ComputedPrice.Equal(dec("2500000")))
	assert.True(t, q.EffectivePrice.Equal(dec("2500000")))
	assert.False(t, q.Overridden)
}

func TestApplyPricingManualOverrideWins(t *testing.T) {
	r := newResolver()
	override := dec("2600000")
	q, err := r.ApplyPricing(context.Background(), "USD", dec("100"), "VND", 2025, &override)
	require.NoError(t, err)
	// Computed value kept for comparison, override is effective.
	assert.True(t, q.ComputedPrice.Equal(dec("2500000")))
	assert.True(t, q.EffectivePrice.Equal(dec("2600000")))
	assert.True(t, q.Overridden)
}

func TestApplyPricingNegativeOverrideIgnored(t *testing.T) {
	r := newResolver()
	override := dec("-1")
	q, err := r.ApplyPricing(context.Background(), "USD", dec("100"), "VND", 2025, &override)
	require.NoError(t, err)
	assert.True(t, q.EffectivePrice.Equal(dec("2500000")))
	assert.False(t, q.Overridden)
}

func TestApplyPricingNegativeSupplyPrice(t *testing.T) {
	r := newResolver()
	_, err := r.ApplyPricing(context.Background(), "USD", dec("-5"), "VND", 2025, nil)
	require.Error(t, err)
	appErr, _ := apperror.AsAppError(err)
	assert.Equal(t, apperror.CodeValidation, appErr.Code)
}
