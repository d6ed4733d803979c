package rates

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"kvtrade/internal/core/apperror"
	"kvtrade/internal/domain"
)

type fakeTx struct{}

func (fakeTx) RunInTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

type tuple struct {
	year         int
	base, target string
}

// memRates is an in-memory Repository keeping full history.
type memRates struct {
	rows []*ManagedRate
}

func (m *memRates) GetActive(_ context.Context, year int, base, target string) (*ManagedRate, error) {
	var newest *ManagedRate
	for _, r := range m.rows {
		if r.Year == year && r.Base_ == base && r.Target == target && r.IsActive {
			if newest == nil || r.CreatedAt.After(newest.CreatedAt) {
				newest = r
			}
		}
	}
	if newest == nil {
		return nil, apperror.NewNotFound("managed_rate", tuple{year, base, target})
	}
	cp := *newest
	return &cp, nil
}

func (m *memRates) ListActive(_ context.Context, year int) ([]ManagedRate, error) {
	var out []ManagedRate
	for _, r := range m.rows {
		if r.IsActive && (year == 0 || r.Year == year) {
			out = append(out, *r)
		}
	}
	return out, nil
}

func (m *memRates) Insert(_ context.Context, r *ManagedRate) error {
	cp := *r
	m.rows = append(m.rows, &cp)
	return nil
}

func (m *memRates) InactivateActive(_ context.Context, year int, base, target, _ string) (int64, error) {
	var n int64
	for _, r := range m.rows {
		if r.Year == year && r.Base_ == base && r.Target == target && r.IsActive {
			r.IsActive = false
			n++
		}
	}
	return n, nil
}

func (m *memRates) LockTuple(context.Context, int, string, string) error { return nil }

func newTestService() (*Service, *memRates) {
	repo := &memRates{}
	return NewService(fakeTx{}, repo, domain.NopAuditor{}), repo
}

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func TestPutYearlyRateValidation(t *testing.T) {
	s, _ := newTestService()
	ctx := context.Background()

	_, err := s.PutYearlyRate(ctx, 2025, "USD", "VND", dec("0"), "")
	require.Error(t, err)
	appErr, _ := apperror.AsAppError(err)
	assert.Equal(t, apperror.CodeValidation, appErr.Code)

	_, err = s.PutYearlyRate(ctx, 2025, "USD", "VND", dec("-5"), "")
	require.Error(t, err)
}

func TestPutYearlyRateReplacesActive(t *testing.T) {
	s, repo := newTestService()
	ctx := context.Background()

	_, err := s.PutYearlyRate(ctx, 2025, "USD", "VND", dec("25000"), "initial")
	require.NoError(t, err)
	_, err = s.PutYearlyRate(ctx, 2025, "USD", "VND", dec("25500"), "revised")
	require.NoError(t, err)

	// History preserved: two rows, one active.
	require.Len(t, repo.rows, 2)
	active := 0
	for _, r := range repo.rows {
		if r.IsActive {
			active++
			assert.True(t, r.Rate.Equal(dec("25500")))
		}
	}
	assert.Equal(t, 1, active)
}

func TestPutYearlyRateValueEqualIsNoop(t *testing.T) {
	s, repo := newTestService()
	ctx := context.Background()

	_, err := s.PutYearlyRate(ctx, 2025, "USD", "VND", dec("25000"), "x")
	require.NoError(t, err)
	_, err = s.PutYearlyRate(ctx, 2025, "USD", "VND", dec("25000"), "x")
	require.NoError(t, err)

	assert.Len(t, repo.rows, 1)
	assert.True(t, repo.rows[0].IsActive)
}

func TestGetRateFallbackChain(t *testing.T) {
	s, _ := newTestService()
	ctx := context.Background()

	_, err := s.PutYearlyRate(ctx, 2025, "USD", "VND", dec("25000"), "")
	require.NoError(t, err)

	// Exact year.
	r, err := s.GetRate(ctx, 2025, "VND")
	require.NoError(t, err)
	assert.True(t, r.Rate.Equal(dec("25000")))
	assert.Equal(t, ProvenanceExact, r.Provenance)
	assert.Equal(t, 2025, r.Year)

	// Next year falls back to previous.
	r, err = s.GetRate(ctx, 2026, "VND")
	require.NoError(t, err)
	assert.True(t, r.Rate.Equal(dec("25000")))
	assert.Equal(t, ProvenancePreviousYear, r.Provenance)
	assert.Equal(t, 2025, r.Year)

	// Clear 2025: default table answers.
	require.NoError(t, s.Inactivate(ctx, 2025, "USD", "VND"))
	r, err = s.GetRate(ctx, 2026, "VND")
	require.NoError(t, err)
	assert.True(t, r.Rate.Equal(dec("24000")))
	assert.Equal(t, ProvenanceDefault, r.Provenance)
}

func TestGetRateDefaults(t *testing.T) {
	s, _ := newTestService()
	ctx := context.Background()

	cases := map[string]string{
		"VND": "24000",
		"CNY": "3400",
		"KRW": "18",
		"THB": "35.3",
		"IDR": "15855",
		"USD": "1",
	}
	for target, want := range cases {
		r, err := s.GetRate(ctx, 2030, target)
		require.NoError(t, err, target)
		assert.True(t, r.Rate.Equal(dec(want)), target)
		assert.Equal(t, ProvenanceDefault, r.Provenance)
	}

	// No managed rate and no default.
	_, err := s.GetRate(ctx, 2030, "EUR")
	require.Error(t, err)
	appErr, _ := apperror.AsAppError(err)
	assert.Equal(t, apperror.CodeRateUnavailable, appErr.Code)
}

func TestGetRateExact(t *testing.T) {
	s, _ := newTestService()
	ctx := context.Background()

	_, err := s.GetRateExact(ctx, 2025, "VND")
	require.Error(t, err)
	appErr, _ := apperror.AsAppError(err)
	assert.Equal(t, apperror.CodeRateUnavailable, appErr.Code)

	_, err = s.PutYearlyRate(ctx, 2025, "USD", "VND", dec("25000"), "")
	require.NoError(t, err)

	r, err := s.GetRateExact(ctx, 2025, "VND")
	require.NoError(t, err)
	assert.Equal(t, ProvenanceExact, r.Provenance)
}

func TestInactivateMissingTuple(t *testing.T) {
	s, _ := newTestService()
	err := s.Inactivate(context.Background(), 2025, "USD", "VND")
	assert.True(t, apperror.IsNotFound(err))
}
