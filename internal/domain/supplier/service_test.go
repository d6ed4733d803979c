package supplier

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"kvtrade/internal/core/apperror"
	"kvtrade/internal/core/id"
	"kvtrade/internal/domain"
)

type fakeTx struct{}

func (fakeTx) RunInTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

// memSuppliers is an in-memory Repository.
type memSuppliers struct {
	rows map[id.ID]*Supplier
}

func newMemSuppliers() *memSuppliers {
	return &memSuppliers{rows: make(map[id.ID]*Supplier)}
}

func (m *memSuppliers) Create(_ context.Context, s *Supplier) error {
	cp := *s
	m.rows[s.ID] = &cp
	return nil
}

func (m *memSuppliers) Update(_ context.Context, s *Supplier) error {
	if _, ok := m.rows[s.ID]; !ok {
		return apperror.NewNotFound("supplier", s.ID)
	}
	cp := *s
	m.rows[s.ID] = &cp
	return nil
}

func (m *memSuppliers) GetByID(_ context.Context, supplierID id.ID) (*Supplier, error) {
	s, ok := m.rows[supplierID]
	if !ok {
		return nil, apperror.NewNotFound("supplier", supplierID)
	}
	cp := *s
	return &cp, nil
}

func (m *memSuppliers) GetActiveByName(_ context.Context, companyName string) (*Supplier, error) {
	for _, s := range m.rows {
		if s.CompanyName == companyName && s.Status == StatusActive {
			cp := *s
			return &cp, nil
		}
	}
	return nil, apperror.NewNotFound("supplier", companyName)
}

func (m *memSuppliers) List(_ context.Context, filter domain.ListFilter) (*domain.ListResult[Supplier], error) {
	result := &domain.ListResult[Supplier]{}
	for _, s := range m.rows {
		result.Items = append(result.Items, *s)
	}
	result.Total = len(result.Items)
	return result, nil
}

func newTestService() (*Service, *memSuppliers) {
	repo := newMemSuppliers()
	return NewService(fakeTx{}, repo, domain.NopAuditor{}), repo
}

func TestCreateRejectsDuplicateActiveName(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	_, err := svc.Create(ctx, CreateInput{CompanyName: "Hanoi Steel"})
	require.NoError(t, err)

	_, err = svc.Create(ctx, CreateInput{CompanyName: "Hanoi Steel"})
	require.Error(t, err)
	appErr, ok := apperror.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperror.CodeDuplicate, appErr.Code)
}

func TestCreateValidatesRating(t *testing.T) {
	svc, _ := newTestService()

	_, err := svc.Create(context.Background(), CreateInput{
		CompanyName: "Saigon Trading",
		Rating:      7,
	})
	require.Error(t, err)
	appErr, ok := apperror.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperror.CodeValidation, appErr.Code)
}

func TestInactivateFreesNameForReuse(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	first, err := svc.Create(ctx, CreateInput{CompanyName: "Hanoi Steel"})
	require.NoError(t, err)
	require.NoError(t, svc.Inactivate(ctx, first.ID))

	// Inactivation is idempotent.
	require.NoError(t, svc.Inactivate(ctx, first.ID))

	second, err := svc.Create(ctx, CreateInput{CompanyName: "Hanoi Steel"})
	require.NoError(t, err)
	assert.NotEqual(t, first.ID, second.ID)

	resolved, err := svc.ResolveName(ctx, "Hanoi Steel")
	require.NoError(t, err)
	assert.Equal(t, second.ID, resolved.ID)
}

func TestUpdatePatchesOnlyGivenFields(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	sup, err := svc.Create(ctx, CreateInput{
		CompanyName: "Hanoi Steel",
		Country:     "VN",
		Rating:      3,
	})
	require.NoError(t, err)

	rating := 5
	updated, err := svc.Update(ctx, sup.ID, UpdatePatch{Rating: &rating})
	require.NoError(t, err)
	assert.Equal(t, 5, updated.Rating)
	assert.Equal(t, "VN", updated.Country)
	assert.Equal(t, "Hanoi Steel", updated.CompanyName)
}

func TestResolveNameSkipsInactive(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	sup, err := svc.Create(ctx, CreateInput{CompanyName: "Mekong Supply"})
	require.NoError(t, err)
	require.NoError(t, svc.Inactivate(ctx, sup.ID))

	_, err = svc.ResolveName(ctx, "Mekong Supply")
	assert.True(t, apperror.IsNotFound(err))
}
