package quotation

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"testing"
	"time"

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

// memRepo is an in-memory Repository enforcing number uniqueness.
type memRepo struct {
	headers map[id.ID]*Quotation
	lines   map[id.ID][]Item
	numbers map[string]bool
}

func newMemRepo() *memRepo {
	return &memRepo{
		headers: make(map[id.ID]*Quotation),
		lines:   make(map[id.ID][]Item),
		numbers: make(map[string]bool),
	}
}

func (m *memRepo) Insert(_ context.Context, q *Quotation) error {
	if m.numbers[q.QuotationNumber] {
		return apperror.NewDuplicate("quotation", "quotation_number", q.QuotationNumber)
	}
	m.numbers[q.QuotationNumber] = true
	cp := *q
	cp.Items = nil
	m.headers[q.ID] = &cp
	return nil
}

func (m *memRepo) UpdateHeader(_ context.Context, q *Quotation) error {
	if _, ok := m.headers[q.ID]; !ok {
		return apperror.NewNotFound("quotation", q.ID)
	}
	cp := *q
	cp.Items = nil
	m.headers[q.ID] = &cp
	return nil
}

func (m *memRepo) GetByID(_ context.Context, qid id.ID) (*Quotation, error) {
	if q, ok := m.headers[qid]; ok {
		cp := *q
		return &cp, nil
	}
	return nil, apperror.NewNotFound("quotation", qid)
}

func (m *memRepo) GetLines(_ context.Context, qid id.ID) ([]Item, error) {
	return append([]Item(nil), m.lines[qid]...), nil
}

func (m *memRepo) SaveLines(_ context.Context, qid id.ID, items []Item) error {
	m.lines[qid] = append([]Item(nil), items...)
	return nil
}

func (m *memRepo) Delete(_ context.Context, qid id.ID) error {
	if q, ok := m.headers[qid]; ok {
		delete(m.numbers, q.QuotationNumber)
	}
	delete(m.headers, qid)
	delete(m.lines, qid)
	return nil
}

func (m *memRepo) ChainMembers(_ context.Context, rootID id.ID) ([]Quotation, error) {
	var out []Quotation
	for _, q := range m.headers {
		if q.ID == rootID || (q.OriginalQuotationID != nil && *q.OriginalQuotationID == rootID) {
			out = append(out, *q)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].RevisionNumber < out[j].RevisionNumber })
	return out, nil
}

func (m *memRepo) Search(_ context.Context, filter SearchFilter) (*domain.ListResult[Quotation], error) {
	var out []Quotation
	for _, q := range m.headers {
		if filter.Status != "" && q.Status != filter.Status {
			continue
		}
		if filter.NumberContains != "" && !strings.Contains(q.QuotationNumber, filter.NumberContains) {
			continue
		}
		if filter.CustomerID != "" && q.CustomerID != filter.CustomerID {
			continue
		}
		out = append(out, *q)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return &domain.ListResult[Quotation]{Items: out, Total: len(out)}, nil
}

// seqNumbers allocates sequential numbers; collideFirst makes the first n
// allocations return an already-taken number to exercise the retry path.
type seqNumbers struct {
	next         int
	collideFirst int
	taken        string
}

func (s *seqNumbers) NextMonthly(_ context.Context, _ string, period time.Time) (string, error) {
	if s.collideFirst > 0 {
		s.collideFirst--
		return s.taken, nil
	}
	s.next++
	return fmt.Sprintf("%s-%04d", period.Format("2006-01"), s.next), nil
}

func newTestService() (*Service, *memRepo, *seqNumbers) {
	repo := newMemRepo()
	numbers := &seqNumbers{}
	s := NewService(fakeTx{}, repo, numbers, domain.NopAuditor{})
	s.now = func() time.Time { return time.Date(2025, 8, 15, 12, 0, 0, 0, time.UTC) }
	return s, repo, numbers
}

func header() HeaderInput {
	return HeaderInput{
		CustomerName: "ACME",
		ProjectName:  "Plant 7",
		Currency:     "USD",
		ExchangeRate: dec("1"),
	}
}

func TestCreateComputesTotalsAndNumber(t *testing.T) {
	s, repo, _ := newTestService()
	ctx := context.Background()

	q, err := s.Create(ctx, header(), []ItemInput{
		{ProductName: "a", Quantity: 2, UnitPrice: dec("100")},
		{ProductName: "b", Quantity: 3, UnitPrice: dec("50")},
	})
	require.NoError(t, err)

	assert.True(t, q.TotalAmount.Equal(dec("350")))
	assert.Regexp(t, `^2025-08-\d{4}$`, q.QuotationNumber)
	assert.Equal(t, StatusDraft, q.Status)
	assert.Equal(t, 0, q.RevisionNumber)
	assert.Nil(t, q.OriginalQuotationID)
	assert.Len(t, repo.lines[q.ID], 2)
	assert.Equal(t, 1, repo.lines[q.ID][0].ItemNumber)
	assert.Equal(t, 2, repo.lines[q.ID][1].ItemNumber)
}

func TestCreateRejectsZeroQuantity(t *testing.T) {
	s, _, _ := newTestService()
	_, err := s.Create(context.Background(), header(), []ItemInput{
		{ProductName: "a", Quantity: 0, UnitPrice: dec("100")},
	})
	require.Error(t, err)
	appErr, _ := apperror.AsAppError(err)
	assert.Equal(t, apperror.CodeValidation, appErr.Code)
}

func TestCreateRetriesOnNumberCollision(t *testing.T) {
	s, repo, numbers := newTestService()
	ctx := context.Background()

	first, err := s.Create(ctx, header(), nil)
	require.NoError(t, err)

	// The next two allocations return the taken number before recovering.
	numbers.collideFirst = 2
	numbers.taken = first.QuotationNumber

	second, err := s.Create(ctx, header(), nil)
	require.NoError(t, err)
	assert.NotEqual(t, first.QuotationNumber, second.QuotationNumber)
	assert.Len(t, repo.headers, 2)
}

func TestCreateGivesUpAfterBoundedRetries(t *testing.T) {
	s, _, numbers := newTestService()
	ctx := context.Background()

	first, err := s.Create(ctx, header(), nil)
	require.NoError(t, err)

	numbers.collideFirst = maxNumberRetries + 1
	numbers.taken = first.QuotationNumber

	_, err = s.Create(ctx, header(), nil)
	require.Error(t, err)
	assert.True(t, apperror.IsConflict(err))
}

func TestAddItemRecomputesTotal(t *testing.T) {
	s, _, _ := newTestService()
	ctx := context.Background()

	q, err := s.Create(ctx, header(), []ItemInput{
		{ProductName: "a", Quantity: 2, UnitPrice: dec("100")},
		{ProductName: "b", Quantity: 3, UnitPrice: dec("50")},
	})
	require.NoError(t, err)

	updated, err := s.AddItem(ctx, q.ID, ItemInput{ProductName: "c", Quantity: 1, UnitPrice: dec("25")})
	require.NoError(t, err)
	assert.True(t, updated.TotalAmount.Equal(dec("375")))
	assert.Equal(t, 3, updated.Items[2].ItemNumber)
}

func TestUpdateImmutableStatuses(t *testing.T) {
	s, _, _ := newTestService()
	ctx := context.Background()

	q, err := s.Create(ctx, header(), nil)
	require.NoError(t, err)

	approved := StatusApproved
	_, err = s.Update(ctx, q.ID, HeaderPatch{Status: &approved}, nil)
	require.NoError(t, err)

	note := "too late"
	_, err = s.Update(ctx, q.ID, HeaderPatch{Notes: &note}, nil)
	require.Error(t, err)
	appErr, _ := apperror.AsAppError(err)
	assert.Equal(t, apperror.CodeInvalidState, appErr.Code)

	_, err = s.AddItem(ctx, q.ID, ItemInput{ProductName: "x", Quantity: 1})
	require.Error(t, err)
}

func TestCreateRevisionChain(t *testing.T) {
	s, _, _ := newTestService()
	ctx := context.Background()

	root, err := s.Create(ctx, header(), []ItemInput{
		{ProductName: "a", Quantity: 2, UnitPrice: dec("100")},
	})
	require.NoError(t, err)

	rev1, err := s.CreateRevision(ctx, root.ID, HeaderPatch{})
	require.NoError(t, err)
	assert.Equal(t, 1, rev1.RevisionNumber)
	require.NotNil(t, rev1.OriginalQuotationID)
	assert.Equal(t, root.ID, *rev1.OriginalQuotationID)
	assert.Equal(t, StatusDraft, rev1.Status)
	assert.NotEqual(t, root.QuotationNumber, rev1.QuotationNumber)
	// Items copied from the source.
	require.Len(t, rev1.Items, 1)
	assert.Equal(t, "a", rev1.Items[0].ProductName)
	assert.NotEqual(t, root.Items[0].ID, rev1.Items[0].ID)

	// Revising the revision still roots at the original.
	rev2, err := s.CreateRevision(ctx, rev1.ID, HeaderPatch{})
	require.NoError(t, err)
	assert.Equal(t, 2, rev2.RevisionNumber)
	assert.Equal(t, root.ID, *rev2.OriginalQuotationID)

	chain, err := s.Revisions(ctx, rev2.ID)
	require.NoError(t, err)
	require.Len(t, chain, 3)
	for i, q := range chain {
		assert.Equal(t, i, q.RevisionNumber)
	}
}

func TestSaveRoutesCreateAndUpdate(t *testing.T) {
	s, _, _ := newTestService()
	ctx := context.Background()

	created, err := s.Save(ctx, SavePayload{
		Header: header(),
		Items:  []ItemInput{{ProductName: "a", Quantity: 1, UnitPrice: dec("100")}},
	})
	require.NoError(t, err)
	assert.True(t, created.Created)

	qid := created.Quotation.ID
	saved, err := s.Save(ctx, SavePayload{
		QuotationID: &qid,
		Items:       []ItemInput{{ProductName: "a", Quantity: 1, UnitPrice: dec("100")}},
	})
	require.NoError(t, err)
	assert.False(t, saved.Created)
	assert.Equal(t, qid, saved.Quotation.ID)
	// Idempotent: total and number unchanged.
	assert.True(t, saved.Quotation.TotalAmount.Equal(created.Quotation.TotalAmount))
	assert.Equal(t, created.Quotation.QuotationNumber, saved.Quotation.QuotationNumber)
}

func TestDeleteCascades(t *testing.T) {
	s, repo, _ := newTestService()
	ctx := context.Background()

	q, err := s.Create(ctx, header(), []ItemInput{{ProductName: "a", Quantity: 1}})
	require.NoError(t, err)

	require.NoError(t, s.Delete(ctx, q.ID))
	assert.Empty(t, repo.headers)
	assert.Empty(t, repo.lines[q.ID])

	err = s.Delete(ctx, q.ID)
	assert.True(t, apperror.IsNotFound(err))
}
