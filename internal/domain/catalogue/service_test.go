package catalogue

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"kvtrade/internal/core/apperror"
	"kvtrade/internal/core/entity"
	"kvtrade/internal/core/id"
	"kvtrade/internal/domain"
)

// fakeTx runs the function directly, no transaction.
type fakeTx struct{}

func (fakeTx) RunInTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

// memComponents is an in-memory ComponentRepository.
type memComponents struct {
	nodes map[id.ID]*ComponentNode
}

func newMemComponents() *memComponents {
	return &memComponents{nodes: make(map[id.ID]*ComponentNode)}
}

func (m *memComponents) Create(_ context.Context, n *ComponentNode) error {
	cp := *n
	m.nodes[n.ID] = &cp
	return nil
}

func (m *memComponents) Update(_ context.Context, n *ComponentNode) error {
	if _, ok := m.nodes[n.ID]; !ok {
		return apperror.NewNotFound("catalogue_component", n.ID)
	}
	cp := *n
	m.nodes[n.ID] = &cp
	return nil
}

func (m *memComponents) GetByID(_ context.Context, nodeID id.ID) (*ComponentNode, error) {
	if n, ok := m.nodes[nodeID]; ok {
		cp := *n
		return &cp, nil
	}
	return nil, apperror.NewNotFound("catalogue_component", nodeID)
}

func (m *memComponents) GetByIdentity(_ context.Context, cat Category, level int, parentPath, key string) (*ComponentNode, error) {
	for _, n := range m.nodes {
		if n.Category == cat && n.Level == level && n.ParentPath == parentPath && n.ComponentKey == key {
			cp := *n
			return &cp, nil
		}
	}
	return nil, apperror.NewNotFound("catalogue_component", key)
}

func (m *memComponents) ListActive(_ context.Context, cat Category) ([]ComponentNode, error) {
	var out []ComponentNode
	for _, n := range m.nodes {
		if n.Category == cat && n.IsActive {
			out = append(out, *n)
		}
	}
	return out, nil
}

func (m *memComponents) List(_ context.Context, cat Category, level int, _ domain.ListFilter) (*domain.ListResult[ComponentNode], error) {
	var out []ComponentNode
	for _, n := range m.nodes {
		if n.Category == cat && n.Level == level {
			out = append(out, *n)
		}
	}
	return &domain.ListResult[ComponentNode]{Items: out, Total: len(out)}, nil
}

func (m *memComponents) CountActiveChildren(_ context.Context, cat Category, level int, path string) (int, error) {
	count := 0
	for _, n := range m.nodes {
		if n.Category == cat && n.Level == level && n.ParentPath == path && n.IsActive {
			count++
		}
	}
	return count, nil
}

// memCodes is an in-memory CodeRepository.
type memCodes struct {
	codes map[string]*GeneratedCode // by product code
}

func newMemCodes() *memCodes {
	return &memCodes{codes: make(map[string]*GeneratedCode)}
}

func (m *memCodes) GetByProductCode(_ context.Context, pc string) (*GeneratedCode, error) {
	if c, ok := m.codes[pc]; ok {
		cp := *c
		return &cp, nil
	}
	return nil, apperror.NewNotFound("generated_code", pc)
}

func (m *memCodes) ListByCategory(_ context.Context, cat Category) ([]GeneratedCode, error) {
	var out []GeneratedCode
	for _, c := range m.codes {
		if c.Category == cat {
			out = append(out, *c)
		}
	}
	return out, nil
}

func (m *memCodes) List(_ context.Context, cat Category, status string, _ domain.ListFilter) (*domain.ListResult[GeneratedCode], error) {
	var out []GeneratedCode
	for _, c := range m.codes {
		if cat != "" && c.Category != cat {
			continue
		}
		if status != "" && c.Status != status {
			continue
		}
		out = append(out, *c)
	}
	return &domain.ListResult[GeneratedCode]{Items: out, Total: len(out)}, nil
}

func (m *memCodes) InsertBatch(_ context.Context, codes []GeneratedCode) error {
	for _, c := range codes {
		if _, exists := m.codes[c.ProductCode]; exists {
			return apperror.NewDuplicate("generated_code", "product_code", c.ProductCode)
		}
		cp := c
		m.codes[c.ProductCode] = &cp
	}
	return nil
}

func (m *memCodes) DeleteAvailable(_ context.Context, cat Category, pcs []string) (int64, error) {
	var n int64
	for _, pc := range pcs {
		if c, ok := m.codes[pc]; ok && c.Category == cat && c.Status == CodeAvailable {
			delete(m.codes, pc)
			n++
		}
	}
	return n, nil
}

func (m *memCodes) SetOrphaned(_ context.Context, pcs []string, orphaned bool) error {
	for _, pc := range pcs {
		if c, ok := m.codes[pc]; ok {
			c.Orphaned = orphaned
		}
	}
	return nil
}

func (m *memCodes) MarkUsed(_ context.Context, pc, nameEN, _ string) (int64, error) {
	c, ok := m.codes[pc]
	if !ok || c.Status != CodeAvailable {
		return 0, nil
	}
	c.Status = CodeUsed
	c.ProductNameEN = &nameEN
	return 1, nil
}

func (m *memCodes) Release(_ context.Context, pc string) (int64, error) {
	c, ok := m.codes[pc]
	if !ok || c.Status != CodeUsed {
		return 0, nil
	}
	c.Status = CodeAvailable
	c.ProductNameEN = nil
	return 1, nil
}

func (m *memCodes) LockCategory(context.Context, Category) error { return nil }

func newTestService() (*Service, *memComponents, *memCodes) {
	comps := newMemComponents()
	codes := newMemCodes()
	return NewService(fakeTx{}, comps, codes, domain.NopAuditor{}), comps, codes
}

func seedChain(t *testing.T, s *Service, cat Category, keys [6]string) {
	t.Helper()
	path := ""
	for i, key := range keys {
		_, err := s.UpsertComponent(context.Background(), UpsertComponentInput{
			Category:   cat,
			Level:      i + 1,
			ParentPath: path,
			Key:        key,
			Name:       key,
		})
		require.NoError(t, err)
		if path == "" {
			path = key
		} else {
			path += "-" + key
		}
	}
}

func TestUpsertComponentRequiresParentChain(t *testing.T) {
	s, _, _ := newTestService()
	ctx := context.Background()

	_, err := s.UpsertComponent(ctx, UpsertComponentInput{
		Category: "A", Level: 2, ParentPath: "HR", Key: "STD", Name: "Standard",
	})
	require.Error(t, err)
	appErr, ok := apperror.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperror.CodeValidation, appErr.Code)

	_, err = s.UpsertComponent(ctx, UpsertComponentInput{
		Category: "A", Level: 1, Key: "HR", Name: "Hydraulic",
	})
	require.NoError(t, err)

	_, err = s.UpsertComponent(ctx, UpsertComponentInput{
		Category: "A", Level: 2, ParentPath: "HR", Key: "STD", Name: "Standard",
	})
	require.NoError(t, err)
}

func TestUpsertComponentUpdatesExisting(t *testing.T) {
	s, comps, _ := newTestService()
	ctx := context.Background()

	first, err := s.UpsertComponent(ctx, UpsertComponentInput{
		Category: "A", Level: 1, Key: "HR", Name: "Hydraulic",
	})
	require.NoError(t, err)

	second, err := s.UpsertComponent(ctx, UpsertComponentInput{
		Category: "A", Level: 1, Key: "HR", Name: "Hydraulic Rubber",
	})
	require.NoError(t, err)

	assert.Equal(t, first.ID, second.ID)
	assert.Len(t, comps.nodes, 1)
	assert.Equal(t, "Hydraulic Rubber", comps.nodes[first.ID].ComponentName)
}

func TestRegenerateCodesEndToEnd(t *testing.T) {
	s, _, codes := newTestService()
	ctx := context.Background()

	seedChain(t, s, "A", [6]string{"HR", "STD", "OPEN", "20", "R1", "V1"})

	summary, err := s.RegenerateCodes(ctx, "A")
	require.NoError(t, err)
	assert.Equal(t, 1, summary.Total)
	assert.Equal(t, 1, summary.Inserted)

	code, err := s.GetCode(ctx, "HR-STD-OPEN-20-R1-V1")
	require.NoError(t, err)
	assert.Equal(t, CodeAvailable, code.Status)
	assert.True(t, strings.HasPrefix(code.CodeID, "GC-"))

	// Second run changes nothing.
	summary, err = s.RegenerateCodes(ctx, "A")
	require.NoError(t, err)
	assert.Equal(t, 0, summary.Inserted)
	assert.Equal(t, 0, summary.Removed)
	assert.Len(t, codes.codes, 1)
}

func TestRegenerateCodesRemovesAvailableKeepsUsed(t *testing.T) {
	s, comps, codes := newTestService()
	ctx := context.Background()

	seedChain(t, s, "A", [6]string{"HR", "STD", "OPEN", "20", "R1", "V1"})
	// Second variant at level 6.
	_, err := s.UpsertComponent(ctx, UpsertComponentInput{
		Category: "A", Level: 6, ParentPath: "HR-STD-OPEN-20-R1", Key: "V2", Name: "V2",
	})
	require.NoError(t, err)

	_, err = s.RegenerateCodes(ctx, "A")
	require.NoError(t, err)
	assert.Len(t, codes.codes, 2)

	require.NoError(t, s.MarkCodeUsed(ctx, "HR-STD-OPEN-20-R1-V1", "Valve"))

	// Deactivate the whole level-5 node: both chains break.
	var level5 id.ID
	for _, n := range comps.nodes {
		if n.Level == 5 {
			level5 = n.ID
		}
	}
	// Level-5 has active children; deactivation is blocked.
	_, err = s.DeactivateComponent(ctx, level5)
	require.Error(t, err)
	appErr, _ := apperror.AsAppError(err)
	assert.Equal(t, apperror.CodeDependency, appErr.Code)

	// Deactivate the two leaves instead.
	for _, n := range comps.nodes {
		if n.Level == 6 {
			_, err = s.DeactivateComponent(ctx, n.ID)
			require.NoError(t, err)
		}
	}

	// Available code removed, used code kept and flagged.
	_, err = s.GetCode(ctx, "HR-STD-OPEN-20-R1-V2")
	assert.True(t, apperror.IsNotFound(err))

	used, err := s.GetCode(ctx, "HR-STD-OPEN-20-R1-V1")
	require.NoError(t, err)
	assert.Equal(t, CodeUsed, used.Status)
	assert.True(t, used.Orphaned)
}

func TestMarkCodeUsedLifecycle(t *testing.T) {
	s, _, codes := newTestService()
	ctx := context.Background()

	base := entity.NewBase()
	codes.codes["A-B-C-D-E-F"] = &GeneratedCode{
		Base: base, CodeID: "GC-test", ProductCode: "A-B-C-D-E-F",
		Category: "A", Status: CodeAvailable,
	}

	// Unknown code.
	err := s.MarkCodeUsed(ctx, "X-X-X-X-X-X", "Thing")
	assert.True(t, apperror.IsNotFound(err))

	// First use succeeds.
	require.NoError(t, s.MarkCodeUsed(ctx, "A-B-C-D-E-F", "Thing"))
	c, _ := s.GetCode(ctx, "A-B-C-D-E-F")
	assert.Equal(t, CodeUsed, c.Status)
	require.NotNil(t, c.ProductNameEN)
	assert.Equal(t, "Thing", *c.ProductNameEN)

	// Second use is an invalid state.
	err = s.MarkCodeUsed(ctx, "A-B-C-D-E-F", "Other")
	appErr, ok := apperror.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperror.CodeInvalidState, appErr.Code)

	// Release returns it to the pool.
	require.NoError(t, s.ReleaseCode(ctx, "A-B-C-D-E-F"))
	c, _ = s.GetCode(ctx, "A-B-C-D-E-F")
	assert.Equal(t, CodeAvailable, c.Status)
	assert.Nil(t, c.ProductNameEN)

	// Releasing an available code is a no-op.
	require.NoError(t, s.ReleaseCode(ctx, "A-B-C-D-E-F"))
	// Releasing an unknown code is NOT_FOUND.
	err = s.ReleaseCode(ctx, "Z-Z-Z-Z-Z-Z")
	assert.True(t, apperror.IsNotFound(err))
}
