package catalogue

import (
	"context"

	"kvtrade/internal/core/id"
	"kvtrade/internal/domain"
)

// ComponentRepository persists the component tree.
type ComponentRepository interface {
	Create(ctx context.Context, node *ComponentNode) error
	Update(ctx context.Context, node *ComponentNode) error
	GetByID(ctx context.Context, nodeID id.ID) (*ComponentNode, error)
	GetByIdentity(ctx context.Context, category Category, level int, parentPath, key string) (*ComponentNode, error)

	// ListActive returns all active nodes of a category, every level.
	ListActive(ctx context.Context, category Category) ([]ComponentNode, error)

	// List returns nodes of a category and level with pagination.
	List(ctx context.Context, category Category, level int, filter domain.ListFilter) (*domain.ListResult[ComponentNode], error)

	// CountActiveChildren counts active nodes one level below whose
	// parent_path equals the given path.
	CountActiveChildren(ctx context.Context, category Category, level int, path string) (int, error)
}

// CodeRepository persists generated codes.
type CodeRepository interface {
	GetByProductCode(ctx context.Context, productCode string) (*GeneratedCode, error)
	ListByCategory(ctx context.Context, category Category) ([]GeneratedCode, error)
	List(ctx context.Context, category Category, status string, filter domain.ListFilter) (*domain.ListResult[GeneratedCode], error)

	InsertBatch(ctx context.Context, codes []GeneratedCode) error
	DeleteAvailable(ctx context.Context, category Category, productCodes []string) (int64, error)
	SetOrphaned(ctx context.Context, productCodes []string, orphaned bool) error

	// MarkUsed performs the conditional available -> used transition.
	// Returns the number of rows transitioned (0 or 1).
	MarkUsed(ctx context.Context, productCode, productNameEN, actor string) (int64, error)

	// Release performs used -> available and clears the product name.
	Release(ctx context.Context, productCode string) (int64, error)

	// LockCategory takes a transaction-scoped exclusive lock on the
	// category so regeneration and mark-used serialise.
	LockCategory(ctx context.Context, category Category) error
}
