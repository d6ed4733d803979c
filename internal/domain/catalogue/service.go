package catalogue

import (
	"context"
	"strings"

	"kvtrade/internal/core/actor"
	"kvtrade/internal/core/apperror"
	"kvtrade/internal/core/entity"
	"kvtrade/internal/core/id"
	"kvtrade/internal/core/tx"
	"kvtrade/internal/domain"
	"kvtrade/pkg/logger"
)

// Service implements catalogue operations: tree editing, code regeneration
// and the code lifecycle.
type Service struct {
	txManager  tx.Manager
	components ComponentRepository
	codes      CodeRepository
	audit      domain.Auditor
}

// NewService creates the catalogue service.
func NewService(txManager tx.Manager, components ComponentRepository, codes CodeRepository, audit domain.Auditor) *Service {
	return &Service{
		txManager:  txManager,
		components: components,
		codes:      codes,
		audit:      audit,
	}
}

// UpsertComponentInput carries the identity and mutable fields of a node.
type UpsertComponentInput struct {
	Category    Category
	Level       int
	ParentPath  string
	Key         string
	Name        string
	Description string
}

// UpsertComponent inserts a node or updates the existing node with the same
// identity. Above level 1 the full active parent chain must exist.
func (s *Service) UpsertComponent(ctx context.Context, in UpsertComponentInput) (*ComponentNode, error) {
	node := &ComponentNode{
		Base:          entity.NewBase(),
		Category:      in.Category,
		Level:         in.Level,
		ParentPath:    in.ParentPath,
		ComponentKey:  in.Key,
		ComponentName: in.Name,
		Description:   in.Description,
		IsActive:      true,
		Audit:         entity.NewAudit(actor.Name(ctx)),
	}
	if err := node.Validate(ctx); err != nil {
		return nil, err
	}

	var result *ComponentNode
	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		if in.Level > MinLevel {
			if err := s.checkParentChain(ctx, in.Category, in.ParentPath); err != nil {
				return err
			}
		}

		existing, err := s.components.GetByIdentity(ctx, in.Category, in.Level, in.ParentPath, in.Key)
		if err != nil && !apperror.IsNotFound(err) {
			return err
		}

		if existing != nil {
			existing.ComponentName = in.Name
			existing.Description = in.Description
			existing.IsActive = true
			existing.StampUpdate(actor.Name(ctx))
			if err := s.components.Update(ctx, existing); err != nil {
				return err
			}
			s.audit.Record(ctx, "catalogue_component", existing.ID, domain.AuditUpdate, existing)
			result = existing
			return nil
		}

		if err := s.components.Create(ctx, node); err != nil {
			return err
		}
		s.audit.Record(ctx, "catalogue_component", node.ID, domain.AuditCreate, node)
		result = node
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// checkParentChain verifies an active ancestor exists at every level above
// the node, walking the parent path from the top.
func (s *Service) checkParentChain(ctx context.Context, category Category, parentPath string) error {
	tokens := strings.Split(parentPath, "-")
	path := ""
	for i, key := range tokens {
		parent, err := s.components.GetByIdentity(ctx, category, i+1, path, key)
		if err != nil {
			if apperror.IsNotFound(err) {
				return apperror.NewValidation("no active parent chain for this path").
					WithDetail("category", string(category)).
					WithDetail("parentPath", parentPath).
					WithDetail("missingLevel", i+1)
			}
			return err
		}
		if !parent.IsActive {
			return apperror.NewValidation("parent component is inactive").
				WithDetail("parentPath", parentPath).
				WithDetail("inactiveKey", key)
		}
		path = parent.Path()
	}
	return nil
}

// DeactivateComponent soft-deletes a node. Nodes with active children are
// protected; the category's codes are regenerated afterwards so any code
// whose chain broke is removed (available) or flagged (used).
func (s *Service) DeactivateComponent(ctx context.Context, nodeID id.ID) (*RegenerationSummary, error) {
	var summary *RegenerationSummary
	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		node, err := s.components.GetByID(ctx, nodeID)
		if err != nil {
			return err
		}
		if !node.IsActive {
			return nil
		}

		if node.Level < MaxLevel {
			children, err := s.components.CountActiveChildren(ctx, node.Category, node.Level+1, node.Path())
			if err != nil {
				return err
			}
			if children > 0 {
				return apperror.NewDependency("catalogue_component",
					"component has active children and cannot be deactivated").
					WithDetail("children", children)
			}
		}

		node.IsActive = false
		node.StampUpdate(actor.Name(ctx))
		if err := s.components.Update(ctx, node); err != nil {
			return err
		}
		s.audit.Record(ctx, "catalogue_component", node.ID, domain.AuditUpdate, node)

		summary, err = s.regenerateLocked(ctx, node.Category)
		return err
	})
	if err != nil {
		return nil, err
	}
	return summary, nil
}

// RegenerationSummary reports what a regeneration changed.
type RegenerationSummary struct {
	Category Category `json:"category"`
	Total    int      `json:"total"`
	Inserted int      `json:"inserted"`
	Removed  int      `json:"removed"`
	Orphaned int      `json:"orphaned"`
	Restored int      `json:"restored"`
}

// RegenerateCodes rebuilds the generated-code set of a category from the
// Cartesian product of its active component chains. Used codes survive
// regeneration; the operation is idempotent.
func (s *Service) RegenerateCodes(ctx context.Context, category Category) (*RegenerationSummary, error) {
	if !ValidCategory(category) {
		return nil, apperror.NewValidation("category must be a single letter A..I").
			WithDetail("category", string(category))
	}

	var summary *RegenerationSummary
	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		var err error
		summary, err = s.regenerateLocked(ctx, category)
		return err
	})
	if err != nil {
		return nil, err
	}
	return summary, nil
}

// regenerateLocked performs regeneration inside the caller's transaction.
// The category lock serialises against concurrent mark-used so no code can
// be deleted while it is being taken.
func (s *Service) regenerateLocked(ctx context.Context, category Category) (*RegenerationSummary, error) {
	if err := s.codes.LockCategory(ctx, category); err != nil {
		return nil, err
	}

	nodes, err := s.components.ListActive(ctx, category)
	if err != nil {
		return nil, err
	}
	existing, err := s.codes.ListByCategory(ctx, category)
	if err != nil {
		return nil, err
	}

	generated := BuildCodes(nodes)
	diff := DiffCodes(generated, existing)

	if len(diff.Remove) > 0 {
		if _, err := s.codes.DeleteAvailable(ctx, category, diff.Remove); err != nil {
			return nil, err
		}
	}
	if len(diff.Orphan) > 0 {
		if err := s.codes.SetOrphaned(ctx, diff.Orphan, true); err != nil {
			return nil, err
		}
		logger.Warn(ctx, "used codes lost their component chain",
			"category", category, "count", len(diff.Orphan))
	}
	if len(diff.Restore) > 0 {
		if err := s.codes.SetOrphaned(ctx, diff.Restore, false); err != nil {
			return nil, err
		}
	}
	if len(diff.Insert) > 0 {
		rows := make([]GeneratedCode, 0, len(diff.Insert))
		who := actor.Name(ctx)
		for _, p := range diff.Insert {
			base := entity.NewBase()
			rows = append(rows, GeneratedCode{
				Base:        base,
				CodeID:      "GC-" + id.Short(base.ID),
				ProductCode: p.ProductCode,
				Category:    category,
				Description: p.Description,
				Status:      CodeAvailable,
				Audit:       entity.NewAudit(who),
			})
		}
		if err := s.codes.InsertBatch(ctx, rows); err != nil {
			return nil, err
		}
	}

	summary := &RegenerationSummary{
		Category: category,
		Total:    len(generated),
		Inserted: len(diff.Insert),
		Removed:  len(diff.Remove),
		Orphaned: len(diff.Orphan),
		Restored: len(diff.Restore),
	}
	logger.Info(ctx, "codes regenerated",
		"category", category, "total", summary.Total,
		"inserted", summary.Inserted, "removed", summary.Removed)
	return summary, nil
}

// MarkCodeUsed transitions a code from available to used and records the
// product name. The transition is conditional on the current status, so
// concurrent callers cannot both claim the same code.
func (s *Service) MarkCodeUsed(ctx context.Context, productCode, productNameEN string) error {
	return s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		code, err := s.codes.GetByProductCode(ctx, productCode)
		if err != nil {
			return err
		}
		if err := s.codes.LockCategory(ctx, code.Category); err != nil {
			return err
		}

		affected, err := s.codes.MarkUsed(ctx, productCode, productNameEN, actor.Name(ctx))
		if err != nil {
			return err
		}
		if affected == 0 {
			return apperror.NewInvalidState("code is already used").
				WithDetail("productCode", productCode)
		}
		return nil
	})
}

// ReleaseCode transitions a code from used back to available. Invoked when
// the owning master product is hard-deleted.
func (s *Service) ReleaseCode(ctx context.Context, productCode string) error {
	return s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		affected, err := s.codes.Release(ctx, productCode)
		if err != nil {
			return err
		}
		if affected == 0 {
			// Distinguish a missing code from one already available.
			if _, err := s.codes.GetByProductCode(ctx, productCode); err != nil {
				return err
			}
		}
		return nil
	})
}

// GetCode returns a code record by its product code.
func (s *Service) GetCode(ctx context.Context, productCode string) (*GeneratedCode, error) {
	return s.codes.GetByProductCode(ctx, productCode)
}

// ListCodes returns codes filtered by category and status, ordered by
// product code.
func (s *Service) ListCodes(ctx context.Context, category Category, status string, filter domain.ListFilter) (*domain.ListResult[GeneratedCode], error) {
	if category != "" && !ValidCategory(category) {
		return nil, apperror.NewValidation("category must be a single letter A..I").
			WithDetail("category", string(category))
	}
	if status != "" && status != CodeAvailable && status != CodeUsed {
		return nil, apperror.NewValidation("status must be available or used").
			WithDetail("status", status)
	}
	filter.Normalize()
	return s.codes.List(ctx, category, status, filter)
}

// GetComponent returns a tree node by id.
func (s *Service) GetComponent(ctx context.Context, nodeID id.ID) (*ComponentNode, error) {
	return s.components.GetByID(ctx, nodeID)
}

// ListComponents returns nodes of one category and level.
func (s *Service) ListComponents(ctx context.Context, category Category, level int, filter domain.ListFilter) (*domain.ListResult[ComponentNode], error) {
	if !ValidCategory(category) {
		return nil, apperror.NewValidation("category must be a single letter A..I").
			WithDetail("category", string(category))
	}
	if level < MinLevel || level > MaxLevel {
		return nil, apperror.NewValidation("level must be between 1 and 6").
			WithDetail("level", level)
	}
	filter.Normalize()
	return s.components.List(ctx, category, level, filter)
}
