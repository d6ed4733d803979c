package catalog_repo

import (
	"context"

	sq "github.com/Masterminds/squirrel"

	"kvtrade/internal/core/apperror"
	"kvtrade/internal/domain"
	"kvtrade/internal/domain/catalogue"
	"kvtrade/internal/infrastructure/storage/postgres"
)

// ComponentRepo implements catalogue.ComponentRepository.
type ComponentRepo struct {
	*BaseRepo[catalogue.ComponentNode]
}

// NewComponentRepo creates the component tree repository.
func NewComponentRepo(tm *postgres.TxManager) *ComponentRepo {
	return &ComponentRepo{BaseRepo: NewBaseRepo[catalogue.ComponentNode](tm)}
}

// GetByIdentity loads the node with the given tree identity.
func (r *ComponentRepo) GetByIdentity(ctx context.Context, category catalogue.Category, level int, parentPath, key string) (*catalogue.ComponentNode, error) {
	return r.GetOne(ctx, sq.Eq{
		"category_type": category,
		"level":         level,
		"parent_path":   parentPath,
		"component_key": key,
	})
}

// ListActive returns every active node of a category across all levels,
// ordered for a stable tree walk.
func (r *ComponentRepo) ListActive(ctx context.Context, category catalogue.Category) ([]catalogue.ComponentNode, error) {
	return r.Select(ctx, r.SelectBase().
		Where(sq.Eq{"category_type": category, "is_active": true}).
		OrderBy("level", "parent_path", "component_key"))
}

// List returns one level of a category with pagination.
func (r *ComponentRepo) List(ctx context.Context, category catalogue.Category, level int, filter domain.ListFilter) (*domain.ListResult[catalogue.ComponentNode], error) {
	where := []sq.Sqlizer{sq.Eq{"category_type": category, "level": level}}
	if filter.Search != "" {
		like := "%" + filter.Search + "%"
		where = append(where, sq.Or{
			sq.ILike{"component_key": like},
			sq.ILike{"component_name": like},
		})
	}
	return r.ListPage(ctx, where, "parent_path, component_key", filter)
}

// CountActiveChildren counts active nodes directly below a path.
func (r *ComponentRepo) CountActiveChildren(ctx context.Context, category catalogue.Category, level int, path string) (int, error) {
	sqlStr, args, err := psql.Select("COUNT(*)").
		From(catalogue.ComponentNode{}.TableName()).
		Where(sq.Eq{
			"category_type": category,
			"level":         level,
			"parent_path":   path,
			"is_active":     true,
		}).ToSql()
	if err != nil {
		return 0, apperror.NewInternal(err)
	}
	var count int
	q := r.tm.GetQuerier(ctx)
	if err := q.QueryRow(ctx, sqlStr, args...).Scan(&count); err != nil {
		return 0, postgres.MapError(err, "catalogue_component")
	}
	return count, nil
}
