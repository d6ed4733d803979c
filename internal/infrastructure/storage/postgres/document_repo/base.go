// Package document_repo implements document-style repositories (a header
// row plus dependent line rows) on PostgreSQL.
package document_repo

import (
	"context"

	sq "github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"kvtrade/internal/core/apperror"
	"kvtrade/internal/core/id"
	"kvtrade/internal/infrastructure/storage/postgres"
)

var psql = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

// Entity names its storage table.
type Entity interface {
	TableName() string
}

// BaseRepo handles one document type: header CRUD with optimistic locking
// and whole-set line replacement. Lines always change together with their
// header, so SaveLines is delete-then-insert.
type BaseRepo[H Entity, L Entity] struct {
	tm          *postgres.TxManager
	headerTable string
	headerCols  []string
	lineTable   string
	lineCols    []string
	headerFK    string
}

// NewBaseRepo creates a document repo. headerFK is the line column pointing
// at the header.
func NewBaseRepo[H Entity, L Entity](tm *postgres.TxManager, headerFK string) *BaseRepo[H, L] {
	var header H
	var line L
	return &BaseRepo[H, L]{
		tm:          tm,
		headerTable: header.TableName(),
		headerCols:  postgres.ExtractDBColumns(header),
		lineTable:   line.TableName(),
		lineCols:    postgres.ExtractDBColumns(line),
		headerFK:    headerFK,
	}
}

// InsertHeader stores a new document header.
func (r *BaseRepo[H, L]) InsertHeader(ctx context.Context, h *H) error {
	values := postgres.StructToMap(*h)
	sqlStr, args, err := psql.Insert(r.headerTable).SetMap(values).ToSql()
	if err != nil {
		return apperror.NewInternal(err)
	}
	q := r.tm.GetQuerier(ctx)
	if _, err := q.Exec(ctx, sqlStr, args...); err != nil {
		return postgres.MapError(err, r.headerTable)
	}
	return nil
}

// UpdateHeader writes header columns guarded by version.
func (r *BaseRepo[H, L]) UpdateHeader(ctx context.Context, h *H) error {
	values := postgres.StructToMap(*h)
	headerID, ok := values["id"].(id.ID)
	if !ok {
		return apperror.NewInternal(nil).WithDetail("reason", "header has no id column")
	}
	version, _ := values["version"].(int)
	delete(values, "id")
	values["version"] = version + 1

	sqlStr, args, err := psql.Update(r.headerTable).
		SetMap(values).
		Where(sq.Eq{"id": headerID, "version": version}).
		ToSql()
	if err != nil {
		return apperror.NewInternal(err)
	}
	q := r.tm.GetQuerier(ctx)
	tag, err := q.Exec(ctx, sqlStr, args...)
	if err != nil {
		return postgres.MapError(err, r.headerTable)
	}
	if tag.RowsAffected() == 0 {
		return apperror.NewConcurrentModification(r.headerTable, headerID)
	}
	if v, ok := any(h).(interface{ SetVersion(int) }); ok {
		v.SetVersion(version + 1)
	}
	return nil
}

// GetHeader loads one header.
func (r *BaseRepo[H, L]) GetHeader(ctx context.Context, headerID id.ID) (*H, error) {
	sqlStr, args, err := psql.Select(r.headerCols...).
		From(r.headerTable).
		Where(sq.Eq{"id": headerID}).
		ToSql()
	if err != nil {
		return nil, apperror.NewInternal(err)
	}
	var h H
	q := r.tm.GetQuerier(ctx)
	if err := pgxscan.Get(ctx, q, &h, sqlStr, args...); err != nil {
		return nil, postgres.MapError(err, r.headerTable)
	}
	return &h, nil
}

// SelectHeaders returns a builder preloaded with header columns.
func (r *BaseRepo[H, L]) SelectHeaders() sq.SelectBuilder {
	return psql.Select(r.headerCols...).From(r.headerTable)
}

// QueryHeaders loads all headers matching the builder.
func (r *BaseRepo[H, L]) QueryHeaders(ctx context.Context, query sq.SelectBuilder) ([]H, error) {
	sqlStr, args, err := query.ToSql()
	if err != nil {
		return nil, apperror.NewInternal(err)
	}
	var out []H
	q := r.tm.GetQuerier(ctx)
	if err := pgxscan.Select(ctx, q, &out, sqlStr, args...); err != nil {
		return nil, postgres.MapError(err, r.headerTable)
	}
	return out, nil
}

// DeleteHeader removes the header; the schema cascades to lines.
func (r *BaseRepo[H, L]) DeleteHeader(ctx context.Context, headerID id.ID) error {
	sqlStr, args, err := psql.Delete(r.headerTable).Where(sq.Eq{"id": headerID}).ToSql()
	if err != nil {
		return apperror.NewInternal(err)
	}
	q := r.tm.GetQuerier(ctx)
	tag, err := q.Exec(ctx, sqlStr, args...)
	if err != nil {
		return postgres.MapError(err, r.headerTable)
	}
	if tag.RowsAffected() == 0 {
		return apperror.NewNotFound(r.headerTable, headerID)
	}
	return nil
}

// GetLines loads the document's lines ordered by item number.
func (r *BaseRepo[H, L]) GetLines(ctx context.Context, headerID id.ID) ([]L, error) {
	sqlStr, args, err := psql.Select(r.lineCols...).
		From(r.lineTable).
		Where(sq.Eq{r.headerFK: headerID}).
		OrderBy("item_number").
		ToSql()
	if err != nil {
		return nil, apperror.NewInternal(err)
	}
	var out []L
	q := r.tm.GetQuerier(ctx)
	if err := pgxscan.Select(ctx, q, &out, sqlStr, args...); err != nil {
		return nil, postgres.MapError(err, r.lineTable)
	}
	return out, nil
}

// SaveLines replaces the document's lines.
func (r *BaseRepo[H, L]) SaveLines(ctx context.Context, headerID id.ID, lines []L) error {
	q := r.tm.GetQuerier(ctx)

	sqlStr, args, err := psql.Delete(r.lineTable).Where(sq.Eq{r.headerFK: headerID}).ToSql()
	if err != nil {
		return apperror.NewInternal(err)
	}
	if _, err := q.Exec(ctx, sqlStr, args...); err != nil {
		return postgres.MapError(err, r.lineTable)
	}

	if len(lines) == 0 {
		return nil
	}
	insert := psql.Insert(r.lineTable).Columns(r.lineCols...)
	for i := range lines {
		values := postgres.StructToMap(lines[i])
		row := make([]any, len(r.lineCols))
		for j, col := range r.lineCols {
			row[j] = values[col]
		}
		insert = insert.Values(row...)
	}
	sqlStr, args, err = insert.ToSql()
	if err != nil {
		return apperror.NewInternal(err)
	}
	if _, err := q.Exec(ctx, sqlStr, args...); err != nil {
		return postgres.MapError(err, r.lineTable)
	}
	return nil
}
