package document_repo

import (
	"context"

	sq "github.com/Masterminds/squirrel"

	"kvtrade/internal/core/id"
	"kvtrade/internal/domain"
	"kvtrade/internal/domain/quotation"
	"kvtrade/internal/infrastructure/storage/postgres"
)

// QuotationRepo implements quotation.Repository.
type QuotationRepo struct {
	*BaseRepo[quotation.Quotation, quotation.Item]
}

// NewQuotationRepo creates the quotation repository.
func NewQuotationRepo(tm *postgres.TxManager) *QuotationRepo {
	return &QuotationRepo{
		BaseRepo: NewBaseRepo[quotation.Quotation, quotation.Item](tm, "quotation_id"),
	}
}

// Insert stores a new header. Lines are saved separately.
func (r *QuotationRepo) Insert(ctx context.Context, q *quotation.Quotation) error {
	return r.InsertHeader(ctx, q)
}

// GetByID loads the header without lines.
func (r *QuotationRepo) GetByID(ctx context.Context, quotationID id.ID) (*quotation.Quotation, error) {
	return r.GetHeader(ctx, quotationID)
}

// Delete removes the header; items cascade via the schema.
func (r *QuotationRepo) Delete(ctx context.Context, quotationID id.ID) error {
	return r.DeleteHeader(ctx, quotationID)
}

// ChainMembers returns the root and all revisions pointing at it, ordered
// by revision number.
func (r *QuotationRepo) ChainMembers(ctx context.Context, rootID id.ID) ([]quotation.Quotation, error) {
	return r.QueryHeaders(ctx, r.SelectHeaders().
		Where(sq.Or{
			sq.Eq{"id": rootID},
			sq.Eq{"original_quotation_id": rootID},
		}).
		OrderBy("revision_number"))
}

// Search filters headers, newest first.
func (r *QuotationRepo) Search(ctx context.Context, filter quotation.SearchFilter) (*domain.ListResult[quotation.Quotation], error) {
	var where []sq.Sqlizer
	if filter.CustomerID != "" {
		where = append(where, sq.Eq{"customer_id": filter.CustomerID})
	}
	if filter.Status != "" {
		where = append(where, sq.Eq{"status": filter.Status})
	}
	if filter.NumberContains != "" {
		where = append(where, sq.ILike{"quotation_number": "%" + filter.NumberContains + "%"})
	}
	if filter.ProjectContains != "" {
		where = append(where, sq.ILike{"project_name": "%" + filter.ProjectContains + "%"})
	}
	if filter.DateFrom != nil {
		where = append(where, sq.GtOrEq{"quotation_date": *filter.DateFrom})
	}
	if filter.DateTo != nil {
		where = append(where, sq.LtOrEq{"quotation_date": *filter.DateTo})
	}

	count := psql.Select("COUNT(*)").From(r.headerTable)
	query := r.SelectHeaders()
	for _, w := range where {
		count = count.Where(w)
		query = query.Where(w)
	}

	sqlStr, args, err := count.ToSql()
	if err != nil {
		return nil, postgres.MapError(err, r.headerTable)
	}
	var total int
	q := r.tm.GetQuerier(ctx)
	if err := q.QueryRow(ctx, sqlStr, args...).Scan(&total); err != nil {
		return nil, postgres.MapError(err, r.headerTable)
	}

	items, err := r.QueryHeaders(ctx, query.
		OrderBy("created_at DESC").
		Limit(uint64(filter.Limit)).
		Offset(uint64(filter.Offset)))
	if err != nil {
		return nil, err
	}
	return &domain.ListResult[quotation.Quotation]{Items: items, Total: total}, nil
}
