package quotation

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"kvtrade/internal/core/actor"
	"kvtrade/internal/core/apperror"
	"kvtrade/internal/core/entity"
	"kvtrade/internal/core/id"
	"kvtrade/internal/core/tx"
	"kvtrade/internal/domain"
	"kvtrade/pkg/logger"
)

// numberPrefix keys the monthly quotation sequence.
const numberPrefix = "QT"

// maxNumberRetries bounds retries on numbering collisions.
const maxNumberRetries = 5

// NumberAllocator issues period-scoped document numbers.
// Satisfied by numerator.Service.
type NumberAllocator interface {
	NextMonthly(ctx context.Context, prefix string, period time.Time) (string, error)
}

// Service implements quotation authoring.
type Service struct {
	txManager tx.Manager
	repo      Repository
	numbers   NumberAllocator
	audit     domain.Auditor
	now       func() time.Time
}

// NewService creates the quotation service.
func NewService(txManager tx.Manager, repo Repository, numbers NumberAllocator, audit domain.Auditor) *Service {
	return &Service{
		txManager: txManager,
		repo:      repo,
		numbers:   numbers,
		audit:     audit,
		now:       time.Now,
	}
}

// HeaderInput carries quotation header fields for create.
type HeaderInput struct {
	CustomerID    string
	CustomerName  string
	ProjectName   string
	QuotationDate time.Time
	DeliveryDate  *time.Time
	Currency      string
	ExchangeRate  decimal.Decimal
	Notes         string
}

// ItemInput carries one line. TotalPrice, when given and non-negative, is
// authoritative; otherwise the total derives from quantity and unit price.
type ItemInput struct {
	ProductName   string
	ProductCode   string
	Specification string
	Quantity      int
	UnitPrice     decimal.Decimal
	TotalPrice    *decimal.Decimal
	Unit          string
	LeadTime      string
	Notes         string
}

func (in ItemInput) toItem() Item {
	item := Item{
		ProductName:   in.ProductName,
		ProductCode:   in.ProductCode,
		Specification: in.Specification,
		Quantity:      in.Quantity,
		UnitPrice:     in.UnitPrice,
		Unit:          in.Unit,
		LeadTime:      in.LeadTime,
		Notes:         in.Notes,
	}
	if in.TotalPrice != nil && !in.TotalPrice.IsNegative() {
		item.TotalPrice = *in.TotalPrice
	} else {
		item.TotalPrice = in.UnitPrice.Mul(decimal.NewFromInt(int64(in.Quantity)))
	}
	return item
}

func buildItems(inputs []ItemInput) []Item {
	items := make([]Item, 0, len(inputs))
	for _, in := range inputs {
		items = append(items, in.toItem())
	}
	return items
}

// Create allocates a number and persists a new revision-0 quotation with
// its lines. Numbering collisions with concurrent creators retry with a
// fresh sequence, bounded.
func (s *Service) Create(ctx context.Context, header HeaderInput, items []ItemInput) (*Quotation, error) {
	q := &Quotation{
		Base:          entity.NewBase(),
		CustomerID:    header.CustomerID,
		CustomerName:  header.CustomerName,
		ProjectName:   header.ProjectName,
		QuotationDate: header.QuotationDate,
		DeliveryDate:  header.DeliveryDate,
		Currency:      header.Currency,
		ExchangeRate:  header.ExchangeRate,
		Status:        StatusDraft,
		Notes:         header.Notes,
		Audit:         entity.NewAudit(actor.Name(ctx)),
		Items:         buildItems(items),
	}
	if q.QuotationDate.IsZero() {
		q.QuotationDate = s.now()
	}
	if err := q.Validate(ctx); err != nil {
		return nil, err
	}
	q.Renumber()
	q.RecalculateTotals()

	if err := s.insertNumbered(ctx, q); err != nil {
		return nil, err
	}
	return q, nil
}

// insertNumbered allocates a quotation number and inserts header and lines,
// retrying the whole transaction when the unique number index rejects a
// concurrent duplicate.
func (s *Service) insertNumbered(ctx context.Context, q *Quotation) error {
	var lastErr error
	for attempt := 0; attempt < maxNumberRetries; attempt++ {
		err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
			number, err := s.numbers.NextMonthly(ctx, numberPrefix, q.QuotationDate)
			if err != nil {
				return err
			}
			q.QuotationNumber = number
			if err := s.repo.Insert(ctx, q); err != nil {
				return err
			}
			if err := s.repo.SaveLines(ctx, q.ID, q.Items); err != nil {
				return err
			}
			s.audit.Record(ctx, "quotation", q.ID, domain.AuditCreate, q)
			return nil
		})
		if err == nil {
			return nil
		}
		if !apperror.IsConflict(err) {
			return err
		}
		lastErr = err
		logger.Warn(ctx, "quotation number collision, retrying",
			"attempt", attempt+1, "number", q.QuotationNumber)
	}
	return apperror.NewConflict("could not allocate a unique quotation number").
		WithCause(lastErr)
}

// HeaderPatch carries optional header fields; nil means unchanged.
type HeaderPatch struct {
	CustomerID   *string
	CustomerName *string
	ProjectName  *string
	DeliveryDate *time.Time
	Currency     *string
	ExchangeRate *decimal.Decimal
	Status       *string
	Notes        *string
}

func (q *Quotation) applyPatch(patch HeaderPatch) error {
	if patch.CustomerID != nil {
		q.CustomerID = *patch.CustomerID
	}
	if patch.CustomerName != nil {
		q.CustomerName = *patch.CustomerName
	}
	if patch.ProjectName != nil {
		q.ProjectName = *patch.ProjectName
	}
	if patch.DeliveryDate != nil {
		q.DeliveryDate = patch.DeliveryDate
	}
	if patch.Currency != nil {
		q.Currency = *patch.Currency
	}
	if patch.ExchangeRate != nil {
		q.ExchangeRate = *patch.ExchangeRate
	}
	if patch.Status != nil {
		if !ValidStatus(*patch.Status) {
			return apperror.NewValidation("unknown quotation status").
				WithDetail("status", *patch.Status)
		}
		q.Status = *patch.Status
	}
	if patch.Notes != nil {
		q.Notes = *patch.Notes
	}
	return nil
}

// Update patches header fields and optionally replaces all lines. Approved
// and rejected quotations are immutable.
func (s *Service) Update(ctx context.Context, quotationID id.ID, patch HeaderPatch, items []ItemInput) (*Quotation, error) {
	var result *Quotation
	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		q, err := s.repo.GetByID(ctx, quotationID)
		if err != nil {
			return err
		}
		if Immutable(q.Status) {
			return apperror.NewInvalidState("quotation is no longer editable").
				WithDetail("status", q.Status)
		}
		if err := q.applyPatch(patch); err != nil {
			return err
		}

		if items != nil {
			q.Items = buildItems(items)
		} else {
			q.Items, err = s.repo.GetLines(ctx, quotationID)
			if err != nil {
				return err
			}
		}
		if err := q.Validate(ctx); err != nil {
			return err
		}
		q.Renumber()
		q.RecalculateTotals()

		q.StampUpdate(actor.Name(ctx))
		if err := s.repo.UpdateHeader(ctx, q); err != nil {
			return err
		}
		if items != nil {
			if err := s.repo.SaveLines(ctx, q.ID, q.Items); err != nil {
				return err
			}
		}
		s.audit.Record(ctx, "quotation", q.ID, domain.AuditUpdate, q)
		result = q
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// AddItem appends one line after the existing ones and recomputes the total.
func (s *Service) AddItem(ctx context.Context, quotationID id.ID, item ItemInput) (*Quotation, error) {
	var result *Quotation
	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		q, err := s.repo.GetByID(ctx, quotationID)
		if err != nil {
			return err
		}
		if Immutable(q.Status) {
			return apperror.NewInvalidState("quotation is no longer editable").
				WithDetail("status", q.Status)
		}

		q.Items, err = s.repo.GetLines(ctx, quotationID)
		if err != nil {
			return err
		}
		q.Items = append(q.Items, item.toItem())
		if err := q.Validate(ctx); err != nil {
			return err
		}
		q.Renumber()
		q.RecalculateTotals()

		q.StampUpdate(actor.Name(ctx))
		if err := s.repo.UpdateHeader(ctx, q); err != nil {
			return err
		}
		if err := s.repo.SaveLines(ctx, q.ID, q.Items); err != nil {
			return err
		}
		s.audit.Record(ctx, "quotation", q.ID, domain.AuditUpdate, q)
		result = q
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// Delete removes a quotation and its lines.
func (s *Service) Delete(ctx context.Context, quotationID id.ID) error {
	return s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		q, err := s.repo.GetByID(ctx, quotationID)
		if err != nil {
			return err
		}
		if err := s.repo.Delete(ctx, quotationID); err != nil {
			return err
		}
		s.audit.Record(ctx, "quotation", q.ID, domain.AuditDelete, q)
		return nil
	})
}

// CreateRevision deep-copies the newest revision in the chain into a new
// draft with the next revision number, a fresh number, and the chain root
// as original. The source quotation is untouched.
func (s *Service) CreateRevision(ctx context.Context, quotationID id.ID, patch HeaderPatch) (*Quotation, error) {
	var rev *Quotation
	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		q, err := s.repo.GetByID(ctx, quotationID)
		if err != nil {
			return err
		}

		rootID := q.ID
		if q.OriginalQuotationID != nil {
			rootID = *q.OriginalQuotationID
		}

		chain, err := s.repo.ChainMembers(ctx, rootID)
		if err != nil {
			return err
		}
		if len(chain) == 0 {
			return apperror.NewNotFound("quotation", rootID)
		}
		newest := chain[len(chain)-1]

		lines, err := s.repo.GetLines(ctx, newest.ID)
		if err != nil {
			return err
		}

		rev = &Quotation{
			Base:                entity.NewBase(),
			CustomerID:          newest.CustomerID,
			CustomerName:        newest.CustomerName,
			ProjectName:         newest.ProjectName,
			QuotationDate:       s.now(),
			DeliveryDate:        newest.DeliveryDate,
			Currency:            newest.Currency,
			ExchangeRate:        newest.ExchangeRate,
			Status:              StatusDraft,
			RevisionNumber:      newest.RevisionNumber + 1,
			OriginalQuotationID: &rootID,
			Notes:               newest.Notes,
			Audit:               entity.NewAudit(actor.Name(ctx)),
		}
		if err := rev.applyPatch(patch); err != nil {
			return err
		}
		rev.Items = make([]Item, len(lines))
		for i, line := range lines {
			cp := line
			cp.ID = id.Nil()
			rev.Items[i] = cp
		}
		if err := rev.Validate(ctx); err != nil {
			return err
		}
		rev.Renumber()
		rev.RecalculateTotals()
		return nil
	})
	if err != nil {
		return nil, err
	}

	if err := s.insertNumbered(ctx, rev); err != nil {
		return nil, err
	}
	return rev, nil
}

// SavePayload is the convenience save router input.
type SavePayload struct {
	QuotationID *id.ID
	Header      HeaderInput
	HeaderPatch HeaderPatch
	Items       []ItemInput
}

// SaveResult reports what Save did.
type SaveResult struct {
	Quotation *Quotation `json:"quotation"`
	Created   bool       `json:"created"`
}

// Save updates the quotation when the payload id resolves to an existing
// one, otherwise creates a new quotation. Repeating a save with identical
// input converges.
func (s *Service) Save(ctx context.Context, payload SavePayload) (*SaveResult, error) {
	if payload.QuotationID != nil && !id.IsNil(*payload.QuotationID) {
		existing, err := s.repo.GetByID(ctx, *payload.QuotationID)
		if err != nil && !apperror.IsNotFound(err) {
			return nil, err
		}
		if existing != nil {
			q, err := s.Update(ctx, existing.ID, payload.HeaderPatch, payload.Items)
			if err != nil {
				return nil, err
			}
			return &SaveResult{Quotation: q, Created: false}, nil
		}
	}
	q, err := s.Create(ctx, payload.Header, payload.Items)
	if err != nil {
		return nil, err
	}
	return &SaveResult{Quotation: q, Created: true}, nil
}

// Get returns a quotation with its lines.
func (s *Service) Get(ctx context.Context, quotationID id.ID) (*Quotation, error) {
	q, err := s.repo.GetByID(ctx, quotationID)
	if err != nil {
		return nil, err
	}
	q.Items, err = s.repo.GetLines(ctx, quotationID)
	if err != nil {
		return nil, err
	}
	return q, nil
}

// Revisions returns the chain rooted at the given quotation's root,
// ordered by revision number.
func (s *Service) Revisions(ctx context.Context, quotationID id.ID) ([]Quotation, error) {
	q, err := s.repo.GetByID(ctx, quotationID)
	if err != nil {
		return nil, err
	}
	rootID := q.ID
	if q.OriginalQuotationID != nil {
		rootID = *q.OriginalQuotationID
	}
	return s.repo.ChainMembers(ctx, rootID)
}

// Search returns quotations matching the filter, newest first.
func (s *Service) Search(ctx context.Context, filter SearchFilter) (*domain.ListResult[Quotation], error) {
	if filter.Status != "" && !ValidStatus(filter.Status) {
		return nil, apperror.NewValidation("unknown quotation status").
			WithDetail("status", filter.Status)
	}
	filter.Normalize()
	return s.repo.Search(ctx, filter)
}
