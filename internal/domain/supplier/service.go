package supplier

import (
	"context"

	"kvtrade/internal/core/actor"
	"kvtrade/internal/core/apperror"
	"kvtrade/internal/core/entity"
	"kvtrade/internal/core/id"
	"kvtrade/internal/core/tx"
	"kvtrade/internal/domain"
)

// Repository persists suppliers.
type Repository interface {
	Create(ctx context.Context, s *Supplier) error
	Update(ctx context.Context, s *Supplier) error
	GetByID(ctx context.Context, supplierID id.ID) (*Supplier, error)

	// GetActiveByName returns the active supplier with this company name.
	GetActiveByName(ctx context.Context, companyName string) (*Supplier, error)

	List(ctx context.Context, filter domain.ListFilter) (*domain.ListResult[Supplier], error)
}

// Service implements supplier directory operations.
type Service struct {
	txManager tx.Manager
	repo      Repository
	audit     domain.Auditor
}

// NewService creates the supplier service.
func NewService(txManager tx.Manager, repo Repository, audit domain.Auditor) *Service {
	return &Service{txManager: txManager, repo: repo, audit: audit}
}

// CreateInput carries supplier creation fields.
type CreateInput struct {
	CompanyName  string
	Country      string
	City         string
	BusinessType string
	Currency     string
	PaymentTerms string
	LeadTimeDays int
	Rating       int
	ContactName  string
	ContactEmail string
	ContactPhone string
}

// Create registers a new active supplier.
func (s *Service) Create(ctx context.Context, in CreateInput) (*Supplier, error) {
	sup := &Supplier{
		Base:         entity.NewBase(),
		CompanyName:  in.CompanyName,
		Country:      in.Country,
		City:         in.City,
		BusinessType: in.BusinessType,
		Currency:     in.Currency,
		PaymentTerms: in.PaymentTerms,
		LeadTimeDays: in.LeadTimeDays,
		Rating:       in.Rating,
		Status:       StatusActive,
		ContactName:  in.ContactName,
		ContactEmail: in.ContactEmail,
		ContactPhone: in.ContactPhone,
		Audit:        entity.NewAudit(actor.Name(ctx)),
	}
	if err := sup.Validate(ctx); err != nil {
		return nil, err
	}

	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		existing, err := s.repo.GetActiveByName(ctx, in.CompanyName)
		if err != nil && !apperror.IsNotFound(err) {
			return err
		}
		if existing != nil {
			return apperror.NewDuplicate("supplier", "company_name", in.CompanyName)
		}
		if err := s.repo.Create(ctx, sup); err != nil {
			return err
		}
		s.audit.Record(ctx, "supplier", sup.ID, domain.AuditCreate, sup)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return sup, nil
}

// UpdatePatch carries optional supplier fields; nil means unchanged.
type UpdatePatch struct {
	Country      *string
	City         *string
	BusinessType *string
	Currency     *string
	PaymentTerms *string
	LeadTimeDays *int
	Rating       *int
	ContactName  *string
	ContactEmail *string
	ContactPhone *string
}

// Update applies a partial update.
func (s *Service) Update(ctx context.Context, supplierID id.ID, patch UpdatePatch) (*Supplier, error) {
	var result *Supplier
	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		sup, err := s.repo.GetByID(ctx, supplierID)
		if err != nil {
			return err
		}

		applyString := func(dst *string, src *string) {
			if src != nil {
				*dst = *src
			}
		}
		applyString(&sup.Country, patch.Country)
		applyString(&sup.City, patch.City)
		applyString(&sup.BusinessType, patch.BusinessType)
		applyString(&sup.Currency, patch.Currency)
		applyString(&sup.PaymentTerms, patch.PaymentTerms)
		applyString(&sup.ContactName, patch.ContactName)
		applyString(&sup.ContactEmail, patch.ContactEmail)
		applyString(&sup.ContactPhone, patch.ContactPhone)
		if patch.LeadTimeDays != nil {
			sup.LeadTimeDays = *patch.LeadTimeDays
		}
		if patch.Rating != nil {
			sup.Rating = *patch.Rating
		}
		if err := sup.Validate(ctx); err != nil {
			return err
		}

		sup.StampUpdate(actor.Name(ctx))
		if err := s.repo.Update(ctx, sup); err != nil {
			return err
		}
		s.audit.Record(ctx, "supplier", sup.ID, domain.AuditUpdate, sup)
		result = sup
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// Inactivate soft-deletes a supplier. Products keep referencing it by name;
// lookups of a non-resolving name are flagged, not rejected.
func (s *Service) Inactivate(ctx context.Context, supplierID id.ID) error {
	return s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		sup, err := s.repo.GetByID(ctx, supplierID)
		if err != nil {
			return err
		}
		if sup.Status == StatusInactive {
			return nil
		}
		sup.Status = StatusInactive
		sup.StampUpdate(actor.Name(ctx))
		if err := s.repo.Update(ctx, sup); err != nil {
			return err
		}
		s.audit.Record(ctx, "supplier", sup.ID, domain.AuditUpdate, sup)
		return nil
	})
}

// Get returns a supplier by id.
func (s *Service) Get(ctx context.Context, supplierID id.ID) (*Supplier, error) {
	return s.repo.GetByID(ctx, supplierID)
}

// ResolveName returns the active supplier with this name, or NOT_FOUND.
func (s *Service) ResolveName(ctx context.Context, companyName string) (*Supplier, error) {
	return s.repo.GetActiveByName(ctx, companyName)
}

// List returns suppliers with pagination.
func (s *Service) List(ctx context.Context, filter domain.ListFilter) (*domain.ListResult[Supplier], error) {
	filter.Normalize()
	return s.repo.List(ctx, filter)
}
