package product

import (
	"context"

	"github.com/shopspring/decimal"

	"kvtrade/internal/core/actor"
	"kvtrade/internal/core/apperror"
	"kvtrade/internal/core/entity"
	"kvtrade/internal/core/id"
	"kvtrade/internal/core/tx"
	"kvtrade/internal/domain"
	"kvtrade/internal/domain/catalogue"
	"kvtrade/internal/domain/supplier"
	"kvtrade/pkg/logger"
)

// Repository persists master products and their child rows.
type Repository interface {
	Insert(ctx context.Context, m *MasterProduct) error
	Update(ctx context.Context, m *MasterProduct) error
	GetByID(ctx context.Context, productID id.ID) (*MasterProduct, error)

	// GetByCode returns the row for a product code regardless of status.
	// At most one row exists per code.
	GetByCode(ctx context.Context, productCode string) (*MasterProduct, error)

	// DeleteChildren removes price and inventory child rows.
	DeleteChildren(ctx context.Context, productID id.ID) error

	// Delete removes the master row.
	Delete(ctx context.Context, productID id.ID) error

	// ListActive filters by category, supplier and free-text search.
	ListActive(ctx context.Context, filter domain.ListFilter) (*domain.ListResult[MasterProduct], error)
}

// CodeRegistry is the catalogue surface the registry depends on.
// Satisfied by catalogue.Service.
type CodeRegistry interface {
	GetCode(ctx context.Context, productCode string) (*catalogue.GeneratedCode, error)
	MarkCodeUsed(ctx context.Context, productCode, productNameEN string) error
	ReleaseCode(ctx context.Context, productCode string) error
}

// SupplierResolver resolves company names to active suppliers.
// Satisfied by supplier.Service.
type SupplierResolver interface {
	ResolveName(ctx context.Context, companyName string) (*supplier.Supplier, error)
}

// Service implements master product registration and lifecycle.
type Service struct {
	txManager tx.Manager
	repo      Repository
	codes     CodeRegistry
	suppliers SupplierResolver
	audit     domain.Auditor
}

// NewService creates the product service.
func NewService(txManager tx.Manager, repo Repository, codes CodeRegistry, suppliers SupplierResolver, audit domain.Auditor) *Service {
	return &Service{
		txManager: txManager,
		repo:      repo,
		codes:     codes,
		suppliers: suppliers,
		audit:     audit,
	}
}

// RegisterInput carries registration fields for a product code.
type RegisterInput struct {
	NameEN         string
	NameVI         string
	SupplierName   string
	Unit           string
	SupplyCurrency string
	SupplyPrice    decimal.Decimal
	ExchangeRate   decimal.Decimal
	SalesPriceVND  decimal.Decimal
}

// Register creates the master product for a code, or revives the existing
// row for that code regardless of its status. Registration and the code's
// available -> used transition commit atomically.
func (s *Service) Register(ctx context.Context, productCode string, in RegisterInput) (*MasterProduct, error) {
	var result *MasterProduct
	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		code, err := s.codes.GetCode(ctx, productCode)
		if err != nil {
			return err
		}

		category := string(code.Category)
		if category == "" {
			if guessed, ok := catalogue.CategoryFromPrefix(productCode); ok {
				category = string(guessed)
			} else {
				category = CategoryUnclassified
			}
		}

		s.flagUnknownSupplier(ctx, in.SupplierName)

		existing, err := s.repo.GetByCode(ctx, productCode)
		if err != nil && !apperror.IsNotFound(err) {
			return err
		}

		if existing != nil {
			wasActive := existing.Status == StatusActive
			applyRegistration(existing, category, in)
			existing.Status = StatusActive
			if err := existing.Validate(ctx); err != nil {
				return err
			}
			existing.StampUpdate(actor.Name(ctx))
			if err := s.repo.Update(ctx, existing); err != nil {
				return err
			}
			// A revived row's code stayed used through soft delete.
			if !wasActive && code.Status == catalogue.CodeAvailable {
				if err := s.codes.MarkCodeUsed(ctx, productCode, in.NameEN); err != nil {
					return err
				}
			}
			s.audit.Record(ctx, "master_product", existing.ID, domain.AuditUpdate, existing)
			result = existing
			return nil
		}

		m := &MasterProduct{
			Base:        entity.NewBase(),
			ProductCode: productCode,
			CategoryName: category,
			Status:      StatusActive,
			Audit:       entity.NewAudit(actor.Name(ctx)),
		}
		applyRegistration(m, category, in)
		if err := m.Validate(ctx); err != nil {
			return err
		}
		if err := s.repo.Insert(ctx, m); err != nil {
			return err
		}
		if err := s.codes.MarkCodeUsed(ctx, productCode, in.NameEN); err != nil {
			return err
		}
		s.audit.Record(ctx, "master_product", m.ID, domain.AuditCreate, m)
		result = m
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

func applyRegistration(m *MasterProduct, category string, in RegisterInput) {
	m.NameEN = in.NameEN
	m.NameVI = in.NameVI
	m.CategoryName = category
	m.SupplierName = in.SupplierName
	m.Unit = in.Unit
	m.SupplyCurrency = in.SupplyCurrency
	m.SupplyPrice = in.SupplyPrice
	m.ExchangeRate = in.ExchangeRate
	m.SalesPriceVND = in.SalesPriceVND
}

func (s *Service) flagUnknownSupplier(ctx context.Context, name string) {
	if name == "" {
		return
	}
	if _, err := s.suppliers.ResolveName(ctx, name); apperror.IsNotFound(err) {
		logger.Warn(ctx, "supplier name does not resolve to an active supplier",
			"supplierName", name)
	}
}

// UpdatePatch carries optional mutable fields; nil means unchanged.
// The product code and category are immutable after registration.
type UpdatePatch struct {
	NameEN         *string
	NameVI         *string
	SupplierName   *string
	Unit           *string
	SupplyCurrency *string
	SupplyPrice    *decimal.Decimal
	ExchangeRate   *decimal.Decimal
	SalesPriceVND  *decimal.Decimal
}

// Update applies a partial update. The code's lifecycle state is untouched.
func (s *Service) Update(ctx context.Context, productID id.ID, patch UpdatePatch) (*MasterProduct, error) {
	var result *MasterProduct
	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		m, err := s.repo.GetByID(ctx, productID)
		if err != nil {
			return err
		}
		if m.Status != StatusActive {
			return apperror.NewInvalidState("deleted products cannot be updated").
				WithDetail("productCode", m.ProductCode)
		}

		if patch.NameEN != nil {
			m.NameEN = *patch.NameEN
		}
		if patch.NameVI != nil {
			m.NameVI = *patch.NameVI
		}
		if patch.SupplierName != nil {
			m.SupplierName = *patch.SupplierName
			s.flagUnknownSupplier(ctx, m.SupplierName)
		}
		if patch.Unit != nil {
			m.Unit = *patch.Unit
		}
		if patch.SupplyCurrency != nil {
			m.SupplyCurrency = *patch.SupplyCurrency
		}
		if patch.SupplyPrice != nil {
			m.SupplyPrice = *patch.SupplyPrice
		}
		if patch.ExchangeRate != nil {
			m.ExchangeRate = *patch.ExchangeRate
		}
		if patch.SalesPriceVND != nil {
			m.SalesPriceVND = *patch.SalesPriceVND
		}
		if err := m.Validate(ctx); err != nil {
			return err
		}

		m.StampUpdate(actor.Name(ctx))
		if err := s.repo.Update(ctx, m); err != nil {
			return err
		}
		s.audit.Record(ctx, "master_product", m.ID, domain.AuditUpdate, m)
		result = m
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// SoftDelete marks the product deleted. Its code stays used, so the code
// cannot be claimed by another product until a hard delete.
func (s *Service) SoftDelete(ctx context.Context, productID id.ID) error {
	return s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		m, err := s.repo.GetByID(ctx, productID)
		if err != nil {
			return err
		}
		if m.Status == StatusDeleted {
			return nil
		}
		m.Status = StatusDeleted
		m.StampUpdate(actor.Name(ctx))
		if err := s.repo.Update(ctx, m); err != nil {
			return err
		}
		s.audit.Record(ctx, "master_product", m.ID, domain.AuditDelete, m)
		return nil
	})
}

// HardDelete removes the product with its child rows and releases the code
// back to the available pool.
func (s *Service) HardDelete(ctx context.Context, productID id.ID) error {
	return s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		m, err := s.repo.GetByID(ctx, productID)
		if err != nil {
			return err
		}
		if err := s.repo.DeleteChildren(ctx, m.ID); err != nil {
			return err
		}
		if err := s.repo.Delete(ctx, m.ID); err != nil {
			return err
		}
		if err := s.codes.ReleaseCode(ctx, m.ProductCode); err != nil {
			return err
		}
		s.audit.Record(ctx, "master_product", m.ID, domain.AuditDelete, m)
		return nil
	})
}

// Get returns a product by id.
func (s *Service) Get(ctx context.Context, productID id.ID) (*MasterProduct, error) {
	return s.repo.GetByID(ctx, productID)
}

// GetByCode returns the product registered for a code, active or deleted.
func (s *Service) GetByCode(ctx context.Context, productCode string) (*MasterProduct, error) {
	return s.repo.GetByCode(ctx, productCode)
}

// ListActive returns active products filtered by category, supplier and
// free-text search.
func (s *Service) ListActive(ctx context.Context, filter domain.ListFilter) (*domain.ListResult[MasterProduct], error) {
	filter.Normalize()
	return s.repo.ListActive(ctx, filter)
}
