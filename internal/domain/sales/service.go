package sales

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"kvtrade/internal/core/actor"
	"kvtrade/internal/core/apperror"
	"kvtrade/internal/core/entity"
	"kvtrade/internal/core/tx"
	"kvtrade/internal/domain"
	"kvtrade/internal/domain/rates"
)

// TargetRepository persists monthly targets.
type TargetRepository interface {
	Insert(ctx context.Context, t *MonthlyTarget) error
	Update(ctx context.Context, t *MonthlyTarget) error
	GetByKey(ctx context.Context, yearMonth, targetType, targetCategory string) (*MonthlyTarget, error)
	List(ctx context.Context, yearMonth string) ([]MonthlyTarget, error)
}

// RecordRepository persists sales records and aggregates them.
type RecordRepository interface {
	Insert(ctx context.Context, r *SalesRecord) error
	Summarize(ctx context.Context, yearMonth string) (*MonthlySummary, error)
	ListMonth(ctx context.Context, yearMonth string) ([]SalesRecord, error)
}

// RateResolver converts between currencies for a given year.
// Satisfied by pricing.Resolver.
type RateResolver interface {
	ResolveRate(ctx context.Context, supplyCurrency, targetCurrency string, year int) (*rates.Resolved, error)
}

// Service implements the monthly sales aggregator.
type Service struct {
	txManager tx.Manager
	targets   TargetRepository
	records   RecordRepository
	resolver  RateResolver
	audit     domain.Auditor
}

// NewService creates the sales service.
func NewService(txManager tx.Manager, targets TargetRepository, records RecordRepository, resolver RateResolver, audit domain.Auditor) *Service {
	return &Service{
		txManager: txManager,
		targets:   targets,
		records:   records,
		resolver:  resolver,
		audit:     audit,
	}
}

// TargetInput carries monthly target fields.
type TargetInput struct {
	YearMonth         string
	TargetType        string
	TargetCategory    string
	TargetAmountVND   decimal.Decimal
	ResponsiblePerson string
}

// UpsertTarget creates or overwrites the target for its key triple.
func (s *Service) UpsertTarget(ctx context.Context, in TargetInput) (*MonthlyTarget, error) {
	target := &MonthlyTarget{
		Base:              entity.NewBase(),
		YearMonth:         in.YearMonth,
		TargetType:        in.TargetType,
		TargetCategory:    in.TargetCategory,
		TargetAmountVND:   in.TargetAmountVND,
		ResponsiblePerson: in.ResponsiblePerson,
		Audit:             entity.NewAudit(actor.Name(ctx)),
	}
	if err := target.Validate(ctx); err != nil {
		return nil, err
	}

	var result *MonthlyTarget
	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		existing, err := s.targets.GetByKey(ctx, in.YearMonth, in.TargetType, in.TargetCategory)
		if err != nil && !apperror.IsNotFound(err) {
			return err
		}
		if existing != nil {
			existing.TargetAmountVND = in.TargetAmountVND
			existing.ResponsiblePerson = in.ResponsiblePerson
			existing.StampUpdate(actor.Name(ctx))
			if err := s.targets.Update(ctx, existing); err != nil {
				return err
			}
			s.audit.Record(ctx, "monthly_target", existing.ID, domain.AuditUpdate, existing)
			result = existing
			return nil
		}
		if err := s.targets.Insert(ctx, target); err != nil {
			return err
		}
		s.audit.Record(ctx, "monthly_target", target.ID, domain.AuditCreate, target)
		result = target
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// RecordInput carries one realised sale. Amount is in the given currency;
// VND and USD figures are derived with the sale year's rates.
type RecordInput struct {
	SaleDate     time.Time
	Category     string
	CustomerName string
	ProductCode  string
	ProductName  string
	Quantity     int
	Amount       decimal.Decimal
	Currency     string
	ProfitMargin decimal.Decimal
}

// RecordSale stores one denormalised sale line. The month it counts toward
// is derived from the sale date.
func (s *Service) RecordSale(ctx context.Context, in RecordInput) (*SalesRecord, error) {
	if in.SaleDate.IsZero() {
		return nil, apperror.NewValidation("sale date is required")
	}
	if in.Currency == "" {
		return nil, apperror.NewValidation("currency is required")
	}
	if in.Amount.IsNegative() {
		return nil, apperror.NewValidation("amount cannot be negative")
	}

	year := in.SaleDate.Year()
	toVND, err := s.resolver.ResolveRate(ctx, in.Currency, "VND", year)
	if err != nil {
		return nil, err
	}
	toUSD, err := s.resolver.ResolveRate(ctx, in.Currency, "USD", year)
	if err != nil {
		return nil, err
	}

	record := &SalesRecord{
		Base:         entity.NewBase(),
		YearMonth:    in.SaleDate.Format("2006-01"),
		SaleDate:     in.SaleDate,
		Category:     in.Category,
		CustomerName: in.CustomerName,
		ProductCode:  in.ProductCode,
		ProductName:  in.ProductName,
		Quantity:     in.Quantity,
		AmountVND:    in.Amount.Mul(toVND.Rate),
		AmountUSD:    in.Amount.Mul(toUSD.Rate),
		ProfitMargin: in.ProfitMargin,
		Audit:        entity.NewAudit(actor.Name(ctx)),
	}
	if err := record.Validate(ctx); err != nil {
		return nil, err
	}

	err = s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		if err := s.records.Insert(ctx, record); err != nil {
			return err
		}
		s.audit.Record(ctx, "sales_record", record.ID, domain.AuditCreate, record)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return record, nil
}

// Summary returns the rollup for one period.
func (s *Service) Summary(ctx context.Context, yearMonth string) (*MonthlySummary, error) {
	if !ValidYearMonth(yearMonth) {
		return nil, apperror.NewValidation("year month must be YYYY-MM").
			WithDetail("yearMonth", yearMonth)
	}
	return s.records.Summarize(ctx, yearMonth)
}

// TargetVsActual compares a period's realised sales against its target.
func (s *Service) TargetVsActual(ctx context.Context, yearMonth, targetType, targetCategory string) (*TargetComparison, error) {
	if !ValidYearMonth(yearMonth) {
		return nil, apperror.NewValidation("year month must be YYYY-MM").
			WithDetail("yearMonth", yearMonth)
	}

	summary, err := s.records.Summarize(ctx, yearMonth)
	if err != nil {
		return nil, err
	}

	comparison := &TargetComparison{
		YearMonth: yearMonth,
		ActualVND: summary.TotalSalesVND,
	}

	target, err := s.targets.GetByKey(ctx, yearMonth, targetType, targetCategory)
	if err != nil {
		if apperror.IsNotFound(err) {
			// No target: variance against zero, achievement undefined.
			comparison.VarianceVND = summary.TotalSalesVND
			return comparison, nil
		}
		return nil, err
	}

	comparison.TargetVND = target.TargetAmountVND
	comparison.VarianceVND = summary.TotalSalesVND.Sub(target.TargetAmountVND)
	if target.TargetAmountVND.IsPositive() {
		rate := summary.TotalSalesVND.
			DivRound(target.TargetAmountVND, 6).
			Mul(decimal.NewFromInt(100))
		comparison.AchievementRate = &rate
	}
	return comparison, nil
}

// ListTargets returns targets for a period.
func (s *Service) ListTargets(ctx context.Context, yearMonth string) ([]MonthlyTarget, error) {
	return s.targets.List(ctx, yearMonth)
}

// ListMonth returns the raw records of a period.
func (s *Service) ListMonth(ctx context.Context, yearMonth string) ([]SalesRecord, error) {
	if !ValidYearMonth(yearMonth) {
		return nil, apperror.NewValidation("year month must be YYYY-MM").
			WithDetail("yearMonth", yearMonth)
	}
	return s.records.ListMonth(ctx, yearMonth)
}
