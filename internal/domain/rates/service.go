package rates

import (
	"context"

	"github.com/shopspring/decimal"

	"kvtrade/internal/core/actor"
	"kvtrade/internal/core/apperror"
	"kvtrade/internal/core/entity"
	"kvtrade/internal/core/tx"
	"kvtrade/internal/domain"
	"kvtrade/pkg/logger"
)

// Service implements rate management and the fallback lookup.
type Service struct {
	txManager tx.Manager
	repo      Repository
	audit     domain.Auditor
}

// NewService creates the rates service.
func NewService(txManager tx.Manager, repo Repository, audit domain.Auditor) *Service {
	return &Service{txManager: txManager, repo: repo, audit: audit}
}

// PutYearlyRate upserts a managed rate. An existing active record for the
// tuple is inactivated and a new active record inserted, preserving history.
// A value-equal upsert is a no-op.
func (s *Service) PutYearlyRate(ctx context.Context, year int, base, target string, rate decimal.Decimal, description string) (*ManagedRate, error) {
	record := &ManagedRate{
		Base:        entity.NewBase(),
		Year:        year,
		Base_:       base,
		Target:      target,
		Rate:        rate,
		Description: description,
		IsActive:    true,
		Audit:       entity.NewAudit(actor.Name(ctx)),
	}
	if err := record.Validate(ctx); err != nil {
		return nil, err
	}

	var result *ManagedRate
	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		if err := s.repo.LockTuple(ctx, year, base, target); err != nil {
			return err
		}

		existing, err := s.repo.GetActive(ctx, year, base, target)
		if err != nil && !apperror.IsNotFound(err) {
			return err
		}
		if existing != nil {
			if existing.Rate.Equal(rate) && existing.Description == description {
				result = existing
				return nil
			}
			if _, err := s.repo.InactivateActive(ctx, year, base, target, actor.Name(ctx)); err != nil {
				return err
			}
		}

		if err := s.repo.Insert(ctx, record); err != nil {
			return err
		}
		s.audit.Record(ctx, "managed_rate", record.ID, domain.AuditCreate, record)
		result = record

		logger.Info(ctx, "managed rate set",
			"year", year, "base", base, "target", target, "rate", rate.String())
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// GetRate resolves the effective USD->target rate for a year.
// Fallback order: requested year, previous year, built-in default table.
// The provenance tag tells the caller which source answered.
func (s *Service) GetRate(ctx context.Context, year int, target string) (*Resolved, error) {
	if target == "" {
		return nil, apperror.NewValidation("target currency is required")
	}

	if r, err := s.repo.GetActive(ctx, year, BaseCurrency, target); err == nil {
		return &Resolved{
			Rate: r.Rate, Provenance: ProvenanceExact,
			Year: year, Base: BaseCurrency, Target: target,
		}, nil
	} else if !apperror.IsNotFound(err) {
		return nil, err
	}

	if r, err := s.repo.GetActive(ctx, year-1, BaseCurrency, target); err == nil {
		return &Resolved{
			Rate: r.Rate, Provenance: ProvenancePreviousYear,
			Year: year - 1, Base: BaseCurrency, Target: target,
		}, nil
	} else if !apperror.IsNotFound(err) {
		return nil, err
	}

	if rate, ok := DefaultRate(target); ok {
		return &Resolved{
			Rate: rate, Provenance: ProvenanceDefault,
			Year: year, Base: BaseCurrency, Target: target,
		}, nil
	}

	return nil, apperror.NewRateUnavailable(BaseCurrency, target, year)
}

// GetRateExact resolves a rate but fails with RATE_UNAVAILABLE unless an
// exact managed rate for the requested year exists.
func (s *Service) GetRateExact(ctx context.Context, year int, target string) (*Resolved, error) {
	resolved, err := s.GetRate(ctx, year, target)
	if err != nil {
		return nil, err
	}
	if resolved.Provenance != ProvenanceExact {
		return nil, apperror.NewRateUnavailable(BaseCurrency, target, year).
			WithDetail("provenance", string(resolved.Provenance))
	}
	return resolved, nil
}

// ListRates returns active rates, newest year first. year=0 lists all years.
func (s *Service) ListRates(ctx context.Context, year int) ([]ManagedRate, error) {
	return s.repo.ListActive(ctx, year)
}

// Inactivate soft-deletes the active rate for a tuple.
func (s *Service) Inactivate(ctx context.Context, year int, base, target string) error {
	return s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		if err := s.repo.LockTuple(ctx, year, base, target); err != nil {
			return err
		}
		affected, err := s.repo.InactivateActive(ctx, year, base, target, actor.Name(ctx))
		if err != nil {
			return err
		}
		if affected == 0 {
			return apperror.NewNotFound("managed_rate", map[string]any{
				"year": year, "base": base, "target": target,
			})
		}
		return nil
	})
}
