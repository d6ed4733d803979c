// Package supplier owns the supplier directory. The pricing and product
// registries reference suppliers by company name.
package supplier

import (
	"context"

	"kvtrade/internal/core/apperror"
	"kvtrade/internal/core/entity"
)

// Lifecycle states.
const (
	StatusActive   = "active"
	StatusInactive = "inactive"
)

// Supplier is one vendor record. company_name is unique among active
// suppliers.
type Supplier struct {
	entity.Base
	CompanyName  string `db:"company_name" json:"companyName"`
	Country      string `db:"country" json:"country"`
	City         string `db:"city" json:"city"`
	BusinessType string `db:"business_type" json:"businessType"`
	Currency     string `db:"currency" json:"currency"`
	PaymentTerms string `db:"payment_terms" json:"paymentTerms"`
	LeadTimeDays int    `db:"lead_time_days" json:"leadTimeDays"`
	Rating       int    `db:"rating" json:"rating"`
	Status       string `db:"status" json:"status"`

	ContactName  string `db:"contact_name" json:"contactName"`
	ContactEmail string `db:"contact_email" json:"contactEmail"`
	ContactPhone string `db:"contact_phone" json:"contactPhone"`
	entity.Audit
}

// TableName returns the storage table.
func (Supplier) TableName() string { return "supplier" }

// Validate checks supplier invariants.
func (s *Supplier) Validate(_ context.Context) error {
	if s.CompanyName == "" {
		return apperror.NewValidation("company name is required")
	}
	if s.Status != StatusActive && s.Status != StatusInactive {
		return apperror.NewValidation("status must be active or inactive").
			WithDetail("status", s.Status)
	}
	if s.LeadTimeDays < 0 {
		return apperror.NewValidation("lead time cannot be negative").
			WithDetail("leadTimeDays", s.LeadTimeDays)
	}
	if s.Rating < 0 || s.Rating > 5 {
		return apperror.NewValidation("rating must be between 0 and 5").
			WithDetail("rating", s.Rating)
	}
	return nil
}
