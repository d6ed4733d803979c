// Package product owns the master product registry: one active record per
// used product code, with pricing inputs and the derived VND sales price.
package product

import (
	"context"

	"github.com/shopspring/decimal"

	"kvtrade/internal/core/apperror"
	"kvtrade/internal/core/entity"
	"kvtrade/internal/domain/catalogue"
)

// Lifecycle states.
const (
	StatusActive  = "active"
	StatusDeleted = "deleted"
)

// CategoryUnclassified is assigned to codes outside the known categories.
const CategoryUnclassified = "미분류"

// MasterProduct is the canonical registered product, keyed by product code
// among active rows.
type MasterProduct struct {
	entity.Base
	ProductCode   string          `db:"product_code" json:"productCode"`
	NameEN        string          `db:"product_name_en" json:"nameEn"`
	NameVI        string          `db:"product_name_vi" json:"nameVi"`
	CategoryName  string          `db:"category_name" json:"categoryName"`
	SupplierName  string          `db:"supplier_name" json:"supplierName"`
	Unit          string          `db:"unit" json:"unit"`
	SupplyCurrency string         `db:"supply_currency" json:"supplyCurrency"`
	SupplyPrice   decimal.Decimal `db:"supply_price" json:"supplyPrice"`
	ExchangeRate  decimal.Decimal `db:"exchange_rate" json:"exchangeRate"`

	// SalesPriceVND is operator-controlled. It is never overwritten by
	// recomputation; ComputedVND exists for comparison.
	SalesPriceVND decimal.Decimal `db:"sales_price_vnd" json:"salesPriceVnd"`

	Status string `db:"status" json:"status"`
	entity.Audit
}

// TableName returns the storage table.
func (MasterProduct) TableName() string { return "master_product" }

// ComputedVND returns supply_price converted to VND with the applied rate.
// A VND supply price converts one to one.
func (m *MasterProduct) ComputedVND() decimal.Decimal {
	if m.SupplyCurrency == "VND" {
		return m.SupplyPrice
	}
	return m.SupplyPrice.Mul(m.ExchangeRate)
}

// Validate checks product invariants.
func (m *MasterProduct) Validate(_ context.Context) error {
	if !catalogue.ValidProductCode(m.ProductCode) {
		return apperror.NewValidation("product code must be six dash-joined tokens").
			WithDetail("productCode", m.ProductCode)
	}
	if m.NameEN == "" {
		return apperror.NewValidation("english product name is required")
	}
	if m.SupplyPrice.IsNegative() {
		return apperror.NewValidation("supply price cannot be negative").
			WithDetail("supplyPrice", m.SupplyPrice.String())
	}
	if !m.ExchangeRate.IsPositive() {
		return apperror.NewValidation("exchange rate must be positive").
			WithDetail("exchangeRate", m.ExchangeRate.String())
	}
	if m.SalesPriceVND.IsNegative() {
		return apperror.NewValidation("sales price cannot be negative").
			WithDetail("salesPriceVnd", m.SalesPriceVND.String())
	}
	if m.Status != StatusActive && m.Status != StatusDeleted {
		return apperror.NewValidation("status must be active or deleted").
			WithDetail("status", m.Status)
	}
	return nil
}
