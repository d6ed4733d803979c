// Package quotation owns quotations and their line items: numbering,
// totals, and the revision chain.
package quotation

import (
	"context"
	"regexp"
	"time"

	"github.com/shopspring/decimal"

	"kvtrade/internal/core/apperror"
	"kvtrade/internal/core/entity"
	"kvtrade/internal/core/id"
)

// Quotation lifecycle states.
const (
	StatusDraft    = "draft"
	StatusSent     = "sent"
	StatusApproved = "approved"
	StatusRejected = "rejected"
)

// ValidStatus reports whether s is a known lifecycle state.
func ValidStatus(s string) bool {
	switch s {
	case StatusDraft, StatusSent, StatusApproved, StatusRejected:
		return true
	}
	return false
}

// Immutable reports whether a quotation in this status rejects edits.
func Immutable(status string) bool {
	return status == StatusApproved || status == StatusRejected
}

var numberRe = regexp.MustCompile(`^\d{4}-\d{2}-\d{4,}$`)

// ValidNumber reports whether s is a well-formed quotation number.
// Sequences above 9999 widen beyond four digits.
func ValidNumber(s string) bool {
	return numberRe.MatchString(s)
}

// Quotation is a document header with its line items.
// Items carry no currency of their own; the header currency applies to all.
type Quotation struct {
	entity.Base
	QuotationNumber string `db:"quotation_number" json:"quotationNumber"`
	CustomerID      string `db:"customer_id" json:"customerId"`
	CustomerName    string `db:"customer_name" json:"customerName"`
	ProjectName     string `db:"project_name" json:"projectName"`

	QuotationDate time.Time  `db:"quotation_date" json:"quotationDate"`
	DeliveryDate  *time.Time `db:"delivery_date" json:"deliveryDate,omitempty"`

	Currency     string          `db:"currency" json:"currency"`
	ExchangeRate decimal.Decimal `db:"exchange_rate" json:"exchangeRate"`
	TotalAmount  decimal.Decimal `db:"total_amount" json:"totalAmount"`

	Status string `db:"status" json:"status"`

	// RevisionNumber is 0 for an original quotation. OriginalQuotationID
	// always points at the chain root and is set iff RevisionNumber > 0.
	RevisionNumber      int    `db:"revision_number" json:"revisionNumber"`
	OriginalQuotationID *id.ID `db:"original_quotation_id" json:"originalQuotationId,omitempty"`

	Notes string `db:"notes" json:"notes"`
	entity.Audit

	Items []Item `db:"-" json:"items"`
}

// TableName returns the storage table.
func (Quotation) TableName() string { return "quotation" }

// Item is one quotation line. item_number is 1-based and dense.
type Item struct {
	ID            id.ID           `db:"id" json:"id"`
	QuotationID   id.ID           `db:"quotation_id" json:"quotationId"`
	ItemNumber    int             `db:"item_number" json:"itemNumber"`
	ProductName   string          `db:"product_name" json:"productName"`
	ProductCode   string          `db:"product_code" json:"productCode"`
	Specification string          `db:"specification" json:"specification"`
	Quantity      int             `db:"quantity" json:"quantity"`
	UnitPrice     decimal.Decimal `db:"unit_price" json:"unitPrice"`
	TotalPrice    decimal.Decimal `db:"total_price" json:"totalPrice"`
	Unit          string          `db:"unit" json:"unit"`
	LeadTime      string          `db:"lead_time" json:"leadTime"`
	Notes         string          `db:"notes" json:"notes"`
}

// TableName returns the storage table.
func (Item) TableName() string { return "quotation_item" }

// Validate checks line invariants. A zero unit price is a legitimate
// free-of-charge line; a zero quantity is not.
func (i *Item) Validate(_ context.Context) error {
	if i.ProductName == "" {
		return apperror.NewValidation("item product name is required").
			WithDetail("itemNumber", i.ItemNumber)
	}
	if i.Quantity < 1 {
		return apperror.NewValidation("item quantity must be at least 1").
			WithDetail("itemNumber", i.ItemNumber).
			WithDetail("quantity", i.Quantity)
	}
	if i.UnitPrice.IsNegative() {
		return apperror.NewValidation("item unit price cannot be negative").
			WithDetail("itemNumber", i.ItemNumber)
	}
	if i.TotalPrice.IsNegative() {
		return apperror.NewValidation("item total price cannot be negative").
			WithDetail("itemNumber", i.ItemNumber)
	}
	return nil
}

// Validate checks header and line invariants.
func (q *Quotation) Validate(ctx context.Context) error {
	if q.CustomerName == "" && q.CustomerID == "" {
		return apperror.NewValidation("customer is required")
	}
	if q.Currency == "" {
		return apperror.NewValidation("currency is required")
	}
	if !ValidStatus(q.Status) {
		return apperror.NewValidation("unknown quotation status").
			WithDetail("status", q.Status)
	}
	if q.RevisionNumber < 0 {
		return apperror.NewValidation("revision number cannot be negative")
	}
	if (q.RevisionNumber > 0) != (q.OriginalQuotationID != nil) {
		return apperror.NewValidation("original quotation is set exactly for revisions")
	}
	for idx := range q.Items {
		if err := q.Items[idx].Validate(ctx); err != nil {
			return err
		}
	}
	return nil
}

// Renumber assigns dense 1-based item numbers and binds lines to the header.
func (q *Quotation) Renumber() {
	for idx := range q.Items {
		q.Items[idx].ItemNumber = idx + 1
		q.Items[idx].QuotationID = q.ID
		if id.IsNil(q.Items[idx].ID) {
			q.Items[idx].ID = id.New()
		}
	}
}

// RecalculateTotals recomputes the header total from line totals.
func (q *Quotation) RecalculateTotals() {
	total := decimal.Zero
	for idx := range q.Items {
		total = total.Add(q.Items[idx].TotalPrice)
	}
	q.TotalAmount = total
}
