package quotation

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"kvtrade/internal/core/apperror"
	"kvtrade/internal/core/entity"
	"kvtrade/internal/core/id"
)

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func TestValidNumber(t *testing.T) {
	assert.True(t, ValidNumber("2025-08-0001"))
	assert.True(t, ValidNumber("2025-08-10001")) // widened beyond 9999
	assert.False(t, ValidNumber("2025-8-0001"))
	assert.False(t, ValidNumber("2025-08-001"))
	assert.False(t, ValidNumber("QT-2025-08-0001"))
}

func TestItemValidate(t *testing.T) {
	ok := Item{ProductName: "Valve", Quantity: 1, UnitPrice: dec("0")}
	assert.NoError(t, ok.Validate(context.Background()))

	zeroQty := Item{ProductName: "Valve", Quantity: 0, UnitPrice: dec("10")}
	err := zeroQty.Validate(context.Background())
	require.Error(t, err)
	appErr, _ := apperror.AsAppError(err)
	assert.Equal(t, apperror.CodeValidation, appErr.Code)

	negPrice := Item{ProductName: "Valve", Quantity: 1, UnitPrice: dec("-1")}
	assert.Error(t, negPrice.Validate(context.Background()))
}

func TestQuotationValidateRevisionLink(t *testing.T) {
	ctx := context.Background()
	root := id.New()

	q := Quotation{
		Base: entity.NewBase(), CustomerName: "ACME",
		Currency: "VND", Status: StatusDraft,
	}
	assert.NoError(t, q.Validate(ctx))

	// Revision without root pointer.
	q.RevisionNumber = 1
	assert.Error(t, q.Validate(ctx))

	q.OriginalQuotationID = &root
	assert.NoError(t, q.Validate(ctx))

	// Root pointer without revision number.
	q.RevisionNumber = 0
	assert.Error(t, q.Validate(ctx))
}

func TestRenumberAndTotals(t *testing.T) {
	q := Quotation{
		Base: entity.NewBase(), CustomerName: "ACME",
		Currency: "USD", Status: StatusDraft,
		Items: []Item{
			{ProductName: "a", Quantity: 2, UnitPrice: dec("100"), TotalPrice: dec("200")},
			{ProductName: "b", Quantity: 3, UnitPrice: dec("50"), TotalPrice: dec("150")},
		},
	}
	q.Renumber()
	q.RecalculateTotals()

	assert.Equal(t, 1, q.Items[0].ItemNumber)
	assert.Equal(t, 2, q.Items[1].ItemNumber)
	assert.Equal(t, q.ID, q.Items[0].QuotationID)
	assert.False(t, id.IsNil(q.Items[0].ID))
	assert.True(t, q.TotalAmount.Equal(dec("350")))
}

func TestItemInputTotalOverride(t *testing.T) {
	derived := ItemInput{ProductName: "a", Quantity: 4, UnitPrice: dec("25")}.toItem()
	assert.True(t, derived.TotalPrice.Equal(dec("100")))

	override := dec("90")
	overridden := ItemInput{ProductName: "a", Quantity: 4, UnitPrice: dec("25"), TotalPrice: &override}.toItem()
	assert.True(t, overridden.TotalPrice.Equal(dec("90")))

	// Negative override is ignored, total derives.
	bad := dec("-1")
	ignored := ItemInput{ProductName: "a", Quantity: 4, UnitPrice: dec("25"), TotalPrice: &bad}.toItem()
	assert.True(t, ignored.TotalPrice.Equal(dec("100")))
}

func TestImmutable(t *testing.T) {
	assert.False(t, Immutable(StatusDraft))
	assert.False(t, Immutable(StatusSent))
	assert.True(t, Immutable(StatusApproved))
	assert.True(t, Immutable(StatusRejected))
}
