package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"kvtrade/internal/core/apperror"
	"kvtrade/internal/core/id"
	"kvtrade/internal/domain/quotation"
	"kvtrade/internal/infrastructure/http/v1/dto"
)

// QuotationHandler serves quotation authoring.
type QuotationHandler struct {
	svc *quotation.Service
}

// NewQuotationHandler creates the quotation handler.
func NewQuotationHandler(svc *quotation.Service) *QuotationHandler {
	return &QuotationHandler{svc: svc}
}

type quotationItemRequest struct {
	ProductName   string           `json:"productName" binding:"required"`
	ProductCode   string           `json:"productCode"`
	Specification string           `json:"specification"`
	Quantity      int              `json:"quantity" binding:"required"`
	UnitPrice     decimal.Decimal  `json:"unitPrice"`
	TotalPrice    *decimal.Decimal `json:"totalPrice,omitempty"`
	Unit          string           `json:"unit"`
	LeadTime      string           `json:"leadTime"`
	Notes         string           `json:"notes"`
}

func (r quotationItemRequest) toInput() quotation.ItemInput {
	return quotation.ItemInput{
		ProductName:   r.ProductName,
		ProductCode:   r.ProductCode,
		Specification: r.Specification,
		Quantity:      r.Quantity,
		UnitPrice:     r.UnitPrice,
		TotalPrice:    r.TotalPrice,
		Unit:          r.Unit,
		LeadTime:      r.LeadTime,
		Notes:         r.Notes,
	}
}

func toItemInputs(reqs []quotationItemRequest) []quotation.ItemInput {
	if reqs == nil {
		return nil
	}
	items := make([]quotation.ItemInput, len(reqs))
	for i, r := range reqs {
		items[i] = r.toInput()
	}
	return items
}

type createQuotationRequest struct {
	CustomerID    string                 `json:"customerId"`
	CustomerName  string                 `json:"customerName"`
	ProjectName   string                 `json:"projectName"`
	QuotationDate *time.Time             `json:"quotationDate,omitempty"`
	DeliveryDate  *time.Time             `json:"deliveryDate,omitempty"`
	Currency      string                 `json:"currency" binding:"required"`
	ExchangeRate  decimal.Decimal        `json:"exchangeRate"`
	Notes         string                 `json:"notes"`
	Items         []quotationItemRequest `json:"items"`
}

func (r createQuotationRequest) toHeader() quotation.HeaderInput {
	header := quotation.HeaderInput{
		CustomerID:   r.CustomerID,
		CustomerName: r.CustomerName,
		ProjectName:  r.ProjectName,
		DeliveryDate: r.DeliveryDate,
		Currency:     r.Currency,
		ExchangeRate: r.ExchangeRate,
		Notes:        r.Notes,
	}
	if r.QuotationDate != nil {
		header.QuotationDate = *r.QuotationDate
	}
	return header
}

// Create handles POST /quotations.
func (h *QuotationHandler) Create(c *gin.Context) {
	var req createQuotationRequest
	if !bindJSON(c, &req) {
		return
	}
	q, err := h.svc.Create(c.Request.Context(), req.toHeader(), toItemInputs(req.Items))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, q)
}

type updateQuotationRequest struct {
	CustomerID   *string                `json:"customerId"`
	CustomerName *string                `json:"customerName"`
	ProjectName  *string                `json:"projectName"`
	DeliveryDate *time.Time             `json:"deliveryDate,omitempty"`
	Currency     *string                `json:"currency"`
	ExchangeRate *decimal.Decimal       `json:"exchangeRate"`
	Status       *string                `json:"status"`
	Notes        *string                `json:"notes"`
	Items        []quotationItemRequest `json:"items"`
}

func (r updateQuotationRequest) toPatch() quotation.HeaderPatch {
	return quotation.HeaderPatch{
		CustomerID:   r.CustomerID,
		CustomerName: r.CustomerName,
		ProjectName:  r.ProjectName,
		DeliveryDate: r.DeliveryDate,
		Currency:     r.Currency,
		ExchangeRate: r.ExchangeRate,
		Status:       r.Status,
		Notes:        r.Notes,
	}
}

// Update handles PUT /quotations/:id. A non-null items array replaces all
// lines.
func (h *QuotationHandler) Update(c *gin.Context) {
	quotationID, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req updateQuotationRequest
	if !bindJSON(c, &req) {
		return
	}
	q, err := h.svc.Update(c.Request.Context(), quotationID, req.toPatch(), toItemInputs(req.Items))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, q)
}

// AddItem handles POST /quotations/:id/items.
func (h *QuotationHandler) AddItem(c *gin.Context) {
	quotationID, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req quotationItemRequest
	if !bindJSON(c, &req) {
		return
	}
	q, err := h.svc.AddItem(c.Request.Context(), quotationID, req.toInput())
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, q)
}

// CreateRevision handles POST /quotations/:id/revisions.
func (h *QuotationHandler) CreateRevision(c *gin.Context) {
	quotationID, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req updateQuotationRequest
	if c.Request.ContentLength > 0 && !bindJSON(c, &req) {
		return
	}
	rev, err := h.svc.CreateRevision(c.Request.Context(), quotationID, req.toPatch())
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, rev)
}

// Revisions handles GET /quotations/:id/revisions.
func (h *QuotationHandler) Revisions(c *gin.Context) {
	quotationID, ok := pathID(c, "id")
	if !ok {
		return
	}
	chain, err := h.svc.Revisions(c.Request.Context(), quotationID)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": chain})
}

type saveQuotationRequest struct {
	QuotationID *string `json:"quotationId"`
	createQuotationRequest
}

// Save handles POST /quotations/save: update when the id resolves,
// create otherwise.
func (h *QuotationHandler) Save(c *gin.Context) {
	var req saveQuotationRequest
	if !bindJSON(c, &req) {
		return
	}

	payload := quotation.SavePayload{
		Header: req.toHeader(),
		Items:  toItemInputs(req.Items),
		HeaderPatch: quotation.HeaderPatch{
			CustomerID:   &req.CustomerID,
			CustomerName: &req.CustomerName,
			ProjectName:  &req.ProjectName,
			DeliveryDate: req.DeliveryDate,
			Currency:     &req.Currency,
			ExchangeRate: &req.ExchangeRate,
			Notes:        &req.Notes,
		},
	}
	if req.QuotationID != nil && *req.QuotationID != "" {
		parsed, err := id.Parse(*req.QuotationID)
		if err != nil {
			fail(c, apperror.NewValidation("invalid quotation id").
				WithDetail("quotationId", *req.QuotationID))
			return
		}
		payload.QuotationID = &parsed
	}

	result, err := h.svc.Save(c.Request.Context(), payload)
	if err != nil {
		fail(c, err)
		return
	}
	status := http.StatusOK
	if result.Created {
		status = http.StatusCreated
	}
	c.JSON(status, result)
}

// Get handles GET /quotations/:id.
func (h *QuotationHandler) Get(c *gin.Context) {
	quotationID, ok := pathID(c, "id")
	if !ok {
		return
	}
	q, err := h.svc.Get(c.Request.Context(), quotationID)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, q)
}

// Search handles GET /quotations with filters.
func (h *QuotationHandler) Search(c *gin.Context) {
	filter := quotation.SearchFilter{
		CustomerID:      c.Query("customer"),
		NumberContains:  c.Query("number"),
		ProjectContains: c.Query("project"),
		Status:          c.Query("status"),
		ListFilter:      dto.ParseListFilter(c),
	}
	if raw := c.Query("from"); raw != "" {
		t, err := time.Parse("2006-01-02", raw)
		if err != nil {
			fail(c, apperror.NewValidation("from must be YYYY-MM-DD").WithDetail("from", raw))
			return
		}
		filter.DateFrom = &t
	}
	if raw := c.Query("to"); raw != "" {
		t, err := time.Parse("2006-01-02", raw)
		if err != nil {
			fail(c, apperror.NewValidation("to must be YYYY-MM-DD").WithDetail("to", raw))
			return
		}
		filter.DateTo = &t
	}

	result, err := h.svc.Search(c.Request.Context(), filter)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.NewPage(result, filter.ListFilter))
}

// Delete handles DELETE /quotations/:id.
func (h *QuotationHandler) Delete(c *gin.Context) {
	quotationID, ok := pathID(c, "id")
	if !ok {
		return
	}
	if err := h.svc.Delete(c.Request.Context(), quotationID); err != nil {
		fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
