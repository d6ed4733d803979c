package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"kvtrade/internal/domain/supplier"
	"kvtrade/internal/infrastructure/http/v1/dto"
)

// SupplierHandler serves the supplier directory.
type SupplierHandler struct {
	svc *supplier.Service
}

// NewSupplierHandler creates the supplier handler.
func NewSupplierHandler(svc *supplier.Service) *SupplierHandler {
	return &SupplierHandler{svc: svc}
}

type createSupplierRequest struct {
	CompanyName  string `json:"companyName" binding:"required"`
	Country      string `json:"country"`
	City         string `json:"city"`
	BusinessType string `json:"businessType"`
	Currency     string `json:"currency"`
	PaymentTerms string `json:"paymentTerms"`
	LeadTimeDays int    `json:"leadTimeDays"`
	Rating       int    `json:"rating"`
	ContactName  string `json:"contactName"`
	ContactEmail string `json:"contactEmail"`
	ContactPhone string `json:"contactPhone"`
}

// Create handles POST /suppliers.
func (h *SupplierHandler) Create(c *gin.Context) {
	var req createSupplierRequest
	if !bindJSON(c, &req) {
		return
	}
	sup, err := h.svc.Create(c.Request.Context(), supplier.CreateInput{
		CompanyName:  req.CompanyName,
		Country:      req.Country,
		City:         req.City,
		BusinessType: req.BusinessType,
		Currency:     req.Currency,
		PaymentTerms: req.PaymentTerms,
		LeadTimeDays: req.LeadTimeDays,
		Rating:       req.Rating,
		ContactName:  req.ContactName,
		ContactEmail: req.ContactEmail,
		ContactPhone: req.ContactPhone,
	})
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, sup)
}

type updateSupplierRequest struct {
	Country      *string `json:"country"`
	City         *string `json:"city"`
	BusinessType *string `json:"businessType"`
	Currency     *string `json:"currency"`
	PaymentTerms *string `json:"paymentTerms"`
	LeadTimeDays *int    `json:"leadTimeDays"`
	Rating       *int    `json:"rating"`
	ContactName  *string `json:"contactName"`
	ContactEmail *string `json:"contactEmail"`
	ContactPhone *string `json:"contactPhone"`
}

// Update handles PATCH /suppliers/:id.
func (h *SupplierHandler) Update(c *gin.Context) {
	supplierID, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req updateSupplierRequest
	if !bindJSON(c, &req) {
		return
	}
	sup, err := h.svc.Update(c.Request.Context(), supplierID, supplier.UpdatePatch{
		Country:      req.Country,
		City:         req.City,
		BusinessType: req.BusinessType,
		Currency:     req.Currency,
		PaymentTerms: req.PaymentTerms,
		LeadTimeDays: req.LeadTimeDays,
		Rating:       req.Rating,
		ContactName:  req.ContactName,
		ContactEmail: req.ContactEmail,
		ContactPhone: req.ContactPhone,
	})
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, sup)
}

// Get handles GET /suppliers/:id.
func (h *SupplierHandler) Get(c *gin.Context) {
	supplierID, ok := pathID(c, "id")
	if !ok {
		return
	}
	sup, err := h.svc.Get(c.Request.Context(), supplierID)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, sup)
}

// List handles GET /suppliers?status=&country=&search=.
func (h *SupplierHandler) List(c *gin.Context) {
	filter := dto.ParseListFilter(c, "status", "country")
	result, err := h.svc.List(c.Request.Context(), filter)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.NewPage(result, filter))
}

// Inactivate handles DELETE /suppliers/:id (soft).
func (h *SupplierHandler) Inactivate(c *gin.Context) {
	supplierID, ok := pathID(c, "id")
	if !ok {
		return
	}
	if err := h.svc.Inactivate(c.Request.Context(), supplierID); err != nil {
		fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
