package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"kvtrade/internal/core/apperror"
	"kvtrade/internal/domain/sales"
)

// SalesHandler serves targets, records and monthly rollups.
type SalesHandler struct {
	svc *sales.Service
}

// NewSalesHandler creates the sales handler.
func NewSalesHandler(svc *sales.Service) *SalesHandler {
	return &SalesHandler{svc: svc}
}

type targetRequest struct {
	YearMonth         string          `json:"yearMonth" binding:"required"`
	TargetType        string          `json:"targetType" binding:"required"`
	TargetCategory    string          `json:"targetCategory"`
	TargetAmountVND   decimal.Decimal `json:"targetAmountVnd"`
	ResponsiblePerson string          `json:"responsiblePerson"`
}

// UpsertTarget handles PUT /sales/targets. Writing an existing key triple
// overwrites its amount.
func (h *SalesHandler) UpsertTarget(c *gin.Context) {
	var req targetRequest
	if !bindJSON(c, &req) {
		return
	}
	target, err := h.svc.UpsertTarget(c.Request.Context(), sales.TargetInput{
		YearMonth:         req.YearMonth,
		TargetType:        req.TargetType,
		TargetCategory:    req.TargetCategory,
		TargetAmountVND:   req.TargetAmountVND,
		ResponsiblePerson: req.ResponsiblePerson,
	})
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, target)
}

// ListTargets handles GET /sales/targets?yearMonth=.
func (h *SalesHandler) ListTargets(c *gin.Context) {
	yearMonth := c.Query("yearMonth")
	if !sales.ValidYearMonth(yearMonth) {
		fail(c, apperror.NewValidation("year month must be YYYY-MM").
			WithDetail("yearMonth", yearMonth))
		return
	}
	targets, err := h.svc.ListTargets(c.Request.Context(), yearMonth)
	if err != nil {
		fail(c, err)
		return
	}
	if targets == nil {
		targets = []sales.MonthlyTarget{}
	}
	c.JSON(http.StatusOK, gin.H{"items": targets})
}

type recordSaleRequest struct {
	SaleDate     time.Time       `json:"saleDate" binding:"required"`
	Category     string          `json:"category"`
	CustomerName string          `json:"customerName"`
	ProductCode  string          `json:"productCode"`
	ProductName  string          `json:"productName"`
	Quantity     int             `json:"quantity"`
	Amount       decimal.Decimal `json:"amount"`
	Currency     string          `json:"currency" binding:"required"`
	ProfitMargin decimal.Decimal `json:"profitMargin"`
}

// RecordSale handles POST /sales/records.
func (h *SalesHandler) RecordSale(c *gin.Context) {
	var req recordSaleRequest
	if !bindJSON(c, &req) {
		return
	}
	record, err := h.svc.RecordSale(c.Request.Context(), sales.RecordInput{
		SaleDate:     req.SaleDate,
		Category:     req.Category,
		CustomerName: req.CustomerName,
		ProductCode:  req.ProductCode,
		ProductName:  req.ProductName,
		Quantity:     req.Quantity,
		Amount:       req.Amount,
		Currency:     req.Currency,
		ProfitMargin: req.ProfitMargin,
	})
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, record)
}

// Summary handles GET /sales/summary/:yearMonth.
func (h *SalesHandler) Summary(c *gin.Context) {
	summary, err := h.svc.Summary(c.Request.Context(), c.Param("yearMonth"))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, summary)
}

// TargetVsActual handles GET /sales/target-vs-actual?yearMonth=&type=&category=.
func (h *SalesHandler) TargetVsActual(c *gin.Context) {
	comparison, err := h.svc.TargetVsActual(c.Request.Context(),
		c.Query("yearMonth"), c.Query("type"), c.Query("category"))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, comparison)
}

// ListRecords handles GET /sales/records/:yearMonth.
func (h *SalesHandler) ListRecords(c *gin.Context) {
	records, err := h.svc.ListMonth(c.Request.Context(), c.Param("yearMonth"))
	if err != nil {
		fail(c, err)
		return
	}
	if records == nil {
		records = []sales.SalesRecord{}
	}
	c.JSON(http.StatusOK, gin.H{"items": records})
}
