package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"kvtrade/internal/core/apperror"
	"kvtrade/internal/domain/pricing"
	"kvtrade/internal/domain/rates"
)

// RateHandler serves managed rates and effective-rate resolution.
type RateHandler struct {
	svc      *rates.Service
	resolver *pricing.Resolver
}

// NewRateHandler creates the rate handler.
func NewRateHandler(svc *rates.Service, resolver *pricing.Resolver) *RateHandler {
	return &RateHandler{svc: svc, resolver: resolver}
}

func queryYear(c *gin.Context, name string) (int, bool) {
	raw := c.Query(name)
	if raw == "" {
		return 0, true
	}
	year, err := strconv.Atoi(raw)
	if err != nil {
		fail(c, apperror.NewValidation("year must be an integer").WithDetail("year", raw))
		return 0, false
	}
	return year, true
}

func pathYear(c *gin.Context) (int, bool) {
	year, err := strconv.Atoi(c.Param("year"))
	if err != nil {
		fail(c, apperror.NewValidation("year must be an integer").
			WithDetail("year", c.Param("year")))
		return 0, false
	}
	return year, true
}

// List handles GET /rates?year=.
func (h *RateHandler) List(c *gin.Context) {
	year, ok := queryYear(c, "year")
	if !ok {
		return
	}
	list, err := h.svc.ListRates(c.Request.Context(), year)
	if err != nil {
		fail(c, err)
		return
	}
	if list == nil {
		list = []rates.ManagedRate{}
	}
	c.JSON(http.StatusOK, gin.H{"items": list})
}

type putRateRequest struct {
	Rate        decimal.Decimal `json:"rate" binding:"required"`
	Description string          `json:"description"`
}

// Put handles PUT /rates/:year/:base/:target.
func (h *RateHandler) Put(c *gin.Context) {
	year, ok := pathYear(c)
	if !ok {
		return
	}
	var req putRateRequest
	if !bindJSON(c, &req) {
		return
	}

	rate, err := h.svc.PutYearlyRate(c.Request.Context(), year,
		c.Param("base"), c.Param("target"), req.Rate, req.Description)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, rate)
}

// Delete handles DELETE /rates/:year/:base/:target.
func (h *RateHandler) Delete(c *gin.Context) {
	year, ok := pathYear(c)
	if !ok {
		return
	}
	if err := h.svc.Inactivate(c.Request.Context(), year, c.Param("base"), c.Param("target")); err != nil {
		fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// Effective handles GET /rates/effective?year=&base=&target=&exact=.
// base defaults to USD; exact=true demands an exact-year managed rate.
func (h *RateHandler) Effective(c *gin.Context) {
	year, ok := queryYear(c, "year")
	if !ok {
		return
	}
	if year == 0 {
		fail(c, apperror.NewValidation("year is required"))
		return
	}
	target := c.Query("target")
	base := c.DefaultQuery("base", rates.BaseCurrency)

	var resolved *rates.Resolved
	var err error
	if c.Query("exact") == "true" {
		if base != rates.BaseCurrency {
			fail(c, apperror.NewValidation("exact lookups are USD based"))
			return
		}
		resolved, err = h.svc.GetRateExact(c.Request.Context(), year, target)
	} else {
		resolved, err = h.resolver.ResolveRate(c.Request.Context(), base, target, year)
	}
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, resolved)
}

type applyPricingRequest struct {
	SupplyCurrency string           `json:"supplyCurrency" binding:"required"`
	SupplyPrice    decimal.Decimal  `json:"supplyPrice"`
	TargetCurrency string           `json:"targetCurrency" binding:"required"`
	Year           int              `json:"year" binding:"required"`
	ManualOverride *decimal.Decimal `json:"manualOverride,omitempty"`
}

// Apply handles POST /pricing/apply: converts a supply price and reports
// both computed and effective values.
func (h *RateHandler) Apply(c *gin.Context) {
	var req applyPricingRequest
	if !bindJSON(c, &req) {
		return
	}
	quote, err := h.resolver.ApplyPricing(c.Request.Context(),
		req.SupplyCurrency, req.SupplyPrice, req.TargetCurrency, req.Year, req.ManualOverride)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, quote)
}
