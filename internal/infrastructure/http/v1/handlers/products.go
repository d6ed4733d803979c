package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"kvtrade/internal/domain/product"
	"kvtrade/internal/infrastructure/http/v1/dto"
)

// ProductHandler serves the master product registry.
type ProductHandler struct {
	svc *product.Service
}

// NewProductHandler creates the product handler.
func NewProductHandler(svc *product.Service) *ProductHandler {
	return &ProductHandler{svc: svc}
}

type registerProductRequest struct {
	ProductCode    string          `json:"productCode" binding:"required"`
	NameEN         string          `json:"nameEn" binding:"required"`
	NameVI         string          `json:"nameVi"`
	SupplierName   string          `json:"supplierName"`
	Unit           string          `json:"unit"`
	SupplyCurrency string          `json:"supplyCurrency" binding:"required"`
	SupplyPrice    decimal.Decimal `json:"supplyPrice"`
	ExchangeRate   decimal.Decimal `json:"exchangeRate" binding:"required"`
	SalesPriceVND  decimal.Decimal `json:"salesPriceVnd"`
}

// Register handles POST /products. Re-registering a code revives the
// existing row.
func (h *ProductHandler) Register(c *gin.Context) {
	var req registerProductRequest
	if !bindJSON(c, &req) {
		return
	}
	m, err := h.svc.Register(c.Request.Context(), req.ProductCode, product.RegisterInput{
		NameEN:         req.NameEN,
		NameVI:         req.NameVI,
		SupplierName:   req.SupplierName,
		Unit:           req.Unit,
		SupplyCurrency: req.SupplyCurrency,
		SupplyPrice:    req.SupplyPrice,
		ExchangeRate:   req.ExchangeRate,
		SalesPriceVND:  req.SalesPriceVND,
	})
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, m)
}

type updateProductRequest struct {
	NameEN         *string          `json:"nameEn"`
	NameVI         *string          `json:"nameVi"`
	SupplierName   *string          `json:"supplierName"`
	Unit           *string          `json:"unit"`
	SupplyCurrency *string          `json:"supplyCurrency"`
	SupplyPrice    *decimal.Decimal `json:"supplyPrice"`
	ExchangeRate   *decimal.Decimal `json:"exchangeRate"`
	SalesPriceVND  *decimal.Decimal `json:"salesPriceVnd"`
}

// Update handles PATCH /products/:id.
func (h *ProductHandler) Update(c *gin.Context) {
	productID, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req updateProductRequest
	if !bindJSON(c, &req) {
		return
	}
	m, err := h.svc.Update(c.Request.Context(), productID, product.UpdatePatch{
		NameEN:         req.NameEN,
		NameVI:         req.NameVI,
		SupplierName:   req.SupplierName,
		Unit:           req.Unit,
		SupplyCurrency: req.SupplyCurrency,
		SupplyPrice:    req.SupplyPrice,
		ExchangeRate:   req.ExchangeRate,
		SalesPriceVND:  req.SalesPriceVND,
	})
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, m)
}

// Get handles GET /products/:id.
func (h *ProductHandler) Get(c *gin.Context) {
	productID, ok := pathID(c, "id")
	if !ok {
		return
	}
	m, err := h.svc.Get(c.Request.Context(), productID)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, m)
}

// GetByCode handles GET /products/code/:code.
func (h *ProductHandler) GetByCode(c *gin.Context) {
	m, err := h.svc.GetByCode(c.Request.Context(), c.Param("code"))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, m)
}

// List handles GET /products?category=&supplier=&search=.
func (h *ProductHandler) List(c *gin.Context) {
	filter := dto.ParseListFilter(c, "category", "supplier")
	result, err := h.svc.ListActive(c.Request.Context(), filter)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.NewPage(result, filter))
}

// Delete handles DELETE /products/:id?hard=. Soft delete keeps the code
// used; hard delete releases it.
func (h *ProductHandler) Delete(c *gin.Context) {
	productID, ok := pathID(c, "id")
	if !ok {
		return
	}
	var err error
	if c.Query("hard") == "true" {
		err = h.svc.HardDelete(c.Request.Context(), productID)
	} else {
		err = h.svc.SoftDelete(c.Request.Context(), productID)
	}
	if err != nil {
		fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
