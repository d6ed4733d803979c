package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"kvtrade/internal/domain/catalogue"
	"kvtrade/internal/infrastructure/http/v1/dto"
)

// CodeHandler serves generated codes and their lifecycle.
type CodeHandler struct {
	svc *catalogue.Service
}

// NewCodeHandler creates the code handler.
func NewCodeHandler(svc *catalogue.Service) *CodeHandler {
	return &CodeHandler{svc: svc}
}

// List handles GET /codes?category=&status=.
func (h *CodeHandler) List(c *gin.Context) {
	filter := dto.ParseListFilter(c)
	result, err := h.svc.ListCodes(c.Request.Context(),
		catalogue.Category(c.Query("category")), c.Query("status"), filter)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.NewPage(result, filter))
}

// Get handles GET /codes/:code.
func (h *CodeHandler) Get(c *gin.Context) {
	code, err := h.svc.GetCode(c.Request.Context(), c.Param("code"))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, code)
}

type regenerateRequest struct {
	Category string `json:"category" binding:"required"`
}

// Regenerate handles POST /codes/regenerate.
func (h *CodeHandler) Regenerate(c *gin.Context) {
	var req regenerateRequest
	if !bindJSON(c, &req) {
		return
	}
	summary, err := h.svc.RegenerateCodes(c.Request.Context(), catalogue.Category(req.Category))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, summary)
}

type useCodeRequest struct {
	ProductNameEN string `json:"productNameEn" binding:"required"`
}

// Use handles POST /codes/:code/use.
func (h *CodeHandler) Use(c *gin.Context) {
	var req useCodeRequest
	if !bindJSON(c, &req) {
		return
	}
	if err := h.svc.MarkCodeUsed(c.Request.Context(), c.Param("code"), req.ProductNameEN); err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": catalogue.CodeUsed})
}

// Release handles POST /codes/:code/release.
func (h *CodeHandler) Release(c *gin.Context) {
	if err := h.svc.ReleaseCode(c.Request.Context(), c.Param("code")); err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": catalogue.CodeAvailable})
}
