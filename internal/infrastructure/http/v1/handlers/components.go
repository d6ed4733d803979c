package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"kvtrade/internal/core/apperror"
	"kvtrade/internal/domain/catalogue"
	"kvtrade/internal/infrastructure/http/v1/dto"
)

// ComponentHandler serves the catalogue tree.
type ComponentHandler struct {
	svc *catalogue.Service
}

// NewComponentHandler creates the component handler.
func NewComponentHandler(svc *catalogue.Service) *ComponentHandler {
	return &ComponentHandler{svc: svc}
}

type upsertComponentRequest struct {
	ParentPath  string `json:"parentPath"`
	Key         string `json:"key" binding:"required"`
	Name        string `json:"name" binding:"required"`
	Description string `json:"description"`
}

func (h *ComponentHandler) categoryLevel(c *gin.Context) (catalogue.Category, int, bool) {
	category := catalogue.Category(c.Param("category"))
	level, err := strconv.Atoi(c.Param("level"))
	if err != nil {
		fail(c, apperror.NewValidation("level must be an integer").
			WithDetail("level", c.Param("level")))
		return "", 0, false
	}
	return category, level, true
}

// Upsert handles PUT /components/:category/:level.
func (h *ComponentHandler) Upsert(c *gin.Context) {
	category, level, ok := h.categoryLevel(c)
	if !ok {
		return
	}
	var req upsertComponentRequest
	if !bindJSON(c, &req) {
		return
	}

	node, err := h.svc.UpsertComponent(c.Request.Context(), catalogue.UpsertComponentInput{
		Category:    category,
		Level:       level,
		ParentPath:  req.ParentPath,
		Key:         req.Key,
		Name:        req.Name,
		Description: req.Description,
	})
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, node)
}

// List handles GET /components/:category/:level.
func (h *ComponentHandler) List(c *gin.Context) {
	category, level, ok := h.categoryLevel(c)
	if !ok {
		return
	}
	filter := dto.ParseListFilter(c)

	result, err := h.svc.ListComponents(c.Request.Context(), category, level, filter)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.NewPage(result, filter))
}

// Get handles GET /components/node/:id.
func (h *ComponentHandler) Get(c *gin.Context) {
	nodeID, ok := pathID(c, "id")
	if !ok {
		return
	}
	node, err := h.svc.GetComponent(c.Request.Context(), nodeID)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, node)
}

// Deactivate handles DELETE /components/node/:id. The category's codes are
// regenerated as part of the same transaction.
func (h *ComponentHandler) Deactivate(c *gin.Context) {
	nodeID, ok := pathID(c, "id")
	if !ok {
		return
	}
	summary, err := h.svc.DeactivateComponent(c.Request.Context(), nodeID)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"regeneration": summary})
}
