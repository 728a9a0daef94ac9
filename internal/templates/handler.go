package templates

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"innovation-backend/internal/plans"
	"innovation-backend/internal/shared/auth"
	"innovation-backend/internal/shared/server/middleware"
	"innovation-backend/internal/shared/server/respond"
	"innovation-backend/internal/taxonomy"
)

// Handler wires HTTP handlers to the service.
type Handler struct {
	Svc *Service
}

// NewHandler constructs a Handler.
func NewHandler(svc *Service) *Handler {
	return &Handler{Svc: svc}
}

// RegisterRoutes attaches template and taxonomy routes to the router group.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/taxonomy", h.taxonomy)
	rg.GET("/templates", h.list)
	rg.POST("/templates", h.create)
	rg.GET("/templates/coverage", h.coverage)
	rg.GET("/templates/:id", h.get)
	rg.PUT("/templates/:id", h.update)
	rg.DELETE("/templates/:id", h.remove)
	rg.POST("/templates/:id/clone", h.clone)
}

type updateRequest struct {
	Input
	Version int64 `json:"version"`
}

type cloneRequest struct {
	Name string `json:"name"`
}

func (h *Handler) taxonomy(c *gin.Context) {
	cat := h.Svc.catalog()
	categories := gin.H{}
	for _, name := range taxonomy.Categories() {
		categories[string(name)] = cat.Entries(name)
	}
	respond.OK(c, gin.H{
		"categories":      categories,
		"template_types":  cat.TemplateTypes,
		"recommendations": cat.Recommendations,
	})
}

func (h *Handler) list(c *gin.Context) {
	ts, err := h.Svc.List(c.Request.Context(), middleware.CallerFromContext(c), strings.TrimSpace(c.Query("type")))
	if err != nil {
		writeError(c, err)
		return
	}
	respond.OK(c, gin.H{"items": ts})
}

func (h *Handler) get(c *gin.Context) {
	t, err := h.Svc.Get(c.Request.Context(), middleware.CallerFromContext(c), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	respond.OK(c, t)
}

func (h *Handler) create(c *gin.Context) {
	caller := middleware.CallerFromContext(c)
	if err := caller.RequireUser(); err != nil {
		writeError(c, err)
		return
	}
	var in Input
	if err := c.ShouldBindJSON(&in); err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "invalid request body", nil)
		return
	}
	t, err := h.Svc.Create(c.Request.Context(), caller, in)
	if err != nil {
		writeError(c, err)
		return
	}
	respond.JSON(c, http.StatusCreated, t)
}

func (h *Handler) update(c *gin.Context) {
	caller := middleware.CallerFromContext(c)
	if err := caller.RequireUser(); err != nil {
		writeError(c, err)
		return
	}
	var req updateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "invalid request body", nil)
		return
	}
	t, err := h.Svc.Update(c.Request.Context(), caller, c.Param("id"), req.Version, req.Input)
	if err != nil {
		writeError(c, err)
		return
	}
	respond.OK(c, t)
}

func (h *Handler) remove(c *gin.Context) {
	if err := h.Svc.Delete(c.Request.Context(), middleware.CallerFromContext(c), c.Param("id")); err != nil {
		writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handler) clone(c *gin.Context) {
	caller := middleware.CallerFromContext(c)
	if err := caller.RequireUser(); err != nil {
		writeError(c, err)
		return
	}
	var req cloneRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			respond.Error(c, http.StatusBadRequest, "validation_error", "invalid request body", nil)
			return
		}
	}
	rec, err := h.Svc.Clone(c.Request.Context(), caller, c.Param("id"), req.Name)
	if err != nil {
		writeError(c, err)
		return
	}
	respond.JSON(c, http.StatusCreated, gin.H{
		"id":          rec.ID,
		"status":      rec.Status,
		"version":     rec.Version,
		"template_id": rec.TemplateID,
		"plan":        rec.Plan.Normalize(),
	})
}

func (h *Handler) coverage(c *gin.Context) {
	result, err := h.Svc.Coverage(c.Request.Context(), middleware.CallerFromContext(c))
	if err != nil {
		writeError(c, err)
		return
	}
	respond.OK(c, result)
}

func writeError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, auth.ErrAuthRequired):
		respond.Error(c, http.StatusUnauthorized, "auth_required", "Login required to manage templates", nil)
	case errors.Is(err, ErrInvalidInput), errors.Is(err, plans.ErrInvalidInput):
		respond.Error(c, http.StatusBadRequest, "validation_error", err.Error(), nil)
	case errors.Is(err, ErrForbidden):
		respond.Error(c, http.StatusForbidden, "forbidden", "template belongs to another user", nil)
	case errors.Is(err, ErrNotFound):
		respond.Error(c, http.StatusNotFound, "not_found", "template not found", nil)
	case errors.Is(err, ErrVersionConflict):
		respond.Error(c, http.StatusConflict, "version_conflict", "template was changed by someone else", nil)
	default:
		respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to process template", nil)
	}
}
