package ai

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"innovation-backend/internal/shared/auth"
	"innovation-backend/internal/shared/server/middleware"
	"innovation-backend/internal/shared/server/respond"
)

// Handler wires HTTP handlers to the service.
type Handler struct {
	Svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{Svc: svc}
}

// RegisterRoutes attaches the collaborator route to the router group.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/plans/:id/ai/:kind", h.run)
}

func (h *Handler) run(c *gin.Context) {
	caller := middleware.CallerFromContext(c)
	if err := caller.RequireUser(); err != nil {
		writeError(c, err)
		return
	}
	kind, err := ParseKind(c.Param("kind"))
	if err != nil {
		writeError(c, err)
		return
	}
	var opts Options
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&opts); err != nil {
			respond.Error(c, http.StatusBadRequest, "validation_error", "invalid request body", nil)
			return
		}
	}
	c.Set(middleware.PlanIDKey, c.Param("id"))
	res, err := h.Svc.Run(c.Request.Context(), caller, c.Param("id"), kind, opts)
	if err != nil {
		writeError(c, err)
		return
	}
	respond.OK(c, gin.H{
		"kind":    kind,
		"success": res.Success,
		"data":    res.Data,
	})
}

func writeError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, auth.ErrAuthRequired):
		respond.Error(c, http.StatusUnauthorized, "auth_required", "Login required to use AI assistance", nil)
	case errors.Is(err, ErrUnknownKind):
		respond.Error(c, http.StatusBadRequest, "validation_error", "kind must be analyze, enhance or curriculum", nil)
	case errors.Is(err, ErrForbidden):
		respond.Error(c, http.StatusForbidden, "forbidden", "plan belongs to another user", nil)
	case errors.Is(err, ErrPlanNotFound):
		respond.Error(c, http.StatusNotFound, "not_found", "plan not found", nil)
	case errors.Is(err, ErrNotConfigured):
		respond.Error(c, http.StatusServiceUnavailable, "ai_unavailable", "AI assistance is not configured", nil)
	case errors.Is(err, ErrFailed):
		respond.Error(c, http.StatusBadGateway, "ai_failed", "AI request failed", nil)
	default:
		respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to run AI task", nil)
	}
}
