package exports

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"innovation-backend/internal/shared/auth"
	"innovation-backend/internal/shared/server/middleware"
	"innovation-backend/internal/shared/server/respond"
	"innovation-backend/internal/shared/telemetry"
)

// Handler wires HTTP handlers to the service.
type Handler struct {
	Svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{Svc: svc}
}

// RegisterRoutes attaches export routes to the router group.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/plans/:id/exports", h.start)
	rg.GET("/plans/:id/exports", h.list)
	rg.GET("/exports/:id", h.get)
	rg.GET("/exports/:id/download", h.download)
}

type startRequest struct {
	Format string `json:"format" binding:"required"`
}

func (h *Handler) start(c *gin.Context) {
	caller := middleware.CallerFromContext(c)
	if err := caller.RequireUser(); err != nil {
		writeError(c, err)
		return
	}
	var req startRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "format is required", nil)
		return
	}
	format, err := ParseFormat(req.Format)
	if err != nil {
		writeError(c, err)
		return
	}
	c.Set(middleware.PlanIDKey, c.Param("id"))
	rec, err := h.Svc.Start(c.Request.Context(), caller, c.Param("id"), format, middleware.RequestIDFromContext(c))
	if err != nil {
		writeError(c, err)
		return
	}
	status := http.StatusCreated
	if rec.Status == StatusQueued {
		status = http.StatusAccepted
	}
	respond.JSON(c, status, rec)
}

func (h *Handler) list(c *gin.Context) {
	c.Set(middleware.PlanIDKey, c.Param("id"))
	items, err := h.Svc.ListByPlan(c.Request.Context(), middleware.CallerFromContext(c), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	respond.OK(c, gin.H{"items": items})
}

func (h *Handler) get(c *gin.Context) {
	rec, err := h.Svc.Get(c.Request.Context(), middleware.CallerFromContext(c), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	respond.OK(c, rec)
}

func (h *Handler) download(c *gin.Context) {
	rec, rc, err := h.Svc.Open(c.Request.Context(), middleware.CallerFromContext(c), c.Param("id"))
	if err != nil {
		if errors.Is(err, ErrNotReady) {
			respond.Error(c, http.StatusConflict, "export_not_ready", "export is not ready", gin.H{
				"status": rec.Status,
				"error":  rec.Error,
			})
			return
		}
		writeError(c, err)
		return
	}
	defer rc.Close()

	c.Header("Content-Type", rec.ContentType)
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", rec.FileName))
	if rec.SizeBytes > 0 {
		c.Header("Content-Length", strconv.FormatInt(rec.SizeBytes, 10))
	}
	c.Status(http.StatusOK)
	if _, err := io.Copy(c.Writer, rc); err != nil {
		telemetry.Error("export.download_failed", map[string]any{"export_id": rec.ID, "error": err})
	}
}

func writeError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, auth.ErrAuthRequired):
		respond.Error(c, http.StatusUnauthorized, "auth_required", "Login required to export plans", nil)
	case errors.Is(err, ErrInvalidFormat):
		respond.Error(c, http.StatusBadRequest, "validation_error", "format must be pdf or xlsx", nil)
	case errors.Is(err, ErrForbidden):
		respond.Error(c, http.StatusForbidden, "forbidden", "export belongs to another user", nil)
	case errors.Is(err, ErrPlanNotFound):
		respond.Error(c, http.StatusNotFound, "not_found", "plan not found", nil)
	case errors.Is(err, ErrNotFound):
		respond.Error(c, http.StatusNotFound, "not_found", "export not found", nil)
	default:
		respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to process export", nil)
	}
}
