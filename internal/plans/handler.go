package plans

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"innovation-backend/internal/shared/auth"
	"innovation-backend/internal/shared/server/middleware"
	"innovation-backend/internal/shared/server/respond"
	"innovation-backend/internal/strategy"
)

// Handler wires HTTP handlers to the service.
type Handler struct {
	Svc *Service
}

// NewHandler constructs a Handler.
func NewHandler(svc *Service) *Handler {
	return &Handler{Svc: svc}
}

// RegisterRoutes attaches plan routes to the router group.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/plans/score", h.score)
	rg.GET("/plans", h.list)
	rg.POST("/plans", h.create)
	rg.GET("/plans/:id", h.get)
	rg.PUT("/plans/:id", h.update)
	rg.DELETE("/plans/:id", h.remove)
	rg.GET("/plans/:id/readiness", h.readiness)
	rg.GET("/plans/:id/quality", h.quality)
	rg.GET("/plans/:id/validation", h.validation)
	rg.POST("/plans/:id/submit", h.submit)
	rg.POST("/plans/:id/status", h.status)
	rg.GET("/dashboard", h.dashboard)
}

func (h *Handler) score(c *gin.Context) {
	var p strategy.Plan
	if err := c.ShouldBindJSON(&p); err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "invalid request body", nil)
		return
	}
	respond.OK(c, Evaluate(p))
}

func (h *Handler) list(c *gin.Context) {
	limit := maxListLimit
	offset := 0
	if v := c.Query("limit"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil && parsed > 0 {
			limit = parsed
		}
	}
	if v := c.Query("offset"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil && parsed >= 0 {
			offset = parsed
		}
	}

	recs, err := h.Svc.List(c.Request.Context(), middleware.CallerFromContext(c), limit, offset)
	if err != nil {
		writeError(c, err)
		return
	}
	items := make([]planSummary, 0, len(recs))
	for _, rec := range recs {
		items = append(items, toSummary(rec))
	}
	respond.OK(c, gin.H{"items": items, "limit": min(limit, maxListLimit), "offset": offset})
}

func (h *Handler) create(c *gin.Context) {
	caller := middleware.CallerFromContext(c)
	if err := caller.RequireUser(); err != nil {
		writeError(c, err)
		return
	}
	var req createRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "invalid request body", nil)
		return
	}
	rec, err := h.Svc.Create(c.Request.Context(), caller, CreateInput{Plan: req.Plan, TemplateID: req.TemplateID})
	if err != nil {
		writeError(c, err)
		return
	}
	respond.JSON(c, http.StatusCreated, toResponse(rec))
}

func (h *Handler) get(c *gin.Context) {
	caller := middleware.CallerFromContext(c)
	var (
		rec Record
		err error
	)
	if c.Query("assembled") == "false" {
		rec, err = h.Svc.Get(c.Request.Context(), caller, c.Param("id"))
	} else {
		rec, err = h.Svc.Assemble(c.Request.Context(), caller, c.Param("id"))
	}
	if err != nil {
		writeError(c, err)
		return
	}
	respond.OK(c, toResponse(rec))
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
	if req.Version <= 0 {
		respond.Error(c, http.StatusBadRequest, "validation_error", "version is required", nil)
		return
	}
	rec, err := h.Svc.Update(c.Request.Context(), caller, c.Param("id"), req.Version, req.Plan)
	if err != nil {
		writeError(c, err)
		return
	}
	respond.OK(c, toResponse(rec))
}

func (h *Handler) remove(c *gin.Context) {
	if err := h.Svc.Delete(c.Request.Context(), middleware.CallerFromContext(c), c.Param("id")); err != nil {
		writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handler) readiness(c *gin.Context) {
	eval, err := h.Svc.Evaluate(c.Request.Context(), middleware.CallerFromContext(c), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	respond.OK(c, eval.Readiness)
}

func (h *Handler) quality(c *gin.Context) {
	eval, err := h.Svc.Evaluate(c.Request.Context(), middleware.CallerFromContext(c), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	respond.OK(c, eval.Quality)
}

func (h *Handler) validation(c *gin.Context) {
	eval, err := h.Svc.Evaluate(c.Request.Context(), middleware.CallerFromContext(c), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	respond.OK(c, eval.Validation)
}

func (h *Handler) submit(c *gin.Context) {
	caller := middleware.CallerFromContext(c)
	if err := caller.RequireUser(); err != nil {
		writeError(c, err)
		return
	}
	var req versionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "invalid request body", nil)
		return
	}
	rec, validation, err := h.Svc.Submit(c.Request.Context(), caller, c.Param("id"), req.Version)
	if err != nil {
		writeError(c, err)
		return
	}
	respond.OK(c, gin.H{"plan": toResponse(rec), "validation": validation})
}

func (h *Handler) status(c *gin.Context) {
	caller := middleware.CallerFromContext(c)
	if err := caller.RequireUser(); err != nil {
		writeError(c, err)
		return
	}
	var req statusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "invalid request body", nil)
		return
	}
	rec, err := h.Svc.Transition(c.Request.Context(), caller, c.Param("id"), req.Version, req.Status)
	if err != nil {
		writeError(c, err)
		return
	}
	respond.OK(c, toResponse(rec))
}

func (h *Handler) dashboard(c *gin.Context) {
	entries, err := h.Svc.Dashboard(c.Request.Context(), middleware.CallerFromContext(c))
	if err != nil {
		writeError(c, err)
		return
	}
	items := make([]dashboardItem, 0, len(entries))
	for _, e := range entries {
		items = append(items, dashboardItem{
			planSummary: toSummary(e.Record),
			Score:       e.Score,
			Level:       e.Level,
			Quality:     e.Quality,
		})
	}
	respond.OK(c, gin.H{"items": items})
}

func writeError(c *gin.Context, err error) {
	var (
		conflict *ConflictError
		gate     *GateError
	)
	switch {
	case errors.Is(err, auth.ErrAuthRequired):
		respond.Error(c, http.StatusUnauthorized, "auth_required", "Login required to save plans", nil)
	case errors.As(err, &conflict):
		respond.Error(c, http.StatusConflict, "version_conflict", "plan was changed by someone else", gin.H{
			"current_version": conflict.Current.Version,
			"diff":            conflict.Diff,
		})
	case errors.As(err, &gate):
		respond.Error(c, http.StatusUnprocessableEntity, "submission_blocked", err.Error(), gate.Validation)
	case errors.Is(err, ErrInvalidInput):
		respond.Error(c, http.StatusBadRequest, "validation_error", err.Error(), nil)
	case errors.Is(err, ErrForbidden):
		respond.Error(c, http.StatusForbidden, "forbidden", "plan belongs to another user", nil)
	case errors.Is(err, ErrNotFound):
		respond.Error(c, http.StatusNotFound, "not_found", "plan not found", nil)
	case errors.Is(err, ErrNotEditable), errors.Is(err, ErrInvalidStatus):
		respond.Error(c, http.StatusConflict, "invalid_status", err.Error(), nil)
	default:
		respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to process plan", nil)
	}
}
