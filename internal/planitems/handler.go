package planitems

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"innovation-backend/internal/shared/auth"
	"innovation-backend/internal/shared/server/middleware"
	"innovation-backend/internal/shared/server/respond"
	"innovation-backend/internal/shared/storage/backend"
)

const maxBulkItems = 200

// RegisterRoutes attaches every collection under /plans/:id.
func (s *Stores) RegisterRoutes(rg *gin.RouterGroup) {
	register(rg, "risks", s.Risks)
	register(rg, "stakeholders", s.Stakeholders)
	register(rg, "milestones", s.Milestones)
	register(rg, "action-plans", s.ActionPlans)
	register(rg, "alignments", s.Alignments)
	register(rg, "swot-items", s.SWOTItems)
	register(rg, "kpis", s.KPIs)
}

type handler[T any] struct {
	store *Store[T]
}

func register[T any](rg *gin.RouterGroup, path string, store *Store[T]) {
	h := handler[T]{store: store}
	base := "/plans/:id/" + path
	rg.GET(base, h.list)
	rg.POST(base, h.create)
	rg.PUT(base, h.bulk)
	rg.PUT(base+"/:itemId", h.update)
	rg.DELETE(base+"/:itemId", h.remove)
}

type itemMeta struct {
	ID      string `json:"id"`
	Version int64  `json:"version"`
}

func (h handler[T]) list(c *gin.Context) {
	recs, err := h.store.List(c.Request.Context(), middleware.CallerFromContext(c), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	respond.JSON(c, http.StatusOK, gin.H{"items": recs})
}

func (h handler[T]) create(c *gin.Context) {
	caller := middleware.CallerFromContext(c)
	if err := caller.RequireUser(); err != nil {
		writeError(c, err)
		return
	}
	var item T
	if err := c.ShouldBindJSON(&item); err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "invalid request body", nil)
		return
	}
	rec, err := h.store.Create(c.Request.Context(), caller, c.Param("id"), item)
	if err != nil {
		writeError(c, err)
		return
	}
	respond.JSON(c, http.StatusCreated, rec)
}

func (h handler[T]) update(c *gin.Context) {
	caller := middleware.CallerFromContext(c)
	if err := caller.RequireUser(); err != nil {
		writeError(c, err)
		return
	}
	raw, err := c.GetRawData()
	if err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "invalid request body", nil)
		return
	}
	var (
		item T
		meta itemMeta
	)
	if json.Unmarshal(raw, &item) != nil || json.Unmarshal(raw, &meta) != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "invalid request body", nil)
		return
	}
	if meta.Version <= 0 {
		respond.Error(c, http.StatusBadRequest, "validation_error", "version is required", nil)
		return
	}
	rec, err := h.store.Update(c.Request.Context(), caller, c.Param("id"), c.Param("itemId"), meta.Version, item)
	if err != nil {
		writeError(c, err)
		return
	}
	respond.JSON(c, http.StatusOK, rec)
}

func (h handler[T]) remove(c *gin.Context) {
	if err := h.store.Delete(c.Request.Context(), middleware.CallerFromContext(c), c.Param("id"), c.Param("itemId")); err != nil {
		writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h handler[T]) bulk(c *gin.Context) {
	caller := middleware.CallerFromContext(c)
	if err := caller.RequireUser(); err != nil {
		writeError(c, err)
		return
	}
	var req struct {
		Items []json.RawMessage `json:"items"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "invalid request body", nil)
		return
	}
	if len(req.Items) > maxBulkItems {
		respond.Error(c, http.StatusBadRequest, "validation_error", "too many items", gin.H{"max": maxBulkItems})
		return
	}
	items := make([]BulkItem[T], 0, len(req.Items))
	for _, raw := range req.Items {
		var (
			item T
			meta itemMeta
		)
		if json.Unmarshal(raw, &item) != nil || json.Unmarshal(raw, &meta) != nil {
			respond.Error(c, http.StatusBadRequest, "validation_error", "invalid item", nil)
			return
		}
		items = append(items, BulkItem[T]{ID: strings.TrimSpace(meta.ID), Version: meta.Version, Item: item})
	}
	recs, err := h.store.BulkSave(c.Request.Context(), caller, c.Param("id"), items)
	if err != nil {
		writeError(c, err)
		return
	}
	respond.JSON(c, http.StatusOK, gin.H{"items": recs})
}

func writeError(c *gin.Context, err error) {
	var conflict *backend.ConflictError
	switch {
	case errors.Is(err, auth.ErrAuthRequired):
		respond.Error(c, http.StatusUnauthorized, "auth_required", "Login required to save plan items", nil)
	case errors.Is(err, ErrInvalidInput):
		respond.Error(c, http.StatusBadRequest, "validation_error", err.Error(), nil)
	case errors.Is(err, ErrForbidden):
		respond.Error(c, http.StatusForbidden, "forbidden", "plan belongs to another user", nil)
	case errors.Is(err, ErrPlanNotFound):
		respond.Error(c, http.StatusNotFound, "not_found", "plan not found", nil)
	case errors.Is(err, ErrNotFound):
		respond.Error(c, http.StatusNotFound, "not_found", "item not found", nil)
	case errors.Is(err, ErrPlanLocked):
		respond.Error(c, http.StatusConflict, "plan_locked", "plan is not editable in its current status", nil)
	case errors.As(err, &conflict):
		respond.Error(c, http.StatusConflict, "version_conflict", "item was changed by someone else", gin.H{"current_version": conflict.Current.Version()})
	default:
		respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to save plan items", nil)
	}
}
