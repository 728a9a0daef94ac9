package drafts

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"innovation-backend/internal/shared/server/middleware"
	"innovation-backend/internal/shared/server/respond"
)

const maxDraftSize = 1 << 20

// Handler wires HTTP handlers to the autosaver.
type Handler struct {
	Saver *Autosaver
}

func NewHandler(saver *Autosaver) *Handler {
	return &Handler{Saver: saver}
}

// RegisterRoutes attaches draft routes to the router group.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.PUT("/drafts/:key", h.put)
	rg.GET("/drafts/:key", h.get)
	rg.DELETE("/drafts/:key", h.remove)
}

func (h *Handler) put(c *gin.Context) {
	body, err := io.ReadAll(http.MaxBytesReader(c.Writer, c.Request.Body, maxDraftSize))
	if err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "unable to read draft", nil)
		return
	}
	if err := h.Saver.Schedule(middleware.CallerFromContext(c), c.Param("key"), body); err != nil {
		writeError(c, err)
		return
	}
	respond.JSON(c, http.StatusAccepted, gin.H{
		"key":        c.Param("key"),
		"saveInMs":   h.Saver.Delay().Milliseconds(),
		"autosaving": true,
	})
}

func (h *Handler) get(c *gin.Context) {
	d, err := h.Saver.Recover(c.Request.Context(), middleware.CallerFromContext(c), c.Param("key"))
	if err != nil {
		writeError(c, err)
		return
	}
	respond.OK(c, d)
}

func (h *Handler) remove(c *gin.Context) {
	if err := h.Saver.Discard(c.Request.Context(), middleware.CallerFromContext(c), c.Param("key")); err != nil {
		writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func writeError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, ErrInvalidInput):
		respond.Error(c, http.StatusBadRequest, "validation_error", err.Error(), nil)
	case errors.Is(err, ErrNotFound):
		respond.Error(c, http.StatusNotFound, "not_found", "no recent draft", nil)
	case errors.Is(err, ErrClosed):
		respond.Error(c, http.StatusServiceUnavailable, "unavailable", "server is shutting down", nil)
	default:
		respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to process draft", nil)
	}
}
