package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"innovation-backend/internal/ai"
	"innovation-backend/internal/drafts"
	"innovation-backend/internal/exports"
	"innovation-backend/internal/planitems"
	"innovation-backend/internal/plans"
	"innovation-backend/internal/shared/config"
	"innovation-backend/internal/shared/metrics"
	"innovation-backend/internal/shared/server/middleware"
	"innovation-backend/internal/shared/server/respond"
	"innovation-backend/internal/templates"
)

// Rate limit groups.
const (
	groupDefault = "DEFAULT"
	groupRead    = "READ"
	groupExport  = "EXPORT"
	groupAI      = "AI"
)

// RouterDeps carries the handlers mounted under /api/v1. Nil handlers are skipped.
type RouterDeps struct {
	Config          config.Config
	PlanHandler     *plans.Handler
	ItemStores      *planitems.Stores
	TemplateHandler *templates.Handler
	DraftHandler    *drafts.Handler
	ExportHandler   *exports.Handler
	AIHandler       *ai.Handler
	Limiter         *middleware.RateLimiter
}

// NewRouter constructs the Gin engine with middleware and routes registered.
func NewRouter(deps RouterDeps) *gin.Engine {
	cfg := deps.Config
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()

	r.Use(
		middleware.RequestID(),
		middleware.Logging(),
		middleware.Recovery(),
		middleware.CORS(cfg.CORSAllowOrigin),
	)

	r.GET("/health", health)
	r.GET("/metrics", metrics.Handler())

	api := r.Group("/api/v1")
	api.GET("/health", health)

	secured := api.Group("")
	secured.Use(
		middleware.Auth(),
		middleware.RateLimit(middleware.RateLimitConfig{
			DefaultGroup: groupDefault,
			GroupFor:     rateLimitGroup,
			Limiter:      deps.Limiter,
			Rules:        rateLimitRules(cfg),
		}),
	)
	registerMeRoutes(secured)
	if deps.PlanHandler != nil {
		deps.PlanHandler.RegisterRoutes(secured)
	}
	if deps.ItemStores != nil {
		deps.ItemStores.RegisterRoutes(secured)
	}
	if deps.TemplateHandler != nil {
		deps.TemplateHandler.RegisterRoutes(secured)
	}
	if deps.DraftHandler != nil {
		deps.DraftHandler.RegisterRoutes(secured)
	}
	if deps.ExportHandler != nil {
		deps.ExportHandler.RegisterRoutes(secured)
	}
	if deps.AIHandler != nil {
		deps.AIHandler.RegisterRoutes(secured)
	}

	return r
}

func health(c *gin.Context) {
	respond.JSON(c, http.StatusOK, gin.H{"ok": true})
}

// rateLimitRules scales every group from the configured default rate.
func rateLimitRules(cfg config.Config) map[string]middleware.RateLimitRule {
	rps := cfg.RateLimitRPS
	burst := cfg.RateLimitBurst
	if rps <= 0 || burst <= 0 {
		return map[string]middleware.RateLimitRule{}
	}
	return map[string]middleware.RateLimitRule{
		groupDefault: {Rate: rps, Burst: burst},
		groupRead:    {Rate: rps * 4, Burst: burst * 4},
		groupExport:  {Rate: rps / 5, Burst: max(1, burst/5)},
		groupAI:      {Rate: rps / 10, Burst: max(1, burst/10)},
	}
}

func rateLimitGroup(c *gin.Context) string {
	path := c.FullPath()
	switch {
	case strings.HasPrefix(path, "/api/v1/plans/:id/ai/"):
		return groupAI
	case c.Request.Method == http.MethodPost && path == "/api/v1/plans/:id/exports":
		return groupExport
	case c.Request.Method == http.MethodGet:
		return groupRead
	default:
		return groupDefault
	}
}

// Addr normalizes the listen address.
func Addr(port string) string {
	if port == "" {
		return ":8080"
	}
	if port[0] == ':' {
		return port
	}
	return ":" + port
}
