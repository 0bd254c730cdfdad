package api

import (
	"github.com/gin-gonic/gin"
	"github.com/mroshb/skill_swap/internal/metrics"
	"github.com/mroshb/skill_swap/internal/middleware"
)

// RouterConfig carries everything the HTTP surface needs besides the handler.
type RouterConfig struct {
	JWTSecret   string
	MetricsUser string
	MetricsPass string
	Limiter     *middleware.RateLimiter
}

// NewRouter builds the gin engine with all routes registered.
func NewRouter(h *Handler, cfg RouterConfig) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), RequestLogger(), Monitor())

	r.GET("/health", h.Health)

	metricsHandler := gin.WrapH(metrics.Handler())
	if cfg.MetricsUser != "" || cfg.MetricsPass != "" {
		r.GET("/metrics", gin.BasicAuth(gin.Accounts{cfg.MetricsUser: cfg.MetricsPass}), metricsHandler)
	} else {
		r.GET("/metrics", metricsHandler)
	}

	v1 := r.Group("/api/v1")
	if cfg.Limiter != nil {
		v1.Use(RateLimitByIP(cfg.Limiter))
	}
	v1.Use(AuthRequired(cfg.JWTSecret))
	if cfg.Limiter != nil {
		v1.Use(RateLimitByUser(cfg.Limiter))
	}

	swaps := v1.Group("/swaps")
	{
		swaps.POST("", h.Propose)
		swaps.GET("", h.List)
		swaps.GET("/:id", h.Get)
		swaps.PUT("/:id/respond", h.Respond)
		swaps.PUT("/:id/cancel", h.Cancel)
		swaps.PUT("/:id/complete", h.Complete)
	}

	admin := v1.Group("/admin", AdminOnly())
	{
		admin.GET("/swaps", h.AdminList)
		admin.GET("/swaps/stats", h.AdminStats)
		admin.GET("/swaps/export", h.AdminExport)
		admin.DELETE("/swaps/:id", h.AdminDelete)
	}

	return r
}
