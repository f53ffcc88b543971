package api

import (
	"github.com/gin-gonic/gin"
	"github.com/patrickmn/go-cache"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"maintenance-tracker/config"
	"maintenance-tracker/internal/metrics"
	"maintenance-tracker/internal/mw"
)

// NewRouter wires the handler's routes and middleware.
func NewRouter(h *Handler, cfg config.ServerConfig, rec *metrics.Recorder, logger *zap.Logger) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(mw.RequestID())
	r.Use(mw.Logger(logger))
	r.Use(mw.Metrics(rec))

	r.GET("/healthz", h.Healthz)
	r.GET("/metrics", gin.WrapH(rec.Handler()))

	// Only responses fixed for the life of the process are cached. Record,
	// theme and subscription data can change outside this router (maintctl on
	// a shared backend, expired push subscriptions) and machine rows depend on
	// the current date.
	static := []gin.HandlerFunc{}
	if ttl := cfg.CacheTTL(); ttl > 0 {
		static = append(static, mw.Cache(cache.New(ttl, 2*ttl), ttl))
	}

	api := r.Group("/api")
	api.Use(mw.RateLimiter(rate.Limit(cfg.RateLimitPerSec), cfg.RateLimitBurst))
	{
		api.GET("/machines", h.ListMachines)
		api.POST("/machines", h.CreateMachine)
		api.POST("/machines/sort", h.SortMachines)
		api.GET("/machines/:id", h.GetMachine)
		api.PUT("/machines/:id", h.UpdateMachine)
		api.DELETE("/machines/:id", h.DeleteMachine)

		api.GET("/export", h.Export)
		api.POST("/import", h.Import)

		api.GET("/theme", h.GetTheme)
		api.PUT("/theme", h.PutTheme)
		api.POST("/theme/toggle", h.ToggleTheme)

		api.GET("/subscriptions", h.GetSubscription)
		api.PUT("/subscriptions", h.PutSubscription)
		api.DELETE("/subscriptions", h.DeleteSubscription)
		api.GET("/vapid_public_key", append(static, h.GetVAPIDPublicKey)...)
	}

	if logger != nil {
		logger.Info("router initialized")
	}
	return r
}
