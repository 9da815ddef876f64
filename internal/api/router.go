package api

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/patrickmn/go-cache"
	"golang.org/x/time/rate"

	"workend-notifier/internal/mw"
)

// RouterOptions - параметры ограничения частоты запросов
type RouterOptions struct {
	RateLimit rate.Limit
	Burst     int
}

// NewRouter собирает маршруты API
func NewRouter(h *Handler, opts RouterOptions) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), mw.Logger(h.logger))

	// Ключ VAPID не меняется за время жизни процесса
	caching := mw.Cache(cache.New(time.Hour, 2*time.Hour), time.Hour)

	api := r.Group("/api")
	api.Use(mw.RateLimiter(opts.RateLimit, opts.Burst))
	{
		api.POST("/attendance", h.PostAttendance)
		api.POST("/breaks/start", h.PostBreakStart)
		api.POST("/breaks/end", h.PostBreakEnd)
		api.POST("/status/before-work", h.PostBeforeWork)
		api.POST("/status/on-break", h.PostOnBreak)

		api.GET("/status", h.GetStatus)
		api.GET("/alarms", h.GetAlarms)

		api.GET("/settings", h.GetSettings)
		api.PUT("/settings", h.PutSettings)

		api.GET("/vapid_public_key", caching, h.GetVAPIDPublicKey)
		api.PUT("/subscriptions", h.PutSubscription)
		api.DELETE("/subscriptions", h.DeleteSubscription)
	}

	return r
}
