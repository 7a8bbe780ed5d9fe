// Package server builds the HTTP surface of the relay.
package server

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"conversation-relay/internal/common/config"
	"conversation-relay/internal/common/logger"
)

// Pinger is a dependency checked by /ready.
type Pinger interface {
	Ping(ctx context.Context) error
}

type Options struct {
	Server         config.ServerConfig
	Logger         logger.Logger
	MessageRoute   string
	MessageHandler gin.HandlerFunc
	// Cache is pinged by /ready when set.
	Cache          Pinger
	MetricsHandler http.Handler
}

func NewRouter(opts Options) *gin.Engine {
	if opts.Logger == nil {
		opts.Logger = logger.NewNoOpLogger()
	}
	if opts.MetricsHandler == nil {
		opts.MetricsHandler = promhttp.Handler()
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(RequestID())
	router.Use(RequestLogger(opts.Logger))
	router.Use(Metrics())
	router.Use(CORS(opts.Server.AllowedOrigins))

	if opts.MessageHandler != nil {
		router.POST(opts.MessageRoute, opts.MessageHandler)
	}

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status": "healthy",
			"time":   time.Now().Format(time.RFC3339),
		})
	})

	router.GET("/ready", func(c *gin.Context) {
		if opts.Cache != nil {
			ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
			defer cancel()
			if err := opts.Cache.Ping(ctx); err != nil {
				opts.Logger.Warn("readiness check failed", map[string]interface{}{
					"dependency": "cache",
					"error":      err.Error(),
				})
				c.JSON(http.StatusServiceUnavailable, gin.H{
					"status": "not_ready",
					"cache":  err.Error(),
					"time":   time.Now().Format(time.RFC3339),
				})
				return
			}
		}
		c.JSON(http.StatusOK, gin.H{
			"status": "ready",
			"time":   time.Now().Format(time.RFC3339),
		})
	})

	router.GET("/metrics", gin.WrapH(opts.MetricsHandler))

	router.NoRoute(staticFallback(opts.Server.StaticDir))

	return router
}

// staticFallback serves the UI bundle for GET and HEAD; anything else that
// matched no route gets a JSON 404.
func staticFallback(dir string) gin.HandlerFunc {
	var files http.Handler
	if dir != "" {
		files = http.FileServer(gin.Dir(dir, false))
	}

	return func(c *gin.Context) {
		method := c.Request.Method
		if files != nil && (method == http.MethodGet || method == http.MethodHead) {
			files.ServeHTTP(c.Writer, c.Request)
			return
		}
		c.JSON(http.StatusNotFound, gin.H{
			"code":    "NOT_FOUND",
			"message": "route not found",
			"path":    c.Request.URL.Path,
		})
	}
}
