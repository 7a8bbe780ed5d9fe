// cmd/relay-server/main.go
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"conversation-relay/internal/common/config"
	"conversation-relay/internal/common/conversation"
	"conversation-relay/internal/common/database"
	httpclient "conversation-relay/internal/common/http"
	"conversation-relay/internal/common/logger"
	"conversation-relay/internal/common/nlu"
	"conversation-relay/internal/common/observability"
	messagerelay "conversation-relay/internal/handlers/message-relay"
	"conversation-relay/internal/server"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config load failed: %v\n", err)
		os.Exit(1)
	}

	zapLog := logger.New(cfg.Logging.Level, cfg.Logging.Format, cfg.Logging.Output)
	defer zapLog.Sync()

	log := logger.NewZapAdapter(zapLog)

	zapLog.Info("Starting conversation relay...",
		zap.String("version", cfg.App.Version),
		zap.String("environment", cfg.App.Environment),
	)

	sampleRatio := 0.0
	if cfg.Tracing.Enabled {
		sampleRatio = cfg.Tracing.SampleRatio
	}
	obs, err := observability.New(cfg.App.Name,
		observability.WithSampleRatio(sampleRatio),
		observability.WithGlobalProviders(),
	)
	if err != nil {
		zapLog.Fatal("observability init failed", zap.Error(err))
	}
	defer obs.Shutdown(context.Background())

	userAgent := httpclient.WithUserAgent(fmt.Sprintf("%s/%s", cfg.App.Name, cfg.App.Version))

	var analyzer messagerelay.TextAnalyzer = nlu.NewClient(cfg.NLU, userAgent)

	// --- Init Redis analysis cache ---
	var cache server.Pinger
	if cfg.Cache.Enabled {
		redis, err := database.NewRedis(cfg.Cache)
		if err != nil {
			zapLog.Fatal("redis init failed", zap.Error(err))
		}
		defer redis.Close()

		pingCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		if err := redis.Ping(pingCtx); err != nil {
			// the cache is optional at request time; /ready reports it
			zapLog.Warn("redis not reachable at startup", zap.Error(err))
		} else {
			zapLog.Info("Redis connected successfully", zap.String("address", cfg.Cache.Address))
		}
		cancel()

		analyzer = nlu.NewCachedAnalyzer(analyzer, redis, time.Duration(cfg.Cache.TTL)*time.Second, log)
		cache = redis
	}

	dialog := conversation.NewClient(cfg.Conversation, userAgent)

	handlerCfg := messagerelay.LoadConfig(cfg)
	if !handlerCfg.Configured() {
		zapLog.Warn("conversation.workspace_id is not set; /api/message will return setup instructions")
	}
	handler := messagerelay.NewHandler(handlerCfg, analyzer, dialog, log, obs)

	gin.SetMode(cfg.Server.GinMode)
	router := server.NewRouter(server.Options{
		Server:         cfg.Server,
		Logger:         log,
		MessageRoute:   messagerelay.Route,
		MessageHandler: handler.Handle,
		Cache:          cache,
	})

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		zapLog.Info("HTTP server listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			zapLog.Fatal("HTTP server failed", zap.Error(err))
		}
	}()

	// --- Graceful Shutdown ---
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	zapLog.Info("Shutdown signal received, draining requests...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), config.GetDuration(cfg.Server.ShutdownTimeout))
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		zapLog.Error("Error shutting down HTTP server", zap.Error(err))
	}

	zapLog.Info("Conversation relay stopped gracefully")
}
