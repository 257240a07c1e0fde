// Package main provides the reply hub server entry point.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	sentrygin "github.com/getsentry/sentry-go/gin"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/yuweiho/tg-replyhub-go/internal/buildinfo"
	"github.com/yuweiho/tg-replyhub-go/internal/config"
	"github.com/yuweiho/tg-replyhub-go/internal/dispatch"
	"github.com/yuweiho/tg-replyhub-go/internal/fetch"
	"github.com/yuweiho/tg-replyhub-go/internal/logger"
	"github.com/yuweiho/tg-replyhub-go/internal/metrics"
	"github.com/yuweiho/tg-replyhub-go/internal/ratelimit"
	"github.com/yuweiho/tg-replyhub-go/internal/rules"
	"github.com/yuweiho/tg-replyhub-go/internal/sentry"
	"github.com/yuweiho/tg-replyhub-go/internal/storage"
	"github.com/yuweiho/tg-replyhub-go/internal/telegram"
	"github.com/yuweiho/tg-replyhub-go/internal/webhook"

	adminapi "github.com/yuweiho/tg-replyhub-go/internal/admin"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger with optional Better Stack shipping
	log := logger.NewWithShipping(cfg.LogLevel, os.Stdout, logger.ShippingConfig{
		Token:    cfg.BetterStackToken,
		Endpoint: cfg.BetterStackEndpoint,
	})
	log.Info("Starting reply hub server", "version", buildinfo.Version)

	// Initialize error tracking
	if err := sentry.Initialize(sentry.Config{
		Token:       cfg.SentryToken,
		Host:        cfg.SentryHost,
		Environment: cfg.SentryEnvironment,
		Release:     buildinfo.Version,
		SampleRate:  cfg.SentrySampleRate,
	}); err != nil {
		log.WithError(err).Warn("Failed to initialize error tracking")
	} else if sentry.IsEnabled() {
		log.Info("Error tracking initialized")
	}

	// Connect to database
	db, err := storage.New(cfg.SQLitePath())
	if err != nil {
		log.WithError(err).Fatal("Failed to connect to database")
	}
	defer func() { _ = db.Close() }()
	log.WithField("path", cfg.SQLitePath()).Info("Database connected")

	// Create Prometheus registry with standard collectors
	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector())
	registry.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	registry.MustRegister(collectors.NewBuildInfoCollector())

	m := metrics.New(registry)
	log.Info("Metrics initialized")

	// Outbound Telegram client, shared across all tenant bots
	sender := telegram.NewBotSender(cfg.GlobalRateRPS, cfg.TelegramAPITimeout)

	// Redirect resolver for dynamic image endpoints (optional)
	var resolver dispatch.URLResolver
	if cfg.ResolveRedirects {
		resolver = fetch.NewResolver(cfg.FetchTimeout)
		log.Info("Redirect resolution enabled")
	}

	accessor := rules.New(db)
	cooldown := ratelimit.NewCooldown(db)
	dispatcher := dispatch.New(sender, resolver, log, m)

	// Per-user flood protection across all bots
	userLimiter := ratelimit.NewPerKeyLimiter(ratelimit.PerKeyLimiterConfig{
		MaxTokens:     cfg.UserRateLimitBurst,
		RefillRate:    cfg.UserRateLimitRefillPerSec,
		CleanupPeriod: 5 * time.Minute,
	})
	defer userLimiter.Stop()
	userLimiter.OnDrop(func() { m.RecordRateLimiterDrop("user") })

	webhookHandler := webhook.NewHandler(webhook.HandlerConfig{
		Accessor:    accessor,
		Cooldown:    cooldown,
		Dispatcher:  dispatcher,
		Sender:      sender,
		UserLimiter: userLimiter,
		Metrics:     m,
		Logger:      log,
	})
	adminHandler := adminapi.NewHandler(db, sender, cfg, log)
	log.Info("Handlers created")

	// Set Gin mode based on log level
	if cfg.LogLevel == "debug" {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(gin.Recovery())
	if sentry.IsEnabled() {
		router.Use(sentrygin.New(sentrygin.Options{Repanic: true}))
	}
	router.Use(securityHeadersMiddleware())
	router.Use(loggingMiddleware(log))

	setupRoutes(router, cfg, webhookHandler, adminHandler, db, registry, log)

	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      router,
		ReadTimeout:  config.WebhookHTTPRead,
		WriteTimeout: config.WebhookHTTPWrite,
		IdleTimeout:  config.WebhookHTTPIdle,
	}

	// Background jobs
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		defer func() {
			if r := recover(); r != nil {
				log.WithField("panic", r).Error("Panic in cooldown prune goroutine")
			}
		}()
		pruneCooldowns(ctx, db, cfg, log)
	}()

	wg.Add(1)
	go func() {
		defer wg.Done()
		defer func() {
			if r := recover(); r != nil {
				log.WithField("panic", r).Error("Panic in store metrics goroutine")
			}
		}()
		updateStoreMetrics(ctx, db, m, log)
	}()

	// Start server
	go func() {
		log.WithField("port", cfg.Port).Info("Server starting")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.WithError(err).Fatal("Failed to start server")
		}
	}()

	// Wait for interrupt signal for graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down server...")
	cancel()

	goDone := make(chan struct{})
	go func() {
		wg.Wait()
		close(goDone)
	}()

	select {
	case <-goDone:
		log.Info("All background goroutines stopped")
	case <-time.After(5 * time.Second):
		log.Warn("Timeout waiting for goroutines to stop")
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Error("Server forced to shutdown")
	}

	if sentry.IsEnabled() {
		sentry.Flush(2 * time.Second)
	}

	if err := db.Close(); err != nil {
		log.WithError(err).Error("Failed to close database")
	}

	log.Info("Server stopped")
}
