// Package main provides the reply hub server entry point.
package main

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	adminapi "github.com/yuweiho/tg-replyhub-go/internal/admin"
	"github.com/yuweiho/tg-replyhub-go/internal/config"
	"github.com/yuweiho/tg-replyhub-go/internal/logger"
	"github.com/yuweiho/tg-replyhub-go/internal/storage"
	"github.com/yuweiho/tg-replyhub-go/internal/webhook"
)

// setupRoutes configures all HTTP routes
func setupRoutes(router *gin.Engine, cfg *config.Config, webhookHandler *webhook.Handler, adminHandler *adminapi.Handler, db *storage.DB, registry *prometheus.Registry, log *logger.Logger) {
	// Root endpoint - redirect to project page
	rootHandler := func(c *gin.Context) {
		c.Redirect(http.StatusMovedPermanently, "https://github.com/yuweiho/tg-replyhub-go")
	}
	router.GET("/", rootHandler)
	router.HEAD("/", rootHandler)

	// Liveness probe - process is up, nothing more
	healthHandler := func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	}
	router.GET("/healthz", healthHandler)
	router.HEAD("/healthz", healthHandler)

	// Readiness probe - database reachable plus entity counts
	readyHandler := func(c *gin.Context) {
		if err := db.Ready(c.Request.Context()); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"status": "not ready",
				"reason": err.Error(),
			})
			return
		}

		botCount, _ := db.CountBots(c.Request.Context())
		ruleSetCount, _ := db.CountRuleSets(c.Request.Context())
		cooldownCount, _ := db.CountCooldowns(c.Request.Context())

		c.JSON(http.StatusOK, gin.H{
			"status":   "ready",
			"database": "connected",
			"store": gin.H{
				"bots":      botCount,
				"rule_sets": ruleSetCount,
				"cooldowns": cooldownCount,
			},
		})
	}
	router.GET("/ready", readyHandler)
	router.HEAD("/ready", readyHandler)

	// Telegram webhook callback, one path per registered bot identity
	router.POST("/webhook/:identity", webhookHandler.Handle)

	// Management API, disabled entirely without an admin password
	if cfg.AdminEnabled() {
		api := router.Group("/api", gin.BasicAuth(gin.Accounts{cfg.AdminUser: cfg.AdminPass}))
		adminHandler.Register(api)
		log.Info("Admin API enabled")
	} else {
		log.Warn("Admin API disabled (no admin password configured)")
	}

	// Prometheus metrics endpoint with optional Basic Auth
	metricsHandler := gin.WrapH(promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
	if cfg.MetricsPassword != "" {
		authorized := router.Group("/", gin.BasicAuth(gin.Accounts{cfg.MetricsUsername: cfg.MetricsPassword}))
		authorized.GET("/metrics", metricsHandler)
	} else {
		router.GET("/metrics", metricsHandler)
	}
}
