// Package main provides the reply hub server entry point.
package main

import (
	"context"
	"time"

	"github.com/yuweiho/tg-replyhub-go/internal/config"
	"github.com/yuweiho/tg-replyhub-go/internal/logger"
	"github.com/yuweiho/tg-replyhub-go/internal/metrics"
	"github.com/yuweiho/tg-replyhub-go/internal/storage"
)

// pruneCooldowns periodically removes expired cooldown rows. Expired
// rows are already invisible to lookups; pruning just keeps the table
// from growing unbounded.
func pruneCooldowns(ctx context.Context, db *storage.DB, cfg *config.Config, log *logger.Logger) {
	// Initial prune after a short delay to let the server stabilize
	select {
	case <-ctx.Done():
		return
	case <-time.After(config.CooldownPruneInitialDelay):
		performCooldownPrune(ctx, db, log)
	}

	ticker := time.NewTicker(cfg.CooldownPruneInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			performCooldownPrune(ctx, db, log)
		}
	}
}

func performCooldownPrune(ctx context.Context, db *storage.DB, log *logger.Logger) {
	deleted, err := db.DeleteExpiredCooldowns(ctx)
	if err != nil {
		log.WithError(err).Error("Failed to prune expired cooldowns")
		return
	}

	remaining, _ := db.CountCooldowns(ctx)
	log.WithFields(map[string]any{
		"deleted":   deleted,
		"remaining": remaining,
	}).Debug("Cooldown prune complete")
}

// updateStoreMetrics periodically refreshes the store entity gauges.
func updateStoreMetrics(ctx context.Context, db *storage.DB, m *metrics.Metrics, log *logger.Logger) {
	refresh := func() {
		if count, err := db.CountBots(ctx); err == nil {
			m.SetStoreEntities("bots", count)
		} else {
			log.WithError(err).Debug("Failed to count bots for metrics")
		}
		if count, err := db.CountRuleSets(ctx); err == nil {
			m.SetStoreEntities("rule_sets", count)
		} else {
			log.WithError(err).Debug("Failed to count rule sets for metrics")
		}
		if count, err := db.CountCooldowns(ctx); err == nil {
			m.SetStoreEntities("cooldowns", count)
		} else {
			log.WithError(err).Debug("Failed to count cooldowns for metrics")
		}
	}

	refresh()

	ticker := time.NewTicker(config.StoreMetricsInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			refresh()
		}
	}
}
