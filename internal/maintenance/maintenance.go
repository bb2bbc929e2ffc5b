// Package maintenance runs the scheduled housekeeping job: it rotates
// the audit log file and records a store census so operators can watch
// forum growth without querying pebble directly.
package maintenance

import (
	"context"
	"fmt"
	"time"

	"github.com/adhocore/gronx"

	"github.com/vineelsaireddy/Felicity-event-management-system-sub000/pkg/config"
	"github.com/vineelsaireddy/Felicity-event-management-system-sub000/pkg/logger"
	"github.com/vineelsaireddy/Felicity-event-management-system-sub000/pkg/store"
)

// Start starts the maintenance scheduler if enabled. Returns a cancel
// func; when maintenance is disabled the cancel is a no-op.
func Start(ctx context.Context, cfg *config.Config) (context.CancelFunc, error) {
	if !cfg.Maintenance.Enabled {
		logger.Info("maintenance_disabled")
		return func() {}, nil
	}

	// map empty cron to default daily @02:00
	cronExpr := cfg.Maintenance.Cron
	if cronExpr == "" {
		cronExpr = "0 2 * * *"
	}
	if !gronx.IsValid(cronExpr) {
		logger.Error("maintenance_invalid_cron", "cron", cfg.Maintenance.Cron)
		return nil, fmt.Errorf("invalid maintenance cron expression: %s", cfg.Maintenance.Cron)
	}

	logger.Info("maintenance_enabled", "cron", cronExpr)
	ctx2, cancel := context.WithCancel(ctx)
	go runScheduler(ctx2, cronExpr)
	return cancel, nil
}

// RunImmediate triggers a single maintenance run, for admin triggers
// and tests.
func RunImmediate() error {
	return runOnce()
}

// runScheduler computes the next tick for the configured cron
// expression with gronx and sleeps until that time.
func runScheduler(ctx context.Context, cronExpr string) {
	for {
		select {
		case <-ctx.Done():
			logger.Info("maintenance_scheduler_stopping")
			return
		default:
		}

		now := time.Now().UTC()
		next, err := gronx.NextTickAfter(cronExpr, now, false)
		if err != nil {
			logger.Error("maintenance_nexttick_failed", "cron", cronExpr, "error", err)
			select {
			case <-time.After(30 * time.Second):
			case <-ctx.Done():
				return
			}
			continue
		}

		select {
		case <-time.After(time.Until(next)):
			if err := runOnce(); err != nil {
				logger.Error("maintenance_run_error", "error", err)
			}
		case <-ctx.Done():
			logger.Info("maintenance_scheduler_stopping")
			return
		}
	}
}

// runOnce rotates the audit sink and logs a store census.
func runOnce() error {
	suffix := time.Now().UTC().Format("20060102T150405")
	if err := logger.RotateAudit(suffix); err != nil {
		return fmt.Errorf("rotate audit log: %w", err)
	}
	stats, err := store.Census()
	if err != nil {
		return fmt.Errorf("store census: %w", err)
	}
	logger.AuditEvent("maintenance_census", "events", stats.Events, "messages", stats.Messages, "disk_bytes", store.DiskUsage())
	return nil
}
