package main

import (
	"context"
	"errors"
	"os"
	"time"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"bitbucket.org/mmdatafocus/reminders_backend/config"
	"bitbucket.org/mmdatafocus/reminders_backend/models"
	"bitbucket.org/mmdatafocus/reminders_backend/utils"
	"bitbucket.org/mmdatafocus/reminders_backend/workflow"
)

const (
	schedulerScope       = "reminder_scheduler"
	schedulerMaxPerRun   = 50
	defaultSchedInterval = time.Hour
)

func schedulerInterval() time.Duration {
	if v := os.Getenv("REMINDER_SCHEDULER_INTERVAL"); v != "" {
		if d, err := time.ParseDuration(v); err == nil && d > 0 {
			return d
		}
	}
	return defaultSchedInterval
}

// runReminderScheduler walks every active business on each tick and runs one
// scheduled generation pass. The idempotency key (business, date) ensures
// each business is processed once per calendar day no matter how often the
// ticker fires or how many replicas run.
func runReminderScheduler(ctx context.Context, engine *workflow.DraftEngine, logger *logrus.Logger) {
	interval := schedulerInterval()
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		schedulerTick(ctx, engine, logger)
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

func schedulerTick(ctx context.Context, engine *workflow.DraftEngine, logger *logrus.Logger) {
	db := config.GetDB()
	if db == nil {
		return
	}
	businessIds, err := models.ListActiveBusinessIds(utils.SetSkipTenantScopeInContext(ctx, true), db)
	if err != nil {
		config.LogError(logger, "scheduler", "schedulerTick", "list businesses", nil, err)
		return
	}
	today := time.Now().UTC().Format("2006-01-02")

	for _, businessId := range businessIds {
		select {
		case <-ctx.Done():
			return
		default:
		}

		skip := false
		err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			s, err := workflow.BeginIdempotency(tx, businessId, schedulerScope, today)
			skip = s
			return err
		})
		if errors.Is(err, workflow.ErrIdempotencyInProgress) {
			continue
		}
		if err != nil {
			config.LogError(logger, "scheduler", "schedulerTick", "begin idempotency", businessId, err)
			continue
		}
		if skip {
			continue
		}

		drafts, runErr := engine.GenerateDrafts(ctx, businessId, schedulerMaxPerRun, false)
		if errors.Is(runErr, utils.ErrBusinessLockHeld) {
			// Another run owns the business right now; the idempotency row
			// stays STARTED and goes stale-reclaimable.
			continue
		}
		if runErr != nil {
			config.LogError(logger, "scheduler", "schedulerTick", "generate drafts", businessId, runErr)
			_ = workflow.MarkIdempotencyFailed(db.WithContext(ctx), businessId, schedulerScope, today, runErr)
			continue
		}
		_ = workflow.MarkIdempotencySucceeded(db.WithContext(ctx), businessId, schedulerScope, today, "")
		if len(drafts) > 0 {
			logger.WithFields(logrus.Fields{
				"business_id": businessId,
				"created":     len(drafts),
			}).Info("scheduled generation run created drafts")
		}
	}
}
