package main

import (
	"context"
	"errors"
	"time"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"bitbucket.org/mmdatafocus/reminders_backend/config"
	"bitbucket.org/mmdatafocus/reminders_backend/models"
	"bitbucket.org/mmdatafocus/reminders_backend/utils"
	"bitbucket.org/mmdatafocus/reminders_backend/workflow"
)

const recomputeScope = "overdue_recompute"

// runOverdueRecompute refreshes days_overdue on unpaid invoices once per
// calendar day per business. The scheduler reads days_overdue rather than
// recomputing per invoice, so this job is what moves invoices across stage
// thresholds.
func runOverdueRecompute(ctx context.Context, db *gorm.DB, logger *logrus.Logger) {
	ticker := time.NewTicker(time.Hour)
	defer ticker.Stop()

	for {
		recomputeTick(ctx, db, logger)
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

func recomputeTick(ctx context.Context, db *gorm.DB, logger *logrus.Logger) {
	var businesses []models.Business
	listCtx := utils.SetSkipTenantScopeInContext(ctx, true)
	if err := db.WithContext(listCtx).Find(&businesses).Error; err != nil {
		config.LogError(logger, "recompute", "recomputeTick", "list businesses", nil, err)
		return
	}
	now := time.Now().UTC()
	today := now.Format("2006-01-02")

	for i := range businesses {
		select {
		case <-ctx.Done():
			return
		default:
		}
		businessId := businesses[i].ID.String()

		skip := false
		err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			s, err := workflow.BeginIdempotency(tx, businessId, recomputeScope, today)
			skip = s
			return err
		})
		if errors.Is(err, workflow.ErrIdempotencyInProgress) {
			continue
		}
		if err != nil {
			config.LogError(logger, "recompute", "recomputeTick", "begin idempotency", businessId, err)
			continue
		}
		if skip {
			continue
		}

		bizCtx := utils.SetBusinessIdInContext(ctx, businessId)
		updated, runErr := models.RecomputeDaysOverdueForBusiness(bizCtx, db, now, businesses[i].Timezone)
		if runErr != nil {
			config.LogError(logger, "recompute", "recomputeTick", "recompute days overdue", businessId, runErr)
			_ = workflow.MarkIdempotencyFailed(db.WithContext(ctx), businessId, recomputeScope, today, runErr)
			continue
		}
		_ = workflow.MarkIdempotencySucceeded(db.WithContext(ctx), businessId, recomputeScope, today, "")
		if updated > 0 {
			logger.WithFields(logrus.Fields{
				"business_id": businessId,
				"updated":     updated,
			}).Info("days overdue recomputed")
		}
	}
}
