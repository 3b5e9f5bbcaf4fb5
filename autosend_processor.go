package main

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"bitbucket.org/mmdatafocus/reminders_backend/config"
	"bitbucket.org/mmdatafocus/reminders_backend/models"
	"bitbucket.org/mmdatafocus/reminders_backend/utils"
	"bitbucket.org/mmdatafocus/reminders_backend/workflow"
)

const autoSendBatchSize = 25

// runAutoSendProcessor delivers scheduled drafts whose review grace period
// has elapsed. Only stage 1 drafts ever reach the scheduled state without a
// human approval, so this loop is the unattended half of the auto-send
// carve-out.
func runAutoSendProcessor(ctx context.Context, db *gorm.DB, logger *logrus.Logger, sender workflow.Sender) {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()

	for {
		autoSendTick(ctx, db, logger, sender)
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

func autoSendTick(ctx context.Context, db *gorm.DB, logger *logrus.Logger, sender workflow.Sender) {
	now := time.Now().UTC()
	// The due-draft scan spans all businesses.
	listCtx := utils.SetSkipTenantScopeInContext(ctx, true)
	due, err := models.ListAutoSendDue(listCtx, db, now, autoSendBatchSize)
	if err != nil {
		config.LogError(logger, "auto_send", "autoSendTick", "list due drafts", nil, err)
		return
	}

	for i := range due {
		select {
		case <-ctx.Done():
			return
		default:
		}
		draft := &due[i]
		bizCtx := utils.SetBusinessIdInContext(ctx, draft.BusinessId)
		if err := workflow.SendDraft(bizCtx, db, sender, draft, time.Now().UTC()); err != nil {
			config.LogError(logger, "auto_send", "autoSendTick", "send draft", draft.ID, err)
			continue
		}
		logger.WithFields(logrus.Fields{
			"business_id": draft.BusinessId,
			"draft_id":    draft.ID,
			"invoice_id":  draft.InvoiceId,
			"stage":       draft.Stage,
		}).Info("auto-send delivered draft")
	}
}
