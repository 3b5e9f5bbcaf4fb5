package workflow

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"bitbucket.org/mmdatafocus/reminders_backend/models"
)

// Sender delivers one rendered reminder. Implemented by the SMTP mailer;
// tests substitute fakes.
type Sender interface {
	Send(ctx context.Context, to, subject, body string) error
}

var ErrClientHasNoEmail = errors.New("client has no email address")

// SendDraft delivers an approved or scheduled draft and records the outcome.
// Delivery failure marks the draft failed and is returned to the caller; the
// draft can be regenerated on a later run since failed is not an active
// status.
func SendDraft(ctx context.Context, db *gorm.DB, sender Sender, draft *models.ReminderDraft, now time.Time) error {
	// Gate before anything leaves the building; MarkDraftSent re-checks
	// inside the transaction but by then the mail is gone.
	switch draft.Status {
	case models.ReminderStatusApproved, models.ReminderStatusScheduled:
	default:
		return fmt.Errorf("%w: cannot send a %s draft", models.ErrInvalidDraftTransition, draft.Status)
	}

	client := draft.Client
	if client == nil {
		var err error
		client, err = models.GetClientById(ctx, db, draft.ClientId)
		if err != nil {
			return err
		}
	}
	if client.Email == "" {
		_ = markFailed(ctx, db, draft, ErrClientHasNoEmail.Error())
		return ErrClientHasNoEmail
	}

	if err := sender.Send(ctx, client.Email, draft.Subject, draft.Body); err != nil {
		_ = markFailed(ctx, db, draft, err.Error())
		return err
	}

	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := models.MarkDraftSent(ctx, tx, draft, now); err != nil {
			return err
		}
		payload := map[string]interface{}{
			"draft_id":   draft.ID,
			"invoice_id": draft.InvoiceId,
			"stage":      draft.Stage,
			"to":         client.Email,
		}
		return models.PublishAudit(ctx, tx, models.AuditActionDraftSent, "reminder_draft", draft.ID, payload)
	})
}

func markFailed(ctx context.Context, db *gorm.DB, draft *models.ReminderDraft, reason string) error {
	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := models.MarkDraftFailed(ctx, tx, draft, reason); err != nil {
			return err
		}
		payload := map[string]interface{}{
			"draft_id":   draft.ID,
			"invoice_id": draft.InvoiceId,
			"reason":     reason,
		}
		return models.PublishAudit(ctx, tx, models.AuditActionDraftFailed, "reminder_draft", draft.ID, payload)
	})
}
