package workflow

import (
	"context"
	"errors"
	"time"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"bitbucket.org/mmdatafocus/reminders_backend/models"
	"bitbucket.org/mmdatafocus/reminders_backend/utils"
)

const generateLockType = "reminder_generate"

// autoSendGracePeriod is the review window before an auto-approved stage 1
// draft is sent unattended.
const autoSendGracePeriod = 24 * time.Hour

// DraftEngine drives one generation run per business: resolve eligible
// invoices, compute stage and tone, generate content, persist drafts. The
// generator and clock are injected so runs are deterministic under test.
type DraftEngine struct {
	DB        *gorm.DB
	Logger    *logrus.Logger
	Generator Generator
	Now       func() time.Time

	// GenTimeout bounds each generator call so one unresponsive invoice
	// cannot stall the batch.
	GenTimeout time.Duration
	// LockTTL covers the longest plausible run under the per-business lock.
	LockTTL time.Duration
}

func NewDraftEngine(db *gorm.DB, logger *logrus.Logger, generator Generator) *DraftEngine {
	return &DraftEngine{
		DB:         db,
		Logger:     logger,
		Generator:  generator,
		Now:        time.Now,
		GenTimeout: 30 * time.Second,
		LockTTL:    5 * time.Minute,
	}
}

// GenerateDrafts runs one generation pass for the business. Scheduled runs
// (manualTrigger=false) are gated on the business having opted in to
// auto-send; manual runs always proceed. Returns the drafts created this run.
//
// Re-running is safe: eligibility excludes invoices with an active draft, and
// the unique index on reminder_drafts.active_key closes the read-write race
// if two runs ever overlap the lock.
func (e *DraftEngine) GenerateDrafts(ctx context.Context, businessId string, maxDrafts int, manualTrigger bool) ([]models.ReminderDraft, error) {
	if e.DB == nil {
		return nil, errors.New("draft engine has no database handle")
	}
	ctx = utils.SetBusinessIdInContext(ctx, businessId)

	var created []models.ReminderDraft
	err := utils.BusinessLock(ctx, businessId, generateLockType, e.LockTTL, "workflow", "GenerateDrafts", func(ctx context.Context) error {
		drafts, err := e.generateLocked(ctx, businessId, maxDrafts, manualTrigger)
		created = drafts
		return err
	})
	return created, err
}

func (e *DraftEngine) generateLocked(ctx context.Context, businessId string, maxDrafts int, manualTrigger bool) ([]models.ReminderDraft, error) {
	now := e.now()

	business, err := models.GetBusinessById(ctx, e.DB, businessId)
	if err != nil {
		return nil, err
	}

	// Settings are snapshotted here; a concurrent settings update takes
	// effect from the next run.
	settings, err := models.GetOrCreateReminderSettings(ctx, e.DB)
	if err != nil {
		return nil, err
	}
	if !scheduledRunAllowed(settings, manualTrigger) {
		return nil, nil
	}

	invoices, err := EligibleInvoices(ctx, e.DB, now, business.Timezone, maxDrafts)
	if err != nil {
		return nil, err
	}
	if len(invoices) == 0 {
		return nil, nil
	}

	contentGen := NewContentGenerator(e.Generator, e.Logger)

	var pending []models.ReminderDraft
	for i := range invoices {
		draft, err := e.buildDraft(ctx, &invoices[i], business, settings, contentGen, now)
		if err != nil {
			// One bad invoice must not abort the batch; it stays eligible
			// for the next run.
			logRunError(e.Logger, "GenerateDrafts", invoices[i].ID, err)
			continue
		}
		pending = append(pending, *draft)

		select {
		case <-ctx.Done():
			return e.persistDrafts(ctx, pending)
		default:
		}
	}

	return e.persistDrafts(ctx, pending)
}

func (e *DraftEngine) buildDraft(ctx context.Context, invoice *models.Invoice, business *models.Business, settings *models.ReminderSettings, contentGen *ContentGenerator, now time.Time) (*models.ReminderDraft, error) {
	daysOverdue := invoice.DaysOverdueAsOf(now, business.Timezone)
	stage := StageFor(daysOverdue, settings)
	tone := ToneForStage(stage)

	priorSent, err := CountSentReminders(ctx, e.DB, invoice.ID)
	if err != nil {
		return nil, err
	}

	client := invoice.Client
	if client == nil {
		client, err = models.GetClientById(ctx, e.DB, invoice.ClientId)
		if err != nil {
			return nil, err
		}
	}

	req := GenerationRequest{
		BusinessName:  business.Name,
		SenderName:    settings.SenderName,
		ClientName:    client.Name,
		CompanyName:   client.CompanyName,
		ClientNotes:   client.Notes,
		InvoiceNumber: invoice.InvoiceNumber,
		Amount:        invoice.Amount,
		Currency:      invoice.Currency,
		DueDate:       invoice.DueDate,
		DaysOverdue:   daysOverdue,
		Stage:         stage,
		Tone:          tone,
		PriorSent:     priorSent,
	}

	genCtx := ctx
	if e.GenTimeout > 0 {
		var cancel context.CancelFunc
		genCtx, cancel = context.WithTimeout(ctx, e.GenTimeout)
		defer cancel()
	}
	content := contentGen.Generate(genCtx, req)

	draft := models.ReminderDraft{
		BusinessId: invoice.BusinessId,
		InvoiceId:  invoice.ID,
		ClientId:   invoice.ClientId,
		Stage:      stage,
		Tone:       tone,
		Subject:    content.Subject,
		Body:       content.Body,
		Status:     models.ReminderStatusPending,
		Source:     content.Source,
	}

	applyAutoSchedule(&draft, settings, now)

	return &draft, nil
}

// scheduledRunAllowed gates automatic runs on the business opting in to
// auto-send. Manual runs always proceed.
func scheduledRunAllowed(settings *models.ReminderSettings, manualTrigger bool) bool {
	return manualTrigger || settings.AutoSendEnabled
}

// applyAutoSchedule implements the auto-schedule carve-out: stage 1 only, and
// only when the business has opted in to both flags. Stages 2-4 always
// require manual approval; that ceiling is not configurable.
func applyAutoSchedule(draft *models.ReminderDraft, settings *models.ReminderSettings, now time.Time) {
	if draft.Stage != 1 || !settings.AutoSendEnabled || !settings.AutoApproveStage1 {
		return
	}
	sendAt := now.Add(autoSendGracePeriod)
	draft.Status = models.ReminderStatusScheduled
	draft.AutoSendAt = &sendAt
	draft.ApprovedAt = &now
	draft.ApprovedBy = "auto"
}

// persistDrafts writes the run's drafts in one transaction, with one audit
// event per draft. An insert that loses the active-key uniqueness race is
// dropped and the rest of the batch carries on.
func (e *DraftEngine) persistDrafts(ctx context.Context, drafts []models.ReminderDraft) ([]models.ReminderDraft, error) {
	if len(drafts) == 0 {
		return nil, nil
	}
	var created []models.ReminderDraft
	err := e.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for i := range drafts {
			if err := tx.Create(&drafts[i]).Error; err != nil {
				if isDuplicateKeyErr(err) {
					logRunError(e.Logger, "persistDrafts", drafts[i].InvoiceId, err)
					continue
				}
				return err
			}
			payload := map[string]interface{}{
				"draft_id":   drafts[i].ID,
				"invoice_id": drafts[i].InvoiceId,
				"stage":      drafts[i].Stage,
				"tone":       drafts[i].Tone,
				"status":     drafts[i].Status,
				"source":     drafts[i].Source,
			}
			if err := models.PublishAudit(ctx, tx, models.AuditActionDraftGenerated, "reminder_draft", drafts[i].ID, payload); err != nil {
				return err
			}
			created = append(created, drafts[i])
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}

func (e *DraftEngine) now() time.Time {
	if e.Now != nil {
		return e.Now().UTC()
	}
	return time.Now().UTC()
}

func logRunError(logger *logrus.Logger, funcName, referenceId string, err error) {
	if logger == nil {
		return
	}
	logger.WithFields(logrus.Fields{
		"module":       "workflow",
		"funcName":     funcName,
		"reference_id": referenceId,
	}).Error(err.Error())
}
