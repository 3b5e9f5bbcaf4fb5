package models

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"bitbucket.org/mmdatafocus/reminders_backend/utils"
)

var ErrInvalidDraftTransition = errors.New("invalid draft state transition")

// ReminderDraft is one escalation email awaiting review or dispatch. The
// one-active-draft-per-invoice rule is enforced in the database: active_key
// mirrors invoice_id while the draft is in an active status and is NULL once
// the draft reaches sent or failed, so the unique index only ever sees one
// active row per invoice.
type ReminderDraft struct {
	ID            string          `gorm:"primaryKey;type:char(36)" json:"id"`
	BusinessId    string          `gorm:"type:char(36);not null;index" json:"businessId"`
	InvoiceId     string          `gorm:"type:char(36);not null;index" json:"invoiceId"`
	ClientId      string          `gorm:"type:char(36);not null" json:"clientId"`
	Stage         int             `gorm:"not null" json:"stage"`
	Tone          ReminderTone    `gorm:"size:20;not null" json:"tone"`
	Subject       string          `gorm:"size:500;not null" json:"subject"`
	Body          string          `gorm:"type:text;not null" json:"body"`
	Status        ReminderStatus  `gorm:"size:20;not null;default:pending;index" json:"status"`
	Source        GeneratorSource `gorm:"size:20;not null" json:"source"`
	ActiveKey     *string         `gorm:"type:char(36);uniqueIndex" json:"-"`
	AutoSendAt    *time.Time      `json:"autoSendAt"`
	SnoozedUntil  *time.Time      `json:"snoozedUntil"`
	ApprovedAt    *time.Time      `json:"approvedAt"`
	ApprovedBy    string          `gorm:"size:255" json:"approvedBy"`
	EditedAt      *time.Time      `json:"editedAt"`
	SentAt        *time.Time      `json:"sentAt"`
	FailureReason string          `gorm:"size:500" json:"failureReason"`
	CreatedAt     time.Time       `json:"createdAt"`
	UpdatedAt     time.Time       `json:"updatedAt"`

	Invoice *Invoice `gorm:"foreignKey:InvoiceId" json:"invoice,omitempty"`
	Client  *Client  `gorm:"foreignKey:ClientId" json:"client,omitempty"`
}

func (ReminderDraft) TableName() string {
	return "reminder_drafts"
}

func (d *ReminderDraft) BeforeCreate(tx *gorm.DB) error {
	if d.ID == "" {
		d.ID = uuid.NewString()
	}
	d.syncActiveKey()
	return nil
}

func (d *ReminderDraft) BeforeUpdate(tx *gorm.DB) error {
	d.syncActiveKey()
	return nil
}

func (d *ReminderDraft) syncActiveKey() {
	if d.Status.IsActive() {
		key := d.InvoiceId
		d.ActiveKey = &key
	} else {
		d.ActiveKey = nil
	}
}

func ListDrafts(ctx context.Context, db *gorm.DB, status *ReminderStatus) ([]ReminderDraft, error) {
	query := db.WithContext(ctx).Preload("Invoice").Preload("Client")
	if status != nil {
		query = query.Where("status = ?", *status)
	}
	var drafts []ReminderDraft
	if err := query.Order("created_at DESC, id DESC").Find(&drafts).Error; err != nil {
		return nil, err
	}
	return drafts, nil
}

func GetDraftById(ctx context.Context, db *gorm.DB, draftId string) (*ReminderDraft, error) {
	var draft ReminderDraft
	err := db.WithContext(ctx).Preload("Invoice").Preload("Client").
		Where("id = ?", draftId).First(&draft).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, utils.ErrorRecordNotFound
	}
	if err != nil {
		return nil, err
	}
	return &draft, nil
}

// HasActiveDraft reports whether the invoice already holds a draft in an
// active status. The unique index on active_key is the authoritative guard;
// this is the cheap pre-check callers use to skip work.
func HasActiveDraft(ctx context.Context, db *gorm.DB, invoiceId string) (bool, error) {
	var count int64
	err := db.WithContext(ctx).Model(&ReminderDraft{}).
		Where("invoice_id = ? AND status IN ?", invoiceId, ActiveReminderStatuses).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

func ApproveDraft(ctx context.Context, tx *gorm.DB, draft *ReminderDraft, approvedBy string, now time.Time) error {
	if draft.Status != ReminderStatusPending {
		return fmt.Errorf("%w: cannot approve a %s draft", ErrInvalidDraftTransition, draft.Status)
	}
	draft.Status = ReminderStatusApproved
	draft.ApprovedAt = &now
	draft.ApprovedBy = approvedBy
	return tx.WithContext(ctx).Save(draft).Error
}

func EditDraft(ctx context.Context, tx *gorm.DB, draft *ReminderDraft, subject, body string, now time.Time) error {
	switch draft.Status {
	case ReminderStatusPending, ReminderStatusApproved, ReminderStatusScheduled:
	default:
		return fmt.Errorf("%w: cannot edit a %s draft", ErrInvalidDraftTransition, draft.Status)
	}
	draft.Subject = subject
	draft.Body = body
	draft.EditedAt = &now
	// Edited content needs a fresh human sign-off. Pulling a scheduled
	// draft back to pending also cancels its pending auto-send.
	if draft.Status != ReminderStatusPending {
		draft.Status = ReminderStatusPending
		draft.ApprovedAt = nil
		draft.ApprovedBy = ""
		draft.AutoSendAt = nil
	}
	return tx.WithContext(ctx).Save(draft).Error
}

// SnoozeDraft defers a draft. While snoozed the auto-send processor skips it
// and the generation pass treats the invoice as already covered.
func SnoozeDraft(ctx context.Context, tx *gorm.DB, draft *ReminderDraft, until time.Time, now time.Time) error {
	if !draft.Status.IsActive() {
		return fmt.Errorf("%w: cannot snooze a %s draft", ErrInvalidDraftTransition, draft.Status)
	}
	if !until.After(now) {
		return errors.New("snooze time must be in the future")
	}
	draft.SnoozedUntil = &until
	return tx.WithContext(ctx).Save(draft).Error
}

func MarkDraftSent(ctx context.Context, tx *gorm.DB, draft *ReminderDraft, now time.Time) error {
	switch draft.Status {
	case ReminderStatusApproved, ReminderStatusScheduled:
	default:
		return fmt.Errorf("%w: cannot send a %s draft", ErrInvalidDraftTransition, draft.Status)
	}
	draft.Status = ReminderStatusSent
	draft.SentAt = &now
	draft.FailureReason = ""
	return tx.WithContext(ctx).Save(draft).Error
}

func MarkDraftFailed(ctx context.Context, tx *gorm.DB, draft *ReminderDraft, reason string) error {
	draft.Status = ReminderStatusFailed
	if len(reason) > 500 {
		reason = reason[:500]
	}
	draft.FailureReason = reason
	return tx.WithContext(ctx).Save(draft).Error
}

// DeleteDraft removes an active draft. Sent drafts are immutable history and
// cannot be deleted.
func DeleteDraft(ctx context.Context, tx *gorm.DB, draft *ReminderDraft) error {
	if draft.Status == ReminderStatusSent {
		return fmt.Errorf("%w: sent drafts cannot be deleted", ErrInvalidDraftTransition)
	}
	return tx.WithContext(ctx).Delete(&ReminderDraft{}, "id = ?", draft.ID).Error
}

// ListAutoSendDue returns scheduled drafts whose auto_send_at has passed and
// that are not snoozed past now, oldest first.
func ListAutoSendDue(ctx context.Context, db *gorm.DB, now time.Time, limit int) ([]ReminderDraft, error) {
	var drafts []ReminderDraft
	err := db.WithContext(ctx).Preload("Invoice").Preload("Client").
		Where("status = ? AND auto_send_at IS NOT NULL AND auto_send_at <= ?", ReminderStatusScheduled, now).
		Where("snoozed_until IS NULL OR snoozed_until <= ?", now).
		Order("auto_send_at ASC").
		Limit(limit).
		Find(&drafts).Error
	if err != nil {
		return nil, err
	}
	return drafts, nil
}
