package models

import "errors"

type InvoiceStatus string

const (
	InvoiceStatusUnpaid InvoiceStatus = "unpaid"
	InvoiceStatusPaid   InvoiceStatus = "paid"
)

func ParseInvoiceStatus(s string) (InvoiceStatus, error) {
	switch s {
	case "unpaid":
		return InvoiceStatusUnpaid, nil
	case "paid":
		return InvoiceStatusPaid, nil
	default:
		return "", errors.New("invalid invoice status")
	}
}

type ExternalSource string

const (
	ExternalSourceManual ExternalSource = "manual"
	ExternalSourceStripe ExternalSource = "stripe"
	ExternalSourceXero   ExternalSource = "xero"
)

type SensitivityLevel string

const (
	SensitivityStandard SensitivityLevel = "standard"
	SensitivityVip      SensitivityLevel = "vip"
)

// ReminderStatus is the draft lifecycle state. A draft is "active" while it is
// pending, approved or scheduled; sent and failed are terminal for the
// active-draft uniqueness rule.
type ReminderStatus string

const (
	ReminderStatusPending   ReminderStatus = "pending"
	ReminderStatusApproved  ReminderStatus = "approved"
	ReminderStatusScheduled ReminderStatus = "scheduled"
	ReminderStatusSent      ReminderStatus = "sent"
	ReminderStatusFailed    ReminderStatus = "failed"
)

// ActiveReminderStatuses are the states counted by the one-active-draft rule.
var ActiveReminderStatuses = []ReminderStatus{
	ReminderStatusPending,
	ReminderStatusApproved,
	ReminderStatusScheduled,
}

func (s ReminderStatus) IsActive() bool {
	switch s {
	case ReminderStatusPending, ReminderStatusApproved, ReminderStatusScheduled:
		return true
	default:
		return false
	}
}

type ReminderTone string

const (
	ReminderToneFriendly     ReminderTone = "friendly"
	ReminderToneProfessional ReminderTone = "professional"
	ReminderToneFirm         ReminderTone = "firm"
	ReminderToneFormal       ReminderTone = "formal"
)

// GeneratorSource records whether draft content came from the AI generator or
// the deterministic fallback templates.
type GeneratorSource string

const (
	GeneratorSourceAI       GeneratorSource = "ai"
	GeneratorSourceFallback GeneratorSource = "fallback"
)

type SubscriptionStatus string

const (
	SubscriptionStatusActive    SubscriptionStatus = "active"
	SubscriptionStatusPastDue   SubscriptionStatus = "past_due"
	SubscriptionStatusCancelled SubscriptionStatus = "cancelled"
)

// Audit actions emitted through the transactional outbox.
const (
	AuditActionDraftGenerated = "draft_generated"
	AuditActionDraftApproved  = "draft_approved"
	AuditActionDraftEdited    = "draft_edited"
	AuditActionDraftSnoozed   = "draft_snoozed"
	AuditActionDraftSent      = "draft_sent"
	AuditActionDraftFailed    = "draft_failed"
	AuditActionDraftDeleted   = "draft_deleted"
	AuditActionSettingsUpdate = "settings_updated"
)

// Outbox publish states for audit events (dispatcher-side).
const (
	OutboxPublishStatusPending    = "PENDING"
	OutboxPublishStatusProcessing = "PROCESSING"
	OutboxPublishStatusSent       = "SENT"
	OutboxPublishStatusFailed     = "FAILED"
	OutboxPublishStatusDead       = "DEAD"
)

type IdempotencyStatus string

const (
	IdempotencyStatusStarted   IdempotencyStatus = "STARTED"
	IdempotencyStatusSucceeded IdempotencyStatus = "SUCCEEDED"
	IdempotencyStatusFailed    IdempotencyStatus = "FAILED"
)
