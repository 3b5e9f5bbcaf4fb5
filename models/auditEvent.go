package models

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"bitbucket.org/mmdatafocus/reminders_backend/config"
	"bitbucket.org/mmdatafocus/reminders_backend/utils"
)

// AuditEventRecord is the transactional outbox for audit events. Rows are
// inserted inside the same transaction as the state change they describe and
// published to Pub/Sub by the audit dispatcher afterwards.
type AuditEventRecord struct {
	ID              int        `gorm:"primaryKey" json:"id"`
	EventId         string     `gorm:"type:char(36);not null;uniqueIndex" json:"eventId"`
	BusinessId      string     `gorm:"type:char(36);not null;index" json:"businessId"`
	Action          string     `gorm:"size:50;not null" json:"action"`
	ReferenceType   string     `gorm:"size:50;not null" json:"referenceType"`
	ReferenceId     string     `gorm:"size:100;not null" json:"referenceId"`
	Payload         string     `gorm:"type:text" json:"payload"`
	CorrelationId   string     `gorm:"size:100" json:"correlationId"`
	PublishStatus   string     `gorm:"size:20;not null;default:PENDING;index" json:"publishStatus"`
	PublishAttempts int        `gorm:"default:0" json:"publishAttempts"`
	NextAttemptAt   *time.Time `gorm:"index" json:"nextAttemptAt"`
	LockedAt        *time.Time `json:"lockedAt"`
	LockedBy        string     `gorm:"size:100" json:"lockedBy"`
	LastError       string     `gorm:"size:500" json:"lastError"`
	PublishedAt     *time.Time `json:"publishedAt"`
	PubSubMessageId string     `gorm:"size:100" json:"pubSubMessageId"`
	CreatedAt       time.Time  `json:"createdAt"`
	UpdatedAt       time.Time  `json:"updatedAt"`
}

func (AuditEventRecord) TableName() string {
	return "audit_event_records"
}

// PublishAudit queues an audit event in the caller's transaction. The payload
// is marshalled here so a bad payload fails the whole transaction rather than
// poisoning the dispatcher later.
func PublishAudit(ctx context.Context, tx *gorm.DB, action, referenceType, referenceId string, payload interface{}) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	businessId, _ := utils.GetBusinessIdFromContext(ctx)
	correlationId, _ := utils.GetCorrelationIdFromContext(ctx)
	record := AuditEventRecord{
		EventId:       uuid.NewString(),
		BusinessId:    businessId,
		Action:        action,
		ReferenceType: referenceType,
		ReferenceId:   referenceId,
		Payload:       string(body),
		CorrelationId: correlationId,
		PublishStatus: OutboxPublishStatusPending,
	}
	return tx.WithContext(ctx).Create(&record).Error
}

func (r *AuditEventRecord) ConvertToAuditMessage() config.AuditMessage {
	return config.AuditMessage{
		ID:            r.ID,
		BusinessId:    r.BusinessId,
		OccurredAt:    r.CreatedAt,
		Action:        r.Action,
		ReferenceId:   r.ReferenceId,
		ReferenceType: r.ReferenceType,
		Payload:       []byte(r.Payload),
		CorrelationId: r.CorrelationId,
	}
}
