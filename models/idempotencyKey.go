package models

import "time"

// IdempotencyKey records one logical unit of work so retried runs can detect
// completed or in-flight executions. Scope + key is unique per business.
type IdempotencyKey struct {
	ID          int               `gorm:"primaryKey" json:"id"`
	BusinessId  string            `gorm:"type:char(36);not null;uniqueIndex:idx_idem_scope_key" json:"businessId"`
	Scope       string            `gorm:"size:50;not null;uniqueIndex:idx_idem_scope_key" json:"scope"`
	Key         string            `gorm:"size:150;not null;uniqueIndex:idx_idem_scope_key" json:"key"`
	Status      IdempotencyStatus `gorm:"size:20;not null;default:STARTED" json:"status"`
	ResultRef   string            `gorm:"size:100" json:"resultRef"`
	LastError   string            `gorm:"size:500" json:"lastError"`
	CompletedAt *time.Time        `json:"completedAt"`
	CreatedAt   time.Time         `json:"createdAt"`
	UpdatedAt   time.Time         `json:"updatedAt"`
}

func (IdempotencyKey) TableName() string {
	return "idempotency_keys"
}
