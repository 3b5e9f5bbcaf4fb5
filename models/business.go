package models

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"bitbucket.org/mmdatafocus/reminders_backend/utils"
)

type Business struct {
	ID                 uuid.UUID          `gorm:"primaryKey;type:char(36)" json:"id"`
	Name               string             `gorm:"size:255;not null" json:"name"`
	Email              string             `gorm:"size:255" json:"email"`
	Industry           string             `gorm:"size:100" json:"industry"`
	Timezone           string             `gorm:"size:64;default:UTC" json:"timezone"`
	Currency           string             `gorm:"size:3;default:USD" json:"currency"`
	SubscriptionStatus SubscriptionStatus `gorm:"size:20;default:active" json:"subscriptionStatus"`
	CreatedAt          time.Time          `json:"createdAt"`
	UpdatedAt          time.Time          `json:"updatedAt"`
}

func (Business) TableName() string {
	return "businesses"
}

func (b *Business) BeforeCreate(tx *gorm.DB) error {
	if b.ID == uuid.Nil {
		b.ID = uuid.New()
	}
	return nil
}

func GetBusinessById(ctx context.Context, db *gorm.DB, businessId string) (*Business, error) {
	var business Business
	err := db.WithContext(ctx).Where("id = ?", businessId).First(&business).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, utils.ErrorRecordNotFound
	}
	if err != nil {
		return nil, err
	}
	return &business, nil
}

// ListActiveBusinessIds returns the businesses the reminder scheduler should
// walk on each tick. Cancelled subscriptions are skipped.
func ListActiveBusinessIds(ctx context.Context, db *gorm.DB) ([]string, error) {
	var ids []string
	err := db.WithContext(ctx).
		Model(&Business{}).
		Where("subscription_status <> ?", SubscriptionStatusCancelled).
		Order("id").
		Pluck("id", &ids).Error
	if err != nil {
		return nil, err
	}
	return ids, nil
}
