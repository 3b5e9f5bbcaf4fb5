package models

import (
	"context"
	"errors"
	"time"

	"github.com/go-playground/validator/v10"
	"gorm.io/gorm"

	"bitbucket.org/mmdatafocus/reminders_backend/utils"
)

// Default escalation thresholds in days overdue. Stage N applies from its
// threshold up to the next one; stage 4 is open ended.
const (
	DefaultStage1Days = 7
	DefaultStage2Days = 14
	DefaultStage3Days = 30
	DefaultStage4Days = 60
)

type ReminderSettings struct {
	ID                int       `gorm:"primaryKey" json:"id"`
	BusinessId        string    `gorm:"type:char(36);not null;uniqueIndex" json:"businessId"`
	AutoSendEnabled   bool      `gorm:"default:false" json:"autoSendEnabled"`
	AutoApproveStage1 bool      `gorm:"default:false" json:"autoApproveStage1"`
	Stage1Days        int       `gorm:"default:7" json:"stage1Days"`
	Stage2Days        int       `gorm:"default:14" json:"stage2Days"`
	Stage3Days        int       `gorm:"default:30" json:"stage3Days"`
	Stage4Days        int       `gorm:"default:60" json:"stage4Days"`
	SenderName        string    `gorm:"size:255" json:"senderName"`
	ReplyToEmail      string    `gorm:"size:255" json:"replyToEmail"`
	CreatedAt         time.Time `json:"createdAt"`
	UpdatedAt         time.Time `json:"updatedAt"`
}

func (ReminderSettings) TableName() string {
	return "reminder_settings"
}

// Thresholds returns the four stage thresholds in ascending order.
func (s *ReminderSettings) Thresholds() [4]int {
	return [4]int{s.Stage1Days, s.Stage2Days, s.Stage3Days, s.Stage4Days}
}

type UpdateReminderSettingsInput struct {
	AutoSendEnabled   *bool   `json:"autoSendEnabled"`
	AutoApproveStage1 *bool   `json:"autoApproveStage1"`
	Stage1Days        *int    `json:"stage1Days" validate:"omitempty,min=1,max=365"`
	Stage2Days        *int    `json:"stage2Days" validate:"omitempty,min=1,max=365"`
	Stage3Days        *int    `json:"stage3Days" validate:"omitempty,min=1,max=365"`
	Stage4Days        *int    `json:"stage4Days" validate:"omitempty,min=1,max=365"`
	SenderName        *string `json:"senderName" validate:"omitempty,max=255"`
	ReplyToEmail      *string `json:"replyToEmail" validate:"omitempty,email"`
}

var settingsValidator = validator.New()

func (input *UpdateReminderSettingsInput) validate(current *ReminderSettings) error {
	if err := settingsValidator.Struct(input); err != nil {
		return err
	}
	next := current.Thresholds()
	if input.Stage1Days != nil {
		next[0] = *input.Stage1Days
	}
	if input.Stage2Days != nil {
		next[1] = *input.Stage2Days
	}
	if input.Stage3Days != nil {
		next[2] = *input.Stage3Days
	}
	if input.Stage4Days != nil {
		next[3] = *input.Stage4Days
	}
	for i := 1; i < len(next); i++ {
		if next[i] <= next[i-1] {
			return errors.New("escalation thresholds must be strictly ascending")
		}
	}
	return nil
}

// GetOrCreateReminderSettings returns the settings row for the business in
// context, creating one with defaults on first access.
func GetOrCreateReminderSettings(ctx context.Context, db *gorm.DB) (*ReminderSettings, error) {
	businessId, _ := utils.GetBusinessIdFromContext(ctx)
	var settings ReminderSettings
	err := db.WithContext(ctx).Where("business_id = ?", businessId).First(&settings).Error
	if err == nil {
		return &settings, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}
	settings = ReminderSettings{
		BusinessId: businessId,
		Stage1Days: DefaultStage1Days,
		Stage2Days: DefaultStage2Days,
		Stage3Days: DefaultStage3Days,
		Stage4Days: DefaultStage4Days,
	}
	if err := db.WithContext(ctx).Create(&settings).Error; err != nil {
		// Lost a create race; the winner's row is fine.
		var existing ReminderSettings
		if lookupErr := db.WithContext(ctx).Where("business_id = ?", businessId).First(&existing).Error; lookupErr == nil {
			return &existing, nil
		}
		return nil, err
	}
	return &settings, nil
}

// UpdateReminderSettings applies a partial update. Threshold changes are
// validated as a whole against the resulting ordering before anything is
// written.
func UpdateReminderSettings(ctx context.Context, db *gorm.DB, input UpdateReminderSettingsInput) (*ReminderSettings, error) {
	settings, err := GetOrCreateReminderSettings(ctx, db)
	if err != nil {
		return nil, err
	}
	if err := input.validate(settings); err != nil {
		return nil, err
	}
	updates := map[string]interface{}{}
	if input.AutoSendEnabled != nil {
		updates["auto_send_enabled"] = *input.AutoSendEnabled
	}
	if input.AutoApproveStage1 != nil {
		updates["auto_approve_stage1"] = *input.AutoApproveStage1
	}
	if input.Stage1Days != nil {
		updates["stage1_days"] = *input.Stage1Days
	}
	if input.Stage2Days != nil {
		updates["stage2_days"] = *input.Stage2Days
	}
	if input.Stage3Days != nil {
		updates["stage3_days"] = *input.Stage3Days
	}
	if input.Stage4Days != nil {
		updates["stage4_days"] = *input.Stage4Days
	}
	if input.SenderName != nil {
		updates["sender_name"] = *input.SenderName
	}
	if input.ReplyToEmail != nil {
		updates["reply_to_email"] = *input.ReplyToEmail
	}
	if len(updates) == 0 {
		return settings, nil
	}
	err = db.WithContext(ctx).Model(&ReminderSettings{}).
		Where("id = ?", settings.ID).
		Updates(updates).Error
	if err != nil {
		return nil, err
	}
	return GetOrCreateReminderSettings(ctx, db)
}
