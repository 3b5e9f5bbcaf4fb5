package models

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"bitbucket.org/mmdatafocus/reminders_backend/utils"
)

type Client struct {
	ID          string           `gorm:"primaryKey;type:char(36)" json:"id"`
	BusinessId  string           `gorm:"type:char(36);not null;index" json:"businessId"`
	Name        string           `gorm:"size:255;not null" json:"name"`
	Email       string           `gorm:"size:255;not null" json:"email"`
	CompanyName string           `gorm:"size:255" json:"companyName"`
	Sensitivity SensitivityLevel `gorm:"size:20;default:standard" json:"sensitivity"`
	// RemindersEnabled gates automatic generation only; manual sends to the
	// client remain possible through the API.
	RemindersEnabled bool      `gorm:"default:true" json:"remindersEnabled"`
	Notes            string    `gorm:"type:text" json:"notes"`
	CreatedAt        time.Time `json:"createdAt"`
	UpdatedAt        time.Time `json:"updatedAt"`
}

func (Client) TableName() string {
	return "clients"
}

func (c *Client) BeforeCreate(tx *gorm.DB) error {
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	return nil
}

type NewClient struct {
	Name             string           `json:"name" binding:"required"`
	Email            string           `json:"email" binding:"required"`
	CompanyName      string           `json:"companyName"`
	Sensitivity      SensitivityLevel `json:"sensitivity"`
	RemindersEnabled *bool            `json:"remindersEnabled"`
	Notes            string           `json:"notes"`
}

func (input *NewClient) validate() error {
	if strings.TrimSpace(input.Name) == "" {
		return errors.New("client name is required")
	}
	if !utils.IsValidEmail(input.Email) {
		return errors.New("client email is invalid")
	}
	switch input.Sensitivity {
	case "", SensitivityStandard, SensitivityVip:
	default:
		return errors.New("invalid sensitivity level")
	}
	return nil
}

func CreateClient(ctx context.Context, db *gorm.DB, input NewClient) (*Client, error) {
	if err := input.validate(); err != nil {
		return nil, err
	}
	sensitivity := input.Sensitivity
	if sensitivity == "" {
		sensitivity = SensitivityStandard
	}
	businessId, _ := utils.GetBusinessIdFromContext(ctx)
	client := Client{
		BusinessId:       businessId,
		Name:             strings.TrimSpace(input.Name),
		Email:            strings.TrimSpace(input.Email),
		CompanyName:      strings.TrimSpace(input.CompanyName),
		Sensitivity:      sensitivity,
		RemindersEnabled: utils.DereferencePtr(input.RemindersEnabled, true),
		Notes:            input.Notes,
	}
	if err := db.WithContext(ctx).Create(&client).Error; err != nil {
		return nil, err
	}
	return &client, nil
}

func GetClientById(ctx context.Context, db *gorm.DB, clientId string) (*Client, error) {
	var client Client
	err := db.WithContext(ctx).Where("id = ?", clientId).First(&client).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, utils.ErrorRecordNotFound
	}
	if err != nil {
		return nil, err
	}
	return &client, nil
}
