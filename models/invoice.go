package models

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"bitbucket.org/mmdatafocus/reminders_backend/utils"
)

type Invoice struct {
	ID             string          `gorm:"primaryKey;type:char(36)" json:"id"`
	BusinessId     string          `gorm:"type:char(36);not null;index" json:"businessId"`
	ClientId       string          `gorm:"type:char(36);not null;index" json:"clientId"`
	InvoiceNumber  string          `gorm:"size:50;not null" json:"invoiceNumber"`
	Amount         decimal.Decimal `gorm:"type:decimal(18,2);not null" json:"amount"`
	Currency       string          `gorm:"size:3;default:USD" json:"currency"`
	IssueDate      time.Time       `gorm:"type:date;not null" json:"issueDate"`
	DueDate        time.Time       `gorm:"type:date;not null;index" json:"dueDate"`
	Status         InvoiceStatus   `gorm:"size:20;default:unpaid;index" json:"status"`
	DaysOverdue    int             `gorm:"default:0" json:"daysOverdue"`
	ExternalSource ExternalSource  `gorm:"size:20;default:manual" json:"externalSource"`
	ExternalId     string          `gorm:"size:100" json:"externalId"`
	PaidAt         *time.Time      `json:"paidAt"`
	CreatedAt      time.Time       `json:"createdAt"`
	UpdatedAt      time.Time       `json:"updatedAt"`

	Client *Client `gorm:"foreignKey:ClientId" json:"client,omitempty"`
}

func (Invoice) TableName() string {
	return "invoices"
}

func (inv *Invoice) BeforeCreate(tx *gorm.DB) error {
	if inv.ID == "" {
		inv.ID = uuid.NewString()
	}
	return nil
}

// DaysOverdueAsOf returns whole calendar days past the due date in the given
// timezone. Invoices due today or in the future report zero.
func (inv *Invoice) DaysOverdueAsOf(now time.Time, timezone string) int {
	today, err := utils.ConvertToDate(now, timezone)
	if err != nil {
		today, _ = utils.ConvertToDate(now, "UTC")
	}
	due, err := utils.ConvertToDate(inv.DueDate, timezone)
	if err != nil {
		due, _ = utils.ConvertToDate(inv.DueDate, "UTC")
	}
	days := int(today.Sub(due).Hours() / 24)
	if days < 0 {
		return 0
	}
	return days
}

type NewInvoice struct {
	ClientId       string          `json:"clientId" binding:"required"`
	InvoiceNumber  string          `json:"invoiceNumber" binding:"required"`
	Amount         decimal.Decimal `json:"amount" binding:"required"`
	Currency       string          `json:"currency"`
	IssueDate      time.Time       `json:"issueDate" binding:"required"`
	DueDate        time.Time       `json:"dueDate" binding:"required"`
	ExternalSource ExternalSource  `json:"externalSource"`
	ExternalId     string          `json:"externalId"`
}

func (input *NewInvoice) validate() error {
	if strings.TrimSpace(input.InvoiceNumber) == "" {
		return errors.New("invoice number is required")
	}
	if input.Amount.LessThanOrEqual(decimal.Zero) {
		return errors.New("invoice amount must be positive")
	}
	if input.DueDate.Before(input.IssueDate) {
		return errors.New("due date cannot precede issue date")
	}
	switch input.ExternalSource {
	case "", ExternalSourceManual, ExternalSourceStripe, ExternalSourceXero:
	default:
		return errors.New("invalid external source")
	}
	return nil
}

func CreateInvoice(ctx context.Context, db *gorm.DB, input NewInvoice) (*Invoice, error) {
	if err := input.validate(); err != nil {
		return nil, err
	}
	businessId, _ := utils.GetBusinessIdFromContext(ctx)
	if err := utils.ValidateResourceId[Client](ctx, businessId, input.ClientId); err != nil {
		return nil, err
	}
	source := input.ExternalSource
	if source == "" {
		source = ExternalSourceManual
	}
	currency := input.Currency
	if currency == "" {
		currency = "USD"
	}
	invoice := Invoice{
		BusinessId:     businessId,
		ClientId:       input.ClientId,
		InvoiceNumber:  strings.TrimSpace(input.InvoiceNumber),
		Amount:         input.Amount,
		Currency:       currency,
		IssueDate:      input.IssueDate,
		DueDate:        input.DueDate,
		Status:         InvoiceStatusUnpaid,
		ExternalSource: source,
		ExternalId:     input.ExternalId,
	}
	if err := db.WithContext(ctx).Create(&invoice).Error; err != nil {
		return nil, err
	}
	return &invoice, nil
}

func GetInvoiceById(ctx context.Context, db *gorm.DB, invoiceId string) (*Invoice, error) {
	var invoice Invoice
	err := db.WithContext(ctx).Preload("Client").Where("id = ?", invoiceId).First(&invoice).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, utils.ErrorRecordNotFound
	}
	if err != nil {
		return nil, err
	}
	return &invoice, nil
}

// MarkInvoicePaid settles an invoice and clears its overdue counter. Any
// active reminder draft for the invoice becomes ineligible on the next
// generation pass; it is not deleted here.
func MarkInvoicePaid(ctx context.Context, db *gorm.DB, invoiceId string, paidAt time.Time) (*Invoice, error) {
	invoice, err := GetInvoiceById(ctx, db, invoiceId)
	if err != nil {
		return nil, err
	}
	if invoice.Status == InvoiceStatusPaid {
		return invoice, nil
	}
	updates := map[string]interface{}{
		"status":       InvoiceStatusPaid,
		"days_overdue": 0,
		"paid_at":      paidAt,
	}
	if err := db.WithContext(ctx).Model(&Invoice{}).Where("id = ?", invoiceId).Updates(updates).Error; err != nil {
		return nil, err
	}
	return GetInvoiceById(ctx, db, invoiceId)
}

// RecomputeDaysOverdueForBusiness refreshes days_overdue on every unpaid
// invoice of the business in context. Returns the number of rows updated.
func RecomputeDaysOverdueForBusiness(ctx context.Context, db *gorm.DB, now time.Time, timezone string) (int, error) {
	var invoices []Invoice
	err := db.WithContext(ctx).
		Where("status = ?", InvoiceStatusUnpaid).
		Find(&invoices).Error
	if err != nil {
		return 0, err
	}
	updated := 0
	for i := range invoices {
		days := invoices[i].DaysOverdueAsOf(now, timezone)
		if days == invoices[i].DaysOverdue {
			continue
		}
		err := db.WithContext(ctx).Model(&Invoice{}).
			Where("id = ?", invoices[i].ID).
			Update("days_overdue", days).Error
		if err != nil {
			return updated, err
		}
		updated++
	}
	return updated, nil
}

// ListOverdueInvoices returns unpaid invoices at or past the first escalation
// threshold, oldest due date first, with their clients preloaded.
func ListOverdueInvoices(ctx context.Context, db *gorm.DB, minDaysOverdue int) ([]Invoice, error) {
	var invoices []Invoice
	err := db.WithContext(ctx).
		Preload("Client").
		Where("status = ? AND days_overdue >= ?", InvoiceStatusUnpaid, minDaysOverdue).
		Order("due_date ASC, id ASC").
		Find(&invoices).Error
	if err != nil {
		return nil, err
	}
	return invoices, nil
}
