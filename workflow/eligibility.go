package workflow

import (
	"context"
	"time"

	"gorm.io/gorm"

	"bitbucket.org/mmdatafocus/reminders_backend/models"
	"bitbucket.org/mmdatafocus/reminders_backend/utils"
)

// EligibleInvoices resolves the invoices a generation run may draft for:
// unpaid, due strictly before today, client accepts reminders and is not VIP,
// and no draft currently active. Eligibility is recomputed fresh on every
// run; nothing is cached between runs.
func EligibleInvoices(ctx context.Context, db *gorm.DB, now time.Time, timezone string, limit int) ([]models.Invoice, error) {
	today, err := utils.ConvertToDate(now, timezone)
	if err != nil {
		today, _ = utils.ConvertToDate(now, "UTC")
	}

	activeDrafts := db.Model(&models.ReminderDraft{}).
		Select("invoice_id").
		Where("status IN ?", models.ActiveReminderStatuses)

	query := db.WithContext(ctx).
		Preload("Client").
		Joins("JOIN clients ON clients.id = invoices.client_id").
		Where("invoices.status = ?", models.InvoiceStatusUnpaid).
		Where("invoices.due_date < ?", today).
		Where("clients.reminders_enabled = ?", true).
		Where("clients.sensitivity <> ?", models.SensitivityVip).
		Where("invoices.id NOT IN (?)", activeDrafts).
		Order("invoices.due_date ASC, invoices.id ASC")
	if limit > 0 {
		query = query.Limit(limit)
	}

	var invoices []models.Invoice
	if err := query.Find(&invoices).Error; err != nil {
		return nil, err
	}
	return invoices, nil
}

// CountSentReminders returns how many reminders have already gone out for the
// invoice. Feeds the generator context only; it does not gate eligibility.
func CountSentReminders(ctx context.Context, db *gorm.DB, invoiceId string) (int, error) {
	var count int64
	err := db.WithContext(ctx).Model(&models.ReminderDraft{}).
		Where("invoice_id = ? AND status = ?", invoiceId, models.ReminderStatusSent).
		Count(&count).Error
	if err != nil {
		return 0, err
	}
	return int(count), nil
}
