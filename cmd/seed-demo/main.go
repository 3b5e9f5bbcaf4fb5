// seed-demo creates a demo business with a handful of clients and overdue
// invoices at different escalation stages, for local development.
//
// Usage:
//
//	DB_USER=... DB_PASSWORD=... go run ./cmd/seed-demo
package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"bitbucket.org/mmdatafocus/reminders_backend/config"
	"bitbucket.org/mmdatafocus/reminders_backend/models"
	"bitbucket.org/mmdatafocus/reminders_backend/utils"
)

func main() {
	config.ConnectDatabaseWithRetry()
	db := config.GetDB()
	if db == nil {
		fmt.Fprintln(os.Stderr, "database not initialized (config.GetDB returned nil). Set DB_* env vars.")
		os.Exit(1)
	}
	models.MigrateTable(db)

	ctx := context.Background()

	business := models.Business{
		Name:     "Acme Design Studio",
		Email:    "owner@acmedesign.example",
		Industry: "design services",
		Timezone: "UTC",
		Currency: "USD",
	}
	if err := db.WithContext(ctx).Create(&business).Error; err != nil {
		fmt.Fprintf(os.Stderr, "failed to create business: %v\n", err)
		os.Exit(1)
	}
	ctx = utils.SetBusinessIdInContext(ctx, business.ID.String())

	clients := []models.NewClient{
		{Name: "Jordan Lee", Email: "jordan@freshmart.example", CompanyName: "FreshMart", RemindersEnabled: utils.NewTrue()},
		{Name: "Sam Rivera", Email: "sam@riveraco.example", CompanyName: "Rivera & Co", Notes: "long-time client, usually pays late but always pays"},
		{Name: "Alex Chen", Email: "alex@chenholdings.example", CompanyName: "Chen Holdings", Sensitivity: models.SensitivityVip},
		{Name: "Priya Patel", Email: "priya@patelbuild.example", CompanyName: "Patel Builders", Notes: "asked to opt out of payment reminders", RemindersEnabled: utils.NewFalse()},
	}
	now := time.Now().UTC()
	// Overdue by 3, 10, 20, 40 and 70 days: below the first threshold plus
	// one invoice per escalation stage.
	overdueDays := []int{3, 10, 20, 40, 70}
	amounts := []string{"250.00", "500.00", "750.00", "1000.00", "1250.00"}

	var created []*models.Client
	for _, input := range clients {
		client, err := models.CreateClient(ctx, db, input)
		if err != nil {
			fmt.Fprintf(os.Stderr, "failed to create client: %v\n", err)
			os.Exit(1)
		}
		created = append(created, client)
	}

	for i, days := range overdueDays {
		client := created[i%len(created)]
		due := now.AddDate(0, 0, -days)
		amount, err := utils.ParseDecimal(amounts[i])
		if err != nil {
			fmt.Fprintf(os.Stderr, "bad amount %q: %v\n", amounts[i], err)
			os.Exit(1)
		}
		invoice, err := models.CreateInvoice(ctx, db, models.NewInvoice{
			ClientId:      client.ID,
			InvoiceNumber: fmt.Sprintf("INV-%04d", 1000+i),
			Amount:        amount,
			IssueDate:     due.AddDate(0, 0, -14),
			DueDate:       due,
		})
		if err != nil {
			fmt.Fprintf(os.Stderr, "failed to create invoice: %v\n", err)
			os.Exit(1)
		}
		err = db.WithContext(ctx).Model(&models.Invoice{}).
			Where("id = ?", invoice.ID).
			Update("days_overdue", days).Error
		if err != nil {
			fmt.Fprintf(os.Stderr, "failed to set days_overdue: %v\n", err)
			os.Exit(1)
		}
	}

	fmt.Printf("seeded business %s with %d clients and %d invoices\n",
		business.ID, len(created), len(overdueDays))
}
