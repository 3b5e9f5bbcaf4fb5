// recompute-overdue refreshes days_overdue on unpaid invoices, either for a
// single business or for every business. Intended to be run as a scheduled
// job when the in-process recompute worker is disabled.
//
// Usage:
//
//	DB_USER=... DB_PASSWORD=... go run ./cmd/recompute-overdue [-business <uuid>]
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"bitbucket.org/mmdatafocus/reminders_backend/config"
	"bitbucket.org/mmdatafocus/reminders_backend/models"
	"bitbucket.org/mmdatafocus/reminders_backend/utils"
)

func main() {
	businessId := flag.String("business", "", "limit recompute to one business")
	flag.Parse()

	config.ConnectDatabaseWithRetry()
	db := config.GetDB()
	if db == nil {
		fmt.Fprintln(os.Stderr, "database not initialized (config.GetDB returned nil). Set DB_* env vars.")
		os.Exit(1)
	}

	ctx := context.Background()
	now := time.Now().UTC()

	var businesses []models.Business
	query := db.WithContext(ctx)
	if *businessId != "" {
		query = query.Where("id = ?", *businessId)
	}
	if err := query.Find(&businesses).Error; err != nil {
		fmt.Fprintf(os.Stderr, "failed to list businesses: %v\n", err)
		os.Exit(1)
	}
	if len(businesses) == 0 {
		fmt.Fprintln(os.Stderr, "no matching businesses")
		os.Exit(2)
	}

	total := 0
	for i := range businesses {
		bizCtx := utils.SetBusinessIdInContext(ctx, businesses[i].ID.String())
		updated, err := models.RecomputeDaysOverdueForBusiness(bizCtx, db, now, businesses[i].Timezone)
		if err != nil {
			fmt.Fprintf(os.Stderr, "recompute failed for business %s: %v\n", businesses[i].ID, err)
			os.Exit(1)
		}
		total += updated
	}
	fmt.Printf("updated days_overdue on %d invoice(s) across %d business(es)\n", total, len(businesses))
}
