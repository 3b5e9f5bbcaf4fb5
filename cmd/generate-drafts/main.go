// generate-drafts runs one manual generation pass for a business from the
// command line. Useful for support and local testing without the HTTP
// surface.
//
// Usage:
//
//	DB_USER=... DB_PASSWORD=... REDIS_ADDRESS=... go run ./cmd/generate-drafts -business <uuid> [-max 50]
package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"bitbucket.org/mmdatafocus/reminders_backend/aigen"
	"bitbucket.org/mmdatafocus/reminders_backend/config"
	"bitbucket.org/mmdatafocus/reminders_backend/workflow"
)

func main() {
	businessId := flag.String("business", "", "business id to generate drafts for")
	maxDrafts := flag.Int("max", 50, "maximum drafts to create this run")
	flag.Parse()

	if *businessId == "" {
		fmt.Fprintln(os.Stderr, "-business is required")
		os.Exit(2)
	}

	config.ConnectDatabaseWithRetry()
	config.ConnectRedisWithRetry()
	db := config.GetDB()
	if db == nil {
		fmt.Fprintln(os.Stderr, "database not initialized (config.GetDB returned nil). Set DB_* env vars.")
		os.Exit(1)
	}

	logger := config.GetLogger()
	var generator workflow.Generator
	if c := aigen.FromEnv(); c != nil {
		generator = c
	}
	engine := workflow.NewDraftEngine(db, logger, generator)

	drafts, err := engine.GenerateDrafts(context.Background(), *businessId, *maxDrafts, true)
	if err != nil {
		fmt.Fprintf(os.Stderr, "generation run failed: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("created %d draft(s)\n", len(drafts))
	for _, d := range drafts {
		fmt.Printf("  %s  invoice=%s stage=%d tone=%s status=%s source=%s\n",
			d.ID, d.InvoiceId, d.Stage, d.Tone, d.Status, d.Source)
	}
}
