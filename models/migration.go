package models

import (
	"gorm.io/gorm"

	"bitbucket.org/mmdatafocus/reminders_backend/config"
)

func MigrateTable(db *gorm.DB) {
	err := db.AutoMigrate(
		&Business{},
		&Client{},
		&Invoice{},
		&ReminderSettings{},
		&ReminderDraft{},
		&AuditEventRecord{},
		&IdempotencyKey{},
	)
	if err != nil {
		config.LogError(config.GetLogger(), "models", "MigrateTable", "auto migration failed", nil, err)
		panic(err)
	}
}
