package workflow

import (
	"errors"
	"time"

	mysqlDriver "github.com/go-sql-driver/mysql"
	"gorm.io/gorm"

	"bitbucket.org/mmdatafocus/reminders_backend/models"
)

var ErrIdempotencyInProgress = errors.New("idempotency in progress")

func isDuplicateKeyErr(err error) bool {
	var mysqlErr *mysqlDriver.MySQLError
	if errors.As(err, &mysqlErr) {
		return mysqlErr.Number == 1062
	}
	return false
}

// BeginIdempotency inserts STARTED for the scope/key pair. If SUCCEEDED
// already exists, returns (true, nil) meaning "skip safely".
func BeginIdempotency(tx *gorm.DB, businessId, scope, key string) (skip bool, err error) {
	record := models.IdempotencyKey{
		BusinessId: businessId,
		Scope:      scope,
		Key:        key,
		Status:     models.IdempotencyStatusStarted,
	}
	if err := tx.Create(&record).Error; err == nil {
		return false, nil
	} else if !isDuplicateKeyErr(err) {
		return false, err
	}

	var existing models.IdempotencyKey
	if err := tx.Where("business_id = ? AND scope = ? AND `key` = ?", businessId, scope, key).
		First(&existing).Error; err != nil {
		return false, err
	}

	switch existing.Status {
	case models.IdempotencyStatusSucceeded:
		return true, nil
	case models.IdempotencyStatusStarted:
		// Another worker may still be processing; back off unless the row is
		// stale enough to assume its owner crashed.
		if time.Since(existing.UpdatedAt) < 5*time.Minute {
			return false, ErrIdempotencyInProgress
		}
		return false, resetIdempotencyRow(tx, existing.ID)
	default:
		return false, resetIdempotencyRow(tx, existing.ID)
	}
}

func resetIdempotencyRow(tx *gorm.DB, id int) error {
	return tx.Model(&models.IdempotencyKey{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{"status": models.IdempotencyStatusStarted, "last_error": nil}).Error
}

func MarkIdempotencySucceeded(tx *gorm.DB, businessId, scope, key, resultRef string) error {
	now := time.Now().UTC()
	return tx.Model(&models.IdempotencyKey{}).
		Where("business_id = ? AND scope = ? AND `key` = ?", businessId, scope, key).
		Updates(map[string]interface{}{
			"status":       models.IdempotencyStatusSucceeded,
			"result_ref":   resultRef,
			"last_error":   nil,
			"completed_at": &now,
		}).Error
}

func MarkIdempotencyFailed(tx *gorm.DB, businessId, scope, key string, err error) error {
	msg := ""
	if err != nil {
		msg = err.Error()
	}
	if len(msg) > 500 {
		msg = msg[:500]
	}
	return tx.Model(&models.IdempotencyKey{}).
		Where("business_id = ? AND scope = ? AND `key` = ?", businessId, scope, key).
		Updates(map[string]interface{}{"status": models.IdempotencyStatusFailed, "last_error": &msg}).Error
}
