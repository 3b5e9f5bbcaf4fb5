package utils

import (
	"context"

	"bitbucket.org/mmdatafocus/reminders_backend/config"
)

/* DB fetching */

// count rows of model matching cond within a business
func ResourceCountWhere[T any](ctx context.Context, businessId string, cond string, args ...interface{}) (int64, error) {
	db := config.GetDB()
	var model T
	var count int64
	err := db.WithContext(ctx).Model(&model).
		Where("business_id = ?", businessId).
		Where(cond, args...).
		Count(&count).Error
	return count, err
}

// check if id exists within the business, return RecordNotFound error otherwise
func ValidateResourceId[T any](ctx context.Context, businessId string, id interface{}) error {

	count, err := ResourceCountWhere[T](ctx, businessId, "id = ?", id)
	if err != nil {
		return err
	}
	if count <= 0 {
		return ErrorRecordNotFound
	}

	return nil
}
