// Package repo implements the data persistence layer for scan records,
// backed by GORM. This file provides small aggregate queries used for
// conditional responses (weak ETags) in the HTTP layer.
package repo

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/tbourn/go-guias-backend/internal/domain"
)

// ScansStats returns the number of records on date and the greatest id among
// them. When the date has no records both are 0.
//
// Ids are never reused, so (count, maxID) changes on every create and delete.
// Carrier corrections do not move either value; callers that need to detect
// them fold the carrier counts into their validator.
func ScansStats(ctx context.Context, db *gorm.DB, date time.Time) (count int64, maxID uint, err error) {
	q := db.WithContext(ctx).Model(&domain.ScanRecord{}).Where("fecha = ?", domain.Day(date, nil))

	if err = q.Count(&count).Error; err != nil {
		return 0, 0, err
	}
	if count == 0 {
		return 0, 0, nil
	}

	var row struct{ ID uint }
	if err = q.Select("id").Order("id DESC").Limit(1).Scan(&row).Error; err != nil {
		return 0, 0, err
	}
	return count, row.ID, nil
}
