// Package repo implements the data persistence layer for scan records,
// backed by GORM. This file provides the thin CRUD functions over the
// registros table.
//
// All functions are context-aware and accept a *gorm.DB handle, so they can
// run inside transactions. Missing rows yield ErrNotFound; other database
// errors are returned as-is.
package repo

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/tbourn/go-guias-backend/internal/carrier"
	"github.com/tbourn/go-guias-backend/internal/domain"
)

// ErrNotFound is returned when a requested record does not exist.
// It aliases gorm.ErrRecordNotFound for convenience.
var ErrNotFound = gorm.ErrRecordNotFound

// ScanFilter restricts ListScans. Zero fields do not filter.
type ScanFilter struct {
	Date    time.Time
	Carrier carrier.ID
}

// CreateScan inserts a new record and returns it with its assigned id.
func CreateScan(ctx context.Context, db *gorm.DB, code string, date time.Time, c carrier.ID) (*domain.ScanRecord, error) {
	rec := &domain.ScanRecord{
		Code:    code,
		Date:    domain.Day(date, nil),
		Carrier: c,
	}
	if err := db.WithContext(ctx).Create(rec).Error; err != nil {
		return nil, err
	}
	return rec, nil
}

// ListScans returns records ordered by id (admission order). A nil filter
// returns every record.
func ListScans(ctx context.Context, db *gorm.DB, f *ScanFilter) ([]domain.ScanRecord, error) {
	q := db.WithContext(ctx).Model(&domain.ScanRecord{})
	if f != nil {
		if !f.Date.IsZero() {
			q = q.Where("fecha = ?", domain.Day(f.Date, nil))
		}
		if f.Carrier != "" {
			q = q.Where("transportadora = ?", f.Carrier)
		}
	}
	var out []domain.ScanRecord
	if err := q.Order("id ASC").Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

// GetScan fetches one record by id, or ErrNotFound.
func GetScan(ctx context.Context, db *gorm.DB, id uint) (*domain.ScanRecord, error) {
	var rec domain.ScanRecord
	if err := db.WithContext(ctx).First(&rec, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &rec, nil
}

// UpdateScanCarrier sets the carrier of id and returns the updated record.
func UpdateScanCarrier(ctx context.Context, db *gorm.DB, id uint, c carrier.ID) (*domain.ScanRecord, error) {
	res := db.WithContext(ctx).
		Model(&domain.ScanRecord{}).
		Where("id = ?", id).
		Update("transportadora", c)
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, ErrNotFound
	}
	return GetScan(ctx, db, id)
}

// DeleteScan removes id and returns the removed record.
func DeleteScan(ctx context.Context, db *gorm.DB, id uint) (*domain.ScanRecord, error) {
	var out *domain.ScanRecord
	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		rec, err := GetScan(ctx, tx, id)
		if err != nil {
			return err
		}
		res := tx.Delete(&domain.ScanRecord{}, id)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrNotFound
		}
		out = rec
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}
