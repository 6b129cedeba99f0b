package repo

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/tbourn/go-guias-backend/internal/domain"
)

// ErrDuplicate is returned when a live idempotency record already holds the
// (scope, key) pair.
var ErrDuplicate = errors.New("idempotency key already used")

// GetIdempotency returns the live record for (scope, key) at now, or
// ErrNotFound. Expired records are invisible.
func GetIdempotency(ctx context.Context, db *gorm.DB, scope, key string, now time.Time) (*domain.Idempotency, error) {
	if strings.TrimSpace(key) == "" {
		return nil, ErrNotFound
	}
	var rec domain.Idempotency
	err := db.WithContext(ctx).
		Where(&domain.Idempotency{Scope: scope, Key: key}).
		Where("expires_at > ?", now).
		Take(&rec).Error
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

// CreateIdempotency remembers that the write identified by (scope, key)
// produced recordID with status, for ttl. An expired record for the pair is
// replaced; a live one yields ErrDuplicate.
func CreateIdempotency(ctx context.Context, db *gorm.DB, scope, key string, recordID uint, status int, ttl time.Duration) (*domain.Idempotency, error) {
	now := time.Now().UTC()
	rec := &domain.Idempotency{
		ID:        uuid.NewString(),
		Scope:     scope,
		Key:       key,
		RecordID:  recordID,
		Status:    status,
		CreatedAt: now,
		ExpiresAt: now.Add(ttl),
	}
	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		stale := tx.Where(&domain.Idempotency{Scope: scope, Key: key}).
			Where("expires_at <= ?", now).
			Delete(&domain.Idempotency{})
		if stale.Error != nil {
			return stale.Error
		}
		ins := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(rec)
		if ins.Error != nil {
			return ins.Error
		}
		if ins.RowsAffected == 0 {
			return ErrDuplicate
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return rec, nil
}

// PurgeIdempotency deletes every record expired at now and reports how many
// went.
func PurgeIdempotency(ctx context.Context, db *gorm.DB, now time.Time) (int64, error) {
	res := db.WithContext(ctx).Where("expires_at <= ?", now).Delete(&domain.Idempotency{})
	return res.RowsAffected, res.Error
}
