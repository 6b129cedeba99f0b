package httpapi

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/tbourn/go-guias-backend/internal/domain"
	"github.com/tbourn/go-guias-backend/internal/repo"
)

// scanReplayShim stores idempotency records next to the scan records, so a
// retried admission can be answered with the record it created.
type scanReplayShim struct{ db *gorm.DB }

// Replay returns the record a live (scope, key) pair points at.
func (s scanReplayShim) Replay(ctx context.Context, scope, key string, now time.Time) (*domain.ScanRecord, error) {
	idem, err := repo.GetIdempotency(ctx, s.db, scope, key, now)
	if err != nil {
		return nil, err
	}
	return repo.GetScan(ctx, s.db, idem.RecordID)
}

// Remember stores the pair. Losing the race to a concurrent retry is fine.
func (s scanReplayShim) Remember(ctx context.Context, scope, key string, recordID uint, status int, ttl time.Duration) error {
	if _, err := repo.CreateIdempotency(ctx, s.db, scope, key, recordID, status, ttl); err != nil && !errors.Is(err, repo.ErrDuplicate) {
		return err
	}
	return nil
}

// lookup is the middleware.IdempotencyLookup over the same table.
func (s scanReplayShim) lookup(ctx context.Context, scope, key string, now time.Time) (bool, error) {
	_, err := repo.GetIdempotency(ctx, s.db, scope, key, now)
	if errors.Is(err, repo.ErrNotFound) {
		return false, nil
	}
	return err == nil, err
}
