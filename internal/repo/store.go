package repo

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/tbourn/go-guias-backend/internal/carrier"
	"github.com/tbourn/go-guias-backend/internal/domain"
	"github.com/tbourn/go-guias-backend/internal/ledger"
)

// ScanStore adapts the scan functions to ledger.Store.
type ScanStore struct {
	db *gorm.DB
}

var _ ledger.Store = (*ScanStore)(nil)

// NewScanStore returns a ledger.Store backed by db.
func NewScanStore(db *gorm.DB) *ScanStore { return &ScanStore{db: db} }

func (s *ScanStore) Create(ctx context.Context, code string, date time.Time, c carrier.ID) (*domain.ScanRecord, error) {
	rec, err := CreateScan(ctx, s.db, code, date, c)
	return rec, mapErr(err)
}

func (s *ScanStore) List(ctx context.Context, f *ledger.Filter) ([]domain.ScanRecord, error) {
	var sf *ScanFilter
	if f != nil {
		sf = &ScanFilter{Date: f.Date}
	}
	recs, err := ListScans(ctx, s.db, sf)
	return recs, mapErr(err)
}

func (s *ScanStore) Update(ctx context.Context, id uint, c carrier.ID) (*domain.ScanRecord, error) {
	rec, err := UpdateScanCarrier(ctx, s.db, id, c)
	return rec, mapErr(err)
}

func (s *ScanStore) Delete(ctx context.Context, id uint) (*domain.ScanRecord, error) {
	rec, err := DeleteScan(ctx, s.db, id)
	return rec, mapErr(err)
}

func mapErr(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ledger.ErrNotFound
	}
	return err
}

// Stats reports the number of records on date and their greatest id.
func (s *ScanStore) Stats(ctx context.Context, date time.Time) (int64, uint, error) {
	return ScansStats(ctx, s.db, date)
}
