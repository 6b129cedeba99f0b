// Package services – ScanService
//
// This file implements ScanService, the application-level component that owns
// one scan ledger per working date. Ledgers are created lazily and loaded from
// the record store on first use; concurrent first loads of the same date are
// collapsed into a single store round trip.
//
// Observability: all public methods are OpenTelemetry-instrumented and feed the
// scans_admitted_total / scans_rejected_total counters.
package services

import (
	"context"
	"errors"
	"fmt"
	"hash/fnv"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/singleflight"

	"github.com/tbourn/go-guias-backend/internal/carrier"
	"github.com/tbourn/go-guias-backend/internal/domain"
	"github.com/tbourn/go-guias-backend/internal/ledger"
	"github.com/tbourn/go-guias-backend/internal/manifest"

	// OpenTelemetry
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// DefaultMaxBatch caps the number of lines admitted by one AdmitBatch call.
const DefaultMaxBatch = 5000

// StatsStore is implemented by stores that can report per-date aggregates
// without loading records.
type StatsStore interface {
	Stats(ctx context.Context, date time.Time) (count int64, maxID uint, err error)
}

// ScanService coordinates per-date ledgers and manifest generation.
type ScanService struct {
	Store        ledger.Store
	Classifier   *carrier.Classifier
	Location     *time.Location // decides "today"
	StoreTimeout time.Duration
	MaxBatch     int

	Generator *manifest.Generator
	// Archive, when set, receives a copy of every generated manifest.
	Archive manifest.Archive

	Now func() time.Time

	mu      sync.Mutex
	ledgers map[string]*ledger.Ledger
	loads   singleflight.Group
}

// NewScanService constructs a ScanService with defaults: UTC, the ledger's
// default store timeout, DefaultMaxBatch and a bare manifest generator.
func NewScanService(store ledger.Store, cl *carrier.Classifier) *ScanService {
	if cl == nil {
		cl = carrier.NewClassifier()
	}
	return &ScanService{
		Store:        store,
		Classifier:   cl,
		Location:     time.UTC,
		StoreTimeout: ledger.DefaultStoreTimeout,
		MaxBatch:     DefaultMaxBatch,
		Generator:    &manifest.Generator{},
		Now:          time.Now,
		ledgers:      make(map[string]*ledger.Ledger),
	}
}

// Today returns the current working date in the service location.
func (s *ScanService) Today() time.Time {
	now := time.Now
	if s.Now != nil {
		now = s.Now
	}
	return domain.Day(now(), s.Location)
}

// Admit admits one raw scan into the ledger of date (zero date = today).
func (s *ScanService) Admit(ctx context.Context, date time.Time, raw string) (*domain.ScanRecord, error) {
	date = s.day(date)
	ctx, span := tracer().Start(ctx, "Admit",
		trace.WithAttributes(
			attribute.String("scan.date", domain.FormatDay(date)),
			attribute.String("scan.raw", raw),
		),
	)
	defer span.End()

	l, err := s.ledgerFor(ctx, date)
	if err != nil {
		return nil, s.spanErr(ctx, span, err)
	}
	rec, err := l.Admit(ctx, raw)
	s.observe(rec, err)
	if err != nil {
		return nil, s.spanErr(ctx, span, err)
	}
	span.SetAttributes(attribute.Int64("scan.id", int64(rec.ID)), attribute.String("scan.carrier", rec.Carrier.String()))
	return rec, nil
}

// AdmitBatch admits raws sequentially into the ledger of date. Per-line
// failures are reported in the results; the returned error covers only
// batch-level problems (size limits, the initial load).
func (s *ScanService) AdmitBatch(ctx context.Context, date time.Time, raws []string) ([]ledger.Result, error) {
	date = s.day(date)
	ctx, span := tracer().Start(ctx, "AdmitBatch",
		trace.WithAttributes(
			attribute.String("scan.date", domain.FormatDay(date)),
			attribute.Int("batch.size", len(raws)),
		),
	)
	defer span.End()

	if len(raws) == 0 {
		return nil, ErrEmptyBatch
	}
	if max := s.maxBatch(); len(raws) > max {
		return nil, fmt.Errorf("%w: %d lines (max %d)", ErrBatchTooLarge, len(raws), max)
	}

	l, err := s.ledgerFor(ctx, date)
	if err != nil {
		return nil, s.spanErr(ctx, span, err)
	}
	results := l.AdmitBatch(ctx, raws)
	admitted := 0
	for _, r := range results {
		s.observe(r.Record, r.Err)
		switch {
		case r.Err == nil:
			admitted++
		case errors.Is(r.Err, ledger.ErrStore), errors.Is(r.Err, ledger.ErrStoreUnavailable):
			logger(ctx).Warn().Err(r.Err).Str("raw", r.Raw).Msg("batch line failed")
		}
	}
	span.SetAttributes(attribute.Int("batch.admitted", admitted))
	return results, nil
}

// CorrectCarrier changes the carrier of id. The ledger holding id is updated
// in place; ids outside every loaded working set are updated in the store.
func (s *ScanService) CorrectCarrier(ctx context.Context, id uint, c carrier.ID) (*domain.ScanRecord, error) {
	ctx, span := tracer().Start(ctx, "CorrectCarrier",
		trace.WithAttributes(
			attribute.Int64("scan.id", int64(id)),
			attribute.String("scan.carrier", c.String()),
		),
	)
	defer span.End()

	l, err := s.owner(ctx, id)
	if err != nil {
		return nil, s.spanErr(ctx, span, err)
	}
	rec, err := l.CorrectCarrier(ctx, id, c)
	if err != nil {
		return nil, s.spanErr(ctx, span, err)
	}
	return rec, nil
}

// Remove deletes id from the store and from the ledger holding it.
func (s *ScanService) Remove(ctx context.Context, id uint) error {
	ctx, span := tracer().Start(ctx, "Remove",
		trace.WithAttributes(attribute.Int64("scan.id", int64(id))),
	)
	defer span.End()

	l, err := s.owner(ctx, id)
	if err != nil {
		return s.spanErr(ctx, span, err)
	}
	if err := l.Remove(ctx, id); err != nil {
		return s.spanErr(ctx, span, err)
	}
	return nil
}

// Counts returns the zero-filled per-carrier counts of date.
func (s *ScanService) Counts(ctx context.Context, date time.Time) (map[carrier.ID]int, error) {
	date = s.day(date)
	ctx, span := tracer().Start(ctx, "Counts",
		trace.WithAttributes(attribute.String("scan.date", domain.FormatDay(date))),
	)
	defer span.End()

	l, err := s.ledgerFor(ctx, date)
	if err != nil {
		return nil, s.spanErr(ctx, span, err)
	}
	return l.CountsByCarrier(), nil
}

// List selects a page of the ledger of q.Date (zero date = today).
func (s *ScanService) List(ctx context.Context, q ledger.Query) (ledger.Selection, error) {
	q.Date = s.day(q.Date)
	ctx, span := tracer().Start(ctx, "List",
		trace.WithAttributes(
			attribute.String("scan.date", domain.FormatDay(q.Date)),
			attribute.String("scan.carrier", q.Carrier.String()),
			attribute.Int("page", q.Page),
			attribute.Int("page_size", q.PageSize),
		),
	)
	defer span.End()

	l, err := s.ledgerFor(ctx, q.Date)
	if err != nil {
		return ledger.Selection{}, s.spanErr(ctx, span, err)
	}
	return ledger.Select(l.Records(), q), nil
}

// Refresh reloads the ledger of date from the store and returns its size.
func (s *ScanService) Refresh(ctx context.Context, date time.Time) (int, error) {
	date = s.day(date)
	ctx, span := tracer().Start(ctx, "Refresh",
		trace.WithAttributes(attribute.String("scan.date", domain.FormatDay(date))),
	)
	defer span.End()

	l, loaded := s.cached(date)
	if !loaded {
		var err error
		if l, err = s.ledgerFor(ctx, date); err != nil {
			return 0, s.spanErr(ctx, span, err)
		}
		return l.Len(), nil
	}
	if err := l.Load(ctx); err != nil {
		return 0, s.spanErr(ctx, span, err)
	}
	return l.Len(), nil
}

// Version returns an opaque token that changes whenever the records of date
// change: creations and deletions through the store aggregates, carrier
// corrections through the ledger counts.
func (s *ScanService) Version(ctx context.Context, date time.Time) (string, error) {
	date = s.day(date)
	ctx, span := tracer().Start(ctx, "Version",
		trace.WithAttributes(attribute.String("scan.date", domain.FormatDay(date))),
	)
	defer span.End()

	var count int64
	var maxID uint
	if ss, ok := s.Store.(StatsStore); ok {
		ctx, cancel := context.WithTimeout(ctx, s.storeTimeout())
		defer cancel()
		var err error
		if count, maxID, err = ss.Stats(ctx, date); err != nil {
			return "", s.spanErr(ctx, span, err)
		}
	}

	l, err := s.ledgerFor(ctx, date)
	if err != nil {
		return "", s.spanErr(ctx, span, err)
	}
	h := fnv.New32a()
	counts := l.CountsByCarrier()
	for _, c := range carrier.All() {
		fmt.Fprintf(h, "%s=%d;", c, counts[c])
	}
	return fmt.Sprintf("%d:%d:%08x", count, maxID, h.Sum32()), nil
}

// ----- internals -----

func tracer() trace.Tracer { return otel.Tracer("services/ScanService") }

func (s *ScanService) day(date time.Time) time.Time {
	if date.IsZero() {
		return s.Today()
	}
	return domain.Day(date, nil)
}

func (s *ScanService) maxBatch() int {
	if s.MaxBatch > 0 {
		return s.MaxBatch
	}
	return DefaultMaxBatch
}

func (s *ScanService) storeTimeout() time.Duration {
	if s.StoreTimeout > 0 {
		return s.StoreTimeout
	}
	return ledger.DefaultStoreTimeout
}

func (s *ScanService) cached(date time.Time) (*ledger.Ledger, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.ledgers[domain.FormatDay(date)]
	return l, ok
}

// ledgerFor returns the loaded ledger of date, creating and loading it on
// first use. A failed load is not cached.
func (s *ScanService) ledgerFor(ctx context.Context, date time.Time) (*ledger.Ledger, error) {
	if l, ok := s.cached(date); ok {
		return l, nil
	}
	key := domain.FormatDay(date)
	v, err, _ := s.loads.Do(key, func() (any, error) {
		if l, ok := s.cached(date); ok {
			return l, nil
		}
		l := ledger.New(s.Store, s.Classifier, date, ledger.WithStoreTimeout(s.storeTimeout()))
		if err := l.Load(ctx); err != nil {
			return nil, err
		}
		s.mu.Lock()
		if s.ledgers == nil {
			s.ledgers = make(map[string]*ledger.Ledger)
		}
		s.ledgers[key] = l
		s.mu.Unlock()
		return l, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*ledger.Ledger), nil
}

// owner returns the loaded ledger that holds id, falling back to today's.
func (s *ScanService) owner(ctx context.Context, id uint) (*ledger.Ledger, error) {
	s.mu.Lock()
	loaded := make([]*ledger.Ledger, 0, len(s.ledgers))
	for _, l := range s.ledgers {
		loaded = append(loaded, l)
	}
	s.mu.Unlock()

	for _, l := range loaded {
		if l.Contains(id) {
			return l, nil
		}
	}
	return s.ledgerFor(ctx, s.Today())
}

func (s *ScanService) observe(rec *domain.ScanRecord, err error) {
	if err != nil {
		scansRejected.WithLabelValues(rejectReason(err)).Inc()
		return
	}
	if rec != nil {
		scansAdmitted.WithLabelValues(rec.Carrier.String()).Inc()
	}
}

// spanErr records err on span and returns it unchanged. Store failures are
// marked as span errors; domain rejections are not.
func (s *ScanService) spanErr(ctx context.Context, span trace.Span, err error) error {
	span.RecordError(err)
	if errors.Is(err, ledger.ErrStore) || errors.Is(err, ledger.ErrStoreUnavailable) {
		span.SetStatus(codes.Error, err.Error())
		logger(ctx).Warn().Err(err).Msg("record store round trip failed")
	}
	return err
}

// logger returns the request-scoped logger carried by ctx, or the global one.
func logger(ctx context.Context) *zerolog.Logger {
	if l := zerolog.Ctx(ctx); l.GetLevel() != zerolog.Disabled {
		return l
	}
	return &log.Logger
}
