// Package ledger holds the in-memory working set of scan records for one
// working date. It admits raw scans (normalize, classify, reject duplicates,
// persist), applies carrier corrections and removals, and derives per-carrier
// counts.
//
// The record store is the source of truth. Every mutation makes exactly one
// store round trip and touches the cache only after the store succeeded, so a
// failed call leaves the working set unchanged.
package ledger

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/tbourn/go-guias-backend/internal/carrier"
	"github.com/tbourn/go-guias-backend/internal/domain"
)

// DefaultStoreTimeout bounds a single store round trip.
const DefaultStoreTimeout = 5 * time.Second

// Filter restricts Store.List. A nil *Filter lists every record.
type Filter struct {
	Date time.Time
}

// Store is the record store consumed by the ledger.
type Store interface {
	// Create persists a new record and returns it with its assigned id.
	Create(ctx context.Context, code string, date time.Time, c carrier.ID) (*domain.ScanRecord, error)
	// List returns records in admission order.
	List(ctx context.Context, f *Filter) ([]domain.ScanRecord, error)
	// Update changes the carrier of id. Missing ids yield ErrNotFound.
	Update(ctx context.Context, id uint, c carrier.ID) (*domain.ScanRecord, error)
	// Delete removes id and returns the removed record. Missing ids yield ErrNotFound.
	Delete(ctx context.Context, id uint) (*domain.ScanRecord, error)
}

// Result is the outcome of admitting one line of a batch.
type Result struct {
	Raw    string
	Record *domain.ScanRecord
	Err    error
}

// Ledger is the working set for a single date. It is safe for concurrent
// use; operations are serialized so duplicate detection follows arrival order.
type Ledger struct {
	store      Store
	classifier *carrier.Classifier
	date       time.Time
	timeout    time.Duration

	mu      sync.Mutex
	records map[uint]domain.ScanRecord
	order   []uint
	byCode  map[string]uint

	// ids mirrors the keys of records for Contains, which must not wait on mu
	// while a batch is in progress.
	ids sync.Map
}

// Option configures a Ledger.
type Option func(*Ledger)

// WithStoreTimeout overrides DefaultStoreTimeout. Non-positive values are ignored.
func WithStoreTimeout(d time.Duration) Option {
	return func(l *Ledger) {
		if d > 0 {
			l.timeout = d
		}
	}
}

// New returns an empty ledger for date. Records admitted through it are
// stamped with date; call Load to populate it from the store.
func New(store Store, classifier *carrier.Classifier, date time.Time, opts ...Option) *Ledger {
	if classifier == nil {
		classifier = carrier.NewClassifier()
	}
	l := &Ledger{
		store:      store,
		classifier: classifier,
		date:       domain.Day(date, nil),
		timeout:    DefaultStoreTimeout,
		records:    make(map[uint]domain.ScanRecord),
		byCode:     make(map[string]uint),
	}
	for _, o := range opts {
		o(l)
	}
	return l
}

// Date returns the working date.
func (l *Ledger) Date() time.Time { return l.date }

// Load replaces the working set with the store's records for the working date.
func (l *Ledger) Load(ctx context.Context) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	var recs []domain.ScanRecord
	err := l.roundTrip(ctx, func(ctx context.Context) error {
		var err error
		recs, err = l.store.List(ctx, &Filter{Date: l.date})
		return err
	})
	if err != nil {
		return err
	}

	l.records = make(map[uint]domain.ScanRecord, len(recs))
	l.byCode = make(map[string]uint, len(recs))
	l.order = l.order[:0]
	l.ids.Clear()
	for _, r := range recs {
		l.insert(r)
	}
	return nil
}

// Admit normalizes and classifies raw, rejects codes already in the working
// set, and persists the new record.
func (l *Ledger) Admit(ctx context.Context, raw string) (*domain.ScanRecord, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.admit(ctx, raw)
}

// AdmitBatch admits raws sequentially in input order. Duplicate detection
// covers codes admitted earlier in the same batch. A failed line does not
// stop the batch.
func (l *Ledger) AdmitBatch(ctx context.Context, raws []string) []Result {
	l.mu.Lock()
	defer l.mu.Unlock()

	out := make([]Result, len(raws))
	for i, raw := range raws {
		rec, err := l.admit(ctx, raw)
		out[i] = Result{Raw: raw, Record: rec, Err: err}
	}
	return out
}

func (l *Ledger) admit(ctx context.Context, raw string) (*domain.ScanRecord, error) {
	// Handheld scanners terminate codes with CR/LF; blank scans are invalid.
	code := carrier.Normalize(strings.TrimSpace(raw))
	if code == "" {
		return nil, ErrInvalidCode
	}
	if id, ok := l.byCode[code]; ok {
		return nil, &DuplicateError{Code: code, ExistingID: id}
	}

	c := l.classifier.Classify(code)
	var rec *domain.ScanRecord
	err := l.roundTrip(ctx, func(ctx context.Context) error {
		var err error
		rec, err = l.store.Create(ctx, code, l.date, c)
		return err
	})
	if err != nil {
		return nil, err
	}

	l.insert(*rec)
	cp := *rec
	return &cp, nil
}

// CorrectCarrier changes the carrier of id in the store, then in the cache.
// Records outside the working set are updated in the store only.
func (l *Ledger) CorrectCarrier(ctx context.Context, id uint, c carrier.ID) (*domain.ScanRecord, error) {
	if !c.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrInvalidCarrier, c)
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	var rec *domain.ScanRecord
	err := l.roundTrip(ctx, func(ctx context.Context) error {
		var err error
		rec, err = l.store.Update(ctx, id, c)
		return err
	})
	if err != nil {
		return nil, err
	}

	if cur, ok := l.records[id]; ok {
		cur.Carrier = rec.Carrier
		l.records[id] = cur
	}
	cp := *rec
	return &cp, nil
}

// Remove deletes id from the store, then evicts it from the cache.
func (l *Ledger) Remove(ctx context.Context, id uint) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	err := l.roundTrip(ctx, func(ctx context.Context) error {
		_, err := l.store.Delete(ctx, id)
		return err
	})
	if err != nil {
		return err
	}
	l.evict(id)
	return nil
}

// Contains reports whether id is in the working set. It does not block on
// operations in progress.
func (l *Ledger) Contains(id uint) bool {
	_, ok := l.ids.Load(id)
	return ok
}

// Len returns the size of the working set.
func (l *Ledger) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.records)
}

// Records returns a snapshot of the working set in admission order.
func (l *Ledger) Records() []domain.ScanRecord {
	l.mu.Lock()
	defer l.mu.Unlock()

	out := make([]domain.ScanRecord, 0, len(l.order))
	for _, id := range l.order {
		out = append(out, l.records[id])
	}
	return out
}

// CountsByCarrier counts cached records per carrier. Every enumerated
// carrier is present, zero when absent.
func (l *Ledger) CountsByCarrier() map[carrier.ID]int {
	l.mu.Lock()
	defer l.mu.Unlock()

	out := make(map[carrier.ID]int, len(carrier.All()))
	for _, c := range carrier.All() {
		out[c] = 0
	}
	for _, r := range l.records {
		out[r.Carrier]++
	}
	return out
}

func (l *Ledger) insert(r domain.ScanRecord) {
	r.Carrier = knownCarrier(r.Carrier)
	if _, ok := l.records[r.ID]; !ok {
		l.order = append(l.order, r.ID)
	}
	l.records[r.ID] = r
	l.byCode[r.Code] = r.ID
	l.ids.Store(r.ID, struct{}{})
}

// knownCarrier maps free-text carrier names from older rows onto the
// enumeration; anything unrecognized counts as Unknown.
func knownCarrier(c carrier.ID) carrier.ID {
	if c.Valid() {
		return c
	}
	if id, err := carrier.Parse(string(c)); err == nil {
		return id
	}
	return carrier.Unknown
}

func (l *Ledger) evict(id uint) {
	r, ok := l.records[id]
	if !ok {
		return
	}
	delete(l.records, id)
	l.ids.Delete(id)
	if l.byCode[r.Code] == id {
		delete(l.byCode, r.Code)
	}
	for i, v := range l.order {
		if v == id {
			l.order = append(l.order[:i], l.order[i+1:]...)
			break
		}
	}
}

// roundTrip runs fn under the store timeout and maps its error onto the
// ledger taxonomy.
func (l *Ledger) roundTrip(ctx context.Context, fn func(context.Context) error) error {
	ctx, cancel := context.WithTimeout(ctx, l.timeout)
	defer cancel()

	err := fn(ctx)
	switch {
	case err == nil:
		return nil
	case errors.Is(err, ErrNotFound):
		return err
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled), ctx.Err() != nil:
		return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	default:
		return fmt.Errorf("%w: %v", ErrStore, err)
	}
}
