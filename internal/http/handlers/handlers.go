// Package handlers exposes the scan desk over HTTP.
//
// This file holds the service contracts the handlers depend on, the Handlers
// wiring type, and the helpers shared by every endpoint: pagination clamping,
// date and id parsing, and the translation of domain errors into the
// ErrorResponse envelope.
package handlers

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/tbourn/go-guias-backend/internal/carrier"
	"github.com/tbourn/go-guias-backend/internal/domain"
	"github.com/tbourn/go-guias-backend/internal/http/middleware"
	"github.com/tbourn/go-guias-backend/internal/ledger"
	"github.com/tbourn/go-guias-backend/internal/services"
	"github.com/tbourn/go-guias-backend/internal/utils"
)

//
// Service contracts (context-aware)
//

// ScanService defines the scan desk operations consumed by HTTP handlers.
//
// A zero date means the current working date. Implementations should be safe
// for concurrent use and must honor the provided context for cancellation and
// timeouts.
type ScanService interface {
	// Today returns the current working date.
	Today() time.Time
	// Admit normalizes, classifies and stores one scanned code.
	Admit(ctx context.Context, date time.Time, raw string) (*domain.ScanRecord, error)
	// AdmitBatch admits codes in order, reporting a result per line.
	AdmitBatch(ctx context.Context, date time.Time, raws []string) ([]ledger.Result, error)
	// CorrectCarrier overrides the carrier of an existing record.
	CorrectCarrier(ctx context.Context, id uint, c carrier.ID) (*domain.ScanRecord, error)
	// Remove deletes a record.
	Remove(ctx context.Context, id uint) error
	// Counts returns zero-filled per-carrier counts of a date.
	Counts(ctx context.Context, date time.Time) (map[carrier.ID]int, error)
	// List selects a filtered page of a date's records.
	List(ctx context.Context, q ledger.Query) (ledger.Selection, error)
	// Refresh reloads a date's working set from the store.
	Refresh(ctx context.Context, date time.Time) (int, error)
	// Version returns a token that changes whenever a date's records change.
	Version(ctx context.Context, date time.Time) (string, error)
	// Manifest renders the manifest of a date into w.
	Manifest(ctx context.Context, date time.Time, format services.Format, w io.Writer) (*services.ManifestResult, error)
}

// ReplayStore persists the outcome of requests carrying an Idempotency-Key so
// that retries return the first result instead of a duplicate error.
type ReplayStore interface {
	// Replay returns the record created by a previous (scope, key) request
	// that is still within its TTL.
	Replay(ctx context.Context, scope, key string, now time.Time) (*domain.ScanRecord, error)
	// Remember records that (scope, key) produced recordID.
	Remember(ctx context.Context, scope, key string, recordID uint, status int, ttl time.Duration) error
}

// HeaderReplayed marks responses served from a stored idempotent result.
const HeaderReplayed = "Idempotency-Replayed"

//
// Handler wiring
//

// Handlers groups the scan and manifest endpoints.
type Handlers struct {
	svc     ScanService
	replay  ReplayStore   // optional
	idemTTL time.Duration // lifetime of remembered idempotency keys
}

// New constructs Handlers bound to svc. replay may be nil, which disables
// idempotent replays. A non-positive ttl defaults to 24h.
func New(svc ScanService, replay ReplayStore, ttl time.Duration) *Handlers {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	if err := RegisterValidators(); err != nil {
		log.Warn().Err(err).Msg("carrier validator not registered")
	}
	return &Handlers{svc: svc, replay: replay, idemTTL: ttl}
}

//
// DTOs shared by list endpoints
//

// Pagination carries pagination metadata for list responses.
type Pagination struct {
	Page       int   `json:"page"`
	PageSize   int   `json:"page_size"`
	Total      int64 `json:"total"`
	TotalPages int   `json:"total_pages"`
	HasNext    bool  `json:"has_next"`
}

//
// Helpers
//

// clampPagination parses and bounds page and page_size query params to sane
// defaults and limits, returning (page, pageSize).
func clampPagination(c *gin.Context) (page, pageSize int) {
	page = utils.AtoiDefault(c.Query("page"), 1)
	if page < 1 {
		page = 1
	}
	pageSize = utils.Clamp(utils.AtoiDefault(c.Query("page_size"), ledger.DefaultPageSize), 1, ledger.MaxPageSize)
	return
}

// workDate resolves a YYYY-MM-DD value, falling back to the service's
// current working date when empty. On a malformed value it writes a 400 and
// returns false.
func (h *Handlers) workDate(c *gin.Context, raw string) (time.Time, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return h.svc.Today(), true
	}
	d, err := domain.ParseDay(raw)
	if err != nil {
		fail(c, http.StatusBadRequest, ErrCodeInvalidDate, "fecha must be YYYY-MM-DD")
		return time.Time{}, false
	}
	return d, true
}

// recordID parses the :id path parameter. On failure it writes a 400 and
// returns false.
func recordID(c *gin.Context) (uint, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 0)
	if err != nil || id == 0 {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "id must be a positive integer")
		return 0, false
	}
	return uint(id), true
}

// idempotencyKey returns the key validated by the idempotency middleware,
// falling back to the raw header when no middleware is installed.
func idempotencyKey(c *gin.Context) string {
	if k, ok := middleware.GetIdempotencyKey(c); ok {
		return k
	}
	return strings.TrimSpace(c.GetHeader(middleware.HeaderIdempotencyKey))
}

// classify maps a domain error to its HTTP status and error code.
func classify(err error) (int, string) {
	switch {
	case errors.Is(err, ledger.ErrInvalidCode):
		return http.StatusBadRequest, ErrCodeInvalidCode
	case errors.Is(err, ledger.ErrInvalidCarrier):
		return http.StatusBadRequest, ErrCodeInvalidCarrier
	case errors.Is(err, ledger.ErrDuplicate):
		return http.StatusConflict, ErrCodeConflict
	case errors.Is(err, ledger.ErrNotFound):
		return http.StatusNotFound, ErrCodeNotFound
	case errors.Is(err, services.ErrNoRecords):
		return http.StatusNotFound, ErrCodeNotFound
	case errors.Is(err, services.ErrUnsupportedFormat):
		return http.StatusBadRequest, ErrCodeInvalidFormat
	case errors.Is(err, services.ErrEmptyBatch):
		return http.StatusBadRequest, ErrCodeEmptyBatch
	case errors.Is(err, services.ErrBatchTooLarge):
		return http.StatusRequestEntityTooLarge, ErrCodeBatchTooLarge
	case errors.Is(err, ledger.ErrStoreUnavailable), errors.Is(err, context.DeadlineExceeded):
		return http.StatusServiceUnavailable, ErrCodeStoreUnavailable
	case errors.Is(err, ledger.ErrStore):
		return http.StatusInternalServerError, ErrCodeStoreError
	default:
		return http.StatusInternalServerError, ErrCodeInternal
	}
}

// failErr writes the envelope for a service error. Duplicates carry the id
// of the record already holding the code.
func failErr(c *gin.Context, err error) {
	var dup *ledger.DuplicateError
	if errors.As(err, &dup) {
		conflict(c, dup.Code, dup.ExistingID, err.Error())
		return
	}
	status, code := classify(err)
	fail(c, status, code, err.Error())
}
