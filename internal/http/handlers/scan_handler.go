// Scan HTTP handlers.
//
// This file exposes REST endpoints for scan records:
//   - POST   /registros           (admit one scanned code, idempotent with a key)
//   - GET    /registros           (list a date's records, paginated, ETag support)
//   - PATCH  /registros/{id}      (correct the carrier of a record)
//   - DELETE /registros/{id}      (remove a record)
//   - GET    /registros/counts    (per-carrier counts of a date)
//   - POST   /registros/refresh   (reload a date's working set from the store)
//
// Handlers are transport-thin: they validate input, call the ScanService,
// and translate results into HTTP responses (including conditional responses).
package handlers

import (
	"fmt"
	"hash/fnv"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/go-guias-backend/internal/carrier"
	"github.com/tbourn/go-guias-backend/internal/domain"
	"github.com/tbourn/go-guias-backend/internal/http/middleware"
	"github.com/tbourn/go-guias-backend/internal/ledger"
)

//
// DTOs
//

// CreateScanRequest is the JSON payload for admitting one scanned code.
type CreateScanRequest struct {
	// Codigo is the raw scanner reading; it is normalized server-side.
	Codigo string `json:"codigo" example:"024000123456"`
	// Fecha optionally selects the working date (YYYY-MM-DD); today when empty.
	Fecha string `json:"fecha,omitempty" example:"2024-03-05"`
}

// UpdateCarrierRequest is the JSON payload for correcting a record's carrier.
type UpdateCarrierRequest struct {
	Transportadora string `json:"transportadora" binding:"required,carrier" example:"SERVIENTREGA"`
}

// ListScansResponse wraps a page of records and pagination information.
type ListScansResponse struct {
	Fecha      string              `json:"fecha" example:"2024-03-05"`
	Registros  []domain.ScanRecord `json:"registros"`
	Pagination Pagination          `json:"pagination"`
}

// CountsResponse reports how many records each carrier holds on a date.
// Every carrier is present, with zero when it has no records.
type CountsResponse struct {
	Fecha  string             `json:"fecha" example:"2024-03-05"`
	Counts map[carrier.ID]int `json:"counts"`
	Total  int                `json:"total" example:"246"`
}

// RefreshResponse reports the size of a reloaded working set.
type RefreshResponse struct {
	Fecha     string `json:"fecha" example:"2024-03-05"`
	Registros int    `json:"registros" example:"246"`
}

//
// Handlers
//

// CreateScan godoc
// @ID          createScan
// @Summary     Admit a scanned code
// @Description Normalizes the code, classifies its carrier and stores it for the working date.
// @Description Supports idempotency via the Idempotency-Key header (same key → same record, 200).
// @Tags        Registros
// @Accept      json
// @Produce     json
//
// @Param       X-Station-ID     header  string  false "Scan desk identifier"  example(desk-1)
// @Param       Idempotency-Key  header  string  false "Idempotency key for safe retries"  example(7a8d9f4c-1b2a-4c3d-8e9f-0123456789ab)
// @Param       body             body    handlers.CreateScanRequest  true  "Scanned code"
//
// @Success     201  {object}  domain.ScanRecord          "Created"
// @Success     200  {object}  domain.ScanRecord          "Replayed"
// @Failure     400  {object}  handlers.ErrorResponse     "Invalid code or date"
// @Failure     409  {object}  handlers.ConflictResponse  "Code already scanned"
// @Failure     500  {object}  handlers.ErrorResponse     "Store error"
// @Failure     503  {object}  handlers.ErrorResponse     "Store unavailable"
// @Router      /registros [post]
func (h *Handlers) CreateScan(c *gin.Context) {
	ctx := c.Request.Context()

	var req CreateScanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "invalid JSON body")
		return
	}
	date, okDate := h.workDate(c, req.Fecha)
	if !okDate {
		return
	}

	// Idempotency (replay path).
	scope := middleware.IdempotencyScope(c)
	idemKey := idempotencyKey(c)
	if idemKey != "" && h.replay != nil {
		if prev, err := h.replay.Replay(ctx, scope, idemKey, time.Now().UTC()); err == nil && prev != nil {
			c.Header(HeaderReplayed, "true")
			ok(c, http.StatusOK, prev)
			return
		}
	}

	rec, err := h.svc.Admit(ctx, date, req.Codigo)
	if err != nil {
		failErr(c, err)
		return
	}

	// Idempotency (store path) – best effort.
	if idemKey != "" && h.replay != nil {
		if err := h.replay.Remember(ctx, scope, idemKey, rec.ID, http.StatusCreated, h.idemTTL); err != nil {
			middleware.LoggerFrom(c).Warn().Err(err).Str("idempotency_key", idemKey).Msg("idempotency record not stored")
		}
	}

	ok(c, http.StatusCreated, rec)
}

// ListScans godoc
// @ID          listScans
// @Summary     List records of a date (paginated)
// @Description Returns a filtered page of the date's records in scan order. Supports weak ETag via If-None-Match and may return 304.
// @Tags        Registros
// @Produce     json
//
// @Param       If-None-Match   header  string  false "Return 304 if ETag matches"  example(W/\"abc123\")
// @Param       fecha           query   string  false "Working date (YYYY-MM-DD), today when empty"  example(2024-03-05)
// @Param       transportadora  query   string  false "Carrier filter"  example(ENVIA)
// @Param       q               query   string  false "Case-insensitive code substring"
// @Param       page            query   int     false "Page number"     minimum(1) default(1)
// @Param       page_size       query   int     false "Items per page"  minimum(1) maximum(200) default(20)
//
// @Success     200  {object} handlers.ListScansResponse
// @Header      200  {string} ETag  "Weak ETag for current result"
// @Success     304  {string} string "Not Modified"
// @Failure     400  {object} handlers.ErrorResponse "Bad request"
// @Failure     503  {object} handlers.ErrorResponse "Store unavailable"
// @Router      /registros [get]
func (h *Handlers) ListScans(c *gin.Context) {
	ctx := c.Request.Context()
	date, okDate := h.workDate(c, c.Query("fecha"))
	if !okDate {
		return
	}
	var cr carrier.ID
	if raw := strings.TrimSpace(c.Query("transportadora")); raw != "" {
		parsed, err := carrier.Parse(raw)
		if err != nil {
			fail(c, http.StatusBadRequest, ErrCodeInvalidCarrier, err.Error())
			return
		}
		cr = parsed
	}
	page, pageSize := clampPagination(c)
	q := ledger.Query{
		Date:     date,
		Carrier:  cr,
		Search:   strings.TrimSpace(c.Query("q")),
		Page:     page,
		PageSize: pageSize,
	}

	// ETag pre-check (best effort).
	if version, err := h.svc.Version(ctx, date); err == nil {
		etag := fmt.Sprintf(`W/"registros:%s:%s:%08x"`, domain.FormatDay(date), version, queryHash(q))
		c.Header("ETag", etag)
		if inm := c.GetHeader("If-None-Match"); inm != "" && inm == etag {
			c.Status(http.StatusNotModified)
			return
		}
	}

	sel, err := h.svc.List(ctx, q)
	if err != nil {
		failErr(c, err)
		return
	}
	items := sel.Items
	if items == nil {
		items = []domain.ScanRecord{}
	}
	ok(c, http.StatusOK, ListScansResponse{
		Fecha:     domain.FormatDay(date),
		Registros: items,
		Pagination: Pagination{
			Page:       sel.Page,
			PageSize:   sel.PageSize,
			Total:      int64(sel.Total),
			TotalPages: sel.TotalPages,
			HasNext:    sel.HasNext(),
		},
	})
}

// UpdateCarrier godoc
// @ID          updateCarrier
// @Summary     Correct the carrier of a record
// @Tags        Registros
// @Accept      json
// @Produce     json
//
// @Param       id    path  int  true  "Record ID"  minimum(1)
// @Param       body  body  handlers.UpdateCarrierRequest  true  "New carrier"
//
// @Success     200  {object} domain.ScanRecord
// @Failure     400  {object} handlers.ErrorResponse "Bad request or unknown carrier"
// @Failure     404  {object} handlers.ErrorResponse "Record not found"
// @Failure     503  {object} handlers.ErrorResponse "Store unavailable"
// @Router      /registros/{id} [patch]
func (h *Handlers) UpdateCarrier(c *gin.Context) {
	id, okID := recordID(c)
	if !okID {
		return
	}
	var req UpdateCarrierRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeInvalidCarrier, "transportadora must be one of the known carriers")
		return
	}
	cr, err := carrier.Parse(req.Transportadora)
	if err != nil {
		fail(c, http.StatusBadRequest, ErrCodeInvalidCarrier, err.Error())
		return
	}

	rec, err := h.svc.CorrectCarrier(c.Request.Context(), id, cr)
	if err != nil {
		failErr(c, err)
		return
	}
	ok(c, http.StatusOK, rec)
}

// DeleteScan godoc
// @ID          deleteScan
// @Summary     Remove a record
// @Tags        Registros
//
// @Param       id  path  int  true  "Record ID"  minimum(1)
//
// @Success     204  {string} string "No Content"
// @Failure     400  {object} handlers.ErrorResponse "Bad request"
// @Failure     404  {object} handlers.ErrorResponse "Record not found"
// @Failure     503  {object} handlers.ErrorResponse "Store unavailable"
// @Router      /registros/{id} [delete]
func (h *Handlers) DeleteScan(c *gin.Context) {
	id, okID := recordID(c)
	if !okID {
		return
	}
	if err := h.svc.Remove(c.Request.Context(), id); err != nil {
		failErr(c, err)
		return
	}
	noContent(c)
}

// CountScans godoc
// @ID          countScans
// @Summary     Per-carrier counts of a date
// @Tags        Registros
// @Produce     json
//
// @Param       fecha  query  string  false "Working date (YYYY-MM-DD), today when empty"
//
// @Success     200  {object} handlers.CountsResponse
// @Failure     400  {object} handlers.ErrorResponse "Bad request"
// @Failure     503  {object} handlers.ErrorResponse "Store unavailable"
// @Router      /registros/counts [get]
func (h *Handlers) CountScans(c *gin.Context) {
	date, okDate := h.workDate(c, c.Query("fecha"))
	if !okDate {
		return
	}
	counts, err := h.svc.Counts(c.Request.Context(), date)
	if err != nil {
		failErr(c, err)
		return
	}
	total := 0
	for _, n := range counts {
		total += n
	}
	ok(c, http.StatusOK, CountsResponse{Fecha: domain.FormatDay(date), Counts: counts, Total: total})
}

// RefreshScans godoc
// @ID          refreshScans
// @Summary     Reload a date's records from the store
// @Description Discards the in-memory working set and reads it again, picking up writes from other processes.
// @Tags        Registros
// @Produce     json
//
// @Param       fecha  query  string  false "Working date (YYYY-MM-DD), today when empty"
//
// @Success     200  {object} handlers.RefreshResponse
// @Failure     400  {object} handlers.ErrorResponse "Bad request"
// @Failure     503  {object} handlers.ErrorResponse "Store unavailable"
// @Router      /registros/refresh [post]
func (h *Handlers) RefreshScans(c *gin.Context) {
	date, okDate := h.workDate(c, c.Query("fecha"))
	if !okDate {
		return
	}
	n, err := h.svc.Refresh(c.Request.Context(), date)
	if err != nil {
		failErr(c, err)
		return
	}
	ok(c, http.StatusOK, RefreshResponse{Fecha: domain.FormatDay(date), Registros: n})
}

// queryHash folds the filter and page of q into the list ETag.
func queryHash(q ledger.Query) uint32 {
	h := fnv.New32a()
	fmt.Fprintf(h, "%s|%s|%d|%d", q.Carrier, strings.ToLower(q.Search), q.Page, q.PageSize)
	return h.Sum32()
}
