package handlers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/tbourn/go-guias-backend/internal/carrier"
	"github.com/tbourn/go-guias-backend/internal/domain"
	"github.com/tbourn/go-guias-backend/internal/http/middleware"
	"github.com/tbourn/go-guias-backend/internal/ledger"
	"github.com/tbourn/go-guias-backend/internal/repo"
)

func TestCreateScan_CreatedDuplicateAndInvalid(t *testing.T) {
	svc, _ := newRealService(t)
	r := newRouter(New(svc, nil, 0))

	w := doJSON(t, r, http.MethodPost, "/registros", CreateScanRequest{Codigo: "024000001"})
	if w.Code != http.StatusCreated {
		t.Fatalf("create: %d %s", w.Code, w.Body.String())
	}
	rec := decode[domain.ScanRecord](t, w)
	if rec.ID == 0 || rec.Carrier != carrier.Envia || domain.FormatDay(rec.Date) != "2024-03-05" {
		t.Fatalf("unexpected record: %+v", rec)
	}

	// duplicate → 409 with the existing id
	w = doJSON(t, r, http.MethodPost, "/registros", CreateScanRequest{Codigo: "024000001"})
	if w.Code != http.StatusConflict {
		t.Fatalf("duplicate: %d", w.Code)
	}
	cr := decode[ConflictResponse](t, w)
	if cr.Code != ErrCodeConflict || cr.ExistingID != rec.ID || cr.Codigo != "024000001" {
		t.Fatalf("unexpected conflict body: %+v", cr)
	}

	// empty code → 400 invalid_code
	w = doJSON(t, r, http.MethodPost, "/registros", CreateScanRequest{Codigo: ""})
	if w.Code != http.StatusBadRequest || decode[ErrorResponse](t, w).Code != ErrCodeInvalidCode {
		t.Fatalf("invalid code: %d %s", w.Code, w.Body.String())
	}

	// malformed date → 400 invalid_date
	w = doJSON(t, r, http.MethodPost, "/registros", CreateScanRequest{Codigo: "609000001", Fecha: "05/03/2024"})
	if w.Code != http.StatusBadRequest || decode[ErrorResponse](t, w).Code != ErrCodeInvalidDate {
		t.Fatalf("invalid date: %d %s", w.Code, w.Body.String())
	}

	// the same code on another date is a separate working set
	w = doJSON(t, r, http.MethodPost, "/registros", CreateScanRequest{Codigo: "024000001", Fecha: "2024-03-04"})
	if w.Code != http.StatusCreated {
		t.Fatalf("other date: %d %s", w.Code, w.Body.String())
	}

	// bad JSON → 400 bad_request
	req := httptest.NewRequest(http.MethodPost, "/registros", strings.NewReader("{"))
	req.Header.Set("Content-Type", "application/json")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if w.Code != http.StatusBadRequest || decode[ErrorResponse](t, w).Code != ErrCodeBadRequest {
		t.Fatalf("bad json: %d %s", w.Code, w.Body.String())
	}
}

func TestCreateScan_BlankAndScannerTerminators(t *testing.T) {
	svc, _ := newRealService(t)
	r := newRouter(New(svc, nil, 0))

	for _, raw := range []string{"   ", "\r\n", "\t"} {
		w := doJSON(t, r, http.MethodPost, "/registros", CreateScanRequest{Codigo: raw})
		if w.Code != http.StatusBadRequest || decode[ErrorResponse](t, w).Code != ErrCodeInvalidCode {
			t.Fatalf("blank %q: %d %s", raw, w.Code, w.Body.String())
		}
	}

	w := doJSON(t, r, http.MethodPost, "/registros", CreateScanRequest{Codigo: "0240123\r\n"})
	if w.Code != http.StatusCreated {
		t.Fatalf("create: %d %s", w.Code, w.Body.String())
	}
	if rec := decode[domain.ScanRecord](t, w); rec.Code != "0240123" {
		t.Fatalf("stored code = %q", rec.Code)
	}
	w = doJSON(t, r, http.MethodPost, "/registros", CreateScanRequest{Codigo: "0240123"})
	if w.Code != http.StatusConflict {
		t.Fatalf("same code without terminator: %d %s", w.Code, w.Body.String())
	}
}

func TestCreateScan_IdempotentReplay(t *testing.T) {
	svc, db := newRealService(t)
	r := newRouter(New(svc, dbReplay{db: db}, time.Hour))

	w := doJSON(t, r, http.MethodPost, "/registros", CreateScanRequest{Codigo: "363000001"},
		middleware.HeaderIdempotencyKey, "key-1")
	if w.Code != http.StatusCreated {
		t.Fatalf("first: %d %s", w.Code, w.Body.String())
	}
	first := decode[domain.ScanRecord](t, w)

	w = doJSON(t, r, http.MethodPost, "/registros", CreateScanRequest{Codigo: "363000001"},
		middleware.HeaderIdempotencyKey, "key-1")
	if w.Code != http.StatusOK || w.Header().Get(HeaderReplayed) != "true" {
		t.Fatalf("replay: %d headers=%v", w.Code, w.Header())
	}
	if again := decode[domain.ScanRecord](t, w); again.ID != first.ID {
		t.Fatalf("replayed id %d, want %d", again.ID, first.ID)
	}

	// a new key for the same code is a genuine duplicate
	w = doJSON(t, r, http.MethodPost, "/registros", CreateScanRequest{Codigo: "363000001"},
		middleware.HeaderIdempotencyKey, "key-2")
	if w.Code != http.StatusConflict {
		t.Fatalf("new key: %d", w.Code)
	}
}

func TestCreateScan_StoreFailures(t *testing.T) {
	cases := []struct {
		err    error
		status int
		code   string
	}{
		{fmt.Errorf("%w: deadline", ledger.ErrStoreUnavailable), http.StatusServiceUnavailable, ErrCodeStoreUnavailable},
		{fmt.Errorf("%w: disk I/O", ledger.ErrStore), http.StatusInternalServerError, ErrCodeStoreError},
	}
	for _, tc := range cases {
		f := &fakeSvc{
			today: workDay,
			admit: func(time.Time, string) (*domain.ScanRecord, error) { return nil, tc.err },
		}
		w := doJSON(t, newRouter(New(f, nil, 0)), http.MethodPost, "/registros", CreateScanRequest{Codigo: "024000001"})
		if w.Code != tc.status || decode[ErrorResponse](t, w).Code != tc.code {
			t.Fatalf("%v: got %d %s", tc.err, w.Code, w.Body.String())
		}
	}
}

func TestListScans_PaginationFilterAndETag(t *testing.T) {
	svc, _ := newRealService(t)
	r := newRouter(New(svc, nil, 0))
	for _, code := range []string{"024000001", "609000001", "024000002"} {
		if w := doJSON(t, r, http.MethodPost, "/registros", CreateScanRequest{Codigo: code}); w.Code != http.StatusCreated {
			t.Fatalf("seed %s: %d", code, w.Code)
		}
	}

	w := doJSON(t, r, http.MethodGet, "/registros?page_size=2", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("list: %d %s", w.Code, w.Body.String())
	}
	page := decode[ListScansResponse](t, w)
	if page.Fecha != "2024-03-05" || page.Pagination.Total != 3 || len(page.Registros) != 2 ||
		!page.Pagination.HasNext || page.Pagination.TotalPages != 2 {
		t.Fatalf("unexpected page: %+v", page)
	}
	if page.Registros[0].Code != "024000001" || page.Registros[1].Code != "609000001" {
		t.Fatalf("records out of scan order: %+v", page.Registros)
	}

	etag := w.Header().Get("ETag")
	if !strings.HasPrefix(etag, `W/"registros:2024-03-05:`) {
		t.Fatalf("unexpected etag %q", etag)
	}
	w = doJSON(t, r, http.MethodGet, "/registros?page_size=2", nil, "If-None-Match", etag)
	if w.Code != http.StatusNotModified {
		t.Fatalf("expected 304, got %d", w.Code)
	}

	// a different page is a different representation
	w = doJSON(t, r, http.MethodGet, "/registros?page=2&page_size=2", nil, "If-None-Match", etag)
	if w.Code != http.StatusOK {
		t.Fatalf("page 2 with stale etag: %d", w.Code)
	}

	// writes change the etag
	doJSON(t, r, http.MethodPost, "/registros", CreateScanRequest{Codigo: "859000001"})
	w = doJSON(t, r, http.MethodGet, "/registros?page_size=2", nil, "If-None-Match", etag)
	if w.Code != http.StatusOK || w.Header().Get("ETag") == etag {
		t.Fatalf("etag did not change after write: %d %q", w.Code, w.Header().Get("ETag"))
	}

	// carrier filter and search
	w = doJSON(t, r, http.MethodGet, "/registros?transportadora=envia&q=0002", nil)
	got := decode[ListScansResponse](t, w)
	if got.Pagination.Total != 1 || got.Registros[0].Code != "024000002" {
		t.Fatalf("filtered list: %+v", got)
	}

	// unknown carrier → 400
	w = doJSON(t, r, http.MethodGet, "/registros?transportadora=DHL", nil)
	if w.Code != http.StatusBadRequest || decode[ErrorResponse](t, w).Code != ErrCodeInvalidCarrier {
		t.Fatalf("bad carrier: %d %s", w.Code, w.Body.String())
	}

	// empty date renders an empty list, not null
	w = doJSON(t, r, http.MethodGet, "/registros?fecha=2020-01-01", nil)
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), `"registros":[]`) {
		t.Fatalf("empty list: %d %s", w.Code, w.Body.String())
	}
}

func TestListScans_VersionErrorSkipsETag(t *testing.T) {
	f := &fakeSvc{
		today:  workDay,
		verErr: errors.New("stats unavailable"),
		list: func(q ledger.Query) (ledger.Selection, error) {
			return ledger.Selection{Page: q.Page, PageSize: q.PageSize}, nil
		},
	}
	w := doJSON(t, newRouter(New(f, nil, 0)), http.MethodGet, "/registros", nil)
	if w.Code != http.StatusOK || w.Header().Get("ETag") != "" {
		t.Fatalf("got %d etag=%q", w.Code, w.Header().Get("ETag"))
	}
}

func TestUpdateCarrier(t *testing.T) {
	svc, _ := newRealService(t)
	r := newRouter(New(svc, nil, 0))
	rec := decode[domain.ScanRecord](t, doJSON(t, r, http.MethodPost, "/registros", CreateScanRequest{Codigo: "999999"}))
	if rec.Carrier != carrier.Unknown {
		t.Fatalf("expected UNKNOWN, got %s", rec.Carrier)
	}

	path := fmt.Sprintf("/registros/%d", rec.ID)
	w := doJSON(t, r, http.MethodPatch, path, UpdateCarrierRequest{Transportadora: "servientrega"})
	if w.Code != http.StatusOK {
		t.Fatalf("patch: %d %s", w.Code, w.Body.String())
	}
	if got := decode[domain.ScanRecord](t, w); got.ID != rec.ID || got.Carrier != carrier.Servientrega {
		t.Fatalf("unexpected record: %+v", got)
	}

	counts := decode[CountsResponse](t, doJSON(t, r, http.MethodGet, "/registros/counts", nil))
	if counts.Counts[carrier.Servientrega] != 1 || counts.Counts[carrier.Unknown] != 0 {
		t.Fatalf("counts after correction: %+v", counts)
	}

	cases := []struct {
		path   string
		body   any
		status int
		code   string
	}{
		{path, UpdateCarrierRequest{Transportadora: "DHL"}, http.StatusBadRequest, ErrCodeInvalidCarrier},
		{path, map[string]string{}, http.StatusBadRequest, ErrCodeInvalidCarrier},
		{"/registros/999", UpdateCarrierRequest{Transportadora: "TCC"}, http.StatusNotFound, ErrCodeNotFound},
		{"/registros/abc", UpdateCarrierRequest{Transportadora: "TCC"}, http.StatusBadRequest, ErrCodeBadRequest},
		{"/registros/0", UpdateCarrierRequest{Transportadora: "TCC"}, http.StatusBadRequest, ErrCodeBadRequest},
	}
	for _, tc := range cases {
		w := doJSON(t, r, http.MethodPatch, tc.path, tc.body)
		if w.Code != tc.status || decode[ErrorResponse](t, w).Code != tc.code {
			t.Errorf("PATCH %s %v: got %d %s", tc.path, tc.body, w.Code, w.Body.String())
		}
	}
}

func TestDeleteScan(t *testing.T) {
	svc, _ := newRealService(t)
	r := newRouter(New(svc, nil, 0))
	rec := decode[domain.ScanRecord](t, doJSON(t, r, http.MethodPost, "/registros", CreateScanRequest{Codigo: "219000001"}))

	path := fmt.Sprintf("/registros/%d", rec.ID)
	if w := doJSON(t, r, http.MethodDelete, path, nil); w.Code != http.StatusNoContent {
		t.Fatalf("delete: %d %s", w.Code, w.Body.String())
	}
	if w := doJSON(t, r, http.MethodDelete, path, nil); w.Code != http.StatusNotFound {
		t.Fatalf("second delete: %d", w.Code)
	}
	// the code can be scanned again once removed
	if w := doJSON(t, r, http.MethodPost, "/registros", CreateScanRequest{Codigo: "219000001"}); w.Code != http.StatusCreated {
		t.Fatalf("rescan: %d", w.Code)
	}
}

func TestCountScans_ZeroFilled(t *testing.T) {
	svc, _ := newRealService(t)
	r := newRouter(New(svc, nil, 0))
	for _, code := range []string{"024000001", "024000002", "609000001"} {
		doJSON(t, r, http.MethodPost, "/registros", CreateScanRequest{Codigo: code})
	}

	w := doJSON(t, r, http.MethodGet, "/registros/counts?fecha=2024-03-05", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("counts: %d", w.Code)
	}
	got := decode[CountsResponse](t, w)
	if got.Total != 3 || got.Counts[carrier.Envia] != 2 || got.Counts[carrier.TCC] != 1 {
		t.Fatalf("unexpected counts: %+v", got)
	}
	for _, c := range carrier.All() {
		if _, ok := got.Counts[c]; !ok {
			t.Errorf("carrier %s missing from counts", c)
		}
	}

	if w := doJSON(t, r, http.MethodGet, "/registros/counts?fecha=bad", nil); w.Code != http.StatusBadRequest {
		t.Fatalf("bad date: %d", w.Code)
	}
}

func TestRefreshScans_PicksUpExternalWrites(t *testing.T) {
	svc, db := newRealService(t)
	r := newRouter(New(svc, nil, 0))
	doJSON(t, r, http.MethodPost, "/registros", CreateScanRequest{Codigo: "024000001"})

	// another process writes directly to the store
	if _, err := repo.CreateScan(context.Background(), db, "609000009", workDay, carrier.TCC); err != nil {
		t.Fatalf("external write: %v", err)
	}

	w := doJSON(t, r, http.MethodPost, "/registros/refresh", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("refresh: %d %s", w.Code, w.Body.String())
	}
	if got := decode[RefreshResponse](t, w); got.Registros != 2 || got.Fecha != "2024-03-05" {
		t.Fatalf("unexpected refresh: %+v", got)
	}
	// the refreshed working set now rejects the external code
	if w := doJSON(t, r, http.MethodPost, "/registros", CreateScanRequest{Codigo: "609000009"}); w.Code != http.StatusConflict {
		t.Fatalf("expected conflict after refresh, got %d", w.Code)
	}
}
