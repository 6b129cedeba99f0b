package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/tbourn/go-guias-backend/internal/http/middleware"
)

// responseRouter runs the real RequestID and Logger middleware with the
// global logger pointed at buf.
func responseRouter(t *testing.T, buf *bytes.Buffer) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	prev := log.Logger
	t.Cleanup(func() { log.Logger = prev })
	log.Logger = zerolog.New(buf)

	r := gin.New()
	r.Use(middleware.RequestID(), middleware.Logger())
	r.GET("/boom", func(c *gin.Context) { fail(c, http.StatusServiceUnavailable, ErrCodeStoreUnavailable, "ledger store unavailable") })
	r.GET("/missing", func(c *gin.Context) { Fail(c, http.StatusNotFound, ErrCodeNotFound, "record 9 not found") })
	r.POST("/dup", func(c *gin.Context) { conflict(c, "024000123456", 41, "code already scanned") })
	r.GET("/ok", func(c *gin.Context) { ok(c, http.StatusCreated, gin.H{"id": 1}) })
	r.DELETE("/gone", noContent)
	return r
}

func call(r *gin.Engine, method, path string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	req.Header.Set(middleware.HeaderRequestID, "rid-1")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestFail_Envelope(t *testing.T) {
	var buf bytes.Buffer
	r := responseRouter(t, &buf)

	cases := []struct {
		path   string
		status int
		code   string
		logged bool
	}{
		{"/boom", http.StatusServiceUnavailable, ErrCodeStoreUnavailable, true},
		{"/missing", http.StatusNotFound, ErrCodeNotFound, false},
	}
	for _, tc := range cases {
		buf.Reset()
		w := call(r, http.MethodGet, tc.path)
		if w.Code != tc.status {
			t.Fatalf("%s: status %d", tc.path, w.Code)
		}
		var body ErrorResponse
		if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
			t.Fatal(err)
		}
		if body.RequestID != "rid-1" || body.Code != tc.code || body.Message == "" {
			t.Fatalf("%s: body %+v", tc.path, body)
		}
		if got := strings.Contains(buf.String(), `"message":"request failed"`); got != tc.logged {
			t.Fatalf("%s: failure logged=%v, log:\n%s", tc.path, got, buf.String())
		}
	}
}

func TestFail_RequestIDFromHeaderWithoutMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/", nil)
	c.Writer.Header().Set(middleware.HeaderRequestID, "from-header")

	fail(c, http.StatusBadRequest, ErrCodeBadRequest, "bad")
	if !c.IsAborted() || !strings.Contains(w.Body.String(), `"request_id":"from-header"`) {
		t.Fatalf("body %s", w.Body.String())
	}
}

func TestConflict(t *testing.T) {
	r := responseRouter(t, &bytes.Buffer{})
	w := call(r, http.MethodPost, "/dup")
	if w.Code != http.StatusConflict {
		t.Fatalf("status %d", w.Code)
	}
	var body ConflictResponse
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatal(err)
	}
	if body.RequestID != "rid-1" || body.Code != ErrCodeConflict || body.Codigo != "024000123456" || body.ExistingID != 41 {
		t.Fatalf("body %+v", body)
	}
}

func TestSuccessHelpers(t *testing.T) {
	r := responseRouter(t, &bytes.Buffer{})
	if w := call(r, http.MethodGet, "/ok"); w.Code != http.StatusCreated || strings.TrimSpace(w.Body.String()) != `{"id":1}` {
		t.Fatalf("ok: %d %s", w.Code, w.Body.String())
	}
	if w := call(r, http.MethodDelete, "/gone"); w.Code != http.StatusNoContent || w.Body.Len() != 0 {
		t.Fatalf("noContent: %d %q", w.Code, w.Body.String())
	}
}
