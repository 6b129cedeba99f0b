package middleware

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// captureLogs swaps the global logger for one writing JSON lines to a buffer.
func captureLogs(t *testing.T) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	prev := log.Logger
	t.Cleanup(func() { log.Logger = prev })
	log.Logger = zerolog.New(&buf)
	return &buf
}

// logLines decodes every captured log line.
func logLines(t *testing.T, buf *bytes.Buffer) []map[string]any {
	t.Helper()
	var out []map[string]any
	for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		if line == "" {
			continue
		}
		var m map[string]any
		if err := json.Unmarshal([]byte(line), &m); err != nil {
			t.Fatalf("bad log line %q: %v", line, err)
		}
		out = append(out, m)
	}
	return out
}

func accessLog(t *testing.T, buf *bytes.Buffer, path string) map[string]any {
	t.Helper()
	for _, m := range logLines(t, buf) {
		if m["message"] == "request" && m["path"] == path {
			return m
		}
	}
	t.Fatalf("no access log for %s in:\n%s", path, buf.String())
	return nil
}

func TestRequestID(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(RequestID())
	var seen string
	r.GET("/rid", func(c *gin.Context) {
		seen = RequestIDFrom(c)
		c.Status(http.StatusNoContent)
	})

	cases := []struct {
		name, in string
		echoed   bool
	}{
		{"absent", "", false},
		{"well formed", "desk-1:42", true},
		{"uuid", "123e4567-e89b-12d3-a456-426614174000", true},
		{"spaces", "a b", false},
		{"too long", strings.Repeat("x", 65), false},
	}
	for _, tc := range cases {
		req := httptest.NewRequest(http.MethodGet, "/rid", nil)
		if tc.in != "" {
			req.Header.Set(strings.ToLower(HeaderRequestID), tc.in)
		}
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)

		got := w.Header().Get(HeaderRequestID)
		if got == "" || got != seen {
			t.Fatalf("%s: header %q, context %q", tc.name, got, seen)
		}
		if (got == tc.in) != tc.echoed {
			t.Fatalf("%s: got %q, echoed=%v", tc.name, got, tc.echoed)
		}
	}

	if RequestIDFrom(nil) != "" {
		t.Fatalf("nil context must yield empty id")
	}
}

func TestLogger_LevelsByOutcome(t *testing.T) {
	gin.SetMode(gin.TestMode)
	buf := captureLogs(t)

	r := gin.New()
	r.Use(RequestID(), Logger())
	r.POST("/registros", func(c *gin.Context) { c.Status(http.StatusCreated) })
	r.POST("/dup", func(c *gin.Context) { c.Status(http.StatusConflict) })
	r.GET("/bad", func(c *gin.Context) { c.Status(http.StatusBadRequest) })
	r.GET("/down", func(c *gin.Context) { c.Status(http.StatusServiceUnavailable) })
	r.GET("/gin-error", func(c *gin.Context) {
		_ = c.Error(errors.New("boom"))
		c.Status(http.StatusOK)
	})

	for _, p := range []struct{ method, path string }{
		{http.MethodPost, "/registros"},
		{http.MethodPost, "/dup"},
		{http.MethodGet, "/bad"},
		{http.MethodGet, "/down"},
		{http.MethodGet, "/gin-error"},
		{http.MethodGet, "/missing?fecha=2024-03-05"},
	} {
		r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(p.method, p.path, nil))
	}

	want := map[string]string{
		"/registros": "info",
		"/dup":       "info",
		"/bad":       "warn",
		"/down":      "error",
		"/gin-error": "error",
		"/missing":   "warn",
	}
	for path, level := range want {
		if got := accessLog(t, buf, path)["level"]; got != level {
			t.Errorf("%s logged at %v, want %s", path, got, level)
		}
	}
	if m := accessLog(t, buf, "/missing"); m["query"] != "fecha=2024-03-05" || m["status"] != float64(404) {
		t.Fatalf("raw path fallback: %v", m)
	}
}

func TestLogger_StationReplayAndContextLogger(t *testing.T) {
	gin.SetMode(gin.TestMode)
	buf := captureLogs(t)

	r := gin.New()
	r.Use(RequestID(), Logger(), IdempotencyValidator(IdempotencyOptions{}, nil))
	r.POST("/registros", func(c *gin.Context) {
		zerolog.Ctx(c.Request.Context()).Info().Msg("from-service")
		LoggerFrom(c).Info().Msg("from-handler")
		c.Status(http.StatusCreated)
	})

	req := httptest.NewRequest(http.MethodPost, "/registros", nil)
	req.Header.Set(HeaderStationID, "desk-3")
	req.Header.Set(HeaderIdempotencyKey, "scan-7")
	req.Header.Set(HeaderRequestID, "rid-1")
	r.ServeHTTP(httptest.NewRecorder(), req)

	for _, m := range logLines(t, buf) {
		if m["request_id"] != "rid-1" || m["station"] != "desk-3" {
			t.Fatalf("line missing request fields: %v", m)
		}
	}
	m := accessLog(t, buf, "/registros")
	if m["idempotency_key"] != "scan-7" || m["replayed"] != false {
		t.Fatalf("idempotency fields: %v", m)
	}
	if n := len(logLines(t, buf)); n != 3 {
		t.Fatalf("expected 3 log lines, got %d", n)
	}
}

func TestRecovery(t *testing.T) {
	gin.SetMode(gin.TestMode)
	buf := captureLogs(t)

	r := gin.New()
	r.Use(RequestID(), Logger(), Recovery())
	r.GET("/panic", func(*gin.Context) { panic("kaboom") })
	r.GET("/panic-after-write", func(c *gin.Context) {
		c.String(http.StatusOK, "partial")
		panic("late")
	})

	req := httptest.NewRequest(http.MethodGet, "/panic", nil)
	req.Header.Set(HeaderRequestID, "rid-panic")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if w.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d", w.Code)
	}
	var body map[string]string
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("body: %v", err)
	}
	if body["code"] != "internal_error" || body["request_id"] != "rid-panic" {
		t.Fatalf("unexpected body: %v", body)
	}

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/panic-after-write", nil))
	if strings.Contains(w.Body.String(), "internal_error") {
		t.Fatalf("error body written after partial response: %q", w.Body.String())
	}

	var panics int
	for _, m := range logLines(t, buf) {
		if m["message"] == "panic recovered" {
			panics++
			if m["stack"] == nil || m["path"] == nil {
				t.Fatalf("panic log lacks context: %v", m)
			}
		}
	}
	if panics != 2 {
		t.Fatalf("expected 2 panic logs, got %d", panics)
	}
}

func TestLoggerFrom_Fallback(t *testing.T) {
	gin.SetMode(gin.TestMode)
	buf := captureLogs(t)

	if LoggerFrom(nil) == nil {
		t.Fatalf("nil context must still yield a logger")
	}
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	LoggerFrom(c).Info().Msg("fallback")
	if !strings.Contains(buf.String(), `"message":"fallback"`) || strings.Contains(buf.String(), "request_id") {
		t.Fatalf("fallback logger output: %s", buf.String())
	}
}

func TestClip(t *testing.T) {
	if clip("fecha=2024", 64) != "fecha=2024" {
		t.Fatalf("short string changed")
	}
	if got := clip("abcdefgh", 5); got != "abcde…" {
		t.Fatalf("clip = %q", got)
	}
}
