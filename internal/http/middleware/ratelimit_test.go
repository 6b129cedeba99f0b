package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"golang.org/x/time/rate"
)

func TestStationFromAndKey(t *testing.T) {
	gin.SetMode(gin.TestMode)
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	c.Request = httptest.NewRequest(http.MethodGet, "/", nil)
	c.Request.RemoteAddr = "203.0.113.9:41000"
	key := KeyByStationOrIP()

	cases := []struct{ header, station, key string }{
		{"", "", "ip:203.0.113.9"},
		{"  desk-2 ", "desk-2", "station:desk-2"},
		{strings.Repeat("x", maxStationLen+1), "", "ip:203.0.113.9"},
	}
	for _, tc := range cases {
		c.Request.Header.Set(HeaderStationID, tc.header)
		if got := StationFrom(c); got != tc.station {
			t.Errorf("StationFrom(%q) = %q", tc.header, got)
		}
		if got := key(c); got != tc.key {
			t.Errorf("key(%q) = %q, want %q", tc.header, got, tc.key)
		}
	}
	if StationFrom(nil) != "" {
		t.Fatalf("nil context")
	}
}

func TestRateLimiter_BucketsAndSweep(t *testing.T) {
	clock := time.Date(2024, 3, 5, 8, 0, 0, 0, time.UTC)
	rl := NewRateLimiter(2, 0, KeyByStationOrIP())
	rl.now = func() time.Time { return clock }
	if rl.burst != 1 {
		t.Fatalf("burst = %d", rl.burst)
	}

	desk1 := rl.limiter("station:desk-1")
	if rl.limiter("station:desk-1") != desk1 {
		t.Fatalf("bucket not reused")
	}

	clock = clock.Add(5 * time.Minute)
	rl.limiter("station:desk-2")

	// desk-1 has now been idle for the full TTL, desk-2 for half of it
	clock = clock.Add(5 * time.Minute)
	rl.limiter("ip:10.0.0.1")

	rl.mu.Lock()
	defer rl.mu.Unlock()
	if _, ok := rl.buckets["station:desk-1"]; ok {
		t.Fatalf("idle bucket kept")
	}
	if _, ok := rl.buckets["station:desk-2"]; !ok {
		t.Fatalf("recent bucket dropped")
	}
	if len(rl.buckets) != 2 {
		t.Fatalf("buckets = %d", len(rl.buckets))
	}
}

func TestRetryAfter(t *testing.T) {
	cases := []struct {
		limit rate.Limit
		want  int
	}{
		{0, 1},
		{10, 1},
		{1, 1},
		{0.5, 2},
		{0.001, 1000},
		{rate.Inf, 1},
	}
	for _, tc := range cases {
		if got := retryAfter(rate.NewLimiter(tc.limit, 1)); got != tc.want {
			t.Errorf("retryAfter(%v) = %d, want %d", tc.limit, got, tc.want)
		}
	}
}

func TestRateLimiter_Handler(t *testing.T) {
	gin.SetMode(gin.TestMode)
	rl := NewRateLimiter(0.5, 1, KeyByStationOrIP())

	r := gin.New()
	r.Use(RequestID(), func(c *gin.Context) {
		if c.Query("replay") != "" {
			c.Set(ctxKeyRateBypass, true)
		}
		c.Next()
	}, rl.Handler())
	r.GET("/registros", func(c *gin.Context) { c.Status(http.StatusOK) })

	get := func(station, query string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodGet, "/registros"+query, nil)
		req.Header.Set(HeaderStationID, station)
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		return w
	}
	limited := rateLimitedTotal.WithLabelValues("station")
	base := testutil.ToFloat64(limited)

	if w := get("desk-1", ""); w.Code != http.StatusOK {
		t.Fatalf("first: %d", w.Code)
	}
	w := get("desk-1", "")
	if w.Code != http.StatusTooManyRequests || w.Header().Get("Retry-After") != "2" {
		t.Fatalf("second: %d retry-after=%q", w.Code, w.Header().Get("Retry-After"))
	}
	var body map[string]string
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatal(err)
	}
	if body["code"] != "rate_limited" || body["request_id"] != w.Header().Get(HeaderRequestID) {
		t.Fatalf("body: %v", body)
	}
	if got := testutil.ToFloat64(limited) - base; got != 1 {
		t.Fatalf("rate_limited_total delta = %v", got)
	}

	// another desk has its own bucket; replays skip the bucket entirely
	if w := get("desk-2", ""); w.Code != http.StatusOK {
		t.Fatalf("other desk: %d", w.Code)
	}
	if w := get("desk-1", "?replay=1"); w.Code != http.StatusOK {
		t.Fatalf("replay: %d", w.Code)
	}

	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	c.Set(ctxKeyRateBypass, "yes")
	if IsRateBypass(c) {
		t.Fatalf("mistyped bypass flag honoured")
	}
}
