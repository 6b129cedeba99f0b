package middleware

import (
	"crypto/tls"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
)

func secured(opt SecurityOptions, pre gin.HandlerFunc, req *http.Request) http.Header {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	if pre != nil {
		r.Use(pre)
	}
	r.Use(SecurityHeaders(opt))
	r.GET("/manifiesto", func(c *gin.Context) { c.Status(http.StatusOK) })
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w.Header()
}

func TestSecurityHeaders_Defaults(t *testing.T) {
	h := secured(SecurityOptions{EnableHSTS: true}, nil, httptest.NewRequest(http.MethodGet, "/manifiesto", nil))

	want := map[string]string{
		"X-Content-Type-Options": "nosniff",
		"X-Frame-Options":        "DENY",
		"Referrer-Policy":        "no-referrer",
	}
	for k, v := range want {
		if h.Get(k) != v {
			t.Errorf("%s = %q, want %q", k, h.Get(k), v)
		}
	}
	for _, k := range []string{"Permissions-Policy", "Cache-Control", "Strict-Transport-Security", headerExpose} {
		if h.Get(k) != "" {
			t.Errorf("unexpected %s: %q", k, h.Get(k))
		}
	}
}

func TestSecurityHeaders_Optional(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/manifiesto", nil)
	req.TLS = &tls.ConnectionState{}
	h := secured(SecurityOptions{EnableHSTS: true, HSTSMaxAge: 24 * time.Hour, NoStore: true, EnablePolicy: true}, nil, req)

	if h.Get("Permissions-Policy") != permissionsPolicy || h.Get("X-Permitted-Cross-Domain-Policies") != "none" {
		t.Fatalf("policy headers: %v", h)
	}
	if h.Get("Cache-Control") != "no-store" || h.Get("Pragma") != "no-cache" || h.Get("Expires") != "0" {
		t.Fatalf("cache headers: %v", h)
	}
	if got := h.Get("Strict-Transport-Security"); got != "max-age=86400; includeSubDomains; preload" {
		t.Fatalf("hsts = %q", got)
	}
}

func TestSecurityHeaders_HSTS(t *testing.T) {
	cases := []struct {
		name  string
		opt   SecurityOptions
		proto string
		want  string
	}{
		{"plain http", SecurityOptions{EnableHSTS: true}, "", ""},
		{"disabled", SecurityOptions{HSTSMaxAge: time.Hour}, "https", ""},
		{"proxy https, default age", SecurityOptions{EnableHSTS: true}, "HTTPS", "max-age=15552000; includeSubDomains; preload"},
		{"one year", SecurityOptions{EnableHSTS: true, HSTSMaxAge: 365 * 24 * time.Hour}, "https", "max-age=31536000; includeSubDomains; preload"},
	}
	for _, tc := range cases {
		req := httptest.NewRequest(http.MethodGet, "/manifiesto", nil)
		if tc.proto != "" {
			req.Header.Set("X-Forwarded-Proto", tc.proto)
		}
		if got := secured(tc.opt, nil, req).Get("Strict-Transport-Security"); got != tc.want {
			t.Errorf("%s: hsts = %q, want %q", tc.name, got, tc.want)
		}
	}
}

func TestSecurityHeaders_ExposeHeaders(t *testing.T) {
	cases := []struct {
		name     string
		existing string
		extra    []string
		want     string
	}{
		{"request id only", "", nil, "X-Request-ID"},
		{"appends to existing", "Foo", nil, "Foo, X-Request-ID"},
		{"keeps existing entry", "x-request-id, Foo", nil, "x-request-id, Foo"},
		{"manifest headers, deduplicated", "", []string{"Content-Disposition", "ETag", "Etag", "X-Manifest-Pages"},
			"X-Request-ID, Content-Disposition, ETag, X-Manifest-Pages"},
	}
	for _, tc := range cases {
		pre := func(c *gin.Context) {
			c.Header(HeaderRequestID, "rid-1")
			if tc.existing != "" {
				c.Header(headerExpose, tc.existing)
			}
		}
		h := secured(SecurityOptions{ExposeHeaders: tc.extra}, pre, httptest.NewRequest(http.MethodGet, "/manifiesto", nil))
		if got := h.Get(headerExpose); got != tc.want {
			t.Errorf("%s: expose = %q, want %q", tc.name, got, tc.want)
		}
	}
}
