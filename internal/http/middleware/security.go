package middleware

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
)

const (
	headerExpose       = "Access-Control-Expose-Headers"
	defaultHSTSMaxAge  = 180 * 24 * time.Hour
	permissionsPolicy  = "geolocation=(), microphone=(), camera=(), payment=()"
	strictTransportFmt = "max-age=%d; includeSubDomains; preload"
)

// SecurityOptions selects the hardening headers added to every response.
// HSTS is sent only on HTTPS requests (direct TLS or X-Forwarded-Proto) and
// defaults to 180 days when HSTSMaxAge is zero. ExposeHeaders are appended to
// Access-Control-Expose-Headers alongside X-Request-ID.
type SecurityOptions struct {
	EnableHSTS    bool
	HSTSMaxAge    time.Duration
	NoStore       bool
	EnablePolicy  bool
	ExposeHeaders []string
}

// SecurityHeaders sets nosniff, frame denial and no-referrer on every
// response, plus the optional headers selected in opt.
func SecurityHeaders(opt SecurityOptions) gin.HandlerFunc {
	fixed := http.Header{}
	fixed.Set("X-Content-Type-Options", "nosniff")
	fixed.Set("X-Frame-Options", "DENY")
	fixed.Set("Referrer-Policy", "no-referrer")
	if opt.EnablePolicy {
		fixed.Set("Permissions-Policy", permissionsPolicy)
		fixed.Set("X-Permitted-Cross-Domain-Policies", "none")
	}
	if opt.NoStore {
		fixed.Set("Cache-Control", "no-store")
		fixed.Set("Pragma", "no-cache")
		fixed.Set("Expires", "0")
	}

	var hsts string
	if opt.EnableHSTS {
		age := opt.HSTSMaxAge
		if age <= 0 {
			age = defaultHSTSMaxAge
		}
		hsts = fmt.Sprintf(strictTransportFmt, int64(age/time.Second))
	}

	return func(c *gin.Context) {
		h := c.Writer.Header()
		for k, v := range fixed {
			h[k] = append([]string(nil), v...)
		}
		if hsts != "" && isHTTPS(c.Request) {
			h.Set("Strict-Transport-Security", hsts)
		}
		if h.Get(HeaderRequestID) != "" {
			exposeHeader(h, HeaderRequestID)
		}
		for _, name := range opt.ExposeHeaders {
			exposeHeader(h, name)
		}
		c.Next()
	}
}

func isHTTPS(r *http.Request) bool {
	return r.TLS != nil || strings.EqualFold(r.Header.Get("X-Forwarded-Proto"), "https")
}

// exposeHeader adds name to Access-Control-Expose-Headers unless an entry
// with the same name (case-insensitive) is already listed.
func exposeHeader(h http.Header, name string) {
	cur := h.Get(headerExpose)
	for _, have := range strings.Split(cur, ",") {
		if strings.EqualFold(strings.TrimSpace(have), name) {
			return
		}
	}
	if cur == "" {
		h.Set(headerExpose, name)
		return
	}
	h.Set(headerExpose, cur+", "+name)
}
