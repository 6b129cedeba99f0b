package middleware

import (
	"math"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

// HeaderStationID names the scan desk (handheld reader or browser session)
// that sent the request. Optional.
const HeaderStationID = "X-Station-ID"

const (
	maxStationLen = 64

	bucketIdleTTL = 10 * time.Minute
)

// StationFrom returns the trimmed X-Station-ID header, or "" when it is
// missing or longer than 64 bytes.
func StationFrom(c *gin.Context) string {
	if c == nil || c.Request == nil {
		return ""
	}
	s := strings.TrimSpace(c.GetHeader(HeaderStationID))
	if len(s) > maxStationLen {
		return ""
	}
	return s
}

// KeyFunc maps a request to the identity whose bucket it draws from.
type KeyFunc func(*gin.Context) string

// KeyByStationOrIP buckets by station when the desk identifies itself and by
// client IP otherwise, so desks sharing a NAT do not starve each other.
func KeyByStationOrIP() KeyFunc {
	return func(c *gin.Context) string {
		if s := StationFrom(c); s != "" {
			return "station:" + s
		}
		return "ip:" + c.ClientIP()
	}
}

// IsRateBypass reports whether the request was exempted from rate limiting
// (an idempotent replay).
func IsRateBypass(c *gin.Context) bool {
	b, _ := c.Value(ctxKeyRateBypass).(bool)
	return b
}

type bucket struct {
	lim  *rate.Limiter
	seen time.Time
}

// RateLimiter is an in-process token bucket per identity. Buckets idle for
// longer than ten minutes are dropped on the next sweep. Safe for concurrent
// use.
type RateLimiter struct {
	limit rate.Limit
	burst int
	key   KeyFunc

	mu        sync.Mutex
	buckets   map[string]*bucket
	idle      time.Duration
	lastSweep time.Time
	now       func() time.Time
}

// NewRateLimiter allows rps requests per second with the given burst per
// identity. A burst below 1 is raised to 1.
func NewRateLimiter(rps float64, burst int, key KeyFunc) *RateLimiter {
	return &RateLimiter{
		limit:   rate.Limit(rps),
		burst:   max(burst, 1),
		key:     key,
		buckets: make(map[string]*bucket),
		idle:    bucketIdleTTL,
		now:     time.Now,
	}
}

// limiter returns the bucket for id, sweeping idle buckets at most once per
// idle period.
func (rl *RateLimiter) limiter(id string) *rate.Limiter {
	now := rl.now()

	rl.mu.Lock()
	defer rl.mu.Unlock()

	if now.Sub(rl.lastSweep) >= rl.idle {
		for k, b := range rl.buckets {
			if now.Sub(b.seen) >= rl.idle {
				delete(rl.buckets, k)
			}
		}
		rl.lastSweep = now
	}

	b, ok := rl.buckets[id]
	if !ok {
		b = &bucket{lim: rate.NewLimiter(rl.limit, rl.burst)}
		rl.buckets[id] = b
	}
	b.seen = now
	return b.lim
}

// Handler rejects requests over the limit with 429 rate_limited and a
// Retry-After hint in whole seconds. Replays pass without spending a token.
func (rl *RateLimiter) Handler() gin.HandlerFunc {
	return func(c *gin.Context) {
		if IsRateBypass(c) {
			c.Next()
			return
		}
		id := rl.key(c)
		lim := rl.limiter(id)
		if lim.Allow() {
			c.Next()
			return
		}

		kind, _, _ := strings.Cut(id, ":")
		rateLimitedTotal.WithLabelValues(kind).Inc()
		c.Header("Retry-After", strconv.Itoa(retryAfter(lim)))
		abortJSON(c, http.StatusTooManyRequests, "rate_limited", "rate limit exceeded")
	}
}

// retryAfter estimates the wait for the next token, at least one second.
func retryAfter(lim *rate.Limiter) int {
	if lim.Limit() <= 0 {
		return 1
	}
	secs := math.Ceil(1 / float64(lim.Limit()))
	if secs < 1 || math.IsInf(secs, 0) {
		return 1
	}
	return int(secs)
}
