// Package middleware contains the Gin middleware shared by the scan desk API:
// correlation IDs, access logging, panic recovery, metrics, idempotency keys,
// per-station rate limiting and security headers.
//
// Recommended order (see httpapi.RegisterRoutes):
//
//	RequestID → Logger → Recovery → Metrics → IdempotencyValidator → RateLimiter
//
// so that every log line, metric and error body carries the request ID.
package middleware

import (
	"net/http"
	"regexp"
	"runtime/debug"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// HeaderRequestID carries the correlation ID in both directions.
const HeaderRequestID = "X-Request-ID"

const (
	ctxKeyRequestID = "request_id"
	ctxKeyLogger    = "logger"

	maxLoggedQuery = 512
)

// Client-supplied request IDs are echoed only when they look like an ID.
var requestIDPattern = regexp.MustCompile(`^[A-Za-z0-9._:\-]{1,64}$`)

// RequestID reuses a well-formed X-Request-ID from the client, or generates a
// UUIDv4, and sets it on the Gin context and the response.
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		rid := c.GetHeader(HeaderRequestID)
		if !requestIDPattern.MatchString(rid) {
			rid = uuid.NewString()
		}
		c.Set(ctxKeyRequestID, rid)
		c.Writer.Header().Set(HeaderRequestID, rid)
		c.Next()
	}
}

// RequestIDFrom returns the request's correlation ID, or "" when RequestID
// did not run.
func RequestIDFrom(c *gin.Context) string {
	if c == nil {
		return ""
	}
	return c.GetString(ctxKeyRequestID)
}

// Logger emits one access log line per request and attaches a request-scoped
// logger to both the Gin context (LoggerFrom) and the request context
// (zerolog.Ctx), so services log with the same fields.
//
// Levels: error for 5xx or recorded Gin errors, info for 409 (a duplicate
// scan is routine at the desk), warn for other 4xx, info otherwise.
func Logger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		route := c.FullPath()
		if route == "" {
			route = c.Request.URL.Path
		}
		l := log.With().
			Str("request_id", RequestIDFrom(c)).
			Str("station", StationFrom(c)).
			Str("method", c.Request.Method).
			Str("path", route).
			Str("remote_ip", c.ClientIP()).
			Logger()

		c.Set(ctxKeyLogger, &l)
		c.Request = c.Request.WithContext(l.WithContext(c.Request.Context()))

		c.Next()

		status := c.Writer.Status()
		var ev *zerolog.Event
		switch {
		case len(c.Errors) > 0:
			ev = l.Error().Str("errors", c.Errors.String())
		case status >= http.StatusInternalServerError:
			ev = l.Error()
		case status == http.StatusConflict:
			ev = l.Info()
		case status >= http.StatusBadRequest:
			ev = l.Warn()
		default:
			ev = l.Info()
		}
		if q := c.Request.URL.RawQuery; q != "" {
			ev = ev.Str("query", clip(q, maxLoggedQuery))
		}
		if key, ok := GetIdempotencyKey(c); ok {
			ev = ev.Str("idempotency_key", key).Bool("replayed", IsReplay(c))
		}
		ev.Int("status", status).
			Dur("latency", time.Since(start)).
			Int64("bytes_in", c.Request.ContentLength).
			Int("bytes_out", c.Writer.Size()).
			Str("user_agent", c.Request.UserAgent()).
			Msg("request")
	}
}

// Recovery turns a panic into a logged stack trace and, when nothing has been
// written yet, a JSON 500 with the standard error envelope.
func Recovery() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			rec := recover()
			if rec == nil {
				return
			}
			LoggerFrom(c).Error().
				Interface("panic", rec).
				Bytes("stack", debug.Stack()).
				Msg("panic recovered")

			if c.Writer.Written() {
				c.AbortWithStatus(http.StatusInternalServerError)
				return
			}
			abortJSON(c, http.StatusInternalServerError, "internal_error", "internal server error")
		}()
		c.Next()
	}
}

// LoggerFrom returns the request-scoped logger set by Logger, or the global
// logger when Logger did not run. The result is never nil.
func LoggerFrom(c *gin.Context) *zerolog.Logger {
	if c != nil {
		if v, ok := c.Get(ctxKeyLogger); ok {
			if l, ok := v.(*zerolog.Logger); ok {
				return l
			}
		}
	}
	l := log.Logger
	return &l
}

// abortJSON stops the chain with the error envelope the handlers use:
// {"request_id", "code", "message"}.
func abortJSON(c *gin.Context, status int, code, msg string) {
	c.AbortWithStatusJSON(status, gin.H{
		"request_id": RequestIDFrom(c),
		"code":       code,
		"message":    msg,
	})
}

// clip cuts s to max bytes, marking the cut with an ellipsis.
func clip(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max] + "…"
}
