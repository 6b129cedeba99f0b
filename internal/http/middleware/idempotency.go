package middleware

import (
	"context"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
)

// HeaderIdempotencyKey lets a scan desk retry a write without admitting the
// same label twice.
const HeaderIdempotencyKey = "Idempotency-Key"

const (
	ctxKeyIdemKey    = "idem.key"
	ctxKeyIdemReplay = "idem.replay"
	ctxKeyRateBypass = "rate.bypass"

	defaultIdemMaxLen = 200
)

var defaultIdemPattern = regexp.MustCompile(`^[A-Za-z0-9._~:\-]+$`)

// IdempotencyOptions bounds the keys the validator accepts. Zero values fall
// back to 200 bytes and a token-like character set.
type IdempotencyOptions struct {
	MaxLen  int
	Pattern *regexp.Regexp
}

// IdempotencyLookup reports whether a completed write is on file for
// (scope, key) and still inside its TTL at now. Errors are logged and treated
// as a miss.
type IdempotencyLookup func(ctx context.Context, scope, key string, now time.Time) (bool, error)

// GetIdempotencyKey returns the key accepted by IdempotencyValidator.
func GetIdempotencyKey(c *gin.Context) (string, bool) {
	s, _ := c.Value(ctxKeyIdemKey).(string)
	return s, s != ""
}

// IsReplay reports whether the lookup found a stored result for this request.
func IsReplay(c *gin.Context) bool {
	b, _ := c.Value(ctxKeyIdemReplay).(bool)
	return b
}

// IdempotencyScope is "<METHOD> <route>", suffixed with " @<station>" when the
// request names a scan station. A key only replays within its own scope.
func IdempotencyScope(c *gin.Context) string {
	var b strings.Builder
	b.WriteString(c.Request.Method)
	b.WriteByte(' ')
	if route := c.FullPath(); route != "" {
		b.WriteString(route)
	} else {
		b.WriteString(c.Request.URL.Path)
	}
	if st := StationFrom(c); st != "" {
		b.WriteString(" @")
		b.WriteString(st)
	}
	return b.String()
}

// IdempotencyValidator checks the Idempotency-Key of write requests. A
// malformed key is rejected with 400 bad_idempotency_key. A well-formed key is
// stored on the context; when lookup finds a prior result the request is
// flagged as a replay and exempted from rate limiting. Serving the stored
// result is left to the handler.
//
// Safe methods ignore the header.
func IdempotencyValidator(opts IdempotencyOptions, lookup IdempotencyLookup) gin.HandlerFunc {
	maxLen := opts.MaxLen
	if maxLen <= 0 {
		maxLen = defaultIdemMaxLen
	}
	pattern := opts.Pattern
	if pattern == nil {
		pattern = defaultIdemPattern
	}

	return func(c *gin.Context) {
		key := strings.TrimSpace(c.GetHeader(HeaderIdempotencyKey))
		if key == "" || !isWrite(c.Request.Method) {
			c.Next()
			return
		}
		if len(key) > maxLen || !pattern.MatchString(key) {
			abortJSON(c, http.StatusBadRequest, "bad_idempotency_key", "invalid Idempotency-Key")
			return
		}
		c.Set(ctxKeyIdemKey, key)

		if lookup != nil {
			found, err := lookup(c.Request.Context(), IdempotencyScope(c), key, time.Now().UTC())
			switch {
			case err != nil:
				LoggerFrom(c).Warn().Err(err).Str("idempotency_key", key).Msg("idempotency lookup failed")
			case found:
				c.Set(ctxKeyIdemReplay, true)
				c.Set(ctxKeyRateBypass, true)
			}
		}
		c.Next()
	}
}

func isWrite(method string) bool {
	switch method {
	case http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete:
		return true
	}
	return false
}
