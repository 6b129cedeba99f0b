package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/go-guias-backend/internal/http/middleware"
)

// ErrorResponse is the body of every non-2xx response.
type ErrorResponse struct {
	// Same value as the X-Request-ID response header
	RequestID string `json:"request_id,omitempty" example:"123e4567-e89b-12d3-a456-426614174000"`
	// Stable machine-readable code
	Code string `json:"code" example:"invalid_code"`
	// Human-readable detail
	Message string `json:"message" example:"codigo must contain at least one digit"`
}

// ConflictResponse is returned with 409 when a code is already in the day's
// ledger.
type ConflictResponse struct {
	ErrorResponse
	// Normalized code that was scanned again
	Codigo string `json:"codigo" example:"024000123456"`
	// ID of the record that holds it
	ExistingID uint `json:"existing_id" example:"41"`
}

// envelope builds the error body for c. The request ID comes from the
// context when RequestID ran, else from the response header.
func envelope(c *gin.Context, code, msg string) ErrorResponse {
	rid := middleware.RequestIDFrom(c)
	if rid == "" {
		rid = c.Writer.Header().Get(middleware.HeaderRequestID)
	}
	return ErrorResponse{RequestID: rid, Code: code, Message: msg}
}

// fail aborts with the error envelope. Server-side failures are logged with
// the request logger; client errors are left to the access log.
func fail(c *gin.Context, status int, code, msg string) {
	if status >= http.StatusInternalServerError {
		middleware.LoggerFrom(c).Error().
			Int("status", status).
			Str("code", code).
			Str("error", msg).
			Msg("request failed")
	}
	c.AbortWithStatusJSON(status, envelope(c, code, msg))
}

// Fail lets the router write NoRoute/NoMethod errors in the same shape.
func Fail(c *gin.Context, status int, code, msg string) { fail(c, status, code, msg) }

// conflict aborts with 409 naming the record that already holds codigo.
func conflict(c *gin.Context, codigo string, existingID uint, msg string) {
	c.AbortWithStatusJSON(http.StatusConflict, ConflictResponse{
		ErrorResponse: envelope(c, ErrCodeConflict, msg),
		Codigo:        codigo,
		ExistingID:    existingID,
	})
}

func ok(c *gin.Context, status int, body any) { c.JSON(status, body) }

func noContent(c *gin.Context) { c.Status(http.StatusNoContent) }
