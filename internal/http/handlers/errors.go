package handlers

// Error codes carried in ErrorResponse.Code. Clients branch on these, never
// on the message text.
const (
	ErrCodeBadRequest       = "bad_request"
	ErrCodeNotFound         = "not_found"
	ErrCodeConflict         = "conflict"
	ErrCodeInternal         = "internal_error"
	ErrCodeMethodNotAllowed = "method_not_allowed"

	// Written by middleware before a handler runs.
	ErrCodeRateLimited       = "rate_limited"
	ErrCodeBadIdempotencyKey = "bad_idempotency_key"

	// Scan desk failures.
	ErrCodeInvalidCode      = "invalid_code"
	ErrCodeInvalidCarrier   = "invalid_carrier"
	ErrCodeInvalidDate      = "invalid_date"
	ErrCodeInvalidFormat    = "invalid_format"
	ErrCodeBatchTooLarge    = "batch_too_large"
	ErrCodeEmptyBatch       = "empty_batch"
	ErrCodeStoreError       = "store_error"
	ErrCodeStoreUnavailable = "store_unavailable"
	ErrCodeManifestFailed   = "manifest_failed"
)
