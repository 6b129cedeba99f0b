// Package services defines the business logic of the scan desk: per-date scan
// ledgers, carrier corrections and manifest generation. This file centralizes
// service-level error values so that they can be consistently returned by
// service methods and checked by callers.
//
// Ledger errors (ledger.ErrInvalidCode, ledger.ErrDuplicate, ...) pass through
// unchanged; translation into HTTP status codes happens in the handlers.
package services

import "errors"

var (
	// ErrNoRecords is returned when a manifest is requested for a date
	// without records.
	ErrNoRecords = errors.New("no records for this date")

	// ErrUnsupportedFormat is returned for manifest formats other than pdf
	// and xlsx.
	ErrUnsupportedFormat = errors.New("unsupported manifest format")

	// ErrBatchTooLarge is returned when a batch exceeds the configured
	// number of lines.
	ErrBatchTooLarge = errors.New("batch too large")

	// ErrEmptyBatch is returned when a batch contains no codes.
	ErrEmptyBatch = errors.New("batch is empty")
)
