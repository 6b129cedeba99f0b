package ledger

import (
	"errors"
	"fmt"
)

// Ledger errors. Store implementations return ErrNotFound for missing ids;
// every other store failure is wrapped in ErrStore or ErrStoreUnavailable.
var (
	// ErrInvalidCode is returned when a raw scan normalizes to an empty code.
	ErrInvalidCode = errors.New("invalid code")

	// ErrInvalidCarrier rejects a correction to a carrier outside the
	// enumerated set.
	ErrInvalidCarrier = errors.New("invalid carrier")

	// ErrDuplicate matches any *DuplicateError.
	ErrDuplicate = errors.New("code already scanned")

	// ErrNotFound indicates the target record does not exist in the store.
	ErrNotFound = errors.New("scan not found")

	// ErrStore is a non-retryable failure reported by the record store.
	ErrStore = errors.New("record store failure")

	// ErrStoreUnavailable is a timed out or cancelled store round trip. Callers
	// may retry.
	ErrStoreUnavailable = errors.New("record store unavailable")
)

// DuplicateError reports a canonical code already present in the working set.
type DuplicateError struct {
	Code       string
	ExistingID uint
}

func (e *DuplicateError) Error() string {
	return fmt.Sprintf("code %q already scanned (id %d)", e.Code, e.ExistingID)
}

// Is makes errors.Is(err, ErrDuplicate) true.
func (e *DuplicateError) Is(target error) bool { return target == ErrDuplicate }
