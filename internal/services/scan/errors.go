package scan

import (
	"errors"
	"fmt"
	"time"
)

// The orchestrator is the error boundary for the scan protocol: callers only
// ever see this taxonomy, never raw storage errors.
var (
	// ErrUserNotFound means the scanned QR referenced an unknown account
	// (bad or stale QR code).
	ErrUserNotFound = errors.New("scanned user not found")

	// ErrInvalidCollector means the collector id did not resolve to an
	// account with the collector role (bad collector session).
	ErrInvalidCollector = errors.New("invalid collector")

	// ErrInvalidAmount rejects non-positive award amounts.
	ErrInvalidAmount = errors.New("points awarded must be a positive integer")

	// ErrInternal is the opaque failure surfaced for storage or
	// infrastructure errors; detail is logged server-side only.
	ErrInternal = errors.New("scan failed")
)

// QRDeactivatedError is the expected business-rule rejection for a QR still
// inside its deactivation window. It carries the reactivation time so a
// client can display the remaining wait without polling.
type QRDeactivatedError struct {
	ReactivateAt   time.Time
	HoursRemaining int
}

func (e *QRDeactivatedError) Error() string {
	return fmt.Sprintf("QR code is deactivated; reactivates in %d hours", e.HoursRemaining)
}
