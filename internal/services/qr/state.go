package qr

import (
	"math"
	"time"

	"cleanbage/internal/models"
)

// The activation state is not stored as a flag: it is recomputed from the
// qr_reactivate_at timestamp on every read. A nil or elapsed timestamp means
// active. This keeps the read path stateless and needs no scheduler.

// ActiveAt reports whether the user's QR can be scanned at the given time.
func ActiveAt(u *models.User, now time.Time) bool {
	return u.QRReactivateAt == nil || !now.Before(*u.QRReactivateAt)
}

// Deactivate records a successful scan on the user record: it closes the QR
// for `window` from now and captures the scan provenance. Calling it again
// simply restarts the window.
func Deactivate(u *models.User, window time.Duration, collectorID string, points int, now time.Time) {
	reactivateAt := now.Add(window)
	u.QRReactivateAt = &reactivateAt
	u.ScanCount++
	u.LastScanAt = &now
	u.LastScannedBy = collectorID
	u.LastPointsAwarded = points
}

// Reactivate clears the pending window. Used by the lazy-reactivation read
// path once the window has elapsed, and by the admin override.
func Reactivate(u *models.User) {
	u.QRReactivateAt = nil
}

// TimeUntilReactivation returns the remaining window, or nil when the QR is
// active or was never scanned.
func TimeUntilReactivation(u *models.User, now time.Time) *time.Duration {
	if u.QRReactivateAt == nil {
		return nil
	}
	remaining := u.QRReactivateAt.Sub(now)
	if remaining <= 0 {
		return nil
	}
	return &remaining
}

// HoursRemaining returns the remaining window rounded up to whole hours,
// matching what clients display ("try again in N hours").
func HoursRemaining(u *models.User, now time.Time) int {
	remaining := TimeUntilReactivation(u, now)
	if remaining == nil {
		return 0
	}
	return int(math.Ceil(remaining.Hours()))
}
