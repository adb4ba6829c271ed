package qr

import "time"

const (
	// DeactivationWindow is how long a QR stays deactivated after a
	// successful scan.
	DeactivationWindow = 20 * time.Hour

	// DefaultPointsAwarded is the standard award for a waste collection.
	DefaultPointsAwarded = 3
)

// Status describes the current activation state of a user's QR plus a
// summary of its scan history.
type Status struct {
	UserID         string       `json:"userId"`
	Active         bool         `json:"active"`
	ReactivateAt   *time.Time   `json:"reactivateAt,omitempty"`
	HoursRemaining int          `json:"hoursRemaining"`
	ScanHistory    HistoryStats `json:"scanHistory"`
}

// HistoryStats summarizes past scans of one QR.
type HistoryStats struct {
	TotalScans        int        `json:"totalScans"`
	LastScannedAt     *time.Time `json:"lastScannedAt,omitempty"`
	LastScannedBy     string     `json:"lastScannedBy,omitempty"`
	LastPointsAwarded int        `json:"lastPointsAwarded"`
}
