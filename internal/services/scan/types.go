package scan

import "cleanbage/internal/models"

// Request describes one scan event entering the orchestrator.
type Request struct {
	UserID      string
	CollectorID string
	Points      int
	// BypassCooldown skips the activation gate. Testing/admin escape hatch
	// only; callers must never default it on.
	BypassCooldown bool
}

// Result is returned to the caller after a successful scan.
type Result struct {
	User          *models.User         `json:"user"`
	Collector     *models.User         `json:"-"`
	Transaction   *models.Transaction  `json:"transaction"`
	ScanRecord    *models.ScanRecord   `json:"scanRecord"`
	Notification  *models.Notification `json:"notification,omitempty"`
	QRDeactivated bool                 `json:"qrDeactivated"`
	ReactivateAt  string               `json:"reactivateTime,omitempty"`
}
