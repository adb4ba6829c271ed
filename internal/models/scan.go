package models

import (
	"time"

	"gorm.io/gorm"
)

// ScanRecord is an immutable record of a collector scanning a user's QR.
// It is kept separate from the ledger because it carries collector
// provenance and serves the collector's "recent scans" view.
type ScanRecord struct {
	ID            string    `gorm:"primaryKey" json:"id"`
	UserID        string    `gorm:"index;not null" json:"userId"`
	CollectorID   string    `gorm:"index;not null" json:"collectorId"`
	PointsAwarded int       `gorm:"not null" json:"pointsAwarded"`
	Location      string    `json:"location,omitempty"`
	CreatedAt     time.Time `gorm:"index" json:"timestamp"`
}

func (s *ScanRecord) BeforeCreate(tx *gorm.DB) error {
	if s.ID == "" {
		s.ID = NewID("scan")
	}
	return nil
}
