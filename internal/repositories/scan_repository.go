package repositories

import (
	"cleanbage/internal/models"

	"gorm.io/gorm"
)

// ScanRepository stores immutable scan-history entries.
type ScanRepository interface {
	Create(record *models.ScanRecord) error
	ListByUser(userID string, limit int) ([]models.ScanRecord, error)
	ListByCollector(collectorID string, limit int) ([]models.ScanRecord, error)
}

type scanRepository struct {
	db *gorm.DB
}

// NewScanRepository creates a new scan-history repository.
func NewScanRepository(db *gorm.DB) ScanRepository {
	return &scanRepository{db: db}
}

func (r *scanRepository) Create(record *models.ScanRecord) error {
	if err := r.db.Create(record).Error; err != nil {
		return ErrDatabaseOperation
	}
	return nil
}

func (r *scanRepository) ListByUser(userID string, limit int) ([]models.ScanRecord, error) {
	var records []models.ScanRecord
	err := r.db.Where("user_id = ?", userID).
		Order("created_at DESC").
		Limit(limit).
		Find(&records).Error
	if err != nil {
		return nil, ErrDatabaseOperation
	}
	return records, nil
}

func (r *scanRepository) ListByCollector(collectorID string, limit int) ([]models.ScanRecord, error) {
	var records []models.ScanRecord
	err := r.db.Where("collector_id = ?", collectorID).
		Order("created_at DESC").
		Limit(limit).
		Find(&records).Error
	if err != nil {
		return nil, ErrDatabaseOperation
	}
	return records, nil
}
