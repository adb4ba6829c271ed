package repositories

import (
	"cleanbage/internal/models"

	"gorm.io/gorm"
)

// TransactionRepository stores ledger entries. Entries are append-only:
// there is deliberately no update or delete method.
type TransactionRepository interface {
	Create(txn *models.Transaction) error
	ListByUser(userID string, limit int) ([]models.Transaction, error)
	// SumByUser returns earned minus spent plus adjustments, i.e. the
	// balance implied by the ledger alone.
	SumByUser(userID string) (int, error)
}

type transactionRepository struct {
	db *gorm.DB
}

// NewTransactionRepository creates a new ledger repository.
func NewTransactionRepository(db *gorm.DB) TransactionRepository {
	return &transactionRepository{db: db}
}

func (r *transactionRepository) Create(txn *models.Transaction) error {
	if err := r.db.Create(txn).Error; err != nil {
		return ErrDatabaseOperation
	}
	return nil
}

func (r *transactionRepository) ListByUser(userID string, limit int) ([]models.Transaction, error) {
	var txns []models.Transaction
	err := r.db.Where("user_id = ?", userID).
		Order("created_at DESC").
		Limit(limit).
		Find(&txns).Error
	if err != nil {
		return nil, ErrDatabaseOperation
	}
	return txns, nil
}

func (r *transactionRepository) SumByUser(userID string) (int, error) {
	var total int64
	err := r.db.Model(&models.Transaction{}).
		Where("user_id = ?", userID).
		Select(`COALESCE(SUM(CASE type
			WHEN 'spend' THEN -amount
			ELSE amount END), 0)`).
		Scan(&total).Error
	if err != nil {
		return 0, ErrDatabaseOperation
	}
	return int(total), nil
}
