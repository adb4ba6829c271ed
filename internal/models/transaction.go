package models

import (
	"time"

	"gorm.io/gorm"
)

// Ledger transaction types
const (
	TransactionTypeEarn       = "earn"
	TransactionTypeSpend      = "spend"
	TransactionTypeAdjustment = "adjustment"
)

// SourceWasteCollection marks ledger entries earned through a collection
// scan. Adjustment entries carry the admin's free-form reason as source.
const SourceWasteCollection = "waste_collection"

// Transaction is a single immutable entry in the points ledger.
// Rows are append-only; BalanceAfter snapshots the user's balance as of
// this entry so the latest row always agrees with User.Points.
type Transaction struct {
	ID           string    `gorm:"primaryKey" json:"id"`
	UserID       string    `gorm:"index;not null" json:"userId"`
	Amount       int       `gorm:"not null" json:"amount"`
	Type         string    `gorm:"not null" json:"type"`
	Source       string    `json:"source"`
	BalanceAfter int       `gorm:"not null" json:"balanceAfter"`
	CreatedAt    time.Time `gorm:"index" json:"timestamp"`
}

func (t *Transaction) BeforeCreate(tx *gorm.DB) error {
	if t.ID == "" {
		t.ID = NewID("txn")
	}
	return nil
}
