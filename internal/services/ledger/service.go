// Package ledger maintains the append-only points ledger and the running
// balance on the user record. The two are always written together: a ledger
// entry never exists without the matching balance update being visible.
package ledger

import (
	"context"

	"cleanbage/internal/models"
	"cleanbage/internal/repositories"

	"github.com/sirupsen/logrus"
)

// DefaultHistoryLimit bounds a balance-history read when the caller does
// not ask for a specific page size.
const DefaultHistoryLimit = 20

// AwardResult carries the user state and ledger entry produced by an award.
type AwardResult struct {
	User        *models.User        `json:"user"`
	Transaction *models.Transaction `json:"transaction"`
}

// Service is the points ledger.
type Service struct {
	store repositories.Store
	log   *logrus.Entry
}

// NewService creates a new ledger service.
func NewService(store repositories.Store) *Service {
	if store == nil {
		panic("store is required")
	}
	return &Service{
		store: store,
		log:   logrus.WithField("component", "ledger"),
	}
}

// Award credits `amount` coins to the user as a single atomic unit: the
// user's row is locked, the new balance computed against the locked value,
// and the ledger entry written in the same transaction. Two concurrent
// awards to the same user serialize on the row lock, so neither can apply
// against a stale balance.
func (s *Service) Award(ctx context.Context, userID string, amount int, source string) (*AwardResult, error) {
	if amount <= 0 {
		return nil, ErrInvalidAmount
	}

	var result AwardResult
	err := s.store.ExecuteInTransaction(func(tx repositories.Store) error {
		user, err := tx.Users().GetByIDForUpdate(userID)
		if err != nil {
			return err
		}

		txn, err := s.AwardLocked(tx, user, amount, source)
		if err != nil {
			return err
		}

		result.User = user
		result.Transaction = txn
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log.WithFields(logrus.Fields{
		"user_id": userID,
		"amount":  amount,
		"source":  source,
		"balance": result.User.Points,
	}).Info("points awarded")

	return &result, nil
}

// AwardLocked applies an earn entry against a user row the caller has
// already locked inside tx. It mutates user.Points to the new balance.
func (s *Service) AwardLocked(tx repositories.Store, user *models.User, amount int, source string) (*models.Transaction, error) {
	if amount <= 0 {
		return nil, ErrInvalidAmount
	}

	newBalance := user.Points + amount
	txn := &models.Transaction{
		ID:           models.NewID("txn"),
		UserID:       user.ID,
		Amount:       amount,
		Type:         models.TransactionTypeEarn,
		Source:       source,
		BalanceAfter: newBalance,
	}

	if err := tx.Users().UpdatePoints(user, newBalance); err != nil {
		return nil, err
	}
	if err := tx.Ledger().Create(txn); err != nil {
		return nil, err
	}
	return txn, nil
}

// Adjust applies a signed admin correction. A negative delta may not take
// the balance below zero.
func (s *Service) Adjust(ctx context.Context, userID string, delta int, reason string) (*AwardResult, error) {
	if delta == 0 {
		return nil, ErrInvalidAmount
	}

	var result AwardResult
	err := s.store.ExecuteInTransaction(func(tx repositories.Store) error {
		user, err := tx.Users().GetByIDForUpdate(userID)
		if err != nil {
			return err
		}

		newBalance := user.Points + delta
		if newBalance < 0 {
			return ErrBalanceBelowZero
		}

		txn := &models.Transaction{
			ID:           models.NewID("txn"),
			UserID:       user.ID,
			Amount:       delta,
			Type:         models.TransactionTypeAdjustment,
			Source:       reason,
			BalanceAfter: newBalance,
		}

		if err := tx.Users().UpdatePoints(user, newBalance); err != nil {
			return err
		}
		if err := tx.Ledger().Create(txn); err != nil {
			return err
		}

		result.User = user
		result.Transaction = txn
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log.WithFields(logrus.Fields{
		"user_id": userID,
		"delta":   delta,
		"reason":  reason,
	}).Info("balance adjusted")

	return &result, nil
}

// History returns the user's ledger entries newest-first.
func (s *Service) History(ctx context.Context, userID string, limit int) ([]models.Transaction, error) {
	if limit <= 0 {
		limit = DefaultHistoryLimit
	}
	if _, err := s.store.Users().GetByID(userID); err != nil {
		return nil, err
	}
	return s.store.Ledger().ListByUser(userID, limit)
}

// Balance returns the authoritative current balance.
func (s *Service) Balance(ctx context.Context, userID string) (int, error) {
	user, err := s.store.Users().GetByID(userID)
	if err != nil {
		return 0, err
	}
	return user.Points, nil
}
