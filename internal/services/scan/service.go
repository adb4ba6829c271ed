// Package scan implements the end-to-end scan protocol: resolve the two
// identities, gate on QR activation, award points, deactivate the QR,
// record the scan, and notify both parties.
package scan

import (
	"context"
	"errors"
	"fmt"
	"time"

	"cleanbage/internal/models"
	"cleanbage/internal/repositories"
	"cleanbage/internal/services/ledger"
	"cleanbage/internal/services/notification"
	"cleanbage/internal/services/qr"

	"github.com/sirupsen/logrus"
)

// Service orchestrates scans. The identity gate, the award and the QR
// deactivation run inside one storage transaction with the scanned user's
// row locked, so two scans racing on the same QR serialize: the first wins,
// the second observes the closed window.
type Service struct {
	store  repositories.Store
	ledger *ledger.Service
	outbox *notification.Service
	log    *logrus.Entry
	now    func() time.Time
}

// NewService creates a new scan orchestrator.
func NewService(store repositories.Store, ledgerSvc *ledger.Service, outbox *notification.Service) *Service {
	if store == nil {
		panic("store is required")
	}
	if ledgerSvc == nil {
		panic("ledger service is required")
	}
	if outbox == nil {
		panic("notification service is required")
	}
	return &Service{
		store:  store,
		ledger: ledgerSvc,
		outbox: outbox,
		log:    logrus.WithField("component", "scan"),
		now:    time.Now,
	}
}

// Process executes one scan. Validation failures mutate nothing; once the
// award commits, notifications are best-effort side effects that never turn
// the scan into a failure.
func (s *Service) Process(ctx context.Context, req Request) (*Result, error) {
	if req.Points <= 0 {
		return nil, ErrInvalidAmount
	}

	var (
		user      *models.User
		collector *models.User
		txn       *models.Transaction
		record    *models.ScanRecord
	)

	err := s.store.ExecuteInTransaction(func(tx repositories.Store) error {
		// Lock the scanned user's row first: the activation check and the
		// award below form the critical section that must serialize per
		// user.
		u, err := tx.Users().GetByIDForUpdate(req.UserID)
		if err != nil {
			if errors.Is(err, repositories.ErrUserNotFound) {
				return ErrUserNotFound
			}
			return err
		}

		c, err := tx.Users().GetByID(req.CollectorID)
		if err != nil {
			if errors.Is(err, repositories.ErrUserNotFound) {
				return ErrInvalidCollector
			}
			return err
		}
		if c.Role != models.RoleCollector && c.Role != models.RoleAdmin {
			return ErrInvalidCollector
		}

		now := s.now()
		if !req.BypassCooldown && !qr.ActiveAt(u, now) {
			return &QRDeactivatedError{
				ReactivateAt:   *u.QRReactivateAt,
				HoursRemaining: qr.HoursRemaining(u, now),
			}
		}

		// Award before deactivating: a failed award must not charge the
		// user's cooldown.
		txn, err = s.ledger.AwardLocked(tx, u, req.Points, models.SourceWasteCollection)
		if err != nil {
			return err
		}

		qr.Deactivate(u, qr.DeactivationWindow, c.ID, req.Points, now)
		if err := tx.Users().UpdateScanState(u); err != nil {
			return err
		}

		record = &models.ScanRecord{
			ID:            models.NewID("scan"),
			UserID:        u.ID,
			CollectorID:   c.ID,
			PointsAwarded: req.Points,
		}
		if err := tx.Scans().Create(record); err != nil {
			return err
		}

		user = u
		collector = c
		return nil
	})
	if err != nil {
		return nil, s.classify(err, req)
	}

	s.log.WithFields(logrus.Fields{
		"user_id":      user.ID,
		"collector_id": collector.ID,
		"points":       req.Points,
		"balance":      user.Points,
	}).Info("scan completed")

	result := &Result{
		User:          user,
		Collector:     collector,
		Transaction:   txn,
		ScanRecord:    record,
		QRDeactivated: true,
	}
	if user.QRReactivateAt != nil {
		result.ReactivateAt = user.QRReactivateAt.UTC().Format(time.RFC3339)
	}
	result.Notification = s.notify(ctx, user, collector, req.Points)

	return result, nil
}

// DefaultHistoryLimit bounds scan-history reads.
const DefaultHistoryLimit = 50

// HistoryByUser returns scans of the given user's QR, newest first.
func (s *Service) HistoryByUser(ctx context.Context, userID string) ([]models.ScanRecord, error) {
	return s.store.Scans().ListByUser(userID, DefaultHistoryLimit)
}

// HistoryByCollector returns scans performed by the given collector, newest
// first.
func (s *Service) HistoryByCollector(ctx context.Context, collectorID string) ([]models.ScanRecord, error) {
	return s.store.Scans().ListByCollector(collectorID, DefaultHistoryLimit)
}

// classify maps transaction errors to the public taxonomy. Anything outside
// it is logged in full and surfaced as the opaque ErrInternal.
func (s *Service) classify(err error, req Request) error {
	var deactivated *QRDeactivatedError
	switch {
	case errors.Is(err, ErrUserNotFound),
		errors.Is(err, ErrInvalidCollector),
		errors.Is(err, ledger.ErrInvalidAmount):
		return err
	case errors.As(err, &deactivated):
		return err
	default:
		s.log.WithError(err).WithFields(logrus.Fields{
			"user_id":      req.UserID,
			"collector_id": req.CollectorID,
		}).Error("scan failed")
		return fmt.Errorf("%w: storage error", ErrInternal)
	}
}

// notify pushes the post-scan notifications to both parties. Failures are
// logged and swallowed: an awarded-but-unnotified scan is a UX gap, not an
// error.
func (s *Service) notify(ctx context.Context, user, collector *models.User, points int) *models.Notification {
	userNotif, err := s.outbox.Push(ctx, user.ID, notification.Input{
		Title:   "EcoCoins Earned!",
		Message: fmt.Sprintf("You received %d EcoCoins for waste collection by %s!", points, collector.Name),
		Type:    models.NotificationTypeReward,
		Data: map[string]interface{}{
			"points":        points,
			"newBalance":    user.Points,
			"source":        models.SourceWasteCollection,
			"collectorId":   collector.ID,
			"collectorName": collector.Name,
		},
	})
	if err != nil {
		s.log.WithError(err).WithField("user_id", user.ID).
			Warn("failed to notify scanned user")
	}

	if _, err := s.outbox.Push(ctx, collector.ID, notification.Input{
		Title:   "Scan Completed",
		Message: fmt.Sprintf("Successfully awarded %d EcoCoins to %s", points, user.Name),
		Type:    models.NotificationTypeInfo,
		Data: map[string]interface{}{
			"points":   points,
			"userName": user.Name,
			"userId":   user.ID,
		},
	}); err != nil {
		s.log.WithError(err).WithField("collector_id", collector.ID).
			Warn("failed to notify collector")
	}

	return userNotif
}
