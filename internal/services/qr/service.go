package qr

import (
	"context"
	"fmt"
	"time"

	"cleanbage/internal/models"
	"cleanbage/internal/repositories"

	"github.com/sirupsen/logrus"
)

// Service exposes the QR state machine over the identity registry.
type Service struct {
	store repositories.Store
	log   *logrus.Entry
	now   func() time.Time
}

// NewService creates a new QR service.
func NewService(store repositories.Store) *Service {
	if store == nil {
		panic("store is required")
	}
	return &Service{
		store: store,
		log:   logrus.WithField("component", "qr"),
		now:   time.Now,
	}
}

// IsActive computes the activation state from wall-clock time. When the
// stored window has elapsed it also clears qr_reactivate_at so the record
// reflects the computed state (lazy reactivation).
func (s *Service) IsActive(ctx context.Context, userID string) (bool, error) {
	user, err := s.store.Users().GetByID(userID)
	if err != nil {
		return false, err
	}

	now := s.now()
	active := ActiveAt(user, now)
	if active && user.QRReactivateAt != nil {
		Reactivate(user)
		if err := s.store.Users().UpdateScanState(user); err != nil {
			// The computed state is still correct; the stored timestamp
			// will be cleared on a later read.
			s.log.WithError(err).WithField("user_id", userID).
				Warn("failed to persist lazy QR reactivation")
		} else {
			s.log.WithField("user_id", userID).Info("QR reactivated")
		}
	}

	return active, nil
}

// Status returns the activation state plus scan-history summary for display.
// Repeated calls without an intervening scan never change reactivate_at.
func (s *Service) Status(ctx context.Context, userID string) (*Status, error) {
	active, err := s.IsActive(ctx, userID)
	if err != nil {
		return nil, err
	}

	user, err := s.store.Users().GetByID(userID)
	if err != nil {
		return nil, err
	}

	st := &Status{
		UserID:         userID,
		Active:         active,
		HoursRemaining: HoursRemaining(user, s.now()),
		ScanHistory: HistoryStats{
			TotalScans:        user.ScanCount,
			LastScannedAt:     user.LastScanAt,
			LastScannedBy:     user.LastScannedBy,
			LastPointsAwarded: user.LastPointsAwarded,
		},
	}
	if !active {
		st.ReactivateAt = user.QRReactivateAt
	}
	return st, nil
}

// Payload returns the stable QR payload for a user.
func (s *Service) Payload(ctx context.Context, userID string) (*models.QRPayload, error) {
	user, err := s.store.Users().GetByID(userID)
	if err != nil {
		return nil, err
	}
	payload := PayloadFor(user)
	return &payload, nil
}

// ForceReactivate clears a pending deactivation window (admin override).
func (s *Service) ForceReactivate(ctx context.Context, userID string) error {
	user, err := s.store.Users().GetByID(userID)
	if err != nil {
		return err
	}
	if user.QRReactivateAt == nil {
		return nil
	}

	Reactivate(user)
	if err := s.store.Users().UpdateScanState(user); err != nil {
		return fmt.Errorf("failed to reactivate QR: %w", err)
	}

	s.log.WithField("user_id", userID).Info("QR force reactivated")
	return nil
}
