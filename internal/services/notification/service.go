// Package notification implements the per-user notification outbox. It is a
// mailbox, not a delivery queue: messages sit until the owner pulls them,
// and only the newest MaxPerUser are retained.
package notification

import (
	"context"

	"cleanbage/internal/models"
	"cleanbage/internal/repositories"

	"github.com/sirupsen/logrus"
)

// MaxPerUser caps how many notifications are retained per user; the oldest
// are silently dropped on overflow.
const MaxPerUser = 50

// Input is a notification to be pushed into a user's outbox.
type Input struct {
	Title   string
	Message string
	Type    string
	Data    map[string]interface{}
}

// Service is the notification outbox.
type Service struct {
	store repositories.Store
	log   *logrus.Entry
}

// NewService creates a new outbox service.
func NewService(store repositories.Store) *Service {
	if store == nil {
		panic("store is required")
	}
	return &Service{
		store: store,
		log:   logrus.WithField("component", "notification"),
	}
}

// Push appends a notification to the user's outbox and prunes past the
// retention cap.
func (s *Service) Push(ctx context.Context, userID string, input Input) (*models.Notification, error) {
	typ := input.Type
	if typ == "" {
		typ = models.NotificationTypeInfo
	}

	n := &models.Notification{
		ID:      models.NewID("notif"),
		UserID:  userID,
		Title:   input.Title,
		Message: input.Message,
		Type:    typ,
	}
	if input.Data != nil {
		n.Data = models.NewJSON(input.Data)
	}

	if err := s.store.Notifications().Create(n); err != nil {
		return nil, err
	}

	if err := s.store.Notifications().PruneOldest(userID, MaxPerUser); err != nil {
		// Retention is best effort; the next push prunes again.
		s.log.WithError(err).WithField("user_id", userID).
			Warn("failed to prune notifications")
	}

	return n, nil
}

// List returns the user's notifications newest-first.
func (s *Service) List(ctx context.Context, userID string, unreadOnly bool) ([]models.Notification, error) {
	return s.store.Notifications().ListByUser(userID, unreadOnly)
}

// MarkReadOwned flags a notification as read, scoped to its owner. Returns
// false for ids that are unknown or belong to someone else. Marking an
// already-read notification again is a no-op that still reports true.
func (s *Service) MarkReadOwned(ctx context.Context, userID, id string) (bool, error) {
	return s.store.Notifications().MarkRead(userID, id)
}
