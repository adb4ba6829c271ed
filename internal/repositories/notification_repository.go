package repositories

import (
	"cleanbage/internal/models"

	"gorm.io/gorm"
)

// NotificationRepository stores per-user notification mailboxes.
type NotificationRepository interface {
	Create(n *models.Notification) error
	ListByUser(userID string, unreadOnly bool) ([]models.Notification, error)
	// MarkRead flips the read flag; returns false when the id is unknown or
	// belongs to another user.
	MarkRead(userID, id string) (bool, error)
	// PruneOldest deletes everything past the newest `keep` notifications.
	PruneOldest(userID string, keep int) error
}

type notificationRepository struct {
	db *gorm.DB
}

// NewNotificationRepository creates a new notification repository.
func NewNotificationRepository(db *gorm.DB) NotificationRepository {
	return &notificationRepository{db: db}
}

func (r *notificationRepository) Create(n *models.Notification) error {
	if err := r.db.Create(n).Error; err != nil {
		return ErrDatabaseOperation
	}
	return nil
}

func (r *notificationRepository) ListByUser(userID string, unreadOnly bool) ([]models.Notification, error) {
	query := r.db.Where("user_id = ?", userID)
	if unreadOnly {
		query = query.Where("read = ?", false)
	}

	var notifications []models.Notification
	if err := query.Order("created_at DESC").Find(&notifications).Error; err != nil {
		return nil, ErrDatabaseOperation
	}
	return notifications, nil
}

func (r *notificationRepository) MarkRead(userID, id string) (bool, error) {
	result := r.db.Model(&models.Notification{}).
		Where("id = ? AND user_id = ?", id, userID).
		Update("read", true)
	if result.Error != nil {
		return false, ErrDatabaseOperation
	}
	return result.RowsAffected > 0, nil
}

func (r *notificationRepository) PruneOldest(userID string, keep int) error {
	// Postgres cannot LIMIT a DELETE directly, so delete everything not in
	// the newest `keep` rows.
	err := r.db.Exec(`
		DELETE FROM notifications
		WHERE user_id = ?
		AND id NOT IN (
			SELECT id FROM notifications
			WHERE user_id = ?
			ORDER BY created_at DESC
			LIMIT ?
		)`, userID, userID, keep).Error
	if err != nil {
		return ErrDatabaseOperation
	}
	return nil
}
