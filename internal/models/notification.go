package models

import (
	"time"

	"gorm.io/gorm"
)

// Notification types
const (
	NotificationTypeReward      = "reward"
	NotificationTypeInfo        = "info"
	NotificationTypeWarning     = "warning"
	NotificationTypeAchievement = "achievement"
)

type Notification struct {
	ID        string    `gorm:"primaryKey" json:"id"`
	UserID    string    `gorm:"index;not null" json:"userId"`
	Title     string    `gorm:"not null" json:"title"`
	Message   string    `gorm:"not null" json:"message"`
	Type      string    `gorm:"not null;default:'info'" json:"type"`
	Read      bool      `gorm:"not null;default:false" json:"read"`
	Data      JSON      `gorm:"type:jsonb" json:"data,omitempty"`
	CreatedAt time.Time `gorm:"index" json:"timestamp"`
}

func (n *Notification) BeforeCreate(tx *gorm.DB) error {
	if n.ID == "" {
		n.ID = NewID("notif")
	}
	return nil
}
