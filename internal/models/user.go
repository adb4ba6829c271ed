package models

import (
	"time"

	"gorm.io/gorm"
)

// User roles
const (
	RoleUser      = "user"
	RoleCollector = "collector"
	RoleAdmin     = "admin"
)

type User struct {
	ID                string     `gorm:"primaryKey" json:"id"`
	Name              string     `gorm:"not null" json:"name"`
	Email             string     `gorm:"uniqueIndex;not null" json:"email"`
	Password          string     `gorm:"not null" json:"-"`
	Phone             string     `json:"phone"`
	Society           string     `gorm:"default:'Default Society'" json:"society"`
	Role              string     `gorm:"default:'user'" json:"role"`
	Points            int        `gorm:"not null;default:0" json:"points"`
	QRReactivateAt    *time.Time `json:"qrReactivateAt,omitempty"`
	ScanCount         int        `gorm:"not null;default:0" json:"scanCount"`
	LastScanAt        *time.Time `json:"lastScanAt,omitempty"`
	LastScannedBy     string     `json:"lastScannedBy,omitempty"`
	LastPointsAwarded int        `gorm:"default:0" json:"lastPointsAwarded"`
	TokenVersion      int        `gorm:"default:1" json:"-"`
	CreatedAt         time.Time  `json:"createdAt"`
	UpdatedAt         time.Time  `json:"updatedAt"`
}

func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.ID == "" {
		u.ID = NewID("user")
	}
	return nil
}

// CreateUserInput carries the fields accepted at registration.
type CreateUserInput struct {
	Name     string `json:"name" validate:"required"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8"`
	Phone    string `json:"phone"`
	Society  string `json:"society"`
	Role     string `json:"role" validate:"omitempty,oneof=user collector admin"`
}
