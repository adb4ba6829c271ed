package repositories

import (
	"errors"

	"cleanbage/internal/models"
)

var (
	ErrUserNotFound      = errors.New("user not found")
	ErrDuplicateIdentity = errors.New("user with this email or id already exists")
	ErrDatabaseOperation = errors.New("database operation failed")
)

// UserRepository is the identity registry's storage contract.
// Points and QR state mutations go through UpdatePoints/UpdateScanState so
// callers cannot read-modify-write the balance across two operations.
type UserRepository interface {
	Create(user *models.User) error
	GetByID(id string) (*models.User, error)
	// GetByIDForUpdate locks the user's row for the remainder of the
	// surrounding transaction. Only meaningful inside ExecuteInTransaction.
	GetByIDForUpdate(id string) (*models.User, error)
	GetByEmail(email string) (*models.User, error)
	Update(user *models.User) error
	// UpdatePoints persists a new balance computed against a locked row.
	UpdatePoints(user *models.User, newBalance int) error
	// UpdateScanState persists the QR activation fields only.
	UpdateScanState(user *models.User) error
	List(limit, offset int) ([]models.User, int64, error)
	IncrementTokenVersion(id string) error
}
