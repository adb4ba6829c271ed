package repositories

import (
	"context"
	"errors"

	"cleanbage/internal/models"

	"cleanbage/internal/repositories/cache"

	"gorm.io/gorm"
)

type userRepository struct {
	db    *gorm.DB
	cache *cache.CacheService
	// pending is set when the repository operates inside a transaction;
	// invalidations are deferred to it and the cache is not read or written
	// until the transaction commits.
	pending *pendingInvalidations
}

// NewUserRepository creates a new instance of UserRepository
func NewUserRepository(db *gorm.DB, cacheSvc *cache.CacheService) UserRepository {
	return &userRepository{db: db, cache: cacheSvc}
}

func (r *userRepository) Create(user *models.User) error {
	result := r.db.Create(user)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrDuplicatedKey) {
			return ErrDuplicateIdentity
		}
		return ErrDatabaseOperation
	}
	return nil
}

func (r *userRepository) GetByID(id string) (*models.User, error) {
	if r.cache != nil && r.pending == nil {
		key := r.cache.GenerateKey("user", "id", id)
		if user, err := r.cache.GetUser(context.Background(), key); err == nil {
			return user, nil
		}
	}

	var user models.User
	if err := r.db.Where("id = ?", id).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}

	// In-transaction reads see uncommitted rows, which must not reach the
	// cache. Outside a transaction the write is best effort; a cold cache
	// only costs the next read a query.
	if r.cache != nil && r.pending == nil {
		_ = r.cache.CacheUser(context.Background(), &user)
	}

	return &user, nil
}

func (r *userRepository) GetByIDForUpdate(id string) (*models.User, error) {
	var user models.User
	err := r.db.Set("gorm:for_update", true).
		Where("id = ?", id).
		First(&user).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return &user, nil
}

func (r *userRepository) GetByEmail(email string) (*models.User, error) {
	var user models.User
	result := r.db.Where("email = ?", email).First(&user)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, ErrDatabaseOperation
	}
	return &user, nil
}

func (r *userRepository) Update(user *models.User) error {
	result := r.db.Save(user)
	if result.Error != nil {
		return ErrDatabaseOperation
	}
	r.invalidate(user)
	return nil
}

func (r *userRepository) UpdatePoints(user *models.User, newBalance int) error {
	if err := r.db.Model(user).Update("points", newBalance).Error; err != nil {
		return ErrDatabaseOperation
	}
	user.Points = newBalance
	r.invalidate(user)
	return nil
}

func (r *userRepository) UpdateScanState(user *models.User) error {
	err := r.db.Model(user).Updates(map[string]interface{}{
		"qr_reactivate_at":    user.QRReactivateAt,
		"scan_count":          user.ScanCount,
		"last_scan_at":        user.LastScanAt,
		"last_scanned_by":     user.LastScannedBy,
		"last_points_awarded": user.LastPointsAwarded,
	}).Error
	if err != nil {
		return ErrDatabaseOperation
	}
	r.invalidate(user)
	return nil
}

func (r *userRepository) List(limit, offset int) ([]models.User, int64, error) {
	var users []models.User
	var total int64

	if err := r.db.Model(&models.User{}).Count(&total).Error; err != nil {
		return nil, 0, ErrDatabaseOperation
	}

	err := r.db.Order("created_at DESC").Limit(limit).Offset(offset).Find(&users).Error
	if err != nil {
		return nil, 0, ErrDatabaseOperation
	}
	return users, total, nil
}

func (r *userRepository) IncrementTokenVersion(id string) error {
	result := r.db.Model(&models.User{}).
		Where("id = ?", id).
		Update("token_version", gorm.Expr("token_version + 1"))
	if result.Error != nil {
		return ErrDatabaseOperation
	}
	if result.RowsAffected == 0 {
		return ErrUserNotFound
	}
	if r.pending != nil {
		r.pending.add(id, "")
	} else if r.cache != nil {
		_ = r.cache.InvalidateUser(context.Background(), id, "")
	}
	return nil
}

func (r *userRepository) invalidate(user *models.User) {
	// Inside a transaction the delete is deferred until after commit, so a
	// concurrent reader cannot re-cache the pre-commit row in the gap.
	if r.pending != nil {
		r.pending.add(user.ID, user.Email)
		return
	}
	if r.cache == nil {
		return
	}
	_ = r.cache.InvalidateUser(context.Background(), user.ID, user.Email)
}
