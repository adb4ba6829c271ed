package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"cleanbage/internal/models"

	"github.com/redis/go-redis/v9"
)

type CacheService struct {
	client *redis.Client
	ttl    time.Duration
}

func NewCacheService(client *redis.Client, defaultTTL time.Duration) *CacheService {
	return &CacheService{
		client: client,
		ttl:    defaultTTL,
	}
}

// Base operations
func (s *CacheService) Set(ctx context.Context, key string, value interface{}) error {
	return s.SetWithTTL(ctx, key, value, s.ttl)
}

func (s *CacheService) SetWithTTL(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to marshal cache value: %w", err)
	}
	return s.client.Set(ctx, key, data, ttl).Err()
}

func (s *CacheService) Get(ctx context.Context, key string, dest interface{}) (bool, error) {
	data, err := s.client.Get(ctx, key).Bytes()
	if err != nil {
		if err == redis.Nil {
			return false, nil
		}
		return false, fmt.Errorf("failed to get cache value: %w", err)
	}

	if err := json.Unmarshal(data, dest); err != nil {
		return false, fmt.Errorf("failed to unmarshal cache value: %w", err)
	}
	return true, nil
}

func (s *CacheService) Delete(ctx context.Context, keys ...string) error {
	return s.client.Del(ctx, keys...).Err()
}

// Key generation
func (s *CacheService) GenerateKey(entityType, keyType string, value interface{}) string {
	return fmt.Sprintf("%s:%s:%v", entityType, keyType, value)
}

// cachedUser is the storage shape for user cache entries. models.User hides
// Password and TokenVersion from API JSON, so marshaling it directly would
// drop both on the round-trip and hand back a user that fails every
// token-version and password check. The cache marshals this shape instead,
// which keeps every persisted field.
type cachedUser struct {
	ID                string     `json:"id"`
	Name              string     `json:"name"`
	Email             string     `json:"email"`
	Password          string     `json:"password"`
	Phone             string     `json:"phone"`
	Society           string     `json:"society"`
	Role              string     `json:"role"`
	Points            int        `json:"points"`
	QRReactivateAt    *time.Time `json:"qrReactivateAt,omitempty"`
	ScanCount         int        `json:"scanCount"`
	LastScanAt        *time.Time `json:"lastScanAt,omitempty"`
	LastScannedBy     string     `json:"lastScannedBy,omitempty"`
	LastPointsAwarded int        `json:"lastPointsAwarded"`
	TokenVersion      int        `json:"tokenVersion"`
	CreatedAt         time.Time  `json:"createdAt"`
	UpdatedAt         time.Time  `json:"updatedAt"`
}

func newCachedUser(u *models.User) *cachedUser {
	return &cachedUser{
		ID:                u.ID,
		Name:              u.Name,
		Email:             u.Email,
		Password:          u.Password,
		Phone:             u.Phone,
		Society:           u.Society,
		Role:              u.Role,
		Points:            u.Points,
		QRReactivateAt:    u.QRReactivateAt,
		ScanCount:         u.ScanCount,
		LastScanAt:        u.LastScanAt,
		LastScannedBy:     u.LastScannedBy,
		LastPointsAwarded: u.LastPointsAwarded,
		TokenVersion:      u.TokenVersion,
		CreatedAt:         u.CreatedAt,
		UpdatedAt:         u.UpdatedAt,
	}
}

func (c *cachedUser) user() *models.User {
	return &models.User{
		ID:                c.ID,
		Name:              c.Name,
		Email:             c.Email,
		Password:          c.Password,
		Phone:             c.Phone,
		Society:           c.Society,
		Role:              c.Role,
		Points:            c.Points,
		QRReactivateAt:    c.QRReactivateAt,
		ScanCount:         c.ScanCount,
		LastScanAt:        c.LastScanAt,
		LastScannedBy:     c.LastScannedBy,
		LastPointsAwarded: c.LastPointsAwarded,
		TokenVersion:      c.TokenVersion,
		CreatedAt:         c.CreatedAt,
		UpdatedAt:         c.UpdatedAt,
	}
}

// User caching
func (s *CacheService) CacheUser(ctx context.Context, user *models.User) error {
	if user == nil {
		return errors.New("cannot cache nil user")
	}

	keys := []string{
		s.GenerateKey("user", "id", user.ID),
		s.GenerateKey("user", "email", user.Email),
	}

	entry := newCachedUser(user)
	for _, key := range keys {
		if err := s.Set(ctx, key, entry); err != nil {
			return err
		}
	}
	return nil
}

func (s *CacheService) GetUser(ctx context.Context, key string) (*models.User, error) {
	var entry cachedUser
	found, err := s.Get(ctx, key, &entry)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, errors.New("user not found in cache")
	}
	return entry.user(), nil
}

// InvalidateUser drops every cache entry pointing at the user. The email is
// passed explicitly so invalidation works even when the cached copy is stale.
func (s *CacheService) InvalidateUser(ctx context.Context, userID, email string) error {
	keys := []string{s.GenerateKey("user", "id", userID)}
	if email != "" {
		keys = append(keys, s.GenerateKey("user", "email", email))
	}
	return s.Delete(ctx, keys...)
}

// FlushAll flushes all keys from the cache
func (s *CacheService) FlushAll(ctx context.Context) error {
	return s.client.FlushAll(ctx).Err()
}

// Close closes the Redis client connection
func (s *CacheService) Close() error {
	return s.client.Close()
}
