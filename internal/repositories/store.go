package repositories

import (
	"context"

	"cleanbage/internal/repositories/cache"

	"gorm.io/gorm"
)

// Store bundles the per-entity repositories behind a single handle so a
// caller can run multi-entity units of work atomically. Inside
// ExecuteInTransaction every repository obtained from the passed Store
// operates on the same database transaction.
type Store interface {
	Users() UserRepository
	Ledger() TransactionRepository
	Scans() ScanRepository
	Notifications() NotificationRepository
	ExecuteInTransaction(fn func(Store) error) error
}

type gormStore struct {
	db    *gorm.DB
	cache *cache.CacheService
	// pending is non-nil only inside a transaction; it collects user cache
	// invalidations to run after commit.
	pending *pendingInvalidations
}

// NewStore creates a Store backed by GORM and the Redis cache service.
func NewStore(db *gorm.DB, cacheSvc *cache.CacheService) Store {
	if db == nil {
		panic("db is required")
	}
	return &gormStore{db: db, cache: cacheSvc}
}

func (s *gormStore) Users() UserRepository {
	return &userRepository{db: s.db, cache: s.cache, pending: s.pending}
}

func (s *gormStore) Ledger() TransactionRepository {
	return &transactionRepository{db: s.db}
}

func (s *gormStore) Scans() ScanRepository {
	return &scanRepository{db: s.db}
}

func (s *gormStore) Notifications() NotificationRepository {
	return &notificationRepository{db: s.db}
}

func (s *gormStore) ExecuteInTransaction(fn func(Store) error) error {
	pending := s.pending
	if pending == nil {
		pending = &pendingInvalidations{}
	}

	err := s.db.Transaction(func(tx *gorm.DB) error {
		return fn(&gormStore{db: tx, cache: s.cache, pending: pending})
	})
	if err != nil {
		return err
	}

	// Invalidate only after commit. Deleting the cache entry while the
	// transaction is still open lets a concurrent read re-cache the
	// pre-commit row, and nothing would clear it afterwards.
	if s.pending == nil && s.cache != nil {
		pending.flush(s.cache)
	}
	return nil
}

// userCacheInvalidator is the slice of CacheService the commit hook needs.
type userCacheInvalidator interface {
	InvalidateUser(ctx context.Context, userID, email string) error
}

// pendingInvalidations accumulates the users touched inside a transaction.
type pendingInvalidations struct {
	targets []invalidationTarget
}

type invalidationTarget struct {
	userID string
	email  string
}

func (p *pendingInvalidations) add(userID, email string) {
	for i, t := range p.targets {
		if t.userID == userID {
			if t.email == "" {
				p.targets[i].email = email
			}
			return
		}
	}
	p.targets = append(p.targets, invalidationTarget{userID: userID, email: email})
}

func (p *pendingInvalidations) flush(inv userCacheInvalidator) {
	for _, t := range p.targets {
		// Best effort; a missed delete only survives until the TTL.
		_ = inv.InvalidateUser(context.Background(), t.userID, t.email)
	}
	p.targets = nil
}
