// Package repotest provides an in-memory repositories.Store for service
// tests. A single mutex held across ExecuteInTransaction gives the same
// per-user serialization the SQL store gets from row locks, and a snapshot
// taken at transaction start provides rollback-on-error semantics.
package repotest

import (
	"strings"
	"sync"
	"time"

	"cleanbage/internal/models"
	"cleanbage/internal/repositories"
)

// Store implements repositories.Store against process memory.
type Store struct {
	mu            sync.Mutex
	users         map[string]models.User
	transactions  []models.Transaction
	scans         []models.ScanRecord
	notifications []models.Notification
	failures      map[string]error
}

var (
	_ repositories.Store = (*Store)(nil)
	_ repositories.Store = (*txStore)(nil)
)

// NewStore returns an empty in-memory store.
func NewStore() *Store {
	return &Store{
		users:    make(map[string]models.User),
		failures: make(map[string]error),
	}
}

// Seed inserts a user directly, bypassing hooks. The id must be set.
func (s *Store) Seed(user models.User) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if user.CreatedAt.IsZero() {
		user.CreatedAt = time.Now()
	}
	s.users[user.ID] = user
}

// FailWith makes the named operation return err until cleared with nil.
// Known operations: "users.create", "users.update", "users.update_points",
// "users.update_scan_state", "ledger.create", "scans.create",
// "notifications.create", "notifications.prune".
func (s *Store) FailWith(op string, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err == nil {
		delete(s.failures, op)
	} else {
		s.failures[op] = err
	}
}

// Transactions returns a copy of all ledger entries in insertion order.
func (s *Store) Transactions() []models.Transaction {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]models.Transaction(nil), s.transactions...)
}

// ScanRecords returns a copy of all scan records in insertion order.
func (s *Store) ScanRecords() []models.ScanRecord {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]models.ScanRecord(nil), s.scans...)
}

// NotificationsFor returns the user's notifications in insertion order.
func (s *Store) NotificationsFor(userID string) []models.Notification {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.Notification
	for _, n := range s.notifications {
		if n.UserID == userID {
			out = append(out, n)
		}
	}
	return out
}

// User returns the stored user state, or nil.
func (s *Store) User(id string) *models.User {
	s.mu.Lock()
	defer s.mu.Unlock()
	if u, ok := s.users[id]; ok {
		return &u
	}
	return nil
}

func (s *Store) Users() repositories.UserRepository {
	return &userRepo{s: s, lock: true}
}

func (s *Store) Ledger() repositories.TransactionRepository {
	return &txnRepo{s: s, lock: true}
}

func (s *Store) Scans() repositories.ScanRepository {
	return &scanRepo{s: s, lock: true}
}

func (s *Store) Notifications() repositories.NotificationRepository {
	return &notifRepo{s: s, lock: true}
}

// ExecuteInTransaction holds the store lock for the whole unit of work and
// restores the pre-transaction snapshot when fn fails.
func (s *Store) ExecuteInTransaction(fn func(repositories.Store) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	snapshot := s.copyState()
	tx := &txStore{s: s}
	if err := fn(tx); err != nil {
		s.restoreState(snapshot)
		return err
	}
	return nil
}

type state struct {
	users         map[string]models.User
	transactions  []models.Transaction
	scans         []models.ScanRecord
	notifications []models.Notification
}

func (s *Store) copyState() state {
	users := make(map[string]models.User, len(s.users))
	for k, v := range s.users {
		users[k] = v
	}
	return state{
		users:         users,
		transactions:  append([]models.Transaction(nil), s.transactions...),
		scans:         append([]models.ScanRecord(nil), s.scans...),
		notifications: append([]models.Notification(nil), s.notifications...),
	}
}

func (s *Store) restoreState(st state) {
	s.users = st.users
	s.transactions = st.transactions
	s.scans = st.scans
	s.notifications = st.notifications
}

// txStore is the view handed to transaction callbacks; the outer lock is
// already held, so its repositories skip locking.
type txStore struct {
	s *Store
}

func (t *txStore) Users() repositories.UserRepository { return &userRepo{s: t.s} }
func (t *txStore) Ledger() repositories.TransactionRepository {
	return &txnRepo{s: t.s}
}
func (t *txStore) Scans() repositories.ScanRepository { return &scanRepo{s: t.s} }
func (t *txStore) Notifications() repositories.NotificationRepository {
	return &notifRepo{s: t.s}
}

func (t *txStore) ExecuteInTransaction(fn func(repositories.Store) error) error {
	// Nested transactions run in the surrounding one.
	return fn(t)
}

type userRepo struct {
	s    *Store
	lock bool
}

func (r *userRepo) with(fn func() error) error {
	if r.lock {
		r.s.mu.Lock()
		defer r.s.mu.Unlock()
	}
	return fn()
}

func (r *userRepo) Create(user *models.User) error {
	return r.with(func() error {
		if err := r.s.failures["users.create"]; err != nil {
			return err
		}
		if user.ID == "" {
			user.ID = models.NewID("user")
		}
		for _, existing := range r.s.users {
			if strings.EqualFold(existing.Email, user.Email) {
				return repositories.ErrDuplicateIdentity
			}
		}
		if _, ok := r.s.users[user.ID]; ok {
			return repositories.ErrDuplicateIdentity
		}
		if user.CreatedAt.IsZero() {
			user.CreatedAt = time.Now()
		}
		r.s.users[user.ID] = *user
		return nil
	})
}

func (r *userRepo) GetByID(id string) (*models.User, error) {
	var out *models.User
	err := r.with(func() error {
		u, ok := r.s.users[id]
		if !ok {
			return repositories.ErrUserNotFound
		}
		out = &u
		return nil
	})
	return out, err
}

func (r *userRepo) GetByIDForUpdate(id string) (*models.User, error) {
	return r.GetByID(id)
}

func (r *userRepo) GetByEmail(email string) (*models.User, error) {
	var out *models.User
	err := r.with(func() error {
		for _, u := range r.s.users {
			if strings.EqualFold(u.Email, email) {
				copied := u
				out = &copied
				return nil
			}
		}
		return repositories.ErrUserNotFound
	})
	return out, err
}

func (r *userRepo) Update(user *models.User) error {
	return r.with(func() error {
		if err := r.s.failures["users.update"]; err != nil {
			return err
		}
		if _, ok := r.s.users[user.ID]; !ok {
			return repositories.ErrUserNotFound
		}
		r.s.users[user.ID] = *user
		return nil
	})
}

func (r *userRepo) UpdatePoints(user *models.User, newBalance int) error {
	return r.with(func() error {
		if err := r.s.failures["users.update_points"]; err != nil {
			return err
		}
		stored, ok := r.s.users[user.ID]
		if !ok {
			return repositories.ErrUserNotFound
		}
		stored.Points = newBalance
		r.s.users[user.ID] = stored
		user.Points = newBalance
		return nil
	})
}

func (r *userRepo) UpdateScanState(user *models.User) error {
	return r.with(func() error {
		if err := r.s.failures["users.update_scan_state"]; err != nil {
			return err
		}
		stored, ok := r.s.users[user.ID]
		if !ok {
			return repositories.ErrUserNotFound
		}
		stored.QRReactivateAt = user.QRReactivateAt
		stored.ScanCount = user.ScanCount
		stored.LastScanAt = user.LastScanAt
		stored.LastScannedBy = user.LastScannedBy
		stored.LastPointsAwarded = user.LastPointsAwarded
		r.s.users[user.ID] = stored
		return nil
	})
}

func (r *userRepo) List(limit, offset int) ([]models.User, int64, error) {
	var users []models.User
	err := r.with(func() error {
		for _, u := range r.s.users {
			users = append(users, u)
		}
		return nil
	})
	if err != nil {
		return nil, 0, err
	}
	total := int64(len(users))
	if offset > len(users) {
		offset = len(users)
	}
	users = users[offset:]
	if limit > 0 && limit < len(users) {
		users = users[:limit]
	}
	return users, total, nil
}

func (r *userRepo) IncrementTokenVersion(id string) error {
	return r.with(func() error {
		stored, ok := r.s.users[id]
		if !ok {
			return repositories.ErrUserNotFound
		}
		stored.TokenVersion++
		r.s.users[id] = stored
		return nil
	})
}

type txnRepo struct {
	s    *Store
	lock bool
}

func (r *txnRepo) with(fn func() error) error {
	if r.lock {
		r.s.mu.Lock()
		defer r.s.mu.Unlock()
	}
	return fn()
}

func (r *txnRepo) Create(txn *models.Transaction) error {
	return r.with(func() error {
		if err := r.s.failures["ledger.create"]; err != nil {
			return err
		}
		if txn.ID == "" {
			txn.ID = models.NewID("txn")
		}
		if txn.CreatedAt.IsZero() {
			txn.CreatedAt = time.Now()
		}
		r.s.transactions = append(r.s.transactions, *txn)
		return nil
	})
}

func (r *txnRepo) ListByUser(userID string, limit int) ([]models.Transaction, error) {
	var out []models.Transaction
	err := r.with(func() error {
		for i := len(r.s.transactions) - 1; i >= 0; i-- {
			if r.s.transactions[i].UserID == userID {
				out = append(out, r.s.transactions[i])
				if limit > 0 && len(out) == limit {
					break
				}
			}
		}
		return nil
	})
	return out, err
}

func (r *txnRepo) SumByUser(userID string) (int, error) {
	total := 0
	err := r.with(func() error {
		for _, txn := range r.s.transactions {
			if txn.UserID != userID {
				continue
			}
			if txn.Type == models.TransactionTypeSpend {
				total -= txn.Amount
			} else {
				total += txn.Amount
			}
		}
		return nil
	})
	return total, err
}

type scanRepo struct {
	s    *Store
	lock bool
}

func (r *scanRepo) with(fn func() error) error {
	if r.lock {
		r.s.mu.Lock()
		defer r.s.mu.Unlock()
	}
	return fn()
}

func (r *scanRepo) Create(record *models.ScanRecord) error {
	return r.with(func() error {
		if err := r.s.failures["scans.create"]; err != nil {
			return err
		}
		if record.ID == "" {
			record.ID = models.NewID("scan")
		}
		if record.CreatedAt.IsZero() {
			record.CreatedAt = time.Now()
		}
		r.s.scans = append(r.s.scans, *record)
		return nil
	})
}

func (r *scanRepo) ListByUser(userID string, limit int) ([]models.ScanRecord, error) {
	var out []models.ScanRecord
	err := r.with(func() error {
		for i := len(r.s.scans) - 1; i >= 0; i-- {
			if r.s.scans[i].UserID == userID {
				out = append(out, r.s.scans[i])
				if limit > 0 && len(out) == limit {
					break
				}
			}
		}
		return nil
	})
	return out, err
}

func (r *scanRepo) ListByCollector(collectorID string, limit int) ([]models.ScanRecord, error) {
	var out []models.ScanRecord
	err := r.with(func() error {
		for i := len(r.s.scans) - 1; i >= 0; i-- {
			if r.s.scans[i].CollectorID == collectorID {
				out = append(out, r.s.scans[i])
				if limit > 0 && len(out) == limit {
					break
				}
			}
		}
		return nil
	})
	return out, err
}

type notifRepo struct {
	s    *Store
	lock bool
}

func (r *notifRepo) with(fn func() error) error {
	if r.lock {
		r.s.mu.Lock()
		defer r.s.mu.Unlock()
	}
	return fn()
}

func (r *notifRepo) Create(n *models.Notification) error {
	return r.with(func() error {
		if err := r.s.failures["notifications.create"]; err != nil {
			return err
		}
		if n.ID == "" {
			n.ID = models.NewID("notif")
		}
		if n.CreatedAt.IsZero() {
			n.CreatedAt = time.Now()
		}
		r.s.notifications = append(r.s.notifications, *n)
		return nil
	})
}

func (r *notifRepo) ListByUser(userID string, unreadOnly bool) ([]models.Notification, error) {
	var out []models.Notification
	err := r.with(func() error {
		for i := len(r.s.notifications) - 1; i >= 0; i-- {
			n := r.s.notifications[i]
			if n.UserID != userID {
				continue
			}
			if unreadOnly && n.Read {
				continue
			}
			out = append(out, n)
		}
		return nil
	})
	return out, err
}

func (r *notifRepo) MarkRead(userID, id string) (bool, error) {
	found := false
	err := r.with(func() error {
		for i := range r.s.notifications {
			if r.s.notifications[i].ID == id && r.s.notifications[i].UserID == userID {
				r.s.notifications[i].Read = true
				found = true
				return nil
			}
		}
		return nil
	})
	return found, err
}

func (r *notifRepo) PruneOldest(userID string, keep int) error {
	return r.with(func() error {
		if err := r.s.failures["notifications.prune"]; err != nil {
			return err
		}
		var owned []int
		for i, n := range r.s.notifications {
			if n.UserID == userID {
				owned = append(owned, i)
			}
		}
		excess := len(owned) - keep
		if excess <= 0 {
			return nil
		}
		drop := make(map[int]bool, excess)
		for _, i := range owned[:excess] {
			drop[i] = true
		}
		kept := r.s.notifications[:0]
		for i, n := range r.s.notifications {
			if !drop[i] {
				kept = append(kept, n)
			}
		}
		r.s.notifications = kept
		return nil
	})
}
