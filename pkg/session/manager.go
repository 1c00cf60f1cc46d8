package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"log/slog"

	"github.com/aretw0/artisan/internal/logging"
	"github.com/aretw0/artisan/pkg/domain"
	"github.com/aretw0/artisan/pkg/ports"
)

// DefaultLockTTL bounds how long a distributed lock outlives a crashed holder.
const DefaultLockTTL = 5 * time.Minute

// lockEntry holds the mutex and the reference count.
type lockEntry struct {
	mu   sync.Mutex
	refs int
}

// Manager serializes work per cache key, so concurrent identical solve
// requests run the search once and the rest read the cached record.
// It uses reference counting to garbage collect unused locks.
type Manager struct {
	store ports.MacroStore

	mu    sync.Mutex            // Global lock for the map
	locks map[string]*lockEntry // Map of active locks

	locker  ports.DistributedLocker // Optional distributed locker
	lockTTL time.Duration
	logger  *slog.Logger // Logger for internal events (like deferred errors)
}

// Option configures the Manager.
type Option func(*Manager)

// WithLocker enables distributed locking.
func WithLocker(locker ports.DistributedLocker) Option {
	return func(m *Manager) {
		m.locker = locker
	}
}

// WithLockTTL sets the distributed lock TTL. It should exceed the longest solve.
func WithLockTTL(ttl time.Duration) Option {
	return func(m *Manager) {
		if ttl > 0 {
			m.lockTTL = ttl
		}
	}
}

// WithLogger configures a logger for the Manager.
func WithLogger(logger *slog.Logger) Option {
	return func(m *Manager) {
		m.logger = logger
	}
}

// NewManager creates a new Manager over the given macro store.
func NewManager(store ports.MacroStore, opts ...Option) *Manager {
	m := &Manager{
		store:   store,
		locks:   make(map[string]*lockEntry),
		lockTTL: DefaultLockTTL,
		logger:  logging.NewNop(),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// acquire gets or creates a lock entry and increments its reference count.
// The caller MUST Lock the entry.mu, and then call release(key) after unlocking.
func (m *Manager) acquire(key string) *lockEntry {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry, exists := m.locks[key]
	if !exists {
		entry = &lockEntry{}
		m.locks[key] = entry
	}
	entry.refs++
	return entry
}

// release decrements the reference count and deletes the entry if it reaches zero.
func (m *Manager) release(key string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry, exists := m.locks[key]
	if !exists {
		return
	}

	entry.refs--
	if entry.refs <= 0 {
		delete(m.locks, key)
	}
}

// Load retrieves a cached record.
func (m *Manager) Load(ctx context.Context, key string) (*domain.Record, error) {
	var rec *domain.Record
	err := m.WithLock(ctx, key, func(ctx context.Context) error {
		var err error
		rec, err = m.store.Load(ctx, key)
		return err
	})
	return rec, err
}

// LoadOrSolve returns the cached record for key, or runs solve and caches
// its record when keep accepts it. Concurrent callers with the same key
// wait for the first one and then read its record.
func (m *Manager) LoadOrSolve(ctx context.Context, key string, solve func(context.Context) (*domain.Record, error), keep func(*domain.Record) bool) (*domain.Record, bool, error) {
	var (
		rec    *domain.Record
		cached bool
	)
	err := m.WithLock(ctx, key, func(ctx context.Context) error {
		var err error
		rec, err = m.store.Load(ctx, key)
		if err == nil {
			cached = true
			return nil
		}
		if !errors.Is(err, domain.ErrMacroNotFound) {
			return fmt.Errorf("failed to check cache: %w", err)
		}

		rec, err = solve(ctx)
		if err != nil {
			return err
		}
		if keep != nil && !keep(rec) {
			return nil
		}
		if err := m.store.Save(ctx, key, rec); err != nil {
			m.logger.Warn("failed to cache solved macro", "key", key, "err", err)
		}
		return nil
	})
	return rec, cached, err
}

// Save persists a record.
func (m *Manager) Save(ctx context.Context, key string, rec *domain.Record) error {
	return m.WithLock(ctx, key, func(ctx context.Context) error {
		return m.store.Save(ctx, key, rec)
	})
}

// Delete removes a record from the store.
func (m *Manager) Delete(ctx context.Context, key string) error {
	return m.WithLock(ctx, key, func(ctx context.Context) error {
		return m.store.Delete(ctx, key)
	})
}

// List delegates to the store.
func (m *Manager) List(ctx context.Context) ([]string, error) {
	return m.store.List(ctx)
}

// Store returns the underlying macro store.
func (m *Manager) Store() ports.MacroStore {
	return m.store
}

// WithLock executes a function while holding the lock for the key.
func (m *Manager) WithLock(ctx context.Context, key string, fn func(context.Context) error) error {
	entry := m.acquire(key)
	entry.mu.Lock()
	defer func() {
		entry.mu.Unlock()
		m.release(key)
	}()

	if m.locker != nil {
		unlock, err := m.locker.Lock(ctx, key, m.lockTTL)
		if err != nil {
			return fmt.Errorf("failed to acquire distributed lock: %w", err)
		}
		defer func() {
			// The solve context may be cancelled by now; the unlock must still run.
			if err := unlock(context.WithoutCancel(ctx)); err != nil {
				m.logger.Warn("Failed to release distributed lock (will expire via TTL)",
					"key", key,
					"err", err,
				)
			}
		}()
	}

	return fn(ctx)
}
