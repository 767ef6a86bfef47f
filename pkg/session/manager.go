package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/aretw0/govform/internal/logging"
	"github.com/aretw0/govform/pkg/domain"
	"github.com/aretw0/govform/pkg/draft"
	"github.com/aretw0/govform/pkg/ports"
	"github.com/aretw0/govform/pkg/wizard"
)

// DefaultLockTTL bounds how long a distributed lock survives a crashed holder.
const DefaultLockTTL = 30 * time.Second

// lockEntry holds the mutex and the reference count.
type lockEntry struct {
	mu   sync.Mutex
	refs int
}

// Manager orchestrates session access, ensuring safe concurrent operations.
// It uses Reference Counting to garbage collect unused locks.
type Manager struct {
	slots ports.SlotStore

	mu       sync.Mutex            // Global lock for the maps
	locks    map[string]*lockEntry // Map of active locks
	machines map[string]*wizard.Machine

	locker   ports.DistributedLocker // Optional distributed locker
	lockTTL  time.Duration
	logger   *slog.Logger
	active   prometheus.Gauge
	machOpts []wizard.Option
	newID    func() string
}

// Option configures the Manager.
type Option func(*Manager)

// WithLocker enables distributed locking.
func WithLocker(locker ports.DistributedLocker) Option {
	return func(m *Manager) {
		m.locker = locker
	}
}

// WithLockTTL overrides DefaultLockTTL.
func WithLockTTL(ttl time.Duration) Option {
	return func(m *Manager) {
		if ttl > 0 {
			m.lockTTL = ttl
		}
	}
}

// WithLogger configures a logger for the Manager and its machines.
func WithLogger(logger *slog.Logger) Option {
	return func(m *Manager) {
		m.logger = logger
	}
}

// WithMachineOptions are applied to every machine the manager creates.
func WithMachineOptions(opts ...wizard.Option) Option {
	return func(m *Manager) {
		m.machOpts = append(m.machOpts, opts...)
	}
}

// WithActiveGauge tracks the number of live machines.
func WithActiveGauge(g prometheus.Gauge) Option {
	return func(m *Manager) {
		m.active = g
	}
}

// WithIDGenerator replaces the random session id source.
func WithIDGenerator(gen func() string) Option {
	return func(m *Manager) {
		m.newID = gen
	}
}

// NewManager creates a Session Manager persisting drafts into slots.
// A nil store keeps sessions in memory only.
func NewManager(slots ports.SlotStore, opts ...Option) *Manager {
	m := &Manager{
		slots:    slots,
		locks:    make(map[string]*lockEntry),
		machines: make(map[string]*wizard.Machine),
		lockTTL:  DefaultLockTTL,
		logger:   logging.NewNop(), // Default to no-op
		newID:    uuid.NewString,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// acquire gets or creates a lock entry and increments its reference count.
// The caller MUST Lock the entry.mu, and then call release(sessionID) after unlocking.
func (m *Manager) acquire(sessionID string) *lockEntry {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry, exists := m.locks[sessionID]
	if !exists {
		entry = &lockEntry{}
		m.locks[sessionID] = entry
	}
	entry.refs++
	return entry
}

// release decrements the reference count and deletes the entry if it reaches zero.
func (m *Manager) release(sessionID string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry, exists := m.locks[sessionID]
	if !exists {
		return
	}

	entry.refs--
	if entry.refs <= 0 {
		delete(m.locks, sessionID)
	}
}

func (m *Manager) lookup(sessionID string) (*wizard.Machine, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	mc, ok := m.machines[sessionID]
	return mc, ok
}

func (m *Manager) track() {
	if m.active != nil {
		m.active.Set(float64(len(m.machines)))
	}
}

// NewID returns a fresh session id.
func (m *Manager) NewID() string {
	return m.newID()
}

// Drafts returns the draft store of a session, or nil without persistence.
func (m *Manager) Drafts(sessionID string) *draft.Store {
	if m.slots == nil {
		return nil
	}
	return draft.New(m.slots, sessionID, draft.WithLogger(m.logger))
}

// Open returns the live machine of sessionID, creating it and restoring its
// draft on first access. An empty id starts a new session.
func (m *Manager) Open(ctx context.Context, sessionID string) (*wizard.Machine, error) {
	if sessionID == "" {
		sessionID = m.newID()
	}
	if mc, ok := m.lookup(sessionID); ok {
		return mc, nil
	}

	var mc *wizard.Machine
	err := m.WithLock(ctx, sessionID, func(ctx context.Context) error {
		if existing, ok := m.lookup(sessionID); ok {
			mc = existing
			return nil
		}

		opts := []wizard.Option{wizard.WithLogger(m.logger)}
		if d := m.Drafts(sessionID); d != nil {
			opts = append(opts, wizard.WithDrafts(d))
		}
		opts = append(opts, m.machOpts...)

		mc = wizard.New(sessionID, opts...)
		restored := mc.Restore(ctx)

		m.mu.Lock()
		m.machines[sessionID] = mc
		m.track()
		m.mu.Unlock()

		m.logger.Info("session opened", "session_id", sessionID, "restored", restored)
		return nil
	})
	return mc, err
}

// Get returns a live machine without touching storage.
func (m *Manager) Get(sessionID string) (*wizard.Machine, error) {
	if mc, ok := m.lookup(sessionID); ok {
		return mc, nil
	}
	return nil, fmt.Errorf("%w: %s", domain.ErrSessionNotFound, sessionID)
}

// Delete closes the live machine, if any, and erases the draft.
func (m *Manager) Delete(ctx context.Context, sessionID string) error {
	return m.WithLock(ctx, sessionID, func(ctx context.Context) error {
		m.mu.Lock()
		mc, live := m.machines[sessionID]
		delete(m.machines, sessionID)
		m.track()
		m.mu.Unlock()

		if live {
			mc.Close()
		}

		var stored bool
		if d := m.Drafts(sessionID); d != nil {
			var err error
			if stored, err = d.Exists(ctx); err != nil {
				return err
			}
			if err := d.Clear(ctx); err != nil {
				return err
			}
		}
		if !live && !stored {
			return fmt.Errorf("%w: %s", domain.ErrSessionNotFound, sessionID)
		}
		m.logger.Info("session deleted", "session_id", sessionID)
		return nil
	})
}

// Live lists the sessions held in memory.
func (m *Manager) Live() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	ids := make([]string, 0, len(m.machines))
	for id := range m.machines {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// List merges the live sessions with the ones that only exist as drafts.
func (m *Manager) List(ctx context.Context) ([]string, error) {
	seen := make(map[string]struct{})
	for _, id := range m.Live() {
		seen[id] = struct{}{}
	}
	if m.slots != nil {
		stored, err := draft.Sessions(ctx, m.slots)
		if err != nil {
			return nil, err
		}
		for _, id := range stored {
			seen[id] = struct{}{}
		}
	}
	ids := make([]string, 0, len(seen))
	for id := range seen {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids, nil
}

// Store returns the underlying slot store.
func (m *Manager) Store() ports.SlotStore {
	return m.slots
}

// Close disposes every live machine. Drafts are kept.
func (m *Manager) Close() error {
	m.mu.Lock()
	machines := m.machines
	m.machines = make(map[string]*wizard.Machine)
	m.track()
	m.mu.Unlock()

	for _, mc := range machines {
		mc.Close()
	}
	return nil
}

// WithLock executes a function while holding the lock for the session.
func (m *Manager) WithLock(ctx context.Context, sessionID string, fn func(context.Context) error) error {
	entry := m.acquire(sessionID)
	entry.mu.Lock()
	defer func() {
		entry.mu.Unlock()
		m.release(sessionID)
	}()

	if m.locker != nil {
		unlock, err := m.locker.Lock(ctx, sessionID, m.lockTTL)
		if err != nil {
			return fmt.Errorf("failed to acquire distributed lock: %w", err)
		}
		defer func() {
			if err := unlock(context.WithoutCancel(ctx)); err != nil {
				m.logger.Warn("Failed to release distributed lock (will expire via TTL)",
					"session_id", sessionID,
					"err", err,
				)
			}
		}()
	}

	return fn(ctx)
}

// IsNotFound reports whether err means the session does not exist.
func IsNotFound(err error) bool {
	return errors.Is(err, domain.ErrSessionNotFound)
}
