// Package sessions keeps the live viewer sessions of a server in memory.
package sessions

import (
	"context"
	"errors"
	"log/slog"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/jackzampolin/layerscope/internal/viewer"
)

// ErrNotFound is returned for unknown or evicted session ids.
var ErrNotFound = errors.New("session not found")

// Config configures a Manager.
type Config struct {
	// IdleTimeout evicts sessions unused for this long (0 disables eviction)
	IdleTimeout time.Duration
	// Viewer options applied to every new session
	Viewer viewer.Options
	Logger *slog.Logger
}

// Manager owns the session map. Sessions are ephemeral: nothing survives a
// restart.
type Manager struct {
	mu       sync.RWMutex
	sessions map[string]*viewer.Session
	cfg      Config
	logger   *slog.Logger
	now      func() time.Time
	changed  chan struct{}
}

// NewManager creates an empty session manager.
func NewManager(cfg Config) *Manager {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	now := cfg.Viewer.Now
	if now == nil {
		now = time.Now
	}
	cfg.Viewer.Now = now
	return &Manager{
		sessions: make(map[string]*viewer.Session),
		cfg:      cfg,
		logger:   logger,
		now:      now,
		changed:  make(chan struct{}, 1),
	}
}

// Create starts a new, empty session.
func (m *Manager) Create() *viewer.Session {
	id := uuid.New().String()

	m.mu.Lock()
	s := viewer.NewSession(id, m.cfg.Viewer)
	m.sessions[id] = s
	m.mu.Unlock()

	m.logger.Debug("session created", "session_id", id)
	return s
}

// Get returns a session and marks it used.
func (m *Manager) Get(id string) (*viewer.Session, error) {
	m.mu.RLock()
	s, ok := m.sessions[id]
	m.mu.RUnlock()
	if !ok {
		return nil, ErrNotFound
	}
	s.Touch()
	return s, nil
}

// Delete removes a session.
func (m *Manager) Delete(id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.sessions[id]; !ok {
		return ErrNotFound
	}
	delete(m.sessions, id)
	m.logger.Debug("session deleted", "session_id", id)
	return nil
}

// List returns every session, oldest id first for a stable order.
func (m *Manager) List() []*viewer.Session {
	m.mu.RLock()
	out := make([]*viewer.Session, 0, len(m.sessions))
	for _, s := range m.sessions {
		out = append(out, s)
	}
	m.mu.RUnlock()

	slices.SortFunc(out, func(a, b *viewer.Session) int {
		return strings.Compare(a.ID(), b.ID())
	})
	return out
}

// Len returns the number of live sessions.
func (m *Manager) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

// Sweep evicts sessions idle for longer than idle and returns how many were
// removed. A non-positive idle removes nothing.
func (m *Manager) Sweep(idle time.Duration) int {
	if idle <= 0 {
		return 0
	}
	cutoff := m.now().Add(-idle)

	m.mu.Lock()
	defer m.mu.Unlock()
	removed := 0
	for id, s := range m.sessions {
		if s.IdleSince().Before(cutoff) {
			delete(m.sessions, id)
			removed++
		}
	}
	if removed > 0 {
		m.logger.Info("evicted idle sessions", "count", removed, "remaining", len(m.sessions))
	}
	return removed
}

// Run sweeps idle sessions until ctx is cancelled. The tick is a quarter of
// the idle timeout, at least a second, and is recomputed after every sweep
// and whenever SetIdleTimeout is called. A changed timeout is applied with an
// immediate sweep. While the timeout is 0 the loop only waits for a change.
func (m *Manager) Run(ctx context.Context) {
	timer := time.NewTimer(m.sweepInterval())
	defer timer.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-timer.C:
		case <-m.changed:
			timer.Stop()
		}
		m.Sweep(m.IdleTimeout())
		timer.Reset(m.sweepInterval())
	}
}

// disabledPoll is how long Run sleeps between wakeups while eviction is off.
const disabledPoll = time.Hour

func (m *Manager) sweepInterval() time.Duration {
	idle := m.IdleTimeout()
	if idle <= 0 {
		return disabledPoll
	}
	return max(idle/4, time.Second)
}

// IdleTimeout returns the current eviction timeout.
func (m *Manager) IdleTimeout() time.Duration {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.cfg.IdleTimeout
}

// SetIdleTimeout changes the eviction timeout and wakes Run so it takes
// effect right away.
func (m *Manager) SetIdleTimeout(d time.Duration) {
	m.mu.Lock()
	m.cfg.IdleTimeout = d
	m.mu.Unlock()

	select {
	case m.changed <- struct{}{}:
	default:
	}
}

// ViewerOptions returns the options given to new sessions.
func (m *Manager) ViewerOptions() viewer.Options {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.cfg.Viewer
}

// SetViewerOptions changes the options for sessions created from now on.
// Existing sessions keep theirs. The manager's clock is kept.
func (m *Manager) SetViewerOptions(opts viewer.Options) {
	opts.Now = m.now
	m.mu.Lock()
	m.cfg.Viewer = opts
	m.mu.Unlock()
}
