// Package session keeps the live editing sessions of a server: it creates
// engines, looks them up, snapshots dirty scenes and evicts idle ones.
package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/deylin/studio/internal/engine"
	"github.com/deylin/studio/internal/snapshotstore"
	"github.com/deylin/studio/internal/typeid"
)

var (
	ErrNotFound = errors.New("session not found")
	ErrNoStore  = errors.New("snapshot store not configured")
)

// DefaultIdleTimeout is how long an untouched session stays in memory.
const DefaultIdleTimeout = 30 * time.Minute

type Options struct {
	// Store persists snapshots. Nil disables saving and restoring.
	Store snapshotstore.Store
	// NewEngine builds the engine of a new session.
	NewEngine   func() *engine.Engine
	IdleTimeout time.Duration
	Now         func() time.Time
}

type Manager struct {
	mu       sync.RWMutex
	sessions map[string]*Session

	store       snapshotstore.Store
	newEngine   func() *engine.Engine
	idleTimeout time.Duration
	now         func() time.Time
}

func NewManager(opts Options) *Manager {
	m := &Manager{
		sessions:    make(map[string]*Session),
		store:       opts.Store,
		newEngine:   opts.NewEngine,
		idleTimeout: opts.IdleTimeout,
		now:         opts.Now,
	}
	if m.newEngine == nil {
		m.newEngine = func() *engine.Engine { return engine.New(engine.Options{}) }
	}
	if m.idleTimeout <= 0 {
		m.idleTimeout = DefaultIdleTimeout
	}
	if m.now == nil {
		m.now = time.Now
	}
	return m
}

// Create starts a session. When restoreFrom names an earlier session, its
// latest snapshot seeds the scene.
func (m *Manager) Create(ctx context.Context, restoreFrom string) (*Session, error) {
	e := m.newEngine()

	if restoreFrom != "" {
		if m.store == nil {
			return nil, ErrNoStore
		}
		snap, err := m.store.Latest(ctx, restoreFrom)
		if err != nil {
			return nil, fmt.Errorf("restore %s: %w", restoreFrom, err)
		}
		e.Restore(snap.Document)
	}

	s := newSession(typeid.NewSessionID(), e, m.now())

	m.mu.Lock()
	m.sessions[s.ID] = s
	m.mu.Unlock()

	slog.Info("session created", "session", s.ID, "restoredFrom", restoreFrom)
	return s, nil
}

// Get returns a live session and marks it as active.
func (m *Manager) Get(id string) (*Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.sessions[id]
	if !ok {
		return nil, ErrNotFound
	}
	// Touch under the lock so a sweep cannot evict between lookup and touch.
	s.touch(m.now())
	return s, nil
}

func (m *Manager) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

// Save snapshots session id now, dirty or not.
func (m *Manager) Save(ctx context.Context, id string) (snapshotstore.Snapshot, error) {
	s, err := m.Get(id)
	if err != nil {
		return snapshotstore.Snapshot{}, err
	}
	return m.save(ctx, s)
}

func (m *Manager) save(ctx context.Context, s *Session) (snapshotstore.Snapshot, error) {
	if m.store == nil {
		return snapshotstore.Snapshot{}, ErrNoStore
	}
	s.Engine.Controller().Flush()
	version := s.Engine.Store().Version()
	doc, err := s.Engine.Serialize()
	if err != nil {
		return snapshotstore.Snapshot{}, err
	}
	snap, err := m.store.Save(ctx, s.ID, doc)
	if err != nil {
		return snapshotstore.Snapshot{}, fmt.Errorf("save session %s: %w", s.ID, err)
	}
	s.markSaved(version)
	return snap, nil
}

// SaveDirty snapshots every session changed since its last save and
// returns how many were written.
func (m *Manager) SaveDirty(ctx context.Context) (int, error) {
	if m.store == nil {
		return 0, nil
	}
	var (
		saved int
		errs  []error
	)
	for _, s := range m.list() {
		if !s.Dirty() {
			continue
		}
		if _, err := m.save(ctx, s); err != nil {
			errs = append(errs, err)
			continue
		}
		saved++
	}
	if saved > 0 {
		slog.Info("autosaved sessions", "count", saved)
	}
	return saved, errors.Join(errs...)
}

// EvictIdle drops sessions without traffic for the idle timeout, saving
// dirty ones first. A session whose save fails is kept for the next sweep.
func (m *Manager) EvictIdle(ctx context.Context) int {
	cutoff := m.now().Add(-m.idleTimeout)
	evicted := 0
	for _, s := range m.list() {
		if !s.idle(cutoff) {
			continue
		}
		if m.store != nil && s.Dirty() {
			if _, err := m.save(ctx, s); err != nil {
				slog.Error("save before eviction failed", "session", s.ID, "error", err)
				continue
			}
		}
		if !m.evictIfIdle(s, cutoff) {
			slog.Debug("session became active during eviction", "session", s.ID)
			continue
		}
		evicted++
		slog.Info("session evicted", "session", s.ID, "idleSince", s.LastSeen())
	}
	return evicted
}

// Discard ends session id without saving it and deletes its snapshots.
func (m *Manager) Discard(ctx context.Context, id string) error {
	m.mu.Lock()
	s, ok := m.sessions[id]
	delete(m.sessions, id)
	m.mu.Unlock()
	if !ok {
		return ErrNotFound
	}
	s.closeSubscribers()

	if m.store != nil {
		if err := m.store.Delete(ctx, id); err != nil {
			return fmt.Errorf("delete snapshots of %s: %w", id, err)
		}
	}
	slog.Info("session discarded", "session", id)
	return nil
}

// Close saves every dirty session and drops them all.
func (m *Manager) Close(ctx context.Context) error {
	_, err := m.SaveDirty(ctx)
	for _, s := range m.list() {
		m.remove(s.ID)
	}
	return err
}

// evictIfIdle removes s only if it is still idle and has nothing unsaved.
// Gets and edits that land after the save keep the session alive.
func (m *Manager) evictIfIdle(s *Session, cutoff time.Time) bool {
	m.mu.Lock()
	if m.sessions[s.ID] != s || !s.idle(cutoff) || (m.store != nil && s.Dirty()) {
		m.mu.Unlock()
		return false
	}
	delete(m.sessions, s.ID)
	m.mu.Unlock()
	s.closeSubscribers()
	return true
}

func (m *Manager) remove(id string) {
	m.mu.Lock()
	s, ok := m.sessions[id]
	delete(m.sessions, id)
	m.mu.Unlock()
	if ok {
		s.closeSubscribers()
	}
}

func (m *Manager) list() []*Session {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]*Session, 0, len(m.sessions))
	for _, s := range m.sessions {
		out = append(out, s)
	}
	return out
}
