package session

import (
	"log/slog"
	"sync"
	"time"

	"github.com/deylin/studio/internal/engine"
)

// sendBuffer bounds queued messages per subscriber.
const sendBuffer = 64

// Session is one editing session: an engine plus the bookkeeping the
// manager needs for autosave and eviction.
type Session struct {
	ID        string
	Engine    *engine.Engine
	CreatedAt time.Time

	mu           sync.Mutex
	lastSeen     time.Time
	savedVersion uint64
	subscribers  map[string]chan []byte
}

func newSession(id string, e *engine.Engine, now time.Time) *Session {
	return &Session{
		ID:           id,
		Engine:       e,
		CreatedAt:    now,
		lastSeen:     now,
		savedVersion: e.Store().Version(),
		subscribers:  make(map[string]chan []byte),
	}
}

// Dirty reports whether the scene changed since the last snapshot.
func (s *Session) Dirty() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.Engine.Store().Version() != s.savedVersion
}

func (s *Session) markSaved(version uint64) {
	s.mu.Lock()
	s.savedVersion = max(s.savedVersion, version)
	s.mu.Unlock()
}

func (s *Session) touch(now time.Time) {
	s.mu.Lock()
	s.lastSeen = now
	s.mu.Unlock()
}

func (s *Session) LastSeen() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastSeen
}

// idle reports whether the session saw no traffic since cutoff and has no
// live subscribers.
func (s *Session) idle(cutoff time.Time) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.subscribers) == 0 && s.lastSeen.Before(cutoff)
}

// Subscribe registers a listener for scene updates. The returned channel is
// closed by the cancel func or when the session is evicted.
func (s *Session) Subscribe(clientID string) (<-chan []byte, func()) {
	ch := make(chan []byte, sendBuffer)
	s.mu.Lock()
	if old, ok := s.subscribers[clientID]; ok {
		close(old)
	}
	s.subscribers[clientID] = ch
	s.mu.Unlock()

	return ch, func() { s.unsubscribe(clientID, ch) }
}

func (s *Session) unsubscribe(clientID string, ch chan []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if cur, ok := s.subscribers[clientID]; ok && cur == ch {
		delete(s.subscribers, clientID)
		close(ch)
	}
}

// Subscribers returns the number of live listeners.
func (s *Session) Subscribers() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.subscribers)
}

// Broadcast queues msg for every subscriber. Slow subscribers drop messages
// rather than stall the sender.
func (s *Session) Broadcast(msg []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, ch := range s.subscribers {
		select {
		case ch <- msg:
		default:
			slog.Warn("subscriber buffer full, dropping message", "session", s.ID, "client", id)
		}
	}
}

func (s *Session) closeSubscribers() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, ch := range s.subscribers {
		close(ch)
		delete(s.subscribers, id)
	}
}
