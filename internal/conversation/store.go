package conversation

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/parivelss/tamil-voice-gateway/internal/llm"
)

// Session is one live conversation. The embedded mutex serializes turns
// on the same session ID; concurrent turns for different IDs proceed in
// parallel.
type Session struct {
	ID        string
	Variant   string
	Agent     llm.Agent
	CreatedAt time.Time
	LastUsed  time.Time

	mu sync.Mutex
}

// Store is the in-memory session registry. A coarse mutex guards the map;
// session contention happens per session, not here.
type Store struct {
	mu       sync.Mutex
	sessions map[string]*Session
}

func NewStore() *Store {
	return &Store{sessions: make(map[string]*Session)}
}

func (s *Store) Get(id string) (*Session, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[id]
	return sess, ok
}

func (s *Store) Put(sess *Session) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[sess.ID] = sess
}

// Delete removes a session and reports whether it existed.
func (s *Store) Delete(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.sessions[id]
	delete(s.sessions, id)
	return ok
}

// SessionView is a copy of session metadata taken under the store lock.
// LastUsed is mutated by Touch and read by the sweeper, so listings must
// not hand out live pointers; the agent reference is safe to share since
// agents guard their own state.
type SessionView struct {
	ID        string
	Variant   string
	CreatedAt time.Time
	LastUsed  time.Time
	Agent     llm.Agent
}

func (s *Store) List() []SessionView {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]SessionView, 0, len(s.sessions))
	for _, sess := range s.sessions {
		out = append(out, SessionView{
			ID:        sess.ID,
			Variant:   sess.Variant,
			CreatedAt: sess.CreatedAt,
			LastUsed:  sess.LastUsed,
			Agent:     sess.Agent,
		})
	}
	return out
}

func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}

// Touch refreshes a session's idle timer.
func (s *Store) Touch(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if sess, ok := s.sessions[id]; ok {
		sess.LastUsed = time.Now()
	}
}

// StartSweeper evicts sessions idle longer than ttl, checking every
// interval. It runs until ctx is cancelled.
func (s *Store) StartSweeper(ctx context.Context, interval, ttl time.Duration) {
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				s.sweep(ttl)
			}
		}
	}()
}

func (s *Store) sweep(ttl time.Duration) {
	cutoff := time.Now().Add(-ttl)
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, sess := range s.sessions {
		if sess.LastUsed.Before(cutoff) {
			delete(s.sessions, id)
			log.Printf("conversation: evicted idle session %s (last used %s)", id, sess.LastUsed.Format(time.RFC3339))
		}
	}
}
