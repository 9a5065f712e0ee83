package services

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/devmarked/feedbackiq/models"
)

// SessionStore keeps in-flight collector sessions in memory, keyed by a
// session token, and sweeps out sessions idle past the TTL.
type SessionStore struct {
	mu       sync.Mutex
	sessions map[string]*sessionEntry
	ttl      time.Duration
}

type sessionEntry struct {
	collector *Collector
	lastSeen  time.Time
}

func NewSessionStore(ttl time.Duration) *SessionStore {
	s := &SessionStore{
		sessions: make(map[string]*sessionEntry),
		ttl:      ttl,
	}
	go s.sweep()
	return s
}

// Create opens a collector session for a survey and returns its token.
func (s *SessionStore) Create(survey *models.Survey) (string, *Collector, error) {
	c, err := NewCollector(survey)
	if err != nil {
		return "", nil, err
	}
	id := uuid.New().String()
	s.mu.Lock()
	s.sessions[id] = &sessionEntry{collector: c, lastSeen: time.Now()}
	s.mu.Unlock()
	return id, c, nil
}

func (s *SessionStore) Get(id string) (*Collector, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.sessions[id]
	if !ok {
		return nil, false
	}
	e.lastSeen = time.Now()
	return e.collector, true
}

func (s *SessionStore) Delete(id string) {
	s.mu.Lock()
	delete(s.sessions, id)
	s.mu.Unlock()
}

func (s *SessionStore) sweep() {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()

	for range ticker.C {
		s.mu.Lock()
		for id, e := range s.sessions {
			if time.Since(e.lastSeen) > s.ttl {
				delete(s.sessions, id)
			}
		}
		s.mu.Unlock()
	}
}
