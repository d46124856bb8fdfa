package session

import (
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/sophialabs/testlabadvisor/internal/domain/match"
)

// ErrNotFound is returned for unknown or expired session IDs.
var ErrNotFound = errors.New("session not found")

// Session is one operator's selection state: search text and selectors.
type Session struct {
	ID        string         `json:"id"`
	Query     string         `json:"query"`
	Selection match.Selector `json:"selection"`
	CreatedAt time.Time      `json:"created_at"`
	LastSeen  time.Time      `json:"last_seen"`
}

// Store keeps sessions isolated from one another. Callers receive copies,
// so one session's state never leaks into another's.
type Store struct {
	mu       sync.Mutex
	sessions map[string]*Session
	now      func() time.Time
	newID    func() string
}

// NewStore creates an empty store. now may be nil.
func NewStore(now func() time.Time) *Store {
	if now == nil {
		now = time.Now
	}
	return &Store{
		sessions: make(map[string]*Session),
		now:      now,
		newID:    uuid.NewString,
	}
}

// Create starts a new session with no query and no selection.
func (s *Store) Create() Session {
	s.mu.Lock()
	defer s.mu.Unlock()

	t := s.now()
	sess := &Session{ID: s.newID(), CreatedAt: t, LastSeen: t}
	s.sessions[sess.ID] = sess
	return *sess
}

// Get returns a copy of the session and marks it as seen.
func (s *Store) Get(id string) (Session, error) {
	return s.update(id, func(*Session) {})
}

// SetQuery replaces the search text. Selections are cleared because they
// were chosen from the previous result set.
func (s *Store) SetQuery(id, query string) (Session, error) {
	return s.update(id, func(sess *Session) {
		if sess.Query != query {
			sess.Selection = match.Selector{}
		}
		sess.Query = query
	})
}

// SetSelection replaces the exact-match selectors.
func (s *Store) SetSelection(id string, sel match.Selector) (Session, error) {
	return s.update(id, func(sess *Session) {
		sess.Selection = sel
	})
}

// Delete ends a session.
func (s *Store) Delete(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.sessions[id]; !ok {
		return ErrNotFound
	}
	delete(s.sessions, id)
	return nil
}

// EvictIdle removes sessions not seen for longer than ttl and returns how
// many were removed.
func (s *Store) EvictIdle(ttl time.Duration) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	cutoff := s.now().Add(-ttl)
	n := 0
	for id, sess := range s.sessions {
		if sess.LastSeen.Before(cutoff) {
			delete(s.sessions, id)
			n++
		}
	}
	return n
}

// Len returns the number of live sessions.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}

func (s *Store) update(id string, fn func(*Session)) (Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[id]
	if !ok {
		return Session{}, ErrNotFound
	}
	fn(sess)
	sess.LastSeen = s.now()
	return *sess, nil
}
