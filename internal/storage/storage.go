// Package storage keeps editing sessions in memory
package storage

import (
	"sort"
	"sync"
	"time"

	"github.com/dafterai/dafter/internal/document"
	"github.com/google/uuid"
)

// Session is one document being edited, with its undo history
type Session struct {
	ID        string
	CreatedAt time.Time

	mu        sync.Mutex
	doc       document.Document
	history   *document.History
	updatedAt time.Time
}

// Document returns the current document
func (s *Session) Document() document.Document {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.doc
}

// UpdatedAt returns the time of the last successful update
func (s *Session) UpdatedAt() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.updatedAt
}

// History returns the per-page undo history
func (s *Session) History() *document.History {
	return s.history
}

// Update applies fn to the document under the session lock. The result
// replaces the document only when fn succeeds.
func (s *Session) Update(fn func(doc document.Document) (document.Document, error)) (document.Document, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	next, err := fn(s.doc)
	if err != nil {
		return s.doc, err
	}
	s.doc = next
	s.updatedAt = time.Now()
	return next, nil
}

// SessionStore holds sessions by id
type SessionStore struct {
	sessions map[string]*Session
	depth    int
	mu       sync.RWMutex
}

// New creates an empty store whose sessions keep depth undo steps per page
func New(depth int) *SessionStore {
	return &SessionStore{
		sessions: make(map[string]*Session),
		depth:    depth,
	}
}

// Create stores doc in a new session and seeds its history
func (s *SessionStore) Create(doc document.Document) *Session {
	now := time.Now()
	session := &Session{
		ID:        uuid.New().String(),
		CreatedAt: now,
		doc:       doc,
		history:   document.NewHistory(s.depth),
		updatedAt: now,
	}
	for _, p := range doc.Pages.Pages() {
		session.history.Record(p.ID, p.Content)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[session.ID] = session
	return session
}

// Get returns the session with the given id
func (s *SessionStore) Get(id string) (*Session, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	session, exists := s.sessions[id]
	return session, exists
}

// List returns all sessions, oldest first
func (s *SessionStore) List() []*Session {
	s.mu.RLock()
	result := make([]*Session, 0, len(s.sessions))
	for _, v := range s.sessions {
		result = append(result, v)
	}
	s.mu.RUnlock()

	sort.Slice(result, func(i, j int) bool {
		return result[i].CreatedAt.Before(result[j].CreatedAt)
	})
	return result
}

// Delete removes a session
func (s *SessionStore) Delete(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, id)
}
