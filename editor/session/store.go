package session

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"log"
	"sync"
	"time"

	"github.com/codeshare/server/metrics"
)

var ErrSessionNotFound = errors.New("session not found")

const (
	// IDLength is the length of generated session identifiers.
	IDLength = 10

	// DefaultLanguage is assigned to newly created sessions.
	DefaultLanguage = "javascript"
)

// DefaultCode is the starter document placed in every new session.
const DefaultCode = `// Welcome to CodeShare!
// Share this session's link to code together in real time.

function greet(name) {
  return "Hello, " + name + "!";
}

console.log(greet("world"));
`

// Session holds the shared editable document for one collaboration session.
// Code and Language are last-write-wins; ID and CreatedAt are immutable.
type Session struct {
	ID        string    `json:"id"`
	Code      string    `json:"code"`
	Language  string    `json:"language"`
	CreatedAt time.Time `json:"created_at"`
}

// Summary is the cheap listing view of a session. It never carries the
// code body so that listing stays inexpensive regardless of document size.
type Summary struct {
	ID        string    `json:"id"`
	Language  string    `json:"language"`
	CreatedAt time.Time `json:"created_at"`
}

// Store owns the mapping from session ID to session state. It is constructed
// at startup and passed by reference into every handler; it has no knowledge
// of transports or connections.
type Store struct {
	mu          sync.RWMutex
	sessions    map[string]*Session
	persistence Persistence
}

// NewStore creates an empty session store.
func NewStore() *Store {
	return &Store{
		sessions: make(map[string]*Session),
	}
}

// SetPersistence attaches a persistence layer. Mutations are mirrored to it
// best-effort. Must be called during startup, before the store is shared.
func (s *Store) SetPersistence(p Persistence) {
	s.persistence = p
}

// Restore loads previously persisted sessions into the store and returns how
// many were loaded. Call after SetPersistence and before serving traffic.
func (s *Store) Restore() (int, error) {
	if s.persistence == nil {
		return 0, nil
	}

	sessions, err := s.persistence.LoadAll()
	if err != nil {
		return 0, err
	}

	s.mu.Lock()
	for i := range sessions {
		sess := sessions[i]
		s.sessions[sess.ID] = &sess
	}
	total := len(s.sessions)
	s.mu.Unlock()

	metrics.SessionsActive.Set(float64(total))
	return len(sessions), nil
}

// Create allocates a new session with a generated ID, the default code
// template, and the default language.
func (s *Store) Create() Session {
	sess := &Session{
		ID:        generateID(),
		Code:      DefaultCode,
		Language:  DefaultLanguage,
		CreatedAt: time.Now(),
	}

	s.mu.Lock()
	s.sessions[sess.ID] = sess
	total := len(s.sessions)
	s.mu.Unlock()

	metrics.SessionsCreated.Inc()
	metrics.SessionsActive.Set(float64(total))

	s.persist(*sess)
	return *sess
}

// Get returns a copy of the session with the given ID. Callers receive a
// consistent snapshot of code and language taken under the store lock.
func (s *Store) Get(id string) (Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sess, exists := s.sessions[id]
	if !exists {
		return Session{}, ErrSessionNotFound
	}
	return *sess, nil
}

// List returns summaries of all live sessions. The code body is never
// included.
func (s *Store) List() []Summary {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]Summary, 0, len(s.sessions))
	for _, sess := range s.sessions {
		result = append(result, Summary{
			ID:        sess.ID,
			Language:  sess.Language,
			CreatedAt: sess.CreatedAt,
		})
	}

	return result
}

// Delete removes a session.
func (s *Store) Delete(id string) error {
	s.mu.Lock()
	if _, exists := s.sessions[id]; !exists {
		s.mu.Unlock()
		return ErrSessionNotFound
	}
	delete(s.sessions, id)
	metrics.SessionsActive.Set(float64(len(s.sessions)))
	s.mu.Unlock()

	if s.persistence != nil {
		if err := s.persistence.Delete(id); err != nil {
			log.Printf("Failed to delete persisted session %s: %v", id, err)
		}
	}
	return nil
}

// SetCode replaces the session's document text (last-write-wins).
func (s *Store) SetCode(id, code string) error {
	s.mu.Lock()
	sess, exists := s.sessions[id]
	if !exists {
		s.mu.Unlock()
		return ErrSessionNotFound
	}
	sess.Code = code
	snapshot := *sess
	s.mu.Unlock()

	s.persist(snapshot)
	return nil
}

// SetLanguage replaces the session's language tag (last-write-wins).
func (s *Store) SetLanguage(id, language string) error {
	s.mu.Lock()
	sess, exists := s.sessions[id]
	if !exists {
		s.mu.Unlock()
		return ErrSessionNotFound
	}
	sess.Language = language
	snapshot := *sess
	s.mu.Unlock()

	s.persist(snapshot)
	return nil
}

// Count returns the number of live sessions.
func (s *Store) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}

// persist mirrors a session snapshot to the persistence layer, if attached.
// Failures are logged rather than surfaced: the in-memory store stays the
// source of truth.
func (s *Store) persist(sess Session) {
	if s.persistence == nil {
		return
	}
	if err := s.persistence.Save(sess); err != nil {
		log.Printf("Failed to persist session %s: %v", sess.ID, err)
	}
}

// generateID generates a random session ID of IDLength hex characters.
func generateID() string {
	bytes := make([]byte, IDLength/2)
	rand.Read(bytes)
	return hex.EncodeToString(bytes)
}
