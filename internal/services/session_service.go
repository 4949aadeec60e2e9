package services

import (
	"log"
	"sync"
	"time"

	"github.com/google/uuid"
	gocache "github.com/patrickmn/go-cache"

	"sshmate/internal/models"
)

// SessionService holds live conversation sessions in memory. Sessions never
// expire while the process runs; durable history is written separately.
type SessionService struct {
	store *gocache.Cache
	mutex sync.Mutex
}

// NewSessionService creates a new in-memory session store
func NewSessionService() *SessionService {
	return &SessionService{
		store: gocache.New(gocache.NoExpiration, 0),
	}
}

// Create starts a new session with an empty transcript.
func (s *SessionService) Create() *models.Session {
	now := time.Now()
	session := &models.Session{
		ID:           uuid.New().String(),
		Transcript:   []models.TranscriptEntry{},
		CreatedAt:    now,
		LastActivity: now,
	}
	s.store.Set(session.ID, session, gocache.NoExpiration)
	log.Printf("✅ Session created: %s", session.ID)
	return session.Snapshot()
}

// Get retrieves a snapshot of a session by ID. The returned session is a
// copy; concurrent writers never touch it, so callers can read and marshal
// it freely.
func (s *SessionService) Get(sessionID string) (*models.Session, error) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	session, err := s.live(sessionID)
	if err != nil {
		return nil, err
	}
	return session.Snapshot(), nil
}

// live returns the shared stored session. Callers must hold s.mutex.
func (s *SessionService) live(sessionID string) (*models.Session, error) {
	v, found := s.store.Get(sessionID)
	if !found {
		return nil, ErrInvalidSession
	}
	return v.(*models.Session), nil
}

// SetMachine binds a machine to the session. Re-selection overwrites the
// previous choice.
func (s *SessionService) SetMachine(sessionID, machineID string) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	session, err := s.live(sessionID)
	if err != nil {
		return err
	}
	session.SelectedMachine = machineID
	session.LastActivity = time.Now()
	return nil
}

// Append adds one entry to the session transcript. Entries are never
// modified or removed afterwards.
func (s *SessionService) Append(sessionID, role, content string, metadata map[string]interface{}) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	session, err := s.live(sessionID)
	if err != nil {
		return err
	}

	entry := models.TranscriptEntry{
		Timestamp: time.Now(),
		Role:      role,
		Content:   content,
		Metadata:  metadata,
	}
	session.Transcript = append(session.Transcript, entry)
	session.LastActivity = entry.Timestamp
	return nil
}

// Transcript returns a copy of the session's transcript in append order.
func (s *SessionService) Transcript(sessionID string) ([]models.TranscriptEntry, error) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	session, err := s.live(sessionID)
	if err != nil {
		return nil, err
	}

	entries := make([]models.TranscriptEntry, len(session.Transcript))
	copy(entries, session.Transcript)
	return entries, nil
}

// Count returns the number of live sessions.
func (s *SessionService) Count() int {
	return s.store.ItemCount()
}
