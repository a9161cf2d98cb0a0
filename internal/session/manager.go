package session

import (
	"context"
	"errors"
	"log"
	"sync"
	"time"

	"backend-mapty/internal/workout"

	"github.com/google/uuid"
)

var (
	ErrNotFound        = errors.New("session not found")
	ErrTooManySessions = errors.New("too many live sessions")
)

// CollaboratorFactory builds the views of a new session. The position report
// is what the views feed with the browser's geolocation result.
type CollaboratorFactory func(sessionID string, position *PositionReport) Collaborators

type ManagerConfig struct {
	Zoom    int
	IdleTTL time.Duration
	// MaxSessions caps the live sessions of this process; zero means no cap.
	MaxSessions int
	Factory     workout.Factory
}

// Manager keeps the live sessions of this process.
type Manager struct {
	views CollaboratorFactory
	cfg   ManagerConfig
	newID func() string

	mu       sync.RWMutex
	sessions map[string]*Session
}

func NewManager(views CollaboratorFactory, cfg ManagerConfig) *Manager {
	if cfg.Zoom <= 0 {
		cfg.Zoom = DefaultZoom
	}
	if cfg.Factory.Clock == nil || cfg.Factory.NewID == nil {
		cfg.Factory = workout.NewFactory()
	}
	return &Manager{
		views:    views,
		cfg:      cfg,
		newID:    uuid.NewString,
		sessions: map[string]*Session{},
	}
}

// Create starts a session and its geolocation request.
func (m *Manager) Create() (*Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.cfg.MaxSessions > 0 && len(m.sessions) >= m.cfg.MaxSessions {
		return nil, ErrTooManySessions
	}

	id := m.newID()
	position := NewPositionReport()
	views := m.views(id, position)
	ctrl := NewController(id, views, WithZoom(m.cfg.Zoom), WithFactory(m.cfg.Factory))
	s := newSession(id, ctrl, position, views)
	m.sessions[id] = s
	return s, nil
}

func (m *Manager) Get(id string) (*Session, error) {
	m.mu.RLock()
	s, ok := m.sessions[id]
	m.mu.RUnlock()
	if !ok {
		return nil, ErrNotFound
	}
	if s.Closed() {
		return nil, ErrSessionClosed
	}
	return s, nil
}

func (m *Manager) Close(id string) error {
	m.mu.Lock()
	s, ok := m.sessions[id]
	delete(m.sessions, id)
	m.mu.Unlock()
	if !ok {
		return ErrNotFound
	}
	s.Close()
	return nil
}

// Deliver routes a raw client event to the session's inbox.
func (m *Manager) Deliver(sessionID string, raw []byte) {
	s, err := m.Get(sessionID)
	if err != nil {
		log.Printf("session %s: drop client event: %v", sessionID, err)
		return
	}
	if err := s.Deliver(raw); err != nil {
		log.Printf("session %s: client event: %v", sessionID, err)
	}
}

func (m *Manager) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

// Reap closes sessions idle since before now minus the idle TTL.
func (m *Manager) Reap(now time.Time) int {
	if m.cfg.IdleTTL <= 0 {
		return 0
	}
	cutoff := now.Add(-m.cfg.IdleTTL)

	m.mu.Lock()
	var stale []*Session
	for id, s := range m.sessions {
		if s.idleSince().Before(cutoff) {
			stale = append(stale, s)
			delete(m.sessions, id)
		}
	}
	m.mu.Unlock()

	for _, s := range stale {
		s.Close()
	}
	return len(stale)
}

// Run reaps idle sessions until ctx is done.
func (m *Manager) Run(ctx context.Context) {
	if m.cfg.IdleTTL <= 0 {
		return
	}
	interval := m.cfg.IdleTTL / 4
	if interval < time.Second {
		interval = time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			if n := m.Reap(now); n > 0 {
				log.Printf("reaped %d idle sessions", n)
			}
		}
	}
}

func (m *Manager) Shutdown() {
	m.mu.Lock()
	sessions := m.sessions
	m.sessions = map[string]*Session{}
	m.mu.Unlock()

	for _, s := range sessions {
		s.Close()
	}
}
