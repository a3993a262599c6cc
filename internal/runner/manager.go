package runner

import (
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/hperssn/panicbutton/internal/domain"
)

var (
	ErrSessionExists   = errors.New("session already exists")
	ErrSessionNotFound = errors.New("session not found")
)

const (
	cleanupInterval = 5 * time.Minute
	sessionTTL      = time.Hour
)

// SessionManager tracks breathing session runners. Each user has at most one
// active session: starting another stops the previous one first.
type SessionManager struct {
	mu       sync.Mutex
	sessions map[string]*SessionRunner
	active   map[string]string

	opts   Options
	logger *slog.Logger

	quit      chan struct{}
	closeOnce sync.Once
}

func NewSessionManager(opts Options) *SessionManager {
	opts = opts.withDefaults()
	m := &SessionManager{
		sessions: make(map[string]*SessionRunner),
		active:   make(map[string]string),
		opts:     opts,
		logger:   opts.Logger,
		quit:     make(chan struct{}),
	}

	go m.cleanupLoop()

	return m
}

func (m *SessionManager) cleanupLoop() {
	ticker := time.NewTicker(cleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			m.cleanupOldSessions(time.Now())
		case <-m.quit:
			return
		}
	}
}

func (m *SessionManager) cleanupOldSessions(now time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()

	cutoff := now.Add(-sessionTTL)

	for id, r := range m.sessions {
		sess := r.Session()
		if sess.Finished() && sess.EndedAt.Before(cutoff) {
			r.Stop()
			delete(m.sessions, id)
			if m.active[sess.UserID] == id {
				delete(m.active, sess.UserID)
			}
		}
	}
}

// StartSession runs p for s.UserID starting at stepIdx and returns the
// initial snapshot.
func (m *SessionManager) StartSession(s *domain.Session, p *domain.BreathingPattern, stepIdx int) (*domain.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.sessions[s.ID]; exists {
		return nil, ErrSessionExists
	}

	// validate before touching the running session
	if _, err := domain.NewSequencer(p).Start(stepIdx); err != nil {
		return nil, err
	}

	if prevID, ok := m.active[s.UserID]; ok {
		if prev, ok := m.sessions[prevID]; ok {
			prev.Stop()
			m.logger.Info("replaced active breathing session",
				"user_id", s.UserID,
				"previous_session_id", prevID,
			)
		}
	}

	r := NewSessionRunner(s, p, m.opts)
	if err := r.Start(stepIdx); err != nil {
		r.Stop()
		return nil, err
	}

	m.sessions[s.ID] = r
	m.active[s.UserID] = s.ID

	go m.release(s.UserID, s.ID, r)

	return r.Session(), nil
}

// release clears the user's active slot once the runner is done.
func (m *SessionManager) release(userID, id string, r *SessionRunner) {
	select {
	case <-r.Done():
	case <-m.quit:
		return
	}

	sess := r.Session()
	m.logger.Info("breathing session ended",
		"session_id", id,
		"user_id", userID,
		"reason", sess.Reason,
		"elapsed_sec", sess.ElapsedSec,
	)

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.active[userID] == id {
		delete(m.active, userID)
	}
}

func (m *SessionManager) StopSession(id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	r, exists := m.sessions[id]
	if !exists {
		return ErrSessionNotFound
	}

	r.Stop()
	sess := r.Session()
	if m.active[sess.UserID] == id {
		delete(m.active, sess.UserID)
	}
	return nil
}

func (m *SessionManager) GetSession(id string) (*domain.Session, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	r, exists := m.sessions[id]
	if !exists {
		return nil, false
	}
	return r.Session(), true
}

// ActiveSession returns the session currently running for a user.
func (m *SessionManager) ActiveSession(userID string) (*domain.Session, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	id, ok := m.active[userID]
	if !ok {
		return nil, false
	}
	r, ok := m.sessions[id]
	if !ok {
		return nil, false
	}
	return r.Session(), true
}

func (m *SessionManager) Events(id string) (<-chan PhaseEvent, func(), bool) {
	m.mu.Lock()
	r, ok := m.sessions[id]
	m.mu.Unlock()

	if !ok {
		return nil, nil, false
	}

	ch, cancel := r.Subscribe()
	return ch, cancel, true
}

// Close stops every runner and the cleanup loop.
func (m *SessionManager) Close() {
	m.closeOnce.Do(func() {
		close(m.quit)

		m.mu.Lock()
		defer m.mu.Unlock()
		for _, r := range m.sessions {
			r.Stop()
		}
	})
}
