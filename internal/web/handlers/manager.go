package handlers

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/kozaktomas/face-checkin/internal/verify"
)

// ErrSessionEnded is returned when a frame is pushed to a session that has
// already completed, failed, or been closed.
var ErrSessionEnded = errors.New("session already ended")

// SessionStatus represents the lifecycle state of a check-in session.
type SessionStatus string

// Session lifecycle states.
const (
	SessionStatusActive    SessionStatus = "active"
	SessionStatusCompleted SessionStatus = "completed"
	SessionStatusFailed    SessionStatus = "failed"
	SessionStatusClosed    SessionStatus = "closed"
)

// CheckinSession is one live verification session driven over HTTP. Frames
// are processed strictly in arrival order under the session lock, and every
// outcome is broadcast to SSE listeners.
type CheckinSession struct {
	EventBroadcaster

	// Immutable after creation.
	ID        string
	Policy    verify.Policy
	StartedAt time.Time

	// mu guards the mutable state below. The embedded broadcaster keeps its
	// own lock for the listener list.
	mu          sync.RWMutex
	Status      SessionStatus
	EndedAt     *time.Time
	FramesSeen  int
	LastOutcome *OutcomeResponse
	Error       string

	engine *verify.Session
}

// SessionResponse is the wire form of a session's state. Responses always go
// through Snapshot so the encoder never reads the live struct while a frame
// is being processed.
type SessionResponse struct {
	ID          string           `json:"id"`
	Policy      verify.Policy    `json:"policy"`
	Status      SessionStatus    `json:"status"`
	StartedAt   time.Time        `json:"started_at"`
	EndedAt     *time.Time       `json:"ended_at,omitempty"`
	FramesSeen  int              `json:"frames_seen"`
	LastOutcome *OutcomeResponse `json:"last_outcome,omitempty"`
	Error       string           `json:"error,omitempty"`
}

// Snapshot returns a consistent copy of the session state for serialization.
func (s *CheckinSession) Snapshot() SessionResponse {
	s.mu.RLock()
	defer s.mu.RUnlock()

	resp := SessionResponse{
		ID:         s.ID,
		Policy:     s.Policy,
		Status:     s.Status,
		StartedAt:  s.StartedAt,
		FramesSeen: s.FramesSeen,
		Error:      s.Error,
	}
	if s.EndedAt != nil {
		at := *s.EndedAt
		resp.EndedAt = &at
	}
	if s.LastOutcome != nil {
		out := *s.LastOutcome
		resp.LastOutcome = &out
	}
	return resp
}

// GetStatus returns the current session status.
func (s *CheckinSession) GetStatus() SessionStatus {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.Status
}

// end transitions the session into a terminal status. Caller must hold the lock.
func (s *CheckinSession) end(status SessionStatus) {
	now := time.Now()
	s.Status = status
	s.EndedAt = &now
}

// ProcessFrame runs one frame's candidate through the engine and returns its
// outcome. A failed ledger write ends the session; every other condition is a
// normal outcome.
func (s *CheckinSession) ProcessFrame(ctx context.Context, c verify.MatchCandidate) (OutcomeResponse, error) {
	s.mu.Lock()
	if s.Status != SessionStatusActive {
		s.mu.Unlock()
		return OutcomeResponse{}, ErrSessionEnded
	}

	out, err := s.engine.Process(ctx, c)
	if err != nil {
		s.Error = err.Error()
		s.end(SessionStatusFailed)
		s.mu.Unlock()
		s.SendEvent(SessionEvent{Type: "failed", Data: map[string]string{"error": err.Error()}})
		return OutcomeResponse{}, err
	}

	s.FramesSeen++
	resp := newOutcomeResponse(out)
	s.LastOutcome = &resp
	if s.Policy == verify.SingleShot &&
		(out.Kind == verify.OutcomeVerified || out.Kind == verify.OutcomeDuplicate) {
		s.end(SessionStatusCompleted)
	}
	status := s.Status
	s.mu.Unlock()

	s.SendEvent(SessionEvent{Type: "outcome", Data: resp})
	if status == SessionStatusCompleted {
		s.SendEvent(SessionEvent{Type: "completed"})
	}
	return resp, nil
}

// CloseSession aborts an active session. Returns false if it already ended.
func (s *CheckinSession) CloseSession() bool {
	s.mu.Lock()
	if s.Status != SessionStatusActive {
		s.mu.Unlock()
		return false
	}
	s.end(SessionStatusClosed)
	s.mu.Unlock()
	s.SendEvent(SessionEvent{Type: "closed"})
	return true
}

// How long ended sessions stay queryable, and how often the sweep runs.
const (
	sessionRetention = time.Hour
	sweepInterval    = 5 * time.Minute
)

// SessionManager owns the live check-in sessions. Ended sessions stay
// queryable for a while and are removed by a background sweep.
type SessionManager struct {
	mu       sync.RWMutex
	sessions map[string]*CheckinSession

	ledger   verify.Ledger
	defaults verify.Options

	done     chan struct{}
	stopOnce sync.Once
}

// NewSessionManager creates a session manager committing to the given ledger
// and starts the expiry sweep.
func NewSessionManager(ledger verify.Ledger, defaults verify.Options) *SessionManager {
	m := &SessionManager{
		sessions: make(map[string]*CheckinSession),
		ledger:   ledger,
		defaults: defaults,
		done:     make(chan struct{}),
	}
	go m.sweepLoop()
	return m
}

// Stop stops the expiry sweep goroutine.
func (m *SessionManager) Stop() {
	m.stopOnce.Do(func() { close(m.done) })
}

func (m *SessionManager) sweepLoop() {
	ticker := time.NewTicker(sweepInterval)
	defer ticker.Stop()
	for {
		select {
		case <-m.done:
			return
		case <-ticker.C:
			m.removeEnded(sessionRetention)
		}
	}
}

// endedBefore reports whether the session ended before t.
func (s *CheckinSession) endedBefore(t time.Time) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.EndedAt != nil && s.EndedAt.Before(t)
}

// removeEnded drops sessions that ended more than retention ago.
func (m *SessionManager) removeEnded(retention time.Duration) {
	cutoff := time.Now().Add(-retention)
	m.mu.Lock()
	defer m.mu.Unlock()
	for id, s := range m.sessions {
		if s.endedBefore(cutoff) {
			delete(m.sessions, id)
		}
	}
}

// Create starts a new check-in session with the given engine options.
func (m *SessionManager) Create(opts verify.Options) *CheckinSession {
	engine := verify.NewSession(m.ledger, opts)
	session := &CheckinSession{
		ID:        uuid.NewString(),
		Policy:    engine.Policy(),
		Status:    SessionStatusActive,
		StartedAt: time.Now(),
		engine:    engine,
	}

	m.mu.Lock()
	m.sessions[session.ID] = session
	m.mu.Unlock()

	return session
}

// Defaults returns the manager's default engine options.
func (m *SessionManager) Defaults() verify.Options {
	return m.defaults
}

// Get retrieves a session by id, nil if unknown.
func (m *SessionManager) Get(id string) *CheckinSession {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.sessions[id]
}

// Count returns the number of tracked sessions.
func (m *SessionManager) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}
