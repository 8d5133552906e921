package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/kozaktomas/face-checkin/internal/match"
	"github.com/kozaktomas/face-checkin/internal/verify"
)

// SessionsHandler handles check-in session endpoints.
type SessionsHandler struct {
	manager *SessionManager
	matcher *match.Matcher
}

// NewSessionsHandler creates a new sessions handler. Frames carrying a raw
// face encoding are resolved against the matcher.
func NewSessionsHandler(manager *SessionManager, matcher *match.Matcher) *SessionsHandler {
	return &SessionsHandler{manager: manager, matcher: matcher}
}

// CreateSessionRequest represents the session creation request. All fields
// are optional overrides of the configured engine defaults.
type CreateSessionRequest struct {
	Policy              string  `json:"policy,omitempty"`
	Tolerance           float64 `json:"tolerance,omitempty"`
	ConfidenceThreshold float64 `json:"confidence_threshold,omitempty"`
	FramesRequired      int     `json:"frames_required,omitempty"`
	CooldownSeconds     int     `json:"cooldown_seconds,omitempty"`
}

// Create starts a new check-in session.
func (h *SessionsHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req CreateSessionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		respondError(w, http.StatusBadRequest, errInvalidRequestBody)
		return
	}

	opts := h.manager.Defaults()
	switch verify.Policy(req.Policy) {
	case "":
	case verify.SingleShot, verify.Continuous:
		opts.Policy = verify.Policy(req.Policy)
	default:
		respondError(w, http.StatusBadRequest, "unknown policy")
		return
	}
	if req.Tolerance > 0 {
		opts.Tolerance = req.Tolerance
	}
	if req.ConfidenceThreshold > 0 {
		opts.ConfidenceThreshold = req.ConfidenceThreshold
	}
	if req.FramesRequired > 0 {
		opts.FramesRequired = req.FramesRequired
	}
	if req.CooldownSeconds > 0 {
		opts.Cooldown = time.Duration(req.CooldownSeconds) * time.Second
	}

	session := h.manager.Create(opts)
	log.Printf("Started check-in session %s (policy %s)", session.ID, session.Policy)
	respondJSON(w, http.StatusCreated, session.Snapshot())
}

// lookup finds the session from the URL, writing a 404 on miss.
func (h *SessionsHandler) lookup(w http.ResponseWriter, r *http.Request) *CheckinSession {
	id := chi.URLParam(r, "id")
	session := h.manager.Get(id)
	if session == nil {
		respondError(w, http.StatusNotFound, "session not found")
		return nil
	}
	return session
}

// Get returns the session status.
func (h *SessionsHandler) Get(w http.ResponseWriter, r *http.Request) {
	session := h.lookup(w, r)
	if session == nil {
		return
	}
	respondJSON(w, http.StatusOK, session.Snapshot())
}

// PushFrame processes one frame and responds with the verification outcome
// for that frame. The frame either carries a pre-matched identity and
// distance or a raw face encoding resolved through the matcher.
func (h *SessionsHandler) PushFrame(w http.ResponseWriter, r *http.Request) {
	session := h.lookup(w, r)
	if session == nil {
		return
	}

	var frame match.Frame
	if err := json.NewDecoder(r.Body).Decode(&frame); err != nil {
		respondError(w, http.StatusBadRequest, errInvalidRequestBody)
		return
	}

	outcome, err := session.ProcessFrame(r.Context(), frame.Resolve(h.matcher, time.Now()))
	if errors.Is(err, ErrSessionEnded) {
		respondError(w, http.StatusConflict, "session already ended")
		return
	}
	if err != nil {
		log.Printf("Session %s failed: %v", sanitizeForLog(session.ID), err)
		respondError(w, http.StatusServiceUnavailable, "attendance store unavailable")
		return
	}

	respondJSON(w, http.StatusOK, outcome)
}

// Delete aborts the session. The session stays queryable until the expiry
// sweep removes it.
func (h *SessionsHandler) Delete(w http.ResponseWriter, r *http.Request) {
	session := h.lookup(w, r)
	if session == nil {
		return
	}
	if !session.CloseSession() {
		respondError(w, http.StatusConflict, "session already ended")
		return
	}
	respondJSON(w, http.StatusOK, session.Snapshot())
}
