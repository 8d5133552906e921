package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/kozaktomas/face-checkin/internal/match"
	"github.com/kozaktomas/face-checkin/internal/verify"
)

func pushFrame(t *testing.T, h *SessionsHandler, sessionID string, frame map[string]any) *httptest.ResponseRecorder {
	t.Helper()
	req := jsonRequest(t, http.MethodPost, "/api/v1/sessions/"+sessionID+"/frames", frame)
	req = requestWithChiParams(req, map[string]string{"id": sessionID})
	recorder := httptest.NewRecorder()
	h.PushFrame(recorder, req)
	return recorder
}

func TestCreateSession(t *testing.T) {
	manager, _ := newTestManager(t)
	h := NewSessionsHandler(manager, match.NewMatcher())

	t.Run("DefaultPolicy", func(t *testing.T) {
		recorder := httptest.NewRecorder()
		h.Create(recorder, jsonRequest(t, http.MethodPost, "/api/v1/sessions", nil))
		assertStatusCode(t, recorder, http.StatusCreated)

		var session SessionResponse
		parseJSONResponse(t, recorder, &session)
		if session.ID == "" {
			t.Error("expected a session id")
		}
		if session.Policy != "continuous" {
			t.Errorf("expected default policy continuous, got %s", session.Policy)
		}
		if session.Status != SessionStatusActive {
			t.Errorf("expected active status, got %s", session.Status)
		}
	})

	t.Run("SingleShotPolicy", func(t *testing.T) {
		recorder := httptest.NewRecorder()
		h.Create(recorder, jsonRequest(t, http.MethodPost, "/api/v1/sessions",
			map[string]any{"policy": "single_shot", "frames_required": 3}))
		assertStatusCode(t, recorder, http.StatusCreated)

		var session SessionResponse
		parseJSONResponse(t, recorder, &session)
		if session.Policy != "single_shot" {
			t.Errorf("expected single_shot policy, got %s", session.Policy)
		}
	})

	t.Run("UnknownPolicy", func(t *testing.T) {
		recorder := httptest.NewRecorder()
		h.Create(recorder, jsonRequest(t, http.MethodPost, "/api/v1/sessions",
			map[string]any{"policy": "bogus"}))
		assertStatusCode(t, recorder, http.StatusBadRequest)
		assertJSONError(t, recorder, "unknown policy")
	})
}

func TestGetSession(t *testing.T) {
	manager, _ := newTestManager(t)
	h := NewSessionsHandler(manager, match.NewMatcher())
	session := manager.Create(testOptions())

	t.Run("Found", func(t *testing.T) {
		req := jsonRequest(t, http.MethodGet, "/api/v1/sessions/"+session.ID, nil)
		req = requestWithChiParams(req, map[string]string{"id": session.ID})
		recorder := httptest.NewRecorder()
		h.Get(recorder, req)
		assertStatusCode(t, recorder, http.StatusOK)
	})

	t.Run("NotFound", func(t *testing.T) {
		req := jsonRequest(t, http.MethodGet, "/api/v1/sessions/nope", nil)
		req = requestWithChiParams(req, map[string]string{"id": "nope"})
		recorder := httptest.NewRecorder()
		h.Get(recorder, req)
		assertStatusCode(t, recorder, http.StatusNotFound)
	})
}

func TestPushFrameConsensus(t *testing.T) {
	manager, ledger := newTestManager(t)
	h := NewSessionsHandler(manager, match.NewMatcher())

	opts := testOptions()
	opts.Policy = "single_shot"
	session := manager.Create(opts)

	frame := map[string]any{"identity": "s-001", "name": "Jan Novák", "distance": 0.3}

	// First frame accumulates.
	recorder := pushFrame(t, h, session.ID, frame)
	assertStatusCode(t, recorder, http.StatusOK)
	var outcome OutcomeResponse
	parseJSONResponse(t, recorder, &outcome)
	if outcome.Kind != "accumulating" {
		t.Fatalf("expected accumulating, got %s", outcome.Kind)
	}
	if outcome.Count != 1 || outcome.Required != 2 {
		t.Errorf("expected count 1/2, got %d/%d", outcome.Count, outcome.Required)
	}

	// Second frame reaches consensus and commits.
	recorder = pushFrame(t, h, session.ID, frame)
	assertStatusCode(t, recorder, http.StatusOK)
	parseJSONResponse(t, recorder, &outcome)
	if outcome.Kind != "verified" {
		t.Fatalf("expected verified, got %s", outcome.Kind)
	}
	if outcome.Confidence != 70 {
		t.Errorf("expected confidence 70, got %f", outcome.Confidence)
	}
	if ledger.RecordCount() != 1 {
		t.Errorf("expected 1 ledger record, got %d", ledger.RecordCount())
	}

	// Single-shot session is now completed; further frames are rejected.
	if got := session.GetStatus(); got != SessionStatusCompleted {
		t.Errorf("expected completed session, got %s", got)
	}
	recorder = pushFrame(t, h, session.ID, frame)
	assertStatusCode(t, recorder, http.StatusConflict)
}

func TestPushFrameOutcomes(t *testing.T) {
	manager, _ := newTestManager(t)
	h := NewSessionsHandler(manager, match.NewMatcher())
	session := manager.Create(testOptions())

	tests := []struct {
		name  string
		frame map[string]any
		want  string
	}{
		{"NoFace", map[string]any{"identity": nil}, "no_face"},
		{"DistanceAboveTolerance", map[string]any{"identity": "s-001", "distance": 0.65}, "unknown"},
		{"Accepted", map[string]any{"identity": "s-001", "distance": 0.2}, "accumulating"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			recorder := pushFrame(t, h, session.ID, tt.frame)
			assertStatusCode(t, recorder, http.StatusOK)
			var outcome OutcomeResponse
			parseJSONResponse(t, recorder, &outcome)
			if outcome.Kind != tt.want {
				t.Errorf("expected %s, got %s", tt.want, outcome.Kind)
			}
		})
	}

	t.Run("UnknownSession", func(t *testing.T) {
		recorder := pushFrame(t, h, "nope", map[string]any{"identity": "s-001"})
		assertStatusCode(t, recorder, http.StatusNotFound)
	})
}

func TestPushFrameResolvesEncoding(t *testing.T) {
	manager, _ := newTestManager(t)
	matcher := match.NewMatcher()
	matcher.Add(match.Enrollment{
		Identity: verify.Identity{ID: "s-001", Name: "Jan Novák"},
		Encoding: encodingOf(0.5),
	})
	h := NewSessionsHandler(manager, matcher)
	session := manager.Create(testOptions())

	// A raw encoding matching the enrolled student resolves to their identity.
	recorder := pushFrame(t, h, session.ID, map[string]any{"encoding": encodingOf(0.5)})
	assertStatusCode(t, recorder, http.StatusOK)
	var outcome OutcomeResponse
	parseJSONResponse(t, recorder, &outcome)
	if outcome.Kind != "accumulating" {
		t.Fatalf("expected accumulating, got %s", outcome.Kind)
	}
	if outcome.Identity == nil || outcome.Identity.ID != "s-001" {
		t.Errorf("expected matched identity s-001, got %+v", outcome.Identity)
	}

	// An encoding far from every enrollment comes back unknown.
	recorder = pushFrame(t, h, session.ID, map[string]any{"encoding": encodingOf(2.0)})
	assertStatusCode(t, recorder, http.StatusOK)
	parseJSONResponse(t, recorder, &outcome)
	if outcome.Kind != "unknown" {
		t.Errorf("expected unknown, got %s", outcome.Kind)
	}
}

func TestSessionSnapshotDuringFrames(t *testing.T) {
	manager, _ := newTestManager(t)
	session := manager.Create(testOptions())

	candidate := verify.MatchCandidate{
		Identity:  &verify.Identity{ID: "s-001", Name: "Jan Novák"},
		Distance:  0.3,
		Timestamp: time.Now(),
	}

	// Serialize status snapshots while frames are being processed; the race
	// detector catches any unguarded read of the session state.
	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < 200; i++ {
			_, _ = session.ProcessFrame(context.Background(), candidate)
		}
	}()
	for i := 0; i < 200; i++ {
		if _, err := json.Marshal(session.Snapshot()); err != nil {
			t.Errorf("marshaling session snapshot: %v", err)
			break
		}
	}
	<-done

	snap := session.Snapshot()
	if snap.FramesSeen != 200 {
		t.Errorf("expected 200 frames seen, got %d", snap.FramesSeen)
	}
	if snap.LastOutcome == nil {
		t.Error("expected a last outcome")
	}
}

func TestPushFrameLedgerFailure(t *testing.T) {
	manager, ledger := newTestManager(t)
	ledger.CommitError = errors.New("connection refused")
	h := NewSessionsHandler(manager, match.NewMatcher())
	session := manager.Create(testOptions())

	frame := map[string]any{"identity": "s-001", "distance": 0.3}
	pushFrame(t, h, session.ID, frame)
	recorder := pushFrame(t, h, session.ID, frame)
	assertStatusCode(t, recorder, http.StatusServiceUnavailable)
	assertJSONError(t, recorder, "attendance store unavailable")

	if got := session.GetStatus(); got != SessionStatusFailed {
		t.Errorf("expected failed session, got %s", got)
	}
}

func TestDeleteSession(t *testing.T) {
	manager, _ := newTestManager(t)
	h := NewSessionsHandler(manager, match.NewMatcher())
	session := manager.Create(testOptions())

	req := jsonRequest(t, http.MethodDelete, "/api/v1/sessions/"+session.ID, nil)
	req = requestWithChiParams(req, map[string]string{"id": session.ID})
	recorder := httptest.NewRecorder()
	h.Delete(recorder, req)
	assertStatusCode(t, recorder, http.StatusOK)
	if got := session.GetStatus(); got != SessionStatusClosed {
		t.Errorf("expected closed session, got %s", got)
	}

	// Closing twice is a conflict.
	recorder = httptest.NewRecorder()
	h.Delete(recorder, req)
	assertStatusCode(t, recorder, http.StatusConflict)
}

func TestSessionEventsBroadcast(t *testing.T) {
	manager, _ := newTestManager(t)
	h := NewSessionsHandler(manager, match.NewMatcher())
	session := manager.Create(testOptions())

	events := session.AddListener()
	defer session.RemoveListener(events)

	pushFrame(t, h, session.ID, map[string]any{"identity": "s-001", "distance": 0.3})

	select {
	case event := <-events:
		if event.Type != "outcome" {
			t.Errorf("expected outcome event, got %s", event.Type)
		}
	default:
		t.Fatal("expected a broadcast event")
	}
}

func TestSweepRemovesEndedSessions(t *testing.T) {
	manager, _ := newTestManager(t)
	session := manager.Create(testOptions())
	session.CloseSession()

	manager.removeEnded(-time.Millisecond)
	if manager.Get(session.ID) != nil {
		t.Error("expected ended session to be swept")
	}
	if manager.Count() != 0 {
		t.Errorf("expected 0 sessions, got %d", manager.Count())
	}
}
