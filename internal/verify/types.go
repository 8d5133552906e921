// Package verify implements the temporal-consensus verification engine.
// It turns a stream of per-frame identity match candidates into check-in
// decisions: a candidate must clear the confidence gate and hold consensus
// over several consecutive frames before attendance is committed, and the
// same identity cannot be committed twice within the cooldown window.
package verify

import (
	"time"
)

// Identity is the stable key referring to one enrolled person.
type Identity struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// MatchCandidate is one frame's proposed identity plus similarity distance,
// produced by the external face recognizer. A nil Identity means no face was
// found in the frame. Lower distance means a closer match.
type MatchCandidate struct {
	Identity  *Identity
	Distance  float64
	Timestamp time.Time
}

// OutcomeKind enumerates the per-frame verification outcomes.
type OutcomeKind string

// Outcome kinds emitted by a session, exactly one per processed frame.
const (
	OutcomeVerified     OutcomeKind = "verified"
	OutcomeDuplicate    OutcomeKind = "duplicate"
	OutcomeUnknown      OutcomeKind = "unknown"
	OutcomeNoFace       OutcomeKind = "no_face"
	OutcomeAccumulating OutcomeKind = "accumulating"
)

// Outcome is the verification decision for a single frame.
type Outcome struct {
	Kind       OutcomeKind
	Identity   *Identity
	Confidence float64       // 0-100, set for verified and accumulating
	Count      int           // consecutive accepted frames so far (accumulating)
	Required   int           // frames needed for consensus (accumulating)
	RetryAfter time.Duration // remaining cooldown (duplicate)
}

// Day is a calendar day in YYYY-MM-DD form. Attendance is unique per
// (identity, day) at the ledger level.
type Day string

// DayOf returns the calendar day of t in t's location.
func DayOf(t time.Time) Day {
	return Day(t.Format("2006-01-02"))
}

// Today returns the current calendar day in local time.
func Today() Day {
	return DayOf(time.Now())
}
