package verify

import "time"

// DefaultFramesRequired is the number of consecutive accepted frames needed
// before an identity is trusted.
const DefaultFramesRequired = 5

// trackerPhase is the tagged state of the consensus tracker.
type trackerPhase int

const (
	phaseIdle trackerPhase = iota
	phaseAccumulating
	phaseVerified
)

// Tracker accumulates consecutive accepted candidates for the same identity
// and flips to verified only after the configured run length. Any
// interrupting frame (different identity, rejected match, no face) discards
// all progress: a single bad frame defeats a flashed photo or a passerby.
//
// Tracker is not safe for concurrent use; each session owns exactly one.
type Tracker struct {
	required int
	phase    trackerPhase
	identity Identity
	count    int
	lastSeen time.Time
}

// NewTracker creates an idle tracker requiring the given number of
// consecutive accepted frames (minimum 1).
func NewTracker(required int) *Tracker {
	if required < 1 {
		required = 1
	}
	return &Tracker{required: required}
}

// Required returns the configured consensus run length.
func (t *Tracker) Required() int {
	return t.required
}

// Count returns the current consecutive-frame count.
func (t *Tracker) Count() int {
	return t.count
}

// Observe advances the tracker with one accepted candidate. It returns the
// updated count and whether consensus has been reached. A different identity
// restarts the run at 1; no partial credit carries over. The count never
// exceeds the required run length.
func (t *Tracker) Observe(id Identity, at time.Time) (count int, verified bool) {
	if t.phase == phaseAccumulating && t.identity.ID == id.ID {
		t.count++
	} else {
		t.identity = id
		t.count = 1
	}
	t.lastSeen = at

	if t.count >= t.required {
		t.count = t.required
		t.phase = phaseVerified
		return t.count, true
	}
	t.phase = phaseAccumulating
	return t.count, false
}

// Interrupt collapses the tracker back to idle. Called for every frame that
// fails the gate or contains no face.
func (t *Tracker) Interrupt() {
	t.phase = phaseIdle
	t.identity = Identity{}
	t.count = 0
}

// Reset returns the tracker to idle after a verified run has been consumed.
// The controller calls this in the same tick that produced the verified
// state, so verified never persists across two frames.
func (t *Tracker) Reset() {
	t.Interrupt()
}
