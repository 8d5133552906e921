package verify

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"
)

// ErrAlreadyMarked is returned by Ledger.Commit when an attendance record for
// the (identity, day) pair already exists. It is a normal outcome, not a
// failure: the engine maps it to a duplicate outcome.
var ErrAlreadyMarked = errors.New("attendance already marked")

// Ledger is the durable attendance store. Commit must be atomic and
// idempotent: concurrent or repeated commits for the same (identity, day)
// yield exactly one record, with all but the first caller getting
// ErrAlreadyMarked. Any other Commit error means the store is unreachable,
// which is fatal for the session.
type Ledger interface {
	// Marked reports whether attendance is already recorded for the day.
	Marked(ctx context.Context, identityID string, day Day) (bool, error)
	// Commit appends the attendance record, or returns ErrAlreadyMarked.
	Commit(ctx context.Context, identityID string, day Day, at time.Time) error
}

// CandidateSource produces the per-frame match candidates for one session.
// Next returns io.EOF when the stream is exhausted.
type CandidateSource interface {
	Next(ctx context.Context) (MatchCandidate, error)
}

// Policy controls when a session ends.
type Policy string

// Session termination policies.
const (
	// SingleShot ends the session after the first verified (or duplicate)
	// outcome - the one-person-then-exit check-in flow.
	SingleShot Policy = "single_shot"
	// Continuous keeps the session running until the context is cancelled,
	// resetting consensus after every verified or duplicate outcome.
	Continuous Policy = "continuous"
)

// Options configures a verification session. Zero values fall back to the
// engine defaults.
type Options struct {
	Tolerance           float64
	ConfidenceThreshold float64
	FramesRequired      int
	Cooldown            time.Duration
	Policy              Policy
}

// Session drives one verification stream: each frame's candidate runs
// through gate, consensus tracker, duplicate suppressor and ledger, and
// produces exactly one outcome. All state is owned by the session instance;
// it must not be shared between goroutines.
type Session struct {
	gate     Gate
	tracker  *Tracker
	cooldown *CooldownSet
	ledger   Ledger
	policy   Policy

	now func() time.Time // injected for tests
}

// NewSession creates a session bound to the given ledger.
func NewSession(ledger Ledger, opts Options) *Session {
	required := opts.FramesRequired
	if required < 1 {
		required = DefaultFramesRequired
	}
	cooldown := opts.Cooldown
	if cooldown == 0 {
		cooldown = DefaultCooldown
	}
	policy := opts.Policy
	if policy == "" {
		policy = Continuous
	}
	return &Session{
		gate:     NewGate(opts.Tolerance, opts.ConfidenceThreshold),
		tracker:  NewTracker(required),
		cooldown: NewCooldownSet(cooldown),
		ledger:   ledger,
		policy:   policy,
		now:      time.Now,
	}
}

// Policy returns the session's termination policy.
func (s *Session) Policy() Policy {
	return s.policy
}

// Gate returns the session's gate parameters.
func (s *Session) Gate() Gate {
	return s.gate
}

// FramesRequired returns the consensus run length.
func (s *Session) FramesRequired() int {
	return s.tracker.Required()
}

// Process runs one candidate through the decision pipeline and returns the
// outcome for that frame. All recoverable conditions come back as outcome
// values; the only error is a failed ledger write, which is fatal for the
// session.
func (s *Session) Process(ctx context.Context, c MatchCandidate) (Outcome, error) {
	if c.Identity == nil {
		s.tracker.Interrupt()
		return Outcome{Kind: OutcomeNoFace}, nil
	}

	accepted, confidence := s.gate.Evaluate(c)
	if !accepted {
		s.tracker.Interrupt()
		return Outcome{Kind: OutcomeUnknown}, nil
	}

	count, verified := s.tracker.Observe(*c.Identity, c.Timestamp)
	if !verified {
		return Outcome{
			Kind:       OutcomeAccumulating,
			Identity:   c.Identity,
			Confidence: confidence,
			Count:      count,
			Required:   s.tracker.Required(),
		}, nil
	}

	// Consensus reached. The verified tracker state is consumed in this same
	// tick so it never survives into the next frame.
	s.tracker.Reset()

	now := s.now()
	if cooling, retryAfter := s.cooldown.Check(c.Identity.ID, now); cooling {
		return Outcome{Kind: OutcomeDuplicate, Identity: c.Identity, RetryAfter: retryAfter}, nil
	}

	err := s.ledger.Commit(ctx, c.Identity.ID, DayOf(now), now)
	switch {
	case errors.Is(err, ErrAlreadyMarked):
		// The day-level record exists; start the cooldown so repeated
		// attempts take the cheap in-memory path.
		s.cooldown.Mark(c.Identity.ID, now)
		return Outcome{Kind: OutcomeDuplicate, Identity: c.Identity, RetryAfter: s.cooldown.Window()}, nil
	case err != nil:
		return Outcome{}, fmt.Errorf("committing attendance for %s: %w", c.Identity.ID, err)
	}

	s.cooldown.Mark(c.Identity.ID, now)
	return Outcome{Kind: OutcomeVerified, Identity: c.Identity, Confidence: confidence}, nil
}

// terminal reports whether the outcome ends a single-shot session. A
// duplicate counts: consensus was reached, the record just already exists,
// and the walk-up flow should exit either way.
func terminal(kind OutcomeKind) bool {
	return kind == OutcomeVerified || kind == OutcomeDuplicate
}

// Run consumes candidates until the source is exhausted, the context is
// cancelled, or (for single-shot sessions) a terminal outcome is produced.
// Every processed frame is reported to sink. Frames are handled strictly
// sequentially; a slow ledger commit simply delays the next candidate.
func (s *Session) Run(ctx context.Context, src CandidateSource, sink func(Outcome)) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		c, err := src.Next(ctx)
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("reading candidate: %w", err)
		}

		out, err := s.Process(ctx, c)
		if err != nil {
			return err
		}
		if sink != nil {
			sink(out)
		}

		if s.policy == SingleShot && terminal(out.Kind) {
			return nil
		}
	}
}
