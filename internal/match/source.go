package match

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/kozaktomas/face-checkin/internal/verify"
)

// Frame is the wire form of one frame's recognizer output. A frame carries
// either a pre-matched identity with its distance, or a raw face encoding to
// be resolved against the enrolled roster. A frame with neither means no face
// was found.
type Frame struct {
	Identity  *string    `json:"identity"`
	Name      string     `json:"name,omitempty"`
	Distance  float64    `json:"distance"`
	Encoding  []float32  `json:"encoding,omitempty"`
	Timestamp *time.Time `json:"timestamp,omitempty"`
}

// Candidate converts the wire frame into an engine candidate, filling a
// missing timestamp with the given fallback.
func (f Frame) Candidate(fallback time.Time) verify.MatchCandidate {
	at := fallback
	if f.Timestamp != nil {
		at = *f.Timestamp
	}
	if f.Identity == nil || *f.Identity == "" {
		return verify.MatchCandidate{Timestamp: at}
	}
	return verify.MatchCandidate{
		Identity:  &verify.Identity{ID: *f.Identity, Name: f.Name},
		Distance:  f.Distance,
		Timestamp: at,
	}
}

// Resolve converts the wire frame into an engine candidate, running a raw
// face encoding through the matcher when one is present. Frames with a
// pre-matched identity (or no matcher) fall back to Candidate.
func (f Frame) Resolve(m *Matcher, fallback time.Time) verify.MatchCandidate {
	if m == nil || len(f.Encoding) == 0 {
		return f.Candidate(fallback)
	}
	at := fallback
	if f.Timestamp != nil {
		at = *f.Timestamp
	}
	return m.Match(f.Encoding, at)
}

// JSONLSource reads one JSON frame per line from a reader, typically the
// recognizer process piped into stdin. Blank lines are skipped.
type JSONLSource struct {
	scanner *bufio.Scanner
	matcher *Matcher
	now     func() time.Time
}

// NewJSONLSource creates a source reading frames from r.
func NewJSONLSource(r io.Reader) *JSONLSource {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	return &JSONLSource{scanner: sc, now: time.Now}
}

// WithMatcher resolves frames carrying raw face encodings against the given
// matcher.
func (s *JSONLSource) WithMatcher(m *Matcher) *JSONLSource {
	s.matcher = m
	return s
}

// Next returns the next frame's candidate, or io.EOF when the stream ends.
func (s *JSONLSource) Next(ctx context.Context) (verify.MatchCandidate, error) {
	for {
		if err := ctx.Err(); err != nil {
			return verify.MatchCandidate{}, err
		}
		if !s.scanner.Scan() {
			if err := s.scanner.Err(); err != nil {
				return verify.MatchCandidate{}, fmt.Errorf("reading frame stream: %w", err)
			}
			return verify.MatchCandidate{}, io.EOF
		}
		line := s.scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		var f Frame
		if err := json.Unmarshal(line, &f); err != nil {
			return verify.MatchCandidate{}, fmt.Errorf("decoding frame: %w", err)
		}
		return f.Resolve(s.matcher, s.now()), nil
	}
}

// PushSource is a candidate source fed by another goroutine, used when a live
// capture feed outpaces the engine. It holds at most one pending frame: when
// the session is busy (e.g. blocked on a ledger commit) newer frames replace
// the pending one, latest-frame-wins, no queueing.
type PushSource struct {
	frames chan verify.MatchCandidate
	closed chan struct{}
}

// NewPushSource creates an open push source.
func NewPushSource() *PushSource {
	return &PushSource{
		frames: make(chan verify.MatchCandidate, 1),
		closed: make(chan struct{}),
	}
}

// Push offers a frame to the session. If a frame is already pending it is
// dropped in favor of the new one.
func (p *PushSource) Push(c verify.MatchCandidate) {
	select {
	case <-p.closed:
		return
	default:
	}
	for {
		select {
		case p.frames <- c:
			return
		default:
			// Drop the stale pending frame.
			select {
			case <-p.frames:
			default:
			}
		}
	}
}

// Close ends the stream; Next returns io.EOF once pending frames drain.
func (p *PushSource) Close() {
	select {
	case <-p.closed:
	default:
		close(p.closed)
	}
}

// Next blocks until a frame is pushed, the source is closed, or the context
// is cancelled.
func (p *PushSource) Next(ctx context.Context) (verify.MatchCandidate, error) {
	select {
	case c := <-p.frames:
		return c, nil
	default:
	}
	select {
	case c := <-p.frames:
		return c, nil
	case <-p.closed:
		return verify.MatchCandidate{}, io.EOF
	case <-ctx.Done():
		return verify.MatchCandidate{}, ctx.Err()
	}
}
