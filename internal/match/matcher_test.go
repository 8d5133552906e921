package match

import (
	"math"
	"testing"
	"time"

	"github.com/kozaktomas/face-checkin/internal/verify"
)

// encoding returns a unit test vector with a single dominant component.
func encoding(dim, hot int) []float32 {
	v := make([]float32, dim)
	v[hot] = 1
	return v
}

func TestEuclideanDistance(t *testing.T) {
	tests := []struct {
		name string
		a, b []float32
		want float64
	}{
		{"identical", []float32{1, 0, 0}, []float32{1, 0, 0}, 0},
		{"orthogonal unit vectors", []float32{1, 0}, []float32{0, 1}, math.Sqrt2},
		{"simple offset", []float32{0, 0}, []float32{3, 4}, 5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := EuclideanDistance(tt.a, tt.b)
			if math.Abs(got-tt.want) > 1e-9 {
				t.Errorf("EuclideanDistance = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestEuclideanDistance_MismatchedLengths(t *testing.T) {
	got := EuclideanDistance([]float32{1, 2}, []float32{1, 2, 3})
	if got != math.MaxFloat64 {
		t.Errorf("expected max distance for mismatched lengths, got %v", got)
	}
}

func TestMatcher_MatchNearestEnrollment(t *testing.T) {
	m := NewMatcher()
	m.Build([]Enrollment{
		{Identity: verify.Identity{ID: "s-001", Name: "Alice"}, Encoding: encoding(8, 0)},
		{Identity: verify.Identity{ID: "s-002", Name: "Bob"}, Encoding: encoding(8, 3)},
	})

	probe := encoding(8, 3)
	probe[3] = 0.9 // close to Bob, far from Alice

	c := m.Match(probe, time.Now())
	if c.Identity == nil {
		t.Fatal("expected a match candidate")
	}
	if c.Identity.ID != "s-002" {
		t.Errorf("expected nearest enrollment s-002, got %s", c.Identity.ID)
	}
	if math.Abs(c.Distance-0.1) > 1e-6 {
		t.Errorf("expected distance 0.1, got %v", c.Distance)
	}
}

func TestMatcher_EmptyRosterYieldsNoIdentity(t *testing.T) {
	m := NewMatcher()

	c := m.Match(encoding(8, 0), time.Now())
	if c.Identity != nil {
		t.Errorf("expected no identity from an empty roster, got %+v", c.Identity)
	}
}

func TestMatcher_EmptyProbeYieldsNoIdentity(t *testing.T) {
	m := NewMatcher()
	m.Build([]Enrollment{
		{Identity: verify.Identity{ID: "s-001", Name: "Alice"}, Encoding: encoding(8, 0)},
	})

	c := m.Match(nil, time.Now())
	if c.Identity != nil {
		t.Errorf("expected no identity for empty probe, got %+v", c.Identity)
	}
}

func TestMatcher_AddGrowsIndex(t *testing.T) {
	m := NewMatcher()
	m.Build([]Enrollment{
		{Identity: verify.Identity{ID: "s-001", Name: "Alice"}, Encoding: encoding(8, 0)},
	})

	m.Add(Enrollment{Identity: verify.Identity{ID: "s-002", Name: "Bob"}, Encoding: encoding(8, 5)})

	if m.Count() != 2 {
		t.Fatalf("expected 2 enrollments, got %d", m.Count())
	}

	c := m.Match(encoding(8, 5), time.Now())
	if c.Identity == nil || c.Identity.ID != "s-002" {
		t.Errorf("expected newly added enrollment to match, got %+v", c.Identity)
	}
}
