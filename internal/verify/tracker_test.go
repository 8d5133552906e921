package verify

import (
	"testing"
	"time"
)

var (
	alice = Identity{ID: "s-001", Name: "Alice"}
	bob   = Identity{ID: "s-002", Name: "Bob"}
)

func TestTracker_ConsecutiveFramesReachConsensus(t *testing.T) {
	tracker := NewTracker(5)
	now := time.Now()

	for i := 1; i <= 4; i++ {
		count, verified := tracker.Observe(alice, now)
		if verified {
			t.Fatalf("frame %d: verified too early", i)
		}
		if count != i {
			t.Fatalf("frame %d: expected count %d, got %d", i, i, count)
		}
	}

	count, verified := tracker.Observe(alice, now)
	if !verified {
		t.Fatal("expected consensus after 5 consecutive frames")
	}
	if count != 5 {
		t.Errorf("expected count 5, got %d", count)
	}
}

func TestTracker_CountNeverExceedsRequired(t *testing.T) {
	tracker := NewTracker(3)
	now := time.Now()

	for i := 0; i < 10; i++ {
		count, verified := tracker.Observe(alice, now)
		if count > 3 {
			t.Fatalf("count %d exceeds required 3", count)
		}
		if verified {
			tracker.Reset()
		}
	}
}

func TestTracker_InterruptDiscardsProgress(t *testing.T) {
	tracker := NewTracker(5)
	now := time.Now()

	tracker.Observe(alice, now)
	tracker.Observe(alice, now)
	tracker.Observe(alice, now)

	// An unknown or no-face frame collapses the run entirely.
	tracker.Interrupt()

	count, verified := tracker.Observe(alice, now)
	if verified {
		t.Fatal("expected no consensus after interrupt")
	}
	if count != 1 {
		t.Errorf("expected run to restart at 1, got %d", count)
	}
}

func TestTracker_IdentitySwitchRestartsRun(t *testing.T) {
	tracker := NewTracker(5)
	now := time.Now()

	tracker.Observe(alice, now)
	tracker.Observe(alice, now)
	tracker.Observe(alice, now)

	count, verified := tracker.Observe(bob, now)
	if verified {
		t.Fatal("expected no consensus for a new identity")
	}
	if count != 1 {
		t.Errorf("expected no partial credit for Bob, got count %d", count)
	}
}

func TestTracker_ResetReturnsToIdle(t *testing.T) {
	tracker := NewTracker(2)
	now := time.Now()

	tracker.Observe(alice, now)
	_, verified := tracker.Observe(alice, now)
	if !verified {
		t.Fatal("expected consensus after 2 frames")
	}

	tracker.Reset()

	if tracker.Count() != 0 {
		t.Errorf("expected count 0 after reset, got %d", tracker.Count())
	}
	count, verified := tracker.Observe(alice, now)
	if verified || count != 1 {
		t.Errorf("expected fresh run after reset, got count=%d verified=%v", count, verified)
	}
}

func TestNewTracker_MinimumRunLength(t *testing.T) {
	tracker := NewTracker(0)

	_, verified := tracker.Observe(alice, time.Now())
	if !verified {
		t.Error("expected run length to clamp to 1 and verify on first frame")
	}
}
