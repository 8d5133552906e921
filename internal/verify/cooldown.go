package verify

import "time"

// DefaultCooldown is the minimum interval between two verifications of the
// same identity within a session.
const DefaultCooldown = 30 * time.Second

// CooldownSet prevents re-committing the same identity within the cooldown
// window. It is owned exclusively by one session; the durable per-day
// uniqueness lives in the ledger, this only covers repeated walk-up attempts.
// A zero or negative window disables suppression entirely.
type CooldownSet struct {
	window  time.Duration
	entries map[string]time.Time
}

// NewCooldownSet creates an empty cooldown set with the given window.
func NewCooldownSet(window time.Duration) *CooldownSet {
	return &CooldownSet{
		window:  window,
		entries: make(map[string]time.Time),
	}
}

// Window returns the configured cooldown duration.
func (c *CooldownSet) Window() time.Duration {
	return c.window
}

// Check reports whether the identity is still cooling down at the given time
// and how long until it may be verified again. Expired entries are pruned.
func (c *CooldownSet) Check(identityID string, now time.Time) (cooling bool, retryAfter time.Duration) {
	if c.window <= 0 {
		return false, 0
	}
	last, ok := c.entries[identityID]
	if !ok {
		return false, 0
	}
	elapsed := now.Sub(last)
	if elapsed < c.window {
		return true, c.window - elapsed
	}
	delete(c.entries, identityID)
	return false, 0
}

// Mark records a successful verification at the given time, starting (or
// restarting) the identity's cooldown.
func (c *CooldownSet) Mark(identityID string, now time.Time) {
	if c.window <= 0 {
		return
	}
	c.entries[identityID] = now
}
