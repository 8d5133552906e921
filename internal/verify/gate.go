package verify

// Default gate parameters, matching the recognizer's usual operating point.
const (
	DefaultTolerance           = 0.6
	DefaultConfidenceThreshold = 70.0
)

// Gate converts a raw similarity distance into an accept/reject decision.
// A candidate is accepted only when the distance is within Tolerance and the
// derived confidence reaches ConfidenceThreshold; everything else is treated
// as Unknown regardless of the nominal identity label.
type Gate struct {
	Tolerance           float64 // maximum acceptable distance (lower = stricter)
	ConfidenceThreshold float64 // minimum acceptable confidence in percent
}

// NewGate creates a gate with the given parameters, falling back to defaults
// for non-positive values.
func NewGate(tolerance, confidenceThreshold float64) Gate {
	if tolerance <= 0 {
		tolerance = DefaultTolerance
	}
	if confidenceThreshold <= 0 {
		confidenceThreshold = DefaultConfidenceThreshold
	}
	return Gate{Tolerance: tolerance, ConfidenceThreshold: confidenceThreshold}
}

// Confidence converts a similarity distance into a confidence percentage,
// clamped to [0, 100].
func Confidence(distance float64) float64 {
	c := (1 - distance) * 100
	if c < 0 {
		return 0
	}
	if c > 100 {
		return 100
	}
	return c
}

// Evaluate decides whether a candidate clears the gate. It is a pure
// function: no side effects, deterministic for identical inputs. Candidates
// without an identity never pass.
func (g Gate) Evaluate(c MatchCandidate) (accepted bool, confidence float64) {
	if c.Identity == nil {
		return false, 0
	}
	confidence = Confidence(c.Distance)
	accepted = c.Distance <= g.Tolerance && confidence >= g.ConfidenceThreshold
	return accepted, confidence
}
