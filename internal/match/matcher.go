package match

import (
	"math"
	"sync"
	"time"

	"github.com/coder/hnsw"

	"github.com/kozaktomas/face-checkin/internal/verify"
)

// HNSW graph tuning; the roster is small so defaults are generous.
const maxNeighbors = 16

// Enrollment is one enrolled person's face encoding.
type Enrollment struct {
	Identity verify.Identity
	Encoding []float32
}

// EuclideanDistance computes the Euclidean distance between two encodings.
// This is the metric the face encoder's reference implementation uses; the
// usual match threshold is 0.6 for 128-dimensional encodings.
func EuclideanDistance(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return math.MaxFloat64
	}
	var sum float64
	for i := range a {
		d := float64(a[i]) - float64(b[i])
		sum += d * d
	}
	return math.Sqrt(sum)
}

// Matcher finds the closest enrolled identity for a probe encoding using an
// in-memory HNSW index. It only proposes candidates; accepting or rejecting
// them is the verification engine's job.
type Matcher struct {
	mu       sync.RWMutex
	graph    *hnsw.Graph[string]
	identity map[string]verify.Identity
}

// NewMatcher creates an empty matcher.
func NewMatcher() *Matcher {
	return &Matcher{identity: make(map[string]verify.Identity)}
}

// Build replaces the index with the given enrollments.
func (m *Matcher) Build(enrollments []Enrollment) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.identity = make(map[string]verify.Identity, len(enrollments))
	if len(enrollments) == 0 {
		m.graph = nil
		return
	}

	g := hnsw.NewGraph[string]()
	g.M = maxNeighbors
	g.Ml = 1.0 / float64(maxNeighbors)
	g.Distance = hnsw.EuclideanDistance

	for _, e := range enrollments {
		if len(e.Encoding) == 0 {
			continue
		}
		g.Add(hnsw.MakeNode(e.Identity.ID, e.Encoding))
		m.identity[e.Identity.ID] = e.Identity
	}
	m.graph = g
}

// Add inserts one enrollment into the existing index.
func (m *Matcher) Add(e Enrollment) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if len(e.Encoding) == 0 {
		return
	}
	if m.graph == nil {
		m.graph = hnsw.NewGraph[string]()
		m.graph.M = maxNeighbors
		m.graph.Ml = 1.0 / float64(maxNeighbors)
		m.graph.Distance = hnsw.EuclideanDistance
	}
	m.graph.Add(hnsw.MakeNode(e.Identity.ID, e.Encoding))
	m.identity[e.Identity.ID] = e.Identity
}

// Count returns the number of enrolled identities in the index.
func (m *Matcher) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.identity)
}

// Match returns the frame's match candidate for a probe encoding: the
// nearest enrolled identity and its Euclidean distance. An empty probe or an
// empty roster yields a no-identity candidate, which the engine treats as an
// unknown face.
func (m *Matcher) Match(probe []float32, at time.Time) verify.MatchCandidate {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.graph == nil || len(probe) == 0 {
		return verify.MatchCandidate{Timestamp: at}
	}

	neighbors := m.graph.Search(probe, 1)
	if len(neighbors) == 0 {
		return verify.MatchCandidate{Timestamp: at}
	}

	best := neighbors[0]
	id, ok := m.identity[best.Key]
	if !ok {
		return verify.MatchCandidate{Timestamp: at}
	}

	// Recompute the exact distance from the node's own vector; the graph
	// search order is approximate.
	return verify.MatchCandidate{
		Identity:  &id,
		Distance:  EuclideanDistance(probe, best.Value),
		Timestamp: at,
	}
}
