package pso

import (
	"errors"
	"fmt"

	psovis "github.com/DirtySandals/PSO-Visualiser"
)

// EmptyPopErr is returned when a topology is wired onto a swarm with no
// particles.
var EmptyPopErr = errors.New("pso: topology requires at least one particle")

// Hood is one neighbourhood instance.  Members are indices into the owning
// swarm's particle slice; depending on the topology a Hood may be shared by
// several particles.
type Hood struct {
	Members []int
	// BestPos is nil until a member records its first fitness.
	BestPos []float64
	BestVal float64
}

// Offer updates the hood's best when val strictly improves on it.  Equal
// fitness never replaces the incumbent, so propagation is a stable no-op on
// ties.
func (h *Hood) Offer(pos []float64, val float64) {
	if h.BestPos == nil || val < h.BestVal {
		h.BestVal = val
		h.BestPos = append([]float64{}, pos...)
	}
}

// Topology selects how best-known state propagates between particles.  The
// set is closed: each variant owns its wiring in Init and nothing else in
// the engine switches on the variant.
type Topology int

const (
	// Global wires every particle to one shared neighbourhood, so any
	// improvement is immediately visible to the whole swarm.
	Global Topology = iota
	// Ring gives each particle a neighbourhood of itself and its two
	// adjacent particles under circular indexing.
	Ring
	// Star picks one random hub whose neighbourhood spans the swarm; every
	// other particle sees only itself and the hub.
	Star
	// RandomSubset gives each particle a fixed random sample of half the
	// swarm (less one, plus itself), drawn once at wiring time.
	RandomSubset
)

func (t Topology) String() string {
	switch t {
	case Global:
		return "global"
	case Ring:
		return "ring"
	case Star:
		return "star"
	case RandomSubset:
		return "randomsubset"
	}
	return fmt.Sprintf("topology(%v)", int(t))
}

// Init wires the swarm's neighbourhoods for the variant.  It must run
// exactly once, after positions exist and before any fitness is recorded;
// rewiring a seeded swarm would orphan the accumulated group bests.
func (t Topology) Init(s *Swarm) error {
	n := len(s.Particles)
	if n == 0 {
		return EmptyPopErr
	}

	s.Hoods = make([]*Hood, n)
	switch t {
	case Global:
		shared := &Hood{Members: sequence(n)}
		for i := range s.Hoods {
			s.Hoods[i] = shared
		}
	case Ring:
		for i := range s.Hoods {
			s.Hoods[i] = &Hood{Members: []int{(i - 1 + n) % n, i, (i + 1) % n}}
		}
	case Star:
		hub := psovis.Rand.Intn(n)
		for i := range s.Hoods {
			if i == hub {
				s.Hoods[i] = &Hood{Members: sequence(n)}
				continue
			}
			s.Hoods[i] = &Hood{Members: []int{i, hub}}
		}
	case RandomSubset:
		k := n/2 - 1
		if k < 0 {
			k = 0
		}
		for i := range s.Hoods {
			s.Hoods[i] = &Hood{Members: append(sampleOthers(n, i, k), i)}
		}
	default:
		return fmt.Errorf("pso: unknown topology %v", int(t))
	}
	return nil
}

func sequence(n int) []int {
	m := make([]int, n)
	for i := range m {
		m[i] = i
	}
	return m
}

// sampleOthers draws k distinct indices from [0, n) excluding self.
func sampleOthers(n, self, k int) []int {
	others := make([]int, 0, n-1)
	for i := 0; i < n; i++ {
		if i != self {
			others = append(others, i)
		}
	}
	psovis.Rand.Shuffle(len(others), func(a, b int) {
		others[a], others[b] = others[b], others[a]
	})
	return others[:k]
}
