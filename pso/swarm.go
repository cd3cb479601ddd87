package pso

import (
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	psovis "github.com/DirtySandals/PSO-Visualiser"
)

// Swarm is a fixed-size population of particles bound to one problem.  The
// Hoods slice is parallel to Particles: Hoods[i] is particle i's
// neighbourhood and may be shared between indices depending on the
// topology.
type Swarm struct {
	Particles []*Particle
	Hoods     []*Hood
	Dim       int
	Problem   psovis.Problem
}

// NewSwarm allocates n particles of the problem's dimension.  Positions and
// velocities are zero until an initializer runs; Hoods are nil until a
// Topology wires them.
func NewSwarm(problem psovis.Problem, n int) *Swarm {
	s := &Swarm{
		Particles: make([]*Particle, n),
		Dim:       problem.Dim(),
		Problem:   problem,
	}
	for i := range s.Particles {
		s.Particles[i] = &Particle{
			Id:  i,
			Pos: make([]float64, s.Dim),
			Vel: make([]float64, s.Dim),
		}
	}
	return s
}

// UniformPositions draws every particle position uniformly within the
// problem's initialization bounds when it defines them, otherwise within
// its search bounds.
func (s *Swarm) UniformPositions() {
	low, up := s.Problem.Bounds()
	if ib, ok := s.Problem.(psovis.InitBounder); ok {
		low, up = ib.InitBounds()
	}
	for _, p := range s.Particles {
		for j := range p.Pos {
			p.Pos[j] = low[j] + psovis.RandFloat()*(up[j]-low[j])
		}
	}
}

// UniformVelocities draws a uniform random point in the search bounds for
// each particle and sets its velocity to the scaled offset from the
// particle's current position.
func (s *Swarm) UniformVelocities(scale float64) {
	low, up := s.Problem.Bounds()
	for _, p := range s.Particles {
		for j := range p.Vel {
			p.Vel[j] = scale * (low[j] + psovis.RandFloat()*(up[j]-low[j]) - p.Pos[j])
		}
	}
}

// ZeroVelocities starts every particle at rest.
func (s *Swarm) ZeroVelocities() {
	for _, p := range s.Particles {
		for j := range p.Vel {
			p.Vel[j] = 0
		}
	}
}

// Update records a fitness for particle i and, if its personal best
// improved, offers the improvement to the neighbourhood of every member of
// particle i's own neighbourhood.  For the global topology this collapses
// to a single shared hood; for the others it is how information travels
// between overlapping neighbourhoods.
func (s *Swarm) Update(i int, val float64) {
	p := s.Particles[i]
	if !p.Update(val) {
		return
	}
	for _, j := range s.Hoods[i].Members {
		s.Hoods[j].Offer(p.Pos, val)
	}
}

// CalcFitness evaluates every particle once, seeding personal and group
// bests before generation zero.  The topology must be wired first.
func (s *Swarm) CalcFitness() error {
	for i, p := range s.Particles {
		val, err := s.Problem.Eval(p.Pos)
		if err != nil {
			return err
		}
		s.Update(i, val)
	}
	return nil
}

// Best returns the lowest personal-best fitness in the swarm and its
// position.
func (s *Swarm) Best() (val float64, pos []float64) {
	val = s.Particles[0].BestVal
	pos = s.Particles[0].BestPos
	for _, p := range s.Particles[1:] {
		if p.BestVal < val {
			val = p.BestVal
			pos = p.BestPos
		}
	}
	return val, pos
}

// CenterOfMass is the elementwise mean of all particle positions, computed
// on demand.
func (s *Swarm) CenterOfMass() []float64 {
	com := make([]float64, s.Dim)
	for _, p := range s.Particles {
		floats.Add(com, p.Pos)
	}
	floats.Scale(1/float64(len(s.Particles)), com)
	return com
}

// Spread is the population standard deviation, over particles, of the
// Euclidean distance to the given center of mass.
func (s *Swarm) Spread(com []float64) float64 {
	dists := make([]float64, len(s.Particles))
	diff := make([]float64, s.Dim)
	for i, p := range s.Particles {
		floats.SubTo(diff, p.Pos, com)
		dists[i] = floats.Norm(diff, 2)
	}
	return stat.PopStdDev(dists, nil)
}

// MeanVelocity is the mean Euclidean norm of the particle velocities.
func (s *Swarm) MeanVelocity() float64 {
	norms := make([]float64, len(s.Particles))
	for i, p := range s.Particles {
		norms[i] = floats.Norm(p.Vel, 2)
	}
	return stat.Mean(norms, nil)
}
