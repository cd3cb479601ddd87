package pso

// Particle is one member of a swarm.  Its neighbourhood lives in the
// swarm's Hoods slice under the same index, so particles never hold
// references back into topology state.
type Particle struct {
	Id      int
	Pos     []float64
	Vel     []float64
	Val     float64
	BestVal float64
	// BestPos is nil until the particle records its first fitness.
	BestPos []float64
}

// Update records a freshly evaluated fitness.  It returns true when the
// personal best improved (strictly, or on the first recorded fitness) so
// the caller can propagate the improvement through the particle's
// neighbourhood.
func (p *Particle) Update(newval float64) bool {
	p.Val = newval
	if p.BestPos == nil || p.Val < p.BestVal {
		p.BestVal = p.Val
		p.BestPos = append([]float64{}, p.Pos...)
		return true
	}
	return false
}
