// Package pso implements particle swarm optimization over box-bounded
// continuous problems, with pluggable neighbourhood topologies and two
// velocity update rules: the constriction-coefficient form and a
// nonlinearly decaying inertia weight.
package pso

import (
	"database/sql"
	"fmt"
	"log"
	"math"
	"sync/atomic"

	"gonum.org/v1/gonum/floats"

	psovis "github.com/DirtySandals/PSO-Visualiser"
)

// These params follow the constriction factor originally described in:
//
//	Clerc and M.  "The swarm and the queen: towards a deterministic and
//	adaptive particle swarm optimization" Proc. 1999 Congress on
//	Evolutionary Computation, pp. 1951-1957
//
// DefaultConstriction is the coefficient for c1 = c2 = 2.05 (i.e.
// Constriction(2.05, 2.05) rounded to five digits).  The inertia-weight
// rule instead decays from DefaultWMax to DefaultWMin under
// DefaultModulation.
const (
	DefaultCognition    = 2.05
	DefaultSocial       = 2.05
	DefaultConstriction = 0.72984
	DefaultWMax         = 0.9
	DefaultWMin         = 0.4
	DefaultModulation   = 0.1
	DefaultVelScale     = 0.5
)

const (
	// TblParticles is the sql table holding every particle's position and
	// fitness for each generation.
	TblParticles = "psoparticles"
	// TblBest is the sql table holding the best fitness so far and its
	// position for each generation.
	TblBest = "psobest"
)

// Constriction calculates the constriction coefficient for the given c1 and
// c2 in the velocity equation:
//
//	v_next = k*(v_curr + c1*rand*(p_personal-x) + c2*rand*(p_hood-x))
//
// c1+c2 should usually be greater than (but close to) 4.
func Constriction(c1, c2 float64) float64 {
	phi := c1 + c2
	return 2 / math.Abs(2-phi-math.Sqrt(phi*phi-4*phi))
}

// State is the lifecycle of an optimizer run.
type State int

const (
	// Idle means Optimize has never run.
	Idle State = iota
	// Running means the generation loop is in progress.
	Running
	// Converged means the best fitness went unimproved past the early
	// stopping tolerance.
	Converged
	// Stopped means an external stop request ended the run.
	Stopped
	// Completed means the full generation budget was exhausted.
	Completed
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Running:
		return "running"
	case Converged:
		return "converged"
	case Stopped:
		return "stopped"
	case Completed:
		return "completed"
	}
	return fmt.Sprintf("state(%v)", int(s))
}

type Option func(*Optimizer)

// LearnFactors sets the cognitive (c1) and social (c2) acceleration
// constants.
func LearnFactors(cognition, social float64) Option {
	return func(o *Optimizer) {
		o.Cognition = cognition
		o.Social = social
	}
}

// ConstrictionFactor overrides the damping coefficient used by the
// standard update rule.
func ConstrictionFactor(k float64) Option {
	return func(o *Optimizer) { o.Constriction = k }
}

// NonlinearInertia switches the optimizer to the inertia-weight update
// rule, decaying the weight from wmax to wmin over the run under
// modulation index n:
//
//	w(t) = ((T-t)/T)^n * (wmin-wmax) + wmax
func NonlinearInertia(wmax, wmin, n float64) Option {
	return func(o *Optimizer) {
		o.inertia = true
		o.WMax = wmax
		o.WMin = wmin
		o.Modulation = n
	}
}

// Inertia switches to the inertia-weight rule with the default schedule.
func Inertia() Option {
	return NonlinearInertia(DefaultWMax, DefaultWMin, DefaultModulation)
}

// VelScale sets the scale of the random initial velocities.
func VelScale(s float64) Option {
	return func(o *Optimizer) { o.velScale = s }
}

// ZeroVel starts all particles at rest.
func ZeroVel() Option {
	return func(o *Optimizer) { o.velScale = 0 }
}

// DB directs the optimizer to record per-generation particle state and the
// running best into the given database.
func DB(db *sql.DB) Option {
	return func(o *Optimizer) { o.Db = db }
}

// Optimizer owns one swarm wired with one topology and runs the generation
// loop over it.  Construct with New; a run mutates the optimizer
// generation-by-generation, so build a fresh one to restart a search.
type Optimizer struct {
	Swarm   *Swarm
	Problem psovis.Problem

	Cognition    float64
	Social       float64
	Constriction float64
	WMax         float64
	WMin         float64
	Modulation   float64

	// BestFitness, Spread, and MeanVel hold one entry per generation of the
	// current run.  Generations never reached due to early stopping hold
	// NaN.
	BestFitness []float64
	Spread      []float64
	MeanVel     []float64

	// Gen is the last generation executed; BestGen is the generation the
	// best fitness last improved; BestVal is the best in-bounds fitness
	// seen, seeded from the initial population.
	Gen     int
	BestGen int
	BestVal float64

	Db *sql.DB

	inertia  bool
	velScale float64
	state    State
	stop     atomic.Bool
}

// New builds a swarm of n particles on the problem, initializes positions
// (within the problem's initialization bounds when it defines them) and
// velocities, wires the topology, and seeds all personal and group bests
// with one evaluation pass.
func New(problem psovis.Problem, n int, topo Topology, opts ...Option) (*Optimizer, error) {
	o := &Optimizer{
		Problem:      problem,
		Cognition:    DefaultCognition,
		Social:       DefaultSocial,
		Constriction: DefaultConstriction,
		WMax:         DefaultWMax,
		WMin:         DefaultWMin,
		Modulation:   DefaultModulation,
		velScale:     DefaultVelScale,
	}
	for _, opt := range opts {
		opt(o)
	}

	o.Swarm = NewSwarm(problem, n)
	o.Swarm.UniformPositions()
	if o.velScale == 0 {
		o.Swarm.ZeroVelocities()
	} else {
		o.Swarm.UniformVelocities(o.velScale)
	}
	if err := topo.Init(o.Swarm); err != nil {
		return nil, err
	}
	if err := o.Swarm.CalcFitness(); err != nil {
		return nil, err
	}
	if err := o.initdb(); err != nil {
		return nil, err
	}
	return o, nil
}

// State reports the run lifecycle.  It is owned by the goroutine executing
// Optimize; read it only after the run returns or from the same goroutine.
func (o *Optimizer) State() State { return o.state }

// Stop requests a cooperative stop.  The generation loop observes the flag
// at generation boundaries only, so a stop may take one full generation to
// land.  Safe to call from other goroutines and at any lifecycle point.
func (o *Optimizer) Stop() { o.stop.Store(true) }

// Optimize runs up to maxgen generations, stopping early once the best
// fitness goes more than tol generations without improving.  export, when
// non-nil, is invoked once per completed generation with the live swarm; it
// must copy anything it keeps.  A DimensionErr from the problem aborts the
// run and is returned.
func (o *Optimizer) Optimize(maxgen, tol int, export func(*Swarm)) error {
	if maxgen <= 0 {
		return fmt.Errorf("pso: maxgen must be positive, got %v", maxgen)
	}

	o.stop.Store(false)
	o.BestFitness = make([]float64, maxgen)
	o.Spread = make([]float64, maxgen)
	o.MeanVel = make([]float64, maxgen)

	// Seed the running best from the initial evaluation pass.
	o.BestVal, _ = o.Swarm.Best()
	o.BestGen = 0
	bestFound := math.Inf(1)
	o.state = Running

	for gen := 0; gen < maxgen; gen++ {
		if o.stop.Load() {
			o.state = Stopped
			o.pad(gen, maxgen)
			return nil
		}
		o.Gen = gen

		w := 0.0
		if o.inertia {
			w = o.inertiaWeight(gen, maxgen)
		}

		for i, p := range o.Swarm.Particles {
			o.move(p, o.Swarm.Hoods[i], w)
			val, err := o.Problem.Eval(p.Pos)
			if err != nil {
				o.state = Stopped
				o.pad(gen, maxgen)
				return err
			}
			// An out-of-bounds particle keeps its new position and
			// velocity but its fitness tracking pauses until it wanders
			// back in.
			if !psovis.InBounds(o.Problem, p.Pos) {
				continue
			}
			if val < o.BestVal {
				o.BestVal = val
			}
			o.Swarm.Update(i, val)
		}

		o.BestFitness[gen] = o.BestVal
		o.Spread[gen] = o.Swarm.Spread(o.Swarm.CenterOfMass())
		o.MeanVel[gen] = o.Swarm.MeanVelocity()
		if err := o.updateDb(gen); err != nil {
			o.state = Stopped
			o.pad(gen+1, maxgen)
			return err
		}
		if export != nil {
			export(o.Swarm)
		}

		if o.BestVal < bestFound {
			bestFound = o.BestVal
			o.BestGen = gen
		}
		if gen-o.BestGen > tol {
			log.Printf("early stopping at generation %v", gen+1)
			o.state = Converged
			o.pad(gen+1, maxgen)
			return nil
		}
	}

	o.state = Completed
	return nil
}

// move applies one velocity and position update.  The r1/r2 draws MUST
// happen inside the dimension loop and be generated uniquely for each
// dimension of the particle's velocity.
func (o *Optimizer) move(p *Particle, h *Hood, w float64) {
	for d := range p.Vel {
		r1 := psovis.RandFloat()
		r2 := psovis.RandFloat()
		cog := o.Cognition * r1 * (p.BestPos[d] - p.Pos[d])
		soc := o.Social * r2 * (h.BestPos[d] - p.Pos[d])
		if o.inertia {
			p.Vel[d] = w*p.Vel[d] + cog + soc
		} else {
			p.Vel[d] = o.Constriction * (p.Vel[d] + cog + soc)
		}
	}
	floats.Add(p.Pos, p.Vel)
}

// inertiaWeight is the nonlinear schedule w(t) = ((T-t)/T)^n*(wmin-wmax)+wmax.
func (o *Optimizer) inertiaWeight(t, total int) float64 {
	return math.Pow(float64(total-t)/float64(total), o.Modulation)*(o.WMin-o.WMax) + o.WMax
}

// pad marks the diagnostics of generations never executed as undefined.
func (o *Optimizer) pad(from, maxgen int) {
	for i := from; i < maxgen; i++ {
		o.BestFitness[i] = math.NaN()
		o.Spread[i] = math.NaN()
		o.MeanVel[i] = math.NaN()
	}
}

func (o *Optimizer) initdb() error {
	if o.Db == nil {
		return nil
	}

	s := "CREATE TABLE IF NOT EXISTS " + TblParticles + " (particle INTEGER, gen INTEGER, val REAL"
	s += o.xdbsql("define")
	s += ");"
	if _, err := o.Db.Exec(s); err != nil {
		return err
	}

	s = "CREATE TABLE IF NOT EXISTS " + TblBest + " (gen INTEGER, val REAL"
	s += o.xdbsql("define")
	s += ");"
	_, err := o.Db.Exec(s)
	return err
}

func (o *Optimizer) xdbsql(op string) string {
	s := ""
	for i := 0; i < o.Swarm.Dim; i++ {
		switch op {
		case "?":
			s += ",?"
		case "define":
			s += fmt.Sprintf(",x%v REAL", i)
		case "x":
			s += fmt.Sprintf(",x%v", i)
		default:
			panic("invalid db op " + op)
		}
	}
	return s
}

func (o *Optimizer) updateDb(gen int) error {
	if o.Db == nil {
		return nil
	}

	tx, err := o.Db.Begin()
	if err != nil {
		return err
	}

	s0 := "INSERT INTO " + TblParticles + " (particle,gen,val" + o.xdbsql("x") + ") VALUES (?,?,?" + o.xdbsql("?") + ");"
	for _, p := range o.Swarm.Particles {
		args := []interface{}{p.Id, gen, p.Val}
		args = append(args, pos2iface(p.Pos)...)
		if _, err := tx.Exec(s0, args...); err != nil {
			tx.Rollback()
			return err
		}
	}

	s1 := "INSERT INTO " + TblBest + " (gen,val" + o.xdbsql("x") + ") VALUES (?,?" + o.xdbsql("?") + ");"
	bestval, bestpos := o.Swarm.Best()
	args := []interface{}{gen, bestval}
	args = append(args, pos2iface(bestpos)...)
	if _, err := tx.Exec(s1, args...); err != nil {
		tx.Rollback()
		return err
	}

	return tx.Commit()
}

func pos2iface(pos []float64) []interface{} {
	iface := make([]interface{}, 0, len(pos))
	for _, v := range pos {
		iface = append(iface, v)
	}
	return iface
}
