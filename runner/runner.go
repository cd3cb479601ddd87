// Package runner executes an optimizer on a background goroutine and
// streams one population snapshot per generation to a polling consumer,
// throttled to a minimum inter-frame interval so a fast search doesn't
// outrun a renderer.
package runner

import (
	"errors"
	"sync"
	"time"

	"github.com/DirtySandals/PSO-Visualiser/pso"
)

// NotLoadedErr is returned by Run when no optimizer has been loaded.
var NotLoadedErr = errors.New("runner: no optimizer loaded")

// MidRunErr is returned by Load while a run is still active.
var MidRunErr = errors.New("runner: optimizer is running")

// PositiveGenErr is returned by Run for a non-positive generation budget.
var PositiveGenErr = errors.New("runner: max generations must be positive")

const (
	// DefaultInterval is the minimum wall-clock gap between two distinct
	// frames becoming visible to the consumer.
	DefaultInterval = 10 * time.Millisecond
	// DefaultTolerance is the early-stopping tolerance passed to runs.
	DefaultTolerance = 100
)

// Frame is one generation's (x, y) positions for the whole population.
type Frame [][2]float64

func (f Frame) copy() Frame {
	c := make(Frame, len(f))
	copy(c, f)
	return c
}

type Option func(*Runner)

// Interval sets the minimum time between distinct frames returned by Frame.
func Interval(d time.Duration) Option {
	return func(r *Runner) { r.interval = d }
}

// Tolerance sets the early-stopping tolerance used for runs.
func Tolerance(n int) Option {
	return func(r *Runner) { r.tol = n }
}

// Runner owns the handoff between the producing generation loop and a
// polling consumer.  One mutex guards the frame queue, the pending count,
// and the last-delivered cache; the consumer never touches optimizer state.
type Runner struct {
	mu      sync.Mutex
	opt     *pso.Optimizer
	queue   []Frame
	pending int
	last    Frame
	lastAt  time.Time
	runErr  error
	running bool
	done    chan struct{}

	interval time.Duration
	tol      int
}

func New(opts ...Option) *Runner {
	r := &Runner{
		interval: DefaultInterval,
		tol:      DefaultTolerance,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Load stores the optimizer to run and queues its generation-zero frame so
// consumers can draw the initial population before any run starts.  It
// fails while a previous run is still active.
func (r *Runner) Load(o *pso.Optimizer) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.running {
		return MidRunErr
	}
	r.opt = o
	r.enqueue(capture(o.Swarm))
	return nil
}

// Run tears down any previous run and starts the loaded optimizer on a new
// background goroutine.  The queue is reset by the teardown, so the
// generation-zero frame is captured again before the run begins.
func (r *Runner) Run(maxgen int) error {
	r.mu.Lock()
	o := r.opt
	r.mu.Unlock()
	if o == nil {
		return NotLoadedErr
	}
	if maxgen <= 0 {
		return PositiveGenErr
	}

	r.Stop()

	done := make(chan struct{})
	r.mu.Lock()
	r.enqueue(capture(o.Swarm))
	r.running = true
	r.runErr = nil
	r.done = done
	r.mu.Unlock()

	go func() {
		err := o.Optimize(maxgen, r.tol, r.snapshot)
		r.mu.Lock()
		r.runErr = err
		r.running = false
		r.mu.Unlock()
		close(done)
	}()
	return nil
}

// Stop cooperatively cancels any active run, joins its goroutine, and
// resets the pipeline to its post-construction state (empty queue, no
// pending frames, no last-delivered snapshot).  It is idempotent and safe
// to call when nothing ever ran; a run that failed is still joined.
func (r *Runner) Stop() {
	r.mu.Lock()
	o := r.opt
	done := r.done
	r.mu.Unlock()

	if done != nil {
		o.Stop()
		<-done
	}

	r.mu.Lock()
	r.done = nil
	r.running = false
	r.queue = nil
	r.pending = 0
	r.last = nil
	r.lastAt = time.Time{}
	r.mu.Unlock()
}

// Running reports whether a background run is still producing generations.
func (r *Runner) Running() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.running
}

// Pending counts queued frames not yet delivered to the consumer.
func (r *Runner) Pending() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.pending
}

// Err reports the failure of the most recently finished run, if any.
func (r *Runner) Err() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.runErr
}

// Frame returns the current snapshot without blocking.  New frames become
// visible at most once per interval; polling faster repeats the last
// delivered frame, polling slower never skips one.  ok is false until the
// first frame has been produced and delivered.
func (r *Runner) Frame() (f Frame, ok bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.pending == 0 {
		if r.last == nil {
			return nil, false
		}
		return r.last.copy(), true
	}

	if now := time.Now(); now.Sub(r.lastAt) > r.interval {
		r.lastAt = now
		r.last = r.queue[0]
		r.queue = r.queue[1:]
		r.pending--
	}
	if r.last == nil {
		return nil, false
	}
	return r.last.copy(), true
}

// snapshot is the per-generation export callback handed to Optimize.  It
// runs on the producer goroutine.
func (r *Runner) snapshot(s *pso.Swarm) {
	f := capture(s)
	r.mu.Lock()
	r.enqueue(f)
	r.mu.Unlock()
}

// enqueue appends a frame FIFO.  Callers hold r.mu.
func (r *Runner) enqueue(f Frame) {
	r.queue = append(r.queue, f)
	r.pending++
}

// capture copies the first two coordinates of every particle into an
// immutable frame.
func capture(s *pso.Swarm) Frame {
	f := make(Frame, len(s.Particles))
	for i, p := range s.Particles {
		f[i] = [2]float64{p.Pos[0], p.Pos[1]}
	}
	return f
}
