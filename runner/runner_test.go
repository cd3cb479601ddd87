package runner

import (
	"errors"
	"math/rand"
	"testing"
	"time"

	psovis "github.com/DirtySandals/PSO-Visualiser"
	"github.com/DirtySandals/PSO-Visualiser/pso"
)

func seedrng() { psovis.Rand = rand.New(rand.NewSource(7)) }

// parabola is a 2-d bowl for integration runs.
type parabola struct{}

func (parabola) Dim() int { return 2 }

func (p parabola) Eval(pos []float64) (float64, error) {
	if err := psovis.CheckDim(p, pos); err != nil {
		return 0, err
	}
	return pos[0]*pos[0] + pos[1]*pos[1], nil
}

func (parabola) Bounds() (low, up []float64) { return []float64{-10, -10}, []float64{10, 10} }

// failsDuringRun evaluates cleanly n times (enough to survive optimizer
// construction) and then reports a dimension mismatch.
type failsDuringRun struct {
	n     int
	calls *int
}

func (f failsDuringRun) Dim() int { return 2 }

func (f failsDuringRun) Eval(pos []float64) (float64, error) {
	*f.calls++
	if *f.calls > f.n {
		return 0, psovis.DimensionErr{Want: 2, Got: len(pos)}
	}
	return pos[0] * pos[1], nil
}

func (failsDuringRun) Bounds() (low, up []float64) { return []float64{-10, -10}, []float64{10, 10} }

func frame(v float64) Frame { return Frame{{v, v}} }

// push enqueues a synthetic frame the way the producer's snapshot callback
// does.
func push(r *Runner, f Frame) {
	r.mu.Lock()
	r.enqueue(f)
	r.mu.Unlock()
}

func TestFrameOrdering(t *testing.T) {
	r := New(Interval(0))

	for _, v := range []float64{1, 2, 3} {
		push(r, frame(v))
	}

	// Poll much faster than production: the de-duplicated sequence must be
	// exactly the production order with nothing skipped or reordered.
	var got []float64
	for i := 0; i < 100 && len(got) < 3; i++ {
		f, ok := r.Frame()
		if !ok {
			t.Fatal("Frame returned nothing with frames queued")
		}
		if len(got) == 0 || got[len(got)-1] != f[0][0] {
			got = append(got, f[0][0])
		}
	}
	if len(got) != 3 || got[0] != 1 || got[1] != 2 || got[2] != 3 {
		t.Errorf("de-duplicated frames = %v, want [1 2 3]", got)
	}
}

func TestFrameThrottle(t *testing.T) {
	r := New(Interval(time.Hour))

	push(r, frame(1))
	push(r, frame(2))

	// The first delivery is immediate (nothing was ever delivered), then
	// the second frame stays queued until the interval passes.
	f, ok := r.Frame()
	if !ok || f[0][0] != 1 {
		t.Fatalf("first poll = %v, %v, want frame 1", f, ok)
	}
	for i := 0; i < 10; i++ {
		f, ok = r.Frame()
		if !ok || f[0][0] != 1 {
			t.Fatalf("throttled poll delivered %v, want repeat of frame 1", f)
		}
	}
	if r.Pending() != 1 {
		t.Errorf("pending = %v, want 1", r.Pending())
	}
}

func TestFrameBeforeAnyProduction(t *testing.T) {
	r := New()
	if f, ok := r.Frame(); ok || f != nil {
		t.Errorf("Frame on a fresh pipeline = %v, %v, want none", f, ok)
	}
}

func TestFrameCopies(t *testing.T) {
	r := New(Interval(0))
	push(r, frame(1))

	f1, _ := r.Frame()
	f1[0][0] = 99
	f2, _ := r.Frame()
	if f2[0][0] != 1 {
		t.Errorf("consumer mutation leaked into the pipeline: %v", f2)
	}
}

func TestRunWithoutLoad(t *testing.T) {
	r := New()
	if err := r.Run(10); !errors.Is(err, NotLoadedErr) {
		t.Errorf("Run without Load returned %v, want NotLoadedErr", err)
	}
}

func TestRunNonPositiveGenerations(t *testing.T) {
	seedrng()
	o, err := pso.New(parabola{}, 5, pso.Global)
	if err != nil {
		t.Fatal(err)
	}

	r := New()
	if err := r.Load(o); err != nil {
		t.Fatal(err)
	}
	if err := r.Run(0); !errors.Is(err, PositiveGenErr) {
		t.Errorf("Run(0) returned %v, want PositiveGenErr", err)
	}
}

func TestStopIdempotent(t *testing.T) {
	r := New()

	// Never ran: both calls must be safe and leave construction state.
	r.Stop()
	r.Stop()

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.queue != nil || r.pending != 0 || r.last != nil || r.running || r.done != nil {
		t.Errorf("pipeline not in initial state after Stop: %+v", r)
	}
}

func TestLoadEnqueuesGenerationZero(t *testing.T) {
	seedrng()
	o, err := pso.New(parabola{}, 6, pso.Global)
	if err != nil {
		t.Fatal(err)
	}

	r := New()
	if err := r.Load(o); err != nil {
		t.Fatal(err)
	}
	f, ok := r.Frame()
	if !ok {
		t.Fatal("no frame after Load")
	}
	if len(f) != 6 {
		t.Errorf("generation-0 frame has %v positions, want 6", len(f))
	}
	for i, p := range o.Swarm.Particles {
		if f[i] != [2]float64{p.Pos[0], p.Pos[1]} {
			t.Errorf("frame[%v] = %v, want %v", i, f[i], p.Pos[:2])
		}
	}
}

func TestRunDeliversAllGenerations(t *testing.T) {
	seedrng()
	o, err := pso.New(parabola{}, 5, pso.Global)
	if err != nil {
		t.Fatal(err)
	}

	const maxgen = 20
	r := New(Interval(0))
	if err := r.Load(o); err != nil {
		t.Fatal(err)
	}
	if err := r.Run(maxgen); err != nil {
		t.Fatal(err)
	}

	// One generation-0 frame plus one per completed generation, observed in
	// order with no drops when polling keeps up.
	nframes := 0
	var prev Frame
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		f, ok := r.Frame()
		if ok && !equal(f, prev) {
			nframes++
			prev = f
		}
		if !r.Running() && r.Pending() == 0 {
			break
		}
	}
	if err := r.Err(); err != nil {
		t.Fatal(err)
	}
	if nframes != maxgen+1 {
		t.Errorf("observed %v distinct frames, want %v", nframes, maxgen+1)
	}

	r.Stop()
	if f, ok := r.Frame(); ok || f != nil {
		t.Errorf("Frame after Stop = %v, %v, want none", f, ok)
	}
}

func TestRestartRun(t *testing.T) {
	seedrng()
	o, err := pso.New(parabola{}, 5, pso.Global)
	if err != nil {
		t.Fatal(err)
	}

	r := New(Interval(0))
	if err := r.Load(o); err != nil {
		t.Fatal(err)
	}
	if err := r.Run(10); err != nil {
		t.Fatal(err)
	}
	// Restart mid- or post-run: prior state must be fully torn down and a
	// fresh generation-0 frame delivered.
	if err := r.Run(10); err != nil {
		t.Fatal(err)
	}
	if f, ok := r.Frame(); !ok || len(f) != 5 {
		t.Errorf("no generation-0 frame after restart: %v, %v", f, ok)
	}
	r.Stop()
}

func TestLoadMidRun(t *testing.T) {
	seedrng()
	o, err := pso.New(parabola{}, 30, pso.Global)
	if err != nil {
		t.Fatal(err)
	}

	r := New()
	if err := r.Load(o); err != nil {
		t.Fatal(err)
	}
	if err := r.Run(100000); err != nil {
		t.Fatal(err)
	}
	if err := r.Load(o); !errors.Is(err, MidRunErr) {
		// The run may legitimately finish first on a fast machine, in which
		// case Load succeeds; only a wrong error is a failure.
		if err != nil {
			t.Errorf("Load mid-run returned %v, want MidRunErr", err)
		} else if r.Running() {
			t.Error("Load succeeded while a run was active")
		}
	}
	r.Stop()
}

func TestFailedRunStillJoins(t *testing.T) {
	seedrng()
	const npar = 5
	calls := 0
	o, err := pso.New(failsDuringRun{n: npar + 3, calls: &calls}, npar, pso.Global)
	if err != nil {
		t.Fatal(err)
	}

	r := New()
	if err := r.Load(o); err != nil {
		t.Fatal(err)
	}
	if err := r.Run(100); err != nil {
		t.Fatal(err)
	}

	deadline := time.Now().Add(5 * time.Second)
	for r.Running() && time.Now().Before(deadline) {
		time.Sleep(time.Millisecond)
	}

	var derr psovis.DimensionErr
	if err := r.Err(); !errors.As(err, &derr) {
		t.Fatalf("Err() = %v, want DimensionErr", err)
	}

	// A crashed run must still be joinable and leave the pipeline
	// resettable and reusable.
	r.Stop()
	if err := r.Run(10); err == nil {
		r.Stop()
	}
}

func equal(a, b Frame) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
