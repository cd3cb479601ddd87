// Package bench provides benchmark objective functions from
// http://en.wikipedia.org/wiki/Test_functions_for_optimization for
// exercising the swarm optimizer.
package bench

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"

	psovis "github.com/DirtySandals/PSO-Visualiser"
)

var (
	sin  = math.Sin
	cos  = math.Cos
	abs  = math.Abs
	exp  = math.Exp
	sqrt = math.Sqrt
)

var AllFuncs = []Func{
	Ackley{NDim: 2},
	Ackley{NDim: 10},
	CrossTray{},
	Eggholder{},
	HolderTable{},
	Schaffer2{},
	Styblinski{NDim: 1},
	Styblinski{NDim: 10},
	Rosenbrock{NDim: 2},
	Rosenbrock{NDim: 10},
}

// Func is a benchmark problem with known optima.
type Func interface {
	psovis.Problem
	Optima() []psovis.Point
	Name() string
}

// Ackley is the d-dimensional Ackley function:
//
//	-20*exp(-0.2*sqrt(1/d * sum(x_i^2))) - exp(1/d * sum(cos(2*pi*x_i))) + 20 + e
//
// It has many local optima and a single global optimum at the origin,
// making it a standard exercise for balancing exploration against
// exploitation.
type Ackley struct {
	NDim int
}

func (fn Ackley) Name() string { return fmt.Sprintf("Ackley_%vD", fn.NDim) }

func (fn Ackley) Dim() int { return fn.NDim }

func (fn Ackley) Eval(pos []float64) (float64, error) {
	if err := psovis.CheckDim(fn, pos); err != nil {
		return 0, err
	}

	invdim := 1 / float64(fn.NDim)
	sqsum := floats.Dot(pos, pos)

	cossum := 0.0
	for _, x := range pos {
		cossum += cos(2 * math.Pi * x)
	}

	return -20*exp(-0.2*sqrt(invdim*sqsum)) - exp(invdim*cossum) + 20 + math.E, nil
}

func (fn Ackley) Bounds() (low, up []float64) { return uniformBox(fn.NDim, -30, 30) }

// InitBounds restricts initial positions to a corner of the search region
// so that runs have to travel toward the optimum.
func (fn Ackley) InitBounds() (low, up []float64) { return uniformBox(fn.NDim, 16, 30) }

func (fn Ackley) Optima() []psovis.Point {
	return []psovis.Point{
		psovis.NewPoint(make([]float64, fn.NDim), 0),
	}
}

type CrossTray struct{}

func (fn CrossTray) Name() string { return "CrossTray" }

func (fn CrossTray) Dim() int { return 2 }

func (fn CrossTray) Eval(pos []float64) (float64, error) {
	if err := psovis.CheckDim(fn, pos); err != nil {
		return 0, err
	}

	x := pos[0]
	y := pos[1]
	return -.0001 * math.Pow(abs(sin(x)*sin(y)*exp(abs(100-sqrt(x*x+y*y)/math.Pi)))+1, 0.1), nil
}

func (fn CrossTray) Bounds() (low, up []float64) { return uniformBox(2, -10, 10) }

func (fn CrossTray) Optima() []psovis.Point {
	return []psovis.Point{
		psovis.NewPoint([]float64{1.34941, -1.34941}, -2.06261),
		psovis.NewPoint([]float64{1.34941, 1.34941}, -2.06261),
		psovis.NewPoint([]float64{-1.34941, 1.34941}, -2.06261),
		psovis.NewPoint([]float64{-1.34941, -1.34941}, -2.06261),
	}
}

type Eggholder struct{}

func (fn Eggholder) Name() string { return "Eggholder" }

func (fn Eggholder) Dim() int { return 2 }

func (fn Eggholder) Eval(pos []float64) (float64, error) {
	if err := psovis.CheckDim(fn, pos); err != nil {
		return 0, err
	}

	x := pos[0]
	y := pos[1]
	return -(y+47)*sin(sqrt(abs(y+x/2+47))) - x*sin(sqrt(abs(x-(y+47)))), nil
}

func (fn Eggholder) Bounds() (low, up []float64) { return uniformBox(2, -512, 512) }

func (fn Eggholder) Optima() []psovis.Point {
	return []psovis.Point{
		psovis.NewPoint([]float64{512, 404.2319}, -959.6407),
	}
}

type HolderTable struct{}

func (fn HolderTable) Name() string { return "HolderTable" }

func (fn HolderTable) Dim() int { return 2 }

func (fn HolderTable) Eval(pos []float64) (float64, error) {
	if err := psovis.CheckDim(fn, pos); err != nil {
		return 0, err
	}

	x := pos[0]
	y := pos[1]
	return -abs(sin(x) * cos(y) * exp(abs(1-sqrt(x*x+y*y)/math.Pi))), nil
}

func (fn HolderTable) Bounds() (low, up []float64) { return uniformBox(2, -10, 10) }

func (fn HolderTable) Optima() []psovis.Point {
	return []psovis.Point{
		psovis.NewPoint([]float64{8.05502, 9.66459}, -19.2085),
		psovis.NewPoint([]float64{-8.05502, 9.66459}, -19.2085),
		psovis.NewPoint([]float64{8.05502, -9.66459}, -19.2085),
		psovis.NewPoint([]float64{-8.05502, -9.66459}, -19.2085),
	}
}

type Schaffer2 struct{}

func (fn Schaffer2) Name() string { return "Schaffer2" }

func (fn Schaffer2) Dim() int { return 2 }

func (fn Schaffer2) Eval(pos []float64) (float64, error) {
	if err := psovis.CheckDim(fn, pos); err != nil {
		return 0, err
	}

	x := pos[0]
	y := pos[1]
	return 0.5 + (math.Pow(sin(x*x-y*y), 2)-0.5)/math.Pow(1+.0001*(x*x+y*y), 2), nil
}

func (fn Schaffer2) Bounds() (low, up []float64) { return uniformBox(2, -100, 100) }

func (fn Schaffer2) Optima() []psovis.Point {
	return []psovis.Point{
		psovis.NewPoint([]float64{0, 0}, 0),
	}
}

type Styblinski struct {
	NDim int
}

func (fn Styblinski) Name() string { return fmt.Sprintf("Styblinski_%vD", fn.NDim) }

func (fn Styblinski) Dim() int { return fn.NDim }

func (fn Styblinski) Eval(pos []float64) (float64, error) {
	if err := psovis.CheckDim(fn, pos); err != nil {
		return 0, err
	}

	tot := 0.0
	for _, v := range pos {
		tot += math.Pow(v, 4) - 16*math.Pow(v, 2) + 5*v
	}
	return tot / 2, nil
}

func (fn Styblinski) Bounds() (low, up []float64) { return uniformBox(fn.NDim, -5, 5) }

func (fn Styblinski) Optima() []psovis.Point {
	pos := make([]float64, fn.NDim)
	for i := range pos {
		pos[i] = -2.903534
	}
	return []psovis.Point{
		psovis.NewPoint(pos, -39.16599*float64(fn.NDim)),
	}
}

type Rosenbrock struct {
	NDim int
}

func (fn Rosenbrock) Name() string { return fmt.Sprintf("Rosenbrock_%vD", fn.NDim) }

func (fn Rosenbrock) Dim() int { return fn.NDim }

func (fn Rosenbrock) Eval(pos []float64) (float64, error) {
	if err := psovis.CheckDim(fn, pos); err != nil {
		return 0, err
	}

	tot := 0.0
	for i := 0; i < fn.NDim-1; i++ {
		tot += 100*math.Pow(pos[i+1]-pos[i]*pos[i], 2) + math.Pow(pos[i]-1, 2)
	}
	return tot, nil
}

func (fn Rosenbrock) Bounds() (low, up []float64) { return uniformBox(fn.NDim, -30, 30) }

func (fn Rosenbrock) Optima() []psovis.Point {
	pos := make([]float64, fn.NDim)
	for i := range pos {
		pos[i] = 1
	}
	return []psovis.Point{
		psovis.NewPoint(pos, 0),
	}
}

func uniformBox(ndim int, l, u float64) (low, up []float64) {
	low = make([]float64, ndim)
	up = make([]float64, ndim)
	for i := range low {
		low[i] = l
		up[i] = u
	}
	return low, up
}
