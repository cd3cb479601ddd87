// Package psovis holds the shared contracts for the particle swarm engine:
// the objective function interface, the (position, value) point type, and
// the package random number generator used for population and topology
// initialization.
package psovis

import (
	"fmt"
	"math/rand"
)

// Rand is used for all random numbers drawn by this module (initial
// positions and velocities, hub selection, neighbour sampling, and the
// per-dimension update draws).  Swap or reseed it before constructing an
// optimizer for reproducible runs.  It is not safe for use by concurrently
// running optimizers.
var Rand = rand.New(rand.NewSource(1))

// RandFloat returns a uniform draw in [0, 1) from the package generator.
func RandFloat() float64 { return Rand.Float64() }

// Problem is an objective function to be minimized over a box-bounded
// region.  Eval must be a pure function of its input so that it can be
// called from a background run without synchronization.
type Problem interface {
	// Dim returns the number of coordinates Eval expects.
	Dim() int

	// Eval returns the objective value at pos.  Lower values are better.
	// It returns a DimensionErr if len(pos) != Dim().
	Eval(pos []float64) (float64, error)

	// Bounds returns the per-dimension low and up search bounds.
	Bounds() (low, up []float64)
}

// InitBounder is implemented by problems whose initial population should be
// drawn from a sub-box of the search region rather than the full bounds.
type InitBounder interface {
	InitBounds() (low, up []float64)
}

// InBounds reports whether every coordinate of pos lies within the
// problem's bounds (inclusive on both ends).
func InBounds(p Problem, pos []float64) bool {
	low, up := p.Bounds()
	for i := range pos {
		if pos[i] < low[i] || pos[i] > up[i] {
			return false
		}
	}
	return true
}

// DimensionErr is returned by Problem.Eval when the position vector has the
// wrong length.
type DimensionErr struct {
	Want, Got int
}

func (e DimensionErr) Error() string {
	return fmt.Sprintf("psovis: position has %v dimensions, problem wants %v", e.Got, e.Want)
}

// CheckDim returns a DimensionErr unless len(pos) matches the problem's
// dimension.  Problem implementations call this at the top of Eval.
func CheckDim(p Problem, pos []float64) error {
	if len(pos) != p.Dim() {
		return DimensionErr{Want: p.Dim(), Got: len(pos)}
	}
	return nil
}

type Point struct {
	pos []float64
	Val float64
}

func NewPoint(pos []float64, val float64) Point {
	cpos := make([]float64, len(pos))
	copy(cpos, pos)
	return Point{pos: cpos, Val: val}
}

func (p Point) At(i int) float64 { return p.pos[i] }

func (p Point) Len() int { return len(p.pos) }

func (p Point) Pos() []float64 {
	pos := make([]float64, len(p.pos))
	copy(pos, p.pos)
	return pos
}
