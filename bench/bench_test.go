package bench_test

import (
	"errors"
	"math"
	"testing"

	psovis "github.com/DirtySandals/PSO-Visualiser"
	"github.com/DirtySandals/PSO-Visualiser/bench"
)

const opttol = 0.01

func TestOptima(t *testing.T) {
	for _, fn := range bench.AllFuncs {
		for _, opt := range fn.Optima() {
			val, err := fn.Eval(opt.Pos())
			if err != nil {
				t.Errorf("[FAIL:%v] Eval(optimum) returned error: %v", fn.Name(), err)
				continue
			}
			if math.Abs(val-opt.Val) > opttol {
				t.Errorf("[FAIL:%v] Eval(%v) = %v, want %v", fn.Name(), opt.Pos(), val, opt.Val)
			} else {
				t.Logf("[pass:%v] optimum %v within %v", fn.Name(), opt.Val, opttol)
			}
		}
	}
}

func TestAckley(t *testing.T) {
	fn := bench.Ackley{NDim: 2}

	val, err := fn.Eval([]float64{0, 0})
	if err != nil {
		t.Fatal(err)
	}
	if math.Abs(val) > 1e-9 {
		t.Errorf("Ackley(0, 0) = %v, want ~0", val)
	}

	val, err = fn.Eval([]float64{30, 30})
	if err != nil {
		t.Fatal(err)
	}
	if val <= 15 {
		t.Errorf("Ackley(30, 30) = %v, want > 15", val)
	}
}

func TestAckleyBounds(t *testing.T) {
	fn := bench.Ackley{NDim: 3}

	low, up := fn.Bounds()
	for i := range low {
		if low[i] != -30 || up[i] != 30 {
			t.Errorf("bounds[%v] = (%v, %v), want (-30, 30)", i, low[i], up[i])
		}
	}

	low, up = fn.InitBounds()
	for i := range low {
		if low[i] != 16 || up[i] != 30 {
			t.Errorf("init bounds[%v] = (%v, %v), want (16, 30)", i, low[i], up[i])
		}
	}
}

func TestDimensionMismatch(t *testing.T) {
	for _, fn := range bench.AllFuncs {
		pos := make([]float64, fn.Dim()+1)
		_, err := fn.Eval(pos)
		var derr psovis.DimensionErr
		if !errors.As(err, &derr) {
			t.Errorf("[FAIL:%v] wrong-length position returned %v, want DimensionErr", fn.Name(), err)
		}
	}
}
