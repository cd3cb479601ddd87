// Command psovis runs a particle swarm search over a benchmark function,
// polling frames from the background runner the way a renderer would, and
// prints the run's outcome.
package main

import (
	"database/sql"
	"flag"
	"fmt"
	"log"
	"math/rand"
	"time"

	_ "modernc.org/sqlite"

	psovis "github.com/DirtySandals/PSO-Visualiser"
	"github.com/DirtySandals/PSO-Visualiser/bench"
	"github.com/DirtySandals/PSO-Visualiser/pso"
	"github.com/DirtySandals/PSO-Visualiser/runner"
)

var (
	fname   = flag.String("func", "Ackley_2D", "benchmark function to minimize")
	topos   = flag.String("topology", "global", "neighbourhood topology (global, ring, star, randomsubset)")
	npar    = flag.Int("pop", 30, "population size")
	maxgen  = flag.Int("gen", 500, "generation budget")
	tol     = flag.Int("tol", 100, "early stopping tolerance (generations without improvement)")
	inertia = flag.Bool("inertia", false, "use the nonlinear inertia-weight rule instead of constriction")
	dbfile  = flag.String("db", "", "sqlite file to record per-generation state into")
	seed    = flag.Int64("seed", 0, "rng seed (0 seeds from the clock)")
)

func main() {
	flag.Parse()
	log.SetFlags(0)

	s := *seed
	if s == 0 {
		s = time.Now().UnixNano()
	}
	psovis.Rand = rand.New(rand.NewSource(s))

	fn := lookupFunc(*fname)
	topo := lookupTopo(*topos)

	opts := []pso.Option{}
	if *inertia {
		opts = append(opts, pso.Inertia())
	}
	if *dbfile != "" {
		db, err := sql.Open("sqlite", *dbfile)
		if err != nil {
			log.Fatal(err)
		}
		defer db.Close()
		opts = append(opts, pso.DB(db))
	}

	opt, err := pso.New(fn, *npar, topo, opts...)
	if err != nil {
		log.Fatal(err)
	}

	r := runner.New(runner.Tolerance(*tol))
	if err := r.Load(opt); err != nil {
		log.Fatal(err)
	}
	if err := r.Run(*maxgen); err != nil {
		log.Fatal(err)
	}

	// Poll like a renderer until the run ends and the queue drains.
	tick := time.NewTicker(time.Millisecond)
	defer tick.Stop()
	nframes := 0
	var prev runner.Frame
	for range tick.C {
		f, ok := r.Frame()
		if ok && !same(f, prev) {
			nframes++
			prev = f
		}
		if !r.Running() && r.Pending() == 0 {
			break
		}
	}
	if err := r.Err(); err != nil {
		log.Fatal(err)
	}

	best, pos := opt.Swarm.Best()
	fmt.Printf("%v: %v after %v generations (%v frames, state %v)\n",
		fn.Name(), best, opt.Gen+1, nframes, opt.State())
	fmt.Printf("    at %.4v\n", pos)
	fmt.Printf("    optimum: %v\n", fn.Optima()[0].Val)
	r.Stop()
}

func same(a, b runner.Frame) bool {
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

func lookupFunc(name string) bench.Func {
	for _, fn := range bench.AllFuncs {
		if fn.Name() == name {
			return fn
		}
	}
	names := make([]string, 0, len(bench.AllFuncs))
	for _, fn := range bench.AllFuncs {
		names = append(names, fn.Name())
	}
	log.Fatalf("unknown function %q (have %v)", name, names)
	return nil
}

func lookupTopo(name string) pso.Topology {
	for _, t := range []pso.Topology{pso.Global, pso.Ring, pso.Star, pso.RandomSubset} {
		if t.String() == name {
			return t
		}
	}
	log.Fatalf("unknown topology %q", name)
	return 0
}
