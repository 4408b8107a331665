package main

import (
	"flag"
	"fmt"
	"math"
	"os"
	"time"

	"radgrid/core"
	"radgrid/physics"
	"radgrid/simulation"
)

func main() {
	var (
		dt       = flag.Float64("dt", 0.1, "Time increment per step")
		steps    = flag.Int("steps", 50, "Number of steps")
		boundary = flag.Float64("boundary", 300, "Boundary value")
		layers   = flag.Int("layers", 11, "Grid size along dimA")
		bands    = flag.Int("bands", 12, "Grid size along dimB")
	)
	flag.Parse()

	fmt.Println("=== Grid Check ===")
	fmt.Println()

	// Test 1: Neighbor layout
	fmt.Println("Test 1: Neighbor layout")
	d, err := core.NewDomain(*layers, *bands, 0)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	cells := []struct {
		name string
		i, j int
	}{
		{"Corner", 0, 0},
		{"Layer edge", 0, *bands / 2},
		{"Band edge", *layers / 2, 0},
		{"Centre", *layers / 2, *bands / 2},
	}
	for _, p := range cells {
		n, err := d.Neighbors(p.i, p.j)
		if err != nil {
			fmt.Printf("%s (%d,%d): %v\n", p.name, p.i, p.j, err)
			continue
		}
		fmt.Printf("%s (%d,%d): boundary=%v neighbors=%v\n", p.name, p.i, p.j, d.IsBoundary(p.i, p.j), n)
	}
	fmt.Printf("Boundary cells: %d, interior cells: %d\n", len(d.BoundaryCells()), d.InteriorCount())

	// Test 2: Stability
	fmt.Println("\nTest 2: Stability")
	coef := physics.DefaultCoefficients()
	fmt.Printf("Stability number at dt=%g: %.4g (sub-steps needed: %d)\n",
		*dt, coef.StabilityNumber(*dt), coef.StableSubsteps(*dt))

	// Test 3: Reference run
	fmt.Println("\nTest 3: Reference run")
	start := time.Now()
	res, err := simulation.RunModel(*dt, *steps, *boundary, *layers, *bands)
	if err != nil {
		fmt.Fprintf(os.Stderr, "run failed: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("Run time: %.3fs\n", time.Since(start).Seconds())
	fmt.Printf("Elapsed: %g after %d steps\n", res.Elapsed, res.Steps)
	fmt.Printf("Range: [%.4f, %.4f], mean %.4f\n", res.Final.Min, res.Final.Max, res.Final.Mean)
	fmt.Printf("Fingerprint: %s\n", res.Fingerprint())

	// Test 4: Conservation
	fmt.Println("\nTest 4: Conservation")
	diff := res.Final.InteriorSum - res.Final.Injected
	fmt.Printf("Interior sum %.6f, injected %.6f, drift %.3g\n", res.Final.InteriorSum, res.Final.Injected, diff)

	// Test 5: Determinism across worker counts
	fmt.Println("\nTest 5: Worker invariance")
	for _, w := range []int{1, 2, 4, 0} {
		r, err := simulation.RunModel(*dt, *steps, *boundary, *layers, *bands, simulation.WithWorkers(w))
		if err != nil {
			fmt.Printf("workers=%d: %v\n", w, err)
			continue
		}
		fmt.Printf("workers=%d: identical=%v\n", w, r.Fingerprint() == res.Fingerprint())
	}

	if math.Abs(diff) > 1e-6*math.Max(1, res.Final.InteriorSum) {
		os.Exit(2)
	}
}
