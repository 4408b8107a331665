package simulation

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"radgrid/core"
)

func TestSweepKeepsCaseOrder(t *testing.T) {
	var cases []SweepCase
	for k := 1; k <= 9; k++ {
		cases = append(cases, SweepCase{
			Name:   fmt.Sprintf("case-%d", k),
			Params: Params{Dt: 0.1, Steps: k * 3, BoundaryValue: float64(100 * k), Layers: 4 + k, Bands: 5},
		})
	}

	out := Sweep(context.Background(), cases, 4)
	if len(out) != len(cases) {
		t.Fatalf("got %d outcomes, want %d", len(out), len(cases))
	}
	for k, o := range out {
		if o.Case.Name != cases[k].Name {
			t.Fatalf("outcome %d is %q, want %q", k, o.Case.Name, cases[k].Name)
		}
		if o.Err != nil {
			t.Fatalf("%s: %v", o.Case.Name, o.Err)
		}
		if o.Result.Layers != cases[k].Layers || o.Result.Steps != cases[k].Steps {
			t.Fatalf("%s: result %dx? after %d steps", o.Case.Name, o.Result.Layers, o.Result.Steps)
		}

		single, err := RunParams(context.Background(), cases[k].Params)
		if err != nil {
			t.Fatal(err)
		}
		if single.Fingerprint() != o.Result.Fingerprint() {
			t.Fatalf("%s: sweep result differs from a standalone run", o.Case.Name)
		}
	}
}

func TestSweepIsolatesFailures(t *testing.T) {
	cases := []SweepCase{
		{Name: "ok", Params: Params{Dt: 0.1, Steps: 5, BoundaryValue: 1, Layers: 3, Bands: 3}},
		{Name: "bad-dims", Params: Params{Dt: 0.1, Steps: 5, BoundaryValue: 1, Layers: 0, Bands: 3}},
		{Name: "bad-dt", Params: Params{Dt: -1, Steps: 5, BoundaryValue: 1, Layers: 3, Bands: 3}},
		{Name: "ok-too", Params: Params{Dt: 0.2, Steps: 2, BoundaryValue: 4, Layers: 2, Bands: 6}},
	}

	out := Sweep(context.Background(), cases, 0)
	if out[0].Err != nil || out[3].Err != nil {
		t.Fatalf("valid cases failed: %v / %v", out[0].Err, out[3].Err)
	}
	if !errors.Is(out[1].Err, core.ErrInvalidDimension) {
		t.Errorf("bad-dims: got %v", out[1].Err)
	}
	if !errors.Is(out[2].Err, core.ErrInvalidTimeStep) {
		t.Errorf("bad-dt: got %v", out[2].Err)
	}
	if out[1].Result != nil || out[2].Result != nil {
		t.Error("failed cases should carry no result")
	}
}

func TestSweepEmpty(t *testing.T) {
	if out := Sweep(context.Background(), nil, 3); len(out) != 0 {
		t.Fatalf("expected no outcomes, got %d", len(out))
	}
}

func TestResultExports(t *testing.T) {
	res, err := RunModel(0.1, 10, 50, 3, 4)
	if err != nil {
		t.Fatal(err)
	}

	grid := res.Grid()
	if len(grid) != 3 || len(grid[0]) != 4 {
		t.Fatalf("grid is %dx%d", len(grid), len(grid[0]))
	}
	cells := res.Cells()
	if len(cells) != 12 {
		t.Fatalf("got %d cells", len(cells))
	}
	for _, c := range cells {
		if grid[c.Layer][c.Band] != c.Value {
			t.Fatalf("cell %v disagrees with grid", c.CellCoord)
		}
		if c.Boundary != res.IsBoundary(c.Layer, c.Band) {
			t.Fatalf("cell %v boundary flag mismatch", c.CellCoord)
		}
	}
	// 3x4 has only two interior cells
	interior := 0
	for _, c := range cells {
		if !c.Boundary {
			interior++
		}
	}
	if interior != 2 {
		t.Fatalf("interior cells = %d, want 2", interior)
	}

	if len(res.Fingerprint()) != 64 {
		t.Fatalf("fingerprint %q is not a 256-bit hex digest", res.Fingerprint())
	}
}
