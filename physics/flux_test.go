package physics

import (
	"errors"
	"math"
	"testing"

	"radgrid/core"
)

func mustDomain(t *testing.T, layers, bands int, initial float64) *core.Domain {
	t.Helper()
	d, err := core.NewDomain(layers, bands, initial)
	if err != nil {
		t.Fatalf("new domain: %v", err)
	}
	return d
}

func TestComputeDeltaDoesNotMutateDomain(t *testing.T) {
	d := mustDomain(t, 4, 5, 0)
	_ = d.Set(1, 2, 7)
	before := append([]float64(nil), d.Values()...)

	op := NewOperator(DefaultCoefficients(), BoundaryDirichlet, 2)
	if _, err := op.ComputeDelta(d, 300, 0.1); err != nil {
		t.Fatalf("compute delta: %v", err)
	}

	for idx, v := range d.Values() {
		if v != before[idx] {
			t.Fatalf("cell %d changed from %g to %g", idx, before[idx], v)
		}
	}
}

func TestComputeDeltaPointSource(t *testing.T) {
	d := mustDomain(t, 5, 5, 0)
	_ = d.Set(2, 2, 1)

	dt := 0.1
	op := NewOperator(DefaultCoefficients(), BoundaryDirichlet, 1)
	field, err := op.ComputeDelta(d, 0, dt)
	if err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name string
		i, j int
		want float64
	}{
		{"source", 2, 2, -dt * (2*0.25 + 2*0.25)},
		{"layer neighbor above", 1, 2, dt * 0.25},
		{"layer neighbor below", 3, 2, dt * 0.25},
		{"band neighbor left", 2, 1, dt * 0.25},
		{"band neighbor right", 2, 3, dt * 0.25},
		{"diagonal", 1, 1, 0},
		{"boundary", 0, 2, 0},
	}
	for _, tt := range tests {
		if got := field.At(tt.i, tt.j); math.Abs(got-tt.want) > 1e-15 {
			t.Errorf("%s: delta(%d,%d) = %g, want %g", tt.name, tt.i, tt.j, got, tt.want)
		}
	}

	var total float64
	for _, v := range field.Values() {
		total += v
	}
	if math.Abs(total) > 1e-15 {
		t.Errorf("interior exchange should conserve, total delta = %g", total)
	}
	if field.MaxAbs != dt {
		t.Errorf("MaxAbs = %g, want %g", field.MaxAbs, dt)
	}
}

func TestComputeDeltaAnisotropic(t *testing.T) {
	d := mustDomain(t, 3, 3, 0)
	_ = d.Set(1, 1, 2)

	op := NewOperator(Coefficients{Layer: 1, Band: 0}, BoundarySeeded, 1)
	field, err := op.ComputeDelta(d, 0, 0.5)
	if err != nil {
		t.Fatal(err)
	}

	if got := field.At(0, 1); got != 1 {
		t.Errorf("layer neighbor delta = %g, want 1", got)
	}
	if got := field.At(1, 0); got != 0 {
		t.Errorf("band neighbor delta = %g, want 0 with zero band coefficient", got)
	}
	if got := field.At(1, 1); got != -2 {
		t.Errorf("source delta = %g, want -2", got)
	}
}

func TestComputeDeltaDirichletBoundary(t *testing.T) {
	d := mustDomain(t, 3, 4, 10)
	op := NewOperator(DefaultCoefficients(), BoundaryDirichlet, 1)
	field, err := op.ComputeDelta(d, 300, 0.1)
	if err != nil {
		t.Fatal(err)
	}

	for i := 0; i < 3; i++ {
		for j := 0; j < 4; j++ {
			want := 0.0
			if d.IsBoundary(i, j) {
				want = 290
			}
			if got := field.At(i, j); got != want {
				t.Errorf("delta(%d,%d) = %g, want %g", i, j, got, want)
			}
		}
	}

	op.Apply(d, field, 300)
	for _, c := range d.BoundaryCells() {
		if v, _ := d.Get(c.Layer, c.Band); v != 300 {
			t.Errorf("boundary %v = %g after apply", c, v)
		}
	}
}

func TestComputeDeltaSeededBoundary(t *testing.T) {
	d := mustDomain(t, 3, 3, 0)
	_ = d.Set(0, 0, 4)

	op := NewOperator(DefaultCoefficients(), BoundarySeeded, 1)
	field, err := op.ComputeDelta(d, 300, 1)
	if err != nil {
		t.Fatal(err)
	}

	// the corner only exchanges with its two in-grid neighbors
	if got := field.At(0, 0); got != -2 {
		t.Errorf("corner delta = %g, want -2", got)
	}
	if got := field.At(0, 1); got != 1 {
		t.Errorf("edge delta = %g, want 1", got)
	}
}

func TestComputeDeltaInjection(t *testing.T) {
	d := mustDomain(t, 3, 3, 0)
	d.FillBoundary(10)

	dt := 0.2
	op := NewOperator(DefaultCoefficients(), BoundaryDirichlet, 1)
	field, err := op.ComputeDelta(d, 10, dt)
	if err != nil {
		t.Fatal(err)
	}

	want := dt * 4 * 0.25 * 10
	if math.Abs(field.Injection-want) > 1e-12 {
		t.Fatalf("injection = %g, want %g", field.Injection, want)
	}
	if math.Abs(field.At(1, 1)-want) > 1e-12 {
		t.Fatalf("interior delta = %g, want %g", field.At(1, 1), want)
	}
}

func TestComputeDeltaNonFinite(t *testing.T) {
	d := mustDomain(t, 3, 3, -math.MaxFloat64)
	_ = d.Set(1, 1, math.MaxFloat64)

	op := NewOperator(DefaultCoefficients(), BoundaryDirichlet, 1)
	_, err := op.ComputeDelta(d, 0, 1)
	if !errors.Is(err, core.ErrNumericalDivergence) {
		t.Fatalf("expected ErrNumericalDivergence, got %v", err)
	}
	var se *core.StepError
	if !errors.As(err, &se) {
		t.Fatalf("expected StepError, got %T", err)
	}
	if se.Cell != (core.CellCoord{Layer: 1, Band: 1}) {
		t.Fatalf("reported cell %v, want (1,1)", se.Cell)
	}
}

func TestComputeDeltaWorkerInvariance(t *testing.T) {
	d := mustDomain(t, 17, 23, 0)
	for idx := range d.Values() {
		c := d.Coord(idx)
		_ = d.Set(c.Layer, c.Band, math.Sin(float64(idx)*0.37)*100)
	}

	serial := NewOperator(Coefficients{Layer: 0.3, Band: 0.1}, BoundaryDirichlet, 1)
	parallel := NewOperator(Coefficients{Layer: 0.3, Band: 0.1}, BoundaryDirichlet, 8)

	a, err := serial.ComputeDelta(d, 50, 0.7)
	if err != nil {
		t.Fatal(err)
	}
	b, err := parallel.ComputeDelta(d, 50, 0.7)
	if err != nil {
		t.Fatal(err)
	}

	for idx := range a.Values() {
		if math.Float64bits(a.Values()[idx]) != math.Float64bits(b.Values()[idx]) {
			t.Fatalf("cell %d differs between worker counts: %g vs %g", idx, a.Values()[idx], b.Values()[idx])
		}
	}
	if math.Float64bits(a.Injection) != math.Float64bits(b.Injection) {
		t.Fatalf("injection differs: %g vs %g", a.Injection, b.Injection)
	}
}

func TestComputeDeltaIntoReusesBuffer(t *testing.T) {
	d := mustDomain(t, 4, 4, 1)
	op := NewOperator(DefaultCoefficients(), BoundaryDirichlet, 1)

	field := &DeltaField{}
	if err := op.ComputeDeltaInto(d, 2, 0.1, field); err != nil {
		t.Fatal(err)
	}
	if l, b := field.Dims(); l != 4 || b != 4 {
		t.Fatalf("field dims %dx%d", l, b)
	}
	first := &field.Values()[0]
	if err := op.ComputeDeltaInto(d, 2, 0.1, field); err != nil {
		t.Fatal(err)
	}
	if &field.Values()[0] != first {
		t.Fatal("matching field was reallocated")
	}
}
