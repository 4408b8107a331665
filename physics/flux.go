package physics

import (
	"math"

	"radgrid/core"
)

// DeltaField holds the proposed per-cell change for one time increment.
// It is computed from a single pre-step state and applied all at once.
type DeltaField struct {
	layers int
	bands  int
	values []float64

	// Injection is the net amount moved into interior cells across boundary faces
	Injection float64
	// MaxAbs is the largest absolute per-cell change in the field
	MaxAbs float64
}

// NewDeltaField allocates a zero field matching the dimensions of d
func NewDeltaField(d *core.Domain) *DeltaField {
	layers, bands := d.Dims()
	return &DeltaField{
		layers: layers,
		bands:  bands,
		values: make([]float64, layers*bands),
	}
}

// Dims returns the layer and band counts of the field
func (f *DeltaField) Dims() (layers, bands int) {
	return f.layers, f.bands
}

// At returns the delta for (i, j); callers index within the field's dimensions
func (f *DeltaField) At(i, j int) float64 {
	return f.values[i*f.bands+j]
}

// Values exposes the row-major deltas. Callers must treat it as read-only.
func (f *DeltaField) Values() []float64 {
	return f.values
}

func (f *DeltaField) matches(d *core.Domain) bool {
	layers, bands := d.Dims()
	return f.layers == layers && f.bands == bands
}

// Operator computes the discrete transport law on a Domain.
// Each cell exchanges with its axis neighbors in proportion to the value
// difference, scaled by the axis coefficient and dt.
type Operator struct {
	Coefficients Coefficients
	Mode         BoundaryMode

	pool *Pool
}

// NewOperator creates an operator; workers <= 0 uses one worker per CPU
func NewOperator(coef Coefficients, mode BoundaryMode, workers int) *Operator {
	return &Operator{
		Coefficients: coef,
		Mode:         mode,
		pool:         NewPool(workers),
	}
}

// Workers returns the number of goroutines used per step
func (op *Operator) Workers() int {
	return op.pool.Workers()
}

// rowResult collects what a worker found on one row
type rowResult struct {
	injection float64
	maxAbs    float64
	badIdx    int
	badValue  float64
}

// ComputeDelta evaluates the transport law against the current state of d.
// It never mutates d.
func (op *Operator) ComputeDelta(d *core.Domain, boundary, dt float64) (*DeltaField, error) {
	field := NewDeltaField(d)
	if err := op.ComputeDeltaInto(d, boundary, dt, field); err != nil {
		return nil, err
	}
	return field, nil
}

// ComputeDeltaInto is ComputeDelta writing into a caller-owned field, so a
// run can reuse one buffer across steps.
func (op *Operator) ComputeDeltaInto(d *core.Domain, boundary, dt float64, field *DeltaField) error {
	if !field.matches(d) {
		*field = *NewDeltaField(d)
	}

	layers, bands := d.Dims()
	u := d.Values()
	kl, kb := op.Coefficients.Layer, op.Coefficients.Band
	rows := make([]rowResult, layers)

	op.pool.ForEachRow(layers, func(i int) {
		res := rowResult{badIdx: -1}
		for j := 0; j < bands; j++ {
			idx := i*bands + j
			ui := u[idx]
			boundaryCell := d.Flag(idx) == core.FlagBoundary

			var delta float64
			if boundaryCell && op.Mode == BoundaryDirichlet {
				delta = boundary - ui
			} else {
				var sum, inflow float64
				// previous layer, next layer, previous band, next band
				if i > 0 {
					q := kl * (u[idx-bands] - ui)
					sum += q
					if d.Flag(idx-bands) == core.FlagBoundary {
						inflow += q
					}
				}
				if i < layers-1 {
					q := kl * (u[idx+bands] - ui)
					sum += q
					if d.Flag(idx+bands) == core.FlagBoundary {
						inflow += q
					}
				}
				if j > 0 {
					q := kb * (u[idx-1] - ui)
					sum += q
					if d.Flag(idx-1) == core.FlagBoundary {
						inflow += q
					}
				}
				if j < bands-1 {
					q := kb * (u[idx+1] - ui)
					sum += q
					if d.Flag(idx+1) == core.FlagBoundary {
						inflow += q
					}
				}
				delta = dt * sum
				if !boundaryCell {
					res.injection += dt * inflow
				}
			}

			field.values[idx] = delta
			if a := math.Abs(delta); a > res.maxAbs {
				res.maxAbs = a
			}

			next := ui + delta
			if res.badIdx < 0 && (isNonFinite(delta) || isNonFinite(next)) {
				res.badIdx = idx
				res.badValue = next
			}
		}
		rows[i] = res
	})

	// Reduce in row order so the result does not depend on scheduling
	field.Injection, field.MaxAbs = 0, 0
	for _, res := range rows {
		if res.badIdx >= 0 {
			return &core.StepError{
				Cell:  d.Coord(res.badIdx),
				Value: res.badValue,
				Err:   core.ErrNumericalDivergence,
			}
		}
		field.Injection += res.injection
		if res.maxAbs > field.MaxAbs {
			field.MaxAbs = res.maxAbs
		}
	}

	return nil
}

// Apply adds field to every cell of d at once. Under the Dirichlet law the
// edge cells are assigned the boundary value exactly.
func (op *Operator) Apply(d *core.Domain, field *DeltaField, boundary float64) {
	u := d.Values()
	for idx, delta := range field.values {
		if op.Mode == BoundaryDirichlet && d.Flag(idx) == core.FlagBoundary {
			u[idx] = boundary
			continue
		}
		u[idx] += delta
	}
}

func isNonFinite(v float64) bool {
	return math.IsNaN(v) || math.IsInf(v, 0)
}
