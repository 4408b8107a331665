package core

import (
	"errors"
	"fmt"
)

// Sentinel errors for the simulation core.
var (
	// ErrInvalidDimension indicates a non-positive layer or band count.
	ErrInvalidDimension = errors.New("radgrid: invalid dimension")

	// ErrInvalidStepCount indicates a negative step count.
	ErrInvalidStepCount = errors.New("radgrid: invalid step count")

	// ErrInvalidTimeStep indicates a time increment that is not a positive finite number.
	ErrInvalidTimeStep = errors.New("radgrid: invalid time step")

	// ErrOutOfRange indicates an index outside the grid. Seeing it outside this
	// package means an indexing defect.
	ErrOutOfRange = errors.New("radgrid: index out of range")

	// ErrNumericalDivergence indicates a cell value became NaN or Inf.
	ErrNumericalDivergence = errors.New("radgrid: numerical divergence (NaN or Inf detected)")
)

// StepError wraps an error with the step and cell where it happened.
type StepError struct {
	Step  int
	Cell  CellCoord
	Value float64
	Err   error
}

func (e *StepError) Error() string {
	if e == nil {
		return "<nil>"
	}
	return fmt.Sprintf("step %d cell (%d,%d) value %g: %v", e.Step, e.Cell.Layer, e.Cell.Band, e.Value, e.Err)
}

func (e *StepError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// rangeError reports an out-of-range access with the offending coordinates.
func rangeError(d *Domain, i, j int) error {
	return fmt.Errorf("cell (%d,%d) outside %dx%d grid: %w", i, j, d.layers, d.bands, ErrOutOfRange)
}
