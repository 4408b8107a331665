package simulation

import (
	"context"
	"fmt"
	"math"

	"radgrid/core"
	"radgrid/logging"
	"radgrid/physics"
)

// Params are the five scalars of the model entry point
type Params struct {
	Dt            float64 `json:"dt" yaml:"dt"`
	Steps         int     `json:"nsteps" yaml:"nsteps"`
	BoundaryValue float64 `json:"boundaryValue" yaml:"boundaryValue"`
	Layers        int     `json:"dimA" yaml:"dimA"`
	Bands         int     `json:"dimB" yaml:"dimB"`
}

// ParamsFromCall converts the native call signature (double, int32, double, int32, int32)
func ParamsFromCall(dt float64, nsteps int32, boundaryValue float64, dimA, dimB int32) Params {
	return Params{
		Dt:            dt,
		Steps:         int(nsteps),
		BoundaryValue: boundaryValue,
		Layers:        int(dimA),
		Bands:         int(dimB),
	}
}

// Validate checks every parameter before anything is constructed
func (p Params) Validate() error {
	if err := core.CheckDims(p.Layers, p.Bands); err != nil {
		return err
	}
	if p.Steps < 0 {
		return fmt.Errorf("nsteps=%d: %w", p.Steps, core.ErrInvalidStepCount)
	}
	if err := validateTimeStep(p.Dt); err != nil {
		return err
	}
	if math.IsNaN(p.BoundaryValue) || math.IsInf(p.BoundaryValue, 0) {
		return fmt.Errorf("boundary value %g is not finite: %w", p.BoundaryValue, core.ErrNumericalDivergence)
	}
	return nil
}

// RunModel is the single entry point: it validates the inputs, builds a fresh
// layers x bands domain, integrates nsteps increments of dt under the boundary
// value and returns the terminal state. Calls share no state and may run concurrently.
func RunModel(dt float64, nsteps int, boundaryValue float64, dimA, dimB int, opts ...Option) (*Result, error) {
	return RunModelContext(context.Background(), dt, nsteps, boundaryValue, dimA, dimB, opts...)
}

// RunModelContext is RunModel with cancellation between steps
func RunModelContext(ctx context.Context, dt float64, nsteps int, boundaryValue float64, dimA, dimB int, opts ...Option) (*Result, error) {
	return RunParams(ctx, Params{
		Dt:            dt,
		Steps:         nsteps,
		BoundaryValue: boundaryValue,
		Layers:        dimA,
		Bands:         dimB,
	}, opts...)
}

// RunParams runs the model described by p
func RunParams(ctx context.Context, p Params, opts ...Option) (*Result, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	o := buildOptions(opts)
	if err := o.Coefficients.Validate(); err != nil {
		return nil, err
	}
	if math.IsNaN(o.Initial) || math.IsInf(o.Initial, 0) {
		return nil, fmt.Errorf("initial value %g is not finite: %w", o.Initial, core.ErrNumericalDivergence)
	}
	if o.Stability == StabilitySubstep && p.Steps > 0 {
		if _, err := substepCount(o.Coefficients, p.Dt, o.MaxSubsteps); err != nil {
			return nil, err
		}
	}
	if o.Logger == nil {
		o.Logger = logging.L()
	}

	d, err := core.NewDomain(p.Layers, p.Bands, o.Initial)
	if err != nil {
		return nil, err
	}
	if o.Boundary == physics.BoundarySeeded {
		d.FillBoundary(p.BoundaryValue)
	}

	clock, err := NewClock(p.Dt, p.Steps)
	if err != nil {
		return nil, err
	}

	op := physics.NewOperator(o.Coefficients, o.Boundary, o.Workers)
	it := NewIntegrator(d, op, clock, p.BoundaryValue, o)

	log := o.Logger.With("dimA", p.Layers, "dimB", p.Bands, "dt", p.Dt, "nsteps", p.Steps)
	log.Debug("run.started", "boundary", p.BoundaryValue, "mode", o.Boundary.String(), "stability", o.Stability.String(), "workers", op.Workers())

	if err := it.Run(ctx); err != nil {
		return nil, err
	}

	res := newResult(it, p)
	log.Debug("run.completed", "elapsed", res.Elapsed, "warnings", len(res.Warnings), "mean", res.Final.Mean)
	return res, nil
}
