package simulation

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"gonum.org/v1/gonum/floats"

	"radgrid/core"
	"radgrid/logging"
	"radgrid/physics"
)

// ErrAlreadyRun indicates Run was called on an integrator that already ran
var ErrAlreadyRun = errors.New("radgrid: integrator already run")

// State is the lifecycle position of an Integrator
type State uint8

const (
	StateInitialized State = iota
	StateStepping
	StateCompleted
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateInitialized:
		return "initialized"
	case StateStepping:
		return "stepping"
	case StateCompleted:
		return "completed"
	case StateFailed:
		return "failed"
	default:
		return fmt.Sprintf("State(%d)", uint8(s))
	}
}

// Integrator advances one Domain through a fixed number of explicit steps.
// An Integrator runs exactly once.
type Integrator struct {
	domain   *core.Domain
	op       *physics.Operator
	clock    *Clock
	boundary float64

	policy   StabilityPolicy
	observer Observer
	logger   *slog.Logger
	trace    bool
	maxSub   int

	state    State
	field    *physics.DeltaField
	bounds   envelope
	substeps int

	injected      float64
	lastMaxDelta  float64
	unstableSteps int
	warnings      []Warning
	history       []Stats
}

// NewIntegrator wires a domain, operator and clock into an integrator
func NewIntegrator(d *core.Domain, op *physics.Operator, clock *Clock, boundary float64, opts Options) *Integrator {
	logger := opts.Logger
	if logger == nil {
		logger = logging.L()
	}

	values := d.Values()
	lo, hi := floats.Min(values), floats.Max(values)
	if boundary < lo {
		lo = boundary
	}
	if boundary > hi {
		hi = boundary
	}

	return &Integrator{
		domain:   d,
		op:       op,
		clock:    clock,
		boundary: boundary,
		policy:   opts.Stability,
		observer: opts.Observer,
		logger:   logger,
		trace:    opts.Trace,
		maxSub:   opts.MaxSubsteps,
		field:    physics.NewDeltaField(d),
		bounds:   newEnvelope(lo, hi),
		substeps: 1,
	}
}

// State returns the current lifecycle state
func (it *Integrator) State() State { return it.state }

// Clock returns the run clock
func (it *Integrator) Clock() *Clock { return it.clock }

// Domain returns the domain being advanced
func (it *Integrator) Domain() *core.Domain { return it.domain }

// Warnings returns the advisories raised so far
func (it *Integrator) Warnings() []Warning { return it.warnings }

// Run takes every step of the clock. Cancellation is honoured between steps,
// and between the sub-steps of a split step.
func (it *Integrator) Run(ctx context.Context) error {
	if it.state != StateInitialized {
		return ErrAlreadyRun
	}
	it.state = StateStepping
	if err := it.preflight(); err != nil {
		it.state = StateFailed
		return err
	}

	for !it.clock.Done() {
		if err := ctx.Err(); err != nil {
			it.state = StateFailed
			return fmt.Errorf("run interrupted before step %d: %w", it.clock.Step()+1, err)
		}
		if err := it.step(ctx); err != nil {
			it.state = StateFailed
			return err
		}
	}

	it.state = StateCompleted
	return nil
}

// preflight checks the stability number once before stepping
func (it *Integrator) preflight() error {
	if it.policy == StabilityOff || it.clock.Total() == 0 {
		return nil
	}

	dt := it.clock.Dt()
	number := it.op.Coefficients.StabilityNumber(dt)
	if number <= 1 {
		return nil
	}

	msg := fmt.Sprintf("stability number %.4g exceeds 1 for dt=%g", number, dt)
	if it.policy == StabilitySubstep {
		n, err := substepCount(it.op.Coefficients, dt, it.maxSub)
		if err != nil {
			it.logger.Error("run.rejected", "err", err)
			return err
		}
		it.substeps = n
		msg += fmt.Sprintf("; splitting each step into %d sub-steps", it.substeps)
	}
	it.warn(Warning{
		Kind:            UnstableStepWarning,
		Step:            0,
		Message:         msg,
		StabilityNumber: number,
	})
	return nil
}

// step computes every delta from the pre-step state, applies them at once and ticks the clock
func (it *Integrator) step(ctx context.Context) error {
	k := it.clock.Step() + 1
	h := it.clock.Dt() / float64(it.substeps)
	it.lastMaxDelta = 0

	for s := 0; s < it.substeps; s++ {
		if s > 0 {
			if err := ctx.Err(); err != nil {
				return fmt.Errorf("run interrupted during step %d: %w", k, err)
			}
		}
		if it.op.Mode == physics.BoundaryDirichlet {
			it.domain.FillBoundary(it.boundary)
		}

		if err := it.op.ComputeDeltaInto(it.domain, it.boundary, h, it.field); err != nil {
			var se *core.StepError
			if errors.As(err, &se) {
				se.Step = k
			}
			it.logger.Error("run.diverged", "step", k, "err", err)
			return err
		}

		it.op.Apply(it.domain, it.field, it.boundary)
		it.injected += it.field.Injection
		if it.field.MaxAbs > it.lastMaxDelta {
			it.lastMaxDelta = it.field.MaxAbs
		}
	}

	if c, v, bad := it.domain.FirstNonFinite(); bad {
		return &core.StepError{Step: k, Cell: c, Value: v, Err: core.ErrNumericalDivergence}
	}

	if it.policy != StabilityOff {
		if idx, outside := it.bounds.firstOutside(it.domain.Values()); outside {
			it.unstableSteps++
			if it.unstableSteps == 1 {
				v := it.domain.Values()[idx]
				it.warn(Warning{
					Kind:    UnstableStepWarning,
					Step:    k,
					Message: fmt.Sprintf("value %g left the stable range [%g, %g]", v, it.bounds.lo, it.bounds.hi),
					Cell:    it.domain.Coord(idx),
					Value:   v,
				})
			}
		}
	}

	it.clock.Tick()

	if it.observer != nil || it.trace {
		stats := it.stats()
		if it.trace {
			it.history = append(it.history, stats)
		}
		if it.observer != nil {
			it.observer(Frame{Step: k, Elapsed: it.clock.Elapsed(), Stats: stats, Domain: it.domain})
		}
	}

	return nil
}

func (it *Integrator) stats() Stats {
	s := Measure(it.domain)
	s.Step = it.clock.Step()
	s.Elapsed = it.clock.Elapsed()
	s.Injected = it.injected
	s.MaxDelta = it.lastMaxDelta
	return s
}

func (it *Integrator) warn(w Warning) {
	it.warnings = append(it.warnings, w)
	it.logger.Warn("run.unstable", "step", w.Step, "message", w.Message)
}
