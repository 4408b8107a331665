package simulation

import (
	"fmt"
	"math"

	"radgrid/core"
)

// Clock tracks the step index of a run with a fixed time increment
type Clock struct {
	dt    float64
	step  int
	total int
}

// NewClock creates a clock for nsteps increments of dt
func NewClock(dt float64, nsteps int) (*Clock, error) {
	if err := validateTimeStep(dt); err != nil {
		return nil, err
	}
	if nsteps < 0 {
		return nil, fmt.Errorf("nsteps=%d: %w", nsteps, core.ErrInvalidStepCount)
	}
	return &Clock{dt: dt, total: nsteps}, nil
}

// Dt returns the fixed time increment
func (c *Clock) Dt() float64 { return c.dt }

// Step returns the number of completed steps
func (c *Clock) Step() int { return c.step }

// Total returns the number of steps the run will take
func (c *Clock) Total() int { return c.total }

// Elapsed returns step*dt
func (c *Clock) Elapsed() float64 { return float64(c.step) * c.dt }

// Done reports whether every step has been taken
func (c *Clock) Done() bool { return c.step >= c.total }

// Tick advances the clock by exactly one step
func (c *Clock) Tick() { c.step++ }

func validateTimeStep(dt float64) error {
	if dt <= 0 || math.IsNaN(dt) || math.IsInf(dt, 0) {
		return fmt.Errorf("dt=%g: %w", dt, core.ErrInvalidTimeStep)
	}
	return nil
}
