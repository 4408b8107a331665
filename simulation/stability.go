package simulation

import (
	"errors"
	"fmt"
	"math"
	"strings"

	"radgrid/core"
	"radgrid/physics"
)

// ErrSubstepLimit indicates the substep policy would need more sub-steps per
// step than the run allows
var ErrSubstepLimit = errors.New("radgrid: sub-step limit exceeded")

// DefaultMaxSubsteps caps the sub-steps per step when no limit is configured
const DefaultMaxSubsteps = 1 << 16

// substepCount returns the sub-steps needed to keep dt stable, or ErrSubstepLimit
// when that exceeds limit. A limit <= 0 means DefaultMaxSubsteps.
func substepCount(c physics.Coefficients, dt float64, limit int) (int, error) {
	if limit <= 0 {
		limit = DefaultMaxSubsteps
	}
	if limit > math.MaxInt32 {
		limit = math.MaxInt32
	}
	number := c.StabilityNumber(dt)
	if number > float64(limit) {
		return 0, fmt.Errorf("dt=%g needs %.4g sub-steps per step, limit %d: %w", dt, number, limit, ErrSubstepLimit)
	}
	return c.StableSubsteps(dt), nil
}

// StabilityPolicy decides what the integrator does about explicit-scheme instability.
// Non-finite values are fatal under every policy.
type StabilityPolicy uint8

const (
	// StabilityOff performs no instability checks
	StabilityOff StabilityPolicy = iota
	// StabilityWarn reports UnstableStepWarning and keeps stepping
	StabilityWarn
	// StabilitySubstep reports the warning and splits each step into stable sub-steps
	StabilitySubstep
)

func (p StabilityPolicy) String() string {
	switch p {
	case StabilityOff:
		return "off"
	case StabilityWarn:
		return "warn"
	case StabilitySubstep:
		return "substep"
	default:
		return fmt.Sprintf("StabilityPolicy(%d)", uint8(p))
	}
}

// ParseStabilityPolicy maps a flag/config value onto a StabilityPolicy
func ParseStabilityPolicy(s string) (StabilityPolicy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "warn":
		return StabilityWarn, nil
	case "off", "none":
		return StabilityOff, nil
	case "substep", "subcycle":
		return StabilitySubstep, nil
	default:
		return 0, fmt.Errorf("unknown stability policy %q (want warn, off or substep)", s)
	}
}

// WarningKind classifies non-fatal advisories raised during a run
type WarningKind string

const (
	// UnstableStepWarning flags stepping parameters that break the explicit stability bound
	UnstableStepWarning WarningKind = "unstable_step"
)

// Warning is a non-fatal advisory attached to a Result
type Warning struct {
	Kind            WarningKind    `json:"kind"`
	Step            int            `json:"step"`
	Message         string         `json:"message"`
	StabilityNumber float64        `json:"stabilityNumber,omitempty"`
	Cell            core.CellCoord `json:"cell"`
	Value           float64        `json:"value,omitempty"`
}

func (w Warning) String() string {
	return fmt.Sprintf("%s at step %d: %s", w.Kind, w.Step, w.Message)
}

// envelope is the range a stable explicit diffusion step cannot leave
type envelope struct {
	lo, hi, tol float64
}

func newEnvelope(lo, hi float64) envelope {
	scale := 1.0
	for _, v := range []float64{lo, hi} {
		if v < 0 {
			v = -v
		}
		if v > scale {
			scale = v
		}
	}
	return envelope{lo: lo, hi: hi, tol: 1e-9 * scale}
}

// firstOutside returns the first offset holding a value outside the envelope
func (e envelope) firstOutside(values []float64) (int, bool) {
	for idx, v := range values {
		if v < e.lo-e.tol || v > e.hi+e.tol {
			return idx, true
		}
	}
	return 0, false
}
