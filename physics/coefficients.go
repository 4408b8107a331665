package physics

import (
	"fmt"
	"math"
	"strings"
)

// Coefficients holds the transport coefficient along each grid axis.
// Grid spacing is one cell, so a coefficient is a rate per unit time.
type Coefficients struct {
	Layer float64 // exchange rate between adjacent layers
	Band  float64 // exchange rate between adjacent bands
}

// DefaultCoefficients returns the isotropic coefficients used when none are configured
func DefaultCoefficients() Coefficients {
	return Coefficients{Layer: 0.25, Band: 0.25}
}

// Validate rejects negative or non-finite coefficients
func (c Coefficients) Validate() error {
	for _, v := range []float64{c.Layer, c.Band} {
		if v < 0 || math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("transport coefficients must be finite and non-negative, got layer=%g band=%g", c.Layer, c.Band)
		}
	}
	return nil
}

// StabilityNumber returns 2*dt*(kLayer+kBand). The explicit scheme obeys the
// discrete maximum principle while this is at most 1.
func (c Coefficients) StabilityNumber(dt float64) float64 {
	return 2 * dt * (c.Layer + c.Band)
}

// StableSubsteps returns the smallest n such that dt/n is a stable increment
func (c Coefficients) StableSubsteps(dt float64) int {
	s := c.StabilityNumber(dt)
	if s <= 1 || math.IsNaN(s) {
		return 1
	}
	if math.IsInf(s, 0) || s > math.MaxInt32 {
		return math.MaxInt32
	}
	return int(math.Ceil(s))
}

// BoundaryMode selects the law applied to edge cells
type BoundaryMode uint8

const (
	// BoundaryDirichlet forces edge cells to the boundary value on every step
	BoundaryDirichlet BoundaryMode = iota
	// BoundarySeeded sets edge cells once at construction and lets them evolve
	// with the interior, insulated on their outer faces
	BoundarySeeded
)

func (m BoundaryMode) String() string {
	switch m {
	case BoundaryDirichlet:
		return "dirichlet"
	case BoundarySeeded:
		return "seeded"
	default:
		return fmt.Sprintf("BoundaryMode(%d)", uint8(m))
	}
}

// ParseBoundaryMode maps a flag/config value onto a BoundaryMode
func ParseBoundaryMode(s string) (BoundaryMode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "dirichlet", "forced":
		return BoundaryDirichlet, nil
	case "seeded", "seed":
		return BoundarySeeded, nil
	default:
		return 0, fmt.Errorf("unknown boundary mode %q (want dirichlet or seeded)", s)
	}
}
