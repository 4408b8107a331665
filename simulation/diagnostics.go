package simulation

import (
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"radgrid/core"
)

// Stats summarises a domain state at a step boundary
type Stats struct {
	Step    int     `json:"step"`
	Elapsed float64 `json:"elapsed"`

	Min    float64 `json:"min"`
	Max    float64 `json:"max"`
	Mean   float64 `json:"mean"`
	StdDev float64 `json:"stdDev"`

	InteriorSum  float64 `json:"interiorSum"`
	BoundaryMean float64 `json:"boundaryMean"`

	// Injected is the cumulative amount moved into the interior across boundary faces
	Injected float64 `json:"injected"`
	// MaxDelta is the largest per-cell change applied in the last step
	MaxDelta float64 `json:"maxDelta"`
}

// Measure computes Stats for the current state of d
func Measure(d *core.Domain) Stats {
	values := d.Values()
	mean, std := stat.MeanStdDev(values, nil)
	if len(values) < 2 {
		std = 0
	}

	s := Stats{
		Min:    floats.Min(values),
		Max:    floats.Max(values),
		Mean:   mean,
		StdDev: std,
	}

	var boundarySum float64
	var boundaryCount int
	for idx, v := range values {
		if d.Flag(idx) == core.FlagBoundary {
			boundarySum += v
			boundaryCount++
		} else {
			s.InteriorSum += v
		}
	}
	if boundaryCount > 0 {
		s.BoundaryMean = boundarySum / float64(boundaryCount)
	}
	return s
}

// Frame is passed to an Observer after every completed step.
// Domain is only valid for the duration of the call.
type Frame struct {
	Step    int
	Elapsed float64
	Stats   Stats
	Domain  *core.Domain
}

// Observer receives frames from a running integrator
type Observer func(Frame)
