package simulation

import (
	"log/slog"

	"radgrid/physics"
)

// Options tunes a model run beyond the five call parameters
type Options struct {
	Coefficients physics.Coefficients
	Boundary     physics.BoundaryMode
	Stability    StabilityPolicy
	Workers      int     // goroutines per step; <= 0 uses one per CPU
	Initial      float64 // starting value of every cell
	Observer     Observer
	Logger       *slog.Logger
	Trace        bool // keep per-step Stats in Result.Trace
	MaxSubsteps  int  // sub-steps per step allowed under StabilitySubstep; <= 0 uses DefaultMaxSubsteps
}

// Option mutates Options
type Option func(*Options)

// DefaultOptions returns the options used when none are given
func DefaultOptions() Options {
	return Options{
		Coefficients: physics.DefaultCoefficients(),
		Boundary:     physics.BoundaryDirichlet,
		Stability:    StabilityWarn,
		Workers:      1,
		MaxSubsteps:  DefaultMaxSubsteps,
	}
}

func buildOptions(opts []Option) Options {
	o := DefaultOptions()
	for _, opt := range opts {
		if opt != nil {
			opt(&o)
		}
	}
	return o
}

// WithCoefficients sets the per-axis transport coefficients
func WithCoefficients(c physics.Coefficients) Option {
	return func(o *Options) { o.Coefficients = c }
}

// WithBoundaryMode selects the edge-cell law
func WithBoundaryMode(m physics.BoundaryMode) Option {
	return func(o *Options) { o.Boundary = m }
}

// WithStability selects the instability policy
func WithStability(p StabilityPolicy) Option {
	return func(o *Options) { o.Stability = p }
}

// WithWorkers sets the number of goroutines used inside each step
func WithWorkers(n int) Option {
	return func(o *Options) { o.Workers = n }
}

// WithInitial sets the starting value of every cell
func WithInitial(v float64) Option {
	return func(o *Options) { o.Initial = v }
}

// WithObserver registers a per-step callback
func WithObserver(fn Observer) Option {
	return func(o *Options) { o.Observer = fn }
}

// WithLogger routes run logging to l
func WithLogger(l *slog.Logger) Option {
	return func(o *Options) { o.Logger = l }
}

// WithTrace records per-step Stats in the Result
func WithTrace(on bool) Option {
	return func(o *Options) { o.Trace = on }
}

// WithOptions replaces every option at once, e.g. with values loaded from a config file
func WithOptions(src Options) Option {
	return func(o *Options) { *o = src }
}

// WithMaxSubsteps caps the sub-steps the substep policy may split one step into
func WithMaxSubsteps(n int) Option {
	return func(o *Options) { o.MaxSubsteps = n }
}
