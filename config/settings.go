package config

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"radgrid/logging"
	"radgrid/physics"
	"radgrid/simulation"
)

// DefaultPath is read when no settings file is named
const DefaultPath = "settings.json"

// Settings is everything the command line and the stream server can be configured with
type Settings struct {
	Run    simulation.Params `json:"run" yaml:"run"`
	Solver SolverSettings    `json:"solver" yaml:"solver"`
	Server ServerSettings    `json:"server" yaml:"server"`
	Sweep  SweepSettings     `json:"sweep" yaml:"sweep"`
}

type SolverSettings struct {
	LayerCoefficient float64 `json:"layerCoefficient" yaml:"layerCoefficient"`
	BandCoefficient  float64 `json:"bandCoefficient" yaml:"bandCoefficient"`
	Boundary         string  `json:"boundary" yaml:"boundary"`
	Stability        string  `json:"stability" yaml:"stability"`
	Workers          int     `json:"workers" yaml:"workers"`
	Initial          float64 `json:"initial" yaml:"initial"`
	MaxSubsteps      int     `json:"maxSubsteps" yaml:"maxSubsteps"`
}

type ServerSettings struct {
	Addr string `json:"addr" yaml:"addr"`
	// FrameEvery is the default number of steps between streamed frames
	FrameEvery int `json:"frameEvery" yaml:"frameEvery"`
	// MaxCells caps dimA*dimB for a single streamed run
	MaxCells int `json:"maxCells" yaml:"maxCells"`
	// MaxSteps caps nsteps for a single streamed run
	MaxSteps int `json:"maxSteps" yaml:"maxSteps"`
	// MaxSubsteps caps the sub-steps per step of a streamed run under the substep policy
	MaxSubsteps int `json:"maxSubsteps" yaml:"maxSubsteps"`
}

type SweepSettings struct {
	Parallel int                    `json:"parallel" yaml:"parallel"`
	Cases    []simulation.SweepCase `json:"cases" yaml:"cases"`
}

// Default returns the built-in settings: the reference 11x12 run at 300 with the
// isotropic default coefficients
func Default() Settings {
	coef := physics.DefaultCoefficients()
	return Settings{
		Run: simulation.Params{
			Dt:            0.1,
			Steps:         50,
			BoundaryValue: 300,
			Layers:        11,
			Bands:         12,
		},
		Solver: SolverSettings{
			LayerCoefficient: coef.Layer,
			BandCoefficient:  coef.Band,
			Boundary:         physics.BoundaryDirichlet.String(),
			Stability:        simulation.StabilityWarn.String(),
			Workers:          1,
			MaxSubsteps:      simulation.DefaultMaxSubsteps,
		},
		Server: ServerSettings{
			Addr:        ":8080",
			FrameEvery:  1,
			MaxCells:    1 << 20,
			MaxSteps:    1_000_000,
			MaxSubsteps: 1024,
		},
		Sweep: SweepSettings{
			Parallel: 0,
		},
	}
}

// Load reads a settings file over the defaults. YAML is used for .yaml and
// .yml files, JSON otherwise.
func Load(path string) (Settings, error) {
	s := Default()

	b, err := os.ReadFile(path)
	if err != nil {
		return s, err
	}
	if err := decode(path, b, &s); err != nil {
		return s, fmt.Errorf("error parsing %s: %w", path, err)
	}

	logging.L().Debug("config.loaded", "path", path, "dimA", s.Run.Layers, "dimB", s.Run.Bands, "cases", len(s.Sweep.Cases))
	return s, nil
}

// LoadOrDefault is Load, except that a missing file yields the defaults
func LoadOrDefault(path string) (Settings, error) {
	s, err := Load(path)
	if errors.Is(err, os.ErrNotExist) {
		logging.L().Debug("config.missing", "path", path)
		return Default(), nil
	}
	return s, err
}

func decode(path string, b []byte, v any) error {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		dec := yaml.NewDecoder(bytes.NewReader(b))
		dec.KnownFields(true)
		return dec.Decode(v)
	default:
		dec := json.NewDecoder(bytes.NewReader(b))
		dec.DisallowUnknownFields()
		return dec.Decode(v)
	}
}

// Coefficients returns the transport coefficients of the solver section
func (s SolverSettings) Coefficients() physics.Coefficients {
	return physics.Coefficients{Layer: s.LayerCoefficient, Band: s.BandCoefficient}
}

// Options converts the solver section into run options
func (s SolverSettings) Options() ([]simulation.Option, error) {
	coef := s.Coefficients()
	if err := coef.Validate(); err != nil {
		return nil, err
	}
	mode, err := physics.ParseBoundaryMode(s.Boundary)
	if err != nil {
		return nil, err
	}
	policy, err := simulation.ParseStabilityPolicy(s.Stability)
	if err != nil {
		return nil, err
	}

	return []simulation.Option{
		simulation.WithCoefficients(coef),
		simulation.WithBoundaryMode(mode),
		simulation.WithStability(policy),
		simulation.WithWorkers(s.Workers),
		simulation.WithInitial(s.Initial),
		simulation.WithMaxSubsteps(s.MaxSubsteps),
	}, nil
}
