package config

import (
	"fmt"
	"os"

	"radgrid/logging"
	"radgrid/physics"
)

// DefectSettings is the point-defect kinetics configuration file
type DefectSettings struct {
	TotalTime      float64 `json:"total_time_seconds" yaml:"total_time_seconds"`
	Dt             float64 `json:"dt_seconds" yaml:"dt_seconds"`
	Temperature    float64 `json:"temperature_kelvin" yaml:"temperature_kelvin"`
	ProductionExp  int     `json:"K_0_exp" yaml:"K_0_exp"`
	SinkExp        int     `json:"C_s_exp" yaml:"C_s_exp"`
	SampleInterval float64 `json:"sample_interval" yaml:"sample_interval"`
}

// DefaultDefects mirrors the reference driver call: 50 s in 0.1 s steps at
// 300 K with K0 = 1e11 and Cs = 1e12
func DefaultDefects() DefectSettings {
	return DefectSettings{
		TotalTime:      50,
		Dt:             0.1,
		Temperature:    300,
		ProductionExp:  11,
		SinkExp:        12,
		SampleInterval: 1,
	}
}

// LoadDefects reads a defect kinetics file (JSON, or YAML by extension).
// Keys missing from the file keep their DefaultDefects value.
func LoadDefects(path string) (DefectSettings, error) {
	s := DefaultDefects()

	b, err := os.ReadFile(path)
	if err != nil {
		return s, fmt.Errorf("could not open %s: %w", path, err)
	}
	if err := decode(path, b, &s); err != nil {
		return s, fmt.Errorf("error parsing %s: %w", path, err)
	}

	logging.L().Debug("config.defects.loaded", "path", path, "temperature", s.Temperature)
	return s, nil
}

// Params converts the file into kinetics parameters
func (s DefectSettings) Params() physics.DefectParams {
	return physics.DefectParams{
		Temperature:    s.Temperature,
		ProductionExp:  s.ProductionExp,
		SinkExp:        s.SinkExp,
		Dt:             s.Dt,
		EndTime:        s.TotalTime,
		SampleInterval: s.SampleInterval,
	}
}
