package stream

import (
	"context"
	"errors"

	"radgrid/core"
	"radgrid/simulation"
)

// Request starts one model run on a connection
type Request struct {
	simulation.Params

	// Every is the number of steps between frames; 0 uses the server default
	Every int `json:"every"`
	// Grid asks for the full layer x band state in every frame
	Grid bool `json:"grid"`

	Boundary  string `json:"boundary,omitempty"`
	Stability string `json:"stability,omitempty"`
}

// FrameData is sent while a run is stepping
type FrameData struct {
	Type    string           `json:"type"`
	Step    int              `json:"step"`
	Elapsed float64          `json:"elapsed"`
	Stats   simulation.Stats `json:"stats"`
	Grid    [][]float64      `json:"grid,omitempty"`
}

// ResultData closes a successful run
type ResultData struct {
	Type        string               `json:"type"`
	Steps       int                  `json:"steps"`
	Elapsed     float64              `json:"elapsed"`
	Dims        [2]int               `json:"dims"`
	Fingerprint string               `json:"fingerprint"`
	Final       simulation.Stats     `json:"final"`
	Warnings    []simulation.Warning `json:"warnings,omitempty"`
	Grid        [][]float64          `json:"grid"`
}

// ErrorData closes a failed run
type ErrorData struct {
	Type  string `json:"type"`
	Code  string `json:"code"`
	Error string `json:"error"`
	Step  int    `json:"step,omitempty"`
}

const (
	typeFrame  = "frame"
	typeResult = "result"
	typeError  = "error"
)

var errLimit = errors.New("request exceeds server limits")

func newResultData(res *simulation.Result) ResultData {
	return ResultData{
		Type:        typeResult,
		Steps:       res.Steps,
		Elapsed:     res.Elapsed,
		Dims:        [2]int{res.Layers, res.Bands},
		Fingerprint: res.Fingerprint(),
		Final:       res.Final,
		Warnings:    res.Warnings,
		Grid:        res.Grid(),
	}
}

func newErrorData(err error) ErrorData {
	msg := ErrorData{Type: typeError, Code: errorCode(err), Error: err.Error()}
	var se *core.StepError
	if errors.As(err, &se) {
		msg.Step = se.Step
	}
	return msg
}

// errorCode maps a run error onto a stable machine-readable code
func errorCode(err error) string {
	switch {
	case errors.Is(err, core.ErrInvalidDimension):
		return "invalid_dimension"
	case errors.Is(err, core.ErrInvalidStepCount):
		return "invalid_step_count"
	case errors.Is(err, core.ErrInvalidTimeStep):
		return "invalid_time_step"
	case errors.Is(err, core.ErrNumericalDivergence):
		return "numerical_divergence"
	case errors.Is(err, errLimit), errors.Is(err, simulation.ErrSubstepLimit):
		return "limit_exceeded"
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return "canceled"
	default:
		return "bad_request"
	}
}
