package physics

import (
	"context"
	"errors"
	"fmt"
	"math"

	"radgrid/core"
)

// Boltzmann is the Boltzmann constant in eV/K
const Boltzmann = 8.6173e-5

// Material holds the point-defect parameters of an irradiated metal
type Material struct {
	Name string

	D0i float64 // interstitial diffusion pre-factor, cm^2/s
	D0v float64 // vacancy diffusion pre-factor, cm^2/s
	Emi float64 // interstitial migration energy, eV
	Emv float64 // vacancy migration energy, eV

	Riv float64 // interstitial/vacancy recombination radius, cm
	Ris float64 // interstitial/sink reaction radius, cm
	Rvs float64 // vacancy/sink reaction radius, cm
}

// SA304 returns stainless steel 304 parameters
func SA304() Material {
	return Material{
		Name: "SA304",
		D0i:  0.001,
		D0v:  0.6,
		Emi:  0.45,
		Emv:  1.35,
		Riv:  7e-8, // 7 Å expressed in cm
		Ris:  1e-4,
		Rvs:  1e-4,
	}
}

// DefectRates are the temperature-dependent coefficients of the rate equations
type DefectRates struct {
	Di float64 // interstitial diffusion coefficient
	Dv float64 // vacancy diffusion coefficient

	K0 float64 // defect production rate
	Cs float64 // sink concentration

	Kiv float64 // recombination rate coefficient
	Kis float64 // interstitial-sink reaction rate coefficient
	Kvs float64 // vacancy-sink reaction rate coefficient
}

// Rates evaluates the Arrhenius diffusivities and reaction coefficients at
// temperature (K) with production rate 10^productionExp and sink
// concentration 10^sinkExp.
func (m Material) Rates(temperature float64, productionExp, sinkExp int) (DefectRates, error) {
	if temperature <= 0 || math.IsNaN(temperature) || math.IsInf(temperature, 0) {
		return DefectRates{}, fmt.Errorf("temperature must be a positive number of kelvin, got %g", temperature)
	}

	kT := Boltzmann * temperature
	r := DefectRates{
		Di: m.D0i * math.Exp(-m.Emi/kT),
		Dv: m.D0v * math.Exp(-m.Emv/kT),
		K0: math.Pow(10, float64(productionExp)),
		Cs: math.Pow(10, float64(sinkExp)),
	}
	r.Kiv = 4 * math.Pi * m.Riv * (r.Di + r.Dv)
	r.Kis = 4 * math.Pi * m.Ris * r.Di
	r.Kvs = 4 * math.Pi * m.Rvs * r.Dv
	return r, nil
}

// DefectState is the pair of point-defect concentrations
type DefectState struct {
	Ci float64 `json:"ci"` // interstitials
	Cv float64 `json:"cv"` // vacancies
}

// Derivative returns dCi/dt and dCv/dt for state s
func (r DefectRates) Derivative(s DefectState) (dCi, dCv float64) {
	recombination := r.Kiv * s.Ci * s.Cv
	dCi = r.K0 - recombination - r.Kis*s.Ci*r.Cs
	dCv = r.K0 - recombination - r.Kvs*s.Cv*r.Cs
	return dCi, dCv
}

// SinkImbalance is the difference between interstitial and vacancy sink absorption
func (r DefectRates) SinkImbalance(s DefectState) float64 {
	return r.Kis*s.Ci*r.Cs - r.Kvs*s.Cv*r.Cs
}

// DefectParams configures a point-defect kinetics run
type DefectParams struct {
	Temperature    float64 // K
	ProductionExp  int     // log10 of the defect production rate
	SinkExp        int     // log10 of the sink concentration
	Dt             float64 // s
	EndTime        float64 // s
	SampleInterval float64 // s between emitted samples
}

// Validate checks the time controls; the temperature is checked by Rates
func (p DefectParams) Validate() error {
	if p.Dt <= 0 || isNonFinite(p.Dt) {
		return fmt.Errorf("dt=%g: %w", p.Dt, core.ErrInvalidTimeStep)
	}
	if p.EndTime < 0 || isNonFinite(p.EndTime) {
		return fmt.Errorf("end time must be finite and non-negative, got %g", p.EndTime)
	}
	if p.SampleInterval < 0 || isNonFinite(p.SampleInterval) {
		return fmt.Errorf("sample interval must be finite and non-negative, got %g", p.SampleInterval)
	}
	return nil
}

// DefectSample is one emitted row of a kinetics run
type DefectSample struct {
	Time     float64 `json:"t"`
	Ci       float64 `json:"ci"`
	Cv       float64 `json:"cv"`
	SinkDiff float64 `json:"sinkDiff"`
}

// DefectRun is the outcome of RunDefects
type DefectRun struct {
	Rates DefectRates
	Final DefectState
	Steps int
}

// RunDefects integrates the interstitial/vacancy rate equations with explicit
// Euler steps from zero concentration until EndTime. Each step whose sample
// counter reaches SampleInterval is passed to emit. A non-finite increment
// stops the run with core.ErrNumericalDivergence; ctx is checked between steps.
func RunDefects(ctx context.Context, m Material, p DefectParams, emit func(DefectSample)) (DefectRun, error) {
	if err := p.Validate(); err != nil {
		return DefectRun{}, err
	}
	rates, err := m.Rates(p.Temperature, p.ProductionExp, p.SinkExp)
	if err != nil {
		return DefectRun{}, err
	}

	run := DefectRun{Rates: rates}
	var s DefectState
	counter := p.SampleInterval

	// t accumulates dt, so the step count follows the floating-point sum
	for k, t := 0, 0.0; t < p.EndTime; k, t = k+1, t+p.Dt {
		if err := ctx.Err(); err != nil {
			return run, fmt.Errorf("defect kinetics interrupted at step %d: %w", k, err)
		}

		dCi, dCv := rates.Derivative(s)
		dCi *= p.Dt
		dCv *= p.Dt
		if isNonFinite(dCi) || isNonFinite(dCv) {
			return run, fmt.Errorf("defect kinetics at t=%g: %w", t, core.ErrNumericalDivergence)
		}

		s.Ci += dCi
		s.Cv += dCv
		run.Final = s
		run.Steps = k + 1

		counter += p.Dt
		if counter >= p.SampleInterval {
			counter = 0
			if emit != nil {
				emit(DefectSample{Time: t, Ci: s.Ci, Cv: s.Cv, SinkDiff: rates.SinkImbalance(s)})
			}
		}
	}

	return run, nil
}

// IsDivergence reports whether err stopped a run because of non-finite values
func IsDivergence(err error) bool {
	return errors.Is(err, core.ErrNumericalDivergence)
}
