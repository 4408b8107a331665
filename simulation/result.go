package simulation

import (
	"encoding/binary"
	"encoding/hex"
	"math"

	"golang.org/x/crypto/blake2b"
	"gonum.org/v1/gonum/mat"

	"radgrid/core"
)

// Result is the terminal state of a run plus provenance
type Result struct {
	// State holds the layers x bands grid at the final step
	State *mat.Dense

	Layers        int
	Bands         int
	Steps         int
	Dt            float64
	Elapsed       float64
	BoundaryValue float64

	// Final summarises State; Trace holds one entry per step when tracing is on
	Final Stats
	Trace []Stats

	Warnings      []Warning
	UnstableSteps int
}

func newResult(it *Integrator, p Params) *Result {
	d := it.Domain()
	layers, bands := d.Dims()
	data := make([]float64, d.Len())
	copy(data, d.Values())

	final := it.stats()
	return &Result{
		State:         mat.NewDense(layers, bands, data),
		Layers:        layers,
		Bands:         bands,
		Steps:         it.clock.Step(),
		Dt:            it.clock.Dt(),
		Elapsed:       it.clock.Elapsed(),
		BoundaryValue: p.BoundaryValue,
		Final:         final,
		Trace:         it.history,
		Warnings:      it.warnings,
		UnstableSteps: it.unstableSteps,
	}
}

// At returns the final value of cell (i, j)
func (r *Result) At(i, j int) float64 {
	return r.State.At(i, j)
}

// Grid copies the final state into a [layer][band] array
func (r *Result) Grid() [][]float64 {
	out := make([][]float64, r.Layers)
	for i := range out {
		out[i] = mat.Row(nil, i, r.State)
	}
	return out
}

// IsBoundary reports whether (i, j) was an edge cell of the run's domain
func (r *Result) IsBoundary(i, j int) bool {
	return i == 0 || j == 0 || i == r.Layers-1 || j == r.Bands-1
}

// Unstable reports whether any UnstableStepWarning was raised
func (r *Result) Unstable() bool {
	for _, w := range r.Warnings {
		if w.Kind == UnstableStepWarning {
			return true
		}
	}
	return false
}

// Fingerprint is a BLAKE2b-256 digest over the dimensions and the exact bits of
// every cell. Bit-identical results have equal fingerprints.
func (r *Result) Fingerprint() string {
	h, _ := blake2b.New256(nil)

	var buf [8]byte
	binary.LittleEndian.PutUint64(buf[:], uint64(r.Layers))
	h.Write(buf[:])
	binary.LittleEndian.PutUint64(buf[:], uint64(r.Bands))
	h.Write(buf[:])

	for i := 0; i < r.Layers; i++ {
		for j := 0; j < r.Bands; j++ {
			binary.LittleEndian.PutUint64(buf[:], math.Float64bits(r.State.At(i, j)))
			h.Write(buf[:])
		}
	}
	return hex.EncodeToString(h.Sum(nil))
}

// Cell pairs a coordinate with its final value, for flat exports
type Cell struct {
	core.CellCoord
	Value    float64
	Boundary bool
}

// Cells lists every cell in row-major order
func (r *Result) Cells() []Cell {
	out := make([]Cell, 0, r.Layers*r.Bands)
	for i := 0; i < r.Layers; i++ {
		for j := 0; j < r.Bands; j++ {
			out = append(out, Cell{
				CellCoord: core.CellCoord{Layer: i, Band: j},
				Value:     r.State.At(i, j),
				Boundary:  r.IsBoundary(i, j),
			})
		}
	}
	return out
}
