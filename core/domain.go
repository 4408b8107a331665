package core

import (
	"fmt"
	"math"
)

// MaxCells bounds layers*bands for a single domain
const MaxCells = 1 << 28

// CheckDims rejects non-positive dimensions and grids larger than MaxCells,
// without forming a product that could overflow
func CheckDims(layers, bands int) error {
	if layers <= 0 || bands <= 0 {
		return fmt.Errorf("dimA=%d dimB=%d: %w", layers, bands, ErrInvalidDimension)
	}
	if layers > MaxCells/bands {
		return fmt.Errorf("dimA=%d dimB=%d exceeds %d cells: %w", layers, bands, MaxCells, ErrInvalidDimension)
	}
	return nil
}

// NewDomain creates a layers x bands grid with every cell set to initial.
// Edge cells of either dimension are flagged as boundary cells.
func NewDomain(layers, bands int, initial float64) (*Domain, error) {
	if err := CheckDims(layers, bands); err != nil {
		return nil, err
	}

	n := layers * bands
	d := &Domain{
		layers: layers,
		bands:  bands,
		values: make([]float64, n),
		flags:  make([]CellFlag, n),
	}

	for i := 0; i < layers; i++ {
		for j := 0; j < bands; j++ {
			idx := i*bands + j
			d.values[idx] = initial
			if i == 0 || i == layers-1 || j == 0 || j == bands-1 {
				d.flags[idx] = FlagBoundary
			}
		}
	}

	return d, nil
}

// Dims returns the layer and band counts
func (d *Domain) Dims() (layers, bands int) {
	return d.layers, d.bands
}

// Len returns the number of cells
func (d *Domain) Len() int {
	return len(d.values)
}

// InRange reports whether (i, j) addresses a cell of the grid
func (d *Domain) InRange(i, j int) bool {
	return i >= 0 && i < d.layers && j >= 0 && j < d.bands
}

// Index returns the flat offset of cell (i, j)
func (d *Domain) Index(i, j int) (int, error) {
	if !d.InRange(i, j) {
		return 0, rangeError(d, i, j)
	}
	return i*d.bands + j, nil
}

// Coord is the inverse of Index
func (d *Domain) Coord(idx int) CellCoord {
	return CellCoord{Layer: idx / d.bands, Band: idx % d.bands}
}

// Get returns the value stored at (i, j)
func (d *Domain) Get(i, j int) (float64, error) {
	idx, err := d.Index(i, j)
	if err != nil {
		return 0, err
	}
	return d.values[idx], nil
}

// Set stores value at (i, j)
func (d *Domain) Set(i, j int, value float64) error {
	idx, err := d.Index(i, j)
	if err != nil {
		return err
	}
	d.values[idx] = value
	return nil
}

// IsBoundary reports whether (i, j) is an edge cell of either dimension.
// Out-of-range coordinates are never boundary cells.
func (d *Domain) IsBoundary(i, j int) bool {
	if !d.InRange(i, j) {
		return false
	}
	return d.flags[i*d.bands+j] == FlagBoundary
}

// Flag returns the cell flag at flat offset idx
func (d *Domain) Flag(idx int) CellFlag {
	return d.flags[idx]
}

// Values exposes the row-major backing slice. Writes go straight to the domain;
// only the integrator's apply phase should make them.
func (d *Domain) Values() []float64 {
	return d.values
}

// Row returns the backing slice for layer i
func (d *Domain) Row(i int) []float64 {
	return d.values[i*d.bands : (i+1)*d.bands]
}

// Clone creates a deep copy of the domain
func (d *Domain) Clone() *Domain {
	dst := &Domain{
		layers: d.layers,
		bands:  d.bands,
		values: make([]float64, len(d.values)),
		flags:  make([]CellFlag, len(d.flags)),
	}
	copy(dst.values, d.values)
	copy(dst.flags, d.flags)
	return dst
}

// FillBoundary sets every boundary cell to value
func (d *Domain) FillBoundary(value float64) {
	for idx, f := range d.flags {
		if f == FlagBoundary {
			d.values[idx] = value
		}
	}
}

// Each calls fn for every cell in row-major order
func (d *Domain) Each(fn func(c CellCoord, value float64, flag CellFlag)) {
	for idx, v := range d.values {
		fn(d.Coord(idx), v, d.flags[idx])
	}
}

// Snapshot copies the state into a [layer][band] array
func (d *Domain) Snapshot() [][]float64 {
	out := make([][]float64, d.layers)
	for i := range out {
		out[i] = make([]float64, d.bands)
		copy(out[i], d.Row(i))
	}
	return out
}

// FirstNonFinite returns the first cell holding NaN or Inf
func (d *Domain) FirstNonFinite() (CellCoord, float64, bool) {
	for idx, v := range d.values {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return d.Coord(idx), v, true
		}
	}
	return CellCoord{}, 0, false
}
