package core

// neighborOffsets lists the axis-adjacent steps in a fixed order:
// previous layer, next layer, previous band, next band.
var neighborOffsets = [4]struct {
	dLayer, dBand int
	axis          Axis
}{
	{-1, 0, AxisLayer},
	{1, 0, AxisLayer},
	{0, -1, AxisBand},
	{0, 1, AxisBand},
}

// Neighbors returns the up-to-four structurally adjacent cells of (i, j).
// Edge cells have fewer neighbors; there is no wrap-around on either axis.
func (d *Domain) Neighbors(i, j int) ([]CellCoord, error) {
	ns, err := d.AxisNeighbors(i, j)
	if err != nil {
		return nil, err
	}
	out := make([]CellCoord, len(ns))
	for k, n := range ns {
		out[k] = n.CellCoord
	}
	return out, nil
}

// AxisNeighbors is Neighbors with the axis of each adjacency attached
func (d *Domain) AxisNeighbors(i, j int) ([]Neighbor, error) {
	if !d.InRange(i, j) {
		return nil, rangeError(d, i, j)
	}

	out := make([]Neighbor, 0, 4)
	for _, off := range neighborOffsets {
		ni, nj := i+off.dLayer, j+off.dBand
		if d.InRange(ni, nj) {
			out = append(out, Neighbor{CellCoord: CellCoord{Layer: ni, Band: nj}, Axis: off.axis})
		}
	}
	return out, nil
}

// NeighborCount returns how many adjacent cells (i, j) has without allocating
func (d *Domain) NeighborCount(i, j int) int {
	if !d.InRange(i, j) {
		return 0
	}
	count := 0
	for _, off := range neighborOffsets {
		if d.InRange(i+off.dLayer, j+off.dBand) {
			count++
		}
	}
	return count
}

// BoundaryCells returns the coordinates of every boundary cell in row-major order
func (d *Domain) BoundaryCells() []CellCoord {
	out := make([]CellCoord, 0, 2*(d.layers+d.bands))
	for idx, f := range d.flags {
		if f == FlagBoundary {
			out = append(out, d.Coord(idx))
		}
	}
	return out
}

// InteriorCount returns the number of non-boundary cells
func (d *Domain) InteriorCount() int {
	count := 0
	for _, f := range d.flags {
		if f == FlagInterior {
			count++
		}
	}
	return count
}
