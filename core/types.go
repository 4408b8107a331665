package core

// CellFlag marks how a cell participates in the transport law
type CellFlag uint8

const (
	FlagInterior CellFlag = iota
	FlagBoundary
)

func (f CellFlag) String() string {
	switch f {
	case FlagInterior:
		return "interior"
	case FlagBoundary:
		return "boundary"
	default:
		return "unknown"
	}
}

// CellCoord represents a position in the layer/band grid
type CellCoord struct {
	Layer int `json:"layer"` // Index along dimA (0 = first layer)
	Band  int `json:"band"`  // Index along dimB
}

// Axis identifies one of the two structural dimensions of the domain
type Axis uint8

const (
	AxisLayer Axis = iota
	AxisBand
)

func (a Axis) String() string {
	if a == AxisLayer {
		return "layer"
	}
	return "band"
}

// Neighbor is a structurally adjacent cell together with the axis it was reached along
type Neighbor struct {
	CellCoord
	Axis Axis
}

// Domain is the discretized layers x bands grid owned by a single simulation run.
// Values are stored row-major: layer i, band j lives at i*bands+j.
type Domain struct {
	layers int
	bands  int

	values []float64
	flags  []CellFlag
}
