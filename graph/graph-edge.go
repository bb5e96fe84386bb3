package graph

import "github.com/ScottSallinen/lollipop-computer/utils"

// We make an unweighted graph simply have weights of 1.
const DEFAULT_WEIGHT = 1.0

// Edge: Basic edge structure for a graph.
type Edge struct {
	Didx   uint32  // Internal index of the target.
	Weight float64 // DEFAULT_WEIGHT when the input had none.
}

func (e Edge) String() string {
	return "{Didx: " + utils.V(e.Didx) + ", Weight: " + utils.V(e.Weight) + "}"
}
