package computer

import (
	"fmt"
	"strings"
)

// Which graph a computation hands back.
type ResultGraph int

const (
	resultUnset    ResultGraph = iota
	ResultOriginal             // The graph the computer was built on.
	ResultNew                  // A copy holding the computed state.
)

func (r ResultGraph) String() string {
	switch r {
	case ResultOriginal:
		return "original"
	case ResultNew:
		return "new"
	}
	return "unset"
}

// What of the computed state survives the computation.
type Persist int

const (
	persistUnset Persist = iota
	PersistNothing
	PersistVertexProperties
	PersistEdges
)

func (p Persist) String() string {
	switch p {
	case PersistNothing:
		return "nothing"
	case PersistVertexProperties:
		return "vertex_properties"
	case PersistEdges:
		return "edges"
	}
	return "unset"
}

func ParseResultGraph(s string) (ResultGraph, error) {
	switch strings.ToLower(s) {
	case "original":
		return ResultOriginal, nil
	case "new":
		return ResultNew, nil
	}
	return resultUnset, fmt.Errorf("unknown result graph %q", s)
}

func ParsePersist(s string) (Persist, error) {
	switch strings.ToLower(s) {
	case "nothing":
		return PersistNothing, nil
	case "vertex_properties", "vertexproperties":
		return PersistVertexProperties, nil
	case "edges":
		return PersistEdges, nil
	}
	return persistUnset, fmt.Errorf("unknown persist mode %q", s)
}

// Structural capabilities a vertex program may declare it needs.
type Requirements struct {
	VertexAddition        bool
	VertexRemoval         bool
	VertexPropertyRemoval bool
	EdgeAddition          bool
	EdgeRemoval           bool
	EdgePropertyAddition  bool
	EdgePropertyRemoval   bool
}

// Features describes what this computer supports.
type Features struct {
	SupportsVertexAddition        bool
	SupportsVertexRemoval         bool
	SupportsVertexPropertyRemoval bool
	SupportsEdgeAddition          bool
	SupportsEdgeRemoval           bool
	SupportsEdgePropertyAddition  bool
	SupportsEdgePropertyRemoval   bool

	combinations map[ResultGraph]map[Persist]bool
}

// The computer never mutates graph structure. Persisting edge state into the original graph would be
// edge property mutation, so that combination is refused.
func defaultFeatures() Features {
	return Features{
		combinations: map[ResultGraph]map[Persist]bool{
			ResultOriginal: {PersistNothing: true, PersistVertexProperties: true},
			ResultNew:      {PersistNothing: true, PersistVertexProperties: true, PersistEdges: true},
		},
	}
}

func (f Features) SupportsResultGraphPersistCombination(r ResultGraph, p Persist) bool {
	return f.combinations[r][p]
}

// Returns nil if every requirement is supported, otherwise an ErrProgramIncompatible naming the first gap.
func (f Features) Satisfies(req Requirements) error {
	checks := []struct {
		required  bool
		supported bool
		name      string
	}{
		{req.VertexAddition, f.SupportsVertexAddition, "vertex addition"},
		{req.VertexRemoval, f.SupportsVertexRemoval, "vertex removal"},
		{req.VertexPropertyRemoval, f.SupportsVertexPropertyRemoval, "vertex property removal"},
		{req.EdgeAddition, f.SupportsEdgeAddition, "edge addition"},
		{req.EdgeRemoval, f.SupportsEdgeRemoval, "edge removal"},
		{req.EdgePropertyAddition, f.SupportsEdgePropertyAddition, "edge property addition"},
		{req.EdgePropertyRemoval, f.SupportsEdgePropertyRemoval, "edge property removal"},
	}
	for _, c := range checks {
		if c.required && !c.supported {
			return fmt.Errorf("%w: %s", ErrProgramIncompatible, c.name)
		}
	}
	return nil
}
