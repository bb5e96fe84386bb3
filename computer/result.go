package computer

import (
	"github.com/ScottSallinen/lollipop-computer/graph"
)

// What a Result's graph holds.
type ResultKind int

const (
	KindOriginal          ResultKind = iota // The untouched input graph.
	KindComputedReadOnly                    // A new graph without computed state.
	KindComputedPersisted                   // A graph carrying computed state as vertex properties.
)

func (k ResultKind) String() string {
	switch k {
	case KindOriginal:
		return "original"
	case KindComputedReadOnly:
		return "computed_read_only"
	}
	return "computed_persisted"
}

type Result struct {
	Graph      *graph.Graph
	Memory     Memory // Immutable.
	Kind       ResultKind
	Submission string
}

// Builds the graph handed back to the caller. Must run before the compute view is dropped.
func assembleResult(g *graph.Graph, view *graph.ComputeView, resultGraph ResultGraph, persist Persist) (*graph.Graph, ResultKind) {
	switch {
	case persist == PersistNothing && resultGraph == ResultOriginal:
		return g, KindOriginal
	case persist == PersistNothing:
		return g.Copy(false, true), KindComputedReadOnly
	case resultGraph == ResultOriginal:
		view.PersistInto(g)
		return g, KindComputedPersisted
	default:
		out := g.Copy(persist == PersistEdges, true)
		view.PersistInto(out)
		return out, KindComputedPersisted
	}
}
