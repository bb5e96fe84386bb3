package graph

import (
	"cmp"
	"slices"

	gonum "gonum.org/v1/gonum/graph"
	"gonum.org/v1/gonum/graph/simple"
)

// Imports a gonum graph. Node ids become raw ids; internal indices follow ascending node id.
// Weights are taken from gonum.Weighted graphs, otherwise DEFAULT_WEIGHT.
// Undirected gonum graphs produce an edge in each direction.
func FromGonum(gg gonum.Graph) *Graph {
	nodes := gonum.NodesOf(gg.Nodes())
	slices.SortFunc(nodes, byID)

	g := New()
	for _, n := range nodes {
		g.AddVertex(RawType(n.ID()))
	}
	weighted, isWeighted := gg.(gonum.Weighted)
	for _, n := range nodes {
		targets := gonum.NodesOf(gg.From(n.ID()))
		slices.SortFunc(targets, byID)
		for _, t := range targets {
			weight := DEFAULT_WEIGHT
			if isWeighted {
				if w, ok := weighted.Weight(n.ID(), t.ID()); ok {
					weight = w
				}
			}
			g.AddEdge(RawType(n.ID()), RawType(t.ID()), weight)
		}
	}
	return g
}

func byID(a, b gonum.Node) int {
	return cmp.Compare(a.ID(), b.ID())
}

// Exports the structure as a gonum weighted directed graph keyed by raw id.
// Self loops are dropped; parallel edges keep the smallest weight.
func (g *Graph) ToGonum() *simple.WeightedDirectedGraph {
	gg := simple.NewWeightedDirectedGraph(0, 0)
	for vidx := range g.Vertices {
		gg.AddNode(simple.Node(g.Vertices[vidx].RawId))
	}
	for vidx := range g.Vertices {
		src := g.Vertices[vidx].RawId
		for _, e := range g.Vertices[vidx].OutEdges {
			dst := g.Vertices[e.Didx].RawId
			if dst == src {
				continue
			}
			if existing, ok := gg.Weight(int64(src), int64(dst)); ok && existing <= e.Weight {
				continue
			}
			gg.SetWeightedEdge(gg.NewWeightedEdge(simple.Node(src), simple.Node(dst), e.Weight))
		}
	}
	return gg
}
