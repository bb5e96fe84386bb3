package graph

import (
	"errors"
	"strconv"
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/ScottSallinen/lollipop-computer/utils"
)

// Raw (external) identifier of a vertex. Internal indices are assigned in order of first appearance.
type RawType uint32

func (r RawType) String() string {
	return strconv.Itoa(int(r))
}

func (r RawType) Integer() uint32 {
	return uint32(r)
}

var (
	ErrUnknownVertex  = errors.New("graph: unknown vertex")
	ErrViewExists     = errors.New("graph: a compute view is already attached")
	ErrNotComputeKey  = errors.New("graph: property is not a declared compute key")
	ErrReadOnlyVertex = errors.New("graph: vertex is read-only")
)

// Graph is a single-node, in-memory property graph.
// Structure is not thread safe: build it fully before handing it to a computation.
type Graph struct {
	VertexMap map[RawType]uint32 // Raw to internal.
	Vertices  []Vertex           // Indexed by internal id.

	viewMu sync.Mutex
	view   *ComputeView // Transient compute state of a running computation, if any.
}

func New() *Graph {
	return &Graph{VertexMap: make(map[RawType]uint32)}
}

// Adds the vertex if it is not yet present. Returns its internal index either way.
func (g *Graph) AddVertex(rawId RawType) uint32 {
	if vidx, ok := g.VertexMap[rawId]; ok {
		return vidx
	}
	vidx := uint32(len(g.Vertices))
	g.VertexMap[rawId] = vidx
	g.Vertices = append(g.Vertices, Vertex{RawId: rawId})
	return vidx
}

// Adds a directed edge, creating either endpoint as needed.
func (g *Graph) AddEdge(srcRaw RawType, dstRaw RawType, weight float64) {
	sidx := g.AddVertex(srcRaw)
	didx := g.AddVertex(dstRaw)
	g.Vertices[sidx].OutEdges = append(g.Vertices[sidx].OutEdges, Edge{Didx: didx, Weight: weight})
}

func (g *Graph) Vertex(vidx uint32) *Vertex {
	return &g.Vertices[vidx]
}

// Returns the internal index and vertex for a raw id, or nil if it does not exist.
func (g *Graph) VertexFromRaw(rawId RawType) (uint32, *Vertex) {
	if vidx, ok := g.VertexMap[rawId]; ok {
		return vidx, &g.Vertices[vidx]
	}
	return 0, nil
}

func (g *Graph) NumVertices() int {
	return len(g.Vertices)
}

func (g *Graph) NumEdges() (sum int) {
	for vidx := range g.Vertices {
		sum += len(g.Vertices[vidx].OutEdges)
	}
	return sum
}

// Copies the vertex set, keeping internal indices. Edges and properties are optional.
func (g *Graph) Copy(withEdges bool, withProperties bool) *Graph {
	other := &Graph{
		VertexMap: make(map[RawType]uint32, len(g.VertexMap)),
		Vertices:  make([]Vertex, len(g.Vertices)),
	}
	for raw, vidx := range g.VertexMap {
		other.VertexMap[raw] = vidx
	}
	for vidx := range g.Vertices {
		src := &g.Vertices[vidx]
		dst := &other.Vertices[vidx]
		dst.RawId = src.RawId
		if withEdges {
			dst.OutEdges = append([]Edge(nil), src.OutEdges...)
		}
		if withProperties && len(src.Properties) > 0 {
			dst.Properties = make(map[string]any, len(src.Properties))
			for k, v := range src.Properties {
				dst.Properties[k] = v
			}
		}
	}
	return other
}

func (g *Graph) ComputeGraphStats() {
	if len(g.Vertices) == 0 {
		log.Info().Msg("----GraphStats----")
		log.Info().Msg("Empty graph.")
		log.Info().Msg("----EndStats----")
		return
	}
	numSinks := 0
	listOutDegree := make([]int, len(g.Vertices))
	for vidx := range g.Vertices {
		listOutDegree[vidx] = len(g.Vertices[vidx].OutEdges)
		if listOutDegree[vidx] == 0 {
			numSinks++
		}
	}
	log.Info().Msg("----GraphStats----")
	log.Info().Msg("Vertices " + utils.V(len(g.Vertices)))
	log.Info().Msg("Sinks " + utils.V(numSinks) + " pct:" + utils.F("%.3f", float64(numSinks)*100.0/float64(len(g.Vertices))))
	log.Info().Msg("Edges " + utils.V(utils.Sum(listOutDegree)))
	log.Info().Msg("MaxOutDeg " + utils.V(utils.MaxSlice(listOutDegree)))
	log.Info().Msg("MedianOutDeg " + utils.V(utils.Median(listOutDegree)))
	log.Info().Msg("----EndStats----")
}
