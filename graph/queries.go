package graph

import "sync/atomic"

// Cursor hands out internal vertex indices [0, |V|) to concurrent workers.
// Each index is won by exactly one call to Next; none are skipped or repeated.
type Cursor struct {
	size uint32
	next atomic.Uint32
}

func (g *Graph) NewCursor() *Cursor {
	return &Cursor{size: uint32(len(g.Vertices))}
}

func (c *Cursor) Next() (vidx uint32, ok bool) {
	vidx = c.next.Add(1) - 1
	if vidx >= c.size {
		// Park the counter at the end so repeated exhausted calls cannot wrap around.
		c.next.Store(c.size)
		return 0, false
	}
	return vidx, true
}

// Basic iteration over all vertices in the graph, in internal index order.
func (g *Graph) ForEachVertex(applicator func(vidx uint32, vertex *Vertex)) {
	for vidx := range g.Vertices {
		applicator(uint32(vidx), &g.Vertices[vidx])
	}
}

// Collects a persistent property of every vertex, indexed by internal id. Missing values are the zero value of T.
func PropertyValues[T any](g *Graph, key string) []T {
	out := make([]T, len(g.Vertices))
	g.ForEachVertex(func(vidx uint32, vertex *Vertex) {
		if raw, ok := vertex.Property(key); ok {
			if typed, ok := raw.(T); ok {
				out[vidx] = typed
			}
		}
	})
	return out
}
