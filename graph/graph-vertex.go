package graph

// Defines a vertex in a graph.
type Vertex struct {
	RawId      RawType        // Raw (external) ID of the vertex.
	OutEdges   []Edge         // Main outgoing edgelist.
	Properties map[string]any // Persistent properties. Computations only write here when asked to persist.
}

func (v *Vertex) Property(key string) (value any, ok bool) {
	value, ok = v.Properties[key]
	return value, ok
}

func (v *Vertex) SetProperty(key string, value any) {
	if v.Properties == nil {
		v.Properties = make(map[string]any)
	}
	v.Properties[key] = value
}
