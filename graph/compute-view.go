package graph

import (
	"fmt"
	"slices"
)

// ComputeView holds transient per-vertex state for a running computation.
// State for vertex vidx lives in its own slot range, so a worker that owns a vertex for a round
// can read and write it without locking.
type ComputeView struct {
	g     *Graph
	keys  []string
	slots map[string]int
	state []any // [vidx*len(keys) + slot]
	isSet []bool
}

// Attaches a fresh compute view for the given keys. Only one view may be attached at a time.
func (g *Graph) CreateComputeView(keys []string) (*ComputeView, error) {
	g.viewMu.Lock()
	defer g.viewMu.Unlock()
	if g.view != nil {
		return nil, ErrViewExists
	}

	cv := &ComputeView{g: g, slots: make(map[string]int, len(keys))}
	for _, k := range keys {
		if _, dup := cv.slots[k]; dup {
			continue
		}
		cv.slots[k] = len(cv.keys)
		cv.keys = append(cv.keys, k)
	}
	cv.state = make([]any, len(g.Vertices)*len(cv.keys))
	cv.isSet = make([]bool, len(cv.state))
	g.view = cv
	return cv, nil
}

// The currently attached view, or nil.
func (g *Graph) ComputeView() *ComputeView {
	g.viewMu.Lock()
	defer g.viewMu.Unlock()
	return g.view
}

// Discards the attached view and all state in it. Safe to call when nothing is attached.
func (g *Graph) DropComputeView() {
	g.viewMu.Lock()
	g.view = nil
	g.viewMu.Unlock()
}

func (cv *ComputeView) Keys() []string {
	return slices.Clone(cv.keys)
}

func (cv *ComputeView) IsComputeKey(key string) bool {
	_, ok := cv.slots[key]
	return ok
}

func (cv *ComputeView) Get(vidx uint32, key string) (any, bool) {
	slot, ok := cv.slots[key]
	if !ok {
		return nil, false
	}
	pos := int(vidx)*len(cv.keys) + slot
	return cv.state[pos], cv.isSet[pos]
}

func (cv *ComputeView) Set(vidx uint32, key string, value any) error {
	slot, ok := cv.slots[key]
	if !ok {
		return fmt.Errorf("%w: %q", ErrNotComputeKey, key)
	}
	if int(vidx) >= len(cv.g.Vertices) {
		return fmt.Errorf("%w: index %d", ErrUnknownVertex, vidx)
	}
	pos := int(vidx)*len(cv.keys) + slot
	cv.state[pos] = value
	cv.isSet[pos] = true
	return nil
}

// Writes every set compute value into the matching vertex of dst as a regular property.
// dst must share internal indices with the viewed graph (the viewed graph itself, or a Copy of it).
func (cv *ComputeView) PersistInto(dst *Graph) {
	stride := len(cv.keys)
	if stride == 0 {
		return
	}
	for vidx := range dst.Vertices {
		for slot, key := range cv.keys {
			pos := vidx*stride + slot
			if cv.isSet[pos] {
				dst.Vertices[vidx].SetProperty(key, cv.state[pos])
			}
		}
	}
}

// A handle on one vertex during a computation.
func (cv *ComputeView) Vertex(vidx uint32, readOnly bool) *ComputeVertex {
	return &ComputeVertex{view: cv, vertex: &cv.g.Vertices[vidx], idx: vidx, readOnly: readOnly}
}

// ComputeVertex is what programs see of a vertex: its structure, its persistent properties,
// and the compute keys declared for the running computation.
type ComputeVertex struct {
	view     *ComputeView
	vertex   *Vertex
	idx      uint32
	readOnly bool
}

func (v *ComputeVertex) Index() uint32 {
	return v.idx
}

func (v *ComputeVertex) ID() RawType {
	return v.vertex.RawId
}

func (v *ComputeVertex) OutEdges() []Edge {
	return v.vertex.OutEdges
}

func (v *ComputeVertex) OutDegree() int {
	return len(v.vertex.OutEdges)
}

// Compute keys shadow persistent properties of the same name.
func (v *ComputeVertex) Property(key string) (any, bool) {
	if v.view.IsComputeKey(key) {
		return v.view.Get(v.idx, key)
	}
	return v.vertex.Property(key)
}

func (v *ComputeVertex) SetProperty(key string, value any) error {
	if v.readOnly {
		return ErrReadOnlyVertex
	}
	return v.view.Set(v.idx, key, value)
}

// Typed read of a property. Returns the zero value when absent or of another type.
func PropertyAs[T any](v *ComputeVertex, key string) (T, bool) {
	raw, ok := v.Property(key)
	if !ok {
		var zero T
		return zero, false
	}
	typed, ok := raw.(T)
	return typed, ok
}
