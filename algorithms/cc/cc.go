// Package cc labels connected components by propagating the smallest raw id seen.
//
// Labels travel along out edges, so for weakly connected components the graph should be
// loaded undirected (an edge in each direction).
package cc

import (
	"github.com/ScottSallinen/lollipop-computer/computer"
	"github.com/ScottSallinen/lollipop-computer/graph"
)

const (
	KeyLabel   = "cc.label"   // Per vertex: the component label, a graph.RawType.
	MemChanged = "cc.changed" // Whether any label improved in the last round.
)

type CC struct{}

func New() *CC {
	return &CC{}
}

func (*CC) ElementComputeKeys() []string {
	return []string{KeyLabel}
}

func (*CC) MemoryComputeKeys() []computer.MemoryKey {
	return []computer.MemoryKey{{Key: MemChanged, Operator: computer.Or}}
}

func (*CC) Setup(memory computer.Memory) error {
	return memory.Set(MemChanged, false)
}

// A vertex starts with its own raw id as a label, which is unique by construction.
func (*CC) Execute(v *graph.ComputeVertex, messenger computer.Messenger[graph.RawType], memory computer.Memory) error {
	if memory.IsInitialIteration() {
		if err := v.SetProperty(KeyLabel, v.ID()); err != nil {
			return err
		}
		if v.OutDegree() == 0 {
			return nil
		}
		if err := memory.Add(MemChanged, true); err != nil {
			return err
		}
		return messenger.SendToNeighbours(v.ID())
	}

	label, _ := graph.PropertyAs[graph.RawType](v, KeyLabel)
	best := label
	for m := range messenger.Receive() {
		best = min(best, m)
	}
	// Only act on an improvement to component.
	if best >= label {
		return nil
	}
	if err := v.SetProperty(KeyLabel, best); err != nil {
		return err
	}
	if err := memory.Add(MemChanged, true); err != nil {
		return err
	}
	return messenger.SendToNeighbours(best)
}

// Stops after the first round in which no label improved.
func (*CC) Terminate(memory computer.Memory) (bool, error) {
	if memory.IsInitialIteration() {
		return false, nil
	}
	changed, err := computer.MemoryGet[bool](memory, MemChanged)
	if err != nil {
		return false, err
	}
	if err := memory.Set(MemChanged, false); err != nil {
		return false, err
	}
	return !changed, nil
}

func (*CC) Combine(a graph.RawType, b graph.RawType) graph.RawType {
	return min(a, b)
}

func (*CC) MapReducers() []computer.Job {
	return []computer.Job{computer.NewJob[graph.RawType, int](&componentSizes{})}
}
