// Package sssp computes single-source shortest paths over weighted out edges.
package sssp

import (
	"math"

	"github.com/ScottSallinen/lollipop-computer/computer"
	"github.com/ScottSallinen/lollipop-computer/graph"
)

const (
	KeyDistance = "sssp.distance" // Per vertex: float64 distance from the source, +Inf when unreached.
	MemUpdates  = "sssp.updates"  // Number of distance improvements in the last round.
	MemReached  = "sssp.reached"  // Number of vertices with a finite distance, filled in after the program.
)

type SSSP struct {
	Source graph.RawType
}

func New(source graph.RawType) *SSSP {
	return &SSSP{Source: source}
}

func (*SSSP) ElementComputeKeys() []string {
	return []string{KeyDistance}
}

func (*SSSP) MemoryComputeKeys() []computer.MemoryKey {
	return []computer.MemoryKey{{Key: MemUpdates, Operator: computer.Sum[int64]()}}
}

func (*SSSP) Setup(memory computer.Memory) error {
	return memory.Set(MemUpdates, int64(0))
}

func (alg *SSSP) Execute(v *graph.ComputeVertex, messenger computer.Messenger[float64], memory computer.Memory) error {
	if memory.IsInitialIteration() {
		if v.ID() != alg.Source {
			return v.SetProperty(KeyDistance, math.Inf(1))
		}
		if err := v.SetProperty(KeyDistance, 0.0); err != nil {
			return err
		}
		if err := memory.Add(MemUpdates, int64(1)); err != nil {
			return err
		}
		return relax(v, messenger, 0.0)
	}

	dist, _ := graph.PropertyAs[float64](v, KeyDistance)
	best := dist
	for m := range messenger.Receive() {
		best = math.Min(best, m)
	}
	// Only act on an improvement to shortest path.
	if best >= dist {
		return nil
	}
	if err := v.SetProperty(KeyDistance, best); err != nil {
		return err
	}
	if err := memory.Add(MemUpdates, int64(1)); err != nil {
		return err
	}
	return relax(v, messenger, best)
}

func relax(v *graph.ComputeVertex, messenger computer.Messenger[float64], dist float64) error {
	for _, e := range v.OutEdges() {
		if err := messenger.Send(e.Didx, dist+e.Weight); err != nil {
			return err
		}
	}
	return nil
}

// Stops after the first round without improvement.
func (*SSSP) Terminate(memory computer.Memory) (bool, error) {
	if memory.IsInitialIteration() {
		return false, nil
	}
	updates, err := computer.MemoryGet[int64](memory, MemUpdates)
	if err != nil {
		return false, err
	}
	if err := memory.Set(MemUpdates, int64(0)); err != nil {
		return false, err
	}
	return updates == 0, nil
}

func (*SSSP) Combine(a float64, b float64) float64 {
	return math.Min(a, b)
}

func (*SSSP) MapReducers() []computer.Job {
	return []computer.Job{computer.NewJob[bool, int](reached{})}
}
