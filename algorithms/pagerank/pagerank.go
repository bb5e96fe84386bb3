// Package pagerank computes (unnormalized) PageRank: every vertex starts with a mass of 1.0,
// so ranks sum to the number of vertices when no mass leaks through sinks.
package pagerank

import (
	"math"

	"github.com/ScottSallinen/lollipop-computer/computer"
	"github.com/ScottSallinen/lollipop-computer/graph"
)

const (
	DAMPINGFACTOR = float64(0.85)
	INITMASS      = 1.0

	KeyRank  = "pagerank.rank"  // Per vertex: float64 rank.
	MemDelta = "pagerank.delta" // L1 change of all ranks over the last round.
)

var EPSILON = float64(0.001)

type PageRank struct {
	Damping       float64
	Epsilon       float64 // Converged once a round changes the ranks by less than this, in total.
	MaxIterations int     // Zero means no limit.

	delta float64 // Worker local, flushed at the end of each round.
}

func New(maxIterations int) *PageRank {
	return &PageRank{Damping: DAMPINGFACTOR, Epsilon: EPSILON, MaxIterations: maxIterations}
}

func (pr *PageRank) Clone() computer.VertexProgram[float64] {
	return &PageRank{Damping: pr.Damping, Epsilon: pr.Epsilon, MaxIterations: pr.MaxIterations}
}

func (*PageRank) ElementComputeKeys() []string {
	return []string{KeyRank}
}

func (*PageRank) MemoryComputeKeys() []computer.MemoryKey {
	return []computer.MemoryKey{{Key: MemDelta, Operator: computer.Sum[float64]()}}
}

// Ranks are written into the input graph unless the caller asks otherwise.
func (*PageRank) PreferredResultGraph() computer.ResultGraph {
	return computer.ResultOriginal
}

func (*PageRank) PreferredPersist() computer.Persist {
	return computer.PersistVertexProperties
}

func (*PageRank) Setup(memory computer.Memory) error {
	return memory.Set(MemDelta, 0.0)
}

func (pr *PageRank) WorkerIterationStart(computer.Memory) error {
	pr.delta = 0
	return nil
}

func (pr *PageRank) WorkerIterationEnd(memory computer.Memory) error {
	return memory.Add(MemDelta, pr.delta)
}

func (pr *PageRank) Execute(v *graph.ComputeVertex, messenger computer.Messenger[float64], memory computer.Memory) error {
	rank := INITMASS
	if !memory.IsInitialIteration() {
		sum := 0.0
		for m := range messenger.Receive() {
			sum += m
		}
		rank = (1.0 - pr.Damping) + pr.Damping*sum
		old, _ := graph.PropertyAs[float64](v, KeyRank)
		pr.delta += math.Abs(rank - old)
	}
	if err := v.SetProperty(KeyRank, rank); err != nil {
		return err
	}
	if v.OutDegree() == 0 {
		return nil
	}
	return messenger.SendToNeighbours(rank / float64(v.OutDegree()))
}

func (pr *PageRank) Terminate(memory computer.Memory) (bool, error) {
	iteration := memory.Iteration()
	if iteration == 0 {
		return false, nil
	}
	if pr.MaxIterations > 0 && iteration >= pr.MaxIterations {
		return true, nil
	}
	delta, err := computer.MemoryGet[float64](memory, MemDelta)
	if err != nil {
		return false, err
	}
	if err := memory.Set(MemDelta, 0.0); err != nil {
		return false, err
	}
	// The first round only seeds the initial mass, so there is no change to measure yet.
	return iteration >= 2 && delta < pr.Epsilon, nil
}

func (*PageRank) Combine(a float64, b float64) float64 {
	return a + b
}
