package sssp

import (
	"iter"
	"math"

	"github.com/ScottSallinen/lollipop-computer/computer"
	"github.com/ScottSallinen/lollipop-computer/graph"
)

// Counts vertices with a finite distance. Map only; every reached vertex emits (true, 1).
type reached struct{}

func (reached) MemoryKey() string { return MemReached }

func (reached) DoStage(stage computer.Stage) bool {
	return stage == computer.StageMap
}

func (reached) Map(v *graph.ComputeVertex, emitter computer.Emitter[bool, int]) error {
	if dist, ok := graph.PropertyAs[float64](v, KeyDistance); ok && !math.IsInf(dist, 1) {
		emitter.Emit(true, 1)
	}
	return nil
}

func (reached) Reduce(bool, iter.Seq[int], computer.Emitter[bool, int]) error {
	return nil
}

func (reached) AddResultToMemory(memory computer.Memory, results iter.Seq2[bool, int]) error {
	count := 0
	for _, c := range results {
		count += c
	}
	return memory.Set(MemReached, count)
}
