// Package degree holds map-reduce jobs summarizing graph structure.
// They need no vertex program and can be run on their own, or after one.
package degree

import (
	"cmp"
	"iter"

	"github.com/ScottSallinen/lollipop-computer/computer"
	"github.com/ScottSallinen/lollipop-computer/graph"
	"github.com/ScottSallinen/lollipop-computer/utils"
)

const (
	MemDistribution = "degree.distribution" // []utils.Pair[int, int] of (out degree, vertex count), ascending by degree.
	MemCounts       = "degree.counts"       // Counts.
)

// Distribution groups vertices by out degree.
type Distribution struct{}

func NewDistribution() computer.Job {
	return computer.NewJob[int, int](Distribution{})
}

func (Distribution) MemoryKey() string              { return MemDistribution }
func (Distribution) DoStage(computer.Stage) bool    { return true }
func (Distribution) ReduceKeySort(a int, b int) int { return cmp.Compare(a, b) }

func (Distribution) Map(v *graph.ComputeVertex, emitter computer.Emitter[int, int]) error {
	emitter.Emit(v.OutDegree(), 1)
	return nil
}

func (Distribution) Reduce(degree int, ones iter.Seq[int], emitter computer.Emitter[int, int]) error {
	count := 0
	for one := range ones {
		count += one
	}
	emitter.Emit(degree, count)
	return nil
}

func (Distribution) AddResultToMemory(memory computer.Memory, results iter.Seq2[int, int]) error {
	var distribution []utils.Pair[int, int]
	for degree, count := range results {
		distribution = append(distribution, utils.Pair[int, int]{First: degree, Second: count})
	}
	return memory.Set(MemDistribution, distribution)
}

type Counts struct {
	Vertices  int
	Edges     int
	MaxDegree int
}

// Count is a map-only job totalling vertices and edges.
type Count struct{}

func NewCount() computer.Job {
	return computer.NewJob[string, int](Count{})
}

func (Count) MemoryKey() string { return MemCounts }

func (Count) DoStage(stage computer.Stage) bool {
	return stage == computer.StageMap
}

func (Count) Map(v *graph.ComputeVertex, emitter computer.Emitter[string, int]) error {
	emitter.Emit("vertices", 1)
	emitter.Emit("edges", v.OutDegree())
	return nil
}

func (Count) Reduce(string, iter.Seq[int], computer.Emitter[string, int]) error {
	return nil
}

// The map output arrives ungrouped, one pair per emit.
func (Count) AddResultToMemory(memory computer.Memory, results iter.Seq2[string, int]) error {
	counts := Counts{}
	for key, value := range results {
		switch key {
		case "vertices":
			counts.Vertices += value
		case "edges":
			counts.Edges += value
			counts.MaxDegree = utils.Max(counts.MaxDegree, value)
		}
	}
	return memory.Set(MemCounts, counts)
}
