package cc

import (
	"cmp"
	"iter"

	"github.com/ScottSallinen/lollipop-computer/computer"
	"github.com/ScottSallinen/lollipop-computer/graph"
)

// Memory key of the component size table, a map[graph.RawType]int keyed by label.
const MemSizes = "cc.sizes"

type componentSizes struct{}

func (componentSizes) MemoryKey() string                    { return MemSizes }
func (componentSizes) DoStage(computer.Stage) bool          { return true }
func (componentSizes) ReduceKeySort(a, b graph.RawType) int { return cmp.Compare(a, b) }

func (componentSizes) Map(v *graph.ComputeVertex, emitter computer.Emitter[graph.RawType, int]) error {
	if label, ok := graph.PropertyAs[graph.RawType](v, KeyLabel); ok {
		emitter.Emit(label, 1)
	}
	return nil
}

func (componentSizes) Reduce(label graph.RawType, counts iter.Seq[int], emitter computer.Emitter[graph.RawType, int]) error {
	total := 0
	for c := range counts {
		total += c
	}
	emitter.Emit(label, total)
	return nil
}

func (componentSizes) AddResultToMemory(memory computer.Memory, results iter.Seq2[graph.RawType, int]) error {
	sizes := make(map[graph.RawType]int)
	for label, size := range results {
		sizes[label] = size
	}
	return memory.Set(MemSizes, sizes)
}
