package computer

import (
	"github.com/ScottSallinen/lollipop-computer/graph"
)

// VertexProgram defines a bulk synchronous computation over every vertex of the graph. M is the message type.
//
// Each round, Execute is called once per vertex, concurrently across workers, and a vertex is only
// ever executed by one worker per round. Messages sent in a round are received in the next one.
type VertexProgram[M any] interface {
	// Called once, before the first round, with the mutable memory. Initial aggregator values are set here.
	Setup(memory Memory) error

	// The per-vertex compute step. Memory reads see the state published at the end of the previous round.
	// Memory.Add contributions are folded with the key's operator and become visible next round.
	Execute(vertex *graph.ComputeVertex, messenger Messenger[M], memory Memory) error

	// Called on the orchestrator before every round, with Iteration() equal to the number of rounds
	// completed so far. Returning true ends the computation. Memory is mutable here.
	Terminate(memory Memory) (bool, error)

	// Per-vertex keys the program writes. Storage for them is transient unless the computation persists.
	ElementComputeKeys() []string

	// Global aggregators the program reads and writes.
	MemoryComputeKeys() []MemoryKey
}

// Optional, folds two messages for the same target into one.
type MessageCombiner[M any] interface {
	Combine(a M, b M) M
}

// Optional, map-reduce jobs to run after the program terminates.
type MapReducers interface {
	MapReducers() []Job
}

// Optional, the result graph used when the caller did not choose one.
type ResultGraphPreferrer interface {
	PreferredResultGraph() ResultGraph
}

// Optional, the persist mode used when the caller did not choose one.
type PersistPreferrer interface {
	PreferredPersist() Persist
}

// Optional, structural features the program needs from the computer.
type FeatureRequirer interface {
	RequiredFeatures() Requirements
}

// Optional, called for each worker (never concurrently) before a round begins.
type WorkerIterationStarter interface {
	WorkerIterationStart(memory Memory) error
}

// Optional, called for each worker (never concurrently) after all vertices of a round ran.
// Memory is the worker's view, so worker-local state can be flushed with Add.
type WorkerIterationEnder interface {
	WorkerIterationEnd(memory Memory) error
}

// Optional, gives every worker its own copy of the program, for programs holding worker-local state.
type ProgramCloner[M any] interface {
	Clone() VertexProgram[M]
}

// For ad-hoc programs built from closures, e.g. in tests.
// Every nil function is a no-op; a nil TerminateFunc terminates immediately.
type ProgramFuncs[M any] struct {
	Keys          []string
	Memory        []MemoryKey
	SetupFunc     func(memory Memory) error
	ExecuteFunc   func(vertex *graph.ComputeVertex, messenger Messenger[M], memory Memory) error
	TerminateFunc func(memory Memory) (bool, error)
	CombineFunc   func(a M, b M) M
}

func (p *ProgramFuncs[M]) Setup(memory Memory) error {
	if p.SetupFunc == nil {
		return nil
	}
	return p.SetupFunc(memory)
}

func (p *ProgramFuncs[M]) Execute(vertex *graph.ComputeVertex, messenger Messenger[M], memory Memory) error {
	if p.ExecuteFunc == nil {
		return nil
	}
	return p.ExecuteFunc(vertex, messenger, memory)
}

func (p *ProgramFuncs[M]) Terminate(memory Memory) (bool, error) {
	if p.TerminateFunc == nil {
		return true, nil
	}
	return p.TerminateFunc(memory)
}

func (p *ProgramFuncs[M]) ElementComputeKeys() []string   { return p.Keys }
func (p *ProgramFuncs[M]) MemoryComputeKeys() []MemoryKey { return p.Memory }

// Terminates once the given number of rounds have completed.
func TerminateAfter(rounds int) func(memory Memory) (bool, error) {
	return func(memory Memory) (bool, error) {
		return memory.Iteration() >= rounds, nil
	}
}

func combinerOf[M any](program VertexProgram[M]) func(a M, b M) M {
	if pf, ok := program.(*ProgramFuncs[M]); ok {
		return pf.CombineFunc
	}
	if mc, ok := any(program).(MessageCombiner[M]); ok {
		return mc.Combine
	}
	return nil
}

func cloneProgram[M any](program VertexProgram[M], units int) []VertexProgram[M] {
	programs := make([]VertexProgram[M], units)
	cloner, ok := any(program).(ProgramCloner[M])
	for w := range programs {
		if ok {
			programs[w] = cloner.Clone()
		} else {
			programs[w] = program
		}
	}
	return programs
}
