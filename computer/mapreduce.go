package computer

import (
	"iter"
	"slices"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/ScottSallinen/lollipop-computer/graph"
	"github.com/ScottSallinen/lollipop-computer/utils"
)

type Stage int

const (
	StageMap Stage = iota
	StageReduce
)

func (s Stage) String() string {
	if s == StageMap {
		return "map"
	}
	return "reduce"
}

// MapReduce aggregates over the vertices once the vertex program (if any) has finished.
// Map sees read-only vertices, including the program's compute keys.
type MapReduce[K comparable, V any] interface {
	// The memory key the job writes its result to. Declared automatically with the Overwrite operator.
	MemoryKey() string

	// A job that does not map is skipped. A job that does not reduce stores its map output.
	DoStage(stage Stage) bool

	Map(vertex *graph.ComputeVertex, emitter Emitter[K, V]) error
	Reduce(key K, values iter.Seq[V], emitter Emitter[K, V]) error

	// Receives the reduce output, or the map output when the job does not reduce.
	AddResultToMemory(memory Memory, results iter.Seq2[K, V]) error
}

// Emitter collects key/value pairs from map or reduce. Each worker has its own.
type Emitter[K comparable, V any] interface {
	Emit(key K, value V)
}

// Optional, orders keys after the map stage.
type MapKeySorter[K comparable] interface {
	MapKeySort(a K, b K) int
}

// Optional, orders the reduce output.
type ReduceKeySorter[K comparable] interface {
	ReduceKeySort(a K, b K) int
}

// Optional, called for each worker (never concurrently) before a stage.
type StageWorkerStarter interface {
	WorkerStart(stage Stage) error
}

// Optional, called for each worker (never concurrently) after a stage.
type StageWorkerEnder interface {
	WorkerEnd(stage Stage) error
}

// Optional, gives every worker its own copy of the job.
type JobCloner[K comparable, V any] interface {
	Clone() MapReduce[K, V]
}

// Job is a type-erased MapReduce, so jobs with different key and value types can share a computer.
type Job interface {
	MemoryKey() string
	run(r *run) error
}

func NewJob[K comparable, V any](mr MapReduce[K, V]) Job {
	return &job[K, V]{mr: mr}
}

type job[K comparable, V any] struct {
	mr MapReduce[K, V]
}

func (j *job[K, V]) MemoryKey() string {
	return j.mr.MemoryKey()
}

// Pairs emitted by one worker.
type shard[K comparable, V any] struct {
	pairs []utils.Pair[K, V]
}

func (s *shard[K, V]) Emit(key K, value V) {
	s.pairs = append(s.pairs, utils.Pair[K, V]{First: key, Second: value})
}

func concat[K comparable, V any](shards []*shard[K, V]) (out []utils.Pair[K, V]) {
	total := 0
	for _, s := range shards {
		total += len(s.pairs)
	}
	out = make([]utils.Pair[K, V], 0, total)
	for _, s := range shards {
		out = append(out, s.pairs...)
	}
	return out
}

func pairsSeq[K comparable, V any](pairs []utils.Pair[K, V]) iter.Seq2[K, V] {
	return func(yield func(K, V) bool) {
		for _, p := range pairs {
			if !yield(p.First, p.Second) {
				return
			}
		}
	}
}

func newShards[K comparable, V any](units int) []*shard[K, V] {
	shards := make([]*shard[K, V], units)
	for w := range shards {
		shards[w] = &shard[K, V]{}
	}
	return shards
}

func (j *job[K, V]) clones(units int) []MapReduce[K, V] {
	jobs := make([]MapReduce[K, V], units)
	cloner, ok := j.mr.(JobCloner[K, V])
	for w := range jobs {
		if ok {
			jobs[w] = cloner.Clone()
		} else {
			jobs[w] = j.mr
		}
	}
	return jobs
}

func (j *job[K, V]) stageHooks(r *run, jobs []MapReduce[K, V], stage Stage, start bool) error {
	return r.pool.ForEachWorker(func(w int) error {
		if start {
			if ws, ok := jobs[w].(StageWorkerStarter); ok {
				return ws.WorkerStart(stage)
			}
		} else if we, ok := jobs[w].(StageWorkerEnder); ok {
			return we.WorkerEnd(stage)
		}
		return nil
	})
}

func (j *job[K, V]) fail(r *run, phase Phase, err error) error {
	return &ComputationError{Phase: phase, Iteration: r.memory.Iteration(), Job: j.MemoryKey(), Err: err}
}

func (j *job[K, V]) run(r *run) error {
	if !j.mr.DoStage(StageMap) {
		log.Debug().Msg("Job " + j.MemoryKey() + " does not map, skipping")
		return nil
	}
	r.job = j.MemoryKey()
	units := r.pool.Size()
	jobs := j.clones(units)

	// Map.
	r.phase = PhaseMap
	m0 := time.Now()
	mapShards := newShards[K, V](units)
	if err := j.stageHooks(r, jobs, StageMap, true); err != nil {
		return j.fail(r, PhaseMap, err)
	}
	err := r.parallelVertices(func(worker int, vidx uint32) error {
		return jobs[worker].Map(r.view.Vertex(vidx, true), mapShards[worker])
	})
	if err != nil {
		return j.fail(r, PhaseMap, err)
	}
	if err := j.stageHooks(r, jobs, StageMap, false); err != nil {
		return j.fail(r, PhaseMap, err)
	}
	mapped := concat(mapShards)
	r.observer.StageCompleted(j.MemoryKey(), StageMap, time.Since(m0), len(mapped))
	log.Debug().Msg("Job " + j.MemoryKey() + " map emitted " + utils.V(len(mapped)) + " pairs in (ms) " + utils.V(time.Since(m0).Milliseconds()))

	mapSort, hasMapSort := j.mr.(MapKeySorter[K])
	if !j.mr.DoStage(StageReduce) {
		if hasMapSort {
			slices.SortStableFunc(mapped, func(a, b utils.Pair[K, V]) int { return mapSort.MapKeySort(a.First, b.First) })
		}
		r.phase = PhaseResult
		if err := j.mr.AddResultToMemory(r.memory, pairsSeq(mapped)); err != nil {
			return j.fail(r, PhaseResult, err)
		}
		return nil
	}

	// Group by key; keys keep the order they were first seen in.
	grouped := make(map[K][]V)
	keys := make([]K, 0)
	for _, p := range mapped {
		values, seen := grouped[p.First]
		if !seen {
			keys = append(keys, p.First)
		}
		grouped[p.First] = append(values, p.Second)
	}
	if hasMapSort {
		slices.SortStableFunc(keys, mapSort.MapKeySort)
	}

	// Reduce.
	r.phase = PhaseReduce
	m1 := time.Now()
	reduceShards := newShards[K, V](units)
	if err := j.stageHooks(r, jobs, StageReduce, true); err != nil {
		return j.fail(r, PhaseReduce, err)
	}
	err = parallelDrain(r, utils.NewCursor(keys).Next, func(worker int, key K) error {
		return jobs[worker].Reduce(key, slices.Values(grouped[key]), reduceShards[worker])
	})
	if err != nil {
		return j.fail(r, PhaseReduce, err)
	}
	if err := j.stageHooks(r, jobs, StageReduce, false); err != nil {
		return j.fail(r, PhaseReduce, err)
	}
	reduced := concat(reduceShards)
	if reduceSort, ok := j.mr.(ReduceKeySorter[K]); ok {
		slices.SortStableFunc(reduced, func(a, b utils.Pair[K, V]) int { return reduceSort.ReduceKeySort(a.First, b.First) })
	}
	r.observer.StageCompleted(j.MemoryKey(), StageReduce, time.Since(m1), len(reduced))
	log.Debug().Msg("Job " + j.MemoryKey() + " reduced " + utils.V(len(keys)) + " keys in (ms) " + utils.V(time.Since(m1).Milliseconds()))

	r.phase = PhaseResult
	if err := j.mr.AddResultToMemory(r.memory, pairsSeq(reduced)); err != nil {
		return j.fail(r, PhaseResult, err)
	}
	return nil
}
