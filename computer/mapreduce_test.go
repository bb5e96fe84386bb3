package computer

import (
	"cmp"
	"context"
	"errors"
	"iter"
	"slices"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ScottSallinen/lollipop-computer/graph"
)

// Every vertex emits ("K", 1) n times.
type fanOut struct {
	n        int
	mapOnly  bool
	reduces  atomic.Int32
	received []string
}

func (*fanOut) MemoryKey() string { return "fanout" }

func (f *fanOut) DoStage(stage Stage) bool {
	return stage == StageMap || !f.mapOnly
}

func (f *fanOut) Map(_ *graph.ComputeVertex, emitter Emitter[string, int]) error {
	for i := 0; i < f.n; i++ {
		emitter.Emit("K", 1)
	}
	return nil
}

func (f *fanOut) Reduce(key string, values iter.Seq[int], emitter Emitter[string, int]) error {
	f.reduces.Add(1)
	emitter.Emit(key, len(slices.Collect(values)))
	return nil
}

func (f *fanOut) AddResultToMemory(memory Memory, results iter.Seq2[string, int]) error {
	out := map[string]int{}
	for k, v := range results {
		out[k] += v
		f.received = append(f.received, k)
	}
	return memory.Set(f.MemoryKey(), out)
}

func TestMapFanOut(t *testing.T) {
	for _, workers := range workerCounts() {
		for _, mapOnly := range []bool{true, false} {
			g := ring(25)
			job := &fanOut{n: 4, mapOnly: mapOnly}
			res, err := New[struct{}](g, WithWorkers(workers)).MapReduce(NewJob[string, int](job)).Run(context.Background())
			require.NoError(t, err)

			out, err := MemoryGet[map[string]int](res.Memory, "fanout")
			require.NoError(t, err)
			assert.Equal(t, map[string]int{"K": 100}, out)
			if mapOnly {
				assert.Len(t, job.received, 100, "duplicates are retained")
				assert.Zero(t, job.reduces.Load())
			} else {
				assert.Len(t, job.received, 1)
				assert.EqualValues(t, 1, job.reduces.Load(), "one reduce call per key")
			}
			assert.Equal(t, KindOriginal, res.Kind, "jobs alone default to the original graph")
			assert.Same(t, g, res.Graph)
		}
	}
}

// Sums the "val" property of vertices grouped by their "key" property.
type sumByKey struct{}

func (sumByKey) MemoryKey() string             { return "sums" }
func (sumByKey) DoStage(Stage) bool            { return true }
func (sumByKey) ReduceKeySort(a, b string) int { return strings.Compare(a, b) }

func (sumByKey) Map(v *graph.ComputeVertex, emitter Emitter[string, int]) error {
	key, _ := graph.PropertyAs[string](v, "key")
	val, _ := graph.PropertyAs[int](v, "val")
	emitter.Emit(key, val)
	return nil
}

func (sumByKey) Reduce(key string, values iter.Seq[int], emitter Emitter[string, int]) error {
	sum := 0
	for v := range values {
		sum += v
	}
	emitter.Emit(key, sum)
	return nil
}

func (sumByKey) AddResultToMemory(memory Memory, results iter.Seq2[string, int]) error {
	var keys []string
	sums := map[string]int{}
	for k, v := range results {
		keys = append(keys, k)
		sums[k] = v
	}
	if err := memory.Set("sums", sums); err != nil {
		return err
	}
	return memory.Set("order", keys)
}

func TestReduceSum(t *testing.T) {
	for _, workers := range workerCounts() {
		g := graph.New()
		for i, kv := range []struct {
			key string
			val int
		}{{"K2", 4}, {"K1", 1}, {"K1", 2}, {"K1", 3}} {
			vidx := g.AddVertex(graph.RawType(i))
			g.Vertex(vidx).SetProperty("key", kv.key)
			g.Vertex(vidx).SetProperty("val", kv.val)
		}
		program := &ProgramFuncs[int]{Memory: []MemoryKey{{Key: "order", Operator: Overwrite}}}

		res, err := New[int](g, WithWorkers(workers)).Program(program).MapReduce(NewJob[string, int](sumByKey{})).Run(context.Background())
		require.NoError(t, err)
		sums, err := MemoryGet[map[string]int](res.Memory, "sums")
		require.NoError(t, err)
		assert.Equal(t, map[string]int{"K1": 6, "K2": 4}, sums)
		order, err := MemoryGet[[]string](res.Memory, "order")
		require.NoError(t, err)
		assert.Equal(t, []string{"K1", "K2"}, order, "reduce output follows the declared sort")
	}
}

// Map-only: emits (raw id, degree), sorted by raw id descending.
type sortedDegrees struct {
	starts atomic.Int32
	ends   atomic.Int32
	clones atomic.Int32
}

func (*sortedDegrees) MemoryKey() string                 { return "degrees" }
func (*sortedDegrees) DoStage(stage Stage) bool          { return stage == StageMap }
func (*sortedDegrees) MapKeySort(a, b graph.RawType) int { return cmp.Compare(b, a) }

func (*sortedDegrees) Map(v *graph.ComputeVertex, emitter Emitter[graph.RawType, int]) error {
	emitter.Emit(v.ID(), v.OutDegree())
	return nil
}

func (*sortedDegrees) Reduce(graph.RawType, iter.Seq[int], Emitter[graph.RawType, int]) error {
	panic("not reduced")
}

func (*sortedDegrees) AddResultToMemory(memory Memory, results iter.Seq2[graph.RawType, int]) error {
	var ids []graph.RawType
	for k := range results {
		ids = append(ids, k)
	}
	return memory.Set("degrees", ids)
}

func (s *sortedDegrees) WorkerStart(Stage) error { s.starts.Add(1); return nil }
func (s *sortedDegrees) WorkerEnd(Stage) error   { s.ends.Add(1); return nil }

func (s *sortedDegrees) Clone() MapReduce[graph.RawType, int] {
	s.clones.Add(1)
	return s
}

func TestMapKeySortAndStageHooks(t *testing.T) {
	g := ring(30)
	job := &sortedDegrees{}
	res, err := New[struct{}](g, WithWorkers(3)).MapReduce(NewJob[graph.RawType, int](job)).Run(context.Background())
	require.NoError(t, err)

	ids, err := MemoryGet[[]graph.RawType](res.Memory, "degrees")
	require.NoError(t, err)
	require.Len(t, ids, 30)
	assert.True(t, slices.IsSortedFunc(ids, func(a, b graph.RawType) int { return cmp.Compare(b, a) }))
	assert.EqualValues(t, 3, job.clones.Load())
	assert.EqualValues(t, 3, job.starts.Load(), "map stage only")
	assert.EqualValues(t, 3, job.ends.Load())
}

type noMap struct{ fanOut }

func (*noMap) MemoryKey() string  { return "skipped" }
func (*noMap) DoStage(Stage) bool { return false }

func TestJobWithoutMapIsSkipped(t *testing.T) {
	res, err := New[struct{}](ring(3)).MapReduce(NewJob[string, int](&noMap{})).Run(context.Background())
	require.NoError(t, err)
	assert.False(t, res.Memory.Exists("skipped"))
}

// Reads the compute key written by the program, and tries to write it back.
type readsCompute struct{ write bool }

func (readsCompute) MemoryKey() string  { return "total" }
func (readsCompute) DoStage(Stage) bool { return true }

func (r readsCompute) Map(v *graph.ComputeVertex, emitter Emitter[string, int]) error {
	if r.write {
		if err := v.SetProperty("double", 0); err != nil {
			return err
		}
	}
	double, _ := graph.PropertyAs[int](v, "double")
	emitter.Emit("total", double)
	return nil
}

func (readsCompute) Reduce(key string, values iter.Seq[int], emitter Emitter[string, int]) error {
	sum := 0
	for v := range values {
		sum += v
	}
	emitter.Emit(key, sum)
	return nil
}

func (readsCompute) AddResultToMemory(memory Memory, results iter.Seq2[string, int]) error {
	for _, v := range results {
		return memory.Set("total", v)
	}
	return nil
}

type programWithJobs struct {
	*ProgramFuncs[int]
	jobs []Job
}

func (p *programWithJobs) MapReducers() []Job { return p.jobs }

func doubler() *ProgramFuncs[int] {
	return &ProgramFuncs[int]{
		Keys: []string{"double"},
		ExecuteFunc: func(v *graph.ComputeVertex, _ Messenger[int], _ Memory) error {
			return v.SetProperty("double", int(v.ID())*2)
		},
		TerminateFunc: TerminateAfter(1),
	}
}

func TestProgramDeclaredJobsSeeComputeKeys(t *testing.T) {
	g := ring(10)
	program := &programWithJobs{ProgramFuncs: doubler(), jobs: []Job{NewJob[string, int](readsCompute{})}}
	res, err := New[int](g).Result(ResultOriginal).Persist(PersistNothing).Program(program).Run(context.Background())
	require.NoError(t, err)
	total, err := MemoryGet[int](res.Memory, "total")
	require.NoError(t, err)
	assert.Equal(t, 90, total)
	_, ok := g.Vertex(0).Property("double")
	assert.False(t, ok)
}

func TestMapVerticesAreReadOnly(t *testing.T) {
	g := ring(10)
	_, err := New[int](g).Program(doubler()).MapReduce(NewJob[string, int](readsCompute{write: true})).Run(context.Background())
	require.ErrorIs(t, err, graph.ErrReadOnlyVertex)
	var ce *ComputationError
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, PhaseMap, ce.Phase)
	assert.Equal(t, "total", ce.Job)
	assert.Nil(t, g.ComputeView())
}

func TestJobKeyCollidingWithAggregatorRejected(t *testing.T) {
	g := ring(10)
	program := &ProgramFuncs[int]{
		Memory:        []MemoryKey{{Key: "total", Operator: Sum[int]()}},
		TerminateFunc: TerminateAfter(1),
	}

	_, err := New[int](g).Program(program).MapReduce(NewJob[string, int](readsCompute{})).Submit(context.Background())
	assert.ErrorIs(t, err, ErrInvalidMemoryKey)

	declared := &programWithJobs{ProgramFuncs: program, jobs: []Job{NewJob[string, int](readsCompute{})}}
	_, err = New[int](g).Program(declared).Submit(context.Background())
	assert.ErrorIs(t, err, ErrInvalidMemoryKey, "program declared jobs are checked too")

	_, err = New[int](g).MapReduce(NewJob[string, int](readsCompute{}), NewJob[string, int](readsCompute{})).Submit(context.Background())
	assert.ErrorIs(t, err, ErrInvalidMemoryKey, "two jobs cannot share a key")

	assert.Nil(t, g.ComputeView())
}

type panicsOnResult struct{ readsCompute }

func (panicsOnResult) AddResultToMemory(Memory, iter.Seq2[string, int]) error {
	panic("fold bug")
}

func TestAddResultPanicReportsJob(t *testing.T) {
	g := ring(5)
	_, err := New[int](g).Program(doubler()).MapReduce(NewJob[string, int](panicsOnResult{})).Run(context.Background())
	var ce *ComputationError
	require.ErrorAs(t, err, &ce)
	assert.ErrorIs(t, err, ErrWorkerPanic)
	assert.Equal(t, PhaseResult, ce.Phase)
	assert.Equal(t, "total", ce.Job)
	assert.Nil(t, g.ComputeView())
}

var errBadKey = errors.New("bad key")

// Reduce fails on key 0, which sorts first; every other key is slow.
type failingReduce struct {
	calls atomic.Int32
}

func (*failingReduce) MemoryKey() string       { return "failing" }
func (*failingReduce) DoStage(Stage) bool      { return true }
func (*failingReduce) MapKeySort(a, b int) int { return cmp.Compare(a, b) }

func (*failingReduce) Map(v *graph.ComputeVertex, emitter Emitter[int, int]) error {
	emitter.Emit(int(v.ID()), 1)
	return nil
}

func (f *failingReduce) Reduce(key int, _ iter.Seq[int], _ Emitter[int, int]) error {
	f.calls.Add(1)
	if key == 0 {
		return errBadKey
	}
	time.Sleep(time.Millisecond)
	return nil
}

func (*failingReduce) AddResultToMemory(Memory, iter.Seq2[int, int]) error {
	return nil
}

func TestReduceFailureStopsOtherWorkers(t *testing.T) {
	g := ring(1000)
	job := &failingReduce{}
	_, err := New[struct{}](g, WithWorkers(4)).MapReduce(NewJob[int, int](job)).Run(context.Background())
	require.ErrorIs(t, err, errBadKey)
	var ce *ComputationError
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, PhaseReduce, ce.Phase)
	assert.Equal(t, "failing", ce.Job)
	assert.Less(t, int(job.calls.Load()), 100, "workers stop taking keys once one fails")
}
