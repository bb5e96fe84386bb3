package computer

import (
	"context"
	"fmt"
	"runtime/debug"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/ScottSallinen/lollipop-computer/graph"
	"github.com/ScottSallinen/lollipop-computer/utils"
)

// GraphComputer runs one vertex program and/or a set of map-reduce jobs over an in-memory graph.
// A computer accepts exactly one submission.
type GraphComputer[M any] struct {
	g        *graph.Graph
	opts     Options
	features Features

	mu          sync.Mutex
	submitted   bool
	resultGraph ResultGraph
	persist     Persist
	program     VertexProgram[M]
	jobs        []Job
}

func New[M any](g *graph.Graph, opts ...Option) *GraphComputer[M] {
	return &GraphComputer[M]{g: g, opts: buildOptions(opts), features: defaultFeatures()}
}

func (c *GraphComputer[M]) Result(resultGraph ResultGraph) *GraphComputer[M] {
	c.mu.Lock()
	c.resultGraph = resultGraph
	c.mu.Unlock()
	return c
}

func (c *GraphComputer[M]) Persist(persist Persist) *GraphComputer[M] {
	c.mu.Lock()
	c.persist = persist
	c.mu.Unlock()
	return c
}

func (c *GraphComputer[M]) Program(program VertexProgram[M]) *GraphComputer[M] {
	c.mu.Lock()
	c.program = program
	c.mu.Unlock()
	return c
}

func (c *GraphComputer[M]) MapReduce(jobs ...Job) *GraphComputer[M] {
	c.mu.Lock()
	c.jobs = append(c.jobs, jobs...)
	c.mu.Unlock()
	return c
}

func (c *GraphComputer[M]) Features() Features {
	return c.features
}

func (c *GraphComputer[M]) String() string {
	return "graphcomputer[vertices:" + utils.V(c.g.NumVertices()) + " edges:" + utils.V(c.g.NumEdges()) + " workers:" + utils.V(c.opts.Workers) + "]"
}

// Future resolves once a submitted computation finishes.
type Future struct {
	Submission string
	done       chan struct{}
	result     *Result
	err        error
}

func (f *Future) Done() <-chan struct{} {
	return f.done
}

// Blocks until the computation finishes or ctx ends. Cancelling ctx here does not stop the computation;
// cancel the context given to Submit for that.
func (f *Future) Get(ctx context.Context) (*Result, error) {
	select {
	case <-f.done:
		return f.result, f.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Everything one submission needs, frozen at submit time.
type run struct {
	ctx         context.Context
	id          string
	g           *graph.Graph
	view        *graph.ComputeView
	pool        *WorkerPool
	memory      *memory
	observer    Observer
	resultGraph ResultGraph
	persist     Persist

	// Where the orchestrator is, for errors recovered from panics outside the workers.
	phase Phase
	job   string
}

// Validates the configuration and starts the computation in the background.
// Configuration errors are returned directly and leave the graph untouched.
func (c *GraphComputer[M]) Submit(ctx context.Context) (*Future, error) {
	c.mu.Lock()
	if c.submitted {
		c.mu.Unlock()
		return nil, ErrAlreadySubmitted
	}
	c.submitted = true
	program := c.program
	jobs := append([]Job(nil), c.jobs...)
	resultGraph, persist := c.resultGraph, c.persist
	c.mu.Unlock()

	if program == nil && len(jobs) == 0 {
		return nil, ErrNoWork
	}

	memoryKeys := []MemoryKey{}
	if program != nil {
		if err := validateMemoryKeys(program.MemoryComputeKeys()); err != nil {
			return nil, err
		}
		if fr, ok := any(program).(FeatureRequirer); ok {
			if err := c.features.Satisfies(fr.RequiredFeatures()); err != nil {
				return nil, err
			}
		}
		if mrs, ok := any(program).(MapReducers); ok {
			jobs = append(jobs, mrs.MapReducers()...)
		}
		memoryKeys = append(memoryKeys, program.MemoryComputeKeys()...)
	}
	for _, j := range jobs {
		memoryKeys = append(memoryKeys, MemoryKey{Key: j.MemoryKey(), Operator: Overwrite})
	}
	if err := validateMemoryKeys(memoryKeys); err != nil {
		return nil, err
	}

	resultGraph, persist = resolveModes(program, resultGraph, persist)
	if !c.features.SupportsResultGraphPersistCombination(resultGraph, persist) {
		return nil, fmt.Errorf("%w: %s with %s", ErrUnsupportedResultPersist, resultGraph, persist)
	}

	mem, err := newMemory(memoryKeys)
	if err != nil {
		return nil, err
	}

	r := &run{
		ctx:         ctx,
		id:          uuid.NewString(),
		g:           c.g,
		memory:      mem,
		observer:    c.opts.Observer,
		resultGraph: resultGraph,
		persist:     persist,
	}
	future := &Future{Submission: r.id, done: make(chan struct{})}
	go func() {
		defer close(future.done)
		future.result, future.err = c.execute(r, program, jobs)
	}()
	return future, nil
}

// Explicit choices win, then the program's preferences, then original/nothing.
func resolveModes[M any](program VertexProgram[M], resultGraph ResultGraph, persist Persist) (ResultGraph, Persist) {
	if resultGraph == resultUnset {
		resultGraph = ResultOriginal
		if program != nil {
			resultGraph = ResultNew
			if p, ok := any(program).(ResultGraphPreferrer); ok {
				resultGraph = p.PreferredResultGraph()
			}
		}
	}
	if persist == persistUnset {
		persist = PersistNothing
		if program != nil {
			persist = PersistVertexProperties
			if p, ok := any(program).(PersistPreferrer); ok {
				persist = p.PreferredPersist()
			}
		}
	}
	return resultGraph, persist
}

func (c *GraphComputer[M]) execute(r *run, program VertexProgram[M], jobs []Job) (result *Result, err error) {
	watch := utils.Watch{}
	watch.Start()
	log.Info().Msg("Submission " + r.id + " started on " + c.String() + " result " + r.resultGraph.String() + " persist " + r.persist.String())

	defer func() {
		if p := recover(); p != nil {
			log.Error().Msg("Submission " + r.id + " panic: " + utils.V(p) + "\n" + string(debug.Stack()))
			result, err = nil, &ComputationError{Phase: r.phase, Iteration: r.memory.Iteration(), Job: r.job, Err: fmt.Errorf("%w: %v", ErrWorkerPanic, p)}
		}
		r.observer.SubmissionCompleted(watch.AbsoluteElapsed(), err)
		if err != nil {
			log.Error().Err(err).Msg("Submission " + r.id + " failed after (ms) " + utils.V(watch.AbsoluteElapsed().Milliseconds()))
		} else {
			log.Info().Msg("Submission " + r.id + " finished in (ms) " + utils.V(watch.AbsoluteElapsed().Milliseconds()))
		}
	}()

	r.phase = PhaseSetup
	var elementKeys []string
	if program != nil {
		elementKeys = program.ElementComputeKeys()
	}
	if r.view, err = c.g.CreateComputeView(elementKeys); err != nil {
		return nil, &ComputationError{Phase: PhaseSetup, Err: err}
	}
	defer c.g.DropComputeView()

	r.pool = NewWorkerPool(c.opts.Workers)
	defer r.pool.Close()

	if program != nil {
		if err = runProgram(r, program); err != nil {
			return nil, err
		}
	}
	for _, j := range jobs {
		if err = j.run(r); err != nil {
			return nil, err
		}
	}

	r.phase, r.job = PhaseResult, ""
	r.memory.setRuntime(watch.Elapsed())
	r.memory.markComplete()
	r.memory.completeSubRound()

	resultG, kind := assembleResult(r.g, r.view, r.resultGraph, r.persist)
	return &Result{Graph: resultG, Memory: r.memory.asImmutable(), Kind: kind, Submission: r.id}, nil
}

// Partitions the vertices over the pool through a shared cursor.
func (r *run) parallelVertices(fn func(worker int, vidx uint32) error) error {
	return parallelDrain(r, r.g.NewCursor().Next, fn)
}

// Runs fn over every item next hands out, on all workers. Once any worker fails, the others stop
// taking new items.
func parallelDrain[T any](r *run, next func() (T, bool), fn func(worker int, item T) error) error {
	var failed atomic.Bool
	return r.pool.Execute(func(worker int) error {
		for n := 0; !failed.Load(); n++ {
			if n&1023 == 0 {
				if err := r.ctx.Err(); err != nil {
					failed.Store(true)
					return err
				}
			}
			item, ok := next()
			if !ok {
				return nil
			}
			if err := fn(worker, item); err != nil {
				failed.Store(true)
				return err
			}
		}
		return nil
	})
}

// Submits and waits. Convenience for callers that have nothing else to do meanwhile.
func (c *GraphComputer[M]) Run(ctx context.Context) (*Result, error) {
	future, err := c.Submit(ctx)
	if err != nil {
		return nil, err
	}
	return future.Get(ctx)
}

// Time since start, for log lines.
func since(t time.Time) string {
	return utils.V(time.Since(t).Milliseconds())
}
