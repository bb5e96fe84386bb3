package computer

import (
	"fmt"
	"runtime/debug"
	"sync"
	"sync/atomic"

	"github.com/hashicorp/go-multierror"
	"github.com/rs/zerolog/log"

	"github.com/ScottSallinen/lollipop-computer/utils"
)

// WorkerPool is a fixed set of long-lived workers shared by every round and stage of one computation.
// Execute hands the same task to every worker and returns once all of them are done.
type WorkerPool struct {
	size    int
	tasks   []chan func(worker int) error
	results chan error
	wg      sync.WaitGroup
	exec    sync.Mutex
	closed  atomic.Bool
}

func NewWorkerPool(size int) *WorkerPool {
	if size < 1 {
		size = 1
	}
	p := &WorkerPool{
		size:    size,
		tasks:   make([]chan func(worker int) error, size),
		results: make(chan error, size),
	}
	for w := 0; w < size; w++ {
		p.tasks[w] = make(chan func(worker int) error, 1)
		p.wg.Add(1)
		go p.loop(w)
	}
	log.Trace().Msg("Worker pool started with " + utils.V(size) + " workers")
	return p
}

func (p *WorkerPool) Size() int {
	return p.size
}

func (p *WorkerPool) loop(worker int) {
	defer p.wg.Done()
	for task := range p.tasks[worker] {
		p.results <- runTask(worker, task)
	}
}

func runTask(worker int, task func(worker int) error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			log.Error().Msg("Worker " + utils.V(worker) + " panic: " + utils.V(r) + "\n" + string(debug.Stack()))
			err = fmt.Errorf("%w: worker %d: %v", ErrWorkerPanic, worker, r)
		}
	}()
	return task(worker)
}

// Runs task on every worker and waits for all of them. Errors from all workers are combined.
func (p *WorkerPool) Execute(task func(worker int) error) error {
	p.exec.Lock()
	defer p.exec.Unlock()
	if p.closed.Load() {
		return ErrPoolClosed
	}
	for w := 0; w < p.size; w++ {
		p.tasks[w] <- task
	}
	var errs *multierror.Error
	for w := 0; w < p.size; w++ {
		if err := <-p.results; err != nil {
			errs = multierror.Append(errs, err)
		}
	}
	return errs.ErrorOrNil()
}

// Calls fn for each worker in order, on the calling goroutine. Used for lifecycle hooks that must not interleave.
func (p *WorkerPool) ForEachWorker(fn func(worker int) error) error {
	for w := 0; w < p.size; w++ {
		if err := runTask(w, fn); err != nil {
			return err
		}
	}
	return nil
}

// Stops all workers and waits for them to exit. Safe to call more than once.
func (p *WorkerPool) Close() {
	if !p.closed.CompareAndSwap(false, true) {
		return
	}
	p.exec.Lock()
	for w := 0; w < p.size; w++ {
		close(p.tasks[w])
	}
	p.exec.Unlock()
	p.wg.Wait()
}
