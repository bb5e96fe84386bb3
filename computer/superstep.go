package computer

import (
	"time"

	"github.com/rs/zerolog/log"

	"github.com/ScottSallinen/lollipop-computer/utils"
)

// Runs the program to termination: setup, then rounds until Terminate agrees.
// Every round starts from a snapshot published after the terminate check, so it sees what
// setup, terminate and the previous round wrote. Each round ends with one iteration increment.
func runProgram[M any](r *run, program VertexProgram[M]) error {
	board := NewMessageBoard[M](r.g.NumVertices(), combinerOf(program))

	r.phase = PhaseSetup
	if err := program.Setup(r.memory); err != nil {
		return &ComputationError{Phase: PhaseSetup, Err: err}
	}

	units := r.pool.Size()
	programs := cloneProgram(program, units)
	messengers := make([]vertexMessenger[M], units)
	for w := range messengers {
		messengers[w].board = board
	}

	m0 := time.Now()
	for {
		iteration := r.memory.Iteration()
		r.phase = PhaseTerminate
		done, err := program.Terminate(r.memory)
		if err != nil {
			return &ComputationError{Phase: PhaseTerminate, Iteration: iteration, Err: err}
		}
		if done {
			break
		}
		if err := r.ctx.Err(); err != nil {
			return &ComputationError{Phase: PhaseExecute, Iteration: iteration, Err: err}
		}

		r.memory.completeSubRound()

		m1 := time.Now()
		r.phase = PhaseExecute
		if err := round(r, programs, messengers); err != nil {
			return &ComputationError{Phase: PhaseExecute, Iteration: iteration, Err: err}
		}
		sent := board.CompleteIteration()
		r.memory.incrementIteration()

		elapsed := time.Since(m1)
		r.observer.SuperstepCompleted(iteration, elapsed, sent)
		log.Debug().Msg("Iteration " + utils.V(iteration) + " sent " + utils.V(sent) + " messages in (ms) " + utils.V(elapsed.Milliseconds()))
	}
	log.Info().Msg("Iterations: " + utils.V(r.memory.Iteration()) + " in (ms) " + since(m0))
	return nil
}

// One bulk synchronous round. Returns after every worker finished and flushed its memory contributions.
func round[M any](r *run, programs []VertexProgram[M], messengers []vertexMessenger[M]) error {
	workerMemories := make([]*workerMemory, len(programs))
	for w := range workerMemories {
		workerMemories[w] = newWorkerMemory(r.memory)
	}

	err := r.pool.ForEachWorker(func(w int) error {
		if ws, ok := programs[w].(WorkerIterationStarter); ok {
			return ws.WorkerIterationStart(workerMemories[w])
		}
		return nil
	})
	if err != nil {
		return err
	}

	err = r.parallelVertices(func(worker int, vidx uint32) error {
		vertex := r.view.Vertex(vidx, false)
		messenger := &messengers[worker]
		messenger.vertex = vertex
		return programs[worker].Execute(vertex, messenger, workerMemories[worker])
	})
	if err != nil {
		return err
	}

	err = r.pool.ForEachWorker(func(w int) error {
		if we, ok := programs[w].(WorkerIterationEnder); ok {
			return we.WorkerIterationEnd(workerMemories[w])
		}
		return nil
	})
	if err != nil {
		return err
	}

	for w := range workerMemories {
		if err := r.memory.merge(workerMemories[w].partial); err != nil {
			return err
		}
	}
	return nil
}
