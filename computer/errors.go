package computer

import (
	"errors"
	"strconv"
)

// Configuration errors, returned synchronously from Submit before any work starts.
var (
	ErrAlreadySubmitted         = errors.New("computer: graph computer has already been submitted")
	ErrNoWork                   = errors.New("computer: no vertex program or map-reduce jobs configured")
	ErrUnsupportedResultPersist = errors.New("computer: unsupported result graph and persist combination")
	ErrProgramIncompatible      = errors.New("computer: vertex program requires features this computer does not support")
	ErrInvalidMemoryKey         = errors.New("computer: invalid memory key")
)

// Memory errors.
var (
	ErrUndefinedAggregator = errors.New("computer: undefined memory aggregator")
	ErrImmutableMemory     = errors.New("computer: memory is immutable")
	ErrSetDuringExecute    = errors.New("computer: memory can only be added to during execute")
	ErrMemoryType          = errors.New("computer: memory value has an unexpected type")
)

// Worker pool errors.
var (
	ErrPoolClosed  = errors.New("computer: worker pool is closed")
	ErrWorkerPanic = errors.New("computer: worker panicked")
)

type Phase string

const (
	PhaseSetup     Phase = "setup"
	PhaseExecute   Phase = "execute"
	PhaseTerminate Phase = "terminate"
	PhaseMap       Phase = "map"
	PhaseReduce    Phase = "reduce"
	PhaseResult    Phase = "result"
)

// ComputationError reports a failure after the computation started. The future of the submission resolves with it.
type ComputationError struct {
	Phase     Phase
	Iteration int
	Job       string // Memory key of the map-reduce job, for map/reduce/result phases.
	Err       error
}

func (e *ComputationError) Error() string {
	where := string(e.Phase)
	if e.Job != "" {
		where += " of job " + strconv.Quote(e.Job)
	}
	return "computer: " + where + " failed at iteration " + strconv.Itoa(e.Iteration) + ": " + e.Err.Error()
}

func (e *ComputationError) Unwrap() error {
	return e.Err
}
