package computer

import "time"

// Observer is notified of progress. Calls come from the orchestrating goroutine, one at a time.
type Observer interface {
	SuperstepCompleted(iteration int, elapsed time.Duration, messages uint64)
	StageCompleted(job string, stage Stage, elapsed time.Duration, emitted int)
	SubmissionCompleted(elapsed time.Duration, err error)
}

type nopObserver struct{}

func (nopObserver) SuperstepCompleted(int, time.Duration, uint64)    {}
func (nopObserver) StageCompleted(string, Stage, time.Duration, int) {}
func (nopObserver) SubmissionCompleted(time.Duration, error)         {}
