package computer

import (
	"errors"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWorkerPoolRunsEveryWorker(t *testing.T) {
	pool := NewWorkerPool(4)
	defer pool.Close()

	for round := 0; round < 3; round++ {
		var ran [4]atomic.Int32
		require.NoError(t, pool.Execute(func(worker int) error {
			ran[worker].Add(1)
			return nil
		}))
		for w := range ran {
			assert.EqualValues(t, 1, ran[w].Load(), "worker %d", w)
		}
	}
}

func TestWorkerPoolCombinesErrors(t *testing.T) {
	pool := NewWorkerPool(3)
	defer pool.Close()

	errOdd := errors.New("odd worker")
	err := pool.Execute(func(worker int) error {
		if worker%2 == 1 {
			return errOdd
		}
		return nil
	})
	assert.ErrorIs(t, err, errOdd)

	err = pool.Execute(func(worker int) error {
		if worker == 2 {
			panic("boom")
		}
		return nil
	})
	assert.ErrorIs(t, err, ErrWorkerPanic)

	assert.NoError(t, pool.Execute(func(int) error { return nil }), "pool survives a panic")
}

func TestWorkerPoolClose(t *testing.T) {
	pool := NewWorkerPool(0)
	assert.Equal(t, 1, pool.Size())
	pool.Close()
	pool.Close()
	assert.ErrorIs(t, pool.Execute(func(int) error { return nil }), ErrPoolClosed)
}

func TestWorkerPoolForEachWorkerIsSequential(t *testing.T) {
	pool := NewWorkerPool(8)
	defer pool.Close()

	var order []int
	require.NoError(t, pool.ForEachWorker(func(worker int) error {
		order = append(order, worker)
		return nil
	}))
	assert.Equal(t, []int{0, 1, 2, 3, 4, 5, 6, 7}, order)
}
