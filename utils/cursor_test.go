package utils

import (
	"runtime"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func Test_CursorHandsOutEachItemOnce(t *testing.T) {
	items := make([]int, 10000)
	for i := range items {
		items[i] = i
	}
	cursor := NewCursor(items)

	threads := runtime.NumCPU()
	seen := make([][]int, threads)
	var wg sync.WaitGroup
	for w := 0; w < threads; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			for {
				item, ok := cursor.Next()
				if !ok {
					return
				}
				seen[w] = append(seen[w], item)
			}
		}(w)
	}
	wg.Wait()

	counts := make([]int, len(items))
	total := 0
	for w := range seen {
		for _, item := range seen[w] {
			counts[item]++
			total++
		}
	}
	assert.Equal(t, len(items), total)
	for i, c := range counts {
		if c != 1 {
			t.Fatal("item ", i, " handed out ", c, " times")
		}
	}

	_, ok := cursor.Next()
	assert.False(t, ok)
}

func Test_CursorEmpty(t *testing.T) {
	cursor := NewCursor[string](nil)
	_, ok := cursor.Next()
	assert.False(t, ok)
	assert.Equal(t, 0, cursor.Len())
}
