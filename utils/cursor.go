package utils

import "sync/atomic"

// Cursor hands out the elements of a fixed slice to concurrent consumers.
// Every element is returned by exactly one call to Next.
type Cursor[T any] struct {
	items []T
	next  atomic.Uint64
}

func NewCursor[T any](items []T) *Cursor[T] {
	return &Cursor[T]{items: items}
}

func (c *Cursor[T]) Next() (item T, ok bool) {
	idx := c.next.Add(1) - 1
	if idx >= uint64(len(c.items)) {
		return item, false
	}
	return c.items[idx], true
}

func (c *Cursor[T]) Len() int {
	return len(c.items)
}
