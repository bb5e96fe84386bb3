package computer

import (
	"fmt"
	"iter"
	"slices"
	"sync"
	"sync/atomic"

	"github.com/ScottSallinen/lollipop-computer/graph"
)

type mailbox[M any] struct {
	mu   sync.Mutex
	msgs []M
}

// MessageBoard is a per-vertex double buffer. Messages sent during round i are only readable in round i+1.
type MessageBoard[M any] struct {
	combine  func(a M, b M) M // Optional. When set, a vertex holds at most one pending message.
	incoming []mailbox[M]
	outgoing []mailbox[M]
	sent     atomic.Uint64 // Sends since the last CompleteIteration.
}

func NewMessageBoard[M any](numVertices int, combine func(a M, b M) M) *MessageBoard[M] {
	return &MessageBoard[M]{
		combine:  combine,
		incoming: make([]mailbox[M], numVertices),
		outgoing: make([]mailbox[M], numVertices),
	}
}

// Queues msg for delivery to target in the next round.
func (mb *MessageBoard[M]) Send(target uint32, msg M) error {
	if int(target) >= len(mb.outgoing) {
		return fmt.Errorf("%w: index %d", graph.ErrUnknownVertex, target)
	}
	box := &mb.outgoing[target]
	box.mu.Lock()
	if mb.combine != nil && len(box.msgs) > 0 {
		box.msgs[0] = mb.combine(box.msgs[0], msg)
	} else {
		box.msgs = append(box.msgs, msg)
	}
	box.mu.Unlock()
	mb.sent.Add(1)
	return nil
}

// Messages delivered to vidx for the current round. Only the worker executing vidx may call this.
func (mb *MessageBoard[M]) Receive(vidx uint32) iter.Seq[M] {
	return slices.Values(mb.incoming[vidx].msgs)
}

// Messages queued for the next round, after combining.
func (mb *MessageBoard[M]) Pending() (pending int) {
	for i := range mb.outgoing {
		pending += len(mb.outgoing[i].msgs)
	}
	return pending
}

// Makes this round's outgoing messages the next round's incoming ones and empties the outgoing side.
// Must only be called between rounds. Returns how many sends happened in the round that just finished.
func (mb *MessageBoard[M]) CompleteIteration() (sent uint64) {
	mb.incoming, mb.outgoing = mb.outgoing, mb.incoming
	for i := range mb.outgoing {
		clear(mb.outgoing[i].msgs)
		mb.outgoing[i].msgs = mb.outgoing[i].msgs[:0]
	}
	return mb.sent.Swap(0)
}

// Messenger is a vertex's view of the message board.
type Messenger[M any] interface {
	Send(target uint32, msg M) error // Target is an internal vertex index, e.g. Edge.Didx.
	SendToNeighbours(msg M) error    // Sends to the target of every out edge.
	Receive() iter.Seq[M]
}

// One per worker, re-pointed at each vertex the worker executes.
type vertexMessenger[M any] struct {
	board  *MessageBoard[M]
	vertex *graph.ComputeVertex
}

func (vm *vertexMessenger[M]) Send(target uint32, msg M) error {
	return vm.board.Send(target, msg)
}

func (vm *vertexMessenger[M]) SendToNeighbours(msg M) error {
	for _, e := range vm.vertex.OutEdges() {
		if err := vm.board.Send(e.Didx, msg); err != nil {
			return err
		}
	}
	return nil
}

func (vm *vertexMessenger[M]) Receive() iter.Seq[M] {
	return vm.board.Receive(vm.vertex.Index())
}
