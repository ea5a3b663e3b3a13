// Package buffer provides a channel-backed queue that grows as needed.
package buffer

import (
	"log/slog"
	"sync/atomic"
)

// Queue decouples producers from a slow consumer. Sends on In never block
// for long; items wait in a growing slice until Out is read.
//
// Usage:
//
//	q := buffer.Unbounded[event.Event](64, 4096)
//	q.In() <- event.Control(event.ActionPause)
//	ev := <-q.Out()
type Queue[T any] struct {
	in      chan T
	out     chan T
	limit   int
	length  atomic.Int64
	dropped atomic.Uint64
}

// Unbounded starts a Queue. initialCap sizes the backing slice; once
// hardLimit items are waiting the oldest is dropped for each new one.
// Closing In flushes the remaining items and then closes Out.
func Unbounded[T any](initialCap, hardLimit int) *Queue[T] {
	q := &Queue[T]{
		in:    make(chan T, 10),
		out:   make(chan T, 10),
		limit: hardLimit,
	}
	go q.run(initialCap)
	return q
}

// In returns the producer side.
func (q *Queue[T]) In() chan<- T { return q.in }

// Out returns the consumer side.
func (q *Queue[T]) Out() <-chan T { return q.out }

// Len returns the number of items waiting in the backing slice.
func (q *Queue[T]) Len() int { return int(q.length.Load()) }

// Dropped returns how many items were discarded at the limit.
func (q *Queue[T]) Dropped() uint64 { return q.dropped.Load() }

func (q *Queue[T]) run(initialCap int) {
	defer close(q.out)

	queue := make([]T, 0, initialCap)

	for {
		var next T
		var downstream chan T

		// Enable the send case only when there is something to send.
		if len(queue) > 0 {
			next = queue[0]
			downstream = q.out
		}

		select {
		case val, ok := <-q.in:
			if !ok {
				for _, item := range queue {
					q.out <- item
				}
				q.length.Store(0)
				return
			}

			if q.limit > 0 && len(queue) >= q.limit {
				q.dropped.Add(1)
				slog.Warn("queue limit reached, dropping oldest item", "limit", q.limit)
				queue = queue[1:]
			}
			queue = append(queue, val)

		case downstream <- next:
			queue = queue[1:]
		}
		q.length.Store(int64(len(queue)))
	}
}
