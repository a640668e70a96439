// Package multicore carries commands and status between the motion context
// and the supervisory context. Each side only ever writes its own end of a
// queue, so no locks are needed.
package multicore

import "sync/atomic"

// QueueCapacity is the number of entries each message queue holds.
const QueueCapacity = 4

// Queue is a bounded single-producer single-consumer ring. Push is only
// called from the producing context and Pop only from the consuming one.
type Queue[T any] struct {
	buf   [QueueCapacity + 1]T
	read  atomic.Uint32
	write atomic.Uint32
}

const ringSize = QueueCapacity + 1

// Push appends v. It returns false without touching the queue when full.
func (q *Queue[T]) Push(v T) bool {
	w := q.write.Load()
	next := (w + 1) % ringSize
	if next == q.read.Load() {
		return false
	}
	q.buf[w] = v
	q.write.Store(next)
	return true
}

// Pop removes the oldest entry
func (q *Queue[T]) Pop() (T, bool) {
	var zero T
	r := q.read.Load()
	if r == q.write.Load() {
		return zero, false
	}
	v := q.buf[r]
	q.read.Store((r + 1) % ringSize)
	return v, true
}

// Len returns the number of queued entries
func (q *Queue[T]) Len() int {
	w, r := q.write.Load(), q.read.Load()
	return int((w + ringSize - r) % ringSize)
}

// IsEmpty reports whether nothing is queued
func (q *Queue[T]) IsEmpty() bool {
	return q.read.Load() == q.write.Load()
}
