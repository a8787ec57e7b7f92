// Copyright 2026 Joseph Cumines
//
// Permission to use, copy, modify, and distribute this software for any
// purpose with or without fee is hereby granted, provided that this copyright
// notice appears in all copies.

package deferloop

import (
	"container/heap"
	"time"
)

// timerHeap is a min-heap of timer tasks, ordered by virtual fire time, then
// by ID (submission order), which keeps equal-delay timers FIFO.
type timerHeap []*Task

func (h timerHeap) Len() int { return len(h) }

func (h timerHeap) Less(i, j int) bool {
	if h[i].fireAt != h[j].fireAt {
		return h[i].fireAt < h[j].fireAt
	}
	return h[i].ID < h[j].ID
}

func (h timerHeap) Swap(i, j int) { h[i], h[j] = h[j], h[i] }

func (h *timerHeap) Push(x any) {
	*h = append(*h, x.(*Task))
}

func (h *timerHeap) Pop() any {
	old := *h
	n := len(old)
	x := old[n-1]
	old[n-1] = nil
	*h = old[:n-1]
	return x
}

// timerQueue wraps timerHeap with the operations the run loop needs.
type timerQueue struct {
	h timerHeap
}

func (q *timerQueue) Push(t *Task) {
	heap.Push(&q.h, t)
}

// PopDue removes and returns the earliest timer, if it is due at now and was
// submitted before the boundary ID. Timers added while the timer phase is
// running carry IDs at or above the boundary, and wait for the next turn.
func (q *timerQueue) PopDue(now time.Duration, boundary TaskID) (*Task, bool) {
	if len(q.h) == 0 {
		return nil, false
	}
	t := q.h[0]
	if t.fireAt > now || t.ID >= boundary {
		return nil, false
	}
	heap.Pop(&q.h)
	return t, true
}

// Next returns the fire time of the earliest timer.
func (q *timerQueue) Next() (time.Duration, bool) {
	if len(q.h) == 0 {
		return 0, false
	}
	return q.h[0].fireAt, true
}

// HasDue reports whether any timer is due at now.
func (q *timerQueue) HasDue(now time.Duration) bool {
	next, ok := q.Next()
	return ok && next <= now
}

func (q *timerQueue) Len() int {
	return len(q.h)
}

func (q *timerQueue) Clear() {
	clear(q.h)
	q.h = q.h[:0]
}
