// Copyright 2026 Joseph Cumines
//
// Permission to use, copy, modify, and distribute this software for any
// purpose with or without fee is hereby granted, provided that this copyright
// notice appears in all copies.

package deferloop

import (
	"sync"
)

// chunkSize is the number of tasks per node in the taskQueue linked list.
const chunkSize = 64

// taskQueue is a chunked linked-list FIFO of tasks.
//
// It is not synchronized: the scheduler is single-threaded, and only ever
// touches its queues from the Run goroutine (or before Run).
type taskQueue struct {
	head   *chunk
	tail   *chunk
	length int
}

// chunkPool recycles chunks between queues and schedulers.
var chunkPool = sync.Pool{
	New: func() any {
		return &chunk{}
	},
}

// chunk is a fixed-size node, with readPos/pos cursors for O(1) push and pop.
type chunk struct {
	tasks   [chunkSize]*Task
	next    *chunk
	readPos int // first unread slot
	pos     int // first unused slot
}

func newChunk() *chunk {
	c := chunkPool.Get().(*chunk)
	c.pos = 0
	c.readPos = 0
	c.next = nil
	return c
}

// returnChunk clears every slot, so no task (or its closure) is retained by
// the pool.
func returnChunk(c *chunk) {
	for i := 0; i < c.pos; i++ {
		c.tasks[i] = nil
	}
	c.pos = 0
	c.readPos = 0
	c.next = nil
	chunkPool.Put(c)
}

// Push appends a task.
func (q *taskQueue) Push(t *Task) {
	if q.tail == nil {
		q.tail = newChunk()
		q.head = q.tail
	}

	if q.tail.pos == len(q.tail.tasks) {
		next := newChunk()
		q.tail.next = next
		q.tail = next
	}

	q.tail.tasks[q.tail.pos] = t
	q.tail.pos++
	q.length++
}

// Pop removes and returns the oldest task, or false if the queue is empty.
func (q *taskQueue) Pop() (*Task, bool) {
	if q.head == nil || q.head.readPos >= q.head.pos {
		return nil, false
	}

	t := q.head.tasks[q.head.readPos]
	q.head.tasks[q.head.readPos] = nil
	q.head.readPos++
	q.length--

	if q.head.readPos >= q.head.pos {
		if q.head == q.tail {
			// only chunk, reuse it
			q.head.pos = 0
			q.head.readPos = 0
		} else {
			old := q.head
			q.head = q.head.next
			returnChunk(old)
		}
	}

	return t, true
}

// Len returns the number of queued tasks.
func (q *taskQueue) Len() int {
	return q.length
}

// Clear discards every queued task, returning all chunks to the pool.
func (q *taskQueue) Clear() {
	for c := q.head; c != nil; {
		next := c.next
		returnChunk(c)
		c = next
	}
	q.head = nil
	q.tail = nil
	q.length = 0
}
