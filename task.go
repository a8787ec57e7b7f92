// Copyright 2026 Joseph Cumines
//
// Permission to use, copy, modify, and distribute this software for any
// purpose with or without fee is hereby granted, provided that this copyright
// notice appears in all copies.

package deferloop

import (
	"fmt"
	"time"
)

// Kind identifies which deferred-execution category a task belongs to.
//
// The zero value, [KindSync], is reserved for the synchronous program body
// passed to [Scheduler.Run]. It has no queue.
type Kind uint8

const (
	// KindSync is the synchronous program body.
	KindSync Kind = iota
	// KindMicrotask tasks are drained to exhaustion after every other task.
	KindMicrotask
	// KindTimer tasks run in the timer phase, once their fire time is due.
	KindTimer
	// KindImmediate tasks run in the immediate phase, after timers.
	KindImmediate
	// KindIOCompletion tasks run in the I/O phase, the first of each turn.
	KindIOCompletion
)

// phaseOrder is the fixed order in which macrotask queues are visited, each
// turn.
var phaseOrder = [...]Kind{KindIOCompletion, KindTimer, KindImmediate}

// String returns the short name of the kind, as used in logs and errors.
func (k Kind) String() string {
	switch k {
	case KindSync:
		return "sync"
	case KindMicrotask:
		return "microtask"
	case KindTimer:
		return "timer"
	case KindImmediate:
		return "immediate"
	case KindIOCompletion:
		return "io"
	default:
		return fmt.Sprintf("Kind(%d)", uint8(k))
	}
}

// IsMacrotask reports whether tasks of this kind belong to a phase-ordered
// queue.
func (k Kind) IsMacrotask() bool {
	return k == KindTimer || k == KindImmediate || k == KindIOCompletion
}

// TaskID identifies a task within a single [Scheduler]. IDs start at 1 and
// increase monotonically in submission order.
type TaskID uint64

// Callback is the body of a deferred task. A non-nil error halts the run
// loop, see [TaskError].
type Callback func() error

// Task is a single unit of deferred work, owned by exactly one queue until it
// runs. Tasks never survive past one execution.
type Task struct {
	fn Callback

	// Name is an optional label, reported in logs and errors.
	Name string

	// ScheduledAt is the virtual clock value at submission.
	ScheduledAt time.Duration

	// Delay is the requested delay (timers only).
	Delay time.Duration

	// fireAt is ScheduledAt + Delay (timers only).
	fireAt time.Duration

	// Turn is the turn number at submission, 0 for the synchronous body and
	// the microtask drain that follows it.
	Turn uint64

	ID   TaskID
	Kind Kind
}

// String formats the task identity, e.g. `timer#3(name)`.
func (t *Task) String() string {
	if t == nil {
		return "<nil>"
	}
	if t.Name == "" {
		return fmt.Sprintf("%s#%d", t.Kind, t.ID)
	}
	return fmt.Sprintf("%s#%d(%s)", t.Kind, t.ID, t.Name)
}
