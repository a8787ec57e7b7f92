// Copyright 2026 Joseph Cumines
//
// Permission to use, copy, modify, and distribute this software for any
// purpose with or without fee is hereby granted, provided that this copyright
// notice appears in all copies.

package deferloop

import (
	"errors"
	"fmt"
)

// Standard errors.
var (
	// ErrNilCallback is returned when a nil callback is scheduled.
	ErrNilCallback = errors.New("deferloop: nil callback")

	// ErrSchedulerRunning is returned when Run is called on a scheduler that is
	// already running, including from within one of its own tasks.
	ErrSchedulerRunning = errors.New("deferloop: scheduler is already running")

	// ErrSchedulerHalted is returned when work is submitted to, or Run is
	// called on, a scheduler that has already halted.
	ErrSchedulerHalted = errors.New("deferloop: scheduler has halted")

	// ErrTaskLimitExceeded is returned by Run when more tasks executed than
	// permitted by WithTaskLimit. A microtask that unconditionally schedules
	// itself never lets the loop halt, and ends this way.
	ErrTaskLimitExceeded = errors.New("deferloop: task limit exceeded")

	// ErrIOStalled is returned by Run when every queue is empty but I/O
	// requests are still outstanding, i.e. the IOSource never delivered.
	ErrIOStalled = errors.New("deferloop: outstanding i/o requests never completed")

	// ErrNoIOSource is returned by RequestIO when the scheduler was built with
	// a nil IOSource.
	ErrNoIOSource = errors.New("deferloop: no i/o source configured")
)

// TaskError reports an uncaught task failure (a callback that returned an
// error or panicked). It halts the run loop, and is returned by
// [Scheduler.Run], exactly once.
type TaskError struct {
	Err  error
	Name string
	Turn uint64
	ID   TaskID
	Kind Kind
}

// Error implements the error interface.
func (e *TaskError) Error() string {
	var name string
	if e.Name != "" {
		name = fmt.Sprintf(" (%s)", e.Name)
	}
	return fmt.Sprintf("deferloop: %s task %d%s failed in turn %d: %v", e.Kind, e.ID, name, e.Turn, e.Err)
}

// Unwrap returns the underlying cause, for use with [errors.Is] and [errors.As].
func (e *TaskError) Unwrap() error {
	return e.Err
}

// PanicError wraps a value recovered from a panicking callback.
type PanicError struct {
	Value any
}

func (e PanicError) Error() string {
	return fmt.Sprintf("deferloop: task panicked: %v", e.Value)
}

// Unwrap returns the underlying error if the panic value is an error type.
// This enables use with [errors.Is] and [errors.As] for error matching
// through the cause chain.
//
// If the panic Value is not an error (e.g., a string or other type),
// returns nil.
func (e PanicError) Unwrap() error {
	if err, ok := e.Value.(error); ok {
		return err
	}
	return nil
}
