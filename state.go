// Copyright 2026 Joseph Cumines
//
// Permission to use, copy, modify, and distribute this software for any
// purpose with or without fee is hereby granted, provided that this copyright
// notice appears in all copies.

package deferloop

// State represents the lifecycle of a [Scheduler].
//
//	StateIdle → StateRunning   [Run()]
//	StateRunning → StateHalted [Run() returns]
//	StateHalted → (terminal)
type State uint8

const (
	// StateIdle indicates the scheduler has been created but not run. Tasks
	// may be scheduled, and will run once Run is called.
	StateIdle State = iota
	// StateRunning indicates Run is in progress.
	StateRunning
	// StateHalted indicates Run has returned. The scheduler cannot be reused.
	StateHalted
)

// String returns a human-readable representation of the state.
func (s State) String() string {
	switch s {
	case StateIdle:
		return "Idle"
	case StateRunning:
		return "Running"
	case StateHalted:
		return "Halted"
	default:
		return "Unknown"
	}
}

// CanAcceptWork returns true if tasks may still be scheduled.
func (s State) CanAcceptWork() bool {
	return s == StateIdle || s == StateRunning
}
