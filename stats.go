// Copyright 2026 Joseph Cumines
//
// Permission to use, copy, modify, and distribute this software for any
// purpose with or without fee is hereby granted, provided that this copyright
// notice appears in all copies.

package deferloop

import (
	"time"
)

// Stats is a snapshot of a scheduler's execution counters.
//
// Example:
//
//	s, _ := deferloop.New()
//	_ = s.Run(ctx, body)
//	st := s.Stats()
//	fmt.Printf("turns=%d timers=%d\n", st.Turns, st.Executed(deferloop.KindTimer))
type Stats struct {
	// Clock is the virtual clock value.
	Clock time.Duration

	// Turns is the number of completed or in-progress macrotask turns.
	Turns uint64

	// MaxMicrotaskDrain is the most microtasks run by a single drain.
	MaxMicrotaskDrain int

	// ClockAdvances counts how many times the virtual clock jumped forward
	// to the next timer.
	ClockAdvances int

	executed [KindIOCompletion + 1]uint64
}

// Executed returns the number of tasks of kind k that ran, including one
// that failed. KindSync counts the synchronous body.
func (x Stats) Executed(k Kind) uint64 {
	if int(k) >= len(x.executed) {
		return 0
	}
	return x.executed[k]
}

// Total returns the number of deferred tasks that ran, excluding the
// synchronous body.
func (x Stats) Total() (n uint64) {
	for k := KindMicrotask; k <= KindIOCompletion; k++ {
		n += x.executed[k]
	}
	return
}

func (x *Stats) recordExecuted(k Kind) {
	if int(k) < len(x.executed) {
		x.executed[k]++
	}
}

func (x *Stats) recordDrain(n int) {
	if n > x.MaxMicrotaskDrain {
		x.MaxMicrotaskDrain = n
	}
}
