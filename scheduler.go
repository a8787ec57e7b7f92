// Copyright 2026 Joseph Cumines
//
// Permission to use, copy, modify, and distribute this software for any
// purpose with or without fee is hereby granted, provided that this copyright
// notice appears in all copies.

package deferloop

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/joeycumines/logiface"
)

// Scheduler is the deferred task scheduler: four FIFO queues, a virtual
// clock, and a run loop that drains them in a fixed phase order.
//
// Each turn visits the I/O completion, timer, then immediate phases. Every
// task, including the synchronous body, is followed by a full microtask
// drain before anything else runs.
//
// A Scheduler is single-threaded, and is not safe for concurrent use. Tasks
// may be scheduled before [Scheduler.Run], or from callbacks running on the
// Run goroutine. Each Scheduler runs once.
type Scheduler struct { // betteralign:ignore
	logger   *logiface.Logger[logiface.Event]
	tracer   Tracer
	ioSource IOSource
	err      error

	microtasks  taskQueue
	immediates  taskQueue
	ioCallbacks taskQueue
	timers      timerQueue

	stats Stats

	// now is the virtual clock, it only moves when the loop would otherwise
	// be waiting on a timer.
	now  time.Duration
	turn uint64

	nextID        TaskID
	executed      int
	taskLimit     int
	outstandingIO int

	state State
}

// New creates a new scheduler.
func New(opts ...Option) (*Scheduler, error) {
	cfg, err := resolveOptions(opts)
	if err != nil {
		return nil, err
	}
	return &Scheduler{
		logger:    cfg.logger,
		tracer:    cfg.tracer,
		ioSource:  cfg.ioSource,
		taskLimit: cfg.taskLimit,
	}, nil
}

// ScheduleMicrotask appends fn to the microtask queue. It runs before any
// further macrotask, including microtasks scheduled by other microtasks, so
// a chain that keeps rescheduling itself starves every other phase.
func (s *Scheduler) ScheduleMicrotask(name string, fn Callback) (TaskID, error) {
	return s.submit(KindMicrotask, name, 0, fn)
}

// ScheduleTimer appends fn to the timer queue, due at Now() + delay.
// Negative delays are treated as zero. A zero delay never runs
// synchronously: the timer waits for the next timer phase, and a timer
// scheduled from within the timer phase waits for the next turn.
func (s *Scheduler) ScheduleTimer(name string, delay time.Duration, fn Callback) (TaskID, error) {
	return s.submit(KindTimer, name, delay, fn)
}

// ScheduleImmediate appends fn to the immediate queue, which runs after the
// timer phase of a turn.
func (s *Scheduler) ScheduleImmediate(name string, fn Callback) (TaskID, error) {
	return s.submit(KindImmediate, name, 0, fn)
}

// ScheduleIOCompletion appends fn to the I/O callback queue, as if an I/O
// operation had just completed. See also [Scheduler.RequestIO].
func (s *Scheduler) ScheduleIOCompletion(name string, fn Callback) (TaskID, error) {
	return s.submit(KindIOCompletion, name, 0, fn)
}

// RequestIO submits req to the configured [IOSource]. When the source
// delivers the completion, cb is queued as an I/O completion task.
// Completions delivered after the scheduler halted are dropped.
//
// An error from the source means the request was not delivered: a
// completion the source delivered before returning the error is discarded,
// and cb never runs.
func (s *Scheduler) RequestIO(name string, req IORequest, cb IOCallback) error {
	if cb == nil {
		return ErrNilCallback
	}
	if !s.state.CanAcceptWork() {
		return ErrSchedulerHalted
	}
	if s.ioSource == nil {
		return ErrNoIOSource
	}

	enqueue := func(c IOCompletion) {
		_, _ = s.submit(KindIOCompletion, name, 0, func() error {
			return cb(c)
		})
	}

	var (
		delivered, returned bool
		early               *IOCompletion
	)
	s.outstandingIO++
	err := s.ioSource.NotifyOnCompletion(req, func(c IOCompletion) {
		if delivered {
			return
		}
		delivered = true
		s.outstandingIO--
		if !returned {
			// held until the source reports success
			early = &c
			return
		}
		enqueue(c)
	})
	returned = true
	if err != nil {
		if !delivered {
			delivered = true
			s.outstandingIO--
		}
		return fmt.Errorf("deferloop: i/o request %s %q: %w", req.Op, req.Path, err)
	}
	if early != nil {
		enqueue(*early)
	}
	return nil
}

// Mark emits an execution marker to the configured [Tracer].
func (s *Scheduler) Mark(label string) {
	s.logger.Trace().
		Str("category", logCategoryRun).
		Str("marker", label).
		Log("marker")
	if s.tracer != nil {
		s.tracer.Mark(label)
	}
}

// Run executes body (the synchronous program, may be nil), then drains the
// queues until all of them are empty.
//
// Run returns a [*TaskError] if any callback fails, [ErrTaskLimitExceeded]
// if the limit configured by [WithTaskLimit] is exceeded, [ErrIOStalled] if
// I/O requests never complete, or the context's error if ctx is done. In
// every case, the scheduler halts, discarding any remaining tasks.
func (s *Scheduler) Run(ctx context.Context, body Callback) (err error) {
	switch s.state {
	case StateRunning:
		return ErrSchedulerRunning
	case StateHalted:
		return ErrSchedulerHalted
	}
	s.state = StateRunning

	defer func() {
		s.state = StateHalted
		s.err = err
		if err != nil {
			s.discard()
		}
		s.logRunDone(err)
	}()

	if body != nil {
		if err := s.runTask(ctx, &Task{fn: body, Name: "main", Kind: KindSync}); err != nil {
			return err
		}
	} else if err := s.drainMicrotasks(ctx); err != nil {
		return err
	}

	for s.Pending() > 0 {
		s.turn++
		s.stats.Turns = s.turn
		s.advanceClock()
		for _, k := range phaseOrder {
			if err := s.runPhase(ctx, k); err != nil {
				return err
			}
		}
	}

	if s.outstandingIO > 0 {
		return fmt.Errorf("%w: %d outstanding", ErrIOStalled, s.outstandingIO)
	}

	return nil
}

// Now returns the virtual clock.
func (s *Scheduler) Now() time.Duration {
	return s.now
}

// Turn returns the current (or last) turn number. Turn 0 is the synchronous
// body and its microtask drain.
func (s *Scheduler) Turn() uint64 {
	return s.turn
}

// Pending returns the number of queued tasks, across all four queues.
func (s *Scheduler) Pending() int {
	return s.microtasks.Len() + s.timers.Len() + s.immediates.Len() + s.ioCallbacks.Len()
}

// State returns the lifecycle state.
func (s *Scheduler) State() State {
	return s.state
}

// Err returns the error Run returned, if any.
func (s *Scheduler) Err() error {
	return s.err
}

// Stats returns a snapshot of the execution counters.
func (s *Scheduler) Stats() Stats {
	st := s.stats
	st.Clock = s.now
	return st
}

func (s *Scheduler) submit(kind Kind, name string, delay time.Duration, fn Callback) (TaskID, error) {
	if fn == nil {
		return 0, ErrNilCallback
	}
	if !s.state.CanAcceptWork() {
		return 0, ErrSchedulerHalted
	}

	s.nextID++
	t := &Task{
		fn:          fn,
		Name:        name,
		ScheduledAt: s.now,
		Turn:        s.turn,
		ID:          s.nextID,
		Kind:        kind,
	}

	switch kind {
	case KindMicrotask:
		s.microtasks.Push(t)
	case KindTimer:
		t.Delay = max(delay, 0)
		// saturate, a huge delay must not wrap around to an already due time
		if t.Delay > math.MaxInt64-s.now {
			t.fireAt = math.MaxInt64
		} else {
			t.fireAt = s.now + t.Delay
		}
		s.timers.Push(t)
	case KindImmediate:
		s.immediates.Push(t)
	case KindIOCompletion:
		s.ioCallbacks.Push(t)
	default:
		panic(fmt.Sprintf("deferloop: cannot schedule %s task", kind))
	}

	return t.ID, nil
}

// advanceClock jumps the virtual clock to the earliest timer, if nothing else
// could run this turn.
func (s *Scheduler) advanceClock() {
	if s.ioCallbacks.Len() != 0 || s.immediates.Len() != 0 || s.timers.HasDue(s.now) {
		return
	}
	next, ok := s.timers.Next()
	if !ok {
		return
	}
	s.logClockAdvance(s.now, next)
	s.now = next
	s.stats.ClockAdvances++
}

// runPhase runs the snapshot of a macrotask queue: only tasks present when
// the visit started. Tasks added to the same queue meanwhile wait for the
// next turn.
func (s *Scheduler) runPhase(ctx context.Context, k Kind) error {
	if k == KindTimer {
		if !s.timers.HasDue(s.now) {
			return nil
		}
		s.logPhase(k, s.timers.Len())
		boundary := s.nextID + 1
		for {
			t, ok := s.timers.PopDue(s.now, boundary)
			if !ok {
				return nil
			}
			if err := s.runTask(ctx, t); err != nil {
				return err
			}
		}
	}

	q := s.queue(k)
	n := q.Len()
	if n == 0 {
		return nil
	}
	s.logPhase(k, n)
	for range n {
		t, ok := q.Pop()
		if !ok {
			break
		}
		if err := s.runTask(ctx, t); err != nil {
			return err
		}
	}
	return nil
}

// runTask executes one task, followed by a full microtask drain (unless the
// task is itself a microtask, in which case the enclosing drain continues).
func (s *Scheduler) runTask(ctx context.Context, t *Task) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if t.Kind != KindSync {
		if s.taskLimit > 0 && s.executed >= s.taskLimit {
			return fmt.Errorf("%w: limit %d", ErrTaskLimitExceeded, s.taskLimit)
		}
		s.executed++
	}
	s.stats.recordExecuted(t.Kind)
	s.logTaskRun(t)

	if err := invoke(t); err != nil {
		taskErr := &TaskError{
			Err:  err,
			Name: t.Name,
			Turn: s.turn,
			ID:   t.ID,
			Kind: t.Kind,
		}
		s.logTaskFailed(taskErr)
		return taskErr
	}

	if t.Kind == KindMicrotask {
		return nil
	}
	return s.drainMicrotasks(ctx)
}

// drainMicrotasks runs microtasks until the queue is empty, including any
// scheduled during the drain.
func (s *Scheduler) drainMicrotasks(ctx context.Context) error {
	var n int
	defer func() {
		s.stats.recordDrain(n)
	}()
	for {
		t, ok := s.microtasks.Pop()
		if !ok {
			return nil
		}
		n++
		if err := s.runTask(ctx, t); err != nil {
			return err
		}
	}
}

// invoke calls the task's callback with panic recovery. The callback is
// released, so the task cannot run twice.
func invoke(t *Task) (err error) {
	fn := t.fn
	t.fn = nil
	defer func() {
		if r := recover(); r != nil {
			err = PanicError{Value: r}
		}
	}()
	return fn()
}

func (s *Scheduler) queue(k Kind) *taskQueue {
	switch k {
	case KindMicrotask:
		return &s.microtasks
	case KindImmediate:
		return &s.immediates
	case KindIOCompletion:
		return &s.ioCallbacks
	default:
		panic(fmt.Sprintf("deferloop: no fifo queue for %s", k))
	}
}

// discard drops every queued task.
func (s *Scheduler) discard() {
	s.microtasks.Clear()
	s.immediates.Clear()
	s.ioCallbacks.Clear()
	s.timers.Clear()
}
