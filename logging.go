// Copyright 2026 Joseph Cumines
//
// Permission to use, copy, modify, and distribute this software for any
// purpose with or without fee is hereby granted, provided that this copyright
// notice appears in all copies.

package deferloop

import (
	"errors"
	"time"

	"github.com/joeycumines/logiface"
)

// Log categories, attached as the "category" field.
const (
	logCategoryRun   = "run"
	logCategoryPhase = "phase"
	logCategoryTask  = "task"
	logCategoryClock = "clock"
)

// withTask attaches the task identity fields. Safe to call with a nil
// (disabled) builder.
func withTask(b *logiface.Builder[logiface.Event], t *Task) *logiface.Builder[logiface.Event] {
	b = b.Str("category", logCategoryTask).
		Uint64("task_id", uint64(t.ID)).
		Str("kind", t.Kind.String())
	if t.Name != "" {
		b = b.Str("name", t.Name)
	}
	return b
}

func (s *Scheduler) logTaskRun(t *Task) {
	withTask(s.logger.Trace(), t).
		Uint64("turn", s.turn).
		Dur("clock", s.now).
		Log("running task")
}

func (s *Scheduler) logTaskFailed(err *TaskError) {
	s.logger.Err().
		Str("category", logCategoryTask).
		Uint64("task_id", uint64(err.ID)).
		Str("kind", err.Kind.String()).
		Str("name", err.Name).
		Uint64("turn", err.Turn).
		Err(err.Err).
		Log("task failed, halting")
}

func (s *Scheduler) logPhase(k Kind, n int) {
	s.logger.Debug().
		Str("category", logCategoryPhase).
		Str("phase", k.String()).
		Uint64("turn", s.turn).
		Int("tasks", n).
		Log("visiting phase")
}

func (s *Scheduler) logClockAdvance(from, to time.Duration) {
	s.logger.Debug().
		Str("category", logCategoryClock).
		Dur("from", from).
		Dur("to", to).
		Log("advancing virtual clock to next timer")
}

// logRunDone logs the end of a run. Task failures were already logged by
// logTaskFailed, so only other errors are attached here.
func (s *Scheduler) logRunDone(err error) {
	var taskErr *TaskError
	status := "ok"
	var b *logiface.Builder[logiface.Event]
	switch {
	case err == nil:
		b = s.logger.Info()
	case errors.As(err, &taskErr):
		status = "failed"
		b = s.logger.Info()
	default:
		status = "failed"
		b = s.logger.Warning().Err(err)
	}
	b.Str("category", logCategoryRun).
		Str("status", status).
		Uint64("turns", s.stats.Turns).
		Uint64("tasks", s.stats.Total()).
		Dur("clock", s.now).
		Log("run finished")
}
