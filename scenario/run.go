// Copyright 2026 Joseph Cumines
//
// Permission to use, copy, modify, and distribute this software for any
// purpose with or without fee is hereby granted, provided that this copyright
// notice appears in all copies.

package scenario

import (
	"context"
	"errors"
	"fmt"
	"io"
	"slices"

	"github.com/joeycumines/go-deferloop"
)

// Result is the outcome of one scenario run.
type Result struct {
	Scenario *Scenario
	// Err is the error returned by [deferloop.Scheduler.Run].
	Err     error
	Markers []string
	Stats   deferloop.Stats
}

// MismatchError reports the first marker that differs from the expectation.
type MismatchError struct {
	Want     []string
	Got      []string
	Scenario string
	Index    int
}

func (e *MismatchError) Error() string {
	return fmt.Sprintf("scenario %s: marker %d: want %s, got %s",
		e.Scenario, e.Index, markerAt(e.Want, e.Index), markerAt(e.Got, e.Index))
}

func markerAt(markers []string, i int) string {
	if i < len(markers) {
		return fmt.Sprintf("%q", markers[i])
	}
	return "<end>"
}

// Run executes the scenario on a new scheduler, configured by opts. Each
// marker is also written to out (which may be nil) as it is emitted.
//
// The returned error reports setup failures only, the outcome of the run
// itself is [Result.Err].
func (x *Scenario) Run(ctx context.Context, out io.Writer, opts ...deferloop.Option) (*Result, error) {
	trace := deferloop.NewTrace(out)

	var source deferloop.IOSource = deferloop.ImmediateSource{}
	if x.fsys != nil {
		source = deferloop.FileSource{FS: x.fsys}
	}

	all := make([]deferloop.Option, 0, len(opts)+2)
	all = append(all, deferloop.WithIOSource(source))
	all = append(all, opts...)
	all = append(all, deferloop.WithTracer(trace))

	s, err := deferloop.New(all...)
	if err != nil {
		return nil, err
	}

	err = s.Run(ctx, compile(s, x.Program))

	return &Result{
		Scenario: x,
		Err:      err,
		Markers:  trace.Markers(),
		Stats:    s.Stats(),
	}, nil
}

// Verify checks the result against the scenario's expectations.
func (x *Result) Verify() error {
	sc := x.Scenario
	if sc.ExpectFailure {
		var taskErr *deferloop.TaskError
		if !errors.As(x.Err, &taskErr) {
			if x.Err != nil {
				return fmt.Errorf("scenario %s: expected a task failure: %w", sc.Name, x.Err)
			}
			return fmt.Errorf("scenario %s: expected a task failure", sc.Name)
		}
	} else if x.Err != nil {
		return x.Err
	}

	if sc.Expect == nil || slices.Equal(sc.Expect, x.Markers) {
		return nil
	}
	i := 0
	for i < len(sc.Expect) && i < len(x.Markers) && sc.Expect[i] == x.Markers[i] {
		i++
	}
	return &MismatchError{
		Want:     sc.Expect,
		Got:      x.Markers,
		Scenario: sc.Name,
		Index:    i,
	}
}

// compile converts steps into a callback that executes them in order, on s.
func compile(s *deferloop.Scheduler, steps []Step) deferloop.Callback {
	return func() error {
		for i := range steps {
			if err := execute(s, &steps[i]); err != nil {
				return err
			}
		}
		return nil
	}
}

func execute(s *deferloop.Scheduler, step *Step) (err error) {
	switch {
	case step.Log != "":
		s.Mark(step.Log)
	case step.Fail != "":
		return errors.New(step.Fail)
	case step.Microtask != nil:
		_, err = s.ScheduleMicrotask(step.Microtask.Name, compile(s, step.Microtask.Do))
	case step.Timer != nil:
		_, err = s.ScheduleTimer(step.Timer.Name, step.Timer.delay, compile(s, step.Timer.Do))
	case step.Immediate != nil:
		_, err = s.ScheduleImmediate(step.Immediate.Name, compile(s, step.Immediate.Do))
	case step.IO != nil:
		b := step.IO
		do := compile(s, b.Do)
		err = s.RequestIO(b.Name, deferloop.IORequest{Op: "read", Path: b.Path}, func(c deferloop.IOCompletion) error {
			if c.Err != nil && b.FailOnError {
				return c.Err
			}
			return do()
		})
	}
	return err
}
