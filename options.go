// Copyright 2026 Joseph Cumines
//
// Permission to use, copy, modify, and distribute this software for any
// purpose with or without fee is hereby granted, provided that this copyright
// notice appears in all copies.

package deferloop

import (
	"fmt"

	"github.com/joeycumines/logiface"
)

// schedulerOptions holds configuration options for Scheduler creation.
type schedulerOptions struct {
	logger    *logiface.Logger[logiface.Event]
	tracer    Tracer
	ioSource  IOSource
	taskLimit int
}

// --- Scheduler Options ---

// Option configures a Scheduler instance.
type Option interface {
	applyScheduler(*schedulerOptions) error
}

// optionImpl implements Option.
type optionImpl struct {
	applySchedulerFunc func(*schedulerOptions) error
}

func (o *optionImpl) applyScheduler(opts *schedulerOptions) error {
	return o.applySchedulerFunc(opts)
}

// WithLogger sets the structured logger. A nil logger (the default) disables
// logging.
func WithLogger(logger *logiface.Logger[logiface.Event]) Option {
	return &optionImpl{func(opts *schedulerOptions) error {
		opts.logger = logger
		return nil
	}}
}

// WithTracer sets the receiver of execution markers, see [Scheduler.Mark].
func WithTracer(tracer Tracer) Option {
	return &optionImpl{func(opts *schedulerOptions) error {
		opts.tracer = tracer
		return nil
	}}
}

// WithIOSource sets the collaborator that completes [Scheduler.RequestIO]
// requests. Defaults to [ImmediateSource].
func WithIOSource(source IOSource) Option {
	return &optionImpl{func(opts *schedulerOptions) error {
		opts.ioSource = source
		return nil
	}}
}

// WithTaskLimit bounds the number of tasks a single Run may execute, not
// counting the synchronous body. Zero (the default) means unlimited.
// Exceeding the limit ends Run with [ErrTaskLimitExceeded].
func WithTaskLimit(limit int) Option {
	return &optionImpl{func(opts *schedulerOptions) error {
		if limit < 0 {
			return fmt.Errorf("deferloop: invalid task limit %d", limit)
		}
		opts.taskLimit = limit
		return nil
	}}
}

// resolveOptions applies Option instances to schedulerOptions.
func resolveOptions(opts []Option) (*schedulerOptions, error) {
	cfg := &schedulerOptions{
		ioSource: ImmediateSource{},
	}
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		if err := opt.applyScheduler(cfg); err != nil {
			return nil, err
		}
	}
	return cfg, nil
}
