// Copyright 2026 Joseph Cumines
//
// Permission to use, copy, modify, and distribute this software for any
// purpose with or without fee is hereby granted, provided that this copyright
// notice appears in all copies.

// Package scenario describes deferloop programs as data (YAML or JSON), runs
// them on a [deferloop.Scheduler], and checks the resulting marker sequence.
//
// A scenario file looks like:
//
//	name: nested
//	program:
//	  - log: before
//	  - microtask:
//	      name: A
//	      do:
//	        - log: A
//	  - timer:
//	      delay: 100ms
//	      do:
//	        - log: later
//	  - log: end-of-sync
//	expect: [before, end-of-sync, A, later]
//
// Each step performs exactly one action. Scheduling steps (microtask, timer,
// immediate, io) run their "do" steps as the deferred callback.
package scenario

import (
	"fmt"
	"io/fs"
	"time"

	"github.com/joeycumines/go-deferloop/internal/config"
)

type (
	// Scenario is a scripted program, with optional expectations.
	Scenario struct {
		Name        string   `json:"name"`
		Description string   `json:"description,omitempty"`
		Program     []Step   `json:"program"`
		Expect      []string `json:"expect,omitempty"`
		// ExpectFailure indicates the run must end with a task failure.
		ExpectFailure bool `json:"expect_failure,omitempty"`

		// fsys serves io steps, nil means every request completes
		// immediately with no data.
		fsys fs.FS
	}

	// Step is one statement of a program. Exactly one field is set.
	Step struct {
		Microtask *Block `json:"microtask,omitempty"`
		Timer     *Block `json:"timer,omitempty"`
		Immediate *Block `json:"immediate,omitempty"`
		IO        *Block `json:"io,omitempty"`
		// Log emits a marker.
		Log string `json:"log,omitempty"`
		// Fail makes the enclosing task fail, with this message.
		Fail string `json:"fail,omitempty"`
	}

	// Block is the payload of a scheduling step.
	Block struct {
		Name string `json:"name,omitempty"`
		// Delay applies to timers only.
		Delay string `json:"delay,omitempty"`
		// Path is the file read by an io step.
		Path string `json:"path,omitempty"`
		// FailOnError makes an io step fail when the read fails. Otherwise
		// the error is ignored, and Do runs regardless.
		FailOnError bool   `json:"fail_on_error,omitempty"`
		Do          []Step `json:"do,omitempty"`

		delay time.Duration
	}
)

// FS returns the filesystem that serves io steps, or nil.
func (x *Scenario) FS() fs.FS { return x.fsys }

// WithFS returns a shallow copy of the scenario, serving io steps from fsys.
func (x *Scenario) WithFS(fsys fs.FS) *Scenario {
	c := *x
	c.fsys = fsys
	return &c
}

// Validate checks the program is well-formed, and resolves timer delays. It
// is called by Parse.
func (x *Scenario) Validate() error {
	if len(x.Program) == 0 {
		return fmt.Errorf("program: must not be empty")
	}
	return validateSteps("program", x.Program)
}

func validateSteps(path string, steps []Step) error {
	for i := range steps {
		if err := steps[i].validate(fmt.Sprintf("%s[%d]", path, i)); err != nil {
			return err
		}
	}
	return nil
}

func (x *Step) validate(path string) error {
	var (
		n     int
		kind  string
		block *Block
	)
	for _, v := range [...]struct {
		kind  string
		block *Block
	}{
		{"microtask", x.Microtask},
		{"timer", x.Timer},
		{"immediate", x.Immediate},
		{"io", x.IO},
	} {
		if v.block != nil {
			n++
			kind, block = v.kind, v.block
		}
	}
	if x.Log != "" {
		n++
	}
	if x.Fail != "" {
		n++
	}
	switch n {
	case 0:
		return fmt.Errorf("%s: step has no action", path)
	case 1:
	default:
		return fmt.Errorf("%s: step has %d actions, want exactly one", path, n)
	}
	if block == nil {
		return nil
	}

	path += "." + kind
	if block.Delay != "" && kind != "timer" {
		return fmt.Errorf("%s.delay: only valid for timer", path)
	}
	if (block.Path != "" || block.FailOnError) && kind != "io" {
		return fmt.Errorf("%s: path and fail_on_error are only valid for io", path)
	}
	d, err := config.ParseDurationField(path+".delay", block.Delay)
	if err != nil {
		return err
	}
	block.delay = d
	return validateSteps(path+".do", block.Do)
}
