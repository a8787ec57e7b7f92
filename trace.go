// Copyright 2026 Joseph Cumines
//
// Permission to use, copy, modify, and distribute this software for any
// purpose with or without fee is hereby granted, provided that this copyright
// notice appears in all copies.

package deferloop

import (
	"io"
	"slices"
	"sync"
)

// Tracer receives execution markers, in the order execution occurs.
type Tracer interface {
	Mark(label string)
}

// TracerFunc implements Tracer.
type TracerFunc func(label string)

// Mark calls the receiver.
func (x TracerFunc) Mark(label string) { x(label) }

// Trace records markers, optionally echoing each one to Out, one per line.
// The zero value is ready to use.
type Trace struct {
	// Out, if non-nil, receives each marker followed by a newline. Write
	// errors are ignored.
	Out     io.Writer
	markers []string
	mu      sync.Mutex
}

// NewTrace returns a Trace that echoes markers to out (which may be nil).
func NewTrace(out io.Writer) *Trace {
	return &Trace{Out: out}
}

// Mark appends a marker.
func (x *Trace) Mark(label string) {
	x.mu.Lock()
	defer x.mu.Unlock()
	x.markers = append(x.markers, label)
	if x.Out != nil {
		_, _ = io.WriteString(x.Out, label+"\n")
	}
}

// Markers returns a copy of the recorded markers.
func (x *Trace) Markers() []string {
	x.mu.Lock()
	defer x.mu.Unlock()
	return slices.Clone(x.markers)
}

// Reset discards the recorded markers.
func (x *Trace) Reset() {
	x.mu.Lock()
	defer x.mu.Unlock()
	x.markers = nil
}
