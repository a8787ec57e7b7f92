// Copyright 2026 Joseph Cumines
//
// Permission to use, copy, modify, and distribute this software for any
// purpose with or without fee is hereby granted, provided that this copyright
// notice appears in all copies.

package deferloop

import (
	"errors"
	"io/fs"
)

// IORequest describes a simulated I/O operation.
type IORequest struct {
	// Payload carries source-specific data.
	Payload any
	// Op names the operation, e.g. "read".
	Op string
	// Path is the target of the operation, if any.
	Path string
}

// IOCompletion is the outcome of an IORequest, delivered to its callback.
type IOCompletion struct {
	Value   any
	Err     error
	Request IORequest
}

// IOCallback receives an I/O completion. It runs as a [KindIOCompletion]
// task, and may schedule further work.
type IOCallback func(IOCompletion) error

// IOSource is the external collaborator that completes I/O requests.
//
// NotifyOnCompletion must call deliver exactly once, on the scheduler's Run
// goroutine: either before returning, or later from within a task. The
// scheduler counts outstanding requests, and Run fails with [ErrIOStalled] if
// every queue drains while any are still outstanding. Returning an error
// means the request failed, and any completion delivered before returning
// is discarded.
type IOSource interface {
	NotifyOnCompletion(req IORequest, deliver func(IOCompletion)) error
}

// SourceFunc implements IOSource.
type SourceFunc func(req IORequest, deliver func(IOCompletion)) error

// NotifyOnCompletion calls the receiver.
func (x SourceFunc) NotifyOnCompletion(req IORequest, deliver func(IOCompletion)) error {
	return x(req, deliver)
}

// ImmediateSource completes every request at once, with a nil value. The
// completion callback is therefore ready as soon as the synchronous portion
// of the program finishes, as a macrotask scheduled at submission time.
type ImmediateSource struct{}

// NotifyOnCompletion delivers an empty completion.
func (ImmediateSource) NotifyOnCompletion(req IORequest, deliver func(IOCompletion)) error {
	deliver(IOCompletion{Request: req})
	return nil
}

// FileSource reads IORequest.Path from FS, completing with the file contents
// ([]byte) or the read error. Read errors are delivered to the callback, not
// returned.
type FileSource struct {
	FS fs.FS
}

var errNilFS = errors.New("deferloop: file source has no filesystem")

// NotifyOnCompletion reads the file, then delivers the result.
func (x FileSource) NotifyOnCompletion(req IORequest, deliver func(IOCompletion)) error {
	if x.FS == nil {
		return errNilFS
	}
	b, err := fs.ReadFile(x.FS, req.Path)
	c := IOCompletion{Request: req, Err: err}
	if err == nil {
		c.Value = b
	}
	deliver(c)
	return nil
}
