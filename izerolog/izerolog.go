// Copyright 2026 Joseph Cumines
//
// Permission to use, copy, modify, and distribute this software for any
// purpose with or without fee is hereby granted, provided that this copyright
// notice appears in all copies.

// Package izerolog implements a logiface backend using zerolog, used by the
// deferloop command to render scheduler logs.
package izerolog

import (
	"io"
	"time"

	"github.com/joeycumines/logiface"
	"github.com/rs/zerolog"
)

type (
	Event struct {
		logiface.UnimplementedEvent
		Z   *zerolog.Event
		msg string
		lvl logiface.Level
	}

	Logger struct {
		Z zerolog.Logger
	}
)

var (
	// compile time assertions

	_ logiface.Event = (*Event)(nil)
)

// L is a convenience alias, for the Event type used by this package.
var L = logiface.LoggerFactory[*Event]{}

// WithZerolog configures a logiface logger to write to z.
func WithZerolog(z zerolog.Logger) logiface.Option[*Event] {
	l := &Logger{Z: z}
	return L.WithOptions(
		L.WithEventFactory(L.NewEventFactoryFunc(l.NewEvent)),
		L.WithWriter(L.NewWriterFunc(l.Write)),
	)
}

// New builds a generic logiface logger backed by z, at the given level.
func New(z zerolog.Logger, level logiface.Level) *logiface.Logger[logiface.Event] {
	return L.New(
		WithZerolog(z),
		L.WithLevel(level),
	).Logger()
}

// NewConsole builds a logger writing human-readable lines to w.
func NewConsole(w io.Writer, level logiface.Level) *logiface.Logger[logiface.Event] {
	z := zerolog.New(zerolog.ConsoleWriter{Out: w, TimeFormat: time.RFC3339}).
		Level(zerolog.TraceLevel).
		With().
		Timestamp().
		Logger()
	return New(z, level)
}

// NewJSON builds a logger writing one JSON object per line to w.
func NewJSON(w io.Writer, level logiface.Level) *logiface.Logger[logiface.Event] {
	z := zerolog.New(w).
		Level(zerolog.TraceLevel).
		With().
		Timestamp().
		Logger()
	return New(z, level)
}

func (x *Event) Level() logiface.Level {
	if x != nil {
		return x.lvl
	}
	return logiface.LevelDisabled
}

func (x *Event) AddField(key string, val any) {
	x.Z.Interface(key, val)
}

func (x *Event) AddMessage(msg string) bool {
	x.msg = msg
	return true
}

func (x *Event) AddError(err error) bool {
	x.Z.Err(err)
	return true
}

func (x *Event) AddString(key string, val string) bool {
	x.Z.Str(key, val)
	return true
}

func (x *Event) AddInt(key string, val int) bool {
	x.Z.Int(key, val)
	return true
}

func (x *Event) AddInt64(key string, val int64) bool {
	x.Z.Int64(key, val)
	return true
}

func (x *Event) AddUint64(key string, val uint64) bool {
	x.Z.Uint64(key, val)
	return true
}

func (x *Event) AddBool(key string, val bool) bool {
	x.Z.Bool(key, val)
	return true
}

func (x *Event) AddDuration(key string, val time.Duration) bool {
	x.Z.Dur(key, val)
	return true
}

func (x *Logger) NewEvent(level logiface.Level) *Event {
	if !level.Enabled() {
		return nil
	}
	r := Event{
		lvl: level,
	}
	switch level {
	case logiface.LevelTrace:
		r.Z = x.Z.Trace()
	case logiface.LevelDebug:
		r.Z = x.Z.Debug()
	case logiface.LevelInformational:
		r.Z = x.Z.Info()
	case logiface.LevelNotice, logiface.LevelWarning:
		r.Z = x.Z.Warn()
	case logiface.LevelError:
		r.Z = x.Z.Error()
	default:
		// emergency, alert and critical are logged as errors, the scheduler
		// never wants zerolog to exit or panic on its behalf
		r.Z = x.Z.WithLevel(zerolog.ErrorLevel)
	}
	return &r
}

func (x *Logger) Write(event *Event) error {
	event.Z.Msg(event.msg)
	return nil
}

// ParseLevel maps a level name (as accepted by logiface, e.g. "debug",
// "info", "warning", "err") to a logiface level. Unknown names yield def.
func ParseLevel(s string, def logiface.Level) logiface.Level {
	if level, ok := LookupLevel(s); ok {
		return level
	}
	return def
}

// LookupLevel is ParseLevel, reporting whether s is a known level name.
func LookupLevel(s string) (logiface.Level, bool) {
	switch s {
	case "trace":
		return logiface.LevelTrace, true
	case "debug":
		return logiface.LevelDebug, true
	case "info", "informational":
		return logiface.LevelInformational, true
	case "notice":
		return logiface.LevelNotice, true
	case "warn", "warning":
		return logiface.LevelWarning, true
	case "err", "error":
		return logiface.LevelError, true
	case "disabled", "off", "none":
		return logiface.LevelDisabled, true
	default:
		return logiface.LevelDisabled, false
	}
}
