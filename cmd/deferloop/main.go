// Copyright 2026 Joseph Cumines
//
// Permission to use, copy, modify, and distribute this software for any
// purpose with or without fee is hereby granted, provided that this copyright
// notice appears in all copies.

// Command deferloop runs a scenario on the deferred task scheduler, printing
// its execution markers to stdout, one per line.
//
// Usage:
//
//	deferloop [flags] [scenario-file]
//
// With no scenario file, the builtin named by -builtin runs (default
// "nested"). Logs go to stderr.
//
// Exit status is 0 on success, 1 if a task failed or -check found a
// mismatch, and 2 for usage or configuration errors. With -watch, the
// status is that of the last run (or reload), reported once interrupted.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/google/uuid"
	"github.com/joeycumines/go-deferloop"
	"github.com/joeycumines/go-deferloop/internal/config"
	"github.com/joeycumines/go-deferloop/internal/watch"
	"github.com/joeycumines/go-deferloop/izerolog"
	"github.com/joeycumines/go-deferloop/scenario"
	"github.com/joeycumines/logiface"
	"github.com/rs/zerolog"
)

const (
	exitOK      = 0
	exitFailure = 1
	exitUsage   = 2
)

func main() {
	// filtering is done by the logiface level
	zerolog.SetGlobalLevel(zerolog.TraceLevel)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	cancel()
	os.Exit(code)
}

type options struct {
	configPath string
	builtin    string
	logLevel   string
	logFormat  string
	taskLimit  int
	check      bool
	watch      bool
	list       bool
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	var opts options
	fs := flag.NewFlagSet("deferloop", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.Usage = func() {
		_, _ = fmt.Fprintf(stderr, "usage: deferloop [flags] [scenario-file]\n\nflags:\n")
		fs.PrintDefaults()
	}
	fs.StringVar(&opts.configPath, "config", "", "path to config file (yaml or json)")
	fs.StringVar(&opts.builtin, "builtin", "nested", "builtin scenario to run when no file is given ("+strings.Join(scenario.BuiltinNames(), ", ")+")")
	fs.StringVar(&opts.logLevel, "log-level", "", "log level, overrides config (trace, debug, info, warning, error, off)")
	fs.StringVar(&opts.logFormat, "log-format", "", "log format, overrides config (console, json)")
	fs.IntVar(&opts.taskLimit, "task-limit", -1, "maximum tasks per run, 0 for unlimited, overrides config")
	fs.BoolVar(&opts.check, "check", false, "verify the markers against the scenario's expectations")
	fs.BoolVar(&opts.watch, "watch", false, "rerun the scenario file whenever it changes")
	fs.BoolVar(&opts.list, "list", false, "list the builtin scenarios and exit")
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return exitOK
		}
		return exitUsage
	}

	if opts.list {
		for _, name := range scenario.BuiltinNames() {
			_, _ = fmt.Fprintln(stdout, name)
		}
		return exitOK
	}

	if fs.NArg() > 1 {
		_, _ = fmt.Fprintf(stderr, "deferloop: at most one scenario file, got %d\n", fs.NArg())
		return exitUsage
	}
	file := fs.Arg(0)
	var builtinSet bool
	fs.Visit(func(f *flag.Flag) {
		if f.Name == "builtin" {
			builtinSet = true
		}
	})
	if file != "" && builtinSet {
		_, _ = fmt.Fprintln(stderr, "deferloop: -builtin and a scenario file are mutually exclusive")
		return exitUsage
	}

	cfg, err := loadConfig(opts)
	if err != nil {
		_, _ = fmt.Fprintf(stderr, "deferloop: %v\n", err)
		return exitUsage
	}
	if cfg.Watch.Enabled && file == "" {
		_, _ = fmt.Fprintln(stderr, "deferloop: -watch requires a scenario file")
		return exitUsage
	}

	logger := newLogger(cfg, stderr)

	load := func() (*scenario.Scenario, error) {
		if file != "" {
			return scenario.Load(file)
		}
		return scenario.Builtin(opts.builtin)
	}

	sc, err := load()
	if err != nil {
		_, _ = fmt.Fprintf(stderr, "deferloop: %v\n", err)
		return exitUsage
	}

	code := runScenario(ctx, sc, cfg, opts.check, logger, stdout, stderr)

	if !cfg.Watch.Enabled {
		return code
	}

	logger.Info().
		Str("file", file).
		Dur("debounce", cfg.DebounceDuration()).
		Log("watching for changes")
	if err := watch.File(ctx, file, cfg.DebounceDuration(), logger, func() {
		sc, err := load()
		if err != nil {
			logger.Warning().Err(err).Str("file", file).Log("scenario reload failed")
			code = exitUsage
			return
		}
		_, _ = fmt.Fprintln(stdout, "---")
		code = runScenario(ctx, sc, cfg, opts.check, logger, stdout, stderr)
	}); err != nil {
		_, _ = fmt.Fprintf(stderr, "deferloop: %v\n", err)
		return exitFailure
	}
	return code
}

// loadConfig reads the config file, if any, then applies flag overrides.
func loadConfig(opts options) (*config.Config, error) {
	cfg := config.Default()
	if opts.configPath != "" {
		var err error
		if cfg, err = config.Load(opts.configPath); err != nil {
			return nil, err
		}
	}
	if opts.logLevel != "" {
		cfg.Log.Level = opts.logLevel
	}
	if opts.logFormat != "" {
		cfg.Log.Format = opts.logFormat
	}
	if opts.taskLimit >= 0 {
		cfg.TaskLimit = opts.taskLimit
	}
	if opts.watch {
		cfg.Watch.Enabled = true
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func newLogger(cfg *config.Config, w io.Writer) *logiface.Logger[logiface.Event] {
	level := izerolog.ParseLevel(cfg.Log.Level, logiface.LevelInformational)
	if cfg.Log.Format == config.FormatJSON {
		return izerolog.NewJSON(w, level)
	}
	return izerolog.NewConsole(w, level)
}

// runScenario runs sc once, tagging its logs with a fresh run ID.
func runScenario(ctx context.Context, sc *scenario.Scenario, cfg *config.Config, check bool, logger *logiface.Logger[logiface.Event], stdout, stderr io.Writer) int {
	logger = logger.Clone().
		Str("run_id", uuid.NewString()).
		Str("scenario", sc.Name).
		Logger()

	logger.Debug().
		Int("task_limit", cfg.TaskLimit).
		Bool("check", check).
		Log("running scenario")

	result, err := sc.Run(ctx, stdout,
		deferloop.WithLogger(logger),
		deferloop.WithTaskLimit(cfg.TaskLimit),
	)
	if err != nil {
		_, _ = fmt.Fprintf(stderr, "deferloop: %v\n", err)
		return exitUsage
	}

	if check {
		if err := result.Verify(); err != nil {
			_, _ = fmt.Fprintf(stderr, "deferloop: check failed: %v\n", err)
			return exitFailure
		}
		logger.Info().
			Int("markers", len(result.Markers)).
			Log("check passed")
		return exitOK
	}

	if result.Err != nil {
		// scheduler errors carry their own prefix
		_, _ = fmt.Fprintln(stderr, result.Err)
		return exitFailure
	}
	return exitOK
}
