// Copyright 2026 Joseph Cumines
//
// Permission to use, copy, modify, and distribute this software for any
// purpose with or without fee is hereby granted, provided that this copyright
// notice appears in all copies.

// Package watch reruns a function whenever a file changes.
package watch

import (
	"context"
	"math/rand"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/joeycumines/logiface"
)

const (
	restartBackoffBase = 250 * time.Millisecond
	restartBackoffMax  = 5 * time.Second
)

// File calls fn each time the file at path is written, created, renamed or
// removed, once the changes have been quiet for debounce. The parent
// directory is watched, so editors that replace the file are handled.
//
// fn runs on the calling goroutine, never concurrently with itself. File
// blocks until ctx is done, then returns nil. A broken watcher is recreated
// with a jittered exponential backoff.
func File(ctx context.Context, path string, debounce time.Duration, logger *logiface.Logger[logiface.Event], fn func()) error {
	dir := filepath.Dir(path)
	file := filepath.Base(path)

	backoff := restartBackoffBase
	rng := rand.New(rand.NewSource(time.Now().UnixNano()))
	wait := func() time.Duration {
		d := backoff + time.Duration(rng.Int63n(int64(backoff/2)+1))
		backoff = min(backoff*2, restartBackoffMax)
		return d
	}
	sleep := func(d time.Duration) bool {
		select {
		case <-ctx.Done():
			return false
		case <-time.After(d):
			return true
		}
	}

	for ctx.Err() == nil {
		w, err := fsnotify.NewWatcher()
		if err != nil {
			logger.Warning().Err(err).Str("dir", dir).Log("watch init failed")
			if !sleep(wait()) {
				return nil
			}
			continue
		}
		if err := w.Add(dir); err != nil {
			_ = w.Close()
			logger.Warning().Err(err).Str("dir", dir).Log("watch add failed")
			if !sleep(wait()) {
				return nil
			}
			continue
		}

		backoff = restartBackoffBase
		logger.Debug().Str("dir", dir).Str("file", file).Log("watcher started")

		watchLoop(ctx, w, file, debounce, logger, fn)

		_ = w.Close()
		if ctx.Err() != nil {
			return nil
		}
		d := wait()
		logger.Warning().Str("dir", dir).Dur("backoff", d).Log("watcher stopped, restarting")
		if !sleep(d) {
			return nil
		}
	}
	return nil
}

// watchLoop runs until ctx is done or the watcher breaks.
func watchLoop(ctx context.Context, w *fsnotify.Watcher, file string, debounce time.Duration, logger *logiface.Logger[logiface.Event], fn func()) {
	// Reset discards any stale expiry (synchronous timer channels, go1.23+)
	timer := time.NewTimer(debounce)
	timer.Stop()
	defer timer.Stop()

	schedule := func() {
		timer.Reset(debounce)
	}

	for {
		select {
		case <-ctx.Done():
			return

		case <-timer.C:
			fn()

		case ev, ok := <-w.Events:
			if !ok {
				return
			}
			// compare by basename, robust across absolute/relative paths
			if !strings.EqualFold(filepath.Base(ev.Name), file) {
				continue
			}
			if ev.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename|fsnotify.Remove) != 0 {
				logger.Debug().Str("file", file).Str("op", ev.Op.String()).Log("change detected")
				schedule()
			}

		case err, ok := <-w.Errors:
			if !ok {
				return
			}
			if err == nil {
				continue
			}
			if strings.Contains(strings.ToLower(err.Error()), "overflow") {
				// events may have been missed
				logger.Warning().Err(err).Log("watch overflow, forcing rerun")
				schedule()
				continue
			}
			logger.Warning().Err(err).Log("watch error")
			if strings.Contains(strings.ToLower(err.Error()), "closed") {
				return
			}
		}
	}
}
