package deferloop

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/joeycumines/go-deferloop/izerolog"
	"github.com/joeycumines/logiface"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMain(m *testing.M) {
	// izerolog leaves level filtering to logiface
	zerolog.SetGlobalLevel(zerolog.TraceLevel)
	os.Exit(m.Run())
}

func decodeLogLines(t *testing.T, buf *bytes.Buffer) []map[string]any {
	t.Helper()
	var lines []map[string]any
	scanner := bufio.NewScanner(buf)
	for scanner.Scan() {
		var m map[string]any
		require.NoError(t, json.Unmarshal(scanner.Bytes(), &m), scanner.Text())
		lines = append(lines, m)
	}
	require.NoError(t, scanner.Err())
	return lines
}

func filterLogLines(lines []map[string]any, key, value string) []map[string]any {
	var out []map[string]any
	for _, m := range lines {
		if m[key] == value {
			out = append(out, m)
		}
	}
	return out
}

func TestLogging_TaskFailureLoggedOnce(t *testing.T) {
	var buf bytes.Buffer
	s, err := New(WithLogger(izerolog.NewJSON(&buf, logiface.LevelDebug)))
	require.NoError(t, err)

	boom := errors.New("boom")
	err = s.Run(context.Background(), func() error {
		_, _ = s.ScheduleTimer("fails", time.Millisecond, func() error { return boom })
		return nil
	})
	require.ErrorIs(t, err, boom)

	lines := decodeLogLines(t, &buf)

	failures := filterLogLines(lines, "level", "error")
	require.Len(t, failures, 1)
	assert.Equal(t, "task failed, halting", failures[0]["message"])
	assert.Equal(t, "timer", failures[0]["kind"])
	assert.Equal(t, "fails", failures[0]["name"])
	assert.Equal(t, "boom", failures[0]["error"])

	done := filterLogLines(lines, "message", "run finished")
	require.Len(t, done, 1)
	assert.Equal(t, "info", done[0]["level"])
	assert.Equal(t, "failed", done[0]["status"])
	assert.NotContains(t, done[0], "error")

	assert.NotEmpty(t, filterLogLines(lines, "category", logCategoryClock))
	assert.NotEmpty(t, filterLogLines(lines, "category", logCategoryPhase))
}

func TestLogging_NonTaskErrorIsWarning(t *testing.T) {
	var buf bytes.Buffer
	s, err := New(
		WithLogger(izerolog.NewJSON(&buf, logiface.LevelInformational)),
		WithIOSource(SourceFunc(func(IORequest, func(IOCompletion)) error { return nil })),
	)
	require.NoError(t, err)

	err = s.Run(context.Background(), func() error {
		return s.RequestIO("never", IORequest{}, func(IOCompletion) error { return nil })
	})
	require.ErrorIs(t, err, ErrIOStalled)

	lines := decodeLogLines(t, &buf)
	require.Len(t, lines, 1)
	assert.Equal(t, "warn", lines[0]["level"])
	assert.Equal(t, "run finished", lines[0]["message"])
	assert.Equal(t, "failed", lines[0]["status"])
	assert.Contains(t, lines[0]["error"], "outstanding")
}

func TestLogging_TraceLevelLogsEachTask(t *testing.T) {
	var buf bytes.Buffer
	s, err := New(WithLogger(izerolog.NewJSON(&buf, logiface.LevelTrace)))
	require.NoError(t, err)

	require.NoError(t, s.Run(context.Background(), func() error {
		_, _ = s.ScheduleMicrotask("m", func() error { return nil })
		_, _ = s.ScheduleImmediate("i", func() error { return nil })
		return nil
	}))

	running := filterLogLines(decodeLogLines(t, &buf), "message", "running task")
	require.Len(t, running, 3)
	assert.Equal(t, "main", running[0]["name"])
	assert.Equal(t, "sync", running[0]["kind"])
	assert.Equal(t, "m", running[1]["name"])
	assert.Equal(t, "microtask", running[1]["kind"])
	assert.Equal(t, "i", running[2]["name"])
	assert.Equal(t, "immediate", running[2]["kind"])
}

func TestLogging_Disabled(t *testing.T) {
	s, err := New()
	require.NoError(t, err)
	assert.NoError(t, s.Run(context.Background(), func() error {
		_, _ = s.ScheduleTimer("t", time.Second, func() error { return nil })
		return nil
	}))
}
