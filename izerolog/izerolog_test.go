package izerolog

import (
	"bytes"
	"encoding/json"
	"errors"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/joeycumines/logiface"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMain(m *testing.M) {
	zerolog.SetGlobalLevel(zerolog.TraceLevel)
	os.Exit(m.Run())
}

func decodeLine(t *testing.T, b []byte) map[string]any {
	t.Helper()
	var m map[string]any
	require.NoError(t, json.Unmarshal(b, &m), string(b))
	return m
}

func TestNewJSON_Fields(t *testing.T) {
	var buf bytes.Buffer
	logger := NewJSON(&buf, logiface.LevelTrace)

	logger.Info().
		Str("s", "v").
		Int("i", 3).
		Int64("i64", -4).
		Uint64("u64", 5).
		Bool("b", true).
		Dur("d", 2*time.Second).
		Err(errors.New("e")).
		Log("hello")

	m := decodeLine(t, buf.Bytes())
	assert.Equal(t, "info", m["level"])
	assert.Equal(t, "hello", m["message"])
	assert.Equal(t, "v", m["s"])
	assert.Equal(t, float64(3), m["i"])
	assert.Equal(t, float64(-4), m["i64"])
	assert.Equal(t, float64(5), m["u64"])
	assert.Equal(t, true, m["b"])
	assert.Equal(t, float64(2000), m["d"])
	assert.Equal(t, "e", m["error"])
	assert.Contains(t, m, "time")
}

func TestNewJSON_LevelMapping(t *testing.T) {
	for _, tc := range []struct {
		level logiface.Level
		want  string
	}{
		{logiface.LevelTrace, "trace"},
		{logiface.LevelDebug, "debug"},
		{logiface.LevelInformational, "info"},
		{logiface.LevelNotice, "warn"},
		{logiface.LevelWarning, "warn"},
		{logiface.LevelError, "error"},
		{logiface.LevelCritical, "error"},
	} {
		t.Run(tc.level.String(), func(t *testing.T) {
			var buf bytes.Buffer
			NewJSON(&buf, logiface.LevelTrace).Build(tc.level).Log("x")
			assert.Equal(t, tc.want, decodeLine(t, buf.Bytes())["level"])
		})
	}
}

func TestNewJSON_FiltersByLevel(t *testing.T) {
	var buf bytes.Buffer
	logger := NewJSON(&buf, logiface.LevelInformational)

	logger.Debug().Log("dropped")
	logger.Trace().Log("dropped")
	logger.Warning().Log("kept")

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 1)
	assert.Equal(t, "kept", decodeLine(t, []byte(lines[0]))["message"])
}

func TestNewJSON_Disabled(t *testing.T) {
	var buf bytes.Buffer
	logger := NewJSON(&buf, logiface.LevelDisabled)
	logger.Err().Log("dropped")
	assert.Empty(t, buf.String())
}

func TestNewConsole(t *testing.T) {
	var buf bytes.Buffer
	NewConsole(&buf, logiface.LevelInformational).Info().Str("phase", "timer").Log("visiting phase")

	out := buf.String()
	assert.Contains(t, out, "visiting phase")
	assert.Contains(t, out, "phase=")
	assert.Contains(t, out, "timer")
}

func TestEvent_NilLevel(t *testing.T) {
	var e *Event
	assert.Equal(t, logiface.LevelDisabled, e.Level())
}

func TestParseLevel(t *testing.T) {
	for _, tc := range []struct {
		in   string
		want logiface.Level
	}{
		{"trace", logiface.LevelTrace},
		{"debug", logiface.LevelDebug},
		{"info", logiface.LevelInformational},
		{"informational", logiface.LevelInformational},
		{"notice", logiface.LevelNotice},
		{"warn", logiface.LevelWarning},
		{"warning", logiface.LevelWarning},
		{"err", logiface.LevelError},
		{"error", logiface.LevelError},
		{"off", logiface.LevelDisabled},
		{"bogus", logiface.LevelNotice},
		{"", logiface.LevelNotice},
	} {
		assert.Equal(t, tc.want, ParseLevel(tc.in, logiface.LevelNotice), tc.in)
	}
}

func TestLookupLevel(t *testing.T) {
	level, ok := LookupLevel("debug")
	assert.True(t, ok)
	assert.Equal(t, logiface.LevelDebug, level)

	_, ok = LookupLevel("verbose")
	assert.False(t, ok)
}
