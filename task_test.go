package deferloop

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKind_String(t *testing.T) {
	for k, want := range map[Kind]string{
		KindSync:         "sync",
		KindMicrotask:    "microtask",
		KindTimer:        "timer",
		KindImmediate:    "immediate",
		KindIOCompletion: "io",
		Kind(99):         "Kind(99)",
	} {
		assert.Equal(t, want, k.String())
	}
}

func TestKind_IsMacrotask(t *testing.T) {
	assert.False(t, KindSync.IsMacrotask())
	assert.False(t, KindMicrotask.IsMacrotask())
	assert.True(t, KindTimer.IsMacrotask())
	assert.True(t, KindImmediate.IsMacrotask())
	assert.True(t, KindIOCompletion.IsMacrotask())
}

func TestPhaseOrder(t *testing.T) {
	assert.Equal(t, [...]Kind{KindIOCompletion, KindTimer, KindImmediate}, phaseOrder)
}

func TestTask_String(t *testing.T) {
	assert.Equal(t, "timer#3", (&Task{ID: 3, Kind: KindTimer}).String())
	assert.Equal(t, "io#7(readFile)", (&Task{ID: 7, Kind: KindIOCompletion, Name: "readFile"}).String())
	assert.Equal(t, "<nil>", (*Task)(nil).String())
}

func TestState_String(t *testing.T) {
	assert.Equal(t, "Idle", StateIdle.String())
	assert.Equal(t, "Running", StateRunning.String())
	assert.Equal(t, "Halted", StateHalted.String())
	assert.Equal(t, "Unknown", State(42).String())

	assert.True(t, StateIdle.CanAcceptWork())
	assert.True(t, StateRunning.CanAcceptWork())
	assert.False(t, StateHalted.CanAcceptWork())
}
