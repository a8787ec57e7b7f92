package deferloop

import (
	"errors"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTaskError_Error(t *testing.T) {
	err := &TaskError{
		Err:  io.EOF,
		Name: "readFile",
		Turn: 2,
		ID:   5,
		Kind: KindIOCompletion,
	}
	assert.Equal(t, "deferloop: io task 5 (readFile) failed in turn 2: EOF", err.Error())

	err.Name = ""
	assert.Equal(t, "deferloop: io task 5 failed in turn 2: EOF", err.Error())
}

func TestTaskError_Unwrap(t *testing.T) {
	err := error(&TaskError{Err: io.EOF, Kind: KindTimer})
	assert.ErrorIs(t, err, io.EOF)
	assert.NotErrorIs(t, err, io.ErrUnexpectedEOF)
}

func TestPanicError(t *testing.T) {
	t.Run("error value", func(t *testing.T) {
		err := PanicError{Value: io.EOF}
		assert.Equal(t, "deferloop: task panicked: EOF", err.Error())
		assert.True(t, errors.Is(err, io.EOF))
	})

	t.Run("non-error value", func(t *testing.T) {
		err := PanicError{Value: "oops"}
		assert.Equal(t, "deferloop: task panicked: oops", err.Error())
		assert.Nil(t, err.Unwrap())
	})
}
