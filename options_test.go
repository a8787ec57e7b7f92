package deferloop

import (
	"testing"

	"github.com/joeycumines/logiface"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultOptions(t *testing.T) {
	s, err := New()
	require.NoError(t, err)

	assert.Nil(t, s.logger)
	assert.Nil(t, s.tracer)
	assert.Equal(t, ImmediateSource{}, s.ioSource)
	assert.Equal(t, 0, s.taskLimit)
	assert.Equal(t, StateIdle, s.State())
}

func TestNilOptionsAreSkipped(t *testing.T) {
	s, err := New(nil, WithTaskLimit(5), nil)
	require.NoError(t, err)
	assert.Equal(t, 5, s.taskLimit)
}

func TestWithTaskLimit_Negative(t *testing.T) {
	s, err := New(WithTaskLimit(-1))
	assert.Error(t, err)
	assert.Nil(t, s)
}

func TestWithLogger(t *testing.T) {
	logger := logiface.New[logiface.Event](
		logiface.WithWriter[logiface.Event](logiface.NewWriterFunc(func(event logiface.Event) error {
			return nil
		})),
	)

	s, err := New(WithLogger(logger))
	require.NoError(t, err)
	assert.Same(t, logger, s.logger)
}

func TestWithIOSource(t *testing.T) {
	source := FileSource{}
	s, err := New(WithIOSource(source))
	require.NoError(t, err)
	assert.Equal(t, source, s.ioSource)
}
