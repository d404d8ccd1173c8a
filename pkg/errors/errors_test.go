package errors

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestColumnNotFoundError(t *testing.T) {
	err := NewColumnNotFoundError("Select", "温度")
	require.Error(t, err)

	var cnf *ColumnNotFoundError
	require.True(t, As(err, &cnf))
	assert.Equal(t, "Select", cnf.Op)
	assert.Equal(t, "温度", cnf.Column)
	assert.Contains(t, err.Error(), "column \"温度\" not found")
}

func TestLengthMismatchError(t *testing.T) {
	err := NewLengthMismatchError("WithColumn", 100, 99)

	var lm *LengthMismatchError
	require.True(t, As(err, &lm))
	assert.Equal(t, 100, lm.Expected)
	assert.Equal(t, 99, lm.Got)
}

func TestTimestampParseErrorUnwrap(t *testing.T) {
	cause := New("bad layout")
	err := NewTimestampParseError("时间", 7, "not-a-date", cause)

	var tp *TimestampParseError
	require.True(t, As(err, &tp))
	assert.Equal(t, 7, tp.Row)
	assert.True(t, Is(err, cause))
}

func TestModelFitErrorWrapsCause(t *testing.T) {
	cause := NewEmptyDataError("Fit")
	err := NewModelFitError("流量", cause)

	var fit *ModelFitError
	require.True(t, As(err, &fit))
	assert.Equal(t, "流量", fit.Label)

	var empty *EmptyDataError
	assert.True(t, As(err, &empty))
}

func TestRecoverConvertsPanic(t *testing.T) {
	run := func() (err error) {
		defer Recover(&err, "run")
		panic("boom")
	}

	err := run()
	require.Error(t, err)

	var pe *PanicError
	require.True(t, As(err, &pe))
	assert.Equal(t, "run", pe.Operation)
	assert.NotEmpty(t, pe.StackTrace)
}
