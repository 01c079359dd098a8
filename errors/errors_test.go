package errors

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestErrorClass_String(t *testing.T) {
	assert.Equal(t, "transient", ErrorTransient.String())
	assert.Equal(t, "invalid", ErrorInvalid.String())
	assert.Equal(t, "fatal", ErrorFatal.String())
	assert.Equal(t, "unknown", ErrorClass(42).String())
}

func TestClassify(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want ErrorClass
	}{
		{"storage unavailable", ErrStorageUnavailable, ErrorTransient},
		{"wrapped unavailable", fmt.Errorf("list: %w", ErrStorageUnavailable), ErrorTransient},
		{"deadline", context.DeadlineExceeded, ErrorTransient},
		{"cancelled", context.Canceled, ErrorTransient},
		{"invalid config", ErrInvalidConfig, ErrorInvalid},
		{"missing config", ErrMissingConfig, ErrorInvalid},
		{"plain error", errors.New("no such table: task"), ErrorFatal},
		{"connection in message only", errors.New("connection refused"), ErrorFatal},
		{"classified", WrapInvalid(errors.New("x"), "C", "M", "a"), ErrorInvalid},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Classify(tt.err))
		})
	}
}

func TestOutermostClassWins(t *testing.T) {
	inner := WrapTransient(errors.New("busy"), "SQLiteStore", "Toggle", "begin")
	outer := WrapFatal(inner, "Server", "Start", "init")

	assert.Equal(t, ErrorFatal, Classify(outer))
	assert.Equal(t, ErrorTransient, Classify(inner))
	assert.True(t, IsTransient(fmt.Errorf("context: %w", inner)))
}

func TestPredicatesRejectNil(t *testing.T) {
	assert.False(t, IsTransient(nil))
	assert.False(t, IsInvalid(nil))
}

func TestWrapHelpers(t *testing.T) {
	tests := []struct {
		name  string
		wrap  func(error, string, string, string) error
		class ErrorClass
	}{
		{"transient", WrapTransient, ErrorTransient},
		{"invalid", WrapInvalid, ErrorInvalid},
		{"fatal", WrapFatal, ErrorFatal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.NoError(t, tt.wrap(nil, "C", "M", "a"))

			base := errors.New("boom")
			err := tt.wrap(base, "PostgresStore", "Add", "insert task")
			assert.EqualError(t, err, "PostgresStore.Add: insert task failed: boom")
			assert.ErrorIs(t, err, base)

			var ce *ClassifiedError
			require.True(t, errors.As(err, &ce))
			assert.Equal(t, tt.class, ce.Class)
			assert.Equal(t, "PostgresStore", ce.Component)
			assert.Equal(t, "Add", ce.Operation)
		})
	}
}

func TestUnavailable(t *testing.T) {
	assert.NoError(t, Unavailable(nil, "C", "M", "a"))

	dial := errors.New("dial tcp 10.0.0.5:5432: connect: connection refused")
	err := Unavailable(dial, "PostgresStore", "List", "connect")

	assert.ErrorIs(t, err, ErrStorageUnavailable)
	assert.ErrorIs(t, err, dial)
	assert.True(t, IsTransient(err))
	assert.Contains(t, err.Error(), "PostgresStore.List: connect failed: storage unavailable")
}
