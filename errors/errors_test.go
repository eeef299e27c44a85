package errors

import (
	"context"
	stderrors "errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExecutionErrorFormatting(t *testing.T) {
	err := NewValidationError("OUT_OF_RANGE", "value 16 does not fit in 4 bits")
	assert.Equal(t, "[VALIDATION][OUT_OF_RANGE] value 16 does not fit in 4 bits", err.Error())
	assert.Equal(t, SeverityWarning, err.Severity)

	err = NewRuntimeError("lua", "LUA_EVAL_ERROR", "boom").WithPosition(3, 7)
	assert.Equal(t, "[RUNTIME][LUA_EVAL_ERROR] boom line 3 col 7", err.Error())
	assert.Equal(t, "lua", err.Language)
}

func TestExecutionErrorIsMatchesCodeAndType(t *testing.T) {
	sentinel := NewValidationError("INVALID_WIDTH", "width must be positive")
	err := NewValidationError("INVALID_WIDTH", "width 0").WithContext("width", 0)

	assert.True(t, stderrors.Is(err, sentinel))
	assert.False(t, stderrors.Is(err, NewSystemError("INVALID_WIDTH", "")))
	assert.False(t, stderrors.Is(err, NewValidationError("OUT_OF_RANGE", "")))
	assert.Equal(t, 0, err.Context["width"])
}

func TestWrappedChain(t *testing.T) {
	root := NewValidationError("OUT_OF_RANGE", "too big")
	outer := NewRuntimeError("lua", "LUA_EVAL_ERROR", "script failed").Wrap(root)
	wrapped := fmt.Errorf("batch: %w", outer)

	assert.True(t, stderrors.Is(wrapped, root))
	execErr, ok := AsExecutionError(wrapped)
	require.True(t, ok)
	assert.Same(t, outer, execErr)
	assert.Equal(t, "LUA_EVAL_ERROR", Code(wrapped))
	assert.Equal(t, "", Code(stderrors.New("plain")))
}

func TestHandlerPolicies(t *testing.T) {
	ctx := context.Background()

	t.Run("interactive continues on validation", func(t *testing.T) {
		h := NewInteractiveErrorHandler()
		strategy := h.Recover(ctx, NewValidationError("OUT_OF_RANGE", "x"))
		assert.Equal(t, RecoveryActionContinue, strategy.Action)
		assert.Contains(t, strategy.Message, "OUT_OF_RANGE")
	})

	t.Run("interactive aborts on system", func(t *testing.T) {
		h := NewInteractiveErrorHandler()
		strategy := h.Recover(ctx, stderrors.New("disk on fire"))
		assert.Equal(t, RecoveryActionAbort, strategy.Action)
	})

	t.Run("batch aborts on everything", func(t *testing.T) {
		h := NewBatchErrorHandler()
		assert.Equal(t, RecoveryActionAbort, h.Recover(ctx, NewUserError("BAD_COMMAND", "x")).Action)
		assert.Equal(t, RecoveryActionAbort, h.Recover(ctx, NewValidationError("OUT_OF_RANGE", "x")).Action)
	})

	t.Run("nil error", func(t *testing.T) {
		assert.Nil(t, NewBatchErrorHandler().Handle(ctx, nil))
		assert.Equal(t, RecoveryActionContinue, NewBatchErrorHandler().Recover(ctx, nil).Action)
	})
}

func TestHandlerHandleCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	execErr := NewInteractiveErrorHandler().Handle(ctx, ctx.Err())
	require.NotNil(t, execErr)
	assert.Equal(t, "EXECUTION_CANCELLED", execErr.Code)
	assert.Equal(t, ErrorTypeRuntime, execErr.Type)
	assert.True(t, stderrors.Is(execErr, context.Canceled))
}
