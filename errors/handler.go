package errors

import (
	"context"
	"fmt"
)

// RecoveryAction represents what the caller should do after an error
type RecoveryAction string

const (
	RecoveryActionContinue RecoveryAction = "CONTINUE"
	RecoveryActionAbort    RecoveryAction = "ABORT"
)

// RecoveryStrategy is the outcome of Recover
type RecoveryStrategy struct {
	Action  RecoveryAction `json:"action"`
	Message string         `json:"message"`
}

// ErrorHandler defines the interface for handling errors
type ErrorHandler interface {
	// Handle normalizes err into an ExecutionError
	Handle(ctx context.Context, err error) *ExecutionError

	// Recover decides whether execution can go on after err
	Recover(ctx context.Context, err error) RecoveryStrategy
}

// DefaultErrorHandler maps error types to recovery actions
type DefaultErrorHandler struct {
	policies      map[ErrorType]RecoveryAction
	defaultAction RecoveryAction
}

// NewInteractiveErrorHandler returns the handler used by the REPL: only
// system errors stop the session.
func NewInteractiveErrorHandler() *DefaultErrorHandler {
	return &DefaultErrorHandler{
		policies: map[ErrorType]RecoveryAction{
			ErrorTypeRuntime:    RecoveryActionContinue,
			ErrorTypeValidation: RecoveryActionContinue,
			ErrorTypeUser:       RecoveryActionContinue,
			ErrorTypeSystem:     RecoveryActionAbort,
		},
		defaultAction: RecoveryActionContinue,
	}
}

// NewBatchErrorHandler returns the handler used for scripts: every error aborts.
func NewBatchErrorHandler() *DefaultErrorHandler {
	return &DefaultErrorHandler{
		policies:      map[ErrorType]RecoveryAction{},
		defaultAction: RecoveryActionAbort,
	}
}

// Handle processes an error and returns it as an ExecutionError
func (h *DefaultErrorHandler) Handle(ctx context.Context, err error) *ExecutionError {
	if err == nil {
		return nil
	}

	if execErr, ok := AsExecutionError(err); ok {
		return execErr
	}

	if ctx != nil && ctx.Err() != nil {
		return NewRuntimeError("", "EXECUTION_CANCELLED", err.Error()).Wrap(err)
	}

	return NewSystemError("UNKNOWN_ERROR", err.Error()).Wrap(err)
}

// Recover returns the recovery strategy for err
func (h *DefaultErrorHandler) Recover(ctx context.Context, err error) RecoveryStrategy {
	execErr := h.Handle(ctx, err)
	if execErr == nil {
		return RecoveryStrategy{Action: RecoveryActionContinue}
	}

	action, exists := h.policies[execErr.Type]
	if !exists {
		action = h.defaultAction
	}

	return RecoveryStrategy{
		Action:  action,
		Message: fmt.Sprintf("%s error %s: %s", execErr.Type, execErr.Code, execErr.Message),
	}
}
