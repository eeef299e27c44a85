package bitval

import (
	"fmt"
	"math/big"

	"bitterm/errors"
)

// Error codes reported by this package.
const (
	CodeOutOfRange     = "OUT_OF_RANGE"
	CodeInvalidWidth   = "INVALID_WIDTH"
	CodeInvalidLiteral = "INVALID_LITERAL"
	CodeNativeOverflow = "NATIVE_OVERFLOW"
	CodeInvalidBase    = "INVALID_BASE"
)

// Sentinels for errors.Is. Every error returned by this package matches
// exactly one of them.
var (
	ErrOutOfRange     = errors.NewValidationError(CodeOutOfRange, "value does not fit in width")
	ErrInvalidWidth   = errors.NewValidationError(CodeInvalidWidth, "width must be positive")
	ErrInvalidLiteral = errors.NewValidationError(CodeInvalidLiteral, "malformed binary literal")
	ErrNativeOverflow = errors.NewValidationError(CodeNativeOverflow, "value exceeds native int range")
	ErrInvalidBase    = errors.NewValidationError(CodeInvalidBase, "base must be between 2 and 62")
)

func outOfRange(width int, value interface{}) *errors.ExecutionError {
	return errors.NewValidationError(CodeOutOfRange,
		fmt.Sprintf("value %v does not fit in %d bits", value, width)).
		WithContext("width", width).
		WithContext("value", fmt.Sprint(value))
}

func invalidWidth(width int) *errors.ExecutionError {
	return errors.NewValidationError(CodeInvalidWidth,
		fmt.Sprintf("width must be positive, got %d", width)).
		WithContext("width", width)
}

func invalidLiteral(literal, reason string) *errors.ExecutionError {
	return errors.NewValidationError(CodeInvalidLiteral,
		fmt.Sprintf("invalid binary literal %q: %s", literal, reason)).
		WithContext("literal", literal)
}

func nativeOverflow(width, magnitudeBits int) *errors.ExecutionError {
	return errors.NewValidationError(CodeNativeOverflow,
		fmt.Sprintf("%d-bit magnitude does not fit in a native int", magnitudeBits)).
		WithContext("width", width)
}

func invalidBase(base int) *errors.ExecutionError {
	return errors.NewValidationError(CodeInvalidBase,
		fmt.Sprintf("base must be between 2 and %d, got %d", big.MaxBase, base)).
		WithContext("base", base)
}
