package runtime

import "context"

// LanguageRuntime defines the interface for the scripting runtime that
// hosts the bits module
type LanguageRuntime interface {
	// Initialize sets up the language runtime
	Initialize() error

	// Eval evaluates code as an expression when possible, otherwise as a
	// statement chunk, and returns the converted result
	Eval(ctx context.Context, code string) (interface{}, error)

	// ExecuteBatch runs a whole script; output goes through print
	ExecuteBatch(ctx context.Context, code string) error

	// SetVariable sets a global variable in the runtime
	SetVariable(name string, value interface{}) error

	// GetVariable retrieves a global variable from the runtime
	GetVariable(name string) (interface{}, error)

	// GetGlobalVariables returns the globals defined by the user
	GetGlobalVariables() []string

	// GetCompletionSuggestions returns completions for the last word of input
	GetCompletionSuggestions(input string) []string

	// Cleanup releases resources used by the runtime
	Cleanup() error

	// GetName returns the name of the language runtime
	GetName() string

	// IsReady checks if the runtime is ready for execution
	IsReady() bool
}
