package lua

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"bitterm/errors"
	"bitterm/logging"

	lua "github.com/yuin/gopher-lua"
)

// chunkName is the source name used in Lua error positions
const chunkName = "<input>"

var (
	runtimePosition = regexp.MustCompile(`^<input>:(\d+):\s*(.*)$`)
	syntaxPosition  = regexp.MustCompile(`^<input> line:(\d+)\(column:(\d+)\)\s*(.*)$`)
)

// Eval evaluates code and returns its results converted to Go. Code is
// tried as an expression first (return <code>) and run as a statement
// chunk if that does not compile. Several results come back as
// []interface{}; none as nil.
func (lr *LuaRuntime) Eval(ctx context.Context, code string) (interface{}, error) {
	lr.mu.Lock()
	defer lr.mu.Unlock()

	if !lr.ready {
		return nil, errors.NewRuntimeError("lua", "LUA_RUNTIME_NOT_INITIALIZED", "runtime is not initialized")
	}

	fn, err := lr.state.Load(strings.NewReader("return "+code), chunkName)
	if err != nil {
		fn, err = lr.state.Load(strings.NewReader(code), chunkName)
		if err != nil {
			return nil, lr.convertError(ctx, err)
		}
	}

	results, err := lr.call(ctx, fn)
	if err != nil {
		return nil, err
	}

	switch len(results) {
	case 0:
		return nil, nil
	case 1:
		return results[0], nil
	default:
		return results, nil
	}
}

// ExecuteBatch runs code as one statement chunk
func (lr *LuaRuntime) ExecuteBatch(ctx context.Context, code string) error {
	lr.mu.Lock()
	defer lr.mu.Unlock()

	if !lr.ready {
		return errors.NewRuntimeError("lua", "LUA_RUNTIME_NOT_INITIALIZED", "runtime is not initialized")
	}

	fn, err := lr.state.Load(strings.NewReader(code), chunkName)
	if err != nil {
		return lr.convertError(ctx, err)
	}

	_, err = lr.call(ctx, fn)
	return err
}

// call runs fn under ctx and converts every value it returns.
func (lr *LuaRuntime) call(ctx context.Context, fn *lua.LFunction) ([]interface{}, error) {
	L := lr.state
	if ctx == nil {
		ctx = context.Background()
	}
	L.SetContext(ctx)
	defer L.RemoveContext()

	start := time.Now()
	base := L.GetTop()
	L.Push(fn)
	if err := L.PCall(0, lua.MultRet, nil); err != nil {
		L.SetTop(base)
		convErr := lr.convertError(ctx, err)
		lr.logger.WithError(convErr).Debug("evaluation failed")
		return nil, convErr
	}

	top := L.GetTop()
	results := make([]interface{}, 0, top-base)
	for i := base + 1; i <= top; i++ {
		results = append(results, lr.luaToGo(L.Get(i)))
	}
	L.SetTop(base)

	lr.logger.Debug("evaluation finished",
		logging.IntField("results", len(results)),
		logging.DurationField("elapsed", time.Since(start)))
	return results, nil
}

// convertError turns a gopher-lua error into an ExecutionError. Errors
// raised by the bits module keep the original Go error as the cause.
func (lr *LuaRuntime) convertError(ctx context.Context, err error) error {
	if ctx != nil && ctx.Err() != nil {
		return errors.NewRuntimeError("lua", "LUA_EVAL_TIMEOUT",
			fmt.Sprintf("execution stopped: %v", ctx.Err())).Wrap(ctx.Err())
	}

	apiErr, ok := err.(*lua.ApiError)
	if !ok {
		line, col, msg := splitPosition(err.Error())
		return errors.NewRuntimeError("lua", "LUA_EVAL_ERROR", msg).WithPosition(line, col).Wrap(err)
	}

	if ud, ok := apiErr.Object.(*lua.LUserData); ok {
		if goErr, ok := ud.Value.(error); ok {
			return errors.NewRuntimeError("lua", "LUA_EVAL_ERROR", goErr.Error()).Wrap(goErr)
		}
	}

	code := "LUA_EVAL_ERROR"
	if apiErr.Type == lua.ApiErrorSyntax {
		code = "LUA_SYNTAX_ERROR"
	}
	line, col, msg := splitPosition(apiErr.Object.String())
	return errors.NewRuntimeError("lua", code, msg).WithPosition(line, col).Wrap(err)
}

// splitPosition extracts the position from "<input>:N: message" or
// "<input> line:N(column:M) message".
func splitPosition(text string) (line, col int, msg string) {
	msg = strings.TrimSpace(text)
	if idx := strings.IndexByte(msg, '\n'); idx >= 0 {
		msg = msg[:idx]
	}
	if m := runtimePosition.FindStringSubmatch(msg); m != nil {
		line, _ = strconv.Atoi(m[1])
		return line, 0, m[2]
	}
	if m := syntaxPosition.FindStringSubmatch(msg); m != nil {
		line, _ = strconv.Atoi(m[1])
		col, _ = strconv.Atoi(m[2])
		return line, col, m[3]
	}
	return 0, 0, msg
}

// SetVariable sets a global variable in the Lua runtime
func (lr *LuaRuntime) SetVariable(name string, value interface{}) error {
	lr.mu.Lock()
	defer lr.mu.Unlock()

	if !lr.ready {
		return errors.NewRuntimeError("lua", "LUA_RUNTIME_NOT_INITIALIZED", "runtime is not initialized")
	}

	luaValue, err := lr.GoToLua(value)
	if err != nil {
		return errors.NewRuntimeError("lua", "LUA_VALUE_CONVERSION_ERROR", err.Error()).Wrap(err)
	}
	lr.state.SetGlobal(name, luaValue)
	return nil
}

// GetVariable retrieves a global variable from the Lua runtime
func (lr *LuaRuntime) GetVariable(name string) (interface{}, error) {
	lr.mu.Lock()
	defer lr.mu.Unlock()

	if !lr.ready {
		return nil, errors.NewRuntimeError("lua", "LUA_RUNTIME_NOT_INITIALIZED", "runtime is not initialized")
	}

	value := lr.state.GetGlobal(name)
	if value == lua.LNil {
		return nil, errors.NewRuntimeError("lua", "LUA_VARIABLE_NOT_FOUND", fmt.Sprintf("variable '%s' not found", name))
	}
	return lr.luaToGo(value), nil
}
