package lua

import (
	"fmt"
	"io"
	"math"
	"os"
	"sort"
	"strings"
	"sync"

	"bitterm/bitval"
	"bitterm/errors"
	"bitterm/logging"
	"bitterm/shared"

	lua "github.com/yuin/gopher-lua"
)

// Options configures a LuaRuntime
type Options struct {
	// Output receives everything scripts print; stdout when nil
	Output io.Writer
	// DefaultWidth is the width bits.new uses when given only a value
	DefaultWidth int
	// Display controls how print renders bit values
	Display shared.DisplayOptions
	Logger  logging.Logger
}

// LuaRuntime implements the LanguageRuntime interface for Lua
type LuaRuntime struct {
	state         *lua.LState
	ready         bool
	mu            sync.Mutex
	output        io.Writer
	display       shared.DisplayOptions
	defaultWidth  int
	moduleManager *ModuleManager
	builtins      map[string]bool
	logger        logging.Logger
}

// NewLuaRuntime creates a new Lua runtime instance
func NewLuaRuntime(opts Options) *LuaRuntime {
	lr := &LuaRuntime{
		output:       opts.Output,
		display:      opts.Display,
		defaultWidth: opts.DefaultWidth,
		logger:       opts.Logger,
	}
	if lr.output == nil {
		lr.output = os.Stdout
	}
	if lr.display.Format == "" {
		lr.display.Format = shared.FormatBinary
	}
	if lr.logger == nil {
		lr.logger = logging.NewNopLogger()
	}
	lr.logger = lr.logger.WithComponent("lua")
	return lr
}

// Initialize sets up the Lua runtime
func (lr *LuaRuntime) Initialize() error {
	lr.mu.Lock()
	defer lr.mu.Unlock()

	if lr.state != nil {
		lr.state.Close()
	}

	lr.state = lua.NewState()
	lr.registerGoFunctions()

	modules, err := NewModuleManager(NewBitsModule(lr.defaultWidth))
	if err != nil {
		lr.state.Close()
		return errors.WrapError(err, "LUA_INIT_ERROR", "failed to register built-in modules")
	}
	lr.moduleManager = modules
	if err = lr.moduleManager.Install(lr.state); err != nil {
		lr.state.Close()
		return errors.WrapError(err, "LUA_INIT_ERROR", "failed to install built-in modules")
	}

	lr.builtins = make(map[string]bool)
	lr.state.G.Global.ForEach(func(key, _ lua.LValue) {
		if name, ok := key.(lua.LString); ok {
			lr.builtins[string(name)] = true
		}
	})

	lr.ready = true
	lr.logger.Debug("runtime initialized", logging.StringField("modules", strings.Join(lr.moduleManager.Names(), ",")))
	return nil
}

// registerGoFunctions replaces print so output goes to lr.output
func (lr *LuaRuntime) registerGoFunctions() {
	lr.state.SetGlobal("print", lr.state.NewFunction(func(L *lua.LState) int {
		opts := lr.display
		opts.ShowWidth = false

		parts := make([]string, L.GetTop())
		for i := range parts {
			parts[i] = shared.FormatValueForDisplay(lr.luaToGo(L.Get(i+1)), opts)
		}

		fmt.Fprintln(lr.output, strings.Join(parts, "\t"))
		return 0
	}))
}

// SetOutput redirects print
func (lr *LuaRuntime) SetOutput(w io.Writer) {
	lr.mu.Lock()
	defer lr.mu.Unlock()
	lr.output = w
}

// SetDisplayOptions changes how print renders bit values
func (lr *LuaRuntime) SetDisplayOptions(opts shared.DisplayOptions) {
	lr.mu.Lock()
	defer lr.mu.Unlock()
	lr.display = opts
}

// GetName returns the name of the language runtime
func (lr *LuaRuntime) GetName() string {
	return "lua"
}

// IsReady checks if the runtime is ready for execution
func (lr *LuaRuntime) IsReady() bool {
	lr.mu.Lock()
	defer lr.mu.Unlock()
	return lr.ready && lr.state != nil
}

// Cleanup releases resources used by the runtime
func (lr *LuaRuntime) Cleanup() error {
	lr.mu.Lock()
	defer lr.mu.Unlock()

	if lr.state != nil {
		lr.state.Close()
		lr.state = nil
	}
	lr.ready = false
	return nil
}

// GoToLua converts a Go value to a Lua value
func (lr *LuaRuntime) GoToLua(value interface{}) (lua.LValue, error) {
	switch v := value.(type) {
	case nil:
		return lua.LNil, nil
	case *bitval.BitValue:
		return newValueUserData(lr.state, v), nil
	case string:
		return lua.LString(v), nil
	case bool:
		return lua.LBool(v), nil
	case int:
		return lua.LNumber(v), nil
	case int64:
		return lua.LNumber(v), nil
	case uint64:
		return lua.LNumber(v), nil
	case float64:
		return lua.LNumber(v), nil
	case []interface{}:
		table := lr.state.NewTable()
		for i, item := range v {
			luaItem, err := lr.GoToLua(item)
			if err != nil {
				return nil, err
			}
			table.RawSetInt(i+1, luaItem)
		}
		return table, nil
	case map[string]interface{}:
		table := lr.state.NewTable()
		for key, item := range v {
			luaItem, err := lr.GoToLua(item)
			if err != nil {
				return nil, err
			}
			table.RawSetString(key, luaItem)
		}
		return table, nil
	default:
		return nil, fmt.Errorf("unsupported Go type: %T", value)
	}
}

func (lr *LuaRuntime) luaToGo(value lua.LValue) interface{} {
	return lr.luaToGoWithVisited(value, make(map[*lua.LTable]bool))
}

// luaToGoWithVisited converts a Lua value to Go. Whole numbers become
// int64, bit values stay *bitval.BitValue, and tables become slices or maps.
func (lr *LuaRuntime) luaToGoWithVisited(value lua.LValue, visited map[*lua.LTable]bool) interface{} {
	switch v := value.(type) {
	case lua.LString:
		return string(v)
	case lua.LNumber:
		num := float64(v)
		if num == math.Trunc(num) && num >= math.MinInt64 && num < math.MaxInt64 {
			return int64(num)
		}
		return num
	case lua.LBool:
		return bool(v)
	case *lua.LUserData:
		if bv, ok := v.Value.(*bitval.BitValue); ok {
			return bv
		}
		if err, ok := v.Value.(error); ok {
			return err.Error()
		}
		return v.Value
	case *lua.LTable:
		if visited[v] {
			return "<circular_reference>"
		}
		visited[v] = true
		defer delete(visited, v)

		if n := v.Len(); n > 0 && v.MaxN() == n && countKeys(v) == n {
			items := make([]interface{}, n)
			for i := 1; i <= n; i++ {
				items[i-1] = lr.luaToGoWithVisited(v.RawGetInt(i), visited)
			}
			return items
		}

		result := make(map[string]interface{})
		v.ForEach(func(key, val lua.LValue) {
			result[lua.LVAsString(key)] = lr.luaToGoWithVisited(val, visited)
		})
		return result
	default:
		if value == lua.LNil {
			return nil
		}
		return value.String()
	}
}

func countKeys(t *lua.LTable) int {
	n := 0
	t.ForEach(func(_, _ lua.LValue) { n++ })
	return n
}

// userGlobals lists globals that were not present after Initialize
func (lr *LuaRuntime) userGlobals() []string {
	var names []string
	lr.state.G.Global.ForEach(func(key, _ lua.LValue) {
		if name, ok := key.(lua.LString); ok && !lr.builtins[string(name)] {
			names = append(names, string(name))
		}
	})
	sort.Strings(names)
	return names
}
