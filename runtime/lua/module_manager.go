package lua

import (
	"fmt"

	"bitterm/errors"

	lua "github.com/yuin/gopher-lua"
)

// LuaModule is a built-in module installed into every state
type LuaModule interface {
	// Name is both the global name and the require() name
	Name() string

	// Open builds the module table. Metatables the module needs are
	// created here too.
	Open(L *lua.LState) (*lua.LTable, error)
}

// ModuleManager installs built-in modules in registration order
type ModuleManager struct {
	modules []LuaModule
}

// NewModuleManager creates a manager holding modules
func NewModuleManager(modules ...LuaModule) (*ModuleManager, error) {
	mm := &ModuleManager{}
	for _, m := range modules {
		if err := mm.Add(m); err != nil {
			return nil, err
		}
	}
	return mm, nil
}

// Add registers a module; names must be unique
func (mm *ModuleManager) Add(module LuaModule) error {
	if module == nil || module.Name() == "" {
		return errors.NewSystemError("LUA_MODULE_INVALID", "module must have a name")
	}
	for _, m := range mm.modules {
		if m.Name() == module.Name() {
			return errors.NewSystemError("LUA_MODULE_DUPLICATE",
				fmt.Sprintf("module %q is already registered", module.Name()))
		}
	}
	mm.modules = append(mm.modules, module)
	return nil
}

// Names lists the registered modules in installation order
func (mm *ModuleManager) Names() []string {
	names := make([]string, len(mm.modules))
	for i, m := range mm.modules {
		names[i] = m.Name()
	}
	return names
}

// Install opens every module, binds it as a global and preloads it, so
// require(name) keeps returning the original table even if the global
// is reassigned.
func (mm *ModuleManager) Install(L *lua.LState) error {
	for _, m := range mm.modules {
		table, err := m.Open(L)
		if err != nil {
			return errors.WrapError(err, "LUA_MODULE_OPEN_ERROR",
				fmt.Sprintf("cannot open module %q", m.Name()))
		}
		L.SetGlobal(m.Name(), table)
		L.PreloadModule(m.Name(), func(L *lua.LState) int {
			L.Push(table)
			return 1
		})
	}
	return nil
}
