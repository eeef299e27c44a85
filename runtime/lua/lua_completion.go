package lua

import (
	"sort"
	"strings"

	lua "github.com/yuin/gopher-lua"
)

var luaKeywords = []string{
	"and", "break", "do", "else", "elseif", "end", "false", "for", "function",
	"goto", "if", "in", "local", "nil", "not", "or", "repeat", "return", "then",
	"true", "until", "while",
}

// GetGlobalVariables returns the globals defined since Initialize, sorted
func (lr *LuaRuntime) GetGlobalVariables() []string {
	lr.mu.Lock()
	defer lr.mu.Unlock()

	if !lr.ready {
		return []string{}
	}
	return lr.userGlobals()
}

// GetCompletionSuggestions completes the identifier at the end of input.
// "tbl.pre" completes table keys, "v:pre" completes bit value methods and a
// bare prefix completes globals and keywords. Each suggestion is the whole
// input with the identifier filled in.
func (lr *LuaRuntime) GetCompletionSuggestions(input string) []string {
	lr.mu.Lock()
	defer lr.mu.Unlock()

	if !lr.ready {
		return []string{}
	}

	start := len(input)
	for start > 0 && isIdentByte(input[start-1]) {
		start--
	}
	head, word := input[:start], input[start:]

	var candidates []string
	switch {
	case strings.HasSuffix(head, ":"):
		for name := range valueMethods {
			candidates = append(candidates, name)
		}
	case strings.HasSuffix(head, "."):
		owner := head[:len(head)-1]
		ownerStart := len(owner)
		for ownerStart > 0 && isIdentByte(owner[ownerStart-1]) {
			ownerStart--
		}
		if tbl, ok := lr.state.GetGlobal(owner[ownerStart:]).(*lua.LTable); ok {
			tbl.ForEach(func(key, _ lua.LValue) {
				if name, ok := key.(lua.LString); ok {
					candidates = append(candidates, string(name))
				}
			})
		}
	default:
		if word == "" {
			return []string{}
		}
		lr.state.G.Global.ForEach(func(key, _ lua.LValue) {
			if name, ok := key.(lua.LString); ok && !strings.HasPrefix(string(name), "_") {
				candidates = append(candidates, string(name))
			}
		})
		candidates = append(candidates, luaKeywords...)
	}

	seen := make(map[string]bool, len(candidates))
	suggestions := make([]string, 0)
	for _, name := range candidates {
		if seen[name] || !strings.HasPrefix(name, word) {
			continue
		}
		seen[name] = true
		suggestions = append(suggestions, head+name)
	}
	sort.Strings(suggestions)
	return suggestions
}

func isIdentByte(c byte) bool {
	return c == '_' || c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z' || c >= '0' && c <= '9'
}
