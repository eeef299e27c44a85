package repl

import (
	"sort"
	"strings"

	"bitterm/runtime"
	"bitterm/shared"
)

var commandNames = []string{
	":buffer", ":clear", ":exit", ":format", ":help", ":history", ":load",
	":quit", ":reset", ":vars", ":version",
}

// RuntimeCompleter implements readline.AutoCompleter over REPL commands
// and the runtime's identifier completion
type RuntimeCompleter struct {
	rt runtime.LanguageRuntime
}

// NewRuntimeCompleter creates a completer backed by rt
func NewRuntimeCompleter(rt runtime.LanguageRuntime) *RuntimeCompleter {
	return &RuntimeCompleter{rt: rt}
}

// Do returns the suffixes that complete the word before pos, and the length
// of that word, as readline v1.5 expects.
func (rc *RuntimeCompleter) Do(line []rune, pos int) (newLine [][]rune, length int) {
	defer func() {
		if r := recover(); r != nil {
			newLine, length = [][]rune{}, 0
		}
	}()

	input := string(line[:pos])
	trimmed := strings.TrimLeft(input, " \t")

	if strings.HasPrefix(trimmed, ":") {
		return completeCommand(trimmed)
	}

	start := len(input)
	for start > 0 && isWordByte(input[start-1]) {
		start--
	}
	word := input[start:]

	for _, full := range rc.rt.GetCompletionSuggestions(input) {
		if strings.HasPrefix(full, input) {
			newLine = append(newLine, []rune(full[len(input):]))
		}
	}
	return newLine, len([]rune(word))
}

func completeCommand(input string) ([][]rune, int) {
	if rest, ok := strings.CutPrefix(input, ":format "); ok {
		prefix := strings.TrimLeft(rest, " ")
		var out [][]rune
		for _, f := range shared.DisplayFormats {
			if strings.HasPrefix(string(f), prefix) {
				out = append(out, []rune(strings.TrimPrefix(string(f), prefix)))
			}
		}
		return out, len([]rune(prefix))
	}
	if strings.ContainsAny(input, " \t") {
		return nil, 0
	}

	var out [][]rune
	for _, name := range commandNames {
		if strings.HasPrefix(name, input) {
			out = append(out, []rune(strings.TrimPrefix(name, input)))
		}
	}
	sort.Slice(out, func(i, j int) bool { return string(out[i]) < string(out[j]) })
	return out, len([]rune(input))
}

func isWordByte(c byte) bool {
	return c == '_' || c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z' || c >= '0' && c <= '9'
}
