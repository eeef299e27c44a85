package repl

import (
	"fmt"
	"io"
	"strings"

	"bitterm/errors"
	"bitterm/shared"
)

const (
	colorReset   = "\033[0m"
	colorPrimary = "\033[36m"
	colorMuted   = "\033[90m"
	colorSuccess = "\033[32m"
	colorError   = "\033[31m"
)

// DisplayManager renders results, errors and command output
type DisplayManager struct {
	out       io.Writer
	useColors bool
	options   shared.DisplayOptions
}

// NewDisplayManager creates a display manager writing to out
func NewDisplayManager(out io.Writer, useColors bool, opts shared.DisplayOptions) *DisplayManager {
	if opts.Format == "" {
		opts.Format = shared.FormatBinary
	}
	return &DisplayManager{out: out, useColors: useColors, options: opts}
}

func (dm *DisplayManager) paint(color, text string) string {
	if !dm.useColors {
		return text
	}
	return color + text + colorReset
}

// Options returns the current value display options
func (dm *DisplayManager) Options() shared.DisplayOptions {
	return dm.options
}

// SetFormat changes how bit values are rendered
func (dm *DisplayManager) SetFormat(format shared.DisplayFormat) {
	dm.options.Format = format
}

// FormatResult renders an evaluation result. Single-line strings are quoted
// so they stand apart from rendered values.
func (dm *DisplayManager) FormatResult(result interface{}) string {
	if str, ok := result.(string); ok && !strings.Contains(str, "\n") {
		return fmt.Sprintf("%q", str)
	}
	return shared.FormatValueForDisplay(result, dm.options)
}

// ShowResult prints "=> value"; nil results print nothing
func (dm *DisplayManager) ShowResult(result interface{}) {
	if result == nil {
		return
	}
	fmt.Fprintf(dm.out, "%s %s\n", dm.paint(colorSuccess, "=>"), dm.FormatResult(result))
}

// ShowError prints err with its position when it has one
func (dm *DisplayManager) ShowError(err error) {
	var text string
	if execErr, ok := errors.AsExecutionError(err); ok {
		switch {
		case execErr.Line > 0 && execErr.Col > 0:
			text = fmt.Sprintf("Error at line %d, col %d: %s", execErr.Line, execErr.Col, execErr.Message)
		case execErr.Line > 0:
			text = fmt.Sprintf("Error at line %d: %s", execErr.Line, execErr.Message)
		default:
			text = fmt.Sprintf("Error: %s", execErr.Message)
		}
	} else {
		text = fmt.Sprintf("Error: %v", err)
	}
	fmt.Fprintln(dm.out, dm.paint(colorError, text))
}

// ShowInfo prints a plain message
func (dm *DisplayManager) ShowInfo(message string) {
	fmt.Fprintln(dm.out, message)
}

// ShowWelcome prints the banner
func (dm *DisplayManager) ShowWelcome(version string) {
	fmt.Fprintln(dm.out, dm.paint(colorPrimary, "bitterm "+version+" - arbitrary-width bit values in Lua"))
	fmt.Fprintln(dm.out, "Type ':help' for commands or ':quit' to exit")
	fmt.Fprintln(dm.out, "End a line with \\ to continue it on the next one")
	fmt.Fprintln(dm.out)
}

// ShowHelp lists the REPL commands
func (dm *DisplayManager) ShowHelp() {
	fmt.Fprintln(dm.out, "Commands:")
	fmt.Fprintln(dm.out, "  :help, :h              - Show this help message")
	fmt.Fprintln(dm.out, "  :quit, :q, :exit       - Exit the REPL")
	fmt.Fprintln(dm.out, "  :format [name]         - Show or set the value format ("+formatNames()+")")
	fmt.Fprintln(dm.out, "  :vars                  - List variables defined in this session")
	fmt.Fprintln(dm.out, "  :history, :hist        - Show command history")
	fmt.Fprintln(dm.out, "  :clear, :c             - Clear the screen")
	fmt.Fprintln(dm.out, "  :load <file>           - Run a Lua file in this session")
	fmt.Fprintln(dm.out, "  :buffer, :b            - Show the continuation buffer")
	fmt.Fprintln(dm.out, "  :reset                 - Discard the continuation buffer")
	fmt.Fprintln(dm.out, "  :version, :v           - Show version information")
	fmt.Fprintln(dm.out)
	fmt.Fprintln(dm.out, "Examples:")
	fmt.Fprintln(dm.out, "  a = bits.new(8, 200)")
	fmt.Fprintln(dm.out, "  a + bits.new(8, 100)")
	fmt.Fprintln(dm.out, `  bits.parse("0b1010"):ones()`)
}

// ShowHistory prints numbered history entries
func (dm *DisplayManager) ShowHistory(history []string) {
	if len(history) == 0 {
		fmt.Fprintln(dm.out, "No command history")
		return
	}
	for i, cmd := range history {
		fmt.Fprintf(dm.out, "%s %s\n", dm.paint(colorMuted, fmt.Sprintf("%3d:", i+1)), cmd)
	}
}

// ShowBuffer prints the lines waiting in the continuation buffer
func (dm *DisplayManager) ShowBuffer(buffer *MultiLineBuffer) {
	if !buffer.IsActive() {
		fmt.Fprintln(dm.out, "The buffer is empty")
		return
	}
	fmt.Fprintf(dm.out, "The buffer contains %d lines:\n", buffer.LineCount())
	for i, line := range buffer.Lines() {
		fmt.Fprintf(dm.out, "%2d: %s\n", i+1, line)
	}
}

// ClearScreen clears the terminal screen
func (dm *DisplayManager) ClearScreen() {
	fmt.Fprint(dm.out, "\033[H\033[2J")
}

func formatNames() string {
	names := make([]string, len(shared.DisplayFormats))
	for i, f := range shared.DisplayFormats {
		names[i] = string(f)
	}
	return strings.Join(names, "|")
}
