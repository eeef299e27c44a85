package repl

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"time"

	"bitterm/errors"
	"bitterm/logging"
	"bitterm/runtime"
	"bitterm/shared"

	"github.com/chzyer/readline"
)

// Config contains configuration for the REPL
type Config struct {
	Prompt         string // Main prompt (default: "bits> ")
	ContinuePrompt string // Prompt while a continued chunk is open (default: "... ")
	HistoryFile    string // readline history file; empty disables persistence
	HistorySize    int    // Maximum history size (default: 1000)
	ShowWelcome    bool
	EnableColors   bool
	Display        shared.DisplayOptions
	// MaxExecutionTime bounds every evaluation; zero means no limit
	MaxExecutionTime time.Duration
	Version          string
}

// displayConfigurable is implemented by runtimes whose print honours the
// REPL's value format
type displayConfigurable interface {
	SetDisplayOptions(opts shared.DisplayOptions)
}

// REPL represents the Read-Eval-Print Loop
type REPL struct {
	rt       runtime.LanguageRuntime
	config   Config
	running  bool
	history  []string
	buffer   *MultiLineBuffer
	display  *DisplayManager
	handler  errors.ErrorHandler
	logger   logging.Logger
	in       io.Reader
	out      io.Writer
	terminal bool
}

// New creates a REPL around an initialized runtime
func New(rt runtime.LanguageRuntime, config Config, logger logging.Logger) *REPL {
	if config.Prompt == "" {
		config.Prompt = "bits> "
	}
	if config.ContinuePrompt == "" {
		config.ContinuePrompt = "... "
	}
	if config.HistorySize <= 0 {
		config.HistorySize = 1000
	}
	if logger == nil {
		logger = logging.NewNopLogger()
	}

	r := &REPL{
		rt:      rt,
		config:  config,
		buffer:  NewMultiLineBuffer(),
		handler: errors.NewInteractiveErrorHandler(),
		logger:  logger.WithComponent("repl"),
	}
	r.SetIO(os.Stdin, os.Stdout)
	return r
}

// SetIO replaces the REPL's input and output. Input that is not a terminal
// is read line by line without readline.
func (r *REPL) SetIO(in io.Reader, out io.Writer) {
	r.in = in
	r.out = out
	r.terminal = false
	if f, ok := in.(*os.File); ok {
		r.terminal = readline.IsTerminal(int(f.Fd()))
	}
	r.display = NewDisplayManager(out, r.config.EnableColors && r.terminal, r.config.Display)
	r.applyDisplay()
}

// SetErrorHandler replaces the policy deciding whether the loop continues
// after an error
func (r *REPL) SetErrorHandler(h errors.ErrorHandler) {
	r.handler = h
}

// History returns the commands entered so far
func (r *REPL) History() []string {
	return append([]string(nil), r.history...)
}

// Run starts the loop and returns when input ends, :quit is entered or the
// error handler aborts
func (r *REPL) Run(ctx context.Context) error {
	r.running = true
	if r.config.ShowWelcome && r.terminal {
		r.display.ShowWelcome(r.config.Version)
	}

	var err error
	if r.terminal {
		err = r.runInteractive(ctx)
	} else {
		err = r.runPiped(ctx)
	}

	if cleanupErr := r.rt.Cleanup(); cleanupErr != nil && err == nil {
		err = errors.WrapError(cleanupErr, "CLEANUP_ERROR", "runtime cleanup failed")
	}
	return err
}

func (r *REPL) runInteractive(ctx context.Context) error {
	rl, err := readline.NewEx(&readline.Config{
		Prompt:          r.config.Prompt,
		HistoryFile:     r.config.HistoryFile,
		HistoryLimit:    r.config.HistorySize,
		InterruptPrompt: "^C",
		EOFPrompt:       ":exit",
		AutoComplete:    NewRuntimeCompleter(r.rt),
		Stdout:          r.out,
	})
	if err != nil {
		return errors.NewSystemError("READLINE_INIT_FAILED", fmt.Sprintf("failed to initialize readline: %v", err)).Wrap(err)
	}
	defer func() {
		if err := rl.Close(); err != nil {
			r.logger.WithError(err).Warn("failed to close readline")
		}
	}()

	for r.running {
		if r.buffer.IsActive() {
			rl.SetPrompt(r.config.ContinuePrompt)
		} else {
			rl.SetPrompt(r.config.Prompt)
		}

		input, err := rl.Readline()
		if err == readline.ErrInterrupt {
			if len(input) == 0 && !r.buffer.IsActive() {
				break
			}
			r.buffer.Clear()
			continue
		}
		if err == io.EOF {
			break
		}
		if err != nil {
			return errors.NewSystemError("READ_ERROR", fmt.Sprintf("read error: %v", err)).Wrap(err)
		}

		if err := r.ProcessLine(ctx, input); err != nil {
			return err
		}
	}
	return nil
}

func (r *REPL) runPiped(ctx context.Context) error {
	scanner := bufio.NewScanner(r.in)
	for r.running && scanner.Scan() {
		if err := r.ProcessLine(ctx, scanner.Text()); err != nil {
			return err
		}
	}
	if err := scanner.Err(); err != nil {
		return errors.NewSystemError("STDIN_READ_ERROR", fmt.Sprintf("error reading input: %v", err)).Wrap(err)
	}

	// a chunk left open by a trailing backslash still runs
	if r.buffer.IsActive() {
		return r.dispatch(ctx, r.flushBuffer)
	}
	return nil
}

// ProcessLine feeds one line of input to the REPL. Errors are shown and
// passed to the error handler; only errors it decides to abort on are
// returned.
func (r *REPL) ProcessLine(ctx context.Context, line string) error {
	if content, more := continuation(line); more {
		r.buffer.AddLine(content)
		return nil
	}

	trimmed := strings.TrimSpace(line)
	if !r.buffer.IsActive() && strings.HasPrefix(trimmed, ":") {
		r.remember(trimmed)
		return r.dispatch(ctx, func(ctx context.Context) error {
			return r.handleCommand(ctx, trimmed)
		})
	}

	if r.buffer.IsActive() {
		r.buffer.AddLine(line)
		return r.dispatch(ctx, r.flushBuffer)
	}
	if trimmed == "" {
		return nil
	}
	r.remember(trimmed)
	return r.dispatch(ctx, func(ctx context.Context) error {
		return r.evaluate(ctx, line)
	})
}

func (r *REPL) flushBuffer(ctx context.Context) error {
	code := r.buffer.Content()
	r.buffer.Clear()
	if strings.TrimSpace(code) == "" {
		return nil
	}
	r.remember(code)
	return r.evaluate(ctx, code)
}

// dispatch runs fn and applies the error handler's recovery policy
func (r *REPL) dispatch(ctx context.Context, fn func(context.Context) error) error {
	err := fn(ctx)
	if err == nil {
		return nil
	}

	execErr := r.handler.Handle(ctx, err)
	r.display.ShowError(execErr)
	if execErr.Type == errors.ErrorTypeSystem {
		r.logger.ErrorExecution(execErr)
	} else {
		r.logger.Debug("command failed", logging.StringField("error_code", execErr.Code))
	}

	if r.handler.Recover(ctx, execErr).Action == errors.RecoveryActionAbort {
		r.running = false
		return execErr
	}
	return nil
}

func (r *REPL) evaluate(ctx context.Context, code string) error {
	if r.config.MaxExecutionTime > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.config.MaxExecutionTime)
		defer cancel()
	}

	result, err := r.rt.Eval(ctx, code)
	if err != nil {
		return err
	}
	r.display.ShowResult(result)
	return nil
}

func (r *REPL) remember(entry string) {
	r.history = append(r.history, entry)
	if extra := len(r.history) - r.config.HistorySize; extra > 0 {
		r.history = r.history[extra:]
	}
}

func (r *REPL) handleCommand(ctx context.Context, input string) error {
	parts := strings.Fields(input[1:])
	if len(parts) == 0 {
		return errors.NewUserError("INVALID_COMMAND", "empty command")
	}
	command, args := parts[0], parts[1:]

	switch command {
	case "help", "h":
		r.display.ShowHelp()
	case "quit", "q", "exit", "e":
		r.running = false
	case "format", "f":
		return r.setFormat(args)
	case "vars":
		r.showVariables()
	case "history", "hist":
		r.display.ShowHistory(r.history)
	case "clear", "c":
		r.display.ClearScreen()
	case "load", "l":
		if len(args) != 1 {
			return errors.NewUserError("INVALID_COMMAND", "usage: :load <file>")
		}
		return r.loadFile(ctx, args[0])
	case "buffer", "b":
		r.display.ShowBuffer(r.buffer)
	case "reset":
		r.buffer.Clear()
		r.display.ShowInfo("The buffer has been reset")
	case "version", "v":
		r.display.ShowInfo("bitterm " + r.config.Version)
	default:
		return errors.NewUserError("UNKNOWN_COMMAND", fmt.Sprintf("unknown command: :%s", command))
	}
	return nil
}

func (r *REPL) setFormat(args []string) error {
	if len(args) == 0 {
		r.display.ShowInfo("format: " + string(r.display.Options().Format))
		return nil
	}
	format, err := shared.ParseDisplayFormat(args[0])
	if err != nil {
		return errors.NewUserError("INVALID_FORMAT", err.Error())
	}
	r.display.SetFormat(format)
	r.applyDisplay()
	r.display.ShowInfo("format: " + string(format))
	return nil
}

// applyDisplay keeps the runtime's print in step with the REPL format
func (r *REPL) applyDisplay() {
	if dc, ok := r.rt.(displayConfigurable); ok {
		dc.SetDisplayOptions(r.display.Options())
	}
}

func (r *REPL) showVariables() {
	names := r.rt.GetGlobalVariables()
	if len(names) == 0 {
		r.display.ShowInfo("No variables defined")
		return
	}
	sort.Strings(names)
	for _, name := range names {
		value, err := r.rt.GetVariable(name)
		if err != nil {
			continue
		}
		r.display.ShowInfo(fmt.Sprintf("%s = %s", name, r.display.FormatResult(value)))
	}
}

func (r *REPL) loadFile(ctx context.Context, path string) error {
	code, err := os.ReadFile(path)
	if err != nil {
		return errors.NewUserError("FILE_READ_ERROR", fmt.Sprintf("cannot read %s: %v", path, err)).Wrap(err)
	}

	if r.config.MaxExecutionTime > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.config.MaxExecutionTime)
		defer cancel()
	}

	start := time.Now()
	if err := r.rt.ExecuteBatch(ctx, string(code)); err != nil {
		if execErr, ok := errors.AsExecutionError(err); ok {
			execErr.WithContext("file", path)
		}
		return err
	}
	r.logger.Debug("file loaded",
		logging.StringField("path", path),
		logging.DurationField("elapsed", time.Since(start)))
	return nil
}
