package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"bitterm/errors"
	"bitterm/logging"
	"bitterm/runtime/lua"
	"bitterm/shared"
)

// newRuntime creates and initializes the Lua runtime described by cfg
func newRuntime(cfg *Config, out io.Writer, logger logging.Logger) (*lua.LuaRuntime, error) {
	rt := lua.NewLuaRuntime(lua.Options{
		Output:       out,
		DefaultWidth: cfg.Bits.DefaultWidth,
		Display:      cfg.DisplayOptions(),
		Logger:       logger,
	})
	if err := rt.Initialize(); err != nil {
		return nil, err
	}
	return rt, nil
}

// withTimeout applies the configured evaluation limit to ctx
func withTimeout(ctx context.Context, cfg *Config) (context.Context, context.CancelFunc) {
	if limit := cfg.ExecutionTimeout(); limit > 0 {
		return context.WithTimeout(ctx, limit)
	}
	return context.WithCancel(ctx)
}

// RunScript executes a Lua file without the interactive REPL. The first
// error stops the script and is returned.
func RunScript(ctx context.Context, cfg *Config, path string, out io.Writer, logger logging.Logger) error {
	logger = logger.WithComponent("batch")
	handler := errors.NewBatchErrorHandler()

	code, err := os.ReadFile(path)
	if err != nil {
		return errors.NewUserError("FILE_READ_ERROR", fmt.Sprintf("cannot read %s: %v", path, err)).Wrap(err)
	}

	rt, err := newRuntime(cfg, out, logger)
	if err != nil {
		return err
	}
	defer rt.Cleanup()

	ctx, cancel := withTimeout(ctx, cfg)
	defer cancel()

	start := time.Now()
	if err := rt.ExecuteBatch(ctx, string(code)); err != nil {
		execErr := handler.Handle(ctx, err).WithContext("file", path)
		logger.ErrorExecution(execErr)
		if handler.Recover(ctx, execErr).Action == errors.RecoveryActionAbort {
			return execErr
		}
	}

	logger.Info("script finished",
		logging.StringField("file", path),
		logging.DurationField("elapsed", time.Since(start)))
	return nil
}

// EvalExpression evaluates one chunk and prints its formatted result
func EvalExpression(ctx context.Context, cfg *Config, code string, out io.Writer, logger logging.Logger) error {
	logger = logger.WithComponent("batch")

	rt, err := newRuntime(cfg, out, logger)
	if err != nil {
		return err
	}
	defer rt.Cleanup()

	ctx, cancel := withTimeout(ctx, cfg)
	defer cancel()

	result, err := rt.Eval(ctx, code)
	if err != nil {
		return err
	}
	if result != nil {
		fmt.Fprintln(out, shared.FormatValueForDisplay(result, cfg.DisplayOptions()))
	}
	return nil
}
