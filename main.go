// Command bitterm is an interactive terminal for arbitrary-width unsigned
// bit values, scripted in Lua.
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	goruntime "runtime"
	"strings"

	"bitterm/errors"
	"bitterm/logging"
	"bitterm/repl"

	"github.com/urfave/cli/v2"
)

var version = "0.1.0"

var (
	configFlag = &cli.StringFlag{
		Name:    "config",
		Aliases: []string{"c"},
		Usage:   "path to a YAML or JSON configuration file",
	}
	verboseFlag = &cli.BoolFlag{
		Name:  "verbose",
		Usage: "log at debug level",
	}
	logLevelFlag = &cli.StringFlag{
		Name:  "log-level",
		Usage: "debug, info, warn, error or off",
	}
	formatFlag = &cli.StringFlag{
		Name:    "format",
		Aliases: []string{"f"},
		Usage:   "value format: binary, decimal, hex, erlang or all",
	}
	forceFlag = &cli.BoolFlag{
		Name:  "force",
		Usage: "overwrite an existing file",
	}
)

// session is the configuration and logger shared by every command
type session struct {
	cfg    *Config
	logger logging.Logger
}

func defaultConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "bitterm.yaml"
	}
	return filepath.Join(home, ".bitterm", "config.yaml")
}

// findConfig returns the explicit path or the first default location that exists
func findConfig(explicit string) string {
	if explicit != "" {
		return explicit
	}
	for _, path := range []string{defaultConfigPath(), "bitterm.yaml"} {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}

// loadSession reads the configuration and applies flag overrides
func loadSession(c *cli.Context) (*session, error) {
	cfg, err := LoadConfig(findConfig(c.String(configFlag.Name)))
	if err != nil {
		return nil, err
	}

	if c.IsSet(formatFlag.Name) {
		cfg.Display.Format = c.String(formatFlag.Name)
	}
	if c.IsSet(logLevelFlag.Name) {
		cfg.Logging.Level = c.String(logLevelFlag.Name)
	}
	if c.Bool(verboseFlag.Name) {
		cfg.Engine.Verbose = true
	}
	if cfg.Engine.Verbose {
		cfg.Logging.Level = "debug"
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	logger, err := logging.New(cfg.LoggerOptions(), c.App.ErrWriter)
	if err != nil {
		return nil, err
	}
	return &session{cfg: cfg, logger: logger}, nil
}

func startREPL(c *cli.Context) error {
	s, err := loadSession(c)
	if err != nil {
		return err
	}
	defer s.logger.Close()

	rt, err := newRuntime(s.cfg, c.App.Writer, s.logger)
	if err != nil {
		return err
	}

	r := repl.New(rt, repl.Config{
		Prompt:           s.cfg.REPL.Prompt,
		ContinuePrompt:   s.cfg.REPL.ContinuePrompt,
		HistoryFile:      expandHome(s.cfg.REPL.HistoryFile),
		HistorySize:      s.cfg.REPL.HistorySize,
		ShowWelcome:      s.cfg.REPL.ShowWelcome,
		EnableColors:     s.cfg.REPL.Colors,
		Display:          s.cfg.DisplayOptions(),
		MaxExecutionTime: s.cfg.ExecutionTimeout(),
		Version:          version,
	}, s.logger)
	r.SetIO(os.Stdin, c.App.Writer)
	return r.Run(c.Context)
}

func runCommand(c *cli.Context) error {
	if c.Args().Len() != 1 {
		return errors.NewUserError("INVALID_ARGUMENTS", "usage: bitterm run <script.lua>")
	}
	s, err := loadSession(c)
	if err != nil {
		return err
	}
	defer s.logger.Close()

	return RunScript(c.Context, s.cfg, c.Args().First(), c.App.Writer, s.logger)
}

func evalCommand(c *cli.Context) error {
	if c.Args().Len() == 0 {
		return errors.NewUserError("INVALID_ARGUMENTS", "usage: bitterm eval <expression>")
	}
	s, err := loadSession(c)
	if err != nil {
		return err
	}
	defer s.logger.Close()

	return EvalExpression(c.Context, s.cfg, strings.Join(c.Args().Slice(), " "), c.App.Writer, s.logger)
}

func configInitCommand(c *cli.Context) error {
	path := c.Args().First()
	if path == "" {
		path = defaultConfigPath()
	}
	path = expandHome(path)

	if _, err := os.Stat(path); err == nil && !c.Bool(forceFlag.Name) {
		return errors.NewUserError("CONFIG_EXISTS", fmt.Sprintf("%s already exists, use --force to overwrite", path))
	}
	if err := SaveConfig(DefaultConfig(), path); err != nil {
		return err
	}
	fmt.Fprintf(c.App.Writer, "wrote default configuration to %s\n", path)
	return nil
}

func versionCommand(c *cli.Context) error {
	fmt.Fprintf(c.App.Writer, "bitterm %s\n", version)
	if c.Bool(verboseFlag.Name) {
		fmt.Fprintf(c.App.Writer, "Go version: %s\n", goruntime.Version())
	}
	return nil
}

func newApp(out, errOut io.Writer) *cli.App {
	return &cli.App{
		Name:        "bitterm",
		Usage:       "explore arbitrary-width bit values from a Lua REPL",
		Version:     version,
		HideVersion: true,
		Writer:      out,
		ErrWriter:   errOut,
		Flags:       []cli.Flag{configFlag, verboseFlag, logLevelFlag, formatFlag},
		Action:      startREPL,
		Commands: []*cli.Command{
			{
				Name:      "run",
				Usage:     "execute a Lua script and stop at the first error",
				ArgsUsage: "<script.lua>",
				Action:    runCommand,
			},
			{
				Name:      "eval",
				Usage:     "evaluate one expression and print the result",
				ArgsUsage: "<expression>",
				Action:    evalCommand,
			},
			{
				Name:  "config",
				Usage: "manage the configuration file",
				Subcommands: []*cli.Command{
					{
						Name:      "init",
						Usage:     "write the default configuration",
						ArgsUsage: "[path]",
						Flags:     []cli.Flag{forceFlag},
						Action:    configInitCommand,
					},
				},
			},
			{
				Name:   "version",
				Usage:  "print version information",
				Action: versionCommand,
			},
		},
	}
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := newApp(os.Stdout, os.Stderr).RunContext(ctx, os.Args); err != nil {
		fmt.Fprintln(os.Stderr, describeError(err))
		stop()
		os.Exit(1)
	}
}

// describeError renders err for the terminal, with its position when known
func describeError(err error) string {
	execErr, ok := errors.AsExecutionError(err)
	if !ok {
		return "Error: " + err.Error()
	}
	msg := execErr.Message
	if file, ok := execErr.Context["file"]; ok {
		msg = fmt.Sprintf("%v: %s", file, msg)
	}
	if execErr.Line > 0 {
		return fmt.Sprintf("Error at line %d: %s", execErr.Line, msg)
	}
	return "Error: " + msg
}
