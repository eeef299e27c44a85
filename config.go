package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"bitterm/errors"
	"bitterm/logging"
	"bitterm/shared"

	"gopkg.in/yaml.v3"
)

// Config represents the application configuration
type Config struct {
	REPL    REPLConfig    `json:"repl" yaml:"repl"`
	Engine  EngineConfig  `json:"engine" yaml:"engine"`
	Display DisplayConfig `json:"display" yaml:"display"`
	Bits    BitsConfig    `json:"bits" yaml:"bits"`
	Logging LoggingConfig `json:"logging" yaml:"logging"`
}

// REPLConfig contains REPL configuration
type REPLConfig struct {
	Prompt         string `json:"prompt" yaml:"prompt"`
	ContinuePrompt string `json:"continue_prompt" yaml:"continue_prompt"`
	HistorySize    int    `json:"history_size" yaml:"history_size"`
	HistoryFile    string `json:"history_file" yaml:"history_file"`
	ShowWelcome    bool   `json:"show_welcome" yaml:"show_welcome"`
	Colors         bool   `json:"colors" yaml:"colors"`
}

// EngineConfig contains evaluation limits
type EngineConfig struct {
	MaxExecutionTime int  `json:"max_execution_time_seconds" yaml:"max_execution_time_seconds"`
	Verbose          bool `json:"verbose" yaml:"verbose"`
}

// DisplayConfig controls how bit values are rendered
type DisplayConfig struct {
	Format    string `json:"format" yaml:"format"`
	ShowWidth bool   `json:"show_width" yaml:"show_width"`
}

// BitsConfig configures the Lua bits module
type BitsConfig struct {
	DefaultWidth int `json:"default_width" yaml:"default_width"`
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Level      string `json:"level" yaml:"level"`
	Format     string `json:"format" yaml:"format"`
	File       string `json:"file" yaml:"file"`
	MaxSizeMB  int    `json:"max_size_mb" yaml:"max_size_mb"`
	MaxBackups int    `json:"max_backups" yaml:"max_backups"`
}

// DefaultConfig returns the default configuration
func DefaultConfig() *Config {
	return &Config{
		REPL: REPLConfig{
			Prompt:         "bits> ",
			ContinuePrompt: "... ",
			HistorySize:    1000,
			HistoryFile:    "~/.bitterm_history",
			ShowWelcome:    true,
		},
		Engine: EngineConfig{
			MaxExecutionTime: 10,
		},
		Display: DisplayConfig{
			Format:    string(shared.FormatBinary),
			ShowWidth: true,
		},
		Bits: BitsConfig{
			DefaultWidth: 8,
		},
		Logging: LoggingConfig{
			Level:      "warn",
			Format:     "text",
			MaxSizeMB:  10,
			MaxBackups: 3,
		},
	}
}

// LoadConfig loads configuration from a file. A missing file or an empty
// path yields the defaults.
func LoadConfig(path string) (*Config, error) {
	config := DefaultConfig()
	if path == "" {
		return config, nil
	}

	path = expandHome(path)
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return config, nil
		}
		return nil, errors.WrapError(err, "CONFIG_READ_ERROR", "failed to read config file "+path)
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		err = json.Unmarshal(data, config)
	default:
		err = yaml.Unmarshal(data, config)
	}
	if err != nil {
		return nil, errors.NewUserError("CONFIG_PARSE_ERROR",
			fmt.Sprintf("failed to parse config file %s: %v", path, err)).Wrap(err)
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}
	return config, nil
}

// SaveConfig writes config to path, as JSON for a .json extension and YAML
// otherwise
func SaveConfig(config *Config, path string) error {
	path = expandHome(path)
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return errors.WrapError(err, "CONFIG_WRITE_ERROR", "failed to create config directory")
	}

	var (
		data []byte
		err  error
	)
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		data, err = json.MarshalIndent(config, "", "  ")
	default:
		data, err = yaml.Marshal(config)
	}
	if err != nil {
		return errors.WrapError(err, "CONFIG_WRITE_ERROR", "failed to encode config")
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return errors.WrapError(err, "CONFIG_WRITE_ERROR", "failed to write config file "+path)
	}
	return nil
}

// Validate reports the first setting that cannot be used
func (c *Config) Validate() error {
	invalid := func(field, format string, args ...interface{}) error {
		return errors.NewValidationError("INVALID_CONFIG", field+": "+fmt.Sprintf(format, args...)).
			WithContext("field", field)
	}

	if c.REPL.HistorySize < 0 {
		return invalid("repl.history_size", "must not be negative, got %d", c.REPL.HistorySize)
	}
	if c.Engine.MaxExecutionTime < 0 {
		return invalid("engine.max_execution_time_seconds", "must not be negative, got %d", c.Engine.MaxExecutionTime)
	}
	if _, err := shared.ParseDisplayFormat(c.Display.Format); err != nil {
		return invalid("display.format", "%v", err)
	}
	if c.Bits.DefaultWidth <= 0 {
		return invalid("bits.default_width", "must be positive, got %d", c.Bits.DefaultWidth)
	}
	if _, err := logging.ParseLevel(c.Logging.Level); err != nil {
		return invalid("logging.level", "%v", err)
	}
	switch strings.ToLower(c.Logging.Format) {
	case "", "text", "json", "simple":
	default:
		return invalid("logging.format", "unknown format %q", c.Logging.Format)
	}
	if c.Logging.MaxSizeMB < 0 || c.Logging.MaxBackups < 0 {
		return invalid("logging", "rotation limits must not be negative")
	}
	return nil
}

// DisplayOptions converts the display section; call after Validate
func (c *Config) DisplayOptions() shared.DisplayOptions {
	format, err := shared.ParseDisplayFormat(c.Display.Format)
	if err != nil {
		format = shared.FormatBinary
	}
	return shared.DisplayOptions{Format: format, ShowWidth: c.Display.ShowWidth}
}

// LoggerOptions converts the logging section
func (c *Config) LoggerOptions() logging.Options {
	return logging.Options{
		Level:      c.Logging.Level,
		Format:     c.Logging.Format,
		File:       expandHome(c.Logging.File),
		MaxSizeMB:  c.Logging.MaxSizeMB,
		MaxBackups: c.Logging.MaxBackups,
	}
}

// ExecutionTimeout is the per-evaluation limit; zero disables it
func (c *Config) ExecutionTimeout() time.Duration {
	return time.Duration(c.Engine.MaxExecutionTime) * time.Second
}

// expandHome expands ~ to the user's home directory
func expandHome(path string) string {
	if strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err == nil {
			return filepath.Join(home, path[2:])
		}
	}
	return path
}
