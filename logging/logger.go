package logging

import (
	"fmt"
	"io"
	"os"
	"runtime"
	"strings"
	"sync"
	"time"

	"bitterm/errors"
)

// LogLevel represents the severity level of a log entry
type LogLevel int

const (
	LevelDebug LogLevel = iota
	LevelInfo
	LevelWarning
	LevelError
	LevelOff
)

var levelNames = [...]string{
	LevelDebug:   "DEBUG",
	LevelInfo:    "INFO",
	LevelWarning: "WARNING",
	LevelError:   "ERROR",
	LevelOff:     "OFF",
}

var levelsByName = map[string]LogLevel{
	"":        LevelInfo,
	"debug":   LevelDebug,
	"info":    LevelInfo,
	"warn":    LevelWarning,
	"warning": LevelWarning,
	"error":   LevelError,
	"off":     LevelOff,
	"none":    LevelOff,
}

func (l LogLevel) String() string {
	if l < 0 || int(l) >= len(levelNames) {
		return "UNKNOWN"
	}
	return levelNames[l]
}

// ParseLevel converts a configuration string such as "warn" to a LogLevel
func ParseLevel(level string) (LogLevel, error) {
	if l, ok := levelsByName[strings.ToLower(strings.TrimSpace(level))]; ok {
		return l, nil
	}
	return LevelInfo, fmt.Errorf("unknown log level %q", level)
}

// LogField represents a key-value pair for structured logging
type LogField struct {
	Key   string      `json:"key"`
	Value interface{} `json:"value"`
}

// LogEntry represents a single log entry
type LogEntry struct {
	Timestamp time.Time              `json:"timestamp"`
	Level     LogLevel               `json:"level"`
	Message   string                 `json:"message"`
	Fields    map[string]interface{} `json:"fields,omitempty"`
	Caller    string                 `json:"caller,omitempty"`
	Error     error                  `json:"error,omitempty"`
	Component string                 `json:"component,omitempty"`
	Language  string                 `json:"language,omitempty"`
}

// Logger defines the interface for structured logging
type Logger interface {
	Debug(msg string, fields ...LogField)
	Info(msg string, fields ...LogField)
	Warn(msg string, fields ...LogField)
	Error(msg string, fields ...LogField)

	// ErrorExecution logs err, expanding ExecutionError code, type and position
	ErrorExecution(err error, fields ...LogField)

	// WithFields returns a new logger that adds fields to every entry
	WithFields(fields ...LogField) Logger

	// WithError returns a new logger with the specified error
	WithError(err error) Logger

	// WithComponent returns a new logger tagged with a component name
	WithComponent(component string) Logger

	// WithLanguage returns a new logger tagged with a script language
	WithLanguage(language string) Logger

	SetLevel(level LogLevel)
	GetLevel() LogLevel

	// Close flushes and closes every writer
	Close() error
}

// Formatter defines the interface for log formatting
type Formatter interface {
	Format(entry *LogEntry) ([]byte, error)
	GetName() string
}

// Writer defines the interface for log output
type Writer interface {
	Write(data []byte) error
	Flush() error
	Close() error
	GetName() string
}

// levelHolder is shared between a logger and the copies derived from it,
// so SetLevel on the root is visible everywhere.
type levelHolder struct {
	mu    sync.RWMutex
	level LogLevel
}

func (h *levelHolder) get() LogLevel {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.level
}

func (h *levelHolder) set(level LogLevel) {
	h.mu.Lock()
	h.level = level
	h.mu.Unlock()
}

// DefaultLogger is the default implementation of Logger
type DefaultLogger struct {
	level      *levelHolder
	fields     map[string]interface{}
	error      error
	component  string
	language   string
	formatter  Formatter
	writers    []Writer
	callerSkip int
}

// LoggerConfig contains configuration for the logger
type LoggerConfig struct {
	Level      LogLevel
	Formatter  Formatter
	Writers    []Writer
	CallerSkip int
}

// NewDefaultLoggerWithConfig creates a new default logger with configuration
func NewDefaultLoggerWithConfig(config LoggerConfig) *DefaultLogger {
	logger := &DefaultLogger{
		level:      &levelHolder{level: config.Level},
		fields:     make(map[string]interface{}),
		formatter:  config.Formatter,
		writers:    config.Writers,
		callerSkip: config.CallerSkip,
	}

	if logger.formatter == nil {
		logger.formatter = NewTextFormatter(false)
	}
	if logger.writers == nil {
		logger.writers = []Writer{NewConsoleWriter(os.Stderr)}
	}
	if logger.callerSkip == 0 {
		logger.callerSkip = 3
	}

	return logger
}

// NewNopLogger returns a logger that discards everything
func NewNopLogger() *DefaultLogger {
	return NewDefaultLoggerWithConfig(LoggerConfig{
		Level:   LevelOff,
		Writers: []Writer{NewNullWriter()},
	})
}

// Options selects the formatter, level and destination of a logger
type Options struct {
	Level  string
	Format string
	File   string
	Color  bool
	// MaxSizeMB rotates File once it would exceed this size; 0 disables rotation
	MaxSizeMB  int
	MaxBackups int
}

// New builds a logger from string options. Entries go to File when set,
// otherwise to console.
func New(opts Options, console io.Writer) (*DefaultLogger, error) {
	level, err := ParseLevel(opts.Level)
	if err != nil {
		return nil, errors.NewValidationError("INVALID_LOG_LEVEL", err.Error()).Wrap(err)
	}

	var formatter Formatter
	switch strings.ToLower(opts.Format) {
	case "", "text":
		formatter = NewTextFormatter(opts.Color)
	case "json":
		formatter = NewJSONFormatter()
	case "simple":
		formatter = NewSimpleFormatter()
	default:
		return nil, errors.NewValidationError("INVALID_LOG_FORMAT",
			fmt.Sprintf("unknown log format %q", opts.Format))
	}

	var writer Writer
	if opts.File != "" {
		fw, err := NewRotatingFileWriter(opts.File, int64(opts.MaxSizeMB)<<20, opts.MaxBackups)
		if err != nil {
			return nil, errors.WrapError(err, "LOG_FILE_ERROR", "cannot open log file "+opts.File)
		}
		writer = fw
	} else {
		writer = NewConsoleWriter(console)
	}

	return NewDefaultLoggerWithConfig(LoggerConfig{
		Level:     level,
		Formatter: formatter,
		Writers:   []Writer{writer},
	}), nil
}

// Debug logs a debug message
func (l *DefaultLogger) Debug(msg string, fields ...LogField) {
	l.log(LevelDebug, msg, fields...)
}

// Info logs an info message
func (l *DefaultLogger) Info(msg string, fields ...LogField) {
	l.log(LevelInfo, msg, fields...)
}

// Warn logs a warning message
func (l *DefaultLogger) Warn(msg string, fields ...LogField) {
	l.log(LevelWarning, msg, fields...)
}

// Error logs an error message
func (l *DefaultLogger) Error(msg string, fields ...LogField) {
	l.log(LevelError, msg, fields...)
}

// ErrorExecution logs err at error level. For an ExecutionError the code,
// type, position and context entries (such as the script file) become
// fields.
func (l *DefaultLogger) ErrorExecution(err error, fields ...LogField) {
	execErr, ok := errors.AsExecutionError(err)
	if !ok {
		if err != nil {
			l.log(LevelError, err.Error(), fields...)
		}
		return
	}

	extra := make([]LogField, 0, len(execErr.Context)+5)
	for key, value := range execErr.Context {
		extra = append(extra, Field(key, value))
	}
	extra = append(extra,
		StringField("error_code", execErr.Code),
		StringField("error_type", string(execErr.Type)))
	if execErr.Line > 0 {
		extra = append(extra, IntField("line", execErr.Line))
	}
	if execErr.Col > 0 {
		extra = append(extra, IntField("column", execErr.Col))
	}
	if execErr.Language != "" {
		extra = append(extra, StringField("language", execErr.Language))
	}
	l.log(LevelError, execErr.Message, append(extra, fields...)...)
}

// WithFields returns a new logger with the specified fields
func (l *DefaultLogger) WithFields(fields ...LogField) Logger {
	newLogger := l.copy()
	for _, field := range fields {
		newLogger.fields[field.Key] = field.Value
	}
	return newLogger
}

// WithError returns a new logger with the specified error
func (l *DefaultLogger) WithError(err error) Logger {
	newLogger := l.copy()
	newLogger.error = err
	return newLogger
}

// WithComponent returns a new logger with the specified component
func (l *DefaultLogger) WithComponent(component string) Logger {
	newLogger := l.copy()
	newLogger.component = component
	return newLogger
}

// WithLanguage returns a new logger with the specified language
func (l *DefaultLogger) WithLanguage(language string) Logger {
	newLogger := l.copy()
	newLogger.language = language
	return newLogger
}

// SetLevel sets the minimum log level
func (l *DefaultLogger) SetLevel(level LogLevel) {
	l.level.set(level)
}

// GetLevel returns the current minimum log level
func (l *DefaultLogger) GetLevel() LogLevel {
	return l.level.get()
}

// Close flushes and closes all writers
func (l *DefaultLogger) Close() error {
	var first error
	for _, writer := range l.writers {
		if err := writer.Flush(); err != nil && first == nil {
			first = err
		}
		if err := writer.Close(); err != nil && first == nil {
			first = err
		}
	}
	return first
}

func (l *DefaultLogger) log(level LogLevel, msg string, fields ...LogField) {
	if level < l.level.get() {
		return
	}

	entry := &LogEntry{
		Timestamp: time.Now(),
		Level:     level,
		Message:   msg,
		Fields:    make(map[string]interface{}, len(l.fields)+len(fields)),
		Caller:    l.getCaller(),
		Component: l.component,
		Language:  l.language,
		Error:     l.error,
	}

	for k, v := range l.fields {
		entry.Fields[k] = v
	}
	for _, field := range fields {
		entry.Fields[field.Key] = field.Value
	}

	data, err := l.formatter.Format(entry)
	if err != nil {
		data = []byte(fmt.Sprintf("failed to format log entry: %v - original message: %s\n", err, msg))
	}

	for _, writer := range l.writers {
		if err := writer.Write(data); err != nil {
			fmt.Fprintf(os.Stderr, "failed to write log: %v\n", err)
		}
	}
}

func (l *DefaultLogger) copy() *DefaultLogger {
	newLogger := &DefaultLogger{
		level:      l.level,
		fields:     make(map[string]interface{}, len(l.fields)),
		error:      l.error,
		component:  l.component,
		language:   l.language,
		formatter:  l.formatter,
		writers:    l.writers,
		callerSkip: l.callerSkip,
	}

	for k, v := range l.fields {
		newLogger.fields[k] = v
	}

	return newLogger
}

func (l *DefaultLogger) getCaller() string {
	_, file, line, ok := runtime.Caller(l.callerSkip)
	if !ok {
		return ""
	}
	if idx := strings.LastIndex(file, "/"); idx >= 0 {
		file = file[idx+1:]
	}
	return fmt.Sprintf("%s:%d", file, line)
}

// Field creates a new field
func Field(key string, value interface{}) LogField {
	return LogField{Key: key, Value: value}
}

// StringField creates a new string field
func StringField(key, value string) LogField {
	return LogField{Key: key, Value: value}
}

// IntField creates a new int field
func IntField(key string, value int) LogField {
	return LogField{Key: key, Value: value}
}

// DurationField creates a new duration field
func DurationField(key string, value time.Duration) LogField {
	return LogField{Key: key, Value: value.String()}
}
