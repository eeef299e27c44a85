package logging

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"
)

const textTimeLayout = "2006-01-02 15:04:05.000"

var levelColors = map[LogLevel]string{
	LevelDebug:   "\x1b[36m",
	LevelInfo:    "\x1b[32m",
	LevelWarning: "\x1b[33m",
	LevelError:   "\x1b[31m",
}

// displayValue turns field values into something both formatters can
// print. Bit values and other Stringers log as their text form instead of
// an empty JSON object.
func displayValue(v interface{}) interface{} {
	switch val := v.(type) {
	case error:
		return val.Error()
	case fmt.Stringer:
		return val.String()
	default:
		return v
	}
}

// JSONFormatter writes one JSON object per entry
type JSONFormatter struct{}

// NewJSONFormatter creates a JSON formatter
func NewJSONFormatter() *JSONFormatter {
	return &JSONFormatter{}
}

// Format implements Formatter
func (f *JSONFormatter) Format(entry *LogEntry) ([]byte, error) {
	output := map[string]interface{}{
		"timestamp": entry.Timestamp.Format(time.RFC3339),
		"level":     entry.Level.String(),
		"message":   entry.Message,
	}
	optional := map[string]string{
		"caller":    entry.Caller,
		"component": entry.Component,
		"language":  entry.Language,
	}
	for key, value := range optional {
		if value != "" {
			output[key] = value
		}
	}
	if entry.Error != nil {
		output["error"] = entry.Error.Error()
	}
	if len(entry.Fields) > 0 {
		fields := make(map[string]interface{}, len(entry.Fields))
		for key, value := range entry.Fields {
			fields[key] = displayValue(value)
		}
		output["fields"] = fields
	}

	data, err := json.Marshal(output)
	if err != nil {
		return nil, err
	}
	return append(data, '\n'), nil
}

// GetName implements Formatter
func (f *JSONFormatter) GetName() string {
	return "json"
}

// TextFormatter renders "[time] [LEVEL] [component] message (at line L, col C) [k=v, ...]"
type TextFormatter struct {
	Timestamp bool
	Caller    bool
	Color     bool
}

// NewTextFormatter creates a text formatter that prints timestamps
func NewTextFormatter(color bool) *TextFormatter {
	return &TextFormatter{Timestamp: true, Color: color}
}

// Format implements Formatter
func (f *TextFormatter) Format(entry *LogEntry) ([]byte, error) {
	var sb strings.Builder

	if f.Timestamp {
		fmt.Fprintf(&sb, "[%s] ", entry.Timestamp.Format(textTimeLayout))
	}
	fmt.Fprintf(&sb, "[%s] ", f.level(entry.Level))
	for _, tag := range []string{entry.Component, entry.Language} {
		if tag != "" {
			fmt.Fprintf(&sb, "[%s] ", tag)
		}
	}

	sb.WriteString(entry.Message)

	if line, ok := entry.Fields["line"].(int); ok {
		if col, ok := entry.Fields["column"].(int); ok {
			fmt.Fprintf(&sb, " (at line %d, col %d)", line, col)
		} else {
			fmt.Fprintf(&sb, " (at line %d)", line)
		}
	}
	if f.Caller && entry.Caller != "" {
		fmt.Fprintf(&sb, " (caller: %s)", entry.Caller)
	}
	if entry.Error != nil {
		fmt.Fprintf(&sb, " (error: %s)", entry.Error)
	}
	if fields := formatFields(entry.Fields); fields != "" {
		sb.WriteString(" ")
		sb.WriteString(fields)
	}

	sb.WriteString("\n")
	return []byte(sb.String()), nil
}

// GetName implements Formatter
func (f *TextFormatter) GetName() string {
	return "text"
}

func (f *TextFormatter) level(level LogLevel) string {
	color, ok := levelColors[level]
	if !f.Color || !ok {
		return level.String()
	}
	return color + level.String() + "\x1b[0m"
}

// formatFields renders fields as [k=v, ...] sorted by key. The position
// keys are left out since Format prints them next to the message.
func formatFields(fields map[string]interface{}) string {
	keys := make([]string, 0, len(fields))
	for key := range fields {
		if key == "line" || key == "column" {
			continue
		}
		keys = append(keys, key)
	}
	if len(keys) == 0 {
		return ""
	}
	sort.Strings(keys)

	parts := make([]string, len(keys))
	for i, key := range keys {
		parts[i] = fmt.Sprintf("%s=%v", key, displayValue(fields[key]))
	}
	return "[" + strings.Join(parts, ", ") + "]"
}

// SimpleFormatter writes "LEVEL message"
type SimpleFormatter struct{}

// NewSimpleFormatter creates a simple formatter
func NewSimpleFormatter() *SimpleFormatter {
	return &SimpleFormatter{}
}

// Format implements Formatter
func (f *SimpleFormatter) Format(entry *LogEntry) ([]byte, error) {
	output := entry.Level.String() + " " + entry.Message
	if entry.Error != nil {
		output += " (error: " + entry.Error.Error() + ")"
	}
	return []byte(output + "\n"), nil
}

// GetName implements Formatter
func (f *SimpleFormatter) GetName() string {
	return "simple"
}
