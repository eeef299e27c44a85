package repl

import (
	"strings"
)

// MultiLineBuffer collects lines continued with a trailing backslash until
// a line without one completes the chunk
type MultiLineBuffer struct {
	lines []string
}

// NewMultiLineBuffer creates an empty buffer
func NewMultiLineBuffer() *MultiLineBuffer {
	return &MultiLineBuffer{}
}

// AddLine appends a line to the buffer
func (b *MultiLineBuffer) AddLine(line string) {
	b.lines = append(b.lines, line)
}

// Content returns the buffered lines joined with newlines
func (b *MultiLineBuffer) Content() string {
	return strings.Join(b.lines, "\n")
}

// Clear empties the buffer
func (b *MultiLineBuffer) Clear() {
	b.lines = nil
}

// IsActive reports whether a chunk is being collected
func (b *MultiLineBuffer) IsActive() bool {
	return len(b.lines) > 0
}

// LineCount returns the number of buffered lines
func (b *MultiLineBuffer) LineCount() int {
	return len(b.lines)
}

// Lines returns a copy of the buffered lines
func (b *MultiLineBuffer) Lines() []string {
	return append([]string(nil), b.lines...)
}

// continuation reports whether line ends with the continuation marker and
// returns it with the marker removed
func continuation(line string) (string, bool) {
	trimmed := strings.TrimRight(line, " \t\r")
	if !strings.HasSuffix(trimmed, "\\") {
		return line, false
	}
	return strings.TrimSuffix(trimmed, "\\"), true
}
