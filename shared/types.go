package shared

import (
	"fmt"
	"strings"
)

// DisplayFormat selects how bit values are rendered in results
type DisplayFormat string

const (
	FormatBinary  DisplayFormat = "binary"
	FormatDecimal DisplayFormat = "decimal"
	FormatHex     DisplayFormat = "hex"
	FormatErlang  DisplayFormat = "erlang"
	FormatAll     DisplayFormat = "all"
)

// DisplayFormats lists every accepted format name
var DisplayFormats = []DisplayFormat{FormatBinary, FormatDecimal, FormatHex, FormatErlang, FormatAll}

// ParseDisplayFormat validates a format name, case-insensitively
func ParseDisplayFormat(name string) (DisplayFormat, error) {
	f := DisplayFormat(strings.ToLower(strings.TrimSpace(name)))
	for _, known := range DisplayFormats {
		if f == known {
			return f, nil
		}
	}
	return "", fmt.Errorf("unknown display format %q (want binary, decimal, hex, erlang or all)", name)
}

// DisplayOptions controls FormatValueForDisplay
type DisplayOptions struct {
	Format    DisplayFormat
	ShowWidth bool
}

// DefaultDisplayOptions renders binary with the width suffix
func DefaultDisplayOptions() DisplayOptions {
	return DisplayOptions{Format: FormatBinary, ShowWidth: true}
}
