package shared

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"bitterm/bitval"
)

// FormatValueForDisplay formats script results for the REPL and the eval
// command. Bit values follow opts; everything else prints plainly.
func FormatValueForDisplay(value interface{}, opts DisplayOptions) string {
	switch v := value.(type) {
	case nil:
		return "nil"

	case *bitval.BitValue:
		return formatBitValue(v, opts)

	case []interface{}:
		parts := make([]string, len(v))
		for i, item := range v {
			parts[i] = FormatValueForDisplay(item, opts)
		}
		return strings.Join(parts, "\t")

	case float64:
		return formatNumber(v)

	case int, int8, int16, int32, int64:
		// Decimal formatting avoids scientific notation
		return fmt.Sprintf("%d", value)

	case uint, uint8, uint16, uint32, uint64:
		return fmt.Sprintf("%d", value)

	default:
		return fmt.Sprintf("%v", value)
	}
}

func formatBitValue(v *bitval.BitValue, opts DisplayOptions) string {
	var out string
	switch opts.Format {
	case FormatDecimal:
		out = v.Decimal()
	case FormatHex:
		out = v.Hex()
	case FormatErlang:
		out = v.Erlang()
	case FormatAll:
		out = fmt.Sprintf("%s = %s = %s = %s", v.String(), v.Decimal(), v.Hex(), v.Erlang())
	default:
		out = v.String()
	}

	if opts.ShowWidth {
		out += fmt.Sprintf(" [w=%d]", v.Width())
	}
	return out
}

// formatNumber prints whole floats without a fractional part or exponent.
func formatNumber(f float64) string {
	if f == math.Trunc(f) && math.Abs(f) < 1e15 {
		return strconv.FormatFloat(f, 'f', 0, 64)
	}
	return strconv.FormatFloat(f, 'g', -1, 64)
}
