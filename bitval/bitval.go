// Package bitval implements fixed-width unsigned integers stored as an
// explicit MSB-first bit sequence.
//
// Index 0 is the most significant bit and index Width()-1 the least
// significant. Logic operations and complements mutate the receiver; the
// package-level Add returns a fresh value. A BitValue must not be mutated
// concurrently.
package bitval

import (
	"math/big"
	"strconv"
	"strings"

	"github.com/prysmaticlabs/go-bitfield"
)

// maxNativeWidth is the number of magnitude bits in a non-negative int.
const maxNativeWidth = strconv.IntSize - 1

// BitValue is an unsigned integer of explicit bit width.
type BitValue struct {
	bits bitfield.Bitlist
}

func alloc(width int) *BitValue {
	return &BitValue{bits: bitfield.NewBitlist(uint64(width))}
}

// New encodes value in width bits.
func New(width, value int) (*BitValue, error) {
	if width <= 0 {
		return nil, invalidWidth(width)
	}
	if value < 0 || (width < maxNativeWidth && value >= 1<<uint(width)) {
		return nil, outOfRange(width, value)
	}

	v := alloc(width)
	u := uint64(value)
	for i := 0; i < width; i++ {
		shift := width - 1 - i
		if shift < 64 && (u>>uint(shift))&1 == 1 {
			v.bits.SetBitAt(uint64(i), true)
		}
	}
	return v, nil
}

// MustNew is like New but panics on error.
func MustNew(width, value int) *BitValue {
	v, err := New(width, value)
	if err != nil {
		panic(err)
	}
	return v
}

// FromBig encodes a non-negative big integer in width bits.
func FromBig(width int, value *big.Int) (*BitValue, error) {
	if width <= 0 {
		return nil, invalidWidth(width)
	}
	if value == nil {
		value = new(big.Int)
	}
	if value.Sign() < 0 || value.BitLen() > width {
		return nil, outOfRange(width, value)
	}

	v := alloc(width)
	for i := 0; i < width; i++ {
		if value.Bit(width-1-i) == 1 {
			v.bits.SetBitAt(uint64(i), true)
		}
	}
	return v, nil
}

// Parse reads a binary literal such as "0b1011" or "1011". The width is
// the number of digits, leading zeros included. Underscores may separate
// digits.
func Parse(literal string) (*BitValue, error) {
	digits := strings.TrimSpace(literal)
	if strings.HasPrefix(digits, "0b") || strings.HasPrefix(digits, "0B") {
		digits = digits[2:]
	}
	if strings.HasPrefix(digits, "_") || strings.HasSuffix(digits, "_") {
		return nil, invalidLiteral(literal, "misplaced underscore")
	}
	digits = strings.ReplaceAll(digits, "_", "")
	if digits == "" {
		return nil, invalidLiteral(literal, "no digits")
	}

	v := alloc(len(digits))
	for i, c := range digits {
		switch c {
		case '0':
		case '1':
			v.bits.SetBitAt(uint64(i), true)
		default:
			return nil, invalidLiteral(literal, "unexpected character "+strconv.QuoteRune(c))
		}
	}
	return v, nil
}

// Resize copies src into a new value of the given width, index-aligned:
// narrowing keeps the first width bits (the most significant ones) and
// widening appends zero bits after the last bit of src.
func Resize(width int, src *BitValue) (*BitValue, error) {
	if width <= 0 {
		return nil, invalidWidth(width)
	}

	v := alloc(width)
	n := width
	if src.Width() < n {
		n = src.Width()
	}
	for i := 0; i < n; i++ {
		v.bits.SetBitAt(uint64(i), src.bits.BitAt(uint64(i)))
	}
	return v, nil
}

// Width returns the number of bits. It is zero only for sums whose
// trailing bits were all trimmed.
func (v *BitValue) Width() int {
	return int(v.bits.Len())
}

// Bit reports bit i, where 0 is the most significant bit. Indexes
// outside [0, Width()) read as false.
func (v *BitValue) Bit(i int) bool {
	if i < 0 {
		return false
	}
	return v.bits.BitAt(uint64(i))
}

// SetBit sets bit i in place and returns v. Out of range indexes are ignored.
func (v *BitValue) SetBit(i int, set bool) *BitValue {
	if i >= 0 {
		v.bits.SetBitAt(uint64(i), set)
	}
	return v
}

// Bits returns a copy of the bit sequence, MSB first.
func (v *BitValue) Bits() []bool {
	out := make([]bool, v.Width())
	for i := range out {
		out[i] = v.bits.BitAt(uint64(i))
	}
	return out
}

// Clone returns an independent copy of v.
func (v *BitValue) Clone() *BitValue {
	cp := make(bitfield.Bitlist, len(v.bits))
	copy(cp, v.bits)
	return &BitValue{bits: cp}
}

// Equal reports whether v and other have the same width and bits.
func (v *BitValue) Equal(other *BitValue) bool {
	if v == nil || other == nil {
		return v == other
	}
	if v.Width() != other.Width() {
		return false
	}
	for i := 0; i < v.Width(); i++ {
		if v.bits.BitAt(uint64(i)) != other.bits.BitAt(uint64(i)) {
			return false
		}
	}
	return true
}

// IsZero reports whether no bit is set.
func (v *BitValue) IsZero() bool {
	return v.bits.Count() == 0
}
