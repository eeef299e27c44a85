package bitval

import (
	"math/big"
	"strings"
)

// String renders v as "0b" followed by Width() binary digits, MSB first.
func (v *BitValue) String() string {
	var sb strings.Builder
	sb.Grow(v.Width() + 2)
	sb.WriteString("0b")
	for i := 0; i < v.Width(); i++ {
		if v.bits.BitAt(uint64(i)) {
			sb.WriteByte('1')
		} else {
			sb.WriteByte('0')
		}
	}
	return sb.String()
}

// Uint64 returns the unsigned magnitude of v. Bits weighing 2^64 or more
// are dropped.
func (v *BitValue) Uint64() uint64 {
	var acc uint64
	for i := 0; i < v.Width(); i++ {
		acc <<= 1
		if v.bits.BitAt(uint64(i)) {
			acc |= 1
		}
	}
	return acc
}

// Int returns the magnitude as a native int, failing with NATIVE_OVERFLOW
// when it needs more bits than a non-negative int has.
func (v *BitValue) Int() (int, error) {
	if n := v.magnitudeBits(); n > maxNativeWidth {
		return 0, nativeOverflow(v.Width(), n)
	}
	return int(v.Uint64()), nil
}

// magnitudeBits is the position of the highest set bit plus one.
func (v *BitValue) magnitudeBits() int {
	for i := 0; i < v.Width(); i++ {
		if v.bits.BitAt(uint64(i)) {
			return v.Width() - i
		}
	}
	return 0
}

// Big returns the magnitude of v without any native ceiling.
func (v *BitValue) Big() *big.Int {
	n := new(big.Int)
	for i := 0; i < v.Width(); i++ {
		if v.bits.BitAt(uint64(i)) {
			n.SetBit(n, v.Width()-1-i, 1)
		}
	}
	return n
}

// Decimal renders the magnitude in base 10.
func (v *BitValue) Decimal() string {
	return v.Big().String()
}

// Hex renders the magnitude as "0x" followed by lower-case hex digits.
func (v *BitValue) Hex() string {
	return "0x" + v.Big().Text(16)
}

// Text renders the magnitude in the given base, 2 to 62. Other bases
// fail with INVALID_BASE.
func (v *BitValue) Text(base int) (string, error) {
	if base < 2 || base > big.MaxBase {
		return "", invalidBase(base)
	}
	return v.Big().Text(base), nil
}
