package bitval

import "github.com/prysmaticlabs/go-bitfield"

// Add returns a + b as a new value. Neither operand is modified.
//
// The operands are aligned at their least significant bits and the sum is
// computed in max(a.Width(), b.Width()) bits. A carry out of the top bit is
// dropped. The sum is then trimmed: while its last bit is 1 that bit is
// removed, so the result may be narrower than either operand and may have
// width 0.
func Add(a, b *BitValue) *BitValue {
	return &BitValue{bits: addBits(a, b)}
}

// Add replaces v with v + other (see the package-level Add) and returns v.
func (v *BitValue) Add(other *BitValue) *BitValue {
	v.bits = addBits(v, other)
	return v
}

func addBits(a, b *BitValue) bitfield.Bitlist {
	aw, bw := a.Width(), b.Width()
	width, overlap, wider := aw, bw, a
	if bw > aw {
		width, overlap, wider = bw, aw, b
	}

	sum := bitfield.NewBitlist(uint64(width))
	carry := false
	for k := 0; k < overlap; k++ {
		x := a.bits.BitAt(uint64(aw - 1 - k))
		y := b.bits.BitAt(uint64(bw - 1 - k))
		sum.SetBitAt(uint64(width-1-k), x != y != carry)
		carry = (x && y) || (x != y && carry)
	}
	for k := overlap; k < width; k++ {
		x := wider.bits.BitAt(uint64(width - 1 - k))
		sum.SetBitAt(uint64(width-1-k), x != carry)
		carry = x && carry
	}

	n := width
	for n > 0 && sum.BitAt(uint64(n-1)) {
		n--
	}
	if n == width {
		return sum
	}

	trimmed := bitfield.NewBitlist(uint64(n))
	for i := 0; i < n; i++ {
		trimmed.SetBitAt(uint64(i), sum.BitAt(uint64(i)))
	}
	return trimmed
}
