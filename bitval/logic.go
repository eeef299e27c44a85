package bitval

// combine applies op to the min(width) low-order positions of v and
// other, aligned at the least significant bit, writing into v.
func (v *BitValue) combine(other *BitValue, op func(a, b bool) bool) *BitValue {
	w, ow := v.Width(), other.Width()
	n := w
	if ow < n {
		n = ow
	}
	for k := 0; k < n; k++ {
		i := uint64(w - 1 - k)
		j := uint64(ow - 1 - k)
		v.bits.SetBitAt(i, op(v.bits.BitAt(i), other.bits.BitAt(j)))
	}
	return v
}

// And ANDs other into v in place and returns v. Positions of v above the
// width of other are left untouched.
func (v *BitValue) And(other *BitValue) *BitValue {
	return v.combine(other, func(a, b bool) bool { return a && b })
}

// Or ORs other into v in place and returns v.
func (v *BitValue) Or(other *BitValue) *BitValue {
	return v.combine(other, func(a, b bool) bool { return a || b })
}

// Xor XORs other into v in place and returns v.
func (v *BitValue) Xor(other *BitValue) *BitValue {
	return v.combine(other, func(a, b bool) bool { return a != b })
}

// OnesComplement flips every bit in place.
func (v *BitValue) OnesComplement() *BitValue {
	for i := 0; i < v.Width(); i++ {
		v.bits.SetBitAt(uint64(i), !v.bits.BitAt(uint64(i)))
	}
	return v
}

// TwosComplement negates v modulo 2^Width() in place.
func (v *BitValue) TwosComplement() *BitValue {
	v.OnesComplement()
	for i := v.Width() - 1; i >= 0; i-- {
		if !v.bits.BitAt(uint64(i)) {
			v.bits.SetBitAt(uint64(i), true)
			break
		}
		v.bits.SetBitAt(uint64(i), false)
	}
	return v
}
