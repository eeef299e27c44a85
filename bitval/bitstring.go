package bitval

import (
	"strconv"
	"strings"

	"github.com/funvibe/funbit/pkg/funbit"
)

// packBits returns the bits of v packed MSB first into bytes, the last
// byte padded with zeros.
func (v *BitValue) packBits() []byte {
	out := make([]byte, (v.Width()+7)/8)
	for i := 0; i < v.Width(); i++ {
		if v.bits.BitAt(uint64(i)) {
			out[i/8] |= 0x80 >> uint(i%8)
		}
	}
	return out
}

// BitString converts v to a funbit bitstring of the same length.
func (v *BitValue) BitString() *funbit.BitString {
	if v.Width() == 0 {
		return funbit.NewBitString()
	}
	return funbit.NewBitStringFromBits(v.packBits(), uint(v.Width()))
}

// FromBitString builds a value whose bits are those of bs.
func FromBitString(bs *funbit.BitString) (*BitValue, error) {
	if bs == nil {
		return nil, invalidWidth(0)
	}
	width := int(bs.Length())
	if width == 0 {
		return nil, invalidWidth(0)
	}

	data := bs.ToBytes()
	v := alloc(width)
	for i := 0; i < width && i/8 < len(data); i++ {
		if data[i/8]&(0x80>>uint(i%8)) != 0 {
			v.bits.SetBitAt(uint64(i), true)
		}
	}
	return v, nil
}

// Erlang renders v in Erlang bit syntax: whole bytes in decimal followed
// by a Value:Size segment for any leftover bits, e.g. <<5:3>> or
// <<171,12:4>>. A zero-width value is <<>>.
func (v *BitValue) Erlang() string {
	return formatErlang(v.BitString())
}

func formatErlang(bs *funbit.BitString) string {
	width := int(bs.Length())
	if width == 0 {
		return "<<>>"
	}

	data := bs.ToBytes()
	whole, rest := width/8, width%8
	segments := make([]string, 0, whole+1)
	for i := 0; i < whole; i++ {
		segments = append(segments, strconv.Itoa(int(data[i])))
	}
	if rest > 0 {
		tail := data[whole] >> uint(8-rest)
		segments = append(segments, strconv.Itoa(int(tail))+":"+strconv.Itoa(rest))
	}
	return "<<" + strings.Join(segments, ",") + ">>"
}
