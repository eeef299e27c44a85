package bitval

import (
	stderrors "errors"
	"math"
	"math/big"
	"regexp"
	"testing"

	"bitterm/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var binaryPattern = regexp.MustCompile(`^0b[01]*$`)

func TestNewRoundTrip(t *testing.T) {
	for width := 1; width <= 10; width++ {
		for v := 0; v < 1<<uint(width); v++ {
			bv, err := New(width, v)
			require.NoError(t, err)
			assert.Equal(t, uint64(v), bv.Uint64())
			assert.Equal(t, width, bv.Width())

			s := bv.String()
			assert.Len(t, s, width+2)
			assert.Regexp(t, binaryPattern, s)
		}
	}
}

func TestNewRejectsOutOfRange(t *testing.T) {
	for width := 1; width <= 16; width++ {
		_, err := New(width, 1<<uint(width))
		assert.True(t, stderrors.Is(err, ErrOutOfRange), "width %d", width)

		_, err = New(width, -1)
		assert.True(t, stderrors.Is(err, ErrOutOfRange), "width %d", width)
	}

	_, err := New(62, 1<<62)
	assert.True(t, stderrors.Is(err, ErrOutOfRange))
	assert.False(t, stderrors.Is(err, ErrInvalidWidth))
}

func TestNewWideWidths(t *testing.T) {
	v, err := New(63, math.MaxInt64)
	require.NoError(t, err)
	assert.Equal(t, uint64(math.MaxInt64), v.Uint64())

	v, err = New(100, 12)
	require.NoError(t, err)
	assert.Equal(t, 100, v.Width())
	assert.Equal(t, "12", v.Decimal())
}

func TestNewRejectsInvalidWidth(t *testing.T) {
	for _, width := range []int{0, -1, -64} {
		_, err := New(width, 0)
		assert.True(t, stderrors.Is(err, ErrInvalidWidth), "width %d", width)
	}
}

func TestString(t *testing.T) {
	assert.Equal(t, "0b0101", MustNew(4, 5).String())
	assert.Equal(t, "0b00000000", MustNew(8, 0).String())
	assert.Equal(t, "0b1", MustNew(1, 1).String())
}

func TestParse(t *testing.T) {
	tests := []struct {
		literal string
		width   int
		value   uint64
	}{
		{"0b1011", 4, 11},
		{"0010", 4, 2},
		{"0B1", 1, 1},
		{"1010_0101", 8, 0xa5},
		{" 0b0 ", 1, 0},
	}

	for _, tt := range tests {
		t.Run(tt.literal, func(t *testing.T) {
			v, err := Parse(tt.literal)
			require.NoError(t, err)
			assert.Equal(t, tt.width, v.Width())
			assert.Equal(t, tt.value, v.Uint64())
		})
	}

	for _, bad := range []string{"", "0b", "0b12", "abc", "_1", "1_", "0x1f"} {
		_, err := Parse(bad)
		assert.True(t, stderrors.Is(err, ErrInvalidLiteral), "literal %q", bad)
	}
}

func TestFromBig(t *testing.T) {
	n, ok := new(big.Int).SetString("123456789012345678901234567890", 10)
	require.True(t, ok)

	v, err := FromBig(100, n)
	require.NoError(t, err)
	assert.Equal(t, 0, v.Big().Cmp(n))
	assert.Equal(t, "123456789012345678901234567890", v.Decimal())

	_, err = FromBig(96, n)
	assert.True(t, stderrors.Is(err, ErrOutOfRange))

	_, err = FromBig(8, big.NewInt(-1))
	assert.True(t, stderrors.Is(err, ErrOutOfRange))

	v, err = FromBig(4, nil)
	require.NoError(t, err)
	assert.Equal(t, "0b0000", v.String())
}

func TestResizeIsIndexAligned(t *testing.T) {
	src := MustNew(4, 0b1011)

	narrow, err := Resize(2, src)
	require.NoError(t, err)
	assert.Equal(t, "0b10", narrow.String())

	wide, err := Resize(6, src)
	require.NoError(t, err)
	assert.Equal(t, "0b101100", wide.String())
	assert.Equal(t, uint64(44), wide.Uint64())

	same, err := Resize(4, src)
	require.NoError(t, err)
	assert.True(t, same.Equal(src))

	// Narrow then pad back does not restore dropped low bits.
	back, err := Resize(4, narrow)
	require.NoError(t, err)
	assert.Equal(t, "0b1000", back.String())

	// The source is never aliased.
	wide.SetBit(0, false)
	assert.Equal(t, "0b1011", src.String())

	_, err = Resize(0, src)
	assert.True(t, stderrors.Is(err, ErrInvalidWidth))
}

func TestAccessors(t *testing.T) {
	v := MustNew(4, 0b1001)
	assert.True(t, v.Bit(0))
	assert.False(t, v.Bit(1))
	assert.True(t, v.Bit(3))
	assert.False(t, v.Bit(4))
	assert.False(t, v.Bit(-1))
	assert.Equal(t, []bool{true, false, false, true}, v.Bits())

	v.SetBit(1, true).SetBit(9, true)
	assert.Equal(t, "0b1101", v.String())

	clone := v.Clone()
	clone.OnesComplement()
	assert.Equal(t, "0b1101", v.String())
	assert.Equal(t, "0b0010", clone.String())

	assert.True(t, MustNew(4, 0).IsZero())
	assert.False(t, v.IsZero())
	assert.False(t, MustNew(4, 1).Equal(MustNew(5, 1)))
}

func TestIntAndUint64Ceilings(t *testing.T) {
	v, err := FromBig(64, new(big.Int).Lsh(big.NewInt(1), 63))
	require.NoError(t, err)
	assert.Equal(t, uint64(1)<<63, v.Uint64())
	_, err = v.Int()
	assert.True(t, stderrors.Is(err, ErrNativeOverflow))

	wide := new(big.Int).Lsh(big.NewInt(1), 65)
	wide.Add(wide, big.NewInt(5))
	v, err = FromBig(70, wide)
	require.NoError(t, err)
	assert.Equal(t, uint64(5), v.Uint64())

	v = MustNew(100, 7)
	n, err := v.Int()
	require.NoError(t, err)
	assert.Equal(t, 7, n)
}

func TestTextRendering(t *testing.T) {
	v := MustNew(8, 0xab)
	assert.Equal(t, "171", v.Decimal())
	assert.Equal(t, "0xab", v.Hex())
	assert.Equal(t, "0x0", MustNew(3, 0).Hex())
}

func TestTextBase(t *testing.T) {
	v := MustNew(8, 0xab)

	out, err := v.Text(8)
	require.NoError(t, err)
	assert.Equal(t, "253", out)

	out, err = v.Text(62)
	require.NoError(t, err)
	assert.Equal(t, "2L", out)

	for _, base := range []int{-1, 0, 1, 63} {
		_, err := v.Text(base)
		assert.True(t, stderrors.Is(err, ErrInvalidBase), "base %d", base)
		assert.Equal(t, CodeInvalidBase, errors.Code(err))
	}
}
