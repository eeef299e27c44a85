package bitval

import (
	stderrors "errors"
	"testing"

	"github.com/funvibe/funbit/pkg/funbit"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBitStringRoundTrip(t *testing.T) {
	for _, literal := range []string{"0b1", "0b101", "0b10101011", "0b1010101111"} {
		t.Run(literal, func(t *testing.T) {
			v, err := Parse(literal)
			require.NoError(t, err)

			bs := v.BitString()
			assert.Equal(t, v.Width(), int(bs.Length()))

			back, err := FromBitString(bs)
			require.NoError(t, err)
			assert.True(t, v.Equal(back), "got %s", back)
		})
	}
}

func TestFromBitStringBytes(t *testing.T) {
	v, err := FromBitString(funbit.NewBitStringFromBytes([]byte{0xab, 0x01}))
	require.NoError(t, err)
	assert.Equal(t, 16, v.Width())
	assert.Equal(t, uint64(0xab01), v.Uint64())

	_, err = FromBitString(funbit.NewBitString())
	assert.True(t, stderrors.Is(err, ErrInvalidWidth))
	_, err = FromBitString(nil)
	assert.True(t, stderrors.Is(err, ErrInvalidWidth))
}

func TestErlang(t *testing.T) {
	tests := []struct {
		value *BitValue
		want  string
	}{
		{MustNew(3, 5), "<<5:3>>"},
		{MustNew(4, 0), "<<0:4>>"},
		{MustNew(8, 171), "<<171>>"},
		{MustNew(12, 0xabc), "<<171,12:4>>"},
		{MustNew(16, 0xab01), "<<171,1>>"},
		{MustNew(1, 1), "<<1:1>>"},
	}
	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.value.Erlang())
		})
	}

	empty := Add(MustNew(2, 3), MustNew(2, 0))
	assert.Zero(t, empty.BitString().Length())
	assert.Equal(t, "<<>>", empty.Erlang())
}
