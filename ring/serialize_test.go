package ring

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSerializeDeserializeRoundTrip(t *testing.T) {
	c, err := NewChain(8, []T{17, 97})
	require.NoError(t, err)
	ctx := c.TopContext()

	p := NewPoly(ctx, Coeff)
	require.NoError(t, p.SetCoefficientsUint64([]T{0, 1, 2, 3, 4, 5, 6, 7}))

	buf, err := p.Serialize(0)
	require.NoError(t, err)
	require.Len(t, buf, SerializedLen(ctx, 0))

	got, err := Deserialize(ctx, buf, 0)
	require.NoError(t, err)
	require.True(t, p.Equal(got))
}

func TestSerializeSkipLSBsMasksBits(t *testing.T) {
	c, err := NewChain(8, []T{17})
	require.NoError(t, err)
	ctx := c.TopContext()

	p := NewPoly(ctx, Coeff)
	require.NoError(t, p.SetCoefficientsUint64([]T{15, 14, 13, 12, 11, 10, 9, 8}))

	buf, err := p.Serialize(2)
	require.NoError(t, err)
	got, err := Deserialize(ctx, buf, 2)
	require.NoError(t, err)

	for i, c := range p.Coeffs(0) {
		require.Equal(t, c&^T(3), got.Coeffs(0)[i])
	}
}

func TestDeserializeSizeMismatch(t *testing.T) {
	c, err := NewChain(8, []T{17})
	require.NoError(t, err)
	ctx := c.TopContext()

	_, err = Deserialize(ctx, make([]byte, 1), 0)
	require.Error(t, err)
	var mismatch *SerializedBufferSizeMismatchError
	require.ErrorAs(t, err, &mismatch)
}
