package codec

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestUvarintRoundTrip(t *testing.T) {
	values := []uint64{0, 1, 127, 128, 300, 1 << 20, 1<<64 - 1}
	for _, v := range values {
		buf := PutUvarint(nil, v)
		got, n, err := Uvarint(buf)
		require.NoError(t, err)
		require.Equal(t, len(buf), n)
		require.Equal(t, v, got)
	}
}

func TestUvarintTruncated(t *testing.T) {
	_, _, err := Uvarint([]byte{0x80, 0x80})
	require.ErrorIs(t, err, ErrVarintTruncated)
}

func TestUvarintOverflow(t *testing.T) {
	buf := make([]byte, MaxVarintLen64)
	for i := range buf {
		buf[i] = 0xff
	}
	_, _, err := Uvarint(buf)
	require.ErrorIs(t, err, ErrVarintOverflow)
}
