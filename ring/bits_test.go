package ring

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLog2CeilLog2(t *testing.T) {
	require.Equal(t, 0, Log2(0))
	require.Equal(t, 0, Log2(1))
	require.Equal(t, 3, Log2(8))
	require.Equal(t, 3, Log2(15))

	require.Equal(t, 0, CeilLog2(0))
	require.Equal(t, 0, CeilLog2(1))
	require.Equal(t, 3, CeilLog2(8))
	require.Equal(t, 4, CeilLog2(9))
}

func TestIsPowerOfTwo(t *testing.T) {
	require.True(t, IsPowerOfTwo(1))
	require.True(t, IsPowerOfTwo(1024))
	require.False(t, IsPowerOfTwo(0))
	require.False(t, IsPowerOfTwo(100))
}

func TestNextPreviousPowerOfTwo(t *testing.T) {
	require.Equal(t, uint64(1), NextPowerOfTwo(0))
	require.Equal(t, uint64(8), NextPowerOfTwo(5))
	require.Equal(t, uint64(8), NextPowerOfTwo(8))

	require.Equal(t, uint64(0), PreviousPowerOfTwo(0))
	require.Equal(t, uint64(4), PreviousPowerOfTwo(5))
	require.Equal(t, uint64(8), PreviousPowerOfTwo(8))
}

func TestReverseBits(t *testing.T) {
	require.Equal(t, uint64(0b001), ReverseBits(0b100, 3))
	require.Equal(t, uint64(0b111), ReverseBits(0b111, 3))
	require.Equal(t, uint64(0), ReverseBits(0, 3))
}
