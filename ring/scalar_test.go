package ring

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestAddSubNegMod(t *testing.T) {
	const p = T(97)
	require.Equal(t, T(5), AddMod(90, 12, p))
	require.Equal(t, T(95), SubMod(1, 3, p))
	require.Equal(t, T(0), NegMod(0, p))
	require.Equal(t, T(96), NegMod(1, p))
}

func TestCenteredRoundTrip(t *testing.T) {
	const p = T(97)
	for x := int64(-48); x <= 48; x++ {
		u := CenteredToRemainder(x, p)
		require.Less(t, u, p)
		require.Equal(t, x, RemainderToCentered(u, p))
	}
}

func TestCTHelpers(t *testing.T) {
	require.Equal(t, T(5), CTSelect(true, 5, 9))
	require.Equal(t, T(9), CTSelect(false, 5, 9))
	require.NotZero(t, CTEq(7, 7))
	require.Zero(t, CTEq(7, 8))
	require.NotZero(t, CTLt(3, 4))
	require.Zero(t, CTLt(4, 3))
	require.NotZero(t, CTGt(4, 3))
	require.NotZero(t, CTGe(4, 4))
}

func TestPowModInverseMod(t *testing.T) {
	const p = T(1000000007)
	require.Equal(t, T(1), PowMod(5, 0, p))
	a := T(123456)
	inv := InverseMod(a, p)
	require.Equal(t, T(1), (a*inv)%p)
}

func TestPowModFermat(t *testing.T) {
	for _, p := range []T{17, 97, 65537} {
		for _, a := range []T{1, 2, 5, p - 1} {
			require.Equal(t, T(1), PowMod(a, p-1, p), "a=%d p=%d", a, p)
		}
	}
}

func TestIsPrime(t *testing.T) {
	primes := []T{2, 3, 5, 7, 1152921504606846883}
	for _, p := range primes {
		require.Truef(t, IsPrime(p), "expected %d to be prime", p)
	}
	composites := []T{1, 4, 6, 9, 100, 1000000}
	for _, c := range composites {
		require.Falsef(t, IsPrime(c), "expected %d to not be prime", c)
	}
}
