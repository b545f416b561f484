package ring

import (
	"testing"

	"github.com/stretchr/testify/require"
)

// TestAutomorphismCoeffScenarioS2 reproduces the spec's S2 worked example:
// N=8, g=3, input x+2x^2+3x^3.
func TestAutomorphismCoeffScenarioS2(t *testing.T) {
	c, err := NewChain(8, []T{17})
	require.NoError(t, err)
	ctx := c.TopContext()

	src := NewPoly(ctx, Coeff)
	require.NoError(t, src.SetCoefficientsUint64([]T{0, 1, 2, 3, 0, 0, 0, 0}))

	dst := NewPoly(ctx, Coeff)
	require.NoError(t, AutomorphismCoeff(src, 3, dst))

	n := 8
	want := make([]T, n)
	for i, c := range []T{0, 1, 2, 3, 0, 0, 0, 0} {
		r := uint64(i) * 3
		outIdx := int(r & uint64(n-1))
		if (r>>3)&1 == 1 {
			want[outIdx] = NegMod(c, 17)
		} else {
			want[outIdx] = c
		}
	}
	require.Equal(t, want, dst.Coeffs(0))
}

func TestAutomorphismCoeffRoundTrip(t *testing.T) {
	c, err := NewChain(8, []T{17})
	require.NoError(t, err)
	ctx := c.TopContext()
	n := 8

	src := NewPoly(ctx, Coeff)
	require.NoError(t, src.SetCoefficientsUint64([]T{1, 2, 3, 4, 5, 6, 7, 8}))

	g := uint64(5)
	gInv := GaloisElementInverse(n, g)

	fwd := NewPoly(ctx, Coeff)
	require.NoError(t, AutomorphismCoeff(src, g, fwd))
	back := NewPoly(ctx, Coeff)
	require.NoError(t, AutomorphismCoeff(fwd, gInv, back))

	require.True(t, src.Equal(back))
}

func TestAutomorphismEvalIsPermutation(t *testing.T) {
	idx := AutomorphismEvalIndex(8, 3)
	seen := make(map[int]bool)
	for _, j := range idx {
		require.GreaterOrEqual(t, j, 0)
		require.Less(t, j, 8)
		require.False(t, seen[j])
		seen[j] = true
	}
}

func TestMultiplyPowerOfXMatchesCoeffShift(t *testing.T) {
	c, err := NewChain(8, []T{17})
	require.NoError(t, err)
	ctx := c.TopContext()

	src := NewPoly(ctx, Coeff)
	require.NoError(t, src.SetCoefficientsUint64([]T{1, 0, 0, 0, 0, 0, 0, 0})) // the constant 1

	dst := NewPoly(ctx, Coeff)
	require.NoError(t, MultiplyPowerOfX(src, 3, dst))

	// 1 * x^3 = x^3
	want := []T{0, 0, 0, 1, 0, 0, 0, 0}
	require.Equal(t, want, dst.Coeffs(0))
}

func TestMultiplyPowerOfXWraps(t *testing.T) {
	c, err := NewChain(8, []T{17})
	require.NoError(t, err)
	ctx := c.TopContext()

	src := NewPoly(ctx, Coeff)
	require.NoError(t, src.SetCoefficientsUint64([]T{0, 0, 0, 0, 0, 0, 0, 1})) // x^7

	dst := NewPoly(ctx, Coeff)
	require.NoError(t, MultiplyPowerOfX(src, 1, dst))

	// x^7 * x = x^8 = -1 (mod x^8+1)
	want := []T{16, 0, 0, 0, 0, 0, 0, 0}
	require.Equal(t, want, dst.Coeffs(0))
}
