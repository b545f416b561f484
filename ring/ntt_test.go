package ring

import (
	"testing"

	"github.com/stretchr/testify/require"
)

// TestNTTRoundTrip is scenario S1: N=8 over the smallest NTT-friendly
// modulus 17, coefficients [1..8].
func TestNTTRoundTrip(t *testing.T) {
	c, err := NewChain(8, []T{17})
	require.NoError(t, err)
	ctx := c.TopContext()

	p := NewPoly(ctx, Coeff)
	require.NoError(t, p.SetCoefficientsUint64([]T{1, 2, 3, 4, 5, 6, 7, 8}))
	original := p.Clone()

	require.NoError(t, p.NTT())
	require.Equal(t, Eval, p.Format())
	require.NoError(t, p.InvNTT())
	require.Equal(t, Coeff, p.Format())

	require.True(t, p.Equal(original))
}

// TestNTTOfConstantIsAllOnes: the transform of the constant polynomial 1
// evaluates to 1 at every root.
func TestNTTOfConstantIsAllOnes(t *testing.T) {
	c, err := NewChain(8, []T{17})
	require.NoError(t, err)
	ctx := c.TopContext()

	p := NewPoly(ctx, Coeff)
	require.NoError(t, p.SetCoefficientsUint64([]T{1, 0, 0, 0, 0, 0, 0, 0}))
	require.NoError(t, p.NTT())

	for _, v := range p.Coeffs(0) {
		require.Equal(t, T(1), v)
	}
}

func TestNTTRoundTripMultiModulus(t *testing.T) {
	primes, err := GenerateNTTPrimes(16, 30, 2)
	require.NoError(t, err)
	c, err := NewChain(16, primes)
	require.NoError(t, err)
	ctx := c.TopContext()

	p := NewPoly(ctx, Coeff)
	coeffs := make([]T, 16)
	for i := range coeffs {
		coeffs[i] = T(i * i * 31)
	}
	require.NoError(t, p.SetCoefficientsUint64(coeffs))
	original := p.Clone()

	require.NoError(t, p.NTT())
	require.NoError(t, p.InvNTT())
	require.True(t, p.Equal(original))
}

func TestNTTIsLinear(t *testing.T) {
	c, err := NewChain(8, []T{17})
	require.NoError(t, err)
	ctx := c.TopContext()

	a := NewPoly(ctx, Coeff)
	require.NoError(t, a.SetCoefficientsUint64([]T{1, 2, 3, 4, 5, 6, 0, 0}))
	b := NewPoly(ctx, Coeff)
	require.NoError(t, b.SetCoefficientsUint64([]T{6, 5, 4, 3, 2, 1, 0, 0}))

	sum := NewPoly(ctx, Coeff)
	require.NoError(t, Add(a, b, sum))

	aEval, err := a.NTTNew()
	require.NoError(t, err)
	bEval, err := b.NTTNew()
	require.NoError(t, err)
	sumEval, err := sum.NTTNew()
	require.NoError(t, err)

	check := NewPoly(ctx, Eval)
	require.NoError(t, Add(aEval, bEval, check))
	require.True(t, check.Equal(sumEval))
}

func TestNTTMulMatchesSchoolbookConvolution(t *testing.T) {
	c, err := NewChain(8, []T{17})
	require.NoError(t, err)
	ctx := c.TopContext()
	const q = T(17)

	a := []T{1, 1, 0, 0, 0, 0, 0, 0} // 1 + x
	b := []T{0, 1, 0, 0, 0, 0, 0, 0} // x

	want := schoolbookNegacyclicMul(a, b, q)

	pa := NewPoly(ctx, Coeff)
	require.NoError(t, pa.SetCoefficientsUint64(a))
	pb := NewPoly(ctx, Coeff)
	require.NoError(t, pb.SetCoefficientsUint64(b))

	require.NoError(t, pa.NTT())
	require.NoError(t, pb.NTT())

	dst := NewPoly(ctx, Eval)
	require.NoError(t, MulCoeffwise(pa, pb, dst))
	require.NoError(t, dst.InvNTT())

	require.Equal(t, want, dst.Coeffs(0))
}

// schoolbookNegacyclicMul computes a*b mod (x^n+1, q) directly, for use as an
// independent oracle against the NTT-based product.
func schoolbookNegacyclicMul(a, b []T, q T) []T {
	n := len(a)
	out := make([]T, n)
	for i, av := range a {
		if av == 0 {
			continue
		}
		for j, bv := range b {
			if bv == 0 {
				continue
			}
			k := i + j
			v := mulModSlow(av, bv, q)
			if k >= n {
				k -= n
				out[k] = SubMod(out[k], v, q)
			} else {
				out[k] = AddMod(out[k], v, q)
			}
		}
	}
	return out
}
