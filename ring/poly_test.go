package ring

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestPolyAddSubNeg(t *testing.T) {
	c, err := NewChain(8, []T{17})
	require.NoError(t, err)
	ctx := c.TopContext()

	a := NewPoly(ctx, Coeff)
	require.NoError(t, a.SetCoefficientsUint64([]T{1, 2, 3, 4, 5, 6, 7, 8}))
	b := NewPoly(ctx, Coeff)
	require.NoError(t, b.SetCoefficientsUint64([]T{8, 7, 6, 5, 4, 3, 2, 1}))

	sum := NewPoly(ctx, Coeff)
	require.NoError(t, Add(a, b, sum))
	for _, v := range sum.Coeffs(0) {
		require.Equal(t, T(9%17), v)
	}

	diff := NewPoly(ctx, Coeff)
	require.NoError(t, Sub(a, b, diff))
	neg := NewPoly(ctx, Coeff)
	require.NoError(t, Neg(diff, neg))

	back := NewPoly(ctx, Coeff)
	require.NoError(t, Add(diff, neg, back))
	for _, v := range back.Coeffs(0) {
		require.Equal(t, T(0), v)
	}
}

func TestPolyMulScalarRNS(t *testing.T) {
	c, err := NewChain(8, []T{17, 97})
	require.NoError(t, err)
	ctx := c.TopContext()

	a := NewPoly(ctx, Coeff)
	require.NoError(t, a.SetCoefficientsUint64([]T{1, 1, 1, 1, 1, 1, 1, 1}))

	dst := NewPoly(ctx, Coeff)
	require.NoError(t, MulScalarRNS(a, []T{3, 5}, dst))

	for _, v := range dst.Coeffs(0) {
		require.Equal(t, T(3), v)
	}
	for _, v := range dst.Coeffs(1) {
		require.Equal(t, T(5), v)
	}
}

func TestPolyCenteredCoefficientsRoundTrip(t *testing.T) {
	c, err := NewChain(8, []T{97})
	require.NoError(t, err)
	ctx := c.TopContext()

	p := NewPoly(ctx, Coeff)
	signed := []int64{-48, -1, 0, 1, 48, -20, 20, 10}
	require.NoError(t, p.SetCoefficientsInt64(signed))

	require.Equal(t, signed, p.CenteredCoefficients()[0])
}

func TestLazyAccumulatorMatchesDirectSum(t *testing.T) {
	c, err := NewChain(8, []T{17})
	require.NoError(t, err)
	ctx := c.TopContext()

	a := NewPoly(ctx, Coeff)
	require.NoError(t, a.SetCoefficientsUint64([]T{1, 2, 3, 4, 5, 6, 7, 8}))
	b := NewPoly(ctx, Coeff)
	require.NoError(t, b.SetCoefficientsUint64([]T{8, 7, 6, 5, 4, 3, 2, 1}))
	require.NoError(t, a.NTT())
	require.NoError(t, b.NTT())

	acc := NewLazyAccumulator(ctx)
	require.NoError(t, acc.AddLazyProduct(a, b))
	require.NoError(t, acc.AddLazyProduct(a, b))
	got := acc.Result()

	want := NewPoly(ctx, Eval)
	ab := NewPoly(ctx, Eval)
	require.NoError(t, MulCoeffwise(a, b, ab))
	require.NoError(t, Add(ab, ab, want))

	require.True(t, got.Equal(want))
}
