package ring

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestModulusBarrettMulMatchesSchoolbook(t *testing.T) {
	m := NewModulus(1152921504606846883)
	inputs := []T{0, 1, 2, m.Value - 1, m.Value / 2, 123456789}
	for _, a := range inputs {
		for _, b := range inputs {
			got := m.MulModBarrett(a, b)
			want := mulModSlow(a, b, m.Value)
			require.Equalf(t, want, got, "a=%d b=%d", a, b)
		}
	}
}

func TestModulusMontgomeryRoundTrip(t *testing.T) {
	m := NewModulus(1152921504606846883)
	for _, a := range []T{0, 1, 2, 12345, m.Value - 1} {
		mont := m.MForm(a)
		require.Equal(t, a, m.InvMForm(mont))
	}
}

func TestModulusMRedMatchesBarrett(t *testing.T) {
	m := NewModulus(1152921504606846883)
	for _, a := range []T{1, 2, 12345, m.Value - 1} {
		for _, b := range []T{1, 7, m.Value - 3} {
			bMont := m.MForm(b)
			got := m.MRed(a, bMont)
			want := m.MulModBarrett(a, b)
			require.Equalf(t, want, got, "a=%d b=%d", a, b)
		}
	}
}

func TestModulusBredAddRange(t *testing.T) {
	m := NewModulus(97)
	require.Equal(t, T(0), m.BredAdd(97*1000))
	require.Equal(t, T(5), m.BredAdd(97*3+5))
}

func TestModulusDivFloor(t *testing.T) {
	m := NewModulus(7)
	for x := T(0); x < 200; x++ {
		require.Equal(t, x/7, m.DivFloor(x))
	}
}

func TestModulusPowerOfTwoFacts(t *testing.T) {
	m := NewModulus(64)
	require.True(t, m.IsPowerOfTwo())
	require.Equal(t, T(64), m.PreviousPowerOfTwo())

	m2 := NewModulus(97)
	require.False(t, m2.IsPowerOfTwo())
	require.Equal(t, T(64), m2.PreviousPowerOfTwo())
}
