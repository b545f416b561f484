package rlwe

import (
	"testing"

	"github.com/stretchr/testify/require"

	"rlwekernel/ring"
)

const (
	testN = 32
	testT = 65537
)

func testParameters(t *testing.T) *Parameters {
	t.Helper()
	q, err := ring.GenerateNTTPrimes(testN, 45, 2)
	require.NoError(t, err)
	params, err := NewParameters(testN, q, testT)
	require.NoError(t, err)
	return params
}

func testKeys(t *testing.T, params *Parameters, galEls []uint64, relin bool) (*SecretKey, *EvaluationKeySet, *ring.KeyedPRNG) {
	t.Helper()
	prng, err := ring.NewKeyedPRNG([]byte("rlwe-test-seed"))
	require.NoError(t, err)
	kg := NewKeyGenerator(params.Context())
	sk, err := kg.GenSecretKey(prng)
	require.NoError(t, err)
	eks, err := kg.GenEvaluationKeySet(prng, sk, galEls, relin)
	require.NoError(t, err)
	return sk, eks, prng
}

func TestEncryptDecryptRoundTrip(t *testing.T) {
	params := testParameters(t)
	sk, _, prng := testKeys(t, params, nil, false)
	enc := NewEncoder(params)
	encryptor := NewEncryptor(params.Context(), prng)

	values := make([]uint64, params.N())
	for i := range values {
		values[i] = uint64(i*i+1) % params.PlaintextModulus()
	}
	pt, err := enc.EncodeScaled(values)
	require.NoError(t, err)
	ct, err := encryptor.EncryptNew(sk, pt)
	require.NoError(t, err)

	got, err := DecryptAndDecode(ct, sk, enc)
	require.NoError(t, err)
	require.Equal(t, values, got)
}

func TestAddAndMulPlain(t *testing.T) {
	params := testParameters(t)
	sk, _, prng := testKeys(t, params, nil, false)
	enc := NewEncoder(params)
	encryptor := NewEncryptor(params.Context(), prng)
	ev := NewEvaluator(params, nil)

	tt := params.PlaintextModulus()
	a := make([]uint64, params.N())
	b := make([]uint64, params.N())
	for i := range a {
		a[i] = uint64(3*i+7) % tt
		b[i] = uint64(5*i+11) % tt
	}

	ptA, err := enc.EncodeScaled(a)
	require.NoError(t, err)
	ptB, err := enc.EncodeScaled(b)
	require.NoError(t, err)
	ctA, err := encryptor.EncryptNew(sk, ptA)
	require.NoError(t, err)
	ctB, err := encryptor.EncryptNew(sk, ptB)
	require.NoError(t, err)

	t.Run("add", func(t *testing.T) {
		sum, err := ev.Add(ctA, ctB)
		require.NoError(t, err)
		got, err := DecryptAndDecode(sum, sk, enc)
		require.NoError(t, err)
		for i := range a {
			require.Equal(t, (a[i]+b[i])%tt, got[i])
		}
	})

	t.Run("mulPlain", func(t *testing.T) {
		// Multiply by the monomial 2x: the plaintext product is a negacyclic
		// shift and doubling.
		mono := make([]uint64, params.N())
		mono[1] = 2
		pt, err := enc.EncodeCoefficients(mono)
		require.NoError(t, err)
		require.NoError(t, pt.Value.NTT())

		prod, err := ev.MulPlain(ctA, pt)
		require.NoError(t, err)
		got, err := DecryptAndDecode(prod, sk, enc)
		require.NoError(t, err)

		want := negacyclicMulModT(a, mono, tt)
		require.Equal(t, want, got)
	})
}

func TestMulRelinMatchesConvolution(t *testing.T) {
	params := testParameters(t)
	sk, eks, prng := testKeys(t, params, nil, true)
	enc := NewEncoder(params)
	encryptor := NewEncryptor(params.Context(), prng)
	ev := NewEvaluator(params, eks)

	tt := params.PlaintextModulus()
	a := make([]uint64, params.N())
	b := make([]uint64, params.N())
	for i := range a {
		a[i] = uint64(i + 1)
		b[i] = uint64(2*i + 3)
	}

	ptA, err := enc.EncodeScaled(a)
	require.NoError(t, err)
	ptB, err := enc.EncodeScaled(b)
	require.NoError(t, err)
	ctA, err := encryptor.EncryptNew(sk, ptA)
	require.NoError(t, err)
	ctB, err := encryptor.EncryptNew(sk, ptB)
	require.NoError(t, err)

	prod, err := ev.MulRelin(ctA, ctB)
	require.NoError(t, err)
	require.Equal(t, 1, prod.Degree())

	got, err := DecryptAndDecode(prod, sk, enc)
	require.NoError(t, err)
	require.Equal(t, negacyclicMulModT(a, b, tt), got)
}

func TestModSwitchDownToSingle(t *testing.T) {
	params := testParameters(t)
	sk, _, prng := testKeys(t, params, nil, false)
	enc := NewEncoder(params)
	encryptor := NewEncryptor(params.Context(), prng)
	ev := NewEvaluator(params, nil)

	values := make([]uint64, params.N())
	for i := range values {
		values[i] = uint64(7*i + 1)
	}
	pt, err := enc.EncodeScaled(values)
	require.NoError(t, err)
	ct, err := encryptor.EncryptNew(sk, pt)
	require.NoError(t, err)

	switched, err := ev.ModSwitchDownToSingle(ct)
	require.NoError(t, err)
	require.Equal(t, 0, switched.Level())
	require.Equal(t, ring.Coeff, switched.Format())

	got, err := DecryptAndDecode(switched, sk, enc)
	require.NoError(t, err)
	require.Equal(t, values, got)
}

func TestBatchEncoderRoundTrip(t *testing.T) {
	params := testParameters(t)
	be, err := NewBatchEncoder(params)
	require.NoError(t, err)

	slots := make([]uint64, params.SlotCount())
	for i := range slots {
		slots[i] = uint64(i * 13)
	}
	coeffs, err := be.Encode(slots)
	require.NoError(t, err)
	back, err := be.Decode(coeffs)
	require.NoError(t, err)
	require.Equal(t, slots, back)
}

func TestRotateColumnsOnEncryptedSlots(t *testing.T) {
	params := testParameters(t)
	step := 3
	galEls := []uint64{params.GaloisElementRotate(step), params.GaloisElementSwapRows()}
	sk, eks, prng := testKeys(t, params, galEls, false)
	enc := NewEncoder(params)
	be, err := NewBatchEncoder(params)
	require.NoError(t, err)
	encryptor := NewEncryptor(params.Context(), prng)
	ev := NewEvaluator(params, eks)

	cols := params.SIMDColumnCount()
	slots := make([]uint64, params.SlotCount())
	for i := range slots {
		slots[i] = uint64(i + 1)
	}
	coeffs, err := be.Encode(slots)
	require.NoError(t, err)
	pt, err := enc.EncodeScaled(coeffs)
	require.NoError(t, err)
	ct, err := encryptor.EncryptNew(sk, pt)
	require.NoError(t, err)

	t.Run("rotate", func(t *testing.T) {
		rotated, err := ev.RotateColumns(ct, step)
		require.NoError(t, err)
		msg, err := DecryptAndDecode(rotated, sk, enc)
		require.NoError(t, err)
		got, err := be.Decode(msg)
		require.NoError(t, err)

		// Rotation by step: new slot i holds old slot i-step, per SIMD row.
		for row := 0; row < 2; row++ {
			for i := 0; i < cols; i++ {
				src := ((i-step)%cols + cols) % cols
				require.Equal(t, slots[row*cols+src], got[row*cols+i], "row %d slot %d", row, i)
			}
		}
	})

	t.Run("swapRows", func(t *testing.T) {
		swapped, err := ev.SwapRows(ct)
		require.NoError(t, err)
		msg, err := DecryptAndDecode(swapped, sk, enc)
		require.NoError(t, err)
		got, err := be.Decode(msg)
		require.NoError(t, err)
		for i := 0; i < cols; i++ {
			require.Equal(t, slots[cols+i], got[i])
			require.Equal(t, slots[i], got[cols+i])
		}
	})
}

func TestMultiplyPowerOfXOnCiphertext(t *testing.T) {
	params := testParameters(t)
	sk, _, prng := testKeys(t, params, nil, false)
	enc := NewEncoder(params)
	encryptor := NewEncryptor(params.Context(), prng)
	ev := NewEvaluator(params, nil)

	values := make([]uint64, params.N())
	values[0] = 42
	pt, err := enc.EncodeScaled(values)
	require.NoError(t, err)
	ct, err := encryptor.EncryptNew(sk, pt)
	require.NoError(t, err)
	coeffCt, err := ev.ToCoeff(ct)
	require.NoError(t, err)

	shifted, err := ev.MultiplyPowerOfX(coeffCt, 5)
	require.NoError(t, err)
	got, err := DecryptAndDecode(shifted, sk, enc)
	require.NoError(t, err)
	require.Equal(t, uint64(42), got[5])
	require.Equal(t, uint64(0), got[0])
}

// negacyclicMulModT computes a*b mod (x^n+1, t) by schoolbook convolution.
func negacyclicMulModT(a, b []uint64, t uint64) []uint64 {
	n := len(a)
	out := make([]uint64, n)
	for i, av := range a {
		if av == 0 {
			continue
		}
		for j, bv := range b {
			if bv == 0 {
				continue
			}
			v := av % t * (bv % t) % t
			k := i + j
			if k >= n {
				k -= n
				out[k] = (out[k] + t - v) % t
			} else {
				out[k] = (out[k] + v) % t
			}
		}
	}
	return out
}
