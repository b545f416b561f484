package rlwe

import (
	"fmt"
	"math/big"

	"rlwekernel/codec"
	"rlwekernel/ring"
)

// Encoder maps between application data (bytes, slot values) and plaintext
// polynomials, and between decrypted phases and data. Message coefficients
// live in Z_t; an encryptable plaintext carries round(Q*m/t) per coefficient
// (the scale-invariant encoding), while server-side database plaintexts stay
// unscaled so a ciphertext-plaintext product keeps the invariant.
type Encoder struct {
	params *Parameters
}

// NewEncoder returns an Encoder over params.
func NewEncoder(params *Parameters) *Encoder {
	return &Encoder{params: params}
}

// EncodeCoefficients builds an unscaled Coeff-format plaintext at the top
// ciphertext level from values (each reduced mod t). Unscaled plaintexts are
// the right-hand side of ciphertext-plaintext products.
func (e *Encoder) EncodeCoefficients(values []uint64) (*Plaintext, error) {
	return e.EncodeCoefficientsAtLevel(values, e.params.MaxLevel())
}

// EncodeCoefficientsAtLevel is EncodeCoefficients at an explicit level.
func (e *Encoder) EncodeCoefficientsAtLevel(values []uint64, level int) (*Plaintext, error) {
	ctx, err := e.params.ContextAtLevel(level)
	if err != nil {
		return nil, err
	}
	n := e.params.N()
	if len(values) > n {
		return nil, fmt.Errorf("rlwe: %d values exceed ring degree %d", len(values), n)
	}
	pt := NewPlaintext(ctx, ring.Coeff)
	t := e.params.t
	for i := 0; i <= ctx.Level(); i++ {
		row := pt.Value.Coeffs(i)
		for j, v := range values {
			row[j] = v % t
		}
	}
	return pt, nil
}

// EncodeScaled builds a Coeff-format plaintext carrying round(Q*v/t) per
// coefficient: the form a client encrypts. The rounding is exact (big.Int),
// run once per plaintext on the client side.
func (e *Encoder) EncodeScaled(values []uint64) (*Plaintext, error) {
	ctx := e.params.Context()
	n := e.params.N()
	if len(values) > n {
		return nil, fmt.Errorf("rlwe: %d values exceed ring degree %d", len(values), n)
	}
	q := ctx.ModulusBig()
	t := new(big.Int).SetUint64(e.params.t)

	coeffs := make([]*big.Int, n)
	num := new(big.Int)
	for j := 0; j < n; j++ {
		coeffs[j] = new(big.Int)
		if j < len(values) {
			num.SetUint64(values[j] % e.params.t)
			num.Mul(num, q)
			roundDiv(coeffs[j], num, t)
		}
	}

	pt := NewPlaintext(ctx, ring.Coeff)
	if err := pt.Value.SetCoefficientsBigint(coeffs); err != nil {
		return nil, err
	}
	return pt, nil
}

// DecodePhase recovers the message coefficients from a decrypted phase
// (Coeff format, any ciphertext level): m_j = round(t * phase_j / Q) mod t.
func (e *Encoder) DecodePhase(phase *ring.PolyRq) ([]uint64, error) {
	n := phase.N()
	coeffs := make([]*big.Int, n)
	if err := phase.CoefficientsBigintCentered(coeffs); err != nil {
		return nil, err
	}
	q := phase.Context().ModulusBig()
	t := new(big.Int).SetUint64(e.params.t)

	out := make([]uint64, n)
	num := new(big.Int)
	m := new(big.Int)
	for j := 0; j < n; j++ {
		num.Mul(coeffs[j], t)
		roundDiv(m, num, q)
		m.Mod(m, t)
		out[j] = m.Uint64()
	}
	return out, nil
}

// roundDiv sets out = round(num/den) for den > 0, rounding halves away from
// the floor: out = floor((2*num + den) / (2*den)).
func roundDiv(out, num, den *big.Int) {
	out.Lsh(num, 1)
	out.Add(out, den)
	twoDen := new(big.Int).Lsh(den, 1)
	out.Div(out, twoDen)
}

// BytesToValues packs data into plaintext coefficients at BitsPerCoefficient
// bits each, zero-padding the tail; data must fit one plaintext.
func (e *Encoder) BytesToValues(data []byte) ([]uint64, error) {
	n := e.params.N()
	w := e.params.BitsPerCoefficient()
	if len(data) > e.params.BytesPerPlaintext() {
		return nil, fmt.Errorf("rlwe: %d bytes exceed plaintext capacity %d", len(data), e.params.BytesPerPlaintext())
	}
	padded := make([]byte, codec.PackedByteLen(n, w, 0))
	copy(padded, data)
	return codec.BytesToCoefficients(padded, n, w, 0)
}

// ValuesToBytes is the inverse of BytesToValues, returning the full
// BytesPerPlaintext window.
func (e *Encoder) ValuesToBytes(values []uint64) []byte {
	w := e.params.BitsPerCoefficient()
	buf := codec.CoefficientsToBytes(values, w, 0, make([]byte, 0, codec.PackedByteLen(len(values), w, 0)))
	return buf[:e.params.BytesPerPlaintext()]
}

// BatchEncoder maps between slot values laid out as a 2 x (N/2) SIMD matrix
// and message coefficients mod t, via the negacyclic NTT over the plaintext
// ring. Slot s of row 0 is the evaluation at the 2N-th root's power 3^s, row
// 1 at -3^s, so the canonical rotate/swap Galois elements permute slots.
type BatchEncoder struct {
	params     *Parameters
	ctxT       *ring.Context
	slotToEval []int
}

// NewBatchEncoder returns a BatchEncoder, or an error if t is not
// NTT-friendly for N.
func NewBatchEncoder(params *Parameters) (*BatchEncoder, error) {
	if !params.SupportsSIMD() {
		return nil, ErrSIMDUnsupported
	}
	n := params.N()
	logN := ring.Log2(uint64(n))
	m := uint64(2 * n)
	rowSize := n / 2

	idx := make([]int, n)
	pos := uint64(1)
	for i := 0; i < rowSize; i++ {
		idx[i] = int(ring.ReverseBits((pos-1)>>1, logN))
		idx[rowSize+i] = int(ring.ReverseBits((m-pos-1)>>1, logN))
		pos = pos * 3 % m
	}
	return &BatchEncoder{
		params:     params,
		ctxT:       params.tChain.TopContext(),
		slotToEval: idx,
	}, nil
}

// Encode converts slot values (length <= N, row-major over the 2 x N/2
// layout) into message coefficients mod t.
func (be *BatchEncoder) Encode(slots []uint64) ([]uint64, error) {
	n := be.params.N()
	if len(slots) > n {
		return nil, fmt.Errorf("rlwe: %d slot values exceed slot count %d", len(slots), n)
	}
	p := ring.NewPoly(be.ctxT, ring.Eval)
	row := p.Coeffs(0)
	t := be.params.t
	for s, v := range slots {
		row[be.slotToEval[s]] = v % t
	}
	if err := p.InvNTT(); err != nil {
		return nil, err
	}
	out := make([]uint64, n)
	copy(out, p.Coeffs(0))
	return out, nil
}

// Decode converts message coefficients mod t back into slot values.
func (be *BatchEncoder) Decode(values []uint64) ([]uint64, error) {
	n := be.params.N()
	p := ring.NewPoly(be.ctxT, ring.Coeff)
	if err := p.SetCoefficientsUint64(values); err != nil {
		return nil, err
	}
	if err := p.NTT(); err != nil {
		return nil, err
	}
	row := p.Coeffs(0)
	out := make([]uint64, n)
	for s := range out {
		out[s] = row[be.slotToEval[s]]
	}
	return out, nil
}
