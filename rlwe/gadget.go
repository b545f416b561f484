package rlwe

import (
	"math/big"

	"rlwekernel/ring"
)

// crtBasisWeights returns, for a context with L = ctx.Level()+1 RNS moduli,
// an L x L matrix w where w[i][j] = (Q/q_i * (Q/q_i)^-1 mod q_i) mod q_j:
// the CRT basis constant for digit i, evaluated in RNS row j, so that
// sum_i (u mod q_i) * w_i = u (mod Q). This is the RNS gadget basis (no
// power-of-two sub-decomposition, no auxiliary P-modulus), grounded on the
// role lattigo's GadgetCiphertext digits play in core/rlwe/gadgetciphertext.go
// and evaluator_gadget_product.go, simplified per the Q-only scope decision
// in DESIGN.md. Computed with math/big: this runs once per key generation,
// not per coefficient.
func crtBasisWeights(ctx *ring.Context) [][]ring.T {
	l := ctx.ModuliCount()
	moduli := make([]*big.Int, l)
	q := big.NewInt(1)
	for i := 0; i < l; i++ {
		moduli[i] = new(big.Int).SetUint64(ctx.Modulus(i))
		q.Mul(q, moduli[i])
	}

	w := make([][]ring.T, l)
	for i := 0; i < l; i++ {
		mi := new(big.Int).Div(q, moduli[i])
		ni := new(big.Int).ModInverse(mi, moduli[i])
		wi := new(big.Int).Mul(mi, ni)
		wi.Mod(wi, q)

		w[i] = make([]ring.T, l)
		for j := 0; j < l; j++ {
			r := new(big.Int).Mod(wi, moduli[j])
			w[i][j] = r.Uint64()
		}
	}
	return w
}

// GadgetCiphertext is an RNS gadget-encryption of a polynomial x under a key
// s: one RLWE ciphertext per RNS digit, encrypting w_i * x under s, so that
// for any input polynomial u, sum_i decompose(u)_i * Digits[i] is an RLWE
// encryption of u * x under s with noise bounded by the digit magnitudes
// (each digit of u is a genuinely small polynomial, below q_i in absolute
// value).
type GadgetCiphertext struct {
	Digits []*Ciphertext
}

// gadgetEncrypt builds a GadgetCiphertext encrypting x (Eval format) under
// sk, for each RNS digit of x's context.
func gadgetEncrypt(enc *Encryptor, sk *ring.PolyRq, x *ring.PolyRq) (*GadgetCiphertext, error) {
	ctx := x.Context()
	weights := crtBasisWeights(ctx)
	l := ctx.ModuliCount()

	digits := make([]*Ciphertext, l)
	for i := 0; i < l; i++ {
		scaled := ring.NewPoly(ctx, x.Format())
		if err := ring.MulScalarRNS(x, weights[i], scaled); err != nil {
			return nil, err
		}
		ct, err := enc.EncryptPolynomial(sk, scaled)
		if err != nil {
			return nil, err
		}
		digits[i] = ct
	}
	return &GadgetCiphertext{Digits: digits}, nil
}

// decomposeDigit extracts the i-th RNS digit of u (Coeff format): the
// integer coefficients u mod q_i, re-reduced into every RNS row, so the
// digit is the small polynomial the gadget product's noise bound relies on.
func decomposeDigit(u *ring.PolyRq, i int) *ring.PolyRq {
	ctx := u.Context()
	out := ring.NewPoly(ctx, ring.Coeff)
	src := u.Coeffs(i)
	for j := 0; j <= ctx.Level(); j++ {
		dst := out.Coeffs(j)
		if j == i {
			copy(dst, src)
			continue
		}
		m := ctx.ModulusAt(j)
		for k, v := range src {
			dst[k] = m.BredAdd(v)
		}
	}
	return out
}

// gadgetProduct computes an RLWE encryption (Eval format) of u * x under
// gc's key, given u in Coeff format and gc = gadgetEncrypt(enc, sk, x).
func gadgetProduct(u *ring.PolyRq, gc *GadgetCiphertext) (*Ciphertext, error) {
	if u.Format() != ring.Coeff {
		return nil, errFormatMismatch
	}
	ctx := u.Context()
	acc0 := ring.NewPoly(ctx, ring.Eval)
	acc1 := ring.NewPoly(ctx, ring.Eval)

	term := ring.NewPoly(ctx, ring.Eval)
	for i, digitCt := range gc.Digits {
		ud := decomposeDigit(u, i)
		if err := ud.NTT(); err != nil {
			return nil, err
		}

		if err := ring.MulCoeffwise(ud, digitCt.Value[0], term); err != nil {
			return nil, err
		}
		if err := ring.Add(acc0, term, acc0); err != nil {
			return nil, err
		}

		if err := ring.MulCoeffwise(ud, digitCt.Value[1], term); err != nil {
			return nil, err
		}
		if err := ring.Add(acc1, term, acc1); err != nil {
			return nil, err
		}
	}

	return &Ciphertext{Value: []*ring.PolyRq{acc0, acc1}}, nil
}
