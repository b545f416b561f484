package rlwe

import (
	"io"

	"rlwekernel/ring"
)

// Encryptor produces symmetric RLWE encryptions under a secret key, reading
// randomness from a caller-supplied io.Reader per the spec's "random source
// injection" policy (§9): no process-wide default generator.
type Encryptor struct {
	ctx *ring.Context
	r   io.Reader
}

// NewEncryptor returns an Encryptor over ctx drawing randomness from r.
func NewEncryptor(ctx *ring.Context, r io.Reader) *Encryptor {
	return &Encryptor{ctx: ctx, r: r}
}

// noiseSigma is the standard deviation of the encryption-noise distribution,
// matching the conventional RLWE default (lattigo's DefaultNoise / the
// reference's sigma=3.2).
const noiseSigma = 3.2

// EncryptZero returns a fresh degree-1 encryption of zero under sk: (b, a) =
// (-(a*s) + e, a) for uniform a and small noise e, both in Eval format.
func (enc *Encryptor) EncryptZero(sk *ring.PolyRq) (*Ciphertext, error) {
	a := ring.NewPoly(enc.ctx, ring.Coeff)
	if err := ring.SampleUniform(enc.r, a); err != nil {
		return nil, err
	}
	if err := a.NTT(); err != nil {
		return nil, err
	}

	e := ring.NewPoly(enc.ctx, ring.Coeff)
	if err := ring.SampleCenteredBinomial(enc.r, noiseSigma, e); err != nil {
		return nil, err
	}
	if err := e.NTT(); err != nil {
		return nil, err
	}

	as := ring.NewPoly(enc.ctx, ring.Eval)
	if err := ring.MulCoeffwise(a, sk, as); err != nil {
		return nil, err
	}
	negAs := ring.NewPoly(enc.ctx, ring.Eval)
	if err := ring.Neg(as, negAs); err != nil {
		return nil, err
	}
	b := ring.NewPoly(enc.ctx, ring.Eval)
	if err := ring.Add(negAs, e, b); err != nil {
		return nil, err
	}

	return &Ciphertext{Value: []*ring.PolyRq{b, a}}, nil
}

// EncryptPolynomial returns an encryption of message (Eval format) under sk:
// EncryptZero(sk) with message folded into the b component.
func (enc *Encryptor) EncryptPolynomial(sk *ring.PolyRq, message *ring.PolyRq) (*Ciphertext, error) {
	ct, err := enc.EncryptZero(sk)
	if err != nil {
		return nil, err
	}
	if err := ring.Add(ct.Value[0], message, ct.Value[0]); err != nil {
		return nil, err
	}
	return ct, nil
}

// EncryptNew encrypts a (scaled) plaintext under sk, returning an
// Eval-format ciphertext. The plaintext is left unchanged.
func (enc *Encryptor) EncryptNew(sk *SecretKey, pt *Plaintext) (*Ciphertext, error) {
	msg := pt.Value
	if msg.Format() == ring.Coeff {
		var err error
		if msg, err = msg.NTTNew(); err != nil {
			return nil, err
		}
	}
	return enc.EncryptPolynomial(sk.Eval, msg)
}
