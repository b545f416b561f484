package rlwe

import (
	"io"

	"rlwekernel/ring"
)

// SecretKey holds the ternary secret polynomial s, kept in both Coeff and
// Eval format (the Eval copy used by every downstream multiplication).
type SecretKey struct {
	Coeff *ring.PolyRq
	Eval  *ring.PolyRq
}

// EvalAtContext returns the secret in Eval format at ctx, which must be the
// key's own context or a lower level of the same chain. Since the Coeff rows
// are per-modulus reductions of one ternary integer polynomial, truncating
// rows yields the same secret at the lower level.
func (sk *SecretKey) EvalAtContext(ctx *ring.Context) (*ring.PolyRq, error) {
	if ctx.Equal(sk.Eval.Context()) {
		return sk.Eval, nil
	}
	if !ctx.IsParentOf(sk.Coeff.Context()) {
		return nil, ring.ErrPolyContextMismatch
	}
	s := ring.NewPoly(ctx, ring.Coeff)
	for i := 0; i <= ctx.Level(); i++ {
		copy(s.Coeffs(i), sk.Coeff.Coeffs(i))
	}
	if err := s.NTT(); err != nil {
		return nil, err
	}
	return s, nil
}

// RelinearizationKey is a GadgetCiphertext encrypting s^2 under s, used to
// fold a degree-2 ciphertext (produced by ciphertext-ciphertext
// multiplication) back down to degree 1.
type RelinearizationKey struct {
	*GadgetCiphertext
}

// GaloisKey is a GadgetCiphertext encrypting s(x^g) under s(x), used to
// key-switch the output of an automorphism back onto the original secret.
type GaloisKey struct {
	GalEl uint64
	*GadgetCiphertext
}

// EvaluationKeySet bundles the keys a server needs to evaluate ciphertext
// products and rotations: an optional relinearization key and zero or more
// Galois keys, indexed by Galois element. Mirrors the spec's
// EvaluationKeyConfig (Galois elements + hasRelinearizationKey flag).
type EvaluationKeySet struct {
	Relinearization *RelinearizationKey
	Galois          map[uint64]*GaloisKey
}

// NewEvaluationKeySet returns an empty key set.
func NewEvaluationKeySet() *EvaluationKeySet {
	return &EvaluationKeySet{Galois: make(map[uint64]*GaloisKey)}
}

// KeyGenerator generates secret keys and evaluation keys over a fixed ring
// context, grounded on core/rlwe/keygenerator.go's role (GenSecretKey,
// GenRelinearizationKey, GenGaloisKey).
type KeyGenerator struct {
	ctx *ring.Context
}

// NewKeyGenerator returns a KeyGenerator for ctx.
func NewKeyGenerator(ctx *ring.Context) *KeyGenerator {
	return &KeyGenerator{ctx: ctx}
}

// GenSecretKey samples a fresh ternary secret key.
func (kg *KeyGenerator) GenSecretKey(r io.Reader) (*SecretKey, error) {
	coeff := ring.NewPoly(kg.ctx, ring.Coeff)
	if err := ring.SampleTernary(r, coeff); err != nil {
		return nil, err
	}
	evalForm, err := coeff.NTTNew()
	if err != nil {
		return nil, err
	}
	return &SecretKey{Coeff: coeff, Eval: evalForm}, nil
}

// GenRelinearizationKey generates the relinearization key for sk: an RNS
// gadget encryption of s^2 under s.
func (kg *KeyGenerator) GenRelinearizationKey(r io.Reader, sk *SecretKey) (*RelinearizationKey, error) {
	enc := NewEncryptor(kg.ctx, r)
	s2 := ring.NewPoly(kg.ctx, ring.Eval)
	if err := ring.MulCoeffwise(sk.Eval, sk.Eval, s2); err != nil {
		return nil, err
	}
	gc, err := gadgetEncrypt(enc, sk.Eval, s2)
	if err != nil {
		return nil, err
	}
	return &RelinearizationKey{GadgetCiphertext: gc}, nil
}

// GenGaloisKey generates the Galois key for element g: an RNS gadget
// encryption of s(x^g) under s(x).
func (kg *KeyGenerator) GenGaloisKey(r io.Reader, sk *SecretKey, g uint64) (*GaloisKey, error) {
	enc := NewEncryptor(kg.ctx, r)
	rotated := ring.NewPoly(kg.ctx, ring.Eval)
	if err := ring.AutomorphismEval(sk.Eval, g, rotated); err != nil {
		return nil, err
	}
	gc, err := gadgetEncrypt(enc, sk.Eval, rotated)
	if err != nil {
		return nil, err
	}
	return &GaloisKey{GalEl: g, GadgetCiphertext: gc}, nil
}

// GenEvaluationKeySet generates a full key set for the given Galois
// elements, plus a relinearization key if needRelin is set, per the spec's
// EvaluationKeyConfig.
func (kg *KeyGenerator) GenEvaluationKeySet(r io.Reader, sk *SecretKey, galEls []uint64, needRelin bool) (*EvaluationKeySet, error) {
	eks := NewEvaluationKeySet()
	if needRelin {
		rlk, err := kg.GenRelinearizationKey(r, sk)
		if err != nil {
			return nil, err
		}
		eks.Relinearization = rlk
	}
	for _, g := range galEls {
		gk, err := kg.GenGaloisKey(r, sk, g)
		if err != nil {
			return nil, err
		}
		eks.Galois[g] = gk
	}
	return eks, nil
}
