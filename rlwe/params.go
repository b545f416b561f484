package rlwe

import (
	"fmt"

	"rlwekernel/ring"
)

// Parameters fixes a scheme instance: the ring degree N, the ciphertext
// modulus chain Q = q_0*...*q_{L-1}, the plaintext modulus t, and the
// auxiliary extension moduli appended above Q for the exact tensor product of
// a ciphertext-ciphertext multiplication. All moduli live on a single
// ring.Chain, with ciphertexts at level L-1 and the tensor product at the
// chain's top level, so every derived context shares one immutable backbone
// (the flat-chain representation recommended for modulus-switching chains).
type Parameters struct {
	chain  *ring.Chain
	qCount int
	t      uint64

	// tChain is the plaintext ring Z_t[x]/(x^N+1), present only when t is
	// NTT-friendly for N; SIMD (batch) encoding requires it.
	tChain *ring.Chain
}

// NewParameters builds a parameter set for ring degree n, ciphertext moduli
// qModuli (each an NTT-friendly prime for n, ordered base-first), and
// plaintext modulus t. Extension primes for the multiplication basis are
// generated internally so that the extended modulus exceeds the worst-case
// magnitude of a tensored coefficient.
func NewParameters(n int, qModuli []uint64, t uint64) (*Parameters, error) {
	if t < 2 {
		return nil, fmt.Errorf("%w: plaintext modulus %d", ring.ErrInvalidModulus, t)
	}
	for _, q := range qModuli {
		if t >= q {
			return nil, fmt.Errorf("%w: plaintext modulus %d not below ciphertext modulus %d", ring.ErrInvalidModulus, t, q)
		}
	}

	ext, err := multiplicationBasis(n, qModuli)
	if err != nil {
		return nil, err
	}
	chain, err := ring.NewChain(n, append(append([]uint64{}, qModuli...), ext...))
	if err != nil {
		return nil, err
	}
	if !chain.TopContext().AllowsNTT() {
		return nil, ring.ErrInvalidNTTModulus
	}

	p := &Parameters{chain: chain, qCount: len(qModuli), t: t}

	if ring.IsPrime(t) && t%uint64(2*n) == 1 {
		tChain, err := ring.NewChain(n, []uint64{t})
		if err != nil {
			return nil, err
		}
		p.tChain = tChain
	}
	return p, nil
}

// multiplicationBasis picks extension primes whose product exceeds
// N * Q^2 / 2 / Q = N*Q/2 (the headroom a centered tensor coefficient needs
// beyond Q), with a margin bit.
func multiplicationBasis(n int, qModuli []uint64) ([]uint64, error) {
	needBits := ring.CeilLog2(uint64(n)) + 2
	for _, q := range qModuli {
		needBits += ring.CeilLog2(q)
	}

	bitLen := 0
	for _, q := range qModuli {
		if b := ring.CeilLog2(q); b > bitLen {
			bitLen = b
		}
	}
	if bitLen < ring.CeilLog2(uint64(2*n))+2 {
		bitLen = ring.CeilLog2(uint64(2*n)) + 2
	}
	if bitLen < 30 {
		bitLen = 30
	}

	count := (needBits + bitLen - 2) / (bitLen - 1)
	if count < 1 {
		count = 1
	}
	return ring.GenerateNTTPrimesAvoiding(n, bitLen, count, qModuli)
}

// N returns the ring degree.
func (p *Parameters) N() int { return p.chain.TopContext().N() }

// PlaintextModulus returns t.
func (p *Parameters) PlaintextModulus() uint64 { return p.t }

// MaxLevel returns the top ciphertext level, L-1.
func (p *Parameters) MaxLevel() int { return p.qCount - 1 }

// Context returns the ciphertext context at the top ciphertext level.
func (p *Parameters) Context() *ring.Context {
	ctx, _ := p.chain.AtLevel(p.qCount - 1)
	return ctx
}

// ContextAtLevel returns the ciphertext context at the given level.
func (p *Parameters) ContextAtLevel(level int) (*ring.Context, error) {
	if level < 0 || level >= p.qCount {
		return nil, ring.ErrInvalidPolyContext
	}
	return p.chain.AtLevel(level)
}

// mulContext returns the extended context used for tensor products.
func (p *Parameters) mulContext() *ring.Context { return p.chain.TopContext() }

// SupportsSIMD reports whether t admits batch (SIMD) encoding.
func (p *Parameters) SupportsSIMD() bool { return p.tChain != nil }

// SlotCount returns the number of SIMD slots (= N).
func (p *Parameters) SlotCount() int { return p.N() }

// SIMDColumnCount returns the number of columns of the 2-row SIMD layout.
func (p *Parameters) SIMDColumnCount() int { return p.N() / 2 }

// BitsPerCoefficient returns the number of data bits one plaintext
// coefficient carries: floor(log2(t)), which is exact when t is a power of
// two.
func (p *Parameters) BitsPerCoefficient() int {
	return ring.Log2(p.t)
}

// BytesPerPlaintext returns the number of whole data bytes one plaintext
// holds under coefficient packing.
func (p *Parameters) BytesPerPlaintext() int {
	return p.N() * p.BitsPerCoefficient() / 8
}

// GaloisElementRotate returns the Galois element rotating SIMD columns by
// step.
func (p *Parameters) GaloisElementRotate(step int) uint64 {
	return ring.RotateColumnsGalEl(p.N(), step)
}

// GaloisElementSwapRows returns the Galois element swapping the SIMD rows.
func (p *Parameters) GaloisElementSwapRows() uint64 {
	return ring.SwapRowsGalEl(p.N())
}

