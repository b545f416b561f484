package ring

import (
	"fmt"
	"math/big"
	"math/bits"
)

// Modulus bundles the Barrett and Montgomery reduction factors for a single
// RNS modulus p, plus the auxiliary bit-length facts the rest of the ring
// package needs. Mirrors the precomputation split across lattigo's
// BRedParams/MRedParams and Ring.Mask/ModulusAtLevel.
//
// Precondition: 1 <= p <= 2^62 - 1 (maxModulusBits), enforced by NewModulus.
type Modulus struct {
	Value T

	// barrett holds [hi, lo] of floor(2^128 / p): the classic Barrett
	// reduction factor for a full 64x64 product, as in lattigo's BRedParams.
	barrett [2]T

	// montgomery holds q^{-1} mod 2^64, valid only when p is odd (i.e. not a
	// power of two); used by the NTT's internal Montgomery-domain butterflies.
	montgomery T
	isOddModulus bool

	// divFactor[0] is the division multiplier floor(2^64 * (2^l - p) / p) + 1
	// with l = ceilLog2(p), used by DivFloor for constant-time floor division
	// by p; divFactor[1] is zero.
	divFactor [2]T

	prevPow2 T
	ceilLog2 int
}

// NewModulus precomputes all reduction factors for p. Panics if p is out of
// the representable range: this is a programming-error precondition per §4.1.
func NewModulus(p T) *Modulus {
	if p == 0 || p > T(1)<<maxModulusBits-1 {
		panic(fmt.Sprintf("ring: invalid modulus %d: must satisfy 1 <= p <= 2^%d-1", p, maxModulusBits))
	}

	m := &Modulus{Value: p}

	r := new(big.Int).Lsh(big.NewInt(1), 128)
	r.Quo(r, new(big.Int).SetUint64(p))
	hi := new(big.Int).Rsh(r, 64)
	m.barrett = [2]T{hi.Uint64(), r.Uint64()}

	d := new(big.Int).Lsh(big.NewInt(1), uint(CeilLog2(p)))
	d.Sub(d, new(big.Int).SetUint64(p))
	d.Lsh(d, 64)
	d.Quo(d, new(big.Int).SetUint64(p))
	d.Add(d, big.NewInt(1))
	m.divFactor = [2]T{d.Uint64(), 0}

	if p&1 == 1 {
		m.montgomery = montgomeryInverse(p)
		m.isOddModulus = true
	}

	m.ceilLog2 = CeilLog2(p)
	m.prevPow2 = PreviousPowerOfTwo(p)

	return m
}

// montgomeryInverse computes q^{-1} mod 2^64 by Newton iteration, as in
// lattigo's MRedParams.
func montgomeryInverse(q T) (qInv T) {
	qInv = 1
	x := q
	for i := 0; i < 63; i++ {
		qInv *= x
		x *= x
	}
	return
}

// BredAdd reduces a single 64-bit accumulator value x (which may exceed p,
// e.g. the result of several lazy additions) into [0, p). Equivalent to
// lattigo's BRedAdd: correct for any x < p * 2^64.
func (m *Modulus) BredAdd(x T) T {
	hi, _ := bits.Mul64(x, m.barrett[0])
	r := x - hi*m.Value
	return subtractIfExceeds(r, m.Value)
}

// MulModBarrett computes (a*b) mod p for a, b in [0, p) using the full
// 128-bit Barrett product reduction, as in lattigo's BRed.
func (m *Modulus) MulModBarrett(a, b T) T {
	p := m.Value
	u0, u1 := m.barrett[0], m.barrett[1]

	ahi, alo := bits.Mul64(a, b)

	lhi, _ := bits.Mul64(alo, u1)

	mhi, mlo := bits.Mul64(alo, u0)
	s0, carry := bits.Add64(mlo, lhi, 0)
	s1 := mhi + carry

	mhi, mlo = bits.Mul64(ahi, u1)
	_, carry = bits.Add64(mlo, s0, 0)
	lhi = mhi + carry

	s0 = ahi*u0 + s1 + lhi

	r := alo - s0*p
	return subtractIfExceeds(r, p)
}

// MulModBarrettLazy is as MulModBarrett but returns a result in [0, 2p).
func (m *Modulus) MulModBarrettLazy(a, b T) T {
	p := m.Value
	u0, u1 := m.barrett[0], m.barrett[1]

	ahi, alo := bits.Mul64(a, b)

	lhi, _ := bits.Mul64(alo, u1)

	mhi, mlo := bits.Mul64(alo, u0)
	s0, carry := bits.Add64(mlo, lhi, 0)
	s1 := mhi + carry

	mhi, mlo = bits.Mul64(ahi, u1)
	_, carry = bits.Add64(mlo, s0, 0)
	lhi = mhi + carry

	s0 = ahi*u0 + s1 + lhi

	return alo - s0*p
}

// MForm switches a into the Montgomery domain: a*2^64 mod p. Requires p odd.
func (m *Modulus) MForm(a T) T {
	mhi, _ := bits.Mul64(a, m.barrett[1])
	r := -(a*m.barrett[0] + mhi) * m.Value
	return subtractIfExceeds(r, m.Value)
}

// InvMForm switches a out of the Montgomery domain: a*2^-64 mod p.
func (m *Modulus) InvMForm(a T) T {
	r, _ := bits.Mul64(a*m.montgomery, m.Value)
	r = m.Value - r
	return subtractIfExceeds(r, m.Value)
}

// MRed computes x*y*2^-64 mod p (Montgomery multiplication), result in
// [0, p).
func (m *Modulus) MRed(x, y T) T {
	ahi, alo := bits.Mul64(x, y)
	rr := alo * m.montgomery
	h, _ := bits.Mul64(rr, m.Value)
	r := ahi - h + m.Value
	return subtractIfExceeds(r, m.Value)
}

// MRedLazy is as MRed but returns a result in [0, 2p).
func (m *Modulus) MRedLazy(x, y T) T {
	ahi, alo := bits.Mul64(x, y)
	rr := alo * m.montgomery
	h, _ := bits.Mul64(rr, m.Value)
	return ahi - h + m.Value
}

// DivFloor computes floor(x/p) in constant time for x a single 64-bit
// dividend, via the precomputed division multiplier divFactor[0]:
// q = ((x - hi(x*factor)) >> 1 + hi(x*factor)) >> (ceilLog2(p)-1).
func (m *Modulus) DivFloor(x T) T {
	hi, _ := bits.Mul64(x, m.divFactor[0])
	if m.ceilLog2 == 0 {
		return x
	}
	q := ((x-hi)>>1 + hi) >> (m.ceilLog2 - 1)
	// At most off-by-one; correct constant-time.
	over := CTGt((q+1)*m.Value, x) // all-ones iff (q+1)*p > x, i.e. q is already correct
	under := ^over & CTGe(x, (q+1)*m.Value)
	return CTSelect(under != 0, q+1, q)
}

// SignedToUnsigned reduces a centered signed value into [0, p), constant
// time over a: |a| is reduced with BredAdd, and for negative a the result r
// is replaced by (p - r) mod p.
func (m *Modulus) SignedToUnsigned(a int64) T {
	neg := T(a >> 63) // all-ones iff a < 0
	abs := (T(a) ^ neg) - neg
	r := m.BredAdd(abs)
	return CTSelect(neg != 0, subtractIfExceeds(m.Value-r, m.Value), r)
}

// CeilLog2 returns ceil(log2(p)).
func (m *Modulus) CeilLog2() int { return m.ceilLog2 }

// PreviousPowerOfTwo returns the largest power of two <= p.
func (m *Modulus) PreviousPowerOfTwo() T { return m.prevPow2 }

// IsPowerOfTwo reports whether p itself is a power of two.
func (m *Modulus) IsPowerOfTwo() bool { return IsPowerOfTwo(m.Value) }
