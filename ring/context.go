package ring

import "fmt"

// nttTable holds the bit-reversed twiddle tables needed to run the Harvey
// NTT for one NTT-friendly modulus, as precomputed by lattigo's
// Ring.genNTTParams: powers of the primitive 2N-th root of unity in
// Montgomery form (bit-reversed order for the forward transform), the
// mirrored inverse-power table (sequential per-stage access in the inverse
// transform), N^{-1} mod q in Montgomery form, and the fused
// N^{-1}*psi^{-N/2} constant that folds the inverse scaling into the last
// Gentleman-Sande stage.
type nttTable struct {
	psi            []T // forward twiddles, bit-reversed order, Montgomery form
	psiInv         []T // inverse twiddles, bit-reversed order, Montgomery form
	nInv           T   // N^{-1} mod q, Montgomery form
	nInvPsiInvHalf T   // N^{-1} * psi^{-N/2} mod q, Montgomery form
}

// Chain is the shared, immutable backbone of a modulus-switching chain: the
// full list of RNS moduli from the top level down to the base, plus their
// precomputed reduction and (where applicable) NTT parameters. Per §9's
// design note, the "PolyContext.next" relation of the spec is realized here
// as index arithmetic over one flat slice instead of an owning linked
// structure, which needs no reference counting and supports trivial
// structural equality.
type Chain struct {
	n      int
	moduli []T
	mods   []*Modulus
	ntt    []*nttTable // nil entry if that modulus is not NTT-friendly for N
}

// Context is a lightweight view (N, level) into a shared Chain: the moduli
// in use are chain.moduli[0:level+1]. Contexts areValue types and safe to
// copy/share: all of the heavy precomputation lives in the immutable Chain.
type Context struct {
	chain *Chain
	level int
}

// NewChain builds a new modulus chain for ring degree N (a power of two)
// over the given moduli, ordered from the base modulus (index 0) up to the
// top modulus (last index), validating the invariants of §3: N a power of
// two, each modulus prime or a power of two, pairwise distinct, at most one
// power-of-two modulus, and each <= 2^62-1.
func NewChain(n int, moduli []T) (*Chain, error) {
	if !IsPowerOfTwo(uint64(n)) {
		return nil, fmt.Errorf("%w: N=%d", ErrInvalidDegree, n)
	}
	if len(moduli) == 0 {
		return nil, ErrEmptyModulus
	}

	seen := make(map[T]bool, len(moduli))
	pow2Count := 0
	for _, q := range moduli {
		if q > T(1)<<maxModulusBits-1 {
			return nil, fmt.Errorf("%w: %d exceeds maximum modulus size", ErrInvalidModulus, q)
		}
		if seen[q] {
			return nil, fmt.Errorf("%w: duplicate modulus %d", ErrInvalidModulus, q)
		}
		seen[q] = true
		if IsPowerOfTwo(q) {
			pow2Count++
		} else if !IsPrime(q) {
			return nil, fmt.Errorf("%w: %d is neither prime nor a power of two", ErrInvalidModulus, q)
		}
	}
	if pow2Count > 1 {
		return nil, fmt.Errorf("%w: at most one power-of-two modulus is allowed", ErrInvalidModulus)
	}

	c := &Chain{
		n:      n,
		moduli: append([]T(nil), moduli...),
		mods:   make([]*Modulus, len(moduli)),
		ntt:    make([]*nttTable, len(moduli)),
	}
	for i, q := range moduli {
		c.mods[i] = NewModulus(q)
		if table, ok := buildNTTTable(n, q, c.mods[i]); ok {
			c.ntt[i] = table
		}
	}
	return c, nil
}

// buildNTTTable computes the forward/inverse twiddle tables for modulus q if
// q is NTT-friendly for degree n (prime and q = 1 mod 2n), else (nil,false).
func buildNTTTable(n int, q T, m *Modulus) (*nttTable, bool) {
	if IsPowerOfTwo(q) || !IsPrime(q) {
		return nil, false
	}
	if q&T(2*n-1) != 1 {
		return nil, false
	}

	g, ok := findPrimitive2NthRoot(q, n)
	if !ok {
		return nil, false
	}

	logN := Log2(uint64(n))
	psi := make([]T, n)
	psiInv := make([]T, n)

	power := (q - 1) / T(2*n)
	gInvBase := InverseMod(g, q)

	psiMont := m.MForm(PowMod(g, power, q))
	psiInvMont := m.MForm(PowMod(gInvBase, power, q))

	psi[0] = m.MForm(1)
	psiInv[0] = m.MForm(1)
	for j := 1; j < n; j++ {
		prevRev := ReverseBits(uint64(j-1), logN)
		nextRev := ReverseBits(uint64(j), logN)
		psi[nextRev] = m.MRed(psi[prevRev], psiMont)
		psiInv[nextRev] = m.MRed(psiInv[prevRev], psiInvMont)
	}

	nInv := m.MForm(PowMod(T(n), q-2, q))
	nInvPsiInvHalf := m.MRed(nInv, psiInv[1])

	return &nttTable{psi: psi, psiInv: psiInv, nInv: nInv, nInvPsiInvHalf: nInvPsiInvHalf}, true
}

// findPrimitive2NthRoot finds the minimal primitive 2n-th root of unity mod
// q by rejection sampling over candidate generators, then scanning
// w, w^3, w^5, ... per §4.3. Variable-time: q, n are public parameters.
func findPrimitive2NthRoot(q T, n int) (T, bool) {
	const maxTrials = 665
	for trial := T(2); trial < maxTrials+2; trial++ {
		g := PowMod(trial, (q-1)/T(2*n), q)
		if g == 0 {
			continue
		}
		if PowMod(g, T(n), q) == q-1 {
			// g is a candidate 2n-th root; find the minimal odd-power root.
			cand := g
			for p := T(3); p < T(2*n); p += 2 {
				if c := PowMod(g, p, q); c < cand {
					cand = c
				}
			}
			return cand, true
		}
	}
	return 0, false
}

// TopContext returns the context using the full chain (level = len(moduli)-1).
func (c *Chain) TopContext() *Context {
	return &Context{chain: c, level: len(c.moduli) - 1}
}

// AtLevel returns the context using chain moduli [0, level].
func (c *Chain) AtLevel(level int) (*Context, error) {
	if level < 0 || level >= len(c.moduli) {
		return nil, fmt.Errorf("%w: level %d out of range [0,%d]", ErrInvalidPolyContext, level, len(c.moduli)-1)
	}
	return &Context{chain: c, level: level}, nil
}

// N returns the ring degree.
func (c *Context) N() int { return c.chain.n }

// Level returns the context's level (moduli count - 1).
func (c *Context) Level() int { return c.level }

// ModuliCount returns the number of RNS moduli at this level (level+1).
func (c *Context) ModuliCount() int { return c.level + 1 }

// Modulus returns the i-th RNS modulus (0 <= i <= Level()).
func (c *Context) Modulus(i int) T { return c.chain.moduli[i] }

// ModulusAt returns the precomputed Modulus helper for RNS row i.
func (c *Context) ModulusAt(i int) *Modulus { return c.chain.mods[i] }

// Next returns the context obtained by dropping the top modulus, and true,
// or (nil, false) if this is already the base context (level 0). This is the
// spec's "next" relation, realized as index arithmetic over the shared Chain
// per the §9 design note.
func (c *Context) Next() (*Context, bool) {
	if c.level == 0 {
		return nil, false
	}
	return &Context{chain: c.chain, level: c.level - 1}, true
}

// IsParentOf reports whether c is reachable from other by following Next
// zero or more times, i.e. c's moduli are a prefix of other's.
func (c *Context) IsParentOf(other *Context) bool {
	return c.chain == other.chain && c.level <= other.level
}

// Equal reports structural equality: same chain and same level.
func (c *Context) Equal(other *Context) bool {
	return other != nil && c.chain == other.chain && c.level == other.level
}

// AllowsNTT reports whether every modulus in use at this level is
// NTT-friendly for N, i.e. whether PolyRq.NTT()/InvNTT() may be called.
func (c *Context) AllowsNTT() bool {
	for i := 0; i <= c.level; i++ {
		if c.chain.ntt[i] == nil {
			return false
		}
	}
	return true
}

// MaxLazyProductAccumulationCount returns the largest L such that
// L*(qMax-1)^2 <= T2.max - qMax, where qMax is the largest modulus in use:
// the number of lazy (unreduced) products that can be accumulated in a
// double-width accumulator before an explicit reduction is required.
func (c *Context) MaxLazyProductAccumulationCount() int {
	var qMax T
	for i := 0; i <= c.level; i++ {
		if c.chain.moduli[i] > qMax {
			qMax = c.chain.moduli[i]
		}
	}
	if qMax < 2 {
		return 1
	}
	// L = floor((2^128 - 1 - qMax) / (qMax-1)^2). The square exceeds 64 bits
	// for any realistic modulus, so this one-off computation goes through
	// math/big.
	return lazyAccumulationBound(qMax)
}
