package ring

import "math/big"

// CRT composition and decomposition between a PolyRq's RNS rows and big.Int
// coefficients, following lattigo's PolyToBigint/SetCoefficientsBigint
// (ring.go): used by the scheme layer for exact basis lifting before a
// ciphertext tensor product and for the t/Q scale-and-round after it. These
// paths run once per multiplication or per decode, never inside the NTT hot
// loop, so math/big's allocation cost is acceptable.

// ModulusBig returns the product of the moduli in use at this level.
func (c *Context) ModulusBig() *big.Int {
	q := big.NewInt(1)
	for i := 0; i <= c.level; i++ {
		q.Mul(q, new(big.Int).SetUint64(c.chain.moduli[i]))
	}
	return q
}

// crtReconstructionConstants returns, per RNS row i, the constant
// (Q/q_i) * ((Q/q_i)^-1 mod q_i) mod Q, so that x = sum_i x_i * c_i mod Q.
func (c *Context) crtReconstructionConstants() ([]*big.Int, *big.Int) {
	q := c.ModulusBig()
	consts := make([]*big.Int, c.level+1)
	for i := 0; i <= c.level; i++ {
		qi := new(big.Int).SetUint64(c.chain.moduli[i])
		mi := new(big.Int).Div(q, qi)
		inv := new(big.Int).ModInverse(mi, qi)
		consts[i] = mi.Mul(mi, inv)
		consts[i].Mod(consts[i], q)
	}
	return consts, q
}

// CoefficientsBigint writes p's Coeff-domain coefficients, CRT-composed into
// [0, Q), into out (which must have length N).
func (p *PolyRq) CoefficientsBigint(out []*big.Int) error {
	if err := p.requireFormat(Coeff); err != nil {
		return err
	}
	consts, q := p.ctx.crtReconstructionConstants()
	tmp := new(big.Int)
	for j := 0; j < p.N(); j++ {
		acc := out[j]
		if acc == nil {
			acc = new(big.Int)
			out[j] = acc
		}
		acc.SetUint64(0)
		for i := 0; i <= p.Level(); i++ {
			tmp.SetUint64(p.At(i, j))
			tmp.Mul(tmp, consts[i])
			acc.Add(acc, tmp)
		}
		acc.Mod(acc, q)
	}
	return nil
}

// CoefficientsBigintCentered is as CoefficientsBigint but maps each composed
// coefficient into the centered range [-Q/2, Q/2).
func (p *PolyRq) CoefficientsBigintCentered(out []*big.Int) error {
	if err := p.CoefficientsBigint(out); err != nil {
		return err
	}
	q := p.ctx.ModulusBig()
	half := new(big.Int).Rsh(new(big.Int).Add(q, big.NewInt(1)), 1)
	for _, c := range out {
		if c.Cmp(half) >= 0 {
			c.Sub(c, q)
		}
	}
	return nil
}

// SetCoefficientsBigint sets p's Coeff-domain coefficients from coeffs,
// reducing each (possibly negative) value into [0, q_i) per RNS row.
func (p *PolyRq) SetCoefficientsBigint(coeffs []*big.Int) error {
	tmp := new(big.Int)
	for i := 0; i <= p.Level(); i++ {
		qi := new(big.Int).SetUint64(p.ctx.Modulus(i))
		row := p.Coeffs(i)
		for j, c := range coeffs {
			tmp.Mod(c, qi)
			row[j] = tmp.Uint64()
		}
	}
	p.format = Coeff
	return nil
}

// LiftCentered maps p (Coeff format) onto the larger context dst.Context(),
// of which p's context must be a prefix: each coefficient is CRT-composed,
// centered modulo p's modulus product, then reduced into every row of dst.
// This is the exact basis extension used before a ciphertext tensor product.
func LiftCentered(p *PolyRq, dst *PolyRq) error {
	if err := p.requireFormat(Coeff); err != nil {
		return err
	}
	if !p.ctx.IsParentOf(dst.ctx) {
		return ErrPolyContextMismatch
	}
	coeffs := make([]*big.Int, p.N())
	if err := p.CoefficientsBigintCentered(coeffs); err != nil {
		return err
	}
	return dst.SetCoefficientsBigint(coeffs)
}
