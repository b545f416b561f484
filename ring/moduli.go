package ring

// DivideAndRoundQLast drops the top RNS modulus of p, rounding the
// remaining coefficients per the spec's divide-and-round-last construction
// (used by modulus switching in the MulPir/PNNS response pipelines):
// q = the top modulus, h = q>>1, d = (row_{L-1} + h) mod q; for each
// remaining modulus q_i, new_coeff = ((coeff + (h mod q_i)) - (d mod q_i)) *
// (q^-1 mod q_i) mod q_i. Requires Coeff format and a non-base context.
func DivideAndRoundQLast(p *PolyRq) (*PolyRq, error) {
	if err := p.requireFormat(Coeff); err != nil {
		return nil, err
	}
	next, ok := p.ctx.Next()
	if !ok {
		return nil, ErrInvalidPolyContext
	}

	n := p.N()
	q := p.ctx.Modulus(p.Level())
	h := q >> 1

	d := make([]T, n)
	top := p.Coeffs(p.Level())
	for j := 0; j < n; j++ {
		d[j] = AddMod(top[j], h, q)
	}

	out := NewPoly(next, Coeff)
	for i := 0; i <= next.Level(); i++ {
		qi := next.Modulus(i)
		qInv := InverseMod(q%qi, qi)
		hModQi := h % qi
		src := p.Coeffs(i)
		dst := out.Coeffs(i)
		for j := 0; j < n; j++ {
			t := AddMod(src[j], hModQi, qi)
			t = SubMod(t, d[j]%qi, qi)
			dst[j] = mulModSlow(t, qInv, qi)
		}
	}
	return out, nil
}
