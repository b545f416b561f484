package ring

// NTT forward/inverse transforms, ported from lattigo's Harvey
// radix-2 decimation-in-time butterfly (ring/ntt.go): lazy reduction delays
// the full Barrett fold until the end of each pass, using Montgomery
// multiplication (MRed) for the twiddle-factor product so the accumulator
// bound never needs more than "subtract 2q if exceeded" between stages.

// forwardButterfly computes X,Y = U + V*psi, U + 2q - V*psi (mod up to 2q).
func forwardButterfly(u, v, psi T, m *Modulus) (x, y T) {
	q := m.Value
	if u > 2*q {
		u -= 2 * q
	}
	vp := m.MRedLazy(v, psi)
	x = u + vp
	y = u + 2*q - vp
	return
}

// inverseButterfly computes X,Y = U+V, (U+2q-V)*psiInv (mod up to 2q).
func inverseButterfly(u, v, psiInv T, m *Modulus) (x, y T) {
	q := m.Value
	x = u + v
	if x > 2*q {
		x -= 2 * q
	}
	y = m.MRedLazy(u+2*q-v, psiInv)
	return
}

// nttRow runs the forward NTT on a single RNS row in place.
func nttRow(coeffs []T, n int, table *nttTable, m *Modulus) {
	t := n >> 1
	psi := table.psi

	for j := 0; j < t; j++ {
		coeffs[j], coeffs[j+t] = forwardButterfly(coeffs[j], coeffs[j+t], psi[1], m)
	}

	for mm := 2; mm < n; mm <<= 1 {
		t >>= 1
		for i := 0; i < mm; i++ {
			j1 := (i * t) << 1
			f := psi[mm+i]
			for j := j1; j < j1+t; j++ {
				coeffs[j], coeffs[j+t] = forwardButterfly(coeffs[j], coeffs[j+t], f, m)
			}
		}
	}

	for i := range coeffs {
		coeffs[i] = m.BredAdd(coeffs[i])
	}
}

// invNTTRow runs the inverse NTT on a single RNS row in place: the
// Gentleman-Sande stages from n/2 groups down to 2, then the single-group
// final stage with the N^{-1} scaling folded into its two constants.
func invNTTRow(coeffs []T, n int, table *nttTable, m *Modulus) {
	psiInv := table.psiInv

	t := 1
	for h := n >> 1; h > 1; h >>= 1 {
		j1 := 0
		for i := 0; i < h; i++ {
			f := psiInv[h+i]
			for j := j1; j < j1+t; j++ {
				coeffs[j], coeffs[j+t] = inverseButterfly(coeffs[j], coeffs[j+t], f, m)
			}
			j1 += t << 1
		}
		t <<= 1
	}

	// Final stage pairs the two halves: the left output picks up N^{-1},
	// the right N^{-1}*psi^{-N/2}; everything then reduces to [0, q).
	nInv := table.nInv
	nInvPsiInvHalf := table.nInvPsiInvHalf
	half := n >> 1
	for j := 0; j < half; j++ {
		x, y := inverseButterflyFinal(coeffs[j], coeffs[j+half], nInv, nInvPsiInvHalf, m)
		coeffs[j], coeffs[j+half] = x, y
	}
	for i := range coeffs {
		coeffs[i] = m.BredAdd(coeffs[i])
	}
}

func inverseButterflyFinal(u, v, nInv, nInvPsiInvHalf T, m *Modulus) (x, y T) {
	q := m.Value
	uv := u + v
	if uv > 2*q {
		uv -= 2 * q
	}
	x = m.MRedLazy(uv, nInv)
	y = m.MRedLazy(u+2*q-v, nInvPsiInvHalf)
	return
}

// NTT transforms p from Coeff to Eval format in place, applying the
// per-modulus kernel to every RNS row. Returns ErrInvalidNTTModulus if any
// in-use modulus is not NTT-friendly.
func (p *PolyRq) NTT() error {
	if err := p.requireFormat(Coeff); err != nil {
		return err
	}
	if !p.ctx.AllowsNTT() {
		return ErrInvalidNTTModulus
	}
	n := p.N()
	for i := 0; i <= p.Level(); i++ {
		nttRow(p.Coeffs(i), n, p.ctx.chain.ntt[i], p.ctx.ModulusAt(i))
	}
	p.format = Eval
	return nil
}

// InvNTT transforms p from Eval to Coeff format in place.
func (p *PolyRq) InvNTT() error {
	if err := p.requireFormat(Eval); err != nil {
		return err
	}
	if !p.ctx.AllowsNTT() {
		return ErrInvalidNTTModulus
	}
	n := p.N()
	for i := 0; i <= p.Level(); i++ {
		invNTTRow(p.Coeffs(i), n, p.ctx.chain.ntt[i], p.ctx.ModulusAt(i))
	}
	p.format = Coeff
	return nil
}

// NTTNew returns a new polynomial holding the forward NTT of p, leaving p
// unchanged.
func (p *PolyRq) NTTNew() (*PolyRq, error) {
	out := p.Clone()
	if err := out.NTT(); err != nil {
		return nil, err
	}
	return out, nil
}

// InvNTTNew returns a new polynomial holding the inverse NTT of p, leaving p
// unchanged.
func (p *PolyRq) InvNTTNew() (*PolyRq, error) {
	out := p.Clone()
	if err := out.InvNTT(); err != nil {
		return nil, err
	}
	return out, nil
}
