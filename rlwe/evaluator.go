package rlwe

import (
	"math/big"

	"rlwekernel/ring"
)

// Evaluator performs homomorphic operations under a fixed parameter set and
// evaluation key set: additions, plaintext and ciphertext multiplications,
// keyed automorphisms, and modulus switching. Grounded on lattigo's
// core/rlwe Evaluator (evaluator.go, evaluator_automorphism.go), with the
// ciphertext-ciphertext tensor product carried out over the parameter set's
// extended RNS basis via exact CRT lifting instead of the teacher's
// approximate fast base conversion.
type Evaluator struct {
	params *Parameters
	eks    *EvaluationKeySet
}

// NewEvaluator returns an Evaluator over params using eks (which may be nil
// for plaintext-only pipelines).
func NewEvaluator(params *Parameters, eks *EvaluationKeySet) *Evaluator {
	return &Evaluator{params: params, eks: eks}
}

// Parameters returns the evaluator's parameter set.
func (ev *Evaluator) Parameters() *Parameters { return ev.params }

// HasGaloisKey reports whether the key set carries a key for galEl.
func (ev *Evaluator) HasGaloisKey(galEl uint64) bool {
	if ev.eks == nil {
		return false
	}
	_, ok := ev.eks.Galois[galEl]
	return ok
}

// NewZeroCiphertext returns a transparent (all-zero) degree-1 ciphertext at
// the given level and format, usable as the neutral element of a running sum.
func (ev *Evaluator) NewZeroCiphertext(level int, format ring.Format) (*Ciphertext, error) {
	ctx, err := ev.params.ContextAtLevel(level)
	if err != nil {
		return nil, err
	}
	return NewCiphertext(ctx, 1, format), nil
}

// Add returns a + b. Operands must share context and format; degrees may
// differ (the longer tail is copied through).
func (ev *Evaluator) Add(a, b *Ciphertext) (*Ciphertext, error) {
	if a.Format() != b.Format() {
		return nil, errFormatMismatch
	}
	lo, hi := a, b
	if a.Degree() > b.Degree() {
		lo, hi = b, a
	}
	out := hi.CopyNew()
	for i := range lo.Value {
		if err := ring.Add(out.Value[i], lo.Value[i], out.Value[i]); err != nil {
			return nil, err
		}
	}
	return out, nil
}

// Sub returns a - b under the same contract as Add.
func (ev *Evaluator) Sub(a, b *Ciphertext) (*Ciphertext, error) {
	negB := b.CopyNew()
	for i := range negB.Value {
		if err := ring.Neg(negB.Value[i], negB.Value[i]); err != nil {
			return nil, err
		}
	}
	return ev.Add(a, negB)
}

// MulPlain returns ct * pt, both in Eval format. The plaintext is unscaled
// (raw message coefficients), so the product keeps the scale-invariant
// encoding.
func (ev *Evaluator) MulPlain(ct *Ciphertext, pt *Plaintext) (*Ciphertext, error) {
	if ct.Format() != ring.Eval || pt.Value.Format() != ring.Eval {
		return nil, errFormatMismatch
	}
	out := NewCiphertext(ct.Context(), ct.Degree(), ring.Eval)
	for i := range ct.Value {
		if err := ring.MulCoeffwise(ct.Value[i], pt.Value, out.Value[i]); err != nil {
			return nil, err
		}
	}
	return out, nil
}

// Mul returns the degree-2 tensor product of two degree-1 ciphertexts in
// Eval format at the top ciphertext level. Each operand is lifted exactly
// into the extended basis, tensored there, and the result scaled by t/Q with
// rounding back into the ciphertext basis.
func (ev *Evaluator) Mul(a, b *Ciphertext) (*Ciphertext, error) {
	if a.Degree() != 1 || b.Degree() != 1 {
		return nil, errDegreeUnsupported
	}
	if a.Format() != ring.Eval || b.Format() != ring.Eval {
		return nil, errFormatMismatch
	}
	if a.Level() != ev.params.MaxLevel() || b.Level() != ev.params.MaxLevel() {
		return nil, ErrLevelMismatch
	}

	mulCtx := ev.params.mulContext()
	lift := func(p *ring.PolyRq) (*ring.PolyRq, error) {
		coeff, err := p.InvNTTNew()
		if err != nil {
			return nil, err
		}
		wide := ring.NewPoly(mulCtx, ring.Coeff)
		if err := ring.LiftCentered(coeff, wide); err != nil {
			return nil, err
		}
		if err := wide.NTT(); err != nil {
			return nil, err
		}
		return wide, nil
	}

	a0, err := lift(a.Value[0])
	if err != nil {
		return nil, err
	}
	a1, err := lift(a.Value[1])
	if err != nil {
		return nil, err
	}
	b0, err := lift(b.Value[0])
	if err != nil {
		return nil, err
	}
	b1, err := lift(b.Value[1])
	if err != nil {
		return nil, err
	}

	d0 := ring.NewPoly(mulCtx, ring.Eval)
	d1 := ring.NewPoly(mulCtx, ring.Eval)
	d2 := ring.NewPoly(mulCtx, ring.Eval)
	tmp := ring.NewPoly(mulCtx, ring.Eval)

	if err := ring.MulCoeffwise(a0, b0, d0); err != nil {
		return nil, err
	}
	if err := ring.MulCoeffwise(a0, b1, d1); err != nil {
		return nil, err
	}
	if err := ring.MulCoeffwise(a1, b0, tmp); err != nil {
		return nil, err
	}
	if err := ring.Add(d1, tmp, d1); err != nil {
		return nil, err
	}
	if err := ring.MulCoeffwise(a1, b1, d2); err != nil {
		return nil, err
	}

	out := make([]*ring.PolyRq, 3)
	for i, d := range []*ring.PolyRq{d0, d1, d2} {
		if err := d.InvNTT(); err != nil {
			return nil, err
		}
		scaled, err := ev.scaleRoundToQ(d)
		if err != nil {
			return nil, err
		}
		if err := scaled.NTT(); err != nil {
			return nil, err
		}
		out[i] = scaled
	}
	return &Ciphertext{Value: out}, nil
}

// scaleRoundToQ maps a Coeff polynomial over the extended basis down to the
// top ciphertext context, setting each coefficient to round(t * x / Q) for
// the centered composed value x.
func (ev *Evaluator) scaleRoundToQ(d *ring.PolyRq) (*ring.PolyRq, error) {
	n := d.N()
	coeffs := make([]*big.Int, n)
	if err := d.CoefficientsBigintCentered(coeffs); err != nil {
		return nil, err
	}
	ctxQ := ev.params.Context()
	q := ctxQ.ModulusBig()
	t := new(big.Int).SetUint64(ev.params.t)

	num := new(big.Int)
	for j := 0; j < n; j++ {
		num.Mul(coeffs[j], t)
		roundDiv(coeffs[j], num, q)
	}
	out := ring.NewPoly(ctxQ, ring.Coeff)
	if err := out.SetCoefficientsBigint(coeffs); err != nil {
		return nil, err
	}
	return out, nil
}

// Relinearize folds a degree-2 ciphertext back to degree 1 using the
// relinearization key. A degree-1 input is returned as a copy.
func (ev *Evaluator) Relinearize(ct *Ciphertext) (*Ciphertext, error) {
	switch ct.Degree() {
	case 1:
		return ct.CopyNew(), nil
	case 2:
	default:
		return nil, errDegreeUnsupported
	}
	if ev.eks == nil || ev.eks.Relinearization == nil {
		return nil, ErrNoRelinearizationKey
	}
	if ct.Format() != ring.Eval {
		return nil, errFormatMismatch
	}

	d2, err := ct.Value[2].InvNTTNew()
	if err != nil {
		return nil, err
	}
	gp, err := gadgetProduct(d2, ev.eks.Relinearization.GadgetCiphertext)
	if err != nil {
		return nil, err
	}

	out := NewCiphertext(ct.Context(), 1, ring.Eval)
	if err := ring.Add(ct.Value[0], gp.Value[0], out.Value[0]); err != nil {
		return nil, err
	}
	if err := ring.Add(ct.Value[1], gp.Value[1], out.Value[1]); err != nil {
		return nil, err
	}
	return out, nil
}

// MulRelin returns Relinearize(Mul(a, b)).
func (ev *Evaluator) MulRelin(a, b *Ciphertext) (*Ciphertext, error) {
	d, err := ev.Mul(a, b)
	if err != nil {
		return nil, err
	}
	return ev.Relinearize(d)
}

// ApplyGalois applies x -> x^galEl to a degree-1 ciphertext and key-switches
// the result back onto the original secret, preserving the input's format.
func (ev *Evaluator) ApplyGalois(ct *Ciphertext, galEl uint64) (*Ciphertext, error) {
	if ct.Degree() != 1 {
		return nil, errDegreeUnsupported
	}
	if ev.eks == nil {
		return nil, ErrNoGaloisKey
	}
	key, ok := ev.eks.Galois[galEl]
	if !ok {
		return nil, ErrNoGaloisKey
	}

	ctx := ct.Context()
	format := ct.Format()
	c0 := ring.NewPoly(ctx, format)
	c1 := ring.NewPoly(ctx, format)
	var err error
	if format == ring.Eval {
		err = ring.AutomorphismEval(ct.Value[0], galEl, c0)
		if err == nil {
			err = ring.AutomorphismEval(ct.Value[1], galEl, c1)
		}
	} else {
		err = ring.AutomorphismCoeff(ct.Value[0], galEl, c0)
		if err == nil {
			err = ring.AutomorphismCoeff(ct.Value[1], galEl, c1)
		}
	}
	if err != nil {
		return nil, err
	}

	c1Coeff := c1
	if format == ring.Eval {
		if c1Coeff, err = c1.InvNTTNew(); err != nil {
			return nil, err
		}
	}
	gp, err := gadgetProduct(c1Coeff, key.GadgetCiphertext)
	if err != nil {
		return nil, err
	}
	if format == ring.Coeff {
		if err := gp.Value[0].InvNTT(); err != nil {
			return nil, err
		}
		if err := gp.Value[1].InvNTT(); err != nil {
			return nil, err
		}
	}

	out := NewCiphertext(ctx, 1, format)
	if err := ring.Add(c0, gp.Value[0], out.Value[0]); err != nil {
		return nil, err
	}
	if err := out.Value[1].CopyFrom(gp.Value[1]); err != nil {
		return nil, err
	}
	return out, nil
}

// RotateColumns rotates the SIMD columns of ct by step (new slot i takes the
// value of old slot i-step within each row).
func (ev *Evaluator) RotateColumns(ct *Ciphertext, step int) (*Ciphertext, error) {
	return ev.ApplyGalois(ct, ev.params.GaloisElementRotate(step))
}

// SwapRows swaps the two SIMD rows of ct.
func (ev *Evaluator) SwapRows(ct *Ciphertext) (*Ciphertext, error) {
	return ev.ApplyGalois(ct, ev.params.GaloisElementSwapRows())
}

// MultiplyPowerOfX returns ct * x^power; components must be in Coeff format.
func (ev *Evaluator) MultiplyPowerOfX(ct *Ciphertext, power int) (*Ciphertext, error) {
	out := NewCiphertext(ct.Context(), ct.Degree(), ring.Coeff)
	for i := range ct.Value {
		if err := ring.MultiplyPowerOfX(ct.Value[i], power, out.Value[i]); err != nil {
			return nil, err
		}
	}
	return out, nil
}

// ToEval returns ct with every component in Eval format.
func (ev *Evaluator) ToEval(ct *Ciphertext) (*Ciphertext, error) {
	if ct.Format() == ring.Eval {
		return ct.CopyNew(), nil
	}
	out := ct.CopyNew()
	for _, p := range out.Value {
		if err := p.NTT(); err != nil {
			return nil, err
		}
	}
	return out, nil
}

// ToCoeff returns ct with every component in Coeff format.
func (ev *Evaluator) ToCoeff(ct *Ciphertext) (*Ciphertext, error) {
	if ct.Format() == ring.Coeff {
		return ct.CopyNew(), nil
	}
	out := ct.CopyNew()
	for _, p := range out.Value {
		if err := p.InvNTT(); err != nil {
			return nil, err
		}
	}
	return out, nil
}

// ModSwitchDown drops the top modulus of every component with rounding; the
// result is in Coeff format one level down.
func (ev *Evaluator) ModSwitchDown(ct *Ciphertext) (*Ciphertext, error) {
	coeffCt, err := ev.ToCoeff(ct)
	if err != nil {
		return nil, err
	}
	out := &Ciphertext{Value: make([]*ring.PolyRq, len(coeffCt.Value))}
	for i, p := range coeffCt.Value {
		if out.Value[i], err = ring.DivideAndRoundQLast(p); err != nil {
			return nil, err
		}
	}
	return out, nil
}

// ModSwitchDownToSingle switches ct all the way down to the base modulus,
// returning a Coeff-format ciphertext at level 0 (the form responses are
// serialized in).
func (ev *Evaluator) ModSwitchDownToSingle(ct *Ciphertext) (*Ciphertext, error) {
	out, err := ev.ToCoeff(ct)
	if err != nil {
		return nil, err
	}
	for out.Level() > 0 {
		if out, err = ev.ModSwitchDown(out); err != nil {
			return nil, err
		}
	}
	return out, nil
}
