package ring

import "rlwekernel/codec"

// Serialize packs p's coefficients into bytes, per RNS row, MSB-first at
// ceilLog2(q_i) bits each (minus skipLSBs), per the spec's polynomial wire
// format. Requires Coeff format.
func (p *PolyRq) Serialize(skipLSBs int) ([]byte, error) {
	if err := p.requireFormat(Coeff); err != nil {
		return nil, err
	}
	n := p.N()
	var out []byte
	for lvl := 0; lvl <= p.Level(); lvl++ {
		w := p.ctx.ModulusAt(lvl).CeilLog2()
		rowLen := codec.PackedByteLen(n, w, skipLSBs)
		out = append(out, codec.CoefficientsToBytes(p.Coeffs(lvl), w, skipLSBs, make([]byte, 0, rowLen))...)
	}
	return out, nil
}

// SerializedLen returns the exact byte length Serialize(skipLSBs) will
// produce for a polynomial over ctx.
func SerializedLen(ctx *Context, skipLSBs int) int {
	total := 0
	for lvl := 0; lvl <= ctx.Level(); lvl++ {
		total += codec.PackedByteLen(ctx.N(), ctx.ModulusAt(lvl).CeilLog2(), skipLSBs)
	}
	return total
}

// Deserialize decodes buf (as produced by Serialize with the same skipLSBs)
// into a new Coeff-format polynomial over ctx. Fails with
// *SerializedBufferSizeMismatchError if len(buf) does not match
// SerializedLen(ctx, skipLSBs) exactly; coefficient ranges are not
// re-validated.
func Deserialize(ctx *Context, buf []byte, skipLSBs int) (*PolyRq, error) {
	expected := SerializedLen(ctx, skipLSBs)
	if len(buf) != expected {
		return nil, &SerializedBufferSizeMismatchError{Actual: len(buf), Expected: expected}
	}

	p := NewPoly(ctx, Coeff)
	offset := 0
	n := ctx.N()
	for lvl := 0; lvl <= ctx.Level(); lvl++ {
		w := ctx.ModulusAt(lvl).CeilLog2()
		rowLen := codec.PackedByteLen(n, w, skipLSBs)
		coeffs, err := codec.BytesToCoefficients(buf[offset:offset+rowLen], n, w, skipLSBs)
		if err != nil {
			return nil, err
		}
		copy(p.Coeffs(lvl), coeffs)
		offset += rowLen
	}
	return p, nil
}
