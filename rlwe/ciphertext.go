// Package rlwe implements the RLWE ciphertext algebra the MulPir, keyword-PIR,
// and PNNS engines are built from: encryption/decryption, RNS gadget
// decomposition, relinearization, and Galois-automorphism key switching.
// Grounded on lattigo's core/rlwe package (Ciphertext/Element,
// GadgetCiphertext, KeyGenerator, Evaluator) but simplified to a single
// (Q-only) RNS modulus chain with no auxiliary P-modulus raising, per the
// scope decision recorded in DESIGN.md.
package rlwe

import "rlwekernel/ring"

// Ciphertext is an RLWE ciphertext: a degree-d vector of polynomials
// (c0, c1, ..., cd) over a shared ring context, all in the same Format.
// Mirrors the teacher's Ciphertext/Element[ring.Poly] shape, flattened since
// this kernel has no scale/metadata concerns beyond the format tag already
// carried by ring.PolyRq.
type Ciphertext struct {
	Value []*ring.PolyRq
}

// NewCiphertext allocates a zero ciphertext of the given degree (1 for a
// fresh encryption or after relinearization, 2 for a ciphertext-ciphertext
// product before relinearization) over ctx in format.
func NewCiphertext(ctx *ring.Context, degree int, format ring.Format) *Ciphertext {
	v := make([]*ring.PolyRq, degree+1)
	for i := range v {
		v[i] = ring.NewPoly(ctx, format)
	}
	return &Ciphertext{Value: v}
}

// Degree returns the ciphertext's degree (len(Value)-1).
func (ct *Ciphertext) Degree() int { return len(ct.Value) - 1 }

// Level returns the ciphertext's RNS level.
func (ct *Ciphertext) Level() int { return ct.Value[0].Level() }

// Context returns the ciphertext's ring context.
func (ct *Ciphertext) Context() *ring.Context { return ct.Value[0].Context() }

// Format returns the ciphertext's format tag.
func (ct *Ciphertext) Format() ring.Format { return ct.Value[0].Format() }

// CopyNew returns a deep copy of ct.
func (ct *Ciphertext) CopyNew() *Ciphertext {
	v := make([]*ring.PolyRq, len(ct.Value))
	for i, p := range ct.Value {
		v[i] = p.Clone()
	}
	return &Ciphertext{Value: v}
}

// Serialize packs every component through the polynomial wire format
// (per-modulus MSB-first bit-packing). The ciphertext must be in Coeff
// format, the form queries and responses travel in.
func (ct *Ciphertext) Serialize() ([]byte, error) {
	var out []byte
	for _, p := range ct.Value {
		buf, err := p.Serialize(0)
		if err != nil {
			return nil, err
		}
		out = append(out, buf...)
	}
	return out, nil
}

// DeserializeCiphertext decodes a degree-degree Coeff ciphertext over ctx
// from buf, the inverse of Serialize.
func DeserializeCiphertext(ctx *ring.Context, degree int, buf []byte) (*Ciphertext, error) {
	per := ring.SerializedLen(ctx, 0)
	if len(buf) != per*(degree+1) {
		return nil, &ring.SerializedBufferSizeMismatchError{Actual: len(buf), Expected: per * (degree + 1)}
	}
	v := make([]*ring.PolyRq, degree+1)
	for i := range v {
		p, err := ring.Deserialize(ctx, buf[i*per:(i+1)*per], 0)
		if err != nil {
			return nil, err
		}
		v[i] = p
	}
	return &Ciphertext{Value: v}, nil
}

// Plaintext is a plaintext polynomial, carried as a bare PolyRq: the kernel
// has no separate scale/encoding metadata to track beyond format.
type Plaintext struct {
	Value *ring.PolyRq
}

// NewPlaintext allocates a zero plaintext over ctx in format.
func NewPlaintext(ctx *ring.Context, format ring.Format) *Plaintext {
	return &Plaintext{Value: ring.NewPoly(ctx, format)}
}
