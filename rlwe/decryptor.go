package rlwe

import "rlwekernel/ring"

// Decrypt returns the phase polynomial b + c1*s + c2*s^2 + ... of ct under
// sk, in Coeff format at ct's level. Handles any ciphertext degree (products
// before relinearization) by successive powers of the secret, and
// switched-down ciphertexts by truncating the secret to ct's context.
func Decrypt(ct *Ciphertext, sk *SecretKey) (*ring.PolyRq, error) {
	evalCt, err := toEvalCopy(ct)
	if err != nil {
		return nil, err
	}
	ctx := evalCt.Context()
	s, err := sk.EvalAtContext(ctx)
	if err != nil {
		return nil, err
	}

	acc := evalCt.Value[0].Clone()
	power := s.Clone()
	for i := 1; i <= evalCt.Degree(); i++ {
		term := ring.NewPoly(ctx, ring.Eval)
		if err := ring.MulCoeffwise(evalCt.Value[i], power, term); err != nil {
			return nil, err
		}
		if err := ring.Add(acc, term, acc); err != nil {
			return nil, err
		}
		if i < evalCt.Degree() {
			next := ring.NewPoly(ctx, ring.Eval)
			if err := ring.MulCoeffwise(power, s, next); err != nil {
				return nil, err
			}
			power = next
		}
	}
	if err := acc.InvNTT(); err != nil {
		return nil, err
	}
	return acc, nil
}

// DecryptAndDecode decrypts ct and decodes the phase into message
// coefficients mod t.
func DecryptAndDecode(ct *Ciphertext, sk *SecretKey, enc *Encoder) ([]uint64, error) {
	phase, err := Decrypt(ct, sk)
	if err != nil {
		return nil, err
	}
	return enc.DecodePhase(phase)
}

func toEvalCopy(ct *Ciphertext) (*Ciphertext, error) {
	out := ct.CopyNew()
	for _, p := range out.Value {
		if p.Format() == ring.Coeff {
			if err := p.NTT(); err != nil {
				return nil, err
			}
		}
	}
	return out, nil
}
