package rlwe

import "errors"

var (
	errFormatMismatch    = errors.New("rlwe: ciphertext format mismatch")
	errDegreeUnsupported = errors.New("rlwe: unsupported ciphertext degree")

	// ErrNoRelinearizationKey is returned when a relinearization is requested
	// but the evaluation key set carries no relinearization key.
	ErrNoRelinearizationKey = errors.New("rlwe: evaluation key set has no relinearization key")

	// ErrNoGaloisKey is returned when an automorphism is requested for a
	// Galois element the evaluation key set has no key for.
	ErrNoGaloisKey = errors.New("rlwe: evaluation key set has no key for the requested Galois element")

	// ErrSIMDUnsupported is returned when batch encoding is requested but the
	// plaintext modulus is not NTT-friendly for the ring degree.
	ErrSIMDUnsupported = errors.New("rlwe: plaintext modulus does not support SIMD encoding")

	// ErrLevelMismatch is returned when an operation requires operands at the
	// top ciphertext level but received switched-down ciphertexts.
	ErrLevelMismatch = errors.New("rlwe: operation requires ciphertexts at the top level")
)
