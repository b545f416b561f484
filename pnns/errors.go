package pnns

import (
	"errors"
	"fmt"
)

// Error kinds for the private nearest-neighbor search engine (§7 "PNNS").
var (
	ErrEmptyCiphertextArray     = errors.New("pnns: empty ciphertext array")
	ErrEmptyPlaintextArray      = errors.New("pnns: empty plaintext array")
	ErrEmptyDatabase            = errors.New("pnns: empty database")
	ErrInvalidMatrixDimensions  = errors.New("pnns: invalid matrix dimensions")
	ErrSIMDEncodingNotSupported = errors.New("pnns: matrix does not fit the SIMD slot layout")
	ErrWrongCiphertextCount     = errors.New("pnns: wrong ciphertext count")
	ErrWrongPlaintextCount      = errors.New("pnns: wrong plaintext count")
	ErrWrongMatrixPacking       = errors.New("pnns: wrong matrix packing")
	ErrWrongContextsCount       = errors.New("pnns: wrong number of plaintext-modulus contexts")
	ErrWrongDistanceMetric      = errors.New("pnns: unsupported distance metric")
	ErrWrongEncodingValuesCount = errors.New("pnns: wrong number of values for encoding")
	ErrValidation               = errors.New("pnns: validation error")
)

// WrongCiphertextMatrixCountError reports a query carrying the wrong number
// of per-modulus ciphertext matrices.
type WrongCiphertextMatrixCountError struct {
	Got, Want int
}

func (e *WrongCiphertextMatrixCountError) Error() string {
	return fmt.Sprintf("pnns: query has %d ciphertext matrices, expected %d", e.Got, e.Want)
}

func (e *WrongCiphertextMatrixCountError) Unwrap() error { return ErrWrongContextsCount }
