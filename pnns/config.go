package pnns

import (
	"rlwekernel/ring"
	"rlwekernel/rlwe"
)

// DistanceMetric selects how scores relate vectors; only scaled cosine
// similarity (inner products of unit-normalized fixed-point vectors) is
// supported.
type DistanceMetric int

const (
	// CosineSimilarity scores by the inner product of L2-normalized rows.
	CosineSimilarity DistanceMetric = iota
)

// EvaluationKeyGaloisElements returns the union of Galois elements the
// matrix-multiplication pipeline needs for a database of the given
// dimensions: the BSGS baby (-1) and giant (-babyStep) rotations with
// swap-rows, the post-packing +1/+16/+256 ladder when several result
// columns share a SIMD row, and the extract-dense-row tiling rotation. No
// relinearization key is needed: the pipeline multiplies ciphertexts only
// by plaintexts.
func EvaluationKeyGaloisElements(dims MatrixDimensions, bsgs BabyStepGiantStep, scheme *rlwe.Parameters) []uint64 {
	simdCols := scheme.SIMDColumnCount()
	set := map[uint64]bool{
		scheme.GaloisElementRotate(-1):             true,
		scheme.GaloisElementRotate(-bsgs.BabyStep): true,
		scheme.GaloisElementSwapRows():             true,
	}

	if simdCols/dims.RowCount > 1 {
		set[scheme.GaloisElementRotate(1)] = true
		if simdCols > 16 {
			set[scheme.GaloisElementRotate(16)] = true
		}
		if simdCols > 256 {
			set[scheme.GaloisElementRotate(256)] = true
		}
	}

	w := int(ring.NextPowerOfTwo(uint64(dims.ColumnCount)))
	if w != simdCols {
		set[scheme.GaloisElementRotate(w)] = true
	}

	out := make([]uint64, 0, len(set))
	for g := range set {
		out = append(out, g)
	}
	return out
}
