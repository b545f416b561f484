// Package pnns implements the private nearest-neighbor search
// matrix-multiplication engine: SIMD matrix packings (dense-row,
// dense-column, diagonal), the baby-step/giant-step plaintext-matrix times
// encrypted-vector product, dense-row extraction, post-multiplication
// packing, plaintext-CRT response composition, and the fixed-point cosine
// similarity pipeline.
package pnns

import (
	"fmt"

	"rlwekernel/ring"
)

// MatrixDimensions is the logical shape of a packed matrix.
type MatrixDimensions struct {
	RowCount, ColumnCount int
}

// NewMatrixDimensions validates that both extents are positive.
func NewMatrixDimensions(rowCount, columnCount int) (MatrixDimensions, error) {
	if rowCount < 1 || columnCount < 1 {
		return MatrixDimensions{}, fmt.Errorf("%w: %dx%d", ErrInvalidMatrixDimensions, rowCount, columnCount)
	}
	return MatrixDimensions{RowCount: rowCount, ColumnCount: columnCount}, nil
}

// Count returns rowCount * columnCount.
func (d MatrixDimensions) Count() int { return d.RowCount * d.ColumnCount }

// BabyStepGiantStep factors a dimension-D rotation sum into babyStep
// contiguous rotations and giantStep strided ones, so an encrypted
// matrix-vector product costs O(sqrt(D)) Galois rotations instead of O(D).
// Invariant: BabyStep * GiantStep >= nextPowerOfTwo(VectorDimension) and
// BabyStep >= GiantStep (normalized by swapping at construction).
type BabyStepGiantStep struct {
	VectorDimension int
	BabyStep        int
	GiantStep       int
}

// NewBabyStepGiantStep returns the balanced factorization for a
// vectorDimension-length product.
func NewBabyStepGiantStep(vectorDimension int) (BabyStepGiantStep, error) {
	if vectorDimension < 1 {
		return BabyStepGiantStep{}, fmt.Errorf("%w: vector dimension %d", ErrInvalidMatrixDimensions, vectorDimension)
	}
	padded := int(ring.NextPowerOfTwo(uint64(vectorDimension)))
	logD := ring.CeilLog2(uint64(padded))
	baby := 1 << uint((logD+1)/2)
	giant := padded / baby
	return NewBabyStepGiantStepExplicit(vectorDimension, baby, giant)
}

// NewBabyStepGiantStepExplicit builds the factorization from caller-chosen
// steps, swapping so the baby step dominates and validating coverage.
func NewBabyStepGiantStepExplicit(vectorDimension, babyStep, giantStep int) (BabyStepGiantStep, error) {
	if babyStep < giantStep {
		babyStep, giantStep = giantStep, babyStep
	}
	padded := int(ring.NextPowerOfTwo(uint64(vectorDimension)))
	if babyStep < 1 || babyStep*giantStep < padded {
		return BabyStepGiantStep{}, fmt.Errorf("%w: baby step %d, giant step %d cover less than %d", ErrInvalidMatrixDimensions, babyStep, giantStep, padded)
	}
	return BabyStepGiantStep{VectorDimension: vectorDimension, BabyStep: babyStep, GiantStep: giantStep}, nil
}

// PackingKind selects how matrix values map onto SIMD slots.
type PackingKind int

const (
	// PackingDenseRow lays rows out contiguously, each zero-padded to the
	// next power of two; a one-row matrix tiles its row across all slots.
	PackingDenseRow PackingKind = iota
	// PackingDenseColumn lays whole columns into SIMD rows.
	PackingDenseColumn
	// PackingDiagonal stores generalized diagonals pre-rotated for the
	// baby-step/giant-step product.
	PackingDiagonal
)

// Packing couples a kind with its BSGS factorization (diagonal only).
type Packing struct {
	Kind PackingKind
	BSGS *BabyStepGiantStep
}

func (p Packing) String() string {
	switch p.Kind {
	case PackingDenseRow:
		return "denseRow"
	case PackingDenseColumn:
		return "denseColumn"
	case PackingDiagonal:
		return fmt.Sprintf("diagonal(bsgs=%d/%d)", p.BSGS.BabyStep, p.BSGS.GiantStep)
	}
	return "unknown"
}
