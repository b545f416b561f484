package pnns

import (
	"sync"

	"rlwekernel/ring"
	"rlwekernel/rlwe"
)

// Engine runs the server-side encrypted matrix products: the
// baby-step/giant-step plaintext-matrix times ciphertext-vector kernel,
// dense-row extraction, and post-multiplication packing.
type Engine struct {
	scheme *rlwe.Parameters
	ev     *rlwe.Evaluator
	be     *rlwe.BatchEncoder
	enc    *rlwe.Encoder
}

// NewEngine returns an Engine evaluating under eks.
func NewEngine(scheme *rlwe.Parameters, eks *rlwe.EvaluationKeySet) (*Engine, error) {
	be, err := rlwe.NewBatchEncoder(scheme)
	if err != nil {
		return nil, err
	}
	return &Engine{
		scheme: scheme,
		ev:     rlwe.NewEvaluator(scheme, eks),
		be:     be,
		enc:    rlwe.NewEncoder(scheme),
	}, nil
}

// MulTransposeVector multiplies a diagonal-packed plaintext matrix by a
// dense-row encrypted vector (tiled across all slots), returning the
// resultCount ciphertexts that hold the product vector, in Eval format.
//
// The giant-step folds are serial (each rotates the previous accumulator);
// the plaintext products inside one giant step are an associative sum.
func (e *Engine) MulTransposeVector(pm *PlaintextMatrix, v *CiphertextMatrix) ([]*rlwe.Ciphertext, error) {
	if pm.Packing.Kind != PackingDiagonal || pm.Packing.BSGS == nil {
		return nil, ErrWrongMatrixPacking
	}
	if v.Packing.Kind != PackingDenseRow {
		return nil, ErrWrongMatrixPacking
	}
	if len(v.Ciphertexts) != 1 {
		return nil, ErrWrongCiphertextCount
	}
	if len(pm.Plaintexts) == 0 {
		return nil, ErrEmptyPlaintextArray
	}

	n := e.scheme.SlotCount()
	bsgs := *pm.Packing.BSGS
	padded := int(ring.NextPowerOfTwo(uint64(pm.Dimensions.ColumnCount)))
	resultCount := ceilDiv(pm.Dimensions.RowCount, n)
	giantCount := ceilDiv(padded, bsgs.BabyStep)
	if len(pm.Plaintexts) != padded*resultCount {
		return nil, ErrWrongPlaintextCount
	}

	// Baby-step rotations of the query vector, each one more -1 rotation.
	babies := make([]*rlwe.Ciphertext, bsgs.BabyStep)
	var err error
	if babies[0], err = e.ev.ToEval(v.Ciphertexts[0]); err != nil {
		return nil, err
	}
	for j := 1; j < bsgs.BabyStep; j++ {
		if babies[j], err = e.ev.RotateColumns(babies[j-1], -1); err != nil {
			return nil, err
		}
	}

	out := make([]*rlwe.Ciphertext, resultCount)
	for r := 0; r < resultCount; r++ {
		var acc *rlwe.Ciphertext
		for g := giantCount - 1; g >= 0; g-- {
			count := bsgs.BabyStep
			if rem := padded - g*bsgs.BabyStep; rem < count {
				count = rem
			}
			var sum *rlwe.Ciphertext
			for b := 0; b < count; b++ {
				pt := pm.Plaintexts[resultCount*(b+g*bsgs.BabyStep)+r]
				if pt == nil {
					continue
				}
				term, err := e.ev.MulPlain(babies[b], pt)
				if err != nil {
					return nil, err
				}
				if sum == nil {
					sum = term
					continue
				}
				if sum, err = e.ev.Add(sum, term); err != nil {
					return nil, err
				}
			}
			if sum == nil {
				if sum, err = e.ev.NewZeroCiphertext(e.scheme.MaxLevel(), ring.Eval); err != nil {
					return nil, err
				}
			}
			if acc == nil {
				acc = sum
				continue
			}
			if acc, err = e.ev.RotateColumns(acc, -bsgs.BabyStep); err != nil {
				return nil, err
			}
			if acc, err = e.ev.Add(acc, sum); err != nil {
				return nil, err
			}
		}
		out[r] = acc
	}
	return out, nil
}

// ExtractDenseRow broadcasts data row `row` of a dense-row ciphertext
// matrix across both SIMD rows of a fresh one-row matrix: mask the row's
// slot window, rotate-and-add to tile the SIMD row, then swap-rows-and-add
// to duplicate into the other half.
func (e *Engine) ExtractDenseRow(cm *CiphertextMatrix, row int) (*CiphertextMatrix, error) {
	if cm.Packing.Kind != PackingDenseRow {
		return nil, ErrWrongMatrixPacking
	}
	if row < 0 || row >= cm.Dimensions.RowCount {
		return nil, ErrValidation
	}

	simdCols := e.scheme.SIMDColumnCount()
	w := int(ring.NextPowerOfTwo(uint64(cm.Dimensions.ColumnCount)))
	rowsPerSimdRow := simdCols / w
	rowsPerCt := 2 * rowsPerSimdRow

	ct := cm.Ciphertexts[row/rowsPerCt]
	local := row % rowsPerCt
	simdRow := local / rowsPerSimdRow
	offset := (local % rowsPerSimdRow) * w

	mask, err := e.windowMask(simdRow, offset, w)
	if err != nil {
		return nil, err
	}
	evalCt, err := e.ev.ToEval(ct)
	if err != nil {
		return nil, err
	}
	acc, err := e.ev.MulPlain(evalCt, mask)
	if err != nil {
		return nil, err
	}

	// Tile the masked window across its SIMD row: simdCols/w - 1 successive
	// rotations by w, each added in.
	rotated := acc
	for k := 1; k < simdCols/w; k++ {
		if rotated, err = e.ev.RotateColumns(rotated, w); err != nil {
			return nil, err
		}
		if acc, err = e.ev.Add(acc, rotated); err != nil {
			return nil, err
		}
	}

	swapped, err := e.ev.SwapRows(acc)
	if err != nil {
		return nil, err
	}
	if acc, err = e.ev.Add(acc, swapped); err != nil {
		return nil, err
	}

	return &CiphertextMatrix{
		Dimensions:  MatrixDimensions{RowCount: 1, ColumnCount: cm.Dimensions.ColumnCount},
		Packing:     Packing{Kind: PackingDenseRow},
		Ciphertexts: []*rlwe.Ciphertext{acc},
	}, nil
}

// windowMask builds the Eval plaintext that is 1 exactly on the w slots at
// (simdRow, offset).
func (e *Engine) windowMask(simdRow, offset, w int) (*rlwe.Plaintext, error) {
	simdCols := e.scheme.SIMDColumnCount()
	slots := make([]uint64, e.scheme.SlotCount())
	for j := 0; j < w; j++ {
		slots[simdRow*simdCols+offset+j] = 1
	}
	coeffs, err := e.be.Encode(slots)
	if err != nil {
		return nil, err
	}
	pt, err := e.enc.EncodeCoefficients(coeffs)
	if err != nil {
		return nil, err
	}
	if err := pt.Value.NTT(); err != nil {
		return nil, err
	}
	return pt, nil
}

// MulTransposeMatrix multiplies a diagonal-packed plaintext matrix (m x k)
// by a dense-row encrypted query matrix (n x k), producing the dense-column
// packed m x n score matrix: per query row, extract-dense-row then the BSGS
// product; the per-row outputs are post-packed into shared ciphertexts.
// Per-row products are independent; outputs land in statically assigned
// positions.
func (e *Engine) MulTransposeMatrix(pm *PlaintextMatrix, qm *CiphertextMatrix) (*CiphertextMatrix, error) {
	if qm.Dimensions.ColumnCount != pm.Dimensions.ColumnCount {
		return nil, ErrValidation
	}
	n := qm.Dimensions.RowCount
	m := pm.Dimensions.RowCount
	if m > e.scheme.SIMDColumnCount() {
		// Post-packing interleaves whole result vectors within a SIMD row;
		// taller matrices would need one output ciphertext per query block.
		return nil, ErrSIMDEncodingNotSupported
	}

	// Per-row products are independent; each worker fills its statically
	// assigned slot so the packed output order follows the query order.
	perQuery := make([]*rlwe.Ciphertext, n)
	errs := make([]error, n)
	var wg sync.WaitGroup
	for q := 0; q < n; q++ {
		wg.Add(1)
		go func(q int) {
			defer wg.Done()
			extracted, err := e.ExtractDenseRow(qm, q)
			if err != nil {
				errs[q] = err
				return
			}
			res, err := e.MulTransposeVector(pm, extracted)
			if err != nil {
				errs[q] = err
				return
			}
			perQuery[q] = res[0]
		}(q)
	}
	wg.Wait()
	for _, err := range errs {
		if err != nil {
			return nil, err
		}
	}

	packed, err := e.postPack(perQuery, m)
	if err != nil {
		return nil, err
	}
	return &CiphertextMatrix{
		Dimensions:  MatrixDimensions{RowCount: m, ColumnCount: n},
		Packing:     Packing{Kind: PackingDenseColumn},
		Ciphertexts: packed,
	}, nil
}

// postPack fuses per-query result vectors (each occupying slots [0, m) of
// SIMD row 0) into dense-column ciphertexts: columnsPerSimdRow results per
// SIMD row via positive rotations, the second SIMD row filled through
// swap-rows.
func (e *Engine) postPack(perQuery []*rlwe.Ciphertext, m int) ([]*rlwe.Ciphertext, error) {
	simdCols := e.scheme.SIMDColumnCount()
	colsPerRow := simdCols / m
	perCt := 2 * colsPerRow

	var out []*rlwe.Ciphertext
	for base := 0; base < len(perQuery); base += perCt {
		half := func(start int) (*rlwe.Ciphertext, error) {
			var acc *rlwe.Ciphertext
			for j := 0; j < colsPerRow && start+j < len(perQuery); j++ {
				ct := perQuery[start+j]
				var err error
				if j > 0 {
					if ct, err = e.rotateBySteps(ct, j*m); err != nil {
						return nil, err
					}
				}
				if acc == nil {
					acc = ct
					continue
				}
				if acc, err = e.ev.Add(acc, ct); err != nil {
					return nil, err
				}
			}
			return acc, nil
		}

		acc, err := half(base)
		if err != nil {
			return nil, err
		}
		if base+colsPerRow < len(perQuery) {
			upper, err := half(base + colsPerRow)
			if err != nil {
				return nil, err
			}
			if upper, err = e.ev.SwapRows(upper); err != nil {
				return nil, err
			}
			if acc, err = e.ev.Add(acc, upper); err != nil {
				return nil, err
			}
		}
		out = append(out, acc)
	}
	return out, nil
}

// rotateBySteps rotates by a positive step count composed greedily from the
// +256/+16/+1 rotation keys the post-packing configuration provides.
func (e *Engine) rotateBySteps(ct *rlwe.Ciphertext, steps int) (*rlwe.Ciphertext, error) {
	simdCols := e.scheme.SIMDColumnCount()
	var err error
	for _, unit := range []int{256, 16, 1} {
		if unit > 1 && simdCols <= unit {
			continue
		}
		for steps >= unit {
			if ct, err = e.ev.RotateColumns(ct, unit); err != nil {
				return nil, err
			}
			steps -= unit
		}
	}
	return ct, nil
}

// ToCoeffMatrix converts every ciphertext of a matrix to canonical Coeff
// format (the wire form).
func (e *Engine) ToCoeffMatrix(cm *CiphertextMatrix) (*CiphertextMatrix, error) {
	out := &CiphertextMatrix{
		Dimensions:  cm.Dimensions,
		Packing:     cm.Packing,
		Ciphertexts: make([]*rlwe.Ciphertext, len(cm.Ciphertexts)),
	}
	var err error
	for i, ct := range cm.Ciphertexts {
		if out.Ciphertexts[i], err = e.ev.ToCoeff(ct); err != nil {
			return nil, err
		}
	}
	return out, nil
}
