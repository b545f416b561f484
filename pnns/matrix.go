package pnns

import (
	"io"

	"rlwekernel/ring"
	"rlwekernel/rlwe"
)

// PlaintextMatrix is a packed server-side matrix: Eval-format plaintexts
// ready for ciphertext-plaintext products, plus the logical dimensions and
// packing that give the slots meaning. All-zero plaintexts are stored as
// nil and skipped during evaluation.
type PlaintextMatrix struct {
	Dimensions MatrixDimensions
	Packing    Packing
	Plaintexts []*rlwe.Plaintext
}

// CiphertextMatrix is the encrypted counterpart, one ciphertext per packed
// plaintext.
type CiphertextMatrix struct {
	Dimensions  MatrixDimensions
	Packing     Packing
	Ciphertexts []*rlwe.Ciphertext
}

// NewPlaintextMatrix packs values (row-major, already reduced mod t) into
// plaintexts under the given packing.
func NewPlaintextMatrix(values []uint64, dims MatrixDimensions, packing Packing, scheme *rlwe.Parameters) (*PlaintextMatrix, error) {
	slotArrays, err := packSlots(values, dims, packing, scheme)
	if err != nil {
		return nil, err
	}
	be, err := rlwe.NewBatchEncoder(scheme)
	if err != nil {
		return nil, err
	}
	encoder := rlwe.NewEncoder(scheme)

	pts := make([]*rlwe.Plaintext, len(slotArrays))
	for i, slots := range slotArrays {
		if allZeroSlots(slots) {
			continue
		}
		coeffs, err := be.Encode(slots)
		if err != nil {
			return nil, err
		}
		pt, err := encoder.EncodeCoefficients(coeffs)
		if err != nil {
			return nil, err
		}
		if err := pt.Value.NTT(); err != nil {
			return nil, err
		}
		pts[i] = pt
	}
	return &PlaintextMatrix{Dimensions: dims, Packing: packing, Plaintexts: pts}, nil
}

// EncryptMatrix encrypts values (row-major, reduced mod t) under sk with the
// given packing; the client-side entry point for query matrices.
func EncryptMatrix(values []uint64, dims MatrixDimensions, packing Packing, scheme *rlwe.Parameters, sk *rlwe.SecretKey, rand io.Reader) (*CiphertextMatrix, error) {
	slotArrays, err := packSlots(values, dims, packing, scheme)
	if err != nil {
		return nil, err
	}
	be, err := rlwe.NewBatchEncoder(scheme)
	if err != nil {
		return nil, err
	}
	encoder := rlwe.NewEncoder(scheme)
	encryptor := rlwe.NewEncryptor(scheme.Context(), rand)

	cts := make([]*rlwe.Ciphertext, len(slotArrays))
	for i, slots := range slotArrays {
		coeffs, err := be.Encode(slots)
		if err != nil {
			return nil, err
		}
		pt, err := encoder.EncodeScaled(coeffs)
		if err != nil {
			return nil, err
		}
		if cts[i], err = encryptor.EncryptNew(sk, pt); err != nil {
			return nil, err
		}
	}
	return &CiphertextMatrix{Dimensions: dims, Packing: packing, Ciphertexts: cts}, nil
}

// DecryptMatrix decrypts a ciphertext matrix back into row-major values mod
// t, reading slots per the matrix's packing.
func DecryptMatrix(cm *CiphertextMatrix, scheme *rlwe.Parameters, sk *rlwe.SecretKey) ([]uint64, error) {
	if len(cm.Ciphertexts) == 0 {
		return nil, ErrEmptyCiphertextArray
	}
	be, err := rlwe.NewBatchEncoder(scheme)
	if err != nil {
		return nil, err
	}
	encoder := rlwe.NewEncoder(scheme)

	slotArrays := make([][]uint64, len(cm.Ciphertexts))
	for i, ct := range cm.Ciphertexts {
		coeffs, err := rlwe.DecryptAndDecode(ct, sk, encoder)
		if err != nil {
			return nil, err
		}
		if slotArrays[i], err = be.Decode(coeffs); err != nil {
			return nil, err
		}
	}
	return unpackSlots(slotArrays, cm.Dimensions, cm.Packing, scheme)
}

// packSlots lays values out as per-plaintext slot arrays.
func packSlots(values []uint64, dims MatrixDimensions, packing Packing, scheme *rlwe.Parameters) ([][]uint64, error) {
	if len(values) != dims.Count() {
		return nil, ErrWrongEncodingValuesCount
	}
	switch packing.Kind {
	case PackingDenseRow:
		return denseRowSlots(values, dims, scheme)
	case PackingDenseColumn:
		return denseColumnSlots(values, dims, scheme)
	case PackingDiagonal:
		if packing.BSGS == nil {
			return nil, ErrWrongMatrixPacking
		}
		return diagonalSlots(values, dims, *packing.BSGS, scheme)
	}
	return nil, ErrWrongMatrixPacking
}

// unpackSlots is the inverse of packSlots for the readable packings.
func unpackSlots(slotArrays [][]uint64, dims MatrixDimensions, packing Packing, scheme *rlwe.Parameters) ([]uint64, error) {
	switch packing.Kind {
	case PackingDenseRow:
		return denseRowRead(slotArrays, dims, scheme)
	case PackingDenseColumn:
		return denseColumnRead(slotArrays, dims, scheme)
	}
	return nil, ErrWrongMatrixPacking
}

// denseRowSlots zero-pads each data row to the next power of two and packs
// rows so none crosses a SIMD-row boundary; trailing tiles of the last
// plaintext repeat the last data row.
func denseRowSlots(values []uint64, dims MatrixDimensions, scheme *rlwe.Parameters) ([][]uint64, error) {
	n := scheme.SlotCount()
	simdCols := scheme.SIMDColumnCount()
	w := int(ring.NextPowerOfTwo(uint64(dims.ColumnCount)))
	if w > simdCols {
		return nil, ErrSIMDEncodingNotSupported
	}
	rowsPerSimdRow := simdCols / w
	rowsPerPt := 2 * rowsPerSimdRow
	ptCount := ceilDiv(dims.RowCount, rowsPerPt)

	out := make([][]uint64, ptCount)
	for p := range out {
		slots := make([]uint64, n)
		for local := 0; local < rowsPerPt; local++ {
			row := p*rowsPerPt + local
			if row >= dims.RowCount {
				row = dims.RowCount - 1
			}
			simdRow := local / rowsPerSimdRow
			offset := (local % rowsPerSimdRow) * w
			for c := 0; c < dims.ColumnCount; c++ {
				slots[simdRow*simdCols+offset+c] = values[row*dims.ColumnCount+c]
			}
		}
		out[p] = slots
	}
	return out, nil
}

// denseRowRead inverts denseRowSlots.
func denseRowRead(slotArrays [][]uint64, dims MatrixDimensions, scheme *rlwe.Parameters) ([]uint64, error) {
	simdCols := scheme.SIMDColumnCount()
	w := int(ring.NextPowerOfTwo(uint64(dims.ColumnCount)))
	rowsPerSimdRow := simdCols / w
	rowsPerPt := 2 * rowsPerSimdRow
	if len(slotArrays) != ceilDiv(dims.RowCount, rowsPerPt) {
		return nil, ErrWrongCiphertextCount
	}

	out := make([]uint64, dims.Count())
	for row := 0; row < dims.RowCount; row++ {
		p := row / rowsPerPt
		local := row % rowsPerPt
		simdRow := local / rowsPerSimdRow
		offset := (local % rowsPerSimdRow) * w
		for c := 0; c < dims.ColumnCount; c++ {
			out[row*dims.ColumnCount+c] = slotArrays[p][simdRow*simdCols+offset+c]
		}
	}
	return out, nil
}

// denseColumnSlots packs whole data columns into SIMD rows where they fit,
// falling back to a contiguous column-major fill for columns longer than a
// SIMD row.
func denseColumnSlots(values []uint64, dims MatrixDimensions, scheme *rlwe.Parameters) ([][]uint64, error) {
	n := scheme.SlotCount()
	simdCols := scheme.SIMDColumnCount()
	rows, cols := dims.RowCount, dims.ColumnCount

	if rows > simdCols {
		total := dims.Count()
		out := make([][]uint64, ceilDiv(total, n))
		for i := range out {
			out[i] = make([]uint64, n)
		}
		for c := 0; c < cols; c++ {
			for r := 0; r < rows; r++ {
				flat := c*rows + r
				out[flat/n][flat%n] = values[r*cols+c]
			}
		}
		return out, nil
	}

	colsPerSimdRow := simdCols / rows
	colsPerPt := 2 * colsPerSimdRow
	out := make([][]uint64, ceilDiv(cols, colsPerPt))
	for i := range out {
		out[i] = make([]uint64, n)
	}
	for c := 0; c < cols; c++ {
		p := c / colsPerPt
		local := c % colsPerPt
		simdRow := local / colsPerSimdRow
		offset := (local % colsPerSimdRow) * rows
		for r := 0; r < rows; r++ {
			out[p][simdRow*simdCols+offset+r] = values[r*cols+c]
		}
	}
	return out, nil
}

// denseColumnRead inverts denseColumnSlots.
func denseColumnRead(slotArrays [][]uint64, dims MatrixDimensions, scheme *rlwe.Parameters) ([]uint64, error) {
	n := scheme.SlotCount()
	simdCols := scheme.SIMDColumnCount()
	rows, cols := dims.RowCount, dims.ColumnCount
	out := make([]uint64, dims.Count())

	if rows > simdCols {
		for c := 0; c < cols; c++ {
			for r := 0; r < rows; r++ {
				flat := c*rows + r
				if flat/n >= len(slotArrays) {
					return nil, ErrWrongCiphertextCount
				}
				out[r*cols+c] = slotArrays[flat/n][flat%n]
			}
		}
		return out, nil
	}

	colsPerSimdRow := simdCols / rows
	colsPerPt := 2 * colsPerSimdRow
	for c := 0; c < cols; c++ {
		p := c / colsPerPt
		if p >= len(slotArrays) {
			return nil, ErrWrongCiphertextCount
		}
		local := c % colsPerPt
		simdRow := local / colsPerSimdRow
		offset := (local % colsPerSimdRow) * rows
		for r := 0; r < rows; r++ {
			out[r*cols+c] = slotArrays[p][simdRow*simdCols+offset+r]
		}
	}
	return out, nil
}

// diagonalSlots stores the matrix along generalized diagonals of the
// padded-column x row array, each chunk pre-rotated by the previous
// babyStep multiple of its diagonal index so evaluation-time rotations
// align, indexed resultCount*diagonal + resultIndex.
func diagonalSlots(values []uint64, dims MatrixDimensions, bsgs BabyStepGiantStep, scheme *rlwe.Parameters) ([][]uint64, error) {
	n := scheme.SlotCount()
	simdCols := scheme.SIMDColumnCount()
	rows, cols := dims.RowCount, dims.ColumnCount
	padded := int(ring.NextPowerOfTwo(uint64(cols)))
	if padded > simdCols {
		return nil, ErrSIMDEncodingNotSupported
	}

	resultCount := ceilDiv(rows, n)
	out := make([][]uint64, padded*resultCount)
	for i := 0; i < padded; i++ {
		shift := int(previousMultiple(uint64(i), uint64(bsgs.BabyStep)))
		for r := 0; r < resultCount; r++ {
			slots := make([]uint64, n)
			for s := 0; s < 2; s++ {
				for c := 0; c < simdCols; c++ {
					c0 := ((c-shift)%simdCols + simdCols) % simdCols
					row := r*n + s*simdCols + c0
					col := (c0%padded + i) % padded
					if row < rows && col < cols {
						slots[s*simdCols+c] = values[row*cols+col]
					}
				}
			}
			out[resultCount*i+r] = slots
		}
	}
	return out, nil
}

func allZeroSlots(slots []uint64) bool {
	for _, v := range slots {
		if v != 0 {
			return false
		}
	}
	return true
}

func ceilDiv(a, b int) int {
	return (a + b - 1) / b
}

func previousMultiple(x, step uint64) uint64 {
	if step == 0 {
		return x
	}
	return x / step * step
}
