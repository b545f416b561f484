package mulpir

import (
	"rlwekernel/codec"
	"rlwekernel/rlwe"
)

// ProcessedDatabase is the server-side representation of a PIR database: a
// flat list of Eval-format plaintexts per chunk, padded to the dimension
// product and reordered for sequential access during response computation.
// All-zero blocks are stored as nil and skipped as a multiplication-by-zero
// short-circuit.
type ProcessedDatabase struct {
	Param *Parameter

	// Plaintexts holds ChunkCount * PaddedPerChunk entries; within a chunk,
	// index col*dims[0]+row addresses the plaintext at first-dimension
	// coordinate row, remaining-coordinate col.
	Plaintexts []*rlwe.Plaintext

	PaddedPerChunk int
	ChunkCount     int
}

// ProcessDatabase packs entries into plaintexts per the parameter's layout.
// Entries longer than the agreed entry size are rejected; shorter entries
// are zero-padded (their exact length survives only when the parameter
// encodes entry sizes).
func ProcessDatabase(entries [][]byte, param *Parameter, scheme *rlwe.Parameters) (*ProcessedDatabase, error) {
	if len(entries) == 0 {
		return nil, ErrEmptyDatabase
	}
	if len(entries) != param.EntryCount {
		return nil, &InvalidDatabaseEntryCountError{Got: len(entries), Want: param.EntryCount}
	}
	for _, e := range entries {
		if len(e) > param.EntrySizeInBytes {
			return nil, &InvalidDatabaseEntrySizeError{Got: len(e), Max: param.EntrySizeInBytes}
		}
	}

	bpp := scheme.BytesPerPlaintext()
	encSize := param.EncodedEntrySize()
	encoder := rlwe.NewEncoder(scheme)

	var blocks [][]byte
	chunkCount := param.ChunkCount(bpp)
	perChunk := param.PerChunkPlaintextCount(bpp)

	if encSize <= bpp {
		// Pack small entries: entriesPerPlaintext whole entries per block.
		epp := param.EntriesPerPlaintext(bpp)
		blocks = make([][]byte, perChunk)
		for b := range blocks {
			lo := b * epp
			hi := lo + epp
			if hi > len(entries) {
				hi = len(entries)
			}
			block := make([]byte, 0, bpp)
			for _, e := range entries[lo:hi] {
				block = append(block, encodeEntry(e, param)...)
			}
			blocks[b] = block
		}
	} else {
		// Split large entries: entry i contributes one block per chunk.
		blocks = make([][]byte, chunkCount*perChunk)
		for i, e := range entries {
			enc := encodeEntry(e, param)
			for c := 0; c < chunkCount; c++ {
				lo := c * bpp
				hi := lo + bpp
				if lo >= len(enc) {
					continue
				}
				if hi > len(enc) {
					hi = len(enc)
				}
				blocks[c*perChunk+i] = enc[lo:hi]
			}
		}
	}

	padded := product(param.Dimensions)
	db := &ProcessedDatabase{
		Param:          param,
		Plaintexts:     make([]*rlwe.Plaintext, chunkCount*padded),
		PaddedPerChunk: padded,
		ChunkCount:     chunkCount,
	}

	dim0 := param.Dimensions[0]
	rest := padded / dim0
	for c := 0; c < chunkCount; c++ {
		for idx := 0; idx < perChunk; idx++ {
			block := blocks[c*perChunk+idx]
			if allZero(block) {
				continue
			}
			pt, err := encodeBlock(block, encoder)
			if err != nil {
				return nil, err
			}
			// Reorder for sequential access: the response loop walks one
			// remaining-dimension column at a time across the first
			// dimension, so plaintext coordinates (row, col) land at
			// col*dims[0]+row.
			row := idx / rest
			col := idx % rest
			db.Plaintexts[c*padded+col*dim0+row] = pt
		}
	}
	return db, nil
}

// encodeEntry zero-pads e to the encoded entry size, prefixing the varint
// length when the parameter encodes entry sizes.
func encodeEntry(e []byte, param *Parameter) []byte {
	out := make([]byte, 0, param.EncodedEntrySize())
	if param.EncodeEntrySize {
		out = codec.PutUvarint(out, uint64(len(e)))
	}
	out = append(out, e...)
	for len(out) < param.EncodedEntrySize() {
		out = append(out, 0)
	}
	return out
}

// encodeBlock turns one byte block into an Eval-format plaintext.
func encodeBlock(block []byte, encoder *rlwe.Encoder) (*rlwe.Plaintext, error) {
	values, err := encoder.BytesToValues(block)
	if err != nil {
		return nil, err
	}
	pt, err := encoder.EncodeCoefficients(values)
	if err != nil {
		return nil, err
	}
	if err := pt.Value.NTT(); err != nil {
		return nil, err
	}
	return pt, nil
}

func allZero(b []byte) bool {
	for _, v := range b {
		if v != 0 {
			return false
		}
	}
	return true
}

// chunkColumn returns the plaintexts of one remaining-dimension column of a
// chunk: the dims[0] plaintexts multiplied against the first-dimension
// indicator ciphertexts.
func (db *ProcessedDatabase) chunkColumn(chunk, col int) []*rlwe.Plaintext {
	dim0 := db.Param.Dimensions[0]
	lo := chunk*db.PaddedPerChunk + col*dim0
	return db.Plaintexts[lo : lo+dim0]
}
