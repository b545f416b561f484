// Package mulpir implements the MulPir index-PIR engine: parameter
// synthesis, database packing, compressed-query expansion via Galois
// automorphisms, the multi-dimensional ciphertext lookup with
// relinearization and modulus switching, and response decoding. The
// construction follows the oblivious query expansion of Angel-Chen-Laine-
// Setty with the MulPir ciphertext-ciphertext fold, driven by the rotation
// and key-switching machinery in the rlwe package.
package mulpir

import (
	"fmt"

	"rlwekernel/codec"
	"rlwekernel/ring"
	"rlwekernel/rlwe"
)

// KeyCompression selects how aggressively the Galois key set for query
// expansion is shrunk. Fewer keys mean a smaller evaluation-key upload and
// more automorphism applications per expansion step.
type KeyCompression int

const (
	// NoCompression keeps one Galois key per expansion step.
	NoCompression KeyCompression = iota
	// HybridCompression keeps the lower half of the key range plus a single
	// extra top element, trading one key for fewer repeated applications.
	HybridCompression
	// MaxCompression keeps only the lower half of the key range.
	MaxCompression
)

// Config is the caller-chosen shape of a PIR instance, from which the
// publicly agreed Parameter is synthesized.
type Config struct {
	EntryCount       int
	EntrySizeInBytes int
	DimensionCount   int
	BatchSize        int
	UnevenDimensions bool
	KeyCompression   KeyCompression
	// EncodeEntrySize prefixes every entry with a varint length so
	// variable-length entries round-trip exactly.
	EncodeEntrySize bool
}

// EvaluationKeyConfig lists the keys a server needs for this instance.
type EvaluationKeyConfig struct {
	GaloisElements        []uint64
	HasRelinearizationKey bool
}

// Parameter is the derived, publicly agreed description of a PIR instance.
type Parameter struct {
	EntryCount       int
	EntrySizeInBytes int
	Dimensions       []int
	BatchSize        int
	KeyCompression   KeyCompression
	EvaluationKey    EvaluationKeyConfig

	EncodeEntrySize bool
	// EntrySizeEncodingWidth is the byte width of the varint length prefix.
	EntrySizeEncodingWidth int
}

// EncodedEntrySize returns the on-plaintext size of one entry: the raw size
// plus the varint prefix when entry sizes are encoded.
func (p *Parameter) EncodedEntrySize() int {
	if p.EncodeEntrySize {
		return p.EntrySizeInBytes + p.EntrySizeEncodingWidth
	}
	return p.EntrySizeInBytes
}

// EntriesPerPlaintext returns how many encoded entries one plaintext packs
// (at least 1; large entries span multiple plaintexts instead).
func (p *Parameter) EntriesPerPlaintext(bytesPerPlaintext int) int {
	epp := bytesPerPlaintext / p.EncodedEntrySize()
	if epp < 1 {
		return 1
	}
	return epp
}

// PerChunkPlaintextCount returns the number of plaintexts one database chunk
// holds before padding to the dimension product.
func (p *Parameter) PerChunkPlaintextCount(bytesPerPlaintext int) int {
	return ceilDiv(p.EntryCount, p.EntriesPerPlaintext(bytesPerPlaintext))
}

// ChunkCount returns the number of reply ciphertexts per query: 1 for
// packed small entries, ceil(s'/bytesPerPlaintext) for split large entries.
func (p *Parameter) ChunkCount(bytesPerPlaintext int) int {
	if p.EncodedEntrySize() <= bytesPerPlaintext {
		return 1
	}
	return ceilDiv(p.EncodedEntrySize(), bytesPerPlaintext)
}

// ExpandedQueryCount returns the number of indicator ciphertexts one batch
// of the given size expands to.
func (p *Parameter) ExpandedQueryCount(batch int) int {
	sum := 0
	for _, d := range p.Dimensions {
		sum += d
	}
	return sum * batch
}

// GenerateParameter synthesizes the public Parameter for cfg over the given
// scheme parameters.
func GenerateParameter(cfg Config, scheme *rlwe.Parameters) (*Parameter, error) {
	if cfg.EntryCount < 1 {
		return nil, ErrEmptyDatabase
	}
	if cfg.DimensionCount < 1 || cfg.DimensionCount > 2 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidDimensionCount, cfg.DimensionCount)
	}
	if cfg.BatchSize < 1 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidBatchSize, cfg.BatchSize)
	}
	if cfg.EntrySizeInBytes < 1 {
		return nil, fmt.Errorf("%w: entry size %d", ErrInvalidDatabaseEntrySize, cfg.EntrySizeInBytes)
	}

	p := &Parameter{
		EntryCount:       cfg.EntryCount,
		EntrySizeInBytes: cfg.EntrySizeInBytes,
		BatchSize:        cfg.BatchSize,
		KeyCompression:   cfg.KeyCompression,
		EncodeEntrySize:  cfg.EncodeEntrySize,
	}
	if cfg.EncodeEntrySize {
		p.EntrySizeEncodingWidth = len(codec.PutUvarint(nil, uint64(cfg.EntrySizeInBytes)))
	}

	bpp := scheme.BytesPerPlaintext()
	perChunk := p.PerChunkPlaintextCount(bpp)
	p.Dimensions = initialDimensions(perChunk, cfg.DimensionCount)

	if cfg.UnevenDimensions && cfg.DimensionCount == 2 {
		p.Dimensions = unevenDimensions(p.Dimensions, perChunk, cfg.BatchSize)
	}

	p.EvaluationKey = evaluationKeyConfig(p, scheme)
	return p, nil
}

// initialDimensions fills d dimensions with floor(P^(1/d)), then increments
// them round-robin until their product covers P.
func initialDimensions(perChunk, d int) []int {
	base := perChunk
	if d == 2 {
		base = 1
		for (base+1)*(base+1) <= perChunk {
			base++
		}
	}
	dims := make([]int, d)
	for i := range dims {
		dims[i] = base
	}
	for i := 0; product(dims) < perChunk; i = (i + 1) % d {
		dims[i]++
	}
	return dims
}

// unevenDimensions minimizes the second dimension while keeping the
// power-of-two ceiling of the expanded query count unchanged: a smaller
// second dimension means fewer ciphertext-ciphertext multiplications at the
// same Galois-key budget.
func unevenDimensions(dims []int, perChunk, batch int) []int {
	target := ring.NextPowerOfTwo(uint64((dims[0] + dims[1]) * batch))
	best := dims
	for d1 := dims[1]; d1 >= 1; d1-- {
		d0 := ceilDiv(perChunk, d1)
		if ring.NextPowerOfTwo(uint64((d0+d1)*batch)) == target {
			best = []int{d0, d1}
		}
	}
	return best
}

// evaluationKeyConfig derives the Galois elements and relinearization flag
// the server needs, per the expansion-depth and key-compression rules.
func evaluationKeyConfig(p *Parameter, scheme *rlwe.Parameters) EvaluationKeyConfig {
	n := scheme.N()
	logN := ring.Log2(uint64(n))

	expanded := p.ExpandedQueryCount(p.BatchSize)
	capped := expanded
	if capped > n {
		capped = n
	}
	maxDepth := ring.CeilLog2(uint64(capped))
	smallest := logN - maxDepth + 1
	largest := logN
	if p.KeyCompression != NoCompression {
		mid := (logN + 2) / 2 // ceil((logN+1)/2)
		if mid > smallest {
			largest = mid
		} else {
			largest = smallest
		}
	}

	var els []uint64
	for k := smallest; k <= largest; k++ {
		els = append(els, uint64(1<<uint(k))+1)
	}
	if p.KeyCompression == HybridCompression && largest < logN {
		els = append(els, uint64(1<<uint(logN))+1)
	}

	return EvaluationKeyConfig{
		GaloisElements:        els,
		HasRelinearizationKey: true,
	}
}

func product(xs []int) int {
	p := 1
	for _, x := range xs {
		p *= x
	}
	return p
}

func ceilDiv(a, b int) int {
	return (a + b - 1) / b
}
