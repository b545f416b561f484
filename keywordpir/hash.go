// Package keywordpir layers keyword lookup over the mulpir index-PIR engine:
// keywords are cuckoo-hashed into per-hash-function sub-tables, the client
// retrieves its keyword's candidate buckets by index PIR (one batched query
// per hash function), and matches the stored hash tag to recover the value.
package keywordpir

import (
	"encoding/binary"

	"golang.org/x/crypto/blake2b"
)

// HashKeyword derives bucket indices and the stored tag for a keyword, both
// through blake2b-256 (the keyed-hash family the sampling PRNG is also built
// on). The tag is what a bucket stores alongside the value; the client
// matches it instead of the keyword itself.

// HashTag returns the 8-byte tag stored with a keyword's value.
func HashTag(keyword []byte) uint64 {
	sum := blake2b.Sum256(keyword)
	return binary.LittleEndian.Uint64(sum[:8])
}

// HashIndices returns hashFunctionCount independent bucket indices in
// [0, bucketCount) for keyword, one per sub-table: index i is derived from
// blake2b-256(keyword || i).
func HashIndices(keyword []byte, bucketCount, hashFunctionCount int) []int {
	out := make([]int, hashFunctionCount)
	buf := make([]byte, 0, len(keyword)+1)
	for i := range out {
		buf = append(buf[:0], keyword...)
		buf = append(buf, byte(i))
		sum := blake2b.Sum256(buf)
		out[i] = int(binary.LittleEndian.Uint64(sum[:8]) % uint64(bucketCount))
	}
	return out
}
