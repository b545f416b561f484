package keywordpir

import (
	"encoding/binary"
	"fmt"
	"io"
)

// CuckooConfig parameterizes the cuckoo table build. Every keyword has one
// candidate bucket per hash function, each in its own sub-table
// (multiple-tables layout, the only one this engine supports).
type CuckooConfig struct {
	HashFunctionCount       int
	MaxEvictionCount        int
	MaxSerializedBucketSize int

	// AllowExpansion doubles the per-table bucket count and rehashes when an
	// insertion chain exceeds MaxEvictionCount; with it off, BucketCount
	// fixes the per-table size and overflowing fails the build.
	AllowExpansion bool
	BucketCount    int
}

func (c *CuckooConfig) validate() error {
	if c.HashFunctionCount < 1 {
		return fmt.Errorf("%w: hash function count %d", ErrInvalidCuckooConfig, c.HashFunctionCount)
	}
	if c.MaxEvictionCount < 1 {
		return fmt.Errorf("%w: max eviction count %d", ErrInvalidCuckooConfig, c.MaxEvictionCount)
	}
	if c.MaxSerializedBucketSize < bucketCountSize+bucketTagSize+bucketValueLenSize+1 {
		return fmt.Errorf("%w: max serialized bucket size %d", ErrInvalidCuckooConfig, c.MaxSerializedBucketSize)
	}
	if !c.AllowExpansion && c.BucketCount < 1 {
		return fmt.Errorf("%w: bucket count %d", ErrInvalidCuckooConfig, c.BucketCount)
	}
	return nil
}

// cuckooTable holds one bucket array per hash function; keyword k may live
// only in tables[i][HashIndices(k)[i]] for some i.
type cuckooTable struct {
	cfg             CuckooConfig
	bucketsPerTable int
	tables          [][]hashBucket
	rand            io.Reader
}

func newCuckooTable(cfg CuckooConfig, entryCount int, rand io.Reader) (*cuckooTable, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	buckets := cfg.BucketCount
	if cfg.AllowExpansion {
		// Start from a load factor of about one entry per bucket across all
		// tables and let eviction pressure trigger growth.
		buckets = entryCount/cfg.HashFunctionCount + 1
	}
	t := &cuckooTable{cfg: cfg, bucketsPerTable: buckets, rand: rand}
	t.tables = make([][]hashBucket, cfg.HashFunctionCount)
	for i := range t.tables {
		t.tables[i] = make([]hashBucket, buckets)
	}
	return t, nil
}

// insert places (keyword, value), evicting residents along a bounded random
// walk; when the walk is exhausted the table either expands and rehashes or
// the build fails.
func (t *cuckooTable) insert(keyword, value []byte) error {
	entry := bucketEntry{keyword: keyword, tag: HashTag(keyword), value: value}
	for {
		displaced, ok, err := t.tryInsert(entry, t.cfg.MaxEvictionCount)
		if err != nil {
			return err
		}
		if ok {
			return nil
		}
		if !t.cfg.AllowExpansion {
			return fmt.Errorf("%w: eviction limit reached at %d buckets per table", ErrFailedToConstructCuckooTable, t.bucketsPerTable)
		}
		if err := t.expand(); err != nil {
			return err
		}
		entry = displaced
	}
}

// tryInsert attempts to place entry, returning the entry left homeless when
// the eviction budget runs out.
func (t *cuckooTable) tryInsert(entry bucketEntry, evictionsLeft int) (bucketEntry, bool, error) {
	for {
		indices := HashIndices(entry.keyword, t.bucketsPerTable, t.cfg.HashFunctionCount)

		// Fast path: any candidate bucket with room.
		for i, idx := range indices {
			b := &t.tables[i][idx]
			if b.serializedSizeWith(entry.value) <= t.cfg.MaxSerializedBucketSize && len(b.entries) < 255 {
				b.entries = append(b.entries, entry)
				return bucketEntry{}, true, nil
			}
		}

		if evictionsLeft == 0 {
			return entry, false, nil
		}
		evictionsLeft--

		// Evict a pseudo-random resident from a pseudo-random candidate
		// bucket and retry with it.
		ti, err := t.randInt(t.cfg.HashFunctionCount)
		if err != nil {
			return bucketEntry{}, false, err
		}
		b := &t.tables[ti][indices[ti]]
		if len(b.entries) == 0 {
			b.entries = append(b.entries, entry)
			return bucketEntry{}, true, nil
		}
		vi, err := t.randInt(len(b.entries))
		if err != nil {
			return bucketEntry{}, false, err
		}
		victim := b.entries[vi]
		b.entries[vi] = entry
		entry = victim
	}
}

// expand doubles the per-table bucket count and rehashes every stored
// entry, doubling again on the (unlikely) chance the rehash itself runs out
// of evictions.
func (t *cuckooTable) expand() error {
	entries := t.allEntries()
	const maxDoublings = 16
	for attempt := 0; attempt < maxDoublings; attempt++ {
		t.bucketsPerTable *= 2
		for i := range t.tables {
			t.tables[i] = make([]hashBucket, t.bucketsPerTable)
		}
		ok, err := t.reinsertAll(entries)
		if err != nil {
			return err
		}
		if ok {
			return nil
		}
	}
	return ErrFailedToConstructCuckooTable
}

func (t *cuckooTable) allEntries() []bucketEntry {
	var out []bucketEntry
	for _, table := range t.tables {
		for _, b := range table {
			out = append(out, b.entries...)
		}
	}
	return out
}

func (t *cuckooTable) reinsertAll(entries []bucketEntry) (bool, error) {
	for _, e := range entries {
		_, ok, err := t.tryInsert(e, t.cfg.MaxEvictionCount)
		if err != nil || !ok {
			return false, err
		}
	}
	return true, nil
}

func (t *cuckooTable) randInt(n int) (int, error) {
	if n <= 1 {
		return 0, nil
	}
	var buf [8]byte
	if _, err := io.ReadFull(t.rand, buf[:]); err != nil {
		return 0, err
	}
	return int(binary.LittleEndian.Uint64(buf[:]) % uint64(n)), nil
}

// serializeTables returns, per sub-table, the serialized bucket list, plus
// the largest serialized bucket size seen.
func (t *cuckooTable) serializeTables() ([][][]byte, int, error) {
	maxSize := 0
	out := make([][][]byte, len(t.tables))
	for i, table := range t.tables {
		out[i] = make([][]byte, len(table))
		for j := range table {
			buf, err := table[j].serialize()
			if err != nil {
				return nil, 0, err
			}
			if len(table[j].entries) == 0 {
				// Empty buckets ride as all-zero PIR entries; the count-zero
				// sentinel is recovered from the padding itself.
				buf = nil
			}
			if len(buf) > maxSize {
				maxSize = len(buf)
			}
			out[i][j] = buf
		}
	}
	return out, maxSize, nil
}
