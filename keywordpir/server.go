package keywordpir

import (
	"io"

	"rlwekernel/mulpir"
	"rlwekernel/rlwe"
)

// KeywordValuePair is one database row.
type KeywordValuePair struct {
	Keyword []byte
	Value   []byte
}

// Config shapes a keyword-PIR instance: the cuckoo build plus the index-PIR
// knobs forwarded to mulpir parameter synthesis.
type Config struct {
	Cuckoo CuckooConfig

	DimensionCount   int
	KeyCompression   mulpir.KeyCompression
	UnevenDimensions bool
}

// ProcessedDatabase is the server-side result of a keyword database build:
// the agreed index-PIR parameter and one processed sub-database per hash
// function.
type ProcessedDatabase struct {
	Param           *mulpir.Parameter
	SubDatabases    []*mulpir.ProcessedDatabase
	BucketsPerTable int
	MaxEntrySize    int
}

// ProcessDatabase cuckoo-hashes rows, serializes the buckets, and delegates
// to the index-PIR layer with entryCount = bucketsPerTable, entrySize =
// maxEntrySize, batchSize = hashFunctionCount.
func ProcessDatabase(rows []KeywordValuePair, cfg Config, scheme *rlwe.Parameters, rand io.Reader) (*ProcessedDatabase, error) {
	if len(rows) == 0 {
		return nil, ErrEmptyDatabase
	}
	seen := make(map[string]bool, len(rows))
	for _, r := range rows {
		if seen[string(r.Keyword)] {
			return nil, ErrInvalidDatabaseDuplicateKeyword
		}
		seen[string(r.Keyword)] = true
	}

	db, err := buildOnce(rows, cfg, scheme, rand)
	if err != nil {
		return nil, err
	}

	// Workaround for a legacy client decode boundary bug: when the bucket
	// entry size and the plaintext byte capacity divide one another, rebuild
	// once with the cap lowered to maxEntrySize-1. Preserved for bit-exact
	// compatibility; flagged for removal once no legacy clients remain.
	bpp := scheme.BytesPerPlaintext()
	m := db.MaxEntrySize
	if m > 1 && (m%bpp == 0 || bpp%m == 0) {
		reduced := cfg
		reduced.Cuckoo.MaxSerializedBucketSize = m - 1
		return buildOnce(rows, reduced, scheme, rand)
	}
	return db, nil
}

func buildOnce(rows []KeywordValuePair, cfg Config, scheme *rlwe.Parameters, rand io.Reader) (*ProcessedDatabase, error) {
	table, err := newCuckooTable(cfg.Cuckoo, len(rows), rand)
	if err != nil {
		return nil, err
	}
	for _, r := range rows {
		if err := table.insert(r.Keyword, r.Value); err != nil {
			return nil, err
		}
	}

	serialized, maxEntrySize, err := table.serializeTables()
	if err != nil {
		return nil, err
	}
	if !cfg.Cuckoo.AllowExpansion {
		maxEntrySize = cfg.Cuckoo.MaxSerializedBucketSize
	}

	dims := cfg.DimensionCount
	if dims == 0 {
		dims = 2
	}
	param, err := mulpir.GenerateParameter(mulpir.Config{
		EntryCount:       table.bucketsPerTable,
		EntrySizeInBytes: maxEntrySize,
		DimensionCount:   dims,
		BatchSize:        cfg.Cuckoo.HashFunctionCount,
		UnevenDimensions: cfg.UnevenDimensions,
		KeyCompression:   cfg.KeyCompression,
	}, scheme)
	if err != nil {
		return nil, err
	}

	subDBs := make([]*mulpir.ProcessedDatabase, len(serialized))
	for i, tableEntries := range serialized {
		sub, err := mulpir.ProcessDatabase(tableEntries, param, scheme)
		if err != nil {
			return nil, err
		}
		subDBs[i] = sub
	}

	return &ProcessedDatabase{
		Param:           param,
		SubDatabases:    subDBs,
		BucketsPerTable: table.bucketsPerTable,
		MaxEntrySize:    maxEntrySize,
	}, nil
}

// Server answers keyword queries by delegating to an index-PIR server whose
// batch position b is backed by sub-table b.
type Server struct {
	inner *mulpir.Server
	db    *ProcessedDatabase
}

// NewServer returns a Server over db evaluating with eks.
func NewServer(db *ProcessedDatabase, scheme *rlwe.Parameters, eks *rlwe.EvaluationKeySet) (*Server, error) {
	inner, err := mulpir.NewServer(db.Param, scheme, eks, db.SubDatabases...)
	if err != nil {
		return nil, err
	}
	return &Server{inner: inner, db: db}, nil
}

// ComputeResponse evaluates one keyword query (a batch of bucket-index
// queries, one per hash function).
func (s *Server) ComputeResponse(q *mulpir.Query) (*mulpir.Response, error) {
	return s.inner.ComputeResponse(q)
}
