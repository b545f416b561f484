package keywordpir

import "errors"

// Error kinds for the keyword-PIR layer (§7 "PIR", keyword subset).
var (
	ErrInvalidCuckooConfig             = errors.New("keywordpir: invalid cuckoo table configuration")
	ErrInvalidDatabaseDuplicateKeyword = errors.New("keywordpir: duplicate keyword in database")
	ErrFailedToConstructCuckooTable    = errors.New("keywordpir: failed to construct cuckoo table")
	ErrInvalidHashBucketEntryValueSize = errors.New("keywordpir: hash bucket entry value too large")
	ErrInvalidHashBucketSlotCount      = errors.New("keywordpir: hash bucket slot count exceeded")
	ErrEmptyDatabase                   = errors.New("keywordpir: empty database")
	ErrCorruptedData                   = errors.New("keywordpir: corrupted hash bucket data")
)
