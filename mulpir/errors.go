package mulpir

import (
	"errors"
	"fmt"
)

// Error kinds for the index-PIR layer (§7 "PIR"). Count-carrying failures
// are typed structs unwrapping to a sentinel, so callers can both match the
// kind and read the offending counts verbatim.
var (
	ErrInvalidBatchSize              = errors.New("mulpir: invalid batch size")
	ErrInvalidIndex                  = errors.New("mulpir: invalid index")
	ErrInvalidReply                  = errors.New("mulpir: invalid reply")
	ErrInvalidResponse               = errors.New("mulpir: invalid response")
	ErrInvalidDimensionCount         = errors.New("mulpir: invalid dimension count")
	ErrInvalidDatabaseEntryCount     = errors.New("mulpir: invalid database entry count")
	ErrInvalidDatabaseEntrySize      = errors.New("mulpir: invalid database entry size")
	ErrInvalidDatabasePlaintextCount = errors.New("mulpir: invalid database plaintext count")
	ErrEmptyDatabase                 = errors.New("mulpir: empty database")
	ErrCorruptedData                 = errors.New("mulpir: corrupted data")
)

// InvalidBatchSizeError reports a query batch outside [1, maxBatchSize].
type InvalidBatchSizeError struct {
	Got, Max int
}

func (e *InvalidBatchSizeError) Error() string {
	return fmt.Sprintf("mulpir: invalid batch size %d, must be in [1, %d]", e.Got, e.Max)
}

func (e *InvalidBatchSizeError) Unwrap() error { return ErrInvalidBatchSize }

// InvalidIndexError reports an out-of-range entry index.
type InvalidIndexError struct {
	Index, EntryCount int
}

func (e *InvalidIndexError) Error() string {
	return fmt.Sprintf("mulpir: index %d out of range [0, %d)", e.Index, e.EntryCount)
}

func (e *InvalidIndexError) Unwrap() error { return ErrInvalidIndex }

// InvalidReplyError reports a reply whose ciphertext count does not match
// the parameter's chunk count.
type InvalidReplyError struct {
	Got, Want int
}

func (e *InvalidReplyError) Error() string {
	return fmt.Sprintf("mulpir: reply has %d ciphertexts, expected %d", e.Got, e.Want)
}

func (e *InvalidReplyError) Unwrap() error { return ErrInvalidReply }

// InvalidDatabaseEntryCountError reports an input database whose entry count
// does not match the agreed parameter.
type InvalidDatabaseEntryCountError struct {
	Got, Want int
}

func (e *InvalidDatabaseEntryCountError) Error() string {
	return fmt.Sprintf("mulpir: database has %d entries, parameter expects %d", e.Got, e.Want)
}

func (e *InvalidDatabaseEntryCountError) Unwrap() error { return ErrInvalidDatabaseEntryCount }

// InvalidDatabaseEntrySizeError reports an entry exceeding the agreed size.
type InvalidDatabaseEntrySizeError struct {
	Got, Max int
}

func (e *InvalidDatabaseEntrySizeError) Error() string {
	return fmt.Sprintf("mulpir: entry of %d bytes exceeds maximum %d", e.Got, e.Max)
}

func (e *InvalidDatabaseEntrySizeError) Unwrap() error { return ErrInvalidDatabaseEntrySize }
