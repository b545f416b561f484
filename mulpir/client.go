package mulpir

import (
	"fmt"
	"io"

	"rlwekernel/codec"
	"rlwekernel/ring"
	"rlwekernel/rlwe"
)

// Query is a batch PIR query: one or more compressed ciphertexts the server
// expands into indicator ciphertexts, plus the number of batched indices.
// Ciphertexts travel in Coeff format.
type Query struct {
	Ciphertexts  []*rlwe.Ciphertext
	IndicesCount int
}

// Response carries one reply per batched query; each reply is ChunkCount
// ciphertexts switched down to the base modulus in Coeff format.
type Response struct {
	Replies [][]*rlwe.Ciphertext
}

// Client generates queries and decrypts replies for one PIR instance.
type Client struct {
	param   *Parameter
	scheme  *rlwe.Parameters
	encoder *rlwe.Encoder
	sk      *rlwe.SecretKey
	rand    io.Reader
}

// NewClient returns a Client for param over scheme, encrypting under sk with
// randomness from rand.
func NewClient(param *Parameter, scheme *rlwe.Parameters, sk *rlwe.SecretKey, rand io.Reader) *Client {
	return &Client{
		param:   param,
		scheme:  scheme,
		encoder: rlwe.NewEncoder(scheme),
		sk:      sk,
		rand:    rand,
	}
}

// GenerateQuery encodes a batch of entry indices as compressed one-hot
// ciphertexts. Each index is decomposed into per-dimension coordinates; the
// concatenated coordinate positions are packed into ciphertext coefficients
// pre-scaled by the inverse of the expansion doubling factor, so that the
// server's oblivious expansion recovers unit indicators.
func (c *Client) GenerateQuery(indices []int) (*Query, error) {
	if len(indices) < 1 || len(indices) > c.param.BatchSize {
		return nil, &InvalidBatchSizeError{Got: len(indices), Max: c.param.BatchSize}
	}

	positions, err := c.nonZeroPositions(indices)
	if err != nil {
		return nil, err
	}

	n := c.scheme.N()
	t := c.scheme.PlaintextModulus()
	total := c.param.ExpandedQueryCount(len(indices))
	ctCount := ceilDiv(total, n)

	encryptor := rlwe.NewEncryptor(c.scheme.Context(), c.rand)
	cts := make([]*rlwe.Ciphertext, ctCount)
	for i := range cts {
		remaining := total - i*n
		if remaining > n {
			remaining = n
		}
		depth := ring.CeilLog2(uint64(remaining))
		invFactor := ring.InverseMod(uint64(1)<<uint(depth)%t, t)

		coeffs := make([]uint64, n)
		for _, pos := range positions {
			if pos >= i*n && pos < i*n+n {
				coeffs[pos-i*n] = invFactor
			}
		}
		pt, err := c.encoder.EncodeScaled(coeffs)
		if err != nil {
			return nil, err
		}
		ct, err := encryptor.EncryptNew(c.sk, pt)
		if err != nil {
			return nil, err
		}
		for _, p := range ct.Value {
			if err := p.InvNTT(); err != nil {
				return nil, err
			}
		}
		cts[i] = ct
	}
	return &Query{Ciphertexts: cts, IndicesCount: len(indices)}, nil
}

// nonZeroPositions returns the flat indicator positions for a batch: query b
// occupies the window [b*sum(dims), (b+1)*sum(dims)), with each dimension's
// coordinate shifted by the dimensions before it.
func (c *Client) nonZeroPositions(indices []int) ([]int, error) {
	dims := c.param.Dimensions
	sum := 0
	for _, d := range dims {
		sum += d
	}
	bpp := c.scheme.BytesPerPlaintext()
	epp := c.param.EntriesPerPlaintext(bpp)

	var positions []int
	for b, idx := range indices {
		if idx < 0 || idx >= c.param.EntryCount {
			return nil, &InvalidIndexError{Index: idx, EntryCount: c.param.EntryCount}
		}
		ptIdx := idx
		if c.param.EncodedEntrySize() <= bpp {
			ptIdx = idx / epp
		}
		offset := 0
		rest := product(dims)
		for _, d := range dims {
			rest /= d
			coord := (ptIdx / rest) % d
			positions = append(positions, b*sum+offset+coord)
			offset += d
		}
	}
	return positions, nil
}

// Decrypt recovers the entry at originalIndex from the batchIndex-th reply
// of a response. The full decoded window is returned for fixed-size
// parameters; with entry-size encoding, the varint length prefix delimits
// the entry exactly. Reply bytes beyond the entry window are ignored rather
// than re-validated, and the final reply byte participates in decoding (the
// legacy strict upper-bound check that dropped it is not kept).
func (c *Client) Decrypt(resp *Response, batchIndex, originalIndex int) ([]byte, error) {
	if batchIndex < 0 || batchIndex >= len(resp.Replies) {
		return nil, fmt.Errorf("%w: batch index %d outside %d replies", ErrInvalidResponse, batchIndex, len(resp.Replies))
	}
	if originalIndex < 0 || originalIndex >= c.param.EntryCount {
		return nil, &InvalidIndexError{Index: originalIndex, EntryCount: c.param.EntryCount}
	}
	bpp := c.scheme.BytesPerPlaintext()
	reply := resp.Replies[batchIndex]
	if len(reply) != c.param.ChunkCount(bpp) {
		return nil, &InvalidReplyError{Got: len(reply), Want: c.param.ChunkCount(bpp)}
	}

	var window []byte
	encSize := c.param.EncodedEntrySize()
	if encSize <= bpp {
		values, err := rlwe.DecryptAndDecode(reply[0], c.sk, c.encoder)
		if err != nil {
			return nil, err
		}
		bytes := c.encoder.ValuesToBytes(values)
		epp := c.param.EntriesPerPlaintext(bpp)
		offset := (originalIndex % epp) * encSize
		if offset+encSize > len(bytes) {
			return nil, ErrCorruptedData
		}
		window = bytes[offset : offset+encSize]
	} else {
		var all []byte
		for _, ct := range reply {
			values, err := rlwe.DecryptAndDecode(ct, c.sk, c.encoder)
			if err != nil {
				return nil, err
			}
			all = append(all, c.encoder.ValuesToBytes(values)...)
		}
		if len(all) < encSize {
			return nil, ErrCorruptedData
		}
		window = all[:encSize]
	}

	if !c.param.EncodeEntrySize {
		return window, nil
	}
	length, consumed, err := codec.Uvarint(window)
	if err != nil || int(length) > len(window)-consumed {
		return nil, ErrCorruptedData
	}
	return window[consumed : consumed+int(length)], nil
}
