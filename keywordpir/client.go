package keywordpir

import (
	"io"

	"rlwekernel/mulpir"
	"rlwekernel/rlwe"
)

// Client maps keywords to bucket-index batches, drives the index-PIR
// client, and scans decrypted buckets for the keyword's tag.
type Client struct {
	param           *mulpir.Parameter
	scheme          *rlwe.Parameters
	sk              *rlwe.SecretKey
	encoder         *rlwe.Encoder
	inner           *mulpir.Client
	bucketsPerTable int
	hashFunctions   int
}

// NewClient returns a Client for the agreed parameter and table geometry.
func NewClient(param *mulpir.Parameter, bucketsPerTable int, scheme *rlwe.Parameters, sk *rlwe.SecretKey, rand io.Reader) *Client {
	return &Client{
		param:           param,
		scheme:          scheme,
		sk:              sk,
		encoder:         rlwe.NewEncoder(scheme),
		inner:           mulpir.NewClient(param, scheme, sk, rand),
		bucketsPerTable: bucketsPerTable,
		hashFunctions:   param.BatchSize,
	}
}

// GenerateQuery builds the batch index query for keyword: one bucket index
// per hash function.
func (c *Client) GenerateQuery(keyword []byte) (*mulpir.Query, error) {
	indices := HashIndices(keyword, c.bucketsPerTable, c.hashFunctions)
	return c.inner.GenerateQuery(indices)
}

// Decrypt recovers keyword's value from a response, or nil when the keyword
// is absent: each of the hash functions' candidate buckets is decrypted and
// scanned for the keyword's tag.
func (c *Client) Decrypt(resp *mulpir.Response, keyword []byte) ([]byte, error) {
	indices := HashIndices(keyword, c.bucketsPerTable, c.hashFunctions)
	tag := HashTag(keyword)

	for b, idx := range indices {
		raw, err := c.inner.Decrypt(resp, b, idx)
		if err != nil {
			return nil, err
		}
		if len(raw) == 0 || raw[0] == 0 {
			continue
		}
		bucket, _, err := deserializeBucket(raw)
		if err != nil {
			return nil, err
		}
		for _, e := range bucket.entries {
			if e.tag == tag {
				return e.value, nil
			}
		}
	}
	return nil, nil
}

// CountEntriesInResponse decrypts the full plaintext windows of every reply
// and counts the hash-bucket entries they contain, walking the
// self-delimiting buckets including empty-bucket sentinels. A diagnostic for
// load inspection, not part of the retrieval path.
func (c *Client) CountEntriesInResponse(resp *mulpir.Response) (int, error) {
	total := 0
	for _, reply := range resp.Replies {
		for _, ct := range reply {
			values, err := rlwe.DecryptAndDecode(ct, c.sk, c.encoder)
			if err != nil {
				return 0, err
			}
			n, err := CountEntries(c.encoder.ValuesToBytes(values))
			if err != nil {
				return 0, err
			}
			total += n
		}
	}
	return total, nil
}
