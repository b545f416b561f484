package pnns

import (
	"io"

	"rlwekernel/rlwe"
)

// Client owns one secret key per plaintext modulus, encrypts fixed-point
// query matrices, and CRT-composes the decrypted per-modulus scores back
// into float similarities.
type Client struct {
	cfg *ServerConfig
	sks []*rlwe.SecretKey
}

// NewClient samples a fresh secret key per plaintext modulus.
func NewClient(cfg *ServerConfig, rand io.Reader) (*Client, error) {
	sks := make([]*rlwe.SecretKey, len(cfg.Params))
	for i, params := range cfg.Params {
		kg := rlwe.NewKeyGenerator(params.Context())
		sk, err := kg.GenSecretKey(rand)
		if err != nil {
			return nil, err
		}
		sks[i] = sk
	}
	return &Client{cfg: cfg, sks: sks}, nil
}

// GenerateEvaluationKeys produces the per-modulus key sets the server needs
// for a database of the given shape.
func (c *Client) GenerateEvaluationKeys(dims MatrixDimensions, bsgs BabyStepGiantStep, rand io.Reader) ([]*rlwe.EvaluationKeySet, error) {
	out := make([]*rlwe.EvaluationKeySet, len(c.cfg.Params))
	for i, params := range c.cfg.Params {
		kg := rlwe.NewKeyGenerator(params.Context())
		els := EvaluationKeyGaloisElements(dims, bsgs, params)
		eks, err := kg.GenEvaluationKeySet(rand, c.sks[i], els, false)
		if err != nil {
			return nil, err
		}
		out[i] = eks
	}
	return out, nil
}

// GenerateQuery normalizes, scales, and rounds the query rows, then
// encrypts one dense-row matrix per plaintext modulus.
func (c *Client) GenerateQuery(queries [][]float64, rand io.Reader) (*Query, error) {
	if len(queries) == 0 {
		return nil, ErrEmptyCiphertextArray
	}
	dims, err := NewMatrixDimensions(len(queries), len(queries[0]))
	if err != nil {
		return nil, err
	}
	fixed := NormalizeScaleRound(queries, c.cfg.ScalingFactor)

	matrices := make([]*CiphertextMatrix, len(c.cfg.Params))
	for i, params := range c.cfg.Params {
		values := ReduceMod(fixed, c.cfg.PlaintextModuli[i])
		m, err := EncryptMatrix(values, dims, Packing{Kind: PackingDenseRow}, params, c.sks[i], rand)
		if err != nil {
			return nil, err
		}
		matrices[i] = m
	}
	return &Query{Matrices: matrices}, nil
}

// DecodeResponse decrypts every per-modulus score matrix, CRT-composes the
// residues, recenters, and rescales: scores[q][r] is the approximate cosine
// similarity of query row q and database row r.
func (c *Client) DecodeResponse(resp *Response) ([][]float64, error) {
	if len(resp.Matrices) != len(c.cfg.Params) {
		return nil, &WrongCiphertextMatrixCountError{Got: len(resp.Matrices), Want: len(c.cfg.Params)}
	}

	perModulus := make([][]uint64, len(resp.Matrices))
	var dims MatrixDimensions
	for i, cm := range resp.Matrices {
		values, err := DecryptMatrix(cm, c.cfg.Params[i], c.sks[i])
		if err != nil {
			return nil, err
		}
		perModulus[i] = values
		if i == 0 {
			dims = cm.Dimensions
		} else if cm.Dimensions != dims {
			return nil, ErrValidation
		}
	}

	residues := make([]uint64, len(c.cfg.PlaintextModuli))
	scores := make([][]float64, dims.ColumnCount)
	for q := range scores {
		scores[q] = make([]float64, dims.RowCount)
		for r := 0; r < dims.RowCount; r++ {
			for i := range residues {
				residues[i] = perModulus[i][r*dims.ColumnCount+q]
			}
			composed := CRTCompose(residues, c.cfg.PlaintextModuli)
			scores[q][r] = CenterAndScale(composed, c.cfg.PlaintextModuli, c.cfg.ScalingFactor)
		}
	}
	return scores, nil
}

// Nearest returns, per query, the indices of the k most similar database
// rows, best-first.
func (c *Client) Nearest(scores [][]float64, k int) [][]int {
	out := make([][]int, len(scores))
	for q, row := range scores {
		out[q] = TopK(row, k)
	}
	return out
}
