package pnns

import (
	"rlwekernel/rlwe"
)

// ServerConfig is the public agreement between client and server: the ring
// geometry, the plaintext-CRT moduli widening the score range, the
// fixed-point scaling factor, and the distance metric.
type ServerConfig struct {
	Params          []*rlwe.Parameters
	PlaintextModuli []uint64
	ScalingFactor   float64
	Metric          DistanceMetric
}

// NewServerConfig builds one parameter set per plaintext modulus over a
// shared ring degree and ciphertext modulus chain. Each modulus carries an
// independent encryption pipeline; the client CRT-composes the per-modulus
// scores after decryption.
func NewServerConfig(n int, qModuli, plaintextModuli []uint64, scalingFactor float64, metric DistanceMetric) (*ServerConfig, error) {
	if metric != CosineSimilarity {
		return nil, ErrWrongDistanceMetric
	}
	if len(plaintextModuli) == 0 {
		return nil, ErrWrongContextsCount
	}
	params := make([]*rlwe.Parameters, len(plaintextModuli))
	for i, t := range plaintextModuli {
		p, err := rlwe.NewParameters(n, qModuli, t)
		if err != nil {
			return nil, err
		}
		if !p.SupportsSIMD() {
			return nil, rlwe.ErrSIMDUnsupported
		}
		params[i] = p
	}
	return &ServerConfig{
		Params:          params,
		PlaintextModuli: plaintextModuli,
		ScalingFactor:   scalingFactor,
		Metric:          metric,
	}, nil
}

// Database is the raw nearest-neighbor corpus: one float vector per row,
// with its public identifier and metadata.
type Database struct {
	Vectors        [][]float64
	EntryIDs       []uint64
	EntryMetadatas [][]byte
}

// ProcessedDatabase holds the diagonal-packed fixed-point matrix per
// plaintext modulus, ready for the BSGS product.
type ProcessedDatabase struct {
	Config   *ServerConfig
	Dims     MatrixDimensions
	BSGS     BabyStepGiantStep
	Matrices []*PlaintextMatrix

	EntryIDs       []uint64
	EntryMetadatas [][]byte
}

// ProcessDatabase normalizes, scales, and rounds the corpus, then packs it
// diagonally under every plaintext modulus.
func ProcessDatabase(db *Database, cfg *ServerConfig) (*ProcessedDatabase, error) {
	if len(db.Vectors) == 0 {
		return nil, ErrEmptyDatabase
	}
	dims, err := NewMatrixDimensions(len(db.Vectors), len(db.Vectors[0]))
	if err != nil {
		return nil, err
	}
	for _, v := range db.Vectors {
		if len(v) != dims.ColumnCount {
			return nil, ErrValidation
		}
	}
	bsgs, err := NewBabyStepGiantStep(dims.ColumnCount)
	if err != nil {
		return nil, err
	}

	fixed := NormalizeScaleRound(db.Vectors, cfg.ScalingFactor)
	packing := Packing{Kind: PackingDiagonal, BSGS: &bsgs}

	matrices := make([]*PlaintextMatrix, len(cfg.Params))
	for i, params := range cfg.Params {
		values := ReduceMod(fixed, cfg.PlaintextModuli[i])
		if matrices[i], err = NewPlaintextMatrix(values, dims, packing, params); err != nil {
			return nil, err
		}
	}
	return &ProcessedDatabase{
		Config:         cfg,
		Dims:           dims,
		BSGS:           bsgs,
		Matrices:       matrices,
		EntryIDs:       db.EntryIDs,
		EntryMetadatas: db.EntryMetadatas,
	}, nil
}

// Query carries one encrypted query matrix per plaintext modulus.
type Query struct {
	Matrices []*CiphertextMatrix
}

// Response carries the per-modulus encrypted score matrices plus the public
// row identifiers and metadata, aligned by row.
type Response struct {
	Matrices       []*CiphertextMatrix
	EntryIDs       []uint64
	EntryMetadatas [][]byte
}

// Server evaluates encrypted nearest-neighbor queries against a processed
// database, one engine per plaintext modulus.
type Server struct {
	db      *ProcessedDatabase
	engines []*Engine
}

// NewServer returns a Server using one evaluation key set per plaintext
// modulus.
func NewServer(db *ProcessedDatabase, keySets []*rlwe.EvaluationKeySet) (*Server, error) {
	if len(keySets) != len(db.Config.Params) {
		return nil, ErrWrongContextsCount
	}
	engines := make([]*Engine, len(keySets))
	for i, params := range db.Config.Params {
		e, err := NewEngine(params, keySets[i])
		if err != nil {
			return nil, err
		}
		engines[i] = e
	}
	return &Server{db: db, engines: engines}, nil
}

// ComputeResponse scores every query row against every database row under
// each plaintext modulus. Per-modulus (and per-query-row) work is
// independent; the response is assembled in static order.
func (s *Server) ComputeResponse(q *Query) (*Response, error) {
	if len(q.Matrices) != len(s.engines) {
		return nil, &WrongCiphertextMatrixCountError{Got: len(q.Matrices), Want: len(s.engines)}
	}
	out := make([]*CiphertextMatrix, len(s.engines))
	for i, e := range s.engines {
		scored, err := e.MulTransposeMatrix(s.db.Matrices[i], q.Matrices[i])
		if err != nil {
			return nil, err
		}
		if out[i], err = e.ToCoeffMatrix(scored); err != nil {
			return nil, err
		}
	}
	return &Response{
		Matrices:       out,
		EntryIDs:       s.db.EntryIDs,
		EntryMetadatas: s.db.EntryMetadatas,
	}, nil
}
