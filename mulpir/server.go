package mulpir

import (
	"fmt"
	"sync"

	"rlwekernel/ring"
	"rlwekernel/rlwe"
)

// Server evaluates batch PIR queries against one or more processed
// databases. With a single database, every batched query is answered from
// it; with several (the keyword-PIR sub-table layout), batched query b is
// answered from database b.
type Server struct {
	param  *Parameter
	scheme *rlwe.Parameters
	ev     *rlwe.Evaluator
	dbs    []*ProcessedDatabase
}

// NewServer returns a Server over the given databases, evaluating with eks.
func NewServer(param *Parameter, scheme *rlwe.Parameters, eks *rlwe.EvaluationKeySet, dbs ...*ProcessedDatabase) (*Server, error) {
	if len(dbs) == 0 {
		return nil, ErrEmptyDatabase
	}
	for _, db := range dbs {
		if db.Param.EntryCount != param.EntryCount {
			return nil, &InvalidDatabaseEntryCountError{Got: db.Param.EntryCount, Want: param.EntryCount}
		}
	}
	return &Server{
		param:  param,
		scheme: scheme,
		ev:     rlwe.NewEvaluator(scheme, eks),
		dbs:    dbs,
	}, nil
}

// ComputeResponse expands the query and runs the per-chunk inner-product
// pipeline for every batched query. Per-chunk work is independent; results
// are collected into their statically assigned reply positions.
func (s *Server) ComputeResponse(q *Query) (*Response, error) {
	if q.IndicesCount < 1 || q.IndicesCount > s.param.BatchSize {
		return nil, &InvalidBatchSizeError{Got: q.IndicesCount, Max: s.param.BatchSize}
	}

	expanded, err := s.expandQuery(q)
	if err != nil {
		return nil, err
	}

	dims := s.param.Dimensions
	sum := 0
	for _, d := range dims {
		sum += d
	}

	resp := &Response{Replies: make([][]*rlwe.Ciphertext, q.IndicesCount)}
	for b := 0; b < q.IndicesCount; b++ {
		db := s.dbs[0]
		if len(s.dbs) > 1 {
			if b >= len(s.dbs) {
				return nil, fmt.Errorf("%w: batch position %d exceeds %d databases", ErrInvalidBatchSize, b, len(s.dbs))
			}
			db = s.dbs[b]
		}
		reply, err := s.computeReply(expanded[b*sum:(b+1)*sum], db)
		if err != nil {
			return nil, err
		}
		resp.Replies[b] = reply
	}
	return resp, nil
}

// computeReply answers one batched query from db using its sum(dims)
// indicator ciphertexts.
func (s *Server) computeReply(indicators []*rlwe.Ciphertext, db *ProcessedDatabase) ([]*rlwe.Ciphertext, error) {
	dims := s.param.Dimensions
	dim0 := dims[0]

	// First-dimension queries run ciphertext-plaintext products in Eval.
	dim0Queries := make([]*rlwe.Ciphertext, dim0)
	for i := 0; i < dim0; i++ {
		ct, err := s.ev.ToEval(indicators[i])
		if err != nil {
			return nil, err
		}
		dim0Queries[i] = ct
	}

	// Remaining-dimension indicator segments, shared read-only by every
	// chunk worker.
	offset := dim0
	segments := make([][]*rlwe.Ciphertext, 0, len(dims)-1)
	for _, d := range dims[1:] {
		segs := make([]*rlwe.Ciphertext, d)
		for i := 0; i < d; i++ {
			ct, err := s.ev.ToEval(indicators[offset+i])
			if err != nil {
				return nil, err
			}
			segs[i] = ct
		}
		segments = append(segments, segs)
		offset += d
	}

	// Chunks are independent; each worker writes its statically assigned
	// reply slot. Either every chunk completes or the whole reply is
	// discarded.
	reply := make([]*rlwe.Ciphertext, db.ChunkCount)
	errs := make([]error, db.ChunkCount)
	var wg sync.WaitGroup
	for chunk := 0; chunk < db.ChunkCount; chunk++ {
		wg.Add(1)
		go func(chunk int) {
			defer wg.Done()
			reply[chunk], errs[chunk] = s.computeChunk(dim0Queries, segments, db, chunk)
		}(chunk)
	}
	wg.Wait()
	for _, err := range errs {
		if err != nil {
			return nil, err
		}
	}
	return reply, nil
}

// computeChunk runs the inner-product pipeline for one database chunk:
// first-dimension ciphertext-plaintext products per column, then the
// ciphertext-ciphertext folds over the remaining dimensions (innermost
// last, relinearizing after each inner product), and the final modulus
// switch.
func (s *Server) computeChunk(dim0Queries []*rlwe.Ciphertext, segments [][]*rlwe.Ciphertext, db *ProcessedDatabase, chunk int) (*rlwe.Ciphertext, error) {
	dims := s.param.Dimensions
	cols := db.PaddedPerChunk / dims[0]
	intermediate := make([]*rlwe.Ciphertext, cols)
	for col := 0; col < cols; col++ {
		acc, err := s.innerProductPlain(dim0Queries, db.chunkColumn(chunk, col))
		if err != nil {
			return nil, err
		}
		intermediate[col] = acc
	}

	for j := len(dims) - 1; j >= 1; j-- {
		d := dims[j]
		queries := segments[j-1]
		next := make([]*rlwe.Ciphertext, len(intermediate)/d)
		for g := range next {
			folded, err := s.innerProductCiphertext(intermediate[g*d:(g+1)*d], queries)
			if err != nil {
				return nil, err
			}
			next[g] = folded
		}
		intermediate = next
	}

	return s.ev.ModSwitchDownToSingle(intermediate[0])
}

// innerProductPlain returns sum_i queries[i] * plaintexts[i], skipping nil
// (all-zero) plaintexts; an all-nil column yields a transparent zero.
func (s *Server) innerProductPlain(queries []*rlwe.Ciphertext, plaintexts []*rlwe.Plaintext) (*rlwe.Ciphertext, error) {
	var acc *rlwe.Ciphertext
	for i, pt := range plaintexts {
		if pt == nil {
			continue
		}
		term, err := s.ev.MulPlain(queries[i], pt)
		if err != nil {
			return nil, err
		}
		if acc == nil {
			acc = term
			continue
		}
		if acc, err = s.ev.Add(acc, term); err != nil {
			return nil, err
		}
	}
	if acc == nil {
		return s.ev.NewZeroCiphertext(s.scheme.MaxLevel(), ring.Eval)
	}
	return acc, nil
}

// innerProductCiphertext returns relinearize(sum_i values[i] * queries[i]).
func (s *Server) innerProductCiphertext(values, queries []*rlwe.Ciphertext) (*rlwe.Ciphertext, error) {
	var acc *rlwe.Ciphertext
	for i, v := range values {
		term, err := s.ev.Mul(v, queries[i])
		if err != nil {
			return nil, err
		}
		if acc == nil {
			acc = term
			continue
		}
		if acc, err = s.ev.Add(acc, term); err != nil {
			return nil, err
		}
	}
	return s.ev.Relinearize(acc)
}

// expandQuery turns the compressed query ciphertexts into the flat list of
// indicator ciphertexts (Coeff format), one per non-zero position slot.
func (s *Server) expandQuery(q *Query) ([]*rlwe.Ciphertext, error) {
	total := s.param.ExpandedQueryCount(q.IndicesCount)
	n := s.scheme.N()

	out := make([]*rlwe.Ciphertext, 0, total)
	remaining := total
	for _, ct := range q.Ciphertexts {
		count := remaining
		if count > n {
			count = n
		}
		cts, err := s.expandCiphertext(ct, count)
		if err != nil {
			return nil, err
		}
		out = append(out, cts...)
		remaining -= count
	}
	if remaining != 0 || len(out) != total {
		return nil, fmt.Errorf("%w: expansion yielded %d of %d indicators", ErrInvalidResponse, len(out), total)
	}
	return out, nil
}

// expandCiphertext runs the oblivious expansion: at step j the slot groups
// are halved with the automorphism x -> x^{(N>>j)+1}, adding the original
// and a power-of-x-shifted copy so that after ceil(log2(count)) steps,
// output k encrypts coefficient k of the input scaled by the doubling
// factor the client pre-divided out.
func (s *Server) expandCiphertext(ct *rlwe.Ciphertext, count int) ([]*rlwe.Ciphertext, error) {
	n := s.scheme.N()
	logN := ring.Log2(uint64(n))
	depth := ring.CeilLog2(uint64(count))

	cts := []*rlwe.Ciphertext{ct}
	for j := 0; j < depth; j++ {
		next := make([]*rlwe.Ciphertext, 0, len(cts)*2)
		shift := 1 << uint(j)
		power := logN - j
		for _, c := range cts {
			shifted, err := s.ev.MultiplyPowerOfX(c, -shift)
			if err != nil {
				return nil, err
			}
			rotC, err := s.applyExpansionAutomorphism(c, power)
			if err != nil {
				return nil, err
			}
			rotShifted, err := s.applyExpansionAutomorphism(shifted, power)
			if err != nil {
				return nil, err
			}
			even, err := s.ev.Add(c, rotC)
			if err != nil {
				return nil, err
			}
			odd, err := s.ev.Add(shifted, rotShifted)
			if err != nil {
				return nil, err
			}
			next = append(next, even, odd)
		}
		// Interleave back into coefficient order: position k of the input
		// maps to output k via its bit decomposition.
		cts = reorderExpansion(next)
	}
	return cts[:count], nil
}

// reorderExpansion restores coefficient order after one halving step: the
// step emits [even..., odd...] pairs per input; recombining them as
// even/odd interleave keeps output k aligned with coefficient k.
func reorderExpansion(step []*rlwe.Ciphertext) []*rlwe.Ciphertext {
	half := len(step) / 2
	out := make([]*rlwe.Ciphertext, len(step))
	for i := 0; i < half; i++ {
		out[i] = step[2*i]
		out[half+i] = step[2*i+1]
	}
	return out
}

// applyExpansionAutomorphism applies x -> x^{2^power+1}, emulating a missing
// Galois key by applying the next-lower element twice: (2^{m-1}+1)^2 =
// 2^m+1 (mod 2N) whenever 2(m-1) >= log2(N)+1, which the compressed key
// ranges guarantee.
func (s *Server) applyExpansionAutomorphism(ct *rlwe.Ciphertext, power int) (*rlwe.Ciphertext, error) {
	galEl := uint64(1)<<uint(power) + 1
	if s.ev.HasGaloisKey(galEl) {
		return s.ev.ApplyGalois(ct, galEl)
	}
	logN := ring.Log2(uint64(s.scheme.N()))
	if 2*(power-1) < logN+1 {
		return nil, rlwe.ErrNoGaloisKey
	}
	half, err := s.applyExpansionAutomorphism(ct, power-1)
	if err != nil {
		return nil, err
	}
	return s.applyExpansionAutomorphism(half, power-1)
}
