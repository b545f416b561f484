package pnns

import (
	"math"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"

	"rlwekernel/ring"
	"rlwekernel/rlwe"
)

func testParams(t *testing.T, plaintextModulus uint64) *rlwe.Parameters {
	t.Helper()
	q, err := ring.GenerateNTTPrimes(32, 45, 3)
	require.NoError(t, err)
	params, err := rlwe.NewParameters(32, q, plaintextModulus)
	require.NoError(t, err)
	require.True(t, params.SupportsSIMD())
	return params
}

// TestBSGSMatrixVector is scenario S6: the 4x4 matrix [[1..4],...,[13..16]]
// against v = [1,2,3,4] with diagonal packing and BSGS(2,2) yields the
// dense-column vector [30, 70, 110, 150].
func TestBSGSMatrixVector(t *testing.T) {
	params := testParams(t, 65537)
	prng, err := ring.NewKeyedPRNG([]byte("pnns-s6"))
	require.NoError(t, err)

	dims := MatrixDimensions{RowCount: 4, ColumnCount: 4}
	bsgs, err := NewBabyStepGiantStepExplicit(4, 2, 2)
	require.NoError(t, err)

	values := make([]uint64, 16)
	for i := range values {
		values[i] = uint64(i + 1)
	}
	pm, err := NewPlaintextMatrix(values, dims, Packing{Kind: PackingDiagonal, BSGS: &bsgs}, params)
	require.NoError(t, err)

	kg := rlwe.NewKeyGenerator(params.Context())
	sk, err := kg.GenSecretKey(prng)
	require.NoError(t, err)
	eks, err := kg.GenEvaluationKeySet(prng, sk, EvaluationKeyGaloisElements(dims, bsgs, params), false)
	require.NoError(t, err)

	vec, err := EncryptMatrix([]uint64{1, 2, 3, 4}, MatrixDimensions{RowCount: 1, ColumnCount: 4},
		Packing{Kind: PackingDenseRow}, params, sk, prng)
	require.NoError(t, err)

	engine, err := NewEngine(params, eks)
	require.NoError(t, err)
	result, err := engine.MulTransposeVector(pm, vec)
	require.NoError(t, err)
	require.Len(t, result, 1)

	out := &CiphertextMatrix{
		Dimensions:  MatrixDimensions{RowCount: 4, ColumnCount: 1},
		Packing:     Packing{Kind: PackingDenseColumn},
		Ciphertexts: result,
	}
	got, err := DecryptMatrix(out, params, sk)
	require.NoError(t, err)
	require.Equal(t, []uint64{30, 70, 110, 150}, got)
}

func TestExtractDenseRow(t *testing.T) {
	params := testParams(t, 65537)
	prng, err := ring.NewKeyedPRNG([]byte("pnns-extract"))
	require.NoError(t, err)

	dims := MatrixDimensions{RowCount: 3, ColumnCount: 4}
	values := []uint64{
		1, 2, 3, 4,
		5, 6, 7, 8,
		9, 10, 11, 12,
	}

	kg := rlwe.NewKeyGenerator(params.Context())
	sk, err := kg.GenSecretKey(prng)
	require.NoError(t, err)
	bsgs, err := NewBabyStepGiantStep(4)
	require.NoError(t, err)
	eks, err := kg.GenEvaluationKeySet(prng, sk, EvaluationKeyGaloisElements(dims, bsgs, params), false)
	require.NoError(t, err)

	cm, err := EncryptMatrix(values, dims, Packing{Kind: PackingDenseRow}, params, sk, prng)
	require.NoError(t, err)

	engine, err := NewEngine(params, eks)
	require.NoError(t, err)

	for row := 0; row < 3; row++ {
		extracted, err := engine.ExtractDenseRow(cm, row)
		require.NoError(t, err)
		require.Equal(t, 1, extracted.Dimensions.RowCount)

		got, err := DecryptMatrix(extracted, params, sk)
		require.NoError(t, err)
		require.Equal(t, values[row*4:(row+1)*4], got, "row %d", row)
	}
}

// TestMulTransposeFixedPoint exercises the full cosine-similarity pipeline
// (testable property 7): normalized float matrices, encrypted query, BSGS
// scoring, decode, against the plain product within the fixed-point error
// bound.
func TestMulTransposeFixedPoint(t *testing.T) {
	const scalingFactor = 100.0
	cfg, err := NewServerConfig(32, testQModuli(t), []uint64{65537}, scalingFactor, CosineSimilarity)
	require.NoError(t, err)

	vectors := [][]float64{
		{1, 0, 2, -1, 0.5},
		{-2, 1, 0, 3, 1},
		{0.5, 0.5, -0.5, 0.5, 2},
		{4, -1, 1, 0, 0},
		{0, 2, 2, 1, -1},
		{1, 1, 1, 1, 1},
	}
	db := &Database{
		Vectors:        vectors,
		EntryIDs:       []uint64{10, 11, 12, 13, 14, 15},
		EntryMetadatas: [][]byte{{0}, {1}, {2}, {3}, {4}, {5}},
	}
	processed, err := ProcessDatabase(db, cfg)
	require.NoError(t, err)

	prng, err := ring.NewKeyedPRNG([]byte("pnns-pipeline"))
	require.NoError(t, err)
	client, err := NewClient(cfg, prng)
	require.NoError(t, err)
	keySets, err := client.GenerateEvaluationKeys(processed.Dims, processed.BSGS, prng)
	require.NoError(t, err)
	server, err := NewServer(processed, keySets)
	require.NoError(t, err)

	queries := [][]float64{
		{1, 1, 0, 0, 1},
		{-1, 2, 0.5, 1, 0},
		{0, 0, 1, 0, 0},
	}
	query, err := client.GenerateQuery(queries, prng)
	require.NoError(t, err)
	resp, err := server.ComputeResponse(query)
	require.NoError(t, err)
	require.Equal(t, db.EntryIDs, resp.EntryIDs)

	scores, err := client.DecodeResponse(resp)
	require.NoError(t, err)
	require.Len(t, scores, len(queries))

	// ErrorBound already covers fixed-point drift on both sides of the
	// product; the factor 2 is headroom.
	bound := 2 * ErrorBound(5, scalingFactor)
	for q, qv := range queries {
		for r, rv := range vectors {
			want := cosine(qv, rv)
			require.InDelta(t, want, scores[q][r], bound, "query %d row %d", q, r)
		}
	}

	t.Run("nearest", func(t *testing.T) {
		nearest := client.Nearest(scores, 2)
		require.Len(t, nearest, len(queries))
		for q := range nearest {
			require.Len(t, nearest[q], 2)
			best := nearest[q][0]
			for r := range vectors {
				require.GreaterOrEqual(t, scores[q][best]+1e-9, scores[q][r])
			}
		}
	})
}

func TestPlaintextCRTCompose(t *testing.T) {
	const scalingFactor = 500.0
	moduli := []uint64{65537, 12289}
	cfg, err := NewServerConfig(32, testQModuli(t), moduli, scalingFactor, CosineSimilarity)
	require.NoError(t, err)

	vectors := [][]float64{
		{1, 2, 3, 4},
		{-4, 3, -2, 1},
		{0, 1, 0, -1},
		{2, 2, 2, 2},
	}
	processed, err := ProcessDatabase(&Database{Vectors: vectors}, cfg)
	require.NoError(t, err)

	prng, err := ring.NewKeyedPRNG([]byte("pnns-crt"))
	require.NoError(t, err)
	client, err := NewClient(cfg, prng)
	require.NoError(t, err)
	keySets, err := client.GenerateEvaluationKeys(processed.Dims, processed.BSGS, prng)
	require.NoError(t, err)
	server, err := NewServer(processed, keySets)
	require.NoError(t, err)

	queries := [][]float64{{1, 0, -1, 2}}
	query, err := client.GenerateQuery(queries, prng)
	require.NoError(t, err)
	resp, err := server.ComputeResponse(query)
	require.NoError(t, err)
	scores, err := client.DecodeResponse(resp)
	require.NoError(t, err)

	bound := 2 * ErrorBound(4, scalingFactor)
	for r, rv := range vectors {
		require.InDelta(t, cosine(queries[0], rv), scores[0][r], bound, "row %d", r)
	}
}

func TestPackingRoundTrips(t *testing.T) {
	params := testParams(t, 65537)
	dims := MatrixDimensions{RowCount: 3, ColumnCount: 5}
	values := make([]uint64, dims.Count())
	for i := range values {
		values[i] = uint64(i + 1)
	}

	for _, kind := range []PackingKind{PackingDenseRow, PackingDenseColumn} {
		packing := Packing{Kind: kind}
		slots, err := packSlots(values, dims, packing, params)
		require.NoError(t, err)
		back, err := unpackSlots(slots, dims, packing, params)
		require.NoError(t, err)
		if diff := cmp.Diff(values, back); diff != "" {
			t.Fatalf("%v round trip mismatch (-want +got):\n%s", packing, diff)
		}
	}
}

func TestBabyStepGiantStepNormalization(t *testing.T) {
	bsgs, err := NewBabyStepGiantStepExplicit(16, 2, 8)
	require.NoError(t, err)
	require.GreaterOrEqual(t, bsgs.BabyStep, bsgs.GiantStep)
	require.GreaterOrEqual(t, bsgs.BabyStep*bsgs.GiantStep, 16)

	_, err = NewBabyStepGiantStepExplicit(16, 2, 2)
	require.ErrorIs(t, err, ErrInvalidMatrixDimensions)

	_, err = NewMatrixDimensions(0, 4)
	require.ErrorIs(t, err, ErrInvalidMatrixDimensions)
}

func TestCRTComposeAndCenter(t *testing.T) {
	moduli := []uint64{65537, 12289}
	// -42 scaled by 1: residues of the centered value.
	v := int64(-42)
	residues := []uint64{
		ring.CenteredToRemainder(v, moduli[0]),
		ring.CenteredToRemainder(v, moduli[1]),
	}
	composed := CRTCompose(residues, moduli)
	got := CenterAndScale(composed, moduli, 1)
	require.Equal(t, float64(v), got)
}

func TestNormalizeScaleRound(t *testing.T) {
	rows := [][]float64{{3, 4}, {0, 0}}
	fixed := NormalizeScaleRound(rows, 10)
	require.Equal(t, []int64{6, 8}, fixed[0]) // (0.6, 0.8) * 10
	require.Equal(t, []int64{0, 0}, fixed[1])

	norm := math.Hypot(float64(fixed[0][0]), float64(fixed[0][1]))
	require.InDelta(t, 10, norm, 1)
}

func TestTopK(t *testing.T) {
	require.Equal(t, []int{2, 0}, TopK([]float64{3, 1, 5, 2}, 2))
	require.Equal(t, []int{1, 0, 2}, TopK([]int{5, 9, 1}, 8))
}

func TestErrorBoundShrinksWithScaling(t *testing.T) {
	loose := ErrorBound(128, 100)
	tight := ErrorBound(128, 10000)
	require.Greater(t, loose, tight)
	require.Greater(t, tight, 0.0)
}

func testQModuli(t *testing.T) []uint64 {
	t.Helper()
	q, err := ring.GenerateNTTPrimes(32, 45, 3)
	require.NoError(t, err)
	return q
}

func cosine(a, b []float64) float64 {
	var dot, na, nb float64
	for i := range a {
		dot += a[i] * b[i]
		na += a[i] * a[i]
		nb += b[i] * b[i]
	}
	return dot / math.Sqrt(na) / math.Sqrt(nb)
}
