package keywordpir

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"

	"rlwekernel/ring"
	"rlwekernel/rlwe"
)

func testScheme(t *testing.T) *rlwe.Parameters {
	t.Helper()
	q, err := ring.GenerateNTTPrimes(32, 45, 3)
	require.NoError(t, err)
	scheme, err := rlwe.NewParameters(32, q, 257)
	require.NoError(t, err)
	return scheme
}

func testConfig() Config {
	return Config{
		Cuckoo: CuckooConfig{
			HashFunctionCount:       3,
			MaxEvictionCount:        100,
			MaxSerializedBucketSize: 64,
			AllowExpansion:          true,
		},
		DimensionCount: 1,
	}
}

type testInstance struct {
	scheme *rlwe.Parameters
	db     *ProcessedDatabase
	client *Client
	server *Server
}

func setupKeywordPIR(t *testing.T, rows []KeywordValuePair) *testInstance {
	t.Helper()
	scheme := testScheme(t)
	prng, err := ring.NewKeyedPRNG([]byte("keywordpir-test"))
	require.NoError(t, err)

	db, err := ProcessDatabase(rows, testConfig(), scheme, prng)
	require.NoError(t, err)

	kg := rlwe.NewKeyGenerator(scheme.Context())
	sk, err := kg.GenSecretKey(prng)
	require.NoError(t, err)
	eks, err := kg.GenEvaluationKeySet(prng, sk, db.Param.EvaluationKey.GaloisElements, db.Param.EvaluationKey.HasRelinearizationKey)
	require.NoError(t, err)

	server, err := NewServer(db, scheme, eks)
	require.NoError(t, err)
	client := NewClient(db.Param, db.BucketsPerTable, scheme, sk, prng)

	return &testInstance{scheme: scheme, db: db, client: client, server: server}
}

// TestKeywordPirEndToEnd is scenario S5: three keywords with 3-byte values,
// hash function count 3; present keywords decrypt to their values, an
// absent keyword returns nil, and a duplicate insert fails.
func TestKeywordPirEndToEnd(t *testing.T) {
	rows := []KeywordValuePair{
		{Keyword: []byte("alice"), Value: []byte{1, 2, 3}},
		{Keyword: []byte("bob"), Value: []byte{4, 5, 6}},
		{Keyword: []byte("carol"), Value: []byte{7, 8, 9}},
	}
	inst := setupKeywordPIR(t, rows)

	for _, row := range rows {
		query, err := inst.client.GenerateQuery(row.Keyword)
		require.NoError(t, err)
		resp, err := inst.server.ComputeResponse(query)
		require.NoError(t, err)
		got, err := inst.client.Decrypt(resp, row.Keyword)
		require.NoError(t, err)
		require.Equal(t, row.Value, got, "keyword %s", row.Keyword)
	}

	t.Run("absentKeyword", func(t *testing.T) {
		query, err := inst.client.GenerateQuery([]byte("dave"))
		require.NoError(t, err)
		resp, err := inst.server.ComputeResponse(query)
		require.NoError(t, err)
		got, err := inst.client.Decrypt(resp, []byte("dave"))
		require.NoError(t, err)
		require.Nil(t, got)
	})

	t.Run("duplicateKeyword", func(t *testing.T) {
		dup := append(rows, KeywordValuePair{Keyword: []byte("alice"), Value: []byte{9, 9, 9}})
		prng, err := ring.NewKeyedPRNG([]byte("dup"))
		require.NoError(t, err)
		_, err = ProcessDatabase(dup, testConfig(), inst.scheme, prng)
		require.ErrorIs(t, err, ErrInvalidDatabaseDuplicateKeyword)
	})
}

func TestKeywordPirManyRows(t *testing.T) {
	rows := make([]KeywordValuePair, 40)
	for i := range rows {
		rows[i] = KeywordValuePair{
			Keyword: []byte(fmt.Sprintf("key-%03d", i)),
			Value:   []byte{byte(i), byte(i * 2), byte(i * 3), byte(i * 4)},
		}
	}
	inst := setupKeywordPIR(t, rows)

	for _, i := range []int{0, 13, 39} {
		query, err := inst.client.GenerateQuery(rows[i].Keyword)
		require.NoError(t, err)
		resp, err := inst.server.ComputeResponse(query)
		require.NoError(t, err)
		got, err := inst.client.Decrypt(resp, rows[i].Keyword)
		require.NoError(t, err)
		require.Equal(t, rows[i].Value, got, "row %d", i)
	}
}

func TestCountEntriesInResponse(t *testing.T) {
	rows := []KeywordValuePair{
		{Keyword: []byte("alice"), Value: []byte{1}},
		{Keyword: []byte("bob"), Value: []byte{2}},
	}
	inst := setupKeywordPIR(t, rows)

	query, err := inst.client.GenerateQuery([]byte("alice"))
	require.NoError(t, err)
	resp, err := inst.server.ComputeResponse(query)
	require.NoError(t, err)

	// The retrieved plaintext windows contain at most the stored entries,
	// each counted once per bucket that holds it.
	n, err := inst.client.CountEntriesInResponse(resp)
	require.NoError(t, err)
	require.GreaterOrEqual(t, n, 0)
	require.LessOrEqual(t, n, len(rows)*inst.db.Param.BatchSize)
}

func TestBucketSerializationRoundTrip(t *testing.T) {
	b := &hashBucket{entries: []bucketEntry{
		{tag: 0xDEADBEEF, value: []byte{1, 2, 3}},
		{tag: 42, value: nil},
		{tag: 7, value: []byte{0xFF}},
	}}
	buf, err := b.serialize()
	require.NoError(t, err)
	require.Len(t, buf, b.serializedSize())

	// Decoding tolerates trailing zero padding, the PIR window shape.
	padded := append(buf, make([]byte, 10)...)
	got, n, err := deserializeBucket(padded)
	require.NoError(t, err)
	require.Equal(t, len(buf), n)
	require.Len(t, got.entries, 3)
	for i, e := range got.entries {
		require.Equal(t, b.entries[i].tag, e.tag)
		require.Equal(t, len(b.entries[i].value), len(e.value))
	}
}

func TestCountEntriesWalksSentinels(t *testing.T) {
	b := &hashBucket{entries: []bucketEntry{{tag: 9, value: []byte{5, 6}}}}
	buf, err := b.serialize()
	require.NoError(t, err)

	raw := make([]byte, 0, 40)
	raw = append(raw, 0, 0, 0) // empty-bucket sentinels
	raw = append(raw, buf...)
	raw = append(raw, 0, 0) // padding
	raw = append(raw, buf...)

	n, err := CountEntries(raw)
	require.NoError(t, err)
	require.Equal(t, 2, n)
}

func TestCuckooFixedSizeOverflow(t *testing.T) {
	cfg := CuckooConfig{
		HashFunctionCount:       2,
		MaxEvictionCount:        10,
		MaxSerializedBucketSize: 16, // room for one small entry per bucket
		AllowExpansion:          false,
		BucketCount:             1,
	}
	prng, err := ring.NewKeyedPRNG([]byte("cuckoo-overflow"))
	require.NoError(t, err)
	table, err := newCuckooTable(cfg, 8, prng)
	require.NoError(t, err)

	var insertErr error
	for i := 0; i < 8 && insertErr == nil; i++ {
		insertErr = table.insert([]byte(fmt.Sprintf("k%d", i)), []byte{byte(i), 0, 0})
	}
	require.ErrorIs(t, insertErr, ErrFailedToConstructCuckooTable)
}
