package ring

import (
	"hash"

	"golang.org/x/crypto/blake2b"
)

// KeyedPRNG is a deterministic, seekable byte stream built on blake2b-512,
// grounded on the teacher's dbfv.PRNG / ring.CRPGenerator (prng.go,
// dbfv/collective_CRS.go): each Clock ratchets the hash state forward, using
// the left half of the digest to reseed and returning the right half as
// output. Two KeyedPRNGs constructed with the same key produce identical
// streams, which is what lets a client and server agree on a common random
// polynomial (or an encryption's random mask) without exchanging it.
type KeyedPRNG struct {
	hash  hash.Hash
	clock uint64
	buf   []byte
	pos   int
}

// NewKeyedPRNG creates a PRNG keyed by key (nil for an unkeyed, purely local
// random source seeded from crypto/rand by the caller).
func NewKeyedPRNG(key []byte) (*KeyedPRNG, error) {
	h, err := blake2b.New512(key)
	if err != nil {
		return nil, err
	}
	return &KeyedPRNG{hash: h}, nil
}

// Clock returns the next 32 bytes of the stream and advances the clock.
func (p *KeyedPRNG) Clock() []byte {
	sum := p.hash.Sum(nil)
	p.hash.Reset()
	p.hash.Write(sum[:32])
	p.clock++
	return sum[32:]
}

// GetClock returns the number of 32-byte blocks produced so far.
func (p *KeyedPRNG) GetClock() uint64 { return p.clock }

// Read fills buf with stream output, satisfying io.Reader so a KeyedPRNG can
// be handed directly to the sampler entry points.
func (p *KeyedPRNG) Read(buf []byte) (int, error) {
	n := 0
	for n < len(buf) {
		if p.pos == len(p.buf) {
			p.buf = p.Clock()
			p.pos = 0
		}
		c := copy(buf[n:], p.buf[p.pos:])
		n += c
		p.pos += c
	}
	return n, nil
}
