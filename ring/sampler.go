package ring

import (
	"crypto/rand"
	"io"
	"math"
	"math/big"
	"math/bits"
)

// Sampling entry points each accept an io.Reader (typically a *KeyedPRNG for
// reproducible tests, or a fresh crypto/rand source in production) rather
// than reading from a process-wide default: per the shared-resource policy,
// callers own the thread-safety of whatever generator they pass in. Mirrors
// the split between ring.UniformSampler/TernarySampler (sampler_uniform.go,
// sampler_ternary.go) and the spec's "random source injection" note, adapted
// to take io.Reader instead of the teacher's bespoke PRNG interface.

// SampleUniform fills dst (Coeff format) with coefficients drawn uniformly
// from [0, q_i) per RNS row, via rejection sampling over a full 64-bit draw
// masked to the modulus's bit length, as lattigo's UniformSampler.Read.
func SampleUniform(r io.Reader, dst *PolyRq) error {
	n := dst.N()
	buf := make([]byte, 8)
	for lvl := 0; lvl <= dst.Level(); lvl++ {
		m := dst.ctx.ModulusAt(lvl)
		q := m.Value
		mask := uint64(1)<<uint(bits.Len64(q)) - 1
		row := dst.Coeffs(lvl)
		for i := 0; i < n; i++ {
			for {
				if _, err := io.ReadFull(r, buf); err != nil {
					return err
				}
				v := beUint64(buf) & mask
				if v < q {
					row[i] = v
					break
				}
			}
		}
	}
	dst.format = Coeff
	return nil
}

// SampleTernary fills dst (Coeff format) with coefficients in {-1,0,1} (mod
// q_i per row), each produced from 96 random bits reduced mod 3 then
// shifted down by 1, per the spec's random-sampling section.
func SampleTernary(r io.Reader, dst *PolyRq) error {
	n := dst.N()
	signed := make([]int64, n)
	buf := make([]byte, 12)
	for i := 0; i < n; i++ {
		if _, err := io.ReadFull(r, buf); err != nil {
			return err
		}
		v := new(big.Int).SetBytes(buf)
		v.Mod(v, big.NewInt(3))
		signed[i] = v.Int64() - 1
	}
	return dst.SetCoefficientsInt64(signed)
}

// SampleCenteredBinomial fills dst (Coeff format) with coefficients drawn
// from a centered binomial distribution approximating N(0, sigma^2): k =
// ceil(2*sigma^2), each coefficient draws 2k bits split into two k-bit
// halves and outputs popcount(first) - popcount(second).
func SampleCenteredBinomial(r io.Reader, sigma float64, dst *PolyRq) error {
	k := int(math.Ceil(2 * sigma * sigma))
	if k < 1 {
		k = 1
	}
	n := dst.N()
	nbytes := ceilDiv(k, 8)
	signed := make([]int64, n)
	bufA := make([]byte, nbytes)
	bufB := make([]byte, nbytes)
	for i := 0; i < n; i++ {
		if _, err := io.ReadFull(r, bufA); err != nil {
			return err
		}
		if _, err := io.ReadFull(r, bufB); err != nil {
			return err
		}
		signed[i] = int64(popcountBits(bufA, k)) - int64(popcountBits(bufB, k))
	}
	return dst.SetCoefficientsInt64(signed)
}

func popcountBits(buf []byte, nbits int) int {
	count := 0
	for i := 0; i < nbits; i++ {
		byteIdx, bitIdx := i/8, uint(i%8)
		if (buf[byteIdx]>>bitIdx)&1 == 1 {
			count++
		}
	}
	return count
}

func beUint64(b []byte) uint64 {
	var v uint64
	for _, c := range b {
		v = v<<8 | uint64(c)
	}
	return v
}

// SystemPRNG returns a fresh reader over crypto/rand, for callers that do
// not supply a deterministic generator.
func SystemPRNG() io.Reader { return rand.Reader }
