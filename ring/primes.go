package ring

import "fmt"

// GenerateNTTPrimes returns count distinct primes congruent to 1 mod 2N,
// each of the requested bit length, scanning downward from the largest
// candidate, as lattigo's GenerateNTTPrimes (primes.go). Variable-time: runs
// at parameter-generation time on public inputs only.
func GenerateNTTPrimes(n int, bitLen, count int) ([]T, error) {
	if !IsPowerOfTwo(uint64(n)) {
		return nil, fmt.Errorf("%w: N=%d", ErrInvalidDegree, n)
	}
	if bitLen < CeilLog2(uint64(2*n))+1 || bitLen > maxModulusBits {
		return nil, fmt.Errorf("%w: bit length %d out of range", ErrInvalidModulus, bitLen)
	}

	step := T(2 * n)
	// Largest candidate of the form k*2N+1 strictly below 2^bitLen.
	candidate := (T(1)<<uint(bitLen)-2)/step*step + 1

	primes := make([]T, 0, count)
	for candidate > T(1)<<uint(bitLen-1) {
		if IsPrime(candidate) {
			primes = append(primes, candidate)
			if len(primes) == count {
				return primes, nil
			}
		}
		candidate -= step
	}
	return nil, fmt.Errorf("%w: not enough %d-bit primes congruent to 1 mod %d", ErrInvalidModulus, bitLen, 2*n)
}

// GenerateNTTPrimesAvoiding is as GenerateNTTPrimes but skips any prime in
// the avoid set, used when the extension basis of a tensor product must stay
// coprime with the ciphertext moduli.
func GenerateNTTPrimesAvoiding(n int, bitLen, count int, avoid []T) ([]T, error) {
	skip := make(map[T]bool, len(avoid))
	for _, q := range avoid {
		skip[q] = true
	}
	batch, err := GenerateNTTPrimes(n, bitLen, count+len(avoid))
	if err != nil {
		return nil, err
	}
	out := make([]T, 0, count)
	for _, q := range batch {
		if !skip[q] {
			out = append(out, q)
			if len(out) == count {
				return out, nil
			}
		}
	}
	return nil, fmt.Errorf("%w: not enough primes after exclusions", ErrInvalidModulus)
}
