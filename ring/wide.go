package ring

import "math/big"

// lazyAccumulationBound returns floor((2^128 - 1 - q) / (q-1)^2): the number
// of unreduced products of two values below q that a 128-bit accumulator can
// absorb with one q of headroom. Runs once per Chain construction, so
// math/big's overhead is immaterial.
func lazyAccumulationBound(q T) int {
	num := new(big.Int).Lsh(big.NewInt(1), 128)
	num.Sub(num, big.NewInt(1))
	num.Sub(num, new(big.Int).SetUint64(q))
	den := new(big.Int).SetUint64(q - 1)
	den.Mul(den, den)
	num.Quo(num, den)
	if !num.IsInt64() {
		return int(^uint(0) >> 1)
	}
	return int(num.Int64())
}
