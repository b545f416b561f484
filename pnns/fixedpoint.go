package pnns

import (
	"math"
	"math/big"

	"github.com/ALTree/bigfloat"

	"rlwekernel/ring"
)

// Fixed-point encoding of float vectors for the cosine-similarity pipeline:
// rows are L2-normalized, scaled, rounded to the nearest integer, and
// reduced into each plaintext modulus. The server then scores by scaled
// inner products of normalized vectors.

// NormalizeScaleRound maps each row to unit L2 length, multiplies by
// scalingFactor, and rounds to nearest; an all-zero row stays zero.
func NormalizeScaleRound(rows [][]float64, scalingFactor float64) [][]int64 {
	out := make([][]int64, len(rows))
	for i, row := range rows {
		norm := 0.0
		for _, v := range row {
			norm += v * v
		}
		norm = math.Sqrt(norm)
		out[i] = make([]int64, len(row))
		if norm == 0 {
			continue
		}
		for j, v := range row {
			out[i][j] = int64(math.Round(v / norm * scalingFactor))
		}
	}
	return out
}

// ReduceMod maps signed fixed-point values into [0, t), row-major.
func ReduceMod(rows [][]int64, t uint64) []uint64 {
	var out []uint64
	for _, row := range rows {
		for _, v := range row {
			out = append(out, ring.CenteredToRemainder(v, t))
		}
	}
	return out
}

// CRTCompose recombines per-modulus residues into the value mod the product
// of the moduli. The product must fit 64 bits.
func CRTCompose(residues []uint64, moduli []uint64) uint64 {
	prod := big.NewInt(1)
	for _, t := range moduli {
		prod.Mul(prod, new(big.Int).SetUint64(t))
	}
	acc := new(big.Int)
	term := new(big.Int)
	for i, t := range moduli {
		ti := new(big.Int).SetUint64(t)
		mi := new(big.Int).Div(prod, ti)
		inv := new(big.Int).ModInverse(mi, ti)
		term.SetUint64(residues[i])
		term.Mul(term, mi)
		term.Mul(term, inv)
		acc.Add(acc, term)
	}
	acc.Mod(acc, prod)
	return acc.Uint64()
}

// CenterAndScale recenters a composed score into [-T/2, T/2) for T the
// plaintext-modulus product and divides by scalingFactor^2, recovering the
// float inner product of the normalized vectors.
func CenterAndScale(composed uint64, moduli []uint64, scalingFactor float64) float64 {
	t := uint64(1)
	for _, m := range moduli {
		t *= m
	}
	centered := ring.RemainderToCentered(composed, t)
	return float64(centered) / (scalingFactor * scalingFactor)
}

// ErrorBound returns the worst-case absolute error between a decoded score
// and the exact inner product of the unit vectors, for dimension k and the
// given scaling factor: each rounded component is off by at most 1/2, so
// the inner product drifts by at most k*(1/sf + 1/(4*sf^2)).
func ErrorBound(vectorDimension int, scalingFactor float64) float64 {
	sf := big.NewFloat(scalingFactor)
	sf2 := bigfloat.Pow(sf, big.NewFloat(2))

	linear := new(big.Float).Quo(big.NewFloat(1), sf)
	quadratic := new(big.Float).Quo(big.NewFloat(0.25), sf2)
	sum := new(big.Float).Add(linear, quadratic)
	sum.Mul(sum, big.NewFloat(float64(vectorDimension)))

	out, _ := sum.Float64()
	return out
}
