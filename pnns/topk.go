package pnns

import "golang.org/x/exp/constraints"

// TopK returns the indices of the k largest values, ordered best-first;
// ties resolve to the earlier index. Selection over decoded similarity
// scores, so plain comparable ordering suffices.
func TopK[V constraints.Ordered](values []V, k int) []int {
	if k > len(values) {
		k = len(values)
	}
	picked := make([]bool, len(values))
	out := make([]int, 0, k)
	for len(out) < k {
		best := -1
		for i, v := range values {
			if picked[i] {
				continue
			}
			if best == -1 || v > values[best] {
				best = i
			}
		}
		picked[best] = true
		out = append(out, best)
	}
	return out
}
