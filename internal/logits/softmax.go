package logits

import (
	"math"

	"golang.org/x/exp/constraints"
)

// LogSoftmax returns log(softmax(x)) computed with max subtraction and
// float64 accumulation. The input is not modified.
func LogSoftmax[F constraints.Float](x []F) []F {
	out := make([]F, len(x))
	if len(x) == 0 {
		return out
	}
	maxv := math.Inf(-1)
	for _, v := range x {
		if float64(v) > maxv {
			maxv = float64(v)
		}
	}
	if math.IsInf(maxv, -1) {
		// Every entry is -Inf: the distribution carries no mass.
		for i := range out {
			out[i] = F(math.Inf(-1))
		}
		return out
	}
	var sum float64
	for _, v := range x {
		sum += math.Exp(float64(v) - maxv)
	}
	logZ := maxv + math.Log(sum)
	for i, v := range x {
		out[i] = F(float64(v) - logZ)
	}
	return out
}

// Mean returns the elementwise arithmetic mean of equal-length vectors.
func Mean[F constraints.Float](xs [][]F) []F {
	if len(xs) == 0 {
		return nil
	}
	out := make([]F, len(xs[0]))
	n := float64(len(xs))
	for j := range out {
		var sum float64
		for _, x := range xs {
			sum += float64(x[j])
		}
		out[j] = F(sum / n)
	}
	return out
}
