package utils

import (
	"math"
	"slices"

	"github.com/rs/zerolog/log"
	"golang.org/x/exp/constraints"
)

// Number is any value an arithmetic aggregator can fold.
type Number interface {
	constraints.Integer | constraints.Float
}

type Pair[F any, S any] struct {
	First  F
	Second S
}

// An imprecise float approximate comparison. "optional" variance with ... args strategy
func FloatEquals(a float64, b float64, inputVariance ...float64) bool {
	variance := 0.001
	if len(inputVariance) >= 1 {
		variance = inputVariance[0]
	}
	return math.Abs(a-b) < variance
}

func Max[T constraints.Ordered](x, y T) T {
	if x < y {
		return y
	}
	return x
}

func Min[T constraints.Ordered](x, y T) T {
	if y < x {
		return y
	}
	return x
}

func MaxSlice[T constraints.Ordered](slice []T) T {
	max := slice[0]
	for i := range slice {
		max = Max(max, slice[i])
	}
	return max
}

func Sum[T Number](slice []T) (sum T) {
	for i := range slice {
		sum += slice[i]
	}
	return sum
}

func Median[T Number](n []T) T {
	return Percentile(n, 50)
}

// Nearest-rank percentile over a sorted copy of n.
func Percentile[T Number](n []T, percentile int) T {
	if len(n) == 0 {
		log.Warn().Msg("WARNING: Percentile called on empty slice")
		return 0
	}
	if len(n) == 1 {
		return n[0]
	}
	copyN := slices.Clone(n)
	slices.Sort(copyN)

	idx := int((float64(percentile) / 100.0) * float64(len(copyN)))
	if idx >= len(copyN) {
		idx = len(copyN) - 1
	}
	return copyN[idx]
}

// Average L1 difference between two equally sized arrays, and the largest single difference.
func ResultCompare[T Number](a []T, b []T) (avgL1Diff float64, maxL1Diff float64) {
	if len(a) == 0 {
		return 0, 0
	}
	for i := range a {
		l1delta := math.Abs(float64(b[i]) - float64(a[i]))
		avgL1Diff += l1delta
		maxL1Diff = Max(maxL1Diff, l1delta)
	}
	return avgL1Diff / float64(len(a)), maxL1Diff
}
