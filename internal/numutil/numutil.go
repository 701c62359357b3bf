// Package numutil holds the shared numeric primitives every statistical
// component builds on: central tendency, dispersion, quantiles, and the
// mid-rank transform required by the rank-based tests.
package numutil

import (
	"math"
	"sort"

	"github.com/montanaflynn/stats"

	"labstats/domain/observe"
)

// Mean returns the arithmetic mean, 0 for an empty slice
func Mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	m, _ := stats.Mean(values)
	return m
}

// Median returns the middle value (mean of the two middle values for even n)
func Median(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	m, _ := stats.Median(values)
	return m
}

// Modes returns every value tied at the maximum repeat count, ascending.
// If no value repeats more than once the result is empty.
func Modes(values []float64) []float64 {
	counts := make(map[float64]int, len(values))
	maxCount := 0
	for _, v := range values {
		counts[v]++
		if counts[v] > maxCount {
			maxCount = counts[v]
		}
	}
	if maxCount < 2 {
		return []float64{}
	}
	modes := make([]float64, 0)
	for v, c := range counts {
		if c == maxCount {
			modes = append(modes, v)
		}
	}
	sort.Float64s(modes)
	return modes
}

// Variance computes variance under the requested convention. The sample
// convention divides by n-1 and returns 0 when n <= 1; population divides
// by n.
func Variance(values []float64, convention observe.VarianceConvention) float64 {
	if len(values) == 0 {
		return 0
	}
	if convention == observe.VariancePopulation {
		v, _ := stats.PopulationVariance(values)
		return v
	}
	if len(values) <= 1 {
		return 0
	}
	v, _ := stats.SampleVariance(values)
	return v
}

// StdDev is the square root of Variance under the same convention
func StdDev(values []float64, convention observe.VarianceConvention) float64 {
	return math.Sqrt(Variance(values, convention))
}

// Min returns the smallest value, 0 for an empty slice
func Min(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	m, _ := stats.Min(values)
	return m
}

// Max returns the largest value, 0 for an empty slice
func Max(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	m, _ := stats.Max(values)
	return m
}

// Quantile computes the linear-interpolation quantile of an already-sorted
// sequence. p is clamped to [0,1].
func Quantile(sorted []float64, p float64) float64 {
	n := len(sorted)
	if n == 0 {
		return 0
	}
	if n == 1 {
		return sorted[0]
	}
	if p <= 0 {
		return sorted[0]
	}
	if p >= 1 {
		return sorted[n-1]
	}
	pos := p * float64(n-1)
	lo := int(math.Floor(pos))
	hi := lo + 1
	frac := pos - float64(lo)
	return sorted[lo] + frac*(sorted[hi]-sorted[lo])
}

// SortedCopy returns an ascending copy, leaving the input untouched
func SortedCopy(values []float64) []float64 {
	out := make([]float64, len(values))
	copy(out, values)
	sort.Float64s(out)
	return out
}

// Ranks assigns fractional ("mid-rank") ranks: ties receive the mean of the
// ranks they would occupy. Ranks start at 1.
func Ranks(values []float64) []float64 {
	n := len(values)
	idx := make([]int, n)
	for i := range idx {
		idx[i] = i
	}
	sort.Slice(idx, func(a, b int) bool {
		return values[idx[a]] < values[idx[b]]
	})

	ranks := make([]float64, n)
	i := 0
	for i < n {
		j := i
		for j+1 < n && values[idx[j+1]] == values[idx[i]] {
			j++
		}
		// positions i..j share the average rank
		avg := float64(i+j)/2 + 1
		for k := i; k <= j; k++ {
			ranks[idx[k]] = avg
		}
		i = j + 1
	}
	return ranks
}

// TieGroups returns the size of each group of tied values, for tie-variance
// corrections in rank tests.
func TieGroups(values []float64) []int {
	sorted := SortedCopy(values)
	groups := make([]int, 0)
	i := 0
	for i < len(sorted) {
		j := i
		for j+1 < len(sorted) && sorted[j+1] == sorted[i] {
			j++
		}
		groups = append(groups, j-i+1)
		i = j + 1
	}
	return groups
}
