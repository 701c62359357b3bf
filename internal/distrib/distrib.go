// Package distrib is the single home for distribution lookups. Every
// p-value and critical value in the engine goes through these helpers so no
// component hand-rolls its own CDF approximation.
package distrib

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/stat/distuv"
)

// TTestPValue computes the two-tailed p-value for a t statistic
func TTestPValue(tStatistic, degreesOfFreedom float64) float64 {
	if degreesOfFreedom <= 0 {
		return 1.0
	}
	tDist := distuv.StudentsT{Mu: 0, Sigma: 1, Nu: degreesOfFreedom}
	return 2 * (1 - tDist.CDF(math.Abs(tStatistic)))
}

// TCritical returns the two-sided critical t value for the given confidence
// level, e.g. 0.95 gives the 0.975 quantile.
func TCritical(degreesOfFreedom float64, confidenceLevel float64) float64 {
	if degreesOfFreedom <= 0 {
		return math.NaN()
	}
	alpha := 1 - confidenceLevel
	tDist := distuv.StudentsT{Mu: 0, Sigma: 1, Nu: degreesOfFreedom}
	return tDist.Quantile(1 - alpha/2)
}

// FPValue computes the upper-tail p-value for an F statistic
func FPValue(fStatistic float64, df1, df2 int) float64 {
	if df1 <= 0 || df2 <= 0 {
		return 1.0
	}
	fDist := distuv.F{D1: float64(df1), D2: float64(df2)}
	return 1 - fDist.CDF(fStatistic)
}

// ChiSquarePValue computes the upper-tail p-value for a chi-square statistic
func ChiSquarePValue(chiSquare float64, degreesOfFreedom int) float64 {
	if degreesOfFreedom <= 0 {
		return 1.0
	}
	chiDist := distuv.ChiSquared{K: float64(degreesOfFreedom)}
	return 1 - chiDist.CDF(chiSquare)
}

// NormalCDF is the standard normal cumulative distribution function
func NormalCDF(x float64) float64 {
	return distuv.UnitNormal.CDF(x)
}

// NormalQuantile is the standard normal inverse CDF
func NormalQuantile(p float64) float64 {
	return distuv.UnitNormal.Quantile(p)
}

// ZPValueTwoSided converts a z score to a two-tailed normal p-value
func ZPValueTwoSided(z float64) float64 {
	return 2 * (1 - NormalCDF(math.Abs(z)))
}

// PercentileCI computes the percentile interval of bootstrap samples at the
// given confidence level.
func PercentileCI(samples []float64, confidenceLevel float64) (lower, upper float64) {
	if len(samples) == 0 {
		return 0, 0
	}
	if confidenceLevel <= 0 || confidenceLevel >= 1 {
		confidenceLevel = 0.95
	}

	sorted := make([]float64, len(samples))
	copy(sorted, samples)
	sort.Float64s(sorted)

	alpha := 1 - confidenceLevel
	lowerIdx := int(math.Round(float64(len(sorted)-1) * (alpha / 2)))
	upperIdx := int(math.Round(float64(len(sorted)-1) * (1 - alpha/2)))
	if lowerIdx >= len(sorted) {
		lowerIdx = len(sorted) - 1
	}
	if upperIdx >= len(sorted) {
		upperIdx = len(sorted) - 1
	}
	return sorted[lowerIdx], sorted[upperIdx]
}
