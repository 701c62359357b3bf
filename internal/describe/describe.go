// Package describe computes per-group descriptive statistics: summary
// numbers, interquartile-fence outlier flags, the approximate normality
// verdict, and the t-based confidence interval.
package describe

import (
	"math"

	"labstats/domain/observe"
	"labstats/domain/result"
	"labstats/internal/distrib"
	"labstats/internal/numutil"
)

// normalityThreshold classifies the Shapiro-Wilk-style W statistic. This is
// a heuristic screen, not an inferential test.
const normalityThreshold = 0.97

// Summaries collapses observations into samples and computes one
// GroupStatistics per non-empty group, in first-appearance order. Groups
// that collapse to nothing are skipped.
func Summaries(rows []observe.Observation, opts observe.ComputeOptions) ([]result.GroupStatistics, []observe.Sample) {
	samples := observe.Collapse(rows, opts)
	stats := make([]result.GroupStatistics, 0, len(samples))
	for _, s := range samples {
		if gs := Group(s, opts); gs != nil {
			stats = append(stats, *gs)
		}
	}
	return stats, samples
}

// Group computes the descriptive record for one collapsed sample. Returns
// nil for an empty sample.
func Group(s observe.Sample, opts observe.ComputeOptions) *result.GroupStatistics {
	if s.IsEmpty() {
		return nil
	}

	values := s.Values
	sorted := numutil.SortedCopy(values)

	mean := numutil.Mean(values)
	sd := numutil.StdDev(values, opts.VarianceConvention)
	variance := numutil.Variance(values, opts.VarianceConvention)

	// SEM always uses the biological replicate count, never technical rows
	nBio := s.NBio
	sem := sd / math.Sqrt(float64(maxInt(nBio, 1)))

	cv := 0.0
	if mean != 0 {
		cv = 100 * sd / math.Abs(mean)
	}

	min := sorted[0]
	max := sorted[len(sorted)-1]

	gs := &result.GroupStatistics{
		Group:     s.Name,
		NBio:      nBio,
		NTech:     s.NTech,
		Mean:      mean,
		Median:    numutil.Median(values),
		Modes:     numutil.Modes(values),
		SD:        sd,
		Variance:  variance,
		SEM:       sem,
		CV:        cv,
		Min:       min,
		Max:       max,
		Range:     max - min,
		Outliers:  fenceOutliers(values, sorted, opts.IQRMultiplier),
		Normality: approximateNormality(sorted),
		Warnings:  s.Warnings,
	}

	if opts.CIMethod == observe.CIT95 && nBio > 1 {
		df := nBio - 1
		tCrit := distrib.TCritical(float64(df), 0.95)
		gs.CI95 = &result.ConfidenceInterval{
			Low:  mean - tCrit*sem,
			High: mean + tCrit*sem,
			DF:   df,
		}
	}

	return gs
}

// fenceOutliers flags values outside q1 - k*IQR .. q3 + k*IQR. Flagged
// values are never removed from the sample.
func fenceOutliers(values, sorted []float64, k float64) result.OutlierFlags {
	if k <= 0 {
		k = 1.5
	}
	q1 := numutil.Quantile(sorted, 0.25)
	q3 := numutil.Quantile(sorted, 0.75)
	iqr := q3 - q1
	low := q1 - k*iqr
	high := q3 + k*iqr

	flags := result.OutlierFlags{LowFence: low, HighFence: high}
	for i, v := range values {
		if v < low || v > high {
			flags.Indices = append(flags.Indices, i)
		}
	}
	flags.Count = len(flags.Indices)
	return flags
}

// approximateNormality classifies a sorted sample by its W statistic.
// Thresholds are heuristic; callers must not treat the verdict as
// p-value-backed.
func approximateNormality(sorted []float64) result.Normality {
	w, ok := WStatistic(sorted)
	if !ok {
		return result.Normality{Verdict: result.NormalityNotReliable}
	}
	verdict := result.NormalityPossiblyNonNorm
	if w >= normalityThreshold {
		verdict = result.NormalityRoughlyNormal
	}
	return result.Normality{W: w, Verdict: verdict}
}

// WStatistic computes a Shapiro-Wilk-style W from normalized expected
// order-statistic scores:
//
//	W = (sum a_i * x_(i))^2 / sum (x_i - mean)^2
//
// with a_i derived from the inverse-normal quantile function over
// Blom-style plotting positions. ok is false when W is undefined: fewer
// than 3 values, or a degenerate sample.
func WStatistic(sorted []float64) (float64, bool) {
	n := len(sorted)
	if n < 3 {
		return 0, false
	}

	scores := make([]float64, n)
	norm := 0.0
	for i := 0; i < n; i++ {
		p := (float64(i+1) - 0.375) / (float64(n) + 0.25)
		scores[i] = distrib.NormalQuantile(p)
		norm += scores[i] * scores[i]
	}
	if norm == 0 {
		return 0, false
	}
	norm = math.Sqrt(norm)

	mean := numutil.Mean(sorted)
	numerator := 0.0
	denominator := 0.0
	for i, x := range sorted {
		numerator += (scores[i] / norm) * x
		denominator += (x - mean) * (x - mean)
	}
	if denominator == 0 {
		// all values identical
		return 0, false
	}

	w := numerator * numerator / denominator
	if math.IsNaN(w) || math.IsInf(w, 0) {
		return 0, false
	}
	return w, true
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
