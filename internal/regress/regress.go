// Package regress provides correlation measures and ordinary least squares
// with inference on the fitted coefficients.
package regress

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/stat"

	"labstats/domain/observe"
	"labstats/domain/result"
	"labstats/internal/adjust"
	"labstats/internal/distrib"
	"labstats/internal/numutil"
)

// Pearson computes the linear correlation between x and y with a
// t-distributed significance test on df = n-2. Returns nil when fewer than
// 3 complete pairs are available or the lengths differ.
func Pearson(x, y []float64) *result.CorrelationResult {
	return correlate(x, y, "pearson")
}

// Spearman ranks both variables with mid-ranks for ties and correlates the
// ranks. The significance test reuses the t approximation on df = n-2.
func Spearman(x, y []float64) *result.CorrelationResult {
	if len(x) != len(y) || len(x) < 3 {
		return nil
	}
	res := correlate(numutil.Ranks(x), numutil.Ranks(y), "spearman")
	return res
}

func correlate(x, y []float64, method string) *result.CorrelationResult {
	n := len(x)
	if n != len(y) || n < 3 {
		return nil
	}
	r := stat.Correlation(x, y, nil)
	if math.IsNaN(r) {
		return nil
	}

	df := n - 2
	res := &result.CorrelationResult{Method: method, R: r, DF: df, N: n}
	if 1-r*r <= 0 {
		// perfectly collinear; the t statistic diverges
		res.T = math.Inf(int(math.Copysign(1, r)))
		res.P = 0
		return res
	}
	res.T = r * math.Sqrt(float64(df)/(1-r*r))
	res.P = distrib.TTestPValue(res.T, float64(df))
	return res
}

// Linear fits y = intercept + slope*x by ordinary least squares and reports
// standard errors and 95% confidence intervals for both coefficients.
// Returns nil when fewer than 3 points are given or x is constant.
func Linear(x, y []float64) *result.RegressionResult {
	n := len(x)
	if n != len(y) || n < 3 {
		return nil
	}

	meanX := numutil.Mean(x)
	sxx := 0.0
	for _, v := range x {
		sxx += (v - meanX) * (v - meanX)
	}
	if sxx == 0 {
		return nil
	}

	intercept, slope := stat.LinearRegression(x, y, nil, false)

	sse := 0.0
	for i := range x {
		resid := y[i] - (intercept + slope*x[i])
		sse += resid * resid
	}
	df := n - 2
	mse := sse / float64(df)

	seSlope := math.Sqrt(mse / sxx)
	seIntercept := math.Sqrt(mse * (1/float64(n) + meanX*meanX/sxx))
	tcrit := distrib.TCritical(float64(df), 0.95)

	return &result.RegressionResult{
		Slope:       slope,
		Intercept:   intercept,
		R2:          stat.RSquared(x, y, nil, intercept, slope),
		SESlope:     seSlope,
		SEIntercept: seIntercept,
		DF:          df,
		SlopeCI: result.Interval{
			Low:  slope - tcrit*seSlope,
			High: slope + tcrit*seSlope,
		},
		InterceptCI: result.Interval{
			Low:  intercept - tcrit*seIntercept,
			High: intercept + tcrit*seIntercept,
		},
		N: n,
	}
}

// GroupFit pairs a group name with its per-group regression.
type GroupFit struct {
	Name string
	Fit  *result.RegressionResult
}

// CompareSlopes tests every pair of group regressions for slope
// heterogeneity with a two-sample t on the fitted slopes, using the smaller
// of the two residual degrees of freedom. Groups with a nil fit are skipped.
// Adjusted p-values use the caller's method across the whole family.
func CompareSlopes(fits []GroupFit, method observe.AdjustMethod) []result.SlopeComparison {
	usable := make([]GroupFit, 0, len(fits))
	for _, f := range fits {
		if f.Fit != nil {
			usable = append(usable, f)
		}
	}

	var comparisons []result.SlopeComparison
	for i := 0; i < len(usable); i++ {
		for j := i + 1; j < len(usable); j++ {
			a, b := usable[i], usable[j]
			se := math.Sqrt(a.Fit.SESlope*a.Fit.SESlope + b.Fit.SESlope*b.Fit.SESlope)
			if se == 0 {
				continue
			}
			df := a.Fit.DF
			if b.Fit.DF < df {
				df = b.Fit.DF
			}
			t := (a.Fit.Slope - b.Fit.Slope) / se
			comparisons = append(comparisons, result.SlopeComparison{
				PairLabel: fmt.Sprintf("%s vs %s", a.Name, b.Name),
				T:         t,
				DF:        df,
				RawP:      distrib.TTestPValue(t, float64(df)),
			})
		}
	}

	raw := make([]float64, len(comparisons))
	for i := range comparisons {
		raw[i] = comparisons[i].RawP
	}
	adjusted := adjust.Adjust(raw, method)
	for i := range comparisons {
		p := adjusted[i]
		comparisons[i].AdjustedP = &p
	}
	return comparisons
}
