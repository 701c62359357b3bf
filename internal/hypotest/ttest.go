// Package hypotest is the hypothesis test library: independent, stateless
// functions that return nil when sample-size preconditions are unmet rather
// than producing a misleading statistic.
package hypotest

import (
	"math"
	"math/rand"

	"labstats/domain/observe"
	"labstats/domain/result"
	"labstats/internal/distrib"
	"labstats/internal/numutil"
)

// DefaultResamples is the bootstrap resample count for difference CIs
const DefaultResamples = 2000

// StudentTTest runs the pooled-variance two-sample t-test. rng may be nil to
// skip the bootstrap CI for the mean difference.
func StudentTTest(a, b []float64, rng *rand.Rand, resamples int) *result.TTestResult {
	n1, n2 := len(a), len(b)
	if n1 < 2 || n2 < 2 {
		return nil
	}

	mean1 := numutil.Mean(a)
	mean2 := numutil.Mean(b)
	var1 := numutil.Variance(a, observe.VarianceSample)
	var2 := numutil.Variance(b, observe.VarianceSample)

	pooled := ((float64(n1-1))*var1 + (float64(n2-1))*var2) / float64(n1+n2-2)
	se := math.Sqrt(pooled * (1/float64(n1) + 1/float64(n2)))
	df := float64(n1 + n2 - 2)

	t := 0.0
	if se > 0 {
		t = (mean1 - mean2) / se
	}

	res := &result.TTestResult{
		Method:   "student",
		T:        t,
		DF:       df,
		P:        distrib.TTestPValue(t, df),
		MeanA:    mean1,
		MeanB:    mean2,
		MeanDiff: mean1 - mean2,
		NA:       n1,
		NB:       n2,
	}
	res.CohenD, res.HedgesG = effectSizes(mean1, mean2, var1, var2, n1, n2)
	attachDiffCI(res, a, b, false, resamples, rng)
	return res
}

// WelchTTest runs the unequal-variance two-sample t-test with the
// Satterthwaite df approximation.
func WelchTTest(a, b []float64, rng *rand.Rand, resamples int) *result.TTestResult {
	n1, n2 := len(a), len(b)
	if n1 < 2 || n2 < 2 {
		return nil
	}

	mean1 := numutil.Mean(a)
	mean2 := numutil.Mean(b)
	var1 := numutil.Variance(a, observe.VarianceSample)
	var2 := numutil.Variance(b, observe.VarianceSample)

	v1n := var1 / float64(n1)
	v2n := var2 / float64(n2)
	se := math.Sqrt(v1n + v2n)

	t := 0.0
	df := float64(n1 + n2 - 2)
	if se > 0 {
		t = (mean1 - mean2) / se
		df = (v1n + v2n) * (v1n + v2n) /
			(v1n*v1n/float64(n1-1) + v2n*v2n/float64(n2-1))
	}

	res := &result.TTestResult{
		Method:   "welch",
		T:        t,
		DF:       df,
		P:        distrib.TTestPValue(t, df),
		MeanA:    mean1,
		MeanB:    mean2,
		MeanDiff: mean1 - mean2,
		NA:       n1,
		NB:       n2,
	}
	res.CohenD, res.HedgesG = effectSizes(mean1, mean2, var1, var2, n1, n2)
	attachDiffCI(res, a, b, false, resamples, rng)
	return res
}

// PairedTTest runs the dependent-samples t-test over elementwise
// differences. Inputs must be equal length with at least 2 pairs.
func PairedTTest(a, b []float64, rng *rand.Rand, resamples int) *result.TTestResult {
	if len(a) != len(b) || len(a) < 2 {
		return nil
	}
	n := len(a)

	diffs := make([]float64, n)
	for i := range a {
		diffs[i] = a[i] - b[i]
	}
	meanD := numutil.Mean(diffs)
	sdD := numutil.StdDev(diffs, observe.VarianceSample)

	t := 0.0
	if sdD > 0 {
		t = meanD / (sdD / math.Sqrt(float64(n)))
	}
	df := float64(n - 1)

	mean1 := numutil.Mean(a)
	mean2 := numutil.Mean(b)
	var1 := numutil.Variance(a, observe.VarianceSample)
	var2 := numutil.Variance(b, observe.VarianceSample)

	res := &result.TTestResult{
		Method:   "paired",
		T:        t,
		DF:       df,
		P:        distrib.TTestPValue(t, df),
		MeanA:    mean1,
		MeanB:    mean2,
		MeanDiff: meanD,
		NA:       n,
		NB:       n,
	}
	res.CohenD, res.HedgesG = effectSizes(mean1, mean2, var1, var2, n, n)
	attachDiffCI(res, a, b, true, resamples, rng)
	return res
}

// effectSizes returns Cohen's d (pooled sd) and Hedges' g (bias-corrected
// with 1 - 3/(4*nTotal-9)).
func effectSizes(mean1, mean2, var1, var2 float64, n1, n2 int) (d, g float64) {
	pooledSD := math.Sqrt(((float64(n1-1))*var1 + (float64(n2-1))*var2) / float64(n1+n2-2))
	if pooledSD == 0 {
		return 0, 0
	}
	d = (mean1 - mean2) / pooledSD

	nTotal := n1 + n2
	if nTotal < 3 {
		return d, d
	}
	correction := 1 - 3/(4*float64(nTotal)-9)
	return d, d * correction
}

func attachDiffCI(res *result.TTestResult, a, b []float64, paired bool, resamples int, rng *rand.Rand) {
	if rng == nil {
		return
	}
	if resamples <= 0 {
		resamples = DefaultResamples
	}
	if ci := MeanDifferenceCI(a, b, paired, resamples, rng); ci != nil {
		res.DiffCI = ci
		res.Resamples = resamples
	}
}
