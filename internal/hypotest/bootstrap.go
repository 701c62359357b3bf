package hypotest

import (
	"math/rand"

	"labstats/domain/result"
	"labstats/internal/distrib"
	"labstats/internal/numutil"
)

// MeanDifferenceCI computes a 95% percentile-bootstrap interval for the
// difference of means. Paired designs resample pair indices; independent
// designs resample each arm on its own.
func MeanDifferenceCI(a, b []float64, paired bool, resamples int, rng *rand.Rand) *result.Interval {
	return differenceCI(a, b, paired, resamples, rng, numutil.Mean)
}

// MedianDifferenceCI is MeanDifferenceCI with the median as the statistic
func MedianDifferenceCI(a, b []float64, paired bool, resamples int, rng *rand.Rand) *result.Interval {
	return differenceCI(a, b, paired, resamples, rng, numutil.Median)
}

func differenceCI(a, b []float64, paired bool, resamples int, rng *rand.Rand, statistic func([]float64) float64) *result.Interval {
	if rng == nil || resamples <= 0 {
		return nil
	}
	if paired && len(a) != len(b) {
		return nil
	}
	if len(a) < 2 || len(b) < 2 {
		return nil
	}

	diffs := make([]float64, resamples)
	resA := make([]float64, len(a))
	resB := make([]float64, len(b))

	for r := 0; r < resamples; r++ {
		if paired {
			for i := range a {
				j := rng.Intn(len(a))
				resA[i] = a[j]
				resB[i] = b[j]
			}
		} else {
			for i := range a {
				resA[i] = a[rng.Intn(len(a))]
			}
			for i := range b {
				resB[i] = b[rng.Intn(len(b))]
			}
		}
		diffs[r] = statistic(resA) - statistic(resB)
	}

	low, high := distrib.PercentileCI(diffs, 0.95)
	return &result.Interval{Low: low, High: high}
}
