package hypotest

import (
	"math"
	"math/rand"

	"labstats/domain/result"
	"labstats/internal/distrib"
	"labstats/internal/numutil"
)

// MannWhitneyU runs the mid-rank Mann-Whitney U test with the normal
// approximation (continuity correction ignored; ties handled through
// mid-ranks). Returns nil when either sample is empty. rng may be nil to
// skip the bootstrap CI for the median difference.
func MannWhitneyU(a, b []float64, rng *rand.Rand, resamples int) *result.MannWhitneyResult {
	n1, n2 := len(a), len(b)
	if n1 == 0 || n2 == 0 {
		return nil
	}

	pooled := make([]float64, 0, n1+n2)
	pooled = append(pooled, a...)
	pooled = append(pooled, b...)
	ranks := numutil.Ranks(pooled)

	r1 := 0.0
	for i := 0; i < n1; i++ {
		r1 += ranks[i]
	}

	fn1, fn2 := float64(n1), float64(n2)
	u1 := fn1*fn2 + fn1*(fn1+1)/2 - r1
	u2 := fn1*fn2 - u1
	u := math.Min(u1, u2)

	res := &result.MannWhitneyResult{
		U:            u,
		N1:           n1,
		N2:           n2,
		RankBiserial: 1 - 2*u/(fn1*fn2),
	}

	sd := math.Sqrt(fn1 * fn2 * (fn1 + fn2 + 1) / 12)
	if sd == 0 {
		res.P = 1
		return res
	}
	res.Z = (u - fn1*fn2/2) / sd
	res.P = distrib.ZPValueTwoSided(res.Z)
	if ci := MedianDifferenceCI(a, b, false, resamples, rng); ci != nil {
		res.DiffCI = ci
		res.Resamples = resamples
	}
	return res
}

// WilcoxonSignedRank runs the paired signed-rank test. Zero differences are
// dropped before ranking; fewer than 3 non-zero differences returns nil.
// rng may be nil to skip the bootstrap CI for the median difference.
func WilcoxonSignedRank(a, b []float64, rng *rand.Rand, resamples int) *result.WilcoxonResult {
	if len(a) != len(b) {
		return nil
	}

	diffs := make([]float64, 0, len(a))
	zeros := 0
	for i := range a {
		d := a[i] - b[i]
		if d == 0 {
			zeros++
			continue
		}
		diffs = append(diffs, d)
	}
	n := len(diffs)
	if n < 3 {
		return nil
	}

	absDiffs := make([]float64, n)
	for i, d := range diffs {
		absDiffs[i] = math.Abs(d)
	}
	ranks := numutil.Ranks(absDiffs)

	wPlus := 0.0
	for i, d := range diffs {
		if d > 0 {
			wPlus += ranks[i]
		}
	}

	fn := float64(n)
	meanW := fn * (fn + 1) / 4
	sdW := math.Sqrt(fn * (fn + 1) * (2*fn + 1) / 24)

	res := &result.WilcoxonResult{
		W:            wPlus,
		NUsed:        n,
		NZeroDropped: zeros,
	}
	if sdW == 0 {
		res.P = 1
		return res
	}
	res.Z = (wPlus - meanW) / sdW
	res.P = distrib.ZPValueTwoSided(res.Z)
	if ci := MedianDifferenceCI(a, b, true, resamples, rng); ci != nil {
		res.DiffCI = ci
		res.Resamples = resamples
	}
	return res
}
