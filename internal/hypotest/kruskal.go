package hypotest

import (
	"fmt"
	"math"

	"labstats/domain/observe"
	"labstats/domain/result"
	"labstats/internal/distrib"
	"labstats/internal/numutil"
)

// KruskalWallis runs the rank-based k-group test. The H statistic omits the
// tie-correction denominator; with many tied values H is slightly
// conservative. That simplification is deliberate and recorded in the
// result's Note rather than silently corrected.
func KruskalWallis(groups []observe.Sample) *result.KruskalResult {
	nonEmpty := make([]observe.Sample, 0, len(groups))
	n := 0
	for _, g := range groups {
		if g.IsEmpty() {
			continue
		}
		nonEmpty = append(nonEmpty, g)
		n += g.N()
	}
	k := len(nonEmpty)
	if k < 2 || n <= k {
		return nil
	}

	pooled := make([]float64, 0, n)
	for _, g := range nonEmpty {
		pooled = append(pooled, g.Values...)
	}
	ranks := numutil.Ranks(pooled)

	fn := float64(n)
	h := 0.0
	offset := 0
	for _, g := range nonEmpty {
		rankSum := 0.0
		for i := 0; i < g.N(); i++ {
			rankSum += ranks[offset+i]
		}
		offset += g.N()
		h += rankSum * rankSum / float64(g.N())
	}
	h = 12/(fn*(fn+1))*h - 3*(fn+1)

	df := k - 1
	return &result.KruskalResult{
		H:    h,
		DF:   df,
		P:    distrib.ChiSquarePValue(h, df),
		Note: "tie correction omitted from H",
	}
}

// DunnPostHoc builds the pairwise z-test family over pooled mid-ranks. The
// family carries raw p-values only; adjustment is one adjuster call by the
// caller.
func DunnPostHoc(groups []observe.Sample) []result.PairwiseComparison {
	nonEmpty := make([]observe.Sample, 0, len(groups))
	n := 0
	for _, g := range groups {
		if g.IsEmpty() {
			continue
		}
		nonEmpty = append(nonEmpty, g)
		n += g.N()
	}
	if len(nonEmpty) < 2 {
		return nil
	}

	pooled := make([]float64, 0, n)
	for _, g := range nonEmpty {
		pooled = append(pooled, g.Values...)
	}
	ranks := numutil.Ranks(pooled)

	meanRanks := make([]float64, len(nonEmpty))
	offset := 0
	for gi, g := range nonEmpty {
		sum := 0.0
		for i := 0; i < g.N(); i++ {
			sum += ranks[offset+i]
		}
		offset += g.N()
		meanRanks[gi] = sum / float64(g.N())
	}

	fn := float64(n)
	pooledVar := fn * (fn + 1) / 12

	family := make([]result.PairwiseComparison, 0, len(nonEmpty)*(len(nonEmpty)-1)/2)
	for i := 0; i < len(nonEmpty)-1; i++ {
		for j := i + 1; j < len(nonEmpty); j++ {
			se := math.Sqrt(pooledVar * (1/float64(nonEmpty[i].N()) + 1/float64(nonEmpty[j].N())))
			comp := result.PairwiseComparison{
				PairLabel: fmt.Sprintf("%s vs %s", nonEmpty[i].Name, nonEmpty[j].Name),
				MeanDiff:  meanRanks[i] - meanRanks[j],
			}
			if se == 0 {
				comp.RawP = 1
			} else {
				comp.Statistic = (meanRanks[i] - meanRanks[j]) / se
				comp.RawP = distrib.ZPValueTwoSided(comp.Statistic)
			}
			family = append(family, comp)
		}
	}
	return family
}
