package describe

import (
	"labstats/domain/observe"
	"labstats/domain/result"
	"labstats/internal/distrib"
	"labstats/internal/numutil"
)

// Levene runs the median-centered (Brown-Forsythe) variance-homogeneity
// test across groups: an ANOVA-style F test on absolute deviations from each
// group's median. Returns nil with fewer than 2 non-empty groups. Identical
// values everywhere make the denominator 0; that case yields the defined
// sentinel f=0, p=1 instead of NaN.
func Levene(samples []observe.Sample) *result.LeveneResult {
	groups := make([][]float64, 0, len(samples))
	for _, s := range samples {
		if s.IsEmpty() {
			continue
		}
		median := numutil.Median(s.Values)
		z := make([]float64, len(s.Values))
		for i, v := range s.Values {
			d := v - median
			if d < 0 {
				d = -d
			}
			z[i] = d
		}
		groups = append(groups, z)
	}

	k := len(groups)
	if k < 2 {
		return nil
	}

	n := 0
	grandSum := 0.0
	for _, g := range groups {
		n += len(g)
		for _, v := range g {
			grandSum += v
		}
	}
	grandMean := grandSum / float64(n)

	ssBetween := 0.0
	ssWithin := 0.0
	for _, g := range groups {
		gm := numutil.Mean(g)
		ssBetween += float64(len(g)) * (gm - grandMean) * (gm - grandMean)
		for _, v := range g {
			ssWithin += (v - gm) * (v - gm)
		}
	}

	df1 := k - 1
	df2 := n - k
	if df2 <= 0 {
		return nil
	}

	msWithin := ssWithin / float64(df2)
	if msWithin == 0 {
		return &result.LeveneResult{F: 0, DF1: df1, DF2: df2, P: 1}
	}

	f := (ssBetween / float64(df1)) / msWithin
	return &result.LeveneResult{
		F:   f,
		DF1: df1,
		DF2: df2,
		P:   distrib.FPValue(f, df1, df2),
	}
}
