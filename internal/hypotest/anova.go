package hypotest

import (
	"fmt"
	"math"

	"labstats/domain/observe"
	"labstats/domain/result"
	"labstats/internal/distrib"
	"labstats/internal/numutil"
)

// OneWayAnova runs the classic sum-of-squares decomposition across k groups.
// Returns nil with fewer than 2 non-empty groups or no within-group degrees
// of freedom.
func OneWayAnova(groups []observe.Sample) *result.AnovaResult {
	nonEmpty := make([]observe.Sample, 0, len(groups))
	for _, g := range groups {
		if !g.IsEmpty() {
			nonEmpty = append(nonEmpty, g)
		}
	}
	k := len(nonEmpty)
	if k < 2 {
		return nil
	}

	n := 0
	grandSum := 0.0
	for _, g := range nonEmpty {
		n += g.N()
		for _, v := range g.Values {
			grandSum += v
		}
	}
	dfWithin := n - k
	if dfWithin <= 0 {
		return nil
	}
	grandMean := grandSum / float64(n)

	ssBetween := 0.0
	ssWithin := 0.0
	for _, g := range nonEmpty {
		gm := numutil.Mean(g.Values)
		ssBetween += float64(g.N()) * (gm - grandMean) * (gm - grandMean)
		for _, v := range g.Values {
			ssWithin += (v - gm) * (v - gm)
		}
	}

	dfBetween := k - 1
	msBetween := ssBetween / float64(dfBetween)
	msWithin := ssWithin / float64(dfWithin)

	res := &result.AnovaResult{
		DFBetween: dfBetween,
		DFWithin:  dfWithin,
		SSBetween: ssBetween,
		SSWithin:  ssWithin,
		MSWithin:  msWithin,
		GrandMean: grandMean,
	}

	ssTotal := ssBetween + ssWithin
	if ssTotal > 0 {
		res.EtaSquared = ssBetween / ssTotal
	}
	// omega-squared is reported at its formula value, without clamping
	res.OmegaSquared = (ssBetween - float64(dfBetween)*msWithin) / (ssTotal + msWithin)

	if msWithin == 0 {
		res.F = 0
		res.P = 1
		return res
	}
	res.F = msBetween / msWithin
	res.P = distrib.FPValue(res.F, dfBetween, dfWithin)
	return res
}

// TukeyHSD builds the pairwise post-hoc family from a significant one-way
// ANOVA: pairwise t statistics over the pooled within-group mean square,
// tested against dfWithin. The returned family has only raw p-values; the
// caller routes it through the adjuster as one unit.
func TukeyHSD(groups []observe.Sample, anova *result.AnovaResult) []result.PairwiseComparison {
	if anova == nil {
		return nil
	}
	nonEmpty := make([]observe.Sample, 0, len(groups))
	for _, g := range groups {
		if !g.IsEmpty() {
			nonEmpty = append(nonEmpty, g)
		}
	}
	if len(nonEmpty) < 2 {
		return nil
	}

	family := make([]result.PairwiseComparison, 0, len(nonEmpty)*(len(nonEmpty)-1)/2)
	for i := 0; i < len(nonEmpty)-1; i++ {
		for j := i + 1; j < len(nonEmpty); j++ {
			gi, gj := nonEmpty[i], nonEmpty[j]
			diff := numutil.Mean(gi.Values) - numutil.Mean(gj.Values)
			se := math.Sqrt(anova.MSWithin * (1/float64(gi.N()) + 1/float64(gj.N())))

			comp := result.PairwiseComparison{
				PairLabel: fmt.Sprintf("%s vs %s", gi.Name, gj.Name),
				MeanDiff:  diff,
			}
			if se == 0 {
				comp.RawP = 1
			} else {
				comp.Statistic = diff / se
				comp.RawP = distrib.TTestPValue(comp.Statistic, float64(anova.DFWithin))
			}
			family = append(family, comp)
		}
	}
	return family
}

// PairwiseWelch builds the all-pairs Welch family, used both for the
// Holm-adjusted pairwise set after ANOVA and for Dunnett-style vs-control
// comparisons. Pairs that fail the t-test precondition are skipped.
func PairwiseWelch(groups []observe.Sample) []result.PairwiseComparison {
	nonEmpty := make([]observe.Sample, 0, len(groups))
	for _, g := range groups {
		if !g.IsEmpty() {
			nonEmpty = append(nonEmpty, g)
		}
	}

	family := make([]result.PairwiseComparison, 0)
	for i := 0; i < len(nonEmpty)-1; i++ {
		for j := i + 1; j < len(nonEmpty); j++ {
			gi, gj := nonEmpty[i], nonEmpty[j]
			tt := WelchTTest(gi.Values, gj.Values, nil, 0)
			if tt == nil {
				continue
			}
			family = append(family, result.PairwiseComparison{
				PairLabel: fmt.Sprintf("%s vs %s", gi.Name, gj.Name),
				Statistic: tt.T,
				MeanDiff:  tt.MeanDiff,
				RawP:      tt.P,
			})
		}
	}
	return family
}

// VsControlWelch builds a Dunnett-style family of Welch comparisons of every
// group against the named control. Returns nil when the control label does
// not match a non-empty group.
func VsControlWelch(groups []observe.Sample, controlLabel string) []result.PairwiseComparison {
	var control *observe.Sample
	for i := range groups {
		if groups[i].Name == controlLabel && !groups[i].IsEmpty() {
			control = &groups[i]
			break
		}
	}
	if control == nil {
		return nil
	}

	family := make([]result.PairwiseComparison, 0, len(groups)-1)
	for i := range groups {
		g := groups[i]
		if g.Name == controlLabel || g.IsEmpty() {
			continue
		}
		tt := WelchTTest(g.Values, control.Values, nil, 0)
		if tt == nil {
			continue
		}
		family = append(family, result.PairwiseComparison{
			PairLabel: fmt.Sprintf("%s vs %s", g.Name, controlLabel),
			Statistic: tt.T,
			MeanDiff:  tt.MeanDiff,
			RawP:      tt.P,
		})
	}
	return family
}
