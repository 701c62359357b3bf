// Package decide implements the test-selection decision tree as a pure
// function: (diagnostics, groups, design options) in, a tagged
// DecisionOutcome out. Nothing is persisted between calls; identical inputs
// and seed reproduce identical outcomes.
package decide

import (
	"fmt"
	"math"
	"math/rand"

	"labstats/domain/observe"
	"labstats/domain/result"
	"labstats/internal/adjust"
	"labstats/internal/describe"
	"labstats/internal/hypotest"
	"labstats/internal/numutil"
)

// Engine holds the fixed decision thresholds and bootstrap sizing. The
// engine never applies a transform itself; it only recommends one and leaves
// execution to the caller's next invocation, so a single decision never
// reinterprets the same data under two different assumptions.
type Engine struct {
	Alpha     float64
	Resamples int
}

// New returns an engine with the standard alpha and bootstrap settings
func New() Engine {
	return Engine{Alpha: 0.05, Resamples: hypotest.DefaultResamples}
}

// Diagnostics carries the upstream descriptive and dispersion results the
// tree branches on.
type Diagnostics struct {
	GroupStats []result.GroupStatistics
	Levene     *result.LeveneResult
	// Transform records the transform already applied to the samples, so the
	// tree knows whether "transform and retest" is still an option.
	Transform observe.Transform
}

// Decide evaluates the decision tree and executes the selected test. rng
// feeds the bootstrap CIs; pass a seeded stream for reproducible results.
func (e Engine) Decide(samples []observe.Sample, diag Diagnostics, opts observe.DesignOptions, rng *rand.Rand) result.DecisionOutcome {
	if opts.DoseResponse {
		return result.DecisionOutcome{
			Kind:      result.OutcomeDoseResponse,
			TestName:  "four-parameter logistic fit",
			Rationale: "a concentration axis is mapped, so the data is treated as dose-response regardless of group count",
		}
	}

	nonEmpty := make([]observe.Sample, 0, len(samples))
	for _, s := range samples {
		if !s.IsEmpty() {
			nonEmpty = append(nonEmpty, s)
		}
	}

	switch k := len(nonEmpty); {
	case k < 2:
		return result.DecisionOutcome{
			Kind:      result.OutcomeNone,
			Rationale: fmt.Sprintf("only %d non-empty group(s); at least 2 are required for a comparison", k),
		}
	case k == 2:
		return e.decideTwoGroups(nonEmpty, diag, opts, rng)
	default:
		return e.decideManyGroups(nonEmpty, diag, opts)
	}
}

func (e Engine) decideTwoGroups(groups []observe.Sample, diag Diagnostics, opts observe.DesignOptions, rng *rand.Rand) result.DecisionOutcome {
	a, b := groups[0], groups[1]
	// With two groups the per-group samples are usually too small for the W
	// verdict to mean much, so the branch condition pools both groups.
	normal := pooledLooksNormal(append(append([]float64{}, a.Values...), b.Values...))

	if opts.Independence == observe.Paired {
		if a.N() != b.N() {
			return result.DecisionOutcome{
				Kind:      result.OutcomeAdvisory,
				TestName:  "none",
				Rationale: "design is paired but the groups have unequal sizes",
				Advisory:  fmt.Sprintf("pairing requires matched observations; got %d vs %d", a.N(), b.N()),
			}
		}
		if normal {
			tt := hypotest.PairedTTest(a.Values, b.Values, rng, e.Resamples)
			if tt == nil {
				return insufficientOutcome("paired t-test")
			}
			return result.DecisionOutcome{
				Kind:          result.OutcomeTTest,
				TestName:      "Paired t-test",
				Rationale:     "two paired groups and the pooled sample looks roughly normal",
				ResultSummary: fmt.Sprintf("t=%.4f, df=%.1f, p=%.4g", tt.T, tt.DF, tt.P),
				TTest:         tt,
			}
		}
		if e.transformWouldHelpPooled(groups, diag) {
			return transformAdvisory()
		}
		wx := hypotest.WilcoxonSignedRank(a.Values, b.Values, rng, e.Resamples)
		if wx == nil {
			return insufficientOutcome("Wilcoxon signed-rank test")
		}
		return result.DecisionOutcome{
			Kind:          result.OutcomeWilcoxon,
			TestName:      "Wilcoxon signed-rank test",
			Rationale:     "two paired groups with non-normal-looking data; falling back to the signed-rank test",
			ResultSummary: fmt.Sprintf("W=%.1f, p=%.4g", wx.W, wx.P),
			Wilcoxon:      wx,
		}
	}

	// independent design
	if normal {
		welch := hypotest.WelchTTest(a.Values, b.Values, rng, e.Resamples)
		if welch == nil {
			return insufficientOutcome("Welch's t-test")
		}
		outcome := result.DecisionOutcome{
			Kind:          result.OutcomeTTest,
			TestName:      "Welch's t-test",
			Rationale:     "two independent groups and the pooled sample looks roughly normal; Welch's test is reported by default",
			ResultSummary: fmt.Sprintf("t=%.4f, df=%.1f, p=%.4g", welch.T, welch.DF, welch.P),
			TTest:         welch,
		}
		if varianceHomogeneous(diag.Levene, e.Alpha) {
			outcome.Student = hypotest.StudentTTest(a.Values, b.Values, nil, 0)
			outcome.Rationale += "; variances look homogeneous, so Student's t-test is surfaced alongside"
		}
		return outcome
	}
	if e.transformWouldHelpPooled(groups, diag) {
		return transformAdvisory()
	}
	mw := hypotest.MannWhitneyU(a.Values, b.Values, rng, e.Resamples)
	if mw == nil {
		return insufficientOutcome("Mann-Whitney U test")
	}
	return result.DecisionOutcome{
		Kind:          result.OutcomeMannWhitney,
		TestName:      "Mann-Whitney U test",
		Rationale:     "two independent groups with non-normal-looking data; using the rank-based test",
		ResultSummary: fmt.Sprintf("U=%.1f, p=%.4g", mw.U, mw.P),
		MannWhitney:   mw,
	}
}

func (e Engine) decideManyGroups(groups []observe.Sample, diag Diagnostics, opts observe.DesignOptions) result.DecisionOutcome {
	normal := allRoughlyNormal(diag.GroupStats)

	if normal {
		anova := hypotest.OneWayAnova(groups)
		if anova == nil {
			return insufficientOutcome("one-way ANOVA")
		}
		outcome := result.DecisionOutcome{
			Kind:          result.OutcomeAnova,
			TestName:      "One-way ANOVA",
			Rationale:     fmt.Sprintf("%d roughly normal groups", len(groups)),
			ResultSummary: fmt.Sprintf("F=%.4f, df=(%d,%d), p=%.4g", anova.F, anova.DFBetween, anova.DFWithin, anova.P),
			Anova:         anova,
		}
		if anova.P < e.Alpha {
			outcome.Tukey = hypotest.TukeyHSD(groups, anova)
			adjust.Apply(outcome.Tukey, observe.AdjustHolm)

			outcome.HolmPairs = hypotest.PairwiseWelch(groups)
			adjust.Apply(outcome.HolmPairs, observe.AdjustHolm)

			if opts.ControlLabel != "" {
				outcome.DunnettVsControl = hypotest.VsControlWelch(groups, opts.ControlLabel)
				if outcome.DunnettVsControl == nil {
					outcome.Advisory = fmt.Sprintf("control label %q does not match a non-empty group; vs-control comparisons skipped", opts.ControlLabel)
				} else {
					method := opts.PAdjustMethod
					if method == "" {
						method = observe.AdjustHolm
					}
					adjust.Apply(outcome.DunnettVsControl, method)
				}
			}
			outcome.Rationale += "; ANOVA is significant, so pairwise post-hoc families are attached"
		}
		return outcome
	}

	if e.transformWouldHelp(groups, diag) {
		return transformAdvisory()
	}

	kw := hypotest.KruskalWallis(groups)
	if kw == nil {
		return insufficientOutcome("Kruskal-Wallis test")
	}
	dunn := hypotest.DunnPostHoc(groups)
	adjust.Apply(dunn, observe.AdjustHolm)
	return result.DecisionOutcome{
		Kind:          result.OutcomeKruskalWallis,
		TestName:      "Kruskal-Wallis test",
		Rationale:     fmt.Sprintf("%d groups with non-normal-looking data; using ranks with Holm-adjusted Dunn post-hoc", len(groups)),
		ResultSummary: fmt.Sprintf("H=%.4f, df=%d, p=%.4g", kw.H, kw.DF, kw.P),
		KruskalWallis: kw,
		Dunn:          dunn,
	}
}

// transformWouldHelp checks whether a log2 transform would move every group
// into roughly-normal territory. Only meaningful when no transform is active
// yet; the engine recommends, it never applies.
func (e Engine) transformWouldHelp(groups []observe.Sample, diag Diagnostics) bool {
	if diag.Transform != observe.TransformNone && diag.Transform != "" {
		return false
	}
	for _, g := range groups {
		transformed := make([]float64, 0, g.N())
		for _, v := range g.Values {
			if v > 0 {
				transformed = append(transformed, math.Log2(v))
			}
		}
		if len(transformed) < 3 {
			return false
		}
		tg := describe.Group(observe.Sample{Name: g.Name, Values: transformed, NBio: len(transformed), NTech: len(transformed)}, observe.DefaultComputeOptions())
		if tg == nil || tg.Normality.Verdict != result.NormalityRoughlyNormal {
			return false
		}
	}
	return true
}

// transformWouldHelpPooled is the two-group variant: a log2 transform counts
// as helpful only if the pooled transformed sample clears the same criterion
// the raw pooled sample just failed.
func (e Engine) transformWouldHelpPooled(groups []observe.Sample, diag Diagnostics) bool {
	if diag.Transform != observe.TransformNone && diag.Transform != "" {
		return false
	}
	pooled := make([]float64, 0, groups[0].N()+groups[1].N())
	for _, g := range groups {
		kept := 0
		for _, v := range g.Values {
			if v > 0 {
				pooled = append(pooled, math.Log2(v))
				kept++
			}
		}
		if kept < 2 {
			return false
		}
	}
	return pooledLooksNormal(pooled)
}

// pooledLooksNormal compares the pooled W statistic to an n-adjusted
// critical value. Small pooled samples sit systematically below the
// asymptotic 0.97 cut, so the cut is relaxed toward small n to keep the
// decision near the 5% level.
func pooledLooksNormal(pooled []float64) bool {
	w, ok := describe.WStatistic(numutil.SortedCopy(pooled))
	if !ok {
		return false
	}
	return w >= criticalW(len(pooled))
}

func criticalW(n int) float64 {
	c := 0.97 - 0.6/float64(n)
	if c < 0.75 {
		return 0.75
	}
	return c
}

func transformAdvisory() result.DecisionOutcome {
	return result.DecisionOutcome{
		Kind:      result.OutcomeAdvisory,
		TestName:  "transform and retest",
		Rationale: "data does not look normal on the raw scale but a log transform does; re-run with the transform enabled",
		Advisory:  "apply a log transform in the compute options and re-run the decision",
	}
}

func insufficientOutcome(test string) result.DecisionOutcome {
	return result.DecisionOutcome{
		Kind:      result.OutcomeNone,
		TestName:  test,
		Rationale: fmt.Sprintf("%s preconditions are not met by the data", test),
	}
}

func allRoughlyNormal(stats []result.GroupStatistics) bool {
	if len(stats) == 0 {
		return false
	}
	for _, gs := range stats {
		if gs.Normality.Verdict != result.NormalityRoughlyNormal {
			return false
		}
	}
	return true
}

func varianceHomogeneous(levene *result.LeveneResult, alpha float64) bool {
	return levene != nil && levene.P > alpha
}
