package decide

import (
	"math/rand"
	"testing"

	"labstats/domain/observe"
	"labstats/domain/result"
	"labstats/internal/describe"
)

func diagnose(rows []observe.Observation, opts observe.ComputeOptions) ([]observe.Sample, Diagnostics) {
	stats, samples := describe.Summaries(rows, opts)
	return samples, Diagnostics{
		GroupStats: stats,
		Levene:     describe.Levene(samples),
		Transform:  opts.Transform,
	}
}

func rowsFor(groups map[string][]float64, order []string) []observe.Observation {
	var rows []observe.Observation
	for _, g := range order {
		for _, v := range groups[g] {
			rows = append(rows, observe.Observation{Group: g, Value: v})
		}
	}
	return rows
}

func TestDecideTwoNormalIndependentGroups(t *testing.T) {
	rows := rowsFor(map[string][]float64{
		"control": {1.0, 1.05, 0.95, 1.0},
		"drug":    {1.3, 1.28, 1.35, 1.18},
	}, []string{"control", "drug"})
	samples, diag := diagnose(rows, observe.DefaultComputeOptions())

	outcome := New().Decide(samples, diag, observe.DefaultDesignOptions(), rand.New(rand.NewSource(1)))
	if outcome.Kind != result.OutcomeTTest {
		t.Fatalf("kind = %q (%s), want ttest", outcome.Kind, outcome.Rationale)
	}
	if outcome.TestName != "Welch's t-test" {
		t.Errorf("test = %q", outcome.TestName)
	}
	tt := outcome.TTest
	if tt == nil {
		t.Fatal("missing t-test payload")
	}
	if tt.MeanA != 1.0 || tt.MeanB != 1.2775 {
		t.Errorf("means = %v, %v", tt.MeanA, tt.MeanB)
	}
	if tt.P >= 0.05 {
		t.Errorf("p = %v", tt.P)
	}
	// variances are similar here, so Student's test rides along
	if outcome.Student == nil {
		t.Error("expected Student's t-test surfaced alongside Welch")
	} else if outcome.Student.Method != "student" {
		t.Errorf("student method = %q", outcome.Student.Method)
	}
}

func TestDecideManyNormalGroups(t *testing.T) {
	rows := rowsFor(map[string][]float64{
		"vehicle": {1.0, 1.05, 1.1, 1.15},
		"low":     {2.0, 2.05, 2.1, 2.15},
		"high":    {3.0, 3.05, 3.1, 3.15},
	}, []string{"vehicle", "low", "high"})
	samples, diag := diagnose(rows, observe.DefaultComputeOptions())

	outcome := New().Decide(samples, diag, observe.DefaultDesignOptions(), rand.New(rand.NewSource(1)))
	if outcome.Kind != result.OutcomeAnova {
		t.Fatalf("kind = %q (%s), want anova", outcome.Kind, outcome.Rationale)
	}
	if outcome.Anova == nil || outcome.Anova.P >= 0.05 {
		t.Fatalf("anova payload = %+v", outcome.Anova)
	}
	if len(outcome.Tukey) != 3 {
		t.Fatalf("tukey family size = %d, want 3", len(outcome.Tukey))
	}
	for _, p := range outcome.Tukey {
		if p.AdjustedP == nil {
			t.Fatalf("%s missing adjusted p", p.PairLabel)
		}
		if *p.AdjustedP >= 0.05 {
			t.Errorf("%s adjusted p = %v, want significant", p.PairLabel, *p.AdjustedP)
		}
	}
	if len(outcome.HolmPairs) != 3 {
		t.Errorf("pairwise welch family size = %d", len(outcome.HolmPairs))
	}
}

func TestDecideVsControl(t *testing.T) {
	rows := rowsFor(map[string][]float64{
		"vehicle": {1.0, 1.05, 1.1, 1.15},
		"low":     {2.0, 2.05, 2.1, 2.15},
		"high":    {3.0, 3.05, 3.1, 3.15},
	}, []string{"vehicle", "low", "high"})
	samples, diag := diagnose(rows, observe.DefaultComputeOptions())

	opts := observe.DefaultDesignOptions()
	opts.ControlLabel = "vehicle"
	outcome := New().Decide(samples, diag, opts, rand.New(rand.NewSource(1)))
	if len(outcome.DunnettVsControl) != 2 {
		t.Fatalf("vs-control family size = %d, want 2", len(outcome.DunnettVsControl))
	}

	// an unmatched label degrades to an advisory, not an error
	opts.ControlLabel = "nosuch"
	outcome = New().Decide(samples, diag, opts, rand.New(rand.NewSource(1)))
	if outcome.DunnettVsControl != nil {
		t.Error("expected no vs-control family")
	}
	if outcome.Advisory == "" {
		t.Error("expected an advisory about the unmatched control label")
	}
}

func TestDecideNonNormalTwoGroups(t *testing.T) {
	rows := rowsFor(map[string][]float64{
		"a": {0.4, 0.5, 0.45, 0.55},
		"b": {1.2, 1.4, 1.3, 1.5},
	}, []string{"a", "b"})
	samples, diag := diagnose(rows, observe.DefaultComputeOptions())

	outcome := New().Decide(samples, diag, observe.DefaultDesignOptions(), rand.New(rand.NewSource(1)))
	if outcome.Kind != result.OutcomeMannWhitney {
		t.Fatalf("kind = %q (%s), want mann_whitney", outcome.Kind, outcome.Rationale)
	}
	mw := outcome.MannWhitney
	if mw == nil {
		t.Fatal("missing payload")
	}
	if mw.U != 0 {
		t.Errorf("U = %v, want 0", mw.U)
	}
	if mw.P >= 0.05 {
		t.Errorf("p = %v", mw.P)
	}
	if mw.DiffCI == nil {
		t.Error("missing median-difference bootstrap interval")
	} else if mw.DiffCI.High >= 0 {
		t.Errorf("interval = %+v, want entirely below zero", mw.DiffCI)
	}
}

func TestDecideRecommendsLogTransform(t *testing.T) {
	// doubling series: grossly right-skewed raw, evenly spaced on log2
	rows := rowsFor(map[string][]float64{
		"a": {1, 2, 4, 8},
		"b": {16, 32, 64, 128},
	}, []string{"a", "b"})
	samples, diag := diagnose(rows, observe.DefaultComputeOptions())

	outcome := New().Decide(samples, diag, observe.DefaultDesignOptions(), rand.New(rand.NewSource(1)))
	if outcome.Kind != result.OutcomeAdvisory {
		t.Fatalf("kind = %q (%s), want advisory", outcome.Kind, outcome.Rationale)
	}
	if outcome.TestName != "transform and retest" {
		t.Errorf("test = %q", outcome.TestName)
	}
	if outcome.Advisory == "" {
		t.Error("missing transform advisory text")
	}
}

func TestDecideNoTransformAdvisoryAfterTransform(t *testing.T) {
	rows := rowsFor(map[string][]float64{
		"a": {1, 2, 4, 8},
		"b": {16, 32, 64, 128},
	}, []string{"a", "b"})
	samples, diag := diagnose(rows, observe.DefaultComputeOptions())
	// a transform is already in effect; recommending another is not an option
	diag.Transform = observe.TransformLog2

	outcome := New().Decide(samples, diag, observe.DefaultDesignOptions(), rand.New(rand.NewSource(1)))
	if outcome.Kind != result.OutcomeMannWhitney {
		t.Fatalf("kind = %q (%s), want mann_whitney", outcome.Kind, outcome.Rationale)
	}
}

func TestDecidePaired(t *testing.T) {
	rows := rowsFor(map[string][]float64{
		"before": {1.0, 1.05, 0.95, 1.0},
		"after":  {1.3, 1.28, 1.35, 1.18},
	}, []string{"before", "after"})
	samples, diag := diagnose(rows, observe.DefaultComputeOptions())

	opts := observe.DefaultDesignOptions()
	opts.Independence = observe.Paired
	outcome := New().Decide(samples, diag, opts, rand.New(rand.NewSource(1)))
	if outcome.Kind != result.OutcomeTTest {
		t.Fatalf("kind = %q (%s), want paired ttest", outcome.Kind, outcome.Rationale)
	}
	if outcome.TTest.Method != "paired" {
		t.Errorf("method = %q", outcome.TTest.Method)
	}
}

func TestDecidePairedUnequalSizes(t *testing.T) {
	rows := rowsFor(map[string][]float64{
		"before": {1, 2, 3},
		"after":  {1, 2},
	}, []string{"before", "after"})
	samples, diag := diagnose(rows, observe.DefaultComputeOptions())

	opts := observe.DefaultDesignOptions()
	opts.Independence = observe.Paired
	outcome := New().Decide(samples, diag, opts, rand.New(rand.NewSource(1)))
	if outcome.Kind != result.OutcomeAdvisory {
		t.Fatalf("kind = %q, want advisory", outcome.Kind)
	}
	if outcome.Advisory == "" {
		t.Error("missing advisory text")
	}
}

func TestDecideFewerThanTwoGroups(t *testing.T) {
	rows := rowsFor(map[string][]float64{"only": {1, 2, 3}}, []string{"only"})
	samples, diag := diagnose(rows, observe.DefaultComputeOptions())

	outcome := New().Decide(samples, diag, observe.DefaultDesignOptions(), rand.New(rand.NewSource(1)))
	if outcome.Kind != result.OutcomeNone {
		t.Errorf("kind = %q, want none", outcome.Kind)
	}

	outcome = New().Decide(nil, Diagnostics{}, observe.DefaultDesignOptions(), rand.New(rand.NewSource(1)))
	if outcome.Kind != result.OutcomeNone {
		t.Errorf("kind = %q, want none for no groups", outcome.Kind)
	}
}

func TestDecideDoseResponseShortCircuits(t *testing.T) {
	rows := rowsFor(map[string][]float64{
		"a": {1, 2, 3},
		"b": {4, 5, 6},
	}, []string{"a", "b"})
	samples, diag := diagnose(rows, observe.DefaultComputeOptions())

	opts := observe.DefaultDesignOptions()
	opts.DoseResponse = true
	outcome := New().Decide(samples, diag, opts, rand.New(rand.NewSource(1)))
	if outcome.Kind != result.OutcomeDoseResponse {
		t.Errorf("kind = %q, want dose_response", outcome.Kind)
	}
}

func TestDecideDeterminism(t *testing.T) {
	rows := rowsFor(map[string][]float64{
		"control": {1.0, 1.05, 0.95, 1.0},
		"drug":    {1.3, 1.28, 1.35, 1.18},
	}, []string{"control", "drug"})
	samples, diag := diagnose(rows, observe.DefaultComputeOptions())

	first := New().Decide(samples, diag, observe.DefaultDesignOptions(), rand.New(rand.NewSource(99)))
	second := New().Decide(samples, diag, observe.DefaultDesignOptions(), rand.New(rand.NewSource(99)))
	if first.TTest.DiffCI == nil || second.TTest.DiffCI == nil {
		t.Fatal("expected bootstrap CIs")
	}
	if *first.TTest.DiffCI != *second.TTest.DiffCI {
		t.Errorf("same seed, different CIs: %+v vs %+v", first.TTest.DiffCI, second.TTest.DiffCI)
	}
}

func TestCriticalWRelaxesForSmallN(t *testing.T) {
	if criticalW(8) >= 0.97 {
		t.Errorf("criticalW(8) = %v, want below the asymptotic cut", criticalW(8))
	}
	if criticalW(1000) < 0.96 {
		t.Errorf("criticalW(1000) = %v, want near 0.97", criticalW(1000))
	}
	if criticalW(2) < 0.75 {
		t.Errorf("criticalW(2) = %v, floor is 0.75", criticalW(2))
	}
}
