package describe

import (
	"math"
	"testing"

	"labstats/domain/observe"
	"labstats/domain/result"
)

func almostEqual(a, b, tol float64) bool {
	return math.Abs(a-b) <= tol
}

func TestGroupDescriptives(t *testing.T) {
	s := observe.Sample{Name: "ctrl", Values: []float64{1, 2, 3, 4, 5}, NBio: 5, NTech: 5}
	gs := Group(s, observe.DefaultComputeOptions())
	if gs == nil {
		t.Fatal("nil statistics for a non-empty sample")
	}

	if gs.Mean != 3 || gs.Median != 3 {
		t.Errorf("mean/median = %v/%v, want 3/3", gs.Mean, gs.Median)
	}
	if !almostEqual(gs.SD, math.Sqrt(2.5), 1e-12) {
		t.Errorf("sd = %v, want sqrt(2.5)", gs.SD)
	}
	if !almostEqual(gs.SEM, math.Sqrt(2.5)/math.Sqrt(5), 1e-12) {
		t.Errorf("sem = %v", gs.SEM)
	}
	if gs.Min != 1 || gs.Max != 5 || gs.Range != 4 {
		t.Errorf("min/max/range = %v/%v/%v", gs.Min, gs.Max, gs.Range)
	}
	if len(gs.Modes) != 0 {
		t.Errorf("modes of distinct values = %v, want none", gs.Modes)
	}
}

func TestGroupConfidenceInterval(t *testing.T) {
	s := observe.Sample{Name: "g", Values: []float64{1, 2, 3, 4, 5}, NBio: 5, NTech: 5}
	gs := Group(s, observe.DefaultComputeOptions())

	if gs.CI95 == nil {
		t.Fatal("expected a CI with nBio > 1")
	}
	if gs.CI95.DF != 4 {
		t.Errorf("CI df = %d, want nBio-1 = 4", gs.CI95.DF)
	}
	if !(gs.CI95.Low < gs.Mean && gs.Mean < gs.CI95.High) {
		t.Errorf("CI (%v, %v) does not bracket the mean %v", gs.CI95.Low, gs.CI95.High, gs.Mean)
	}
	// t(4, 0.975) = 2.776; CI = 3 +/- 2.776 * 0.7071
	if !almostEqual(gs.CI95.Low, 3-2.776*math.Sqrt(2.5)/math.Sqrt(5), 0.01) {
		t.Errorf("CI low = %v", gs.CI95.Low)
	}
}

// SEM and the CI df come from the biological replicate count even when the
// value list is longer.
func TestGroupSEMUsesBioCount(t *testing.T) {
	s := observe.Sample{Name: "g", Values: []float64{1, 2, 3, 4, 5, 6}, NBio: 3, NTech: 6}
	gs := Group(s, observe.DefaultComputeOptions())

	wantSEM := gs.SD / math.Sqrt(3)
	if !almostEqual(gs.SEM, wantSEM, 1e-12) {
		t.Errorf("sem = %v, want %v (from nBio=3)", gs.SEM, wantSEM)
	}
	if gs.CI95 == nil || gs.CI95.DF != 2 {
		t.Errorf("CI df should be nBio-1 = 2, got %+v", gs.CI95)
	}
}

func TestGroupCINone(t *testing.T) {
	opts := observe.DefaultComputeOptions()
	opts.CIMethod = observe.CINone
	gs := Group(observe.Sample{Name: "g", Values: []float64{1, 2, 3}, NBio: 3}, opts)
	if gs.CI95 != nil {
		t.Errorf("CI reported despite CIMethod none: %+v", gs.CI95)
	}

	// single biological replicate cannot support a CI
	opts = observe.DefaultComputeOptions()
	gs = Group(observe.Sample{Name: "g", Values: []float64{1, 2, 3}, NBio: 1}, opts)
	if gs.CI95 != nil {
		t.Errorf("CI reported for nBio=1: %+v", gs.CI95)
	}
}

func TestFenceOutliersFlagButKeep(t *testing.T) {
	s := observe.Sample{Name: "g", Values: []float64{1, 2, 3, 4, 100}, NBio: 5, NTech: 5}
	gs := Group(s, observe.DefaultComputeOptions())

	if gs.Outliers.Count != 1 || len(gs.Outliers.Indices) != 1 || gs.Outliers.Indices[0] != 4 {
		t.Errorf("outliers = %+v, want index 4 flagged", gs.Outliers)
	}
	// the flagged value still participates in the statistics
	if gs.Max != 100 {
		t.Errorf("max = %v; flagged values must stay in the sample", gs.Max)
	}
	if gs.Outliers.LowFence >= gs.Outliers.HighFence {
		t.Errorf("fences inverted: %+v", gs.Outliers)
	}
}

func TestNormalityVerdicts(t *testing.T) {
	t.Run("too small is not reliable", func(t *testing.T) {
		gs := Group(observe.Sample{Name: "g", Values: []float64{1, 2}, NBio: 2}, observe.DefaultComputeOptions())
		if gs.Normality.Verdict != result.NormalityNotReliable {
			t.Errorf("verdict = %q", gs.Normality.Verdict)
		}
	})

	t.Run("constant sample is not reliable", func(t *testing.T) {
		gs := Group(observe.Sample{Name: "g", Values: []float64{2, 2, 2, 2}, NBio: 4}, observe.DefaultComputeOptions())
		if gs.Normality.Verdict != result.NormalityNotReliable {
			t.Errorf("verdict = %q", gs.Normality.Verdict)
		}
	})

	t.Run("evenly spaced values pass the heuristic", func(t *testing.T) {
		gs := Group(observe.Sample{Name: "g", Values: []float64{1, 1.05, 1.1, 1.15}, NBio: 4}, observe.DefaultComputeOptions())
		if gs.Normality.Verdict != result.NormalityRoughlyNormal {
			t.Errorf("verdict = %q, W = %v", gs.Normality.Verdict, gs.Normality.W)
		}
	})

	t.Run("bimodal sample fails", func(t *testing.T) {
		values := []float64{1, 1.01, 1.02, 1.03, 10, 10.01, 10.02, 10.03}
		gs := Group(observe.Sample{Name: "g", Values: values, NBio: 8}, observe.DefaultComputeOptions())
		if gs.Normality.Verdict != result.NormalityPossiblyNonNorm {
			t.Errorf("verdict = %q, W = %v", gs.Normality.Verdict, gs.Normality.W)
		}
	})
}

func TestWStatisticBounds(t *testing.T) {
	if _, ok := WStatistic([]float64{1, 2}); ok {
		t.Error("W should be undefined for n < 3")
	}
	w, ok := WStatistic([]float64{1, 2, 3, 4, 5, 6})
	if !ok {
		t.Fatal("W undefined for a clean sample")
	}
	if w <= 0 || w > 1 {
		t.Errorf("W = %v out of (0, 1]", w)
	}
}

func TestSummaries(t *testing.T) {
	rows := []observe.Observation{
		{Group: "a", Value: 1},
		{Group: "a", Value: 2},
		{Group: "b", Value: 10},
		{Group: "b", Value: 11},
	}
	stats, samples := Summaries(rows, observe.DefaultComputeOptions())
	if len(stats) != 2 || len(samples) != 2 {
		t.Fatalf("got %d stats / %d samples, want 2 / 2", len(stats), len(samples))
	}
	if stats[0].Group != "a" || stats[1].Group != "b" {
		t.Errorf("group order = [%s %s]", stats[0].Group, stats[1].Group)
	}
}

func TestLevene(t *testing.T) {
	t.Run("needs two groups", func(t *testing.T) {
		if got := Levene([]observe.Sample{{Name: "a", Values: []float64{1, 2, 3}}}); got != nil {
			t.Errorf("Levene on one group = %+v, want nil", got)
		}
	})

	t.Run("similar spread is not significant", func(t *testing.T) {
		groups := []observe.Sample{
			{Name: "a", Values: []float64{1.0, 1.1, 0.9, 1.05}},
			{Name: "b", Values: []float64{2.0, 2.1, 1.9, 2.05}},
		}
		lv := Levene(groups)
		if lv == nil {
			t.Fatal("nil result")
		}
		if lv.P < 0.05 {
			t.Errorf("equal spreads flagged unequal: %+v", lv)
		}
		if lv.DF1 != 1 || lv.DF2 != 6 {
			t.Errorf("df = (%d, %d), want (1, 6)", lv.DF1, lv.DF2)
		}
	})

	t.Run("gross spread difference is significant", func(t *testing.T) {
		groups := []observe.Sample{
			{Name: "a", Values: []float64{1.0, 1.001, 0.999, 1.0, 1.001, 0.999}},
			{Name: "b", Values: []float64{1, 50, 100, 2, 80, 30}},
		}
		lv := Levene(groups)
		if lv == nil {
			t.Fatal("nil result")
		}
		if lv.P >= 0.05 {
			t.Errorf("unequal spreads not flagged: %+v", lv)
		}
	})
}
