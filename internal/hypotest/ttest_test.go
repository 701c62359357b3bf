package hypotest

import (
	"math"
	"math/rand"
	"testing"
)

func almostEqual(a, b, tol float64) bool {
	return math.Abs(a-b) <= tol
}

func TestWelchTTest(t *testing.T) {
	control := []float64{1.0, 1.05, 0.95, 1.0}
	drug := []float64{1.3, 1.28, 1.35, 1.18}

	tt := WelchTTest(control, drug, nil, 0)
	if tt == nil {
		t.Fatal("nil result")
	}
	if tt.Method != "welch" {
		t.Errorf("method = %q", tt.Method)
	}
	if tt.MeanA != 1.0 || !almostEqual(tt.MeanB, 1.2775, 1e-12) {
		t.Errorf("means = %v, %v, want 1.0 and 1.2775", tt.MeanA, tt.MeanB)
	}
	if !almostEqual(tt.T, -6.751, 0.01) {
		t.Errorf("t = %v, want ~-6.751", tt.T)
	}
	if !almostEqual(tt.DF, 4.77, 0.05) {
		t.Errorf("df = %v, want ~4.77 (Satterthwaite)", tt.DF)
	}
	if tt.P >= 0.01 {
		t.Errorf("p = %v, want < 0.01", tt.P)
	}
	if tt.NA != 4 || tt.NB != 4 {
		t.Errorf("n = %d, %d", tt.NA, tt.NB)
	}
}

func TestStudentTTestMatchesWelchForEqualN(t *testing.T) {
	control := []float64{1.0, 1.05, 0.95, 1.0}
	drug := []float64{1.3, 1.28, 1.35, 1.18}

	student := StudentTTest(control, drug, nil, 0)
	welch := WelchTTest(control, drug, nil, 0)
	if student == nil || welch == nil {
		t.Fatal("nil result")
	}
	// equal group sizes make the statistics identical; only df differs
	if !almostEqual(student.T, welch.T, 1e-9) {
		t.Errorf("t student %v vs welch %v", student.T, welch.T)
	}
	if student.DF != 6 {
		t.Errorf("student df = %v, want 6", student.DF)
	}
}

func TestPairedTTest(t *testing.T) {
	before := []float64{1, 2, 3, 4}
	after := []float64{1.5, 2.6, 3.4, 4.5}

	tt := PairedTTest(before, after, nil, 0)
	if tt == nil {
		t.Fatal("nil result")
	}
	if !almostEqual(tt.MeanDiff, -0.5, 1e-12) {
		t.Errorf("mean diff = %v, want -0.5", tt.MeanDiff)
	}
	if tt.DF != 3 {
		t.Errorf("df = %v, want 3", tt.DF)
	}
	if !almostEqual(tt.T, -12.247, 0.01) {
		t.Errorf("t = %v, want ~-12.247", tt.T)
	}
	if tt.P >= 0.01 {
		t.Errorf("p = %v, want < 0.01", tt.P)
	}

	if PairedTTest([]float64{1, 2}, []float64{1}, nil, 0) != nil {
		t.Error("unequal lengths must return nil")
	}
}

func TestTTestInsufficientData(t *testing.T) {
	if WelchTTest([]float64{1}, []float64{2, 3}, nil, 0) != nil {
		t.Error("n=1 arm must return nil")
	}
	if StudentTTest(nil, []float64{2, 3}, nil, 0) != nil {
		t.Error("empty arm must return nil")
	}
}

func TestEffectSizes(t *testing.T) {
	control := []float64{1.0, 1.05, 0.95, 1.0}
	drug := []float64{1.3, 1.28, 1.35, 1.18}

	tt := WelchTTest(control, drug, nil, 0)
	if !almostEqual(tt.CohenD, -4.774, 0.01) {
		t.Errorf("cohen d = %v, want ~-4.774", tt.CohenD)
	}
	// Hedges' g shrinks d toward zero
	if math.Abs(tt.HedgesG) >= math.Abs(tt.CohenD) {
		t.Errorf("hedges g %v not shrunk relative to d %v", tt.HedgesG, tt.CohenD)
	}
	if !almostEqual(tt.HedgesG, tt.CohenD*(1-3.0/23.0), 1e-9) {
		t.Errorf("hedges g = %v", tt.HedgesG)
	}
}

func TestBootstrapCIDeterminism(t *testing.T) {
	control := []float64{1.0, 1.05, 0.95, 1.0}
	drug := []float64{1.3, 1.28, 1.35, 1.18}

	first := WelchTTest(control, drug, rand.New(rand.NewSource(7)), 500)
	second := WelchTTest(control, drug, rand.New(rand.NewSource(7)), 500)
	if first.DiffCI == nil || second.DiffCI == nil {
		t.Fatal("expected bootstrap CIs")
	}
	if first.DiffCI.Low != second.DiffCI.Low || first.DiffCI.High != second.DiffCI.High {
		t.Errorf("same seed produced different CIs: %+v vs %+v", first.DiffCI, second.DiffCI)
	}
	if first.Resamples != 500 {
		t.Errorf("resamples = %d, want 500", first.Resamples)
	}

	// the groups are fully separated, so every resampled difference is negative
	if first.DiffCI.High >= 0 {
		t.Errorf("CI high = %v, want < 0", first.DiffCI.High)
	}
	if first.DiffCI.Low > first.DiffCI.High {
		t.Errorf("CI inverted: %+v", first.DiffCI)
	}

	// no rng means no CI
	if got := WelchTTest(control, drug, nil, 500); got.DiffCI != nil {
		t.Error("CI attached without an rng")
	}
}
