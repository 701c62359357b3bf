package regress

import (
	"math"
	"testing"

	"labstats/domain/observe"
)

func almostEqual(a, b, tol float64) bool {
	return math.Abs(a-b) <= tol
}

func TestPearson(t *testing.T) {
	x := []float64{1, 2, 3, 4, 5}
	y := []float64{2.1, 3.9, 6.2, 7.8, 10.1}

	res := Pearson(x, y)
	if res == nil {
		t.Fatal("nil result")
	}
	if res.Method != "pearson" {
		t.Errorf("method = %q", res.Method)
	}
	if res.R < 0.99 {
		t.Errorf("r = %v, want near 1", res.R)
	}
	if res.DF != 3 || res.N != 5 {
		t.Errorf("df/n = %d/%d", res.DF, res.N)
	}
	if res.P >= 0.01 {
		t.Errorf("p = %v", res.P)
	}

	// perfectly collinear data must not divide by zero
	exact := Pearson([]float64{1, 2, 3}, []float64{2, 4, 6})
	if exact == nil || exact.R < 1-1e-9 {
		t.Fatalf("exact line result = %+v", exact)
	}
	if exact.P > 1e-6 {
		t.Errorf("exact line p = %v", exact.P)
	}
}

func TestSpearmanMonotoneNonlinear(t *testing.T) {
	x := []float64{1, 2, 3, 4, 5}
	y := []float64{1, 8, 27, 64, 125} // monotone but badly nonlinear

	res := Spearman(x, y)
	if res == nil {
		t.Fatal("nil result")
	}
	if res.Method != "spearman" {
		t.Errorf("method = %q", res.Method)
	}
	if res.R < 1-1e-9 {
		t.Errorf("rank correlation = %v, want 1", res.R)
	}

	// Pearson sees less than the rank view does here
	if p := Pearson(x, y); p.R >= 0.99 {
		t.Errorf("pearson r = %v, expected visibly below 1", p.R)
	}
}

func TestCorrelationPreconditions(t *testing.T) {
	if Pearson([]float64{1, 2}, []float64{3, 4}) != nil {
		t.Error("n < 3 must return nil")
	}
	if Pearson([]float64{1, 2, 3}, []float64{1, 2}) != nil {
		t.Error("length mismatch must return nil")
	}
	// a constant variable has undefined correlation
	if Pearson([]float64{1, 1, 1}, []float64{1, 2, 3}) != nil {
		t.Error("constant x must return nil")
	}
}

func TestLinearRegression(t *testing.T) {
	x := []float64{1, 2, 3, 4, 5, 6}
	y := []float64{3.1, 4.9, 7.2, 8.8, 11.1, 12.9}

	res := Linear(x, y)
	if res == nil {
		t.Fatal("nil result")
	}
	if !almostEqual(res.Slope, 2.0, 0.1) {
		t.Errorf("slope = %v, want ~2", res.Slope)
	}
	if !almostEqual(res.Intercept, 1.0, 0.3) {
		t.Errorf("intercept = %v, want ~1", res.Intercept)
	}
	if res.R2 < 0.99 {
		t.Errorf("r2 = %v", res.R2)
	}
	if res.DF != 4 {
		t.Errorf("df = %d, want 4", res.DF)
	}
	if !(res.SlopeCI.Low < res.Slope && res.Slope < res.SlopeCI.High) {
		t.Errorf("slope CI %+v does not bracket %v", res.SlopeCI, res.Slope)
	}
	if !(res.InterceptCI.Low < res.Intercept && res.Intercept < res.InterceptCI.High) {
		t.Errorf("intercept CI %+v does not bracket %v", res.InterceptCI, res.Intercept)
	}
	if res.SESlope <= 0 {
		t.Errorf("se slope = %v", res.SESlope)
	}
}

func TestLinearPreconditions(t *testing.T) {
	if Linear([]float64{1, 2}, []float64{1, 2}) != nil {
		t.Error("n < 3 must return nil")
	}
	if Linear([]float64{2, 2, 2}, []float64{1, 2, 3}) != nil {
		t.Error("constant x must return nil")
	}
}

func TestCompareSlopes(t *testing.T) {
	fits := []GroupFit{
		{Name: "wt", Fit: Linear([]float64{1, 2, 3, 4}, []float64{1.1, 1.9, 3.2, 3.8})},
		{Name: "ko", Fit: Linear([]float64{1, 2, 3, 4}, []float64{2.1, 4.2, 5.8, 8.1})},
		{Name: "thin", Fit: nil}, // too few points upstream
	}

	comparisons := CompareSlopes(fits, observe.AdjustHolm)
	if len(comparisons) != 1 {
		t.Fatalf("expected 1 usable pair, got %d", len(comparisons))
	}
	c := comparisons[0]
	if c.PairLabel != "wt vs ko" {
		t.Errorf("label = %q", c.PairLabel)
	}
	if c.T == 0 {
		t.Error("slopes differ; t must be non-zero")
	}
	if c.DF != 2 {
		t.Errorf("df = %d, want min of the residual dfs", c.DF)
	}
	if c.AdjustedP == nil || *c.AdjustedP < c.RawP {
		t.Errorf("adjusted p %v inconsistent with raw %v", c.AdjustedP, c.RawP)
	}
}
