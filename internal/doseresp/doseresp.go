// Package doseresp fits the four-parameter logistic model
//
//	y = bottom + (top - bottom) / (1 + (ec50/x)^hill)
//
// to concentration-response data by damped least squares, with optional
// plate-control constraints on the plateaus, automatic outlier rejection,
// and a bootstrap confidence interval on EC50.
package doseresp

import (
	"fmt"
	"math"
	"math/rand"
	"sort"

	"gonum.org/v1/gonum/mat"

	"labstats/domain/observe"
	"labstats/domain/result"
	"labstats/internal/adjust"
	"labstats/internal/distrib"
)

const (
	maxIterations = 200
	lambdaInit    = 1e-3
	lambdaMax     = 1e10
	// outlierQ is the false-discovery rate for the residual screen.
	outlierQ = 0.01
)

// FitOptions constrains the fit. A non-nil FixTop or FixBottom pins that
// plateau to a plate-control value instead of estimating it. Resamples sizes
// the EC50 bootstrap; zero selects a count scaled to the data.
type FitOptions struct {
	FixTop    *float64
	FixBottom *float64
	Resamples int
}

// params is the full 4PL parameter set. logE carries ln(EC50) so the
// optimizer can move freely while EC50 stays positive.
type params struct {
	top    float64
	bottom float64
	hill   float64
	logE   float64
}

func (p params) eval(lnx float64) float64 {
	u := math.Exp(p.hill * (p.logE - lnx))
	return p.bottom + (p.top-p.bottom)/(1+u)
}

// Fit runs the full pipeline: screen out non-positive concentrations, fit,
// reject gross outliers by a BH-controlled residual screen and refit, then
// bootstrap the EC50 interval. Returns nil when fewer than 4 usable points
// remain at any stage. rng feeds the bootstrap; a nil rng skips the interval.
func Fit(x, y []float64, opts FitOptions, rng *rand.Rand) *result.CurveFitResult {
	if len(x) != len(y) {
		return nil
	}

	res := &result.CurveFitResult{}
	usableIdx := make([]int, 0, len(x))
	for i, xi := range x {
		if xi <= 0 || math.IsNaN(xi) || math.IsNaN(y[i]) {
			res.DroppedIndices = append(res.DroppedIndices, i)
			continue
		}
		usableIdx = append(usableIdx, i)
	}
	if len(usableIdx) < len(x) {
		res.Warnings = append(res.Warnings,
			fmt.Sprintf("%d point(s) with non-positive or missing values excluded before fitting", len(x)-len(usableIdx)))
	}
	if len(usableIdx) < 4 {
		return nil
	}

	lnx := make([]float64, len(usableIdx))
	yy := make([]float64, len(usableIdx))
	for i, idx := range usableIdx {
		lnx[i] = math.Log(x[idx])
		yy[i] = y[idx]
	}

	p, sse, converged := fitOnce(lnx, yy, opts)

	// Residual screen: standardize against the fit, convert to two-sided
	// normal p-values, and let BH at Q=0.01 pick the rejects.
	if flagged := screenOutliers(lnx, yy, p, opts); len(flagged) > 0 && len(lnx)-len(flagged) >= 4 {
		keptLnx := make([]float64, 0, len(lnx))
		keptY := make([]float64, 0, len(yy))
		for i := range lnx {
			if flagged[i] {
				res.DroppedIndices = append(res.DroppedIndices, usableIdx[i])
				continue
			}
			keptLnx = append(keptLnx, lnx[i])
			keptY = append(keptY, yy[i])
		}
		res.Warnings = append(res.Warnings,
			fmt.Sprintf("%d point(s) rejected as outliers and the curve refit", len(lnx)-len(keptLnx)))
		lnx, yy = keptLnx, keptY
		p, sse, converged = fitOnce(lnx, yy, opts)
	}

	res.Top = p.top
	res.Bottom = p.bottom
	res.Hill = p.hill
	res.EC50 = math.Exp(p.logE)
	res.SSE = sse
	res.Converged = converged
	res.UsedPointCount = len(lnx)
	if !converged {
		res.Warnings = append(res.Warnings, "fit did not converge; parameter estimates may be unstable")
	}

	if rng != nil {
		resamples := opts.Resamples
		if resamples <= 0 {
			resamples = defaultResamples(len(lnx))
		}
		res.Resamples = resamples
		res.CI = bootstrapEC50(lnx, yy, opts, resamples, rng)
	}
	return res
}

// fitOnce runs Levenberg-Marquardt from a data-derived start.
func fitOnce(lnx, y []float64, opts FitOptions) (params, float64, bool) {
	p := initialGuess(lnx, y, opts)
	sse := sumSquares(lnx, y, p)
	lambda := lambdaInit
	converged := false

	for iter := 0; iter < maxIterations; iter++ {
		delta, ok := lmStep(lnx, y, p, opts, lambda)
		if !ok {
			lambda *= 10
			if lambda > lambdaMax {
				break
			}
			continue
		}
		candidate := applyStep(p, delta, opts)
		candSSE := sumSquares(lnx, y, candidate)
		if candSSE < sse {
			improvement := sse - candSSE
			p, sse = candidate, candSSE
			lambda /= 10
			if lambda < 1e-12 {
				lambda = 1e-12
			}
			if improvement < 1e-10*(sse+1e-10) {
				converged = true
				break
			}
		} else {
			lambda *= 10
			if lambda > lambdaMax {
				converged = candSSE-sse < 1e-8*(sse+1e-8)
				break
			}
		}
	}
	return p, sse, converged
}

// lmStep solves (JtJ + lambda*diag(JtJ)) delta = Jt r for the free
// parameters. ok is false when the damped normal equations are singular.
func lmStep(lnx, y []float64, p params, opts FitOptions, lambda float64) ([]float64, bool) {
	free := freeCount(opts)
	jtj := mat.NewDense(free, free, nil)
	jtr := mat.NewVecDense(free, nil)

	row := make([]float64, free)
	for i := range lnx {
		u := math.Exp(p.hill * (p.logE - lnx[i]))
		g := 1 / (1 + u)
		shape := (p.top - p.bottom) * u / ((1 + u) * (1 + u))

		j := 0
		if opts.FixTop == nil {
			row[j] = g
			j++
		}
		if opts.FixBottom == nil {
			row[j] = 1 - g
			j++
		}
		row[j] = -(p.logE - lnx[i]) * shape // d/dhill
		j++
		row[j] = -p.hill * shape // d/dlogE

		resid := y[i] - p.eval(lnx[i])
		for a := 0; a < free; a++ {
			jtr.SetVec(a, jtr.AtVec(a)+row[a]*resid)
			for b := 0; b < free; b++ {
				jtj.Set(a, b, jtj.At(a, b)+row[a]*row[b])
			}
		}
	}

	for a := 0; a < free; a++ {
		jtj.Set(a, a, jtj.At(a, a)*(1+lambda))
	}

	var delta mat.VecDense
	if err := delta.SolveVec(jtj, jtr); err != nil {
		return nil, false
	}
	out := make([]float64, free)
	for a := 0; a < free; a++ {
		out[a] = delta.AtVec(a)
		if math.IsNaN(out[a]) || math.IsInf(out[a], 0) {
			return nil, false
		}
	}
	return out, true
}

func applyStep(p params, delta []float64, opts FitOptions) params {
	j := 0
	if opts.FixTop == nil {
		p.top += delta[j]
		j++
	}
	if opts.FixBottom == nil {
		p.bottom += delta[j]
		j++
	}
	p.hill += delta[j]
	j++
	p.logE += delta[j]
	return p
}

func freeCount(opts FitOptions) int {
	free := 2 // hill and logE are always estimated
	if opts.FixTop == nil {
		free++
	}
	if opts.FixBottom == nil {
		free++
	}
	return free
}

// initialGuess seeds the plateaus from the response range, EC50 from the
// geometric middle of the tested concentrations, and the hill sign from the
// direction of the response along the concentration axis.
func initialGuess(lnx, y []float64, opts FitOptions) params {
	minY, maxY := y[0], y[0]
	for _, v := range y[1:] {
		minY = math.Min(minY, v)
		maxY = math.Max(maxY, v)
	}
	p := params{top: maxY, bottom: minY}
	if opts.FixTop != nil {
		p.top = *opts.FixTop
	}
	if opts.FixBottom != nil {
		p.bottom = *opts.FixBottom
	}

	sum := 0.0
	for _, v := range lnx {
		sum += v
	}
	p.logE = sum / float64(len(lnx))

	p.hill = 1
	if trend(lnx, y) < 0 {
		p.hill = -1
	}
	return p
}

// trend is the sign-carrying covariance between log concentration and
// response.
func trend(lnx, y []float64) float64 {
	mx, my := 0.0, 0.0
	for i := range lnx {
		mx += lnx[i]
		my += y[i]
	}
	mx /= float64(len(lnx))
	my /= float64(len(y))
	cov := 0.0
	for i := range lnx {
		cov += (lnx[i] - mx) * (y[i] - my)
	}
	return cov
}

func sumSquares(lnx, y []float64, p params) float64 {
	sse := 0.0
	for i := range lnx {
		r := y[i] - p.eval(lnx[i])
		sse += r * r
	}
	return sse
}

func screenOutliers(lnx, y []float64, p params, opts FitOptions) []bool {
	n := len(lnx)
	df := n - freeCount(opts)
	if df < 1 {
		return nil
	}

	residuals := make([]float64, n)
	sse := 0.0
	for i := range lnx {
		residuals[i] = y[i] - p.eval(lnx[i])
		sse += residuals[i] * residuals[i]
	}

	// A robust scale keeps one gross outlier from inflating its own
	// yardstick; fall back to the RMS residual when the MAD degenerates.
	sd := 1.4826 * medianAbs(residuals)
	if sd == 0 {
		sd = math.Sqrt(sse / float64(df))
	}
	// Residuals at numerical-precision scale carry no outlier signal.
	if sd == 0 || sd <= 1e-4*spread(y) {
		return nil
	}

	pvals := make([]float64, n)
	for i, r := range residuals {
		pvals[i] = distrib.ZPValueTwoSided(r / sd)
	}
	adjusted := adjust.Adjust(pvals, observe.AdjustBH)

	flagged := make([]bool, n)
	any := false
	for i, q := range adjusted {
		if q < outlierQ {
			flagged[i] = true
			any = true
		}
	}
	if !any {
		return nil
	}
	return flagged
}

func spread(y []float64) float64 {
	if len(y) == 0 {
		return 0
	}
	lo, hi := y[0], y[0]
	for _, v := range y[1:] {
		if v < lo {
			lo = v
		}
		if v > hi {
			hi = v
		}
	}
	return hi - lo
}

func medianAbs(residuals []float64) float64 {
	abs := make([]float64, len(residuals))
	for i, r := range residuals {
		abs[i] = math.Abs(r)
	}
	sort.Float64s(abs)
	n := len(abs)
	if n == 0 {
		return 0
	}
	if n%2 == 1 {
		return abs[n/2]
	}
	return (abs[n/2-1] + abs[n/2]) / 2
}

func defaultResamples(n int) int {
	r := 10 * n
	if r < 40 {
		r = 40
	}
	if r > 150 {
		r = 150
	}
	return r
}

// bootstrapEC50 refits resampled datasets and reports the percentile
// interval of the converged EC50 estimates. Nil when fewer than half the
// resamples produce a usable fit.
func bootstrapEC50(lnx, y []float64, opts FitOptions, resamples int, rng *rand.Rand) *result.Interval {
	n := len(lnx)
	estimates := make([]float64, 0, resamples)
	bx := make([]float64, n)
	by := make([]float64, n)
	for r := 0; r < resamples; r++ {
		for i := 0; i < n; i++ {
			j := rng.Intn(n)
			bx[i] = lnx[j]
			by[i] = y[j]
		}
		p, _, converged := fitOnce(bx, by, opts)
		if !converged || math.IsNaN(p.logE) {
			continue
		}
		estimates = append(estimates, math.Exp(p.logE))
	}
	if len(estimates) < resamples/2 || len(estimates) < 2 {
		return nil
	}
	low, high := distrib.PercentileCI(estimates, 0.95)
	return &result.Interval{Low: low, High: high}
}
