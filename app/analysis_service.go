// Package app orchestrates the engine: it wires validated requests through
// collapse, diagnostics, and the decision tree, and stamps every run with an
// audit manifest.
package app

import (
	"context"
	"fmt"
	"time"

	"labstats/domain/core"
	"labstats/domain/observe"
	"labstats/domain/result"
	"labstats/internal"
	"labstats/internal/config"
	"labstats/internal/decide"
	"labstats/internal/describe"
	"labstats/internal/doseresp"
	"labstats/internal/factorial"
	"labstats/internal/regress"
	"labstats/internal/survival"
	"labstats/ports"
)

// AnalysisService runs one dataset end to end. It holds no per-run state;
// every call recomputes from the observations it is handed.
type AnalysisService struct {
	engine decide.Engine
	rng    ports.RNG
	logger *internal.Logger
}

// NewAnalysisService creates an analysis service from engine configuration
func NewAnalysisService(cfg config.EngineConfig, rng ports.RNG, logger *internal.Logger) *AnalysisService {
	return &AnalysisService{
		engine: decide.Engine{Alpha: cfg.Alpha, Resamples: cfg.Resamples},
		rng:    rng,
		logger: logger,
	}
}

// AnalysisRequest defines one comparison run
type AnalysisRequest struct {
	Observations []observe.Observation  `json:"observations"`
	Compute      observe.ComputeOptions `json:"compute"`
	Design       observe.DesignOptions  `json:"design"`
}

// AnalysisResult bundles the descriptive layer, the variance diagnostic,
// and the selected test outcome with the run manifest
type AnalysisResult struct {
	Manifest *result.AnalysisManifest `json:"manifest"`
	Groups   []result.GroupStatistics `json:"groups"`
	Levene   *result.LeveneResult     `json:"levene,omitempty"`
	Outcome  result.DecisionOutcome   `json:"outcome"`
}

// Analyze collapses the observations, runs diagnostics, walks the decision
// tree, and executes the selected test.
func (s *AnalysisService) Analyze(ctx context.Context, req AnalysisRequest) (*AnalysisResult, error) {
	start := time.Now()

	if len(req.Observations) == 0 {
		return nil, core.ErrNoObservations
	}
	// omitted option blocks mean "use the defaults", not "reject"
	if req.Compute == (observe.ComputeOptions{}) {
		req.Compute = observe.DefaultComputeOptions()
	}
	if req.Design == (observe.DesignOptions{}) {
		req.Design = observe.DefaultDesignOptions()
	}
	if err := req.Compute.Validate(); err != nil {
		return nil, fmt.Errorf("compute options: %w", err)
	}
	if err := req.Design.Validate(); err != nil {
		return nil, fmt.Errorf("design options: %w", err)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	stats, samples := describe.Summaries(req.Observations, req.Compute)
	levene := describe.Levene(samples)

	diag := decide.Diagnostics{
		GroupStats: stats,
		Levene:     levene,
		Transform:  req.Compute.Transform,
	}
	outcome := s.engine.Decide(samples, diag, req.Design, s.rng.Stream("decision"))

	manifest := result.NewAnalysisManifest(s.rng.Seed())
	manifest.Groups = len(samples)
	manifest.Observations = len(req.Observations)
	manifest.TestsExecuted = executedTests(outcome)
	manifest.WarningCount = countWarnings(samples, outcome)
	manifest.RuntimeMs = time.Since(start).Milliseconds()

	s.logger.Info("analysis %s: %d group(s), %d observation(s), outcome %s",
		manifest.RunID, manifest.Groups, manifest.Observations, outcome.Kind)

	return &AnalysisResult{
		Manifest: manifest,
		Groups:   stats,
		Levene:   levene,
		Outcome:  outcome,
	}, nil
}

// DoseResponseRequest defines one curve fit
type DoseResponseRequest struct {
	Concentrations []float64 `json:"concentrations"`
	Responses      []float64 `json:"responses"`
	FixTop         *float64  `json:"fix_top,omitempty"`
	FixBottom      *float64  `json:"fix_bottom,omitempty"`
}

// DoseResponseResult pairs the fit with its run manifest
type DoseResponseResult struct {
	Manifest *result.AnalysisManifest `json:"manifest"`
	Fit      *result.CurveFitResult   `json:"fit"`
}

// FitDoseResponse fits the four-parameter logistic model to the request data
func (s *AnalysisService) FitDoseResponse(ctx context.Context, req DoseResponseRequest) (*DoseResponseResult, error) {
	start := time.Now()

	if len(req.Concentrations) == 0 {
		return nil, core.ErrNoObservations
	}
	if len(req.Concentrations) != len(req.Responses) {
		return nil, core.NewValidationError("responses", "length must match concentrations")
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	fit := doseresp.Fit(req.Concentrations, req.Responses, doseresp.FitOptions{
		FixTop:    req.FixTop,
		FixBottom: req.FixBottom,
	}, s.rng.Stream("doseresp"))
	if fit == nil {
		return nil, fmt.Errorf("%w: a 4PL fit needs at least 4 points with positive concentrations", core.ErrInsufficientData)
	}

	manifest := result.NewAnalysisManifest(s.rng.Seed())
	manifest.Groups = 1
	manifest.Observations = len(req.Concentrations)
	manifest.TestsExecuted = []string{"four-parameter logistic fit"}
	manifest.WarningCount = len(fit.Warnings)
	manifest.RuntimeMs = time.Since(start).Milliseconds()

	s.logger.Info("dose-response %s: %d point(s) used, ec50=%.4g, converged=%t",
		manifest.RunID, fit.UsedPointCount, fit.EC50, fit.Converged)

	return &DoseResponseResult{Manifest: manifest, Fit: fit}, nil
}

// SurvivalRequest defines one time-to-event comparison
type SurvivalRequest struct {
	Subjects []survival.Subject `json:"subjects"`
}

// SurvivalResult carries the per-group curves and the log-rank comparison
type SurvivalResult struct {
	Manifest *result.AnalysisManifest `json:"manifest"`
	Curves   []result.SurvivalCurve   `json:"curves"`
	LogRank  *result.LogRankResult    `json:"log_rank,omitempty"`
}

// AnalyzeSurvival estimates Kaplan-Meier curves and, when two or more
// groups have events, the log-rank comparison
func (s *AnalysisService) AnalyzeSurvival(ctx context.Context, req SurvivalRequest) (*SurvivalResult, error) {
	start := time.Now()

	if len(req.Subjects) == 0 {
		return nil, core.ErrNoObservations
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	curves := survival.KaplanMeier(req.Subjects)
	logRank := survival.LogRank(req.Subjects)

	manifest := result.NewAnalysisManifest(s.rng.Seed())
	manifest.Groups = len(curves)
	manifest.Observations = len(req.Subjects)
	manifest.TestsExecuted = []string{"kaplan-meier"}
	if logRank != nil {
		manifest.TestsExecuted = append(manifest.TestsExecuted, "log-rank")
	}
	manifest.RuntimeMs = time.Since(start).Milliseconds()

	return &SurvivalResult{Manifest: manifest, Curves: curves, LogRank: logRank}, nil
}

// CorrelationRequest defines one paired-variable analysis. Groups is
// optional; when set, per-group regressions and slope comparisons are
// attached.
type CorrelationRequest struct {
	X      []float64            `json:"x"`
	Y      []float64            `json:"y"`
	Groups []string             `json:"groups,omitempty"`
	Adjust observe.AdjustMethod `json:"adjust,omitempty"`
}

// CorrelationResult carries both correlation measures plus the pooled
// regression, and per-group slope comparisons when a grouping was given
type CorrelationResult struct {
	Manifest   *result.AnalysisManifest  `json:"manifest"`
	Pearson    *result.CorrelationResult `json:"pearson,omitempty"`
	Spearman   *result.CorrelationResult `json:"spearman,omitempty"`
	Regression *result.RegressionResult  `json:"regression,omitempty"`
	Slopes     []result.SlopeComparison  `json:"slopes,omitempty"`
}

// AnalyzeCorrelation computes Pearson, Spearman, and the least-squares line
// over the pooled data, plus per-group slope heterogeneity when the request
// labels each point with a group
func (s *AnalysisService) AnalyzeCorrelation(ctx context.Context, req CorrelationRequest) (*CorrelationResult, error) {
	start := time.Now()

	if len(req.X) == 0 {
		return nil, core.ErrNoObservations
	}
	if len(req.X) != len(req.Y) {
		return nil, core.NewValidationError("y", "length must match x")
	}
	if len(req.Groups) > 0 && len(req.Groups) != len(req.X) {
		return nil, core.NewValidationError("groups", "length must match x")
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	res := &CorrelationResult{
		Pearson:    regress.Pearson(req.X, req.Y),
		Spearman:   regress.Spearman(req.X, req.Y),
		Regression: regress.Linear(req.X, req.Y),
	}
	if len(req.Groups) > 0 {
		res.Slopes = regress.CompareSlopes(groupFits(req), req.Adjust)
	}

	manifest := result.NewAnalysisManifest(s.rng.Seed())
	manifest.Groups = distinctCount(req.Groups)
	manifest.Observations = len(req.X)
	manifest.TestsExecuted = []string{"pearson", "spearman", "linear regression"}
	if len(res.Slopes) > 0 {
		manifest.TestsExecuted = append(manifest.TestsExecuted, "slope comparison")
	}
	manifest.RuntimeMs = time.Since(start).Milliseconds()
	res.Manifest = manifest
	return res, nil
}

// FactorialRequest defines one two-factor crossed design
type FactorialRequest struct {
	Observations []factorial.Observation `json:"observations"`
	Adjust       observe.AdjustMethod    `json:"adjust,omitempty"`
}

// FactorialResult pairs the two-way decomposition with its manifest
type FactorialResult struct {
	Manifest *result.AnalysisManifest `json:"manifest"`
	Anova    *result.FactorialResult  `json:"anova"`
}

// AnalyzeFactorial runs the two-way ANOVA with interaction
func (s *AnalysisService) AnalyzeFactorial(ctx context.Context, req FactorialRequest) (*FactorialResult, error) {
	start := time.Now()

	if len(req.Observations) == 0 {
		return nil, core.ErrNoObservations
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	anova := factorial.TwoWayAnova(req.Observations, s.engine.Alpha, req.Adjust)
	if anova == nil {
		return nil, fmt.Errorf("%w: a two-way ANOVA needs 2+ levels on both factors and spare error degrees of freedom", core.ErrInsufficientData)
	}

	manifest := result.NewAnalysisManifest(s.rng.Seed())
	manifest.Observations = len(req.Observations)
	manifest.TestsExecuted = []string{"two-way anova"}
	manifest.RuntimeMs = time.Since(start).Milliseconds()
	return &FactorialResult{Manifest: manifest, Anova: anova}, nil
}

func groupFits(req CorrelationRequest) []regress.GroupFit {
	var order []string
	xs := make(map[string][]float64)
	ys := make(map[string][]float64)
	for i, g := range req.Groups {
		if _, seen := xs[g]; !seen {
			order = append(order, g)
		}
		xs[g] = append(xs[g], req.X[i])
		ys[g] = append(ys[g], req.Y[i])
	}
	fits := make([]regress.GroupFit, 0, len(order))
	for _, g := range order {
		fits = append(fits, regress.GroupFit{Name: g, Fit: regress.Linear(xs[g], ys[g])})
	}
	return fits
}

func distinctCount(groups []string) int {
	if len(groups) == 0 {
		return 1
	}
	seen := make(map[string]bool)
	for _, g := range groups {
		seen[g] = true
	}
	return len(seen)
}

// executedTests lists the named tests an outcome actually ran, for the
// manifest audit trail
func executedTests(outcome result.DecisionOutcome) []string {
	tests := []string{}
	if outcome.TestName != "" && outcome.Kind != result.OutcomeNone && outcome.Kind != result.OutcomeAdvisory {
		tests = append(tests, outcome.TestName)
	}
	if outcome.Student != nil {
		tests = append(tests, "Student's t-test")
	}
	if len(outcome.Tukey) > 0 {
		tests = append(tests, "Tukey HSD")
	}
	if len(outcome.HolmPairs) > 0 {
		tests = append(tests, "pairwise Welch")
	}
	if len(outcome.DunnettVsControl) > 0 {
		tests = append(tests, "vs-control Welch")
	}
	if len(outcome.Dunn) > 0 {
		tests = append(tests, "Dunn post-hoc")
	}
	return tests
}

func countWarnings(samples []observe.Sample, outcome result.DecisionOutcome) int {
	count := 0
	for _, s := range samples {
		count += len(s.Warnings)
	}
	if outcome.Advisory != "" {
		count++
	}
	return count
}
