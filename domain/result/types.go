package result

// Plain immutable result records. Everything here is a projection of one
// engine invocation over the caller's observations and options; nothing is
// persisted or partially updated. All records are safe to serialize as JSON.

// Interval is a two-sided interval estimate
type Interval struct {
	Low  float64 `json:"low"`
	High float64 `json:"high"`
}

// ConfidenceInterval is a t-distribution based interval with its df
type ConfidenceInterval struct {
	Low  float64 `json:"low"`
	High float64 `json:"high"`
	DF   int     `json:"df"`
}

// NormalityVerdict is the heuristic classification of a group's distribution.
// It is not backed by a p-value and must not be treated as an inferential
// test result.
type NormalityVerdict string

const (
	NormalityRoughlyNormal    NormalityVerdict = "looks roughly normal"
	NormalityPossiblyNonNorm  NormalityVerdict = "possibly non-normal"
	NormalityNotReliable      NormalityVerdict = "not reliable"
)

// Normality pairs the Shapiro-Wilk-style W statistic with its verdict
type Normality struct {
	W       float64          `json:"w"`
	Verdict NormalityVerdict `json:"verdict"`
}

// OutlierFlags marks values outside the interquartile fence. Flagged values
// stay in the sample; indices refer to the collapsed Sample order.
type OutlierFlags struct {
	Indices   []int   `json:"indices,omitempty"`
	Count     int     `json:"count"`
	LowFence  float64 `json:"low_fence"`
	HighFence float64 `json:"high_fence"`
}

// GroupStatistics is the per-group descriptive summary. SEM and the CI df
// are always derived from the biological replicate count, never from the
// technical row count.
type GroupStatistics struct {
	Group        string              `json:"group"`
	NBio         int                 `json:"n_bio"`
	NTech        int                 `json:"n_tech"`
	Mean         float64             `json:"mean"`
	Median       float64             `json:"median"`
	Modes        []float64           `json:"modes"`
	SD           float64             `json:"sd"`
	Variance     float64             `json:"variance"`
	SEM          float64             `json:"sem"`
	CV           float64             `json:"cv"`
	Min          float64             `json:"min"`
	Max          float64             `json:"max"`
	Range        float64             `json:"range"`
	CI95         *ConfidenceInterval `json:"ci95,omitempty"`
	Normality    Normality           `json:"normality"`
	Outliers     OutlierFlags        `json:"outliers"`
	Warnings     []string            `json:"warnings,omitempty"`
}

// LeveneResult is the variance-homogeneity diagnostic across groups
type LeveneResult struct {
	F   float64 `json:"f"`
	DF1 int     `json:"df1"`
	DF2 int     `json:"df2"`
	P   float64 `json:"p"`
}

// PairwiseComparison is one member of a family of pairwise tests. A family
// is always adjusted together by a single adjuster call; AdjustedP is nil
// until that happens.
type PairwiseComparison struct {
	PairLabel string   `json:"pair_label"`
	Statistic float64  `json:"statistic"`
	MeanDiff  float64  `json:"mean_diff,omitempty"`
	RawP      float64  `json:"raw_p"`
	AdjustedP *float64 `json:"adjusted_p,omitempty"`
}

// TTestResult covers Student's, Welch's and paired t-tests
type TTestResult struct {
	Method    string    `json:"method"` // "student", "welch", "paired"
	T         float64   `json:"t"`
	DF        float64   `json:"df"`
	P         float64   `json:"p"`
	MeanA     float64   `json:"mean_a"`
	MeanB     float64   `json:"mean_b"`
	MeanDiff  float64   `json:"mean_diff"`
	CohenD    float64   `json:"cohen_d"`
	HedgesG   float64   `json:"hedges_g"`
	DiffCI    *Interval `json:"diff_ci,omitempty"` // percentile bootstrap
	Resamples int       `json:"resamples,omitempty"`
	NA        int       `json:"n_a"`
	NB        int       `json:"n_b"`
}

// MannWhitneyResult is the mid-rank Mann-Whitney U test
type MannWhitneyResult struct {
	U            float64 `json:"u"`
	Z            float64 `json:"z"`
	P            float64 `json:"p"`
	RankBiserial float64 `json:"rank_biserial"`
	N1           int     `json:"n1"`
	N2           int     `json:"n2"`

	DiffCI    *Interval `json:"diff_ci,omitempty"` // percentile bootstrap for the median difference
	Resamples int       `json:"resamples,omitempty"`
}

// WilcoxonResult is the signed-rank test over paired differences
type WilcoxonResult struct {
	W            float64 `json:"w"`
	Z            float64 `json:"z"`
	P            float64 `json:"p"`
	NUsed        int     `json:"n_used"`
	NZeroDropped int     `json:"n_zero_dropped"`

	DiffCI    *Interval `json:"diff_ci,omitempty"` // percentile bootstrap for the median difference
	Resamples int       `json:"resamples,omitempty"`
}

// AnovaResult is the one-way ANOVA decomposition
type AnovaResult struct {
	F            float64 `json:"f"`
	P            float64 `json:"p"`
	DFBetween    int     `json:"df_between"`
	DFWithin     int     `json:"df_within"`
	SSBetween    float64 `json:"ss_between"`
	SSWithin     float64 `json:"ss_within"`
	MSWithin     float64 `json:"ms_within"`
	GrandMean    float64 `json:"grand_mean"`
	EtaSquared   float64 `json:"eta_squared"`
	OmegaSquared float64 `json:"omega_squared"`
}

// KruskalResult is the rank-based k-group test. The H statistic omits the
// tie-correction factor; see the Note field.
type KruskalResult struct {
	H    float64 `json:"h"`
	DF   int     `json:"df"`
	P    float64 `json:"p"`
	Note string  `json:"note,omitempty"`
}

// SimpleEffect is one conditional one-way decomposition of a significant
// factorial interaction
type SimpleEffect struct {
	Label     string   `json:"label"` // e.g. "A within B=low"
	F         float64  `json:"f"`
	DF1       int      `json:"df1"`
	DF2       int      `json:"df2"`
	RawP      float64  `json:"raw_p"`
	AdjustedP *float64 `json:"adjusted_p,omitempty"`
}

// FactorialResult is the two-way ANOVA with interaction
type FactorialResult struct {
	SSA           float64        `json:"ss_a"`
	SSB           float64        `json:"ss_b"`
	SSAB          float64        `json:"ss_ab"`
	SSE           float64        `json:"ss_e"`
	DFA           int            `json:"df_a"`
	DFB           int            `json:"df_b"`
	DFAB          int            `json:"df_ab"`
	DFE           int            `json:"df_e"`
	FA            float64        `json:"f_a"`
	FB            float64        `json:"f_b"`
	FAB           float64        `json:"f_ab"`
	PA            float64        `json:"p_a"`
	PB            float64        `json:"p_b"`
	PAB           float64        `json:"p_ab"`
	SimpleEffects []SimpleEffect `json:"simple_effects,omitempty"`
}

// CorrelationResult covers Pearson and Spearman correlation
type CorrelationResult struct {
	Method string  `json:"method"` // "pearson", "spearman"
	R      float64 `json:"r"`
	T      float64 `json:"t"`
	DF     int     `json:"df"`
	P      float64 `json:"p"`
	N      int     `json:"n"`
}

// RegressionResult is a simple linear fit with interval estimates
type RegressionResult struct {
	Slope       float64  `json:"slope"`
	Intercept   float64  `json:"intercept"`
	R2          float64  `json:"r2"`
	SESlope     float64  `json:"se_slope"`
	SEIntercept float64  `json:"se_intercept"`
	DF          int      `json:"df"`
	SlopeCI     Interval `json:"slope_ci"`
	InterceptCI Interval `json:"intercept_ci"`
	N           int      `json:"n"`
}

// SlopeComparison compares regression slopes between two groups
type SlopeComparison struct {
	PairLabel string   `json:"pair_label"`
	T         float64  `json:"t"`
	DF        int      `json:"df"`
	RawP      float64  `json:"raw_p"`
	AdjustedP *float64 `json:"adjusted_p,omitempty"`
}

// CurveFitResult is the four-parameter logistic fit. DroppedIndices refer to
// the original input ordinates so excluded points can be re-highlighted.
type CurveFitResult struct {
	Top            float64   `json:"top"`
	Hill           float64   `json:"hill"`
	EC50           float64   `json:"ec50"`
	Bottom         float64   `json:"bottom"`
	CI             *Interval `json:"ci,omitempty"` // bootstrap CI for EC50
	UsedPointCount int       `json:"used_point_count"`
	DroppedIndices []int     `json:"dropped_indices,omitempty"`
	SSE            float64   `json:"sse"`
	Converged      bool      `json:"converged"`
	Resamples      int       `json:"resamples"`
	Warnings       []string  `json:"warnings,omitempty"`
}

// SurvivalPoint is one step of a Kaplan-Meier curve
type SurvivalPoint struct {
	Time     float64 `json:"time"`
	Survival float64 `json:"survival"`
}

// SurvivalCurve is a stepwise non-increasing survival estimate per group.
// Monotonicity (survival never increases along Points) is a hard invariant.
type SurvivalCurve struct {
	Group       string          `json:"group"`
	Points      []SurvivalPoint `json:"points"`
	CensorTimes []float64       `json:"censor_times,omitempty"`
	Events      int             `json:"events"`
	N           int             `json:"n"`
}

// LogRankResult is the across-group survival comparison
type LogRankResult struct {
	ChiSquare float64 `json:"chi_square"`
	DF        int     `json:"df"`
	P         float64 `json:"p"`
	Note      string  `json:"note,omitempty"`
}
