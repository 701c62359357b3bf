package result

// OutcomeKind tags the DecisionOutcome union. Exactly one payload field is
// populated for each kind.
type OutcomeKind string

const (
	OutcomeTTest         OutcomeKind = "ttest"
	OutcomeMannWhitney   OutcomeKind = "mann_whitney"
	OutcomeWilcoxon      OutcomeKind = "wilcoxon"
	OutcomeAnova         OutcomeKind = "anova"
	OutcomeKruskalWallis OutcomeKind = "kruskal_wallis"
	OutcomeDoseResponse  OutcomeKind = "dose_response"
	OutcomeAdvisory      OutcomeKind = "advisory"
	OutcomeNone          OutcomeKind = "none"
)

// DecisionOutcome is the product of one decision-tree evaluation: which test
// was chosen, why, and the executed numbers. It is a pure projection of the
// current data and options, re-derived on every call.
type DecisionOutcome struct {
	Kind          OutcomeKind `json:"kind"`
	TestName      string      `json:"test_name"`
	Rationale     string      `json:"rationale"`
	ResultSummary string      `json:"result_summary,omitempty"`

	TTest   *TTestResult `json:"ttest,omitempty"`
	// Student is surfaced alongside Welch when variance homogeneity holds
	Student *TTestResult `json:"student,omitempty"`

	MannWhitney *MannWhitneyResult `json:"mann_whitney,omitempty"`
	Wilcoxon    *WilcoxonResult    `json:"wilcoxon,omitempty"`

	Anova            *AnovaResult         `json:"anova,omitempty"`
	Tukey            []PairwiseComparison `json:"tukey,omitempty"`
	HolmPairs        []PairwiseComparison `json:"holm_pairs,omitempty"`
	DunnettVsControl []PairwiseComparison `json:"dunnett_vs_control,omitempty"`

	KruskalWallis *KruskalResult       `json:"kruskal_wallis,omitempty"`
	Dunn          []PairwiseComparison `json:"dunn,omitempty"`

	// Advisory carries non-terminal guidance ("transform and retest",
	// configuration gaps) when no statistic was computed for this path.
	Advisory string `json:"advisory,omitempty"`
}
