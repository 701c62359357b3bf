package result

import (
	"labstats/domain/core"
)

// AnalysisManifest is the audit record for one engine run: what ran, with
// which seed, and how long it took. Same inputs plus same seed reproduce the
// same results byte for byte.
type AnalysisManifest struct {
	RunID         core.RunID     `json:"run_id"`
	Seed          int64          `json:"seed"`
	RuntimeMs     int64          `json:"runtime_ms"`
	Groups        int            `json:"groups"`
	Observations  int            `json:"observations"`
	TestsExecuted []string       `json:"tests_executed"`
	WarningCount  int            `json:"warning_count"`
	CreatedAt     core.Timestamp `json:"created_at"`
}

// NewAnalysisManifest creates a manifest with a fresh run id
func NewAnalysisManifest(seed int64) *AnalysisManifest {
	return &AnalysisManifest{
		RunID:         core.RunID(core.NewID()),
		Seed:          seed,
		TestsExecuted: []string{},
		CreatedAt:     core.Now(),
	}
}
