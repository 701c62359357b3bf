package app

import (
	"context"
	"fmt"
	"math/rand"
	"runtime"

	"golang.org/x/sync/errgroup"

	"labstats/internal"
	"labstats/internal/config"
	"labstats/ports"
)

// BatchService fans a set of independent datasets out across workers. Each
// dataset gets its own named RNG stream derived from the base seed and the
// dataset name, so the batch result does not depend on scheduling order.
type BatchService struct {
	cfg    config.EngineConfig
	rng    ports.RNG
	logger *internal.Logger
}

// NewBatchService creates a batch service
func NewBatchService(cfg config.EngineConfig, rng ports.RNG, logger *internal.Logger) *BatchService {
	return &BatchService{cfg: cfg, rng: rng, logger: logger}
}

// NamedDataset is one batch entry. Name must be unique within the batch; it
// keys the dataset's RNG stream.
type NamedDataset struct {
	Name    string          `json:"name"`
	Request AnalysisRequest `json:"request"`
}

// BatchEntry is one per-dataset outcome. Exactly one of Result and Err is
// set; a failed dataset never aborts its siblings.
type BatchEntry struct {
	Name   string          `json:"name"`
	Result *AnalysisResult `json:"result,omitempty"`
	Err    error           `json:"-"`
}

// AnalyzeAll runs every dataset concurrently and returns entries in input
// order. Only a context cancellation aborts the batch early.
func (s *BatchService) AnalyzeAll(ctx context.Context, datasets []NamedDataset) ([]BatchEntry, error) {
	if err := validateNames(datasets); err != nil {
		return nil, err
	}

	entries := make([]BatchEntry, len(datasets))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.NumCPU())

	for i, ds := range datasets {
		i, ds := i, ds
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			// a per-dataset RNG keyed by name keeps results stable under
			// any worker interleaving
			svc := NewAnalysisService(s.cfg, streamScoped{base: s.rng, scope: ds.Name}, s.logger)
			res, err := svc.Analyze(ctx, ds.Request)
			entries[i] = BatchEntry{Name: ds.Name, Result: res, Err: err}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	failed := 0
	for _, e := range entries {
		if e.Err != nil {
			failed++
		}
	}
	s.logger.Info("batch complete: %d dataset(s), %d failed", len(datasets), failed)
	return entries, nil
}

func validateNames(datasets []NamedDataset) error {
	seen := make(map[string]bool, len(datasets))
	for _, ds := range datasets {
		if ds.Name == "" {
			return fmt.Errorf("every batch dataset needs a non-empty name")
		}
		if seen[ds.Name] {
			return fmt.Errorf("duplicate batch dataset name %q", ds.Name)
		}
		seen[ds.Name] = true
	}
	return nil
}

// streamScoped prefixes every stream name with the dataset scope so two
// datasets never draw from the same generator.
type streamScoped struct {
	base  ports.RNG
	scope string
}

func (s streamScoped) Stream(name string) *rand.Rand {
	return s.base.Stream(s.scope + "/" + name)
}

func (s streamScoped) Seed() int64 { return s.base.Seed() }
