package observe

import (
	"fmt"
	"math"
)

// Sample is a named, ordered list of values after replicate collapsing and
// optional transform. A Sample is owned by the computation invoked on it and
// is never mutated after creation; transforms build new Samples.
type Sample struct {
	Name     string    `json:"name"`
	Values   []float64 `json:"values"`
	NBio     int       `json:"n_bio"`
	NTech    int       `json:"n_tech"`
	Warnings []string  `json:"warnings,omitempty"`
}

// N returns the number of collapsed values
func (s Sample) N() int {
	return len(s.Values)
}

// IsEmpty reports whether the sample carries no values
func (s Sample) IsEmpty() bool {
	return len(s.Values) == 0
}

// Collapse turns tidy observation rows into one Sample per group, applying
// missing-value policy, technical-replicate collapsing, and the optional
// transform. Group order follows first appearance in the input. Groups whose
// collapsed sample comes out empty are skipped, not an error.
func Collapse(rows []Observation, opts ComputeOptions) []Sample {
	order := make([]string, 0)
	byGroup := make(map[string][]Observation)
	for _, row := range rows {
		if _, seen := byGroup[row.Group]; !seen {
			order = append(order, row.Group)
		}
		byGroup[row.Group] = append(byGroup[row.Group], row)
	}

	samples := make([]Sample, 0, len(order))
	for _, name := range order {
		s := collapseGroup(name, byGroup[name], opts)
		if s.IsEmpty() {
			continue
		}
		samples = append(samples, s)
	}
	return samples
}

func collapseGroup(name string, rows []Observation, opts ComputeOptions) Sample {
	s := Sample{Name: name}

	// Missing-value policy. drop-replicate removes every row of a biological
	// replicate that contains any non-finite value; ignore removes only the
	// offending rows.
	dropped := 0
	if opts.MissingHandling == MissingDropReplicate {
		bad := make(map[string]bool)
		for _, r := range rows {
			if !isFinite(r.Value) && r.BioReplicateID != "" {
				bad[r.BioReplicateID] = true
			}
		}
		kept := rows[:0:0]
		for _, r := range rows {
			if !isFinite(r.Value) || bad[r.BioReplicateID] {
				dropped++
				continue
			}
			kept = append(kept, r)
		}
		rows = kept
	} else {
		kept := rows[:0:0]
		for _, r := range rows {
			if !isFinite(r.Value) {
				dropped++
				continue
			}
			kept = append(kept, r)
		}
		rows = kept
	}
	if dropped > 0 {
		s.Warnings = append(s.Warnings, fmt.Sprintf("%s: excluded %d missing or non-finite value(s)", name, dropped))
	}
	if len(rows) == 0 {
		return s
	}

	s.NTech = len(rows)
	s.NBio = countBioReplicates(rows)

	values := make([]float64, 0, len(rows))
	if opts.ReplicateType == ReplicateTechnical && opts.TechnicalHandling == TechnicalAverage {
		// One value per biological replicate: arithmetic mean of its technical
		// rows. Rows without a bio replicate id stay independent values.
		sums := make(map[string]float64)
		counts := make(map[string]int)
		idOrder := make([]string, 0)
		for _, r := range rows {
			if r.BioReplicateID == "" {
				values = append(values, r.Value)
				continue
			}
			if _, seen := counts[r.BioReplicateID]; !seen {
				idOrder = append(idOrder, r.BioReplicateID)
			}
			sums[r.BioReplicateID] += r.Value
			counts[r.BioReplicateID]++
		}
		for _, id := range idOrder {
			values = append(values, sums[id]/float64(counts[id]))
		}
	} else {
		for _, r := range rows {
			values = append(values, r.Value)
		}
	}

	s.Values, s.Warnings = applyTransform(name, values, opts, s.Warnings)
	return s
}

// applyTransform applies the configured transform, excluding values outside
// the transform domain. Excluded values are counted in a warning, never
// coerced. With AllowNonPositiveTransform the out-of-domain values are kept
// untransformed instead of excluded; the warning still names them.
func applyTransform(name string, values []float64, opts ComputeOptions, warnings []string) ([]float64, []string) {
	if opts.Transform == TransformNone || opts.Transform == "" {
		return values, warnings
	}

	logFn := math.Log2
	if opts.Transform == TransformLog10 {
		logFn = math.Log10
	}

	out := make([]float64, 0, len(values))
	nonPositive := 0
	for _, v := range values {
		if v <= 0 {
			nonPositive++
			if opts.AllowNonPositiveTransform {
				out = append(out, v)
			}
			continue
		}
		out = append(out, logFn(v))
	}
	if nonPositive > 0 {
		verb := "excluded"
		if opts.AllowNonPositiveTransform {
			verb = "kept untransformed"
		}
		warnings = append(warnings, fmt.Sprintf("%s: %s transform %s %d non-positive value(s)", name, opts.Transform, verb, nonPositive))
	}
	return out, warnings
}

// countBioReplicates counts distinct biological replicate ids. Rows without
// an id each count as their own independent unit.
func countBioReplicates(rows []Observation) int {
	ids := make(map[string]bool)
	anonymous := 0
	for _, r := range rows {
		if r.BioReplicateID == "" {
			anonymous++
			continue
		}
		ids[r.BioReplicateID] = true
	}
	return len(ids) + anonymous
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
