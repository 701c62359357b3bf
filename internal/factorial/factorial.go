// Package factorial computes a two-way ANOVA with interaction for crossed
// two-factor designs, plus simple-effect follow-ups when the interaction is
// significant.
package factorial

import (
	"fmt"

	"labstats/domain/observe"
	"labstats/domain/result"
	"labstats/internal/adjust"
	"labstats/internal/distrib"
	"labstats/internal/hypotest"
)

// Observation is one measured value tagged with its level on each factor.
type Observation struct {
	LevelA string  `json:"level_a"`
	LevelB string  `json:"level_b"`
	Value  float64 `json:"value"`
}

// TwoWayAnova partitions the total sum of squares into factor A, factor B,
// their interaction, and error, using weighted marginal means so unbalanced
// designs still decompose additively. Returns nil when either factor has
// fewer than 2 levels or the error degrees of freedom are exhausted.
//
// When the interaction is significant at alpha, simple effects in both
// directions (factor B within each level of A, and factor A within each
// level of B) are attached, adjusted by method as a single family.
func TwoWayAnova(obs []Observation, alpha float64, method observe.AdjustMethod) *result.FactorialResult {
	levelsA, levelsB, cells := collect(obs)
	if len(levelsA) < 2 || len(levelsB) < 2 {
		return nil
	}

	n := len(obs)
	dfE := n - len(levelsA)*len(levelsB)
	if dfE <= 0 {
		return nil
	}

	grand := 0.0
	for _, o := range obs {
		grand += o.Value
	}
	grand /= float64(n)

	meansA := marginalMeans(obs, func(o Observation) string { return o.LevelA })
	meansB := marginalMeans(obs, func(o Observation) string { return o.LevelB })

	var ssA, ssB, ssAB, ssE float64
	for _, a := range levelsA {
		na := 0
		for _, b := range levelsB {
			na += len(cells[cellKey(a, b)])
		}
		d := meansA[a] - grand
		ssA += float64(na) * d * d
	}
	for _, b := range levelsB {
		nb := 0
		for _, a := range levelsA {
			nb += len(cells[cellKey(a, b)])
		}
		d := meansB[b] - grand
		ssB += float64(nb) * d * d
	}
	for _, a := range levelsA {
		for _, b := range levelsB {
			values := cells[cellKey(a, b)]
			if len(values) == 0 {
				continue
			}
			cm := mean(values)
			d := cm - meansA[a] - meansB[b] + grand
			ssAB += float64(len(values)) * d * d
			for _, v := range values {
				ssE += (v - cm) * (v - cm)
			}
		}
	}

	dfA := len(levelsA) - 1
	dfB := len(levelsB) - 1
	dfAB := dfA * dfB
	msE := ssE / float64(dfE)

	res := &result.FactorialResult{
		SSA: ssA, SSB: ssB, SSAB: ssAB, SSE: ssE,
		DFA: dfA, DFB: dfB, DFAB: dfAB, DFE: dfE,
	}
	if msE == 0 {
		// every cell is constant; F is undefined, report the decomposition only
		res.PA, res.PB, res.PAB = 1, 1, 1
		return res
	}

	res.FA = (ssA / float64(dfA)) / msE
	res.FB = (ssB / float64(dfB)) / msE
	res.FAB = (ssAB / float64(dfAB)) / msE
	res.PA = distrib.FPValue(res.FA, dfA, dfE)
	res.PB = distrib.FPValue(res.FB, dfB, dfE)
	res.PAB = distrib.FPValue(res.FAB, dfAB, dfE)

	if res.PAB < alpha {
		res.SimpleEffects = simpleEffects(levelsA, levelsB, cells)
		adjust.ApplySimpleEffects(res.SimpleEffects, method)
	}
	return res
}

// simpleEffects decomposes a significant interaction in both directions: a
// one-way ANOVA across factor B within each level of A, then across factor A
// within each level of B.
func simpleEffects(levelsA, levelsB []string, cells map[string][]float64) []result.SimpleEffect {
	effects := effectsWithin(levelsA, levelsB, cells, cellKey,
		"effect of second factor within %q")
	return append(effects, effectsWithin(levelsB, levelsA, cells,
		func(b, a string) string { return cellKey(a, b) },
		"effect of first factor within %q")...)
}

// effectsWithin slices the cells by one factor and tests the other within
// each slice. Levels whose slice cannot support an ANOVA are skipped rather
// than reported with degenerate statistics.
func effectsWithin(outer, inner []string, cells map[string][]float64, key func(outer, inner string) string, labelFormat string) []result.SimpleEffect {
	effects := make([]result.SimpleEffect, 0, len(outer))
	for _, o := range outer {
		groups := make([]observe.Sample, 0, len(inner))
		for _, in := range inner {
			values := cells[key(o, in)]
			if len(values) == 0 {
				continue
			}
			groups = append(groups, observe.Sample{
				Name:   in,
				Values: values,
				NBio:   len(values),
				NTech:  len(values),
			})
		}
		anova := hypotest.OneWayAnova(groups)
		if anova == nil {
			continue
		}
		effects = append(effects, result.SimpleEffect{
			Label: fmt.Sprintf(labelFormat, o),
			F:     anova.F,
			DF1:   anova.DFBetween,
			DF2:   anova.DFWithin,
			RawP:  anova.P,
		})
	}
	return effects
}

func collect(obs []Observation) (levelsA, levelsB []string, cells map[string][]float64) {
	cells = make(map[string][]float64)
	seenA := make(map[string]bool)
	seenB := make(map[string]bool)
	for _, o := range obs {
		if !seenA[o.LevelA] {
			seenA[o.LevelA] = true
			levelsA = append(levelsA, o.LevelA)
		}
		if !seenB[o.LevelB] {
			seenB[o.LevelB] = true
			levelsB = append(levelsB, o.LevelB)
		}
		key := cellKey(o.LevelA, o.LevelB)
		cells[key] = append(cells[key], o.Value)
	}
	return levelsA, levelsB, cells
}

func marginalMeans(obs []Observation, level func(Observation) string) map[string]float64 {
	sums := make(map[string]float64)
	counts := make(map[string]int)
	for _, o := range obs {
		sums[level(o)] += o.Value
		counts[level(o)]++
	}
	means := make(map[string]float64, len(sums))
	for k, s := range sums {
		means[k] = s / float64(counts[k])
	}
	return means
}

func cellKey(a, b string) string { return a + "\x00" + b }

func mean(values []float64) float64 {
	sum := 0.0
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}
