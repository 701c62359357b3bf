// Package adjust implements multiple-comparison corrections over a family of
// p-values. A family must always be adjusted by a single call; adjusting a
// subset independently breaks the family-wise guarantee.
package adjust

import (
	"sort"

	"labstats/domain/observe"
	"labstats/domain/result"
)

// Adjust corrects a family of raw p-values with the requested method and
// returns the corrected values in the original input order.
func Adjust(rawP []float64, method observe.AdjustMethod) []float64 {
	m := len(rawP)
	out := make([]float64, m)
	if m == 0 {
		return out
	}

	switch method {
	case observe.AdjustNone, "":
		copy(out, rawP)
		return out

	case observe.AdjustBonferroni:
		for i, p := range rawP {
			out[i] = clamp1(p * float64(m))
		}
		return out

	case observe.AdjustHolm:
		order := sortedOrder(rawP)
		running := 0.0
		for i, idx := range order {
			candidate := float64(m-i) * rawP[idx]
			if candidate > running {
				running = candidate
			}
			out[idx] = clamp1(running)
		}
		return out

	case observe.AdjustBH:
		order := sortedOrder(rawP)
		running := 1.0
		for i := m - 1; i >= 0; i-- {
			idx := order[i]
			candidate := float64(m) / float64(i+1) * rawP[idx]
			if candidate < running {
				running = candidate
			}
			out[idx] = clamp1(running)
		}
		return out
	}

	// Unknown methods behave as identity; option validation catches them
	// before this point.
	copy(out, rawP)
	return out
}

// Apply adjusts a family of pairwise comparisons in place, preserving order
func Apply(family []result.PairwiseComparison, method observe.AdjustMethod) {
	if len(family) == 0 {
		return
	}
	raw := make([]float64, len(family))
	for i, c := range family {
		raw[i] = c.RawP
	}
	adjusted := Adjust(raw, method)
	for i := range family {
		p := adjusted[i]
		family[i].AdjustedP = &p
	}
}

// ApplySimpleEffects adjusts a family of simple-effect p-values in place
func ApplySimpleEffects(effects []result.SimpleEffect, method observe.AdjustMethod) {
	if len(effects) == 0 {
		return
	}
	raw := make([]float64, len(effects))
	for i, e := range effects {
		raw[i] = e.RawP
	}
	adjusted := Adjust(raw, method)
	for i := range effects {
		p := adjusted[i]
		effects[i].AdjustedP = &p
	}
}

// sortedOrder returns indices of rawP sorted ascending by p
func sortedOrder(rawP []float64) []int {
	order := make([]int, len(rawP))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		return rawP[order[a]] < rawP[order[b]]
	})
	return order
}

func clamp1(p float64) float64 {
	if p > 1 {
		return 1
	}
	return p
}
