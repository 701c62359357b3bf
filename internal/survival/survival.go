// Package survival estimates Kaplan-Meier curves and compares groups with
// the log-rank test.
package survival

import (
	"sort"

	"labstats/domain/result"
	"labstats/internal/distrib"
)

// Subject is one time-to-event record. Event false marks a right-censored
// observation: the subject was alive (or otherwise event-free) when last
// seen.
type Subject struct {
	Group string  `json:"group"`
	Time  float64 `json:"time"`
	Event bool    `json:"event"`
}

// KaplanMeier estimates one survival curve per group, in first-appearance
// order. Each curve starts at survival 1 and steps down only at event
// times; censored subjects leave the risk set without a step. Ties between
// an event and a censoring at the same time count the event first.
func KaplanMeier(subjects []Subject) []result.SurvivalCurve {
	var order []string
	byGroup := make(map[string][]Subject)
	for _, s := range subjects {
		if _, seen := byGroup[s.Group]; !seen {
			order = append(order, s.Group)
		}
		byGroup[s.Group] = append(byGroup[s.Group], s)
	}

	curves := make([]result.SurvivalCurve, 0, len(order))
	for _, g := range order {
		curves = append(curves, estimateCurve(g, byGroup[g]))
	}
	return curves
}

func estimateCurve(group string, subjects []Subject) result.SurvivalCurve {
	sortSubjects(subjects)

	curve := result.SurvivalCurve{Group: group, N: len(subjects)}
	atRisk := len(subjects)
	survival := 1.0

	i := 0
	for i < len(subjects) {
		t := subjects[i].Time
		deaths := 0
		removed := 0
		for i < len(subjects) && subjects[i].Time == t {
			if subjects[i].Event {
				deaths++
			} else {
				curve.CensorTimes = append(curve.CensorTimes, t)
			}
			removed++
			i++
		}
		if deaths > 0 {
			survival *= 1 - float64(deaths)/float64(atRisk)
			curve.Events += deaths
			curve.Points = append(curve.Points, result.SurvivalPoint{Time: t, Survival: survival})
		}
		atRisk -= removed
	}
	return curve
}

// LogRank compares the survival experience of two or more groups with the
// standard O-E chi-square on df = k-1. The variance uses the per-group
// hypergeometric form, which is exact for two groups; with more than two
// the statistic is a conservative approximation and the result carries a
// note saying so. Returns nil unless at least two groups each contribute at
// least one event.
func LogRank(subjects []Subject) *result.LogRankResult {
	var order []string
	index := make(map[string]int)
	events := make(map[string]int)
	for _, s := range subjects {
		if _, seen := index[s.Group]; !seen {
			index[s.Group] = len(order)
			order = append(order, s.Group)
		}
		if s.Event {
			events[s.Group]++
		}
	}

	withEvents := 0
	for _, g := range order {
		if events[g] > 0 {
			withEvents++
		}
	}
	if len(order) < 2 || withEvents < 2 {
		return nil
	}

	pooled := make([]Subject, len(subjects))
	copy(pooled, subjects)
	sortSubjects(pooled)

	k := len(order)
	observed := make([]float64, k)
	expected := make([]float64, k)
	variance := make([]float64, k)
	atRisk := make([]float64, k)
	for _, s := range pooled {
		atRisk[index[s.Group]]++
	}
	totalAtRisk := float64(len(pooled))

	i := 0
	for i < len(pooled) {
		t := pooled[i].Time
		deaths := 0.0
		groupDeaths := make([]float64, k)
		groupRemoved := make([]float64, k)
		for i < len(pooled) && pooled[i].Time == t {
			g := index[pooled[i].Group]
			if pooled[i].Event {
				deaths++
				groupDeaths[g]++
			}
			groupRemoved[g]++
			i++
		}
		if deaths > 0 && totalAtRisk > 1 {
			for g := 0; g < k; g++ {
				e := deaths * atRisk[g] / totalAtRisk
				observed[g] += groupDeaths[g]
				expected[g] += e
				variance[g] += e * (1 - atRisk[g]/totalAtRisk) * (totalAtRisk - deaths) / (totalAtRisk - 1)
			}
		}
		for g := 0; g < k; g++ {
			atRisk[g] -= groupRemoved[g]
		}
		totalAtRisk -= sum(groupRemoved)
	}

	chi := 0.0
	for g := 0; g < k; g++ {
		if variance[g] == 0 {
			continue
		}
		d := observed[g] - expected[g]
		chi += d * d / variance[g]
	}
	// Summing over all groups double-counts the two-group case
	if k == 2 {
		chi /= 2
	}

	res := &result.LogRankResult{
		ChiSquare: chi,
		DF:        k - 1,
		P:         distrib.ChiSquarePValue(chi, k-1),
	}
	if k > 2 {
		res.Note = "per-group variance approximation; with more than two groups the statistic is conservative"
	}
	return res
}

// sortSubjects orders by time ascending with events before censorings at
// tied times.
func sortSubjects(subjects []Subject) {
	sort.SliceStable(subjects, func(a, b int) bool {
		if subjects[a].Time != subjects[b].Time {
			return subjects[a].Time < subjects[b].Time
		}
		return subjects[a].Event && !subjects[b].Event
	})
}

func sum(values []float64) float64 {
	total := 0.0
	for _, v := range values {
		total += v
	}
	return total
}
