package analysis

import (
	"math"
	"sort"

	"github.com/JonnyWalker81/daylog/internal/models"
	"gonum.org/v1/gonum/floats"
)

const (
	// DefaultSimilarDays is the number of similar days returned when k <= 0
	DefaultSimilarDays = 3

	// MinHistoryForSimilarity is the fewest candidate days worth ranking
	MinHistoryForSimilarity = 5
)

// Range is the observed [Min, Max] of a metric
type Range struct {
	Min float64
	Max float64
}

// MetricRanges computes the observed range of each metric across history and
// the target day. Metrics with no present value are left out of the map.
func MetricRanges(target models.DailyLog, history []models.DailyLog, metrics []string) map[string]Range {
	ranges := make(map[string]Range, len(metrics))
	for _, ref := range metrics {
		values := Values(history, ref)
		if v, ok := Value(target, ref); ok {
			values = append(values, v)
		}
		if len(values) == 0 {
			continue
		}
		ranges[ref] = Range{Min: floats.Min(values), Max: floats.Max(values)}
	}
	return ranges
}

// Normalize maps v into [0,1] within r. A range with no spread maps to the
// 0.5 midpoint so that it pulls distances neither up nor down.
func Normalize(v float64, r Range) float64 {
	if r.Max == r.Min {
		return 0.5
	}
	return (v - r.Min) / (r.Max - r.Min)
}

// Distance is the root of the mean squared difference of normalized values
// over the metrics present on both logs. It is +Inf when no metric overlaps.
func Distance(a, b models.DailyLog, metrics []string, ranges map[string]Range) float64 {
	var sum float64
	shared := 0

	for _, ref := range metrics {
		r, ok := ranges[ref]
		if !ok {
			continue
		}
		av, ok := Value(a, ref)
		if !ok {
			continue
		}
		bv, ok := Value(b, ref)
		if !ok {
			continue
		}
		d := Normalize(av, r) - Normalize(bv, r)
		sum += d * d
		shared++
	}

	if shared == 0 {
		return math.Inf(1)
	}
	return math.Sqrt(sum / float64(shared))
}

// sameLog reports whether candidate is the target log itself
func sameLog(target, candidate models.DailyLog) bool {
	return target.ID != "" && candidate.ID == target.ID
}

// FindSimilarDays ranks history by distance to target and returns the k
// closest days, nearest first. The target itself and days sharing no metric
// with it are never returned. Histories with fewer than five candidate days,
// or a target with none of the metrics, produce no result.
func FindSimilarDays(target models.DailyLog, history []models.DailyLog, metrics []string, k int) []models.SimilarDay {
	if k <= 0 {
		k = DefaultSimilarDays
	}
	metrics = dedupe(metrics)

	candidates := make([]models.DailyLog, 0, len(history))
	for _, log := range history {
		if sameLog(target, log) {
			continue
		}
		candidates = append(candidates, log)
	}
	if len(candidates) < MinHistoryForSimilarity {
		return []models.SimilarDay{}
	}

	computable := false
	for _, ref := range metrics {
		if _, ok := Value(target, ref); ok {
			computable = true
			break
		}
	}
	if !computable {
		return []models.SimilarDay{}
	}

	ranges := MetricRanges(target, candidates, metrics)

	scored := make([]models.SimilarDay, 0, len(candidates))
	for _, c := range candidates {
		d := Distance(target, c, metrics, ranges)
		if math.IsInf(d, 1) {
			continue
		}
		scored = append(scored, models.SimilarDay{Log: c, Distance: d})
	}

	// Sort by distance ascending, history order on ties
	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].Distance < scored[j].Distance
	})

	if len(scored) > k {
		scored = scored[:k]
	}

	return scored
}
