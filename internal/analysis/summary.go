package analysis

import (
	"math"

	"github.com/JonnyWalker81/daylog/internal/models"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// stableTrendFraction is the fitted change across the log span, as a fraction
// of the standard deviation, below which a metric counts as stable
const stableTrendFraction = 0.5

// Summarize computes descriptive statistics and a linear trend for each metric.
// Metrics with no value on any log are omitted.
func Summarize(logs []models.DailyLog, metrics []string) []models.MetricSummary {
	metrics = dedupe(metrics)
	summaries := make([]models.MetricSummary, 0, len(metrics))

	for _, ref := range metrics {
		days := make([]float64, 0, len(logs))
		values := make([]float64, 0, len(logs))
		var first float64
		for _, log := range logs {
			v, ok := Value(log, ref)
			if !ok {
				continue
			}
			day := float64(log.Day().Unix()) / 86400
			if len(days) == 0 || day < first {
				first = day
			}
			days = append(days, day)
			values = append(values, v)
		}
		if len(values) == 0 {
			continue
		}
		for i := range days {
			days[i] -= first
		}

		summaries = append(summaries, summarize(ref, days, values))
	}

	return summaries
}

func summarize(ref string, days, values []float64) models.MetricSummary {
	summary := models.MetricSummary{
		Metric: ref,
		Count:  len(values),
		Min:    floats.Min(values),
		Max:    floats.Max(values),
		Trend:  models.TrendStable,
	}

	if len(values) < 2 {
		summary.Mean = values[0]
		return summary
	}

	summary.Mean, summary.StdDev = stat.MeanStdDev(values, nil)

	if constant(days) {
		return summary
	}

	_, slope := stat.LinearRegression(days, values, nil, false)
	if math.IsNaN(slope) || math.IsInf(slope, 0) {
		return summary
	}
	summary.Slope = slope
	summary.Trend = determineTrend(slope, floats.Max(days), summary.StdDev)

	return summary
}

// determineTrend classifies a fitted slope by how far it moves the metric across
// the span, relative to the metric's own spread
func determineTrend(slope, spanDays, stdDev float64) string {
	change := slope * spanDays
	if stdDev == 0 || math.Abs(change) < stableTrendFraction*stdDev {
		return models.TrendStable
	} else if change > 0 {
		return models.TrendIncreasing
	} else {
		return models.TrendDecreasing
	}
}
