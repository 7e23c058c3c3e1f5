package analysis

import (
	"fmt"
	"math"
	"sort"

	"github.com/JonnyWalker81/daylog/internal/models"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

const (
	// Minimum logs with both metrics present before a pair is scanned
	DefaultMinSampleSize = 20

	// Minimum |r| for a scanned pair to be reported
	DefaultCorrelationThreshold = 0.6

	// Sample size at which a reported pair is tagged high significance
	DefaultHighSignificanceSampleSize = 50
)

// ScanOptions holds the thresholds used by ScanCorrelations
type ScanOptions struct {
	MinSampleSize              int
	Threshold                  float64
	HighSignificanceSampleSize int
}

// DefaultScanOptions returns the thresholds used for dashboard pattern notices
func DefaultScanOptions() ScanOptions {
	return ScanOptions{
		MinSampleSize:              DefaultMinSampleSize,
		Threshold:                  DefaultCorrelationThreshold,
		HighSignificanceSampleSize: DefaultHighSignificanceSampleSize,
	}
}

// withDefaults fills unset sample sizes. A zero Threshold is kept and reports
// every pair that meets the sample floor; only a negative one selects the default.
func (o ScanOptions) withDefaults() ScanOptions {
	if o.MinSampleSize <= 0 {
		o.MinSampleSize = DefaultMinSampleSize
	}
	if o.Threshold < 0 {
		o.Threshold = DefaultCorrelationThreshold
	}
	if o.HighSignificanceSampleSize <= 0 {
		o.HighSignificanceSampleSize = DefaultHighSignificanceSampleSize
	}
	return o
}

// pairedValues returns aligned x/y values for logs where both metrics are present
func pairedValues(logs []models.DailyLog, x, y string) (xs, ys []float64) {
	xs = make([]float64, 0, len(logs))
	ys = make([]float64, 0, len(logs))
	for _, log := range logs {
		xv, ok := Value(log, x)
		if !ok {
			continue
		}
		yv, ok := Value(log, y)
		if !ok {
			continue
		}
		xs = append(xs, xv)
		ys = append(ys, yv)
	}
	return xs, ys
}

// Pearson computes the Pearson correlation coefficient between two metrics over
// the logs where both are present. n is the number of paired logs. ok is false
// when fewer than two pairs exist or either metric has no variance; r is then
// meaningless and callers must treat the pair as making no claim.
func Pearson(logs []models.DailyLog, x, y string) (r float64, n int, ok bool) {
	xs, ys := pairedValues(logs, x, y)
	return pearson(xs, ys)
}

func pearson(xs, ys []float64) (float64, int, bool) {
	n := len(xs)
	if n < 2 {
		return 0, n, false
	}
	if constant(xs) || constant(ys) {
		return 0, n, false
	}

	r := stat.Correlation(xs, ys, nil)
	if math.IsNaN(r) || math.IsInf(r, 0) {
		return 0, n, false
	}

	return r, n, true
}

// constant reports whether a series has no variance
func constant(values []float64) bool {
	return floats.Max(values) == floats.Min(values)
}

// Correlate computes the correlation for one metric pair without applying scan
// thresholds. The result is tagged high significance from highSampleSize
// paired logs; highSampleSize <= 0 selects DefaultHighSignificanceSampleSize.
// ok is false when Pearson makes no claim.
func Correlate(logs []models.DailyLog, x, y string, highSampleSize int) (models.CorrelationResult, bool) {
	r, n, ok := Pearson(logs, x, y)
	if !ok {
		return models.CorrelationResult{}, false
	}
	if highSampleSize <= 0 {
		highSampleSize = DefaultHighSignificanceSampleSize
	}
	return buildResult(x, y, r, n, highSampleSize), true
}

// ScanCorrelations evaluates every unordered pair of metrics and returns those
// with enough paired logs and a strong enough coefficient, strongest first.
// Identical inputs always produce identical output.
func ScanCorrelations(logs []models.DailyLog, metrics []string, opts ScanOptions) []models.CorrelationResult {
	opts = opts.withDefaults()
	metrics = dedupe(metrics)

	results := make([]models.CorrelationResult, 0)
	for i := 0; i < len(metrics); i++ {
		for j := i + 1; j < len(metrics); j++ {
			xs, ys := pairedValues(logs, metrics[i], metrics[j])
			if len(xs) < opts.MinSampleSize {
				continue
			}

			r, n, ok := pearson(xs, ys)
			if !ok || math.Abs(r) < opts.Threshold {
				continue
			}

			results = append(results, buildResult(metrics[i], metrics[j], r, n, opts.HighSignificanceSampleSize))
		}
	}

	// Sort by absolute correlation value (strongest first), pair order on ties
	sort.SliceStable(results, func(i, j int) bool {
		return math.Abs(results[i].Coefficient) > math.Abs(results[j].Coefficient)
	})

	return results
}

func buildResult(x, y string, r float64, n, highSampleSize int) models.CorrelationResult {
	significance := models.SignificanceMedium
	if n >= highSampleSize {
		significance = models.SignificanceHigh
	}

	direction := models.DirectionNeutral
	if r > 0 {
		direction = models.DirectionPositive
	} else if r < 0 {
		direction = models.DirectionNegative
	}

	return models.CorrelationResult{
		MetricX:      x,
		MetricY:      y,
		Coefficient:  r,
		SampleSize:   n,
		Significance: significance,
		Direction:    direction,
		Description:  buildCorrelationDescription(x, y, r, direction),
	}
}

// buildCorrelationDescription creates a human-readable description
func buildCorrelationDescription(nameA, nameB string, r float64, direction models.Direction) string {
	strength := "somewhat"
	if math.Abs(r) > 0.7 {
		strength = "strongly"
	} else if math.Abs(r) > 0.5 {
		strength = "moderately"
	}

	if direction == models.DirectionPositive {
		return fmt.Sprintf("%s and %s tend to rise together, %s (r=%.2f)", nameA, nameB, strength, r)
	} else if direction == models.DirectionNegative {
		return fmt.Sprintf("%s tends to fall as %s rises, %s (r=%.2f)", nameA, nameB, strength, r)
	}
	return fmt.Sprintf("%s and %s show no clear relationship", nameA, nameB)
}
