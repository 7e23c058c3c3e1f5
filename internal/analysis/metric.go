// Package analysis implements the numeric insight engines: metric resolution,
// Pearson correlation scanning, similar-day search and metric summaries.
//
// Every function here is a pure computation over an in-memory log set. Callers
// fetch logs from storage before calling in and persist nothing computed here.
package analysis

import (
	"math"
	"sort"

	"github.com/JonnyWalker81/daylog/internal/models"
)

// Built-in metric references resolved against fixed log fields
const (
	MetricSleep      = "sleep"
	MetricWorkout    = "workout"
	MetricMeditation = "meditation"
	MetricLearning   = "learning"
)

// builtinField identifies a fixed DailyLog field
type builtinField int

const (
	fieldSleep builtinField = iota
	fieldWorkout
	fieldMeditation
	fieldLearning
)

// builtinFields maps built-in names and legacy aliases to their field.
// Aliases match the field names older clients wrote into saved metric lists.
var builtinFields = map[string]builtinField{
	MetricSleep:          fieldSleep,
	"sleep_hours":        fieldSleep,
	MetricWorkout:        fieldWorkout,
	"workout_minutes":    fieldWorkout,
	"workout_duration":   fieldWorkout,
	MetricMeditation:     fieldMeditation,
	"meditation_minutes": fieldMeditation,
	MetricLearning:       fieldLearning,
	"learning_minutes":   fieldLearning,
}

// BuiltinMetrics lists the canonical built-in references in display order
var BuiltinMetrics = []string{MetricSleep, MetricWorkout, MetricMeditation, MetricLearning}

// Value resolves a metric reference on a log: built-in field first, then the
// user metrics map, then the exposures map. The second return value is false
// when the metric is absent on this log; absence is never reported as zero.
func Value(log models.DailyLog, ref string) (float64, bool) {
	if field, ok := builtinFields[ref]; ok {
		if v, ok := builtinValue(log, field); ok {
			return v, true
		}
	}
	if v, ok := log.Metrics[ref]; ok {
		return finite(v)
	}
	if v, ok := log.Exposures[ref]; ok {
		return finite(v)
	}
	return 0, false
}

func builtinValue(log models.DailyLog, field builtinField) (float64, bool) {
	switch field {
	case fieldSleep:
		if log.SleepHours != nil {
			return finite(*log.SleepHours)
		}
	case fieldWorkout:
		if log.Workout != nil {
			return finite(log.Workout.Duration)
		}
	case fieldMeditation:
		if log.MeditationMinutes != nil {
			return finite(*log.MeditationMinutes)
		}
	case fieldLearning:
		if log.LearningMinutes != nil {
			return finite(*log.LearningMinutes)
		}
	}
	return 0, false
}

func finite(v float64) (float64, bool) {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	return v, true
}

// Values collects the present values of a metric across logs, in log order
func Values(logs []models.DailyLog, ref string) []float64 {
	values := make([]float64, 0, len(logs))
	for _, log := range logs {
		if v, ok := Value(log, ref); ok {
			values = append(values, v)
		}
	}
	return values
}

// DiscoverMetrics returns every metric reference with at least one value in logs.
// Built-ins come first, then user metric ids, then exposure ids, each sorted.
func DiscoverMetrics(logs []models.DailyLog) []string {
	seenBuiltin := make(map[string]bool)
	metricKeys := make(map[string]bool)
	exposureKeys := make(map[string]bool)

	for _, log := range logs {
		for _, ref := range BuiltinMetrics {
			if _, ok := Value(log, ref); ok {
				seenBuiltin[ref] = true
			}
		}
		for k := range log.Metrics {
			metricKeys[k] = true
		}
		for k := range log.Exposures {
			exposureKeys[k] = true
		}
	}

	metrics := make([]string, 0, len(seenBuiltin)+len(metricKeys)+len(exposureKeys))
	for _, ref := range BuiltinMetrics {
		if seenBuiltin[ref] {
			metrics = append(metrics, ref)
		}
	}

	seen := make(map[string]bool, cap(metrics))
	for _, ref := range metrics {
		seen[ref] = true
	}
	for _, keys := range []map[string]bool{metricKeys, exposureKeys} {
		sorted := make([]string, 0, len(keys))
		for k := range keys {
			if seen[k] {
				continue
			}
			sorted = append(sorted, k)
		}
		sort.Strings(sorted)
		for _, k := range sorted {
			seen[k] = true
			metrics = append(metrics, k)
		}
	}

	return metrics
}

// dedupe removes repeated references while keeping first-seen order
func dedupe(refs []string) []string {
	out := make([]string, 0, len(refs))
	seen := make(map[string]bool, len(refs))
	for _, ref := range refs {
		if ref == "" || seen[ref] {
			continue
		}
		seen[ref] = true
		out = append(out, ref)
	}
	return out
}
