package reflection

import (
	"sort"
	"time"

	"github.com/JonnyWalker81/daylog/internal/analysis"
	"github.com/JonnyWalker81/daylog/internal/models"
)

// DefaultWindowDays is the reflection window used when the caller does not pick one
const DefaultWindowDays = 14

// Window is the set of logs a reflection run evaluates, oldest first
type Window struct {
	Logs []models.DailyLog
	Days int
}

// SelectWindow keeps the logs dated within the days-long window ending on now's
// day (inclusive) and orders them by date.
func SelectWindow(logs []models.DailyLog, now time.Time, days int) Window {
	if days <= 0 {
		days = DefaultWindowDays
	}

	end := now.UTC().Truncate(24 * time.Hour)
	start := end.AddDate(0, 0, -(days - 1))

	selected := make([]models.DailyLog, 0, len(logs))
	for _, log := range logs {
		day := log.Day()
		if day.Before(start) || day.After(end) {
			continue
		}
		selected = append(selected, log)
	}

	sort.SliceStable(selected, func(i, j int) bool {
		return selected[i].Date.Before(selected[j].Date)
	})

	return Window{Logs: selected, Days: days}
}

// Len returns the number of logs in the window
func (w Window) Len() int {
	return len(w.Logs)
}

// Values returns the present values of a metric across the window
func (w Window) Values(ref string) []float64 {
	return analysis.Values(w.Logs, ref)
}

// Halves splits the window into its earlier and later logs. The later half
// gets the extra log when the count is odd.
func (w Window) Halves() (Window, Window) {
	mid := len(w.Logs) / 2
	return Window{Logs: w.Logs[:mid], Days: w.Days}, Window{Logs: w.Logs[mid:], Days: w.Days}
}

// Fraction returns the share of logs matching pred, 0 for an empty window
func (w Window) Fraction(pred func(models.DailyLog) bool) float64 {
	if len(w.Logs) == 0 {
		return 0
	}
	matched := 0
	for _, log := range w.Logs {
		if pred(log) {
			matched++
		}
	}
	return float64(matched) / float64(len(w.Logs))
}
