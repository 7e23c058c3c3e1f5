package reflection

import (
	"sort"
	"time"

	"github.com/JonnyWalker81/daylog/internal/models"
)

// ExtractPatterns emits one pattern per distinct detected signal type across
// all results, in first-detection order. related maps a rule set id to the
// session reasons that selected it.
func ExtractPatterns(results []models.RuleSetResult, related map[string][]string, now time.Time, newID func() string) []models.DetectedPattern {
	patterns := make([]models.DetectedPattern, 0)
	index := make(map[string]int)

	for _, result := range results {
		for _, sig := range result.Signals {
			if !sig.Detected {
				continue
			}

			i, ok := index[sig.Type]
			if !ok {
				index[sig.Type] = len(patterns)
				patterns = append(patterns, models.DetectedPattern{
					ID:             newID(),
					Name:           sig.Type,
					Description:    sig.Description,
					Occurrences:    1,
					FirstSeen:      now,
					LastSeen:       now,
					RelatedReasons: make([]string, 0),
				})
				i = len(patterns) - 1
			}

			for _, reason := range related[result.RuleSetID] {
				patterns[i].RelatedReasons = appendUnique(patterns[i].RelatedReasons, reason)
			}
		}
	}

	return patterns
}

// ApplyRecurrence counts each pattern's appearances in the most recent limit
// previous sessions. Every name match adds one occurrence and can pull
// FirstSeen back to the earliest matching first sighting. Inputs are not
// modified.
func ApplyRecurrence(patterns []models.DetectedPattern, previous []models.ReflectionSession, limit int) []models.DetectedPattern {
	out := make([]models.DetectedPattern, len(patterns))
	copy(out, patterns)

	recent := mostRecent(previous, limit)
	if len(recent) == 0 {
		return out
	}

	for i := range out {
		for _, session := range recent {
			for _, prev := range session.Patterns {
				if prev.Name != out[i].Name {
					continue
				}
				out[i].Occurrences++
				if !prev.FirstSeen.IsZero() && prev.FirstSeen.Before(out[i].FirstSeen) {
					out[i].FirstSeen = prev.FirstSeen
				}
			}
		}
	}

	return out
}

// mostRecent returns up to limit sessions, newest first
func mostRecent(sessions []models.ReflectionSession, limit int) []models.ReflectionSession {
	if limit <= 0 {
		limit = DefaultMaxPreviousSessions
	}

	sorted := make([]models.ReflectionSession, len(sessions))
	copy(sorted, sessions)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].CreatedAt.After(sorted[j].CreatedAt)
	})

	if len(sorted) > limit {
		sorted = sorted[:limit]
	}
	return sorted
}
