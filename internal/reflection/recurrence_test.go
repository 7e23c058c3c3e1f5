package reflection

import (
	"reflect"
	"testing"
	"time"

	"github.com/JonnyWalker81/daylog/internal/models"
)

func previousSession(createdAt time.Time, names ...string) models.ReflectionSession {
	s := models.ReflectionSession{ID: createdAt.Format(time.RFC3339), CreatedAt: createdAt}
	for _, name := range names {
		s.Patterns = append(s.Patterns, models.DetectedPattern{
			Name:        name,
			Occurrences: 1,
			FirstSeen:   createdAt,
			LastSeen:    createdAt,
		})
	}
	return s
}

func TestApplyRecurrence_CountsMatches(t *testing.T) {
	current := []models.DetectedPattern{
		{Name: SignalMoodVolatility, Occurrences: 1, FirstSeen: testNow, LastSeen: testNow},
		{Name: SignalLowMood, Occurrences: 1, FirstSeen: testNow, LastSeen: testNow},
	}

	earliest := testNow.AddDate(0, 0, -40)
	history := []models.ReflectionSession{
		previousSession(testNow.AddDate(0, 0, -3), SignalSleepDeficit),
		previousSession(testNow.AddDate(0, 0, -10), SignalMoodVolatility, SignalFocusDip),
		previousSession(testNow.AddDate(0, 0, -20)),
		previousSession(earliest, SignalMoodVolatility),
		previousSession(testNow.AddDate(0, 0, -30), SignalRecoveryGap),
	}

	got := ApplyRecurrence(current, history, DefaultMaxPreviousSessions)

	if got[0].Occurrences != 3 {
		t.Errorf("mood-volatility occurrences = %d, want 3", got[0].Occurrences)
	}
	if !got[0].FirstSeen.Equal(earliest) {
		t.Errorf("mood-volatility first seen = %v, want %v", got[0].FirstSeen, earliest)
	}
	if !got[0].LastSeen.Equal(testNow) {
		t.Errorf("mood-volatility last seen = %v, want %v", got[0].LastSeen, testNow)
	}

	if got[1].Occurrences != 1 || !got[1].FirstSeen.Equal(testNow) {
		t.Errorf("low-mood = %+v, want untouched", got[1])
	}

	if current[0].Occurrences != 1 {
		t.Error("ApplyRecurrence modified its input")
	}
}

func TestApplyRecurrence_BoundedHistory(t *testing.T) {
	current := []models.DetectedPattern{
		{Name: SignalSleepDeficit, Occurrences: 1, FirstSeen: testNow, LastSeen: testNow},
	}

	// 12 sessions, oldest last; only the 10 newest may count
	history := make([]models.ReflectionSession, 0, 12)
	for i := 1; i <= 12; i++ {
		history = append(history, previousSession(testNow.AddDate(0, 0, -i), SignalSleepDeficit))
	}

	got := ApplyRecurrence(current, history, 10)

	if got[0].Occurrences != 11 {
		t.Errorf("occurrences = %d, want 11", got[0].Occurrences)
	}
	if want := testNow.AddDate(0, 0, -10); !got[0].FirstSeen.Equal(want) {
		t.Errorf("first seen = %v, want %v", got[0].FirstSeen, want)
	}
}

func TestApplyRecurrence_NoHistory(t *testing.T) {
	current := []models.DetectedPattern{{Name: SignalLowMood, Occurrences: 1, FirstSeen: testNow}}

	got := ApplyRecurrence(current, nil, 0)
	if !reflect.DeepEqual(got, current) {
		t.Errorf("ApplyRecurrence() = %+v, want %+v", got, current)
	}
}

func TestExtractPatterns_GroupsAcrossRuleSets(t *testing.T) {
	results := []models.RuleSetResult{
		{
			RuleSetID: "rest",
			Signals: []models.Signal{
				{Type: SignalSleepDeficit, Detected: true, Description: "short nights"},
				{Type: SignalSleepIrregularity, Detected: false},
				{Type: SignalLowEnergy, Detected: true, Description: "low energy"},
			},
		},
		{
			RuleSetID: "inputs",
			Signals: []models.Signal{
				{Type: SignalCaffeineLoad, Detected: false},
				{Type: SignalSleepDeficit, Detected: true, Description: "short nights"},
			},
		},
	}
	related := map[string][]string{
		"rest":   {"sleep", "tiredness"},
		"inputs": {"caffeine"},
	}

	got := ExtractPatterns(results, related, testNow, sequentialIDs())

	if len(got) != 2 {
		t.Fatalf("ExtractPatterns() returned %d patterns, want 2", len(got))
	}

	if got[0].Name != SignalSleepDeficit || got[1].Name != SignalLowEnergy {
		t.Errorf("pattern order = %s, %s, want sleep-deficit, low-energy", got[0].Name, got[1].Name)
	}
	if want := []string{"sleep", "tiredness", "caffeine"}; !reflect.DeepEqual(got[0].RelatedReasons, want) {
		t.Errorf("sleep-deficit related reasons = %v, want %v", got[0].RelatedReasons, want)
	}
	if want := []string{"sleep", "tiredness"}; !reflect.DeepEqual(got[1].RelatedReasons, want) {
		t.Errorf("low-energy related reasons = %v, want %v", got[1].RelatedReasons, want)
	}
	for _, p := range got {
		if p.Occurrences != 1 || !p.FirstSeen.Equal(testNow) || !p.LastSeen.Equal(testNow) {
			t.Errorf("pattern %s = %+v, want a single sighting at now", p.Name, p)
		}
		if p.ID == "" {
			t.Errorf("pattern %s has no id", p.Name)
		}
	}
}
