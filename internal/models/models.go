package models

import (
	"fmt"
	"time"

	"github.com/goccy/go-json"
)

// DateLayout is the wire format of a log's calendar day
const DateLayout = "2006-01-02"

// Workout represents the workout logged for a day
type Workout struct {
	Type     string  `json:"type" yaml:"type"`
	Duration float64 `json:"duration" yaml:"duration"` // minutes
}

// DailyLog represents one user's log entry for a calendar day.
// Logs are read-only inside the analysis packages.
type DailyLog struct {
	ID                string             `json:"id" yaml:"id"`
	UserID            string             `json:"user_id" yaml:"user_id"`
	Date              time.Time          `json:"date" yaml:"date"`
	SleepHours        *float64           `json:"sleep_hours,omitempty" yaml:"sleep_hours,omitempty"`
	Workout           *Workout           `json:"workout,omitempty" yaml:"workout,omitempty"`
	MeditationMinutes *float64           `json:"meditation_minutes,omitempty" yaml:"meditation_minutes,omitempty"`
	LearningMinutes   *float64           `json:"learning_minutes,omitempty" yaml:"learning_minutes,omitempty"`
	Metrics           map[string]float64 `json:"metrics,omitempty" yaml:"metrics,omitempty"`     // user-defined states, e.g. anxiety 1-5
	Exposures         map[string]float64 `json:"exposures,omitempty" yaml:"exposures,omitempty"` // external inputs, e.g. caffeine
	Note              *string            `json:"note,omitempty" yaml:"note,omitempty"`
	CreatedAt         time.Time          `json:"created_at" yaml:"created_at,omitempty"`
	UpdatedAt         time.Time          `json:"updated_at" yaml:"updated_at,omitempty"`
}

// Day returns the log date truncated to its calendar day in UTC
func (l DailyLog) Day() time.Time {
	y, m, d := l.Date.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// UnmarshalJSON accepts the log date either as a calendar day ("2026-03-01",
// the storage format) or as an RFC 3339 timestamp.
func (l *DailyLog) UnmarshalJSON(data []byte) error {
	type alias DailyLog
	var aux struct {
		alias
		Date string `json:"date"`
	}

	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}

	date, err := ParseLogDate(aux.Date)
	if err != nil {
		return err
	}
	*l = DailyLog(aux.alias)
	l.Date = date
	return nil
}

// ParseLogDate parses a calendar day or RFC 3339 timestamp. An empty string
// yields the zero time.
func ParseLogDate(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	if t, err := time.Parse(DateLayout, s); err == nil {
		return t, nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid log date %q: %w", s, err)
	}
	return t, nil
}

// Float returns a pointer to v, for building logs in code
func Float(v float64) *float64 {
	return &v
}
