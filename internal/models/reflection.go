package models

import (
	"time"

	"github.com/goccy/go-json"
)

// Signal is the output of one rule's condition check against a log window
type Signal struct {
	RuleID      string  `json:"rule_id,omitempty" yaml:"rule_id,omitempty"`
	Type        string  `json:"type" yaml:"type"`
	Detected    bool    `json:"detected" yaml:"detected"`
	Strength    float64 `json:"strength" yaml:"strength"` // 0-1
	Description string  `json:"description" yaml:"description"`
}

// RuleSetResult holds the outcome of running one rule set in a reflection
type RuleSetResult struct {
	RuleSetID    string     `json:"rule_set_id" yaml:"rule_set_id"`
	Name         string     `json:"name" yaml:"name"`
	Category     string     `json:"category" yaml:"category"`
	Signals      []Signal   `json:"signals" yaml:"signals"`
	Observations []string   `json:"observations" yaml:"observations"`
	Confidence   Confidence `json:"confidence" yaml:"confidence"`
	Score        float64    `json:"score" yaml:"score"` // weighted mean strength of detected signals
}

// DetectedPattern is a signal type tracked across reflection sessions
type DetectedPattern struct {
	ID             string    `json:"id" yaml:"id"`
	Name           string    `json:"name" yaml:"name"` // signal type
	Description    string    `json:"description" yaml:"description"`
	Occurrences    int       `json:"occurrences" yaml:"occurrences"`
	FirstSeen      time.Time `json:"first_seen" yaml:"first_seen"`
	LastSeen       time.Time `json:"last_seen" yaml:"last_seen"`
	RelatedReasons []string  `json:"related_reasons" yaml:"related_reasons"`
}

// ReflectionSession is one user-initiated run of the rule-based detector
type ReflectionSession struct {
	ID         string            `json:"id" yaml:"id"`
	UserID     string            `json:"user_id" yaml:"user_id"`
	CreatedAt  time.Time         `json:"created_at" yaml:"created_at"`
	MoodFocus  string            `json:"mood_focus" yaml:"mood_focus"`
	Reasons    []string          `json:"reasons" yaml:"reasons"`
	Results    []RuleSetResult   `json:"results" yaml:"results"`
	Patterns   []DetectedPattern `json:"patterns" yaml:"patterns"`
	WindowDays int               `json:"window_days" yaml:"window_days"`
	LogCount   int               `json:"log_count" yaml:"log_count"`
}

// CreateReflectionRequest represents the request to run a reflection
type CreateReflectionRequest struct {
	MoodFocus  string   `json:"mood_focus" binding:"required,max=64"`
	Reasons    []string `json:"reasons" binding:"required,min=1,max=12,dive,required"`
	WindowDays int      `json:"window_days" binding:"omitempty,min=1,max=90"`
}

// CatalogRuleSet describes a rule set for clients choosing reasons
type CatalogRuleSet struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Category    string   `json:"category"`
	Reasons     []string `json:"reasons"`
	SignalTypes []string `json:"signal_types"`
}

// ReflectionCatalog is the API response listing selectable reasons
type ReflectionCatalog struct {
	Reasons  []string         `json:"reasons"`
	RuleSets []CatalogRuleSet `json:"rule_sets"`
}

// IdempotencyKey represents a stored response for an idempotent request
type IdempotencyKey struct {
	ID           string          `json:"id"`
	Key          string          `json:"key"`
	Route        string          `json:"route"`
	UserID       string          `json:"user_id"`
	ResponseBody json.RawMessage `json:"response_body"`
	StatusCode   int             `json:"status_code"`
	CreatedAt    time.Time       `json:"created_at"`
}
