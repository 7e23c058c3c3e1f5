// Package reflection runs the rule-based pattern detector behind reflection
// sessions.
//
// A run selects rule sets from the user's chosen reasons, evaluates each rule
// against a window of recent logs, turns detected signals into observations
// that pass the language policy, and counts how often each signal type has
// recurred across the user's previous sessions. The detector never reads or
// writes storage; previous sessions arrive as input.
package reflection

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/JonnyWalker81/daylog/internal/logger"
	"github.com/JonnyWalker81/daylog/internal/models"
	"github.com/google/uuid"
)

const (
	// DefaultMaxPreviousSessions bounds the history scanned for recurrence
	DefaultMaxPreviousSessions = 10

	highConfidenceLogs   = 10
	mediumConfidenceLogs = 5
)

// Observer receives fault notifications from a detector run
type Observer interface {
	// RuleFault is called when a rule condition panics
	RuleFault(ruleSetID, ruleID string)
	// ObservationDropped is called when an observation fails the language policy
	ObservationDropped(ruleSetID, phrase string)
}

type nopObserver struct{}

func (nopObserver) RuleFault(string, string)          {}
func (nopObserver) ObservationDropped(string, string) {}

// Input is everything one reflection run needs
type Input struct {
	UserID     string
	MoodFocus  string
	Reasons    []string
	WindowDays int
	Logs       []models.DailyLog
	History    []models.ReflectionSession
}

// Detector evaluates reflection rule sets. It holds no per-user state and is
// safe for concurrent use.
type Detector struct {
	catalog     *Catalog
	policy      *Policy
	log         logger.Logger
	observer    Observer
	now         func() time.Time
	newID       func() string
	maxPrevious int
}

// Option configures a Detector
type Option func(*Detector)

// WithCatalog replaces the built-in rule sets
func WithCatalog(c *Catalog) Option {
	return func(d *Detector) { d.catalog = c }
}

// WithPolicy replaces the embedded language policy
func WithPolicy(p *Policy) Option {
	return func(d *Detector) { d.policy = p }
}

func WithLogger(l logger.Logger) Option {
	return func(d *Detector) { d.log = l }
}

func WithObserver(o Observer) Option {
	return func(d *Detector) { d.observer = o }
}

// WithClock sets the time source used for windows and pattern timestamps
func WithClock(now func() time.Time) Option {
	return func(d *Detector) { d.now = now }
}

// WithIDGenerator sets the session and pattern id source
func WithIDGenerator(newID func() string) Option {
	return func(d *Detector) { d.newID = newID }
}

func WithMaxPreviousSessions(n int) Option {
	return func(d *Detector) { d.maxPrevious = n }
}

// NewDetector creates a Detector with the built-in catalog and policy
func NewDetector(opts ...Option) *Detector {
	d := &Detector{
		log:         logger.NewNop(),
		observer:    nopObserver{},
		now:         time.Now,
		newID:       newUUID,
		maxPrevious: DefaultMaxPreviousSessions,
	}
	for _, opt := range opts {
		opt(d)
	}
	if d.catalog == nil {
		d.catalog = DefaultCatalog()
	}
	if d.policy == nil {
		d.policy = DefaultPolicy()
	}
	if d.maxPrevious <= 0 {
		d.maxPrevious = DefaultMaxPreviousSessions
	}
	return d
}

func newUUID() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.NewString()
	}
	return id.String()
}

// Catalog returns the rule sets the detector selects from
func (d *Detector) Catalog() *Catalog {
	return d.catalog
}

// Analyze runs one reflection session. The only error is ErrUnknownReason,
// returned before any rule runs. Sparse or malformed logs only ever lead to
// signals not being detected.
func (d *Detector) Analyze(in Input) (*models.ReflectionSession, error) {
	ruleSets, err := d.catalog.Select(in.Reasons)
	if err != nil {
		return nil, err
	}

	now := d.now().UTC()
	window := SelectWindow(in.Logs, now, in.WindowDays)

	results := make([]models.RuleSetResult, 0, len(ruleSets))
	for _, rs := range ruleSets {
		results = append(results, d.evaluate(rs, window))
	}

	patterns := ExtractPatterns(results, d.relatedReasons(in.Reasons), now, d.newID)
	patterns = ApplyRecurrence(patterns, in.History, d.maxPrevious)

	d.log.Debug("reflection analyzed",
		logger.String("user_id", in.UserID),
		logger.Int("rule_sets", len(ruleSets)),
		logger.Int("window_logs", window.Len()),
		logger.Int("patterns", len(patterns)),
	)

	return &models.ReflectionSession{
		ID:         d.newID(),
		UserID:     in.UserID,
		CreatedAt:  now,
		MoodFocus:  in.MoodFocus,
		Reasons:    in.Reasons,
		Results:    results,
		Patterns:   patterns,
		WindowDays: window.Days,
		LogCount:   window.Len(),
	}, nil
}

// relatedReasons groups the session's reasons by the rule set they selected
func (d *Detector) relatedReasons(reasons []string) map[string][]string {
	related := make(map[string][]string)
	for _, reason := range reasons {
		id, ok := d.catalog.RuleSetFor(reason)
		if !ok {
			continue
		}
		related[id] = appendUnique(related[id], reason)
	}
	return related
}

func (d *Detector) evaluate(rs RuleSet, w Window) models.RuleSetResult {
	result := models.RuleSetResult{
		RuleSetID:    rs.ID,
		Name:         rs.Name,
		Category:     rs.Category,
		Signals:      make([]models.Signal, 0, len(rs.Rules)),
		Observations: make([]string, 0),
		Confidence:   confidenceFor(w.Len()),
	}

	detected := make(map[string]bool, len(rs.Rules))
	var weighted, totalWeight float64
	for _, rule := range rs.Rules {
		sig := d.evaluateRule(rs.ID, rule, w)
		result.Signals = append(result.Signals, sig)
		if !sig.Detected {
			continue
		}
		detected[sig.Type] = true
		weight := rule.Weight
		if weight <= 0 {
			weight = 1
		}
		weighted += weight * sig.Strength
		totalWeight += weight
	}
	if totalWeight > 0 {
		result.Score = weighted / totalWeight
	}

	fired := false
	for _, tmpl := range rs.Templates {
		if !requirementsMet(tmpl.Requires, detected) {
			continue
		}
		fired = true
		d.appendObservation(&result, tmpl.Text)
	}

	if !fired && len(detected) > 0 {
		d.appendObservation(&result, fallbackObservation(result.Signals))
	}

	return result
}

// evaluateRule runs one rule behind a recover boundary. A panicking condition
// yields an undetected signal with zero strength.
func (d *Detector) evaluateRule(ruleSetID string, rule Rule, w Window) (sig models.Signal) {
	sig = models.Signal{RuleID: rule.ID, Type: rule.SignalType, Description: rule.Description}

	defer func() {
		if r := recover(); r != nil {
			sig.Detected = false
			sig.Strength = 0
			d.log.Warn("reflection rule panicked",
				logger.String("rule_set", ruleSetID),
				logger.String("rule", rule.ID),
				logger.String("panic", fmt.Sprint(r)),
			)
			d.observer.RuleFault(ruleSetID, rule.ID)
		}
	}()

	if rule.Condition == nil || !rule.Condition(w) {
		return sig
	}

	sig.Detected = true
	sig.Strength = d.strength(ruleSetID, rule, w)
	return sig
}

// strength computes a detected signal's strength, clamped to [0,1]. A missing,
// panicking or non-finite strength function yields DefaultStrength.
func (d *Detector) strength(ruleSetID string, rule Rule, w Window) (s float64) {
	if rule.Strength == nil {
		return DefaultStrength
	}

	defer func() {
		if r := recover(); r != nil {
			d.log.Debug("reflection strength panicked",
				logger.String("rule_set", ruleSetID),
				logger.String("rule", rule.ID),
				logger.String("panic", fmt.Sprint(r)),
			)
			s = DefaultStrength
		}
	}()

	v := rule.Strength(w)
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return DefaultStrength
	}
	return clamp01(v)
}

// appendObservation adds text to the result when it passes the language policy
func (d *Detector) appendObservation(result *models.RuleSetResult, text string) {
	if phrase, bad := d.policy.Violation(text); bad {
		d.log.Warn("observation dropped by language policy",
			logger.String("rule_set", result.RuleSetID),
			logger.String("phrase", phrase),
			logger.Int("policy_version", d.policy.Version),
		)
		d.observer.ObservationDropped(result.RuleSetID, phrase)
		return
	}
	result.Observations = append(result.Observations, text)
}

func requirementsMet(requires []string, detected map[string]bool) bool {
	if len(requires) == 0 {
		return false
	}
	for _, t := range requires {
		if !detected[t] {
			return false
		}
	}
	return true
}

func fallbackObservation(signals []models.Signal) string {
	descriptions := make([]string, 0, len(signals))
	for _, s := range signals {
		if s.Detected {
			descriptions = append(descriptions, s.Description)
		}
	}
	return "Noticed in this window: " + strings.Join(descriptions, "; ") + "."
}

// confidenceFor maps the window's log count to a confidence tier
func confidenceFor(logCount int) models.Confidence {
	switch {
	case logCount >= highConfidenceLogs:
		return models.ConfidenceHigh
	case logCount >= mediumConfidenceLogs:
		return models.ConfidenceMedium
	default:
		return models.ConfidenceLow
	}
}

func appendUnique(list []string, v string) []string {
	for _, existing := range list {
		if existing == v {
			return list
		}
	}
	return append(list, v)
}
