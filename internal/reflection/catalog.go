package reflection

import (
	"errors"
	"fmt"

	"github.com/JonnyWalker81/daylog/internal/models"
)

// ErrUnknownReason is returned when a reason tag has no rule set in the catalog
var ErrUnknownReason = errors.New("unknown reflection reason")

// Template is an observation that fires only when every required signal type
// was detected in the same rule set
type Template struct {
	Requires []string
	Text     string
}

// RuleSet bundles the rules and observation templates behind one or more
// user-facing reasons
type RuleSet struct {
	ID        string
	Name      string
	Category  string
	Reasons   []string
	Rules     []Rule
	Templates []Template
}

// SignalTypes lists the signal types the rule set can emit, in rule order
func (rs RuleSet) SignalTypes() []string {
	types := make([]string, 0, len(rs.Rules))
	for _, r := range rs.Rules {
		types = append(types, r.SignalType)
	}
	return types
}

// Catalog maps reason tags to rule sets
type Catalog struct {
	ruleSets []RuleSet
	byReason map[string]int
}

// NewCatalog indexes rule sets by reason and assigns rule ids. A reason
// claimed by two rule sets, a repeated rule set id or a repeated rule id is a
// configuration error. The caller's rule slices are not modified.
func NewCatalog(ruleSets ...RuleSet) (*Catalog, error) {
	c := &Catalog{
		ruleSets: make([]RuleSet, len(ruleSets)),
		byReason: make(map[string]int),
	}

	seen := make(map[string]bool, len(ruleSets))
	ruleIDs := make(map[string]bool)
	for i, rs := range ruleSets {
		if rs.ID == "" {
			return nil, fmt.Errorf("rule set %d has no id", i)
		}
		if seen[rs.ID] {
			return nil, fmt.Errorf("duplicate rule set id %q", rs.ID)
		}
		seen[rs.ID] = true

		rules := make([]Rule, len(rs.Rules))
		for j, rule := range rs.Rules {
			if rule.ID == "" {
				rule.ID = rs.ID + "." + rule.SignalType
			}
			if ruleIDs[rule.ID] {
				return nil, fmt.Errorf("duplicate rule id %q in rule set %q", rule.ID, rs.ID)
			}
			ruleIDs[rule.ID] = true
			rules[j] = rule
		}
		rs.Rules = rules
		c.ruleSets[i] = rs

		for _, reason := range rs.Reasons {
			if prev, ok := c.byReason[reason]; ok {
				return nil, fmt.Errorf("reason %q mapped to both %q and %q", reason, ruleSets[prev].ID, rs.ID)
			}
			c.byReason[reason] = i
		}
	}

	return c, nil
}

// Select maps reasons to rule sets, running each rule set once in the order its
// first reason appeared. Any unmapped reason fails the whole selection.
func (c *Catalog) Select(reasons []string) ([]RuleSet, error) {
	selected := make([]RuleSet, 0, len(reasons))
	seen := make(map[string]bool, len(reasons))

	for _, reason := range reasons {
		idx, ok := c.byReason[reason]
		if !ok {
			return nil, fmt.Errorf("%w: %q", ErrUnknownReason, reason)
		}
		rs := c.ruleSets[idx]
		if seen[rs.ID] {
			continue
		}
		seen[rs.ID] = true
		selected = append(selected, rs)
	}

	return selected, nil
}

// RuleSetFor returns the rule set id a reason maps to
func (c *Catalog) RuleSetFor(reason string) (string, bool) {
	idx, ok := c.byReason[reason]
	if !ok {
		return "", false
	}
	return c.ruleSets[idx].ID, true
}

// RuleSets returns the catalog's rule sets in declaration order
func (c *Catalog) RuleSets() []RuleSet {
	return c.ruleSets
}

// Describe returns the client-facing view of the catalog
func (c *Catalog) Describe() models.ReflectionCatalog {
	out := models.ReflectionCatalog{
		Reasons:  make([]string, 0, len(c.byReason)),
		RuleSets: make([]models.CatalogRuleSet, 0, len(c.ruleSets)),
	}
	for _, rs := range c.ruleSets {
		out.Reasons = append(out.Reasons, rs.Reasons...)
		out.RuleSets = append(out.RuleSets, models.CatalogRuleSet{
			ID:          rs.ID,
			Name:        rs.Name,
			Category:    rs.Category,
			Reasons:     rs.Reasons,
			SignalTypes: rs.SignalTypes(),
		})
	}
	return out
}

// DefaultCatalog returns the built-in rule sets
func DefaultCatalog() *Catalog {
	c, err := NewCatalog(defaultRuleSets()...)
	if err != nil {
		panic(fmt.Sprintf("reflection: invalid built-in catalog: %v", err))
	}
	return c
}

func defaultRuleSets() []RuleSet {
	return []RuleSet{
		{
			ID:       "rest",
			Name:     "Rest and sleep",
			Category: "sleep",
			Reasons:  []string{"sleep", "tiredness"},
			Rules:    []Rule{sleepDeficitRule(), sleepIrregularityRule(), lowEnergyRule()},
			Templates: []Template{
				{
					Requires: []string{SignalSleepDeficit, SignalLowEnergy},
					Text:     "Shorter nights and lower energy showed up together in this window.",
				},
				{
					Requires: []string{SignalSleepIrregularity, SignalLowEnergy},
					Text:     "Energy was lower during a stretch when bedtimes and sleep length moved around.",
				},
				{
					Requires: []string{SignalSleepDeficit},
					Text:     "Most nights in this window came in under seven hours of sleep.",
				},
				{
					Requires: []string{SignalSleepIrregularity},
					Text:     "Sleep length changed quite a bit from one night to the next.",
				},
			},
		},
		{
			ID:       "load",
			Name:     "Work and stress load",
			Category: "stress",
			Reasons:  []string{"stress", "work", "overwhelm"},
			Rules:    []Rule{elevatedAnxietyRule(), focusDipRule(), recoveryGapRule()},
			Templates: []Template{
				{
					Requires: []string{SignalElevatedAnxiety, SignalFocusDip},
					Text:     "Anxiety ran higher while focus eased off toward the end of this window.",
				},
				{
					Requires: []string{SignalElevatedAnxiety, SignalRecoveryGap},
					Text:     "Anxiety was elevated on days with little room for meditation or movement.",
				},
				{
					Requires: []string{SignalFocusDip},
					Text:     "Focus ratings were lower in recent days than at the start of the window.",
				},
				{
					Requires: []string{SignalRecoveryGap},
					Text:     "Few days in this window included a workout or meditation.",
				},
			},
		},
		{
			ID:       "connection",
			Name:     "Connection",
			Category: "social",
			Reasons:  []string{"relationships", "loneliness"},
			Rules:    []Rule{activityWithdrawalRule(), socialDipRule(), lowMoodRule()},
			Templates: []Template{
				{
					Requires: []string{SignalActivityWithdrawal, SignalSocialDip},
					Text:     "Workouts thinned out during the same stretch that connection ratings dipped.",
				},
				{
					Requires: []string{SignalSocialDip, SignalLowMood},
					Text:     "Lower connection ratings and lower mood appeared on many of the same days.",
				},
				{
					Requires: []string{SignalActivityWithdrawal},
					Text:     "You logged workouts less often in the second half of this window.",
				},
			},
		},
		{
			ID:       "body",
			Name:     "Body and movement",
			Category: "health",
			Reasons:  []string{"health", "movement"},
			Rules:    []Rule{movementDropRule(), sleepDeficitRule(), lowEnergyRule()},
			Templates: []Template{
				{
					Requires: []string{SignalMovementDrop, SignalLowEnergy},
					Text:     "Days without workouts lined up with lower energy ratings.",
				},
				{
					Requires: []string{SignalMovementDrop, SignalSleepDeficit},
					Text:     "Movement was less frequent and nights were shorter in this window.",
				},
				{
					Requires: []string{SignalSleepDeficit, SignalLowEnergy},
					Text:     "Energy ratings were lower during a run of shorter nights.",
				},
			},
		},
		{
			ID:       "mood",
			Name:     "Mood",
			Category: "mood",
			Reasons:  []string{"mood_swings", "not_sure"},
			Rules:    []Rule{moodVolatilityRule(), lowMoodRule(), elevatedAnxietyRule()},
			Templates: []Template{
				{
					Requires: []string{SignalMoodVolatility, SignalElevatedAnxiety},
					Text:     "Mood moved up and down more than usual while anxiety ran higher.",
				},
				{
					Requires: []string{SignalMoodVolatility},
					Text:     "Mood ratings varied widely from day to day in this window.",
				},
				{
					Requires: []string{SignalLowMood},
					Text:     "Mood ratings stayed on the lower end for much of this window.",
				},
			},
		},
		{
			ID:       "inputs",
			Name:     "Daily inputs",
			Category: "exposures",
			Reasons:  []string{"caffeine", "screens"},
			Rules:    []Rule{caffeineLoadRule(), screenHeavyRule(), sleepDeficitRule()},
			Templates: []Template{
				{
					Requires: []string{SignalCaffeineLoad, SignalSleepDeficit},
					Text:     "Higher caffeine days came alongside shorter nights of sleep.",
				},
				{
					Requires: []string{SignalScreenHeavy, SignalSleepDeficit},
					Text:     "Heavier screen time appeared in the same window as shorter sleep.",
				},
				{
					Requires: []string{SignalCaffeineLoad, SignalScreenHeavy},
					Text:     "Both caffeine and screen time ran high in this window.",
				},
			},
		},
	}
}
