package reflection

import (
	"errors"
	"reflect"
	"testing"

	"github.com/JonnyWalker81/daylog/internal/models"
)

// detectedSignals returns one detected signal per rule in the set
func detectedSignals(rs RuleSet) []models.Signal {
	signals := make([]models.Signal, 0, len(rs.Rules))
	for _, r := range rs.Rules {
		signals = append(signals, models.Signal{Type: r.SignalType, Detected: true, Description: r.Description})
	}
	return signals
}

func TestDefaultCatalog_Mapping(t *testing.T) {
	tests := []struct {
		ruleSet string
		reasons []string
		signals []string
	}{
		{
			ruleSet: "rest",
			reasons: []string{"sleep", "tiredness"},
			signals: []string{SignalSleepDeficit, SignalSleepIrregularity, SignalLowEnergy},
		},
		{
			ruleSet: "load",
			reasons: []string{"stress", "work", "overwhelm"},
			signals: []string{SignalElevatedAnxiety, SignalFocusDip, SignalRecoveryGap},
		},
		{
			ruleSet: "connection",
			reasons: []string{"relationships", "loneliness"},
			signals: []string{SignalActivityWithdrawal, SignalSocialDip, SignalLowMood},
		},
		{
			ruleSet: "body",
			reasons: []string{"health", "movement"},
			signals: []string{SignalMovementDrop, SignalSleepDeficit, SignalLowEnergy},
		},
		{
			ruleSet: "mood",
			reasons: []string{"mood_swings", "not_sure"},
			signals: []string{SignalMoodVolatility, SignalLowMood, SignalElevatedAnxiety},
		},
		{
			ruleSet: "inputs",
			reasons: []string{"caffeine", "screens"},
			signals: []string{SignalCaffeineLoad, SignalScreenHeavy, SignalSleepDeficit},
		},
	}

	catalog := DefaultCatalog()
	byID := make(map[string]RuleSet)
	for _, rs := range catalog.RuleSets() {
		byID[rs.ID] = rs
	}

	for _, tt := range tests {
		t.Run(tt.ruleSet, func(t *testing.T) {
			for _, reason := range tt.reasons {
				id, ok := catalog.RuleSetFor(reason)
				if !ok || id != tt.ruleSet {
					t.Errorf("RuleSetFor(%q) = %q, %v, want %q", reason, id, ok, tt.ruleSet)
				}
			}

			rs, ok := byID[tt.ruleSet]
			if !ok {
				t.Fatalf("rule set %q missing from catalog", tt.ruleSet)
			}
			if got := rs.SignalTypes(); !reflect.DeepEqual(got, tt.signals) {
				t.Errorf("SignalTypes() = %v, want %v", got, tt.signals)
			}
		})
	}
}

func TestDefaultCatalog_TemplatesUseOwnSignals(t *testing.T) {
	for _, rs := range DefaultCatalog().RuleSets() {
		emits := make(map[string]bool)
		for _, st := range rs.SignalTypes() {
			emits[st] = true
		}
		for _, tmpl := range rs.Templates {
			if len(tmpl.Requires) == 0 {
				t.Errorf("rule set %s template %q has no requirements", rs.ID, tmpl.Text)
			}
			for _, req := range tmpl.Requires {
				if !emits[req] {
					t.Errorf("rule set %s template %q requires %s which the set never emits", rs.ID, tmpl.Text, req)
				}
			}
		}
	}
}

func TestCatalog_Select(t *testing.T) {
	catalog := DefaultCatalog()

	tests := []struct {
		name    string
		reasons []string
		want    []string
		wantErr bool
	}{
		{name: "single reason", reasons: []string{"stress"}, want: []string{"load"}},
		{name: "shared rule set runs once", reasons: []string{"sleep", "stress", "tiredness"}, want: []string{"rest", "load"}},
		{name: "first appearance sets order", reasons: []string{"screens", "mood_swings", "caffeine"}, want: []string{"inputs", "mood"}},
		{name: "unknown reason", reasons: []string{"sleep", "astrology"}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := catalog.Select(tt.reasons)
			if tt.wantErr {
				if !errors.Is(err, ErrUnknownReason) {
					t.Fatalf("Select() error = %v, want ErrUnknownReason", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("Select() error = %v", err)
			}
			ids := make([]string, 0, len(got))
			for _, rs := range got {
				ids = append(ids, rs.ID)
			}
			if !reflect.DeepEqual(ids, tt.want) {
				t.Errorf("Select() = %v, want %v", ids, tt.want)
			}
		})
	}
}

func TestNewCatalog_Errors(t *testing.T) {
	tests := []struct {
		name string
		sets []RuleSet
	}{
		{
			name: "missing id",
			sets: []RuleSet{{Reasons: []string{"a"}}},
		},
		{
			name: "duplicate id",
			sets: []RuleSet{{ID: "x", Reasons: []string{"a"}}, {ID: "x", Reasons: []string{"b"}}},
		},
		{
			name: "reason claimed twice",
			sets: []RuleSet{{ID: "x", Reasons: []string{"a"}}, {ID: "y", Reasons: []string{"a"}}},
		},
		{
			name: "signal repeated in one rule set",
			sets: []RuleSet{{ID: "x", Reasons: []string{"a"}, Rules: []Rule{lowEnergyRule(), lowEnergyRule()}}},
		},
		{
			name: "explicit rule id reused",
			sets: []RuleSet{
				{ID: "x", Reasons: []string{"a"}, Rules: []Rule{{ID: "shared", SignalType: "s1"}}},
				{ID: "y", Reasons: []string{"b"}, Rules: []Rule{{ID: "shared", SignalType: "s2"}}},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := NewCatalog(tt.sets...); err == nil {
				t.Error("NewCatalog() error = nil, want error")
			}
		})
	}
}

func TestNewCatalog_RuleIDs(t *testing.T) {
	c := DefaultCatalog()

	owners := make(map[string]string)
	for _, rs := range c.RuleSets() {
		for _, rule := range rs.Rules {
			if want := rs.ID + "." + rule.SignalType; rule.ID != want {
				t.Errorf("rule id = %q, want %q", rule.ID, want)
			}
			if prev, ok := owners[rule.ID]; ok {
				t.Errorf("rule id %q used by %q and %q", rule.ID, prev, rs.ID)
			}
			owners[rule.ID] = rs.ID
		}
	}

	// sleep deficit is shared by three rule sets and named once in each
	for _, id := range []string{"rest.sleep-deficit", "body.sleep-deficit", "inputs.sleep-deficit"} {
		if _, ok := owners[id]; !ok {
			t.Errorf("missing rule %q", id)
		}
	}
}

func TestNewCatalog_KeepsCallerRules(t *testing.T) {
	rules := []Rule{{SignalType: "a"}, {ID: "custom", SignalType: "b"}}

	c, err := NewCatalog(RuleSet{ID: "set", Reasons: []string{"r"}, Rules: rules})
	if err != nil {
		t.Fatalf("NewCatalog() error = %v", err)
	}

	if rules[0].ID != "" {
		t.Errorf("caller rule mutated: %+v", rules[0])
	}
	got := c.RuleSets()[0].Rules
	if got[0].ID != "set.a" || got[1].ID != "custom" {
		t.Errorf("rule ids = %q, %q, want set.a, custom", got[0].ID, got[1].ID)
	}
}

func TestCatalog_Describe(t *testing.T) {
	desc := DefaultCatalog().Describe()

	if len(desc.RuleSets) != 6 {
		t.Errorf("Describe() returned %d rule sets, want 6", len(desc.RuleSets))
	}
	if len(desc.Reasons) != 13 {
		t.Errorf("Describe() returned %d reasons, want 13", len(desc.Reasons))
	}
	if desc.Reasons[0] != "sleep" {
		t.Errorf("first reason = %q, want sleep", desc.Reasons[0])
	}
}
