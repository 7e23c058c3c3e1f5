package reflection

import (
	"testing"
)

func TestDefaultPolicy(t *testing.T) {
	p := DefaultPolicy()

	if p.Version <= 0 {
		t.Errorf("Version = %d, want positive", p.Version)
	}

	required := []string{"you should", "diagnosis", "disorder", "stuck", "cure"}
	for _, phrase := range required {
		found := false
		for _, got := range p.Phrases() {
			if got == phrase {
				found = true
				break
			}
		}
		if !found {
			t.Errorf("embedded policy is missing %q", phrase)
		}
	}
}

func TestPolicy_Violation(t *testing.T) {
	p := DefaultPolicy()

	tests := []struct {
		name       string
		text       string
		wantPhrase string
		wantBad    bool
	}{
		{name: "neutral observation", text: "Sleep ran shorter on busy days.", wantBad: false},
		{name: "prescriptive", text: "You should go to bed earlier.", wantPhrase: "you should", wantBad: true},
		{name: "case insensitive", text: "This looks like a DISORDER.", wantPhrase: "disorder", wantBad: true},
		{name: "substring inside a word", text: "There is no quick cure-all.", wantPhrase: "cure", wantBad: true},
		{name: "feeling stuck", text: "It seems like you are Stuck.", wantPhrase: "stuck", wantBad: true},
		{name: "empty text", text: "", wantBad: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			phrase, bad := p.Violation(tt.text)
			if bad != tt.wantBad {
				t.Fatalf("Violation(%q) bad = %v, want %v", tt.text, bad, tt.wantBad)
			}
			if phrase != tt.wantPhrase {
				t.Errorf("Violation(%q) phrase = %q, want %q", tt.text, phrase, tt.wantPhrase)
			}
			if p.Allows(tt.text) == tt.wantBad {
				t.Errorf("Allows(%q) = %v, want %v", tt.text, !tt.wantBad, !tt.wantBad)
			}
		})
	}
}

func TestLoadPolicy(t *testing.T) {
	tests := []struct {
		name    string
		data    string
		want    []string
		wantErr bool
	}{
		{
			name: "normalizes phrases",
			data: "version: 2\nphrases:\n  - \"  You Should \"\n  - \"\"\n  - Cure\n",
			want: []string{"you should", "cure"},
		},
		{
			name:    "no phrases",
			data:    "version: 1\nphrases: []\n",
			wantErr: true,
		},
		{
			name:    "malformed yaml",
			data:    "version: [1\n",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := LoadPolicy([]byte(tt.data))
			if tt.wantErr {
				if err == nil {
					t.Fatal("LoadPolicy() error = nil, want error")
				}
				return
			}
			if err != nil {
				t.Fatalf("LoadPolicy() error = %v", err)
			}
			if len(p.Phrases()) != len(tt.want) {
				t.Fatalf("Phrases() = %v, want %v", p.Phrases(), tt.want)
			}
			for i := range tt.want {
				if p.Phrases()[i] != tt.want[i] {
					t.Errorf("Phrases()[%d] = %q, want %q", i, p.Phrases()[i], tt.want[i])
				}
			}
		})
	}
}

// Every string the built-in catalog can surface must pass the policy: template
// text, signal descriptions and the fallback built from all descriptions.
func TestDefaultCatalog_PassesLanguagePolicy(t *testing.T) {
	p := DefaultPolicy()

	for _, rs := range DefaultCatalog().RuleSets() {
		for _, tmpl := range rs.Templates {
			if phrase, bad := p.Violation(tmpl.Text); bad {
				t.Errorf("rule set %s template %q contains %q", rs.ID, tmpl.Text, phrase)
			}
		}

		signals := detectedSignals(rs)
		for _, sig := range signals {
			if phrase, bad := p.Violation(sig.Description); bad {
				t.Errorf("rule set %s signal %s description contains %q", rs.ID, sig.Type, phrase)
			}
		}

		fallback := fallbackObservation(signals)
		if phrase, bad := p.Violation(fallback); bad {
			t.Errorf("rule set %s fallback %q contains %q", rs.ID, fallback, phrase)
		}
	}
}
