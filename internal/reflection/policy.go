package reflection

import (
	_ "embed"
	"fmt"
	"strings"

	"github.com/goccy/go-yaml"
)

//go:embed policy/forbidden_phrases.yaml
var forbiddenPhrasesYAML []byte

// Policy is the language gate every observation passes before it is surfaced
type Policy struct {
	Version int
	phrases []string
}

type policyFile struct {
	Version int      `yaml:"version"`
	Phrases []string `yaml:"phrases"`
}

// LoadPolicy parses a forbidden-phrase list
func LoadPolicy(data []byte) (*Policy, error) {
	var f policyFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("failed to parse language policy: %w", err)
	}
	if len(f.Phrases) == 0 {
		return nil, fmt.Errorf("language policy v%d lists no phrases", f.Version)
	}

	p := &Policy{
		Version: f.Version,
		phrases: make([]string, 0, len(f.Phrases)),
	}
	for _, phrase := range f.Phrases {
		phrase = strings.ToLower(strings.TrimSpace(phrase))
		if phrase == "" {
			continue
		}
		p.phrases = append(p.phrases, phrase)
	}
	return p, nil
}

// DefaultPolicy returns the embedded forbidden-phrase list
func DefaultPolicy() *Policy {
	p, err := LoadPolicy(forbiddenPhrasesYAML)
	if err != nil {
		panic(fmt.Sprintf("reflection: invalid embedded policy: %v", err))
	}
	return p
}

// Phrases returns the normalized forbidden phrases
func (p *Policy) Phrases() []string {
	return p.phrases
}

// Violation returns the first forbidden phrase found in text
func (p *Policy) Violation(text string) (string, bool) {
	lower := strings.ToLower(text)
	for _, phrase := range p.phrases {
		if strings.Contains(lower, phrase) {
			return phrase, true
		}
	}
	return "", false
}

// Allows reports whether text contains no forbidden phrase
func (p *Policy) Allows(text string) bool {
	_, bad := p.Violation(text)
	return !bad
}
