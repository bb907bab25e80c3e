package rules

import (
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"
)

type ruleEntry struct {
	Match    string   `yaml:"match"`
	Pattern  string   `yaml:"pattern"`
	Patterns []string `yaml:"patterns"`
	Label    string   `yaml:"label"`
}

type ruleFile struct {
	Rules []ruleEntry `yaml:"rules"`
}

// Load reads a YAML rule file into a fresh RuleSet. Each entry has a match
// kind, a label path, and either a single pattern or a list of patterns
// sharing that label. Custom kinds cannot be expressed in YAML and are
// rejected; they are registered from Go code instead.
func Load(r io.Reader) (*RuleSet, error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("rules: reading rule file: %w", err)
	}
	var rf ruleFile
	if err := yaml.Unmarshal(raw, &rf); err != nil {
		return nil, fmt.Errorf("rules: parsing rule file: %w", err)
	}
	set := NewRuleSet()
	for i, entry := range rf.Rules {
		patterns := entry.Patterns
		if entry.Pattern != "" {
			patterns = append([]string{entry.Pattern}, patterns...)
		}
		if err := set.Register(MatchKind(entry.Match), entry.Label, patterns...); err != nil {
			return nil, fmt.Errorf("rules: entry %d: %w", i, err)
		}
	}
	return set, nil
}

// LoadFile is Load over a file path.
func LoadFile(path string) (*RuleSet, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return Load(f)
}
