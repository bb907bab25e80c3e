// src/rules/rules.go
package rules

import (
	"fmt"

	"github.com/Tombez/bank-transaction-vis-sub000/src/models"
)

// MatchKind selects how a rule's pattern is compared against a transaction.
type MatchKind string

const (
	MatchExact        MatchKind = "exact"
	MatchStarts       MatchKind = "starts"
	MatchHas          MatchKind = "has"
	MatchCustom       MatchKind = "custom"
	MatchCustomReturn MatchKind = "custom-return"
)

func (k MatchKind) valid() bool {
	switch k {
	case MatchExact, MatchStarts, MatchHas, MatchCustom, MatchCustomReturn:
		return true
	}
	return false
}

// CustomFunc decides whether a transaction matches a "custom" rule.
type CustomFunc func(tx models.Transaction) bool

// LabelFunc computes the label for a "custom-return" rule. An empty result
// means the rule did not match.
type LabelFunc func(tx models.Transaction) string

// Rule is one immutable classification rule. Pattern doubles as the rule's
// specificity key: longer patterns are tried first.
type Rule struct {
	ID        int
	Kind      MatchKind
	Pattern   string
	Label     string
	Match     CustomFunc
	MakeLabel LabelFunc
}

// RuleSet is an append-only ordered collection of rules. It is built once,
// passed by parameter into classification, and never mutated during a pass.
type RuleSet struct {
	rules []Rule
}

func NewRuleSet() *RuleSet { return &RuleSet{} }

// Register appends one rule per pattern, all sharing the same label path.
// This is the entry point handed to external rule modules.
func (s *RuleSet) Register(kind MatchKind, label string, patterns ...string) error {
	if !kind.valid() {
		return fmt.Errorf("rules: unknown match kind %q", kind)
	}
	if kind == MatchCustom || kind == MatchCustomReturn {
		return fmt.Errorf("rules: %s rules need RegisterCustom or RegisterCustomReturn", kind)
	}
	if len(patterns) == 0 {
		return fmt.Errorf("rules: no pattern for label %q", label)
	}
	for _, p := range patterns {
		s.rules = append(s.rules, Rule{ID: len(s.rules), Kind: kind, Pattern: p, Label: label})
	}
	return nil
}

// RegisterCustom appends a predicate rule: the label applies when fn is true.
// name participates in specificity ordering like a literal pattern would.
func (s *RuleSet) RegisterCustom(name, label string, fn CustomFunc) {
	s.rules = append(s.rules, Rule{ID: len(s.rules), Kind: MatchCustom, Pattern: name, Label: label, Match: fn})
}

// RegisterCustomReturn appends a rule that computes its own label.
func (s *RuleSet) RegisterCustomReturn(name string, fn LabelFunc) {
	s.rules = append(s.rules, Rule{ID: len(s.rules), Kind: MatchCustomReturn, Pattern: name, MakeLabel: fn})
}

// Rules returns a copy of the rule list in registration order.
func (s *RuleSet) Rules() []Rule {
	return append([]Rule(nil), s.rules...)
}

func (s *RuleSet) Len() int { return len(s.rules) }
