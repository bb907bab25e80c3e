// src/processors/classification_processor.go
package processors

import (
	"sort"
	"strings"

	"github.com/Tombez/bank-transaction-vis-sub000/src/models"
	"github.com/Tombez/bank-transaction-vis-sub000/src/rules"
)

// Assignment is the classification result for one transaction, positionally
// aligned with the input slice. RuleID is -1 when no rule matched.
type Assignment struct {
	LabelPath string `json:"label_path"`
	RuleID    int    `json:"rule_id"`
}

// AuditMap records which transactions each rule matched during a single
// classification pass. It is rebuilt from scratch on every pass and never
// accumulates across runs.
type AuditMap map[int][]models.Transaction

// ClassificationProcessor assigns hierarchical label paths to transactions
// via a priority-ordered rule set. Each call is pure given its inputs, so it
// is safe to invoke any number of times while the rule set is still growing.
type ClassificationProcessor struct{}

func NewClassificationProcessor() *ClassificationProcessor {
	return &ClassificationProcessor{}
}

// Classify evaluates the rule set against every transaction. Rules are tried
// in descending order of pattern length (the specificity key) with ties kept
// in registration order; the first match wins. Transactions matching no rule
// get an empty label path.
func (p *ClassificationProcessor) Classify(txs []models.Transaction, set *rules.RuleSet) ([]Assignment, AuditMap) {
	ordered := set.Rules()
	sort.SliceStable(ordered, func(i, j int) bool {
		return len(ordered[i].Pattern) > len(ordered[j].Pattern)
	})

	assignments := make([]Assignment, len(txs))
	audit := make(AuditMap)
	for i, tx := range txs {
		assignments[i] = Assignment{RuleID: -1}
		for _, rule := range ordered {
			label, ok := matchRule(rule, tx)
			if !ok {
				continue
			}
			assignments[i] = Assignment{LabelPath: label, RuleID: rule.ID}
			audit[rule.ID] = append(audit[rule.ID], tx)
			break
		}
	}
	return assignments, audit
}

func matchRule(rule rules.Rule, tx models.Transaction) (string, bool) {
	switch rule.Kind {
	case rules.MatchExact:
		if tx.Description == rule.Pattern {
			return rule.Label, true
		}
	case rules.MatchStarts:
		if strings.HasPrefix(tx.Description, rule.Pattern) {
			return rule.Label, true
		}
	case rules.MatchHas:
		if strings.Contains(tx.Description, rule.Pattern) {
			return rule.Label, true
		}
	case rules.MatchCustom:
		if rule.Match != nil && rule.Match(tx) {
			return rule.Label, true
		}
	case rules.MatchCustomReturn:
		if rule.MakeLabel != nil {
			if label := rule.MakeLabel(tx); label != "" {
				return label, true
			}
		}
	}
	return "", false
}
