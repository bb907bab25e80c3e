// src/ledger/columns.go
package ledger

import (
	"regexp"

	"github.com/Tombez/bank-transaction-vis-sub000/src/csvtable"
)

// Unmapped is the sentinel for a role no header resolved to. Column 0 is a
// valid mapping, so "not found" is never represented as 0.
const Unmapped = -1

// RoleMapping assigns table column indices to semantic roles. It is produced
// by heuristics on ingest and may be overridden by the user afterwards; user
// overrides are never replaced by re-running the heuristics.
type RoleMapping struct {
	Date           int
	Description    int
	Debit          int
	Credit         int
	HasCdIndicator bool
	CdIndicator    int
}

// FullyMapped reports whether the mapping is complete enough to normalize:
// date, description, debit and credit must all be resolved. Files that are
// not fully mapped are excluded from the compiled ledger.
func (m RoleMapping) FullyMapped() bool {
	return m.Date != Unmapped && m.Description != Unmapped &&
		m.Debit != Unmapped && m.Credit != Unmapped
}

// Per-role pattern lists, in priority order: the first pattern that matches
// any header wins, so more specific expressions come first.
var (
	datePatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?i)trans\w*\s*date`),
		regexp.MustCompile(`(?i)post\w*\s*date`),
		regexp.MustCompile(`(?i)date`),
	}
	descriptionPatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?i)desc`),
		regexp.MustCompile(`(?i)payee`),
		regexp.MustCompile(`(?i)merchant`),
		regexp.MustCompile(`(?i)memo`),
		regexp.MustCompile(`(?i)name`),
		regexp.MustCompile(`(?i)detail`),
	}
	debitPatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?i)debit`),
		regexp.MustCompile(`(?i)withdraw`),
		regexp.MustCompile(`(?i)payment`),
		regexp.MustCompile(`(?i)amount`),
	}
	creditPatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?i)credit`),
		regexp.MustCompile(`(?i)deposit`),
		regexp.MustCompile(`(?i)receipt`),
		regexp.MustCompile(`(?i)amount`),
	}
	indicatorPatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?i)cr\W*dr|dr\W*cr`),
		regexp.MustCompile(`(?i)credit\W*debit|debit\W*credit`),
		regexp.MustCompile(`(?i)indicator`),
	}
)

// MapColumns runs the header heuristics over a table's headings and returns
// a role mapping. The table is not mutated; unresolved roles stay Unmapped.
// The credit/debit indicator role is auto-enabled only when a header names an
// indicator column explicitly.
func MapColumns(t *csvtable.Table) RoleMapping {
	headers := make([]string, len(t.Headings))
	for i, h := range t.Headings {
		headers[i] = h.Text
	}
	m := RoleMapping{
		Date:        findRole(headers, datePatterns),
		Description: findRole(headers, descriptionPatterns),
		Debit:       findRole(headers, debitPatterns),
		Credit:      findRole(headers, creditPatterns),
		CdIndicator: findRole(headers, indicatorPatterns),
	}
	m.HasCdIndicator = m.CdIndicator != Unmapped
	return m
}

func findRole(headers []string, patterns []*regexp.Regexp) int {
	for _, re := range patterns {
		for i, h := range headers {
			if re.MatchString(h) {
				return i
			}
		}
	}
	return Unmapped
}
