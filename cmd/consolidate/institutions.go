// cmd/consolidate/institutions.go
package main

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/Tombez/bank-transaction-vis-sub000/src/ledger"
	"github.com/Tombez/bank-transaction-vis-sub000/src/models"
)

// institution describes one bank's export format: the header it is expected
// to carry (possibly varying by statement month) and how to pull ledger
// fields out of a row.
type institution struct {
	code string
	// header returns the expected header row for the given statement month.
	// A zero month means the filename carried no YYYY-MM tag.
	header func(month time.Time) []string
	// extract converts one data row into a ledger transaction. The row is
	// guaranteed non-empty but not guaranteed to match the expected header.
	extract func(row []string, sourceFile string) (models.Transaction, error)
}

// boaNewFormat is the first statement month of the reworked Bank of America
// export layout.
var boaNewFormat = time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC)

var institutions = map[string]institution{
	"chase": {
		code: "chase",
		header: func(time.Time) []string {
			return []string{"Transaction Date", "Post Date", "Description", "Category", "Type", "Amount", "Memo"}
		},
		extract: func(row []string, sourceFile string) (models.Transaction, error) {
			if len(row) < 6 {
				return models.Transaction{}, fmt.Errorf("row has %d fields, want at least 6", len(row))
			}
			txDate, err := ledger.ParseDate(row[0])
			if err != nil {
				return models.Transaction{}, err
			}
			postDate, err := ledger.ParseDate(row[1])
			if err != nil {
				return models.Transaction{}, err
			}
			amount, err := decimal.NewFromString(ledger.Sanitize(row[5]))
			if err != nil {
				return models.Transaction{}, fmt.Errorf("bad amount %q: %w", row[5], err)
			}
			return models.Transaction{
				Account:         "chase",
				TransactionDate: txDate,
				PostedDate:      postDate,
				Description:     cleanDescription(row[2]),
				Amount:          amount,
				SourceFile:      sourceFile,
			}, nil
		},
	},
	"boa": {
		code: "boa",
		header: func(month time.Time) []string {
			if !month.IsZero() && !month.Before(boaNewFormat) {
				return []string{"Posted Date", "Reference Number", "Payee", "Address", "Amount"}
			}
			return []string{"Date", "Description", "Amount", "Running Bal."}
		},
		extract: func(row []string, sourceFile string) (models.Transaction, error) {
			// Both layouts lead with the date; the payee and amount move.
			descIdx, amountIdx := 1, 2
			if len(row) >= 5 {
				descIdx, amountIdx = 2, 4
			} else if len(row) < 3 {
				return models.Transaction{}, fmt.Errorf("row has %d fields, want at least 3", len(row))
			}
			date, err := ledger.ParseDate(row[0])
			if err != nil {
				return models.Transaction{}, err
			}
			amount, err := decimal.NewFromString(ledger.Sanitize(row[amountIdx]))
			if err != nil {
				return models.Transaction{}, fmt.Errorf("bad amount %q: %w", row[amountIdx], err)
			}
			return models.Transaction{
				Account:         "boa",
				TransactionDate: date,
				PostedDate:      date,
				Description:     cleanDescription(row[descIdx]),
				Amount:          amount,
				SourceFile:      sourceFile,
			}, nil
		},
	},
	"amex": {
		code: "amex",
		header: func(time.Time) []string {
			return []string{"Date", "Description", "Amount"}
		},
		extract: func(row []string, sourceFile string) (models.Transaction, error) {
			if len(row) < 3 {
				return models.Transaction{}, fmt.Errorf("row has %d fields, want at least 3", len(row))
			}
			date, err := ledger.ParseDate(row[0])
			if err != nil {
				return models.Transaction{}, err
			}
			amount, err := decimal.NewFromString(ledger.Sanitize(row[2]))
			if err != nil {
				return models.Transaction{}, fmt.Errorf("bad amount %q: %w", row[2], err)
			}
			return models.Transaction{
				Account:         "amex",
				TransactionDate: date,
				PostedDate:      date,
				Description:     cleanDescription(row[1]),
				// Amex exports charges as positive numbers.
				Amount:     amount.Neg(),
				SourceFile: sourceFile,
			}, nil
		},
	},
}

// fileNameRe captures the institution code and an optional YYYY-MM statement
// month from names like "boa_2024-03.csv" or "chase-2023-11-export.csv".
var fileNameRe = regexp.MustCompile(`(?i)^([a-z]+)[-_](?:.*?(\d{4}-\d{2}))?`)

// parseFileName splits a csv file name into its institution code and
// statement month. The month is zero when the name carries none.
func parseFileName(name string) (code string, month time.Time) {
	m := fileNameRe.FindStringSubmatch(name)
	if m == nil {
		return strings.ToLower(strings.TrimSuffix(name, ".csv")), time.Time{}
	}
	code = strings.ToLower(m[1])
	if m[2] != "" {
		if t, err := time.Parse("2006-01", m[2]); err == nil {
			month = t
		}
	}
	return code, month
}

var descriptionCleanups = []struct {
	re   *regexp.Regexp
	repl string
}{
	{regexp.MustCompile(`(?i)\b(POS DEBIT|DEBIT CARD PURCHASE|ACH WEB|CHECKCARD)\b\s*`), ""},
	{regexp.MustCompile(`\b[Xx*]{4,}\d{4}\b`), ""},
	{regexp.MustCompile(`\s+#?\d{8,}$`), ""},
	{regexp.MustCompile(`\s{2,}`), " "},
}

func cleanDescription(s string) string {
	for _, c := range descriptionCleanups {
		s = c.re.ReplaceAllString(s, c.repl)
	}
	return strings.TrimSpace(s)
}

// headerDiff reports whether two header rows match, and when they do not,
// a human-readable pointer at the first mismatching character.
func headerDiff(expected, got []string) (ok bool, diff string) {
	exp := strings.Join(expected, ",")
	act := strings.Join(got, ",")
	if exp == act {
		return true, ""
	}
	i := 0
	for i < len(exp) && i < len(act) && exp[i] == act[i] {
		i++
	}
	return false, fmt.Sprintf("first mismatch at char %d: expected %q, got %q", i, tail(exp, i), tail(act, i))
}

func tail(s string, i int) string {
	if i >= len(s) {
		return ""
	}
	end := i + 20
	if end > len(s) {
		end = len(s)
	}
	return s[i:end]
}
