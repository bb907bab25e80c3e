// src/ledger/normalize.go
package ledger

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/Tombez/bank-transaction-vis-sub000/src/csvtable"
	"github.com/Tombez/bank-transaction-vis-sub000/src/models"
)

var (
	sanitizeRe  = regexp.MustCompile(`[^0-9.\-]`)
	debitWordRe = regexp.MustCompile(`(?i)debit`)
	dateSepRe   = regexp.MustCompile(`^(\d{1,4})([-/.])(\d{1,2})([-/.])(\d{1,4})$`)
	dateTextRe  = regexp.MustCompile(`^([A-Za-z]{3,9})\.? ?(\d{1,2}),? (\d{4})$`)
)

var monthsByPrefix = map[string]time.Month{
	"jan": time.January, "feb": time.February, "mar": time.March,
	"apr": time.April, "may": time.May, "jun": time.June,
	"jul": time.July, "aug": time.August, "sep": time.September,
	"oct": time.October, "nov": time.November, "dec": time.December,
}

// Sanitize strips everything from an amount cell except digits, '-' and '.'.
func Sanitize(s string) string {
	return sanitizeRe.ReplaceAllString(s, "")
}

// ParseDate recognizes the date formats seen in bank exports: the MM/DD/YYYY
// family with '-', '/' or '.' separators, the year-leading YYYY-MM-DD form,
// and the textual "Mon DD YYYY" form. Anything else is an error.
func ParseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if m := dateSepRe.FindStringSubmatch(s); m != nil && m[2] == m[4] {
		var year, month, day int
		if len(m[1]) == 4 {
			year, month, day = atoi(m[1]), atoi(m[3]), atoi(m[5])
		} else {
			month, day, year = atoi(m[1]), atoi(m[3]), atoi(m[5])
			if year < 100 {
				year += 2000
			}
		}
		return makeDate(s, year, month, day)
	}
	if m := dateTextRe.FindStringSubmatch(s); m != nil {
		prefix := strings.ToLower(m[1])
		if len(prefix) > 3 {
			prefix = prefix[:3]
		}
		if month, ok := monthsByPrefix[prefix]; ok {
			return makeDate(s, atoi(m[3]), int(month), atoi(m[2]))
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized date format %q", s)
}

func atoi(s string) int {
	n := 0
	for _, c := range s {
		n = n*10 + int(c-'0')
	}
	return n
}

func makeDate(raw string, year, month, day int) (time.Time, error) {
	if month < 1 || month > 12 || day < 1 || day > 31 {
		return time.Time{}, fmt.Errorf("unrecognized date format %q", raw)
	}
	d := time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
	if d.Day() != day || d.Month() != time.Month(month) {
		return time.Time{}, fmt.Errorf("impossible calendar date %q", raw)
	}
	return d, nil
}

// Normalize converts the rows of a fully mapped table into canonical ledger
// transactions for the given account.
//
// The amount sign is resolved in one of two ways. When the credit/debit
// indicator role is enabled, the indicator cell decides the sign of the
// amount column. Otherwise, with distinct debit and credit columns, a
// non-empty sanitized debit value makes the amount negative and the credit
// value is used as-is; a shared column is taken as a single signed amount.
// Rows whose amount sanitizes to nothing are skipped. An unrecognized date
// is fatal and aborts the whole file.
func Normalize(t *csvtable.Table, m RoleMapping, account, sourceFile string) ([]models.Transaction, error) {
	if !m.FullyMapped() {
		return nil, fmt.Errorf("file %s: column mapping incomplete", sourceFile)
	}
	var txs []models.Transaction
	for i, row := range t.Rows {
		amount, ok, err := rowAmount(row, m)
		if err != nil {
			return nil, fmt.Errorf("file %s row %d: %w", sourceFile, i, err)
		}
		if !ok {
			continue
		}
		date, err := ParseDate(row[m.Date])
		if err != nil {
			return nil, fmt.Errorf("file %s row %d: %w", sourceFile, i, err)
		}
		txs = append(txs, models.Transaction{
			Account:         account,
			TransactionDate: date,
			PostedDate:      date,
			Description:     strings.TrimSpace(row[m.Description]),
			Amount:          amount,
			SourceRow:       i,
			SourceFile:      sourceFile,
		})
	}
	return txs, nil
}

func rowAmount(row []string, m RoleMapping) (decimal.Decimal, bool, error) {
	if m.HasCdIndicator && m.CdIndicator != Unmapped && m.CdIndicator < len(row) {
		v := Sanitize(row[m.Debit])
		if v == "" {
			return decimal.Zero, false, nil
		}
		d, err := decimal.NewFromString(v)
		if err != nil {
			return decimal.Zero, false, fmt.Errorf("bad amount %q: %w", row[m.Debit], err)
		}
		if debitWordRe.MatchString(row[m.CdIndicator]) {
			return d.Abs().Neg(), true, nil
		}
		return d.Abs(), true, nil
	}

	if m.Debit != m.Credit {
		if v := Sanitize(row[m.Debit]); v != "" {
			d, err := decimal.NewFromString(v)
			if err != nil {
				return decimal.Zero, false, fmt.Errorf("bad debit %q: %w", row[m.Debit], err)
			}
			return d.Abs().Neg(), true, nil
		}
	}
	v := Sanitize(row[m.Credit])
	if v == "" {
		return decimal.Zero, false, nil
	}
	d, err := decimal.NewFromString(v)
	if err != nil {
		return decimal.Zero, false, fmt.Errorf("bad credit %q: %w", row[m.Credit], err)
	}
	return d, true, nil
}
