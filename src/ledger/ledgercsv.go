// src/ledger/ledgercsv.go
package ledger

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/Tombez/bank-transaction-vis-sub000/src/csvtable"
	"github.com/Tombez/bank-transaction-vis-sub000/src/models"
)

// LedgerHeader is the exact header of the simplified ledger CSV, the contract
// between normalization and classification.
const LedgerHeader = "Account,Transaction Date,Posted Date,Description,Amount"

const ledgerDateFormat = "01/02/2006"

var ledgerColumns = strings.Split(LedgerHeader, ",")

// WriteLedgerCSV serializes canonical transactions in the simplified ledger
// shape, with minimal quoting.
func WriteLedgerCSV(txs []models.Transaction) string {
	t := &csvtable.Table{}
	for _, name := range ledgerColumns {
		t.Headings = append(t.Headings, csvtable.Heading{Text: name})
	}
	for _, tx := range txs {
		t.Rows = append(t.Rows, []string{
			tx.Account,
			tx.TransactionDate.Format(ledgerDateFormat),
			tx.PostedDate.Format(ledgerDateFormat),
			tx.Description,
			tx.Amount.String(),
		})
	}
	return t.String()
}

// ReadLedgerCSV parses a simplified ledger CSV back into canonical
// transactions. The header must match LedgerHeader exactly.
func ReadLedgerCSV(text string) ([]models.Transaction, error) {
	rows, err := csvtable.Parse(text)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 || strings.Join(rows[0], ",") != LedgerHeader {
		return nil, fmt.Errorf("ledger csv: missing or wrong header")
	}
	var txs []models.Transaction
	for i, row := range rows[1:] {
		if len(row) != len(ledgerColumns) {
			continue
		}
		txDate, err := ParseDate(row[1])
		if err != nil {
			return nil, fmt.Errorf("ledger csv row %d: %w", i+1, err)
		}
		postedDate, err := ParseDate(row[2])
		if err != nil {
			return nil, fmt.Errorf("ledger csv row %d: %w", i+1, err)
		}
		amount, err := decimal.NewFromString(row[4])
		if err != nil {
			return nil, fmt.Errorf("ledger csv row %d: bad amount %q: %w", i+1, row[4], err)
		}
		txs = append(txs, models.Transaction{
			Account:         row[0],
			TransactionDate: txDate,
			PostedDate:      postedDate,
			Description:     row[3],
			Amount:          amount,
			SourceRow:       i,
			SourceFile:      "ledger.csv",
		})
	}
	return txs, nil
}
