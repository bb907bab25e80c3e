// src/workspace/workspace.go
package workspace

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/Tombez/bank-transaction-vis-sub000/src/csvtable"
	"github.com/Tombez/bank-transaction-vis-sub000/src/ledger"
)

// FileSettings is the persisted per-file state: the file name, whether the
// first row is a header, and the user-visible column role mapping. Column
// indices use -1 for "not mapped"; 0 is a real column.
type FileSettings struct {
	File           string `json:"file"`
	HasHeader      bool   `json:"hasHeader"`
	Date           int    `json:"date"`
	Description    int    `json:"description"`
	Debit          int    `json:"debit"`
	Credit         int    `json:"credit"`
	HasCdIndicator bool   `json:"hasCdIndicator"`
	CdIndicator    int    `json:"cdIndicator"`
}

// TransactionFile is one ingested CSV export plus its settings. ID is
// assigned by the store and omitted from the workspace wire format.
type TransactionFile struct {
	ID       string       `json:"-"`
	Settings FileSettings `json:"settings"`
	CSV      string       `json:"csv"`
}

// IsFullyFilled reports whether every required role is mapped. It is derived
// from the settings alone, so decoding a workspace re-establishes it without
// re-running any heuristics that could overwrite explicit user mappings.
func (f *TransactionFile) IsFullyFilled() bool {
	s := f.Settings
	return s.Date != ledger.Unmapped && s.Description != ledger.Unmapped &&
		s.Debit != ledger.Unmapped && s.Credit != ledger.Unmapped
}

// RoleMapping converts the persisted settings into the normalizer's mapping.
func (f *TransactionFile) RoleMapping() ledger.RoleMapping {
	s := f.Settings
	return ledger.RoleMapping{
		Date:           s.Date,
		Description:    s.Description,
		Debit:          s.Debit,
		Credit:         s.Credit,
		HasCdIndicator: s.HasCdIndicator,
		CdIndicator:    s.CdIndicator,
	}
}

// SettingsFromMapping builds file settings from a heuristic mapping result.
func SettingsFromMapping(name string, hasHeader bool, m ledger.RoleMapping) FileSettings {
	return FileSettings{
		File:           name,
		HasHeader:      hasHeader,
		Date:           m.Date,
		Description:    m.Description,
		Debit:          m.Debit,
		Credit:         m.Credit,
		HasCdIndicator: m.HasCdIndicator,
		CdIndicator:    m.CdIndicator,
	}
}

// Table parses the raw CSV text into a typed table honoring HasHeader.
func (f *TransactionFile) Table() (*csvtable.Table, error) {
	rows, err := csvtable.Parse(f.CSV)
	if err != nil {
		return nil, fmt.Errorf("file %s: %w", f.Settings.File, err)
	}
	return csvtable.New(rows, f.Settings.HasHeader, 0), nil
}

type AccountSettings struct {
	Account string `json:"account"`
}

// Account groups the transaction files of one account at one bank.
type Account struct {
	Settings         AccountSettings    `json:"settings"`
	TransactionFiles []*TransactionFile `json:"transactionFiles"`
}

type BankSettings struct {
	Bank string `json:"bank"`
}

// Bank groups accounts under one institution.
type Bank struct {
	Settings BankSettings `json:"settings"`
	Accounts []*Account   `json:"accounts"`
}

// Workspace is the whole serializable state: an ordered sequence of banks.
type Workspace struct {
	Banks []*Bank
}

// Encode writes the workspace wire format: a JSON array of bank records.
func (w *Workspace) Encode(out io.Writer) error {
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(w.Banks)
}

// Decode reads the workspace wire format. Settings come back verbatim;
// nothing heuristic runs during decoding.
func Decode(in io.Reader) (*Workspace, error) {
	var banks []*Bank
	if err := json.NewDecoder(in).Decode(&banks); err != nil {
		return nil, fmt.Errorf("workspace: decoding: %w", err)
	}
	return &Workspace{Banks: banks}, nil
}

// Bank returns the named bank, creating it at the end when absent.
func (w *Workspace) Bank(name string) *Bank {
	for _, b := range w.Banks {
		if b.Settings.Bank == name {
			return b
		}
	}
	b := &Bank{Settings: BankSettings{Bank: name}}
	w.Banks = append(w.Banks, b)
	return b
}

// Account returns the named account under a bank, creating it when absent.
func (b *Bank) Account(name string) *Account {
	for _, a := range b.Accounts {
		if a.Settings.Account == name {
			return a
		}
	}
	a := &Account{Settings: AccountSettings{Account: name}}
	b.Accounts = append(b.Accounts, a)
	return a
}

// FindFile locates a transaction file by store ID.
func (w *Workspace) FindFile(id string) *TransactionFile {
	for _, b := range w.Banks {
		for _, a := range b.Accounts {
			for _, f := range a.TransactionFiles {
				if f.ID == id {
					return f
				}
			}
		}
	}
	return nil
}
