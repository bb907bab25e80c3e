// src/workspace/store.go
package workspace

import (
	"database/sql"
	"fmt"

	"github.com/google/uuid"
)

// Store persists workspaces. The sqlite implementation lives below; services
// accept the interface so tests can run with no database at all.
type Store interface {
	Save(w *Workspace) error
	Load() (*Workspace, error)
}

// SQLStore keeps the workspace in the application's sqlite database.
// A save replaces the whole workspace in one transaction; the pipeline is a
// full-recompute design, so there is no incremental update path to preserve.
type SQLStore struct {
	db *sql.DB
}

func NewSQLStore(db *sql.DB) *SQLStore {
	return &SQLStore{db: db}
}

func (s *SQLStore) Save(w *Workspace) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("workspace store: begin: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`DELETE FROM banks`); err != nil {
		return fmt.Errorf("workspace store: clearing: %w", err)
	}
	for bi, bank := range w.Banks {
		res, err := tx.Exec(`INSERT INTO banks (name, position) VALUES (?, ?)`, bank.Settings.Bank, bi)
		if err != nil {
			return fmt.Errorf("workspace store: bank %q: %w", bank.Settings.Bank, err)
		}
		bankID, err := res.LastInsertId()
		if err != nil {
			return err
		}
		for ai, account := range bank.Accounts {
			res, err := tx.Exec(`INSERT INTO accounts (bank_id, name, position) VALUES (?, ?, ?)`,
				bankID, account.Settings.Account, ai)
			if err != nil {
				return fmt.Errorf("workspace store: account %q: %w", account.Settings.Account, err)
			}
			accountID, err := res.LastInsertId()
			if err != nil {
				return err
			}
			for fi, file := range account.TransactionFiles {
				if file.ID == "" {
					file.ID = uuid.NewString()
				}
				st := file.Settings
				_, err := tx.Exec(`
					INSERT INTO transaction_files
						(id, account_id, name, has_header, date_col, description_col,
						 debit_col, credit_col, has_cd_indicator, cd_indicator_col, csv_text, position)
					VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
					file.ID, accountID, st.File, st.HasHeader, st.Date, st.Description,
					st.Debit, st.Credit, st.HasCdIndicator, st.CdIndicator, file.CSV, fi)
				if err != nil {
					return fmt.Errorf("workspace store: file %q: %w", st.File, err)
				}
			}
		}
	}
	return tx.Commit()
}

func (s *SQLStore) Load() (*Workspace, error) {
	w := &Workspace{}
	bankRows, err := s.db.Query(`SELECT id, name FROM banks ORDER BY position`)
	if err != nil {
		return nil, fmt.Errorf("workspace store: banks: %w", err)
	}
	defer bankRows.Close()

	type bankRec struct {
		id   int64
		bank *Bank
	}
	var banks []bankRec
	for bankRows.Next() {
		var id int64
		var name string
		if err := bankRows.Scan(&id, &name); err != nil {
			return nil, err
		}
		b := &Bank{Settings: BankSettings{Bank: name}}
		w.Banks = append(w.Banks, b)
		banks = append(banks, bankRec{id, b})
	}
	if err := bankRows.Err(); err != nil {
		return nil, err
	}

	for _, br := range banks {
		accountRows, err := s.db.Query(`SELECT id, name FROM accounts WHERE bank_id = ? ORDER BY position`, br.id)
		if err != nil {
			return nil, fmt.Errorf("workspace store: accounts: %w", err)
		}
		type acctRec struct {
			id      int64
			account *Account
		}
		var accounts []acctRec
		for accountRows.Next() {
			var id int64
			var name string
			if err := accountRows.Scan(&id, &name); err != nil {
				accountRows.Close()
				return nil, err
			}
			a := &Account{Settings: AccountSettings{Account: name}}
			br.bank.Accounts = append(br.bank.Accounts, a)
			accounts = append(accounts, acctRec{id, a})
		}
		accountRows.Close()

		for _, ar := range accounts {
			fileRows, err := s.db.Query(`
				SELECT id, name, has_header, date_col, description_col, debit_col,
				       credit_col, has_cd_indicator, cd_indicator_col, csv_text
				FROM transaction_files WHERE account_id = ? ORDER BY position`, ar.id)
			if err != nil {
				return nil, fmt.Errorf("workspace store: files: %w", err)
			}
			for fileRows.Next() {
				f := &TransactionFile{}
				st := &f.Settings
				if err := fileRows.Scan(&f.ID, &st.File, &st.HasHeader, &st.Date, &st.Description,
					&st.Debit, &st.Credit, &st.HasCdIndicator, &st.CdIndicator, &f.CSV); err != nil {
					fileRows.Close()
					return nil, err
				}
				ar.account.TransactionFiles = append(ar.account.TransactionFiles, f)
			}
			fileRows.Close()
		}
	}
	return w, nil
}
