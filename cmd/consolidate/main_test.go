package main

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func TestParseFileName(t *testing.T) {
	tests := []struct {
		name      string
		wantCode  string
		wantMonth string
	}{
		{"boa_2024-03.csv", "boa", "2024-03"},
		{"chase-2023-11-export.csv", "chase", "2023-11"},
		{"amex_statement.csv", "amex", ""},
		{"BOA_2024-03.csv", "boa", "2024-03"},
	}
	for _, tt := range tests {
		code, month := parseFileName(tt.name)
		if code != tt.wantCode {
			t.Errorf("parseFileName(%q) code = %q, want %q", tt.name, code, tt.wantCode)
		}
		if tt.wantMonth == "" {
			if !month.IsZero() {
				t.Errorf("parseFileName(%q) month = %v, want zero", tt.name, month)
			}
			continue
		}
		want, _ := time.Parse("2006-01", tt.wantMonth)
		if !month.Equal(want) {
			t.Errorf("parseFileName(%q) month = %v, want %v", tt.name, month, want)
		}
	}
}

func TestBoaHeaderVariants(t *testing.T) {
	inst := institutions["boa"]
	old, _ := time.Parse("2006-01", "2023-11")
	if h := inst.header(old); h[1] != "Description" {
		t.Errorf("old layout header = %v", h)
	}
	recent, _ := time.Parse("2006-01", "2024-03")
	if h := inst.header(recent); h[0] != "Posted Date" {
		t.Errorf("new layout header = %v", h)
	}
	if h := inst.header(time.Time{}); h[1] != "Description" {
		t.Errorf("undated files should get the old layout, got %v", h)
	}
}

func TestHeaderDiff(t *testing.T) {
	ok, _ := headerDiff([]string{"Date", "Amount"}, []string{"Date", "Amount"})
	if !ok {
		t.Error("identical headers reported as mismatched")
	}
	ok, diff := headerDiff([]string{"Date", "Amount"}, []string{"Date", "Amt"})
	if ok {
		t.Fatal("differing headers reported as matching")
	}
	if diff == "" {
		t.Error("no diff message for mismatch")
	}
}

func TestCleanDescription(t *testing.T) {
	tests := []struct{ in, want string }{
		{"POS DEBIT COFFEE CO", "COFFEE CO"},
		{"CHECKCARD  XXXX1234  MARKET", "MARKET"},
		{"ACME STORE #123456789", "ACME STORE"},
		{"plain description", "plain description"},
	}
	for _, tt := range tests {
		if got := cleanDescription(tt.in); got != tt.want {
			t.Errorf("cleanDescription(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func writeTemp(t *testing.T, dir, name, content string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestProcessFileChase(t *testing.T) {
	dir := t.TempDir()
	writeTemp(t, dir, "chase_2024-01.csv",
		"Transaction Date,Post Date,Description,Category,Type,Amount,Memo\n"+
			"01/02/2024,01/03/2024,COFFEE CO,Food,Sale,-4.50,\n")

	txs, err := processFile(filepath.Join(dir, "chase_2024-01.csv"), "chase_2024-01.csv")
	if err != nil {
		t.Fatalf("processFile error: %v", err)
	}
	if len(txs) != 1 {
		t.Fatalf("got %d transactions, want 1", len(txs))
	}
	tx := txs[0]
	if tx.Account != "chase" || tx.Description != "COFFEE CO" {
		t.Errorf("transaction = %+v", tx)
	}
	if !tx.Amount.Equal(decimal.RequireFromString("-4.50")) {
		t.Errorf("amount = %s, want -4.50", tx.Amount)
	}
	if tx.TransactionDate.Day() != 2 || tx.PostedDate.Day() != 3 {
		t.Errorf("dates = %v, %v", tx.TransactionDate, tx.PostedDate)
	}
}

func TestProcessFileAmexFlipsSign(t *testing.T) {
	dir := t.TempDir()
	writeTemp(t, dir, "amex_2024-02.csv",
		"Date,Description,Amount\n02/10/2024,RESTAURANT,25.00\n")

	txs, err := processFile(filepath.Join(dir, "amex_2024-02.csv"), "amex_2024-02.csv")
	if err != nil {
		t.Fatalf("processFile error: %v", err)
	}
	if !txs[0].Amount.Equal(decimal.RequireFromString("-25.00")) {
		t.Errorf("amount = %s, want -25.00", txs[0].Amount)
	}
}

func TestProcessFileUnknownInstitutionSkipped(t *testing.T) {
	dir := t.TempDir()
	writeTemp(t, dir, "mystery_2024-01.csv", "Date,Description,Amount\n01/02/2024,X,-1\n")

	txs, err := processFile(filepath.Join(dir, "mystery_2024-01.csv"), "mystery_2024-01.csv")
	if err != nil {
		t.Fatalf("processFile error: %v", err)
	}
	if txs != nil {
		t.Errorf("got %d transactions, want none", len(txs))
	}
}

func TestProcessFileHeaderDriftStillExtracts(t *testing.T) {
	dir := t.TempDir()
	// header says Amt instead of Amount
	writeTemp(t, dir, "amex_2024-02.csv",
		"Date,Description,Amt\n02/10/2024,RESTAURANT,25.00\n")

	txs, err := processFile(filepath.Join(dir, "amex_2024-02.csv"), "amex_2024-02.csv")
	if err != nil {
		t.Fatalf("processFile error: %v", err)
	}
	if len(txs) != 1 {
		t.Errorf("got %d transactions, want 1", len(txs))
	}
}

func TestProcessFileNoHeaderFatal(t *testing.T) {
	dir := t.TempDir()
	writeTemp(t, dir, "amex_2024-02.csv", "02/10/2024,RESTAURANT,25.00\n")

	if _, err := processFile(filepath.Join(dir, "amex_2024-02.csv"), "amex_2024-02.csv"); err == nil {
		t.Fatal("expected error for headerless file")
	}
}
