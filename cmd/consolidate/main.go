// cmd/consolidate/main.go
//
// Consolidates per-institution bank CSV exports from a directory into one
// ledger-shaped CSV. Each input file's name encodes the institution code and
// optionally the statement month, which selects among header layout variants.
package main

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/alecthomas/kong"

	"github.com/Tombez/bank-transaction-vis-sub000/src/csvtable"
	"github.com/Tombez/bank-transaction-vis-sub000/src/ledger"
	"github.com/Tombez/bank-transaction-vis-sub000/src/models"
)

var cli struct {
	Dir    string `arg:"" help:"Directory containing institution .csv exports." type:"existingdir"`
	Output string `short:"o" default:"consolidated.csv" help:"Consolidated output CSV path."`
}

func main() {
	kong.Parse(&cli,
		kong.Name("consolidate"),
		kong.Description("Merge institution CSV exports into one ledger CSV."))

	entries, err := os.ReadDir(cli.Dir)
	if err != nil {
		slog.Error("failed to read input directory", "dir", cli.Dir, "error", err)
		os.Exit(1)
	}

	var names []string
	for _, e := range entries {
		if !e.IsDir() && strings.EqualFold(filepath.Ext(e.Name()), ".csv") {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)

	var all []models.Transaction
	for _, name := range names {
		txs, err := processFile(filepath.Join(cli.Dir, name), name)
		if err != nil {
			slog.Error("failed to process file", "file", name, "error", err)
			os.Exit(1)
		}
		all = append(all, txs...)
	}

	out := ledger.WriteLedgerCSV(all)
	if err := os.WriteFile(cli.Output, []byte(out), 0o644); err != nil {
		slog.Error("failed to write output", "path", cli.Output, "error", err)
		os.Exit(1)
	}
	slog.Info("consolidated", "files", len(names), "transactions", len(all), "output", cli.Output)
}

// processFile parses one institution export. Unknown institutions are skipped
// with a warning; header drift is warned but extraction still runs; a file
// with no header row at all is an error.
func processFile(path, name string) ([]models.Transaction, error) {
	code, month := parseFileName(name)
	inst, known := institutions[code]
	if !known {
		slog.Warn("unknown institution, skipping file", "file", name, "code", code)
		return nil, nil
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	rows, err := csvtable.Parse(string(raw))
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}
	if !csvtable.DetectHeader(rows) {
		return nil, fmt.Errorf("no header row detected")
	}

	expected := inst.header(month)
	if ok, diff := headerDiff(expected, rows[0]); !ok {
		slog.Warn("header drift", "file", name, "institution", code, "diff", diff)
	}

	var txs []models.Transaction
	for i, row := range rows[1:] {
		if len(row) == 1 && row[0] == "" {
			continue
		}
		tx, err := inst.extract(row, name)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i+2, err)
		}
		tx.SourceRow = i + 1
		txs = append(txs, tx)
	}
	return txs, nil
}
