// src/services/interfaces.go
package services

import (
	"errors"

	"github.com/Tombez/bank-transaction-vis-sub000/src/models"
	"github.com/Tombez/bank-transaction-vis-sub000/src/processors"
	"github.com/Tombez/bank-transaction-vis-sub000/src/rules"
	"github.com/Tombez/bank-transaction-vis-sub000/src/workspace"
)

// Define common service errors
var (
	ErrParsingFailed = errors.New("csv parsing failed")
	ErrFileNotFound  = errors.New("transaction file not found")
	ErrEmptyUpload   = errors.New("uploaded file is empty")
)

// Report is the product of one full pipeline pass over the workspace.
// Everything in it is rebuilt from scratch on every recompute.
type Report struct {
	Ledger       []models.Transaction                    `json:"ledger"`
	Assignments  []processors.Assignment                 `json:"assignments"`
	Unclassified int                                     `json:"unclassified"`
	Categories   processors.CategoryResult               `json:"categories"`
	Layers       [][]*models.FlowPiece                   `json:"-"`
	Balances     map[string]*models.AccountBalanceSeries `json:"balances"`
	SkippedFiles []string                                `json:"skipped_files"`
}

// PipelineService owns the workspace and recomputes the full report on any
// relevant change. There is no incremental recomputation; mutation methods
// drop the cached report and the next Report call runs the whole pipeline.
type PipelineService interface {
	Workspace() *workspace.Workspace
	ReplaceWorkspace(w *workspace.Workspace) error
	AddTransactionFile(bank, account, filename, csvText string) (*workspace.TransactionFile, error)
	UpdateFileSettings(fileID string, settings workspace.FileSettings) error
	ReplaceRuleSet(set *rules.RuleSet)

	Report() (*Report, error)
	LedgerCSV() (string, error)
	ReconcileAccount(accountKey string, known []processors.KnownBalance) ([]models.BalancePoint, []models.Discrepancy, error)
}
