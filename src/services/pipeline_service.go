// src/services/pipeline_service.go
package services

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/patrickmn/go-cache"

	"github.com/Tombez/bank-transaction-vis-sub000/src/csvtable"
	"github.com/Tombez/bank-transaction-vis-sub000/src/ledger"
	"github.com/Tombez/bank-transaction-vis-sub000/src/logger"
	"github.com/Tombez/bank-transaction-vis-sub000/src/models"
	"github.com/Tombez/bank-transaction-vis-sub000/src/processors"
	"github.com/Tombez/bank-transaction-vis-sub000/src/rules"
	"github.com/Tombez/bank-transaction-vis-sub000/src/workspace"
)

const (
	ckReport               = "pipeline_report"
	DefaultCacheExpiration = 15 * time.Minute
	CacheCleanupInterval   = 30 * time.Minute
)

type pipelineServiceImpl struct {
	mu sync.Mutex

	ws      *workspace.Workspace
	ruleSet *rules.RuleSet
	store   workspace.Store // may be nil

	balanceProcessor        *processors.BalanceProcessor
	classificationProcessor *processors.ClassificationProcessor
	categoryProcessor       *processors.CategoryProcessor
	flowProcessor           *processors.FlowProcessor

	reportCache *cache.Cache
}

// NewPipelineService wires the processors around a workspace. store may be
// nil, in which case nothing is persisted (used by tests).
func NewPipelineService(
	ws *workspace.Workspace,
	ruleSet *rules.RuleSet,
	store workspace.Store,
	balanceProcessor *processors.BalanceProcessor,
	reportCache *cache.Cache,
) PipelineService {
	if ws == nil {
		ws = &workspace.Workspace{}
	}
	if ruleSet == nil {
		ruleSet = rules.NewRuleSet()
	}
	return &pipelineServiceImpl{
		ws:                      ws,
		ruleSet:                 ruleSet,
		store:                   store,
		balanceProcessor:        balanceProcessor,
		classificationProcessor: processors.NewClassificationProcessor(),
		categoryProcessor:       processors.NewCategoryProcessor(),
		flowProcessor:           processors.NewFlowProcessor(),
		reportCache:             reportCache,
	}
}

func (s *pipelineServiceImpl) Workspace() *workspace.Workspace {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ws
}

func (s *pipelineServiceImpl) ReplaceWorkspace(w *workspace.Workspace) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ws = w
	return s.persistAndInvalidate()
}

// AddTransactionFile ingests a raw CSV export under a bank and account. The
// header is auto-detected and the column heuristics produce the initial role
// mapping; the user can override either afterwards via UpdateFileSettings.
func (s *pipelineServiceImpl) AddTransactionFile(bank, account, filename, csvText string) (*workspace.TransactionFile, error) {
	if strings.TrimSpace(csvText) == "" {
		return nil, ErrEmptyUpload
	}
	rows, err := csvtable.Parse(csvText)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrParsingFailed, err)
	}
	hasHeader := csvtable.DetectHeader(rows)
	table := csvtable.New(rows, hasHeader, 0)
	mapping := ledger.MapColumns(table)

	file := &workspace.TransactionFile{
		Settings: workspace.SettingsFromMapping(filename, hasHeader, mapping),
		CSV:      csvText,
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	acct := s.ws.Bank(bank).Account(account)
	acct.TransactionFiles = append(acct.TransactionFiles, file)
	if err := s.persistAndInvalidate(); err != nil {
		return nil, err
	}
	logger.L.Info("Transaction file ingested",
		"bank", bank, "account", account, "file", filename,
		"hasHeader", hasHeader, "fullyMapped", file.IsFullyFilled())
	return file, nil
}

// UpdateFileSettings replaces a file's settings with a user-supplied mapping.
// Heuristics never run here: an explicit mapping is final.
func (s *pipelineServiceImpl) UpdateFileSettings(fileID string, settings workspace.FileSettings) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	file := s.ws.FindFile(fileID)
	if file == nil {
		return ErrFileNotFound
	}
	if settings.File == "" {
		settings.File = file.Settings.File
	}
	file.Settings = settings
	return s.persistAndInvalidate()
}

func (s *pipelineServiceImpl) ReplaceRuleSet(set *rules.RuleSet) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if set == nil {
		set = rules.NewRuleSet()
	}
	s.ruleSet = set
	s.reportCache.Delete(ckReport)
}

// persistAndInvalidate saves the workspace (when a store is wired) and drops
// the cached report. Callers hold the mutex.
func (s *pipelineServiceImpl) persistAndInvalidate() error {
	s.reportCache.Delete(ckReport)
	if s.store == nil {
		return nil
	}
	if err := s.store.Save(s.ws); err != nil {
		return fmt.Errorf("persisting workspace: %w", err)
	}
	return nil
}

// Report runs the full pipeline: compile the ledger from every fully mapped
// file, classify it, aggregate category trees, lay out flow layers, and
// reconstruct per-account balance series. The result is cached until the
// next workspace or rule-set change.
func (s *pipelineServiceImpl) Report() (*Report, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if cached, found := s.reportCache.Get(ckReport); found {
		return cached.(*Report), nil
	}

	report := &Report{Balances: make(map[string]*models.AccountBalanceSeries)}
	txs, skipped, err := s.compileLedger()
	if err != nil {
		return nil, err
	}
	report.Ledger = txs
	report.SkippedFiles = skipped

	report.Assignments, _ = s.classificationProcessor.Classify(txs, s.ruleSet)
	for _, a := range report.Assignments {
		if a.LabelPath == "" {
			report.Unclassified++
		}
	}
	report.Categories = s.categoryProcessor.Aggregate(txs, report.Assignments)
	report.Layers = s.flowProcessor.BuildLayers(report.Categories.Income, report.Categories.Spending)

	for accountKey, accountTxs := range groupByAccount(txs) {
		report.Balances[accountKey] = s.balanceProcessor.DailySeries(accountKey, accountTxs)
	}

	s.reportCache.Set(ckReport, report, cache.DefaultExpiration)
	logger.L.Info("Pipeline recomputed",
		"transactions", len(txs), "unclassified", report.Unclassified,
		"accounts", len(report.Balances), "skippedFiles", len(skipped))
	return report, nil
}

// compileLedger normalizes every fully mapped file in workspace order.
// Files with an incomplete mapping are skipped silently (they rejoin the
// ledger once the user supplies a mapping); malformed CSV or unparseable
// dates abort the pass.
func (s *pipelineServiceImpl) compileLedger() ([]models.Transaction, []string, error) {
	var txs []models.Transaction
	var skipped []string
	for _, bank := range s.ws.Banks {
		for _, account := range bank.Accounts {
			accountKey := accountKey(bank.Settings.Bank, account.Settings.Account)
			for _, file := range account.TransactionFiles {
				if !file.IsFullyFilled() {
					skipped = append(skipped, file.Settings.File)
					logger.L.Debug("File excluded from ledger: mapping incomplete", "file", file.Settings.File)
					continue
				}
				table, err := file.Table()
				if err != nil {
					return nil, nil, fmt.Errorf("%w: %v", ErrParsingFailed, err)
				}
				fileTxs, err := ledger.Normalize(table, file.RoleMapping(), accountKey, file.Settings.File)
				if err != nil {
					return nil, nil, err
				}
				txs = append(txs, fileTxs...)
			}
		}
	}
	return txs, skipped, nil
}

func (s *pipelineServiceImpl) LedgerCSV() (string, error) {
	report, err := s.Report()
	if err != nil {
		return "", err
	}
	return ledger.WriteLedgerCSV(report.Ledger), nil
}

// ReconcileAccount checks one account's ledger against externally supplied
// known balances, returning the calibrated plot points plus any detected
// discrepancies after the first checkpoint.
func (s *pipelineServiceImpl) ReconcileAccount(key string, known []processors.KnownBalance) ([]models.BalancePoint, []models.Discrepancy, error) {
	report, err := s.Report()
	if err != nil {
		return nil, nil, err
	}
	accountTxs := groupByAccount(report.Ledger)[key]
	points, events := s.balanceProcessor.Reconcile(accountTxs, known)
	for _, e := range events {
		logger.L.Warn("Balance discrepancy detected",
			"account", key, "at", e.At.Format("2006-01-02"),
			"expected", e.Expected.String(), "actual", e.Actual.String(), "diff", e.Diff.String())
	}
	return points, events, nil
}

func accountKey(bank, account string) string {
	return bank + " / " + account
}

func groupByAccount(txs []models.Transaction) map[string][]models.Transaction {
	grouped := make(map[string][]models.Transaction)
	for _, tx := range txs {
		grouped[tx.Account] = append(grouped[tx.Account], tx)
	}
	return grouped
}
