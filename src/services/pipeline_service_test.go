package services

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/patrickmn/go-cache"
	"github.com/shopspring/decimal"

	"github.com/Tombez/bank-transaction-vis-sub000/src/ledger"
	"github.com/Tombez/bank-transaction-vis-sub000/src/logger"
	"github.com/Tombez/bank-transaction-vis-sub000/src/processors"
	"github.com/Tombez/bank-transaction-vis-sub000/src/rules"
	"github.com/Tombez/bank-transaction-vis-sub000/src/workspace"
)

func init() {
	logger.InitLogger("error")
}

const checkingCSV = `Date,Description,Amount
1/2/2024,Coffee Co Downtown,-4.50
1/3/2024,Central Market,-60.00
1/5/2024,ACME PAYROLL,2000.00
`

func newTestService(t *testing.T, set *rules.RuleSet) PipelineService {
	t.Helper()
	bp, err := processors.NewBalanceProcessor(nil, processors.CreditAccountMatcher(`(?i)credit`))
	if err != nil {
		t.Fatalf("NewBalanceProcessor error: %v", err)
	}
	reportCache := cache.New(DefaultCacheExpiration, CacheCleanupInterval)
	return NewPipelineService(nil, set, nil, bp, reportCache)
}

func testRules(t *testing.T) *rules.RuleSet {
	t.Helper()
	set := rules.NewRuleSet()
	for _, r := range []struct {
		kind    rules.MatchKind
		label   string
		pattern string
	}{
		{rules.MatchHas, "Dining/Coffee", "Coffee"},
		{rules.MatchHas, "Dining/Coffee/Shop", "Coffee Co"},
		{rules.MatchHas, "Groceries", "Market"},
		{rules.MatchHas, "Income/Salary", "PAYROLL"},
	} {
		if err := set.Register(r.kind, r.label, r.pattern); err != nil {
			t.Fatal(err)
		}
	}
	return set
}

func TestPipelineEndToEnd(t *testing.T) {
	svc := newTestService(t, testRules(t))
	if _, err := svc.AddTransactionFile("First Bank", "Checking", "jan.csv", checkingCSV); err != nil {
		t.Fatalf("AddTransactionFile error: %v", err)
	}

	report, err := svc.Report()
	if err != nil {
		t.Fatalf("Report error: %v", err)
	}
	if len(report.Ledger) != 3 {
		t.Fatalf("ledger has %d transactions, want 3", len(report.Ledger))
	}
	if report.Ledger[0].Account != "First Bank / Checking" {
		t.Errorf("account key = %q", report.Ledger[0].Account)
	}
	if report.Unclassified != 0 {
		t.Errorf("unclassified = %d, want 0", report.Unclassified)
	}
	// the longer Coffee Co pattern outranks the generic Coffee rule
	if report.Assignments[0].LabelPath != "Dining/Coffee/Shop" {
		t.Errorf("label = %q, want Dining/Coffee/Shop", report.Assignments[0].LabelPath)
	}

	if !report.Categories.Income.Total.Equal(decimal.NewFromInt(2000)) {
		t.Errorf("income total = %s, want 2000", report.Categories.Income.Total)
	}
	if !report.Categories.Spending.Total.Equal(decimal.RequireFromString("64.50")) {
		t.Errorf("spending total = %s, want 64.50", report.Categories.Spending.Total)
	}

	// income exceeds spending, so a savings piece bridges the trees
	foundSavings := false
	for _, layer := range report.Layers {
		for _, piece := range layer {
			if piece.Name == processors.SavingsPiece {
				foundSavings = true
				if !piece.Total.Equal(decimal.RequireFromString("1935.50")) {
					t.Errorf("savings total = %s, want 1935.50", piece.Total)
				}
			}
		}
	}
	if !foundSavings {
		t.Error("savings piece missing from layers")
	}

	series, ok := report.Balances["First Bank / Checking"]
	if !ok {
		t.Fatal("balance series missing")
	}
	// Jan 2 through Jan 5 inclusive, with Jan 4 forward-filled. The raw
	// series dips to -64.50, so the whole series is shifted up by that much.
	if len(series.DailyBalance) != 4 {
		t.Fatalf("series has %d days, want 4", len(series.DailyBalance))
	}
	if !series.Range.Min.IsZero() {
		t.Errorf("min = %s, want 0 after shift", series.Range.Min)
	}
	if !series.DailyBalance[3].Equal(decimal.NewFromInt(2000)) {
		t.Errorf("final balance = %s, want 2000", series.DailyBalance[3])
	}
}

func TestPipelineSkipsUnmappedFiles(t *testing.T) {
	svc := newTestService(t, rules.NewRuleSet())
	if _, err := svc.AddTransactionFile("First Bank", "Checking", "jan.csv", checkingCSV); err != nil {
		t.Fatal(err)
	}
	// headers match no role heuristics, so this file stays unmapped
	if _, err := svc.AddTransactionFile("First Bank", "Checking", "odd.csv", "Foo,Bar\nx,y\n"); err != nil {
		t.Fatal(err)
	}

	report, err := svc.Report()
	if err != nil {
		t.Fatalf("Report error: %v", err)
	}
	if len(report.Ledger) != 3 {
		t.Errorf("ledger has %d transactions, want 3", len(report.Ledger))
	}
	if len(report.SkippedFiles) != 1 || report.SkippedFiles[0] != "odd.csv" {
		t.Errorf("skipped = %v, want [odd.csv]", report.SkippedFiles)
	}
}

func TestPipelineEmptyRuleSet(t *testing.T) {
	svc := newTestService(t, rules.NewRuleSet())
	if _, err := svc.AddTransactionFile("First Bank", "Checking", "jan.csv", checkingCSV); err != nil {
		t.Fatal(err)
	}
	report, err := svc.Report()
	if err != nil {
		t.Fatalf("Report error: %v", err)
	}
	if report.Unclassified != 3 {
		t.Errorf("unclassified = %d, want 3", report.Unclassified)
	}
	root := report.Categories.Spending
	if len(root.Children) != 0 || len(root.OwnTransactions) != 3 {
		t.Errorf("root children = %d own = %d, want 0 and 3", len(root.Children), len(root.OwnTransactions))
	}
}

func TestReplaceRuleSetInvalidatesReport(t *testing.T) {
	svc := newTestService(t, rules.NewRuleSet())
	if _, err := svc.AddTransactionFile("First Bank", "Checking", "jan.csv", checkingCSV); err != nil {
		t.Fatal(err)
	}
	first, err := svc.Report()
	if err != nil {
		t.Fatal(err)
	}
	if first.Unclassified != 3 {
		t.Fatalf("unclassified = %d, want 3", first.Unclassified)
	}

	svc.ReplaceRuleSet(testRules(t))
	second, err := svc.Report()
	if err != nil {
		t.Fatal(err)
	}
	if second.Unclassified != 0 {
		t.Errorf("unclassified after rule load = %d, want 0", second.Unclassified)
	}
}

func TestUpdateFileSettingsRemapsFile(t *testing.T) {
	svc := newTestService(t, rules.NewRuleSet())
	file, err := svc.AddTransactionFile("First Bank", "Checking", "odd.csv", "Foo,Bar,Baz\n1/2/2024,Coffee,-4.50\n")
	if err != nil {
		t.Fatal(err)
	}
	if file.IsFullyFilled() {
		t.Fatal("unmappable headers reported as fully mapped")
	}
	file.ID = "test-id"

	err = svc.UpdateFileSettings("test-id", workspace.FileSettings{
		File:        "odd.csv",
		HasHeader:   true,
		Date:        0,
		Description: 1,
		Debit:       2,
		Credit:      2,
		CdIndicator: ledger.Unmapped,
	})
	if err != nil {
		t.Fatalf("UpdateFileSettings error: %v", err)
	}

	report, err := svc.Report()
	if err != nil {
		t.Fatal(err)
	}
	if len(report.Ledger) != 1 {
		t.Errorf("ledger has %d transactions, want 1", len(report.Ledger))
	}
}

func TestUpdateFileSettingsUnknownID(t *testing.T) {
	svc := newTestService(t, rules.NewRuleSet())
	err := svc.UpdateFileSettings("missing", workspace.FileSettings{})
	if !errors.Is(err, ErrFileNotFound) {
		t.Errorf("err = %v, want ErrFileNotFound", err)
	}
}

func TestAddTransactionFileRejects(t *testing.T) {
	svc := newTestService(t, rules.NewRuleSet())
	if _, err := svc.AddTransactionFile("B", "A", "empty.csv", "   "); !errors.Is(err, ErrEmptyUpload) {
		t.Errorf("empty upload err = %v, want ErrEmptyUpload", err)
	}
	if _, err := svc.AddTransactionFile("B", "A", "bad.csv", "a,\"unterminated\n"); !errors.Is(err, ErrParsingFailed) {
		t.Errorf("bad csv err = %v, want ErrParsingFailed", err)
	}
}

func TestLedgerCSV(t *testing.T) {
	svc := newTestService(t, rules.NewRuleSet())
	if _, err := svc.AddTransactionFile("First Bank", "Checking", "jan.csv", checkingCSV); err != nil {
		t.Fatal(err)
	}
	text, err := svc.LedgerCSV()
	if err != nil {
		t.Fatalf("LedgerCSV error: %v", err)
	}
	if !strings.HasPrefix(text, ledger.LedgerHeader+"\n") {
		t.Errorf("output does not start with ledger header: %q", text)
	}
	back, err := ledger.ReadLedgerCSV(text)
	if err != nil {
		t.Fatalf("ReadLedgerCSV error: %v", err)
	}
	if len(back) != 3 {
		t.Errorf("round trip has %d transactions, want 3", len(back))
	}
}

func TestReconcileAccount(t *testing.T) {
	svc := newTestService(t, rules.NewRuleSet())
	if _, err := svc.AddTransactionFile("First Bank", "Checking", "jan.csv", checkingCSV); err != nil {
		t.Fatal(err)
	}
	known := []processors.KnownBalance{
		{At: mustDate(t, "2024-01-02"), Balance: decimal.RequireFromString("495.50")},
		{At: mustDate(t, "2024-01-05"), Balance: decimal.RequireFromString("2430.50")},
	}
	points, events, err := svc.ReconcileAccount("First Bank / Checking", known)
	if err != nil {
		t.Fatalf("ReconcileAccount error: %v", err)
	}
	if len(events) != 1 {
		t.Fatalf("got %d discrepancies, want 1", len(events))
	}
	// first checkpoint calibrated the series to the bank's starting balance
	if !points[0].Balance.Equal(decimal.RequireFromString("495.50")) {
		t.Errorf("point 0 = %s, want 495.50", points[0].Balance)
	}
}

func mustDate(t *testing.T, s string) time.Time {
	t.Helper()
	out, err := time.Parse("2006-01-02", s)
	if err != nil {
		t.Fatal(err)
	}
	return out
}
