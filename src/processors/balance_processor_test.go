package processors

import (
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/Tombez/bank-transaction-vis-sub000/src/models"
)

func day(d int) time.Time {
	return time.Date(2024, time.March, d, 0, 0, 0, 0, time.UTC)
}

func datedTx(d int, desc, amount string) models.Transaction {
	return models.Transaction{
		PostedDate:  day(d),
		Description: desc,
		Amount:      decimal.RequireFromString(amount),
	}
}

func mustProcessor(t *testing.T, noise []string, isCredit func(string) bool) *BalanceProcessor {
	t.Helper()
	p, err := NewBalanceProcessor(noise, isCredit)
	if err != nil {
		t.Fatalf("NewBalanceProcessor error: %v", err)
	}
	return p
}

func TestDailySeriesForwardFill(t *testing.T) {
	p := mustProcessor(t, nil, nil)
	txs := []models.Transaction{
		datedTx(1, "Deposit", "100"),
		datedTx(3, "Coffee", "-30"),
	}
	series := p.DailySeries("Bank / Checking", txs)
	want := []string{"100", "100", "70"}
	if len(series.DailyBalance) != len(want) {
		t.Fatalf("got %d days, want %d", len(series.DailyBalance), len(want))
	}
	for i, w := range want {
		if !series.DailyBalance[i].Equal(decimal.RequireFromString(w)) {
			t.Errorf("day %d balance = %s, want %s", i, series.DailyBalance[i], w)
		}
	}
	if !series.Start.Equal(day(1)) {
		t.Errorf("start = %v, want %v", series.Start, day(1))
	}
	if !series.Range.Min.Equal(decimal.NewFromInt(70)) || !series.Range.Max.Equal(decimal.NewFromInt(100)) {
		t.Errorf("range = %s..%s, want 70..100", series.Range.Min, series.Range.Max)
	}
}

func TestDailySeriesNoiseExcluded(t *testing.T) {
	p := mustProcessor(t, []string{`(?i)internal transfer`}, nil)
	txs := []models.Transaction{
		datedTx(1, "Deposit", "100"),
		datedTx(1, "INTERNAL TRANSFER TO SAVINGS", "-100"),
	}
	series := p.DailySeries("Bank / Checking", txs)
	if len(series.DailyBalance) != 1 {
		t.Fatalf("got %d days, want 1", len(series.DailyBalance))
	}
	if !series.DailyBalance[0].Equal(decimal.NewFromInt(100)) {
		t.Errorf("balance = %s, want 100", series.DailyBalance[0])
	}
}

func TestDailySeriesNegativeShift(t *testing.T) {
	txs := []models.Transaction{
		datedTx(1, "Groceries", "-40"),
		datedTx(2, "Deposit", "100"),
	}

	t.Run("checking account shifted up", func(t *testing.T) {
		p := mustProcessor(t, nil, CreditAccountMatcher(`(?i)credit`))
		series := p.DailySeries("Bank / Checking", txs)
		// raw series [-40, 60] shifted by 40
		if !series.DailyBalance[0].Equal(decimal.Zero) {
			t.Errorf("day 0 = %s, want 0", series.DailyBalance[0])
		}
		if !series.DailyBalance[1].Equal(decimal.NewFromInt(100)) {
			t.Errorf("day 1 = %s, want 100", series.DailyBalance[1])
		}
		if !series.Range.Min.IsZero() {
			t.Errorf("min = %s, want 0", series.Range.Min)
		}
	})

	t.Run("credit account left negative", func(t *testing.T) {
		p := mustProcessor(t, nil, CreditAccountMatcher(`(?i)credit`))
		series := p.DailySeries("Bank / Credit Card", txs)
		if !series.DailyBalance[0].Equal(decimal.NewFromInt(-40)) {
			t.Errorf("day 0 = %s, want -40", series.DailyBalance[0])
		}
		if !series.Range.Min.Equal(decimal.NewFromInt(-40)) {
			t.Errorf("min = %s, want -40", series.Range.Min)
		}
	})
}

func TestDailySeriesEmpty(t *testing.T) {
	p := mustProcessor(t, nil, nil)
	series := p.DailySeries("Bank / Checking", nil)
	if len(series.DailyBalance) != 0 || len(series.DailyDelta) != 0 {
		t.Errorf("series not empty: %+v", series)
	}
}

func TestNewBalanceProcessorBadPattern(t *testing.T) {
	if _, err := NewBalanceProcessor([]string{"("}, nil); err == nil {
		t.Fatal("expected error for invalid pattern")
	}
}

func TestCreditAccountMatcher(t *testing.T) {
	m := CreditAccountMatcher(`(?i)credit`)
	if !m("Bank / Credit Card") {
		t.Error("credit account not matched")
	}
	if m("Bank / Checking") {
		t.Error("checking account matched")
	}
	if CreditAccountMatcher("") != nil {
		t.Error("empty pattern should yield nil matcher")
	}
	if CreditAccountMatcher("(") != nil {
		t.Error("invalid pattern should yield nil matcher")
	}
}

func TestReconcileFirstCheckpointCalibrates(t *testing.T) {
	p := mustProcessor(t, nil, nil)
	txs := []models.Transaction{
		datedTx(1, "Coffee", "-10"),
		datedTx(2, "Groceries", "-20"),
	}
	// real starting balance was 500, so running (-10) is off by -510
	known := []KnownBalance{{At: day(1), Balance: decimal.NewFromInt(490)}}

	points, events := p.Reconcile(txs, known)
	if len(events) != 0 {
		t.Fatalf("got %d discrepancies, want 0", len(events))
	}
	if len(points) != 2 {
		t.Fatalf("got %d points, want 2", len(points))
	}
	if !points[0].Balance.Equal(decimal.NewFromInt(490)) {
		t.Errorf("point 0 = %s, want 490", points[0].Balance)
	}
	if !points[1].Balance.Equal(decimal.NewFromInt(470)) {
		t.Errorf("point 1 = %s, want 470", points[1].Balance)
	}
}

func TestReconcileLaterDiffReported(t *testing.T) {
	p := mustProcessor(t, nil, nil)
	txs := []models.Transaction{
		datedTx(1, "Coffee", "-10"),
		datedTx(2, "Groceries", "-20"),
		datedTx(3, "Gas", "-30"),
	}
	known := []KnownBalance{
		{At: day(1), Balance: decimal.NewFromInt(-10)},
		// ledger says -60 by day 3; the bank says -65
		{At: day(3), Balance: decimal.NewFromInt(-65)},
	}

	points, events := p.Reconcile(txs, known)
	if len(events) != 1 {
		t.Fatalf("got %d discrepancies, want 1", len(events))
	}
	ev := events[0]
	if !ev.At.Equal(day(3)) {
		t.Errorf("discrepancy at %v, want %v", ev.At, day(3))
	}
	if !ev.Diff.Equal(decimal.NewFromInt(5)) {
		t.Errorf("diff = %s, want 5", ev.Diff)
	}
	// later diffs are reported, never corrected
	if !points[2].Balance.Equal(decimal.NewFromInt(-60)) {
		t.Errorf("point 2 = %s, want -60", points[2].Balance)
	}
}

func TestReconcileSameDayBatch(t *testing.T) {
	p := mustProcessor(t, nil, nil)
	txs := []models.Transaction{
		datedTx(1, "Coffee", "-10"),
		datedTx(1, "Lunch", "-15"),
	}
	points, _ := p.Reconcile(txs, nil)
	if len(points) != 1 {
		t.Fatalf("got %d points, want 1", len(points))
	}
	if !points[0].Balance.Equal(decimal.NewFromInt(-25)) {
		t.Errorf("balance = %s, want -25", points[0].Balance)
	}
}

func TestReconcileInputOrderIndependent(t *testing.T) {
	p := mustProcessor(t, nil, nil)
	txs := []models.Transaction{
		datedTx(3, "Gas", "-30"),
		datedTx(1, "Coffee", "-10"),
	}
	points, _ := p.Reconcile(txs, nil)
	if len(points) != 2 {
		t.Fatalf("got %d points, want 2", len(points))
	}
	if !points[0].At.Equal(day(1)) || !points[1].At.Equal(day(3)) {
		t.Errorf("points out of order: %v, %v", points[0].At, points[1].At)
	}
}

func TestAccountKeyInSeries(t *testing.T) {
	p := mustProcessor(t, nil, nil)
	series := p.DailySeries("Bank / Checking", []models.Transaction{datedTx(1, "Deposit", "1")})
	if !strings.Contains(series.AccountKey, "Checking") {
		t.Errorf("account key = %q", series.AccountKey)
	}
}
