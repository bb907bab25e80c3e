// src/processors/balance_processor.go
package processors

import (
	"fmt"
	"regexp"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/Tombez/bank-transaction-vis-sub000/src/models"
)

const dayKeyFormat = "2006-01-02"

// BalanceProcessor reconstructs per-account balance series from dated deltas.
// The noise predicate and the credit-account test are both injected: which
// descriptions count as internal churn and which accounts are credit-type is
// deployment configuration, not code.
type BalanceProcessor struct {
	noise        []*regexp.Regexp
	isCreditType func(accountKey string) bool
}

// NewBalanceProcessor compiles the noise patterns. isCreditType may be nil,
// meaning no account is treated as credit-type.
func NewBalanceProcessor(noisePatterns []string, isCreditType func(string) bool) (*BalanceProcessor, error) {
	p := &BalanceProcessor{isCreditType: isCreditType}
	for _, pat := range noisePatterns {
		re, err := regexp.Compile(pat)
		if err != nil {
			return nil, fmt.Errorf("balance: bad noise pattern %q: %w", pat, err)
		}
		p.noise = append(p.noise, re)
	}
	return p, nil
}

// CreditAccountMatcher builds a credit-type predicate from a regex over
// account keys. An empty or invalid pattern matches no account.
func CreditAccountMatcher(pattern string) func(string) bool {
	if pattern == "" {
		return nil
	}
	re, err := regexp.Compile(pattern)
	if err != nil {
		return nil
	}
	return re.MatchString
}

func (p *BalanceProcessor) isNoise(tx models.Transaction) bool {
	for _, re := range p.noise {
		if re.MatchString(tx.Description) {
			return true
		}
	}
	return false
}

func (p *BalanceProcessor) creditType(accountKey string) bool {
	return p.isCreditType != nil && p.isCreditType(accountKey)
}

// DailySeries builds the dense daily balance reconstruction for one account.
// Noise transactions are excluded, remaining amounts are summed into per-day
// deltas by posted-else-transaction date, and days without a delta forward-
// fill the previous cumulative balance. For non-credit accounts with a
// negative minimum, the whole series is shifted up by |min|; that shift is a
// display transform, not a ledger correction.
func (p *BalanceProcessor) DailySeries(accountKey string, txs []models.Transaction) *models.AccountBalanceSeries {
	series := &models.AccountBalanceSeries{
		AccountKey: accountKey,
		DailyDelta: make(map[string]decimal.Decimal),
	}
	var minDay, maxDay time.Time
	for _, tx := range txs {
		if p.isNoise(tx) {
			continue
		}
		day := truncateDay(tx.Day())
		key := day.Format(dayKeyFormat)
		series.DailyDelta[key] = series.DailyDelta[key].Add(tx.Amount)
		if minDay.IsZero() || day.Before(minDay) {
			minDay = day
		}
		if maxDay.IsZero() || day.After(maxDay) {
			maxDay = day
		}
	}
	if len(series.DailyDelta) == 0 {
		return series
	}

	series.Start = minDay
	balance := decimal.Zero
	for day := minDay; !day.After(maxDay); day = day.AddDate(0, 0, 1) {
		if delta, ok := series.DailyDelta[day.Format(dayKeyFormat)]; ok {
			balance = balance.Add(delta)
		}
		series.DailyBalance = append(series.DailyBalance, balance)
	}

	min, max := series.DailyBalance[0], series.DailyBalance[0]
	for _, b := range series.DailyBalance[1:] {
		if b.LessThan(min) {
			min = b
		}
		if b.GreaterThan(max) {
			max = b
		}
	}

	if min.IsNegative() && !p.creditType(accountKey) {
		shift := min.Abs()
		for i := range series.DailyBalance {
			series.DailyBalance[i] = series.DailyBalance[i].Add(shift)
		}
		min = min.Add(shift)
		max = max.Add(shift)
	}
	series.Range = models.BalanceRange{Min: min, Max: max}
	return series
}

// KnownBalance is an externally supplied checkpoint balance at a timestamp.
type KnownBalance struct {
	At      time.Time       `json:"at"`
	Balance decimal.Decimal `json:"balance"`
}

// Reconcile accumulates a running balance over timestamp-sorted transactions,
// treating same-timestamp transactions as one batch, and checks it against
// known checkpoint balances. The diff at the first checkpoint is taken as an
// unknown initial offset and retroactively subtracted from every point
// emitted so far; every later nonzero diff is surfaced as a Discrepancy
// event and left uncorrected.
func (p *BalanceProcessor) Reconcile(txs []models.Transaction, known []KnownBalance) ([]models.BalancePoint, []models.Discrepancy) {
	sorted := append([]models.Transaction(nil), txs...)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Day().Before(sorted[j].Day())
	})
	knownAt := make(map[time.Time]decimal.Decimal, len(known))
	for _, k := range known {
		knownAt[truncateDay(k.At)] = k.Balance
	}

	var points []models.BalancePoint
	var events []models.Discrepancy
	running := decimal.Zero
	calibrated := false
	for i := 0; i < len(sorted); {
		ts := truncateDay(sorted[i].Day())
		for ; i < len(sorted) && truncateDay(sorted[i].Day()).Equal(ts); i++ {
			running = running.Add(sorted[i].Amount)
		}
		points = append(points, models.BalancePoint{At: ts, Balance: running})

		kb, ok := knownAt[ts]
		if !ok {
			continue
		}
		diff := running.Sub(kb).Round(2)
		if !calibrated {
			// first checkpoint: diff is the unknown starting offset
			calibrated = true
			for j := range points {
				points[j].Balance = points[j].Balance.Sub(diff)
			}
			running = running.Sub(diff)
			continue
		}
		if !diff.IsZero() {
			events = append(events, models.Discrepancy{At: ts, Expected: kb, Actual: running, Diff: diff})
		}
	}
	return points, events
}

func truncateDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
