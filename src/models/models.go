// src/models/models.go
package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Transaction is the canonical ledger row every source file is normalized into.
// Amount carries the final sign: negative for money out, positive for money in.
type Transaction struct {
	Account         string          `json:"account"`
	TransactionDate time.Time       `json:"transaction_date"`
	PostedDate      time.Time       `json:"posted_date"`
	Description     string          `json:"description"`
	Amount          decimal.Decimal `json:"amount"`
	SourceRow       int             `json:"source_row"`
	SourceFile      string          `json:"source_file"`
}

// Day returns the date a transaction affects a balance series: the posted date
// when present, else the transaction date.
func (t Transaction) Day() time.Time {
	if !t.PostedDate.IsZero() {
		return t.PostedDate
	}
	return t.TransactionDate
}

// CategoryNode is one node of an aggregated category tree. Total and
// TransactionCount fold in the whole subtree; Children is nil on leaves.
type CategoryNode struct {
	Name             string          `json:"name"`
	Total            decimal.Decimal `json:"total"`
	TransactionCount int             `json:"transaction_count"`
	Children         []*CategoryNode `json:"children,omitempty"`
	OwnTransactions  []Transaction   `json:"own_transactions,omitempty"`
}

// BalanceRange holds the extremes of a reconstructed balance series.
type BalanceRange struct {
	Min decimal.Decimal `json:"min"`
	Max decimal.Decimal `json:"max"`
}

// AccountBalanceSeries is a dense per-day balance reconstruction for one
// account. DailyBalance is indexed by day offset from Start; DailyDelta is
// keyed by "2006-01-02" day strings.
type AccountBalanceSeries struct {
	AccountKey   string                     `json:"account_key"`
	Start        time.Time                  `json:"start"`
	DailyDelta   map[string]decimal.Decimal `json:"daily_delta"`
	DailyBalance []decimal.Decimal          `json:"daily_balance"`
	Range        BalanceRange               `json:"range"`
}

// BalancePoint is one emitted point of a checkpoint-reconciled running balance.
type BalancePoint struct {
	At      time.Time       `json:"at"`
	Balance decimal.Decimal `json:"balance"`
}

// Discrepancy is a reconciliation mismatch detected at a known-balance
// checkpoint after the first. It is reported, never auto-corrected.
type Discrepancy struct {
	At       time.Time       `json:"at"`
	Expected decimal.Decimal `json:"expected"`
	Actual   decimal.Decimal `json:"actual"`
	Diff     decimal.Decimal `json:"diff"`
}

// FlowConnector is one proportional band between two adjacent flow pieces.
// Offset is the band's start within the owning piece, in [0,1).
type FlowConnector struct {
	Offset float64
	Piece  *FlowPiece
}

// FlowPiece is one block of a proportional flow diagram layer.
type FlowPiece struct {
	Name            string
	Total           decimal.Decimal
	LeftConnectors  []FlowConnector
	RightConnectors []FlowConnector
	Color           string
}
