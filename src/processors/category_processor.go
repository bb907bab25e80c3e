// src/processors/category_processor.go
package processors

import (
	"strings"

	"github.com/shopspring/decimal"

	"github.com/Tombez/bank-transaction-vis-sub000/src/models"
)

// Reserved top-level label buckets pulled out of the spending tree.
const (
	IncomeBucket  = "Income"
	IgnoredBucket = "Ignored"
	RootBucket    = "root"
)

// CategoryResult holds the three trees of one aggregation pass.
type CategoryResult struct {
	Income   *models.CategoryNode `json:"income"`
	Ignored  *models.CategoryNode `json:"ignored"`
	Spending *models.CategoryNode `json:"spending"`
}

// CategoryProcessor folds labeled transactions into weighted category trees.
// Every pass rebuilds the trees from scratch; nothing is cached or mutated
// incrementally.
type CategoryProcessor struct{}

func NewCategoryProcessor() *CategoryProcessor { return &CategoryProcessor{} }

// bucket is the mutable intermediate node keyed by label-path segment.
// Child order is insertion order.
type bucket struct {
	name     string
	txs      []models.Transaction
	order    []string
	children map[string]*bucket
}

func newBucket(name string) *bucket {
	return &bucket{name: name, children: make(map[string]*bucket)}
}

func (b *bucket) child(name string) *bucket {
	if c, ok := b.children[name]; ok {
		return c
	}
	c := newBucket(name)
	b.children[name] = c
	b.order = append(b.order, name)
	return c
}

func (b *bucket) insert(segments []string, tx models.Transaction) {
	if len(segments) == 0 {
		b.txs = append(b.txs, tx)
		return
	}
	b.child(segments[0]).insert(segments[1:], tx)
}

// Aggregate builds the income, ignored and spending trees from a ledger and
// its positionally aligned classification assignments. An empty label path
// stores the transaction directly at the spending root. The reserved
// "Income" and "Ignored" top-level buckets become their own trees before the
// remainder is converted into the "root" spending tree.
func (p *CategoryProcessor) Aggregate(txs []models.Transaction, assignments []Assignment) CategoryResult {
	root := newBucket(RootBucket)
	for i, tx := range txs {
		label := ""
		if i < len(assignments) {
			label = assignments[i].LabelPath
		}
		if label == "" {
			root.insert(nil, tx)
			continue
		}
		root.insert(strings.Split(label, "/"), tx)
	}

	income := root.detach(IncomeBucket)
	ignored := root.detach(IgnoredBucket)
	return CategoryResult{
		Income:   convert(income),
		Ignored:  convert(ignored),
		Spending: convert(root),
	}
}

// detach removes a reserved top-level child, returning an empty bucket of the
// same name when it was never populated.
func (b *bucket) detach(name string) *bucket {
	c, ok := b.children[name]
	if !ok {
		return newBucket(name)
	}
	delete(b.children, name)
	for i, n := range b.order {
		if n == name {
			b.order = append(b.order[:i], b.order[i+1:]...)
			break
		}
	}
	return c
}

// convert turns the mutable bucket tree into immutable CategoryNode values.
// A node's total is |(-sum of own amounts) + sum of child totals| and counts
// are additive. Leaves get nil children, not an empty slice.
func convert(b *bucket) *models.CategoryNode {
	node := &models.CategoryNode{
		Name:             b.name,
		OwnTransactions:  append([]models.Transaction(nil), b.txs...),
		TransactionCount: len(b.txs),
	}
	sum := decimal.Zero
	for _, tx := range b.txs {
		sum = sum.Add(tx.Amount)
	}
	total := sum.Neg()
	for _, name := range b.order {
		child := convert(b.children[name])
		node.Children = append(node.Children, child)
		node.TransactionCount += child.TransactionCount
		total = total.Add(child.Total)
	}
	node.Total = total.Abs()
	return node
}
