package processors

import (
	"sort"

	"github.com/shopspring/decimal"

	"github.com/Tombez/bank-transaction-vis-sub000/src/models"
)

// Synthetic piece names bridging the income and spending trees.
const (
	SavingsPiece     = "Savings"
	FromSavingsPiece = "From Savings"
)

var defaultPalette = []string{
	"#4e79a7", "#f28e2b", "#e15759", "#76b7b2", "#59a14f",
	"#edc948", "#b07aa1", "#ff9da7", "#9c755f", "#bab0ac",
}

// FlowProcessor converts income and spending trees into ordered layers of
// flow pieces with proportional connectors for a flow-diagram renderer.
type FlowProcessor struct {
	palette []string
}

func NewFlowProcessor() *FlowProcessor {
	return &FlowProcessor{palette: defaultPalette}
}

// BuildLayers lays out both trees: income layers reversed to the left of the
// spending layers, roots adjacent. Children are sorted descending by total
// before layering (ties stay in insertion order, so runs over differently
// ordered input may lay ties out differently). A child's inbound connector
// offset is the running share of its earlier siblings in the parent total,
// giving contiguous non-overlapping bands in [0,1). A synthetic "Savings" or
// "From Savings" piece carries |income - spending| between the two trees,
// with its single band starting at the donor side's leftover offset.
func (p *FlowProcessor) BuildLayers(income, spending *models.CategoryNode) [][]*models.FlowPiece {
	in := sortTree(income)
	sp := sortTree(spending)
	di := treeDepth(in)
	layers := make([][]*models.FlowPiece, di+treeDepth(sp))

	colorIdx := 0
	nextColor := func() string {
		c := p.palette[colorIdx%len(p.palette)]
		colorIdx++
		return c
	}

	var placeSpending func(n *models.CategoryNode, layer int) *models.FlowPiece
	placeSpending = func(n *models.CategoryNode, layer int) *models.FlowPiece {
		piece := &models.FlowPiece{Name: n.Name, Total: n.Total, Color: nextColor()}
		layers[layer] = append(layers[layer], piece)
		cum := decimal.Zero
		for _, child := range n.Children {
			off := bandOffset(cum, n.Total)
			cp := placeSpending(child, layer+1)
			piece.RightConnectors = append(piece.RightConnectors, models.FlowConnector{Offset: off, Piece: cp})
			cp.LeftConnectors = append(cp.LeftConnectors, models.FlowConnector{Offset: off, Piece: piece})
			cum = cum.Add(child.Total)
		}
		return piece
	}

	var placeIncome func(n *models.CategoryNode, layer int) *models.FlowPiece
	placeIncome = func(n *models.CategoryNode, layer int) *models.FlowPiece {
		piece := &models.FlowPiece{Name: n.Name, Total: n.Total, Color: nextColor()}
		layers[layer] = append(layers[layer], piece)
		cum := decimal.Zero
		for _, child := range n.Children {
			off := bandOffset(cum, n.Total)
			cp := placeIncome(child, layer-1)
			piece.LeftConnectors = append(piece.LeftConnectors, models.FlowConnector{Offset: off, Piece: cp})
			cp.RightConnectors = append(cp.RightConnectors, models.FlowConnector{Offset: off, Piece: piece})
			cum = cum.Add(child.Total)
		}
		return piece
	}

	incomeRoot := placeIncome(in, di-1)
	spendingRoot := placeSpending(sp, di)

	incomeRoot.RightConnectors = append(incomeRoot.RightConnectors, models.FlowConnector{Piece: spendingRoot})
	spendingRoot.LeftConnectors = append(spendingRoot.LeftConnectors, models.FlowConnector{Piece: incomeRoot})

	switch in.Total.Cmp(sp.Total) {
	case 1: // income exceeds spending: surplus flows into Savings
		savings := &models.FlowPiece{
			Name:  SavingsPiece,
			Total: in.Total.Sub(sp.Total),
			Color: nextColor(),
		}
		layers[di] = append(layers[di], savings)
		off := bandOffset(sp.Total, in.Total)
		incomeRoot.RightConnectors = append(incomeRoot.RightConnectors, models.FlowConnector{Offset: off, Piece: savings})
		savings.LeftConnectors = append(savings.LeftConnectors, models.FlowConnector{Piece: incomeRoot})
	case -1: // spending exceeds income: the shortfall is drawn from savings
		fromSavings := &models.FlowPiece{
			Name:  FromSavingsPiece,
			Total: sp.Total.Sub(in.Total),
			Color: nextColor(),
		}
		layers[di-1] = append(layers[di-1], fromSavings)
		off := bandOffset(in.Total, sp.Total)
		spendingRoot.LeftConnectors = append(spendingRoot.LeftConnectors, models.FlowConnector{Offset: off, Piece: fromSavings})
		fromSavings.RightConnectors = append(fromSavings.RightConnectors, models.FlowConnector{Piece: spendingRoot})
	}

	return layers
}

// bandOffset is cum/total as a float fraction, with zero totals mapping to 0.
func bandOffset(cum, total decimal.Decimal) float64 {
	if total.IsZero() {
		return 0
	}
	return cum.Div(total).InexactFloat64()
}

// sortTree returns a copy of the tree with every node's children sorted
// descending by total; ties keep insertion order. The input is not mutated.
func sortTree(n *models.CategoryNode) *models.CategoryNode {
	if n == nil {
		return &models.CategoryNode{}
	}
	out := &models.CategoryNode{
		Name:             n.Name,
		Total:            n.Total,
		TransactionCount: n.TransactionCount,
		OwnTransactions:  n.OwnTransactions,
	}
	for _, child := range n.Children {
		out.Children = append(out.Children, sortTree(child))
	}
	sort.SliceStable(out.Children, func(i, j int) bool {
		return out.Children[i].Total.GreaterThan(out.Children[j].Total)
	})
	return out
}

func treeDepth(n *models.CategoryNode) int {
	depth := 0
	for _, child := range n.Children {
		if d := treeDepth(child); d > depth {
			depth = d
		}
	}
	return depth + 1
}
