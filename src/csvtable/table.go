// src/csvtable/table.go
package csvtable

import (
	"regexp"
	"strings"
)

// CellType classifies the contents of a cell or a whole column.
type CellType int

const (
	TypeEmpty CellType = iota
	TypeNumber
	TypeDate
	TypeString
	TypeMixed
)

func (t CellType) String() string {
	switch t {
	case TypeEmpty:
		return "EMPTY"
	case TypeNumber:
		return "NUMBER"
	case TypeDate:
		return "DATE"
	case TypeString:
		return "STRING"
	case TypeMixed:
		return "MIXED"
	}
	return "UNKNOWN"
}

// Heading is per-column metadata: the header text, the type inferred over all
// rows, and whether any cell in the column was empty.
type Heading struct {
	Text     string   `json:"text"`
	Type     CellType `json:"type"`
	IsSparse bool     `json:"is_sparse"`
}

// Table wraps parsed CSV rows plus optional headings with inferred types.
type Table struct {
	Headings []Heading
	Rows     [][]string
}

var (
	numberRe   = regexp.MustCompile(`^\(?[-+]?\$?[\d,]*\.?\d+\)?$`)
	dateSepRe  = regexp.MustCompile(`^\d{1,4}[-/.]\d{1,2}[-/.]\d{1,4}$`)
	dateTextRe = regexp.MustCompile(`^[A-Za-z]{3,9}\.? ?\d{1,2},? \d{4}$`)
)

func looksNumeric(s string) bool { return numberRe.MatchString(s) }

func looksDate(s string) bool {
	return dateSepRe.MatchString(s) || dateTextRe.MatchString(s)
}

// DetectHeader reports whether the first row looks like a header: it must be
// non-empty and every cell must be either empty or fail both the numeric and
// the date-like pattern tests.
func DetectHeader(rows [][]string) bool {
	if len(rows) == 0 {
		return false
	}
	nonEmpty := false
	for _, cell := range rows[0] {
		cell = strings.TrimSpace(cell)
		if cell == "" {
			continue
		}
		nonEmpty = true
		if looksNumeric(cell) || looksDate(cell) {
			return false
		}
	}
	return nonEmpty
}

// New builds a table from parsed rows. linesToSkip rows are dropped first;
// when hasHeader is set the next row becomes the headings. Ragged and fully
// empty rows are dropped during normalization, never reported as errors.
func New(rows [][]string, hasHeader bool, linesToSkip int) *Table {
	if linesToSkip > len(rows) {
		linesToSkip = len(rows)
	}
	rows = rows[linesToSkip:]

	t := &Table{}
	if hasHeader && len(rows) > 0 {
		for _, text := range rows[0] {
			t.Headings = append(t.Headings, Heading{Text: strings.TrimSpace(text)})
		}
		rows = rows[1:]
	}
	for _, row := range rows {
		if isEmptyRow(row) {
			continue
		}
		if t.Headings != nil && len(row) != len(t.Headings) {
			continue
		}
		t.Rows = append(t.Rows, row)
	}
	t.inferTypes()
	return t
}

// NewAutoHeader is New with header auto-detection on the post-skip rows.
func NewAutoHeader(rows [][]string, linesToSkip int) *Table {
	if linesToSkip > len(rows) {
		linesToSkip = len(rows)
	}
	return New(rows[linesToSkip:], DetectHeader(rows[linesToSkip:]), 0)
}

func isEmptyRow(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}

func cellType(cell string) CellType {
	cell = strings.TrimSpace(cell)
	switch {
	case cell == "":
		return TypeEmpty
	case looksDate(cell):
		return TypeDate
	case looksNumeric(cell):
		return TypeNumber
	}
	return TypeString
}

// inferTypes recomputes each heading's type and sparsity over all rows.
// A column's type is the single value-type seen in it, after discarding
// EMPTY when other types coexist; more than one surviving type means MIXED.
func (t *Table) inferTypes() {
	if t.Headings == nil {
		return
	}
	for col := range t.Headings {
		seen := make(map[CellType]bool)
		for _, row := range t.Rows {
			seen[cellType(row[col])] = true
		}
		t.Headings[col].IsSparse = seen[TypeEmpty]
		if len(seen) > 1 {
			delete(seen, TypeEmpty)
		}
		switch {
		case len(seen) == 0:
			t.Headings[col].Type = TypeEmpty
		case len(seen) == 1:
			for ct := range seen {
				t.Headings[col].Type = ct
			}
		default:
			t.Headings[col].Type = TypeMixed
		}
	}
}

// Reorder builds a new table selecting and reordering columns. Index -1 in
// the mapping yields a blank column. The receiver is not mutated.
func (t *Table) Reorder(mapping []int) *Table {
	out := &Table{}
	if t.Headings != nil {
		out.Headings = make([]Heading, len(mapping))
		for i, m := range mapping {
			if m >= 0 && m < len(t.Headings) {
				out.Headings[i] = Heading{Text: t.Headings[m].Text}
			}
		}
	}
	for _, row := range t.Rows {
		newRow := make([]string, len(mapping))
		for i, m := range mapping {
			if m >= 0 && m < len(row) {
				newRow[i] = row[m]
			}
		}
		out.Rows = append(out.Rows, newRow)
	}
	out.inferTypes()
	return out
}

// Append concatenates another table's rows after the receiver's and re-infers
// column types. Headings come from the receiver. The inputs are not mutated.
func (t *Table) Append(other *Table) *Table {
	out := t.Clone()
	for _, row := range other.Rows {
		if out.Headings != nil && len(row) != len(out.Headings) {
			continue
		}
		out.Rows = append(out.Rows, append([]string(nil), row...))
	}
	out.inferTypes()
	return out
}

// Clone deep-copies the table.
func (t *Table) Clone() *Table {
	out := &Table{}
	if t.Headings != nil {
		out.Headings = append([]Heading(nil), t.Headings...)
	}
	for _, row := range t.Rows {
		out.Rows = append(out.Rows, append([]string(nil), row...))
	}
	return out
}

// String re-serializes the table with minimal quoting: a cell is quoted only
// when it contains a quote, a comma or a newline, with embedded quotes doubled.
func (t *Table) String() string {
	var b strings.Builder
	if t.Headings != nil {
		texts := make([]string, len(t.Headings))
		for i, h := range t.Headings {
			texts[i] = h.Text
		}
		writeRow(&b, texts)
	}
	for _, row := range t.Rows {
		writeRow(&b, row)
	}
	return b.String()
}

func writeRow(b *strings.Builder, row []string) {
	for i, cell := range row {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(escapeCell(cell))
	}
	b.WriteByte('\n')
}

func escapeCell(cell string) string {
	if strings.ContainsAny(cell, "\",\n\r") {
		return `"` + strings.ReplaceAll(cell, `"`, `""`) + `"`
	}
	return cell
}
