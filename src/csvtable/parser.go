// src/csvtable/parser.go
package csvtable

import (
	"fmt"
	"strings"
)

// ParseError is a fatal tokenizer failure. It carries the byte offset of the
// field that could not be consumed and a snippet of the offending text.
type ParseError struct {
	Offset  int
	Snippet string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("csv parse error at byte %d: %q", e.Offset, e.Snippet)
}

const snippetLen = 24

func newParseError(text string, offset int) *ParseError {
	end := offset + snippetLen
	if end > len(text) {
		end = len(text)
	}
	return &ParseError{Offset: offset, Snippet: text[offset:end]}
}

// Parse tokenizes raw CSV text into rows of string cells.
//
// Fields starting with a double quote are scanned in quoted mode, where a
// doubled quote is an escaped literal and an unterminated quote is fatal.
// All other fields run to the next comma, line terminator or end of text.
// Recognized line terminators are "\r\n", "\r" and "\n". A comma immediately
// before a terminator yields an explicit empty trailing field; a fully empty
// final row is discarded.
func Parse(text string) ([][]string, error) {
	var rows [][]string
	pos := 0
	n := len(text)
	for pos < n {
		var row []string
		for {
			if text[pos] == '"' {
				cell, next, err := scanQuoted(text, pos)
				if err != nil {
					return nil, err
				}
				row = append(row, cell)
				pos = next
			} else {
				start := pos
				for pos < n && text[pos] != ',' && text[pos] != '\r' && text[pos] != '\n' {
					pos++
				}
				row = append(row, text[start:pos])
			}
			if pos < n && text[pos] == ',' {
				pos++
				if pos >= n || text[pos] == '\r' || text[pos] == '\n' {
					// trailing comma: explicit empty final field
					row = append(row, "")
					break
				}
				continue
			}
			break
		}
		rows = append(rows, row)
		// consume one line terminator
		if pos < n {
			if text[pos] == '\r' {
				pos++
				if pos < n && text[pos] == '\n' {
					pos++
				}
			} else if text[pos] == '\n' {
				pos++
			}
		}
	}
	// a blank last line is not a row
	if len(rows) > 0 {
		last := rows[len(rows)-1]
		if len(last) == 1 && last[0] == "" {
			rows = rows[:len(rows)-1]
		}
	}
	return rows, nil
}

// scanQuoted consumes one quoted field starting at the opening quote and
// returns the unescaped cell plus the position just past the closing quote.
func scanQuoted(text string, start int) (string, int, error) {
	var b strings.Builder
	n := len(text)
	i := start + 1
	for {
		if i >= n {
			return "", 0, newParseError(text, start)
		}
		if text[i] == '"' {
			if i+1 < n && text[i+1] == '"' {
				b.WriteByte('"')
				i += 2
				continue
			}
			i++
			break
		}
		b.WriteByte(text[i])
		i++
	}
	if i < n && text[i] != ',' && text[i] != '\r' && text[i] != '\n' {
		// garbage between closing quote and field end
		return "", 0, newParseError(text, i)
	}
	return b.String(), i, nil
}
