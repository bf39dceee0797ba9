// Package table aligns rows of styled cells into columns.
package table

import (
	"strings"

	"github.com/charmbracelet/x/ansi"
)

type Alignment int

const (
	AlignLeft Alignment = iota
	AlignRight
)

// Format pads each row to the widest cell of every column. Widths are
// measured in terminal cells with ANSI escapes ignored, so cells may already
// be styled. A left-aligned final column is never padded.
func Format(rows [][]string, alignments []Alignment, gap int) []string {
	if len(rows) == 0 {
		return nil
	}
	colCount := 0
	for _, row := range rows {
		if len(row) > colCount {
			colCount = len(row)
		}
	}
	widths := make([]int, colCount)
	for _, row := range rows {
		for c, cell := range row {
			if w := ansi.StringWidth(cell); w > widths[c] {
				widths[c] = w
			}
		}
	}
	sep := strings.Repeat(" ", max(gap, 0))
	out := make([]string, len(rows))
	for i, row := range rows {
		var b strings.Builder
		for c, cell := range row {
			if c > 0 {
				b.WriteString(sep)
			}
			pad := widths[c] - ansi.StringWidth(cell)
			right := c < len(alignments) && alignments[c] == AlignRight
			last := c == len(row)-1
			switch {
			case right:
				b.WriteString(strings.Repeat(" ", max(pad, 0)))
				b.WriteString(cell)
			case last:
				b.WriteString(cell)
			default:
				b.WriteString(cell)
				b.WriteString(strings.Repeat(" ", max(pad, 0)))
			}
		}
		out[i] = b.String()
	}
	return out
}
