package vals

import (
	"strings"

	"github.com/mattn/go-runewidth"
)

// TableString renders a table (a list of records) as aligned columns for
// plain-text display. The column set is the union of the rows' fields, in
// first-appearance order. It is not a canonical representation; use Repr for
// that.
func TableString(v any) string {
	l, ok := v.(List)
	if !ok || !IsTable(v) {
		return ReprPlain(v)
	}
	var cols []string
	seen := map[string]bool{}
	for it := l.Iterator(); it.HasElem(); it.Next() {
		for _, k := range it.Elem().(*Record).Keys() {
			if !seen[k] {
				seen[k] = true
				cols = append(cols, k)
			}
		}
	}
	rows := [][]string{cols}
	for it := l.Iterator(); it.HasElem(); it.Next() {
		r := it.Elem().(*Record)
		row := make([]string, len(cols))
		for i, k := range cols {
			if cell, ok := r.Index(k); ok {
				row[i] = ToString(cell)
			}
		}
		rows = append(rows, row)
	}
	// Pad cells by display width so multi-width runes stay aligned.
	widths := make([]int, len(cols))
	for _, row := range rows {
		for i, cell := range row {
			if w := runewidth.StringWidth(cell); w > widths[i] {
				widths[i] = w
			}
		}
	}
	var sb strings.Builder
	for ri, row := range rows {
		if ri > 0 {
			sb.WriteByte('\n')
		}
		for i, cell := range row {
			if i > 0 {
				sb.WriteString("  ")
			}
			sb.WriteString(cell)
			if i < len(row)-1 {
				sb.WriteString(strings.Repeat(" ", widths[i]-runewidth.StringWidth(cell)))
			}
		}
	}
	return sb.String()
}
