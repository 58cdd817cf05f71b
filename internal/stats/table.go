package stats

import (
	"strings"

	"github.com/mattn/go-runewidth"
)

// textTable lays out cells in aligned columns using terminal display width,
// so CJK titles line up with ASCII ones.
type textTable struct {
	headers  []string
	rows     [][]string
	right    map[int]bool
	maxWidth map[int]int
}

func (t textTable) lines() []string {
	colCount := len(t.headers)
	for _, row := range t.rows {
		colCount = max(colCount, len(row))
	}
	if colCount == 0 {
		return nil
	}

	cells := make([][]string, 0, len(t.rows)+1)
	if len(t.headers) > 0 {
		cells = append(cells, t.headers)
	}
	for _, row := range t.rows {
		out := make([]string, colCount)
		for i := range out {
			if i < len(row) {
				out[i] = t.clip(i, row[i])
			}
		}
		cells = append(cells, out)
	}

	widths := make([]int, colCount)
	for _, row := range cells {
		for i, cell := range row {
			widths[i] = max(widths[i], runewidth.StringWidth(cell))
		}
	}

	lines := make([]string, 0, len(cells))
	for _, row := range cells {
		var b strings.Builder
		for i, w := range widths {
			cell := ""
			if i < len(row) {
				cell = row[i]
			}
			if i > 0 {
				b.WriteByte(' ')
			}
			b.WriteString(padCell(cell, w, t.right[i]))
		}
		lines = append(lines, strings.TrimRight(b.String(), " "))
	}
	return lines
}

func (t textTable) clip(col int, cell string) string {
	limit, ok := t.maxWidth[col]
	if !ok || limit <= 0 {
		return cell
	}
	return runewidth.Truncate(cell, limit, "…")
}

func padCell(value string, width int, rightAlign bool) string {
	if rightAlign {
		return runewidth.FillLeft(value, width)
	}
	return runewidth.FillRight(value, width)
}

func displayWidth(value string) int {
	return runewidth.StringWidth(value)
}
