package render

import (
	"strings"

	"golang.org/x/net/html"
)

// tableBuilder accumulates table cells while the converter is inside a
// <table> element and renders the completed table as a fixed-width
// monospace grid. Telegram has no native table markup, so the grid is
// wrapped in <pre> to keep column alignment intact.
type tableBuilder struct {
	rows    [][]string
	current []string
	cell    strings.Builder
}

func (b *tableBuilder) writeCellText(text string) {
	b.cell.WriteString(html.EscapeString(text))
}

func (b *tableBuilder) closeCell() {
	b.current = append(b.current, strings.TrimSpace(b.cell.String()))
	b.cell.Reset()
}

func (b *tableBuilder) closeRow() {
	b.rows = append(b.rows, b.current)
	b.current = nil
}

// render lays out every cell left-justified to its column's maximum width
// and inserts a separator line after the header row.
func (b *tableBuilder) render() string {
	if len(b.rows) == 0 {
		return ""
	}

	var colWidths []int
	for _, row := range b.rows {
		for i, cell := range row {
			if i >= len(colWidths) {
				colWidths = append(colWidths, len(cell))
			} else if len(cell) > colWidths[i] {
				colWidths[i] = len(cell)
			}
		}
	}

	var lines []string
	for ri, row := range b.rows {
		cells := make([]string, len(row))
		for i, cell := range row {
			if i < len(colWidths) {
				cells[i] = cell + strings.Repeat(" ", colWidths[i]-len(cell))
			} else {
				cells[i] = cell
			}
		}
		lines = append(lines, "| "+strings.Join(cells, " | ")+" |")

		if ri == 0 {
			dashes := make([]string, len(colWidths))
			for i, w := range colWidths {
				dashes[i] = strings.Repeat("-", w)
			}
			lines = append(lines, "|-"+strings.Join(dashes, "-+-")+"-|")
		}
	}

	// The grid is already escaped cell by cell, so only wrap it.
	return "<pre>" + strings.Join(lines, "\n") + "</pre>\n\n"
}
