package domain

import (
	"regexp"
	"strings"
)

// Row is one spreadsheet row of text cells.
type Row []string

// RowBlock groups the rows produced by one detected table or one run of text.
type RowBlock struct {
	Rows  []Row
	Table bool
}

var columnGap = regexp.MustCompile(` {3,}`)

// NormalizeRow trims every cell and pads the row with empty cells up to width.
// Rows wider than width are kept intact.
func NormalizeRow(row Row, width int) Row {
	size := len(row)
	if width > size {
		size = width
	}
	out := make(Row, size)
	for i, cell := range row {
		out[i] = strings.TrimSpace(cell)
	}
	return out
}

// SplitLine turns one physical text line into cells. A first colon wins over
// runs of three or more spaces; anything else stays a single cell.
func SplitLine(line string) Row {
	line = strings.TrimSpace(line)
	if line == "" {
		return nil
	}

	if before, after, ok := strings.Cut(line, ":"); ok {
		return Row{strings.TrimSpace(before), strings.TrimSpace(after)}
	}

	parts := columnGap.Split(line, -1)
	cells := make(Row, 0, len(parts))
	for _, part := range parts {
		if part = strings.TrimSpace(part); part != "" {
			cells = append(cells, part)
		}
	}
	if len(cells) > 1 {
		return cells
	}
	return Row{line}
}

// LinesToRows applies SplitLine to every non-empty line of text.
func LinesToRows(text string) []Row {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = strings.ReplaceAll(text, "\r", "\n")

	var rows []Row
	for _, line := range strings.Split(text, "\n") {
		if row := SplitLine(line); len(row) > 0 {
			rows = append(rows, row)
		}
	}
	return rows
}

// TextBlock builds a non-table block from free text.
func TextBlock(text string) RowBlock {
	return RowBlock{Rows: LinesToRows(text)}
}

// CountRows returns the total number of rows across blocks.
func CountRows(blocks []RowBlock) int {
	total := 0
	for _, block := range blocks {
		total += len(block.Rows)
	}
	return total
}
