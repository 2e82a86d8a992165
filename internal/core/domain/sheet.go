package domain

import "strings"

// HeaderRule decides which rows get header styling.
type HeaderRule struct {
	Keywords      []string `json:"keywords" yaml:"keywords"`
	ScriptSignals []string `json:"script_signals" yaml:"script_signals"`
	FillColor     string   `json:"fill_color,omitempty" yaml:"fill_color"`
}

// IsHeader reports whether row is a header. The first row of a table block is
// always one; any other row qualifies when its text contains a keyword
// (case-insensitive) or a script signal.
func (r HeaderRule) IsHeader(row Row, firstOfTable bool) bool {
	if firstOfTable {
		return true
	}
	text := strings.Join(row, " ")
	if strings.TrimSpace(text) == "" {
		return false
	}

	lower := strings.ToLower(text)
	for _, keyword := range r.Keywords {
		keyword = strings.ToLower(strings.TrimSpace(keyword))
		if keyword != "" && strings.Contains(lower, keyword) {
			return true
		}
	}
	for _, signal := range r.ScriptSignals {
		if signal != "" && strings.Contains(text, signal) {
			return true
		}
	}
	return false
}

// SheetRow is a normalized row with its style decision.
type SheetRow struct {
	Cells  Row
	Header bool
}

// Sheet is the grid handed to the spreadsheet writer.
type Sheet struct {
	Rows      []SheetRow
	FillColor string
}

// Width returns the widest row in the sheet.
func (s Sheet) Width() int {
	width := 0
	for _, row := range s.Rows {
		if len(row.Cells) > width {
			width = len(row.Cells)
		}
	}
	return width
}

// SheetStats describes the grid that was persisted.
type SheetStats struct {
	Rows    int `json:"rows"`
	Columns int `json:"columns"`
	Headers int `json:"headers"`
}

// BuildSheet normalizes rows in document order against the widest row seen so
// far and classifies headers. Short early rows are padded to the final width by
// the writer once the whole document has been scanned.
func BuildSheet(blocks []RowBlock, rule HeaderRule) Sheet {
	sheet := Sheet{FillColor: rule.FillColor}
	width := 0
	for _, block := range blocks {
		for i, raw := range block.Rows {
			if len(raw) > width {
				width = len(raw)
			}
			cells := NormalizeRow(raw, width)
			sheet.Rows = append(sheet.Rows, SheetRow{
				Cells:  cells,
				Header: rule.IsHeader(cells, block.Table && i == 0),
			})
		}
	}
	return sheet
}
