package excel

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"unicode/utf8"

	"github.com/xuri/excelize/v2"

	"github.com/kirillkom/pdf-to-excel/internal/core/domain"
)

const (
	SheetName          = "Converted"
	DefaultMaxColWidth = 50.0

	borderColor = "000000"
	defaultFill = "DDEBF7"
)

type Writer struct {
	maxColWidth float64
}

func NewWriter(maxColWidth float64) *Writer {
	if maxColWidth <= 0 {
		maxColWidth = DefaultMaxColWidth
	}
	return &Writer{maxColWidth: maxColWidth}
}

// Write lays sheet out from A1 and saves it to outputPath as a single worksheet.
func (w *Writer) Write(ctx context.Context, outputPath string, sheet domain.Sheet) (domain.SheetStats, error) {
	grid := layoutGrid(sheet, w.maxColWidth)

	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", SheetName); err != nil {
		return domain.SheetStats{}, writeErr("rename sheet", err)
	}
	bodyStyle, headerStyle, err := newStyles(f, sheet.FillColor)
	if err != nil {
		return domain.SheetStats{}, writeErr("create styles", err)
	}

	for i, row := range grid.rows {
		if err := ctx.Err(); err != nil {
			return domain.SheetStats{}, writeErr("write rows", err)
		}
		start, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return domain.SheetStats{}, writeErr("cell name", err)
		}
		values := make([]interface{}, len(row.Cells))
		for j, cell := range row.Cells {
			values[j] = cell
		}
		if err := f.SetSheetRow(SheetName, start, &values); err != nil {
			return domain.SheetStats{}, writeErr("set row", err)
		}
		if grid.width == 0 {
			continue
		}
		end, err := excelize.CoordinatesToCellName(grid.width, i+1)
		if err != nil {
			return domain.SheetStats{}, writeErr("cell name", err)
		}
		style := bodyStyle
		if row.Header {
			style = headerStyle
		}
		if err := f.SetCellStyle(SheetName, start, end, style); err != nil {
			return domain.SheetStats{}, writeErr("set style", err)
		}
	}

	for col, width := range grid.colWidths {
		name, err := excelize.ColumnNumberToName(col + 1)
		if err != nil {
			return domain.SheetStats{}, writeErr("column name", err)
		}
		if err := f.SetColWidth(SheetName, name, name, width); err != nil {
			return domain.SheetStats{}, writeErr("set column width", err)
		}
	}

	if err := os.MkdirAll(filepath.Dir(outputPath), 0o755); err != nil {
		return domain.SheetStats{}, writeErr("create output dir", err)
	}
	if err := f.SaveAs(outputPath); err != nil {
		return domain.SheetStats{}, writeErr("save workbook", err)
	}

	return grid.stats(), nil
}

func newStyles(f *excelize.File, fill string) (int, int, error) {
	border := []excelize.Border{
		{Type: "left", Color: borderColor, Style: 1},
		{Type: "top", Color: borderColor, Style: 1},
		{Type: "right", Color: borderColor, Style: 1},
		{Type: "bottom", Color: borderColor, Style: 1},
	}
	body, err := f.NewStyle(&excelize.Style{Border: border})
	if err != nil {
		return 0, 0, err
	}
	if fill == "" {
		fill = defaultFill
	}
	header, err := f.NewStyle(&excelize.Style{
		Border: border,
		Font:   &excelize.Font{Bold: true},
		Fill:   excelize.Fill{Type: "pattern", Color: []string{fill}, Pattern: 1},
	})
	if err != nil {
		return 0, 0, err
	}
	return body, header, nil
}

func writeErr(op string, err error) error {
	return domain.WrapError(domain.ErrWriteFailure, op, fmt.Errorf("%s: %w", SheetName, err))
}

// grid is the final cell layout: every row padded to the sheet width.
type grid struct {
	rows      []domain.SheetRow
	width     int
	colWidths []float64
}

func layoutGrid(sheet domain.Sheet, maxColWidth float64) grid {
	width := sheet.Width()
	g := grid{
		rows:      make([]domain.SheetRow, len(sheet.Rows)),
		width:     width,
		colWidths: make([]float64, width),
	}
	for i, row := range sheet.Rows {
		cells := domain.NormalizeRow(row.Cells, width)
		g.rows[i] = domain.SheetRow{Cells: cells, Header: row.Header}
		for j, cell := range cells {
			w := float64(utf8.RuneCountInString(cell) + 2)
			if w > maxColWidth {
				w = maxColWidth
			}
			if w > g.colWidths[j] {
				g.colWidths[j] = w
			}
		}
	}
	return g
}

func (g grid) stats() domain.SheetStats {
	headers := 0
	for _, row := range g.rows {
		if row.Header {
			headers++
		}
	}
	return domain.SheetStats{Rows: len(g.rows), Columns: g.width, Headers: headers}
}
