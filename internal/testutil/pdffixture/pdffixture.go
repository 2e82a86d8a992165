// Package pdffixture renders small PDFs for extractor tests.
package pdffixture

import (
	"path/filepath"
	"testing"

	"github.com/jung-kurt/gofpdf"
)

func newDocument() *gofpdf.Fpdf {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetCompression(false)
	pdf.SetAutoPageBreak(true, 15)
	pdf.SetFont("Helvetica", "", 12)
	return pdf
}

// TextLines writes one line of text per entry on a single page.
func TextLines(t *testing.T, dir string, lines ...string) string {
	t.Helper()
	pdf := newDocument()
	pdf.AddPage()
	for _, line := range lines {
		pdf.Cell(0, 8, line)
		pdf.Ln(8)
	}
	return save(t, pdf, filepath.Join(dir, "text.pdf"))
}

// RuledTable draws rows as a bordered grid.
func RuledTable(t *testing.T, dir string, rows [][]string) string {
	t.Helper()
	pdf := newDocument()
	pdf.AddPage()
	for _, row := range rows {
		for _, cell := range row {
			pdf.CellFormat(40, 10, cell, "1", 0, "L", false, 0, "")
		}
		pdf.Ln(10)
	}
	return save(t, pdf, filepath.Join(dir, "table.pdf"))
}

// AlignedColumns lays rows out in fixed-width columns without any rulings.
func AlignedColumns(t *testing.T, dir string, rows [][]string) string {
	t.Helper()
	pdf := newDocument()
	pdf.AddPage()
	for _, row := range rows {
		for _, cell := range row {
			pdf.CellFormat(40, 8, cell, "", 0, "L", false, 0, "")
		}
		pdf.Ln(8)
	}
	return save(t, pdf, filepath.Join(dir, "columns.pdf"))
}

// Blank writes pages with no content at all.
func Blank(t *testing.T, dir string, pages int) string {
	t.Helper()
	pdf := newDocument()
	for i := 0; i < pages; i++ {
		pdf.AddPage()
	}
	return save(t, pdf, filepath.Join(dir, "blank.pdf"))
}

func save(t *testing.T, pdf *gofpdf.Fpdf, path string) string {
	t.Helper()
	if err := pdf.OutputFileAndClose(path); err != nil {
		t.Fatalf("render fixture %s: %v", path, err)
	}
	return path
}
