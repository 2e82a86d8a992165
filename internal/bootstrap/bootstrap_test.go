package bootstrap

import (
	"context"
	"os"
	"strings"
	"testing"

	"github.com/xuri/excelize/v2"

	"github.com/kirillkom/pdf-to-excel/internal/config"
	"github.com/kirillkom/pdf-to-excel/internal/core/domain"
	"github.com/kirillkom/pdf-to-excel/internal/infrastructure/spreadsheet/excel"
	"github.com/kirillkom/pdf-to-excel/internal/testutil/pdffixture"
)

func testConfig(t *testing.T) config.Config {
	t.Helper()
	return config.Config{
		StoragePath:           t.TempDir(),
		RetentionDelaySeconds: 180,
		SweepIntervalSeconds:  180,
		SweepMaxAgeSeconds:    300,
		ExtractionStrategies:  "lattice,stream,layout,unicode,ocr",
		OCRLanguages:          "eng",
		HeaderKeywords:        "total",
		HeaderFillColor:       "DDEBF7",
		MaxColumnWidth:        50,
	}
}

func TestStrategiesFollowConfiguredNames(t *testing.T) {
	cfg := testConfig(t)
	cfg.ExtractionStrategies = "unicode, lattice,unicode"

	strategies, err := Strategies(cfg, nil, t.TempDir())
	if err != nil {
		t.Fatalf("Strategies() error = %v", err)
	}
	if len(strategies) != 2 {
		t.Fatalf("expected 2 strategies, got %d", len(strategies))
	}
	if strategies[0].Name() != domain.StrategyUnicodeText || strategies[1].Name() != domain.StrategyLatticeTable {
		t.Fatalf("unexpected order %s,%s", strategies[0].Name(), strategies[1].Name())
	}
}

func TestStrategiesRejectUnknownOrEmpty(t *testing.T) {
	cfg := testConfig(t)
	cfg.ExtractionStrategies = "lattice,camelot"
	if _, err := Strategies(cfg, nil, t.TempDir()); !domain.IsKind(err, domain.ErrInvalidInput) {
		t.Fatalf("expected invalid input for unknown strategy, got %v", err)
	}

	cfg.ExtractionStrategies = " , "
	if _, err := Strategies(cfg, nil, t.TempDir()); !domain.IsKind(err, domain.ErrInvalidInput) {
		t.Fatalf("expected invalid input for empty list, got %v", err)
	}
}

func TestNewConvertsTextDocument(t *testing.T) {
	cfg := testConfig(t)
	app, err := New(context.Background(), cfg, Options{Service: "test"})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	defer app.Close()

	source, err := os.Open(pdffixture.TextLines(t, t.TempDir(), "Invoice Summary", "Total   42"))
	if err != nil {
		t.Fatalf("open fixture: %v", err)
	}
	defer source.Close()

	result, err := app.Converter.Convert(context.Background(), "invoice.pdf", source)
	if err != nil {
		t.Fatalf("Convert() error = %v", err)
	}
	if result.Job.Status != domain.JobStatusCompleted {
		t.Fatalf("expected completed job, got %s", result.Job.Status)
	}
	if result.DownloadName != "invoice_converted.xlsx" {
		t.Fatalf("unexpected download name %q", result.DownloadName)
	}
	if _, err := os.Stat(app.Storage.Path(result.OutputKey)); err != nil {
		t.Fatalf("expected output artifact, got %v", err)
	}

	job, err := app.Jobs.GetByID(context.Background(), result.Job.ID)
	if err != nil {
		t.Fatalf("GetByID() error = %v", err)
	}
	if job.Rows == 0 {
		t.Fatalf("expected recorded rows")
	}
	if app.Lifecycle.Pending() == 0 {
		t.Fatalf("expected released artifacts to be scheduled for deletion")
	}
}

func TestNewConvertsRuledTableWithStyledHeader(t *testing.T) {
	app, err := New(context.Background(), testConfig(t), Options{Service: "test"})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	defer app.Close()

	source, err := os.Open(pdffixture.RuledTable(t, t.TempDir(), [][]string{
		{"Alpha", "Beta", "Gamma", "Delta"},
		{"a1", "b1", "c1", "d1"},
		{"a2", "b2", "c2", "d2"},
	}))
	if err != nil {
		t.Fatalf("open fixture: %v", err)
	}
	defer source.Close()

	result, err := app.Converter.Convert(context.Background(), "grid.pdf", source)
	if err != nil {
		t.Fatalf("Convert() error = %v", err)
	}
	if result.Job.Strategy != domain.StrategyLatticeTable {
		t.Fatalf("expected lattice strategy, got %s", result.Job.Strategy)
	}

	f, err := excelize.OpenFile(app.Storage.Path(result.OutputKey))
	if err != nil {
		t.Fatalf("OpenFile() error = %v", err)
	}
	defer f.Close()

	rows, err := f.GetRows(excel.SheetName)
	if err != nil {
		t.Fatalf("GetRows() error = %v", err)
	}
	if len(rows) != 3 || strings.Join(rows[0], "|") != "Alpha|Beta|Gamma|Delta" || strings.Join(rows[2], "|") != "a2|b2|c2|d2" {
		t.Fatalf("unexpected rows: %v", rows)
	}

	for _, cell := range []string{"A1", "D1"} {
		style := workbookStyle(t, f, cell)
		if style.Font == nil || !style.Font.Bold {
			t.Fatalf("expected bold header at %s", cell)
		}
		if len(style.Fill.Color) == 0 || !strings.HasSuffix(strings.ToUpper(style.Fill.Color[0]), "DDEBF7") {
			t.Fatalf("expected header fill at %s, got %+v", cell, style.Fill)
		}
	}
	for _, cell := range []string{"A2", "D3"} {
		style := workbookStyle(t, f, cell)
		if style.Font != nil && style.Font.Bold {
			t.Fatalf("expected plain body cell at %s", cell)
		}
		if len(style.Border) != 4 {
			t.Fatalf("expected bordered body cell at %s, got %d borders", cell, len(style.Border))
		}
	}
}

func workbookStyle(t *testing.T, f *excelize.File, cell string) *excelize.Style {
	t.Helper()
	id, err := f.GetCellStyle(excel.SheetName, cell)
	if err != nil {
		t.Fatalf("GetCellStyle(%s) error = %v", cell, err)
	}
	style, err := f.GetStyle(id)
	if err != nil {
		t.Fatalf("GetStyle(%d) error = %v", id, err)
	}
	return style
}

func TestNewReportsNoContentForBlankDocument(t *testing.T) {
	app, err := New(context.Background(), testConfig(t), Options{Service: "test"})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	defer app.Close()

	source, err := os.Open(pdffixture.Blank(t, t.TempDir(), 1))
	if err != nil {
		t.Fatalf("open fixture: %v", err)
	}
	defer source.Close()

	if _, err := app.Converter.Convert(context.Background(), "blank.pdf", source); !domain.IsKind(err, domain.ErrNoContentFound) {
		t.Fatalf("expected no content, got %v", err)
	}
}

func TestNewRejectsBrokenStyleRules(t *testing.T) {
	cfg := testConfig(t)
	cfg.StyleRulesFile = "/nonexistent/style.yaml"
	if _, err := New(context.Background(), cfg, Options{}); err == nil {
		t.Fatalf("expected bootstrap error")
	}
}
