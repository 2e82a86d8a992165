package tabulapdf

import (
	"context"

	"github.com/tsawler/tabula/model"

	"github.com/kirillkom/pdf-to-excel/internal/core/domain"
)

// TableStrategy detects tables on positioned page content. The lattice
// flavour reads cell boundaries from drawn ruling lines and rectangles; the
// stream flavour infers columns from aligned left edges of text.
type TableStrategy struct {
	name        domain.StrategyName
	withRulings bool
	detect      func(page *model.Page) []domain.RowBlock
}

func NewLatticeStrategy() *TableStrategy {
	return &TableStrategy{name: domain.StrategyLatticeTable, withRulings: true, detect: latticeTables}
}

func NewStreamStrategy() *TableStrategy {
	return &TableStrategy{name: domain.StrategyStreamTable, detect: streamTables}
}

func (s *TableStrategy) Name() domain.StrategyName {
	return s.name
}

func (s *TableStrategy) Attempt(ctx context.Context, documentPath string) domain.StrategyResult {
	pdfPages, err := loadPages(ctx, documentPath, s.withRulings)
	if err != nil {
		return domain.Failed(domain.WrapError(domain.ErrExtractor, string(s.name), err))
	}

	var blocks []domain.RowBlock
	for _, page := range pdfPages {
		if err := ctx.Err(); err != nil {
			return domain.Failed(err)
		}
		if s.withRulings && len(page.RawLines) == 0 {
			continue
		}
		blocks = append(blocks, s.detect(page)...)
	}
	return domain.Found(blocks...)
}
