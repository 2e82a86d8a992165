package tabulapdf

import (
	"context"

	"github.com/tsawler/tabula"

	"github.com/kirillkom/pdf-to-excel/internal/core/domain"
)

// LayoutTextStrategy reads page text with spatial layout preserved so column
// gaps survive as runs of spaces for the line splitter.
type LayoutTextStrategy struct{}

func NewLayoutTextStrategy() *LayoutTextStrategy {
	return &LayoutTextStrategy{}
}

func (s *LayoutTextStrategy) Name() domain.StrategyName {
	return domain.StrategyLayoutText
}

func (s *LayoutTextStrategy) Attempt(ctx context.Context, documentPath string) domain.StrategyResult {
	if err := ctx.Err(); err != nil {
		return domain.Failed(err)
	}
	text, _, err := tabula.Open(documentPath).PreserveLayout().Text()
	if err != nil {
		return domain.Failed(domain.WrapError(domain.ErrExtractor, string(domain.StrategyLayoutText), err))
	}
	return domain.Found(domain.TextBlock(text))
}
