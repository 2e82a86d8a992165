package bootstrap

import (
	"fmt"
	"log/slog"

	"github.com/kirillkom/pdf-to-excel/internal/config"
	"github.com/kirillkom/pdf-to-excel/internal/core/domain"
	"github.com/kirillkom/pdf-to-excel/internal/core/ports"
	"github.com/kirillkom/pdf-to-excel/internal/infrastructure/extractor/ocr"
	"github.com/kirillkom/pdf-to-excel/internal/infrastructure/extractor/tabulapdf"
	"github.com/kirillkom/pdf-to-excel/internal/infrastructure/extractor/unicodetext"
)

// Strategies builds the configured extraction strategies. OCR page images are
// written to scratchDir under guard.
func Strategies(cfg config.Config, guard ports.ArtifactGuard, scratchDir string) ([]ports.ExtractionStrategy, error) {
	names, err := domain.ParseStrategies(cfg.ExtractionStrategies)
	if err != nil {
		return nil, err
	}
	if len(names) == 0 {
		return nil, domain.WrapError(domain.ErrInvalidInput, "build strategies", fmt.Errorf("no extraction strategies configured"))
	}

	strategies := make([]ports.ExtractionStrategy, 0, len(names))
	for _, name := range names {
		switch name {
		case domain.StrategyLatticeTable:
			strategies = append(strategies, tabulapdf.NewLatticeStrategy())
		case domain.StrategyStreamTable:
			strategies = append(strategies, tabulapdf.NewStreamStrategy())
		case domain.StrategyLayoutText:
			strategies = append(strategies, tabulapdf.NewLayoutTextStrategy())
		case domain.StrategyUnicodeText:
			strategies = append(strategies, unicodetext.New())
		case domain.StrategyOCR:
			if !ocr.Available() {
				slog.Warn("ocr_engine_unavailable", "hint", "build with -tags ocr to enable tesseract")
			}
			strategies = append(strategies, ocr.New(ocr.Options{
				Languages:  config.SplitList(cfg.OCRLanguages),
				ScratchDir: scratchDir,
				Guard:      guard,
			}))
		}
	}
	return strategies, nil
}
