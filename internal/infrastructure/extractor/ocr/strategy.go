// Package ocr recognizes text in scanned PDFs. Page images are written to the
// scratch directory as transient artifacts, recognized, and split into rows
// line by line.
package ocr

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/kirillkom/pdf-to-excel/internal/core/domain"
	"github.com/kirillkom/pdf-to-excel/internal/core/ports"
)

// ErrEngineUnavailable is returned when the binary was built without OCR support.
var ErrEngineUnavailable = errors.New("ocr engine not available; rebuild with -tags ocr")

// Rasterizer renders the pages of a document to image files inside dir.
type Rasterizer interface {
	Rasterize(ctx context.Context, documentPath, dir string) ([]string, error)
}

// Recognizer turns one image file into text.
type Recognizer interface {
	Recognize(ctx context.Context, imagePath string) (string, error)
	Close() error
}

// EngineFactory opens a recognizer for the given language set.
type EngineFactory func(languages []string) (Recognizer, error)

type Options struct {
	Languages  []string
	ScratchDir string
	Rasterizer Rasterizer
	Engine     EngineFactory
	Guard      ports.ArtifactGuard
}

type Strategy struct {
	languages  []string
	scratchDir string
	rasterizer Rasterizer
	engine     EngineFactory
	guard      ports.ArtifactGuard
}

func New(opts Options) *Strategy {
	languages := make([]string, 0, len(opts.Languages))
	for _, lang := range opts.Languages {
		if lang = strings.TrimSpace(lang); lang != "" {
			languages = append(languages, lang)
		}
	}
	if len(languages) == 0 {
		languages = []string{"eng"}
	}
	if opts.Rasterizer == nil {
		opts.Rasterizer = PageImageRasterizer{}
	}
	if opts.Engine == nil {
		opts.Engine = NewTesseract
	}
	if opts.Guard == nil {
		opts.Guard = nopGuard{}
	}
	return &Strategy{
		languages:  languages,
		scratchDir: opts.ScratchDir,
		rasterizer: opts.Rasterizer,
		engine:     opts.Engine,
		guard:      opts.Guard,
	}
}

func (s *Strategy) Name() domain.StrategyName {
	return domain.StrategyOCR
}

func (s *Strategy) Languages() []string {
	return append([]string(nil), s.languages...)
}

func (s *Strategy) Attempt(ctx context.Context, documentPath string) domain.StrategyResult {
	engine, err := s.engine(s.languages)
	if err != nil {
		return domain.Failed(domain.WrapError(domain.ErrExtractor, "ocr engine", err))
	}
	defer engine.Close()

	images, err := s.rasterizer.Rasterize(ctx, documentPath, s.scratchDir)
	s.guard.Protect(images...)
	defer s.guard.Release(images...)
	if err != nil {
		return domain.Failed(domain.WrapError(domain.ErrExtractor, "rasterize pages", err))
	}

	blocks := make([]domain.RowBlock, 0, len(images))
	for i, image := range images {
		if err := ctx.Err(); err != nil {
			return domain.Failed(err)
		}
		text, err := engine.Recognize(ctx, image)
		if err != nil {
			return domain.Failed(domain.WrapError(domain.ErrExtractor, fmt.Sprintf("recognize image %d", i+1), err))
		}
		blocks = append(blocks, domain.TextBlock(text))
	}

	slog.Debug("ocr_pages_recognized",
		"images", len(images),
		"languages", strings.Join(s.languages, "+"),
		"rows", domain.CountRows(blocks),
	)
	return domain.Found(blocks...)
}

type nopGuard struct{}

func (nopGuard) Protect(...string) {}
func (nopGuard) Release(...string) {}
