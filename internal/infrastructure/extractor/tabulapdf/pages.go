package tabulapdf

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/tsawler/tabula/core"
	"github.com/tsawler/tabula/graphicsstate"
	"github.com/tsawler/tabula/model"
	"github.com/tsawler/tabula/pages"
	"github.com/tsawler/tabula/reader"
)

// loadPages parses every page into a model.Page carrying positioned text and,
// when withRulings is set, the ruling lines and rectangles drawn on it.
func loadPages(ctx context.Context, path string, withRulings bool) ([]*model.Page, error) {
	r, err := reader.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open pdf: %w", err)
	}
	defer r.Close()

	count, err := r.PageCount()
	if err != nil {
		return nil, fmt.Errorf("page count: %w", err)
	}

	out := make([]*model.Page, 0, count)
	for i := 0; i < count; i++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		page, err := r.GetPage(i)
		if err != nil {
			slog.Debug("tabula_page_skipped", "page", i+1, "error", err)
			continue
		}

		width, _ := page.Width()
		height, _ := page.Height()
		mp := model.NewPage(width, height)
		mp.Number = i + 1

		fragments, err := r.ExtractTextFragments(page)
		if err != nil {
			slog.Debug("tabula_text_failed", "page", mp.Number, "error", err)
		}
		for _, f := range fragments {
			mp.RawText = append(mp.RawText, model.TextFragment{
				Text:     f.Text,
				BBox:     model.BBox{X: f.X, Y: f.Y, Width: f.Width, Height: f.Height},
				FontSize: f.FontSize,
				FontName: f.FontName,
			})
		}

		if withRulings {
			mp.RawLines = rulings(page)
		}
		out = append(out, mp)
	}
	return out, nil
}

func rulings(page *pages.Page) []model.Line {
	contents, err := page.Contents()
	if err != nil || len(contents) == 0 {
		return nil
	}
	var data []byte
	for _, obj := range contents {
		stream, ok := obj.(*core.Stream)
		if !ok {
			continue
		}
		decoded, err := stream.Decode()
		if err != nil {
			return nil
		}
		data = append(data, decoded...)
		data = append(data, '\n')
	}
	if len(data) == 0 {
		return nil
	}

	ge := graphicsstate.NewGraphicsExtractor()
	if err := ge.ExtractFromBytes(data); err != nil {
		return nil
	}
	return append(ge.ToModelLines(), ge.ToModelRectangles()...)
}
