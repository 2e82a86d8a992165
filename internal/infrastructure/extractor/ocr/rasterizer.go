package ocr

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/tsawler/tabula/reader"
)

// PageImageRasterizer writes the raster images embedded in each page. Scanned
// documents carry one full-page image per page, which is what OCR needs.
type PageImageRasterizer struct{}

func (PageImageRasterizer) Rasterize(ctx context.Context, documentPath, dir string) ([]string, error) {
	r, err := reader.Open(documentPath)
	if err != nil {
		return nil, fmt.Errorf("open pdf: %w", err)
	}
	defer r.Close()

	count, err := r.PageCount()
	if err != nil {
		return nil, fmt.Errorf("page count: %w", err)
	}
	if dir == "" {
		dir = filepath.Dir(documentPath)
	}

	prefix := uuid.NewString()
	var written []string
	for i := 0; i < count; i++ {
		if err := ctx.Err(); err != nil {
			return written, err
		}
		page, err := r.GetPage(i)
		if err != nil {
			continue
		}
		images, err := r.ExtractPageImages(page)
		if err != nil {
			return written, fmt.Errorf("page %d images: %w", i+1, err)
		}
		for j := range images {
			img := &images[j]
			data, ext, err := encode(img)
			if err != nil {
				continue
			}
			path := filepath.Join(dir, fmt.Sprintf("%s_p%03d_%02d%s", prefix, i+1, j+1, ext))
			if err := os.WriteFile(path, data, 0o644); err != nil {
				return written, fmt.Errorf("write page image: %w", err)
			}
			written = append(written, path)
		}
	}
	return written, nil
}

func encode(img *reader.PageImage) ([]byte, string, error) {
	if strings.Contains(img.Filter, "DCTDecode") {
		return img.Data, ".jpg", nil
	}
	data, err := img.ToPNG()
	if err != nil {
		return nil, "", err
	}
	return data, ".png", nil
}
