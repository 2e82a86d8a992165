package pdfcpu

import (
	"context"
	"fmt"
	"os"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"

	"github.com/kirillkom/pdf-to-excel/internal/core/domain"
)

// Inspector reads structural metadata with pdfcpu in relaxed validation mode.
type Inspector struct {
	conf *model.Configuration
}

func New() *Inspector {
	conf := model.NewDefaultConfiguration()
	conf.ValidationMode = model.ValidationRelaxed
	return &Inspector{conf: conf}
}

func (i *Inspector) Inspect(ctx context.Context, path string) (domain.DocumentInfo, error) {
	if err := ctx.Err(); err != nil {
		return domain.DocumentInfo{}, err
	}
	f, err := os.Open(path)
	if err != nil {
		return domain.DocumentInfo{}, fmt.Errorf("open pdf: %w", err)
	}
	defer f.Close()

	pdfCtx, err := api.ReadValidateAndOptimize(f, i.conf)
	if err != nil {
		return domain.DocumentInfo{}, domain.WrapError(domain.ErrInvalidInput, "inspect pdf", err)
	}

	return domain.DocumentInfo{
		Pages:     pdfCtx.PageCount,
		Encrypted: pdfCtx.Encrypt != nil,
		Version:   pdfCtx.XRefTable.VersionString(),
	}, nil
}
