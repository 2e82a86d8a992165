package ports

import (
	"context"
	"io"

	"github.com/kirillkom/pdf-to-excel/internal/core/domain"
)

// PDFConverter is the inbound contract for one PDF to spreadsheet conversion.
type PDFConverter interface {
	Convert(ctx context.Context, filename string, body io.Reader) (*domain.ConversionResult, error)
}

// ConversionReader is the inbound read model for conversion job state.
type ConversionReader interface {
	GetByID(ctx context.Context, id string) (*domain.ConversionJob, error)
}
