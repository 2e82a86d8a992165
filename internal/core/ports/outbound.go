package ports

import (
	"context"
	"io"
	"time"

	"github.com/kirillkom/pdf-to-excel/internal/core/domain"
)

// ExtractionStrategy turns a PDF into rows. Implementations must not modify the
// source document and report failures through the result, not by panicking.
type ExtractionStrategy interface {
	Name() domain.StrategyName
	Attempt(ctx context.Context, documentPath string) domain.StrategyResult
}

// ObjectStorage stores transient conversion artifacts.
type ObjectStorage interface {
	Save(ctx context.Context, key string, data io.Reader) error
	Open(ctx context.Context, key string) (io.ReadCloser, error)
	Path(key string) string
}

// ArtifactGuard protects transient files while a job owns them.
type ArtifactGuard interface {
	Protect(paths ...string)
	Release(paths ...string)
}

// SpreadsheetWriter persists a sheet to outputPath.
type SpreadsheetWriter interface {
	Write(ctx context.Context, outputPath string, sheet domain.Sheet) (domain.SheetStats, error)
}

// DocumentInspector reads structural metadata of a PDF.
type DocumentInspector interface {
	Inspect(ctx context.Context, path string) (domain.DocumentInfo, error)
}

// ConversionRepository persists conversion job state.
type ConversionRepository interface {
	Create(ctx context.Context, job *domain.ConversionJob) error
	UpdateOutcome(ctx context.Context, job *domain.ConversionJob) error
	GetByID(ctx context.Context, id string) (*domain.ConversionJob, error)
}

// EventPublisher announces finished conversions.
type EventPublisher interface {
	PublishConversionCompleted(ctx context.Context, event domain.ConversionEvent) error
}

// ConversionRecorder receives conversion and extraction observations.
type ConversionRecorder interface {
	ObserveStrategyAttempt(strategy domain.StrategyName, outcome domain.Outcome, duration time.Duration)
	ObserveConversion(strategy domain.StrategyName, status domain.JobStatus, duration time.Duration)
}
