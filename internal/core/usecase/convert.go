package usecase

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/kirillkom/pdf-to-excel/internal/core/domain"
	"github.com/kirillkom/pdf-to-excel/internal/core/ports"
)

const downloadSuffix = "_converted.xlsx"

type ConvertDependencies struct {
	Storage    ports.ObjectStorage
	Guard      ports.ArtifactGuard
	Chain      *ExtractionChain
	Writer     ports.SpreadsheetWriter
	Jobs       ports.ConversionRepository
	Events     ports.EventPublisher
	Inspector  ports.DocumentInspector
	Recorder   ports.ConversionRecorder
	HeaderRule domain.HeaderRule
}

type ConvertUseCase struct {
	storage    ports.ObjectStorage
	guard      ports.ArtifactGuard
	chain      *ExtractionChain
	writer     ports.SpreadsheetWriter
	jobs       ports.ConversionRepository
	events     ports.EventPublisher
	inspector  ports.DocumentInspector
	recorder   ports.ConversionRecorder
	headerRule domain.HeaderRule
	now        func() time.Time
}

func NewConvertUseCase(deps ConvertDependencies) *ConvertUseCase {
	recorder := deps.Recorder
	if recorder == nil {
		recorder = noopRecorder{}
	}
	return &ConvertUseCase{
		storage:    deps.Storage,
		guard:      deps.Guard,
		chain:      deps.Chain,
		writer:     deps.Writer,
		jobs:       deps.Jobs,
		events:     deps.Events,
		inspector:  deps.Inspector,
		recorder:   recorder,
		headerRule: deps.HeaderRule,
		now:        func() time.Time { return time.Now().UTC() },
	}
}

// inFlightTracker is implemented by recorders that also gauge running conversions.
type inFlightTracker interface {
	StartConversion()
	FinishConversion()
}

func (uc *ConvertUseCase) Convert(ctx context.Context, filename string, body io.Reader) (*domain.ConversionResult, error) {
	start := time.Now()
	if tracker, ok := uc.recorder.(inFlightTracker); ok {
		tracker.StartConversion()
		defer tracker.FinishConversion()
	}
	id := uuid.NewString()
	safeName := sanitizeFilename(filename)
	inputKey := fmt.Sprintf("%s_%s", id, safeName)
	outputKey := fmt.Sprintf("%s%s", id, downloadSuffix)
	now := uc.now()

	job := &domain.ConversionJob{
		ID:         id,
		Filename:   filename,
		InputPath:  uc.storage.Path(inputKey),
		OutputPath: uc.storage.Path(outputKey),
		Status:     domain.JobStatusReceived,
		CreatedAt:  now,
		UpdatedAt:  now,
	}

	uc.guard.Protect(job.InputPath, job.OutputPath)
	defer uc.guard.Release(job.InputPath, job.OutputPath)

	uc.recordCreated(ctx, job)
	if err := uc.storage.Save(ctx, inputKey, body); err != nil {
		err = fmt.Errorf("save upload: %w", err)
		uc.finish(ctx, job, start, err)
		return nil, err
	}
	uc.inspect(ctx, job)

	extraction, err := uc.chain.Extract(ctx, job.InputPath)
	if err != nil {
		uc.finish(ctx, job, start, err)
		return nil, err
	}
	job.ContentFound = true
	job.Strategy = extraction.Strategy

	sheet := domain.BuildSheet(extraction.Blocks, uc.headerRule)
	stats, err := uc.writer.Write(ctx, job.OutputPath, sheet)
	if err != nil {
		if !domain.IsKind(err, domain.ErrWriteFailure) {
			err = domain.WrapError(domain.ErrWriteFailure, "write spreadsheet", err)
		}
		uc.finish(ctx, job, start, err)
		return nil, err
	}
	job.Rows = stats.Rows
	job.Columns = stats.Columns
	uc.finish(ctx, job, start, nil)

	return &domain.ConversionResult{
		Job:          *job,
		OutputKey:    outputKey,
		DownloadName: downloadName(filename),
		MimeType:     domain.SpreadsheetMimeType,
	}, nil
}

func (uc *ConvertUseCase) inspect(ctx context.Context, job *domain.ConversionJob) {
	if uc.inspector == nil {
		return
	}
	info, err := uc.inspector.Inspect(ctx, job.InputPath)
	if err != nil {
		slog.Warn("document_inspect_failed", "job_id", job.ID, "error", err)
		return
	}
	job.Pages = info.Pages
	slog.Info("document_inspected",
		"job_id", job.ID,
		"pages", info.Pages,
		"encrypted", info.Encrypted,
		"pdf_version", info.Version,
	)
}

func (uc *ConvertUseCase) recordCreated(ctx context.Context, job *domain.ConversionJob) {
	if uc.jobs == nil {
		return
	}
	if err := uc.jobs.Create(ctx, job); err != nil {
		slog.Warn("conversion_job_create_failed", "job_id", job.ID, "error", err)
	}
}

// finish settles job status and emits observations; it never fails the request.
func (uc *ConvertUseCase) finish(ctx context.Context, job *domain.ConversionJob, start time.Time, convErr error) {
	switch {
	case convErr == nil:
		job.Status = domain.JobStatusCompleted
	case domain.IsKind(convErr, domain.ErrNoContentFound):
		job.Status = domain.JobStatusNoContent
		job.Error = convErr.Error()
	default:
		job.Status = domain.JobStatusFailed
		job.Error = convErr.Error()
	}
	job.UpdatedAt = uc.now()
	elapsed := time.Since(start)

	uc.recorder.ObserveConversion(job.Strategy, job.Status, elapsed)

	if uc.jobs != nil {
		if err := uc.jobs.UpdateOutcome(ctx, job); err != nil {
			slog.Warn("conversion_job_update_failed", "job_id", job.ID, "error", err)
		}
	}

	if uc.events != nil {
		event := domain.ConversionEvent{
			JobID:     job.ID,
			Filename:  job.Filename,
			Status:    job.Status,
			Strategy:  job.Strategy,
			Rows:      job.Rows,
			Columns:   job.Columns,
			Error:     job.Error,
			Timestamp: job.UpdatedAt,
		}
		if err := uc.events.PublishConversionCompleted(ctx, event); err != nil {
			slog.Warn("conversion_event_publish_failed", "job_id", job.ID, "error", err)
		}
	}

	attrs := []any{
		"job_id", job.ID,
		"status", job.Status,
		"strategy", job.Strategy,
		"rows", job.Rows,
		"columns", job.Columns,
		"duration_ms", float64(elapsed.Microseconds()) / 1000.0,
	}
	switch job.Status {
	case domain.JobStatusCompleted:
		slog.Info("conversion_finished", attrs...)
	case domain.JobStatusNoContent:
		slog.Warn("conversion_finished", append(attrs, "error", convErr)...)
	default:
		slog.Error("conversion_finished", append(attrs, "error", convErr)...)
	}
}

func downloadName(filename string) string {
	base := sanitizeFilename(filename)
	base = strings.TrimSuffix(base, filepath.Ext(base))
	if base == "" || base == "document" {
		return "converted.xlsx"
	}
	return base + downloadSuffix
}

func sanitizeFilename(name string) string {
	base := filepath.Base(strings.ReplaceAll(name, "\\", "/"))
	base = strings.ReplaceAll(base, " ", "_")
	base = strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z':
			return r
		case r >= 'A' && r <= 'Z':
			return r
		case r >= '0' && r <= '9':
			return r
		case r == '.', r == '-', r == '_':
			return r
		default:
			return '_'
		}
	}, base)
	base = strings.TrimLeft(base, ".")
	if base == "" {
		return "document.pdf"
	}
	return base
}
