package httpadapter

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/kirillkom/pdf-to-excel/internal/config"
	"github.com/kirillkom/pdf-to-excel/internal/core/domain"
	"github.com/kirillkom/pdf-to-excel/internal/core/ports"
	"github.com/kirillkom/pdf-to-excel/internal/observability/metrics"
)

const (
	msgNoFile        = "No file uploaded"
	msgNoContent     = "No extractable content found in PDF."
	msgFailed        = "Conversion failed."
	msgTooLarge      = "Uploaded file is too large."
	msgInvalidPDF    = "Uploaded file is not a readable PDF."
	msgUnavailable   = "Service temporarily unavailable."
	msgStatusRunning = "PDF to Excel API is running"
)

// RouterDeps are the collaborators behind the HTTP surface. Metrics is optional.
type RouterDeps struct {
	Converter ports.PDFConverter
	Jobs      ports.ConversionReader
	Artifacts ports.ObjectStorage
	Guard     ports.ArtifactGuard
	Metrics   *metrics.HTTPServerMetrics
}

type Router struct {
	converter ports.PDFConverter
	jobs      ports.ConversionReader
	artifacts ports.ObjectStorage
	guard     ports.ArtifactGuard
	metrics   *metrics.HTTPServerMetrics

	maxUploadBytes    int64
	rateLimitRPS      float64
	rateLimitBurst    int
	maxConcurrent     int
	backpressureWait  time.Duration
	legacyRouteEnable bool
}

func NewRouter(cfg config.Config, deps RouterDeps) *Router {
	return &Router{
		converter:         deps.Converter,
		jobs:              deps.Jobs,
		artifacts:         deps.Artifacts,
		guard:             deps.Guard,
		metrics:           deps.Metrics,
		maxUploadBytes:    int64(cfg.MaxUploadMB) << 20,
		rateLimitRPS:      cfg.APIRateLimitRPS,
		rateLimitBurst:    cfg.APIRateLimitBurst,
		maxConcurrent:     cfg.APIMaxConcurrentConversions,
		backpressureWait:  time.Duration(cfg.APIBackpressureWaitMS) * time.Millisecond,
		legacyRouteEnable: cfg.LegacyRouteEnabled,
	}
}

func (rt *Router) Handler() http.Handler {
	convert := http.Handler(http.HandlerFunc(rt.convert))
	convert = backpressureMiddleware(convert, rt.maxConcurrent, rt.backpressureWait, rt.rejected)

	mux := http.NewServeMux()
	mux.HandleFunc("GET /{$}", rt.status)
	mux.HandleFunc("GET /healthz", rt.healthz)
	mux.Handle("POST /v1/conversions", convert)
	if rt.legacyRouteEnable {
		mux.Handle("POST /convert", convert)
	}
	mux.HandleFunc("GET /v1/conversions/{id}", rt.getConversionByID)
	if rt.metrics != nil {
		mux.Handle("GET /metrics", rt.metrics.Handler())
	}

	var handler http.Handler = mux
	handler = rateLimitMiddleware(handler, rt.rateLimitRPS, rt.rateLimitBurst, rt.rejected)
	if rt.metrics != nil {
		handler = rt.metrics.Middleware("api", handler)
	}
	handler = accessLogMiddleware(handler)
	return requestIDMiddleware(handler)
}

func (rt *Router) rejected(reason string) {
	if rt.metrics != nil {
		rt.metrics.RecordRejected("api", reason)
	}
}

func (rt *Router) status(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": msgStatusRunning})
}

func (rt *Router) healthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (rt *Router) convert(w http.ResponseWriter, r *http.Request) {
	if rt.maxUploadBytes > 0 {
		if r.ContentLength > rt.maxUploadBytes {
			writeError(w, http.StatusRequestEntityTooLarge, msgTooLarge)
			return
		}
		r.Body = http.MaxBytesReader(w, r.Body, rt.maxUploadBytes)
	}

	file, fileHeader, err := r.FormFile("file")
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, msgTooLarge)
			return
		}
		writeError(w, http.StatusBadRequest, msgNoFile)
		return
	}
	defer file.Close()
	if strings.TrimSpace(fileHeader.Filename) == "" {
		writeError(w, http.StatusBadRequest, msgNoFile)
		return
	}

	result, err := rt.converter.Convert(r.Context(), fileHeader.Filename, file)
	if err != nil {
		status := mapErrorToHTTPStatus(err)
		slog.Warn("conversion_request_failed",
			"request_id", requestIDFromContext(r.Context()),
			"filename", fileHeader.Filename,
			"status", status,
			"error", err,
		)
		writeError(w, status, conversionErrorMessage(err, status))
		return
	}

	if err := rt.streamArtifact(w, r, result); err != nil {
		slog.Error("conversion_download_failed",
			"request_id", requestIDFromContext(r.Context()),
			"conversion_id", result.Job.ID,
			"error", err,
		)
	}
}

// streamArtifact keeps the output protected from reclamation while the body is
// being copied to the client.
func (rt *Router) streamArtifact(w http.ResponseWriter, r *http.Request, result *domain.ConversionResult) error {
	if rt.guard != nil {
		path := rt.artifacts.Path(result.OutputKey)
		rt.guard.Protect(path)
		defer rt.guard.Release(path)
	}

	body, err := rt.artifacts.Open(r.Context(), result.OutputKey)
	if err != nil {
		writeError(w, http.StatusInternalServerError, msgFailed)
		return fmt.Errorf("open artifact %s: %w", result.OutputKey, err)
	}
	defer body.Close()

	mimeType := result.MimeType
	if mimeType == "" {
		mimeType = domain.SpreadsheetMimeType
	}
	w.Header().Set("Content-Type", mimeType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", result.DownloadName))
	w.Header().Set("X-Conversion-Id", result.Job.ID)
	w.Header().Set("X-Extraction-Strategy", string(result.Job.Strategy))
	w.WriteHeader(http.StatusOK)

	if _, err := io.Copy(w, body); err != nil {
		return fmt.Errorf("copy artifact: %w", err)
	}
	return nil
}

func (rt *Router) getConversionByID(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimSpace(r.PathValue("id"))
	if id == "" {
		writeError(w, http.StatusBadRequest, "conversion id is required")
		return
	}

	job, err := rt.jobs.GetByID(r.Context(), id)
	if err != nil {
		status := mapErrorToHTTPStatus(err)
		message := msgFailed
		if status == http.StatusNotFound {
			message = "conversion not found"
		}
		writeError(w, status, message)
		return
	}
	writeJSON(w, http.StatusOK, job)
}

func conversionErrorMessage(err error, status int) string {
	switch {
	case domain.IsKind(err, domain.ErrNoContentFound):
		return msgNoContent
	case status == http.StatusBadRequest:
		return msgInvalidPDF
	case status == http.StatusServiceUnavailable:
		return msgUnavailable
	default:
		return msgFailed
	}
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
