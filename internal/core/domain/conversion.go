package domain

import "time"

const SpreadsheetMimeType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

type JobStatus string

const (
	JobStatusReceived  JobStatus = "received"
	JobStatusCompleted JobStatus = "completed"
	JobStatusNoContent JobStatus = "no_content"
	JobStatusFailed    JobStatus = "failed"
)

type ConversionJob struct {
	ID           string       `json:"id"`
	Filename     string       `json:"filename"`
	InputPath    string       `json:"-"`
	OutputPath   string       `json:"-"`
	ContentFound bool         `json:"content_found"`
	Status       JobStatus    `json:"status"`
	Strategy     StrategyName `json:"strategy,omitempty"`
	Pages        int          `json:"pages,omitempty"`
	Rows         int          `json:"rows"`
	Columns      int          `json:"columns"`
	Error        string       `json:"error,omitempty"`
	CreatedAt    time.Time    `json:"created_at"`
	UpdatedAt    time.Time    `json:"updated_at"`
}

type ConversionResult struct {
	Job          ConversionJob
	OutputKey    string
	DownloadName string
	MimeType     string
}

type ConversionEvent struct {
	JobID     string       `json:"job_id"`
	Filename  string       `json:"filename"`
	Status    JobStatus    `json:"status"`
	Strategy  StrategyName `json:"strategy,omitempty"`
	Rows      int          `json:"rows"`
	Columns   int          `json:"columns"`
	Error     string       `json:"error,omitempty"`
	Timestamp time.Time    `json:"timestamp"`
}

// DocumentInfo is structural metadata read from the uploaded PDF.
type DocumentInfo struct {
	Pages     int
	Encrypted bool
	Version   string
}
