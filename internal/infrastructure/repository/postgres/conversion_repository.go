package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/kirillkom/pdf-to-excel/internal/core/domain"
)

// ConversionRepository stores job metadata only; converted bytes never reach
// the database.
type ConversionRepository struct {
	db *sql.DB
}

func NewConversionRepository(db *sql.DB) *ConversionRepository {
	return &ConversionRepository{db: db}
}

func OpenDB(dsn string) (*sql.DB, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("sql open: %w", err)
	}
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(10)
	db.SetConnMaxLifetime(30 * time.Minute)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("db ping: %w", err)
	}
	return db, nil
}

func (r *ConversionRepository) EnsureSchema(ctx context.Context) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin schema tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	// Serialize bootstrap DDL across replicas.
	if _, err := tx.ExecContext(ctx, `SELECT pg_advisory_xact_lock($1)`, int64(2026101401)); err != nil {
		return fmt.Errorf("acquire schema lock: %w", err)
	}

	const query = `
CREATE TABLE IF NOT EXISTS conversion_jobs (
	id TEXT PRIMARY KEY,
	filename TEXT NOT NULL,
	status TEXT NOT NULL,
	strategy TEXT NOT NULL DEFAULT '',
	content_found BOOLEAN NOT NULL DEFAULT FALSE,
	pages INTEGER NOT NULL DEFAULT 0,
	row_count INTEGER NOT NULL DEFAULT 0,
	column_count INTEGER NOT NULL DEFAULT 0,
	error_message TEXT NOT NULL DEFAULT '',
	created_at TIMESTAMPTZ NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_conversion_jobs_status ON conversion_jobs(status);
CREATE INDEX IF NOT EXISTS idx_conversion_jobs_created_at ON conversion_jobs(created_at DESC);
`
	if _, err := tx.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("execute schema ddl: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit schema tx: %w", err)
	}
	return nil
}

func (r *ConversionRepository) Create(ctx context.Context, job *domain.ConversionJob) error {
	_, err := r.db.ExecContext(ctx, `
INSERT INTO conversion_jobs (
	id, filename, status, strategy, content_found, pages, row_count, column_count, error_message, created_at, updated_at
) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)
`,
		job.ID, job.Filename, string(job.Status), string(job.Strategy), job.ContentFound,
		job.Pages, job.Rows, job.Columns, job.Error, job.CreatedAt, job.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert conversion job: %w", err)
	}
	return nil
}

func (r *ConversionRepository) UpdateOutcome(ctx context.Context, job *domain.ConversionJob) error {
	res, err := r.db.ExecContext(ctx, `
UPDATE conversion_jobs
SET status = $2, strategy = $3, content_found = $4, pages = $5, row_count = $6, column_count = $7, error_message = $8, updated_at = $9
WHERE id = $1
`,
		job.ID, string(job.Status), string(job.Strategy), job.ContentFound,
		job.Pages, job.Rows, job.Columns, job.Error, job.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("update conversion job: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update conversion job rows affected: %w", err)
	}
	if affected == 0 {
		return domain.WrapError(domain.ErrJobNotFound, "update conversion job", fmt.Errorf("id=%s", job.ID))
	}
	return nil
}

func (r *ConversionRepository) GetByID(ctx context.Context, id string) (*domain.ConversionJob, error) {
	row := r.db.QueryRowContext(ctx, `
SELECT id, filename, status, strategy, content_found, pages, row_count, column_count, error_message, created_at, updated_at
FROM conversion_jobs
WHERE id = $1
`, id)

	var job domain.ConversionJob
	var status, strategy string
	err := row.Scan(
		&job.ID, &job.Filename, &status, &strategy, &job.ContentFound,
		&job.Pages, &job.Rows, &job.Columns, &job.Error, &job.CreatedAt, &job.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.WrapError(domain.ErrJobNotFound, "get conversion job", fmt.Errorf("id=%s", id))
		}
		return nil, fmt.Errorf("scan conversion job: %w", err)
	}
	job.Status = domain.JobStatus(status)
	job.Strategy = domain.StrategyName(strategy)
	return &job, nil
}
