package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/internhub/internhub-api/internal/models"
)

const documentJobColumns = `id, kind, entity_id, format, status, progress,
       result_url, error_message, created_by, created_at, finished_at`

// DocumentJobRepository persists async render jobs.
type DocumentJobRepository struct {
	db *sqlx.DB
}

// NewDocumentJobRepository constructs the repository.
func NewDocumentJobRepository(db *sqlx.DB) *DocumentJobRepository {
	return &DocumentJobRepository{db: db}
}

// Create inserts a new render job.
func (r *DocumentJobRepository) Create(ctx context.Context, job *models.DocumentJob) error {
	if job.ID == "" {
		job.ID = uuid.NewString()
	}
	if job.Status == "" {
		job.Status = models.DocumentJobQueued
	}
	if job.CreatedAt.IsZero() {
		job.CreatedAt = time.Now().UTC()
	}
	const query = `INSERT INTO document_jobs
	(id, kind, entity_id, format, status, progress, created_by, created_at)
	VALUES (:id, :kind, :entity_id, :format, :status, :progress, :created_by, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, job); err != nil {
		return fmt.Errorf("create document job: %w", err)
	}
	return nil
}

// GetByID fetches a job by identifier.
func (r *DocumentJobRepository) GetByID(ctx context.Context, id string) (*models.DocumentJob, error) {
	query := fmt.Sprintf(`SELECT %s FROM document_jobs WHERE id = $1`, documentJobColumns)
	var job models.DocumentJob
	if err := r.db.GetContext(ctx, &job, query, id); err != nil {
		return nil, err
	}
	return &job, nil
}

// UpdateDocumentJobParams groups mutable job columns.
type UpdateDocumentJobParams struct {
	Status       *models.DocumentJobStatus
	Progress     *int
	ResultURL    *string
	ErrorMessage *string
	FinishedAt   *time.Time
}

// Update persists job progress changes.
func (r *DocumentJobRepository) Update(ctx context.Context, id string, params UpdateDocumentJobParams) error {
	setParts := make([]string, 0, 5)
	args := map[string]interface{}{"id": id}
	if params.Status != nil {
		setParts = append(setParts, "status = :status")
		args["status"] = *params.Status
	}
	if params.Progress != nil {
		setParts = append(setParts, "progress = :progress")
		args["progress"] = *params.Progress
	}
	if params.ResultURL != nil {
		setParts = append(setParts, "result_url = :result_url")
		args["result_url"] = *params.ResultURL
	}
	if params.ErrorMessage != nil {
		setParts = append(setParts, "error_message = :error_message")
		args["error_message"] = *params.ErrorMessage
	}
	if params.FinishedAt != nil {
		setParts = append(setParts, "finished_at = :finished_at")
		args["finished_at"] = *params.FinishedAt
	}
	if len(setParts) == 0 {
		return nil
	}
	query := fmt.Sprintf("UPDATE document_jobs SET %s WHERE id = :id", strings.Join(setParts, ", "))
	result, err := r.db.NamedExecContext(ctx, query, args)
	if err != nil {
		return fmt.Errorf("update document job: %w", err)
	}
	return requireRowsAffected(result)
}

// ListQueued returns jobs awaiting processing, oldest first.
func (r *DocumentJobRepository) ListQueued(ctx context.Context, limit int) ([]models.DocumentJob, error) {
	if limit <= 0 {
		limit = 50
	}
	query := fmt.Sprintf(`SELECT %s FROM document_jobs WHERE status = $1
	ORDER BY created_at ASC LIMIT %d`, documentJobColumns, limit)
	var jobs []models.DocumentJob
	if err := r.db.SelectContext(ctx, &jobs, query, models.DocumentJobQueued); err != nil {
		return nil, fmt.Errorf("list queued document jobs: %w", err)
	}
	return jobs, nil
}

// ListFinishedBefore returns finished jobs older than the cutoff for cleanup.
func (r *DocumentJobRepository) ListFinishedBefore(ctx context.Context, cutoff time.Time, limit int) ([]models.DocumentJob, error) {
	if limit <= 0 {
		limit = 100
	}
	query := fmt.Sprintf(`SELECT %s FROM document_jobs
	WHERE status = $1 AND finished_at < $2
	ORDER BY finished_at ASC LIMIT %d`, documentJobColumns, limit)
	var jobs []models.DocumentJob
	if err := r.db.SelectContext(ctx, &jobs, query, models.DocumentJobFinished, cutoff); err != nil {
		return nil, fmt.Errorf("list finished document jobs: %w", err)
	}
	return jobs, nil
}
