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

const progressColumns = `id, student_id, student_name, roll_number, company_id, company_name,
       supervisor_id, supervisor_name, tasks_assigned, progress_made, hours_worked,
       quality_of_work, areas_of_improvement, next_goals, remarks,
       status, supervisor_feedback, reviewed_at, created_at, updated_at`

// ProgressRepository persists progress reports.
type ProgressRepository struct {
	db *sqlx.DB
}

// NewProgressRepository constructs the repository.
func NewProgressRepository(db *sqlx.DB) *ProgressRepository {
	return &ProgressRepository{db: db}
}

// Create inserts the report behind the shared hired-relationship guard.
func (r *ProgressRepository) Create(ctx context.Context, report *models.ProgressReport) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin progress tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	if err := lockHiredRelationship(ctx, tx, report.CompanyID, report.StudentID); err != nil {
		return err
	}

	if report.ID == "" {
		report.ID = uuid.NewString()
	}
	if report.Status == "" {
		report.Status = models.ProgressSubmitted
	}
	now := time.Now().UTC()
	report.CreatedAt = now
	report.UpdatedAt = now
	const query = `INSERT INTO progress_reports
	(id, student_id, student_name, roll_number, company_id, company_name, supervisor_id,
	 supervisor_name, tasks_assigned, progress_made, hours_worked, quality_of_work,
	 areas_of_improvement, next_goals, remarks, status, created_at, updated_at)
	VALUES (:id, :student_id, :student_name, :roll_number, :company_id, :company_name, :supervisor_id,
	 :supervisor_name, :tasks_assigned, :progress_made, :hours_worked, :quality_of_work,
	 :areas_of_improvement, :next_goals, :remarks, :status, :created_at, :updated_at)`
	if _, err := tx.NamedExecContext(ctx, query, report); err != nil {
		return fmt.Errorf("create progress report: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit progress tx: %w", err)
	}
	return nil
}

// GetByID fetches a report by identifier.
func (r *ProgressRepository) GetByID(ctx context.Context, id string) (*models.ProgressReport, error) {
	query := fmt.Sprintf(`SELECT %s FROM progress_reports WHERE id = $1`, progressColumns)
	var report models.ProgressReport
	if err := r.db.GetContext(ctx, &report, query, id); err != nil {
		return nil, err
	}
	return &report, nil
}

// List returns reports matching the filter (newest first).
func (r *ProgressRepository) List(ctx context.Context, filter models.ProgressFilter) ([]models.ProgressReport, error) {
	builder := strings.Builder{}
	builder.WriteString(fmt.Sprintf("SELECT %s FROM progress_reports", progressColumns))

	args := make([]interface{}, 0, 4)
	conditions := make([]string, 0, 4)
	if filter.StudentID != "" {
		args = append(args, filter.StudentID)
		conditions = append(conditions, fmt.Sprintf("student_id = $%d", len(args)))
	}
	if filter.CompanyID != "" {
		args = append(args, filter.CompanyID)
		conditions = append(conditions, fmt.Sprintf("company_id = $%d", len(args)))
	}
	if filter.SupervisorID != "" {
		args = append(args, filter.SupervisorID)
		conditions = append(conditions, fmt.Sprintf("supervisor_id = $%d", len(args)))
	}
	if filter.Status != "" {
		args = append(args, filter.Status)
		conditions = append(conditions, fmt.Sprintf("status = $%d", len(args)))
	}
	if len(conditions) > 0 {
		builder.WriteString(" WHERE ")
		builder.WriteString(strings.Join(conditions, " AND "))
	}
	builder.WriteString(" ORDER BY created_at DESC")

	limit := filter.Limit
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	offset := filter.Offset
	if offset < 0 {
		offset = 0
	}
	builder.WriteString(fmt.Sprintf(" LIMIT %d OFFSET %d", limit, offset))

	var reports []models.ProgressReport
	if err := r.db.SelectContext(ctx, &reports, builder.String(), args...); err != nil {
		return nil, fmt.Errorf("list progress reports: %w", err)
	}
	return reports, nil
}

// MarkReviewed performs the one-way Submitted to Reviewed transition.
// The status guard rejects repeats with sql.ErrNoRows.
func (r *ProgressRepository) MarkReviewed(ctx context.Context, id string, feedback string, reviewedAt time.Time) error {
	const query = `UPDATE progress_reports SET
		status = $1,
		supervisor_feedback = $2,
		reviewed_at = $3,
		updated_at = NOW()
	WHERE id = $4 AND status = $5`
	result, err := r.db.ExecContext(ctx, query, models.ProgressReviewed, feedback, reviewedAt, id, models.ProgressSubmitted)
	if err != nil {
		return fmt.Errorf("mark progress reviewed: %w", err)
	}
	return requireRowsAffected(result)
}
