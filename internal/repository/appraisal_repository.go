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

const appraisalColumns = `id, student_id, student_name, roll_number, company_id, company_name,
       supervisor_id, supervisor_name, rating, overall_performance, recommendation,
       key_strengths, areas_for_improvement, comments_and_feedback, attachments,
       status, created_at, updated_at`

// AppraisalRepository persists internship appraisals.
type AppraisalRepository struct {
	db *sqlx.DB
}

// NewAppraisalRepository constructs the repository.
func NewAppraisalRepository(db *sqlx.DB) *AppraisalRepository {
	return &AppraisalRepository{db: db}
}

// Create inserts the appraisal behind the shared hired-relationship guard.
func (r *AppraisalRepository) Create(ctx context.Context, appraisal *models.InternshipAppraisal) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin appraisal tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	if err := lockHiredRelationship(ctx, tx, appraisal.CompanyID, appraisal.StudentID); err != nil {
		return err
	}

	if appraisal.ID == "" {
		appraisal.ID = uuid.NewString()
	}
	if appraisal.Status == "" {
		appraisal.Status = models.AppraisalSubmitted
	}
	now := time.Now().UTC()
	appraisal.CreatedAt = now
	appraisal.UpdatedAt = now
	const query = `INSERT INTO internship_appraisals
	(id, student_id, student_name, roll_number, company_id, company_name, supervisor_id,
	 supervisor_name, rating, overall_performance, recommendation, key_strengths,
	 areas_for_improvement, comments_and_feedback, attachments, status, created_at, updated_at)
	VALUES (:id, :student_id, :student_name, :roll_number, :company_id, :company_name, :supervisor_id,
	 :supervisor_name, :rating, :overall_performance, :recommendation, :key_strengths,
	 :areas_for_improvement, :comments_and_feedback, :attachments, :status, :created_at, :updated_at)`
	if _, err := tx.NamedExecContext(ctx, query, appraisal); err != nil {
		return fmt.Errorf("create appraisal: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit appraisal tx: %w", err)
	}
	return nil
}

// GetByID fetches an appraisal by identifier.
func (r *AppraisalRepository) GetByID(ctx context.Context, id string) (*models.InternshipAppraisal, error) {
	query := fmt.Sprintf(`SELECT %s FROM internship_appraisals WHERE id = $1`, appraisalColumns)
	var appraisal models.InternshipAppraisal
	if err := r.db.GetContext(ctx, &appraisal, query, id); err != nil {
		return nil, err
	}
	return &appraisal, nil
}

// List returns appraisals matching the filter (newest first).
func (r *AppraisalRepository) List(ctx context.Context, filter models.AppraisalFilter) ([]models.InternshipAppraisal, error) {
	builder := strings.Builder{}
	builder.WriteString(fmt.Sprintf("SELECT %s FROM internship_appraisals", appraisalColumns))

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

	var appraisals []models.InternshipAppraisal
	if err := r.db.SelectContext(ctx, &appraisals, builder.String(), args...); err != nil {
		return nil, fmt.Errorf("list appraisals: %w", err)
	}
	return appraisals, nil
}

// UpdateStatus moves the appraisal through its review lifecycle.
func (r *AppraisalRepository) UpdateStatus(ctx context.Context, id string, status models.AppraisalStatus) error {
	const query = `UPDATE internship_appraisals SET status = $1, updated_at = NOW() WHERE id = $2`
	result, err := r.db.ExecContext(ctx, query, status, id)
	if err != nil {
		return fmt.Errorf("update appraisal status: %w", err)
	}
	return requireRowsAffected(result)
}

// AppendAttachments stores the full attachment list after an upload.
func (r *AppraisalRepository) AppendAttachments(ctx context.Context, id string, attachments models.AttachmentList) error {
	const query = `UPDATE internship_appraisals SET attachments = $1, updated_at = NOW() WHERE id = $2`
	result, err := r.db.ExecContext(ctx, query, attachments, id)
	if err != nil {
		return fmt.Errorf("append appraisal attachments: %w", err)
	}
	return requireRowsAffected(result)
}
