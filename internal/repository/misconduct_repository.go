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

const misconductColumns = `id, student_id, student_name, roll_number, company_id, company_name,
       supervisor_id, supervisor_name, issue_type, incident_date, description,
       status, supervisor_comments, resolved_at, created_at, updated_at`

// MisconductRepository persists misconduct reports.
type MisconductRepository struct {
	db *sqlx.DB
}

// NewMisconductRepository constructs the repository.
func NewMisconductRepository(db *sqlx.DB) *MisconductRepository {
	return &MisconductRepository{db: db}
}

// Create inserts the report inside a transaction that re-checks the hired
// relationship, so a concurrent hire reversal cannot race the insert.
// Returns sql.ErrNoRows when the relationship is absent.
func (r *MisconductRepository) Create(ctx context.Context, report *models.MisconductReport) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin misconduct tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	if err := lockHiredRelationship(ctx, tx, report.CompanyID, report.StudentID); err != nil {
		return err
	}

	if report.ID == "" {
		report.ID = uuid.NewString()
	}
	if report.Status == "" {
		report.Status = models.MisconductPending
	}
	now := time.Now().UTC()
	report.CreatedAt = now
	report.UpdatedAt = now
	const query = `INSERT INTO misconduct_reports
	(id, student_id, student_name, roll_number, company_id, company_name, supervisor_id,
	 supervisor_name, issue_type, incident_date, description, status, created_at, updated_at)
	VALUES (:id, :student_id, :student_name, :roll_number, :company_id, :company_name, :supervisor_id,
	 :supervisor_name, :issue_type, :incident_date, :description, :status, :created_at, :updated_at)`
	if _, err := tx.NamedExecContext(ctx, query, report); err != nil {
		return fmt.Errorf("create misconduct report: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit misconduct tx: %w", err)
	}
	return nil
}

// GetByID fetches a report by identifier.
func (r *MisconductRepository) GetByID(ctx context.Context, id string) (*models.MisconductReport, error) {
	query := fmt.Sprintf(`SELECT %s FROM misconduct_reports WHERE id = $1`, misconductColumns)
	var report models.MisconductReport
	if err := r.db.GetContext(ctx, &report, query, id); err != nil {
		return nil, err
	}
	return &report, nil
}

// List returns reports matching the filter (newest first).
func (r *MisconductRepository) List(ctx context.Context, filter models.MisconductFilter) ([]models.MisconductReport, error) {
	builder := strings.Builder{}
	builder.WriteString(fmt.Sprintf("SELECT %s FROM misconduct_reports", misconductColumns))

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

	var reports []models.MisconductReport
	if err := r.db.SelectContext(ctx, &reports, builder.String(), args...); err != nil {
		return nil, fmt.Errorf("list misconduct reports: %w", err)
	}
	return reports, nil
}

// UpdateStatus persists the supervisor's resolution and restamps resolved_at.
func (r *MisconductRepository) UpdateStatus(ctx context.Context, id string, status models.MisconductStatus, comments string, resolvedAt time.Time) error {
	const query = `UPDATE misconduct_reports SET
		status = $1,
		supervisor_comments = $2,
		resolved_at = $3,
		updated_at = NOW()
	WHERE id = $4`
	result, err := r.db.ExecContext(ctx, query, status, comments, resolvedAt, id)
	if err != nil {
		return fmt.Errorf("update misconduct status: %w", err)
	}
	return requireRowsAffected(result)
}

// lockHiredRelationship takes a share lock on the hired application row so the
// gate check and the report insert commit atomically.
func lockHiredRelationship(ctx context.Context, tx *sqlx.Tx, companyID, studentID string) error {
	const guard = `SELECT id FROM applications
	WHERE company_id = $1 AND student_id = $2 AND application_status = $3
	LIMIT 1 FOR SHARE`
	var id string
	if err := tx.GetContext(ctx, &id, guard, companyID, studentID, models.HiringHired); err != nil {
		return err
	}
	return nil
}
