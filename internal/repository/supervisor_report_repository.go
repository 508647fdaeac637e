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

const supervisorReportColumns = `id, application_id, report_type, student_id, company_id,
       supervisor_id, title, summary, payload, is_read, read_at, created_at`

// SupervisorReportRepository persists the generalised supervisor reports.
type SupervisorReportRepository struct {
	db *sqlx.DB
}

// NewSupervisorReportRepository constructs the repository.
func NewSupervisorReportRepository(db *sqlx.DB) *SupervisorReportRepository {
	return &SupervisorReportRepository{db: db}
}

// Create inserts a report, guarding the referenced application inside the
// same transaction: it must belong to the company and be hired.
func (r *SupervisorReportRepository) Create(ctx context.Context, report *models.SupervisorReport) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin supervisor report tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	const guard = `SELECT student_id, supervisor_id FROM applications
	WHERE id = $1 AND company_id = $2 AND application_status = $3
	LIMIT 1 FOR SHARE`
	var row struct {
		StudentID    string `db:"student_id"`
		SupervisorID string `db:"supervisor_id"`
	}
	if err := tx.GetContext(ctx, &row, guard, report.ApplicationID, report.CompanyID, models.HiringHired); err != nil {
		return err
	}
	report.StudentID = row.StudentID
	report.SupervisorID = row.SupervisorID

	if report.ID == "" {
		report.ID = uuid.NewString()
	}
	if report.CreatedAt.IsZero() {
		report.CreatedAt = time.Now().UTC()
	}
	const query = `INSERT INTO supervisor_reports
	(id, application_id, report_type, student_id, company_id, supervisor_id,
	 title, summary, payload, is_read, created_at)
	VALUES (:id, :application_id, :report_type, :student_id, :company_id, :supervisor_id,
	 :title, :summary, :payload, :is_read, :created_at)`
	if _, err := tx.NamedExecContext(ctx, query, report); err != nil {
		return fmt.Errorf("create supervisor report: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit supervisor report tx: %w", err)
	}
	return nil
}

// GetByID fetches a report by identifier.
func (r *SupervisorReportRepository) GetByID(ctx context.Context, id string) (*models.SupervisorReport, error) {
	query := fmt.Sprintf(`SELECT %s FROM supervisor_reports WHERE id = $1`, supervisorReportColumns)
	var report models.SupervisorReport
	if err := r.db.GetContext(ctx, &report, query, id); err != nil {
		return nil, err
	}
	return &report, nil
}

// List returns reports matching the filter (newest first).
func (r *SupervisorReportRepository) List(ctx context.Context, filter models.SupervisorReportFilter) ([]models.SupervisorReport, error) {
	builder := strings.Builder{}
	builder.WriteString(fmt.Sprintf("SELECT %s FROM supervisor_reports", supervisorReportColumns))

	args := make([]interface{}, 0, 5)
	conditions := make([]string, 0, 5)
	if filter.SupervisorID != "" {
		args = append(args, filter.SupervisorID)
		conditions = append(conditions, fmt.Sprintf("supervisor_id = $%d", len(args)))
	}
	if filter.CompanyID != "" {
		args = append(args, filter.CompanyID)
		conditions = append(conditions, fmt.Sprintf("company_id = $%d", len(args)))
	}
	if filter.ApplicationID != "" {
		args = append(args, filter.ApplicationID)
		conditions = append(conditions, fmt.Sprintf("application_id = $%d", len(args)))
	}
	if filter.ReportType != "" {
		args = append(args, filter.ReportType)
		conditions = append(conditions, fmt.Sprintf("report_type = $%d", len(args)))
	}
	if filter.Unread != nil {
		args = append(args, !*filter.Unread)
		conditions = append(conditions, fmt.Sprintf("is_read = $%d", len(args)))
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

	var reports []models.SupervisorReport
	if err := r.db.SelectContext(ctx, &reports, builder.String(), args...); err != nil {
		return nil, fmt.Errorf("list supervisor reports: %w", err)
	}
	return reports, nil
}

// MarkRead flips the read flag for the assigned supervisor.
func (r *SupervisorReportRepository) MarkRead(ctx context.Context, id string, readAt time.Time) error {
	const query = `UPDATE supervisor_reports SET is_read = TRUE, read_at = $1 WHERE id = $2`
	result, err := r.db.ExecContext(ctx, query, readAt, id)
	if err != nil {
		return fmt.Errorf("mark supervisor report read: %w", err)
	}
	return requireRowsAffected(result)
}
