package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/internhub/internhub-api/internal/models"
)

const applicationColumns = `id, student_id, job_id, company_id, supervisor_id,
       student_name, student_email, job_title, company_name, supervisor_name,
       student_profile, supervisor_status, supervisor_comments, supervisor_reviewed_at,
       rejection_feedback, company_status, company_comments, company_reviewed_at,
       overall_status, application_status, interview_details, hiring_date,
       is_currently_hired, start_date, end_date, rejection_note, revisions,
       version, created_at, updated_at`

// ApplicationRepository persists application lifecycle data.
type ApplicationRepository struct {
	db *sqlx.DB
}

// NewApplicationRepository constructs the repository.
func NewApplicationRepository(db *sqlx.DB) *ApplicationRepository {
	return &ApplicationRepository{db: db}
}

// Create inserts a new application row.
func (r *ApplicationRepository) Create(ctx context.Context, app *models.Application) error {
	if app.ID == "" {
		app.ID = uuid.NewString()
	}
	if app.SupervisorStatus == "" {
		app.SupervisorStatus = models.TrackPending
	}
	if app.CompanyStatus == "" {
		app.CompanyStatus = models.TrackPending
	}
	if app.OverallStatus == "" {
		app.OverallStatus = models.OverallPendingSupervisor
	}
	if app.ApplicationStatus == "" {
		app.ApplicationStatus = models.HiringPending
	}
	now := time.Now().UTC()
	if app.CreatedAt.IsZero() {
		app.CreatedAt = now
	}
	app.UpdatedAt = now
	const query = `INSERT INTO applications
	(id, student_id, job_id, company_id, supervisor_id, student_name, student_email,
	 job_title, company_name, supervisor_name, student_profile, supervisor_status,
	 company_status, overall_status, application_status, revisions, version, created_at, updated_at)
	VALUES (:id, :student_id, :job_id, :company_id, :supervisor_id, :student_name, :student_email,
	 :job_title, :company_name, :supervisor_name, :student_profile, :supervisor_status,
	 :company_status, :overall_status, :application_status, :revisions, :version, :created_at, :updated_at)`
	if app.Version == 0 {
		app.Version = 1
	}
	if _, err := r.db.NamedExecContext(ctx, query, app); err != nil {
		return fmt.Errorf("create application: %w", err)
	}
	return nil
}

// GetByID fetches an application by identifier.
func (r *ApplicationRepository) GetByID(ctx context.Context, id string) (*models.Application, error) {
	query := fmt.Sprintf(`SELECT %s FROM applications WHERE id = $1`, applicationColumns)
	var app models.Application
	if err := r.db.GetContext(ctx, &app, query, id); err != nil {
		return nil, err
	}
	return &app, nil
}

// List returns applications matching the filter (newest first).
func (r *ApplicationRepository) List(ctx context.Context, filter models.ApplicationFilter) ([]models.Application, error) {
	builder := strings.Builder{}
	builder.WriteString(fmt.Sprintf("SELECT %s FROM applications", applicationColumns))

	args := make([]interface{}, 0, 5)
	conditions := make([]string, 0, 5)
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
	if filter.OverallStatus != "" {
		args = append(args, filter.OverallStatus)
		conditions = append(conditions, fmt.Sprintf("overall_status = $%d", len(args)))
	}
	if filter.ApplicationStatus != "" {
		args = append(args, filter.ApplicationStatus)
		conditions = append(conditions, fmt.Sprintf("application_status = $%d", len(args)))
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

	var apps []models.Application
	if err := r.db.SelectContext(ctx, &apps, builder.String(), args...); err != nil {
		return nil, fmt.Errorf("list applications: %w", err)
	}
	return apps, nil
}

// SupervisorTrackParams groups the columns a supervisor review mutates.
type SupervisorTrackParams struct {
	ID                string
	Version           int
	Status            models.TrackStatus
	Comments          *string
	ReviewedAt        time.Time
	RejectionFeedback *models.RejectionFeedback
	OverallStatus     models.OverallStatus
}

// UpdateSupervisorTrack persists a supervisor verdict using a version guard,
// so concurrent company-track writes can never interleave fields.
func (r *ApplicationRepository) UpdateSupervisorTrack(ctx context.Context, params SupervisorTrackParams) error {
	const query = `UPDATE applications SET
		supervisor_status = :status,
		supervisor_comments = :comments,
		supervisor_reviewed_at = :reviewed_at,
		rejection_feedback = :rejection_feedback,
		overall_status = :overall_status,
		version = version + 1,
		updated_at = NOW()
	WHERE id = :id AND version = :version`
	result, err := r.db.NamedExecContext(ctx, query, map[string]interface{}{
		"id":                 params.ID,
		"version":            params.Version,
		"status":             params.Status,
		"comments":           params.Comments,
		"reviewed_at":        params.ReviewedAt,
		"rejection_feedback": params.RejectionFeedback,
		"overall_status":     params.OverallStatus,
	})
	if err != nil {
		return fmt.Errorf("update supervisor track: %w", err)
	}
	return requireRowsAffected(result)
}

// CompanyTrackParams groups the columns a company review mutates.
type CompanyTrackParams struct {
	ID            string
	Version       int
	Status        models.TrackStatus
	Comments      *string
	ReviewedAt    time.Time
	OverallStatus models.OverallStatus
}

// UpdateCompanyTrack persists a company verdict using the same version guard.
func (r *ApplicationRepository) UpdateCompanyTrack(ctx context.Context, params CompanyTrackParams) error {
	const query = `UPDATE applications SET
		company_status = :status,
		company_comments = :comments,
		company_reviewed_at = :reviewed_at,
		overall_status = :overall_status,
		version = version + 1,
		updated_at = NOW()
	WHERE id = :id AND version = :version`
	result, err := r.db.NamedExecContext(ctx, query, map[string]interface{}{
		"id":             params.ID,
		"version":        params.Version,
		"status":         params.Status,
		"comments":       params.Comments,
		"reviewed_at":    params.ReviewedAt,
		"overall_status": params.OverallStatus,
	})
	if err != nil {
		return fmt.Errorf("update company track: %w", err)
	}
	return requireRowsAffected(result)
}

// AppendRevision stores the full revision log and routes the application back
// to the supervisor.
func (r *ApplicationRepository) AppendRevision(ctx context.Context, id string, version int, revisions models.RevisionList, overall models.OverallStatus) error {
	const query = `UPDATE applications SET
		revisions = :revisions,
		supervisor_status = :supervisor_status,
		overall_status = :overall_status,
		version = version + 1,
		updated_at = NOW()
	WHERE id = :id AND version = :version`
	result, err := r.db.NamedExecContext(ctx, query, map[string]interface{}{
		"id":                id,
		"version":           version,
		"revisions":         revisions,
		"supervisor_status": models.TrackPending,
		"overall_status":    overall,
	})
	if err != nil {
		return fmt.Errorf("append revision: %w", err)
	}
	return requireRowsAffected(result)
}

// HiringUpdateParams groups mutable columns of the hiring track.
type HiringUpdateParams struct {
	ID            string
	Version       int
	Status        models.HiringStatus
	Interview     *models.InterviewDetails
	RejectionNote *string
}

// UpdateHiringTrack persists interview scheduling, completion, and rejection.
func (r *ApplicationRepository) UpdateHiringTrack(ctx context.Context, params HiringUpdateParams) error {
	setParts := []string{
		"application_status = :status",
		"version = version + 1",
		"updated_at = NOW()",
	}
	if params.Interview != nil {
		setParts = append(setParts, "interview_details = :interview_details")
	}
	if params.RejectionNote != nil {
		setParts = append(setParts, "rejection_note = :rejection_note")
	}
	query := fmt.Sprintf("UPDATE applications SET %s WHERE id = :id AND version = :version",
		strings.Join(setParts, ", "))
	result, err := r.db.NamedExecContext(ctx, query, map[string]interface{}{
		"id":                params.ID,
		"version":           params.Version,
		"status":            params.Status,
		"interview_details": params.Interview,
		"rejection_note":    params.RejectionNote,
	})
	if err != nil {
		return fmt.Errorf("update hiring track: %w", err)
	}
	return requireRowsAffected(result)
}

// HireParams carries everything the hire transaction needs.
type HireParams struct {
	ApplicationID string
	Version       int
	HiringDate    time.Time
	Offer         *models.OfferLetter
}

// HireTx flips the application to hired and inserts the offer letter in one
// transaction. Either both writes land or neither does.
func (r *ApplicationRepository) HireTx(ctx context.Context, params HireParams) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin hire tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	const updateQuery = `UPDATE applications SET
		application_status = $1,
		is_currently_hired = TRUE,
		hiring_date = $2,
		start_date = $3,
		end_date = $4,
		version = version + 1,
		updated_at = NOW()
	WHERE id = $5 AND version = $6 AND application_status = $7`
	result, err := tx.ExecContext(ctx, updateQuery,
		models.HiringHired,
		params.HiringDate,
		params.Offer.StartDate,
		params.Offer.EndDate,
		params.ApplicationID,
		params.Version,
		models.HiringInterviewDone,
	)
	if err != nil {
		return fmt.Errorf("hire update: %w", err)
	}
	if err := requireRowsAffected(result); err != nil {
		return err
	}

	if params.Offer.ID == "" {
		params.Offer.ID = uuid.NewString()
	}
	if params.Offer.Status == "" {
		params.Offer.Status = models.OfferSent
	}
	if params.Offer.CreatedAt.IsZero() {
		params.Offer.CreatedAt = time.Now().UTC()
	}
	const insertQuery = `INSERT INTO offer_letters
	(id, application_id, student_id, job_id, supervisor_id, company_id, content,
	 start_date, end_date, organization, representative, status, created_at)
	VALUES (:id, :application_id, :student_id, :job_id, :supervisor_id, :company_id, :content,
	 :start_date, :end_date, :organization, :representative, :status, :created_at)`
	if _, err := tx.NamedExecContext(ctx, insertQuery, params.Offer); err != nil {
		return fmt.Errorf("insert offer letter: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit hire tx: %w", err)
	}
	return nil
}

// HiredRelationship returns the hired application binding a company to a
// student, the shared eligibility gate for all report kinds.
func (r *ApplicationRepository) HiredRelationship(ctx context.Context, companyID, studentID string) (*models.Application, error) {
	query := fmt.Sprintf(`SELECT %s FROM applications
	WHERE company_id = $1 AND student_id = $2 AND application_status = $3
	ORDER BY hiring_date DESC LIMIT 1`, applicationColumns)
	var app models.Application
	if err := r.db.GetContext(ctx, &app, query, companyID, studentID, models.HiringHired); err != nil {
		return nil, err
	}
	return &app, nil
}

func requireRowsAffected(result sql.Result) error {
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("check rows affected: %w", err)
	}
	if rows == 0 {
		return sql.ErrNoRows
	}
	return nil
}
