package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/internhub/internhub-api/internal/models"
)

const studentProfileColumns = `p.user_id, u.full_name, u.email, p.roll_number, p.department,
       p.semester, p.cgpa, p.attendance_percent, p.backlogs, p.cv_path, p.certificates,
       p.selected_supervisor_id, p.updated_at`

// ProfileRepository reads the authoritative student and company profiles used
// for supervisor resolution and display-name reconciliation.
type ProfileRepository struct {
	db *sqlx.DB
}

// NewProfileRepository constructs the repository.
func NewProfileRepository(db *sqlx.DB) *ProfileRepository {
	return &ProfileRepository{db: db}
}

// GetStudentByUserID fetches a student profile joined with the user record.
func (r *ProfileRepository) GetStudentByUserID(ctx context.Context, userID string) (*models.StudentProfile, error) {
	query := fmt.Sprintf(`SELECT %s FROM student_profiles p
	JOIN users u ON u.id = p.user_id
	WHERE p.user_id = $1`, studentProfileColumns)
	var profile models.StudentProfile
	if err := r.db.GetContext(ctx, &profile, query, userID); err != nil {
		return nil, err
	}
	return &profile, nil
}

// GetStudentByEmail fetches a student profile by the user's email.
func (r *ProfileRepository) GetStudentByEmail(ctx context.Context, email string) (*models.StudentProfile, error) {
	query := fmt.Sprintf(`SELECT %s FROM student_profiles p
	JOIN users u ON u.id = p.user_id
	WHERE u.email = $1`, studentProfileColumns)
	var profile models.StudentProfile
	if err := r.db.GetContext(ctx, &profile, query, email); err != nil {
		return nil, err
	}
	return &profile, nil
}

// GetCompanyByUserID fetches the company profile for a company user.
func (r *ProfileRepository) GetCompanyByUserID(ctx context.Context, userID string) (*models.CompanyProfile, error) {
	const query = `SELECT user_id, company_name, address, contact_person, updated_at
	FROM company_profiles WHERE user_id = $1`
	var profile models.CompanyProfile
	if err := r.db.GetContext(ctx, &profile, query, userID); err != nil {
		return nil, err
	}
	return &profile, nil
}

// GetSupervisor resolves a supervisor user into the reference denormalised
// onto reports at creation time.
func (r *ProfileRepository) GetSupervisor(ctx context.Context, supervisorID string) (*models.SupervisorRef, error) {
	const query = `SELECT id, full_name FROM users WHERE id = $1 AND role = $2`
	var row struct {
		ID       string `db:"id"`
		FullName string `db:"full_name"`
	}
	if err := r.db.GetContext(ctx, &row, query, supervisorID, models.RoleSupervisor); err != nil {
		return nil, err
	}
	return &models.SupervisorRef{ID: row.ID, FullName: row.FullName}, nil
}
