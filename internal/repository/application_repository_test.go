package repository

import (
	"context"
	"database/sql"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"

	"github.com/internhub/internhub-api/internal/models"
)

func newApplicationRepoMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func applicationRows() *sqlmock.Rows {
	now := time.Now()
	return sqlmock.NewRows([]string{
		"id", "student_id", "job_id", "company_id", "supervisor_id",
		"student_name", "student_email", "job_title", "company_name", "supervisor_name",
		"student_profile", "supervisor_status", "supervisor_comments", "supervisor_reviewed_at",
		"rejection_feedback", "company_status", "company_comments", "company_reviewed_at",
		"overall_status", "application_status", "interview_details", "hiring_date",
		"is_currently_hired", "start_date", "end_date", "rejection_note", "revisions",
		"version", "created_at", "updated_at",
	}).AddRow(
		"app-1", "student-1", "job-1", "company-1", "supervisor-1",
		"Asha Verma", "asha@uni.edu", "Backend Intern", "Acme Corp", "Dr. Rao",
		`{"roll_number":"CS2021-042","department":"CS","semester":6,"cgpa":8.4,"attendance_percent":91,"backlogs":0}`,
		"pending", nil, nil,
		nil, "pending", nil, nil,
		"pending_supervisor", "pending", nil, nil,
		false, nil, nil, nil, `[]`,
		1, now, now,
	)
}

func TestApplicationRepositoryCreateAndGet(t *testing.T) {
	db, mock, cleanup := newApplicationRepoMock(t)
	defer cleanup()

	repo := NewApplicationRepository(db)
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO applications")).
		WillReturnResult(sqlmock.NewResult(1, 1))

	app := &models.Application{
		StudentID:    "student-1",
		JobID:        "job-1",
		CompanyID:    "company-1",
		SupervisorID: "supervisor-1",
		StudentName:  "Asha Verma",
	}
	require.NoError(t, repo.Create(context.Background(), app))
	require.NotEmpty(t, app.ID)
	require.Equal(t, 1, app.Version)
	require.Equal(t, models.OverallPendingSupervisor, app.OverallStatus)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, student_id, job_id, company_id, supervisor_id")).
		WithArgs("app-1").
		WillReturnRows(applicationRows())

	fetched, err := repo.GetByID(context.Background(), "app-1")
	require.NoError(t, err)
	require.Equal(t, "app-1", fetched.ID)
	require.Equal(t, "CS2021-042", fetched.StudentProfile.RollNumber)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestApplicationRepositoryListFilters(t *testing.T) {
	db, mock, cleanup := newApplicationRepoMock(t)
	defer cleanup()
	repo := NewApplicationRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("WHERE company_id = $1 AND overall_status = $2 ORDER BY created_at DESC LIMIT 50 OFFSET 0")).
		WithArgs("company-1", models.OverallPendingCompany).
		WillReturnRows(applicationRows())

	apps, err := repo.List(context.Background(), models.ApplicationFilter{
		CompanyID:     "company-1",
		OverallStatus: models.OverallPendingCompany,
	})
	require.NoError(t, err)
	require.Len(t, apps, 1)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestApplicationRepositoryVersionGuard(t *testing.T) {
	db, mock, cleanup := newApplicationRepoMock(t)
	defer cleanup()
	repo := NewApplicationRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("UPDATE applications SET")).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.UpdateSupervisorTrack(context.Background(), SupervisorTrackParams{
		ID:            "app-1",
		Version:       3,
		Status:        models.TrackApproved,
		ReviewedAt:    time.Now(),
		OverallStatus: models.OverallPendingCompany,
	})
	require.ErrorIs(t, err, sql.ErrNoRows)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestApplicationRepositoryHireTx(t *testing.T) {
	db, mock, cleanup := newApplicationRepoMock(t)
	defer cleanup()
	repo := NewApplicationRepository(db)

	start := time.Now()
	end := start.AddDate(0, 6, 0)
	offer := &models.OfferLetter{
		ApplicationID: "app-1",
		StudentID:     "student-1",
		JobID:         "job-1",
		SupervisorID:  "supervisor-1",
		CompanyID:     "company-1",
		Content:       "Welcome aboard.",
		StartDate:     start,
		EndDate:       end,
		Organization:  "Acme Corp",
	}

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("UPDATE applications SET")).
		WithArgs(models.HiringHired, sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), "app-1", 4, models.HiringInterviewDone).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO offer_letters")).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	err := repo.HireTx(context.Background(), HireParams{
		ApplicationID: "app-1",
		Version:       4,
		HiringDate:    start,
		Offer:         offer,
	})
	require.NoError(t, err)
	require.NotEmpty(t, offer.ID)
	require.Equal(t, models.OfferSent, offer.Status)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestApplicationRepositoryHireTxRollsBackOnStaleVersion(t *testing.T) {
	db, mock, cleanup := newApplicationRepoMock(t)
	defer cleanup()
	repo := NewApplicationRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("UPDATE applications SET")).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()

	err := repo.HireTx(context.Background(), HireParams{
		ApplicationID: "app-1",
		Version:       4,
		HiringDate:    time.Now(),
		Offer:         &models.OfferLetter{},
	})
	require.ErrorIs(t, err, sql.ErrNoRows)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestApplicationRepositoryHiredRelationship(t *testing.T) {
	db, mock, cleanup := newApplicationRepoMock(t)
	defer cleanup()
	repo := NewApplicationRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("WHERE company_id = $1 AND student_id = $2 AND application_status = $3")).
		WithArgs("company-1", "student-1", models.HiringHired).
		WillReturnRows(applicationRows())

	app, err := repo.HiredRelationship(context.Background(), "company-1", "student-1")
	require.NoError(t, err)
	require.Equal(t, "app-1", app.ID)
	require.NoError(t, mock.ExpectationsWereMet())
}
