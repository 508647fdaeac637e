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

func newMisconductRepoMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func misconductRows() *sqlmock.Rows {
	now := time.Now()
	return sqlmock.NewRows([]string{
		"id", "student_id", "student_name", "roll_number", "company_id", "company_name",
		"supervisor_id", "supervisor_name", "issue_type", "incident_date", "description",
		"status", "supervisor_comments", "resolved_at", "created_at", "updated_at",
	}).AddRow(
		"report-1", "student-1", "Asha Verma", "CS2021-042", "company-1", "Acme Corp",
		"supervisor-1", "Dr. Rao", "attendance", time.Date(2026, time.February, 14, 0, 0, 0, 0, time.UTC), "A long enough description.",
		"Pending", nil, nil, now, now,
	)
}

func TestMisconductRepositoryCreateGuardsHiredRelationship(t *testing.T) {
	db, mock, cleanup := newMisconductRepoMock(t)
	defer cleanup()
	repo := NewMisconductRepository(db)

	report := &models.MisconductReport{
		StudentID:    "student-1",
		StudentName:  "Asha Verma",
		RollNumber:   "CS2021-042",
		CompanyID:    "company-1",
		CompanyName:  "Acme Corp",
		SupervisorID: "supervisor-1",
		IssueType:    "attendance",
		IncidentDate: time.Date(2026, time.February, 14, 0, 0, 0, 0, time.UTC),
		Description:  "A long enough description.",
	}

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id FROM applications")).
		WithArgs("company-1", "student-1", models.HiringHired).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow("app-1"))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO misconduct_reports")).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	require.NoError(t, repo.Create(context.Background(), report))
	require.NotEmpty(t, report.ID)
	require.Equal(t, models.MisconductPending, report.Status)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestMisconductRepositoryCreateNotHired(t *testing.T) {
	db, mock, cleanup := newMisconductRepoMock(t)
	defer cleanup()
	repo := NewMisconductRepository(db)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id FROM applications")).
		WithArgs("company-1", "student-2", models.HiringHired).
		WillReturnError(sql.ErrNoRows)
	mock.ExpectRollback()

	err := repo.Create(context.Background(), &models.MisconductReport{
		StudentID: "student-2",
		CompanyID: "company-1",
	})
	require.ErrorIs(t, err, sql.ErrNoRows)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestMisconductRepositoryGetAndList(t *testing.T) {
	db, mock, cleanup := newMisconductRepoMock(t)
	defer cleanup()
	repo := NewMisconductRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("FROM misconduct_reports WHERE id = $1")).
		WithArgs("report-1").
		WillReturnRows(misconductRows())

	report, err := repo.GetByID(context.Background(), "report-1")
	require.NoError(t, err)
	require.Equal(t, "report-1", report.ID)

	mock.ExpectQuery(regexp.QuoteMeta("WHERE company_id = $1 AND status = $2 ORDER BY created_at DESC LIMIT 50 OFFSET 0")).
		WithArgs("company-1", models.MisconductPending).
		WillReturnRows(misconductRows())

	reports, err := repo.List(context.Background(), models.MisconductFilter{
		CompanyID: "company-1",
		Status:    models.MisconductPending,
	})
	require.NoError(t, err)
	require.Len(t, reports, 1)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestMisconductRepositoryUpdateStatus(t *testing.T) {
	db, mock, cleanup := newMisconductRepoMock(t)
	defer cleanup()
	repo := NewMisconductRepository(db)

	resolvedAt := time.Now()
	mock.ExpectExec(regexp.QuoteMeta("UPDATE misconduct_reports SET")).
		WithArgs(models.MisconductWarning, "issued a written warning", resolvedAt, "report-1").
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := repo.UpdateStatus(context.Background(), "report-1", models.MisconductWarning, "issued a written warning", resolvedAt)
	require.NoError(t, err)

	mock.ExpectExec(regexp.QuoteMeta("UPDATE misconduct_reports SET")).
		WithArgs(models.MisconductResolved, "done", sqlmock.AnyArg(), "missing").
		WillReturnResult(sqlmock.NewResult(0, 0))

	err = repo.UpdateStatus(context.Background(), "missing", models.MisconductResolved, "done", time.Now())
	require.ErrorIs(t, err, sql.ErrNoRows)
	require.NoError(t, mock.ExpectationsWereMet())
}
