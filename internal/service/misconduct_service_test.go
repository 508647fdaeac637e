package service

import (
	"context"
	"database/sql"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/internhub/internhub-api/internal/dto"
	"github.com/internhub/internhub-api/internal/models"
	appErrors "github.com/internhub/internhub-api/pkg/errors"
)

type directoryStub struct {
	students    map[string]*models.StudentProfile
	companies   map[string]string
	supervisors map[string]*models.SupervisorRef
	reserved    map[string]bool
}

func newDirectoryStub() *directoryStub {
	return &directoryStub{
		students:    map[string]*models.StudentProfile{},
		companies:   map[string]string{},
		supervisors: map[string]*models.SupervisorRef{},
		reserved:    map[string]bool{},
	}
}

func (d *directoryStub) StudentProfile(ctx context.Context, studentID string) (*models.StudentProfile, error) {
	student, ok := d.students[studentID]
	if !ok {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "student profile not found")
	}
	return student, nil
}

func (d *directoryStub) CompanyName(ctx context.Context, companyID string) (string, error) {
	name, ok := d.companies[companyID]
	if !ok {
		return "", appErrors.Clone(appErrors.ErrNotFound, "company profile not found")
	}
	return name, nil
}

func (d *directoryStub) ResolveSupervisor(ctx context.Context, studentID string) (*models.SupervisorRef, error) {
	ref, ok := d.supervisors[studentID]
	if !ok {
		return nil, appErrors.ErrMissingSupervisor
	}
	return ref, nil
}

func (d *directoryStub) ReserveIdempotencyKey(ctx context.Context, scope, key string) (bool, error) {
	if key == "" {
		return true, nil
	}
	full := scope + ":" + key
	if d.reserved[full] {
		return false, nil
	}
	d.reserved[full] = true
	return true, nil
}

type misconductRepoStub struct {
	reports  map[string]*models.MisconductReport
	eligible bool
}

func newMisconductRepoStub() *misconductRepoStub {
	return &misconductRepoStub{reports: map[string]*models.MisconductReport{}, eligible: true}
}

func (r *misconductRepoStub) Create(ctx context.Context, report *models.MisconductReport) error {
	if !r.eligible {
		return sql.ErrNoRows
	}
	if report.ID == "" {
		report.ID = uuid.NewString()
	}
	report.CreatedAt = time.Now().UTC()
	r.reports[report.ID] = report
	return nil
}

func (r *misconductRepoStub) GetByID(ctx context.Context, id string) (*models.MisconductReport, error) {
	report, ok := r.reports[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return report, nil
}

func (r *misconductRepoStub) List(ctx context.Context, filter models.MisconductFilter) ([]models.MisconductReport, error) {
	var out []models.MisconductReport
	for _, report := range r.reports {
		if filter.StudentID != "" && report.StudentID != filter.StudentID {
			continue
		}
		if filter.CompanyID != "" && report.CompanyID != filter.CompanyID {
			continue
		}
		if filter.SupervisorID != "" && report.SupervisorID != filter.SupervisorID {
			continue
		}
		out = append(out, *report)
	}
	return out, nil
}

func (r *misconductRepoStub) UpdateStatus(ctx context.Context, id string, status models.MisconductStatus, comments string, resolvedAt time.Time) error {
	report, ok := r.reports[id]
	if !ok {
		return sql.ErrNoRows
	}
	report.Status = status
	report.SupervisorComments = &comments
	report.ResolvedAt = &resolvedAt
	return nil
}

func seedDirectory(dir *directoryStub) {
	dir.students["student-1"] = &models.StudentProfile{
		UserID:     "student-1",
		FullName:   "Asha Verma",
		RollNumber: "CS2021-042",
	}
	dir.companies["company-1"] = "Acme Corp"
	dir.supervisors["student-1"] = &models.SupervisorRef{ID: "supervisor-1", FullName: "Dr. Rao"}
}

func validMisconductRequest() dto.CreateMisconductRequest {
	return dto.CreateMisconductRequest{
		StudentID:    "student-1",
		IssueType:    "attendance",
		IncidentDate: "2026-02-14",
		Description:  strings.Repeat("The intern repeatedly missed scheduled standups without notice. ", 4),
	}
}

func newMisconductServiceForTest(t *testing.T) (*MisconductService, *misconductRepoStub, *directoryStub, *notifierStub) {
	t.Helper()
	repo := newMisconductRepoStub()
	dir := newDirectoryStub()
	seedDirectory(dir)
	notes := &notifierStub{}
	svc := NewMisconductService(repo, dir, notes, nil, zap.NewNop())
	return svc, repo, dir, notes
}

func TestMisconductCreate(t *testing.T) {
	svc, repo, _, notes := newMisconductServiceForTest(t)

	report, err := svc.Create(context.Background(), "company-1", validMisconductRequest(), "")
	require.NoError(t, err)
	assert.Equal(t, models.MisconductPending, report.Status)
	assert.Equal(t, "Asha Verma", report.StudentName)
	assert.Equal(t, "CS2021-042", report.RollNumber)
	assert.Equal(t, "Acme Corp", report.CompanyName)
	assert.Equal(t, "supervisor-1", report.SupervisorID)
	require.Len(t, repo.reports, 1)

	require.Len(t, notes.sent, 1)
	assert.Equal(t, "supervisor-1", notes.sent[0].UserID)
	assert.Equal(t, "misconduct_reported", notes.sent[0].Type)
}

func TestMisconductCreateNotEligible(t *testing.T) {
	svc, repo, _, _ := newMisconductServiceForTest(t)
	repo.eligible = false

	_, err := svc.Create(context.Background(), "company-1", validMisconductRequest(), "")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotEligible.Code, appErrors.FromError(err).Code)
}

func TestMisconductCreateCollectsAllViolations(t *testing.T) {
	svc, _, _, _ := newMisconductServiceForTest(t)

	req := validMisconductRequest()
	req.Description = "too short"
	req.IncidentDate = "14/02/2026"

	_, err := svc.Create(context.Background(), "company-1", req, "")
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErr.Code)
	require.Len(t, appErr.Details, 2)
}

func TestMisconductCreateMissingSupervisor(t *testing.T) {
	svc, _, dir, _ := newMisconductServiceForTest(t)
	delete(dir.supervisors, "student-1")

	_, err := svc.Create(context.Background(), "company-1", validMisconductRequest(), "")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrMissingSupervisor.Code, appErrors.FromError(err).Code)
}

func TestMisconductCreateDuplicateIdempotencyKey(t *testing.T) {
	svc, repo, _, _ := newMisconductServiceForTest(t)

	_, err := svc.Create(context.Background(), "company-1", validMisconductRequest(), "key-1")
	require.NoError(t, err)

	_, err = svc.Create(context.Background(), "company-1", validMisconductRequest(), "key-1")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrConflict.Code, appErrors.FromError(err).Code)
	require.Len(t, repo.reports, 1)
}

func TestMisconductResolve(t *testing.T) {
	svc, _, _, notes := newMisconductServiceForTest(t)

	report, err := svc.Create(context.Background(), "company-1", validMisconductRequest(), "")
	require.NoError(t, err)
	notes.sent = nil

	_, err = svc.Resolve(context.Background(), report.ID, "supervisor-2", dto.ResolveMisconductRequest{
		Status:   models.MisconductResolved,
		Comments: "spoke with both parties",
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrForbidden.Code, appErrors.FromError(err).Code)

	_, err = svc.Resolve(context.Background(), report.ID, "supervisor-1", dto.ResolveMisconductRequest{
		Status:   models.MisconductPending,
		Comments: "cannot move back to pending",
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)

	_, err = svc.Resolve(context.Background(), report.ID, "supervisor-1", dto.ResolveMisconductRequest{
		Status:   models.MisconductWarning,
		Comments: "   ",
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)

	resolved, err := svc.Resolve(context.Background(), report.ID, "supervisor-1", dto.ResolveMisconductRequest{
		Status:   models.MisconductWarning,
		Comments: "issued a written warning",
	})
	require.NoError(t, err)
	assert.Equal(t, models.MisconductWarning, resolved.Status)
	require.NotNil(t, resolved.ResolvedAt)
	require.NotNil(t, resolved.SupervisorComments)

	require.Len(t, notes.sent, 2, "student and company are both notified")
}

func TestMisconductListReconcilesDisplayCache(t *testing.T) {
	svc, _, dir, _ := newMisconductServiceForTest(t)

	_, err := svc.Create(context.Background(), "company-1", validMisconductRequest(), "")
	require.NoError(t, err)

	// Company renames itself and the student's roll number is corrected after
	// the report was filed.
	dir.companies["company-1"] = "Acme Corporation Ltd"
	dir.students["student-1"].RollNumber = "CS2021-142"

	reports, err := svc.List(context.Background(), models.MisconductFilter{}, "company-1", models.RoleCompany)
	require.NoError(t, err)
	require.Len(t, reports, 1)
	assert.Equal(t, "Acme Corporation Ltd", reports[0].CompanyName)
	assert.Equal(t, "CS2021-142", reports[0].RollNumber)
}

func TestMisconductListScoping(t *testing.T) {
	svc, repo, _, _ := newMisconductServiceForTest(t)
	repo.reports["r1"] = &models.MisconductReport{ID: "r1", StudentID: "student-1", CompanyID: "company-1", SupervisorID: "supervisor-1"}
	repo.reports["r2"] = &models.MisconductReport{ID: "r2", StudentID: "student-2", CompanyID: "company-2", SupervisorID: "supervisor-1"}

	reports, err := svc.List(context.Background(), models.MisconductFilter{}, "company-1", models.RoleCompany)
	require.NoError(t, err)
	require.Len(t, reports, 1)
	assert.Equal(t, "r1", reports[0].ID)

	reports, err = svc.List(context.Background(), models.MisconductFilter{}, "supervisor-1", models.RoleSupervisor)
	require.NoError(t, err)
	assert.Len(t, reports, 2)
}
