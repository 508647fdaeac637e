package service

import (
	"context"
	"database/sql"
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

type supervisorReportRepoStub struct {
	reports  map[string]*models.SupervisorReport
	eligible bool
}

func newSupervisorReportRepoStub() *supervisorReportRepoStub {
	return &supervisorReportRepoStub{reports: map[string]*models.SupervisorReport{}, eligible: true}
}

func (r *supervisorReportRepoStub) Create(ctx context.Context, report *models.SupervisorReport) error {
	if !r.eligible {
		return sql.ErrNoRows
	}
	if report.ID == "" {
		report.ID = uuid.NewString()
	}
	// The insert transaction resolves the participants from the application.
	report.StudentID = "student-1"
	report.SupervisorID = "supervisor-1"
	report.CreatedAt = time.Now().UTC()
	r.reports[report.ID] = report
	return nil
}

func (r *supervisorReportRepoStub) GetByID(ctx context.Context, id string) (*models.SupervisorReport, error) {
	report, ok := r.reports[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return report, nil
}

func (r *supervisorReportRepoStub) List(ctx context.Context, filter models.SupervisorReportFilter) ([]models.SupervisorReport, error) {
	var out []models.SupervisorReport
	for _, report := range r.reports {
		if filter.SupervisorID != "" && report.SupervisorID != filter.SupervisorID {
			continue
		}
		if filter.CompanyID != "" && report.CompanyID != filter.CompanyID {
			continue
		}
		if filter.ReportType != "" && report.ReportType != filter.ReportType {
			continue
		}
		if filter.Unread != nil && report.IsRead == *filter.Unread {
			continue
		}
		out = append(out, *report)
	}
	return out, nil
}

func (r *supervisorReportRepoStub) MarkRead(ctx context.Context, id string, readAt time.Time) error {
	report, ok := r.reports[id]
	if !ok {
		return sql.ErrNoRows
	}
	report.IsRead = true
	report.ReadAt = &readAt
	return nil
}

func validSupervisorReportRequest() dto.CreateSupervisorReportRequest {
	return dto.CreateSupervisorReportRequest{
		ApplicationID: "app-1",
		ReportType:    models.SupervisorReportProgress,
		Title:         "Week 6 progress",
		Summary:       "On track, two features shipped.",
	}
}

func TestSupervisorReportCreate(t *testing.T) {
	repo := newSupervisorReportRepoStub()
	notes := &notifierStub{}
	svc := NewSupervisorReportService(repo, notes, nil, zap.NewNop())

	report, err := svc.Create(context.Background(), "company-1", validSupervisorReportRequest())
	require.NoError(t, err)
	assert.Equal(t, "supervisor-1", report.SupervisorID)
	assert.False(t, report.IsRead)

	require.Len(t, notes.sent, 1)
	assert.Equal(t, "supervisor-1", notes.sent[0].UserID)
	assert.Equal(t, "supervisor_report", notes.sent[0].Type)
}

func TestSupervisorReportCreateRejectsUnknownType(t *testing.T) {
	svc := NewSupervisorReportService(newSupervisorReportRepoStub(), nil, nil, zap.NewNop())

	req := validSupervisorReportRequest()
	req.ReportType = models.SupervisorReportType("gossip")

	_, err := svc.Create(context.Background(), "company-1", req)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestSupervisorReportCreateNotEligible(t *testing.T) {
	repo := newSupervisorReportRepoStub()
	repo.eligible = false
	svc := NewSupervisorReportService(repo, nil, nil, zap.NewNop())

	_, err := svc.Create(context.Background(), "company-1", validSupervisorReportRequest())
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotEligible.Code, appErrors.FromError(err).Code)
}

func TestSupervisorReportMarkRead(t *testing.T) {
	repo := newSupervisorReportRepoStub()
	svc := NewSupervisorReportService(repo, nil, nil, zap.NewNop())

	report, err := svc.Create(context.Background(), "company-1", validSupervisorReportRequest())
	require.NoError(t, err)

	_, err = svc.MarkRead(context.Background(), report.ID, "supervisor-2")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrForbidden.Code, appErrors.FromError(err).Code)

	read, err := svc.MarkRead(context.Background(), report.ID, "supervisor-1")
	require.NoError(t, err)
	assert.True(t, read.IsRead)
	require.NotNil(t, read.ReadAt)

	// Marking twice is a no-op.
	again, err := svc.MarkRead(context.Background(), report.ID, "supervisor-1")
	require.NoError(t, err)
	assert.Equal(t, read.ReadAt, again.ReadAt)
}

func TestSupervisorReportListUnreadFilter(t *testing.T) {
	repo := newSupervisorReportRepoStub()
	svc := NewSupervisorReportService(repo, nil, nil, zap.NewNop())

	first, err := svc.Create(context.Background(), "company-1", validSupervisorReportRequest())
	require.NoError(t, err)
	_, err = svc.Create(context.Background(), "company-1", validSupervisorReportRequest())
	require.NoError(t, err)

	_, err = svc.MarkRead(context.Background(), first.ID, "supervisor-1")
	require.NoError(t, err)

	unread := true
	reports, err := svc.List(context.Background(), models.SupervisorReportFilter{Unread: &unread}, "supervisor-1", models.RoleSupervisor)
	require.NoError(t, err)
	require.Len(t, reports, 1)
	assert.NotEqual(t, first.ID, reports[0].ID)
}
