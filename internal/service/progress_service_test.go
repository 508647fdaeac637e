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

type progressRepoStub struct {
	reports  map[string]*models.ProgressReport
	eligible bool
}

func newProgressRepoStub() *progressRepoStub {
	return &progressRepoStub{reports: map[string]*models.ProgressReport{}, eligible: true}
}

func (r *progressRepoStub) Create(ctx context.Context, report *models.ProgressReport) error {
	if !r.eligible {
		return sql.ErrNoRows
	}
	if report.ID == "" {
		report.ID = uuid.NewString()
	}
	r.reports[report.ID] = report
	return nil
}

func (r *progressRepoStub) GetByID(ctx context.Context, id string) (*models.ProgressReport, error) {
	report, ok := r.reports[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return report, nil
}

func (r *progressRepoStub) List(ctx context.Context, filter models.ProgressFilter) ([]models.ProgressReport, error) {
	var out []models.ProgressReport
	for _, report := range r.reports {
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

func (r *progressRepoStub) MarkReviewed(ctx context.Context, id string, feedback string, reviewedAt time.Time) error {
	report, ok := r.reports[id]
	if !ok || report.Status == models.ProgressReviewed {
		return sql.ErrNoRows
	}
	report.Status = models.ProgressReviewed
	report.SupervisorFeedback = &feedback
	report.ReviewedAt = &reviewedAt
	return nil
}

func validProgressRequest() dto.CreateProgressRequest {
	return dto.CreateProgressRequest{
		StudentID:     "student-1",
		TasksAssigned: "Implement the billing export endpoint",
		ProgressMade:  "Endpoint complete, tests in review",
		HoursWorked:   38,
		QualityOfWork: models.WorkGood,
	}
}

func newProgressServiceForTest(t *testing.T) (*ProgressService, *progressRepoStub, *notifierStub) {
	t.Helper()
	repo := newProgressRepoStub()
	dir := newDirectoryStub()
	seedDirectory(dir)
	notes := &notifierStub{}
	svc := NewProgressService(repo, dir, notes, nil, zap.NewNop())
	return svc, repo, notes
}

func TestProgressCreate(t *testing.T) {
	svc, _, notes := newProgressServiceForTest(t)

	report, err := svc.Create(context.Background(), "company-1", validProgressRequest(), "")
	require.NoError(t, err)
	assert.Equal(t, models.ProgressSubmitted, report.Status)
	assert.Equal(t, "supervisor-1", report.SupervisorID)
	assert.Equal(t, "Acme Corp", report.CompanyName)

	require.Len(t, notes.sent, 1)
	assert.Equal(t, "progress_reported", notes.sent[0].Type)
}

func TestProgressCreateRejectsUnknownQuality(t *testing.T) {
	svc, _, _ := newProgressServiceForTest(t)

	req := validProgressRequest()
	req.QualityOfWork = models.WorkQuality("amazing")

	_, err := svc.Create(context.Background(), "company-1", req, "")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestProgressCreateNotEligible(t *testing.T) {
	svc, repo, _ := newProgressServiceForTest(t)
	repo.eligible = false

	_, err := svc.Create(context.Background(), "company-1", validProgressRequest(), "")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotEligible.Code, appErrors.FromError(err).Code)
}

func TestProgressReviewIsOneWay(t *testing.T) {
	svc, _, notes := newProgressServiceForTest(t)

	report, err := svc.Create(context.Background(), "company-1", validProgressRequest(), "")
	require.NoError(t, err)
	notes.sent = nil

	_, err = svc.Review(context.Background(), report.ID, "supervisor-1", dto.ReviewProgressRequest{Feedback: "   "})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)

	reviewed, err := svc.Review(context.Background(), report.ID, "supervisor-1", dto.ReviewProgressRequest{Feedback: "Good pace, keep going"})
	require.NoError(t, err)
	assert.Equal(t, models.ProgressReviewed, reviewed.Status)
	require.NotNil(t, reviewed.ReviewedAt)

	_, err = svc.Review(context.Background(), report.ID, "supervisor-1", dto.ReviewProgressRequest{Feedback: "again"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrInvalidTransition.Code, appErrors.FromError(err).Code)

	require.Len(t, notes.sent, 1)
	assert.Equal(t, "progress_reviewed", notes.sent[0].Type)
}
