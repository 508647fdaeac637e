package service

import (
	"context"
	"database/sql"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/internhub/internhub-api/internal/dto"
	"github.com/internhub/internhub-api/internal/models"
	appErrors "github.com/internhub/internhub-api/pkg/errors"
)

type appraisalRepoStub struct {
	appraisals map[string]*models.InternshipAppraisal
	eligible   bool
}

func newAppraisalRepoStub() *appraisalRepoStub {
	return &appraisalRepoStub{appraisals: map[string]*models.InternshipAppraisal{}, eligible: true}
}

func (r *appraisalRepoStub) Create(ctx context.Context, appraisal *models.InternshipAppraisal) error {
	if !r.eligible {
		return sql.ErrNoRows
	}
	if appraisal.ID == "" {
		appraisal.ID = uuid.NewString()
	}
	r.appraisals[appraisal.ID] = appraisal
	return nil
}

func (r *appraisalRepoStub) GetByID(ctx context.Context, id string) (*models.InternshipAppraisal, error) {
	appraisal, ok := r.appraisals[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return appraisal, nil
}

func (r *appraisalRepoStub) List(ctx context.Context, filter models.AppraisalFilter) ([]models.InternshipAppraisal, error) {
	var out []models.InternshipAppraisal
	for _, appraisal := range r.appraisals {
		if filter.CompanyID != "" && appraisal.CompanyID != filter.CompanyID {
			continue
		}
		if filter.SupervisorID != "" && appraisal.SupervisorID != filter.SupervisorID {
			continue
		}
		if filter.StudentID != "" && appraisal.StudentID != filter.StudentID {
			continue
		}
		out = append(out, *appraisal)
	}
	return out, nil
}

func (r *appraisalRepoStub) UpdateStatus(ctx context.Context, id string, status models.AppraisalStatus) error {
	appraisal, ok := r.appraisals[id]
	if !ok {
		return sql.ErrNoRows
	}
	appraisal.Status = status
	return nil
}

func (r *appraisalRepoStub) AppendAttachments(ctx context.Context, id string, attachments models.AttachmentList) error {
	appraisal, ok := r.appraisals[id]
	if !ok {
		return sql.ErrNoRows
	}
	appraisal.Attachments = attachments
	return nil
}

func validAppraisalRequest() dto.CreateAppraisalRequest {
	return dto.CreateAppraisalRequest{
		StudentID:           "student-1",
		Rating:              8,
		OverallPerformance:  models.PerformanceExceeds,
		Recommendation:      models.Recommend,
		KeyStrengths:        "Fast learner with solid debugging instincts.",
		AreasForImprovement: "Needs to write more design documentation.",
		CommentsAndFeedback: "A dependable intern who shipped two features to production during the term.",
	}
}

func newAppraisalServiceForTest(t *testing.T) (*AppraisalService, *appraisalRepoStub, *notifierStub) {
	t.Helper()
	repo := newAppraisalRepoStub()
	dir := newDirectoryStub()
	seedDirectory(dir)
	notes := &notifierStub{}
	svc := NewAppraisalService(repo, dir, notes, nil, zap.NewNop())
	return svc, repo, notes
}

func TestAppraisalCreate(t *testing.T) {
	svc, _, notes := newAppraisalServiceForTest(t)

	appraisal, err := svc.Create(context.Background(), "company-1", validAppraisalRequest(), "")
	require.NoError(t, err)
	assert.Equal(t, models.AppraisalSubmitted, appraisal.Status)
	assert.Equal(t, "supervisor-1", appraisal.SupervisorID)
	assert.NotNil(t, appraisal.Attachments)
	assert.Empty(t, appraisal.Attachments)

	require.Len(t, notes.sent, 1)
	assert.Equal(t, "appraisal_submitted", notes.sent[0].Type)
}

func TestAppraisalCreateCollectsAllViolations(t *testing.T) {
	svc, _, _ := newAppraisalServiceForTest(t)

	req := validAppraisalRequest()
	req.Rating = 11
	req.KeyStrengths = "good"
	req.CommentsAndFeedback = "fine"

	_, err := svc.Create(context.Background(), "company-1", req, "")
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErr.Code)

	fields := make(map[string]bool, len(appErr.Details))
	for _, v := range appErr.Details {
		fields[v.Field] = true
	}
	assert.True(t, fields["rating"])
	assert.True(t, fields["key_strengths"])
	assert.True(t, fields["comments_and_feedback"])
}

func TestAppraisalCreateNotEligible(t *testing.T) {
	svc, repo, _ := newAppraisalServiceForTest(t)
	repo.eligible = false

	_, err := svc.Create(context.Background(), "company-1", validAppraisalRequest(), "")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotEligible.Code, appErrors.FromError(err).Code)
}

func TestAppraisalAddAttachments(t *testing.T) {
	svc, _, _ := newAppraisalServiceForTest(t)

	appraisal, err := svc.Create(context.Background(), "company-1", validAppraisalRequest(), "")
	require.NoError(t, err)

	_, err = svc.AddAttachments(context.Background(), appraisal.ID, "company-2", []string{"a.pdf"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrForbidden.Code, appErrors.FromError(err).Code)

	updated, err := svc.AddAttachments(context.Background(), appraisal.ID, "company-1", []string{"a.pdf", "b.png"})
	require.NoError(t, err)
	assert.Equal(t, models.AttachmentList{"a.pdf", "b.png"}, updated.Attachments)

	updated, err = svc.AddAttachments(context.Background(), appraisal.ID, "company-1", []string{"c.pdf"})
	require.NoError(t, err)
	assert.Len(t, updated.Attachments, 3)
}

func TestAppraisalUpdateStatus(t *testing.T) {
	svc, _, _ := newAppraisalServiceForTest(t)

	appraisal, err := svc.Create(context.Background(), "company-1", validAppraisalRequest(), "")
	require.NoError(t, err)

	_, err = svc.UpdateStatus(context.Background(), appraisal.ID, "supervisor-1", models.AppraisalSubmitted)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)

	_, err = svc.UpdateStatus(context.Background(), appraisal.ID, "company-1", models.AppraisalReviewed)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrForbidden.Code, appErrors.FromError(err).Code)

	reviewed, err := svc.UpdateStatus(context.Background(), appraisal.ID, "supervisor-1", models.AppraisalReviewed)
	require.NoError(t, err)
	assert.Equal(t, models.AppraisalReviewed, reviewed.Status)
}
