package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/internhub/internhub-api/internal/dto"
	"github.com/internhub/internhub-api/internal/models"
	"github.com/internhub/internhub-api/internal/repository"
	appErrors "github.com/internhub/internhub-api/pkg/errors"
)

type applicationRepoStub struct {
	apps     map[string]*models.Application
	offers   map[string]*models.OfferLetter
	conflict bool
}

func newApplicationRepoStub() *applicationRepoStub {
	return &applicationRepoStub{
		apps:   map[string]*models.Application{},
		offers: map[string]*models.OfferLetter{},
	}
}

func (r *applicationRepoStub) Create(ctx context.Context, app *models.Application) error {
	if app.ID == "" {
		app.ID = uuid.NewString()
	}
	r.apps[app.ID] = app
	return nil
}

func (r *applicationRepoStub) GetByID(ctx context.Context, id string) (*models.Application, error) {
	app, ok := r.apps[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return app, nil
}

func (r *applicationRepoStub) List(ctx context.Context, filter models.ApplicationFilter) ([]models.Application, error) {
	var out []models.Application
	for _, app := range r.apps {
		if filter.StudentID != "" && app.StudentID != filter.StudentID {
			continue
		}
		if filter.CompanyID != "" && app.CompanyID != filter.CompanyID {
			continue
		}
		if filter.SupervisorID != "" && app.SupervisorID != filter.SupervisorID {
			continue
		}
		out = append(out, *app)
	}
	return out, nil
}

func (r *applicationRepoStub) guard(id string, version int) (*models.Application, error) {
	if r.conflict {
		return nil, sql.ErrNoRows
	}
	app, ok := r.apps[id]
	if !ok || app.Version != version {
		return nil, sql.ErrNoRows
	}
	return app, nil
}

func (r *applicationRepoStub) UpdateSupervisorTrack(ctx context.Context, params repository.SupervisorTrackParams) error {
	app, err := r.guard(params.ID, params.Version)
	if err != nil {
		return err
	}
	app.SupervisorStatus = params.Status
	app.SupervisorComments = params.Comments
	reviewed := params.ReviewedAt
	app.SupervisorReviewedAt = &reviewed
	app.RejectionFeedback = params.RejectionFeedback
	app.OverallStatus = params.OverallStatus
	app.Version++
	return nil
}

func (r *applicationRepoStub) UpdateCompanyTrack(ctx context.Context, params repository.CompanyTrackParams) error {
	app, err := r.guard(params.ID, params.Version)
	if err != nil {
		return err
	}
	app.CompanyStatus = params.Status
	app.CompanyComments = params.Comments
	reviewed := params.ReviewedAt
	app.CompanyReviewedAt = &reviewed
	app.OverallStatus = params.OverallStatus
	app.Version++
	return nil
}

func (r *applicationRepoStub) AppendRevision(ctx context.Context, id string, version int, revisions models.RevisionList, overall models.OverallStatus) error {
	app, err := r.guard(id, version)
	if err != nil {
		return err
	}
	app.Revisions = revisions
	app.SupervisorStatus = models.TrackPending
	app.OverallStatus = overall
	app.Version++
	return nil
}

func (r *applicationRepoStub) UpdateHiringTrack(ctx context.Context, params repository.HiringUpdateParams) error {
	app, err := r.guard(params.ID, params.Version)
	if err != nil {
		return err
	}
	app.ApplicationStatus = params.Status
	if params.Interview != nil {
		app.Interview = params.Interview
	}
	if params.RejectionNote != nil {
		app.RejectionNote = params.RejectionNote
	}
	app.Version++
	return nil
}

func (r *applicationRepoStub) HireTx(ctx context.Context, params repository.HireParams) error {
	app, err := r.guard(params.ApplicationID, params.Version)
	if err != nil {
		return err
	}
	app.ApplicationStatus = models.HiringHired
	hired := params.HiringDate
	app.HiringDate = &hired
	app.IsCurrentlyHired = true
	app.Version++

	offer := *params.Offer
	if offer.ID == "" {
		offer.ID = uuid.NewString()
	}
	r.offers[offer.ID] = &offer
	return nil
}

type notifierStub struct {
	sent []models.Notification
}

func (n *notifierStub) Notify(notification models.Notification) {
	n.sent = append(n.sent, notification)
}

func seedApplication(repo *applicationRepoStub) *models.Application {
	app := &models.Application{
		ID:                "app-1",
		StudentID:         "student-1",
		JobID:             "job-1",
		CompanyID:         "company-1",
		SupervisorID:      "supervisor-1",
		StudentName:       "Asha Verma",
		JobTitle:          "Backend Intern",
		CompanyName:       "Acme Corp",
		SupervisorStatus:  models.TrackPending,
		CompanyStatus:     models.TrackPending,
		OverallStatus:     models.OverallPendingSupervisor,
		ApplicationStatus: models.HiringPending,
		Version:           1,
	}
	repo.apps[app.ID] = app
	return app
}

func newApplicationServiceForTest(t *testing.T) (*ApplicationService, *applicationRepoStub, *notifierStub) {
	t.Helper()
	repo := newApplicationRepoStub()
	notes := &notifierStub{}
	svc := NewApplicationService(repo, notes, nil, zap.NewNop())
	return svc, repo, notes
}

func TestSupervisorApprovalMovesToPendingCompany(t *testing.T) {
	svc, repo, notes := newApplicationServiceForTest(t)
	seedApplication(repo)

	app, err := svc.ReviewBySupervisor(context.Background(), "app-1", "supervisor-1", dto.SupervisorReviewRequest{
		Decision: dto.DecisionApproved,
		Comments: "strong profile",
	})
	require.NoError(t, err)
	assert.Equal(t, models.TrackApproved, app.SupervisorStatus)
	assert.Equal(t, models.OverallPendingCompany, app.OverallStatus)
	require.NotNil(t, app.SupervisorComments)
	assert.Equal(t, "strong profile", *app.SupervisorComments)
	require.Len(t, notes.sent, 1)
	assert.Equal(t, "student-1", notes.sent[0].UserID)
}

func TestSupervisorReviewIsIdempotent(t *testing.T) {
	svc, repo, _ := newApplicationServiceForTest(t)
	seedApplication(repo)

	_, err := svc.ReviewBySupervisor(context.Background(), "app-1", "supervisor-1", dto.SupervisorReviewRequest{Decision: dto.DecisionApproved})
	require.NoError(t, err)
	versionAfterFirst := repo.apps["app-1"].Version

	app, err := svc.ReviewBySupervisor(context.Background(), "app-1", "supervisor-1", dto.SupervisorReviewRequest{Decision: dto.DecisionApproved})
	require.NoError(t, err)
	assert.Equal(t, versionAfterFirst, app.Version, "replaying the same verdict must not write")

	_, err = svc.ReviewBySupervisor(context.Background(), "app-1", "supervisor-1", dto.SupervisorReviewRequest{Decision: dto.DecisionRejected})
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrInvalidTransition.Code, appErr.Code)
}

func TestSupervisorChangesRequestedRequiresReason(t *testing.T) {
	svc, repo, _ := newApplicationServiceForTest(t)
	seedApplication(repo)

	_, err := svc.ReviewBySupervisor(context.Background(), "app-1", "supervisor-1", dto.SupervisorReviewRequest{
		Decision: dto.DecisionChangesRequested,
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestSupervisorReviewWrongActorForbidden(t *testing.T) {
	svc, repo, _ := newApplicationServiceForTest(t)
	seedApplication(repo)

	_, err := svc.ReviewBySupervisor(context.Background(), "app-1", "supervisor-2", dto.SupervisorReviewRequest{Decision: dto.DecisionApproved})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrForbidden.Code, appErrors.FromError(err).Code)
}

func TestResubmitAppendsRevisions(t *testing.T) {
	svc, repo, _ := newApplicationServiceForTest(t)
	seedApplication(repo)

	_, err := svc.ReviewBySupervisor(context.Background(), "app-1", "supervisor-1", dto.SupervisorReviewRequest{
		Decision: dto.DecisionChangesRequested,
		Reason:   "CV is outdated",
	})
	require.NoError(t, err)
	assert.Equal(t, models.OverallChangesRequested, repo.apps["app-1"].OverallStatus)

	app, err := svc.Resubmit(context.Background(), "app-1", "student-1", dto.ResubmitRequest{
		Payload: json.RawMessage(`{"cv":"v2"}`),
		Note:    "updated cv",
	})
	require.NoError(t, err)
	assert.Equal(t, models.OverallResubmitted, app.OverallStatus)
	assert.Equal(t, models.TrackPending, app.SupervisorStatus)
	require.Len(t, app.Revisions, 1)

	app, err = svc.Resubmit(context.Background(), "app-1", "student-1", dto.ResubmitRequest{
		Payload: json.RawMessage(`{"cv":"v3"}`),
	})
	require.NoError(t, err)
	require.Len(t, app.Revisions, 2, "each resubmission is one append-only entry")
	assert.Equal(t, "resubmission", app.Revisions[1].Type)
}

func TestResubmitOnlyWhenAwaitingChanges(t *testing.T) {
	svc, repo, _ := newApplicationServiceForTest(t)
	seedApplication(repo)

	_, err := svc.Resubmit(context.Background(), "app-1", "student-1", dto.ResubmitRequest{Payload: json.RawMessage(`{}`)})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrInvalidTransition.Code, appErrors.FromError(err).Code)
}

func TestCompanyReviewGatedOnSupervisorApproval(t *testing.T) {
	svc, repo, _ := newApplicationServiceForTest(t)
	seedApplication(repo)

	_, err := svc.ReviewByCompany(context.Background(), "app-1", "company-1", dto.CompanyReviewRequest{Decision: dto.DecisionApproved})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrInvalidTransition.Code, appErrors.FromError(err).Code)

	_, err = svc.ReviewBySupervisor(context.Background(), "app-1", "supervisor-1", dto.SupervisorReviewRequest{Decision: dto.DecisionApproved})
	require.NoError(t, err)

	app, err := svc.ReviewByCompany(context.Background(), "app-1", "company-1", dto.CompanyReviewRequest{Decision: dto.DecisionApproved})
	require.NoError(t, err)
	assert.Equal(t, models.OverallApproved, app.OverallStatus)
	assert.Equal(t, models.TrackApproved, app.CompanyStatus)
}

func TestScheduleInterviewCollectsAllViolations(t *testing.T) {
	svc, repo, _ := newApplicationServiceForTest(t)
	app := seedApplication(repo)
	app.SupervisorStatus = models.TrackApproved
	app.CompanyStatus = models.TrackApproved
	app.OverallStatus = models.OverallApproved

	_, err := svc.ScheduleInterview(context.Background(), "app-1", "company-1", dto.ScheduleInterviewRequest{
		Type: models.InterviewRemote,
	})
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErr.Code)

	fields := make(map[string]bool, len(appErr.Details))
	for _, v := range appErr.Details {
		fields[v.Field] = true
	}
	assert.True(t, fields["date"])
	assert.True(t, fields["time"])
	assert.True(t, fields["meeting_link"])
}

func TestHireFlow(t *testing.T) {
	svc, repo, notes := newApplicationServiceForTest(t)
	app := seedApplication(repo)
	app.SupervisorStatus = models.TrackApproved
	app.CompanyStatus = models.TrackApproved
	app.OverallStatus = models.OverallApproved

	_, err := svc.ScheduleInterview(context.Background(), "app-1", "company-1", dto.ScheduleInterviewRequest{
		Type:        models.InterviewRemote,
		Date:        "2026-03-10",
		Time:        "14:00",
		MeetingLink: "https://meet.example.com/abc",
	})
	require.NoError(t, err)
	assert.Equal(t, models.HiringInterviewScheduled, repo.apps["app-1"].ApplicationStatus)

	_, err = svc.MarkInterviewDone(context.Background(), "app-1", "company-1")
	require.NoError(t, err)

	hired, err := svc.Hire(context.Background(), "app-1", "company-1", dto.HireRequest{
		Content:   "We are pleased to offer you the position.",
		StartDate: "2026-04-01",
		EndDate:   "2026-09-30",
	})
	require.NoError(t, err)
	assert.Equal(t, models.HiringHired, hired.ApplicationStatus)
	assert.True(t, hired.IsCurrentlyHired)
	require.NotNil(t, hired.HiringDate)

	require.Len(t, repo.offers, 1)
	for _, offer := range repo.offers {
		assert.Equal(t, "app-1", offer.ApplicationID)
		assert.Equal(t, models.OfferSent, offer.Status)
		assert.Equal(t, "Acme Corp", offer.Organization, "organization defaults to the company name")
	}

	kinds := make([]string, 0, len(notes.sent))
	for _, n := range notes.sent {
		kinds = append(kinds, n.Type)
	}
	assert.Contains(t, kinds, "offer_issued")
	assert.Contains(t, kinds, "student_hired")

	versionBefore := repo.apps["app-1"].Version
	again, err := svc.Hire(context.Background(), "app-1", "company-1", dto.HireRequest{})
	require.NoError(t, err, "hiring an already hired applicant is a no-op")
	assert.Equal(t, versionBefore, again.Version)
	require.Len(t, repo.offers, 1)
}

func TestHireRequiresCompletedInterview(t *testing.T) {
	svc, repo, _ := newApplicationServiceForTest(t)
	app := seedApplication(repo)
	app.OverallStatus = models.OverallApproved

	_, err := svc.Hire(context.Background(), "app-1", "company-1", dto.HireRequest{
		Content:   "offer",
		StartDate: "2026-04-01",
		EndDate:   "2026-09-30",
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrInvalidTransition.Code, appErrors.FromError(err).Code)
}

func TestHireReportsAllOfferViolations(t *testing.T) {
	svc, repo, _ := newApplicationServiceForTest(t)
	app := seedApplication(repo)
	app.OverallStatus = models.OverallApproved
	app.ApplicationStatus = models.HiringInterviewDone

	_, err := svc.Hire(context.Background(), "app-1", "company-1", dto.HireRequest{
		StartDate: "2026-09-30",
		EndDate:   "2026-04-01",
	})
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErr.Code)

	fields := make(map[string]bool, len(appErr.Details))
	for _, v := range appErr.Details {
		fields[v.Field] = true
	}
	assert.True(t, fields["content"])
	assert.True(t, fields["end_date"])
}

func TestRejectAfterHireNotAllowed(t *testing.T) {
	svc, repo, _ := newApplicationServiceForTest(t)
	app := seedApplication(repo)
	app.ApplicationStatus = models.HiringHired

	_, err := svc.Reject(context.Background(), "app-1", "company-1", dto.RejectRequest{Note: "changed our mind"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrInvalidTransition.Code, appErrors.FromError(err).Code)
}

func TestConcurrentModificationSurfacesConflict(t *testing.T) {
	svc, repo, _ := newApplicationServiceForTest(t)
	seedApplication(repo)
	repo.conflict = true

	_, err := svc.ReviewBySupervisor(context.Background(), "app-1", "supervisor-1", dto.SupervisorReviewRequest{Decision: dto.DecisionApproved})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrConflict.Code, appErrors.FromError(err).Code)
}

func TestListScopesByRole(t *testing.T) {
	svc, repo, _ := newApplicationServiceForTest(t)
	seedApplication(repo)
	other := &models.Application{
		ID: "app-2", StudentID: "student-2", CompanyID: "company-2", SupervisorID: "supervisor-1",
		SupervisorStatus: models.TrackPending, CompanyStatus: models.TrackPending,
		OverallStatus: models.OverallPendingSupervisor, ApplicationStatus: models.HiringPending, Version: 1,
	}
	repo.apps[other.ID] = other

	apps, err := svc.List(context.Background(), dto.ApplicationQuery{}, "student-1", models.RoleStudent)
	require.NoError(t, err)
	require.Len(t, apps, 1)
	assert.Equal(t, "app-1", apps[0].ID)

	apps, err = svc.List(context.Background(), dto.ApplicationQuery{}, "supervisor-1", models.RoleSupervisor)
	require.NoError(t, err)
	assert.Len(t, apps, 2)
}
