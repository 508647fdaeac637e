package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/internhub/internhub-api/internal/dto"
	"github.com/internhub/internhub-api/internal/models"
	"github.com/internhub/internhub-api/internal/repository"
	appErrors "github.com/internhub/internhub-api/pkg/errors"
)

type applicationStore interface {
	Create(ctx context.Context, app *models.Application) error
	GetByID(ctx context.Context, id string) (*models.Application, error)
	List(ctx context.Context, filter models.ApplicationFilter) ([]models.Application, error)
	UpdateSupervisorTrack(ctx context.Context, params repository.SupervisorTrackParams) error
	UpdateCompanyTrack(ctx context.Context, params repository.CompanyTrackParams) error
	AppendRevision(ctx context.Context, id string, version int, revisions models.RevisionList, overall models.OverallStatus) error
	UpdateHiringTrack(ctx context.Context, params repository.HiringUpdateParams) error
	HireTx(ctx context.Context, params repository.HireParams) error
}

type notifier interface {
	Notify(n models.Notification)
}

const hireDateLayout = "2006-01-02"

// ApplicationService drives the dual-track approval state machine and the
// interview/hire sub-flow. Supervisor and company reviews run independently,
// guarded by a version column so concurrent writes never interleave fields.
type ApplicationService struct {
	repo          applicationStore
	notifications notifier
	validator     *validator.Validate
	logger        *zap.Logger
}

// NewApplicationService constructs the application service.
func NewApplicationService(repo applicationStore, notifications notifier, validate *validator.Validate, logger *zap.Logger) *ApplicationService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	return &ApplicationService{repo: repo, notifications: notifications, validator: validate, logger: logger}
}

// Get loads an application, enforcing that the caller is a participant.
func (s *ApplicationService) Get(ctx context.Context, id, actorID string, role models.UserRole) (*models.Application, error) {
	app, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if !s.canView(app, actorID, role) {
		return nil, appErrors.ErrForbidden
	}
	return app, nil
}

// List returns applications scoped to the caller's role.
func (s *ApplicationService) List(ctx context.Context, query dto.ApplicationQuery, actorID string, role models.UserRole) ([]models.Application, error) {
	filter := models.ApplicationFilter{
		StudentID:         query.StudentID,
		CompanyID:         query.CompanyID,
		SupervisorID:      query.SupervisorID,
		OverallStatus:     query.OverallStatus,
		ApplicationStatus: query.ApplicationStatus,
		Limit:             query.Limit,
		Offset:            query.Offset,
	}
	switch role {
	case models.RoleStudent:
		filter.StudentID = actorID
	case models.RoleCompany:
		filter.CompanyID = actorID
	case models.RoleSupervisor:
		filter.SupervisorID = actorID
	}

	apps, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list applications")
	}
	return apps, nil
}

// ReviewBySupervisor applies the supervisor's verdict. Repeating the decision
// already recorded is a no-op; reversing a settled verdict is rejected.
func (s *ApplicationService) ReviewBySupervisor(ctx context.Context, id, actorID string, req dto.SupervisorReviewRequest) (*models.Application, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid review payload")
	}

	app, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if app.SupervisorID != actorID {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "application is not assigned to this supervisor")
	}

	switch req.Decision {
	case dto.DecisionApproved, dto.DecisionRejected, dto.DecisionChangesRequested:
	default:
		return nil, appErrors.Clone(appErrors.ErrValidation, "decision must be approved, rejected or changes_requested")
	}

	if done, err := s.supervisorReplay(app, req.Decision); done || err != nil {
		return app, err
	}

	params := repository.SupervisorTrackParams{
		ID:         app.ID,
		Version:    app.Version,
		ReviewedAt: time.Now().UTC(),
	}
	if req.Comments != "" {
		params.Comments = &req.Comments
	}

	switch req.Decision {
	case dto.DecisionApproved:
		params.Status = models.TrackApproved
		params.OverallStatus = models.OverallPendingCompany
	case dto.DecisionRejected:
		params.Status = models.TrackRejected
		params.OverallStatus = models.OverallRejectedFinal
	case dto.DecisionChangesRequested:
		if req.Reason == "" {
			return nil, appErrors.Clone(appErrors.ErrValidation, "reason is required when requesting changes")
		}
		params.Status = models.TrackRejected
		params.OverallStatus = models.OverallChangesRequested
		params.RejectionFeedback = &models.RejectionFeedback{
			Reason:         req.Reason,
			RequestedFixes: req.RequestedFixes,
			FieldsToEdit:   req.FieldsToEdit,
		}
	}

	if err := s.repo.UpdateSupervisorTrack(ctx, params); err != nil {
		return nil, s.writeError(err, "failed to record supervisor review")
	}

	s.notifyParticipant(app.StudentID, "application_review",
		"Application reviewed by supervisor",
		fmt.Sprintf("Your application for %s is now %s.", app.JobTitle, params.OverallStatus),
		app.ID)

	return s.load(ctx, id)
}

// Resubmit appends a revision and routes the application back to the
// supervisor. Each resubmission is one append-only log entry.
func (s *ApplicationService) Resubmit(ctx context.Context, id, actorID string, req dto.ResubmitRequest) (*models.Application, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid resubmission payload")
	}

	app, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if app.StudentID != actorID {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "application does not belong to this student")
	}
	if app.OverallStatus != models.OverallChangesRequested && app.OverallStatus != models.OverallResubmitted {
		return nil, appErrors.Clone(appErrors.ErrInvalidTransition, "application is not awaiting resubmission")
	}

	revisions := append(app.Revisions, models.Revision{
		Type:        "resubmission",
		Payload:     req.Payload,
		Note:        req.Note,
		SubmittedAt: time.Now().UTC(),
	})

	if err := s.repo.AppendRevision(ctx, app.ID, app.Version, revisions, models.OverallResubmitted); err != nil {
		return nil, s.writeError(err, "failed to record resubmission")
	}

	s.notifyParticipant(app.SupervisorID, "application_resubmitted",
		"Application resubmitted",
		fmt.Sprintf("%s resubmitted the application for %s.", app.StudentName, app.JobTitle),
		app.ID)

	return s.load(ctx, id)
}

// ReviewByCompany applies the company verdict. Companies only review once the
// supervisor track has approved.
func (s *ApplicationService) ReviewByCompany(ctx context.Context, id, actorID string, req dto.CompanyReviewRequest) (*models.Application, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid review payload")
	}

	app, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if app.CompanyID != actorID {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "application does not belong to this company")
	}

	if req.Decision != dto.DecisionApproved && req.Decision != dto.DecisionRejected {
		return nil, appErrors.Clone(appErrors.ErrValidation, "decision must be approved or rejected")
	}

	if app.CompanyStatus == models.TrackApproved {
		if req.Decision == dto.DecisionApproved {
			return app, nil
		}
		return nil, appErrors.Clone(appErrors.ErrInvalidTransition, "company approval is already settled")
	}
	if app.CompanyStatus == models.TrackRejected {
		if req.Decision == dto.DecisionRejected {
			return app, nil
		}
		return nil, appErrors.Clone(appErrors.ErrInvalidTransition, "company rejection is already settled")
	}
	if app.SupervisorStatus != models.TrackApproved {
		return nil, appErrors.Clone(appErrors.ErrInvalidTransition, "application is awaiting supervisor approval")
	}

	params := repository.CompanyTrackParams{
		ID:         app.ID,
		Version:    app.Version,
		ReviewedAt: time.Now().UTC(),
	}
	if req.Comments != "" {
		params.Comments = &req.Comments
	}
	if req.Decision == dto.DecisionApproved {
		params.Status = models.TrackApproved
		params.OverallStatus = models.OverallApproved
	} else {
		params.Status = models.TrackRejected
		params.OverallStatus = models.OverallRejected
	}

	if err := s.repo.UpdateCompanyTrack(ctx, params); err != nil {
		return nil, s.writeError(err, "failed to record company review")
	}

	s.notifyParticipant(app.StudentID, "application_review",
		"Application reviewed by company",
		fmt.Sprintf("Your application for %s at %s is now %s.", app.JobTitle, app.CompanyName, params.OverallStatus),
		app.ID)

	return s.load(ctx, id)
}

// ScheduleInterview books or rebooks the interview slot. Remote interviews
// require a meeting link, in-person interviews require a location.
func (s *ApplicationService) ScheduleInterview(ctx context.Context, id, actorID string, req dto.ScheduleInterviewRequest) (*models.Application, error) {
	app, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if app.CompanyID != actorID {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "application does not belong to this company")
	}
	if app.OverallStatus != models.OverallApproved {
		return nil, appErrors.Clone(appErrors.ErrInvalidTransition, "application is not approved for interviews")
	}
	if app.ApplicationStatus != models.HiringPending && app.ApplicationStatus != models.HiringInterviewScheduled {
		return nil, appErrors.Clone(appErrors.ErrInvalidTransition, "interview cannot be scheduled in the current state")
	}

	violations := make([]appErrors.FieldViolation, 0, 4)
	if req.Type != models.InterviewRemote && req.Type != models.InterviewInPerson {
		violations = append(violations, appErrors.FieldViolation{Field: "type", Message: "must be remote or in-person"})
	}
	if req.Date == "" {
		violations = append(violations, appErrors.FieldViolation{Field: "date", Message: "is required"})
	}
	if req.Time == "" {
		violations = append(violations, appErrors.FieldViolation{Field: "time", Message: "is required"})
	}
	if req.Type == models.InterviewRemote && req.MeetingLink == "" {
		violations = append(violations, appErrors.FieldViolation{Field: "meeting_link", Message: "is required for remote interviews"})
	}
	if req.Type == models.InterviewInPerson && req.Location == "" {
		violations = append(violations, appErrors.FieldViolation{Field: "location", Message: "is required for in-person interviews"})
	}
	if len(violations) > 0 {
		return nil, appErrors.WithDetails(appErrors.ErrValidation, violations)
	}

	details := &models.InterviewDetails{
		Type:        req.Type,
		Date:        req.Date,
		Time:        req.Time,
		Location:    req.Location,
		MeetingLink: req.MeetingLink,
		Notes:       req.Notes,
	}
	if err := s.repo.UpdateHiringTrack(ctx, repository.HiringUpdateParams{
		ID:        app.ID,
		Version:   app.Version,
		Status:    models.HiringInterviewScheduled,
		Interview: details,
	}); err != nil {
		return nil, s.writeError(err, "failed to schedule interview")
	}

	s.notifyParticipant(app.StudentID, "interview_scheduled",
		"Interview scheduled",
		fmt.Sprintf("%s scheduled a %s interview on %s at %s.", app.CompanyName, req.Type, req.Date, req.Time),
		app.ID)

	return s.load(ctx, id)
}

// MarkInterviewDone records interview completion.
func (s *ApplicationService) MarkInterviewDone(ctx context.Context, id, actorID string) (*models.Application, error) {
	app, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if app.CompanyID != actorID {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "application does not belong to this company")
	}
	if app.ApplicationStatus == models.HiringInterviewDone {
		return app, nil
	}
	if app.ApplicationStatus != models.HiringInterviewScheduled {
		return nil, appErrors.Clone(appErrors.ErrInvalidTransition, "no scheduled interview to complete")
	}

	if err := s.repo.UpdateHiringTrack(ctx, repository.HiringUpdateParams{
		ID:      app.ID,
		Version: app.Version,
		Status:  models.HiringInterviewDone,
	}); err != nil {
		return nil, s.writeError(err, "failed to mark interview done")
	}
	return s.load(ctx, id)
}

// Hire flips the application to hired and creates the immutable offer letter
// in one transaction. Every offer validation violation is reported at once.
func (s *ApplicationService) Hire(ctx context.Context, id, actorID string, req dto.HireRequest) (*models.Application, error) {
	app, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if app.CompanyID != actorID {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "application does not belong to this company")
	}
	if app.ApplicationStatus == models.HiringHired {
		return app, nil
	}
	if app.ApplicationStatus.Terminal() {
		return nil, appErrors.Clone(appErrors.ErrInvalidTransition, "application is already settled")
	}
	if app.ApplicationStatus != models.HiringInterviewDone {
		return nil, appErrors.Clone(appErrors.ErrInvalidTransition, "hiring requires a completed interview")
	}

	offer, verr := s.buildOffer(app, req)
	if verr != nil {
		return nil, verr
	}

	if err := s.repo.HireTx(ctx, repository.HireParams{
		ApplicationID: app.ID,
		Version:       app.Version,
		HiringDate:    time.Now().UTC(),
		Offer:         offer,
	}); err != nil {
		return nil, s.writeError(err, "failed to hire applicant")
	}

	s.notifyParticipant(app.StudentID, "offer_issued",
		"You have been hired",
		fmt.Sprintf("%s hired you for %s. An offer letter has been issued.", app.CompanyName, app.JobTitle),
		app.ID)
	s.notifyParticipant(app.SupervisorID, "student_hired",
		"Student hired",
		fmt.Sprintf("%s was hired by %s for %s.", app.StudentName, app.CompanyName, app.JobTitle),
		app.ID)

	return s.load(ctx, id)
}

// Reject terminally rejects the candidacy from any non-terminal hiring state.
func (s *ApplicationService) Reject(ctx context.Context, id, actorID string, req dto.RejectRequest) (*models.Application, error) {
	app, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if app.CompanyID != actorID {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "application does not belong to this company")
	}
	if app.ApplicationStatus == models.HiringRejected {
		return app, nil
	}
	if app.ApplicationStatus == models.HiringHired {
		return nil, appErrors.Clone(appErrors.ErrInvalidTransition, "hired applicants cannot be rejected")
	}

	params := repository.HiringUpdateParams{
		ID:      app.ID,
		Version: app.Version,
		Status:  models.HiringRejected,
	}
	if req.Note != "" {
		params.RejectionNote = &req.Note
	}
	if err := s.repo.UpdateHiringTrack(ctx, params); err != nil {
		return nil, s.writeError(err, "failed to reject applicant")
	}

	s.notifyParticipant(app.StudentID, "application_rejected",
		"Application rejected",
		fmt.Sprintf("%s decided not to proceed with your application for %s.", app.CompanyName, app.JobTitle),
		app.ID)

	return s.load(ctx, id)
}

func (s *ApplicationService) buildOffer(app *models.Application, req dto.HireRequest) (*models.OfferLetter, *appErrors.Error) {
	violations := make([]appErrors.FieldViolation, 0, 4)
	if req.Content == "" {
		violations = append(violations, appErrors.FieldViolation{Field: "content", Message: "is required"})
	}

	startDate, err := time.Parse(hireDateLayout, req.StartDate)
	if err != nil {
		violations = append(violations, appErrors.FieldViolation{Field: "start_date", Message: "must be a valid date (YYYY-MM-DD)"})
	}
	endDate, err := time.Parse(hireDateLayout, req.EndDate)
	if err != nil {
		violations = append(violations, appErrors.FieldViolation{Field: "end_date", Message: "must be a valid date (YYYY-MM-DD)"})
	}
	if !startDate.IsZero() && !endDate.IsZero() && !startDate.Before(endDate) {
		violations = append(violations, appErrors.FieldViolation{Field: "end_date", Message: "must be after start_date"})
	}
	if len(violations) > 0 {
		return nil, appErrors.WithDetails(appErrors.ErrValidation, violations)
	}

	organization := req.Organization
	if organization == "" {
		organization = app.CompanyName
	}

	return &models.OfferLetter{
		ApplicationID:  app.ID,
		StudentID:      app.StudentID,
		JobID:          app.JobID,
		SupervisorID:   app.SupervisorID,
		CompanyID:      app.CompanyID,
		Content:        req.Content,
		StartDate:      startDate,
		EndDate:        endDate,
		Organization:   organization,
		Representative: req.Representative,
		Status:         models.OfferSent,
	}, nil
}

// supervisorReplay detects idempotent repeats and impossible reversals.
func (s *ApplicationService) supervisorReplay(app *models.Application, decision dto.ReviewDecision) (bool, error) {
	switch app.SupervisorStatus {
	case models.TrackApproved:
		if decision == dto.DecisionApproved {
			return true, nil
		}
		return false, appErrors.Clone(appErrors.ErrInvalidTransition, "supervisor approval is already settled")
	case models.TrackRejected:
		if decision == dto.DecisionRejected && app.OverallStatus == models.OverallRejectedFinal {
			return true, nil
		}
		if decision == dto.DecisionChangesRequested && app.OverallStatus == models.OverallChangesRequested {
			return true, nil
		}
		return false, appErrors.Clone(appErrors.ErrInvalidTransition, "supervisor verdict is already settled")
	default:
		return false, nil
	}
}

func (s *ApplicationService) load(ctx context.Context, id string) (*models.Application, error) {
	app, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "application not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load application")
	}
	return app, nil
}

func (s *ApplicationService) canView(app *models.Application, actorID string, role models.UserRole) bool {
	switch role {
	case models.RoleAdmin:
		return true
	case models.RoleStudent:
		return app.StudentID == actorID
	case models.RoleCompany:
		return app.CompanyID == actorID
	case models.RoleSupervisor:
		return app.SupervisorID == actorID
	default:
		return false
	}
}

// writeError maps a guarded-update miss to a concurrency conflict.
func (s *ApplicationService) writeError(err error, msg string) error {
	if errors.Is(err, sql.ErrNoRows) {
		return appErrors.Clone(appErrors.ErrConflict, "application was modified concurrently")
	}
	return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, msg)
}

func (s *ApplicationService) notifyParticipant(userID, kind, title, message, applicationID string) {
	if s.notifications == nil {
		return
	}
	s.notifications.Notify(models.Notification{
		UserID:    userID,
		Type:      kind,
		Title:     title,
		Message:   message,
		ActionURL: "/applications/" + applicationID,
	})
}
