package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/internhub/internhub-api/internal/dto"
	"github.com/internhub/internhub-api/internal/models"
	appErrors "github.com/internhub/internhub-api/pkg/errors"
)

type progressStore interface {
	Create(ctx context.Context, report *models.ProgressReport) error
	GetByID(ctx context.Context, id string) (*models.ProgressReport, error)
	List(ctx context.Context, filter models.ProgressFilter) ([]models.ProgressReport, error)
	MarkReviewed(ctx context.Context, id string, feedback string, reviewedAt time.Time) error
}

// ProgressService manages periodic progress reports and their one-way
// Submitted to Reviewed transition.
type ProgressService struct {
	repo          progressStore
	directory     directoryResolver
	notifications notifier
	validator     *validator.Validate
	logger        *zap.Logger
}

// NewProgressService constructs the progress service.
func NewProgressService(repo progressStore, directory directoryResolver, notifications notifier, validate *validator.Validate, logger *zap.Logger) *ProgressService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	return &ProgressService{repo: repo, directory: directory, notifications: notifications, validator: validate, logger: logger}
}

// Create files a progress report behind the hired-relationship gate.
func (s *ProgressService) Create(ctx context.Context, companyID string, req dto.CreateProgressRequest, idempotencyKey string) (*models.ProgressReport, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid progress payload")
	}
	if !models.ValidWorkQuality(req.QualityOfWork) {
		return nil, appErrors.WithDetails(appErrors.ErrValidation, []appErrors.FieldViolation{
			{Field: "quality_of_work", Message: "must be one of excellent, good, satisfactory, needs_improvement, poor"},
		})
	}

	supervisor, err := s.directory.ResolveSupervisor(ctx, req.StudentID)
	if err != nil {
		return nil, err
	}
	student, err := s.directory.StudentProfile(ctx, req.StudentID)
	if err != nil {
		return nil, err
	}
	companyName, err := s.directory.CompanyName(ctx, companyID)
	if err != nil {
		return nil, err
	}

	ok, err := s.directory.ReserveIdempotencyKey(ctx, "progress", idempotencyKey)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to reserve idempotency key")
	}
	if !ok {
		return nil, appErrors.Clone(appErrors.ErrConflict, "request with this idempotency key was already processed")
	}

	report := &models.ProgressReport{
		StudentID:          req.StudentID,
		StudentName:        student.FullName,
		RollNumber:         student.RollNumber,
		CompanyID:          companyID,
		CompanyName:        companyName,
		SupervisorID:       supervisor.ID,
		SupervisorName:     supervisor.FullName,
		TasksAssigned:      req.TasksAssigned,
		ProgressMade:       req.ProgressMade,
		HoursWorked:        req.HoursWorked,
		QualityOfWork:      req.QualityOfWork,
		AreasOfImprovement: req.AreasOfImprovement,
		NextGoals:          req.NextGoals,
		Remarks:            req.Remarks,
		Status:             models.ProgressSubmitted,
	}
	if err := s.repo.Create(ctx, report); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.ErrNotEligible
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create progress report")
	}

	if s.notifications != nil {
		s.notifications.Notify(models.Notification{
			UserID:    supervisor.ID,
			Type:      "progress_reported",
			Title:     "Progress report submitted",
			Message:   fmt.Sprintf("%s submitted a progress report for %s.", companyName, student.FullName),
			ActionURL: "/reports/progress/" + report.ID,
		})
	}

	return report, nil
}

// Get loads a report, enforcing participant access.
func (s *ProgressService) Get(ctx context.Context, id, actorID string, role models.UserRole) (*models.ProgressReport, error) {
	report, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if !canViewReport(role, actorID, report.StudentID, report.CompanyID, report.SupervisorID) {
		return nil, appErrors.ErrForbidden
	}
	return report, nil
}

// List returns reports scoped to the caller, reconciled against profiles.
func (s *ProgressService) List(ctx context.Context, filter models.ProgressFilter, actorID string, role models.UserRole) ([]models.ProgressReport, error) {
	scopeReportFilter(role, actorID, &filter.StudentID, &filter.CompanyID, &filter.SupervisorID)

	reports, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list progress reports")
	}
	for i := range reports {
		s.reconcile(ctx, &reports[i])
	}
	return reports, nil
}

// Review moves the report from Submitted to Reviewed. The transition is
// one-way; reviewing an already reviewed report is INVALID_TRANSITION.
func (s *ProgressService) Review(ctx context.Context, id, actorID string, req dto.ReviewProgressRequest) (*models.ProgressReport, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid review payload")
	}
	if strings.TrimSpace(req.Feedback) == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "feedback is required")
	}

	report, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if report.SupervisorID != actorID {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "report is not assigned to this supervisor")
	}
	if report.Status == models.ProgressReviewed {
		return nil, appErrors.Clone(appErrors.ErrInvalidTransition, "progress report is already reviewed")
	}

	if err := s.repo.MarkReviewed(ctx, report.ID, req.Feedback, time.Now().UTC()); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrInvalidTransition, "progress report is already reviewed")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to review progress report")
	}

	if s.notifications != nil {
		s.notifications.Notify(models.Notification{
			UserID:    report.CompanyID,
			Type:      "progress_reviewed",
			Title:     "Progress report reviewed",
			Message:   fmt.Sprintf("The progress report for %s was reviewed by the supervisor.", report.StudentName),
			ActionURL: "/reports/progress/" + report.ID,
		})
	}

	return s.load(ctx, id)
}

func (s *ProgressService) load(ctx context.Context, id string) (*models.ProgressReport, error) {
	report, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "progress report not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load progress report")
	}
	return report, nil
}

func (s *ProgressService) reconcile(ctx context.Context, report *models.ProgressReport) {
	if name, err := s.directory.CompanyName(ctx, report.CompanyID); err == nil && name != "" {
		report.CompanyName = name
	}
	if student, err := s.directory.StudentProfile(ctx, report.StudentID); err == nil {
		if student.RollNumber != "" {
			report.RollNumber = student.RollNumber
		}
		if student.FullName != "" {
			report.StudentName = student.FullName
		}
	}
}
