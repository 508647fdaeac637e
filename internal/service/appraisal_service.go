package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/internhub/internhub-api/internal/dto"
	"github.com/internhub/internhub-api/internal/models"
	appErrors "github.com/internhub/internhub-api/pkg/errors"
)

type appraisalStore interface {
	Create(ctx context.Context, appraisal *models.InternshipAppraisal) error
	GetByID(ctx context.Context, id string) (*models.InternshipAppraisal, error)
	List(ctx context.Context, filter models.AppraisalFilter) ([]models.InternshipAppraisal, error)
	UpdateStatus(ctx context.Context, id string, status models.AppraisalStatus) error
	AppendAttachments(ctx context.Context, id string, attachments models.AttachmentList) error
}

// AppraisalService manages end-of-term internship appraisals. Validation
// reports every violated constraint at once rather than the first one found.
type AppraisalService struct {
	repo          appraisalStore
	directory     directoryResolver
	notifications notifier
	validator     *validator.Validate
	logger        *zap.Logger
}

// NewAppraisalService constructs the appraisal service.
func NewAppraisalService(repo appraisalStore, directory directoryResolver, notifications notifier, validate *validator.Validate, logger *zap.Logger) *AppraisalService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	return &AppraisalService{repo: repo, directory: directory, notifications: notifications, validator: validate, logger: logger}
}

// Create files an appraisal behind the hired-relationship gate.
func (s *AppraisalService) Create(ctx context.Context, companyID string, req dto.CreateAppraisalRequest, idempotencyKey string) (*models.InternshipAppraisal, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid appraisal payload")
	}
	if verr := validateAppraisal(req); verr != nil {
		return nil, verr
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

	ok, err := s.directory.ReserveIdempotencyKey(ctx, "appraisal", idempotencyKey)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to reserve idempotency key")
	}
	if !ok {
		return nil, appErrors.Clone(appErrors.ErrConflict, "request with this idempotency key was already processed")
	}

	appraisal := &models.InternshipAppraisal{
		StudentID:           req.StudentID,
		StudentName:         student.FullName,
		RollNumber:          student.RollNumber,
		CompanyID:           companyID,
		CompanyName:         companyName,
		SupervisorID:        supervisor.ID,
		SupervisorName:      supervisor.FullName,
		Rating:              req.Rating,
		OverallPerformance:  req.OverallPerformance,
		Recommendation:      req.Recommendation,
		KeyStrengths:        req.KeyStrengths,
		AreasForImprovement: req.AreasForImprovement,
		CommentsAndFeedback: req.CommentsAndFeedback,
		Attachments:         models.AttachmentList{},
		Status:              models.AppraisalSubmitted,
	}
	if err := s.repo.Create(ctx, appraisal); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.ErrNotEligible
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create appraisal")
	}

	if s.notifications != nil {
		s.notifications.Notify(models.Notification{
			UserID:    supervisor.ID,
			Type:      "appraisal_submitted",
			Title:     "Internship appraisal submitted",
			Message:   fmt.Sprintf("%s submitted an internship appraisal for %s.", companyName, student.FullName),
			ActionURL: "/reports/appraisals/" + appraisal.ID,
		})
	}

	return appraisal, nil
}

// Get loads an appraisal, enforcing participant access.
func (s *AppraisalService) Get(ctx context.Context, id, actorID string, role models.UserRole) (*models.InternshipAppraisal, error) {
	appraisal, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if !canViewReport(role, actorID, appraisal.StudentID, appraisal.CompanyID, appraisal.SupervisorID) {
		return nil, appErrors.ErrForbidden
	}
	return appraisal, nil
}

// List returns appraisals scoped to the caller, reconciled against profiles.
func (s *AppraisalService) List(ctx context.Context, filter models.AppraisalFilter, actorID string, role models.UserRole) ([]models.InternshipAppraisal, error) {
	scopeReportFilter(role, actorID, &filter.StudentID, &filter.CompanyID, &filter.SupervisorID)

	appraisals, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list appraisals")
	}
	for i := range appraisals {
		s.reconcile(ctx, &appraisals[i])
	}
	return appraisals, nil
}

// AddAttachments appends already validated and stored attachment paths.
func (s *AppraisalService) AddAttachments(ctx context.Context, id, actorID string, paths []string) (*models.InternshipAppraisal, error) {
	if len(paths) == 0 {
		return nil, appErrors.Clone(appErrors.ErrValidation, "no attachments provided")
	}

	appraisal, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if appraisal.CompanyID != actorID {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "appraisal does not belong to this company")
	}

	attachments := append(appraisal.Attachments, paths...)
	if err := s.repo.AppendAttachments(ctx, appraisal.ID, attachments); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to store appraisal attachments")
	}
	return s.load(ctx, id)
}

// UpdateStatus moves the appraisal through its review lifecycle.
func (s *AppraisalService) UpdateStatus(ctx context.Context, id, actorID string, status models.AppraisalStatus) (*models.InternshipAppraisal, error) {
	switch status {
	case models.AppraisalReviewed, models.AppraisalArchived:
	default:
		return nil, appErrors.Clone(appErrors.ErrValidation, "status must be reviewed or archived")
	}

	appraisal, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if appraisal.SupervisorID != actorID {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "appraisal is not assigned to this supervisor")
	}

	if err := s.repo.UpdateStatus(ctx, appraisal.ID, status); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update appraisal status")
	}
	return s.load(ctx, id)
}

func (s *AppraisalService) load(ctx context.Context, id string) (*models.InternshipAppraisal, error) {
	appraisal, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "appraisal not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load appraisal")
	}
	return appraisal, nil
}

func (s *AppraisalService) reconcile(ctx context.Context, appraisal *models.InternshipAppraisal) {
	if name, err := s.directory.CompanyName(ctx, appraisal.CompanyID); err == nil && name != "" {
		appraisal.CompanyName = name
	}
	if student, err := s.directory.StudentProfile(ctx, appraisal.StudentID); err == nil {
		if student.RollNumber != "" {
			appraisal.RollNumber = student.RollNumber
		}
		if student.FullName != "" {
			appraisal.StudentName = student.FullName
		}
	}
}

func validateAppraisal(req dto.CreateAppraisalRequest) error {
	violations := make([]appErrors.FieldViolation, 0, 6)
	if req.Rating < models.AppraisalRatingMin || req.Rating > models.AppraisalRatingMax {
		violations = append(violations, appErrors.FieldViolation{
			Field:   "rating",
			Message: fmt.Sprintf("must be between %d and %d", models.AppraisalRatingMin, models.AppraisalRatingMax),
		})
	}
	if !models.ValidPerformance(req.OverallPerformance) {
		violations = append(violations, appErrors.FieldViolation{Field: "overall_performance", Message: "is not a recognised value"})
	}
	if !models.ValidRecommendation(req.Recommendation) {
		violations = append(violations, appErrors.FieldViolation{Field: "recommendation", Message: "is not a recognised value"})
	}
	if len(strings.TrimSpace(req.KeyStrengths)) < models.AppraisalStrengthsMinLen {
		violations = append(violations, appErrors.FieldViolation{
			Field:   "key_strengths",
			Message: fmt.Sprintf("must be at least %d characters", models.AppraisalStrengthsMinLen),
		})
	}
	if len(strings.TrimSpace(req.AreasForImprovement)) < models.AppraisalImprovementMinLen {
		violations = append(violations, appErrors.FieldViolation{
			Field:   "areas_for_improvement",
			Message: fmt.Sprintf("must be at least %d characters", models.AppraisalImprovementMinLen),
		})
	}
	if len(strings.TrimSpace(req.CommentsAndFeedback)) < models.AppraisalCommentsMinLen {
		violations = append(violations, appErrors.FieldViolation{
			Field:   "comments_and_feedback",
			Message: fmt.Sprintf("must be at least %d characters", models.AppraisalCommentsMinLen),
		})
	}
	if len(violations) > 0 {
		return appErrors.WithDetails(appErrors.ErrValidation, violations)
	}
	return nil
}
