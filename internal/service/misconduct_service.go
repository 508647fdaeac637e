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

type misconductStore interface {
	Create(ctx context.Context, report *models.MisconductReport) error
	GetByID(ctx context.Context, id string) (*models.MisconductReport, error)
	List(ctx context.Context, filter models.MisconductFilter) ([]models.MisconductReport, error)
	UpdateStatus(ctx context.Context, id string, status models.MisconductStatus, comments string, resolvedAt time.Time) error
}

type directoryResolver interface {
	StudentProfile(ctx context.Context, studentID string) (*models.StudentProfile, error)
	CompanyName(ctx context.Context, companyID string) (string, error)
	ResolveSupervisor(ctx context.Context, studentID string) (*models.SupervisorRef, error)
	ReserveIdempotencyKey(ctx context.Context, scope, key string) (bool, error)
}

// MisconductService manages company-authored misconduct reports about hired
// students and their supervisor-exclusive resolution flow.
type MisconductService struct {
	repo          misconductStore
	directory     directoryResolver
	notifications notifier
	validator     *validator.Validate
	logger        *zap.Logger
}

// NewMisconductService constructs the misconduct service.
func NewMisconductService(repo misconductStore, directory directoryResolver, notifications notifier, validate *validator.Validate, logger *zap.Logger) *MisconductService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	return &MisconductService{repo: repo, directory: directory, notifications: notifications, validator: validate, logger: logger}
}

// Create files a misconduct report. The hired-relationship gate runs inside
// the insert transaction; an absent relationship is NOT_ELIGIBLE.
func (s *MisconductService) Create(ctx context.Context, companyID string, req dto.CreateMisconductRequest, idempotencyKey string) (*models.MisconductReport, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid misconduct payload")
	}

	violations := make([]appErrors.FieldViolation, 0, 2)
	if len(strings.TrimSpace(req.Description)) < models.MisconductDescriptionMinLen {
		violations = append(violations, appErrors.FieldViolation{
			Field:   "description",
			Message: fmt.Sprintf("must be at least %d characters", models.MisconductDescriptionMinLen),
		})
	}
	incidentDate, err := time.Parse(hireDateLayout, req.IncidentDate)
	if err != nil {
		violations = append(violations, appErrors.FieldViolation{Field: "incident_date", Message: "must be a valid date (YYYY-MM-DD)"})
	}
	if len(violations) > 0 {
		return nil, appErrors.WithDetails(appErrors.ErrValidation, violations)
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

	ok, err := s.directory.ReserveIdempotencyKey(ctx, "misconduct", idempotencyKey)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to reserve idempotency key")
	}
	if !ok {
		return nil, appErrors.Clone(appErrors.ErrConflict, "request with this idempotency key was already processed")
	}

	report := &models.MisconductReport{
		StudentID:      req.StudentID,
		StudentName:    student.FullName,
		RollNumber:     student.RollNumber,
		CompanyID:      companyID,
		CompanyName:    companyName,
		SupervisorID:   supervisor.ID,
		SupervisorName: supervisor.FullName,
		IssueType:      req.IssueType,
		IncidentDate:   incidentDate,
		Description:    req.Description,
		Status:         models.MisconductPending,
	}
	if err := s.repo.Create(ctx, report); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.ErrNotEligible
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create misconduct report")
	}

	if s.notifications != nil {
		s.notifications.Notify(models.Notification{
			UserID:    supervisor.ID,
			Type:      "misconduct_reported",
			Title:     "Misconduct report filed",
			Message:   fmt.Sprintf("%s filed a misconduct report about %s.", companyName, student.FullName),
			ActionURL: "/reports/misconduct/" + report.ID,
		})
	}

	return report, nil
}

// Get loads a report, enforcing participant access.
func (s *MisconductService) Get(ctx context.Context, id, actorID string, role models.UserRole) (*models.MisconductReport, error) {
	report, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if !canViewReport(role, actorID, report.StudentID, report.CompanyID, report.SupervisorID) {
		return nil, appErrors.ErrForbidden
	}
	return report, nil
}

// List returns reports scoped to the caller, with company names and roll
// numbers reconciled against the authoritative profiles.
func (s *MisconductService) List(ctx context.Context, filter models.MisconductFilter, actorID string, role models.UserRole) ([]models.MisconductReport, error) {
	scopeReportFilter(role, actorID, &filter.StudentID, &filter.CompanyID, &filter.SupervisorID)

	reports, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list misconduct reports")
	}
	for i := range reports {
		s.reconcile(ctx, &reports[i])
	}
	return reports, nil
}

// Resolve records the supervisor's decision. Resolution statuses are at the
// supervisor's discretion; comments are mandatory and resolvedAt is restamped
// on every resolution.
func (s *MisconductService) Resolve(ctx context.Context, id, actorID string, req dto.ResolveMisconductRequest) (*models.MisconductReport, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid resolution payload")
	}

	report, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if report.SupervisorID != actorID {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "report is not assigned to this supervisor")
	}

	if !models.ValidMisconductResolution(req.Status) {
		return nil, appErrors.Clone(appErrors.ErrValidation, "status must be Resolved, Warning Issued or Internship Cancelled")
	}
	if strings.TrimSpace(req.Comments) == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "comments are required when resolving a report")
	}

	if err := s.repo.UpdateStatus(ctx, report.ID, req.Status, req.Comments, time.Now().UTC()); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "misconduct report not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to resolve misconduct report")
	}

	if s.notifications != nil {
		message := fmt.Sprintf("The misconduct report from %s was marked %s.", report.CompanyName, req.Status)
		s.notifications.Notify(models.Notification{
			UserID:    report.StudentID,
			Type:      "misconduct_resolved",
			Title:     "Misconduct report resolved",
			Message:   message,
			ActionURL: "/reports/misconduct/" + report.ID,
		})
		s.notifications.Notify(models.Notification{
			UserID:    report.CompanyID,
			Type:      "misconduct_resolved",
			Title:     "Misconduct report resolved",
			Message:   message,
			ActionURL: "/reports/misconduct/" + report.ID,
		})
	}

	return s.load(ctx, id)
}

func (s *MisconductService) load(ctx context.Context, id string) (*models.MisconductReport, error) {
	report, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "misconduct report not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load misconduct report")
	}
	return report, nil
}

// reconcile swaps the stored display cache for the current profile values.
// Lookups are best-effort: on failure the stored values remain.
func (s *MisconductService) reconcile(ctx context.Context, report *models.MisconductReport) {
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

func canViewReport(role models.UserRole, actorID, studentID, companyID, supervisorID string) bool {
	switch role {
	case models.RoleAdmin:
		return true
	case models.RoleStudent:
		return studentID == actorID
	case models.RoleCompany:
		return companyID == actorID
	case models.RoleSupervisor:
		return supervisorID == actorID
	default:
		return false
	}
}

func scopeReportFilter(role models.UserRole, actorID string, studentID, companyID, supervisorID *string) {
	switch role {
	case models.RoleStudent:
		*studentID = actorID
	case models.RoleCompany:
		*companyID = actorID
	case models.RoleSupervisor:
		*supervisorID = actorID
	}
}
