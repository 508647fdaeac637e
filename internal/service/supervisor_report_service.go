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
	appErrors "github.com/internhub/internhub-api/pkg/errors"
)

type supervisorReportStore interface {
	Create(ctx context.Context, report *models.SupervisorReport) error
	GetByID(ctx context.Context, id string) (*models.SupervisorReport, error)
	List(ctx context.Context, filter models.SupervisorReportFilter) ([]models.SupervisorReport, error)
	MarkRead(ctx context.Context, id string, readAt time.Time) error
}

// SupervisorReportService manages the generalised company-to-supervisor
// reports bound to a specific application.
type SupervisorReportService struct {
	repo          supervisorReportStore
	notifications notifier
	validator     *validator.Validate
	logger        *zap.Logger
}

// NewSupervisorReportService constructs the service.
func NewSupervisorReportService(repo supervisorReportStore, notifications notifier, validate *validator.Validate, logger *zap.Logger) *SupervisorReportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	return &SupervisorReportService{repo: repo, notifications: notifications, validator: validate, logger: logger}
}

// Create files a report. The repository validates company ownership and hired
// status against the referenced application inside the insert transaction.
func (s *SupervisorReportService) Create(ctx context.Context, companyID string, req dto.CreateSupervisorReportRequest) (*models.SupervisorReport, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid report payload")
	}
	if !models.ValidSupervisorReportType(req.ReportType) {
		return nil, appErrors.Clone(appErrors.ErrValidation, "report_type must be misconduct, appraisal or progress")
	}

	report := &models.SupervisorReport{
		ApplicationID: req.ApplicationID,
		ReportType:    req.ReportType,
		CompanyID:     companyID,
		Title:         req.Title,
		Summary:       req.Summary,
		Payload:       req.Payload,
	}
	if err := s.repo.Create(ctx, report); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.ErrNotEligible
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create supervisor report")
	}

	if s.notifications != nil {
		s.notifications.Notify(models.Notification{
			UserID:    report.SupervisorID,
			Type:      "supervisor_report",
			Title:     "New " + string(req.ReportType) + " report",
			Message:   fmt.Sprintf("A %s report was filed for application %s.", req.ReportType, req.ApplicationID),
			ActionURL: "/reports/supervisor/" + report.ID,
		})
	}

	return report, nil
}

// Get loads a report, enforcing participant access.
func (s *SupervisorReportService) Get(ctx context.Context, id, actorID string, role models.UserRole) (*models.SupervisorReport, error) {
	report, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if !canViewReport(role, actorID, report.StudentID, report.CompanyID, report.SupervisorID) {
		return nil, appErrors.ErrForbidden
	}
	return report, nil
}

// List returns reports scoped to the caller's role.
func (s *SupervisorReportService) List(ctx context.Context, filter models.SupervisorReportFilter, actorID string, role models.UserRole) ([]models.SupervisorReport, error) {
	switch role {
	case models.RoleSupervisor:
		filter.SupervisorID = actorID
	case models.RoleCompany:
		filter.CompanyID = actorID
	}

	reports, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list supervisor reports")
	}
	return reports, nil
}

// MarkRead flips the read flag. Only the assigned supervisor may do this.
func (s *SupervisorReportService) MarkRead(ctx context.Context, id, actorID string) (*models.SupervisorReport, error) {
	report, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if report.SupervisorID != actorID {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "report is not assigned to this supervisor")
	}
	if report.IsRead {
		return report, nil
	}

	if err := s.repo.MarkRead(ctx, report.ID, time.Now().UTC()); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "supervisor report not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to mark report read")
	}
	return s.load(ctx, id)
}

func (s *SupervisorReportService) load(ctx context.Context, id string) (*models.SupervisorReport, error) {
	report, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "supervisor report not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load supervisor report")
	}
	return report, nil
}
