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

type offerStore interface {
	GetByID(ctx context.Context, id string) (*models.OfferLetter, error)
	GetByApplicationID(ctx context.Context, applicationID string) (*models.OfferLetter, error)
	List(ctx context.Context, filter models.OfferFilter) ([]models.OfferLetter, error)
	RecordResponse(ctx context.Context, id string, status models.OfferStatus, response *string, respondedAt time.Time) error
}

// OfferService reads offer letters and records the student's one-time
// response. Offers are created only inside the hire transaction and are
// otherwise immutable.
type OfferService struct {
	repo          offerStore
	notifications notifier
	validator     *validator.Validate
	logger        *zap.Logger
}

// NewOfferService constructs the offer service.
func NewOfferService(repo offerStore, notifications notifier, validate *validator.Validate, logger *zap.Logger) *OfferService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	return &OfferService{repo: repo, notifications: notifications, validator: validate, logger: logger}
}

// Get loads an offer, enforcing that the caller is a participant.
func (s *OfferService) Get(ctx context.Context, id, actorID string, role models.UserRole) (*models.OfferLetter, error) {
	offer, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if !s.canView(offer, actorID, role) {
		return nil, appErrors.ErrForbidden
	}
	return offer, nil
}

// List returns offers scoped to the caller's role.
func (s *OfferService) List(ctx context.Context, filter models.OfferFilter, actorID string, role models.UserRole) ([]models.OfferLetter, error) {
	switch role {
	case models.RoleStudent:
		filter.StudentID = actorID
	case models.RoleCompany:
		filter.CompanyID = actorID
	}
	offers, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list offers")
	}
	return offers, nil
}

// Respond records the student's accept/decline decision exactly once.
func (s *OfferService) Respond(ctx context.Context, id, actorID string, req dto.OfferResponseRequest) (*models.OfferLetter, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid offer response payload")
	}

	offer, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if offer.StudentID != actorID {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "offer does not belong to this student")
	}

	status := models.OfferStatus(req.Response)
	if offer.Status != models.OfferSent {
		if offer.Status == status {
			return offer, nil
		}
		return nil, appErrors.Clone(appErrors.ErrInvalidTransition, "offer has already been responded to")
	}

	var response *string
	if req.Message != "" {
		response = &req.Message
	}
	if err := s.repo.RecordResponse(ctx, offer.ID, status, response, time.Now().UTC()); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrInvalidTransition, "offer has already been responded to")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to record offer response")
	}

	if s.notifications != nil {
		s.notifications.Notify(models.Notification{
			UserID:    offer.CompanyID,
			Type:      "offer_response",
			Title:     "Offer " + string(status),
			Message:   fmt.Sprintf("The student %s the offer for application %s.", status, offer.ApplicationID),
			ActionURL: "/offers/" + offer.ID,
		})
	}

	return s.load(ctx, id)
}

// GetByApplication returns the offer bound to an application.
func (s *OfferService) GetByApplication(ctx context.Context, applicationID, actorID string, role models.UserRole) (*models.OfferLetter, error) {
	offer, err := s.repo.GetByApplicationID(ctx, applicationID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "offer not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load offer")
	}
	if !s.canView(offer, actorID, role) {
		return nil, appErrors.ErrForbidden
	}
	return offer, nil
}

func (s *OfferService) load(ctx context.Context, id string) (*models.OfferLetter, error) {
	offer, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "offer not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load offer")
	}
	return offer, nil
}

func (s *OfferService) canView(offer *models.OfferLetter, actorID string, role models.UserRole) bool {
	switch role {
	case models.RoleAdmin:
		return true
	case models.RoleStudent:
		return offer.StudentID == actorID
	case models.RoleCompany:
		return offer.CompanyID == actorID
	case models.RoleSupervisor:
		return offer.SupervisorID == actorID
	default:
		return false
	}
}
