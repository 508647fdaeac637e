package service

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/internhub/internhub-api/internal/dto"
	"github.com/internhub/internhub-api/internal/models"
	appErrors "github.com/internhub/internhub-api/pkg/errors"
)

type offerRepoStub struct {
	offers map[string]*models.OfferLetter
}

func newOfferRepoStub() *offerRepoStub {
	return &offerRepoStub{offers: map[string]*models.OfferLetter{}}
}

func (r *offerRepoStub) GetByID(ctx context.Context, id string) (*models.OfferLetter, error) {
	offer, ok := r.offers[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return offer, nil
}

func (r *offerRepoStub) GetByApplicationID(ctx context.Context, applicationID string) (*models.OfferLetter, error) {
	for _, offer := range r.offers {
		if offer.ApplicationID == applicationID {
			return offer, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (r *offerRepoStub) List(ctx context.Context, filter models.OfferFilter) ([]models.OfferLetter, error) {
	var out []models.OfferLetter
	for _, offer := range r.offers {
		if filter.StudentID != "" && offer.StudentID != filter.StudentID {
			continue
		}
		if filter.CompanyID != "" && offer.CompanyID != filter.CompanyID {
			continue
		}
		out = append(out, *offer)
	}
	return out, nil
}

func (r *offerRepoStub) RecordResponse(ctx context.Context, id string, status models.OfferStatus, response *string, respondedAt time.Time) error {
	offer, ok := r.offers[id]
	if !ok || offer.Status != models.OfferSent {
		return sql.ErrNoRows
	}
	offer.Status = status
	offer.StudentResponse = response
	offer.RespondedAt = &respondedAt
	return nil
}

func seedOffer(repo *offerRepoStub) *models.OfferLetter {
	offer := &models.OfferLetter{
		ID:            "offer-1",
		ApplicationID: "app-1",
		StudentID:     "student-1",
		CompanyID:     "company-1",
		SupervisorID:  "supervisor-1",
		Content:       "Welcome aboard.",
		Status:        models.OfferSent,
	}
	repo.offers[offer.ID] = offer
	return offer
}

func TestOfferRespond(t *testing.T) {
	repo := newOfferRepoStub()
	notes := &notifierStub{}
	svc := NewOfferService(repo, notes, nil, zap.NewNop())
	seedOffer(repo)

	_, err := svc.Respond(context.Background(), "offer-1", "student-2", dto.OfferResponseRequest{Response: "accepted"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrForbidden.Code, appErrors.FromError(err).Code)

	offer, err := svc.Respond(context.Background(), "offer-1", "student-1", dto.OfferResponseRequest{
		Response: "accepted",
		Message:  "Looking forward to it",
	})
	require.NoError(t, err)
	assert.Equal(t, models.OfferAccepted, offer.Status)
	require.NotNil(t, offer.RespondedAt)

	require.Len(t, notes.sent, 1)
	assert.Equal(t, "company-1", notes.sent[0].UserID)

	// Repeating the same answer is a no-op; reversing it is rejected.
	_, err = svc.Respond(context.Background(), "offer-1", "student-1", dto.OfferResponseRequest{Response: "accepted"})
	require.NoError(t, err)
	require.Len(t, notes.sent, 1)

	_, err = svc.Respond(context.Background(), "offer-1", "student-1", dto.OfferResponseRequest{Response: "declined"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrInvalidTransition.Code, appErrors.FromError(err).Code)
}

func TestOfferRespondValidatesPayload(t *testing.T) {
	repo := newOfferRepoStub()
	svc := NewOfferService(repo, nil, nil, zap.NewNop())
	seedOffer(repo)

	_, err := svc.Respond(context.Background(), "offer-1", "student-1", dto.OfferResponseRequest{Response: "maybe"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestOfferVisibility(t *testing.T) {
	repo := newOfferRepoStub()
	svc := NewOfferService(repo, nil, nil, zap.NewNop())
	seedOffer(repo)

	_, err := svc.Get(context.Background(), "offer-1", "student-2", models.RoleStudent)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrForbidden.Code, appErrors.FromError(err).Code)

	offer, err := svc.Get(context.Background(), "offer-1", "supervisor-1", models.RoleSupervisor)
	require.NoError(t, err)
	assert.Equal(t, "offer-1", offer.ID)

	offer, err = svc.GetByApplication(context.Background(), "app-1", "company-1", models.RoleCompany)
	require.NoError(t, err)
	assert.Equal(t, "offer-1", offer.ID)

	_, err = svc.GetByApplication(context.Background(), "app-404", "company-1", models.RoleCompany)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}
