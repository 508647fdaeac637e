package handler

import (
	"context"
	"database/sql"
	"encoding/json"
	"net/http"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/internhub/internhub-api/internal/dto"
	"github.com/internhub/internhub-api/internal/middleware"
	"github.com/internhub/internhub-api/internal/models"
	"github.com/internhub/internhub-api/internal/repository"
	"github.com/internhub/internhub-api/internal/service"
	"github.com/internhub/internhub-api/pkg/jobs"
)

type documentJobStoreStub struct {
	jobs map[string]*models.DocumentJob
}

func (s *documentJobStoreStub) Create(ctx context.Context, job *models.DocumentJob) error {
	if job.ID == "" {
		job.ID = uuid.NewString()
	}
	s.jobs[job.ID] = job
	return nil
}

func (s *documentJobStoreStub) GetByID(ctx context.Context, id string) (*models.DocumentJob, error) {
	job, ok := s.jobs[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return job, nil
}

func (s *documentJobStoreStub) Update(ctx context.Context, id string, params repository.UpdateDocumentJobParams) error {
	return nil
}

func (s *documentJobStoreStub) ListQueued(ctx context.Context, limit int) ([]models.DocumentJob, error) {
	return nil, nil
}

func (s *documentJobStoreStub) ListFinishedBefore(ctx context.Context, cutoff time.Time, limit int) ([]models.DocumentJob, error) {
	return nil, nil
}

type dispatcherStub struct{}

func (dispatcherStub) Enqueue(job jobs.Job) error { return nil }

func newDocumentHandlerForTest() (*DocumentHandler, *documentJobStoreStub) {
	repo := &documentJobStoreStub{jobs: map[string]*models.DocumentJob{}}
	svc := service.NewDocumentService(repo, dispatcherStub{}, nil, zap.NewNop(), service.DocumentServiceConfig{})
	return NewDocumentHandler(svc), repo
}

func TestDocumentHandlerCreate(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler, repo := newDocumentHandlerForTest()

	payload, _ := json.Marshal(dto.DocumentRequest{Kind: models.DocumentOfferLetter, EntityID: "offer-1"})
	c, w := newGinContext(http.MethodPost, "/documents", payload)
	c.Set(middleware.ContextUserKey, &models.JWTClaims{UserID: "company-1", Role: models.RoleCompany})

	handler.Create(c)
	require.Equal(t, http.StatusAccepted, w.Code)
	require.Len(t, repo.jobs, 1)
}

func TestDocumentHandlerCreateRejectsUnknownKind(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler, _ := newDocumentHandlerForTest()

	payload, _ := json.Marshal(dto.DocumentRequest{Kind: "DIPLOMA", EntityID: "x"})
	c, w := newGinContext(http.MethodPost, "/documents", payload)
	c.Set(middleware.ContextUserKey, &models.JWTClaims{UserID: "company-1", Role: models.RoleCompany})

	handler.Create(c)
	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestDocumentHandlerStatus(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler, repo := newDocumentHandlerForTest()
	repo.jobs["job-1"] = &models.DocumentJob{
		ID:        "job-1",
		Kind:      models.DocumentOfferLetter,
		Status:    models.DocumentJobFinished,
		Progress:  100,
		CreatedBy: "company-1",
	}

	c, w := newGinContext(http.MethodGet, "/documents/job-1", nil)
	c.Params = gin.Params{{Key: "id", Value: "job-1"}}
	c.Set(middleware.ContextUserKey, &models.JWTClaims{UserID: "company-1", Role: models.RoleCompany})

	handler.Status(c)
	require.Equal(t, http.StatusOK, w.Code)

	c, w = newGinContext(http.MethodGet, "/documents/job-1", nil)
	c.Params = gin.Params{{Key: "id", Value: "job-1"}}
	c.Set(middleware.ContextUserKey, &models.JWTClaims{UserID: "company-2", Role: models.RoleCompany})

	handler.Status(c)
	require.Equal(t, http.StatusForbidden, w.Code)
}
