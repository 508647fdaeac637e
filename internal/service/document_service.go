package service

import (
	"context"
	"database/sql"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/internhub/internhub-api/internal/dto"
	"github.com/internhub/internhub-api/internal/models"
	"github.com/internhub/internhub-api/internal/repository"
	appErrors "github.com/internhub/internhub-api/pkg/errors"
	"github.com/internhub/internhub-api/pkg/jobs"
)

type documentJobStore interface {
	Create(ctx context.Context, job *models.DocumentJob) error
	GetByID(ctx context.Context, id string) (*models.DocumentJob, error)
	Update(ctx context.Context, id string, params repository.UpdateDocumentJobParams) error
	ListQueued(ctx context.Context, limit int) ([]models.DocumentJob, error)
	ListFinishedBefore(ctx context.Context, cutoff time.Time, limit int) ([]models.DocumentJob, error)
}

type jobDispatcher interface {
	Enqueue(job jobs.Job) error
}

type documentGenerator interface {
	Generate(ctx context.Context, job *models.DocumentJob) (*RenderResult, error)
}

// DocumentServiceConfig governs queue recovery and cleanup.
type DocumentServiceConfig struct {
	ResultTTL       time.Duration
	CleanupInterval time.Duration
	MaxRetries      int
}

// DocumentDownload aggregates resolved download data.
type DocumentDownload struct {
	File      *os.File
	Filename  string
	Format    models.DocumentFormat
	ExpiresAt time.Time
}

// DocumentService orchestrates async render job lifecycle management.
type DocumentService struct {
	repo     documentJobStore
	queue    jobDispatcher
	renderer *RenderService
	logger   *zap.Logger
	cfg      DocumentServiceConfig
}

// NewDocumentService constructs the document service.
func NewDocumentService(repo documentJobStore, queue jobDispatcher, renderer *RenderService, logger *zap.Logger, cfg DocumentServiceConfig) *DocumentService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.ResultTTL <= 0 {
		cfg.ResultTTL = 24 * time.Hour
	}
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = 3
	}
	return &DocumentService{
		repo:     repo,
		queue:    queue,
		renderer: renderer,
		logger:   logger,
		cfg:      cfg,
	}
}

// CreateJob validates the request, persists the job, and enqueues processing.
func (s *DocumentService) CreateJob(ctx context.Context, req dto.DocumentRequest, actorID string) (*dto.DocumentJobResponse, error) {
	if err := s.validateRequest(&req); err != nil {
		return nil, err
	}
	job := &models.DocumentJob{
		Kind:      req.Kind,
		EntityID:  req.EntityID,
		Format:    req.Format,
		Status:    models.DocumentJobQueued,
		Progress:  0,
		CreatedBy: actorID,
	}
	if err := s.repo.Create(ctx, job); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create document job")
	}
	if err := s.queue.Enqueue(jobs.Job{ID: job.ID, Type: string(job.Kind)}); err != nil {
		status := models.DocumentJobFailed
		msg := "failed to enqueue job"
		now := time.Now().UTC()
		progress := 100
		_ = s.repo.Update(ctx, job.ID, repository.UpdateDocumentJobParams{
			Status:       &status,
			Progress:     &progress,
			ErrorMessage: &msg,
			FinishedAt:   &now,
		})
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to enqueue document job")
	}
	return &dto.DocumentJobResponse{ID: job.ID, Status: job.Status, Progress: job.Progress}, nil
}

// GetStatus exposes job metadata, enforcing ownership for non-admin callers.
func (s *DocumentService) GetStatus(ctx context.Context, id, actorID string, role models.UserRole) (*dto.DocumentStatusResponse, error) {
	job, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.ErrNotFound
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load document job")
	}
	if role != models.RoleAdmin && job.CreatedBy != actorID {
		return nil, appErrors.ErrForbidden
	}
	resp := &dto.DocumentStatusResponse{
		ID:       job.ID,
		Status:   job.Status,
		Progress: job.Progress,
	}
	if job.ResultURL != nil {
		resp.ResultURL = job.ResultURL
	}
	if job.ErrorMessage != nil && *job.ErrorMessage != "" {
		resp.Error = job.ErrorMessage
	}
	return resp, nil
}

// ResolveDownload validates the token and opens the stored file.
func (s *DocumentService) ResolveDownload(ctx context.Context, token string) (*DocumentDownload, error) {
	jobID, relPath, expiresAt, err := s.renderer.ParseToken(token, false)
	if err != nil {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "invalid or expired download token")
	}
	job, err := s.repo.GetByID(ctx, jobID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.ErrNotFound
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load document job")
	}
	if job.ResultURL == nil || !strings.HasSuffix(*job.ResultURL, token) {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "token mismatch")
	}
	if job.Status != models.DocumentJobFinished {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "document not ready")
	}
	file, err := s.renderer.Open(relPath)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to open document file")
	}
	return &DocumentDownload{
		File:      file,
		Filename:  filepath.Base(relPath),
		Format:    job.Format,
		ExpiresAt: expiresAt,
	}, nil
}

// RecoverPendingJobs replays queued jobs (e.g. after process restart).
func (s *DocumentService) RecoverPendingJobs(ctx context.Context) {
	pending, err := s.repo.ListQueued(ctx, 50)
	if err != nil {
		s.logger.Sugar().Warnw("failed to recover queued document jobs", "error", err)
		return
	}
	for _, job := range pending {
		if err := s.queue.Enqueue(jobs.Job{ID: job.ID, Type: string(job.Kind)}); err != nil {
			s.logger.Sugar().Warnw("failed to requeue pending job", "job_id", job.ID, "error", err)
		}
	}
}

// StartCleanup boots a goroutine that purges expired documents periodically.
func (s *DocumentService) StartCleanup(ctx context.Context) {
	if s.cfg.CleanupInterval <= 0 {
		return
	}
	ticker := time.NewTicker(s.cfg.CleanupInterval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				s.cleanupExpired(ctx)
			}
		}
	}()
}

func (s *DocumentService) cleanupExpired(ctx context.Context) {
	cutoff := time.Now().Add(-s.cfg.ResultTTL)
	for {
		finished, err := s.repo.ListFinishedBefore(ctx, cutoff, 100)
		if err != nil {
			s.logger.Sugar().Warnw("cleanup list failed", "error", err)
			return
		}
		if len(finished) == 0 {
			break
		}
		for _, job := range finished {
			if job.ResultURL == nil {
				continue
			}
			token := extractToken(*job.ResultURL)
			if token == "" {
				continue
			}
			_, relPath, _, err := s.renderer.ParseToken(token, true)
			if err != nil {
				continue
			}
			if err := s.renderer.Delete(relPath); err != nil {
				s.logger.Sugar().Warnw("cleanup delete failed", "job_id", job.ID, "error", err)
			}
		}
		if len(finished) < 100 {
			break
		}
	}
	if _, err := s.renderer.Cleanup(s.cfg.ResultTTL); err != nil {
		s.logger.Sugar().Warnw("filesystem cleanup failed", "error", err)
	}
}

func (s *DocumentService) validateRequest(req *dto.DocumentRequest) error {
	switch req.Kind {
	case models.DocumentOfferLetter, models.DocumentMisconductReport, models.DocumentProgressReport, models.DocumentAppraisal:
	default:
		return appErrors.Clone(appErrors.ErrValidation, "unsupported document kind")
	}
	if req.EntityID == "" {
		return appErrors.Clone(appErrors.ErrValidation, "entity_id is required")
	}
	if req.Format == "" {
		req.Format = models.DocumentFormatPDF
	}
	if req.Format != models.DocumentFormatPDF && req.Format != models.DocumentFormatCSV {
		return appErrors.Clone(appErrors.ErrValidation, "unsupported document format")
	}
	return nil
}

func extractToken(url string) string {
	if url == "" {
		return ""
	}
	parts := strings.Split(url, "/")
	return parts[len(parts)-1]
}

// DocumentWorker bridges queue jobs to the renderer.
type DocumentWorker struct {
	repo       documentJobStore
	renderer   documentGenerator
	logger     *zap.Logger
	maxRetries int
}

// NewDocumentWorker constructs a worker.
func NewDocumentWorker(repo documentJobStore, renderer documentGenerator, maxRetries int, logger *zap.Logger) *DocumentWorker {
	if logger == nil {
		logger = zap.NewNop()
	}
	if maxRetries <= 0 {
		maxRetries = 3
	}
	return &DocumentWorker{
		repo:       repo,
		renderer:   renderer,
		logger:     logger,
		maxRetries: maxRetries,
	}
}

// Handle processes a queue job.
func (w *DocumentWorker) Handle(ctx context.Context, job jobs.Job) error {
	record, err := w.repo.GetByID(ctx, job.ID)
	if err != nil {
		return err
	}
	processing := models.DocumentJobProcessing
	progress := 10
	if err := w.repo.Update(ctx, job.ID, repository.UpdateDocumentJobParams{
		Status:   &processing,
		Progress: &progress,
	}); err != nil {
		return err
	}
	result, err := w.renderer.Generate(ctx, record)
	if err != nil {
		msg := err.Error()
		if job.Attempt >= w.maxRetries {
			failed := models.DocumentJobFailed
			progress = 100
			now := time.Now().UTC()
			if updateErr := w.repo.Update(ctx, job.ID, repository.UpdateDocumentJobParams{
				Status:       &failed,
				Progress:     &progress,
				ErrorMessage: &msg,
				FinishedAt:   &now,
			}); updateErr != nil {
				w.logger.Sugar().Warnw("failed to mark job failed", "job_id", job.ID, "error", updateErr)
			}
		} else {
			queued := models.DocumentJobQueued
			reset := 0
			if updateErr := w.repo.Update(ctx, job.ID, repository.UpdateDocumentJobParams{
				Status:       &queued,
				Progress:     &reset,
				ErrorMessage: &msg,
			}); updateErr != nil {
				w.logger.Sugar().Warnw("failed to mark job queued", "job_id", job.ID, "error", updateErr)
			}
		}
		return err
	}
	finished := models.DocumentJobFinished
	progress = 100
	now := time.Now().UTC()
	url := result.URL
	clear := ""
	if err := w.repo.Update(ctx, job.ID, repository.UpdateDocumentJobParams{
		Status:       &finished,
		Progress:     &progress,
		ResultURL:    &url,
		ErrorMessage: &clear,
		FinishedAt:   &now,
	}); err != nil {
		w.logger.Sugar().Warnw("failed to mark job finished", "job_id", job.ID, "error", err)
		return err
	}
	return nil
}
