package service

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/internhub/internhub-api/internal/models"
	appErrors "github.com/internhub/internhub-api/pkg/errors"
	"github.com/internhub/internhub-api/pkg/jobs"
)

type notificationStore interface {
	Create(ctx context.Context, n *models.Notification) error
	List(ctx context.Context, filter models.NotificationFilter) ([]models.Notification, error)
	MarkRead(ctx context.Context, id, userID string, readAt time.Time) error
}

type notificationDispatcher interface {
	Enqueue(job jobs.Job) error
}

// NotificationService persists and dispatches user notifications through the
// in-memory jobs queue. Delivery is best-effort: enqueue and handler failures
// are logged and never surfaced to the caller.
type NotificationService struct {
	repo   notificationStore
	queue  notificationDispatcher
	logger *zap.Logger
}

// NewNotificationService constructs the notification service.
func NewNotificationService(repo notificationStore, queue notificationDispatcher, logger *zap.Logger) *NotificationService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &NotificationService{repo: repo, queue: queue, logger: logger}
}

// Notify queues a notification for delivery. It never returns an error.
func (s *NotificationService) Notify(n models.Notification) {
	if n.UserID == "" {
		return
	}
	if n.ID == "" {
		n.ID = uuid.NewString()
	}
	if s.queue == nil {
		s.logger.Warn("notification queue unavailable, dropping", zap.String("user_id", n.UserID), zap.String("type", n.Type))
		return
	}
	if err := s.queue.Enqueue(jobs.Job{ID: n.ID, Type: n.Type, Payload: n}); err != nil {
		s.logger.Warn("failed to enqueue notification",
			zap.String("user_id", n.UserID),
			zap.String("type", n.Type),
			zap.Error(err))
	}
}

// Handle is the queue worker: it persists the notification payload.
func (s *NotificationService) Handle(ctx context.Context, job jobs.Job) error {
	n, ok := job.Payload.(models.Notification)
	if !ok {
		s.logger.Warn("unexpected notification payload", zap.String("job_id", job.ID))
		return nil
	}
	if err := s.repo.Create(ctx, &n); err != nil {
		return err
	}
	return nil
}

// List returns the caller's notifications.
func (s *NotificationService) List(ctx context.Context, filter models.NotificationFilter) ([]models.Notification, error) {
	items, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list notifications")
	}
	return items, nil
}

// MarkRead flips the read flag for a notification owned by the caller.
func (s *NotificationService) MarkRead(ctx context.Context, id, userID string) error {
	if err := s.repo.MarkRead(ctx, id, userID, time.Now().UTC()); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "notification not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to mark notification read")
	}
	return nil
}
