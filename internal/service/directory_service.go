package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/internhub/internhub-api/internal/models"
	appErrors "github.com/internhub/internhub-api/pkg/errors"
)

type profileStore interface {
	GetStudentByUserID(ctx context.Context, userID string) (*models.StudentProfile, error)
	GetCompanyByUserID(ctx context.Context, userID string) (*models.CompanyProfile, error)
	GetSupervisor(ctx context.Context, supervisorID string) (*models.SupervisorRef, error)
}

type directoryCache interface {
	Get(ctx context.Context, key string, dest interface{}) error
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	Reserve(ctx context.Context, key string, value string, ttl time.Duration) (bool, error)
}

// DirectoryService resolves authoritative student and company identity data.
// Report listings reconcile display names through here instead of trusting
// the snapshot columns written at creation time. Lookups are redis-cached.
type DirectoryService struct {
	profiles profileStore
	cache    directoryCache
	logger   *zap.Logger
	cacheTTL time.Duration
	idemTTL  time.Duration
}

// NewDirectoryService constructs the directory service.
func NewDirectoryService(profiles profileStore, cache directoryCache, logger *zap.Logger, cacheTTL, idemTTL time.Duration) *DirectoryService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cacheTTL <= 0 {
		cacheTTL = 5 * time.Minute
	}
	if idemTTL <= 0 {
		idemTTL = 24 * time.Hour
	}
	return &DirectoryService{profiles: profiles, cache: cache, logger: logger, cacheTTL: cacheTTL, idemTTL: idemTTL}
}

// StudentProfile returns the authoritative profile for a student user.
func (s *DirectoryService) StudentProfile(ctx context.Context, studentID string) (*models.StudentProfile, error) {
	key := fmt.Sprintf("directory:student:%s", studentID)
	if s.cache != nil {
		var cached models.StudentProfile
		if err := s.cache.Get(ctx, key, &cached); err == nil {
			return &cached, nil
		}
	}

	profile, err := s.profiles.GetStudentByUserID(ctx, studentID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "student profile not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student profile")
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, key, profile, s.cacheTTL); err != nil {
			s.logger.Warn("failed to cache student profile", zap.String("student_id", studentID), zap.Error(err))
		}
	}
	return profile, nil
}

// CompanyName returns the current display name of a company.
func (s *DirectoryService) CompanyName(ctx context.Context, companyID string) (string, error) {
	key := fmt.Sprintf("directory:company:%s", companyID)
	if s.cache != nil {
		var cached models.CompanyProfile
		if err := s.cache.Get(ctx, key, &cached); err == nil {
			return cached.CompanyName, nil
		}
	}

	profile, err := s.profiles.GetCompanyByUserID(ctx, companyID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", appErrors.Clone(appErrors.ErrNotFound, "company profile not found")
		}
		return "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load company profile")
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, key, profile, s.cacheTTL); err != nil {
			s.logger.Warn("failed to cache company profile", zap.String("company_id", companyID), zap.Error(err))
		}
	}
	return profile.CompanyName, nil
}

// ResolveSupervisor returns the supervisor a student selected on their
// profile. A student without a selected supervisor cannot be reported on.
func (s *DirectoryService) ResolveSupervisor(ctx context.Context, studentID string) (*models.SupervisorRef, error) {
	profile, err := s.StudentProfile(ctx, studentID)
	if err != nil {
		return nil, err
	}
	if profile.SelectedSupervisorID == nil || *profile.SelectedSupervisorID == "" {
		return nil, appErrors.ErrMissingSupervisor
	}

	ref, err := s.profiles.GetSupervisor(ctx, *profile.SelectedSupervisorID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.ErrMissingSupervisor
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to resolve supervisor")
	}
	return ref, nil
}

// ReserveIdempotencyKey claims an Idempotency-Key header value for the given
// scope. It returns false when a previous request already consumed the key.
func (s *DirectoryService) ReserveIdempotencyKey(ctx context.Context, scope, key string) (bool, error) {
	if key == "" {
		return true, nil
	}
	if s.cache == nil {
		return true, nil
	}
	ok, err := s.cache.Reserve(ctx, fmt.Sprintf("idempotency:%s:%s", scope, key), "1", s.idemTTL)
	if err != nil {
		// Redis outage must not block business writes.
		s.logger.Warn("idempotency reservation failed", zap.String("scope", scope), zap.Error(err))
		return true, nil
	}
	return ok, nil
}
