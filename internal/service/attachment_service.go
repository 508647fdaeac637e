package service

import (
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	appErrors "github.com/internhub/internhub-api/pkg/errors"
)

type attachmentStorage interface {
	SaveStream(filename string, r io.Reader) (string, error)
	Delete(filename string) error
}

// AttachmentUpload carries one uploaded file through validation.
type AttachmentUpload struct {
	Filename string
	Size     int64
	MimeType string
	Content  io.ReadSeeker
}

// AttachmentService validates uploads against the MIME allow-list and size
// cap, then persists them under the attachments directory. Violations are
// INVALID_ATTACHMENT and nothing is stored.
type AttachmentService struct {
	storage      attachmentStorage
	allowedMIMEs map[string]struct{}
	maxSizeBytes int64
	logger       *zap.Logger
}

// NewAttachmentService constructs the attachment service.
func NewAttachmentService(storage attachmentStorage, allowedMIMEs []string, maxSizeBytes int64, logger *zap.Logger) *AttachmentService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if maxSizeBytes <= 0 {
		maxSizeBytes = 5 << 20
	}
	allowed := make(map[string]struct{}, len(allowedMIMEs))
	for _, m := range allowedMIMEs {
		m = strings.TrimSpace(strings.ToLower(m))
		if m != "" {
			allowed[m] = struct{}{}
		}
	}
	return &AttachmentService{storage: storage, allowedMIMEs: allowed, maxSizeBytes: maxSizeBytes, logger: logger}
}

// Store validates and persists one upload, returning the stored relative path.
func (s *AttachmentService) Store(prefix string, upload AttachmentUpload) (string, error) {
	if upload.Content == nil {
		return "", appErrors.Clone(appErrors.ErrInvalidAttachment, "file content missing")
	}
	if upload.Size <= 0 {
		return "", appErrors.Clone(appErrors.ErrInvalidAttachment, "empty file")
	}
	if upload.Size > s.maxSizeBytes {
		return "", appErrors.Clone(appErrors.ErrInvalidAttachment,
			fmt.Sprintf("file exceeds the %d byte limit", s.maxSizeBytes))
	}

	mimeType, err := s.detectMime(upload)
	if err != nil {
		return "", err
	}
	if _, ok := s.allowedMIMEs[normalizeMime(mimeType)]; !ok {
		return "", appErrors.Clone(appErrors.ErrInvalidAttachment,
			fmt.Sprintf("file type %s is not allowed", mimeType))
	}

	ext := filepath.Ext(upload.Filename)
	relPath := filepath.Join(prefix, uuid.NewString()+ext)
	stored, err := s.storage.SaveStream(relPath, upload.Content)
	if err != nil {
		return "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to store attachment")
	}
	return stored, nil
}

// StoreAll validates every upload before storing any of them, so a single
// violation rejects the batch with nothing written.
func (s *AttachmentService) StoreAll(prefix string, uploads []AttachmentUpload) ([]string, error) {
	for i := range uploads {
		if err := s.validate(uploads[i]); err != nil {
			return nil, err
		}
	}
	paths := make([]string, 0, len(uploads))
	for i := range uploads {
		stored, err := s.Store(prefix, uploads[i])
		if err != nil {
			for _, p := range paths {
				if delErr := s.storage.Delete(p); delErr != nil {
					s.logger.Warn("failed to remove partial attachment", zap.String("path", p), zap.Error(delErr))
				}
			}
			return nil, err
		}
		paths = append(paths, stored)
	}
	return paths, nil
}

func (s *AttachmentService) validate(upload AttachmentUpload) error {
	if upload.Content == nil {
		return appErrors.Clone(appErrors.ErrInvalidAttachment, "file content missing")
	}
	if upload.Size <= 0 {
		return appErrors.Clone(appErrors.ErrInvalidAttachment, "empty file")
	}
	if upload.Size > s.maxSizeBytes {
		return appErrors.Clone(appErrors.ErrInvalidAttachment,
			fmt.Sprintf("file exceeds the %d byte limit", s.maxSizeBytes))
	}
	mimeType, err := s.detectMime(upload)
	if err != nil {
		return err
	}
	if _, ok := s.allowedMIMEs[normalizeMime(mimeType)]; !ok {
		return appErrors.Clone(appErrors.ErrInvalidAttachment,
			fmt.Sprintf("file type %s is not allowed", mimeType))
	}
	return nil
}

func (s *AttachmentService) detectMime(upload AttachmentUpload) (string, error) {
	if upload.MimeType != "" {
		return upload.MimeType, nil
	}
	header := make([]byte, 512)
	n, err := upload.Content.Read(header)
	if err != nil && err != io.EOF {
		return "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to inspect file")
	}
	if _, err := upload.Content.Seek(0, io.SeekStart); err != nil {
		return "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to reset upload stream")
	}
	if n == 0 {
		return "", appErrors.Clone(appErrors.ErrInvalidAttachment, "empty file")
	}
	return http.DetectContentType(header[:n]), nil
}

func normalizeMime(mimeType string) string {
	if idx := strings.Index(mimeType, ";"); idx >= 0 {
		mimeType = mimeType[:idx]
	}
	return strings.TrimSpace(strings.ToLower(mimeType))
}
