package dto

import "github.com/internhub/internhub-api/internal/models"

// DocumentRequest asks for an async render of a record.
type DocumentRequest struct {
	Kind     models.DocumentKind   `json:"kind" validate:"required"`
	EntityID string                `json:"entity_id" validate:"required"`
	Format   models.DocumentFormat `json:"format"`
}

// DocumentJobResponse acknowledges a queued render job.
type DocumentJobResponse struct {
	ID       string                   `json:"id"`
	Status   models.DocumentJobStatus `json:"status"`
	Progress int                      `json:"progress"`
}

// DocumentStatusResponse reports job progress and the signed download URL.
type DocumentStatusResponse struct {
	ID        string                   `json:"id"`
	Status    models.DocumentJobStatus `json:"status"`
	Progress  int                      `json:"progress"`
	ResultURL *string                  `json:"result_url,omitempty"`
	Error     *string                  `json:"error,omitempty"`
}
