package models

import "time"

// DocumentKind selects which record a render job turns into a document.
type DocumentKind string

const (
	DocumentOfferLetter      DocumentKind = "OFFER_LETTER"
	DocumentMisconductReport DocumentKind = "MISCONDUCT_REPORT"
	DocumentProgressReport   DocumentKind = "PROGRESS_REPORT"
	DocumentAppraisal        DocumentKind = "APPRAISAL"
)

// DocumentFormat is the rendered output format.
type DocumentFormat string

const (
	DocumentFormatPDF DocumentFormat = "pdf"
	DocumentFormatCSV DocumentFormat = "csv"
)

// DocumentJobStatus tracks the async render lifecycle.
type DocumentJobStatus string

const (
	DocumentJobQueued     DocumentJobStatus = "QUEUED"
	DocumentJobProcessing DocumentJobStatus = "PROCESSING"
	DocumentJobFinished   DocumentJobStatus = "FINISHED"
	DocumentJobFailed     DocumentJobStatus = "FAILED"
)

// DocumentJob is one queued PDF/CSV render request.
type DocumentJob struct {
	ID           string            `db:"id" json:"id"`
	Kind         DocumentKind      `db:"kind" json:"kind"`
	EntityID     string            `db:"entity_id" json:"entity_id"`
	Format       DocumentFormat    `db:"format" json:"format"`
	Status       DocumentJobStatus `db:"status" json:"status"`
	Progress     int               `db:"progress" json:"progress"`
	ResultURL    *string           `db:"result_url" json:"result_url,omitempty"`
	ErrorMessage *string           `db:"error_message" json:"error_message,omitempty"`
	CreatedBy    string            `db:"created_by" json:"created_by"`
	CreatedAt    time.Time         `db:"created_at" json:"created_at"`
	FinishedAt   *time.Time        `db:"finished_at" json:"finished_at,omitempty"`
}
