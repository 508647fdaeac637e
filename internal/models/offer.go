package models

import "time"

// OfferStatus tracks the student's response to an issued offer.
type OfferStatus string

const (
	OfferSent     OfferStatus = "sent"
	OfferAccepted OfferStatus = "accepted"
	OfferDeclined OfferStatus = "declined"
)

// OfferLetter is the immutable offer record created at hire time.
// Only the student's response fields are ever updated after creation.
type OfferLetter struct {
	ID            string `db:"id" json:"id"`
	ApplicationID string `db:"application_id" json:"application_id"`
	StudentID     string `db:"student_id" json:"student_id"`
	JobID         string `db:"job_id" json:"job_id"`
	SupervisorID  string `db:"supervisor_id" json:"supervisor_id"`
	CompanyID     string `db:"company_id" json:"company_id"`

	Content        string    `db:"content" json:"content"`
	StartDate      time.Time `db:"start_date" json:"start_date"`
	EndDate        time.Time `db:"end_date" json:"end_date"`
	Organization   string    `db:"organization" json:"organization"`
	Representative string    `db:"representative" json:"representative"`

	Status          OfferStatus `db:"status" json:"status"`
	StudentResponse *string     `db:"student_response" json:"student_response,omitempty"`
	RespondedAt     *time.Time  `db:"responded_at" json:"responded_at,omitempty"`

	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// OfferFilter constrains offer listing queries.
type OfferFilter struct {
	StudentID string
	CompanyID string
	Status    OfferStatus
	Limit     int
	Offset    int
}
