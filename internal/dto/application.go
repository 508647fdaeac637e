package dto

import (
	"encoding/json"

	"github.com/internhub/internhub-api/internal/models"
)

// ReviewDecision is the verdict submitted on either approval track.
type ReviewDecision string

const (
	DecisionApproved         ReviewDecision = "approved"
	DecisionRejected         ReviewDecision = "rejected"
	DecisionChangesRequested ReviewDecision = "changes_requested"
)

// SupervisorReviewRequest is the supervisor's verdict on an application.
// changes_requested sends the application back for resubmission instead of
// rejecting it outright.
type SupervisorReviewRequest struct {
	Decision       ReviewDecision `json:"decision" validate:"required"`
	Comments       string         `json:"comments"`
	Reason         string         `json:"reason"`
	RequestedFixes string         `json:"requested_fixes"`
	FieldsToEdit   []string       `json:"fields_to_edit"`
}

// CompanyReviewRequest is the company's verdict. Only valid once the
// supervisor track has approved.
type CompanyReviewRequest struct {
	Decision ReviewDecision `json:"decision" validate:"required"`
	Comments string         `json:"comments"`
}

// ResubmitRequest appends a revision and routes the application back to the supervisor.
type ResubmitRequest struct {
	Payload json.RawMessage `json:"payload" validate:"required"`
	Note    string          `json:"note"`
}

// ScheduleInterviewRequest books the interview slot.
type ScheduleInterviewRequest struct {
	Type        models.InterviewType `json:"type" validate:"required"`
	Date        string               `json:"date" validate:"required"`
	Time        string               `json:"time" validate:"required"`
	Location    string               `json:"location"`
	MeetingLink string               `json:"meeting_link"`
	Notes       string               `json:"notes"`
}

// HireRequest carries the offer terms that accompany a hire decision.
type HireRequest struct {
	Content        string `json:"content" validate:"required"`
	StartDate      string `json:"start_date" validate:"required"`
	EndDate        string `json:"end_date" validate:"required"`
	Organization   string `json:"organization"`
	Representative string `json:"representative"`
}

// RejectRequest records the terminal rejection note.
type RejectRequest struct {
	Note string `json:"note"`
}

// ApplicationQuery filters application listings.
type ApplicationQuery struct {
	StudentID         string
	CompanyID         string
	SupervisorID      string
	OverallStatus     models.OverallStatus
	ApplicationStatus models.HiringStatus
	Limit             int
	Offset            int
}
