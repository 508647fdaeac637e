package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

// TrackStatus is the state of one independent approval track.
type TrackStatus string

const (
	TrackPending  TrackStatus = "pending"
	TrackApproved TrackStatus = "approved"
	TrackRejected TrackStatus = "rejected"
)

// OverallStatus is the conjunction state derived from both approval tracks.
type OverallStatus string

const (
	OverallPendingSupervisor      OverallStatus = "pending_supervisor"
	OverallChangesRequested       OverallStatus = "supervisor_changes_requested"
	OverallResubmitted            OverallStatus = "resubmitted_to_supervisor"
	OverallSupervisorApproved     OverallStatus = "supervisor_approved"
	OverallPendingCompany         OverallStatus = "pending_company"
	OverallApproved               OverallStatus = "approved"
	OverallRejected               OverallStatus = "rejected"
	OverallRejectedFinal          OverallStatus = "rejected_final"
)

// HiringStatus is the interview/hire track, gated by company approval.
type HiringStatus string

const (
	HiringPending            HiringStatus = "pending"
	HiringInterviewScheduled HiringStatus = "interview_scheduled"
	HiringInterviewDone      HiringStatus = "interview_done"
	HiringHired              HiringStatus = "hired"
	HiringRejected           HiringStatus = "rejected"
)

// Terminal reports whether no further hiring transitions are allowed.
func (s HiringStatus) Terminal() bool {
	return s == HiringHired || s == HiringRejected
}

// InterviewType enumerates interview formats.
type InterviewType string

const (
	InterviewRemote   InterviewType = "remote"
	InterviewInPerson InterviewType = "in-person"
)

// InterviewDetails captures the scheduled interview slot.
type InterviewDetails struct {
	Type        InterviewType `json:"type"`
	Date        string        `json:"date"`
	Time        string        `json:"time"`
	Location    string        `json:"location,omitempty"`
	MeetingLink string        `json:"meeting_link,omitempty"`
	Notes       string        `json:"notes,omitempty"`
}

// Value implements driver.Valuer for JSONB storage.
func (d InterviewDetails) Value() (driver.Value, error) {
	return json.Marshal(d)
}

// Scan implements sql.Scanner.
func (d *InterviewDetails) Scan(src interface{}) error {
	return scanJSON(src, d)
}

// RejectionFeedback records what the supervisor wants fixed on resubmission.
type RejectionFeedback struct {
	Reason         string   `json:"reason"`
	RequestedFixes string   `json:"requested_fixes,omitempty"`
	FieldsToEdit   []string `json:"fields_to_edit,omitempty"`
}

// Value implements driver.Valuer.
func (f RejectionFeedback) Value() (driver.Value, error) {
	return json.Marshal(f)
}

// Scan implements sql.Scanner.
func (f *RejectionFeedback) Scan(src interface{}) error {
	return scanJSON(src, f)
}

// Revision is one append-only entry in the resubmission log.
type Revision struct {
	Type        string          `json:"type"`
	Payload     json.RawMessage `json:"payload"`
	Note        string          `json:"note,omitempty"`
	SubmittedAt time.Time       `json:"submitted_at"`
}

// RevisionList is the JSONB-backed revisions column.
type RevisionList []Revision

// Value implements driver.Valuer.
func (l RevisionList) Value() (driver.Value, error) {
	if l == nil {
		return json.Marshal([]Revision{})
	}
	return json.Marshal(l)
}

// Scan implements sql.Scanner.
func (l *RevisionList) Scan(src interface{}) error {
	return scanJSON(src, l)
}

// StudentSnapshot is the academic profile embedded at application time.
// Display-only: the authoritative profile lives in the student_profiles table.
type StudentSnapshot struct {
	RollNumber        string   `json:"roll_number"`
	Department        string   `json:"department"`
	Semester          int      `json:"semester"`
	CGPA              float64  `json:"cgpa"`
	AttendancePercent float64  `json:"attendance_percent"`
	Backlogs          int      `json:"backlogs"`
	CV                string   `json:"cv,omitempty"`
	Certificates      []string `json:"certificates,omitempty"`
}

// Value implements driver.Valuer.
func (s StudentSnapshot) Value() (driver.Value, error) {
	return json.Marshal(s)
}

// Scan implements sql.Scanner.
func (s *StudentSnapshot) Scan(src interface{}) error {
	return scanJSON(src, s)
}

// Application tracks one student's candidacy for one job at one company.
// The name/email/title columns are a display cache copied at creation time
// and are never re-synced; foreign keys are authoritative.
type Application struct {
	ID           string `db:"id" json:"id"`
	StudentID    string `db:"student_id" json:"student_id"`
	JobID        string `db:"job_id" json:"job_id"`
	CompanyID    string `db:"company_id" json:"company_id"`
	SupervisorID string `db:"supervisor_id" json:"supervisor_id"`

	StudentName    string `db:"student_name" json:"student_name"`
	StudentEmail   string `db:"student_email" json:"student_email"`
	JobTitle       string `db:"job_title" json:"job_title"`
	CompanyName    string `db:"company_name" json:"company_name"`
	SupervisorName string `db:"supervisor_name" json:"supervisor_name"`

	StudentProfile StudentSnapshot `db:"student_profile" json:"student_profile"`

	SupervisorStatus     TrackStatus        `db:"supervisor_status" json:"supervisor_status"`
	SupervisorComments   *string            `db:"supervisor_comments" json:"supervisor_comments,omitempty"`
	SupervisorReviewedAt *time.Time         `db:"supervisor_reviewed_at" json:"supervisor_reviewed_at,omitempty"`
	RejectionFeedback    *RejectionFeedback `db:"rejection_feedback" json:"rejection_feedback,omitempty"`

	CompanyStatus     TrackStatus `db:"company_status" json:"company_status"`
	CompanyComments   *string     `db:"company_comments" json:"company_comments,omitempty"`
	CompanyReviewedAt *time.Time  `db:"company_reviewed_at" json:"company_reviewed_at,omitempty"`

	OverallStatus     OverallStatus     `db:"overall_status" json:"overall_status"`
	ApplicationStatus HiringStatus      `db:"application_status" json:"application_status"`
	Interview         *InterviewDetails `db:"interview_details" json:"interview_details,omitempty"`

	HiringDate       *time.Time `db:"hiring_date" json:"hiring_date,omitempty"`
	IsCurrentlyHired bool       `db:"is_currently_hired" json:"is_currently_hired"`
	StartDate        *time.Time `db:"start_date" json:"start_date,omitempty"`
	EndDate          *time.Time `db:"end_date" json:"end_date,omitempty"`
	RejectionNote    *string    `db:"rejection_note" json:"rejection_note,omitempty"`

	Revisions RevisionList `db:"revisions" json:"revisions"`

	Version   int       `db:"version" json:"version"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// ApplicationFilter constrains listing queries.
type ApplicationFilter struct {
	StudentID         string
	CompanyID         string
	SupervisorID      string
	OverallStatus     OverallStatus
	ApplicationStatus HiringStatus
	Limit             int
	Offset            int
}

func scanJSON(src, dest interface{}) error {
	switch raw := src.(type) {
	case nil:
		return nil
	case []byte:
		return json.Unmarshal(raw, dest)
	case string:
		return json.Unmarshal([]byte(raw), dest)
	default:
		return fmt.Errorf("unsupported jsonb source type %T", src)
	}
}
