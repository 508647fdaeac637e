package models

import (
	"database/sql/driver"
	"encoding/json"
	"time"
)

// AppraisalStatus tracks the appraisal review lifecycle.
type AppraisalStatus string

const (
	AppraisalSubmitted AppraisalStatus = "submitted"
	AppraisalReviewed  AppraisalStatus = "reviewed"
	AppraisalArchived  AppraisalStatus = "archived"
)

// OverallPerformance is the categorical performance verdict.
type OverallPerformance string

const (
	PerformanceOutstanding OverallPerformance = "outstanding"
	PerformanceExceeds     OverallPerformance = "exceeds_expectations"
	PerformanceMeets       OverallPerformance = "meets_expectations"
	PerformanceBelow       OverallPerformance = "below_expectations"
)

// ValidPerformance reports whether the verdict is on the fixed scale.
func ValidPerformance(p OverallPerformance) bool {
	switch p {
	case PerformanceOutstanding, PerformanceExceeds, PerformanceMeets, PerformanceBelow:
		return true
	default:
		return false
	}
}

// Recommendation is the categorical hiring recommendation.
type Recommendation string

const (
	RecommendStrongly         Recommendation = "strongly_recommend"
	Recommend                 Recommendation = "recommend"
	RecommendWithReservations Recommendation = "recommend_with_reservations"
	DoNotRecommend            Recommendation = "do_not_recommend"
)

// ValidRecommendation reports whether the value is on the fixed scale.
func ValidRecommendation(r Recommendation) bool {
	switch r {
	case RecommendStrongly, Recommend, RecommendWithReservations, DoNotRecommend:
		return true
	default:
		return false
	}
}

// Minimum lengths enforced on appraisal free-text fields.
const (
	AppraisalStrengthsMinLen   = 10
	AppraisalImprovementMinLen = 10
	AppraisalCommentsMinLen    = 50
	AppraisalRatingMin         = 1
	AppraisalRatingMax         = 10
)

// AttachmentList is the JSONB-backed list of stored attachment paths.
type AttachmentList []string

// Value implements driver.Valuer.
func (l AttachmentList) Value() (driver.Value, error) {
	if l == nil {
		return json.Marshal([]string{})
	}
	return json.Marshal(l)
}

// Scan implements sql.Scanner.
func (l *AttachmentList) Scan(src interface{}) error {
	return scanJSON(src, l)
}

// InternshipAppraisal is the end-of-term evaluation a company files for a hired student.
type InternshipAppraisal struct {
	ID             string `db:"id" json:"id"`
	StudentID      string `db:"student_id" json:"student_id"`
	StudentName    string `db:"student_name" json:"student_name"`
	RollNumber     string `db:"roll_number" json:"roll_number"`
	CompanyID      string `db:"company_id" json:"company_id"`
	CompanyName    string `db:"company_name" json:"company_name"`
	SupervisorID   string `db:"supervisor_id" json:"supervisor_id"`
	SupervisorName string `db:"supervisor_name" json:"supervisor_name"`

	Rating              int                `db:"rating" json:"rating"`
	OverallPerformance  OverallPerformance `db:"overall_performance" json:"overall_performance"`
	Recommendation      Recommendation     `db:"recommendation" json:"recommendation"`
	KeyStrengths        string             `db:"key_strengths" json:"key_strengths"`
	AreasForImprovement string             `db:"areas_for_improvement" json:"areas_for_improvement"`
	CommentsAndFeedback string             `db:"comments_and_feedback" json:"comments_and_feedback"`
	Attachments         AttachmentList     `db:"attachments" json:"attachments"`

	Status    AppraisalStatus `db:"status" json:"status"`
	CreatedAt time.Time       `db:"created_at" json:"created_at"`
	UpdatedAt time.Time       `db:"updated_at" json:"updated_at"`
}

// AppraisalFilter constrains listing queries.
type AppraisalFilter struct {
	StudentID    string
	CompanyID    string
	SupervisorID string
	Status       AppraisalStatus
	Limit        int
	Offset       int
}
