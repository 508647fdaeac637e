package models

import "time"

// ProgressStatus is the one-way review state of a progress report.
type ProgressStatus string

const (
	ProgressSubmitted ProgressStatus = "Submitted"
	ProgressReviewed  ProgressStatus = "Reviewed"
)

// WorkQuality is the fixed rating scale for qualityOfWork.
type WorkQuality string

const (
	WorkExcellent        WorkQuality = "excellent"
	WorkGood             WorkQuality = "good"
	WorkSatisfactory     WorkQuality = "satisfactory"
	WorkNeedsImprovement WorkQuality = "needs_improvement"
	WorkPoor             WorkQuality = "poor"
)

// ValidWorkQuality reports whether the value is on the fixed scale.
func ValidWorkQuality(q WorkQuality) bool {
	switch q {
	case WorkExcellent, WorkGood, WorkSatisfactory, WorkNeedsImprovement, WorkPoor:
		return true
	default:
		return false
	}
}

// ProgressReport is a periodic company-authored status record for a hired student.
type ProgressReport struct {
	ID             string `db:"id" json:"id"`
	StudentID      string `db:"student_id" json:"student_id"`
	StudentName    string `db:"student_name" json:"student_name"`
	RollNumber     string `db:"roll_number" json:"roll_number"`
	CompanyID      string `db:"company_id" json:"company_id"`
	CompanyName    string `db:"company_name" json:"company_name"`
	SupervisorID   string `db:"supervisor_id" json:"supervisor_id"`
	SupervisorName string `db:"supervisor_name" json:"supervisor_name"`

	TasksAssigned      string      `db:"tasks_assigned" json:"tasks_assigned"`
	ProgressMade       string      `db:"progress_made" json:"progress_made"`
	HoursWorked        int         `db:"hours_worked" json:"hours_worked"`
	QualityOfWork      WorkQuality `db:"quality_of_work" json:"quality_of_work"`
	AreasOfImprovement string      `db:"areas_of_improvement" json:"areas_of_improvement"`
	NextGoals          string      `db:"next_goals" json:"next_goals"`
	Remarks            string      `db:"remarks" json:"remarks"`

	Status             ProgressStatus `db:"status" json:"status"`
	SupervisorFeedback *string        `db:"supervisor_feedback" json:"supervisor_feedback,omitempty"`
	ReviewedAt         *time.Time     `db:"reviewed_at" json:"reviewed_at,omitempty"`

	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// ProgressFilter constrains listing queries.
type ProgressFilter struct {
	StudentID    string
	CompanyID    string
	SupervisorID string
	Status       ProgressStatus
	Limit        int
	Offset       int
}
