package dto

import (
	"encoding/json"

	"github.com/internhub/internhub-api/internal/models"
)

// CreateMisconductRequest files a misconduct report against a hired student.
type CreateMisconductRequest struct {
	StudentID    string `json:"student_id" validate:"required"`
	IssueType    string `json:"issue_type" validate:"required"`
	IncidentDate string `json:"incident_date" validate:"required"`
	Description  string `json:"description" validate:"required"`
}

// ResolveMisconductRequest is the supervisor's resolution decision.
type ResolveMisconductRequest struct {
	Status   models.MisconductStatus `json:"status" validate:"required"`
	Comments string                  `json:"comments" validate:"required"`
}

// CreateProgressRequest files a periodic progress report.
type CreateProgressRequest struct {
	StudentID          string             `json:"student_id" validate:"required"`
	TasksAssigned      string             `json:"tasks_assigned" validate:"required"`
	ProgressMade       string             `json:"progress_made" validate:"required"`
	HoursWorked        int                `json:"hours_worked" validate:"required,min=1"`
	QualityOfWork      models.WorkQuality `json:"quality_of_work" validate:"required"`
	AreasOfImprovement string             `json:"areas_of_improvement"`
	NextGoals          string             `json:"next_goals"`
	Remarks            string             `json:"remarks"`
}

// ReviewProgressRequest is the supervisor's one-way Submitted to Reviewed transition.
type ReviewProgressRequest struct {
	Feedback string `json:"feedback" validate:"required"`
}

// CreateAppraisalRequest files the end-of-term appraisal.
type CreateAppraisalRequest struct {
	StudentID           string                    `json:"student_id" validate:"required"`
	Rating              int                       `json:"rating"`
	OverallPerformance  models.OverallPerformance `json:"overall_performance" validate:"required"`
	Recommendation      models.Recommendation     `json:"recommendation" validate:"required"`
	KeyStrengths        string                    `json:"key_strengths"`
	AreasForImprovement string                    `json:"areas_for_improvement"`
	CommentsAndFeedback string                    `json:"comments_and_feedback"`
}

// CreateSupervisorReportRequest files a generalised report against an application.
type CreateSupervisorReportRequest struct {
	ApplicationID string                      `json:"application_id" validate:"required"`
	ReportType    models.SupervisorReportType `json:"report_type" validate:"required"`
	Title         string                      `json:"title" validate:"required"`
	Summary       string                      `json:"summary" validate:"required"`
	Payload       json.RawMessage             `json:"payload"`
}
