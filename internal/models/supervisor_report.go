package models

import (
	"encoding/json"
	"time"
)

// SupervisorReportType generalises the report kinds routed to supervisors.
type SupervisorReportType string

const (
	SupervisorReportMisconduct SupervisorReportType = "misconduct"
	SupervisorReportAppraisal  SupervisorReportType = "appraisal"
	SupervisorReportProgress   SupervisorReportType = "progress"
)

// ValidSupervisorReportType reports whether the type is supported.
func ValidSupervisorReportType(t SupervisorReportType) bool {
	switch t {
	case SupervisorReportMisconduct, SupervisorReportAppraisal, SupervisorReportProgress:
		return true
	default:
		return false
	}
}

// SupervisorReport is the generalised company-to-supervisor report bound to a
// specific application. Creation validates company ownership and hired status.
type SupervisorReport struct {
	ID            string               `db:"id" json:"id"`
	ApplicationID string               `db:"application_id" json:"application_id"`
	ReportType    SupervisorReportType `db:"report_type" json:"report_type"`
	StudentID     string               `db:"student_id" json:"student_id"`
	CompanyID     string               `db:"company_id" json:"company_id"`
	SupervisorID  string               `db:"supervisor_id" json:"supervisor_id"`

	Title   string          `db:"title" json:"title"`
	Summary string          `db:"summary" json:"summary"`
	Payload json.RawMessage `db:"payload" json:"payload,omitempty"`

	IsRead    bool       `db:"is_read" json:"is_read"`
	ReadAt    *time.Time `db:"read_at" json:"read_at,omitempty"`
	CreatedAt time.Time  `db:"created_at" json:"created_at"`
}

// SupervisorReportFilter constrains listing queries.
type SupervisorReportFilter struct {
	SupervisorID  string
	CompanyID     string
	ApplicationID string
	ReportType    SupervisorReportType
	Unread        *bool
	Limit         int
	Offset        int
}
