package models

import "time"

// MisconductStatus enumerates misconduct report states. All values other
// than Pending are set exclusively by the assigned supervisor.
type MisconductStatus string

const (
	MisconductPending   MisconductStatus = "Pending"
	MisconductResolved  MisconductStatus = "Resolved"
	MisconductWarning   MisconductStatus = "Warning Issued"
	MisconductCancelled MisconductStatus = "Internship Cancelled"
)

// ValidMisconductResolution reports whether the status is one a supervisor
// may set when resolving a report.
func ValidMisconductResolution(s MisconductStatus) bool {
	switch s {
	case MisconductResolved, MisconductWarning, MisconductCancelled:
		return true
	default:
		return false
	}
}

// MisconductDescriptionMinLen is the required description length.
const MisconductDescriptionMinLen = 200

// MisconductReport is a company-authored record about a hired student.
// studentName/rollNumber/companyName are a display cache; listings
// re-resolve them from the authoritative profiles.
type MisconductReport struct {
	ID             string `db:"id" json:"id"`
	StudentID      string `db:"student_id" json:"student_id"`
	StudentName    string `db:"student_name" json:"student_name"`
	RollNumber     string `db:"roll_number" json:"roll_number"`
	CompanyID      string `db:"company_id" json:"company_id"`
	CompanyName    string `db:"company_name" json:"company_name"`
	SupervisorID   string `db:"supervisor_id" json:"supervisor_id"`
	SupervisorName string `db:"supervisor_name" json:"supervisor_name"`

	IssueType    string    `db:"issue_type" json:"issue_type"`
	IncidentDate time.Time `db:"incident_date" json:"incident_date"`
	Description  string    `db:"description" json:"description"`

	Status             MisconductStatus `db:"status" json:"status"`
	SupervisorComments *string          `db:"supervisor_comments" json:"supervisor_comments,omitempty"`
	ResolvedAt         *time.Time       `db:"resolved_at" json:"resolved_at,omitempty"`

	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// MisconductFilter constrains listing queries.
type MisconductFilter struct {
	StudentID    string
	CompanyID    string
	SupervisorID string
	Status       MisconductStatus
	Limit        int
	Offset       int
}
