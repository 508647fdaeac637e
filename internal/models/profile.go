package models

import "time"

// StudentProfile is the authoritative academic record for a student user.
// Report creation resolves supervisors through selected_supervisor_id, and
// listings re-resolve roll numbers from here rather than trusting snapshots.
type StudentProfile struct {
	UserID               string         `db:"user_id" json:"user_id"`
	FullName             string         `db:"full_name" json:"full_name"`
	Email                string         `db:"email" json:"email"`
	RollNumber           string         `db:"roll_number" json:"roll_number"`
	Department           string         `db:"department" json:"department"`
	Semester             int            `db:"semester" json:"semester"`
	CGPA                 float64        `db:"cgpa" json:"cgpa"`
	AttendancePercent    float64        `db:"attendance_percent" json:"attendance_percent"`
	Backlogs             int            `db:"backlogs" json:"backlogs"`
	CVPath               *string        `db:"cv_path" json:"cv_path,omitempty"`
	Certificates         AttachmentList `db:"certificates" json:"certificates"`
	SelectedSupervisorID *string        `db:"selected_supervisor_id" json:"selected_supervisor_id,omitempty"`
	UpdatedAt            time.Time      `db:"updated_at" json:"updated_at"`
}

// CompanyProfile is the authoritative company record, keyed by the company user.
// Company display names are editable, which is why report listings reconcile
// against this table at read time.
type CompanyProfile struct {
	UserID        string    `db:"user_id" json:"user_id"`
	CompanyName   string    `db:"company_name" json:"company_name"`
	Address       string    `db:"address" json:"address"`
	ContactPerson string    `db:"contact_person" json:"contact_person"`
	UpdatedAt     time.Time `db:"updated_at" json:"updated_at"`
}

// SupervisorRef is the resolved supervisor identity denormalised onto reports.
type SupervisorRef struct {
	ID       string `json:"id"`
	FullName string `json:"full_name"`
}
