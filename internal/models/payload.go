package models

import "time"

// DocumentPayload is the structured snapshot embedded verbatim in an issued document.
// Re-rendering a stored payload reproduces the artifact even after source records change.
type DocumentPayload struct {
	Kind       DocumentKind        `json:"kind"`
	Number     string              `json:"number"`
	IssuedAt   time.Time           `json:"issued_at"`
	Tenant     PayloadTenant       `json:"tenant"`
	Student    PayloadStudent      `json:"student"`
	Enrollment *PayloadEnrollment  `json:"enrollment,omitempty"`
	Attendance []PayloadAttendance `json:"attendance,omitempty"`
	History    []HistoryRow        `json:"history,omitempty"`
	Summary    *ConclusionMetrics  `json:"summary,omitempty"`
	Conclusion *PayloadConclusion  `json:"conclusion,omitempty"`
}

// PayloadTenant identifies the issuing institution.
type PayloadTenant struct {
	ID           string       `json:"id"`
	Name         string       `json:"name"`
	AcademicType AcademicType `json:"academic_type"`
}

// PayloadStudent carries the identity attributes printed on the document.
type PayloadStudent struct {
	ID                 string     `json:"id"`
	FullName           string     `json:"full_name"`
	RegistrationNumber string     `json:"registration_number"`
	NationalID         *string    `json:"national_id,omitempty"`
	BirthDate          *time.Time `json:"birth_date,omitempty"`
}

// PayloadEnrollment describes the enrollment a declaration attests.
type PayloadEnrollment struct {
	AcademicYear string           `json:"academic_year"`
	Course       *string          `json:"course,omitempty"`
	Class        *string          `json:"class,omitempty"`
	Status       EnrollmentStatus `json:"status"`
}

// PayloadAttendance is one discipline line of an attendance declaration.
type PayloadAttendance struct {
	Discipline    string `json:"discipline"`
	WorkloadHours string `json:"workload_hours"`
	AttendancePct string `json:"attendance_pct"`
}

// PayloadConclusion embeds the concluded record on certificates.
type PayloadConclusion struct {
	ID                string            `json:"id"`
	Type              ConclusionType    `json:"type"`
	Metrics           ConclusionMetrics `json:"metrics"`
	OfficialActNumber *string           `json:"official_act_number,omitempty"`
	ConcludedAt       *time.Time        `json:"concluded_at,omitempty"`
	TerminalNumber    *string           `json:"terminal_number,omitempty"`
}
