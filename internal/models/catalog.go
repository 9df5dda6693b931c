package models

import "time"

// AcademicYear is a school or academic calendar year.
type AcademicYear struct {
	ID        string    `db:"id" json:"id"`
	TenantID  string    `db:"tenant_id" json:"tenant_id"`
	Name      string    `db:"name" json:"name"`
	StartDate time.Time `db:"start_date" json:"start_date"`
	EndDate   time.Time `db:"end_date" json:"end_date"`
	Closed    bool      `db:"closed" json:"closed"`
}

// Course is a higher education programme.
type Course struct {
	ID       string `db:"id" json:"id"`
	TenantID string `db:"tenant_id" json:"tenant_id"`
	Name     string `db:"name" json:"name"`
	Code     string `db:"code" json:"code"`
}

// Class is a secondary education class group.
type Class struct {
	ID       string  `db:"id" json:"id"`
	TenantID string  `db:"tenant_id" json:"tenant_id"`
	Name     string  `db:"name" json:"name"`
	Grade    string  `db:"grade" json:"grade"`
	CourseID *string `db:"course_id" json:"course_id,omitempty"`
}

// Discipline is a subject offered by the institution.
type Discipline struct {
	ID            string `db:"id" json:"id"`
	TenantID      string `db:"tenant_id" json:"tenant_id"`
	Name          string `db:"name" json:"name"`
	Code          string `db:"code" json:"code"`
	WorkloadHours int    `db:"workload_hours" json:"workload_hours"`
}
