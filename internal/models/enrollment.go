package models

import "time"

// EnrollmentStatus represents the lifecycle of an annual enrollment.
type EnrollmentStatus string

// Possible enrollment statuses.
const (
	EnrollmentStatusActive    EnrollmentStatus = "ACTIVE"
	EnrollmentStatusConcluded EnrollmentStatus = "CONCLUDED"
)

// AnnualEnrollment captures a student's registration into a course or class for one academic year.
type AnnualEnrollment struct {
	ID             string           `db:"id" json:"id"`
	TenantID       string           `db:"tenant_id" json:"tenant_id"`
	StudentID      string           `db:"student_id" json:"student_id"`
	AcademicYearID string           `db:"academic_year_id" json:"academic_year_id"`
	CourseID       *string          `db:"course_id" json:"course_id,omitempty"`
	ClassID        *string          `db:"class_id" json:"class_id,omitempty"`
	Status         EnrollmentStatus `db:"status" json:"status"`
	CreatedAt      time.Time        `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time        `db:"updated_at" json:"updated_at"`
}

// EnrollmentDetail enriches AnnualEnrollment with names used on declarations.
type EnrollmentDetail struct {
	AnnualEnrollment
	AcademicYearName string  `db:"academic_year_name" json:"academic_year_name"`
	CourseName       *string `db:"course_name" json:"course_name,omitempty"`
	ClassName        *string `db:"class_name" json:"class_name,omitempty"`
}
