package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// ConclusionStatus tracks the one-way conclusion workflow.
type ConclusionStatus string

const (
	ConclusionStatusValidated ConclusionStatus = "VALIDATED"
	ConclusionStatusConcluded ConclusionStatus = "CONCLUDED"
)

// ConclusionType mirrors the tenant academic type at creation time.
type ConclusionType string

const (
	ConclusionTypeHigher    ConclusionType = "HIGHER_EDUCATION"
	ConclusionTypeSecondary ConclusionType = "SECONDARY_EDUCATION"
)

// ConclusionMetrics are computed once from history when the record is created.
type ConclusionMetrics struct {
	CompletedSubjects  int                 `db:"completed_subjects" json:"completed_subjects"`
	TotalWorkloadHours decimal.Decimal     `db:"total_workload_hours" json:"total_workload_hours"`
	MeanAttendance     decimal.Decimal     `db:"mean_attendance" json:"mean_attendance"`
	MeanFinalGrade     decimal.NullDecimal `db:"mean_final_grade" json:"mean_final_grade"`
}

// ConclusionRecord is the graduation/completion request and its consolidated metrics.
// Rows are never updated through the API; conclude() is the only transition.
type ConclusionRecord struct {
	ID        string           `db:"id" json:"id"`
	TenantID  string           `db:"tenant_id" json:"tenant_id"`
	StudentID string           `db:"student_id" json:"student_id"`
	CourseID  *string          `db:"course_id" json:"course_id,omitempty"`
	ClassID   *string          `db:"class_id" json:"class_id,omitempty"`
	Type      ConclusionType   `db:"type" json:"type"`
	Status    ConclusionStatus `db:"status" json:"status"`
	ConclusionMetrics
	Notes             *string    `db:"notes" json:"notes,omitempty"`
	RegisteredBy      string     `db:"registered_by" json:"registered_by"`
	ValidatedBy       string     `db:"validated_by" json:"validated_by"`
	ValidatedAt       time.Time  `db:"validated_at" json:"validated_at"`
	ConcludedBy       *string    `db:"concluded_by" json:"concluded_by,omitempty"`
	ConcludedAt       *time.Time `db:"concluded_at" json:"concluded_at,omitempty"`
	OfficialActNumber *string    `db:"official_act_number" json:"official_act_number,omitempty"`
	CreatedAt         time.Time  `db:"created_at" json:"created_at"`
}

// ImmutableReason implements the lockable contract; conclusion records are never editable.
func (r *ConclusionRecord) ImmutableReason() (string, bool) {
	return "immutable record", true
}

// GraduationRecord is the terminal sub-record for higher education tenants.
type GraduationRecord struct {
	ID           string    `db:"id" json:"id"`
	TenantID     string    `db:"tenant_id" json:"tenant_id"`
	ConclusionID string    `db:"conclusion_id" json:"conclusion_id"`
	Number       string    `db:"number" json:"number"`
	CreatedBy    string    `db:"created_by" json:"created_by"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
}

// CertificateRecord is the terminal sub-record for secondary education tenants.
type CertificateRecord struct {
	ID           string    `db:"id" json:"id"`
	TenantID     string    `db:"tenant_id" json:"tenant_id"`
	ConclusionID string    `db:"conclusion_id" json:"conclusion_id"`
	Number       string    `db:"number" json:"number"`
	CreatedBy    string    `db:"created_by" json:"created_by"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
}

// ConclusionFilter narrows conclusion listings.
type ConclusionFilter struct {
	TenantID  string
	StudentID string
	Status    ConclusionStatus
	Page      int
	PageSize  int
}

// Normalize applies paging defaults.
func (f *ConclusionFilter) Normalize() {
	f.Page, f.PageSize = normalizePage(f.Page, f.PageSize, 100)
}
