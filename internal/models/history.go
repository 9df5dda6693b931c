package models

import "github.com/shopspring/decimal"

// HistoryResult is the outcome of a subject within a closed academic year.
type HistoryResult string

const (
	HistoryResultPassed     HistoryResult = "PASSED"
	HistoryResultFailed     HistoryResult = "FAILED"
	HistoryResultInProgress HistoryResult = "IN_PROGRESS"
	// HistoryResultEquivalency marks a composed row satisfied by a deferred equivalency.
	HistoryResultEquivalency HistoryResult = "EQUIVALENCY"
)

// HistoryEntry is one immutable per-subject row of a student's academic history.
type HistoryEntry struct {
	ID               string              `db:"id" json:"id"`
	TenantID         string              `db:"tenant_id" json:"tenant_id"`
	StudentID        string              `db:"student_id" json:"student_id"`
	AcademicYearID   string              `db:"academic_year_id" json:"academic_year_id"`
	AcademicYearName string              `db:"academic_year_name" json:"academic_year_name"`
	DisciplineID     string              `db:"discipline_id" json:"discipline_id"`
	DisciplineName   string              `db:"discipline_name" json:"discipline_name"`
	CourseID         *string             `db:"course_id" json:"course_id,omitempty"`
	ClassID          *string             `db:"class_id" json:"class_id,omitempty"`
	WorkloadHours    decimal.Decimal     `db:"workload_hours" json:"workload_hours"`
	Credits          decimal.Decimal     `db:"credits" json:"credits"`
	FinalGrade       decimal.NullDecimal `db:"final_grade" json:"final_grade"`
	AttendancePct    decimal.Decimal     `db:"attendance_pct" json:"attendance_pct"`
	Result           HistoryResult       `db:"result" json:"result"`
	Ordinal          int                 `db:"ordinal" json:"ordinal"`
}

// Passed reports whether the entry counts as completed.
func (e HistoryEntry) Passed() bool {
	return e.Result == HistoryResultPassed || e.Result == HistoryResultEquivalency
}

// HistoryRow is a composed transcript line: either a graded entry or an equivalency substitution.
type HistoryRow struct {
	AcademicYear   string              `json:"academic_year"`
	DisciplineID   string              `json:"discipline_id"`
	DisciplineName string              `json:"discipline_name"`
	WorkloadHours  decimal.Decimal     `json:"workload_hours"`
	Credits        decimal.Decimal     `json:"credits"`
	FinalGrade     decimal.NullDecimal `json:"final_grade"`
	AttendancePct  decimal.Decimal     `json:"attendance_pct"`
	Result         HistoryResult       `json:"result"`
	Equivalency    *EquivalencyNote    `json:"equivalency,omitempty"`
}

// EquivalencyNote describes the origin that satisfied a destination discipline.
type EquivalencyNote struct {
	RecordID    string          `json:"record_id"`
	Origin      string          `json:"origin"`
	Institution string          `json:"institution,omitempty"`
	OriginHours decimal.Decimal `json:"origin_hours"`
	Criterion   string          `json:"criterion"`
}

// HistoryQuery selects history rows for one student. Closed years only unless IncludeOpen is set.
type HistoryQuery struct {
	TenantID       string
	StudentID      string
	AcademicYearID *string
	DisciplineID   *string
	CourseID       *string
	ClassID        *string
	IncludeOpen    bool
}

// Scoped reports whether the query narrows history to a course, class, year or discipline.
func (q HistoryQuery) Scoped() bool {
	return q.CourseID != nil || q.ClassID != nil || q.AcademicYearID != nil || q.DisciplineID != nil
}

// Passed reports whether the composed row counts as completed.
func (r HistoryRow) Passed() bool {
	return r.Result == HistoryResultPassed || r.Result == HistoryResultEquivalency
}
