package models

// HoldCategory scopes a financial hold to the kind of action being attempted.
type HoldCategory string

const (
	HoldCategoryDocuments  HoldCategory = "DOCUMENTS"
	HoldCategoryConclusion HoldCategory = "CONCLUSION"
)

// FinancialHoldResult is the answer of the financial collaborator.
type FinancialHoldResult struct {
	Blocked bool   `json:"blocked"`
	Reason  string `json:"reason,omitempty"`
}

// FinancialHold is an outstanding financial block stored for a student.
type FinancialHold struct {
	ID        string       `db:"id" json:"id"`
	TenantID  string       `db:"tenant_id" json:"tenant_id"`
	StudentID string       `db:"student_id" json:"student_id"`
	Category  HoldCategory `db:"category" json:"category"`
	Reason    string       `db:"reason" json:"reason"`
}

// AcademicHold is an outstanding academic block stored for a student.
type AcademicHold struct {
	ID             string  `db:"id" json:"id"`
	TenantID       string  `db:"tenant_id" json:"tenant_id"`
	StudentID      string  `db:"student_id" json:"student_id"`
	DisciplineID   *string `db:"discipline_id" json:"discipline_id,omitempty"`
	AcademicYearID *string `db:"academic_year_id" json:"academic_year_id,omitempty"`
	Reason         string  `db:"reason" json:"reason"`
}

// RequirementResult is the outcome of the conclusion requirement check.
type RequirementResult struct {
	Valid  bool     `json:"valid"`
	Errors []string `json:"errors"`
}
