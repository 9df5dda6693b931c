package models

// AcademicType classifies an institution and drives which fields and ratios apply.
type AcademicType string

// Supported academic types.
const (
	AcademicTypeSecondary AcademicType = "SECONDARY"
	AcademicTypeHigher    AcademicType = "HIGHER"
)

// Valid reports whether the academic type is one of the known classifications.
func (t AcademicType) Valid() bool {
	return t == AcademicTypeSecondary || t == AcademicTypeHigher
}

// Tenant is an institution using the platform.
type Tenant struct {
	ID           string        `db:"id" json:"id"`
	Name         string        `db:"name" json:"name"`
	AcademicType *AcademicType `db:"academic_type" json:"academic_type,omitempty"`
}

// Type returns the academic type or an empty value when the tenant is not classified yet.
func (t *Tenant) Type() AcademicType {
	if t == nil || t.AcademicType == nil {
		return ""
	}
	return *t.AcademicType
}
