package dto

import "github.com/shopspring/decimal"

// CreateEquivalencyRequest registers a pending equivalency.
type CreateEquivalencyRequest struct {
	StudentID               string          `json:"studentId" validate:"required"`
	OriginDisciplineID      *string         `json:"originDisciplineId"`
	OriginExternalName      *string         `json:"originExternalName" validate:"omitempty,max=255"`
	OriginInstitution       *string         `json:"originInstitution" validate:"omitempty,max=255"`
	OriginHours             decimal.Decimal `json:"originHours"`
	DestinationDisciplineID string          `json:"destinationDisciplineId" validate:"required"`
	DestinationHours        decimal.Decimal `json:"destinationHours"`
	Criterion               string          `json:"criterion" validate:"required,max=500"`
	Observation             *string         `json:"observation" validate:"omitempty,max=4000"`
}

// UpdateEquivalencyRequest edits a pending equivalency; nil fields are left untouched.
type UpdateEquivalencyRequest struct {
	OriginDisciplineID      *string          `json:"originDisciplineId"`
	OriginExternalName      *string          `json:"originExternalName" validate:"omitempty,max=255"`
	OriginInstitution       *string          `json:"originInstitution" validate:"omitempty,max=255"`
	OriginHours             *decimal.Decimal `json:"originHours"`
	DestinationDisciplineID *string          `json:"destinationDisciplineId"`
	DestinationHours        *decimal.Decimal `json:"destinationHours"`
	Criterion               *string          `json:"criterion" validate:"omitempty,max=500"`
	Observation             *string          `json:"observation" validate:"omitempty,max=4000"`
}
