package models

import "time"

// Student holds the identity attributes printed on official records.
type Student struct {
	ID                 string     `db:"id" json:"id"`
	TenantID           string     `db:"tenant_id" json:"tenant_id"`
	FullName           string     `db:"full_name" json:"full_name"`
	RegistrationNumber string     `db:"registration_number" json:"registration_number"`
	NationalID         *string    `db:"national_id" json:"national_id,omitempty"`
	BirthDate          *time.Time `db:"birth_date" json:"birth_date,omitempty"`
	Active             bool       `db:"active" json:"active"`
}
