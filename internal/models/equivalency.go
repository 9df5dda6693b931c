package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// EquivalencyRecord adjudicates that a destination discipline is satisfied by an origin subject.
type EquivalencyRecord struct {
	ID                      string          `db:"id" json:"id"`
	TenantID                string          `db:"tenant_id" json:"tenant_id"`
	StudentID               string          `db:"student_id" json:"student_id"`
	OriginDisciplineID      *string         `db:"origin_discipline_id" json:"origin_discipline_id,omitempty"`
	OriginExternalName      *string         `db:"origin_external_name" json:"origin_external_name,omitempty"`
	OriginInstitution       *string         `db:"origin_institution" json:"origin_institution,omitempty"`
	OriginHours             decimal.Decimal `db:"origin_hours" json:"origin_hours"`
	DestinationDisciplineID string          `db:"destination_discipline_id" json:"destination_discipline_id"`
	DestinationHours        decimal.Decimal `db:"destination_hours" json:"destination_hours"`
	// DestinationName is only populated by history composition queries.
	DestinationName *string    `db:"destination_discipline_name" json:"destination_discipline_name,omitempty"`
	Criterion       string     `db:"criterion" json:"criterion"`
	Observation     *string    `db:"observation" json:"observation,omitempty"`
	Deferred        bool       `db:"deferred" json:"deferred"`
	DeferredBy      *string    `db:"deferred_by" json:"deferred_by,omitempty"`
	DeferredAt      *time.Time `db:"deferred_at" json:"deferred_at,omitempty"`
	CreatedBy       string     `db:"created_by" json:"created_by"`
	CreatedAt       time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt       time.Time  `db:"updated_at" json:"updated_at"`
}

// ImmutableReason implements the lockable contract; a deferred equivalency is final.
func (r *EquivalencyRecord) ImmutableReason() (string, bool) {
	if r.Deferred {
		return "immutable record: equivalency already deferred", true
	}
	return "", false
}

// OriginLabel returns a printable origin reference.
func (r *EquivalencyRecord) OriginLabel() string {
	if r.OriginExternalName != nil && *r.OriginExternalName != "" {
		return *r.OriginExternalName
	}
	if r.OriginDisciplineID != nil {
		return *r.OriginDisciplineID
	}
	return ""
}

// EquivalencyFilter narrows equivalency listings.
type EquivalencyFilter struct {
	TenantID                string
	StudentID               string
	DestinationDisciplineID string
	Deferred                *bool
	Page                    int
	PageSize                int
}

// Normalize applies paging defaults.
func (f *EquivalencyFilter) Normalize() {
	f.Page, f.PageSize = normalizePage(f.Page, f.PageSize, 100)
}
