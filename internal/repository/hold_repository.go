package repository

import (
	"context"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/academic-records-api/internal/models"
)

// HoldRepository reads active financial and academic holds. Holds are raised by other subsystems.
type HoldRepository struct {
	db *sqlx.DB
}

// NewHoldRepository constructs a HoldRepository.
func NewHoldRepository(db *sqlx.DB) *HoldRepository {
	return &HoldRepository{db: db}
}

// ActiveFinancial returns active financial holds for the category, oldest first.
func (r *HoldRepository) ActiveFinancial(ctx context.Context, tenantID, studentID string, category models.HoldCategory) ([]models.FinancialHold, error) {
	const query = `SELECT id, tenant_id, student_id, category, reason FROM financial_holds
        WHERE tenant_id = $1 AND student_id = $2 AND category = $3 AND active = true ORDER BY created_at ASC`
	var holds []models.FinancialHold
	if err := r.db.SelectContext(ctx, &holds, query, tenantID, studentID, category); err != nil {
		return nil, err
	}
	return holds, nil
}

// ActiveAcademic returns active academic holds; unscoped holds always apply, scoped holds only to their discipline or year.
func (r *HoldRepository) ActiveAcademic(ctx context.Context, tenantID, studentID string, disciplineID, academicYearID *string) ([]models.AcademicHold, error) {
	const query = `SELECT id, tenant_id, student_id, discipline_id, academic_year_id, reason FROM academic_holds
        WHERE tenant_id = $1 AND student_id = $2 AND active = true
        AND (discipline_id IS NULL OR discipline_id = $3)
        AND (academic_year_id IS NULL OR academic_year_id = $4)
        ORDER BY created_at ASC`
	var holds []models.AcademicHold
	if err := r.db.SelectContext(ctx, &holds, query, tenantID, studentID, disciplineID, academicYearID); err != nil {
		return nil, err
	}
	return holds, nil
}
