package repository

import (
	"context"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/academic-records-api/internal/models"
)

// StudentRepository reads student identity records.
type StudentRepository struct {
	db *sqlx.DB
}

// NewStudentRepository constructs a StudentRepository.
func NewStudentRepository(db *sqlx.DB) *StudentRepository {
	return &StudentRepository{db: db}
}

// FindByID fetches a student within a tenant. Students of other tenants are reported as missing.
func (r *StudentRepository) FindByID(ctx context.Context, tenantID, id string) (*models.Student, error) {
	const query = `SELECT id, tenant_id, full_name, registration_number, national_id, birth_date, active
        FROM students WHERE id = $1 AND tenant_id = $2`
	var student models.Student
	if err := r.db.GetContext(ctx, &student, query, id, tenantID); err != nil {
		return nil, err
	}
	return &student, nil
}
