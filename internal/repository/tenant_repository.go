package repository

import (
	"context"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/academic-records-api/internal/models"
)

// TenantRepository reads institution metadata. Tenants are provisioned elsewhere.
type TenantRepository struct {
	db *sqlx.DB
}

// NewTenantRepository constructs a TenantRepository.
func NewTenantRepository(db *sqlx.DB) *TenantRepository {
	return &TenantRepository{db: db}
}

// FindByID fetches a tenant by ID.
func (r *TenantRepository) FindByID(ctx context.Context, id string) (*models.Tenant, error) {
	const query = `SELECT id, name, academic_type FROM tenants WHERE id = $1`
	var tenant models.Tenant
	if err := r.db.GetContext(ctx, &tenant, query, id); err != nil {
		return nil, err
	}
	return &tenant, nil
}
