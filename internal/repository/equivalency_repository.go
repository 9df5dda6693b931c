package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/academic-records-api/internal/models"
)

// EquivalencyRepository persists equivalency records. Every write is conditional on deferred = false.
type EquivalencyRepository struct {
	db *sqlx.DB
}

// NewEquivalencyRepository constructs an EquivalencyRepository.
func NewEquivalencyRepository(db *sqlx.DB) *EquivalencyRepository {
	return &EquivalencyRepository{db: db}
}

const equivalencyColumns = `id, tenant_id, student_id, origin_discipline_id, origin_external_name, origin_institution, origin_hours,
        destination_discipline_id, destination_hours, criterion, observation, deferred, deferred_by, deferred_at,
        created_by, created_at, updated_at`

// Create inserts a pending equivalency record.
func (r *EquivalencyRepository) Create(ctx context.Context, record *models.EquivalencyRecord) error {
	if record.ID == "" {
		record.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if record.CreatedAt.IsZero() {
		record.CreatedAt = now
	}
	record.UpdatedAt = now
	const query = `INSERT INTO equivalency_records (id, tenant_id, student_id, origin_discipline_id, origin_external_name, origin_institution,
        origin_hours, destination_discipline_id, destination_hours, criterion, observation, deferred, created_by, created_at, updated_at)
        VALUES (:id, :tenant_id, :student_id, :origin_discipline_id, :origin_external_name, :origin_institution,
        :origin_hours, :destination_discipline_id, :destination_hours, :criterion, :observation, false, :created_by, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, record); err != nil {
		return fmt.Errorf("create equivalency record: %w", err)
	}
	return nil
}

// FindByID fetches an equivalency record within a tenant.
func (r *EquivalencyRepository) FindByID(ctx context.Context, tenantID, id string) (*models.EquivalencyRecord, error) {
	query := fmt.Sprintf("SELECT %s FROM equivalency_records WHERE id = $1 AND tenant_id = $2", equivalencyColumns)
	var record models.EquivalencyRecord
	if err := r.db.GetContext(ctx, &record, query, id, tenantID); err != nil {
		return nil, err
	}
	return &record, nil
}

// List returns equivalency records matching the filter.
func (r *EquivalencyRepository) List(ctx context.Context, filter models.EquivalencyFilter) ([]models.EquivalencyRecord, int, error) {
	filter.Normalize()
	where := newWhere("tenant_id = $1", filter.TenantID)
	if filter.StudentID != "" {
		where.add("student_id = ?", filter.StudentID)
	}
	if filter.DestinationDisciplineID != "" {
		where.add("destination_discipline_id = ?", filter.DestinationDisciplineID)
	}
	if filter.Deferred != nil {
		where.add("deferred = ?", *filter.Deferred)
	}

	query := fmt.Sprintf("SELECT %s FROM equivalency_records %s ORDER BY created_at DESC LIMIT %d OFFSET %d",
		equivalencyColumns, where, filter.PageSize, pageOffset(filter.Page, filter.PageSize))
	var records []models.EquivalencyRecord
	if err := r.db.SelectContext(ctx, &records, query, where.args...); err != nil {
		return nil, 0, fmt.Errorf("list equivalency records: %w", err)
	}

	var total int
	if err := r.db.GetContext(ctx, &total, fmt.Sprintf("SELECT COUNT(*) FROM equivalency_records %s", where), where.args...); err != nil {
		return nil, 0, fmt.Errorf("count equivalency records: %w", err)
	}
	return records, total, nil
}

// ListDeferred returns every deferred equivalency of a student, used to compose history views.
func (r *EquivalencyRepository) ListDeferred(ctx context.Context, tenantID, studentID string) ([]models.EquivalencyRecord, error) {
	query := fmt.Sprintf(`SELECT %s,
        (SELECT d.name FROM disciplines d WHERE d.id = equivalency_records.destination_discipline_id) AS destination_discipline_name
        FROM equivalency_records WHERE tenant_id = $1 AND student_id = $2 AND deferred = true ORDER BY deferred_at ASC`, equivalencyColumns)
	var records []models.EquivalencyRecord
	if err := r.db.SelectContext(ctx, &records, query, tenantID, studentID); err != nil {
		return nil, fmt.Errorf("list deferred equivalencies: %w", err)
	}
	return records, nil
}

// ExistsDeferred reports whether a deferred record already covers the destination discipline for the student.
func (r *EquivalencyRepository) ExistsDeferred(ctx context.Context, tenantID, studentID, destinationID, excludeID string) (bool, error) {
	query := `SELECT 1 FROM equivalency_records WHERE tenant_id = $1 AND student_id = $2 AND destination_discipline_id = $3 AND deferred = true`
	args := []interface{}{tenantID, studentID, destinationID}
	if excludeID != "" {
		query += " AND id <> $4"
		args = append(args, excludeID)
	}
	var exists int
	if err := r.db.GetContext(ctx, &exists, query+" LIMIT 1", args...); err != nil {
		if err == sql.ErrNoRows {
			return false, nil
		}
		return false, fmt.Errorf("check deferred equivalency: %w", err)
	}
	return true, nil
}

// Update rewrites the editable fields of a pending record. Zero affected rows means it was deferred meanwhile.
func (r *EquivalencyRepository) Update(ctx context.Context, record *models.EquivalencyRecord) (int64, error) {
	record.UpdatedAt = time.Now().UTC()
	const query = `UPDATE equivalency_records SET origin_discipline_id = :origin_discipline_id, origin_external_name = :origin_external_name,
        origin_institution = :origin_institution, origin_hours = :origin_hours, destination_discipline_id = :destination_discipline_id,
        destination_hours = :destination_hours, criterion = :criterion, observation = :observation, updated_at = :updated_at
        WHERE id = :id AND tenant_id = :tenant_id AND deferred = false`
	return affected(r.db.NamedExecContext(ctx, query, record))
}

// Defer marks a pending record as deferred.
func (r *EquivalencyRepository) Defer(ctx context.Context, record *models.EquivalencyRecord) (int64, error) {
	const query = `UPDATE equivalency_records SET deferred = true, deferred_by = :deferred_by, deferred_at = :deferred_at,
        observation = :observation, updated_at = :updated_at
        WHERE id = :id AND tenant_id = :tenant_id AND deferred = false`
	return affected(r.db.NamedExecContext(ctx, query, record))
}

// Delete removes a pending record.
func (r *EquivalencyRepository) Delete(ctx context.Context, tenantID, id string) (int64, error) {
	const query = `DELETE FROM equivalency_records WHERE id = $1 AND tenant_id = $2 AND deferred = false`
	return affected(r.db.ExecContext(ctx, query, id, tenantID))
}

func affected(res sql.Result, err error) (int64, error) {
	if err != nil {
		return 0, fmt.Errorf("write equivalency record: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("rows affected: %w", err)
	}
	return n, nil
}
