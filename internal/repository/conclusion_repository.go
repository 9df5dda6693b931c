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

// ConclusionRepository persists conclusion records and their terminal sub-records.
// MarkConcluded is the only mutation; there is no generic update or delete.
type ConclusionRepository struct {
	db *sqlx.DB
}

// NewConclusionRepository constructs a ConclusionRepository.
func NewConclusionRepository(db *sqlx.DB) *ConclusionRepository {
	return &ConclusionRepository{db: db}
}

const conclusionColumns = `id, tenant_id, student_id, course_id, class_id, type, status, completed_subjects,
        total_workload_hours, mean_attendance, mean_final_grade, notes, registered_by, validated_by, validated_at,
        concluded_by, concluded_at, official_act_number, created_at`

// Create inserts a VALIDATED conclusion record.
func (r *ConclusionRepository) Create(ctx context.Context, record *models.ConclusionRecord) error {
	if record.ID == "" {
		record.ID = uuid.NewString()
	}
	if record.CreatedAt.IsZero() {
		record.CreatedAt = time.Now().UTC()
	}
	const query = `INSERT INTO conclusion_records (id, tenant_id, student_id, course_id, class_id, type, status, completed_subjects,
        total_workload_hours, mean_attendance, mean_final_grade, notes, registered_by, validated_by, validated_at, created_at)
        VALUES (:id, :tenant_id, :student_id, :course_id, :class_id, :type, :status, :completed_subjects,
        :total_workload_hours, :mean_attendance, :mean_final_grade, :notes, :registered_by, :validated_by, :validated_at, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, record); err != nil {
		return fmt.Errorf("create conclusion record: %w", err)
	}
	return nil
}

// FindByID fetches a conclusion record within a tenant.
func (r *ConclusionRepository) FindByID(ctx context.Context, tenantID, id string) (*models.ConclusionRecord, error) {
	query := fmt.Sprintf("SELECT %s FROM conclusion_records WHERE id = $1 AND tenant_id = $2", conclusionColumns)
	var record models.ConclusionRecord
	if err := r.db.GetContext(ctx, &record, query, id, tenantID); err != nil {
		return nil, err
	}
	return &record, nil
}

// FindForUpdate fetches and row-locks a conclusion record inside tx.
func (r *ConclusionRepository) FindForUpdate(ctx context.Context, tx sqlx.ExtContext, tenantID, id string) (*models.ConclusionRecord, error) {
	query := fmt.Sprintf("SELECT %s FROM conclusion_records WHERE id = $1 AND tenant_id = $2 FOR UPDATE", conclusionColumns)
	var record models.ConclusionRecord
	if err := sqlx.GetContext(ctx, tx, &record, query, id, tenantID); err != nil {
		return nil, err
	}
	return &record, nil
}

// ExistsForScope reports whether the student already has a conclusion record for the course or class.
func (r *ConclusionRepository) ExistsForScope(ctx context.Context, tenantID, studentID string, courseID, classID *string) (bool, error) {
	where := newWhere("tenant_id = $1", tenantID)
	where.add("student_id = ?", studentID)
	where.scope("course_id", courseID)
	where.scope("class_id", classID)

	var exists int
	query := fmt.Sprintf("SELECT 1 FROM conclusion_records %s LIMIT 1", where)
	if err := r.db.GetContext(ctx, &exists, query, where.args...); err != nil {
		if err == sql.ErrNoRows {
			return false, nil
		}
		return false, fmt.Errorf("check conclusion scope: %w", err)
	}
	return true, nil
}

// List returns conclusion records matching the filter.
func (r *ConclusionRepository) List(ctx context.Context, filter models.ConclusionFilter) ([]models.ConclusionRecord, int, error) {
	filter.Normalize()
	where := newWhere("tenant_id = $1", filter.TenantID)
	if filter.StudentID != "" {
		where.add("student_id = ?", filter.StudentID)
	}
	if filter.Status != "" {
		where.add("status = ?", filter.Status)
	}

	query := fmt.Sprintf("SELECT %s FROM conclusion_records %s ORDER BY created_at DESC LIMIT %d OFFSET %d",
		conclusionColumns, where, filter.PageSize, pageOffset(filter.Page, filter.PageSize))
	var records []models.ConclusionRecord
	if err := r.db.SelectContext(ctx, &records, query, where.args...); err != nil {
		return nil, 0, fmt.Errorf("list conclusion records: %w", err)
	}

	var total int
	if err := r.db.GetContext(ctx, &total, fmt.Sprintf("SELECT COUNT(*) FROM conclusion_records %s", where), where.args...); err != nil {
		return nil, 0, fmt.Errorf("count conclusion records: %w", err)
	}
	return records, total, nil
}

// MarkConcluded performs the single VALIDATED to CONCLUDED transition. It reports the affected row count so a
// concurrent conclude is detected as zero rows.
func (r *ConclusionRepository) MarkConcluded(ctx context.Context, tx sqlx.ExtContext, tenantID, id, actorID string, actNumber *string, at time.Time) (int64, error) {
	const query = `UPDATE conclusion_records SET status = $1, concluded_by = $2, concluded_at = $3, official_act_number = $4
        WHERE id = $5 AND tenant_id = $6 AND status = $7`
	res, err := tx.ExecContext(ctx, query, models.ConclusionStatusConcluded, actorID, at, actNumber, id, tenantID, models.ConclusionStatusValidated)
	if err != nil {
		return 0, fmt.Errorf("conclude record: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("conclude record rows: %w", err)
	}
	return affected, nil
}

// FindGraduation returns the graduation record of a conclusion, if any.
func (r *ConclusionRepository) FindGraduation(ctx context.Context, q sqlx.QueryerContext, tenantID, conclusionID string) (*models.GraduationRecord, error) {
	const query = `SELECT id, tenant_id, conclusion_id, number, created_by, created_at FROM graduation_records WHERE conclusion_id = $1 AND tenant_id = $2`
	var record models.GraduationRecord
	if err := sqlx.GetContext(ctx, q, &record, query, conclusionID, tenantID); err != nil {
		return nil, err
	}
	return &record, nil
}

// CreateGraduation inserts a graduation record inside tx.
func (r *ConclusionRepository) CreateGraduation(ctx context.Context, tx sqlx.ExtContext, record *models.GraduationRecord) error {
	prepareSubRecord(&record.ID, &record.CreatedAt)
	const query = `INSERT INTO graduation_records (id, tenant_id, conclusion_id, number, created_by, created_at)
        VALUES (:id, :tenant_id, :conclusion_id, :number, :created_by, :created_at)`
	if _, err := sqlx.NamedExecContext(ctx, tx, query, record); err != nil {
		return fmt.Errorf("create graduation record: %w", err)
	}
	return nil
}

// FindCertificate returns the certificate record of a conclusion, if any.
func (r *ConclusionRepository) FindCertificate(ctx context.Context, q sqlx.QueryerContext, tenantID, conclusionID string) (*models.CertificateRecord, error) {
	const query = `SELECT id, tenant_id, conclusion_id, number, created_by, created_at FROM certificate_records WHERE conclusion_id = $1 AND tenant_id = $2`
	var record models.CertificateRecord
	if err := sqlx.GetContext(ctx, q, &record, query, conclusionID, tenantID); err != nil {
		return nil, err
	}
	return &record, nil
}

// CreateCertificate inserts a certificate record inside tx.
func (r *ConclusionRepository) CreateCertificate(ctx context.Context, tx sqlx.ExtContext, record *models.CertificateRecord) error {
	prepareSubRecord(&record.ID, &record.CreatedAt)
	const query = `INSERT INTO certificate_records (id, tenant_id, conclusion_id, number, created_by, created_at)
        VALUES (:id, :tenant_id, :conclusion_id, :number, :created_by, :created_at)`
	if _, err := sqlx.NamedExecContext(ctx, tx, query, record); err != nil {
		return fmt.Errorf("create certificate record: %w", err)
	}
	return nil
}

func prepareSubRecord(id *string, createdAt *time.Time) {
	if *id == "" {
		*id = uuid.NewString()
	}
	if createdAt.IsZero() {
		*createdAt = time.Now().UTC()
	}
}
