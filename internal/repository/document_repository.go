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

// DocumentRepository persists issued documents. Rows are append-only apart from the single void flip.
type DocumentRepository struct {
	db *sqlx.DB
}

// NewDocumentRepository constructs a DocumentRepository.
func NewDocumentRepository(db *sqlx.DB) *DocumentRepository {
	return &DocumentRepository{db: db}
}

const documentColumns = `id, tenant_id, student_id, kind, series, number, verification_code, hash, payload, storage_path,
        status, issued_by, issued_at, voided_by, voided_at, void_reason`

// Insert stores an issued document inside the issuance transaction.
func (r *DocumentRepository) Insert(ctx context.Context, tx sqlx.ExtContext, doc *models.IssuedDocument) error {
	if doc.ID == "" {
		doc.ID = uuid.NewString()
	}
	if doc.IssuedAt.IsZero() {
		doc.IssuedAt = time.Now().UTC()
	}
	if doc.Status == "" {
		doc.Status = models.DocumentStatusActive
	}
	const query = `INSERT INTO issued_documents (id, tenant_id, student_id, kind, series, number, verification_code, hash, payload,
        storage_path, status, issued_by, issued_at)
        VALUES (:id, :tenant_id, :student_id, :kind, :series, :number, :verification_code, :hash, :payload,
        :storage_path, :status, :issued_by, :issued_at)`
	if _, err := sqlx.NamedExecContext(ctx, tx, query, doc); err != nil {
		return fmt.Errorf("insert issued document: %w", err)
	}
	return nil
}

// CodeExists reports whether a verification code is already taken.
func (r *DocumentRepository) CodeExists(ctx context.Context, q sqlx.QueryerContext, code string) (bool, error) {
	var exists int
	if err := sqlx.GetContext(ctx, q, &exists, `SELECT 1 FROM issued_documents WHERE verification_code = $1 LIMIT 1`, code); err != nil {
		if err == sql.ErrNoRows {
			return false, nil
		}
		return false, fmt.Errorf("check verification code: %w", err)
	}
	return true, nil
}

// FindByID fetches an issued document within a tenant.
func (r *DocumentRepository) FindByID(ctx context.Context, tenantID, id string) (*models.IssuedDocument, error) {
	query := fmt.Sprintf("SELECT %s FROM issued_documents WHERE id = $1 AND tenant_id = $2", documentColumns)
	var doc models.IssuedDocument
	if err := r.db.GetContext(ctx, &doc, query, id, tenantID); err != nil {
		return nil, err
	}
	return &doc, nil
}

// FindByCode fetches an issued document by verification code across tenants.
func (r *DocumentRepository) FindByCode(ctx context.Context, code string) (*models.IssuedDocument, error) {
	query := fmt.Sprintf("SELECT %s FROM issued_documents WHERE verification_code = $1", documentColumns)
	var doc models.IssuedDocument
	if err := r.db.GetContext(ctx, &doc, query, code); err != nil {
		return nil, err
	}
	return &doc, nil
}

// List returns issued documents matching the filter, newest first.
func (r *DocumentRepository) List(ctx context.Context, filter models.DocumentFilter) ([]models.IssuedDocument, int, error) {
	filter.Normalize()
	where := newWhere("tenant_id = $1", filter.TenantID)
	if filter.StudentID != "" {
		where.add("student_id = ?", filter.StudentID)
	}
	if filter.Kind != "" {
		where.add("kind = ?", filter.Kind)
	}
	if filter.Status != "" {
		where.add("status = ?", filter.Status)
	}
	if filter.From != nil {
		where.add("issued_at >= ?", *filter.From)
	}
	if filter.To != nil {
		where.add("issued_at < ?", *filter.To)
	}

	query := fmt.Sprintf("SELECT %s FROM issued_documents %s ORDER BY issued_at DESC, number DESC LIMIT %d OFFSET %d",
		documentColumns, where, filter.PageSize, pageOffset(filter.Page, filter.PageSize))
	var docs []models.IssuedDocument
	if err := r.db.SelectContext(ctx, &docs, query, where.args...); err != nil {
		return nil, 0, fmt.Errorf("list issued documents: %w", err)
	}

	var total int
	if err := r.db.GetContext(ctx, &total, fmt.Sprintf("SELECT COUNT(*) FROM issued_documents %s", where), where.args...); err != nil {
		return nil, 0, fmt.Errorf("count issued documents: %w", err)
	}
	return docs, total, nil
}

// Void flips an ACTIVE document to VOID. Zero affected rows means it was already void.
func (r *DocumentRepository) Void(ctx context.Context, tenantID, id, actorID, reason string, at time.Time) (int64, error) {
	const query = `UPDATE issued_documents SET status = $1, voided_by = $2, voided_at = $3, void_reason = $4
        WHERE id = $5 AND tenant_id = $6 AND status = $7`
	res, err := r.db.ExecContext(ctx, query, models.DocumentStatusVoid, actorID, at, reason, id, tenantID, models.DocumentStatusActive)
	if err != nil {
		return 0, fmt.Errorf("void issued document: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("void issued document rows: %w", err)
	}
	return n, nil
}
