package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/academic-records-api/internal/models"
)

// SequenceRepository manages the per-(tenant, series) document counters.
// All methods run inside the caller's transaction so an allocation commits or rolls back with its document.
type SequenceRepository struct{}

// NewSequenceRepository constructs a SequenceRepository.
func NewSequenceRepository() *SequenceRepository {
	return &SequenceRepository{}
}

// seriesSource names the table holding numbers already issued in a series.
func seriesSource(series models.DocumentSeries) (table string, filtered bool) {
	switch series {
	case models.SeriesGraduationRecord:
		return "graduation_records", false
	case models.SeriesCertificateRecord:
		return "certificate_records", false
	default:
		return "issued_documents", true
	}
}

// Increment bumps and returns the counter, holding its row lock until tx ends.
// It returns sql.ErrNoRows when the counter has not been seeded yet.
func (r *SequenceRepository) Increment(ctx context.Context, tx sqlx.ExtContext, tenantID string, series models.DocumentSeries) (int64, error) {
	const query = `UPDATE document_sequences SET last_value = last_value + 1, updated_at = $3
        WHERE tenant_id = $1 AND series = $2 RETURNING last_value`
	var value int64
	if err := sqlx.GetContext(ctx, tx, &value, query, tenantID, series, time.Now().UTC()); err != nil {
		return 0, err
	}
	return value, nil
}

// MaxIssued returns the largest numeric suffix already issued in the series; malformed numbers are ignored.
func (r *SequenceRepository) MaxIssued(ctx context.Context, tx sqlx.ExtContext, tenantID string, series models.DocumentSeries) (int64, error) {
	table, filtered := seriesSource(series)
	query := fmt.Sprintf(`SELECT COALESCE(MAX(CAST(substring(number from '-([0-9]+)$') AS BIGINT)), 0) FROM %s WHERE tenant_id = $1`, table)
	args := []interface{}{tenantID}
	if filtered {
		query += " AND series = $2"
		args = append(args, series)
	}
	var max int64
	if err := sqlx.GetContext(ctx, tx, &max, query, args...); err != nil {
		return 0, fmt.Errorf("scan issued numbers: %w", err)
	}
	return max, nil
}

// Seed creates the counter row once. A concurrent seeder wins silently.
func (r *SequenceRepository) Seed(ctx context.Context, tx sqlx.ExtContext, tenantID string, series models.DocumentSeries, value int64) error {
	const query = `INSERT INTO document_sequences (tenant_id, series, last_value, updated_at) VALUES ($1, $2, $3, $4)
        ON CONFLICT (tenant_id, series) DO NOTHING`
	if _, err := tx.ExecContext(ctx, query, tenantID, series, value, time.Now().UTC()); err != nil {
		return fmt.Errorf("seed sequence: %w", err)
	}
	return nil
}
