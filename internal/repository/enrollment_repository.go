package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/academic-records-api/internal/models"
)

// EnrollmentRepository handles persistence of annual enrollments.
type EnrollmentRepository struct {
	db *sqlx.DB
}

// NewEnrollmentRepository constructs the repository.
func NewEnrollmentRepository(db *sqlx.DB) *EnrollmentRepository {
	return &EnrollmentRepository{db: db}
}

const enrollmentDetailColumns = `e.id, e.tenant_id, e.student_id, e.academic_year_id, e.course_id, e.class_id, e.status, e.created_at, e.updated_at,
        y.name AS academic_year_name, co.name AS course_name, cl.name AS class_name`

const enrollmentDetailJoins = `FROM annual_enrollments e
        JOIN academic_years y ON y.id = e.academic_year_id
        LEFT JOIN courses co ON co.id = e.course_id
        LEFT JOIN classes cl ON cl.id = e.class_id`

// FindLatest returns the most recent enrollment of a student, optionally pinned to one academic year.
// An empty status matches any status.
func (r *EnrollmentRepository) FindLatest(ctx context.Context, tenantID, studentID string, academicYearID *string, status models.EnrollmentStatus) (*models.EnrollmentDetail, error) {
	where := newWhere("e.tenant_id = $1", tenantID)
	where.add("e.student_id = ?", studentID)
	if status != "" {
		where.add("e.status = ?", status)
	}
	if academicYearID != nil && *academicYearID != "" {
		where.add("e.academic_year_id = ?", *academicYearID)
	}

	query := fmt.Sprintf("SELECT %s %s %s ORDER BY y.start_date DESC LIMIT 1", enrollmentDetailColumns, enrollmentDetailJoins, where)
	var detail models.EnrollmentDetail
	if err := r.db.GetContext(ctx, &detail, query, where.args...); err != nil {
		return nil, err
	}
	return &detail, nil
}

// ExistsInScope reports whether the student holds any enrollment in the course or class scope.
func (r *EnrollmentRepository) ExistsInScope(ctx context.Context, tenantID, studentID string, courseID, classID *string) (bool, error) {
	where := newWhere("tenant_id = $1", tenantID)
	where.add("student_id = ?", studentID)
	if courseID != nil {
		where.add("course_id = ?", *courseID)
	}
	if classID != nil {
		where.add("class_id = ?", *classID)
	}

	var exists int
	query := fmt.Sprintf("SELECT 1 FROM annual_enrollments %s LIMIT 1", where)
	if err := r.db.GetContext(ctx, &exists, query, where.args...); err != nil {
		if err == sql.ErrNoRows {
			return false, nil
		}
		return false, fmt.Errorf("check enrollment scope: %w", err)
	}
	return true, nil
}

// ConcludeScope flips every enrollment of the student in the concluded scope to CONCLUDED inside tx.
func (r *EnrollmentRepository) ConcludeScope(ctx context.Context, tx sqlx.ExtContext, tenantID, studentID string, courseID, classID *string) (int64, error) {
	where := newWhere("tenant_id = $1", tenantID)
	where.add("student_id = ?", studentID)
	if courseID != nil {
		where.add("course_id = ?", *courseID)
	}
	if classID != nil {
		where.add("class_id = ?", *classID)
	}
	where.add("status <> ?", models.EnrollmentStatusConcluded)

	query := fmt.Sprintf("UPDATE annual_enrollments SET status = $%d, updated_at = $%d %s",
		len(where.args)+1, len(where.args)+2, where)
	args := append(where.args, models.EnrollmentStatusConcluded, time.Now().UTC())

	res, err := tx.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("conclude enrollments: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("conclude enrollments rows: %w", err)
	}
	return affected, nil
}
