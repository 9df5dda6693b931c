package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/academic-records-api/internal/models"
)

// HistoryRepository reads per-subject academic history. Rows are written by the grading subsystem.
type HistoryRepository struct {
	db *sqlx.DB
}

// NewHistoryRepository constructs a HistoryRepository.
func NewHistoryRepository(db *sqlx.DB) *HistoryRepository {
	return &HistoryRepository{db: db}
}

// List returns history rows ordered by academic year then ordinal.
func (r *HistoryRepository) List(ctx context.Context, q models.HistoryQuery) ([]models.HistoryEntry, error) {
	where := newWhere("h.tenant_id = $1", q.TenantID)
	where.add("h.student_id = ?", q.StudentID)
	if !q.IncludeOpen {
		where.conditions = append(where.conditions, "h.closed = true")
	}
	if q.AcademicYearID != nil && *q.AcademicYearID != "" {
		where.add("h.academic_year_id = ?", *q.AcademicYearID)
	}
	if q.DisciplineID != nil && *q.DisciplineID != "" {
		where.add("h.discipline_id = ?", *q.DisciplineID)
	}
	if q.CourseID != nil {
		where.add("h.course_id = ?", *q.CourseID)
	}
	if q.ClassID != nil {
		where.add("h.class_id = ?", *q.ClassID)
	}

	query := fmt.Sprintf(`SELECT h.id, h.tenant_id, h.student_id, h.academic_year_id, y.name AS academic_year_name,
        h.discipline_id, h.discipline_name, h.course_id, h.class_id, h.workload_hours, h.credits, h.final_grade,
        h.attendance_pct, h.result, h.ordinal
        FROM academic_history h
        JOIN academic_years y ON y.id = h.academic_year_id
        %s ORDER BY y.start_date ASC, h.ordinal ASC`, where)

	var entries []models.HistoryEntry
	if err := r.db.SelectContext(ctx, &entries, query, where.args...); err != nil {
		return nil, fmt.Errorf("list academic history: %w", err)
	}
	return entries, nil
}
