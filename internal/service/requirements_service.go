package service

import (
	"context"
	"fmt"

	"github.com/noah-isme/academic-records-api/internal/models"
	appErrors "github.com/noah-isme/academic-records-api/pkg/errors"
)

type scopeEnrollmentStore interface {
	ExistsInScope(ctx context.Context, tenantID, studentID string, courseID, classID *string) (bool, error)
}

type composedHistoryReader interface {
	Composed(ctx context.Context, q models.HistoryQuery) ([]models.HistoryRow, error)
}

// RequirementsService is the default conclusion requirement collaborator.
// Field errors are reported alone; content errors list every unmet discipline.
type RequirementsService struct {
	enrollments scopeEnrollmentStore
	history     composedHistoryReader
}

// NewRequirementsService constructs a RequirementsService.
func NewRequirementsService(enrollments scopeEnrollmentStore, history composedHistoryReader) *RequirementsService {
	return &RequirementsService{enrollments: enrollments, history: history}
}

// Check implements RequirementsChecker.
func (s *RequirementsService) Check(ctx context.Context, studentID string, courseID, classID *string, tenantID string, academicType models.AcademicType) (*models.RequirementResult, error) {
	if fieldErrs := scopeFieldErrors(academicType, courseID, classID); len(fieldErrs) > 0 {
		return &models.RequirementResult{Valid: false, Errors: fieldErrs}, nil
	}
	courseID, classID = trimmed(courseID), trimmed(classID)

	var errs []string
	enrolled, err := s.enrollments.ExistsInScope(ctx, tenantID, studentID, courseID, classID)
	if err != nil {
		return nil, appErrors.Store(err, "failed to check enrollment scope")
	}
	if !enrolled {
		errs = append(errs, "student has no enrollment in the selected course or class")
	}

	rows, err := s.history.Composed(ctx, models.HistoryQuery{
		TenantID:  tenantID,
		StudentID: studentID,
		CourseID:  courseID,
		ClassID:   classID,
	})
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		errs = append(errs, "no closed academic history in the selected course or class")
	}
	errs = append(errs, unmetDisciplines(rows)...)

	return &models.RequirementResult{Valid: len(errs) == 0, Errors: errsOrEmpty(errs)}, nil
}

// unmetDisciplines names, in history order, every discipline without a passing or substituted row.
func unmetDisciplines(rows []models.HistoryRow) []string {
	order := make([]string, 0)
	names := make(map[string]string)
	satisfied := make(map[string]bool)
	for _, row := range rows {
		if _, seen := names[row.DisciplineID]; !seen {
			order = append(order, row.DisciplineID)
			names[row.DisciplineID] = row.DisciplineName
		}
		if row.Passed() {
			satisfied[row.DisciplineID] = true
		}
	}

	var errs []string
	for _, id := range order {
		if !satisfied[id] {
			errs = append(errs, fmt.Sprintf("discipline %s is not completed", names[id]))
		}
	}
	return errs
}

func errsOrEmpty(errs []string) []string {
	if errs == nil {
		return []string{}
	}
	return errs
}
