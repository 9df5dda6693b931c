package service

import (
	"strings"

	"github.com/noah-isme/academic-records-api/internal/models"
	appErrors "github.com/noah-isme/academic-records-api/pkg/errors"
)

// Field errors shared by scope construction and the requirement check.
const (
	msgCourseRequired      = "courseId is required for higher education"
	msgClassForbidden      = "classId must be empty for higher education"
	msgClassRequired       = "classId is required for secondary education"
	msgAcademicTypeMissing = "institution academic type is not configured"
)

// ConclusionScope is what a conclusion record is about. Only two variants exist.
type ConclusionScope interface {
	ConclusionType() models.ConclusionType
	Refs() (courseID, classID *string)
}

// HigherConclusion scopes a higher education conclusion to a course.
type HigherConclusion struct {
	CourseID string
}

// ConclusionType implements ConclusionScope.
func (h HigherConclusion) ConclusionType() models.ConclusionType { return models.ConclusionTypeHigher }

// Refs implements ConclusionScope.
func (h HigherConclusion) Refs() (*string, *string) {
	course := h.CourseID
	return &course, nil
}

// SecondaryConclusion scopes a secondary education conclusion to a class, optionally within a course.
type SecondaryConclusion struct {
	ClassID  string
	CourseID *string
}

// ConclusionType implements ConclusionScope.
func (s SecondaryConclusion) ConclusionType() models.ConclusionType {
	return models.ConclusionTypeSecondary
}

// Refs implements ConclusionScope.
func (s SecondaryConclusion) Refs() (*string, *string) {
	class := s.ClassID
	return s.CourseID, &class
}

// scopeFieldErrors lists every field-level problem of a course/class selection, in a stable order.
func scopeFieldErrors(academicType models.AcademicType, courseID, classID *string) []string {
	course, class := trimmed(courseID), trimmed(classID)
	var errs []string
	switch academicType {
	case models.AcademicTypeHigher:
		if course == nil {
			errs = append(errs, msgCourseRequired)
		}
		if class != nil {
			errs = append(errs, msgClassForbidden)
		}
	case models.AcademicTypeSecondary:
		if class == nil {
			errs = append(errs, msgClassRequired)
		}
	default:
		errs = append(errs, msgAcademicTypeMissing)
	}
	return errs
}

// NewConclusionScope validates the selection for the tenant's academic type and builds the matching variant.
func NewConclusionScope(academicType models.AcademicType, courseID, classID *string) (ConclusionScope, error) {
	if errs := scopeFieldErrors(academicType, courseID, classID); len(errs) > 0 {
		return nil, appErrors.Clone(appErrors.ErrValidation, errs[0])
	}
	if academicType == models.AcademicTypeHigher {
		return HigherConclusion{CourseID: *trimmed(courseID)}, nil
	}
	return SecondaryConclusion{ClassID: *trimmed(classID), CourseID: trimmed(courseID)}, nil
}

// scopeOf rebuilds the scope of a persisted record.
func scopeOf(record *models.ConclusionRecord) ConclusionScope {
	if record.Type == models.ConclusionTypeHigher && record.CourseID != nil {
		return HigherConclusion{CourseID: *record.CourseID}
	}
	class := ""
	if record.ClassID != nil {
		class = *record.ClassID
	}
	return SecondaryConclusion{ClassID: class, CourseID: record.CourseID}
}

func trimmed(v *string) *string {
	if v == nil {
		return nil
	}
	s := strings.TrimSpace(*v)
	if s == "" {
		return nil
	}
	return &s
}
