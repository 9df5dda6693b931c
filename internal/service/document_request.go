package service

import (
	"fmt"

	"github.com/noah-isme/academic-records-api/internal/dto"
	"github.com/noah-isme/academic-records-api/internal/models"
	appErrors "github.com/noah-isme/academic-records-api/pkg/errors"
)

// DocumentRequest is a validated issuance request. Each variant carries only the fields its kind uses.
type DocumentRequest interface {
	Kind() models.DocumentKind
	Student() string
}

// EnrollmentDeclaration attests an active enrollment, in the given year when set.
type EnrollmentDeclaration struct {
	StudentID      string
	AcademicYearID *string
}

// AttendanceDeclaration attests attendance of an active enrollment, optionally for one discipline.
type AttendanceDeclaration struct {
	StudentID      string
	AcademicYearID *string
	DisciplineID   *string
}

// Transcript lists the closed academic history, optionally restricted to one year.
type Transcript struct {
	StudentID      string
	AcademicYearID *string
}

// Certificate attests a concluded conclusion record.
type Certificate struct {
	StudentID    string
	ConclusionID string
}

func (r EnrollmentDeclaration) Kind() models.DocumentKind {
	return models.DocumentKindEnrollmentDeclaration
}
func (r EnrollmentDeclaration) Student() string { return r.StudentID }

func (r AttendanceDeclaration) Kind() models.DocumentKind {
	return models.DocumentKindAttendanceDeclaration
}
func (r AttendanceDeclaration) Student() string { return r.StudentID }

func (r Transcript) Kind() models.DocumentKind { return models.DocumentKindTranscript }
func (r Transcript) Student() string           { return r.StudentID }

func (r Certificate) Kind() models.DocumentKind { return models.DocumentKindCertificate }
func (r Certificate) Student() string           { return r.StudentID }

// NewDocumentRequest builds the variant for the requested kind, rejecting fields the kind does not accept.
func NewDocumentRequest(req dto.IssueDocumentRequest) (DocumentRequest, error) {
	year, discipline, conclusion := trimmed(req.AcademicYearID), trimmed(req.DisciplineID), trimmed(req.ConclusionID)
	if req.StudentID == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "studentId is required")
	}

	switch req.Kind {
	case models.DocumentKindEnrollmentDeclaration:
		if err := mustBeEmpty(req.Kind, namedField{"disciplineId", discipline}, namedField{"conclusionId", conclusion}); err != nil {
			return nil, err
		}
		return EnrollmentDeclaration{StudentID: req.StudentID, AcademicYearID: year}, nil
	case models.DocumentKindAttendanceDeclaration:
		if err := mustBeEmpty(req.Kind, namedField{"conclusionId", conclusion}); err != nil {
			return nil, err
		}
		return AttendanceDeclaration{StudentID: req.StudentID, AcademicYearID: year, DisciplineID: discipline}, nil
	case models.DocumentKindTranscript:
		if err := mustBeEmpty(req.Kind, namedField{"disciplineId", discipline}, namedField{"conclusionId", conclusion}); err != nil {
			return nil, err
		}
		return Transcript{StudentID: req.StudentID, AcademicYearID: year}, nil
	case models.DocumentKindCertificate:
		if conclusion == nil {
			return nil, appErrors.Clone(appErrors.ErrValidation, "conclusionId is required for certificates")
		}
		if err := mustBeEmpty(req.Kind, namedField{"academicYearId", year}, namedField{"disciplineId", discipline}); err != nil {
			return nil, err
		}
		return Certificate{StudentID: req.StudentID, ConclusionID: *conclusion}, nil
	default:
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unsupported document kind %q", req.Kind))
	}
}

type namedField struct {
	name  string
	value *string
}

func mustBeEmpty(kind models.DocumentKind, fields ...namedField) error {
	for _, f := range fields {
		if f.value != nil {
			return appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("%s must be empty for %s", f.name, kind))
		}
	}
	return nil
}
