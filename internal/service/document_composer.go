package service

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/jmoiron/sqlx"
	"golang.org/x/sync/errgroup"

	"github.com/noah-isme/academic-records-api/internal/models"
	appErrors "github.com/noah-isme/academic-records-api/pkg/errors"
)

type tenantReader interface {
	FindByID(ctx context.Context, id string) (*models.Tenant, error)
}

type conclusionReader interface {
	FindByID(ctx context.Context, tenantID, id string) (*models.ConclusionRecord, error)
	FindGraduation(ctx context.Context, q sqlx.QueryerContext, tenantID, conclusionID string) (*models.GraduationRecord, error)
	FindCertificate(ctx context.Context, q sqlx.QueryerContext, tenantID, conclusionID string) (*models.CertificateRecord, error)
}

// DocumentComposer builds payload snapshots. Declarations read live data; transcripts and
// certificates read the closed history composed with deferred equivalencies.
type DocumentComposer struct {
	reader      sqlx.QueryerContext
	tenants     tenantReader
	students    studentReader
	enrollments enrollmentFinder
	history     historyStore
	composed    composedHistoryReader
	conclusions conclusionReader
}

// NewDocumentComposer constructs a DocumentComposer. reader serves terminal record lookups.
func NewDocumentComposer(reader sqlx.QueryerContext, tenants tenantReader, students studentReader, enrollments enrollmentFinder, history historyStore, composed composedHistoryReader, conclusions conclusionReader) *DocumentComposer {
	return &DocumentComposer{
		reader:      reader,
		tenants:     tenants,
		students:    students,
		enrollments: enrollments,
		history:     history,
		composed:    composed,
		conclusions: conclusions,
	}
}

// Scope resolves the eligibility options of a request before any write.
func (c *DocumentComposer) Scope(ctx context.Context, tenant models.TenantContext, req DocumentRequest) (EligibilityOptions, error) {
	switch r := req.(type) {
	case EnrollmentDeclaration:
		return EligibilityOptions{AcademicYearID: r.AcademicYearID}, nil
	case AttendanceDeclaration:
		return EligibilityOptions{AcademicYearID: r.AcademicYearID, DisciplineID: r.DisciplineID}, nil
	case Transcript:
		enrollment, err := c.enrollments.FindLatest(ctx, tenant.TenantID, r.StudentID, nil, "")
		if err != nil {
			if !errors.Is(err, sql.ErrNoRows) {
				return EligibilityOptions{}, appErrors.Store(err, "failed to load enrollment")
			}
			if _, err := c.student(ctx, tenant.TenantID, r.StudentID); err != nil {
				return EligibilityOptions{}, err
			}
			return EligibilityOptions{}, appErrors.Clone(appErrors.ErrEligibility, "student has no enrollment")
		}
		return EligibilityOptions{AcademicYearID: r.AcademicYearID, CourseID: enrollment.CourseID, ClassID: enrollment.ClassID}, nil
	case Certificate:
		conclusion, err := c.concluded(ctx, tenant.TenantID, r)
		if err != nil {
			return EligibilityOptions{}, err
		}
		return EligibilityOptions{CourseID: conclusion.CourseID, ClassID: conclusion.ClassID}, nil
	default:
		return EligibilityOptions{}, appErrors.Clone(appErrors.ErrValidation, "unsupported document request")
	}
}

// Compose assembles the payload snapshot embedded in the issued document.
func (c *DocumentComposer) Compose(ctx context.Context, tenant models.TenantContext, req DocumentRequest, number string, issuedAt time.Time) (*models.DocumentPayload, error) {
	payload := &models.DocumentPayload{Kind: req.Kind(), Number: number, IssuedAt: issuedAt}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		row, err := c.tenants.FindByID(gctx, tenant.TenantID)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return appErrors.Clone(appErrors.ErrNotFound, "tenant not found")
			}
			return appErrors.Store(err, "failed to load tenant")
		}
		payload.Tenant = models.PayloadTenant{ID: row.ID, Name: row.Name, AcademicType: row.Type()}
		return nil
	})
	g.Go(func() error {
		student, err := c.student(gctx, tenant.TenantID, req.Student())
		if err != nil {
			return err
		}
		payload.Student = models.PayloadStudent{
			ID:                 student.ID,
			FullName:           student.FullName,
			RegistrationNumber: student.RegistrationNumber,
			NationalID:         student.NationalID,
			BirthDate:          student.BirthDate,
		}
		return nil
	})
	g.Go(func() error {
		return c.composeBody(gctx, tenant, req, payload)
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return payload, nil
}

// composeBody fills the kind-specific part of the payload. It only writes fields the other goroutines leave alone.
func (c *DocumentComposer) composeBody(ctx context.Context, tenant models.TenantContext, req DocumentRequest, payload *models.DocumentPayload) error {
	switch r := req.(type) {
	case EnrollmentDeclaration:
		enrollment, err := c.activeEnrollment(ctx, tenant.TenantID, r.StudentID, r.AcademicYearID)
		if err != nil {
			return err
		}
		payload.Enrollment = payloadEnrollment(enrollment)
		return nil
	case AttendanceDeclaration:
		enrollment, err := c.activeEnrollment(ctx, tenant.TenantID, r.StudentID, r.AcademicYearID)
		if err != nil {
			return err
		}
		payload.Enrollment = payloadEnrollment(enrollment)
		year := enrollment.AcademicYearID
		entries, err := c.history.List(ctx, models.HistoryQuery{
			TenantID:       tenant.TenantID,
			StudentID:      r.StudentID,
			AcademicYearID: &year,
			DisciplineID:   r.DisciplineID,
			IncludeOpen:    true,
		})
		if err != nil {
			return appErrors.Store(err, "failed to load attendance")
		}
		if r.DisciplineID != nil && len(entries) == 0 {
			return appErrors.Clone(appErrors.ErrNotFound, "no attendance recorded for the discipline")
		}
		payload.Attendance = make([]models.PayloadAttendance, 0, len(entries))
		for _, e := range entries {
			payload.Attendance = append(payload.Attendance, models.PayloadAttendance{
				Discipline:    e.DisciplineName,
				WorkloadHours: e.WorkloadHours.String(),
				AttendancePct: e.AttendancePct.StringFixed(2),
			})
		}
		return nil
	case Transcript:
		rows, err := c.composed.Composed(ctx, models.HistoryQuery{TenantID: tenant.TenantID, StudentID: r.StudentID, AcademicYearID: r.AcademicYearID})
		if err != nil {
			return err
		}
		metrics := ComputeMetrics(rows)
		payload.History = rows
		payload.Summary = &metrics
		return nil
	case Certificate:
		conclusion, err := c.concluded(ctx, tenant.TenantID, r)
		if err != nil {
			return err
		}
		rows, err := c.composed.Composed(ctx, models.HistoryQuery{
			TenantID:  tenant.TenantID,
			StudentID: r.StudentID,
			CourseID:  conclusion.CourseID,
			ClassID:   conclusion.ClassID,
		})
		if err != nil {
			return err
		}
		terminal, err := c.terminalNumber(ctx, tenant.TenantID, conclusion)
		if err != nil {
			return err
		}
		metrics := conclusion.ConclusionMetrics
		payload.History = rows
		payload.Summary = &metrics
		payload.Conclusion = &models.PayloadConclusion{
			ID:                conclusion.ID,
			Type:              conclusion.Type,
			Metrics:           conclusion.ConclusionMetrics,
			OfficialActNumber: conclusion.OfficialActNumber,
			ConcludedAt:       conclusion.ConcludedAt,
			TerminalNumber:    terminal,
		}
		return nil
	default:
		return appErrors.Clone(appErrors.ErrValidation, "unsupported document request")
	}
}

func (c *DocumentComposer) student(ctx context.Context, tenantID, id string) (*models.Student, error) {
	student, err := c.students.FindByID(ctx, tenantID, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "student not found")
		}
		return nil, appErrors.Store(err, "failed to load student")
	}
	return student, nil
}

func (c *DocumentComposer) activeEnrollment(ctx context.Context, tenantID, studentID string, yearID *string) (*models.EnrollmentDetail, error) {
	enrollment, err := c.enrollments.FindLatest(ctx, tenantID, studentID, yearID, models.EnrollmentStatusActive)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrEligibility, "student has no active enrollment")
		}
		return nil, appErrors.Store(err, "failed to load enrollment")
	}
	return enrollment, nil
}

// concluded loads the certificate's conclusion and checks it belongs to the student and is CONCLUDED.
func (c *DocumentComposer) concluded(ctx context.Context, tenantID string, r Certificate) (*models.ConclusionRecord, error) {
	conclusion, err := c.conclusions.FindByID(ctx, tenantID, r.ConclusionID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "conclusion record not found")
		}
		return nil, appErrors.Store(err, "failed to load conclusion record")
	}
	if conclusion.StudentID != r.StudentID {
		return nil, appErrors.Clone(appErrors.ErrValidation, "conclusion record does not belong to the student")
	}
	if conclusion.Status != models.ConclusionStatusConcluded {
		return nil, appErrors.Clone(appErrors.ErrEligibility, "conclusion must be concluded before issuing a certificate")
	}
	return conclusion, nil
}

func (c *DocumentComposer) terminalNumber(ctx context.Context, tenantID string, conclusion *models.ConclusionRecord) (*string, error) {
	var (
		number string
		err    error
	)
	if conclusion.Type == models.ConclusionTypeHigher {
		var rec *models.GraduationRecord
		if rec, err = c.conclusions.FindGraduation(ctx, c.reader, tenantID, conclusion.ID); err == nil {
			number = rec.Number
		}
	} else {
		var rec *models.CertificateRecord
		if rec, err = c.conclusions.FindCertificate(ctx, c.reader, tenantID, conclusion.ID); err == nil {
			number = rec.Number
		}
	}
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, appErrors.Store(err, "failed to load terminal record")
	}
	return &number, nil
}

func payloadEnrollment(e *models.EnrollmentDetail) *models.PayloadEnrollment {
	return &models.PayloadEnrollment{
		AcademicYear: e.AcademicYearName,
		Course:       e.CourseName,
		Class:        e.ClassName,
		Status:       e.Status,
	}
}
