package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/noah-isme/academic-records-api/internal/models"
	appErrors "github.com/noah-isme/academic-records-api/pkg/errors"
)

// EligibilityAction names the irreversible action being gated.
type EligibilityAction string

const (
	ActionEnrollmentDeclaration EligibilityAction = EligibilityAction(models.DocumentKindEnrollmentDeclaration)
	ActionAttendanceDeclaration EligibilityAction = EligibilityAction(models.DocumentKindAttendanceDeclaration)
	ActionTranscript            EligibilityAction = EligibilityAction(models.DocumentKindTranscript)
	ActionCertificate           EligibilityAction = EligibilityAction(models.DocumentKindCertificate)
	ActionConclusion            EligibilityAction = "CONCLUSION"
)

// Pipeline step names, also used as metric labels.
const (
	StepStudent       = "student"
	StepFinancialHold = "financial_hold"
	StepAcademicHold  = "academic_hold"
	StepRequirement   = "requirement"
)

// ActionForKind maps a document kind to its eligibility action.
func ActionForKind(kind models.DocumentKind) EligibilityAction {
	return EligibilityAction(kind)
}

func (a EligibilityAction) holdCategory() models.HoldCategory {
	if a == ActionConclusion {
		return models.HoldCategoryConclusion
	}
	return models.HoldCategoryDocuments
}

func (a EligibilityAction) isDeclaration() bool {
	return a == ActionEnrollmentDeclaration || a == ActionAttendanceDeclaration
}

// EligibilityOptions carries the optional scope an action is evaluated in.
type EligibilityOptions struct {
	AcademicYearID *string
	DisciplineID   *string
	CourseID       *string
	ClassID        *string
}

// Check is one named predicate of an eligibility pipeline.
type Check struct {
	Name string
	Run  func(ctx context.Context) error
}

// RunPipeline evaluates checks in order and stops at the first failure, returning its step name.
func RunPipeline(ctx context.Context, checks []Check) (string, error) {
	for _, check := range checks {
		if err := check.Run(ctx); err != nil {
			return check.Name, err
		}
	}
	return "", nil
}

// HoldError is returned by an academic hold collaborator when the student is blocked.
type HoldError struct {
	Reason string
}

func (e *HoldError) Error() string {
	return e.Reason
}

// FinancialHoldChecker answers whether outstanding debts block an action category.
type FinancialHoldChecker interface {
	Check(ctx context.Context, studentID, tenantID string, category models.HoldCategory) (models.FinancialHoldResult, error)
}

// AcademicHoldChecker returns a *HoldError when an academic block applies.
type AcademicHoldChecker interface {
	Ensure(ctx context.Context, studentID, tenantID string, academicType models.AcademicType, disciplineID, academicYearID *string) error
}

// RequirementsChecker is the conclusion requirement check shared with ConclusionService.CanConclude.
type RequirementsChecker interface {
	Check(ctx context.Context, studentID string, courseID, classID *string, tenantID string, academicType models.AcademicType) (*models.RequirementResult, error)
}

type studentReader interface {
	FindByID(ctx context.Context, tenantID, id string) (*models.Student, error)
}

type enrollmentFinder interface {
	FindLatest(ctx context.Context, tenantID, studentID string, academicYearID *string, status models.EnrollmentStatus) (*models.EnrollmentDetail, error)
}

// EligibilityValidator gates irreversible actions behind an ordered pipeline of checks.
// It has no side effects besides metrics.
type EligibilityValidator struct {
	students     studentReader
	enrollments  enrollmentFinder
	financial    FinancialHoldChecker
	academic     AcademicHoldChecker
	requirements RequirementsChecker
	metrics      *MetricsService
	logger       *zap.Logger
}

// NewEligibilityValidator constructs an EligibilityValidator.
func NewEligibilityValidator(students studentReader, enrollments enrollmentFinder, financial FinancialHoldChecker, academic AcademicHoldChecker, requirements RequirementsChecker, metrics *MetricsService, logger *zap.Logger) *EligibilityValidator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &EligibilityValidator{
		students:     students,
		enrollments:  enrollments,
		financial:    financial,
		academic:     academic,
		requirements: requirements,
		metrics:      metrics,
		logger:       logger,
	}
}

// Validate runs the pipeline for the action and returns the first failure.
func (v *EligibilityValidator) Validate(ctx context.Context, action EligibilityAction, studentID string, tenant models.TenantContext, opts EligibilityOptions) error {
	step, err := RunPipeline(ctx, v.checks(action, studentID, tenant, opts))
	if err == nil {
		return nil
	}
	if !appErrors.HasCode(err, appErrors.ErrStore) && !appErrors.HasCode(err, appErrors.ErrInternal) {
		v.metrics.EligibilityBlocked(string(action), step)
		v.logger.Info("eligibility blocked",
			zap.String("action", string(action)),
			zap.String("step", step),
			zap.String("student_id", studentID),
			zap.String("tenant_id", tenant.TenantID),
			zap.String("reason", appErrors.FromError(err).Message),
		)
	}
	return err
}

func (v *EligibilityValidator) checks(action EligibilityAction, studentID string, tenant models.TenantContext, opts EligibilityOptions) []Check {
	return []Check{
		{Name: StepStudent, Run: func(ctx context.Context) error {
			return v.checkStudent(ctx, studentID, tenant)
		}},
		{Name: StepFinancialHold, Run: func(ctx context.Context) error {
			return v.checkFinancial(ctx, studentID, tenant.TenantID, action.holdCategory())
		}},
		{Name: StepAcademicHold, Run: func(ctx context.Context) error {
			return v.checkAcademic(ctx, studentID, tenant, opts)
		}},
		{Name: StepRequirement, Run: func(ctx context.Context) error {
			if action.isDeclaration() {
				return v.checkActiveEnrollment(ctx, studentID, tenant.TenantID, opts.AcademicYearID)
			}
			return v.checkRequirements(ctx, studentID, tenant, opts)
		}},
	}
}

func (v *EligibilityValidator) checkStudent(ctx context.Context, studentID string, tenant models.TenantContext) error {
	if studentID == "" {
		return appErrors.Clone(appErrors.ErrValidation, "studentId is required")
	}
	if _, err := v.students.FindByID(ctx, tenant.TenantID, studentID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "student not found")
		}
		return appErrors.Store(err, "failed to load student")
	}
	if !tenant.AcademicType.Valid() {
		return appErrors.Clone(appErrors.ErrValidation, msgAcademicTypeMissing)
	}
	return nil
}

func (v *EligibilityValidator) checkFinancial(ctx context.Context, studentID, tenantID string, category models.HoldCategory) error {
	if v.financial == nil {
		return nil
	}
	result, err := v.financial.Check(ctx, studentID, tenantID, category)
	if err != nil {
		return appErrors.Store(err, "failed to check financial holds")
	}
	if result.Blocked {
		reason := result.Reason
		if reason == "" {
			reason = "financial hold"
		}
		return appErrors.Clone(appErrors.ErrEligibility, reason)
	}
	return nil
}

func (v *EligibilityValidator) checkAcademic(ctx context.Context, studentID string, tenant models.TenantContext, opts EligibilityOptions) error {
	if v.academic == nil {
		return nil
	}
	err := v.academic.Ensure(ctx, studentID, tenant.TenantID, tenant.AcademicType, opts.DisciplineID, opts.AcademicYearID)
	if err == nil {
		return nil
	}
	var hold *HoldError
	if errors.As(err, &hold) {
		return appErrors.Clone(appErrors.ErrEligibility, hold.Reason)
	}
	return appErrors.Store(err, "failed to check academic holds")
}

func (v *EligibilityValidator) checkActiveEnrollment(ctx context.Context, studentID, tenantID string, academicYearID *string) error {
	_, err := v.enrollments.FindLatest(ctx, tenantID, studentID, academicYearID, models.EnrollmentStatusActive)
	if err == nil {
		return nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		if academicYearID != nil {
			return appErrors.Clone(appErrors.ErrEligibility, "student has no active enrollment in the requested academic year")
		}
		return appErrors.Clone(appErrors.ErrEligibility, "student has no active enrollment")
	}
	return appErrors.Store(err, "failed to load enrollment")
}

func (v *EligibilityValidator) checkRequirements(ctx context.Context, studentID string, tenant models.TenantContext, opts EligibilityOptions) error {
	result, err := v.requirements.Check(ctx, studentID, opts.CourseID, opts.ClassID, tenant.TenantID, tenant.AcademicType)
	if err != nil {
		return appErrors.Store(err, "failed to check conclusion requirements")
	}
	if result == nil || result.Valid {
		return nil
	}
	reason := "conclusion requirements not met"
	if len(result.Errors) > 0 {
		reason = result.Errors[0]
	}
	return appErrors.Clone(appErrors.ErrEligibility, reason)
}

// HoldService is the default hold collaborator backed by the holds tables.
type HoldService struct {
	repo holdStore
}

type holdStore interface {
	ActiveFinancial(ctx context.Context, tenantID, studentID string, category models.HoldCategory) ([]models.FinancialHold, error)
	ActiveAcademic(ctx context.Context, tenantID, studentID string, disciplineID, academicYearID *string) ([]models.AcademicHold, error)
}

// NewHoldService constructs a HoldService.
func NewHoldService(repo holdStore) *HoldService {
	return &HoldService{repo: repo}
}

// Check implements FinancialHoldChecker; the oldest hold's reason is reported.
func (s *HoldService) Check(ctx context.Context, studentID, tenantID string, category models.HoldCategory) (models.FinancialHoldResult, error) {
	holds, err := s.repo.ActiveFinancial(ctx, tenantID, studentID, category)
	if err != nil {
		return models.FinancialHoldResult{}, err
	}
	if len(holds) == 0 {
		return models.FinancialHoldResult{}, nil
	}
	return models.FinancialHoldResult{Blocked: true, Reason: holds[0].Reason}, nil
}

// Ensure implements AcademicHoldChecker.
func (s *HoldService) Ensure(ctx context.Context, studentID, tenantID string, academicType models.AcademicType, disciplineID, academicYearID *string) error {
	holds, err := s.repo.ActiveAcademic(ctx, tenantID, studentID, disciplineID, academicYearID)
	if err != nil {
		return fmt.Errorf("academic holds: %w", err)
	}
	if len(holds) == 0 {
		return nil
	}
	return &HoldError{Reason: holds[0].Reason}
}
