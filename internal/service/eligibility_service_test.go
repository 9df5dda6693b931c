package service

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/academic-records-api/internal/models"
	appErrors "github.com/noah-isme/academic-records-api/pkg/errors"
)

type studentReaderStub struct {
	students map[string]*models.Student
	err      error
}

func (s studentReaderStub) FindByID(ctx context.Context, tenantID, id string) (*models.Student, error) {
	if s.err != nil {
		return nil, s.err
	}
	if st, ok := s.students[id]; ok && st.TenantID == tenantID {
		return st, nil
	}
	return nil, sql.ErrNoRows
}

type enrollmentFinderStub struct {
	active *models.EnrollmentDetail
	latest *models.EnrollmentDetail
	err    error
	calls  int
}

func (s *enrollmentFinderStub) FindLatest(ctx context.Context, tenantID, studentID string, academicYearID *string, status models.EnrollmentStatus) (*models.EnrollmentDetail, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	if status == models.EnrollmentStatusActive {
		if s.active == nil {
			return nil, sql.ErrNoRows
		}
		return s.active, nil
	}
	if s.latest == nil {
		return nil, sql.ErrNoRows
	}
	return s.latest, nil
}

type financialHoldStub struct {
	result   models.FinancialHoldResult
	err      error
	category models.HoldCategory
	calls    int
}

func (s *financialHoldStub) Check(ctx context.Context, studentID, tenantID string, category models.HoldCategory) (models.FinancialHoldResult, error) {
	s.calls++
	s.category = category
	return s.result, s.err
}

type academicHoldStub struct {
	err   error
	calls int
}

func (s *academicHoldStub) Ensure(ctx context.Context, studentID, tenantID string, academicType models.AcademicType, disciplineID, academicYearID *string) error {
	s.calls++
	return s.err
}

type requirementsStub struct {
	result *models.RequirementResult
	err    error
	calls  int
}

func (s *requirementsStub) Check(ctx context.Context, studentID string, courseID, classID *string, tenantID string, academicType models.AcademicType) (*models.RequirementResult, error) {
	s.calls++
	if s.result == nil && s.err == nil {
		return &models.RequirementResult{Valid: true, Errors: []string{}}, nil
	}
	return s.result, s.err
}

type eligibilityFixture struct {
	enrollments  *enrollmentFinderStub
	financial    *financialHoldStub
	academic     *academicHoldStub
	requirements *requirementsStub
	validator    *EligibilityValidator
}

func newEligibilityFixture() *eligibilityFixture {
	f := &eligibilityFixture{
		enrollments:  &enrollmentFinderStub{active: &models.EnrollmentDetail{}},
		financial:    &financialHoldStub{},
		academic:     &academicHoldStub{},
		requirements: &requirementsStub{},
	}
	students := studentReaderStub{students: map[string]*models.Student{
		"student-1": {ID: "student-1", TenantID: "tenant-1", FullName: "Ana Lima"},
	}}
	f.validator = NewEligibilityValidator(students, f.enrollments, f.financial, f.academic, f.requirements, nil, nil)
	return f
}

func secondaryTenant() models.TenantContext {
	return models.TenantContext{TenantID: "tenant-1", AcademicType: models.AcademicTypeSecondary, ActorID: "user-1", ActorRoles: []models.UserRole{models.RoleSecretary}}
}

func higherTenant() models.TenantContext {
	return models.TenantContext{TenantID: "tenant-1", AcademicType: models.AcademicTypeHigher, ActorID: "user-1", ActorRoles: []models.UserRole{models.RoleCoordinator}}
}

func TestRunPipelineStopsAtFirstFailure(t *testing.T) {
	var ran []string
	step := func(name string, err error) Check {
		return Check{Name: name, Run: func(ctx context.Context) error {
			ran = append(ran, name)
			return err
		}}
	}

	name, err := RunPipeline(context.Background(), []Check{
		step("a", nil),
		step("b", errors.New("blocked")),
		step("c", nil),
	})

	assert.Equal(t, "b", name)
	assert.EqualError(t, err, "blocked")
	assert.Equal(t, []string{"a", "b"}, ran)

	name, err = RunPipeline(context.Background(), []Check{step("d", nil)})
	assert.NoError(t, err)
	assert.Empty(t, name)
}

func TestEligibilityValidatorPasses(t *testing.T) {
	f := newEligibilityFixture()

	err := f.validator.Validate(context.Background(), ActionEnrollmentDeclaration, "student-1", secondaryTenant(), EligibilityOptions{})
	require.NoError(t, err)
	assert.Equal(t, models.HoldCategoryDocuments, f.financial.category)
	assert.Equal(t, 1, f.academic.calls)
	assert.Equal(t, 0, f.requirements.calls)
}

func TestEligibilityValidatorStudentStep(t *testing.T) {
	f := newEligibilityFixture()

	err := f.validator.Validate(context.Background(), ActionTranscript, "missing", secondaryTenant(), EligibilityOptions{})
	assert.True(t, appErrors.HasCode(err, appErrors.ErrNotFound))
	assert.Equal(t, 0, f.financial.calls)

	other := secondaryTenant()
	other.TenantID = "tenant-2"
	err = f.validator.Validate(context.Background(), ActionTranscript, "student-1", other, EligibilityOptions{})
	assert.True(t, appErrors.HasCode(err, appErrors.ErrNotFound))

	unclassified := secondaryTenant()
	unclassified.AcademicType = ""
	err = f.validator.Validate(context.Background(), ActionTranscript, "student-1", unclassified, EligibilityOptions{})
	assert.True(t, appErrors.HasCode(err, appErrors.ErrValidation))
	assert.Equal(t, 0, f.financial.calls)
}

func TestEligibilityValidatorFinancialHoldReasonIsVerbatim(t *testing.T) {
	f := newEligibilityFixture()
	f.financial.result = models.FinancialHoldResult{Blocked: true, Reason: "Tuition for March is overdue"}

	err := f.validator.Validate(context.Background(), ActionConclusion, "student-1", secondaryTenant(), EligibilityOptions{})

	require.Error(t, err)
	assert.True(t, appErrors.HasCode(err, appErrors.ErrEligibility))
	assert.Equal(t, "Tuition for March is overdue", appErrors.FromError(err).Message)
	assert.Equal(t, models.HoldCategoryConclusion, f.financial.category)
	assert.Equal(t, 0, f.academic.calls)
}

func TestEligibilityValidatorAcademicHold(t *testing.T) {
	f := newEligibilityFixture()
	f.academic.err = &HoldError{Reason: "Pending disciplinary review"}

	err := f.validator.Validate(context.Background(), ActionAttendanceDeclaration, "student-1", secondaryTenant(), EligibilityOptions{})
	assert.True(t, appErrors.HasCode(err, appErrors.ErrEligibility))
	assert.Equal(t, "Pending disciplinary review", appErrors.FromError(err).Message)
	assert.Equal(t, 0, f.enrollments.calls)

	f.academic.err = errors.New("timeout")
	err = f.validator.Validate(context.Background(), ActionAttendanceDeclaration, "student-1", secondaryTenant(), EligibilityOptions{})
	assert.True(t, appErrors.HasCode(err, appErrors.ErrStore))
}

func TestEligibilityValidatorDeclarationNeedsActiveEnrollment(t *testing.T) {
	f := newEligibilityFixture()
	f.enrollments.active = nil

	err := f.validator.Validate(context.Background(), ActionEnrollmentDeclaration, "student-1", secondaryTenant(), EligibilityOptions{})
	assert.True(t, appErrors.HasCode(err, appErrors.ErrEligibility))
	assert.Equal(t, "student has no active enrollment", appErrors.FromError(err).Message)

	year := "year-2026"
	err = f.validator.Validate(context.Background(), ActionEnrollmentDeclaration, "student-1", secondaryTenant(), EligibilityOptions{AcademicYearID: &year})
	assert.Equal(t, "student has no active enrollment in the requested academic year", appErrors.FromError(err).Message)
}

func TestEligibilityValidatorCertificateReturnsFirstRequirementError(t *testing.T) {
	f := newEligibilityFixture()
	f.requirements.result = &models.RequirementResult{Valid: false, Errors: []string{"discipline Physics is not completed", "discipline Chemistry is not completed"}}

	err := f.validator.Validate(context.Background(), ActionCertificate, "student-1", secondaryTenant(), EligibilityOptions{})

	assert.True(t, appErrors.HasCode(err, appErrors.ErrEligibility))
	assert.Equal(t, "discipline Physics is not completed", appErrors.FromError(err).Message)
	assert.Equal(t, 1, f.requirements.calls)
}

func TestEligibilityValidatorInfrastructureErrors(t *testing.T) {
	f := newEligibilityFixture()
	f.financial.err = errors.New("billing unavailable")

	err := f.validator.Validate(context.Background(), ActionTranscript, "student-1", secondaryTenant(), EligibilityOptions{})
	assert.True(t, appErrors.HasCode(err, appErrors.ErrStore))

	f.financial.err = nil
	f.requirements.err = errors.New("db down")
	err = f.validator.Validate(context.Background(), ActionTranscript, "student-1", secondaryTenant(), EligibilityOptions{})
	assert.True(t, appErrors.HasCode(err, appErrors.ErrStore))
}

type holdStoreStub struct {
	financial []models.FinancialHold
	academic  []models.AcademicHold
	err       error
}

func (s holdStoreStub) ActiveFinancial(ctx context.Context, tenantID, studentID string, category models.HoldCategory) ([]models.FinancialHold, error) {
	return s.financial, s.err
}

func (s holdStoreStub) ActiveAcademic(ctx context.Context, tenantID, studentID string, disciplineID, academicYearID *string) ([]models.AcademicHold, error) {
	return s.academic, s.err
}

func TestHoldService(t *testing.T) {
	clean := NewHoldService(holdStoreStub{})
	result, err := clean.Check(context.Background(), "student-1", "tenant-1", models.HoldCategoryDocuments)
	require.NoError(t, err)
	assert.False(t, result.Blocked)
	assert.NoError(t, clean.Ensure(context.Background(), "student-1", "tenant-1", models.AcademicTypeHigher, nil, nil))

	blocked := NewHoldService(holdStoreStub{
		financial: []models.FinancialHold{{Reason: "Library fine"}, {Reason: "Tuition"}},
		academic:  []models.AcademicHold{{Reason: "Missing final thesis"}},
	})
	result, err = blocked.Check(context.Background(), "student-1", "tenant-1", models.HoldCategoryDocuments)
	require.NoError(t, err)
	assert.Equal(t, models.FinancialHoldResult{Blocked: true, Reason: "Library fine"}, result)

	err = blocked.Ensure(context.Background(), "student-1", "tenant-1", models.AcademicTypeHigher, nil, nil)
	var hold *HoldError
	require.ErrorAs(t, err, &hold)
	assert.Equal(t, "Missing final thesis", hold.Reason)

	failing := NewHoldService(holdStoreStub{err: errors.New("boom")})
	_, err = failing.Check(context.Background(), "student-1", "tenant-1", models.HoldCategoryDocuments)
	assert.Error(t, err)
	err = failing.Ensure(context.Background(), "student-1", "tenant-1", models.AcademicTypeHigher, nil, nil)
	assert.False(t, errors.As(err, &hold))
}
