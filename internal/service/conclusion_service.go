package service

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	"github.com/noah-isme/academic-records-api/internal/dto"
	"github.com/noah-isme/academic-records-api/internal/models"
	"github.com/noah-isme/academic-records-api/internal/repository"
	"github.com/noah-isme/academic-records-api/pkg/database"
	appErrors "github.com/noah-isme/academic-records-api/pkg/errors"
)

type conclusionStore interface {
	Create(ctx context.Context, record *models.ConclusionRecord) error
	FindByID(ctx context.Context, tenantID, id string) (*models.ConclusionRecord, error)
	FindForUpdate(ctx context.Context, tx sqlx.ExtContext, tenantID, id string) (*models.ConclusionRecord, error)
	ExistsForScope(ctx context.Context, tenantID, studentID string, courseID, classID *string) (bool, error)
	List(ctx context.Context, filter models.ConclusionFilter) ([]models.ConclusionRecord, int, error)
	MarkConcluded(ctx context.Context, tx sqlx.ExtContext, tenantID, id, actorID string, actNumber *string, at time.Time) (int64, error)
	FindGraduation(ctx context.Context, q sqlx.QueryerContext, tenantID, conclusionID string) (*models.GraduationRecord, error)
	CreateGraduation(ctx context.Context, tx sqlx.ExtContext, record *models.GraduationRecord) error
	FindCertificate(ctx context.Context, q sqlx.QueryerContext, tenantID, conclusionID string) (*models.CertificateRecord, error)
	CreateCertificate(ctx context.Context, tx sqlx.ExtContext, record *models.CertificateRecord) error
}

type enrollmentCascade interface {
	ConcludeScope(ctx context.Context, tx sqlx.ExtContext, tenantID, studentID string, courseID, classID *string) (int64, error)
}

type eligibilityGate interface {
	Validate(ctx context.Context, action EligibilityAction, studentID string, tenant models.TenantContext, opts EligibilityOptions) error
}

type numberAllocator interface {
	Next(ctx context.Context, tx sqlx.ExtContext, tenantID string, series models.DocumentSeries) (string, error)
}

// ConclusionServiceDeps groups the collaborators of ConclusionService.
type ConclusionServiceDeps struct {
	DB           database.TxBeginner
	Repo         conclusionStore
	Enrollments  enrollmentCascade
	History      composedHistoryReader
	Eligibility  eligibilityGate
	Requirements RequirementsChecker
	Numbers      numberAllocator
	Audit        auditRecorder
	Metrics      *MetricsService
	Validator    *validator.Validate
	Logger       *zap.Logger
}

// ConclusionService runs the VALIDATED -> CONCLUDED workflow and its terminal sub-records.
type ConclusionService struct {
	db           database.TxBeginner
	repo         conclusionStore
	enrollments  enrollmentCascade
	history      composedHistoryReader
	eligibility  eligibilityGate
	requirements RequirementsChecker
	numbers      numberAllocator
	audit        auditTrail
	metrics      *MetricsService
	validator    *validator.Validate
	logger       *zap.Logger
	now          func() time.Time
}

// NewConclusionService constructs a ConclusionService.
func NewConclusionService(deps ConclusionServiceDeps) *ConclusionService {
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}
	if deps.Validator == nil {
		deps.Validator = validator.New()
	}
	return &ConclusionService{
		db:           deps.DB,
		repo:         deps.Repo,
		enrollments:  deps.Enrollments,
		history:      deps.History,
		eligibility:  deps.Eligibility,
		requirements: deps.Requirements,
		numbers:      deps.Numbers,
		audit:        auditTrail{recorder: deps.Audit, source: "conclusion-service", logger: deps.Logger},
		metrics:      deps.Metrics,
		validator:    deps.Validator,
		logger:       deps.Logger,
		now:          time.Now,
	}
}

// Create validates the student's record and persists a VALIDATED conclusion with consolidated metrics.
func (s *ConclusionService) Create(ctx context.Context, tenant models.TenantContext, req dto.CreateConclusionRequest) (*models.ConclusionRecord, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid payload")
	}
	scope, err := NewConclusionScope(tenant.AcademicType, req.CourseID, req.ClassID)
	if err != nil {
		return nil, err
	}
	courseID, classID := scope.Refs()

	if err := s.eligibility.Validate(ctx, ActionConclusion, req.StudentID, tenant, EligibilityOptions{CourseID: courseID, ClassID: classID}); err != nil {
		return nil, err
	}

	exists, err := s.repo.ExistsForScope(ctx, tenant.TenantID, req.StudentID, courseID, classID)
	if err != nil {
		return nil, appErrors.Store(err, "failed to check existing conclusion")
	}
	if exists {
		return nil, appErrors.Clone(appErrors.ErrConflict, "conclusion record already exists for this student and scope")
	}

	rows, err := s.history.Composed(ctx, models.HistoryQuery{
		TenantID:  tenant.TenantID,
		StudentID: req.StudentID,
		CourseID:  courseID,
		ClassID:   classID,
	})
	if err != nil {
		return nil, err
	}

	now := s.now().UTC()
	record := &models.ConclusionRecord{
		TenantID:          tenant.TenantID,
		StudentID:         req.StudentID,
		CourseID:          courseID,
		ClassID:           classID,
		Type:              scope.ConclusionType(),
		Status:            models.ConclusionStatusValidated,
		ConclusionMetrics: ComputeMetrics(rows),
		Notes:             trimmed(req.Notes),
		RegisteredBy:      tenant.ActorID,
		ValidatedBy:       tenant.ActorID,
		ValidatedAt:       now,
		CreatedAt:         now,
	}
	if err := s.repo.Create(ctx, record); err != nil {
		if repository.IsUniqueViolation(err) {
			return nil, appErrors.Clone(appErrors.ErrConflict, "conclusion record already exists for this student and scope")
		}
		return nil, appErrors.Store(err, "failed to create conclusion record")
	}

	s.metrics.ConclusionTransition("validated")
	s.audit.emit(ctx, tenant, models.AuditActionConclusionCreate, "conclusion_record", record.ID, nil, record)
	s.logger.Info("conclusion record validated",
		zap.String("conclusion_id", record.ID),
		zap.String("student_id", record.StudentID),
		zap.String("type", string(record.Type)),
	)
	return record, nil
}

// Conclude flips a VALIDATED record to CONCLUDED and cascades the status to the scope's enrollments.
func (s *ConclusionService) Conclude(ctx context.Context, tenant models.TenantContext, id string, req dto.ConcludeRequest) (record *models.ConclusionRecord, err error) {
	ctx, span := tracer.Start(ctx, "ConclusionService.Conclude")
	span.SetAttributes(attribute.String("tenant.id", tenant.TenantID), attribute.String("conclusion.id", id))
	defer func() { endSpan(span, err) }()

	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid payload")
	}

	var cascaded int64
	now := s.now().UTC()
	err = database.WithTx(ctx, s.db, nil, func(tx *sqlx.Tx) error {
		current, err := s.lock(ctx, tx, tenant.TenantID, id)
		if err != nil {
			return err
		}
		if current.Status != models.ConclusionStatusValidated {
			return appErrors.Clone(appErrors.ErrForbidden, "conclusion already concluded")
		}

		actNumber := trimmed(req.OfficialActNumber)
		updated, err := s.repo.MarkConcluded(ctx, tx, tenant.TenantID, id, tenant.ActorID, actNumber, now)
		if err != nil {
			return appErrors.Store(err, "failed to conclude record")
		}
		if updated == 0 {
			return appErrors.Clone(appErrors.ErrForbidden, "conclusion already concluded")
		}

		cascaded, err = s.enrollments.ConcludeScope(ctx, tx, tenant.TenantID, current.StudentID, current.CourseID, current.ClassID)
		if err != nil {
			return appErrors.Store(err, "failed to conclude enrollments")
		}

		actor := tenant.ActorID
		current.Status = models.ConclusionStatusConcluded
		current.ConcludedBy = &actor
		current.ConcludedAt = &now
		current.OfficialActNumber = actNumber
		record = current
		return nil
	})
	if err != nil {
		return nil, appErrors.Store(err, "failed to conclude record")
	}

	s.metrics.ConclusionTransition("concluded")
	s.audit.emit(ctx, tenant, models.AuditActionConclusionConclude, "conclusion_record", record.ID,
		map[string]string{"status": string(models.ConclusionStatusValidated)},
		map[string]interface{}{"status": record.Status, "official_act_number": record.OfficialActNumber, "enrollments_concluded": cascaded},
	)
	s.logger.Info("conclusion record concluded",
		zap.String("conclusion_id", record.ID),
		zap.String("student_id", record.StudentID),
		zap.Int64("enrollments_concluded", cascaded),
	)
	return record, nil
}

// Update always fails: conclusion records are immutable in every status.
func (s *ConclusionService) Update(ctx context.Context, tenant models.TenantContext, id string) error {
	return s.rejectMutation(ctx, tenant, id, "update")
}

// Delete always fails: conclusion records are immutable in every status.
func (s *ConclusionService) Delete(ctx context.Context, tenant models.TenantContext, id string) error {
	return s.rejectMutation(ctx, tenant, id, "delete")
}

func (s *ConclusionService) rejectMutation(ctx context.Context, tenant models.TenantContext, id, op string) error {
	record, err := s.Get(ctx, tenant, id)
	if err != nil {
		return err
	}
	if err := ensureMutable(record); err != nil {
		s.audit.emit(ctx, tenant, models.AuditActionImmutableRejected, "conclusion_record", id, nil, map[string]string{"operation": op})
		return err
	}
	return nil
}

// CreateGraduation issues the graduation record of a CONCLUDED higher education conclusion.
func (s *ConclusionService) CreateGraduation(ctx context.Context, tenant models.TenantContext, conclusionID string) (*models.GraduationRecord, error) {
	if tenant.AcademicType != models.AcademicTypeHigher {
		return nil, appErrors.Clone(appErrors.ErrValidation, "graduation records are only available for higher education")
	}

	var record *models.GraduationRecord
	err := database.WithTx(ctx, s.db, nil, func(tx *sqlx.Tx) error {
		if _, err := s.lockConcluded(ctx, tx, tenant.TenantID, conclusionID, models.ConclusionTypeHigher); err != nil {
			return err
		}
		existing, err := s.repo.FindGraduation(ctx, tx, tenant.TenantID, conclusionID)
		if err != nil && !errors.Is(err, sql.ErrNoRows) {
			return appErrors.Store(err, "failed to load graduation record")
		}
		if existing != nil {
			return appErrors.Clone(appErrors.ErrConflict, "graduation record already exists")
		}

		number, err := s.numbers.Next(ctx, tx, tenant.TenantID, models.SeriesGraduationRecord)
		if err != nil {
			return err
		}
		record = &models.GraduationRecord{TenantID: tenant.TenantID, ConclusionID: conclusionID, Number: number, CreatedBy: tenant.ActorID}
		if err := s.repo.CreateGraduation(ctx, tx, record); err != nil {
			if repository.IsUniqueViolation(err) {
				return appErrors.Clone(appErrors.ErrConflict, "graduation record already exists")
			}
			return appErrors.Store(err, "failed to create graduation record")
		}
		return nil
	})
	if err != nil {
		return nil, appErrors.Store(err, "failed to create graduation record")
	}

	s.metrics.ConclusionTransition("graduation_record")
	s.audit.emit(ctx, tenant, models.AuditActionGraduationCreate, "graduation_record", record.ID, nil, record)
	return record, nil
}

// CreateCertificateRecord issues the certificate record of a CONCLUDED secondary education conclusion.
func (s *ConclusionService) CreateCertificateRecord(ctx context.Context, tenant models.TenantContext, conclusionID string) (*models.CertificateRecord, error) {
	if tenant.AcademicType != models.AcademicTypeSecondary {
		return nil, appErrors.Clone(appErrors.ErrValidation, "certificate records are only available for secondary education")
	}

	var record *models.CertificateRecord
	err := database.WithTx(ctx, s.db, nil, func(tx *sqlx.Tx) error {
		if _, err := s.lockConcluded(ctx, tx, tenant.TenantID, conclusionID, models.ConclusionTypeSecondary); err != nil {
			return err
		}
		existing, err := s.repo.FindCertificate(ctx, tx, tenant.TenantID, conclusionID)
		if err != nil && !errors.Is(err, sql.ErrNoRows) {
			return appErrors.Store(err, "failed to load certificate record")
		}
		if existing != nil {
			return appErrors.Clone(appErrors.ErrConflict, "certificate record already exists")
		}

		number, err := s.numbers.Next(ctx, tx, tenant.TenantID, models.SeriesCertificateRecord)
		if err != nil {
			return err
		}
		record = &models.CertificateRecord{TenantID: tenant.TenantID, ConclusionID: conclusionID, Number: number, CreatedBy: tenant.ActorID}
		if err := s.repo.CreateCertificate(ctx, tx, record); err != nil {
			if repository.IsUniqueViolation(err) {
				return appErrors.Clone(appErrors.ErrConflict, "certificate record already exists")
			}
			return appErrors.Store(err, "failed to create certificate record")
		}
		return nil
	})
	if err != nil {
		return nil, appErrors.Store(err, "failed to create certificate record")
	}

	s.metrics.ConclusionTransition("certificate_record")
	s.audit.emit(ctx, tenant, models.AuditActionCertificateCreate, "certificate_record", record.ID, nil, record)
	return record, nil
}

// Get returns a conclusion record of the tenant.
func (s *ConclusionService) Get(ctx context.Context, tenant models.TenantContext, id string) (*models.ConclusionRecord, error) {
	record, err := s.repo.FindByID(ctx, tenant.TenantID, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "conclusion record not found")
		}
		return nil, appErrors.Store(err, "failed to load conclusion record")
	}
	return record, nil
}

// List returns the tenant's conclusion records.
func (s *ConclusionService) List(ctx context.Context, tenant models.TenantContext, filter models.ConclusionFilter) ([]models.ConclusionRecord, *models.Pagination, error) {
	filter.TenantID = tenant.TenantID
	filter.Normalize()
	records, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Store(err, "failed to list conclusion records")
	}
	return records, &models.Pagination{Page: filter.Page, PageSize: filter.PageSize, TotalCount: total}, nil
}

// CanConclude exposes the requirement check used by the eligibility pipeline.
func (s *ConclusionService) CanConclude(ctx context.Context, tenant models.TenantContext, req dto.RequirementsRequest) (*models.RequirementResult, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid payload")
	}
	if !tenant.AcademicType.Valid() {
		return nil, appErrors.Clone(appErrors.ErrValidation, msgAcademicTypeMissing)
	}
	return s.requirements.Check(ctx, req.StudentID, req.CourseID, req.ClassID, tenant.TenantID, tenant.AcademicType)
}

func (s *ConclusionService) lock(ctx context.Context, tx sqlx.ExtContext, tenantID, id string) (*models.ConclusionRecord, error) {
	record, err := s.repo.FindForUpdate(ctx, tx, tenantID, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "conclusion record not found")
		}
		return nil, appErrors.Store(err, "failed to load conclusion record")
	}
	return record, nil
}

// lockConcluded locks the parent of a terminal sub-record and checks it may receive one.
func (s *ConclusionService) lockConcluded(ctx context.Context, tx sqlx.ExtContext, tenantID, id string, want models.ConclusionType) (*models.ConclusionRecord, error) {
	parent, err := s.lock(ctx, tx, tenantID, id)
	if err != nil {
		return nil, err
	}
	if parent.Type != want {
		return nil, appErrors.Clone(appErrors.ErrValidation, "conclusion type does not match the requested record")
	}
	if parent.Status != models.ConclusionStatusConcluded {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "conclusion must be concluded first")
	}
	return parent, nil
}
