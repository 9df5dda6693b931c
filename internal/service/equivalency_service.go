package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/noah-isme/academic-records-api/internal/dto"
	"github.com/noah-isme/academic-records-api/internal/models"
	"github.com/noah-isme/academic-records-api/internal/repository"
	appErrors "github.com/noah-isme/academic-records-api/pkg/errors"
)

type equivalencyStore interface {
	Create(ctx context.Context, record *models.EquivalencyRecord) error
	FindByID(ctx context.Context, tenantID, id string) (*models.EquivalencyRecord, error)
	List(ctx context.Context, filter models.EquivalencyFilter) ([]models.EquivalencyRecord, int, error)
	ExistsDeferred(ctx context.Context, tenantID, studentID, destinationID, excludeID string) (bool, error)
	Update(ctx context.Context, record *models.EquivalencyRecord) (int64, error)
	Defer(ctx context.Context, record *models.EquivalencyRecord) (int64, error)
	Delete(ctx context.Context, tenantID, id string) (int64, error)
}

const msgDuplicateDeferred = "a deferred equivalency already exists for this destination discipline"

// DefaultHigherMinRatio is the minimum destination/origin hours ratio for higher education tenants.
var DefaultHigherMinRatio = decimal.RequireFromString("0.8")

// EquivalencyService adjudicates credit transfer. Deferral is terminal.
type EquivalencyService struct {
	repo      equivalencyStore
	students  studentReader
	audit     auditTrail
	metrics   *MetricsService
	validator *validator.Validate
	logger    *zap.Logger
	minRatio  decimal.Decimal
	now       func() time.Time
}

// NewEquivalencyService constructs an EquivalencyService. A non-positive minRatio falls back to the default.
func NewEquivalencyService(repo equivalencyStore, students studentReader, audit auditRecorder, metrics *MetricsService, validate *validator.Validate, logger *zap.Logger, minRatio decimal.Decimal) *EquivalencyService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	if !minRatio.IsPositive() {
		minRatio = DefaultHigherMinRatio
	}
	return &EquivalencyService{
		repo:      repo,
		students:  students,
		audit:     auditTrail{recorder: audit, source: "equivalency-service", logger: logger},
		metrics:   metrics,
		validator: validate,
		logger:    logger,
		minRatio:  minRatio,
		now:       time.Now,
	}
}

// Create registers a pending equivalency.
func (s *EquivalencyService) Create(ctx context.Context, tenant models.TenantContext, req dto.CreateEquivalencyRequest) (*models.EquivalencyRecord, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid payload")
	}
	if !tenant.AcademicType.Valid() {
		return nil, appErrors.Clone(appErrors.ErrValidation, msgAcademicTypeMissing)
	}
	if _, err := s.students.FindByID(ctx, tenant.TenantID, req.StudentID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "student not found")
		}
		return nil, appErrors.Store(err, "failed to load student")
	}

	record := &models.EquivalencyRecord{
		TenantID:                tenant.TenantID,
		StudentID:               req.StudentID,
		OriginDisciplineID:      trimmed(req.OriginDisciplineID),
		OriginExternalName:      trimmed(req.OriginExternalName),
		OriginInstitution:       trimmed(req.OriginInstitution),
		OriginHours:             req.OriginHours,
		DestinationDisciplineID: req.DestinationDisciplineID,
		DestinationHours:        req.DestinationHours,
		Criterion:               req.Criterion,
		Observation:             trimmed(req.Observation),
		CreatedBy:               tenant.ActorID,
	}
	if err := s.validateRecord(tenant.AcademicType, record); err != nil {
		return nil, err
	}
	if err := s.ensureNoDeferred(ctx, record, ""); err != nil {
		return nil, err
	}

	if err := s.repo.Create(ctx, record); err != nil {
		return nil, appErrors.Store(err, "failed to create equivalency")
	}

	s.metrics.EquivalencyTransition("created")
	s.audit.emit(ctx, tenant, models.AuditActionEquivalencyCreate, "equivalency_record", record.ID, nil, record)
	return record, nil
}

// Update edits a pending record, re-validating hours.
func (s *EquivalencyService) Update(ctx context.Context, tenant models.TenantContext, id string, req dto.UpdateEquivalencyRequest) (*models.EquivalencyRecord, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid payload")
	}
	record, err := s.mutable(ctx, tenant, id, "update")
	if err != nil {
		return nil, err
	}
	before := *record

	if req.OriginDisciplineID != nil || req.OriginExternalName != nil {
		record.OriginDisciplineID = trimmed(req.OriginDisciplineID)
		record.OriginExternalName = trimmed(req.OriginExternalName)
	}
	if req.OriginInstitution != nil {
		record.OriginInstitution = trimmed(req.OriginInstitution)
	}
	if req.OriginHours != nil {
		record.OriginHours = *req.OriginHours
	}
	if req.DestinationDisciplineID != nil {
		record.DestinationDisciplineID = *req.DestinationDisciplineID
	}
	if req.DestinationHours != nil {
		record.DestinationHours = *req.DestinationHours
	}
	if req.Criterion != nil {
		record.Criterion = *req.Criterion
	}
	if req.Observation != nil {
		record.Observation = trimmed(req.Observation)
	}

	if err := s.validateRecord(tenant.AcademicType, record); err != nil {
		return nil, err
	}
	if record.DestinationDisciplineID != before.DestinationDisciplineID {
		if err := s.ensureNoDeferred(ctx, record, record.ID); err != nil {
			return nil, err
		}
	}

	updated, err := s.repo.Update(ctx, record)
	if err != nil {
		return nil, appErrors.Store(err, "failed to update equivalency")
	}
	if updated == 0 {
		return nil, s.lostRace(ctx, tenant, id)
	}

	s.audit.emit(ctx, tenant, models.AuditActionEquivalencyUpdate, "equivalency_record", record.ID, before, record)
	return record, nil
}

// Defer approves a pending record. The record becomes immutable.
func (s *EquivalencyService) Defer(ctx context.Context, tenant models.TenantContext, id string) (*models.EquivalencyRecord, error) {
	record, err := s.mutable(ctx, tenant, id, "defer")
	if err != nil {
		return nil, err
	}
	if err := s.ensureNoDeferred(ctx, record, record.ID); err != nil {
		return nil, err
	}

	now := s.now().UTC()
	actor := tenant.ActorID
	record.Deferred = true
	record.DeferredBy = &actor
	record.DeferredAt = &now
	record.UpdatedAt = now
	record.Observation = appendDeferralNote(record.Observation, actor, now)

	updated, err := s.repo.Defer(ctx, record)
	if err != nil {
		if repository.IsUniqueViolation(err) {
			return nil, appErrors.Clone(appErrors.ErrConflict, msgDuplicateDeferred)
		}
		return nil, appErrors.Store(err, "failed to defer equivalency")
	}
	if updated == 0 {
		return nil, s.lostRace(ctx, tenant, id)
	}

	s.metrics.EquivalencyTransition("deferred")
	s.audit.emit(ctx, tenant, models.AuditActionEquivalencyDefer, "equivalency_record", record.ID, nil, record)
	s.logger.Info("equivalency deferred",
		zap.String("equivalency_id", record.ID),
		zap.String("student_id", record.StudentID),
		zap.String("destination_discipline_id", record.DestinationDisciplineID),
	)
	return record, nil
}

// Delete withdraws a pending record.
func (s *EquivalencyService) Delete(ctx context.Context, tenant models.TenantContext, id string) error {
	record, err := s.mutable(ctx, tenant, id, "delete")
	if err != nil {
		return err
	}
	deleted, err := s.repo.Delete(ctx, tenant.TenantID, id)
	if err != nil {
		return appErrors.Store(err, "failed to delete equivalency")
	}
	if deleted == 0 {
		return s.lostRace(ctx, tenant, id)
	}

	s.metrics.EquivalencyTransition("withdrawn")
	s.audit.emit(ctx, tenant, models.AuditActionEquivalencyDelete, "equivalency_record", id, record, nil)
	return nil
}

// Get returns one record of the tenant.
func (s *EquivalencyService) Get(ctx context.Context, tenant models.TenantContext, id string) (*models.EquivalencyRecord, error) {
	record, err := s.repo.FindByID(ctx, tenant.TenantID, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "equivalency not found")
		}
		return nil, appErrors.Store(err, "failed to load equivalency")
	}
	return record, nil
}

// List returns the tenant's records.
func (s *EquivalencyService) List(ctx context.Context, tenant models.TenantContext, filter models.EquivalencyFilter) ([]models.EquivalencyRecord, *models.Pagination, error) {
	filter.TenantID = tenant.TenantID
	filter.Normalize()
	records, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Store(err, "failed to list equivalencies")
	}
	return records, &models.Pagination{Page: filter.Page, PageSize: filter.PageSize, TotalCount: total}, nil
}

// mutable loads a record and runs it through the immutability guard.
func (s *EquivalencyService) mutable(ctx context.Context, tenant models.TenantContext, id, op string) (*models.EquivalencyRecord, error) {
	record, err := s.Get(ctx, tenant, id)
	if err != nil {
		return nil, err
	}
	if err := ensureMutable(record); err != nil {
		s.audit.emit(ctx, tenant, models.AuditActionImmutableRejected, "equivalency_record", id, nil, map[string]string{"operation": op})
		return nil, err
	}
	return record, nil
}

// lostRace explains a conditional write that matched no row.
func (s *EquivalencyService) lostRace(ctx context.Context, tenant models.TenantContext, id string) error {
	record, err := s.Get(ctx, tenant, id)
	if err != nil {
		return err
	}
	if err := ensureMutable(record); err != nil {
		return err
	}
	return appErrors.Clone(appErrors.ErrConflict, "equivalency was modified concurrently")
}

func (s *EquivalencyService) ensureNoDeferred(ctx context.Context, record *models.EquivalencyRecord, excludeID string) error {
	exists, err := s.repo.ExistsDeferred(ctx, record.TenantID, record.StudentID, record.DestinationDisciplineID, excludeID)
	if err != nil {
		return appErrors.Store(err, "failed to check deferred equivalencies")
	}
	if exists {
		return appErrors.Clone(appErrors.ErrConflict, msgDuplicateDeferred)
	}
	return nil
}

func (s *EquivalencyService) validateRecord(academicType models.AcademicType, record *models.EquivalencyRecord) error {
	hasID := record.OriginDisciplineID != nil
	hasName := record.OriginExternalName != nil
	if hasID == hasName {
		return appErrors.Clone(appErrors.ErrValidation, "exactly one of originDisciplineId or originExternalName is required")
	}
	if record.DestinationDisciplineID == "" {
		return appErrors.Clone(appErrors.ErrValidation, "destinationDisciplineId is required")
	}
	if hasID && *record.OriginDisciplineID == record.DestinationDisciplineID {
		return appErrors.Clone(appErrors.ErrValidation, "origin and destination disciplines must differ")
	}
	if !record.OriginHours.IsPositive() || !record.DestinationHours.IsPositive() {
		return appErrors.Clone(appErrors.ErrValidation, "hours must be positive")
	}
	return ValidateHours(academicType, record.OriginHours, record.DestinationHours, s.minRatio)
}

// ValidateHours enforces dest <= origin, and dest >= ratio*origin for higher education.
func ValidateHours(academicType models.AcademicType, origin, destination, minRatio decimal.Decimal) error {
	if destination.GreaterThan(origin) {
		return appErrors.Clone(appErrors.ErrValidation, "destination hours cannot exceed origin hours")
	}
	if academicType == models.AcademicTypeHigher && destination.LessThan(origin.Mul(minRatio)) {
		pct := minRatio.Mul(decimal.NewFromInt(100)).String()
		return appErrors.Clone(appErrors.ErrValidation,
			fmt.Sprintf("destination hours must be at least %s%% of origin hours (≥%s%% required)", pct, pct))
	}
	return nil
}

// appendDeferralNote keeps prior notes and adds the deferral stamp on its own line.
func appendDeferralNote(observation *string, actor string, at time.Time) *string {
	note := fmt.Sprintf("[deferred by %s at %s]", actor, at.Format(time.RFC3339))
	if observation != nil && *observation != "" {
		note = *observation + "\n" + note
	}
	return &note
}
