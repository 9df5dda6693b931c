package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/noah-isme/academic-records-api/internal/dto"
	"github.com/noah-isme/academic-records-api/internal/models"
	"github.com/noah-isme/academic-records-api/internal/repository"
	"github.com/noah-isme/academic-records-api/pkg/database"
	appErrors "github.com/noah-isme/academic-records-api/pkg/errors"
	"github.com/noah-isme/academic-records-api/pkg/export"
	"github.com/noah-isme/academic-records-api/pkg/storage"
)

const (
	maxCodeAttempts    = 5
	registerPageSize   = 500
	verifyCacheKeyBase = "documents:verify:"
)

// errCodeTaken reports a verification code inserted by a concurrent issuer after our check.
var errCodeTaken = errors.New("verification code taken")

type documentStore interface {
	Insert(ctx context.Context, tx sqlx.ExtContext, doc *models.IssuedDocument) error
	CodeExists(ctx context.Context, q sqlx.QueryerContext, code string) (bool, error)
	FindByID(ctx context.Context, tenantID, id string) (*models.IssuedDocument, error)
	FindByCode(ctx context.Context, code string) (*models.IssuedDocument, error)
	List(ctx context.Context, filter models.DocumentFilter) ([]models.IssuedDocument, int, error)
	Void(ctx context.Context, tenantID, id, actorID, reason string, at time.Time) (int64, error)
}

type documentComposer interface {
	Scope(ctx context.Context, tenant models.TenantContext, req DocumentRequest) (EligibilityOptions, error)
	Compose(ctx context.Context, tenant models.TenantContext, req DocumentRequest, number string, issuedAt time.Time) (*models.DocumentPayload, error)
}

type documentRenderer interface {
	Render(doc export.Document) ([]byte, error)
}

type artifactStorage interface {
	Save(filename string, data []byte) (string, error)
	Read(filename string) ([]byte, error)
	Delete(filename string) error
}

type downloadSigner interface {
	Generate(documentID, relPath string) (string, time.Time, error)
	Parse(token string) (documentID, relPath string, expiresAt time.Time, err error)
}

type seriesLocker interface {
	Acquire(ctx context.Context, tenantID, series string) func()
}

type datasetRenderer interface {
	Render(data export.Dataset) ([]byte, error)
}

// IssueResult is returned by a successful issuance.
type IssueResult struct {
	Document          *models.IssuedDocument
	Artifact          []byte
	ContentType       string
	DownloadURL       string
	DownloadExpiresAt *time.Time
}

// DocumentArtifact is a file ready to be served.
type DocumentArtifact struct {
	Filename    string
	ContentType string
	Data        []byte
}

// DocumentServiceConfig carries presentation settings.
type DocumentServiceConfig struct {
	APIPrefix string
	CacheTTL  time.Duration
}

// DocumentServiceDeps groups the collaborators of DocumentService.
type DocumentServiceDeps struct {
	DB          database.TxBeginner
	Repo        documentStore
	Tenants     tenantReader
	Students    studentReader
	Eligibility eligibilityGate
	Numbers     numberAllocator
	Composer    documentComposer
	Renderer    documentRenderer
	Storage     artifactStorage
	Signer      downloadSigner
	Locker      seriesLocker
	Cache       *CacheService
	Audit       auditRecorder
	Metrics     *MetricsService
	Validator   *validator.Validate
	Logger      *zap.Logger
	Config      DocumentServiceConfig
}

// DocumentService issues, verifies and voids official documents.
type DocumentService struct {
	db          database.TxBeginner
	repo        documentStore
	tenants     tenantReader
	students    studentReader
	eligibility eligibilityGate
	numbers     numberAllocator
	composer    documentComposer
	renderer    documentRenderer
	storage     artifactStorage
	signer      downloadSigner
	locker      seriesLocker
	cache       *CacheService
	audit       auditTrail
	metrics     *MetricsService
	validator   *validator.Validate
	logger      *zap.Logger
	cfg         DocumentServiceConfig
	exporters   map[export.RegisterFormat]datasetRenderer
	verifyGroup singleflight.Group
	newCode     func() (string, error)
	now         func() time.Time
}

// NewDocumentService constructs a DocumentService.
func NewDocumentService(deps DocumentServiceDeps) *DocumentService {
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}
	if deps.Validator == nil {
		deps.Validator = validator.New()
	}
	if deps.Renderer == nil {
		deps.Renderer = export.NewDocumentRenderer()
	}
	if deps.Config.APIPrefix == "" {
		deps.Config.APIPrefix = "/api/v1"
	}
	return &DocumentService{
		db:          deps.DB,
		repo:        deps.Repo,
		tenants:     deps.Tenants,
		students:    deps.Students,
		eligibility: deps.Eligibility,
		numbers:     deps.Numbers,
		composer:    deps.Composer,
		renderer:    deps.Renderer,
		storage:     deps.Storage,
		signer:      deps.Signer,
		locker:      deps.Locker,
		cache:       deps.Cache,
		audit:       auditTrail{recorder: deps.Audit, source: "document-service", logger: deps.Logger},
		metrics:     deps.Metrics,
		validator:   deps.Validator,
		logger:      deps.Logger,
		cfg:         deps.Config,
		exporters: map[export.RegisterFormat]datasetRenderer{
			export.FormatCSV:  export.NewCSVExporter(),
			export.FormatXLSX: export.NewXLSXExporter("Register"),
		},
		newCode: NewVerificationCode,
		now:     time.Now,
	}
}

// Issue validates eligibility, then allocates the number, composes, renders and persists the
// document in one transaction. A failure before commit leaves no number and no row behind.
func (s *DocumentService) Issue(ctx context.Context, tenant models.TenantContext, req dto.IssueDocumentRequest) (result *IssueResult, err error) {
	ctx, span := tracer.Start(ctx, "DocumentService.Issue")
	span.SetAttributes(attribute.String("tenant.id", tenant.TenantID), attribute.String("document.kind", string(req.Kind)))
	defer func() { endSpan(span, err) }()

	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid payload")
	}
	docReq, err := NewDocumentRequest(req)
	if err != nil {
		return nil, err
	}
	opts, err := s.composer.Scope(ctx, tenant, docReq)
	if err != nil {
		return nil, err
	}
	if err := s.eligibility.Validate(ctx, ActionForKind(docReq.Kind()), docReq.Student(), tenant, opts); err != nil {
		return nil, err
	}

	series := docReq.Kind().Series()
	if s.locker != nil {
		release := s.locker.Acquire(ctx, tenant.TenantID, string(series))
		defer release()
	}

	var (
		doc        *models.IssuedDocument
		artifact   []byte
		storedPath string
	)
	for attempt := 1; ; attempt++ {
		doc, artifact, storedPath, err = s.issueOnce(ctx, tenant, docReq, series)
		if !errors.Is(err, errCodeTaken) {
			break
		}
		if attempt == maxCodeAttempts {
			return nil, appErrors.Clone(appErrors.ErrInternal, "could not allocate a unique verification code")
		}
		s.logger.Warn("verification code taken concurrently; retrying issuance", zap.Int("attempt", attempt))
	}
	if err != nil {
		return nil, appErrors.Store(err, "failed to issue document")
	}

	result = &IssueResult{Document: doc, Artifact: artifact, ContentType: export.PDFContentType}
	if s.signer != nil && storedPath != "" {
		token, expiresAt, signErr := s.signer.Generate(doc.ID, storedPath)
		if signErr != nil {
			s.logger.Warn("failed to sign download url", zap.String("document_id", doc.ID), zap.Error(signErr))
		} else {
			result.DownloadURL = fmt.Sprintf("%s/documents/download/%s", s.cfg.APIPrefix, token)
			result.DownloadExpiresAt = &expiresAt
		}
	}

	s.metrics.DocumentIssued(string(doc.Kind))
	s.audit.emit(ctx, tenant, models.AuditActionDocumentIssue, "issued_document", doc.ID, nil, map[string]string{
		"kind":       string(doc.Kind),
		"number":     doc.Number,
		"student_id": doc.StudentID,
	})
	s.logger.Info("document issued",
		zap.String("document_id", doc.ID),
		zap.String("kind", string(doc.Kind)),
		zap.String("number", doc.Number),
		zap.String("student_id", doc.StudentID),
	)
	span.SetAttributes(attribute.String("document.number", doc.Number))
	return result, nil
}

// issueOnce runs one issuance transaction. A stored artifact is removed when the transaction fails.
func (s *DocumentService) issueOnce(ctx context.Context, tenant models.TenantContext, docReq DocumentRequest, series models.DocumentSeries) (*models.IssuedDocument, []byte, string, error) {
	var (
		doc        *models.IssuedDocument
		artifact   []byte
		storedPath string
	)
	err := database.WithTx(ctx, s.db, nil, func(tx *sqlx.Tx) error {
		number, err := s.numbers.Next(ctx, tx, tenant.TenantID, series)
		if err != nil {
			return err
		}
		issuedAt := s.now().UTC()
		payload, err := s.composer.Compose(ctx, tenant, docReq, number, issuedAt)
		if err != nil {
			return err
		}
		code, err := s.uniqueCode(ctx, tx)
		if err != nil {
			return err
		}
		hash := DocumentHash(tenant.TenantID, number, code)

		raw, err := json.Marshal(payload)
		if err != nil {
			return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to encode document payload")
		}
		artifact, err = s.renderer.Render(Layout(payload, code, hash))
		if err != nil {
			return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render document")
		}

		doc = &models.IssuedDocument{
			TenantID:         tenant.TenantID,
			StudentID:        docReq.Student(),
			Kind:             docReq.Kind(),
			Series:           series,
			Number:           number,
			VerificationCode: code,
			Hash:             hash,
			Payload:          raw,
			Status:           models.DocumentStatusActive,
			IssuedBy:         tenant.ActorID,
			IssuedAt:         issuedAt,
		}
		if s.storage != nil {
			path := storage.ArtifactPath(tenant.TenantID, number, "pdf")
			doc.StoragePath = &path
		}
		if err := s.repo.Insert(ctx, tx, doc); err != nil {
			if repository.IsConstraintViolation(err, repository.VerificationCodeConstraint) {
				return errCodeTaken
			}
			if repository.IsUniqueViolation(err) {
				return appErrors.Clone(appErrors.ErrConflict, "document number already issued")
			}
			return appErrors.Store(err, "failed to persist document")
		}
		if doc.StoragePath != nil {
			if _, err := s.storage.Save(*doc.StoragePath, artifact); err != nil {
				return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to store document artifact")
			}
			storedPath = *doc.StoragePath
		}
		return nil
	})
	if err != nil {
		if storedPath != "" {
			if delErr := s.storage.Delete(storedPath); delErr != nil {
				s.logger.Warn("failed to remove artifact of rolled back document", zap.String("path", storedPath), zap.Error(delErr))
			}
		}
		return nil, nil, "", err
	}
	return doc, artifact, storedPath, nil
}

// Verify is the public lookup behind a printed verification code.
func (s *DocumentService) Verify(ctx context.Context, rawCode string) (*models.DocumentVerification, error) {
	code, ok := NormalizeVerificationCode(rawCode)
	if !ok {
		return nil, appErrors.Clone(appErrors.ErrValidation, "verification code must be 8 hexadecimal characters")
	}
	key := verifyCacheKey(code)

	var cached models.DocumentVerification
	if s.cache.Get(ctx, key, &cached) {
		return &cached, nil
	}

	// Callers sharing a flight must not inherit the first caller's cancellation.
	lookupCtx := context.WithoutCancel(ctx)
	v, err, _ := s.verifyGroup.Do(key, func() (interface{}, error) {
		return s.lookupVerification(lookupCtx, code)
	})
	if err != nil {
		return nil, err
	}
	verification := v.(*models.DocumentVerification)
	s.cache.Set(ctx, key, verification, s.cfg.CacheTTL)
	out := *verification
	return &out, nil
}

func (s *DocumentService) lookupVerification(ctx context.Context, code string) (*models.DocumentVerification, error) {
	doc, err := s.repo.FindByCode(ctx, code)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "document not found")
		}
		return nil, appErrors.Store(err, "failed to load document")
	}
	verification := &models.DocumentVerification{
		TenantID:         doc.TenantID,
		Kind:             doc.Kind,
		Number:           doc.Number,
		IssuedAt:         doc.IssuedAt,
		Status:           doc.Status,
		VerificationCode: doc.VerificationCode,
		HashValid:        DocumentHash(doc.TenantID, doc.Number, doc.VerificationCode) == doc.Hash,
	}
	if tenant, err := s.tenants.FindByID(ctx, doc.TenantID); err == nil {
		verification.TenantName = tenant.Name
	} else if !errors.Is(err, sql.ErrNoRows) {
		return nil, appErrors.Store(err, "failed to load tenant")
	}
	if student, err := s.students.FindByID(ctx, doc.TenantID, doc.StudentID); err == nil {
		verification.StudentName = student.FullName
	} else if !errors.Is(err, sql.ErrNoRows) {
		return nil, appErrors.Store(err, "failed to load student")
	}
	return verification, nil
}

// Void flips an ACTIVE document to VOID once. Its number is never reused.
func (s *DocumentService) Void(ctx context.Context, tenant models.TenantContext, id string, req dto.VoidDocumentRequest) (*models.IssuedDocument, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid payload")
	}
	doc, err := s.Get(ctx, tenant, id)
	if err != nil {
		return nil, err
	}
	if doc.Status == models.DocumentStatusVoid {
		return nil, appErrors.Clone(appErrors.ErrConflict, "document already void")
	}

	now := s.now().UTC()
	updated, err := s.repo.Void(ctx, tenant.TenantID, id, tenant.ActorID, req.Reason, now)
	if err != nil {
		return nil, appErrors.Store(err, "failed to void document")
	}
	if updated == 0 {
		return nil, appErrors.Clone(appErrors.ErrConflict, "document already void")
	}

	s.cache.Invalidate(ctx, verifyCacheKey(doc.VerificationCode))
	actor := tenant.ActorID
	reason := req.Reason
	doc.Status = models.DocumentStatusVoid
	doc.VoidedBy = &actor
	doc.VoidedAt = &now
	doc.VoidReason = &reason

	s.audit.emit(ctx, tenant, models.AuditActionDocumentVoid, "issued_document", doc.ID,
		map[string]string{"status": string(models.DocumentStatusActive)},
		map[string]string{"status": string(models.DocumentStatusVoid), "reason": reason},
	)
	s.logger.Info("document voided", zap.String("document_id", doc.ID), zap.String("number", doc.Number))
	return doc, nil
}

// Get returns one document of the tenant.
func (s *DocumentService) Get(ctx context.Context, tenant models.TenantContext, id string) (*models.IssuedDocument, error) {
	doc, err := s.repo.FindByID(ctx, tenant.TenantID, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "document not found")
		}
		return nil, appErrors.Store(err, "failed to load document")
	}
	return doc, nil
}

// List returns the tenant's documents.
func (s *DocumentService) List(ctx context.Context, tenant models.TenantContext, filter models.DocumentFilter) ([]models.IssuedDocument, *models.Pagination, error) {
	filter.TenantID = tenant.TenantID
	filter.Normalize()
	docs, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Store(err, "failed to list documents")
	}
	return docs, &models.Pagination{Page: filter.Page, PageSize: filter.PageSize, TotalCount: total}, nil
}

// Download serves a stored artifact through a signed token.
func (s *DocumentService) Download(ctx context.Context, token string) (*DocumentArtifact, error) {
	if s.signer == nil || s.storage == nil {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "downloads are not enabled")
	}
	_, relPath, _, err := s.signer.Parse(token)
	if err != nil {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "invalid or expired download link")
	}
	data, err := s.storage.Read(relPath)
	if err != nil {
		if errors.Is(err, storage.ErrNotStored) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "document file not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to read document file")
	}
	return &DocumentArtifact{Filename: filepath.Base(relPath), ContentType: export.PDFContentType, Data: data}, nil
}

// Artifact returns the stored PDF, or reproduces it from the embedded payload snapshot.
func (s *DocumentService) Artifact(ctx context.Context, tenant models.TenantContext, id string) (*DocumentArtifact, error) {
	doc, err := s.Get(ctx, tenant, id)
	if err != nil {
		return nil, err
	}
	filename := doc.Number + ".pdf"
	if doc.StoragePath != nil && s.storage != nil {
		data, err := s.storage.Read(*doc.StoragePath)
		if err == nil {
			return &DocumentArtifact{Filename: filename, ContentType: export.PDFContentType, Data: data}, nil
		}
		s.logger.Warn("stored artifact unavailable; re-rendering", zap.String("document_id", doc.ID), zap.Error(err))
	}
	data, err := s.Reproduce(doc)
	if err != nil {
		return nil, err
	}
	return &DocumentArtifact{Filename: filename, ContentType: export.PDFContentType, Data: data}, nil
}

// Reproduce renders a document again from its payload snapshot.
func (s *DocumentService) Reproduce(doc *models.IssuedDocument) ([]byte, error) {
	var payload models.DocumentPayload
	if err := json.Unmarshal(doc.Payload, &payload); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to decode document payload")
	}
	data, err := s.renderer.Render(Layout(&payload, doc.VerificationCode, doc.Hash))
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render document")
	}
	return data, nil
}

// ExportRegister renders the issued documents register matching filter.
func (s *DocumentService) ExportRegister(ctx context.Context, tenant models.TenantContext, filter models.DocumentFilter, format export.RegisterFormat) (*DocumentArtifact, error) {
	if format == "" {
		format = export.FormatCSV
	}
	exporter, ok := s.exporters[format]
	if !ok {
		return nil, appErrors.Clone(appErrors.ErrValidation, "format must be csv or xlsx")
	}

	data := export.Dataset{
		Title:   "Issued documents",
		Headers: []string{"Number", "Kind", "Student", "Issued At", "Issued By", "Status", "Verification Code"},
	}
	filter.TenantID = tenant.TenantID
	filter.PageSize = registerPageSize
	for page := 1; ; page++ {
		filter.Page = page
		docs, total, err := s.repo.List(ctx, filter)
		if err != nil {
			return nil, appErrors.Store(err, "failed to list documents")
		}
		for _, doc := range docs {
			data.Rows = append(data.Rows, map[string]string{
				"Number":            doc.Number,
				"Kind":              string(doc.Kind),
				"Student":           doc.StudentID,
				"Issued At":         doc.IssuedAt.Format(time.RFC3339),
				"Issued By":         doc.IssuedBy,
				"Status":            string(doc.Status),
				"Verification Code": doc.VerificationCode,
			})
		}
		if len(docs) == 0 || len(data.Rows) >= total {
			break
		}
	}

	body, err := exporter.Render(data)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render register")
	}
	return &DocumentArtifact{
		Filename:    fmt.Sprintf("documents-register-%s.%s", s.now().UTC().Format("20060102"), format),
		ContentType: format.ContentType(),
		Data:        body,
	}, nil
}

// uniqueCode draws verification codes until one is unused.
func (s *DocumentService) uniqueCode(ctx context.Context, q sqlx.QueryerContext) (string, error) {
	for i := 0; i < maxCodeAttempts; i++ {
		code, err := s.newCode()
		if err != nil {
			return "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to generate verification code")
		}
		exists, err := s.repo.CodeExists(ctx, q, code)
		if err != nil {
			return "", appErrors.Store(err, "failed to check verification code")
		}
		if !exists {
			return code, nil
		}
	}
	return "", appErrors.Clone(appErrors.ErrInternal, "could not allocate a unique verification code")
}

func verifyCacheKey(code string) string {
	return verifyCacheKeyBase + code
}
