package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/academic-records-api/internal/dto"
	"github.com/noah-isme/academic-records-api/internal/middleware"
	"github.com/noah-isme/academic-records-api/internal/models"
	appErrors "github.com/noah-isme/academic-records-api/pkg/errors"
	"github.com/noah-isme/academic-records-api/pkg/response"
)

type conclusionServiceMock struct {
	record      *models.ConclusionRecord
	err         error
	lastCreate  dto.CreateConclusionRequest
	lastFilter  models.ConclusionFilter
	lastTenant  models.TenantContext
	concludeReq dto.ConcludeRequest
	mutations   []string
	requirement *models.RequirementResult
}

func (m *conclusionServiceMock) Create(ctx context.Context, tenant models.TenantContext, req dto.CreateConclusionRequest) (*models.ConclusionRecord, error) {
	m.lastTenant = tenant
	m.lastCreate = req
	return m.record, m.err
}

func (m *conclusionServiceMock) Conclude(ctx context.Context, tenant models.TenantContext, id string, req dto.ConcludeRequest) (*models.ConclusionRecord, error) {
	m.concludeReq = req
	return m.record, m.err
}

func (m *conclusionServiceMock) Update(ctx context.Context, tenant models.TenantContext, id string) error {
	m.mutations = append(m.mutations, "update")
	return appErrors.Clone(appErrors.ErrForbidden, "immutable record")
}

func (m *conclusionServiceMock) Delete(ctx context.Context, tenant models.TenantContext, id string) error {
	m.mutations = append(m.mutations, "delete")
	return appErrors.Clone(appErrors.ErrForbidden, "immutable record")
}

func (m *conclusionServiceMock) CreateGraduation(ctx context.Context, tenant models.TenantContext, conclusionID string) (*models.GraduationRecord, error) {
	return &models.GraduationRecord{ConclusionID: conclusionID, Number: "GRAD-2026-000001"}, m.err
}

func (m *conclusionServiceMock) CreateCertificateRecord(ctx context.Context, tenant models.TenantContext, conclusionID string) (*models.CertificateRecord, error) {
	return &models.CertificateRecord{ConclusionID: conclusionID, Number: "CREC-2026-000001"}, m.err
}

func (m *conclusionServiceMock) Get(ctx context.Context, tenant models.TenantContext, id string) (*models.ConclusionRecord, error) {
	return m.record, m.err
}

func (m *conclusionServiceMock) List(ctx context.Context, tenant models.TenantContext, filter models.ConclusionFilter) ([]models.ConclusionRecord, *models.Pagination, error) {
	m.lastFilter = filter
	return []models.ConclusionRecord{*m.record}, &models.Pagination{Page: filter.Page, PageSize: filter.PageSize, TotalCount: 1}, m.err
}

func (m *conclusionServiceMock) CanConclude(ctx context.Context, tenant models.TenantContext, req dto.RequirementsRequest) (*models.RequirementResult, error) {
	return m.requirement, m.err
}

func testTenant() models.TenantContext {
	return models.TenantContext{TenantID: "tenant-1", AcademicType: models.AcademicTypeSecondary, ActorID: "user-1", ActorRoles: []models.UserRole{models.RoleSecretary}}
}

func newGinContext(method, path string, body []byte) (*gin.Context, *httptest.ResponseRecorder) {
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(method, path, bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	c.Request = req
	c.Set(middleware.ContextTenantKey, testTenant())
	return c, w
}

func decodeError(t *testing.T, w *httptest.ResponseRecorder) *appErrors.Error {
	var body response.Envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	require.NotNil(t, body.Error)
	return body.Error
}

func TestConclusionHandlerCreate(t *testing.T) {
	mockSvc := &conclusionServiceMock{record: &models.ConclusionRecord{ID: "conclusion-1", Status: models.ConclusionStatusValidated}}
	handler := NewConclusionHandler(mockSvc)

	c, w := newGinContext(http.MethodPost, "/conclusions", []byte(`{"studentId":"student-1","classId":"class-3a"}`))
	handler.Create(c)

	require.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, "student-1", mockSvc.lastCreate.StudentID)
	assert.Equal(t, "class-3a", *mockSvc.lastCreate.ClassID)
	assert.Equal(t, "tenant-1", mockSvc.lastTenant.TenantID)
}

func TestConclusionHandlerCreateEligibilityBlocked(t *testing.T) {
	mockSvc := &conclusionServiceMock{err: appErrors.Clone(appErrors.ErrEligibility, "outstanding tuition")}
	handler := NewConclusionHandler(mockSvc)

	c, w := newGinContext(http.MethodPost, "/conclusions", []byte(`{"studentId":"student-1"}`))
	handler.Create(c)

	require.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Equal(t, "outstanding tuition", decodeError(t, w).Message)
}

func TestConclusionHandlerRequiresTenant(t *testing.T) {
	handler := NewConclusionHandler(&conclusionServiceMock{})
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request, _ = http.NewRequest(http.MethodGet, "/conclusions", nil)

	handler.List(c)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestConclusionHandlerMutationsAlwaysForbidden(t *testing.T) {
	mockSvc := &conclusionServiceMock{}
	handler := NewConclusionHandler(mockSvc)

	for _, method := range []string{http.MethodPut, http.MethodPatch, http.MethodDelete} {
		c, w := newGinContext(method, "/conclusions/conclusion-1", []byte(`{"notes":"edited"}`))
		c.Params = gin.Params{{Key: "id", Value: "conclusion-1"}}
		handler.Mutate(c)
		assert.Equal(t, http.StatusForbidden, w.Code, method)
	}
	assert.Equal(t, []string{"update", "update", "delete"}, mockSvc.mutations)
}

func TestConclusionHandlerConclude(t *testing.T) {
	mockSvc := &conclusionServiceMock{record: &models.ConclusionRecord{ID: "conclusion-1", Status: models.ConclusionStatusConcluded}}
	handler := NewConclusionHandler(mockSvc)

	c, w := newGinContext(http.MethodPost, "/conclusions/conclusion-1/conclude", []byte(`{"officialActNumber":"ACT-1"}`))
	c.Params = gin.Params{{Key: "id", Value: "conclusion-1"}}
	handler.Conclude(c)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "ACT-1", *mockSvc.concludeReq.OfficialActNumber)

	mockSvc.err = appErrors.Clone(appErrors.ErrForbidden, "conclusion already concluded")
	c, w = newGinContext(http.MethodPost, "/conclusions/conclusion-1/conclude", nil)
	c.Params = gin.Params{{Key: "id", Value: "conclusion-1"}}
	handler.Conclude(c)
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestConclusionHandlerListParsesFilter(t *testing.T) {
	mockSvc := &conclusionServiceMock{record: &models.ConclusionRecord{ID: "conclusion-1"}}
	handler := NewConclusionHandler(mockSvc)

	c, w := newGinContext(http.MethodGet, "/conclusions?studentId=student-1&status=CONCLUDED&page=2&limit=5", nil)
	handler.List(c)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, models.ConclusionFilter{StudentID: "student-1", Status: models.ConclusionStatusConcluded, Page: 2, PageSize: 5}, mockSvc.lastFilter)
}

func TestConclusionHandlerTerminalRecords(t *testing.T) {
	handler := NewConclusionHandler(&conclusionServiceMock{})

	c, w := newGinContext(http.MethodPost, "/conclusions/conclusion-1/graduation", nil)
	c.Params = gin.Params{{Key: "id", Value: "conclusion-1"}}
	handler.CreateGraduation(c)
	require.Equal(t, http.StatusCreated, w.Code)
	assert.Contains(t, w.Body.String(), "GRAD-2026-000001")

	c, w = newGinContext(http.MethodPost, "/conclusions/conclusion-1/certificate-record", nil)
	c.Params = gin.Params{{Key: "id", Value: "conclusion-1"}}
	handler.CreateCertificateRecord(c)
	require.Equal(t, http.StatusCreated, w.Code)
	assert.Contains(t, w.Body.String(), "CREC-2026-000001")
}

func TestConclusionHandlerRequirements(t *testing.T) {
	mockSvc := &conclusionServiceMock{requirement: &models.RequirementResult{Valid: false, Errors: []string{"discipline MATH is not completed"}}}
	handler := NewConclusionHandler(mockSvc)

	c, w := newGinContext(http.MethodPost, "/conclusions/requirements", []byte(`{"studentId":"student-1","classId":"class-3a"}`))
	handler.Requirements(c)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "discipline MATH is not completed")

	c, w = newGinContext(http.MethodPost, "/conclusions/requirements", []byte(`{"studentId":`))
	handler.Requirements(c)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
