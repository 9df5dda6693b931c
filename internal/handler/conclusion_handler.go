package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/academic-records-api/internal/dto"
	"github.com/noah-isme/academic-records-api/internal/models"
	appErrors "github.com/noah-isme/academic-records-api/pkg/errors"
	"github.com/noah-isme/academic-records-api/pkg/response"
)

type conclusionService interface {
	Create(ctx context.Context, tenant models.TenantContext, req dto.CreateConclusionRequest) (*models.ConclusionRecord, error)
	Conclude(ctx context.Context, tenant models.TenantContext, id string, req dto.ConcludeRequest) (*models.ConclusionRecord, error)
	Update(ctx context.Context, tenant models.TenantContext, id string) error
	Delete(ctx context.Context, tenant models.TenantContext, id string) error
	CreateGraduation(ctx context.Context, tenant models.TenantContext, conclusionID string) (*models.GraduationRecord, error)
	CreateCertificateRecord(ctx context.Context, tenant models.TenantContext, conclusionID string) (*models.CertificateRecord, error)
	Get(ctx context.Context, tenant models.TenantContext, id string) (*models.ConclusionRecord, error)
	List(ctx context.Context, tenant models.TenantContext, filter models.ConclusionFilter) ([]models.ConclusionRecord, *models.Pagination, error)
	CanConclude(ctx context.Context, tenant models.TenantContext, req dto.RequirementsRequest) (*models.RequirementResult, error)
}

// ConclusionHandler exposes course/class conclusion endpoints.
type ConclusionHandler struct {
	service conclusionService
}

// NewConclusionHandler builds a new handler.
func NewConclusionHandler(service conclusionService) *ConclusionHandler {
	return &ConclusionHandler{service: service}
}

// Create godoc
// @Summary Register a validated conclusion record
// @Tags Conclusions
// @Accept json
// @Produce json
// @Param payload body dto.CreateConclusionRequest true "Conclusion payload"
// @Success 201 {object} response.Envelope
// @Failure 422 {object} response.Envelope
// @Router /conclusions [post]
func (h *ConclusionHandler) Create(c *gin.Context) {
	tenant, ok := tenantFromContext(c)
	if !ok {
		return
	}
	var req dto.CreateConclusionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, bindError(err, "invalid conclusion payload"))
		return
	}
	record, err := h.service.Create(c.Request.Context(), tenant, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, record)
}

// List godoc
// @Summary List conclusion records
// @Tags Conclusions
// @Produce json
// @Param studentId query string false "Student ID"
// @Param status query string false "VALIDATED or CONCLUDED"
// @Param page query int false "Page"
// @Param limit query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /conclusions [get]
func (h *ConclusionHandler) List(c *gin.Context) {
	tenant, ok := tenantFromContext(c)
	if !ok {
		return
	}
	filter := models.ConclusionFilter{
		StudentID: c.Query("studentId"),
		Status:    models.ConclusionStatus(c.Query("status")),
		Page:      parseQueryInt(c, "page", 1),
		PageSize:  parseQueryInt(c, "limit", 20),
	}
	records, pagination, err := h.service.List(c.Request.Context(), tenant, filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, records, pagination)
}

// Get godoc
// @Summary Get a conclusion record
// @Tags Conclusions
// @Produce json
// @Param id path string true "Conclusion ID"
// @Success 200 {object} response.Envelope
// @Router /conclusions/{id} [get]
func (h *ConclusionHandler) Get(c *gin.Context) {
	tenant, ok := tenantFromContext(c)
	if !ok {
		return
	}
	record, err := h.service.Get(c.Request.Context(), tenant, c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, record, nil)
}

// Conclude godoc
// @Summary Conclude a validated record and close the student's enrollments in scope
// @Tags Conclusions
// @Accept json
// @Produce json
// @Param id path string true "Conclusion ID"
// @Param payload body dto.ConcludeRequest false "Official act"
// @Success 200 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Router /conclusions/{id}/conclude [post]
func (h *ConclusionHandler) Conclude(c *gin.Context) {
	tenant, ok := tenantFromContext(c)
	if !ok {
		return
	}
	var req dto.ConcludeRequest
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			response.Error(c, bindError(err, "invalid conclude payload"))
			return
		}
	}
	record, err := h.service.Conclude(c.Request.Context(), tenant, c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, record, nil)
}

// Mutate godoc
// @Summary Conclusion records are immutable; edits and deletes are always rejected
// @Tags Conclusions
// @Param id path string true "Conclusion ID"
// @Failure 403 {object} response.Envelope
// @Router /conclusions/{id} [put]
// @Router /conclusions/{id} [patch]
// @Router /conclusions/{id} [delete]
func (h *ConclusionHandler) Mutate(c *gin.Context) {
	tenant, ok := tenantFromContext(c)
	if !ok {
		return
	}
	var err error
	if c.Request.Method == http.MethodDelete {
		err = h.service.Delete(c.Request.Context(), tenant, c.Param("id"))
	} else {
		err = h.service.Update(c.Request.Context(), tenant, c.Param("id"))
	}
	if err == nil {
		err = appErrors.Clone(appErrors.ErrForbidden, "immutable record")
	}
	response.Error(c, err)
}

// CreateGraduation godoc
// @Summary Create the graduation record of a concluded higher education record
// @Tags Conclusions
// @Produce json
// @Param id path string true "Conclusion ID"
// @Success 201 {object} response.Envelope
// @Router /conclusions/{id}/graduation [post]
func (h *ConclusionHandler) CreateGraduation(c *gin.Context) {
	tenant, ok := tenantFromContext(c)
	if !ok {
		return
	}
	record, err := h.service.CreateGraduation(c.Request.Context(), tenant, c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, record)
}

// CreateCertificateRecord godoc
// @Summary Create the certificate record of a concluded secondary education record
// @Tags Conclusions
// @Produce json
// @Param id path string true "Conclusion ID"
// @Success 201 {object} response.Envelope
// @Router /conclusions/{id}/certificate-record [post]
func (h *ConclusionHandler) CreateCertificateRecord(c *gin.Context) {
	tenant, ok := tenantFromContext(c)
	if !ok {
		return
	}
	record, err := h.service.CreateCertificateRecord(c.Request.Context(), tenant, c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, record)
}

// Requirements godoc
// @Summary Check whether a student meets the requirements to conclude
// @Tags Conclusions
// @Accept json
// @Produce json
// @Param payload body dto.RequirementsRequest true "Scope"
// @Success 200 {object} response.Envelope
// @Router /conclusions/requirements [post]
func (h *ConclusionHandler) Requirements(c *gin.Context) {
	tenant, ok := tenantFromContext(c)
	if !ok {
		return
	}
	var req dto.RequirementsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, bindError(err, "invalid requirements payload"))
		return
	}
	result, err := h.service.CanConclude(c.Request.Context(), tenant, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, nil)
}
