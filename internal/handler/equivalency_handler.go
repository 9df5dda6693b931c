package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/academic-records-api/internal/dto"
	"github.com/noah-isme/academic-records-api/internal/models"
	"github.com/noah-isme/academic-records-api/pkg/response"
)

type equivalencyService interface {
	Create(ctx context.Context, tenant models.TenantContext, req dto.CreateEquivalencyRequest) (*models.EquivalencyRecord, error)
	Update(ctx context.Context, tenant models.TenantContext, id string, req dto.UpdateEquivalencyRequest) (*models.EquivalencyRecord, error)
	Defer(ctx context.Context, tenant models.TenantContext, id string) (*models.EquivalencyRecord, error)
	Delete(ctx context.Context, tenant models.TenantContext, id string) error
	Get(ctx context.Context, tenant models.TenantContext, id string) (*models.EquivalencyRecord, error)
	List(ctx context.Context, tenant models.TenantContext, filter models.EquivalencyFilter) ([]models.EquivalencyRecord, *models.Pagination, error)
}

// EquivalencyHandler exposes credit equivalency endpoints.
type EquivalencyHandler struct {
	service equivalencyService
}

// NewEquivalencyHandler builds a new handler.
func NewEquivalencyHandler(service equivalencyService) *EquivalencyHandler {
	return &EquivalencyHandler{service: service}
}

// Create godoc
// @Summary Register a pending equivalency
// @Tags Equivalencies
// @Accept json
// @Produce json
// @Param payload body dto.CreateEquivalencyRequest true "Equivalency payload"
// @Success 201 {object} response.Envelope
// @Router /equivalencies [post]
func (h *EquivalencyHandler) Create(c *gin.Context) {
	tenant, ok := tenantFromContext(c)
	if !ok {
		return
	}
	var req dto.CreateEquivalencyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, bindError(err, "invalid equivalency payload"))
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
// @Summary List equivalencies
// @Tags Equivalencies
// @Produce json
// @Param studentId query string false "Student ID"
// @Param destinationDisciplineId query string false "Destination discipline"
// @Param deferred query bool false "Deferred filter"
// @Param page query int false "Page"
// @Param limit query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /equivalencies [get]
func (h *EquivalencyHandler) List(c *gin.Context) {
	tenant, ok := tenantFromContext(c)
	if !ok {
		return
	}
	filter := models.EquivalencyFilter{
		StudentID:               c.Query("studentId"),
		DestinationDisciplineID: c.Query("destinationDisciplineId"),
		Deferred:                parseQueryBool(c, "deferred"),
		Page:                    parseQueryInt(c, "page", 1),
		PageSize:                parseQueryInt(c, "limit", 20),
	}
	records, pagination, err := h.service.List(c.Request.Context(), tenant, filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, records, pagination)
}

// Get godoc
// @Summary Get an equivalency
// @Tags Equivalencies
// @Produce json
// @Param id path string true "Equivalency ID"
// @Success 200 {object} response.Envelope
// @Router /equivalencies/{id} [get]
func (h *EquivalencyHandler) Get(c *gin.Context) {
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

// Update godoc
// @Summary Edit a pending equivalency
// @Tags Equivalencies
// @Accept json
// @Produce json
// @Param id path string true "Equivalency ID"
// @Param payload body dto.UpdateEquivalencyRequest true "Fields to change"
// @Success 200 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Router /equivalencies/{id} [put]
func (h *EquivalencyHandler) Update(c *gin.Context) {
	tenant, ok := tenantFromContext(c)
	if !ok {
		return
	}
	var req dto.UpdateEquivalencyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, bindError(err, "invalid equivalency payload"))
		return
	}
	record, err := h.service.Update(c.Request.Context(), tenant, c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, record, nil)
}

// Defer godoc
// @Summary Defer an equivalency; the record becomes immutable
// @Tags Equivalencies
// @Produce json
// @Param id path string true "Equivalency ID"
// @Success 200 {object} response.Envelope
// @Router /equivalencies/{id}/defer [post]
func (h *EquivalencyHandler) Defer(c *gin.Context) {
	tenant, ok := tenantFromContext(c)
	if !ok {
		return
	}
	record, err := h.service.Defer(c.Request.Context(), tenant, c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, record, nil)
}

// Delete godoc
// @Summary Delete a pending equivalency
// @Tags Equivalencies
// @Param id path string true "Equivalency ID"
// @Success 204
// @Router /equivalencies/{id} [delete]
func (h *EquivalencyHandler) Delete(c *gin.Context) {
	tenant, ok := tenantFromContext(c)
	if !ok {
		return
	}
	if err := h.service.Delete(c.Request.Context(), tenant, c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
