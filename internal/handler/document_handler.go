package handler

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/academic-records-api/internal/dto"
	"github.com/noah-isme/academic-records-api/internal/models"
	"github.com/noah-isme/academic-records-api/internal/service"
	"github.com/noah-isme/academic-records-api/pkg/export"
	"github.com/noah-isme/academic-records-api/pkg/response"
)

const (
	headerDocumentID       = "X-Document-Id"
	headerDocumentNumber   = "X-Document-Number"
	headerVerificationCode = "X-Verification-Code"
)

type documentService interface {
	Issue(ctx context.Context, tenant models.TenantContext, req dto.IssueDocumentRequest) (*service.IssueResult, error)
	Verify(ctx context.Context, code string) (*models.DocumentVerification, error)
	Void(ctx context.Context, tenant models.TenantContext, id string, req dto.VoidDocumentRequest) (*models.IssuedDocument, error)
	Get(ctx context.Context, tenant models.TenantContext, id string) (*models.IssuedDocument, error)
	List(ctx context.Context, tenant models.TenantContext, filter models.DocumentFilter) ([]models.IssuedDocument, *models.Pagination, error)
	Download(ctx context.Context, token string) (*service.DocumentArtifact, error)
	Artifact(ctx context.Context, tenant models.TenantContext, id string) (*service.DocumentArtifact, error)
	ExportRegister(ctx context.Context, tenant models.TenantContext, filter models.DocumentFilter, format export.RegisterFormat) (*service.DocumentArtifact, error)
}

// DocumentHandler exposes document issuance and public verification endpoints.
type DocumentHandler struct {
	service documentService
}

// NewDocumentHandler builds a new handler.
func NewDocumentHandler(service documentService) *DocumentHandler {
	return &DocumentHandler{service: service}
}

// Issue godoc
// @Summary Issue an official document
// @Description Returns the PDF, or the document metadata when Accept is application/json.
// @Tags Documents
// @Accept json
// @Produce application/pdf,json
// @Param payload body dto.IssueDocumentRequest true "Document request"
// @Success 200 {file} binary
// @Success 201 {object} response.Envelope
// @Failure 422 {object} response.Envelope
// @Router /documents [post]
func (h *DocumentHandler) Issue(c *gin.Context) {
	tenant, ok := tenantFromContext(c)
	if !ok {
		return
	}
	var req dto.IssueDocumentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, bindError(err, "invalid document payload"))
		return
	}
	result, err := h.service.Issue(c.Request.Context(), tenant, req)
	if err != nil {
		response.Error(c, err)
		return
	}

	doc := result.Document
	if wantsJSON(c) {
		response.Created(c, dto.IssueDocumentResponse{
			ID:               doc.ID,
			Kind:             doc.Kind,
			Number:           doc.Number,
			VerificationCode: doc.VerificationCode,
			Hash:             doc.Hash,
			DownloadURL:      result.DownloadURL,
			DownloadExpires:  result.DownloadExpiresAt,
		})
		return
	}
	response.Attachment(c, result.ContentType, doc.Number+".pdf", result.Artifact, map[string]string{
		headerDocumentID:       doc.ID,
		headerDocumentNumber:   doc.Number,
		headerVerificationCode: doc.VerificationCode,
	})
}

// List godoc
// @Summary List issued documents
// @Tags Documents
// @Produce json
// @Param studentId query string false "Student ID"
// @Param kind query string false "Document kind"
// @Param status query string false "ACTIVE or VOID"
// @Param from query string false "Issued from (YYYY-MM-DD)"
// @Param to query string false "Issued to (YYYY-MM-DD)"
// @Param page query int false "Page"
// @Param limit query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /documents [get]
func (h *DocumentHandler) List(c *gin.Context) {
	tenant, ok := tenantFromContext(c)
	if !ok {
		return
	}
	filter, err := documentFilter(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	docs, pagination, err := h.service.List(c.Request.Context(), tenant, filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, docs, pagination)
}

// Get godoc
// @Summary Get an issued document
// @Tags Documents
// @Produce json
// @Param id path string true "Document ID"
// @Success 200 {object} response.Envelope
// @Router /documents/{id} [get]
func (h *DocumentHandler) Get(c *gin.Context) {
	tenant, ok := tenantFromContext(c)
	if !ok {
		return
	}
	doc, err := h.service.Get(c.Request.Context(), tenant, c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, doc, nil)
}

// PDF godoc
// @Summary Download the PDF of an issued document
// @Tags Documents
// @Produce application/pdf
// @Param id path string true "Document ID"
// @Success 200 {file} binary
// @Router /documents/{id}/pdf [get]
func (h *DocumentHandler) PDF(c *gin.Context) {
	tenant, ok := tenantFromContext(c)
	if !ok {
		return
	}
	artifact, err := h.service.Artifact(c.Request.Context(), tenant, c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Attachment(c, artifact.ContentType, artifact.Filename, artifact.Data, nil)
}

// Void godoc
// @Summary Void an issued document
// @Tags Documents
// @Accept json
// @Produce json
// @Param id path string true "Document ID"
// @Param payload body dto.VoidDocumentRequest true "Reason"
// @Success 200 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /documents/{id}/void [post]
func (h *DocumentHandler) Void(c *gin.Context) {
	tenant, ok := tenantFromContext(c)
	if !ok {
		return
	}
	var req dto.VoidDocumentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, bindError(err, "invalid void payload"))
		return
	}
	doc, err := h.service.Void(c.Request.Context(), tenant, c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, doc, nil)
}

// Register godoc
// @Summary Export the issued documents register
// @Tags Documents
// @Produce text/csv,application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Param format query string false "csv or xlsx"
// @Success 200 {file} binary
// @Router /documents/register [get]
func (h *DocumentHandler) Register(c *gin.Context) {
	tenant, ok := tenantFromContext(c)
	if !ok {
		return
	}
	filter, err := documentFilter(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	format := export.RegisterFormat(strings.ToLower(c.DefaultQuery("format", string(export.FormatCSV))))
	artifact, err := h.service.ExportRegister(c.Request.Context(), tenant, filter, format)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Attachment(c, artifact.ContentType, artifact.Filename, artifact.Data, nil)
}

// Download godoc
// @Summary Download a document through a signed link
// @Tags Documents
// @Produce application/pdf
// @Param token path string true "Signed token"
// @Success 200 {file} binary
// @Router /documents/download/{token} [get]
func (h *DocumentHandler) Download(c *gin.Context) {
	artifact, err := h.service.Download(c.Request.Context(), c.Param("token"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Attachment(c, artifact.ContentType, artifact.Filename, artifact.Data, nil)
}

// Verify godoc
// @Summary Verify a printed document by its verification code
// @Tags Verification
// @Produce json
// @Param code path string true "Verification code"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /verify/{code} [get]
func (h *DocumentHandler) Verify(c *gin.Context) {
	verification, err := h.service.Verify(c.Request.Context(), c.Param("code"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, verification, nil)
}

func documentFilter(c *gin.Context) (models.DocumentFilter, error) {
	from, err := parseDateParam(c.Query("from"))
	if err != nil {
		return models.DocumentFilter{}, err
	}
	to, err := parseDateParam(c.Query("to"))
	if err != nil {
		return models.DocumentFilter{}, err
	}
	return models.DocumentFilter{
		StudentID: c.Query("studentId"),
		Kind:      models.DocumentKind(c.Query("kind")),
		Status:    models.DocumentStatus(c.Query("status")),
		From:      from,
		To:        to,
		Page:      parseQueryInt(c, "page", 1),
		PageSize:  parseQueryInt(c, "limit", 20),
	}, nil
}

func wantsJSON(c *gin.Context) bool {
	accept := c.GetHeader("Accept")
	return strings.Contains(accept, "application/json") && !strings.Contains(accept, "application/pdf")
}
