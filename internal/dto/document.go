package dto

import (
	"time"

	"github.com/noah-isme/academic-records-api/internal/models"
)

// IssueDocumentRequest asks for a new official document. Which optional fields apply depends on the kind.
type IssueDocumentRequest struct {
	Kind           models.DocumentKind `json:"kind" validate:"required"`
	StudentID      string              `json:"studentId" validate:"required"`
	AcademicYearID *string             `json:"academicYearId"`
	DisciplineID   *string             `json:"disciplineId"`
	ConclusionID   *string             `json:"conclusionId"`
}

// IssueDocumentResponse is returned when the caller asks for JSON instead of the PDF body.
type IssueDocumentResponse struct {
	ID               string              `json:"id"`
	Kind             models.DocumentKind `json:"kind"`
	Number           string              `json:"number"`
	VerificationCode string              `json:"verificationCode"`
	Hash             string              `json:"hash"`
	DownloadURL      string              `json:"downloadUrl,omitempty"`
	DownloadExpires  *time.Time          `json:"downloadExpiresAt,omitempty"`
}

// VoidDocumentRequest voids an issued document.
type VoidDocumentRequest struct {
	Reason string `json:"reason" validate:"required,max=500"`
}
