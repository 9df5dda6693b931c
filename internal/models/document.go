package models

import (
	"encoding/json"
	"time"
)

// DocumentKind enumerates the official records the institution can issue.
type DocumentKind string

const (
	DocumentKindEnrollmentDeclaration DocumentKind = "ENROLLMENT_DECLARATION"
	DocumentKindAttendanceDeclaration DocumentKind = "ATTENDANCE_DECLARATION"
	DocumentKindTranscript            DocumentKind = "TRANSCRIPT"
	DocumentKindCertificate           DocumentKind = "CERTIFICATE"
)

// DocumentSeries is the numbering namespace within a tenant.
type DocumentSeries string

const (
	SeriesDeclaration       DocumentSeries = "DECL"
	SeriesTranscript        DocumentSeries = "HIST"
	SeriesCertificate       DocumentSeries = "CERT"
	SeriesGraduationRecord  DocumentSeries = "GRAD"
	SeriesCertificateRecord DocumentSeries = "CREC"
)

// Valid reports whether the series is a known numbering namespace.
func (s DocumentSeries) Valid() bool {
	switch s {
	case SeriesDeclaration, SeriesTranscript, SeriesCertificate, SeriesGraduationRecord, SeriesCertificateRecord:
		return true
	default:
		return false
	}
}

// Series returns the numbering series used by the kind.
func (k DocumentKind) Series() DocumentSeries {
	switch k {
	case DocumentKindEnrollmentDeclaration, DocumentKindAttendanceDeclaration:
		return SeriesDeclaration
	case DocumentKindTranscript:
		return SeriesTranscript
	case DocumentKindCertificate:
		return SeriesCertificate
	default:
		return ""
	}
}

// Valid reports whether the kind is supported.
func (k DocumentKind) Valid() bool {
	return k.Series() != ""
}

// Title is the heading printed on the rendered artifact.
func (k DocumentKind) Title() string {
	switch k {
	case DocumentKindEnrollmentDeclaration:
		return "Enrollment Declaration"
	case DocumentKindAttendanceDeclaration:
		return "Attendance Declaration"
	case DocumentKindTranscript:
		return "Academic Transcript"
	case DocumentKindCertificate:
		return "Certificate of Completion"
	default:
		return string(k)
	}
}

// DocumentStatus is ACTIVE until a single audited void.
type DocumentStatus string

const (
	DocumentStatusActive DocumentStatus = "ACTIVE"
	DocumentStatusVoid   DocumentStatus = "VOID"
)

// IssuedDocument is a numbered, hashed official artifact handed to a student.
type IssuedDocument struct {
	ID               string          `db:"id" json:"id"`
	TenantID         string          `db:"tenant_id" json:"tenant_id"`
	StudentID        string          `db:"student_id" json:"student_id"`
	Kind             DocumentKind    `db:"kind" json:"kind"`
	Series           DocumentSeries  `db:"series" json:"series"`
	Number           string          `db:"number" json:"number"`
	VerificationCode string          `db:"verification_code" json:"verification_code"`
	Hash             string          `db:"hash" json:"hash"`
	Payload          json.RawMessage `db:"payload" json:"payload"`
	StoragePath      *string         `db:"storage_path" json:"-"`
	Status           DocumentStatus  `db:"status" json:"status"`
	IssuedBy         string          `db:"issued_by" json:"issued_by"`
	IssuedAt         time.Time       `db:"issued_at" json:"issued_at"`
	VoidedBy         *string         `db:"voided_by" json:"voided_by,omitempty"`
	VoidedAt         *time.Time      `db:"voided_at" json:"voided_at,omitempty"`
	VoidReason       *string         `db:"void_reason" json:"void_reason,omitempty"`
}

// DocumentFilter narrows issued document listings.
type DocumentFilter struct {
	TenantID  string
	StudentID string
	Kind      DocumentKind
	Status    DocumentStatus
	From      *time.Time
	To        *time.Time
	Page      int
	PageSize  int
}

// Normalize applies paging defaults.
func (f *DocumentFilter) Normalize() {
	f.Page, f.PageSize = normalizePage(f.Page, f.PageSize, 500)
}

// DocumentVerification is the public view of a verification code lookup.
type DocumentVerification struct {
	TenantID         string         `json:"tenant_id"`
	TenantName       string         `json:"tenant_name"`
	Kind             DocumentKind   `json:"kind"`
	Number           string         `json:"number"`
	StudentName      string         `json:"student_name"`
	IssuedAt         time.Time      `json:"issued_at"`
	Status           DocumentStatus `json:"status"`
	VerificationCode string         `json:"verification_code"`
	HashValid        bool           `json:"hash_valid"`
}
