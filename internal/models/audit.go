package models

import "time"

// AuditAction constants represent irreversible actions that must be traced.
const (
	AuditActionConclusionCreate   = "CONCLUSION_CREATE"
	AuditActionConclusionConclude = "CONCLUSION_CONCLUDE"
	AuditActionGraduationCreate   = "GRADUATION_RECORD_CREATE"
	AuditActionCertificateCreate  = "CERTIFICATE_RECORD_CREATE"
	AuditActionEquivalencyCreate  = "EQUIVALENCY_CREATE"
	AuditActionEquivalencyUpdate  = "EQUIVALENCY_UPDATE"
	AuditActionEquivalencyDefer   = "EQUIVALENCY_DEFER"
	AuditActionEquivalencyDelete  = "EQUIVALENCY_DELETE"
	AuditActionDocumentIssue      = "DOCUMENT_ISSUE"
	AuditActionDocumentVoid       = "DOCUMENT_VOID"
	AuditActionImmutableRejected  = "IMMUTABLE_WRITE_REJECTED"
	AuditActionRegisterExport     = "DOCUMENT_REGISTER_EXPORT"
)

// AuditLog represents an audit trail record.
type AuditLog struct {
	ID         string    `db:"id" json:"id"`
	TenantID   string    `db:"tenant_id" json:"tenant_id"`
	UserID     *string   `db:"user_id" json:"user_id,omitempty"`
	Action     string    `db:"action" json:"action"`
	Resource   string    `db:"resource" json:"resource"`
	ResourceID *string   `db:"resource_id" json:"resource_id,omitempty"`
	OldValues  []byte    `db:"old_values" json:"old_values,omitempty"`
	NewValues  []byte    `db:"new_values" json:"new_values,omitempty"`
	IPAddress  string    `db:"ip_address" json:"ip_address"`
	UserAgent  string    `db:"user_agent" json:"user_agent"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
}
