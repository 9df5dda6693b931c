package service

import (
	"context"
	"encoding/json"

	"go.uber.org/zap"

	"github.com/noah-isme/academic-records-api/internal/models"
)

type auditRecorder interface {
	CreateAuditLog(ctx context.Context, log *models.AuditLog) error
}

// auditTrail writes best-effort audit rows after a committed change.
type auditTrail struct {
	recorder auditRecorder
	source   string
	logger   *zap.Logger
}

func (a auditTrail) emit(ctx context.Context, tenant models.TenantContext, action, resource, resourceID string, oldValues, newValues interface{}) {
	if a.recorder == nil {
		return
	}
	log := &models.AuditLog{
		TenantID:  tenant.TenantID,
		Action:    action,
		Resource:  resource,
		IPAddress: "system",
		UserAgent: a.source,
		OldValues: marshalAudit(oldValues),
		NewValues: marshalAudit(newValues),
	}
	if tenant.ActorID != "" {
		actor := tenant.ActorID
		log.UserID = &actor
	}
	if resourceID != "" {
		id := resourceID
		log.ResourceID = &id
	}
	if err := a.recorder.CreateAuditLog(ctx, log); err != nil {
		a.logger.Warn("failed to create audit log", zap.String("action", action), zap.Error(err))
	}
}

func marshalAudit(v interface{}) []byte {
	if v == nil {
		return nil
	}
	raw, err := json.Marshal(v)
	if err != nil {
		return nil
	}
	return raw
}
