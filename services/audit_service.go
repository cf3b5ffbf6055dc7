package services

import (
	"context"
	"encoding/json"
	"log"

	"github.com/google/uuid"
	"gorm.io/datatypes"

	"github.com/cliniclog/logbook-api/model"
)

// AuditRecorder appends immutable audit events. Recording is best-effort:
// it runs after the triggering write has committed and a failed append only
// logs, never failing the business operation.
type AuditRecorder struct {
	store AuditStore
}

// NewAuditRecorder creates a new audit recorder
func NewAuditRecorder(store AuditStore) *AuditRecorder {
	return &AuditRecorder{store: store}
}

// Record appends one audit event
func (r *AuditRecorder) Record(ctx context.Context, actorID *uuid.UUID, action, entityType string, entityID uuid.UUID, metadata map[string]interface{}) {
	event := &model.AuditEvent{
		ActorID:    actorID,
		Action:     action,
		EntityType: entityType,
		EntityID:   entityID,
	}

	if metadata != nil {
		raw, err := json.Marshal(metadata)
		if err != nil {
			log.Printf("audit: failed to marshal metadata for %s %s: %v", action, entityType, err)
		} else {
			event.Metadata = datatypes.JSON(raw)
		}
	}

	if err := r.store.CreateAuditEvent(ctx, event); err != nil {
		log.Printf("audit: failed to record %s on %s %s: %v", action, entityType, entityID, err)
	}
}

// List returns audit events for the admin audit trail view
func (r *AuditRecorder) List(ctx context.Context, opts ListAuditEventsOptions) ([]model.AuditEvent, int64, error) {
	return r.store.ListAuditEvents(ctx, opts)
}
