package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// AuditEvent is an append-only record of a privileged action.
// Rows are never updated or deleted.
type AuditEvent struct {
	ID         uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	ActorID    *uuid.UUID     `gorm:"type:uuid;index" json:"actor_id,omitempty"`
	Action     string         `gorm:"type:varchar(100);not null;index" json:"action"`
	EntityType string         `gorm:"type:varchar(100);not null;index" json:"entity_type"`
	EntityID   uuid.UUID      `gorm:"type:uuid;not null" json:"entity_id"`
	Metadata   datatypes.JSON `gorm:"type:jsonb" json:"metadata,omitempty"`
	CreatedAt  time.Time      `gorm:"index" json:"created_at"`
}

// TableName specifies the table name for AuditEvent
func (AuditEvent) TableName() string {
	return "audit_events"
}

// BeforeCreate assigns a UUID if one was not provided
func (e *AuditEvent) BeforeCreate(tx *gorm.DB) error {
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	return nil
}
