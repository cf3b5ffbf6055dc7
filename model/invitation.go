package model

import (
	"time"

	"github.com/google/uuid"
)

// Invitation status values
const (
	InvitationPending    = "pending"
	InvitationRegistered = "registered"
)

// AuthorizedInvitation is the admin-maintained allow-list of people who may
// register. A matching Profile is auto-created at invite time so assignments
// can be made before the invitee has logged in.
type AuthorizedInvitation struct {
	Email         string     `gorm:"type:text;primaryKey" json:"email"`
	FullName      string     `gorm:"type:text;not null" json:"full_name"`
	Role          Role       `gorm:"type:varchar(20);not null;index" json:"role"`
	InstitutionID *uuid.UUID `gorm:"type:uuid" json:"institution_id,omitempty"`
	Status        string     `gorm:"type:varchar(20);not null;default:'pending';index" json:"status"`
	InvitedBy     *uuid.UUID `gorm:"type:uuid" json:"invited_by,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`

	// Relationships
	Institution *Institution `gorm:"foreignKey:InstitutionID" json:"institution,omitempty"`
}

// TableName specifies the table name for AuthorizedInvitation
func (AuthorizedInvitation) TableName() string {
	return "authorized_invitations"
}
