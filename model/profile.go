package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Role is the closed set of roles a profile can hold
type Role string

const (
	RoleStudent    Role = "student"
	RoleInstructor Role = "instructor"
	RoleAdmin      Role = "admin"
)

// Valid reports whether r is one of the known roles
func (r Role) Valid() bool {
	switch r {
	case RoleStudent, RoleInstructor, RoleAdmin:
		return true
	}
	return false
}

// CanSubmitLogs reports whether the role may create and edit log entries
func (r Role) CanSubmitLogs() bool { return r == RoleStudent }

// CanReviewLogs reports whether the role may approve or reject log entries
func (r Role) CanReviewLogs() bool { return r == RoleInstructor }

// CanManageUsers reports whether the role may invite, edit and assign users
func (r Role) CanManageUsers() bool { return r == RoleAdmin }

// Profile represents a registered person: student, instructor (preceptor) or admin
type Profile struct {
	ID            uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	Email         string     `gorm:"type:text;uniqueIndex;not null" json:"email"`
	FullName      string     `gorm:"type:text;not null" json:"full_name"`
	Role          Role       `gorm:"type:varchar(20);not null;index" json:"role"`
	InstitutionID *uuid.UUID `gorm:"type:uuid;index" json:"institution_id,omitempty"`
	PasswordHash  string     `gorm:"type:text" json:"-"` // empty until the invitee registers
	TokenVersion  int        `gorm:"default:0" json:"-"` // increment to invalidate all tokens
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`

	// Relationships
	Institution *Institution `gorm:"foreignKey:InstitutionID" json:"institution,omitempty"`
	LogEntries  []LogEntry   `gorm:"foreignKey:StudentID;constraint:OnDelete:CASCADE" json:"-"`
}

// TableName specifies the table name for Profile
func (Profile) TableName() string {
	return "profiles"
}

// BeforeCreate assigns a UUID if one was not provided
func (p *Profile) BeforeCreate(tx *gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}
