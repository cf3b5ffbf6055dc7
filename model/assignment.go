package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Assignment status values
const (
	AssignmentActive    = "active"
	AssignmentInactive  = "inactive"
	AssignmentCompleted = "completed"
)

// MaxStudentsPerPreceptor is the hard cap on concurrently supervised students.
const MaxStudentsPerPreceptor = 5

// StudentPreceptorAssignment links a student to a supervising preceptor.
// An instructor may only review entries of students with an active link.
type StudentPreceptorAssignment struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	StudentID   uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_student_preceptor" json:"student_id"`
	PreceptorID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_student_preceptor;index" json:"preceptor_id"`
	Status      string    `gorm:"type:varchar(20);not null;default:'active';index" json:"status"`
	AssignedAt  time.Time `gorm:"autoCreateTime" json:"assigned_at"`

	// Relationships
	Student   *Profile `gorm:"foreignKey:StudentID" json:"student,omitempty"`
	Preceptor *Profile `gorm:"foreignKey:PreceptorID" json:"preceptor,omitempty"`
}

// TableName specifies the table name for StudentPreceptorAssignment
func (StudentPreceptorAssignment) TableName() string {
	return "student_preceptor_assignments"
}

// BeforeCreate assigns a UUID if one was not provided
func (a *StudentPreceptorAssignment) BeforeCreate(tx *gorm.DB) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	return nil
}

// StudentPatientAssignment links a student to a patient they may log against.
type StudentPatientAssignment struct {
	ID         uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	StudentID  uuid.UUID  `gorm:"type:uuid;not null;uniqueIndex:idx_student_patient" json:"student_id"`
	PatientID  uuid.UUID  `gorm:"type:uuid;not null;uniqueIndex:idx_student_patient" json:"patient_id"`
	AssignedBy *uuid.UUID `gorm:"type:uuid" json:"assigned_by,omitempty"`
	AssignedAt time.Time  `gorm:"autoCreateTime" json:"assigned_at"`

	// Relationships
	Student *Profile `gorm:"foreignKey:StudentID" json:"student,omitempty"`
	Patient *Patient `gorm:"foreignKey:PatientID" json:"patient,omitempty"`
}

// TableName specifies the table name for StudentPatientAssignment
func (StudentPatientAssignment) TableName() string {
	return "student_patient_assignments"
}

// BeforeCreate assigns a UUID if one was not provided
func (a *StudentPatientAssignment) BeforeCreate(tx *gorm.DB) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	return nil
}
