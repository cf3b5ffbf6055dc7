package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Log entry review status values
const (
	LogStatusPending  = "pending"
	LogStatusApproved = "approved"
	LogStatusRejected = "rejected"
)

// LogEntry is a single clinical-activity record submitted by a student.
// Status and feedback are mutated only by instructor review; any student
// edit resets the entry to pending and unlocks it.
type LogEntry struct {
	ID                 uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	StudentID          uuid.UUID      `gorm:"type:uuid;not null;index" json:"student_id"`
	Date               time.Time      `gorm:"type:date;not null;index" json:"date"`
	Location           string         `gorm:"type:text;not null" json:"location"`
	Specialty          string         `gorm:"type:text;index" json:"specialty"`
	Hours              float64        `gorm:"type:numeric(5,2);not null;default:0" json:"hours"`
	Activities         string         `gorm:"type:text" json:"activities,omitempty"`
	LearningObjectives string         `gorm:"type:text" json:"learning_objectives,omitempty"`
	Reflection         string         `gorm:"type:text" json:"reflection,omitempty"`
	SupervisorName     string         `gorm:"type:text" json:"supervisor_name,omitempty"`
	Status             string         `gorm:"type:varchar(20);not null;default:'pending';index" json:"status"`
	Feedback           string         `gorm:"type:text" json:"feedback,omitempty"`
	SubmittedAt        time.Time      `gorm:"autoCreateTime;index" json:"submitted_at"`
	PatientID          *uuid.UUID     `gorm:"type:uuid;index" json:"patient_id,omitempty"`
	IsLocked           bool           `gorm:"not null;default:false" json:"is_locked"`
	PatientsSeen       *int           `json:"patients_seen,omitempty"`
	UpdatedAt          time.Time      `json:"updated_at"`
	DeletedAt          gorm.DeletedAt `gorm:"index" json:"-"`

	// Relationships
	Student *Profile `gorm:"foreignKey:StudentID" json:"student,omitempty"`
	Patient *Patient `gorm:"foreignKey:PatientID" json:"patient,omitempty"`
}

// TableName specifies the table name for LogEntry
func (LogEntry) TableName() string {
	return "log_entries"
}

// BeforeCreate assigns a UUID if one was not provided
func (e *LogEntry) BeforeCreate(tx *gorm.DB) error {
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	return nil
}

// LogAttachment records a signed attestation PDF uploaded against a set of
// log entries and stored in object storage.
type LogAttachment struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	StudentID   uuid.UUID `gorm:"type:uuid;not null;index" json:"student_id"`
	FileName    string    `gorm:"type:text;not null" json:"file_name"`
	ObjectKey   string    `gorm:"type:text;not null" json:"object_key"`
	SizeBytes   int64     `gorm:"not null" json:"size_bytes"`
	PageCount   int       `json:"page_count"`
	ContentType string    `gorm:"type:varchar(100)" json:"content_type"`
	CreatedAt   time.Time `json:"created_at"`

	// Relationships
	Student *Profile `gorm:"foreignKey:StudentID" json:"-"`
}

// TableName specifies the table name for LogAttachment
func (LogAttachment) TableName() string {
	return "log_attachments"
}

// BeforeCreate assigns a UUID if one was not provided
func (a *LogAttachment) BeforeCreate(tx *gorm.DB) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	return nil
}
