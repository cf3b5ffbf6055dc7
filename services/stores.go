package services

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/cliniclog/logbook-api/model"
)

// Sentinel errors returned by store implementations. Services translate
// these into the classified errors the API surfaces.
var (
	ErrRecordNotFound  = errors.New("record not found")
	ErrDuplicateRecord = errors.New("duplicate record")
)

// ListLogEntriesOptions filters log entry listings
type ListLogEntriesOptions struct {
	StudentID  *uuid.UUID
	StudentIDs []uuid.UUID
	Status     string
	Limit      int
	Offset     int
}

// ListAuditEventsOptions filters audit event listings
type ListAuditEventsOptions struct {
	Action     string
	EntityType string
	Since      *time.Time
	Limit      int
	Offset     int
}

// PreceptorLoad is one row of the preceptor load report
type PreceptorLoad struct {
	ID                 uuid.UUID `json:"id"`
	FullName           string    `json:"full_name"`
	Email              string    `json:"email"`
	ActiveStudentCount int64     `json:"active_student_count"`
	MaxStudents        int       `json:"max_students" gorm:"-"`
	RegistrationStatus string    `json:"registration_status"`
}

// PendingReviewCount is one preceptor's backlog for the reminder digest
type PendingReviewCount struct {
	PreceptorID  uuid.UUID `json:"preceptor_id"`
	Email        string    `json:"email"`
	FullName     string    `json:"full_name"`
	PendingCount int64     `json:"pending_count"`
}

// AssignmentStore is the persistence contract of the assignment manager
type AssignmentStore interface {
	InTransaction(ctx context.Context, fn func(tx TxStores) error) error

	ProfileByID(ctx context.Context, id uuid.UUID) (*model.Profile, error)
	PatientByID(ctx context.Context, id uuid.UUID) (*model.Patient, error)
	FindOrCreatePatient(ctx context.Context, referenceID string, institutionID *uuid.UUID, defaults model.Patient) (*model.Patient, bool, error)

	ActivePreceptorAssignmentExists(ctx context.Context, studentID, preceptorID uuid.UUID) (bool, error)
	CountActivePreceptorAssignmentsForUpdate(ctx context.Context, preceptorID uuid.UUID) (int64, error)
	CreatePreceptorAssignment(ctx context.Context, assignment *model.StudentPreceptorAssignment) error
	ActiveAssignmentForStudent(ctx context.Context, studentID uuid.UUID) (*model.StudentPreceptorAssignment, error)
	ListPreceptorAssignments(ctx context.Context) ([]model.StudentPreceptorAssignment, error)
	PreceptorLoads(ctx context.Context) ([]PreceptorLoad, error)

	PatientAssignmentExists(ctx context.Context, studentID, patientID uuid.UUID) (bool, error)
	CreatePatientAssignment(ctx context.Context, assignment *model.StudentPatientAssignment) error
	PatientsForStudent(ctx context.Context, studentID uuid.UUID) ([]model.Patient, error)

	InstructorsForInstitution(ctx context.Context, institutionID uuid.UUID) ([]model.Profile, error)
}

// LogEntryStore is the persistence contract of the log entry workflow
type LogEntryStore interface {
	CreateLogEntry(ctx context.Context, entry *model.LogEntry) error
	LogEntryByID(ctx context.Context, id uuid.UUID) (*model.LogEntry, error)
	SaveLogEntry(ctx context.Context, entry *model.LogEntry) error
	DeleteLogEntry(ctx context.Context, id uuid.UUID) error
	ListLogEntries(ctx context.Context, opts ListLogEntriesOptions) ([]model.LogEntry, int64, error)
	LockLogEntries(ctx context.Context, studentID uuid.UUID, ids []uuid.UUID) (int64, error)

	ActiveStudentIDsForPreceptor(ctx context.Context, preceptorID uuid.UUID) ([]uuid.UUID, error)
	StudentsForPreceptor(ctx context.Context, preceptorID uuid.UUID) ([]model.Profile, error)
	HasActiveAssignment(ctx context.Context, studentID, preceptorID uuid.UUID) (bool, error)

	FindOrCreatePatient(ctx context.Context, referenceID string, institutionID *uuid.UUID, defaults model.Patient) (*model.Patient, bool, error)
	CreateLogAttachment(ctx context.Context, attachment *model.LogAttachment) error
}

// InvitationStore is the persistence contract of user invitation/registration
type InvitationStore interface {
	InTransaction(ctx context.Context, fn func(tx TxStores) error) error

	InvitationByEmail(ctx context.Context, email string) (*model.AuthorizedInvitation, error)
	CreateInvitation(ctx context.Context, invitation *model.AuthorizedInvitation) error
	SaveInvitation(ctx context.Context, invitation *model.AuthorizedInvitation) error
	ListInvitations(ctx context.Context) ([]model.AuthorizedInvitation, error)

	ProfileByEmail(ctx context.Context, email string) (*model.Profile, error)
	CreateProfile(ctx context.Context, profile *model.Profile) error
	SaveProfile(ctx context.Context, profile *model.Profile) error
}

// AuditStore is the persistence contract of the audit recorder
type AuditStore interface {
	CreateAuditEvent(ctx context.Context, event *model.AuditEvent) error
	ListAuditEvents(ctx context.Context, opts ListAuditEventsOptions) ([]model.AuditEvent, int64, error)
}

// TxStores bundles the contracts available inside one transaction
type TxStores interface {
	AssignmentStore
	LogEntryStore
	InvitationStore
	AuditStore
}
