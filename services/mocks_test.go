package services

import (
	"context"
	"errors"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/cliniclog/logbook-api/model"
)

// MockStores is a func-field mock of the full TxStores contract. Unset
// funcs return an error so tests fail loudly on unexpected calls.
type MockStores struct {
	InTransactionFunc func(ctx context.Context, fn func(tx TxStores) error) error

	ProfileByIDFunc         func(ctx context.Context, id uuid.UUID) (*model.Profile, error)
	ProfileByEmailFunc      func(ctx context.Context, email string) (*model.Profile, error)
	CreateProfileFunc       func(ctx context.Context, profile *model.Profile) error
	SaveProfileFunc         func(ctx context.Context, profile *model.Profile) error
	PatientByIDFunc         func(ctx context.Context, id uuid.UUID) (*model.Patient, error)
	FindOrCreatePatientFunc func(ctx context.Context, referenceID string, institutionID *uuid.UUID, defaults model.Patient) (*model.Patient, bool, error)

	ActivePreceptorAssignmentExistsFunc          func(ctx context.Context, studentID, preceptorID uuid.UUID) (bool, error)
	CountActivePreceptorAssignmentsForUpdateFunc func(ctx context.Context, preceptorID uuid.UUID) (int64, error)
	CreatePreceptorAssignmentFunc                func(ctx context.Context, assignment *model.StudentPreceptorAssignment) error
	ActiveAssignmentForStudentFunc               func(ctx context.Context, studentID uuid.UUID) (*model.StudentPreceptorAssignment, error)
	ListPreceptorAssignmentsFunc                 func(ctx context.Context) ([]model.StudentPreceptorAssignment, error)
	PreceptorLoadsFunc                           func(ctx context.Context) ([]PreceptorLoad, error)

	PatientAssignmentExistsFunc func(ctx context.Context, studentID, patientID uuid.UUID) (bool, error)
	CreatePatientAssignmentFunc func(ctx context.Context, assignment *model.StudentPatientAssignment) error
	PatientsForStudentFunc      func(ctx context.Context, studentID uuid.UUID) ([]model.Patient, error)

	InstructorsForInstitutionFunc func(ctx context.Context, institutionID uuid.UUID) ([]model.Profile, error)

	CreateLogEntryFunc               func(ctx context.Context, entry *model.LogEntry) error
	LogEntryByIDFunc                 func(ctx context.Context, id uuid.UUID) (*model.LogEntry, error)
	SaveLogEntryFunc                 func(ctx context.Context, entry *model.LogEntry) error
	DeleteLogEntryFunc               func(ctx context.Context, id uuid.UUID) error
	ListLogEntriesFunc               func(ctx context.Context, opts ListLogEntriesOptions) ([]model.LogEntry, int64, error)
	LockLogEntriesFunc               func(ctx context.Context, studentID uuid.UUID, ids []uuid.UUID) (int64, error)
	ActiveStudentIDsForPreceptorFunc func(ctx context.Context, preceptorID uuid.UUID) ([]uuid.UUID, error)
	StudentsForPreceptorFunc         func(ctx context.Context, preceptorID uuid.UUID) ([]model.Profile, error)
	HasActiveAssignmentFunc          func(ctx context.Context, studentID, preceptorID uuid.UUID) (bool, error)
	CreateLogAttachmentFunc          func(ctx context.Context, attachment *model.LogAttachment) error

	InvitationByEmailFunc func(ctx context.Context, email string) (*model.AuthorizedInvitation, error)
	CreateInvitationFunc  func(ctx context.Context, invitation *model.AuthorizedInvitation) error
	SaveInvitationFunc    func(ctx context.Context, invitation *model.AuthorizedInvitation) error
	ListInvitationsFunc   func(ctx context.Context) ([]model.AuthorizedInvitation, error)

	CreateAuditEventFunc func(ctx context.Context, event *model.AuditEvent) error
	ListAuditEventsFunc  func(ctx context.Context, opts ListAuditEventsOptions) ([]model.AuditEvent, int64, error)

	CreateAuditEventCallCount int32
}

var _ TxStores = (*MockStores)(nil)

func (m *MockStores) InTransaction(ctx context.Context, fn func(tx TxStores) error) error {
	if m.InTransactionFunc != nil {
		return m.InTransactionFunc(ctx, fn)
	}
	// Default: run the body against the same mock, like a real transaction
	return fn(m)
}

func (m *MockStores) ProfileByID(ctx context.Context, id uuid.UUID) (*model.Profile, error) {
	if m.ProfileByIDFunc != nil {
		return m.ProfileByIDFunc(ctx, id)
	}
	return nil, errors.New("ProfileByIDFunc not implemented in mock")
}

func (m *MockStores) ProfileByEmail(ctx context.Context, email string) (*model.Profile, error) {
	if m.ProfileByEmailFunc != nil {
		return m.ProfileByEmailFunc(ctx, email)
	}
	return nil, errors.New("ProfileByEmailFunc not implemented in mock")
}

func (m *MockStores) CreateProfile(ctx context.Context, profile *model.Profile) error {
	if m.CreateProfileFunc != nil {
		return m.CreateProfileFunc(ctx, profile)
	}
	return errors.New("CreateProfileFunc not implemented in mock")
}

func (m *MockStores) SaveProfile(ctx context.Context, profile *model.Profile) error {
	if m.SaveProfileFunc != nil {
		return m.SaveProfileFunc(ctx, profile)
	}
	return errors.New("SaveProfileFunc not implemented in mock")
}

func (m *MockStores) PatientByID(ctx context.Context, id uuid.UUID) (*model.Patient, error) {
	if m.PatientByIDFunc != nil {
		return m.PatientByIDFunc(ctx, id)
	}
	return nil, errors.New("PatientByIDFunc not implemented in mock")
}

func (m *MockStores) FindOrCreatePatient(ctx context.Context, referenceID string, institutionID *uuid.UUID, defaults model.Patient) (*model.Patient, bool, error) {
	if m.FindOrCreatePatientFunc != nil {
		return m.FindOrCreatePatientFunc(ctx, referenceID, institutionID, defaults)
	}
	return nil, false, errors.New("FindOrCreatePatientFunc not implemented in mock")
}

func (m *MockStores) ActivePreceptorAssignmentExists(ctx context.Context, studentID, preceptorID uuid.UUID) (bool, error) {
	if m.ActivePreceptorAssignmentExistsFunc != nil {
		return m.ActivePreceptorAssignmentExistsFunc(ctx, studentID, preceptorID)
	}
	return false, errors.New("ActivePreceptorAssignmentExistsFunc not implemented in mock")
}

func (m *MockStores) CountActivePreceptorAssignmentsForUpdate(ctx context.Context, preceptorID uuid.UUID) (int64, error) {
	if m.CountActivePreceptorAssignmentsForUpdateFunc != nil {
		return m.CountActivePreceptorAssignmentsForUpdateFunc(ctx, preceptorID)
	}
	return 0, errors.New("CountActivePreceptorAssignmentsForUpdateFunc not implemented in mock")
}

func (m *MockStores) CreatePreceptorAssignment(ctx context.Context, assignment *model.StudentPreceptorAssignment) error {
	if m.CreatePreceptorAssignmentFunc != nil {
		return m.CreatePreceptorAssignmentFunc(ctx, assignment)
	}
	return errors.New("CreatePreceptorAssignmentFunc not implemented in mock")
}

func (m *MockStores) ActiveAssignmentForStudent(ctx context.Context, studentID uuid.UUID) (*model.StudentPreceptorAssignment, error) {
	if m.ActiveAssignmentForStudentFunc != nil {
		return m.ActiveAssignmentForStudentFunc(ctx, studentID)
	}
	return nil, errors.New("ActiveAssignmentForStudentFunc not implemented in mock")
}

func (m *MockStores) ListPreceptorAssignments(ctx context.Context) ([]model.StudentPreceptorAssignment, error) {
	if m.ListPreceptorAssignmentsFunc != nil {
		return m.ListPreceptorAssignmentsFunc(ctx)
	}
	return nil, errors.New("ListPreceptorAssignmentsFunc not implemented in mock")
}

func (m *MockStores) PreceptorLoads(ctx context.Context) ([]PreceptorLoad, error) {
	if m.PreceptorLoadsFunc != nil {
		return m.PreceptorLoadsFunc(ctx)
	}
	return nil, errors.New("PreceptorLoadsFunc not implemented in mock")
}

func (m *MockStores) PatientAssignmentExists(ctx context.Context, studentID, patientID uuid.UUID) (bool, error) {
	if m.PatientAssignmentExistsFunc != nil {
		return m.PatientAssignmentExistsFunc(ctx, studentID, patientID)
	}
	return false, errors.New("PatientAssignmentExistsFunc not implemented in mock")
}

func (m *MockStores) CreatePatientAssignment(ctx context.Context, assignment *model.StudentPatientAssignment) error {
	if m.CreatePatientAssignmentFunc != nil {
		return m.CreatePatientAssignmentFunc(ctx, assignment)
	}
	return errors.New("CreatePatientAssignmentFunc not implemented in mock")
}

func (m *MockStores) PatientsForStudent(ctx context.Context, studentID uuid.UUID) ([]model.Patient, error) {
	if m.PatientsForStudentFunc != nil {
		return m.PatientsForStudentFunc(ctx, studentID)
	}
	return nil, errors.New("PatientsForStudentFunc not implemented in mock")
}

func (m *MockStores) InstructorsForInstitution(ctx context.Context, institutionID uuid.UUID) ([]model.Profile, error) {
	if m.InstructorsForInstitutionFunc != nil {
		return m.InstructorsForInstitutionFunc(ctx, institutionID)
	}
	return nil, errors.New("InstructorsForInstitutionFunc not implemented in mock")
}

func (m *MockStores) CreateLogEntry(ctx context.Context, entry *model.LogEntry) error {
	if m.CreateLogEntryFunc != nil {
		return m.CreateLogEntryFunc(ctx, entry)
	}
	return errors.New("CreateLogEntryFunc not implemented in mock")
}

func (m *MockStores) LogEntryByID(ctx context.Context, id uuid.UUID) (*model.LogEntry, error) {
	if m.LogEntryByIDFunc != nil {
		return m.LogEntryByIDFunc(ctx, id)
	}
	return nil, errors.New("LogEntryByIDFunc not implemented in mock")
}

func (m *MockStores) SaveLogEntry(ctx context.Context, entry *model.LogEntry) error {
	if m.SaveLogEntryFunc != nil {
		return m.SaveLogEntryFunc(ctx, entry)
	}
	return errors.New("SaveLogEntryFunc not implemented in mock")
}

func (m *MockStores) DeleteLogEntry(ctx context.Context, id uuid.UUID) error {
	if m.DeleteLogEntryFunc != nil {
		return m.DeleteLogEntryFunc(ctx, id)
	}
	return errors.New("DeleteLogEntryFunc not implemented in mock")
}

func (m *MockStores) ListLogEntries(ctx context.Context, opts ListLogEntriesOptions) ([]model.LogEntry, int64, error) {
	if m.ListLogEntriesFunc != nil {
		return m.ListLogEntriesFunc(ctx, opts)
	}
	return nil, 0, errors.New("ListLogEntriesFunc not implemented in mock")
}

func (m *MockStores) LockLogEntries(ctx context.Context, studentID uuid.UUID, ids []uuid.UUID) (int64, error) {
	if m.LockLogEntriesFunc != nil {
		return m.LockLogEntriesFunc(ctx, studentID, ids)
	}
	return 0, errors.New("LockLogEntriesFunc not implemented in mock")
}

func (m *MockStores) ActiveStudentIDsForPreceptor(ctx context.Context, preceptorID uuid.UUID) ([]uuid.UUID, error) {
	if m.ActiveStudentIDsForPreceptorFunc != nil {
		return m.ActiveStudentIDsForPreceptorFunc(ctx, preceptorID)
	}
	return nil, errors.New("ActiveStudentIDsForPreceptorFunc not implemented in mock")
}

func (m *MockStores) StudentsForPreceptor(ctx context.Context, preceptorID uuid.UUID) ([]model.Profile, error) {
	if m.StudentsForPreceptorFunc != nil {
		return m.StudentsForPreceptorFunc(ctx, preceptorID)
	}
	return nil, errors.New("StudentsForPreceptorFunc not implemented in mock")
}

func (m *MockStores) HasActiveAssignment(ctx context.Context, studentID, preceptorID uuid.UUID) (bool, error) {
	if m.HasActiveAssignmentFunc != nil {
		return m.HasActiveAssignmentFunc(ctx, studentID, preceptorID)
	}
	return false, errors.New("HasActiveAssignmentFunc not implemented in mock")
}

func (m *MockStores) CreateLogAttachment(ctx context.Context, attachment *model.LogAttachment) error {
	if m.CreateLogAttachmentFunc != nil {
		return m.CreateLogAttachmentFunc(ctx, attachment)
	}
	return errors.New("CreateLogAttachmentFunc not implemented in mock")
}

func (m *MockStores) InvitationByEmail(ctx context.Context, email string) (*model.AuthorizedInvitation, error) {
	if m.InvitationByEmailFunc != nil {
		return m.InvitationByEmailFunc(ctx, email)
	}
	return nil, errors.New("InvitationByEmailFunc not implemented in mock")
}

func (m *MockStores) CreateInvitation(ctx context.Context, invitation *model.AuthorizedInvitation) error {
	if m.CreateInvitationFunc != nil {
		return m.CreateInvitationFunc(ctx, invitation)
	}
	return errors.New("CreateInvitationFunc not implemented in mock")
}

func (m *MockStores) SaveInvitation(ctx context.Context, invitation *model.AuthorizedInvitation) error {
	if m.SaveInvitationFunc != nil {
		return m.SaveInvitationFunc(ctx, invitation)
	}
	return errors.New("SaveInvitationFunc not implemented in mock")
}

func (m *MockStores) ListInvitations(ctx context.Context) ([]model.AuthorizedInvitation, error) {
	if m.ListInvitationsFunc != nil {
		return m.ListInvitationsFunc(ctx)
	}
	return nil, errors.New("ListInvitationsFunc not implemented in mock")
}

func (m *MockStores) CreateAuditEvent(ctx context.Context, event *model.AuditEvent) error {
	atomic.AddInt32(&m.CreateAuditEventCallCount, 1)
	if m.CreateAuditEventFunc != nil {
		return m.CreateAuditEventFunc(ctx, event)
	}
	return nil
}

func (m *MockStores) ListAuditEvents(ctx context.Context, opts ListAuditEventsOptions) ([]model.AuditEvent, int64, error) {
	if m.ListAuditEventsFunc != nil {
		return m.ListAuditEventsFunc(ctx, opts)
	}
	return nil, 0, errors.New("ListAuditEventsFunc not implemented in mock")
}

// --- Shared test fixtures ---

func newTestStudent() *model.Profile {
	instID := uuid.New()
	return &model.Profile{
		ID:            uuid.New(),
		Email:         "student@example.org",
		FullName:      "Test Student",
		Role:          model.RoleStudent,
		InstitutionID: &instID,
	}
}

func newTestInstructor() *model.Profile {
	return &model.Profile{
		ID:       uuid.New(),
		Email:    "preceptor@example.org",
		FullName: "Test Preceptor",
		Role:     model.RoleInstructor,
	}
}

func newTestAdmin() *model.Profile {
	return &model.Profile{
		ID:       uuid.New(),
		Email:    "admin@example.org",
		FullName: "Test Admin",
		Role:     model.RoleAdmin,
	}
}

func newTestEntry(studentID uuid.UUID) *model.LogEntry {
	return &model.LogEntry{
		ID:        uuid.New(),
		StudentID: studentID,
		Date:      time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC),
		Location:  "City Hospital ER",
		Specialty: "Emergency Medicine",
		Hours:     7.5,
		Status:    model.LogStatusPending,
	}
}
