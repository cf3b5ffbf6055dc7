package services

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	"github.com/cliniclog/logbook-api/model"
	"github.com/cliniclog/logbook-api/utils/apperr"
)

type mockReviewMailer struct {
	sent []string
}

func (m *mockReviewMailer) SendLogReviewedEmail(to, studentName string, entry *model.LogEntry) error {
	m.sent = append(m.sent, to)
	return nil
}

func newLogEntryService(stores *MockStores, mailer ReviewMailer) *LogEntryService {
	return NewLogEntryService(stores, NewAuditRecorder(stores), mailer)
}

func TestLogEntryCreate_Success(t *testing.T) {
	student := newTestStudent()

	var saved *model.LogEntry
	stores := &MockStores{
		CreateLogEntryFunc: func(ctx context.Context, entry *model.LogEntry) error {
			entry.ID = uuid.New()
			saved = entry
			return nil
		},
	}

	svc := newLogEntryService(stores, nil)
	entry, err := svc.Create(context.Background(), student, CreateLogEntryInput{
		Date:      time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC),
		Location:  "City Hospital ER",
		Specialty: "Emergency Medicine",
		Hours:     7.5,
	})

	assert.NoError(t, err)
	assert.Equal(t, model.LogStatusPending, entry.Status)
	assert.Equal(t, student.ID, entry.StudentID)
	assert.NotNil(t, saved)
	assert.Nil(t, entry.PatientID)
}

func TestLogEntryCreate_ResolvesPatientReference(t *testing.T) {
	student := newTestStudent()
	patient := &model.Patient{ID: uuid.New(), ReferenceID: "MRN-7"}

	stores := &MockStores{
		FindOrCreatePatientFunc: func(ctx context.Context, referenceID string, institutionID *uuid.UUID, defaults model.Patient) (*model.Patient, bool, error) {
			assert.Equal(t, "MRN-7", referenceID)
			assert.Equal(t, student.InstitutionID, institutionID)
			return patient, false, nil
		},
		CreateLogEntryFunc: func(ctx context.Context, entry *model.LogEntry) error {
			entry.ID = uuid.New()
			return nil
		},
	}

	svc := newLogEntryService(stores, nil)
	entry, err := svc.Create(context.Background(), student, CreateLogEntryInput{
		Date:               time.Now(),
		Location:           "Clinic",
		Hours:              2,
		PatientReferenceID: "MRN-7",
	})

	assert.NoError(t, err)
	assert.Equal(t, &patient.ID, entry.PatientID)
}

func TestLogEntryCreate_HoursValidation(t *testing.T) {
	student := newTestStudent()
	svc := newLogEntryService(&MockStores{}, nil)

	for _, hours := range []float64{-1, 24.5, 100} {
		_, err := svc.Create(context.Background(), student, CreateLogEntryInput{
			Date:     time.Now(),
			Location: "Clinic",
			Hours:    hours,
		})
		assert.True(t, apperr.IsValidation(err), "hours %v must be rejected", hours)
	}
}

func TestLogEntryCreate_ZeroHoursAllowed(t *testing.T) {
	student := newTestStudent()
	stores := &MockStores{
		CreateLogEntryFunc: func(ctx context.Context, entry *model.LogEntry) error {
			entry.ID = uuid.New()
			return nil
		},
	}

	svc := newLogEntryService(stores, nil)
	entry, err := svc.Create(context.Background(), student, CreateLogEntryInput{
		Date:     time.Now(),
		Location: "Clinic",
	})

	assert.NoError(t, err)
	assert.Zero(t, entry.Hours)
}

func TestLogEntryCreate_InstructorForbidden(t *testing.T) {
	svc := newLogEntryService(&MockStores{}, nil)
	_, err := svc.Create(context.Background(), newTestInstructor(), CreateLogEntryInput{
		Date:     time.Now(),
		Location: "Clinic",
	})
	assert.True(t, apperr.IsPermissionDenied(err))
}

func TestLogEntryUpdate_ResetsStatusAndLock(t *testing.T) {
	student := newTestStudent()
	entry := newTestEntry(student.ID)
	entry.Status = model.LogStatusApproved
	entry.Feedback = "good work"
	entry.IsLocked = true

	stores := &MockStores{
		LogEntryByIDFunc: func(ctx context.Context, id uuid.UUID) (*model.LogEntry, error) {
			return entry, nil
		},
		SaveLogEntryFunc: func(ctx context.Context, e *model.LogEntry) error {
			return nil
		},
	}

	svc := newLogEntryService(stores, nil)
	location := "New Clinic"
	updated, err := svc.Update(context.Background(), student, entry.ID, UpdateLogEntryInput{
		Location: &location,
	})

	assert.NoError(t, err)
	assert.Equal(t, model.LogStatusPending, updated.Status)
	assert.Empty(t, updated.Feedback)
	assert.False(t, updated.IsLocked)
	assert.Equal(t, "New Clinic", updated.Location)
}

func TestLogEntryUpdate_NotOwner(t *testing.T) {
	student := newTestStudent()
	other := newTestStudent()
	entry := newTestEntry(other.ID)

	stores := &MockStores{
		LogEntryByIDFunc: func(ctx context.Context, id uuid.UUID) (*model.LogEntry, error) {
			return entry, nil
		},
	}

	svc := newLogEntryService(stores, nil)
	_, err := svc.Update(context.Background(), student, entry.ID, UpdateLogEntryInput{})

	assert.True(t, apperr.IsPermissionDenied(err))
}

func TestLogEntryDelete_LockedRejected(t *testing.T) {
	student := newTestStudent()
	entry := newTestEntry(student.ID)
	entry.IsLocked = true

	stores := &MockStores{
		LogEntryByIDFunc: func(ctx context.Context, id uuid.UUID) (*model.LogEntry, error) {
			return entry, nil
		},
	}

	svc := newLogEntryService(stores, nil)
	err := svc.Delete(context.Background(), student, entry.ID)

	assert.True(t, apperr.HasCode(err, apperr.CodeBusinessLogic))
}

func TestApprove_Success(t *testing.T) {
	student := newTestStudent()
	preceptor := newTestInstructor()
	entry := newTestEntry(student.ID)
	entry.Student = student

	mailer := &mockReviewMailer{}
	stores := &MockStores{
		LogEntryByIDFunc: func(ctx context.Context, id uuid.UUID) (*model.LogEntry, error) {
			return entry, nil
		},
		HasActiveAssignmentFunc: func(ctx context.Context, studentID, preceptorID uuid.UUID) (bool, error) {
			assert.Equal(t, student.ID, studentID)
			assert.Equal(t, preceptor.ID, preceptorID)
			return true, nil
		},
		SaveLogEntryFunc: func(ctx context.Context, e *model.LogEntry) error {
			return nil
		},
	}

	svc := newLogEntryService(stores, mailer)
	reviewed, err := svc.Approve(context.Background(), preceptor, entry.ID, "well documented")

	assert.NoError(t, err)
	assert.Equal(t, model.LogStatusApproved, reviewed.Status)
	assert.Equal(t, "well documented", reviewed.Feedback)
	assert.Equal(t, []string{student.Email}, mailer.sent)
	assert.EqualValues(t, 1, stores.CreateAuditEventCallCount)
}

func TestApprove_NoActiveAssignment(t *testing.T) {
	preceptor := newTestInstructor()
	entry := newTestEntry(uuid.New())

	stores := &MockStores{
		LogEntryByIDFunc: func(ctx context.Context, id uuid.UUID) (*model.LogEntry, error) {
			return entry, nil
		},
		HasActiveAssignmentFunc: func(ctx context.Context, studentID, preceptorID uuid.UUID) (bool, error) {
			return false, nil
		},
	}

	svc := newLogEntryService(stores, nil)
	_, err := svc.Approve(context.Background(), preceptor, entry.ID, "")

	assert.True(t, apperr.IsPermissionDenied(err))
}

func TestReject_RequiresFeedback(t *testing.T) {
	svc := newLogEntryService(&MockStores{}, nil)

	for _, feedback := range []string{"", "   ", "\t\n"} {
		_, err := svc.Reject(context.Background(), newTestInstructor(), uuid.New(), feedback)
		assert.True(t, apperr.IsValidation(err), "feedback %q must be rejected", feedback)
	}
}

func TestReject_Success(t *testing.T) {
	student := newTestStudent()
	preceptor := newTestInstructor()
	entry := newTestEntry(student.ID)
	entry.Student = student

	mailer := &mockReviewMailer{}
	stores := &MockStores{
		LogEntryByIDFunc: func(ctx context.Context, id uuid.UUID) (*model.LogEntry, error) {
			return entry, nil
		},
		HasActiveAssignmentFunc: func(ctx context.Context, studentID, preceptorID uuid.UUID) (bool, error) {
			return true, nil
		},
		SaveLogEntryFunc: func(ctx context.Context, e *model.LogEntry) error {
			return nil
		},
	}

	svc := newLogEntryService(stores, mailer)
	reviewed, err := svc.Reject(context.Background(), preceptor, entry.ID, "hours do not match the roster")

	assert.NoError(t, err)
	assert.Equal(t, model.LogStatusRejected, reviewed.Status)
	assert.Equal(t, "hours do not match the roster", reviewed.Feedback)
	assert.Equal(t, []string{student.Email}, mailer.sent)
}

func TestBulkLock_IgnoresForeignEntries(t *testing.T) {
	student := newTestStudent()
	ids := []uuid.UUID{uuid.New(), uuid.New(), uuid.New()}

	stores := &MockStores{
		LockLogEntriesFunc: func(ctx context.Context, studentID uuid.UUID, got []uuid.UUID) (int64, error) {
			assert.Equal(t, student.ID, studentID)
			assert.Equal(t, ids, got)
			return 2, nil // one id belonged to someone else
		},
	}

	svc := newLogEntryService(stores, nil)
	locked, err := svc.BulkLock(context.Background(), student, ids)

	assert.NoError(t, err)
	assert.EqualValues(t, 2, locked)
}

func TestBulkLock_EmptyRejected(t *testing.T) {
	svc := newLogEntryService(&MockStores{}, nil)
	_, err := svc.BulkLock(context.Background(), newTestStudent(), nil)
	assert.True(t, apperr.IsValidation(err))
}

func TestListForInstructor_NoStudents(t *testing.T) {
	preceptor := newTestInstructor()

	stores := &MockStores{
		ActiveStudentIDsForPreceptorFunc: func(ctx context.Context, preceptorID uuid.UUID) ([]uuid.UUID, error) {
			return nil, nil
		},
	}

	svc := newLogEntryService(stores, nil)
	entries, total, err := svc.ListForInstructor(context.Background(), preceptor, "pending", 20, 0)

	assert.NoError(t, err)
	assert.Empty(t, entries)
	assert.Zero(t, total)
}

func TestGet_Visibility(t *testing.T) {
	student := newTestStudent()
	otherStudent := newTestStudent()
	entry := newTestEntry(student.ID)

	stores := &MockStores{
		LogEntryByIDFunc: func(ctx context.Context, id uuid.UUID) (*model.LogEntry, error) {
			return entry, nil
		},
		HasActiveAssignmentFunc: func(ctx context.Context, studentID, preceptorID uuid.UUID) (bool, error) {
			return false, nil
		},
	}
	svc := newLogEntryService(stores, nil)

	// Owner sees it
	got, err := svc.Get(context.Background(), student, entry.ID)
	assert.NoError(t, err)
	assert.Equal(t, entry.ID, got.ID)

	// Admin sees it
	_, err = svc.Get(context.Background(), newTestAdmin(), entry.ID)
	assert.NoError(t, err)

	// Another student does not
	_, err = svc.Get(context.Background(), otherStudent, entry.ID)
	assert.True(t, apperr.IsPermissionDenied(err))

	// An unassigned instructor does not
	_, err = svc.Get(context.Background(), newTestInstructor(), entry.ID)
	assert.True(t, apperr.IsPermissionDenied(err))
}

func TestRecordAttestation_OwnOnly(t *testing.T) {
	student := newTestStudent()

	stores := &MockStores{
		CreateLogAttachmentFunc: func(ctx context.Context, attachment *model.LogAttachment) error {
			attachment.ID = uuid.New()
			return nil
		},
	}
	svc := newLogEntryService(stores, nil)

	err := svc.RecordAttestation(context.Background(), student, &model.LogAttachment{
		StudentID: student.ID,
		FileName:  "attestation.pdf",
	})
	assert.NoError(t, err)

	err = svc.RecordAttestation(context.Background(), student, &model.LogAttachment{
		StudentID: uuid.New(),
		FileName:  "attestation.pdf",
	})
	assert.True(t, apperr.IsPermissionDenied(err))
}
