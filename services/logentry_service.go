package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/cliniclog/logbook-api/model"
	"github.com/cliniclog/logbook-api/utils/apperr"
	"github.com/cliniclog/logbook-api/utils/validation"
)

// ReviewMailer sends review-outcome notifications to students
type ReviewMailer interface {
	SendLogReviewedEmail(to, studentName string, entry *model.LogEntry) error
}

// LogEntryService drives the review workflow of clinical log entries:
// students create and edit, instructors approve or reject, admins see all.
type LogEntryService struct {
	store  LogEntryStore
	audit  *AuditRecorder
	mailer ReviewMailer
}

// NewLogEntryService creates a new log entry service. mailer may be nil
// when review notifications are disabled.
func NewLogEntryService(store LogEntryStore, audit *AuditRecorder, mailer ReviewMailer) *LogEntryService {
	return &LogEntryService{
		store:  store,
		audit:  audit,
		mailer: mailer,
	}
}

// CreateLogEntryInput carries the student-supplied fields of a new entry
type CreateLogEntryInput struct {
	Date               time.Time
	Location           string
	Specialty          string
	Hours              float64
	Activities         string
	LearningObjectives string
	Reflection         string
	SupervisorName     string
	PatientsSeen       *int

	// Optional patient reference; resolved within the student's institution
	PatientReferenceID string
	PatientAgeGroup    string
	PatientGender      string
}

// Create records a new pending log entry for the acting student
func (s *LogEntryService) Create(ctx context.Context, actor *model.Profile, input CreateLogEntryInput) (*model.LogEntry, error) {
	if !actor.Role.CanSubmitLogs() {
		return nil, apperr.PermissionDenied("Only students can create log entries")
	}
	if input.Hours != 0 && !validation.ValidateHours(input.Hours) {
		return nil, apperr.Validation(fmt.Sprintf("Hours must be between 0 and %.0f", validation.MaxHoursPerEntry))
	}
	if strings.TrimSpace(input.Location) == "" {
		return nil, apperr.Validation("Location is required")
	}
	if input.Date.IsZero() {
		return nil, apperr.Validation("Date is required")
	}

	entry := &model.LogEntry{
		StudentID:          actor.ID,
		Date:               input.Date,
		Location:           input.Location,
		Specialty:          input.Specialty,
		Hours:              input.Hours,
		Activities:         input.Activities,
		LearningObjectives: input.LearningObjectives,
		Reflection:         input.Reflection,
		SupervisorName:     input.SupervisorName,
		PatientsSeen:       input.PatientsSeen,
		Status:             model.LogStatusPending,
	}

	if strings.TrimSpace(input.PatientReferenceID) != "" {
		patient, _, err := s.store.FindOrCreatePatient(ctx, input.PatientReferenceID, actor.InstitutionID, model.Patient{
			AgeGroup: input.PatientAgeGroup,
			Gender:   input.PatientGender,
		})
		if err != nil {
			return nil, apperr.Internal("failed to resolve patient", err)
		}
		entry.PatientID = &patient.ID
	}

	if err := s.store.CreateLogEntry(ctx, entry); err != nil {
		return nil, apperr.Internal("failed to create log entry", err)
	}

	s.audit.Record(ctx, &actor.ID, "create", "log_entry", entry.ID, map[string]interface{}{
		"date":      entry.Date.Format("2006-01-02"),
		"specialty": entry.Specialty,
	})

	return entry, nil
}

// UpdateLogEntryInput carries the editable fields; nil pointers leave a
// field untouched
type UpdateLogEntryInput struct {
	Date               *time.Time
	Location           *string
	Specialty          *string
	Hours              *float64
	Activities         *string
	LearningObjectives *string
	Reflection         *string
	SupervisorName     *string
	PatientsSeen       *int
}

// Update edits a student's own entry. Any edit resets the entry to pending
// and clears the lock, so an already-reviewed or locked entry returns to
// the review queue.
func (s *LogEntryService) Update(ctx context.Context, actor *model.Profile, entryID uuid.UUID, input UpdateLogEntryInput) (*model.LogEntry, error) {
	entry, err := s.getOwnEntry(ctx, actor, entryID)
	if err != nil {
		return nil, err
	}

	if input.Hours != nil {
		if *input.Hours != 0 && !validation.ValidateHours(*input.Hours) {
			return nil, apperr.Validation(fmt.Sprintf("Hours must be between 0 and %.0f", validation.MaxHoursPerEntry))
		}
		entry.Hours = *input.Hours
	}
	if input.Date != nil {
		entry.Date = *input.Date
	}
	if input.Location != nil {
		if strings.TrimSpace(*input.Location) == "" {
			return nil, apperr.Validation("Location cannot be empty")
		}
		entry.Location = *input.Location
	}
	if input.Specialty != nil {
		entry.Specialty = *input.Specialty
	}
	if input.Activities != nil {
		entry.Activities = *input.Activities
	}
	if input.LearningObjectives != nil {
		entry.LearningObjectives = *input.LearningObjectives
	}
	if input.Reflection != nil {
		entry.Reflection = *input.Reflection
	}
	if input.SupervisorName != nil {
		entry.SupervisorName = *input.SupervisorName
	}
	if input.PatientsSeen != nil {
		entry.PatientsSeen = input.PatientsSeen
	}

	entry.Status = model.LogStatusPending
	entry.Feedback = ""
	entry.IsLocked = false

	if err := s.store.SaveLogEntry(ctx, entry); err != nil {
		return nil, apperr.Internal("failed to update log entry", err)
	}

	s.audit.Record(ctx, &actor.ID, "update", "log_entry", entry.ID, nil)

	return entry, nil
}

// Delete removes a student's own entry. Locked entries cannot be deleted.
func (s *LogEntryService) Delete(ctx context.Context, actor *model.Profile, entryID uuid.UUID) error {
	entry, err := s.getOwnEntry(ctx, actor, entryID)
	if err != nil {
		return err
	}
	if entry.IsLocked {
		return apperr.BusinessLogic("Locked entries cannot be deleted")
	}

	if err := s.store.DeleteLogEntry(ctx, entry.ID); err != nil {
		return apperr.Internal("failed to delete log entry", err)
	}

	s.audit.Record(ctx, &actor.ID, "delete", "log_entry", entry.ID, nil)

	return nil
}

// Get loads one entry, enforcing visibility: students see their own,
// instructors see entries of their actively assigned students, admins see all.
func (s *LogEntryService) Get(ctx context.Context, actor *model.Profile, entryID uuid.UUID) (*model.LogEntry, error) {
	entry, err := s.store.LogEntryByID(ctx, entryID)
	if err != nil {
		if errors.Is(err, ErrRecordNotFound) {
			return nil, apperr.NotFound("Log entry not found")
		}
		return nil, apperr.Internal("failed to load log entry", err)
	}

	switch {
	case actor.Role.CanManageUsers():
		return entry, nil
	case actor.Role == model.RoleStudent && entry.StudentID == actor.ID:
		return entry, nil
	case actor.Role.CanReviewLogs():
		ok, err := s.store.HasActiveAssignment(ctx, entry.StudentID, actor.ID)
		if err != nil {
			return nil, apperr.Internal("failed to check assignment", err)
		}
		if ok {
			return entry, nil
		}
	}
	return nil, apperr.PermissionDenied("You do not have access to this log entry")
}

// ListForStudent returns the student's own entries, newest first
func (s *LogEntryService) ListForStudent(ctx context.Context, studentID uuid.UUID, status string, limit, offset int) ([]model.LogEntry, int64, error) {
	entries, total, err := s.store.ListLogEntries(ctx, ListLogEntriesOptions{
		StudentID: &studentID,
		Status:    status,
		Limit:     limit,
		Offset:    offset,
	})
	if err != nil {
		return nil, 0, apperr.Internal("failed to list log entries", err)
	}
	return entries, total, nil
}

// ListForInstructor returns entries of the instructor's actively assigned
// students. Status narrows the listing; "pending" yields the review queue.
func (s *LogEntryService) ListForInstructor(ctx context.Context, actor *model.Profile, status string, limit, offset int) ([]model.LogEntry, int64, error) {
	if !actor.Role.CanReviewLogs() {
		return nil, 0, apperr.PermissionDenied("Only instructors can list assigned entries")
	}

	studentIDs, err := s.store.ActiveStudentIDsForPreceptor(ctx, actor.ID)
	if err != nil {
		return nil, 0, apperr.Internal("failed to load assigned students", err)
	}
	if len(studentIDs) == 0 {
		return []model.LogEntry{}, 0, nil
	}

	entries, total, err := s.store.ListLogEntries(ctx, ListLogEntriesOptions{
		StudentIDs: studentIDs,
		Status:     status,
		Limit:      limit,
		Offset:     offset,
	})
	if err != nil {
		return nil, 0, apperr.Internal("failed to list log entries", err)
	}
	return entries, total, nil
}

// ListAll returns every entry for the admin view
func (s *LogEntryService) ListAll(ctx context.Context, status string, limit, offset int) ([]model.LogEntry, int64, error) {
	entries, total, err := s.store.ListLogEntries(ctx, ListLogEntriesOptions{
		Status: status,
		Limit:  limit,
		Offset: offset,
	})
	if err != nil {
		return nil, 0, apperr.Internal("failed to list log entries", err)
	}
	return entries, total, nil
}

// Approve marks an entry approved, with optional feedback. Only an
// instructor with an active assignment to the entry's student may review it.
func (s *LogEntryService) Approve(ctx context.Context, actor *model.Profile, entryID uuid.UUID, feedback string) (*model.LogEntry, error) {
	entry, err := s.getReviewableEntry(ctx, actor, entryID)
	if err != nil {
		return nil, err
	}

	entry.Status = model.LogStatusApproved
	entry.Feedback = feedback
	if err := s.store.SaveLogEntry(ctx, entry); err != nil {
		return nil, apperr.Internal("failed to save review", err)
	}

	s.audit.Record(ctx, &actor.ID, "approve", "log_entry", entry.ID, map[string]interface{}{
		"student_id": entry.StudentID.String(),
	})
	s.notifyStudent(entry)

	return entry, nil
}

// Reject marks an entry rejected. Feedback is mandatory so the student
// knows what to fix.
func (s *LogEntryService) Reject(ctx context.Context, actor *model.Profile, entryID uuid.UUID, feedback string) (*model.LogEntry, error) {
	if strings.TrimSpace(feedback) == "" {
		return nil, apperr.Validation("Feedback is required when rejecting a log entry")
	}

	entry, err := s.getReviewableEntry(ctx, actor, entryID)
	if err != nil {
		return nil, err
	}

	entry.Status = model.LogStatusRejected
	entry.Feedback = feedback
	if err := s.store.SaveLogEntry(ctx, entry); err != nil {
		return nil, apperr.Internal("failed to save review", err)
	}

	s.audit.Record(ctx, &actor.ID, "reject", "log_entry", entry.ID, map[string]interface{}{
		"student_id": entry.StudentID.String(),
	})
	s.notifyStudent(entry)

	return entry, nil
}

// BulkLock locks the given entries of the acting student so they can no
// longer be edited or deleted until an instructor review resets them.
// Returns how many rows were actually locked; ids belonging to other
// students are ignored, not an error.
func (s *LogEntryService) BulkLock(ctx context.Context, actor *model.Profile, entryIDs []uuid.UUID) (int64, error) {
	if !actor.Role.CanSubmitLogs() {
		return 0, apperr.PermissionDenied("Only students can lock their log entries")
	}
	if len(entryIDs) == 0 {
		return 0, apperr.Validation("No log entries given")
	}

	locked, err := s.store.LockLogEntries(ctx, actor.ID, entryIDs)
	if err != nil {
		return 0, apperr.Internal("failed to lock log entries", err)
	}

	s.audit.Record(ctx, &actor.ID, "bulk_lock", "log_entry", actor.ID, map[string]interface{}{
		"requested": len(entryIDs),
		"locked":    locked,
	})

	return locked, nil
}

// RecordAttestation stores the metadata of an uploaded attestation document
func (s *LogEntryService) RecordAttestation(ctx context.Context, actor *model.Profile, attachment *model.LogAttachment) error {
	if !actor.Role.CanSubmitLogs() {
		return apperr.PermissionDenied("Only students can upload attestations")
	}
	if attachment.StudentID != actor.ID {
		return apperr.PermissionDenied("You can only upload your own attestations")
	}

	if err := s.store.CreateLogAttachment(ctx, attachment); err != nil {
		return apperr.Internal("failed to record attestation", err)
	}

	s.audit.Record(ctx, &actor.ID, "upload_attestation", "log_attachment", attachment.ID, map[string]interface{}{
		"file_name":  attachment.FileName,
		"page_count": attachment.PageCount,
	})

	return nil
}

// AssignedStudents lists the students actively assigned to the instructor
func (s *LogEntryService) AssignedStudents(ctx context.Context, actor *model.Profile) ([]model.Profile, error) {
	if !actor.Role.CanReviewLogs() {
		return nil, apperr.PermissionDenied("Only instructors have assigned students")
	}
	students, err := s.store.StudentsForPreceptor(ctx, actor.ID)
	if err != nil {
		return nil, apperr.Internal("failed to load assigned students", err)
	}
	return students, nil
}

func (s *LogEntryService) getOwnEntry(ctx context.Context, actor *model.Profile, entryID uuid.UUID) (*model.LogEntry, error) {
	if !actor.Role.CanSubmitLogs() {
		return nil, apperr.PermissionDenied("Only students can modify log entries")
	}
	entry, err := s.store.LogEntryByID(ctx, entryID)
	if err != nil {
		if errors.Is(err, ErrRecordNotFound) {
			return nil, apperr.NotFound("Log entry not found")
		}
		return nil, apperr.Internal("failed to load log entry", err)
	}
	if entry.StudentID != actor.ID {
		return nil, apperr.PermissionDenied("You can only modify your own log entries")
	}
	return entry, nil
}

func (s *LogEntryService) getReviewableEntry(ctx context.Context, actor *model.Profile, entryID uuid.UUID) (*model.LogEntry, error) {
	if !actor.Role.CanReviewLogs() {
		return nil, apperr.PermissionDenied("Only instructors can review log entries")
	}
	entry, err := s.store.LogEntryByID(ctx, entryID)
	if err != nil {
		if errors.Is(err, ErrRecordNotFound) {
			return nil, apperr.NotFound("Log entry not found")
		}
		return nil, apperr.Internal("failed to load log entry", err)
	}

	ok, err := s.store.HasActiveAssignment(ctx, entry.StudentID, actor.ID)
	if err != nil {
		return nil, apperr.Internal("failed to check assignment", err)
	}
	if !ok {
		return nil, apperr.PermissionDenied("This student is not assigned to you")
	}
	return entry, nil
}

// notifyStudent emails the entry's student about the review outcome.
// Best-effort: failures only log.
func (s *LogEntryService) notifyStudent(entry *model.LogEntry) {
	if s.mailer == nil || entry.Student == nil {
		return
	}
	if err := s.mailer.SendLogReviewedEmail(entry.Student.Email, entry.Student.FullName, entry); err != nil {
		log.Printf("email: failed to notify %s about log review: %v", entry.Student.Email, err)
	}
}
