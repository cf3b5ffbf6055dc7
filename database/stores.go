package database

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/cliniclog/logbook-api/model"
	"github.com/cliniclog/logbook-api/services"
)

// Stores is the GORM-backed implementation of the service store contracts.
// All methods run against the wrapped *gorm.DB, which may be a transaction.
type Stores struct {
	db *gorm.DB
}

// NewStores creates the store set over a GORM connection
func NewStores(db *gorm.DB) *Stores {
	return &Stores{db: db}
}

var _ services.AssignmentStore = (*Stores)(nil)
var _ services.LogEntryStore = (*Stores)(nil)
var _ services.InvitationStore = (*Stores)(nil)
var _ services.AuditStore = (*Stores)(nil)

// InTransaction runs fn against a transactional copy of the store set
func (s *Stores) InTransaction(ctx context.Context, fn func(tx services.TxStores) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&Stores{db: tx})
	})
}

func isUniqueViolation(err error) bool {
	// 23505 is the Postgres unique_violation class; GORM also surfaces
	// its own sentinel for duplicated keys.
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	return err != nil && strings.Contains(err.Error(), "23505")
}

// ---- Profiles ----

// ProfileByID fetches a profile by primary key
func (s *Stores) ProfileByID(ctx context.Context, id uuid.UUID) (*model.Profile, error) {
	var profile model.Profile
	err := s.db.WithContext(ctx).First(&profile, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, services.ErrRecordNotFound
	}
	if err != nil {
		return nil, err
	}
	return &profile, nil
}

// ProfileByEmail fetches a profile by email
func (s *Stores) ProfileByEmail(ctx context.Context, email string) (*model.Profile, error) {
	var profile model.Profile
	err := s.db.WithContext(ctx).First(&profile, "email = ?", email).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, services.ErrRecordNotFound
	}
	if err != nil {
		return nil, err
	}
	return &profile, nil
}

// CreateProfile inserts a new profile
func (s *Stores) CreateProfile(ctx context.Context, profile *model.Profile) error {
	err := s.db.WithContext(ctx).Create(profile).Error
	if isUniqueViolation(err) {
		return services.ErrDuplicateRecord
	}
	return err
}

// SaveProfile persists field updates on an existing profile
func (s *Stores) SaveProfile(ctx context.Context, profile *model.Profile) error {
	return s.db.WithContext(ctx).Save(profile).Error
}

// ---- Invitations ----

// InvitationByEmail fetches an invitation by its email primary key
func (s *Stores) InvitationByEmail(ctx context.Context, email string) (*model.AuthorizedInvitation, error) {
	var invitation model.AuthorizedInvitation
	err := s.db.WithContext(ctx).First(&invitation, "email = ?", email).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, services.ErrRecordNotFound
	}
	if err != nil {
		return nil, err
	}
	return &invitation, nil
}

// CreateInvitation inserts a new invitation
func (s *Stores) CreateInvitation(ctx context.Context, invitation *model.AuthorizedInvitation) error {
	err := s.db.WithContext(ctx).Create(invitation).Error
	if isUniqueViolation(err) {
		return services.ErrDuplicateRecord
	}
	return err
}

// SaveInvitation persists field updates on an existing invitation
func (s *Stores) SaveInvitation(ctx context.Context, invitation *model.AuthorizedInvitation) error {
	return s.db.WithContext(ctx).Save(invitation).Error
}

// ListInvitations returns all invitations, newest first
func (s *Stores) ListInvitations(ctx context.Context) ([]model.AuthorizedInvitation, error) {
	var invitations []model.AuthorizedInvitation
	err := s.db.WithContext(ctx).Order("created_at DESC").Find(&invitations).Error
	return invitations, err
}

// ---- Patients ----

// PatientByID fetches a patient by primary key
func (s *Stores) PatientByID(ctx context.Context, id uuid.UUID) (*model.Patient, error) {
	var patient model.Patient
	err := s.db.WithContext(ctx).First(&patient, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, services.ErrRecordNotFound
	}
	if err != nil {
		return nil, err
	}
	return &patient, nil
}

// FindOrCreatePatient resolves a patient by (reference_id, institution),
// creating it with the given defaults when absent. Idempotent under the
// unique index on the pair.
func (s *Stores) FindOrCreatePatient(ctx context.Context, referenceID string, institutionID *uuid.UUID, defaults model.Patient) (*model.Patient, bool, error) {
	var patient model.Patient

	query := s.db.WithContext(ctx).Where("reference_id = ?", referenceID)
	if institutionID != nil {
		query = query.Where("institution_id = ?", *institutionID)
	} else {
		query = query.Where("institution_id IS NULL")
	}

	err := query.First(&patient).Error
	if err == nil {
		return &patient, false, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, false, err
	}

	patient = defaults
	patient.ReferenceID = referenceID
	patient.InstitutionID = institutionID

	if err := s.db.WithContext(ctx).Create(&patient).Error; err != nil {
		// Lost a create race: the unique index guarantees the row now exists.
		if isUniqueViolation(err) {
			if ferr := query.First(&patient).Error; ferr == nil {
				return &patient, false, nil
			}
		}
		return nil, false, err
	}

	return &patient, true, nil
}

// ---- Preceptor assignments ----

// ActivePreceptorAssignmentExists reports whether the student already has an
// active link to the preceptor
func (s *Stores) ActivePreceptorAssignmentExists(ctx context.Context, studentID, preceptorID uuid.UUID) (bool, error) {
	var count int64
	err := s.db.WithContext(ctx).
		Model(&model.StudentPreceptorAssignment{}).
		Where("student_id = ? AND preceptor_id = ? AND status = ?", studentID, preceptorID, model.AssignmentActive).
		Count(&count).
		Error
	return count > 0, err
}

// CountActivePreceptorAssignmentsForUpdate counts a preceptor's active
// assignments while row-locking them, so a concurrent assign cannot pass the
// capacity check on the same snapshot. Must be called inside a transaction.
func (s *Stores) CountActivePreceptorAssignmentsForUpdate(ctx context.Context, preceptorID uuid.UUID) (int64, error) {
	var rows []model.StudentPreceptorAssignment
	err := s.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("preceptor_id = ? AND status = ?", preceptorID, model.AssignmentActive).
		Find(&rows).
		Error
	return int64(len(rows)), err
}

// CreatePreceptorAssignment inserts a student-preceptor link
func (s *Stores) CreatePreceptorAssignment(ctx context.Context, assignment *model.StudentPreceptorAssignment) error {
	err := s.db.WithContext(ctx).Create(assignment).Error
	if isUniqueViolation(err) {
		return services.ErrDuplicateRecord
	}
	return err
}

// ActiveAssignmentForStudent returns the student's active preceptor link, if any
func (s *Stores) ActiveAssignmentForStudent(ctx context.Context, studentID uuid.UUID) (*model.StudentPreceptorAssignment, error) {
	var assignment model.StudentPreceptorAssignment
	err := s.db.WithContext(ctx).
		Preload("Preceptor").
		Where("student_id = ? AND status = ?", studentID, model.AssignmentActive).
		First(&assignment).
		Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, services.ErrRecordNotFound
	}
	if err != nil {
		return nil, err
	}
	return &assignment, nil
}

// ListPreceptorAssignments lists all student-preceptor links with both profiles
func (s *Stores) ListPreceptorAssignments(ctx context.Context) ([]model.StudentPreceptorAssignment, error) {
	var assignments []model.StudentPreceptorAssignment
	err := s.db.WithContext(ctx).
		Preload("Student").
		Preload("Preceptor").
		Order("assigned_at DESC").
		Find(&assignments).
		Error
	return assignments, err
}

// PreceptorLoads reports, for every instructor, the fresh count of active
// assignments plus their invitation status. Never cached: this view gates
// the capacity check.
func (s *Stores) PreceptorLoads(ctx context.Context) ([]services.PreceptorLoad, error) {
	var loads []services.PreceptorLoad
	err := s.db.WithContext(ctx).
		Model(&model.Profile{}).
		Select(`profiles.id,
			profiles.full_name,
			profiles.email,
			COUNT(a.id) FILTER (WHERE a.status = ?) AS active_student_count,
			COALESCE(i.status, ?) AS registration_status`,
			model.AssignmentActive, model.InvitationRegistered).
		Joins("LEFT JOIN student_preceptor_assignments a ON a.preceptor_id = profiles.id").
		Joins("LEFT JOIN authorized_invitations i ON i.email = profiles.email").
		Where("profiles.role = ?", model.RoleInstructor).
		Group("profiles.id, profiles.full_name, profiles.email, i.status").
		Order("profiles.full_name").
		Scan(&loads).
		Error
	return loads, err
}

// ---- Patient assignments ----

// PatientAssignmentExists reports whether the (student, patient) pair is linked
func (s *Stores) PatientAssignmentExists(ctx context.Context, studentID, patientID uuid.UUID) (bool, error) {
	var count int64
	err := s.db.WithContext(ctx).
		Model(&model.StudentPatientAssignment{}).
		Where("student_id = ? AND patient_id = ?", studentID, patientID).
		Count(&count).
		Error
	return count > 0, err
}

// CreatePatientAssignment inserts a student-patient link
func (s *Stores) CreatePatientAssignment(ctx context.Context, assignment *model.StudentPatientAssignment) error {
	err := s.db.WithContext(ctx).Create(assignment).Error
	if isUniqueViolation(err) {
		return services.ErrDuplicateRecord
	}
	return err
}

// PatientsForStudent lists patients linked to the student
func (s *Stores) PatientsForStudent(ctx context.Context, studentID uuid.UUID) ([]model.Patient, error) {
	var patients []model.Patient
	err := s.db.WithContext(ctx).
		Joins("JOIN student_patient_assignments spa ON spa.patient_id = patients.id").
		Where("spa.student_id = ?", studentID).
		Order("patients.reference_id").
		Find(&patients).
		Error
	return patients, err
}

// InstructorsForInstitution lists the instructor profiles at an institution
func (s *Stores) InstructorsForInstitution(ctx context.Context, institutionID uuid.UUID) ([]model.Profile, error) {
	var instructors []model.Profile
	err := s.db.WithContext(ctx).
		Where("role = ? AND institution_id = ?", model.RoleInstructor, institutionID).
		Order("full_name").
		Find(&instructors).
		Error
	return instructors, err
}

// ---- Log entries ----

// CreateLogEntry inserts a new log entry
func (s *Stores) CreateLogEntry(ctx context.Context, entry *model.LogEntry) error {
	return s.db.WithContext(ctx).Create(entry).Error
}

// LogEntryByID fetches a log entry with its student preloaded
func (s *Stores) LogEntryByID(ctx context.Context, id uuid.UUID) (*model.LogEntry, error) {
	var entry model.LogEntry
	err := s.db.WithContext(ctx).
		Preload("Student").
		Preload("Patient").
		First(&entry, "id = ?", id).
		Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, services.ErrRecordNotFound
	}
	if err != nil {
		return nil, err
	}
	return &entry, nil
}

// SaveLogEntry persists field updates on an existing log entry
func (s *Stores) SaveLogEntry(ctx context.Context, entry *model.LogEntry) error {
	return s.db.WithContext(ctx).Save(entry).Error
}

// DeleteLogEntry soft-deletes a log entry
func (s *Stores) DeleteLogEntry(ctx context.Context, id uuid.UUID) error {
	return s.db.WithContext(ctx).Delete(&model.LogEntry{}, "id = ?", id).Error
}

// ListLogEntries lists entries for the given filter, newest first
func (s *Stores) ListLogEntries(ctx context.Context, opts services.ListLogEntriesOptions) ([]model.LogEntry, int64, error) {
	query := s.db.WithContext(ctx).Model(&model.LogEntry{})

	if opts.StudentID != nil {
		query = query.Where("student_id = ?", *opts.StudentID)
	}
	if len(opts.StudentIDs) > 0 {
		query = query.Where("student_id IN ?", opts.StudentIDs)
	}
	if opts.Status != "" {
		query = query.Where("status = ?", opts.Status)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	query = query.Preload("Student").Order("submitted_at DESC")
	if opts.Limit > 0 {
		query = query.Offset(opts.Offset).Limit(opts.Limit)
	}

	var entries []model.LogEntry
	if err := query.Find(&entries).Error; err != nil {
		return nil, 0, err
	}
	return entries, total, nil
}

// ActiveStudentIDsForPreceptor returns ids of students actively assigned to
// the preceptor
func (s *Stores) ActiveStudentIDsForPreceptor(ctx context.Context, preceptorID uuid.UUID) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	err := s.db.WithContext(ctx).
		Model(&model.StudentPreceptorAssignment{}).
		Where("preceptor_id = ? AND status = ?", preceptorID, model.AssignmentActive).
		Pluck("student_id", &ids).
		Error
	return ids, err
}

// StudentsForPreceptor lists the profiles of actively assigned students
func (s *Stores) StudentsForPreceptor(ctx context.Context, preceptorID uuid.UUID) ([]model.Profile, error) {
	var students []model.Profile
	err := s.db.WithContext(ctx).
		Joins("JOIN student_preceptor_assignments spa ON spa.student_id = profiles.id").
		Where("spa.preceptor_id = ? AND spa.status = ?", preceptorID, model.AssignmentActive).
		Order("profiles.full_name").
		Find(&students).
		Error
	return students, err
}

// HasActiveAssignment reports whether the preceptor actively supervises the student
func (s *Stores) HasActiveAssignment(ctx context.Context, studentID, preceptorID uuid.UUID) (bool, error) {
	return s.ActivePreceptorAssignmentExists(ctx, studentID, preceptorID)
}

// LockLogEntries marks the student's entries with the given ids as locked.
// Entries not owned by the student are ignored.
func (s *Stores) LockLogEntries(ctx context.Context, studentID uuid.UUID, ids []uuid.UUID) (int64, error) {
	result := s.db.WithContext(ctx).
		Model(&model.LogEntry{}).
		Where("student_id = ? AND id IN ?", studentID, ids).
		Update("is_locked", true)
	return result.RowsAffected, result.Error
}

// ---- Audit events ----

// CreateAuditEvent appends one audit event
func (s *Stores) CreateAuditEvent(ctx context.Context, event *model.AuditEvent) error {
	return s.db.WithContext(ctx).Create(event).Error
}

// ListAuditEvents lists audit events newest first with optional filters
func (s *Stores) ListAuditEvents(ctx context.Context, opts services.ListAuditEventsOptions) ([]model.AuditEvent, int64, error) {
	query := s.db.WithContext(ctx).Model(&model.AuditEvent{})

	if opts.Action != "" {
		query = query.Where("action = ?", opts.Action)
	}
	if opts.EntityType != "" {
		query = query.Where("entity_type = ?", opts.EntityType)
	}
	if opts.Since != nil {
		query = query.Where("created_at >= ?", *opts.Since)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	query = query.Order("created_at DESC")
	if opts.Limit > 0 {
		query = query.Offset(opts.Offset).Limit(opts.Limit)
	}

	var events []model.AuditEvent
	if err := query.Find(&events).Error; err != nil {
		return nil, 0, err
	}
	return events, total, nil
}

// ---- Attachments ----

// CreateLogAttachment records an uploaded attestation
func (s *Stores) CreateLogAttachment(ctx context.Context, attachment *model.LogAttachment) error {
	return s.db.WithContext(ctx).Create(attachment).Error
}

// ---- Operational ----

// PendingReviewCounts returns, per preceptor, how many pending entries their
// assigned students have. Used by the daily reminder digest.
func (s *Stores) PendingReviewCounts(ctx context.Context) ([]services.PendingReviewCount, error) {
	var counts []services.PendingReviewCount
	err := s.db.WithContext(ctx).
		Model(&model.Profile{}).
		Select(`profiles.id AS preceptor_id,
			profiles.email,
			profiles.full_name,
			COUNT(e.id) AS pending_count`).
		Joins(`JOIN student_preceptor_assignments a ON a.preceptor_id = profiles.id AND a.status = ?`, model.AssignmentActive).
		Joins(`JOIN log_entries e ON e.student_id = a.student_id AND e.status = ? AND e.deleted_at IS NULL`, model.LogStatusPending).
		Where("profiles.role = ?", model.RoleInstructor).
		Group("profiles.id, profiles.email, profiles.full_name").
		Having("COUNT(e.id) > 0").
		Scan(&counts).
		Error
	return counts, err
}
