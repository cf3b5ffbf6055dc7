package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/cliniclog/logbook-api/model"
	"github.com/cliniclog/logbook-api/utils/apperr"
)

// AssignmentService mediates the capacity-constrained links between
// students, preceptors and patients.
type AssignmentService struct {
	store AssignmentStore
	audit *AuditRecorder
}

// NewAssignmentService creates a new assignment service
func NewAssignmentService(store AssignmentStore, audit *AuditRecorder) *AssignmentService {
	return &AssignmentService{
		store: store,
		audit: audit,
	}
}

// AssignStudentToPreceptor links a student to a preceptor. Fails with a
// duplicate error when an active link already exists and with a capacity
// error when the preceptor is at the cap. The duplicate check, the
// row-locked capacity recount and the insert run in one transaction, so two
// concurrent calls cannot both observe a count below the cap.
func (s *AssignmentService) AssignStudentToPreceptor(ctx context.Context, actor *model.Profile, studentID, preceptorID uuid.UUID) (*model.StudentPreceptorAssignment, error) {
	student, err := s.store.ProfileByID(ctx, studentID)
	if err != nil {
		if errors.Is(err, ErrRecordNotFound) {
			return nil, apperr.NotFound("Student not found")
		}
		return nil, apperr.Internal("failed to load student", err)
	}
	if student.Role != model.RoleStudent {
		return nil, apperr.Validation("Assignee must have the student role")
	}

	preceptor, err := s.store.ProfileByID(ctx, preceptorID)
	if err != nil {
		if errors.Is(err, ErrRecordNotFound) {
			return nil, apperr.NotFound("Preceptor not found")
		}
		return nil, apperr.Internal("failed to load preceptor", err)
	}
	if preceptor.Role != model.RoleInstructor {
		return nil, apperr.Validation("Supervisor must have the instructor role")
	}

	assignment := &model.StudentPreceptorAssignment{
		StudentID:   studentID,
		PreceptorID: preceptorID,
		Status:      model.AssignmentActive,
	}

	err = s.store.InTransaction(ctx, func(tx TxStores) error {
		exists, err := tx.ActivePreceptorAssignmentExists(ctx, studentID, preceptorID)
		if err != nil {
			return apperr.Internal("failed to check existing assignment", err)
		}
		if exists {
			return apperr.Duplicate("This assignment already exists")
		}

		count, err := tx.CountActivePreceptorAssignmentsForUpdate(ctx, preceptorID)
		if err != nil {
			return apperr.Internal("failed to count active assignments", err)
		}
		if count >= model.MaxStudentsPerPreceptor {
			return apperr.CapacityExceeded(fmt.Sprintf("Preceptor limit reached (max %d students)", model.MaxStudentsPerPreceptor))
		}

		if err := tx.CreatePreceptorAssignment(ctx, assignment); err != nil {
			if errors.Is(err, ErrDuplicateRecord) {
				return apperr.Duplicate("This assignment already exists")
			}
			return apperr.Internal("failed to create assignment", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.audit.Record(ctx, actorID(actor), "assign_student_to_preceptor", "assignment", assignment.ID, map[string]interface{}{
		"student_id":   studentID.String(),
		"preceptor_id": preceptorID.String(),
	})

	return assignment, nil
}

// AssignPatientToStudent links a patient to a student for logging purposes
func (s *AssignmentService) AssignPatientToStudent(ctx context.Context, actor *model.Profile, studentID, patientID uuid.UUID) (*model.StudentPatientAssignment, error) {
	student, err := s.store.ProfileByID(ctx, studentID)
	if err != nil {
		if errors.Is(err, ErrRecordNotFound) {
			return nil, apperr.NotFound("Student not found")
		}
		return nil, apperr.Internal("failed to load student", err)
	}
	if student.Role != model.RoleStudent {
		return nil, apperr.Validation("Assignee must have the student role")
	}

	if _, err := s.store.PatientByID(ctx, patientID); err != nil {
		if errors.Is(err, ErrRecordNotFound) {
			return nil, apperr.NotFound("Patient not found")
		}
		return nil, apperr.Internal("failed to load patient", err)
	}

	exists, err := s.store.PatientAssignmentExists(ctx, studentID, patientID)
	if err != nil {
		return nil, apperr.Internal("failed to check existing assignment", err)
	}
	if exists {
		return nil, apperr.Duplicate("This patient is already assigned to this student")
	}

	assignment := &model.StudentPatientAssignment{
		StudentID:  studentID,
		PatientID:  patientID,
		AssignedBy: actorID(actor),
	}
	if err := s.store.CreatePatientAssignment(ctx, assignment); err != nil {
		if errors.Is(err, ErrDuplicateRecord) {
			return nil, apperr.Duplicate("This patient is already assigned to this student")
		}
		return nil, apperr.Internal("failed to create assignment", err)
	}

	s.audit.Record(ctx, actorID(actor), "assign_patient_to_student", "patient_assignment", assignment.ID, map[string]interface{}{
		"student_id": studentID.String(),
		"patient_id": patientID.String(),
	})

	return assignment, nil
}

// PreceptorLoadReport returns every instructor with their fresh active
// student count and the hard cap
func (s *AssignmentService) PreceptorLoadReport(ctx context.Context) ([]PreceptorLoad, error) {
	loads, err := s.store.PreceptorLoads(ctx)
	if err != nil {
		return nil, apperr.Internal("failed to load preceptor report", err)
	}
	for i := range loads {
		loads[i].MaxStudents = model.MaxStudentsPerPreceptor
	}
	return loads, nil
}

// ListAssignments returns all student-preceptor links for the admin view
func (s *AssignmentService) ListAssignments(ctx context.Context) ([]model.StudentPreceptorAssignment, error) {
	assignments, err := s.store.ListPreceptorAssignments(ctx)
	if err != nil {
		return nil, apperr.Internal("failed to list assignments", err)
	}
	return assignments, nil
}

// PreceptorForStudent returns the student's active preceptor, or nil when unassigned
func (s *AssignmentService) PreceptorForStudent(ctx context.Context, studentID uuid.UUID) (*model.Profile, error) {
	assignment, err := s.store.ActiveAssignmentForStudent(ctx, studentID)
	if err != nil {
		if errors.Is(err, ErrRecordNotFound) {
			return nil, nil
		}
		return nil, apperr.Internal("failed to load assignment", err)
	}
	return assignment.Preceptor, nil
}

// PatientsForStudent lists the patients linked to a student
func (s *AssignmentService) PatientsForStudent(ctx context.Context, studentID uuid.UUID) ([]model.Patient, error) {
	patients, err := s.store.PatientsForStudent(ctx, studentID)
	if err != nil {
		return nil, apperr.Internal("failed to list patients", err)
	}
	return patients, nil
}

// InstitutionInstructors lists the instructors at the student's institution.
// A student without an institution gets an empty list.
func (s *AssignmentService) InstitutionInstructors(ctx context.Context, student *model.Profile) ([]model.Profile, error) {
	if student.InstitutionID == nil {
		return []model.Profile{}, nil
	}
	instructors, err := s.store.InstructorsForInstitution(ctx, *student.InstitutionID)
	if err != nil {
		return nil, apperr.Internal("failed to list instructors", err)
	}
	return instructors, nil
}

// ResolvePatient finds or creates a patient by reference id within the
// student's institution. Idempotent: a second call with the same pair
// returns the existing row.
func (s *AssignmentService) ResolvePatient(ctx context.Context, student *model.Profile, referenceID, ageGroup, gender string) (*model.Patient, error) {
	patient, created, err := s.store.FindOrCreatePatient(ctx, referenceID, student.InstitutionID, model.Patient{
		AgeGroup: ageGroup,
		Gender:   gender,
	})
	if err != nil {
		return nil, apperr.Internal("failed to resolve patient", err)
	}

	if created {
		s.audit.Record(ctx, &student.ID, "create", "patient", patient.ID, map[string]interface{}{
			"reference_id": referenceID,
		})
	}

	return patient, nil
}

// actorID returns a pointer to the actor's id, or nil for system actions
func actorID(actor *model.Profile) *uuid.UUID {
	if actor == nil {
		return nil
	}
	return &actor.ID
}
