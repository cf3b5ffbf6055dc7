package services

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	"github.com/cliniclog/logbook-api/model"
	"github.com/cliniclog/logbook-api/utils/apperr"
)

func newAssignmentService(stores *MockStores) *AssignmentService {
	return NewAssignmentService(stores, NewAuditRecorder(stores))
}

func TestAssignStudentToPreceptor_Success(t *testing.T) {
	student := newTestStudent()
	preceptor := newTestInstructor()
	admin := newTestAdmin()

	stores := &MockStores{
		ProfileByIDFunc: func(ctx context.Context, id uuid.UUID) (*model.Profile, error) {
			if id == student.ID {
				return student, nil
			}
			return preceptor, nil
		},
		ActivePreceptorAssignmentExistsFunc: func(ctx context.Context, studentID, preceptorID uuid.UUID) (bool, error) {
			return false, nil
		},
		CountActivePreceptorAssignmentsForUpdateFunc: func(ctx context.Context, preceptorID uuid.UUID) (int64, error) {
			return 3, nil
		},
		CreatePreceptorAssignmentFunc: func(ctx context.Context, assignment *model.StudentPreceptorAssignment) error {
			assignment.ID = uuid.New()
			return nil
		},
	}

	svc := newAssignmentService(stores)
	assignment, err := svc.AssignStudentToPreceptor(context.Background(), admin, student.ID, preceptor.ID)

	assert.NoError(t, err)
	assert.NotNil(t, assignment)
	assert.Equal(t, student.ID, assignment.StudentID)
	assert.Equal(t, preceptor.ID, assignment.PreceptorID)
	assert.Equal(t, model.AssignmentActive, assignment.Status)
	assert.EqualValues(t, 1, stores.CreateAuditEventCallCount)
}

func TestAssignStudentToPreceptor_CapacityExceeded(t *testing.T) {
	student := newTestStudent()
	preceptor := newTestInstructor()

	created := false
	stores := &MockStores{
		ProfileByIDFunc: func(ctx context.Context, id uuid.UUID) (*model.Profile, error) {
			if id == student.ID {
				return student, nil
			}
			return preceptor, nil
		},
		ActivePreceptorAssignmentExistsFunc: func(ctx context.Context, studentID, preceptorID uuid.UUID) (bool, error) {
			return false, nil
		},
		CountActivePreceptorAssignmentsForUpdateFunc: func(ctx context.Context, preceptorID uuid.UUID) (int64, error) {
			return model.MaxStudentsPerPreceptor, nil
		},
		CreatePreceptorAssignmentFunc: func(ctx context.Context, assignment *model.StudentPreceptorAssignment) error {
			created = true
			return nil
		},
	}

	svc := newAssignmentService(stores)
	assignment, err := svc.AssignStudentToPreceptor(context.Background(), newTestAdmin(), student.ID, preceptor.ID)

	assert.Nil(t, assignment)
	assert.True(t, apperr.IsCapacityExceeded(err))
	assert.False(t, created, "no assignment row should be created at capacity")
	assert.EqualValues(t, 0, stores.CreateAuditEventCallCount)
}

func TestAssignStudentToPreceptor_Duplicate(t *testing.T) {
	student := newTestStudent()
	preceptor := newTestInstructor()

	stores := &MockStores{
		ProfileByIDFunc: func(ctx context.Context, id uuid.UUID) (*model.Profile, error) {
			if id == student.ID {
				return student, nil
			}
			return preceptor, nil
		},
		ActivePreceptorAssignmentExistsFunc: func(ctx context.Context, studentID, preceptorID uuid.UUID) (bool, error) {
			return true, nil
		},
	}

	svc := newAssignmentService(stores)
	_, err := svc.AssignStudentToPreceptor(context.Background(), newTestAdmin(), student.ID, preceptor.ID)

	assert.True(t, apperr.IsDuplicate(err))
}

func TestAssignStudentToPreceptor_RoleValidation(t *testing.T) {
	student := newTestStudent()
	otherStudent := newTestStudent()

	stores := &MockStores{
		ProfileByIDFunc: func(ctx context.Context, id uuid.UUID) (*model.Profile, error) {
			if id == student.ID {
				return student, nil
			}
			return otherStudent, nil
		},
	}

	svc := newAssignmentService(stores)
	_, err := svc.AssignStudentToPreceptor(context.Background(), newTestAdmin(), student.ID, otherStudent.ID)

	assert.True(t, apperr.IsValidation(err), "assigning to a non-instructor must fail validation")
}

func TestAssignStudentToPreceptor_StudentNotFound(t *testing.T) {
	stores := &MockStores{
		ProfileByIDFunc: func(ctx context.Context, id uuid.UUID) (*model.Profile, error) {
			return nil, ErrRecordNotFound
		},
	}

	svc := newAssignmentService(stores)
	_, err := svc.AssignStudentToPreceptor(context.Background(), newTestAdmin(), uuid.New(), uuid.New())

	assert.True(t, apperr.IsNotFound(err))
}

func TestAssignPatientToStudent_Success(t *testing.T) {
	student := newTestStudent()
	admin := newTestAdmin()
	patient := &model.Patient{ID: uuid.New(), ReferenceID: "MRN-001"}

	stores := &MockStores{
		ProfileByIDFunc: func(ctx context.Context, id uuid.UUID) (*model.Profile, error) {
			return student, nil
		},
		PatientByIDFunc: func(ctx context.Context, id uuid.UUID) (*model.Patient, error) {
			return patient, nil
		},
		PatientAssignmentExistsFunc: func(ctx context.Context, studentID, patientID uuid.UUID) (bool, error) {
			return false, nil
		},
		CreatePatientAssignmentFunc: func(ctx context.Context, assignment *model.StudentPatientAssignment) error {
			assignment.ID = uuid.New()
			return nil
		},
	}

	svc := newAssignmentService(stores)
	assignment, err := svc.AssignPatientToStudent(context.Background(), admin, student.ID, patient.ID)

	assert.NoError(t, err)
	assert.Equal(t, student.ID, assignment.StudentID)
	assert.Equal(t, patient.ID, assignment.PatientID)
	assert.Equal(t, &admin.ID, assignment.AssignedBy)
}

func TestAssignPatientToStudent_Duplicate(t *testing.T) {
	student := newTestStudent()
	patient := &model.Patient{ID: uuid.New()}

	stores := &MockStores{
		ProfileByIDFunc: func(ctx context.Context, id uuid.UUID) (*model.Profile, error) {
			return student, nil
		},
		PatientByIDFunc: func(ctx context.Context, id uuid.UUID) (*model.Patient, error) {
			return patient, nil
		},
		PatientAssignmentExistsFunc: func(ctx context.Context, studentID, patientID uuid.UUID) (bool, error) {
			return true, nil
		},
	}

	svc := newAssignmentService(stores)
	_, err := svc.AssignPatientToStudent(context.Background(), newTestAdmin(), student.ID, patient.ID)

	assert.True(t, apperr.IsDuplicate(err))
}

func TestPreceptorLoadReport_SetsCap(t *testing.T) {
	stores := &MockStores{
		PreceptorLoadsFunc: func(ctx context.Context) ([]PreceptorLoad, error) {
			return []PreceptorLoad{
				{ID: uuid.New(), FullName: "Dr. A", ActiveStudentCount: 5},
				{ID: uuid.New(), FullName: "Dr. B", ActiveStudentCount: 0},
			}, nil
		},
	}

	svc := newAssignmentService(stores)
	loads, err := svc.PreceptorLoadReport(context.Background())

	assert.NoError(t, err)
	assert.Len(t, loads, 2)
	for _, load := range loads {
		assert.Equal(t, model.MaxStudentsPerPreceptor, load.MaxStudents)
	}
}

func TestResolvePatient_AuditsOnlyOnCreate(t *testing.T) {
	student := newTestStudent()
	patient := &model.Patient{ID: uuid.New(), ReferenceID: "MRN-042"}

	created := true
	stores := &MockStores{
		FindOrCreatePatientFunc: func(ctx context.Context, referenceID string, institutionID *uuid.UUID, defaults model.Patient) (*model.Patient, bool, error) {
			assert.Equal(t, student.InstitutionID, institutionID)
			return patient, created, nil
		},
	}

	svc := newAssignmentService(stores)

	got, err := svc.ResolvePatient(context.Background(), student, "MRN-042", "adult", "F")
	assert.NoError(t, err)
	assert.Equal(t, patient.ID, got.ID)
	assert.EqualValues(t, 1, stores.CreateAuditEventCallCount)

	created = false
	_, err = svc.ResolvePatient(context.Background(), student, "MRN-042", "adult", "F")
	assert.NoError(t, err)
	assert.EqualValues(t, 1, stores.CreateAuditEventCallCount, "existing patient must not produce an audit event")
}

func TestPreceptorForStudent_Unassigned(t *testing.T) {
	stores := &MockStores{
		ActiveAssignmentForStudentFunc: func(ctx context.Context, studentID uuid.UUID) (*model.StudentPreceptorAssignment, error) {
			return nil, ErrRecordNotFound
		},
	}

	svc := newAssignmentService(stores)
	preceptor, err := svc.PreceptorForStudent(context.Background(), uuid.New())

	assert.NoError(t, err)
	assert.Nil(t, preceptor)
}

func TestInstitutionInstructors(t *testing.T) {
	student := newTestStudent()
	stores := &MockStores{
		InstructorsForInstitutionFunc: func(ctx context.Context, institutionID uuid.UUID) ([]model.Profile, error) {
			assert.Equal(t, *student.InstitutionID, institutionID)
			return []model.Profile{*newTestInstructor()}, nil
		},
	}

	svc := newAssignmentService(stores)
	instructors, err := svc.InstitutionInstructors(context.Background(), student)

	assert.NoError(t, err)
	assert.Len(t, instructors, 1)
}

func TestInstitutionInstructors_NoInstitution(t *testing.T) {
	student := newTestStudent()
	student.InstitutionID = nil

	svc := newAssignmentService(&MockStores{})
	instructors, err := svc.InstitutionInstructors(context.Background(), student)

	assert.NoError(t, err)
	assert.Empty(t, instructors)
}
