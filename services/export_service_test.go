package services

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	"github.com/cliniclog/logbook-api/model"
)

func TestBuildEncounter_MapsCoreFields(t *testing.T) {
	patientID := uuid.New()
	entry := newTestEntry(uuid.New())
	entry.PatientID = &patientID
	entry.Patient = &model.Patient{ID: patientID, ReferenceID: "MRN-9"}
	entry.SupervisorName = "Dr. House"

	enc := BuildEncounter(entry)

	assert.Equal(t, "Encounter", enc.ResourceType)
	assert.Equal(t, entry.ID.String(), enc.ID)
	assert.Equal(t, "finished", enc.Status)
	assert.Equal(t, "2025-03-10", enc.Period.Start)
	assert.NotEmpty(t, enc.Period.End, "positive hours produce a period end")
	assert.Equal(t, "Emergency Medicine", enc.ServiceType.Text)
	assert.Equal(t, "Patient/"+patientID.String(), enc.Subject.Reference)
	assert.Equal(t, "MRN-9", enc.Subject.Display)
	assert.Len(t, enc.Participant, 2)
	assert.Equal(t, "Dr. House", enc.Participant[1].Individual.Display)
	assert.Equal(t, "City Hospital ER", enc.Location[0].Location.Display)
}

func TestBuildEncounter_RejectedIsEnteredInError(t *testing.T) {
	entry := newTestEntry(uuid.New())
	entry.Status = model.LogStatusRejected

	enc := BuildEncounter(entry)
	assert.Equal(t, "entered-in-error", enc.Status)
}

func TestBuildEncounter_OmitsAbsentData(t *testing.T) {
	entry := newTestEntry(uuid.New())
	entry.Specialty = ""
	entry.Hours = 0

	enc := BuildEncounter(entry)

	assert.Nil(t, enc.ServiceType)
	assert.Nil(t, enc.Subject)
	assert.Empty(t, enc.Period.End, "no hours means no period end")
	assert.Len(t, enc.Participant, 1, "no supervisor participant without a name")
}

func TestBuildEncounterBundle(t *testing.T) {
	entries := []model.LogEntry{
		*newTestEntry(uuid.New()),
		*newTestEntry(uuid.New()),
	}
	now := time.Date(2025, 8, 1, 10, 0, 0, 0, time.UTC)

	bundle := BuildEncounterBundle(entries, now)

	assert.Equal(t, "Bundle", bundle.ResourceType)
	assert.Equal(t, "collection", bundle.Type)
	assert.Equal(t, 2, bundle.Total)
	assert.Len(t, bundle.Entry, 2)
	assert.Equal(t, "urn:uuid:"+entries[0].ID.String(), bundle.Entry[0].FullURL)
	assert.Equal(t, "2025-08-01T10:00:00Z", bundle.Timestamp)
}
