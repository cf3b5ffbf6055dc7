package services

import (
	"fmt"
	"time"

	"github.com/cliniclog/logbook-api/model"
)

// FHIR export of log entries as an R4 Bundle of Encounter resources.
// Only the fields the logbook actually records are mapped; everything else
// is omitted rather than guessed.

// FHIRCoding is a single coded value
type FHIRCoding struct {
	System  string `json:"system,omitempty"`
	Code    string `json:"code,omitempty"`
	Display string `json:"display,omitempty"`
}

// FHIRCodeableConcept wraps codings with an optional free-text fallback
type FHIRCodeableConcept struct {
	Coding []FHIRCoding `json:"coding,omitempty"`
	Text   string       `json:"text,omitempty"`
}

// FHIRReference points at another resource
type FHIRReference struct {
	Reference string `json:"reference,omitempty"`
	Display   string `json:"display,omitempty"`
}

// FHIRPeriod is a bounded time range
type FHIRPeriod struct {
	Start string `json:"start,omitempty"`
	End   string `json:"end,omitempty"`
}

// FHIREncounter is the subset of an R4 Encounter the logbook can populate
type FHIREncounter struct {
	ResourceType string                `json:"resourceType"`
	ID           string                `json:"id"`
	Status       string                `json:"status"`
	Class        FHIRCoding            `json:"class"`
	Type         []FHIRCodeableConcept `json:"type,omitempty"`
	Subject      *FHIRReference        `json:"subject,omitempty"`
	Participant  []FHIRParticipant     `json:"participant,omitempty"`
	Period       *FHIRPeriod           `json:"period,omitempty"`
	ServiceType  *FHIRCodeableConcept  `json:"serviceType,omitempty"`
	Location     []FHIRLocation        `json:"location,omitempty"`
}

// FHIRParticipant is one person involved in the encounter
type FHIRParticipant struct {
	Type       []FHIRCodeableConcept `json:"type,omitempty"`
	Individual *FHIRReference        `json:"individual,omitempty"`
}

// FHIRLocation is where the encounter took place
type FHIRLocation struct {
	Location FHIRReference `json:"location"`
}

// FHIRBundleEntry wraps one resource in a bundle
type FHIRBundleEntry struct {
	FullURL  string        `json:"fullUrl"`
	Resource FHIREncounter `json:"resource"`
}

// FHIRBundle is an R4 collection bundle
type FHIRBundle struct {
	ResourceType string            `json:"resourceType"`
	Type         string            `json:"type"`
	Timestamp    string            `json:"timestamp"`
	Total        int               `json:"total"`
	Entry        []FHIRBundleEntry `json:"entry"`
}

// encounterStatus maps the review workflow onto FHIR encounter status:
// every logged encounter already happened, so reviewed-or-not it is
// finished; rejected entries are flagged entered-in-error.
func encounterStatus(entry *model.LogEntry) string {
	if entry.Status == model.LogStatusRejected {
		return "entered-in-error"
	}
	return "finished"
}

// BuildEncounter maps one log entry onto a FHIR R4 Encounter
func BuildEncounter(entry *model.LogEntry) FHIREncounter {
	enc := FHIREncounter{
		ResourceType: "Encounter",
		ID:           entry.ID.String(),
		Status:       encounterStatus(entry),
		Class: FHIRCoding{
			System: "http://terminology.hl7.org/CodeSystem/v3-ActCode",
			Code:   "AMB",
		},
	}

	start := entry.Date
	enc.Period = &FHIRPeriod{Start: start.Format("2006-01-02")}
	if entry.Hours > 0 {
		end := start.Add(time.Duration(entry.Hours * float64(time.Hour)))
		enc.Period.End = end.Format(time.RFC3339)
	}

	if entry.Specialty != "" {
		enc.ServiceType = &FHIRCodeableConcept{Text: entry.Specialty}
	}

	if entry.PatientID != nil {
		ref := &FHIRReference{Reference: fmt.Sprintf("Patient/%s", entry.PatientID)}
		if entry.Patient != nil {
			ref.Display = entry.Patient.ReferenceID
		}
		enc.Subject = ref
	}

	participants := []FHIRParticipant{
		{
			Type: []FHIRCodeableConcept{{Coding: []FHIRCoding{{
				System: "http://terminology.hl7.org/CodeSystem/v3-ParticipationType",
				Code:   "PART",
			}}}},
			Individual: &FHIRReference{Reference: fmt.Sprintf("Practitioner/%s", entry.StudentID)},
		},
	}
	if entry.SupervisorName != "" {
		participants = append(participants, FHIRParticipant{
			Type: []FHIRCodeableConcept{{Coding: []FHIRCoding{{
				System: "http://terminology.hl7.org/CodeSystem/v3-ParticipationType",
				Code:   "ATND",
			}}}},
			Individual: &FHIRReference{Display: entry.SupervisorName},
		})
	}
	enc.Participant = participants

	if entry.Location != "" {
		enc.Location = []FHIRLocation{{Location: FHIRReference{Display: entry.Location}}}
	}

	return enc
}

// BuildEncounterBundle wraps the entries in an R4 collection bundle
func BuildEncounterBundle(entries []model.LogEntry, now time.Time) FHIRBundle {
	bundle := FHIRBundle{
		ResourceType: "Bundle",
		Type:         "collection",
		Timestamp:    now.UTC().Format(time.RFC3339),
		Total:        len(entries),
		Entry:        make([]FHIRBundleEntry, 0, len(entries)),
	}
	for i := range entries {
		enc := BuildEncounter(&entries[i])
		bundle.Entry = append(bundle.Entry, FHIRBundleEntry{
			FullURL:  fmt.Sprintf("urn:uuid:%s", enc.ID),
			Resource: enc,
		})
	}
	return bundle
}
