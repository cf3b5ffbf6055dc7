package services

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestFillMonths_ZeroFillsGaps(t *testing.T) {
	now := time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)
	rows := []MonthlyTrendPoint{
		{Month: "2025-02", Entries: 4, Hours: 20},
		{Month: "2025-05", Entries: 1, Hours: 3.5},
	}

	out := fillMonths(rows, now, 6)

	assert.Len(t, out, 6)
	assert.Equal(t, "2025-01", out[0].Month)
	assert.Equal(t, "2025-06", out[5].Month)

	assert.Zero(t, out[0].Entries)
	assert.EqualValues(t, 4, out[1].Entries)
	assert.Zero(t, out[2].Entries)
	assert.Zero(t, out[3].Entries)
	assert.EqualValues(t, 1, out[4].Entries)
	assert.InDelta(t, 3.5, out[4].Hours, 0.001)
	assert.Zero(t, out[5].Entries)
}

func TestFillMonths_CrossesYearBoundary(t *testing.T) {
	now := time.Date(2025, 2, 1, 0, 0, 0, 0, time.UTC)

	out := fillMonths(nil, now, 4)

	assert.Equal(t, []string{"2024-11", "2024-12", "2025-01", "2025-02"},
		[]string{out[0].Month, out[1].Month, out[2].Month, out[3].Month})
}

func TestBucketSpecialties_FoldsBlankIntoUnspecified(t *testing.T) {
	rows := []SpecialtyCount{
		{Specialty: "Cardiology", Entries: 3, Hours: 12},
		{Specialty: "", Entries: 2, Hours: 5},
		{Specialty: "Pediatrics", Entries: 2, Hours: 8},
	}

	out := bucketSpecialties(rows, 0)

	assert.Len(t, out, 3)
	assert.Equal(t, "Cardiology", out[0].Specialty)

	var unspecified *SpecialtyCount
	for i := range out {
		if out[i].Specialty == UnspecifiedSpecialty {
			unspecified = &out[i]
		}
	}
	assert.NotNil(t, unspecified)
	assert.EqualValues(t, 2, unspecified.Entries)
	assert.InDelta(t, 5, unspecified.Hours, 0.001)
}

func TestBucketSpecialties_SortAndTopN(t *testing.T) {
	rows := []SpecialtyCount{
		{Specialty: "Surgery", Entries: 1},
		{Specialty: "Cardiology", Entries: 5},
		{Specialty: "Pediatrics", Entries: 5},
		{Specialty: "Dermatology", Entries: 3},
	}

	out := bucketSpecialties(rows, 2)

	assert.Len(t, out, 2)
	// Equal counts break ties alphabetically
	assert.Equal(t, "Cardiology", out[0].Specialty)
	assert.Equal(t, "Pediatrics", out[1].Specialty)
}

func TestBucketSpecialties_MergesDuplicateNames(t *testing.T) {
	rows := []SpecialtyCount{
		{Specialty: "", Entries: 1, Hours: 2},
		{Specialty: UnspecifiedSpecialty, Entries: 2, Hours: 3},
	}

	out := bucketSpecialties(rows, 0)

	assert.Len(t, out, 1)
	assert.EqualValues(t, 3, out[0].Entries)
	assert.InDelta(t, 5, out[0].Hours, 0.001)
}

func TestMonthStart(t *testing.T) {
	got := monthStart(time.Date(2025, 7, 23, 18, 4, 5, 0, time.UTC))
	assert.Equal(t, time.Date(2025, 7, 1, 0, 0, 0, 0, time.UTC), got)
}

func TestDashboardStats_PayloadFields(t *testing.T) {
	payload, err := json.Marshal(DashboardStats{})
	assert.NoError(t, err)

	var fields map[string]any
	assert.NoError(t, json.Unmarshal(payload, &fields))

	for _, key := range []string{
		"total_students", "total_instructors", "total_institutions",
		"total_patients", "total_entries", "total_hours",
		"pending_entries", "active_assignments",
	} {
		assert.Contains(t, fields, key)
	}
}

func TestInstitutionRollup_PayloadFields(t *testing.T) {
	payload, err := json.Marshal(InstitutionRollup{})
	assert.NoError(t, err)

	var fields map[string]any
	assert.NoError(t, json.Unmarshal(payload, &fields))

	for _, key := range []string{
		"institution_id", "institution_name",
		"student_count", "instructor_count",
		"entry_count", "pending_entries", "approved_entries", "rejected_entries",
		"total_hours", "assigned_students",
	} {
		assert.Contains(t, fields, key)
	}
}
