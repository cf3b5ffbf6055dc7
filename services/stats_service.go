package services

import (
	"context"
	"sort"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/cliniclog/logbook-api/model"
	"github.com/cliniclog/logbook-api/utils/apperr"
)

// UnspecifiedSpecialty buckets entries whose specialty was left blank
const UnspecifiedSpecialty = "Unspecified"

// DefaultTrendMonths is how far back the monthly trend reaches
const DefaultTrendMonths = 6

// StatsService computes aggregate reporting straight from the database.
// Sums run in SQL so numeric hours keep their decimal accuracy.
type StatsService struct {
	db *gorm.DB
}

// NewStatsService creates a new stats service
func NewStatsService(db *gorm.DB) *StatsService {
	return &StatsService{db: db}
}

// StudentStats summarizes one student's logbook
type StudentStats struct {
	TotalEntries   int64   `json:"total_entries"`
	TotalHours     float64 `json:"total_hours"`
	PendingCount   int64   `json:"pending_count"`
	ApprovedCount  int64   `json:"approved_count"`
	RejectedCount  int64   `json:"rejected_count"`
	UniquePatients int64   `json:"unique_patients"`
}

// MonthlyTrendPoint is one month's totals, keyed by the clinical date of
// the entries rather than when they were submitted
type MonthlyTrendPoint struct {
	Month   string  `json:"month"` // YYYY-MM
	Entries int64   `json:"entries"`
	Hours   float64 `json:"hours"`
}

// SpecialtyCount is one slice of the specialty distribution
type SpecialtyCount struct {
	Specialty string  `json:"specialty"`
	Entries   int64   `json:"entries"`
	Hours     float64 `json:"hours"`
}

// DashboardStats is the admin overview
type DashboardStats struct {
	TotalStudents     int64   `json:"total_students"`
	TotalInstructors  int64   `json:"total_instructors"`
	TotalInstitutions int64   `json:"total_institutions"`
	TotalPatients     int64   `json:"total_patients"`
	TotalEntries      int64   `json:"total_entries"`
	TotalHours        float64 `json:"total_hours"`
	PendingEntries    int64   `json:"pending_entries"`
	ActiveAssignments int64   `json:"active_assignments"`
}

// InstitutionRollup aggregates activity per institution
type InstitutionRollup struct {
	InstitutionID    uuid.UUID `json:"institution_id"`
	InstitutionName  string    `json:"institution_name"`
	StudentCount     int64     `json:"student_count"`
	InstructorCount  int64     `json:"instructor_count"`
	EntryCount       int64     `json:"entry_count"`
	PendingEntries   int64     `json:"pending_entries"`
	ApprovedEntries  int64     `json:"approved_entries"`
	RejectedEntries  int64     `json:"rejected_entries"`
	TotalHours       float64   `json:"total_hours"`
	AssignedStudents int64     `json:"assigned_students"` // distinct students with an active preceptor
}

// ForStudent computes the per-student summary
func (s *StatsService) ForStudent(ctx context.Context, studentID uuid.UUID) (*StudentStats, error) {
	stats := &StudentStats{}

	row := s.db.WithContext(ctx).Model(&model.LogEntry{}).
		Select("COUNT(*) AS total_entries, COALESCE(SUM(hours), 0) AS total_hours").
		Where("student_id = ?", studentID).
		Row()
	if err := row.Scan(&stats.TotalEntries, &stats.TotalHours); err != nil {
		return nil, apperr.Internal("failed to compute student stats", err)
	}

	type statusCount struct {
		Status string
		Count  int64
	}
	var counts []statusCount
	if err := s.db.WithContext(ctx).Model(&model.LogEntry{}).
		Select("status, COUNT(*) AS count").
		Where("student_id = ?", studentID).
		Group("status").
		Scan(&counts).Error; err != nil {
		return nil, apperr.Internal("failed to compute status counts", err)
	}
	for _, c := range counts {
		switch c.Status {
		case model.LogStatusPending:
			stats.PendingCount = c.Count
		case model.LogStatusApproved:
			stats.ApprovedCount = c.Count
		case model.LogStatusRejected:
			stats.RejectedCount = c.Count
		}
	}

	if err := s.db.WithContext(ctx).Model(&model.LogEntry{}).
		Where("student_id = ? AND patient_id IS NOT NULL", studentID).
		Distinct("patient_id").
		Count(&stats.UniquePatients).Error; err != nil {
		return nil, apperr.Internal("failed to count unique patients", err)
	}

	return stats, nil
}

// MonthlyTrend returns entry and hour totals per month over the trailing
// window, including zero-filled months with no activity
func (s *StatsService) MonthlyTrend(ctx context.Context, studentID uuid.UUID, months int) ([]MonthlyTrendPoint, error) {
	if months <= 0 {
		months = DefaultTrendMonths
	}
	now := time.Now().UTC()
	since := monthStart(now).AddDate(0, -(months - 1), 0)

	var rows []MonthlyTrendPoint
	if err := s.db.WithContext(ctx).Model(&model.LogEntry{}).
		Select("to_char(date, 'YYYY-MM') AS month, COUNT(*) AS entries, COALESCE(SUM(hours), 0) AS hours").
		Where("student_id = ? AND date >= ?", studentID, since).
		Group("month").
		Scan(&rows).Error; err != nil {
		return nil, apperr.Internal("failed to compute monthly trend", err)
	}

	return fillMonths(rows, now, months), nil
}

// SpecialtyDistribution returns per-specialty totals for a student, blank
// specialties grouped under the Unspecified bucket, largest first, capped
// at topN slices (0 means unlimited)
func (s *StatsService) SpecialtyDistribution(ctx context.Context, studentID uuid.UUID, topN int) ([]SpecialtyCount, error) {
	var rows []SpecialtyCount
	if err := s.db.WithContext(ctx).Model(&model.LogEntry{}).
		Select("specialty, COUNT(*) AS entries, COALESCE(SUM(hours), 0) AS hours").
		Where("student_id = ?", studentID).
		Group("specialty").
		Scan(&rows).Error; err != nil {
		return nil, apperr.Internal("failed to compute specialty distribution", err)
	}

	return bucketSpecialties(rows, topN), nil
}

// Dashboard computes the admin overview
func (s *StatsService) Dashboard(ctx context.Context) (*DashboardStats, error) {
	stats := &DashboardStats{}
	db := s.db.WithContext(ctx)

	counts := []struct {
		dest  *int64
		query *gorm.DB
	}{
		{&stats.TotalStudents, db.Model(&model.Profile{}).Where("role = ?", model.RoleStudent)},
		{&stats.TotalInstructors, db.Model(&model.Profile{}).Where("role = ?", model.RoleInstructor)},
		{&stats.TotalInstitutions, db.Model(&model.Institution{})},
		{&stats.TotalPatients, db.Model(&model.Patient{})},
		{&stats.TotalEntries, db.Model(&model.LogEntry{})},
		{&stats.PendingEntries, db.Model(&model.LogEntry{}).Where("status = ?", model.LogStatusPending)},
		{&stats.ActiveAssignments, db.Model(&model.StudentPreceptorAssignment{}).Where("status = ?", model.AssignmentActive)},
	}
	for _, c := range counts {
		if err := c.query.Count(c.dest).Error; err != nil {
			return nil, apperr.Internal("failed to compute dashboard stats", err)
		}
	}

	row := db.Model(&model.LogEntry{}).
		Select("COALESCE(SUM(hours), 0)").
		Row()
	if err := row.Scan(&stats.TotalHours); err != nil {
		return nil, apperr.Internal("failed to sum hours", err)
	}

	return stats, nil
}

// InstitutionRollups aggregates profiles, entries by status, hours and
// actively assigned students per institution. The assignment count runs
// as a subquery so the assignment join cannot fan out the entry counts.
func (s *StatsService) InstitutionRollups(ctx context.Context) ([]InstitutionRollup, error) {
	var rollups []InstitutionRollup
	err := s.db.WithContext(ctx).Raw(`
		SELECT i.id   AS institution_id,
		       i.name AS institution_name,
		       COUNT(DISTINCT p.id) FILTER (WHERE p.role = ?) AS student_count,
		       COUNT(DISTINCT p.id) FILTER (WHERE p.role = ?) AS instructor_count,
		       COUNT(le.id)                                       AS entry_count,
		       COUNT(le.id) FILTER (WHERE le.status = ?)          AS pending_entries,
		       COUNT(le.id) FILTER (WHERE le.status = ?)          AS approved_entries,
		       COUNT(le.id) FILTER (WHERE le.status = ?)          AS rejected_entries,
		       COALESCE(SUM(le.hours), 0)                         AS total_hours,
		       (SELECT COUNT(DISTINCT a.student_id)
		          FROM student_preceptor_assignments a
		          JOIN profiles sp ON sp.id = a.student_id
		         WHERE sp.institution_id = i.id AND a.status = ?) AS assigned_students
		FROM institutions i
		LEFT JOIN profiles p ON p.institution_id = i.id
		LEFT JOIN log_entries le ON le.student_id = p.id AND le.deleted_at IS NULL
		GROUP BY i.id, i.name
		ORDER BY i.name`,
		model.RoleStudent, model.RoleInstructor,
		model.LogStatusPending, model.LogStatusApproved, model.LogStatusRejected,
		model.AssignmentActive).
		Scan(&rollups).Error
	if err != nil {
		return nil, apperr.Internal("failed to compute institution rollups", err)
	}
	return rollups, nil
}

// monthStart truncates t to the first day of its month
func monthStart(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
}

// fillMonths maps sparse month rows onto a dense trailing window ending at
// now, oldest month first
func fillMonths(rows []MonthlyTrendPoint, now time.Time, months int) []MonthlyTrendPoint {
	byMonth := make(map[string]MonthlyTrendPoint, len(rows))
	for _, r := range rows {
		byMonth[r.Month] = r
	}

	out := make([]MonthlyTrendPoint, 0, months)
	start := monthStart(now).AddDate(0, -(months - 1), 0)
	for i := 0; i < months; i++ {
		key := start.AddDate(0, i, 0).Format("2006-01")
		if point, ok := byMonth[key]; ok {
			out = append(out, point)
		} else {
			out = append(out, MonthlyTrendPoint{Month: key})
		}
	}
	return out
}

// bucketSpecialties folds blank specialties into the Unspecified bucket,
// sorts largest first (ties broken by name) and keeps the top n slices
func bucketSpecialties(rows []SpecialtyCount, topN int) []SpecialtyCount {
	merged := make(map[string]SpecialtyCount, len(rows))
	for _, r := range rows {
		name := r.Specialty
		if name == "" {
			name = UnspecifiedSpecialty
		}
		agg := merged[name]
		agg.Specialty = name
		agg.Entries += r.Entries
		agg.Hours += r.Hours
		merged[name] = agg
	}

	out := make([]SpecialtyCount, 0, len(merged))
	for _, v := range merged {
		out = append(out, v)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Entries != out[j].Entries {
			return out[i].Entries > out[j].Entries
		}
		return out[i].Specialty < out[j].Specialty
	})

	if topN > 0 && len(out) > topN {
		out = out[:topN]
	}
	return out
}
