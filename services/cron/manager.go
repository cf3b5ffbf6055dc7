package cron

import (
	"log"
	"time"

	"github.com/robfig/cron/v3"
	"gorm.io/gorm"

	"github.com/cliniclog/logbook-api/database"
	"github.com/cliniclog/logbook-api/model"
	"github.com/cliniclog/logbook-api/services"
	"github.com/cliniclog/logbook-api/utils/auth"
)

// Manager schedules the background maintenance jobs
type Manager struct {
	cron      *cron.Cron
	db        *gorm.DB
	stores    *database.Stores
	blacklist *auth.BlacklistService
	stats     *services.StatsService
	mailer    *services.EmailService
}

// NewManager creates a new cron manager. mailer may be nil when SMTP is off.
func NewManager(db *gorm.DB, stores *database.Stores, blacklist *auth.BlacklistService, stats *services.StatsService, mailer *services.EmailService) *Manager {
	c := cron.New(cron.WithSeconds())

	return &Manager{
		cron:      c,
		db:        db,
		stores:    stores,
		blacklist: blacklist,
		stats:     stats,
		mailer:    mailer,
	}
}

// Start registers all jobs and starts the scheduler
func (m *Manager) Start() error {
	log.Println("Starting cron jobs...")

	if err := m.registerJobs(); err != nil {
		return err
	}

	m.cron.Start()

	log.Println("Cron jobs started successfully")
	return nil
}

// Stop stops the scheduler and waits for running jobs
func (m *Manager) Stop() {
	log.Println("Stopping cron jobs...")
	ctx := m.cron.Stop()
	<-ctx.Done()
	log.Println("Cron jobs stopped")
}

// registerJobs wires every job to its schedule
func (m *Manager) registerJobs() error {
	// Hourly: purge expired blacklisted tokens
	_, err := m.cron.AddFunc("0 0 * * * *", func() {
		m.logJobStart("cleanup_token_blacklist")
		m.CleanupTokenBlacklist()
	})
	if err != nil {
		return err
	}

	// Daily at 1 AM: snapshot the dashboard aggregates
	_, err = m.cron.AddFunc("0 0 1 * * *", func() {
		m.logJobStart("snapshot_dashboard_stats")
		m.SnapshotDashboardStats()
	})
	if err != nil {
		return err
	}

	// Daily at 7 AM: remind preceptors about their review backlog
	_, err = m.cron.AddFunc("0 0 7 * * *", func() {
		m.logJobStart("pending_review_digest")
		m.SendPendingReviewDigests()
	})
	if err != nil {
		return err
	}

	// Weekly on Sunday at 3 AM: trim old cron job logs
	_, err = m.cron.AddFunc("0 0 3 * * 0", func() {
		m.logJobStart("cleanup_old_job_logs")
		m.CleanupOldJobLogs()
	})
	if err != nil {
		return err
	}

	log.Println("All cron jobs registered successfully")
	return nil
}

// logJobStart records a job run in the database
func (m *Manager) logJobStart(jobName string) {
	log.Printf("[CRON] Starting job: %s at %s", jobName, time.Now().Format(time.RFC3339))

	cronLog := model.CronJobLog{
		JobName:   jobName,
		Status:    "running",
		StartedAt: time.Now(),
		Metadata:  []byte("{}"),
	}
	m.db.Create(&cronLog)
}

// logJobComplete marks the latest running record of the job completed
func (m *Manager) logJobComplete(jobName string, message string) {
	log.Printf("[CRON] Completed job: %s - %s", jobName, message)

	m.db.Model(&model.CronJobLog{}).
		Where("job_name = ? AND status = ?", jobName, "running").
		Order("started_at DESC").
		Limit(1).
		Updates(map[string]interface{}{
			"status":       "completed",
			"completed_at": time.Now(),
			"message":      message,
		})
}

// logJobError marks the latest running record of the job failed
func (m *Manager) logJobError(jobName string, err error) {
	log.Printf("[CRON] Error in job: %s - %v", jobName, err)

	m.db.Model(&model.CronJobLog{}).
		Where("job_name = ? AND status = ?", jobName, "running").
		Order("started_at DESC").
		Limit(1).
		Updates(map[string]interface{}{
			"status":       "failed",
			"completed_at": time.Now(),
			"error_msg":    err.Error(),
		})
}
