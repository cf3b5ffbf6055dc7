package cron

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/cliniclog/logbook-api/model"
)

const jobTimeout = 5 * time.Minute

// CleanupTokenBlacklist purges blacklist rows whose tokens have expired
// anyway and can no longer be replayed
func (m *Manager) CleanupTokenBlacklist() {
	jobName := "cleanup_token_blacklist"
	ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
	defer cancel()

	removed, err := m.blacklist.CleanupExpiredTokens(ctx)
	if err != nil {
		m.logJobError(jobName, err)
		return
	}

	m.logJobComplete(jobName, fmt.Sprintf("removed %d expired blacklist entries", removed))
}

// SnapshotDashboardStats stores the daily dashboard aggregates in the job
// log so trends survive even if entries are later edited or deleted
func (m *Manager) SnapshotDashboardStats() {
	jobName := "snapshot_dashboard_stats"
	ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
	defer cancel()

	stats, err := m.stats.Dashboard(ctx)
	if err != nil {
		m.logJobError(jobName, err)
		return
	}

	raw, err := json.Marshal(stats)
	if err != nil {
		m.logJobError(jobName, err)
		return
	}

	m.db.Model(&model.CronJobLog{}).
		Where("job_name = ? AND status = ?", jobName, "running").
		Order("started_at DESC").
		Limit(1).
		Update("metadata", raw)

	m.logJobComplete(jobName, fmt.Sprintf("snapshot: %d entries, %.2f hours, %d pending",
		stats.TotalEntries, stats.TotalHours, stats.PendingEntries))
}

// SendPendingReviewDigests emails each preceptor who has entries waiting
// for review. Skipped entirely when SMTP is not configured.
func (m *Manager) SendPendingReviewDigests() {
	jobName := "pending_review_digest"
	if m.mailer == nil {
		m.logJobComplete(jobName, "skipped: SMTP not configured")
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
	defer cancel()

	counts, err := m.stores.PendingReviewCounts(ctx)
	if err != nil {
		m.logJobError(jobName, err)
		return
	}

	sent := 0
	for _, c := range counts {
		if err := m.mailer.SendPendingReviewDigest(c.Email, c.FullName, c.PendingCount); err != nil {
			log.Printf("[CRON] failed to send digest to %s: %v", c.Email, err)
			continue
		}
		sent++
	}

	m.logJobComplete(jobName, fmt.Sprintf("sent %d of %d digests", sent, len(counts)))
}

// CleanupOldJobLogs trims cron job logs older than 90 days
func (m *Manager) CleanupOldJobLogs() {
	jobName := "cleanup_old_job_logs"

	cutoff := time.Now().AddDate(0, 0, -90)
	result := m.db.Where("created_at < ?", cutoff).Delete(&model.CronJobLog{})
	if result.Error != nil {
		m.logJobError(jobName, result.Error)
		return
	}

	m.logJobComplete(jobName, fmt.Sprintf("removed %d old job logs", result.RowsAffected))
}
