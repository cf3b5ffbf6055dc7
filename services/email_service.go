package services

import (
	"fmt"
	"net/smtp"
	"strings"

	"github.com/cliniclog/logbook-api/config"
	"github.com/cliniclog/logbook-api/model"
)

// EmailService sends transactional mail over SMTP. All sends are
// best-effort from the caller's point of view; nothing in the request path
// blocks on delivery guarantees beyond the SMTP handshake.
type EmailService struct {
	host     string
	port     string
	username string
	password string
	from     string
	appURL   string
}

// NewEmailService builds an email service from the environment. Returns nil
// when SMTP is not configured, which callers treat as notifications off.
func NewEmailService() *EmailService {
	env, err := config.Get()
	if err != nil || env.SMTP_HOST == "" {
		return nil
	}
	return &EmailService{
		host:     env.SMTP_HOST,
		port:     env.SMTP_PORT,
		username: env.SMTP_USERNAME,
		password: env.SMTP_PASSWORD,
		from:     env.SMTP_FROM,
		appURL:   env.APP_URL,
	}
}

// SendInvitationEmail tells a new user they have been invited and where to register
func (e *EmailService) SendInvitationEmail(to, fullName string, role model.Role) error {
	subject := "You have been invited to the Clinical Logbook"
	body := fmt.Sprintf(`Hello %s,

An administrator has invited you to join the Clinical Logbook as a %s.

Complete your registration here:
%s/register

If you were not expecting this invitation you can ignore this email.
`, fullName, role, e.appURL)

	return e.send(to, subject, body)
}

// SendLogReviewedEmail tells a student the outcome of a review
func (e *EmailService) SendLogReviewedEmail(to, studentName string, entry *model.LogEntry) error {
	subject := fmt.Sprintf("Your log entry was %s", entry.Status)
	var sb strings.Builder
	fmt.Fprintf(&sb, "Hello %s,\n\n", studentName)
	fmt.Fprintf(&sb, "Your log entry for %s (%s) was %s.\n", entry.Date.Format("2006-01-02"), entry.Location, entry.Status)
	if entry.Feedback != "" {
		fmt.Fprintf(&sb, "\nFeedback from your preceptor:\n%s\n", entry.Feedback)
	}
	fmt.Fprintf(&sb, "\nView your logbook:\n%s/logbook\n", e.appURL)

	return e.send(to, subject, sb.String())
}

// SendPendingReviewDigest reminds a preceptor about their review backlog
func (e *EmailService) SendPendingReviewDigest(to, fullName string, pendingCount int64) error {
	subject := "Log entries awaiting your review"
	body := fmt.Sprintf(`Hello %s,

You have %d log %s waiting for review in the Clinical Logbook.

Review them here:
%s/reviews
`, fullName, pendingCount, pluralize(pendingCount, "entry", "entries"), e.appURL)

	return e.send(to, subject, body)
}

func (e *EmailService) send(to, subject, body string) error {
	msg := fmt.Sprintf("From: %s\r\nTo: %s\r\nSubject: %s\r\nMIME-Version: 1.0\r\nContent-Type: text/plain; charset=\"UTF-8\"\r\n\r\n%s",
		e.from, to, subject, body)

	addr := fmt.Sprintf("%s:%s", e.host, e.port)
	auth := smtp.PlainAuth("", e.username, e.password, e.host)

	if err := smtp.SendMail(addr, auth, e.from, []string{to}, []byte(msg)); err != nil {
		return fmt.Errorf("failed to send email to %s: %w", to, err)
	}
	return nil
}

func pluralize(n int64, singular, plural string) string {
	if n == 1 {
		return singular
	}
	return plural
}
