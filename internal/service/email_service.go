package service

import (
	"context"
	"errors"
	"fmt"
	"html"
	"log"
	"net"
	"strconv"
	"strings"
	"time"

	"github.com/resend/resend-go/v2"

	"github.com/yourusername/stoolpool-api/internal/domain/entity"
	"github.com/yourusername/stoolpool-api/internal/service/assessment"
)

// EmailService sends transactional emails.
type EmailService interface {
	SendHealthAlert(ctx context.Context, user *entity.User, entry *entity.HealthEntry) error
	SendWeeklyReport(ctx context.Context, user *entity.User, summary assessment.StatsSummary, periodStart time.Time) error
}

// NoopEmailService is used when email delivery is disabled.
type NoopEmailService struct{}

func (s *NoopEmailService) SendHealthAlert(ctx context.Context, user *entity.User, entry *entity.HealthEntry) error {
	log.Printf("[EmailService] noop health alert to=%s entry=%d", user.Email, entry.ID)
	return nil
}

func (s *NoopEmailService) SendWeeklyReport(ctx context.Context, user *entity.User, summary assessment.StatsSummary, periodStart time.Time) error {
	log.Printf("[EmailService] noop weekly report to=%s entries=%d", user.Email, summary.WeeklyCount)
	return nil
}

// ResendEmailService sends emails via Resend REST API.
type ResendEmailService struct {
	from   string
	client *resend.Client
}

func NewResendEmailService(apiKey, from string) (*ResendEmailService, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("resend api key is required")
	}
	if from == "" {
		return nil, fmt.Errorf("email from is required")
	}
	return &ResendEmailService{
		from:   from,
		client: resend.NewClient(apiKey),
	}, nil
}

func (s *ResendEmailService) SendHealthAlert(ctx context.Context, user *entity.User, entry *entity.HealthEntry) error {
	if user == nil || user.Email == "" || entry == nil {
		return fmt.Errorf("user email and entry are required")
	}

	text, body := renderHealthAlert(user, entry)
	params := &resend.SendEmailRequest{
		From:    s.from,
		To:      []string{user.Email},
		Subject: "StoolPool health alert",
		Text:    text,
		Html:    body,
	}
	return s.send(ctx, params, fmt.Sprintf("health-alert-%d", entry.ID))
}

func (s *ResendEmailService) SendWeeklyReport(ctx context.Context, user *entity.User, summary assessment.StatsSummary, periodStart time.Time) error {
	if user == nil || user.Email == "" {
		return fmt.Errorf("user email is required")
	}

	text, body := renderWeeklyReport(user, summary)
	params := &resend.SendEmailRequest{
		From:    s.from,
		To:      []string{user.Email},
		Subject: "Your weekly StoolPool report",
		Text:    text,
		Html:    body,
	}
	return s.send(ctx, params, weeklyReportKey(user.ID, periodStart))
}

func (s *ResendEmailService) send(ctx context.Context, params *resend.SendEmailRequest, idempotencyKey string) error {
	options := &resend.SendEmailOptions{}
	if strings.TrimSpace(idempotencyKey) != "" {
		options.IdempotencyKey = strings.TrimSpace(idempotencyKey)
	}

	var lastErr error
	for attempt := 0; attempt < 3; attempt++ {
		_, err := s.client.Emails.SendWithOptions(ctx, params, options)
		if err == nil {
			return nil
		}
		lastErr = err

		if wait, ok := resendRetryDelay(err, attempt); ok {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(wait):
				continue
			}
		}

		return fmt.Errorf("resend send failed: %w", err)
	}

	return fmt.Errorf("resend send failed after retries: %w", lastErr)
}

func resendRetryDelay(err error, attempt int) (time.Duration, bool) {
	var rateLimitErr *resend.RateLimitError
	if errors.As(err, &rateLimitErr) {
		if seconds, convErr := strconv.Atoi(strings.TrimSpace(rateLimitErr.RetryAfter)); convErr == nil && seconds > 0 {
			if seconds > 30 {
				seconds = 30
			}
			return time.Duration(seconds) * time.Second, true
		}
		return time.Duration(attempt+1) * time.Second, true
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return time.Duration(attempt+1) * 500 * time.Millisecond, true
	}

	msg := strings.ToLower(err.Error())
	if strings.Contains(msg, "timeout") || strings.Contains(msg, "temporar") {
		return time.Duration(attempt+1) * 500 * time.Millisecond, true
	}

	return 0, false
}

// weeklyReportKey одинаков для всех повторных попыток в пределах одной ISO-недели
func weeklyReportKey(userID uint, periodStart time.Time) string {
	year, week := periodStart.UTC().ISOWeek()
	return fmt.Sprintf("weekly-report-%d-%d-w%02d", userID, year, week)
}

func renderHealthAlert(user *entity.User, entry *entity.HealthEntry) (string, string) {
	text := fmt.Sprintf(
		"Hi %s,\n\nYour latest check scored %d. %s\n\nIf you feel unwell, please contact a doctor.",
		user.Username, entry.Score, entry.Result,
	)
	body := fmt.Sprintf(
		"<p>Hi %s,</p><p>Your latest check scored <strong>%d</strong>. %s</p><p>If you feel unwell, please contact a doctor.</p>",
		html.EscapeString(user.Username), entry.Score, html.EscapeString(entry.Result),
	)
	return text, body
}

func renderWeeklyReport(user *entity.User, summary assessment.StatsSummary) (string, string) {
	var b strings.Builder
	fmt.Fprintf(&b, "Hi %s,\n\nHere is your week:\n", user.Username)
	fmt.Fprintf(&b, "- Logs this week: %d (%.1f per day)\n", summary.WeeklyCount, summary.DailyAverage)
	fmt.Fprintf(&b, "- Total logs: %d\n", summary.TotalCount)
	fmt.Fprintf(&b, "- Most common result: %s\n", summary.MostCommonResult)
	fmt.Fprintf(&b, "- Average pain: %.1f\n", summary.AveragePain)
	fmt.Fprintf(&b, "- Average score: %.1f\n", summary.AverageScore)
	fmt.Fprintf(&b, "- Streak: %d days\n", summary.Streak)
	if len(summary.Trend) > 0 {
		b.WriteString("\nRecent scores:\n")
		for _, p := range summary.Trend {
			fmt.Fprintf(&b, "  %s: %d (%s)\n", p.Date, p.Score, p.Color)
		}
	}
	text := b.String()

	var h strings.Builder
	fmt.Fprintf(&h, "<p>Hi %s,</p><p>Here is your week:</p><ul>", html.EscapeString(user.Username))
	fmt.Fprintf(&h, "<li>Logs this week: <strong>%d</strong> (%.1f per day)</li>", summary.WeeklyCount, summary.DailyAverage)
	fmt.Fprintf(&h, "<li>Total logs: %d</li>", summary.TotalCount)
	fmt.Fprintf(&h, "<li>Most common result: %s</li>", html.EscapeString(summary.MostCommonResult))
	fmt.Fprintf(&h, "<li>Average pain: %.1f</li>", summary.AveragePain)
	fmt.Fprintf(&h, "<li>Average score: %.1f</li>", summary.AverageScore)
	fmt.Fprintf(&h, "<li>Streak: %d days</li></ul>", summary.Streak)
	return text, h.String()
}
