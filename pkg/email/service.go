package email

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"

	"github.com/getflash/salesops/pkg/logger"
	"github.com/getflash/salesops/pkg/models"
	"github.com/getflash/salesops/pkg/workflow"
)

// Service sends operational email through SendGrid. Without an API key
// it degrades to logging, so local environments need no credentials.
type Service struct {
	client    *sendgrid.Client
	fromEmail string
	fromName  string
	log       logger.Logger
}

// NewService creates a new email service
func NewService(apiKey, fromEmail, fromName string, log logger.Logger) *Service {
	s := &Service{fromEmail: fromEmail, fromName: fromName, log: log}
	if apiKey != "" {
		s.client = sendgrid.NewSendClient(apiKey)
	}
	return s
}

// Send delivers one HTML email to each recipient.
func (s *Service) Send(_ context.Context, to []string, subject, htmlBody string) error {
	if s.client == nil {
		s.log.Info("email delivery skipped (no API key)", "to", strings.Join(to, ","), "subject", subject)
		return nil
	}

	from := mail.NewEmail(s.fromName, s.fromEmail)
	for _, recipient := range to {
		message := mail.NewSingleEmail(from, subject, mail.NewEmail("", recipient), "", htmlBody)
		resp, err := s.client.Send(message)
		if err != nil {
			return fmt.Errorf("failed to send email to %s: %w", recipient, err)
		}
		if resp.StatusCode >= 400 {
			return fmt.Errorf("sendgrid returned %d for %s", resp.StatusCode, recipient)
		}
	}
	return nil
}

// StaleLeadDigest renders the daily stale-lead email. Leads are listed
// oldest first, grouped under their assigned rep.
func StaleLeadDigest(stale []models.Submission, now time.Time) (subject, htmlBody string) {
	subject = fmt.Sprintf("Stale lead digest: %d leads need attention", len(stale))

	byRep := map[string][]models.Submission{}
	reps := []string{}
	for _, sub := range stale {
		rep := sub.AssignedRep()
		if _, ok := byRep[rep]; !ok {
			reps = append(reps, rep)
		}
		byRep[rep] = append(byRep[rep], sub)
	}

	var b strings.Builder
	b.WriteString("<h2>Stale leads</h2>")
	b.WriteString(fmt.Sprintf("<p>%d leads have had no activity in over 30 days.</p>", len(stale)))
	for _, rep := range reps {
		b.WriteString(fmt.Sprintf("<h3>%s</h3><ul>", rep))
		for _, sub := range byRep[rep] {
			age := int(now.Sub(sub.Timestamp).Hours() / 24)
			b.WriteString(fmt.Sprintf("<li>%s (%s): %d days old, stage %s</li>",
				sub.OwnerName, sub.Region(), age, workflow.DeriveStage(&sub)))
		}
		b.WriteString("</ul>")
	}

	return subject, b.String()
}
