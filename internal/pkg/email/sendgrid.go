// internal/pkg/email/sendgrid.go
package email

import (
	"context"
	"fmt"

	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"
	"github.com/thesheunit/storefront/internal/config"
)

// sendGridSender delivers mail through the SendGrid v3 API
type sendGridSender struct {
	client   *sendgrid.Client
	fromName string
	from     string
}

func newSendGridSender(cfg config.EmailConfig) (*sendGridSender, error) {
	if cfg.SendGridAPIKey == "" {
		return nil, fmt.Errorf("SendGrid API key not configured")
	}
	return &sendGridSender{
		client:   sendgrid.NewSendClient(cfg.SendGridAPIKey),
		fromName: cfg.FromName,
		from:     cfg.FromEmail,
	}, nil
}

func (s *sendGridSender) Send(ctx context.Context, email *Email) error {
	if len(email.To) == 0 {
		return fmt.Errorf("email has no recipients")
	}

	message := mail.NewSingleEmail(
		mail.NewEmail(s.fromName, s.from),
		email.Subject,
		mail.NewEmail("", email.To[0]),
		email.TextContent,
		email.HTMLContent,
	)
	if len(email.To) > 1 {
		for _, to := range email.To[1:] {
			message.Personalizations[0].AddTos(mail.NewEmail("", to))
		}
	}
	if email.ReplyTo != "" {
		message.SetReplyTo(mail.NewEmail("", email.ReplyTo))
	}

	response, err := s.client.SendWithContext(ctx, message)
	if err != nil {
		return fmt.Errorf("sendgrid send error: %w", err)
	}
	if response.StatusCode >= 400 {
		return fmt.Errorf("sendgrid send failed: status=%d, body=%s", response.StatusCode, response.Body)
	}
	return nil
}
