package email

import (
	"context"
	"fmt"

	"github.com/charmbracelet/log"
	"github.com/mealshare/mealshare/internal/config"
	"github.com/sendgrid/sendgrid-go"
	sgmail "github.com/sendgrid/sendgrid-go/helpers/mail"
)

// SendGridMailer sends emails through the SendGrid v3 API.
type SendGridMailer struct {
	config *config.EmailConfig
	client *sendgrid.Client
}

func NewSendGridMailer(cfg *config.EmailConfig) *SendGridMailer {
	return &SendGridMailer{
		config: cfg,
		client: sendgrid.NewSendClient(cfg.SendGridAPIKey),
	}
}

func (m *SendGridMailer) Send(ctx context.Context, msg Message) error {
	from := sgmail.NewEmail(fromName(m.config), m.config.FromEmail)
	to := sgmail.NewEmail("", msg.To)
	message := sgmail.NewSingleEmail(from, msg.Subject, to, "", msg.HTML)

	response, err := m.client.SendWithContext(ctx, message)
	if err != nil {
		return fmt.Errorf("failed to send email: %w", err)
	}
	if response.StatusCode >= 300 {
		return fmt.Errorf("sendgrid rejected email: status %d: %s", response.StatusCode, response.Body)
	}

	log.Debug("Email sent", "to", msg.To, "subject", msg.Subject, "status", response.StatusCode)
	return nil
}
