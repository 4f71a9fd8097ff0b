package email

import (
	"context"
	"fmt"

	"github.com/mealshare/mealshare/internal/config"
)

// Message is a single outgoing HTML email.
type Message struct {
	To      string
	Subject string
	HTML    string
}

// Mailer delivers emails.
type Mailer interface {
	Send(ctx context.Context, msg Message) error
}

// NewMailer returns the mailer for the configured provider.
func NewMailer(cfg *config.EmailConfig) (Mailer, error) {
	switch cfg.Provider {
	case config.EmailProviderSMTP, "":
		return NewSMTPMailer(cfg), nil
	case config.EmailProviderSendGrid:
		return NewSendGridMailer(cfg), nil
	default:
		return nil, fmt.Errorf("unknown email provider %q", cfg.Provider)
	}
}

func fromName(cfg *config.EmailConfig) string {
	if cfg.FromName == "" {
		return "Mealshare"
	}
	return cfg.FromName
}
