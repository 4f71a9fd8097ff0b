package email

import (
	"context"
	"crypto/tls"
	"fmt"
	"time"

	"github.com/charmbracelet/log"
	"github.com/mealshare/mealshare/internal/config"
	mail "github.com/xhit/go-simple-mail/v2"
)

// SMTPMailer sends emails through an SMTP server.
type SMTPMailer struct {
	config *config.EmailConfig
}

func NewSMTPMailer(cfg *config.EmailConfig) *SMTPMailer {
	return &SMTPMailer{config: cfg}
}

func (m *SMTPMailer) newServer() *mail.SMTPServer {
	server := mail.NewSMTPClient()
	server.Host = m.config.SMTPHost
	server.Port = m.config.SMTPPort
	server.Username = m.config.Username
	server.Password = m.config.Password

	switch {
	case m.config.UseSSL:
		server.Encryption = mail.EncryptionSSLTLS
	case m.config.UseTLS:
		server.Encryption = mail.EncryptionSTARTTLS
	default:
		server.Encryption = mail.EncryptionNone
	}

	if m.config.InsecureSkipVerify {
		server.TLSConfig = &tls.Config{InsecureSkipVerify: true} //nolint:gosec
	}

	server.KeepAlive = false
	server.ConnectTimeout = 10 * time.Second
	server.SendTimeout = 10 * time.Second
	return server
}

// Send delivers msg. The context is only checked before connecting since
// go-simple-mail has its own timeouts.
func (m *SMTPMailer) Send(ctx context.Context, msg Message) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	smtpClient, err := m.newServer().Connect()
	if err != nil {
		return fmt.Errorf("failed to connect to SMTP server: %w", err)
	}
	defer func() {
		if closeErr := smtpClient.Close(); closeErr != nil {
			log.Warn("Failed to close SMTP client", "error", closeErr)
		}
	}()

	email := mail.NewMSG()
	email.SetFrom(fmt.Sprintf("%s <%s>", fromName(m.config), m.config.FromEmail))
	email.AddTo(msg.To)
	email.SetSubject(msg.Subject)
	email.SetBody(mail.TextHTML, msg.HTML)
	if email.Error != nil {
		return fmt.Errorf("failed to build email: %w", email.Error)
	}

	if err := email.Send(smtpClient); err != nil {
		return fmt.Errorf("failed to send email: %w", err)
	}

	log.Debug("Email sent", "to", msg.To, "subject", msg.Subject)
	return nil
}
