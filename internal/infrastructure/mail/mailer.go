package mail

import (
	"context"
	"fmt"

	"github.com/wekeepgrowing/mailshield/internal/config"
	"go.uber.org/zap"
	"gopkg.in/gomail.v2"
)

const smtpPort = 587

// sender is satisfied by *gomail.Dialer
type sender interface {
	DialAndSend(m ...*gomail.Message) error
}

// Mailer delivers HTML mail through the Mailgun SMTP relay
type Mailer struct {
	sender   sender
	from     string
	fromName string
	logger   *zap.Logger
}

// SMTPHost returns the relay host for a Mailgun region
func SMTPHost(region string) string {
	if region == "eu" {
		return "smtp.eu.mailgun.org"
	}
	return "smtp.mailgun.org"
}

// NewMailer creates a mailer for the configured sending domain
func NewMailer(cfg config.EmailConfig, logger *zap.Logger) (*Mailer, error) {
	if cfg.Domain == "" || cfg.APIKey == "" {
		return nil, fmt.Errorf("email domain and api key are required")
	}

	from := cfg.From
	if from == "" {
		from = "reports@" + cfg.Domain
	}

	dialer := gomail.NewDialer(SMTPHost(cfg.Region), smtpPort, "postmaster@"+cfg.Domain, cfg.APIKey)
	return &Mailer{
		sender:   dialer,
		from:     from,
		fromName: cfg.FromName,
		logger:   logger,
	}, nil
}

// Send delivers one HTML message. gomail has no context support, so ctx is
// only checked before dialing.
func (m *Mailer) Send(ctx context.Context, to, subject, htmlBody string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	msg := gomail.NewMessage()
	msg.SetHeader("From", msg.FormatAddress(m.from, m.fromName))
	msg.SetHeader("To", to)
	msg.SetHeader("Subject", subject)
	msg.SetBody("text/html", htmlBody)

	if err := m.sender.DialAndSend(msg); err != nil {
		m.logger.Error("Failed to send email",
			zap.String("to", to),
			zap.String("subject", subject),
			zap.Error(err),
		)
		return fmt.Errorf("failed to send email: %w", err)
	}

	m.logger.Info("Email sent",
		zap.String("to", to),
		zap.String("subject", subject),
	)
	return nil
}
