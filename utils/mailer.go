package utils

import (
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	"gopkg.in/gomail.v2"

	"maildeck/config"
)

// Email is one outbound message as the gateway sees it. HTML is nil
// when no HTML variant exists; the gateway then sends text-only.
type Email struct {
	To      string
	Subject string
	Text    string
	HTML    *string
}

// DeliveryGateway is the external email transport: synchronous, single
// attempt, no idempotency guarantee. Callers must make sure each
// logical message triggers at most one Send. The returned string is the
// provider's message identifier.
type DeliveryGateway interface {
	Send(email Email) (string, error)
}

// NewDeliveryGateway selects the concrete gateway from configuration.
// This is the only place the mode flag is consulted; everything
// downstream sees the interface.
func NewDeliveryGateway(cfg config.Config) DeliveryGateway {
	if cfg.EmailMode == "smtp" {
		return &SMTPGateway{SMTP: cfg.SMTP}
	}
	return &ConsoleGateway{}
}

// SMTPGateway delivers over SMTP via gomail.
type SMTPGateway struct {
	SMTP config.SMTPConfig
}

func (g *SMTPGateway) Send(email Email) (string, error) {
	m := gomail.NewMessage()
	m.SetHeader("From", fmt.Sprintf("%s <%s>", g.SMTP.FromName, g.SMTP.FromEmail))
	m.SetHeader("To", email.To)
	m.SetHeader("Subject", email.Subject)
	m.SetBody("text/plain", email.Text)
	if email.HTML != nil {
		m.AddAlternative("text/html", *email.HTML)
	}

	messageID := fmt.Sprintf("<%d@%s>", time.Now().UnixNano(), g.SMTP.Host)
	m.SetHeader("Message-ID", messageID)

	d := gomail.NewDialer(g.SMTP.Host, g.SMTP.Port, g.SMTP.Username, g.SMTP.Password)
	if err := d.DialAndSend(m); err != nil {
		return "", fmt.Errorf("smtp send failed: %w", err)
	}

	return messageID, nil
}

// ConsoleGateway logs the message instead of delivering it. Used in
// development so the magic-link and dispatch flows work end to end
// without an SMTP server.
type ConsoleGateway struct{}

func (g *ConsoleGateway) Send(email Email) (string, error) {
	fields := logrus.Fields{
		"to":      email.To,
		"subject": email.Subject,
		"text":    email.Text,
	}
	if email.HTML != nil {
		fields["html"] = *email.HTML
	}
	logrus.WithFields(fields).Info("email delivered to console")

	return fmt.Sprintf("console-%d", time.Now().UnixMilli()), nil
}
