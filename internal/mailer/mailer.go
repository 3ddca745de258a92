package mailer

import (
	"context"
	"strings"

	"github.com/spartanofurioso/platform/internal/pkg/logger"
)

// Message is a single outgoing email
type Message struct {
	To      string
	Subject string
	HTML    string
}

// Mailer sends email
type Mailer interface {
	Send(ctx context.Context, msg Message) error
}

// LogMailer logs messages instead of sending them
type LogMailer struct {
	log *logger.Logger
}

// NewLogMailer creates a mailer for development setups without SMTP
func NewLogMailer(log *logger.Logger) *LogMailer {
	return &LogMailer{log: log}
}

// Send logs the message
func (m *LogMailer) Send(ctx context.Context, msg Message) error {
	m.log.WithFields(map[string]interface{}{
		"to":      msg.To,
		"subject": msg.Subject,
	}).Info("Email not sent: mail delivery disabled")
	return nil
}

// sanitizeHeader strips CR and LF so values cannot inject headers
func sanitizeHeader(v string) string {
	return strings.NewReplacer("\r", "", "\n", "").Replace(v)
}
