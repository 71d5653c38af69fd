// internal/app/system/mailer/mailer.go
package mailer

import (
	"fmt"
	"net/smtp"
	"strings"

	"go.uber.org/zap"
)

// Email is a single outbound message with both text and HTML bodies.
type Email struct {
	To       string
	Subject  string
	TextBody string
	HTMLBody string
}

// Sender delivers emails. Delivery is best-effort from the caller's point
// of view; the dispatcher owns retries.
type Sender interface {
	Send(email Email) error
}

// SMTPSender delivers via a plain SMTP relay (Mailpit in dev, SES in prod).
type SMTPSender struct {
	Host     string
	Port     int
	User     string
	Pass     string
	From     string
	FromName string
}

// Send delivers one email over SMTP.
func (s *SMTPSender) Send(email Email) error {
	addr := fmt.Sprintf("%s:%d", s.Host, s.Port)

	var auth smtp.Auth
	if s.User != "" {
		auth = smtp.PlainAuth("", s.User, s.Pass, s.Host)
	}

	msg := buildMessage(s.From, s.FromName, email)
	return smtp.SendMail(addr, auth, s.From, []string{email.To}, msg)
}

// buildMessage assembles a multipart/alternative MIME message.
func buildMessage(from, fromName string, email Email) []byte {
	const boundary = "volunteerhub-boundary"

	var b strings.Builder
	fmt.Fprintf(&b, "From: %s <%s>\r\n", fromName, from)
	fmt.Fprintf(&b, "To: %s\r\n", email.To)
	fmt.Fprintf(&b, "Subject: %s\r\n", email.Subject)
	b.WriteString("MIME-Version: 1.0\r\n")
	fmt.Fprintf(&b, "Content-Type: multipart/alternative; boundary=%q\r\n\r\n", boundary)

	fmt.Fprintf(&b, "--%s\r\n", boundary)
	b.WriteString("Content-Type: text/plain; charset=UTF-8\r\n\r\n")
	b.WriteString(email.TextBody)
	b.WriteString("\r\n")

	if email.HTMLBody != "" {
		fmt.Fprintf(&b, "--%s\r\n", boundary)
		b.WriteString("Content-Type: text/html; charset=UTF-8\r\n\r\n")
		b.WriteString(email.HTMLBody)
		b.WriteString("\r\n")
	}
	fmt.Fprintf(&b, "--%s--\r\n", boundary)

	return []byte(b.String())
}

// LogSender logs instead of sending. Used in dev when no SMTP relay is
// configured, and in tests.
type LogSender struct {
	Log *zap.Logger
}

func (s *LogSender) Send(email Email) error {
	s.Log.Info("email (not sent, log sender)",
		zap.String("to", email.To),
		zap.String("subject", email.Subject))
	return nil
}
