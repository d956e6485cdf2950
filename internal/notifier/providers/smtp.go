package providers

import (
	"fmt"
	"net/smtp"

	"github.com/jordan-wright/email"
)

// SMTPSender sends emails via SMTP
type SMTPSender struct {
	host     string
	port     int
	username string
	password string
	from     string
}

// NewSMTPSender creates a new SMTP sender
func NewSMTPSender(host string, port int, username, password, from string) *SMTPSender {
	return &SMTPSender{
		host:     host,
		port:     port,
		username: username,
		password: password,
		from:     from,
	}
}

// Message builds the multipart email without sending it
func (s *SMTPSender) Message(to []string, subject, htmlBody, plainBody string) *email.Email {
	e := email.NewEmail()
	e.From = fmt.Sprintf("xtop <%s>", s.from)
	e.To = to
	e.Subject = subject
	e.Text = []byte(plainBody)
	e.HTML = []byte(htmlBody)
	return e
}

// Send sends an email via SMTP. Servers without AUTH get an
// unauthenticated connection.
func (s *SMTPSender) Send(to []string, subject, htmlBody, plainBody string) error {
	addr := fmt.Sprintf("%s:%d", s.host, s.port)
	e := s.Message(to, subject, htmlBody, plainBody)

	var auth smtp.Auth
	if s.username != "" {
		auth = smtp.PlainAuth("", s.username, s.password, s.host)
	}

	if err := e.Send(addr, auth); err != nil {
		return fmt.Errorf("failed to send email: %w", err)
	}
	return nil
}
