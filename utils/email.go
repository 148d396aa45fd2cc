package utils

import (
	"github.com/rs/zerolog"
	"gopkg.in/gomail.v2"
)

// Mailer sends an HTML email.
type Mailer interface {
	Send(to, subject, body string) error
}

// SMTPMailer delivers mail through an SMTP relay.
type SMTPMailer struct {
	dialer *gomail.Dialer
	from   string
}

func NewSMTPMailer(host string, port int, user, password string) *SMTPMailer {
	return &SMTPMailer{
		dialer: gomail.NewDialer(host, port, user, password),
		from:   user,
	}
}

func (m *SMTPMailer) Send(to, subject, body string) error {
	msg := gomail.NewMessage()
	msg.SetHeader("From", m.from)
	msg.SetHeader("To", to)
	msg.SetHeader("Subject", subject)
	msg.SetBody("text/html", body)
	return m.dialer.DialAndSend(msg)
}

// LogMailer only logs outgoing mail. Used when SMTP is not configured.
type LogMailer struct {
	Logger zerolog.Logger
}

func (m LogMailer) Send(to, subject, _ string) error {
	m.Logger.Info().Str("to", to).Str("subject", subject).Msg("email not sent: smtp disabled")
	return nil
}
