package mailer

import (
	"fmt"
	"time"

	gomail "gopkg.in/gomail.v2"
)

// Mailer manda el link de invitación por SMTP.
type Mailer struct {
	dialer *gomail.Dialer
	from   string
}

func New(host string, port int, user, pass, from string) *Mailer {
	return &Mailer{dialer: gomail.NewDialer(host, port, user, pass), from: from}
}

func (m *Mailer) SendInvite(email, inviteURL string, expiresAt time.Time) error {
	msg := gomail.NewMessage()
	msg.SetHeader("From", m.from)
	msg.SetHeader("To", email)
	msg.SetHeader("Subject", "Tu invitación al servidor")
	msg.SetBody("text/plain", fmt.Sprintf(
		"Entrá con este link:\n%s\n\nEs de un solo uso y vence el %s.",
		inviteURL, expiresAt.Format(time.RFC1123),
	))
	if err := m.dialer.DialAndSend(msg); err != nil {
		return fmt.Errorf("smtp send: %w", err)
	}
	return nil
}
