package mailer

import (
	"fmt"
	"log"
	"net/smtp"
)

// Mailer sends plain-text mail over SMTP. All sends in this codebase are
// best-effort notifications: the caller's primary write has already been
// committed before any mail goes out.
type Mailer struct {
	host     string
	port     string
	username string
	password string
	from     string
	fromName string
}

func New(host, port, username, password, from, fromName string) *Mailer {
	return &Mailer{
		host:     host,
		port:     port,
		username: username,
		password: password,
		from:     from,
		fromName: fromName,
	}
}

// Enabled reports whether SMTP credentials were configured at all.
func (m *Mailer) Enabled() bool {
	return m != nil && m.host != "" && m.from != ""
}

// Send delivers a single message synchronously.
func (m *Mailer) Send(to, subject, body string) error {
	if !m.Enabled() {
		return fmt.Errorf("mailer not configured")
	}

	msg := []byte(fmt.Sprintf(
		"From: %s <%s>\r\nTo: %s\r\nSubject: %s\r\nMIME-Version: 1.0\r\nContent-Type: text/plain; charset=utf-8\r\n\r\n%s\r\n",
		m.fromName, m.from, to, subject, body,
	))

	auth := smtp.PlainAuth("", m.username, m.password, m.host)
	return smtp.SendMail(m.host+":"+m.port, auth, m.from, []string{to}, msg)
}

// SendAsync fires off a notification in the background. Failures are logged
// and never surfaced to the request that triggered them.
func (m *Mailer) SendAsync(to, subject, body string) {
	if !m.Enabled() {
		return
	}
	go func() {
		if err := m.Send(to, subject, body); err != nil {
			log.Println("[MAIL] [ERROR] send failed:", err)
		}
	}()
}
