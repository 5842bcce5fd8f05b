// Package mailer delivers transactional email over SMTP. Delivery is
// fire-and-forget: failures are logged and never block or fail the request
// that triggered them.
package mailer

import (
	"crypto/tls"
	"fmt"
	"net"
	"net/smtp"
	"strings"
	"time"

	"github.com/entrefine/lifeos/internal/config"
	log "github.com/sirupsen/logrus"
)

// sendTimeout bounds one SMTP conversation end to end.
const sendTimeout = 20 * time.Second

// Mailer sends templated mail through one SMTP endpoint. With no host or
// sender configured every send becomes a logged no-op, which keeps local
// development working without an SMTP server.
type Mailer struct {
	cfg config.MailConfig
}

// New constructs a Mailer from SMTP settings.
func New(cfg config.MailConfig) *Mailer {
	return &Mailer{cfg: cfg}
}

// Enabled reports whether outgoing mail is configured.
func (m *Mailer) Enabled() bool {
	return m.cfg.Host != "" && m.cfg.From != ""
}

// SendInvitation mails a tenant invitation link.
func (m *Mailer) SendInvitation(email, tenantName, link string) {
	subject := fmt.Sprintf("You've been invited to join %s", tenantName)
	body := strings.Join([]string{
		fmt.Sprintf("You have been invited to join the %s workspace.", tenantName),
		"",
		"Accept the invitation here:",
		link,
		"",
		"The invitation expires in 7 days. If you weren't expecting this email you can ignore it.",
	}, "\r\n")
	m.dispatch(email, subject, body)
}

// SendPasswordReset mails a password reset link.
func (m *Mailer) SendPasswordReset(email, link string) {
	body := strings.Join([]string{
		"A password reset was requested for your account.",
		"",
		"Set a new password here:",
		link,
		"",
		"The link expires in one hour. If you didn't request this you can ignore it.",
	}, "\r\n")
	m.dispatch(email, "Reset your password", body)
}

// dispatch sends in the background so callers never wait on SMTP.
func (m *Mailer) dispatch(to, subject, body string) {
	if !m.Enabled() {
		log.WithFields(log.Fields{"to": to, "subject": subject}).Debug("smtp not configured, mail skipped")
		return
	}
	go func() {
		if err := m.send(to, subject, body); err != nil {
			log.WithError(err).WithFields(log.Fields{"to": to, "subject": subject}).Warn("mail delivery failed")
		}
	}()
}

func (m *Mailer) send(to, subject, body string) error {
	addr := net.JoinHostPort(m.cfg.Host, fmt.Sprintf("%d", m.cfg.Port))

	conn, err := net.DialTimeout("tcp", addr, sendTimeout)
	if err != nil {
		return fmt.Errorf("mailer: dial %s: %w", addr, err)
	}
	if errDeadline := conn.SetDeadline(time.Now().Add(sendTimeout)); errDeadline != nil {
		conn.Close()
		return fmt.Errorf("mailer: set deadline: %w", errDeadline)
	}

	client, err := smtp.NewClient(conn, m.cfg.Host)
	if err != nil {
		conn.Close()
		return fmt.Errorf("mailer: smtp handshake: %w", err)
	}
	defer client.Close()

	if ok, _ := client.Extension("STARTTLS"); ok {
		if errTLS := client.StartTLS(&tls.Config{ServerName: m.cfg.Host}); errTLS != nil {
			return fmt.Errorf("mailer: starttls: %w", errTLS)
		}
	}
	if m.cfg.User != "" {
		authMech := smtp.PlainAuth("", m.cfg.User, m.cfg.Pass, m.cfg.Host)
		if errAuth := client.Auth(authMech); errAuth != nil {
			return fmt.Errorf("mailer: auth: %w", errAuth)
		}
	}

	if errFrom := client.Mail(m.cfg.From); errFrom != nil {
		return fmt.Errorf("mailer: mail from: %w", errFrom)
	}
	if errRcpt := client.Rcpt(to); errRcpt != nil {
		return fmt.Errorf("mailer: rcpt to: %w", errRcpt)
	}

	w, err := client.Data()
	if err != nil {
		return fmt.Errorf("mailer: data: %w", err)
	}
	msg := strings.Join([]string{
		"From: " + m.cfg.From,
		"To: " + to,
		"Subject: " + subject,
		"MIME-Version: 1.0",
		`Content-Type: text/plain; charset="utf-8"`,
		"",
		body,
	}, "\r\n")
	if _, errWrite := w.Write([]byte(msg)); errWrite != nil {
		w.Close()
		return fmt.Errorf("mailer: write body: %w", errWrite)
	}
	if errClose := w.Close(); errClose != nil {
		return fmt.Errorf("mailer: close body: %w", errClose)
	}
	return client.Quit()
}
