package infra

import (
	"crypto/tls"
	"errors"
	"fmt"
	"net/smtp"
	"path/filepath"

	"novaadm/internal/config"

	"github.com/jordan-wright/email"
)

// Mensaje is one outgoing receipt email.
type Mensaje struct {
	Para    string
	Asunto  string
	Texto   string
	Adjunto string // optional PDF path
}

// Mailer sends receipts through the configured SMTP relay. Port 465 uses
// implicit TLS, any other port STARTTLS through net/smtp.
type Mailer struct {
	host     string
	port     int
	usuario  string
	password string
}

func NewMailer(cfg *config.Config) *Mailer {
	return &Mailer{
		host:     cfg.SMTPHost,
		port:     cfg.SMTPPort,
		usuario:  cfg.SMTPUser,
		password: cfg.SMTPPassword,
	}
}

func (m *Mailer) Habilitado() bool { return m != nil && m.host != "" }

func (m *Mailer) Enviar(msg Mensaje) error {
	if !m.Habilitado() {
		return errors.New("mailer: SMTP_HOST not configured")
	}
	if msg.Para == "" {
		return errors.New("mailer: empty recipient")
	}

	e := email.NewEmail()
	e.From = m.usuario
	e.To = []string{msg.Para}
	e.Subject = msg.Asunto
	e.Text = []byte(msg.Texto)
	if msg.Adjunto != "" {
		if _, err := e.AttachFile(msg.Adjunto); err != nil {
			return fmt.Errorf("mailer: attach %s: %w", filepath.Base(msg.Adjunto), err)
		}
	}

	addr := fmt.Sprintf("%s:%d", m.host, m.port)
	auth := smtp.PlainAuth("", m.usuario, m.password, m.host)
	if m.port == 465 {
		return e.SendWithTLS(addr, auth, &tls.Config{ServerName: m.host})
	}
	return e.Send(addr, auth)
}
