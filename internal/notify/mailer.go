package notify

import (
	"crypto/tls"
	"fmt"
	"net/smtp"
	"strings"

	"github.com/pkg/errors"
)

// SMTPMailer delivers mail over an implicit-TLS SMTP connection (the port
// 465 style of submission; STARTTLS is not attempted).
type SMTPMailer struct {
	Host     string
	Port     int
	Username string
	Password string
	Sender   string
}

func (m *SMTPMailer) Send(to string, subject string, body string) error {
	addr := fmt.Sprintf("%s:%d", m.Host, m.Port)
	conn, err := tls.Dial("tcp", addr, &tls.Config{ServerName: m.Host})
	if err != nil {
		return errors.Wrapf(err, "error dialing SMTP server: %s", addr)
	}
	c, err := smtp.NewClient(conn, m.Host)
	if err != nil {
		_ = conn.Close()
		return errors.Wrapf(err, "error creating SMTP client for server: %s", addr)
	}
	defer func() {
		_ = c.Close()
	}()

	if m.Username != "" {
		auth := smtp.PlainAuth("", m.Username, m.Password, m.Host)
		if err = c.Auth(auth); err != nil {
			return errors.Wrapf(err, "error authenticating to SMTP server: %s as: %s", addr, m.Username)
		}
	}
	if err = c.Mail(m.Sender); err != nil {
		return errors.Wrapf(err, "error setting SMTP sender: %s", m.Sender)
	}
	if err = c.Rcpt(to); err != nil {
		return errors.Wrapf(err, "error setting SMTP recipient: %s", to)
	}

	w, err := c.Data()
	if err != nil {
		return errors.Wrap(err, "error opening SMTP data writer")
	}
	msg := strings.Join([]string{
		"From: " + m.Sender,
		"To: " + to,
		"Subject: " + subject,
		"MIME-Version: 1.0",
		`Content-Type: text/plain; charset="utf-8"`,
		"",
		body,
	}, "\r\n")
	if _, err = w.Write([]byte(msg)); err != nil {
		return errors.Wrapf(err, "error writing SMTP message to: %s", to)
	}
	if err = w.Close(); err != nil {
		return errors.Wrapf(err, "error closing SMTP data writer for message to: %s", to)
	}
	return errors.Wrap(c.Quit(), "error quitting SMTP session")
}
