package email

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"net/smtp"
	"strings"
)

type Config struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
}

type SMTPProvider struct {
	cfg Config
}

func NewSMTP(cfg Config) *SMTPProvider {
	return &SMTPProvider{cfg: cfg}
}

func (p *SMTPProvider) Send(_ context.Context, to []string, subject, htmlBody string) error {
	var msg bytes.Buffer
	writeHeaders(&msg, p.cfg.From, to, subject)
	msg.WriteString("Content-Type: text/html; charset=\"UTF-8\"\r\n\r\n")
	msg.WriteString(htmlBody)
	return p.sendMail(to, msg.Bytes())
}

func (p *SMTPProvider) SendWithAttachment(_ context.Context, to []string, subject, htmlBody, filename string, attachment []byte) error {
	const boundary = "rentstack-mail-boundary"

	var msg bytes.Buffer
	writeHeaders(&msg, p.cfg.From, to, subject)
	fmt.Fprintf(&msg, "Content-Type: multipart/mixed; boundary=%q\r\n\r\n", boundary)

	fmt.Fprintf(&msg, "--%s\r\n", boundary)
	msg.WriteString("Content-Type: text/html; charset=\"UTF-8\"\r\n\r\n")
	msg.WriteString(htmlBody)
	msg.WriteString("\r\n")

	fmt.Fprintf(&msg, "--%s\r\n", boundary)
	msg.WriteString("Content-Type: application/pdf\r\n")
	msg.WriteString("Content-Transfer-Encoding: base64\r\n")
	fmt.Fprintf(&msg, "Content-Disposition: attachment; filename=%q\r\n\r\n", filename)

	encoded := base64.StdEncoding.EncodeToString(attachment)
	for len(encoded) > 76 {
		msg.WriteString(encoded[:76])
		msg.WriteString("\r\n")
		encoded = encoded[76:]
	}
	msg.WriteString(encoded)
	msg.WriteString("\r\n")
	fmt.Fprintf(&msg, "--%s--\r\n", boundary)

	return p.sendMail(to, msg.Bytes())
}

func (p *SMTPProvider) sendMail(to []string, msg []byte) error {
	auth := smtp.PlainAuth("", p.cfg.Username, p.cfg.Password, p.cfg.Host)
	addr := fmt.Sprintf("%s:%d", p.cfg.Host, p.cfg.Port)
	return smtp.SendMail(addr, auth, p.cfg.From, to, msg)
}

func writeHeaders(msg *bytes.Buffer, from string, to []string, subject string) {
	fmt.Fprintf(msg, "From: %s\r\n", from)
	fmt.Fprintf(msg, "To: %s\r\n", strings.Join(to, ", "))
	fmt.Fprintf(msg, "Subject: %s\r\n", subject)
	msg.WriteString("MIME-Version: 1.0\r\n")
}
