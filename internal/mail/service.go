// Package mail delivers email over SMTP.
package mail

import (
	"bytes"
	"context"
	"fmt"
	"mime"
	netmail "net/mail"
	"net/smtp"
	"time"
)

type sendFunc func(addr string, a smtp.Auth, from string, to []string, msg []byte) error

type service struct {
	serverAddr string
	fromAddr   string
	fromName   string
	auth       smtp.Auth
	sendFn     sendFunc
}

// Email delivers a plain text email to an email address.
func (s *service) Email(ctx context.Context, email, subject, message string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	content := s.compose(email, subject, message)
	if err := s.sendFn(s.serverAddr, s.auth, s.fromAddr, []string{email}, content); err != nil {
		return fmt.Errorf("failed to send email: %w", err)
	}

	return nil
}

func (s *service) compose(to, subject, message string) []byte {
	from := netmail.Address{Name: s.fromName, Address: s.fromAddr}

	var b bytes.Buffer
	fmt.Fprintf(&b, "From: %s\r\n", from.String())
	fmt.Fprintf(&b, "To: %s\r\n", to)
	fmt.Fprintf(&b, "Subject: %s\r\n", mime.QEncoding.Encode("utf-8", subject))
	fmt.Fprintf(&b, "Date: %s\r\n", time.Now().Format(time.RFC1123Z))
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: text/plain; charset=\"utf-8\"\r\n")
	b.WriteString("\r\n")
	b.WriteString(message)
	b.WriteString("\r\n")

	return b.Bytes()
}
