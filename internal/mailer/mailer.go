package mailer

import (
	"context"
	"fmt"
	"log/slog"
	"net/smtp"
	"strings"
)

// Mailer delivers the one-time passcode out of band. A failed send must
// surface to the caller: the login flow aborts rather than leaving the
// account stuck with a pending OTP nobody received.
type Mailer interface {
	SendOTP(ctx context.Context, email string, code string) error
}

// SMTPMailer sends over plain SMTP with optional AUTH.
type SMTPMailer struct {
	addr string
	from string
	auth smtp.Auth
}

func NewSMTPMailer(addr string, from string, username string, password string) *SMTPMailer {
	m := &SMTPMailer{addr: addr, from: from}
	if username != "" {
		host := addr
		if i := strings.LastIndex(addr, ":"); i >= 0 {
			host = addr[:i]
		}
		m.auth = smtp.PlainAuth("", username, password, host)
	}
	return m
}

func (m *SMTPMailer) SendOTP(ctx context.Context, email string, code string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	msg := strings.Join([]string{
		"From: " + m.from,
		"To: " + email,
		"Subject: Your OTP for Multi-Factor Authentication",
		"MIME-Version: 1.0",
		"Content-Type: text/plain; charset=utf-8",
		"",
		"Your OTP for logging into the platform is: " + code,
		"",
		"Please use this code within the next 5 minutes.",
		"Do not share this code with anyone.",
	}, "\r\n")

	if err := smtp.SendMail(m.addr, m.auth, m.from, []string{email}, []byte(msg)); err != nil {
		return fmt.Errorf("send otp mail: %w", err)
	}
	return nil
}

// LogMailer writes the code to the log instead of sending mail. Local
// development only; never enable it where real users log in.
type LogMailer struct{}

func (LogMailer) SendOTP(_ context.Context, email string, code string) error {
	slog.Info("otp issued (log mailer)", "email", email, "code", code)
	return nil
}
